package shell

import (
	"os"
	"os/signal"
	"sync/atomic"
)

// SIGINT handling: the handler only records the interrupt; the REPL polls
// and consumes the flag each iteration. Spawned children keep the default
// disposition, so ^C still cancels a foreground pipeline directly.

var gotInterrupt atomic.Bool

func installSignalHandlers() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	go func() {
		for range ch {
			gotInterrupt.Store(true)
		}
	}()
}

func consumeInterrupt() bool {
	return gotInterrupt.Swap(false)
}
