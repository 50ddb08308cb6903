package executor

import (
	"sync"

	"github.com/Fudmottin/clanker/pkg/core"
	"github.com/Fudmottin/clanker/pkg/parser"
)

// jobTable tracks detached units. Channels are buffered so a finished job
// never blocks on a slow reaper.
type jobTable struct {
	mu    sync.Mutex
	chans []chan int
}

func (j *jobTable) add(ch chan int) {
	j.mu.Lock()
	j.chans = append(j.chans, ch)
	j.mu.Unlock()
}

// RunBackground detaches an and-or chain. The unit runs with a snapshot of
// the shell's directory state, so a backgrounded cd cannot move the
// foreground shell — the same isolation a forked child would have. Returns
// 0 once the unit is launched; nothing waits for it.
func (e *Executor) RunBackground(cmd parser.AndOr) int {
	if !e.securityOK() {
		return core.ExitSecurity
	}

	bg := &Executor{cfg: e.cfg, jobs: e.jobs}
	cwd, oldpwd := *e.cfg.Cwd, *e.cfg.Oldpwd
	bg.cfg.Cwd, bg.cfg.Oldpwd = &cwd, &oldpwd

	ch := make(chan int, 1)
	e.jobs.add(ch)
	go func() {
		ch <- bg.RunAndOr(&cmd) & 0xff
	}()
	return core.ExitSuccess
}

// ReapBackground drops finished background units without blocking. The
// driver calls it once per prompt iteration.
func (e *Executor) ReapBackground() {
	e.jobs.mu.Lock()
	defer e.jobs.mu.Unlock()
	kept := e.jobs.chans[:0]
	for _, ch := range e.jobs.chans {
		select {
		case status := <-ch:
			core.Debug.Debug("background unit finished", "status", status)
		default:
			kept = append(kept, ch)
		}
	}
	e.jobs.chans = kept
}

// WaitBackground blocks until every background unit has finished. Batch
// runs drain before returning so a script's detached output is not cut off
// by process exit.
func (e *Executor) WaitBackground() {
	e.jobs.mu.Lock()
	chans := e.jobs.chans
	e.jobs.chans = nil
	e.jobs.mu.Unlock()
	for _, ch := range chans {
		<-ch
	}
}
