package executor

import (
	"io"
	"os"
	"sync"

	"github.com/Fudmottin/clanker/pkg/core"
)

// stdioBridge materializes the shell's stdio streams as files a child can
// inherit. Streams that already are files (the normal interactive case)
// pass through untouched; anything else — captured buffers in tests, any
// io.Reader/Writer a host embeds the shell with — gets a pipe and a copier
// goroutine. Slots are memoized so every stage of a pipeline shares one
// stderr pipe.
//
// Lifecycle: create, hand out slots, spawn children, then finish() exactly
// once — it closes the child-side ends the parent still holds and waits for
// the copiers to drain.
type stdioBridge struct {
	stdio *core.Stdio

	wg        sync.WaitGroup
	childEnds fileList

	in, out, errF *os.File
}

func newStdioBridge(stdio *core.Stdio) *stdioBridge {
	return &stdioBridge{stdio: stdio}
}

// Stdin returns a file for the shell's input stream.
func (b *stdioBridge) Stdin() (*os.File, error) {
	if b.in != nil {
		return b.in, nil
	}
	if f, ok := b.stdio.In.(*os.File); ok {
		b.in = f
		return f, nil
	}
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	b.childEnds.add(pr)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		io.Copy(pw, b.stdio.In)
		pw.Close()
	}()
	b.in = pr
	return pr, nil
}

// Stdout returns a file for the shell's output stream.
func (b *stdioBridge) Stdout() (*os.File, error) {
	f, err := b.writerFile(b.stdio.Out, &b.out)
	return f, err
}

// Stderr returns a file for the shell's error stream.
func (b *stdioBridge) Stderr() (*os.File, error) {
	f, err := b.writerFile(b.stdio.Err, &b.errF)
	return f, err
}

func (b *stdioBridge) writerFile(w io.Writer, slot **os.File) (*os.File, error) {
	if *slot != nil {
		return *slot, nil
	}
	if f, ok := w.(*os.File); ok {
		*slot = f
		return f, nil
	}
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	b.childEnds.add(pw)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		io.Copy(w, pr)
		pr.Close()
	}()
	*slot = pw
	return pw, nil
}

// fill resolves every still-nil stdio slot from the bridge.
func (b *stdioBridge) fill(stdio *[3]*os.File) error {
	var err error
	if stdio[0] == nil {
		stdio[0], err = b.Stdin()
		if err != nil {
			return err
		}
	}
	if stdio[1] == nil {
		stdio[1], err = b.Stdout()
		if err != nil {
			return err
		}
	}
	if stdio[2] == nil {
		stdio[2], err = b.Stderr()
		if err != nil {
			return err
		}
	}
	return nil
}

// finish closes the child-side pipe ends still held by the parent and waits
// for the copiers. Call after all children have been spawned and waited on.
func (b *stdioBridge) finish() {
	b.childEnds.closeAll()
	b.wg.Wait()
}
