// Package spawn starts external processes with explicit stdio wiring. Only
// the three standard descriptors are ever passed to a child; everything else
// the shell holds is close-on-exec, so pipeline children cannot keep a pipe
// end alive past their own stdio.
package spawn

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"syscall"

	"github.com/Fudmottin/clanker/pkg/core"
)

// ErrNotFound reports a failed PATH lookup. Callers map it to exit 127;
// every other spawn failure maps to 126.
var ErrNotFound = errors.New("command not found")

// Spec describes one external process. A nil stdio file means inherit the
// shell's own descriptor. The child starts in the process working directory,
// which the shell keeps pointed at its logical cwd.
type Spec struct {
	Argv   []string
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
}

// Run looks up Argv[0] on PATH and starts the process. The returned process
// has been started but not waited on.
func Run(spec Spec) (*os.Process, error) {
	if len(spec.Argv) == 0 {
		return nil, errors.New("spawn: empty argv")
	}
	path, err := exec.LookPath(spec.Argv[0])
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", spec.Argv[0], ErrNotFound)
		}
		return nil, err
	}

	files := []*os.File{os.Stdin, os.Stdout, os.Stderr}
	if spec.Stdin != nil {
		files[0] = spec.Stdin
	}
	if spec.Stdout != nil {
		files[1] = spec.Stdout
	}
	if spec.Stderr != nil {
		files[2] = spec.Stderr
	}

	proc, err := os.StartProcess(path, spec.Argv, &os.ProcAttr{Files: files})
	if err != nil {
		return nil, err
	}
	core.Debug.Debug("spawned", "argv0", spec.Argv[0], "pid", proc.Pid)
	return proc, nil
}

// Pipe returns a connected read/write file pair. Both ends are close-on-exec
// in the shell; a child sees an end only when it is passed as stdio.
func Pipe() (r, w *os.File, err error) {
	return os.Pipe()
}

// Wait blocks until proc exits and returns its mapped shell status:
// WEXITSTATUS for a normal exit, 128+N for death by signal N.
func Wait(proc *os.Process) int {
	ps, err := proc.Wait()
	if err != nil {
		core.Debug.Debug("wait failed", "pid", proc.Pid, "err", err)
		return core.ExitFailure
	}
	return ExitStatus(ps)
}

// ExitStatus maps a wait result to a shell exit status.
func ExitStatus(ps *os.ProcessState) int {
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok {
		if ws.Signaled() {
			return core.SignalBase + int(ws.Signal())
		}
		if ws.Exited() {
			return ws.ExitStatus()
		}
	}
	return core.ExitFailure
}
