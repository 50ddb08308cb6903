package executor

import (
	"errors"
	"os"

	"github.com/Fudmottin/clanker/pkg/core"
	"github.com/Fudmottin/clanker/pkg/parser"
)

// fileList tracks files the executor opened so every path out of a pipeline
// closes them exactly once.
type fileList struct {
	files []*os.File
}

func (l *fileList) add(f *os.File) { l.files = append(l.files, f) }

func (l *fileList) closeAll() {
	for _, f := range l.files {
		f.Close()
	}
	l.files = nil
}

// openRedir opens one redirection target. On failure it reports the
// diagnostic and returns a non-success status; the file is nil exactly when
// status is non-success. Only fds 0..2 are supported.
func (e *Executor) openRedir(rd parser.Redirection) (*os.File, int) {
	if rd.FD < 0 || rd.FD > 2 {
		e.cfg.Stdio.Errorf("error: redirection for fd %d not supported\n", rd.FD)
		return nil, core.ExitUsage
	}

	var f *os.File
	var err error
	switch rd.Kind {
	case parser.RedirIn:
		f, err = os.Open(rd.Target)
	case parser.RedirOutTrunc:
		f, err = os.OpenFile(rd.Target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	case parser.RedirOutAppend:
		f, err = os.OpenFile(rd.Target, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	}
	if err != nil {
		e.cfg.Stdio.Errorf("error: cannot open '%s': %v\n", rd.Target, openReason(err))
		return nil, core.ExitFailure
	}
	return f, core.ExitSuccess
}

// openReason strips the "open <path>" prefix so the diagnostic carries the
// path exactly once.
func openReason(err error) string {
	var pe *os.PathError
	if errors.As(err, &pe) {
		return pe.Err.Error()
	}
	return err.Error()
}

// applyStageRedirs opens a stage's redirections into the child stdio slots
// (index = fd; nil means inherit). Opened files are appended to opened for
// the caller to close after the spawn.
func (e *Executor) applyStageRedirs(redirs []parser.Redirection, stdio *[3]*os.File, opened *fileList) int {
	for _, rd := range redirs {
		f, status := e.openRedir(rd)
		if status != core.ExitSuccess {
			return status
		}
		opened.add(f)
		stdio[rd.FD] = f
	}
	return core.ExitSuccess
}

// applyRedirsOnly handles a stage with redirections but no command: each
// target is opened with its requested mode and released again, so `> f`
// creates or truncates f without leaving anything open in the shell.
func (e *Executor) applyRedirsOnly(redirs []parser.Redirection) int {
	for _, rd := range redirs {
		f, status := e.openRedir(rd)
		if status != core.ExitSuccess {
			return status
		}
		f.Close()
	}
	return core.ExitSuccess
}
