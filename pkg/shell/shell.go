// Package shell is the clanker driver: it owns the mutable shell state,
// feeds accumulated input to the parser, and dispatches complete commands
// to the executor. It runs interactively (REPL with continuation prompts)
// or in batch over a string or script file.
package shell

import (
	"bufio"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/Fudmottin/clanker/pkg/builtins"
	"github.com/Fudmottin/clanker/pkg/core"
	"github.com/Fudmottin/clanker/pkg/executor"
	"github.com/Fudmottin/clanker/pkg/parser"
	"github.com/Fudmottin/clanker/pkg/policy"
	"github.com/Fudmottin/clanker/pkg/sandbox"
)

const (
	promptMain = "clanker > "
	promptCont = "... "
)

// Shell ties the components together. The sandbox root is the working
// directory at construction and never changes afterwards.
type Shell struct {
	stdio    *core.Stdio
	root     *sandbox.Root
	security *policy.Security
	parser   *parser.Parser
	exec     *executor.Executor

	cwd        string
	oldpwd     string
	lastStatus int
}

// New builds a shell rooted at the current working directory, with the
// default exec policy and all standard builtins.
func New(stdio *core.Stdio) (*Shell, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root, err := sandbox.New(cwd)
	if err != nil {
		return nil, err
	}

	s := &Shell{
		stdio:    stdio,
		root:     root,
		security: policy.CaptureStartupIdentity(),
		parser:   parser.New(),
		cwd:      root.Path(),
	}
	s.exec = executor.New(executor.Config{
		Root:     root,
		Builtins: builtins.NewRegistry(),
		Policy:   policy.NewDefault(),
		Security: s.security,
		Stdio:    stdio,
		Cwd:      &s.cwd,
		Oldpwd:   &s.oldpwd,
	})
	return s, nil
}

// Root returns the sandbox root.
func (s *Shell) Root() *sandbox.Root { return s.root }

// RefuseRootStart returns ExitSecurity when the shell was started with
// root privileges, after printing the refusal; 0 otherwise.
func (s *Shell) RefuseRootStart() int {
	if s.security.RootAtStart() {
		s.stdio.Errorf("clanker: security: refusing to start as root\n")
		return core.ExitSecurity
	}
	return core.ExitSuccess
}

// Repl reads commands interactively until EOF or an exit request. Returns
// the last command's status (or the exit builtin's code).
func (s *Shell) Repl() int {
	installSignalHandlers()
	reader := bufio.NewReader(s.stdio.In)
	interactive := isTerminal(s.stdio.In)

	var buffer string
	for {
		s.exec.ReapBackground()
		if consumeInterrupt() {
			s.stdio.Println()
			buffer = ""
		}
		if interactive {
			if buffer == "" {
				s.stdio.Print(promptMain)
			} else {
				s.stdio.Print(promptCont)
			}
		}

		line, readErr := reader.ReadString('\n')
		if readErr != nil && line == "" {
			s.stdio.Println()
			return s.lastStatus
		}
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")
		if buffer == "" {
			buffer = line
		} else {
			buffer += "\n" + line
		}

		pr := s.parser.Parse(buffer)
		switch pr.Kind {
		case parser.Incomplete:
			// keep reading; the construct is still open
		case parser.Error:
			s.stdio.Errorf("syntax error: %s\n", pr.Message)
			buffer = ""
			s.lastStatus = core.ExitUsage
		case parser.Complete:
			buffer = ""
			s.dispatch(pr)
			if exiting, code := s.exec.ExitRequested(); exiting {
				return code
			}
		}

		if readErr != nil {
			// last line had no newline; it has been processed
			s.stdio.Println()
			return s.lastStatus
		}
	}
}

// RunString parses and runs src as a batch. Incomplete input at end of
// string is an error here, unlike in the REPL.
func (s *Shell) RunString(src string) int {
	pr := s.parser.Parse(src)
	switch pr.Kind {
	case parser.Incomplete:
		s.stdio.Errorf("parse: unexpected end of input\n")
		return core.ExitUsage
	case parser.Error:
		s.stdio.Errorf("syntax error: %s\n", pr.Message)
		return core.ExitUsage
	}
	s.dispatch(pr)
	s.exec.WaitBackground()
	if exiting, code := s.exec.ExitRequested(); exiting {
		return code
	}
	return s.lastStatus
}

// RunFile slurps a script and runs it as a batch.
func (s *Shell) RunFile(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		s.stdio.Errorf("clanker: cannot open script: %s\n", path)
		return core.ExitUsage
	}
	return s.RunString(string(data))
}

func (s *Shell) dispatch(pr parser.Result) {
	switch {
	case pr.Pipeline != nil:
		s.lastStatus = s.exec.RunPipeline(pr.Pipeline)
	case pr.List != nil:
		s.lastStatus = s.exec.RunList(pr.List)
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
