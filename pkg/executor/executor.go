// Package executor walks command ASTs: it wires pipes, applies redirections,
// spawns external processes through the exec policy, runs builtins in
// process, and maps everything to shell exit statuses.
package executor

import (
	"errors"
	"os"

	"github.com/Fudmottin/clanker/pkg/builtins"
	"github.com/Fudmottin/clanker/pkg/core"
	"github.com/Fudmottin/clanker/pkg/parser"
	"github.com/Fudmottin/clanker/pkg/policy"
	"github.com/Fudmottin/clanker/pkg/sandbox"
	"github.com/Fudmottin/clanker/pkg/spawn"
)

// Config wires an Executor. Cwd and Oldpwd point at the shell's mutable
// state; everything else is immutable for the executor's lifetime.
type Config struct {
	Root     *sandbox.Root
	Builtins *builtins.Registry
	Policy   policy.ExecPolicy
	Security *policy.Security
	Stdio    *core.Stdio
	Cwd      *string
	Oldpwd   *string
}

// Executor evaluates parsed commands. It is used from the driver goroutine;
// background units get their own copy with snapshotted directory state.
type Executor struct {
	cfg  Config
	jobs *jobTable

	exitRequested bool
	exitCode      int
}

// New returns an Executor over cfg.
func New(cfg Config) *Executor {
	return &Executor{cfg: cfg, jobs: &jobTable{}}
}

// ExitRequested reports whether a builtin asked the shell to terminate,
// and with which code.
func (e *Executor) ExitRequested() (bool, int) {
	return e.exitRequested, e.exitCode
}

func (e *Executor) requestExit(code int) {
	e.exitRequested = true
	e.exitCode = code
}

// RunList evaluates a command list in order and returns the status of the
// last item. Ampersand-terminated items are detached.
func (e *Executor) RunList(list *parser.CommandList) int {
	status := core.ExitSuccess
	for i := range list.Items {
		item := &list.Items[i]
		if item.Term == parser.TermAmpersand {
			status = e.RunBackground(item.Cmd)
		} else {
			status = e.RunAndOr(&item.Cmd)
		}
		if e.exitRequested {
			break
		}
	}
	return status
}

// RunAndOr evaluates a chain left to right with short-circuit semantics and
// returns the status of the last pipeline actually run.
func (e *Executor) RunAndOr(chain *parser.AndOr) int {
	last := e.RunPipeline(&chain.First)
	for i := range chain.Rest {
		if e.exitRequested {
			break
		}
		tail := &chain.Rest[i]
		if tail.Op == parser.OpAndIf && last != core.ExitSuccess {
			continue
		}
		if tail.Op == parser.OpOrIf && last == core.ExitSuccess {
			continue
		}
		last = e.RunPipeline(&tail.RHS)
	}
	return last
}

// RunPipeline dispatches a pipeline to the single-stage, builtin-first, or
// all-external path.
func (e *Executor) RunPipeline(pl *parser.Pipeline) int {
	if len(pl.Stages) == 1 {
		return e.runSingle(&pl.Stages[0])
	}

	for i := range pl.Stages {
		st := &pl.Stages[i]
		if len(st.Argv) == 0 {
			e.cfg.Stdio.Errorf("error: missing command in pipeline\n")
			return core.ExitUsage
		}
		if i > 0 {
			if _, ok := e.cfg.Builtins.Find(st.Argv[0]); ok {
				e.cfg.Stdio.Errorf("error: builtin '%s' allowed only as first pipeline stage\n", st.Argv[0])
				return core.ExitUsage
			}
		}
	}

	if _, ok := e.cfg.Builtins.Find(pl.Stages[0].Argv[0]); ok {
		return e.runBuiltinFirst(pl.Stages)
	}
	return e.runExternalPipeline(pl.Stages)
}

// runSingle executes a pipeline of one stage.
func (e *Executor) runSingle(st *parser.SimpleCommand) int {
	if len(st.Argv) == 0 {
		// Redirections with no command: open (creating or truncating as
		// requested) and release immediately; nothing stays open.
		if !e.securityOK() {
			return core.ExitSecurity
		}
		return e.applyRedirsOnly(st.Redirs)
	}

	if fn, ok := e.cfg.Builtins.Find(st.Argv[0]); ok {
		if e.cfg.Builtins.TouchesFS(st.Argv[0]) && !e.securityOK() {
			return core.ExitSecurity
		}
		return e.runBuiltin(fn, st, nil)
	}
	return e.runExternalSingle(st)
}

// runBuiltin invokes fn with the stage's redirections rebound onto the
// builtin context streams. pipeOut, when non-nil, becomes the default
// stdout (the write end of a pipeline pipe); explicit redirections may
// still override it.
func (e *Executor) runBuiltin(fn builtins.Fn, st *parser.SimpleCommand, pipeOut *os.File) int {
	ctx := e.builtinContext()
	if pipeOut != nil {
		ctx.Out = pipeOut
	}

	var opened fileList
	defer opened.closeAll()
	for _, rd := range st.Redirs {
		f, status := e.openRedir(rd)
		if status != core.ExitSuccess {
			return status
		}
		opened.add(f)
		switch rd.FD {
		case 0:
			ctx.In = f
		case 1:
			ctx.Out = f
		case 2:
			ctx.Err = f
		}
	}
	return fn(ctx, st.Argv)
}

// runExternalSingle spawns one external command with its redirections.
func (e *Executor) runExternalSingle(st *parser.SimpleCommand) int {
	if !e.securityOK() {
		return core.ExitSecurity
	}
	if ok, reason := e.cfg.Policy.AllowExternal(st.Argv); !ok {
		e.cfg.Stdio.Errorf("error: %s\n", reason)
		return core.ExitNotExecutable
	}

	bridge := newStdioBridge(e.cfg.Stdio)
	defer bridge.finish()

	var stdio [3]*os.File
	var opened fileList
	status := e.applyStageRedirs(st.Redirs, &stdio, &opened)
	if status != core.ExitSuccess {
		opened.closeAll()
		return status
	}
	if err := bridge.fill(&stdio); err != nil {
		opened.closeAll()
		e.cfg.Stdio.Errorf("error: pipe: %v\n", err)
		return core.ExitFailure
	}

	proc, err := e.cfg.Policy.Spawn(spawn.Spec{
		Argv:   st.Argv,
		Stdin:  stdio[0],
		Stdout: stdio[1],
		Stderr: stdio[2],
	})
	opened.closeAll()
	if err != nil {
		return e.spawnStatus(err)
	}
	return spawn.Wait(proc)
}

// spawnStatus maps a spawn failure: ENOENT-style lookup failures are 127
// with no shell diagnostic; everything else is 126.
func (e *Executor) spawnStatus(err error) int {
	if errors.Is(err, spawn.ErrNotFound) {
		core.Debug.Debug("spawn", "err", err)
		return core.ExitNotFound
	}
	core.Debug.Debug("spawn failed", "err", err)
	return core.ExitNotExecutable
}

func (e *Executor) securityOK() bool {
	if e.cfg.Security == nil || e.cfg.Security.IdentityUnchanged() {
		return true
	}
	e.cfg.Stdio.Errorf("clanker: security: privilege change detected; refusing to execute\n")
	return false
}

func (e *Executor) builtinContext() *builtins.Context {
	return &builtins.Context{
		Root:        e.cfg.Root,
		Cwd:         e.cfg.Cwd,
		Oldpwd:      e.cfg.Oldpwd,
		In:          e.cfg.Stdio.In,
		Out:         e.cfg.Stdio.Out,
		Err:         e.cfg.Stdio.Err,
		Registry:    e.cfg.Builtins,
		RequestExit: e.requestExit,
	}
}
