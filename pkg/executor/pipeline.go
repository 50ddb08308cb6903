package executor

import (
	"os"

	"github.com/Fudmottin/clanker/pkg/core"
	"github.com/Fudmottin/clanker/pkg/parser"
	"github.com/Fudmottin/clanker/pkg/spawn"
)

// runExternalPipeline runs a pipeline whose stages are all external.
// Every stage is validated before anything is spawned. The parent closes
// each pipe end as soon as the child owning it has started, so downstream
// stages see EOF the moment their producer exits.
func (e *Executor) runExternalPipeline(stages []parser.SimpleCommand) int {
	for i := range stages {
		if ok, reason := e.cfg.Policy.AllowExternal(stages[i].Argv); !ok {
			e.cfg.Stdio.Errorf("error: %s\n", reason)
			return core.ExitNotExecutable
		}
	}
	if !e.securityOK() {
		return core.ExitSecurity
	}

	bridge := newStdioBridge(e.cfg.Stdio)
	defer bridge.finish()

	n := len(stages)
	procs := make([]*os.Process, n)
	statuses := make([]int, n)
	var prevRead *os.File

	for i := range stages {
		st := &stages[i]
		last := i == n-1

		var nextRead, nextWrite *os.File
		if !last {
			var err error
			nextRead, nextWrite, err = spawn.Pipe()
			if err != nil {
				e.cfg.Stdio.Errorf("error: pipe: %v\n", err)
				closeFile(prevRead)
				waitAll(procs, statuses)
				return core.ExitFailure
			}
		}

		var stdio [3]*os.File
		stdio[0] = prevRead
		stdio[1] = nextWrite

		var opened fileList
		status := e.applyStageRedirs(st.Redirs, &stdio, &opened)
		if status == core.ExitSuccess {
			if err := bridge.fill(&stdio); err != nil {
				e.cfg.Stdio.Errorf("error: pipe: %v\n", err)
				status = core.ExitFailure
			}
		}
		if status != core.ExitSuccess {
			// The stage never runs; its neighbors still get their pipe
			// ends closed so the rest of the pipeline drains normally.
			statuses[i] = status
		} else {
			proc, err := e.cfg.Policy.Spawn(spawn.Spec{
				Argv:   st.Argv,
				Stdin:  stdio[0],
				Stdout: stdio[1],
				Stderr: stdio[2],
			})
			if err != nil {
				statuses[i] = e.spawnStatus(err)
			} else {
				procs[i] = proc
			}
		}
		opened.closeAll()

		closeFile(prevRead)
		closeFile(nextWrite)
		prevRead = nextRead
	}

	waitAll(procs, statuses)
	return statuses[n-1]
}

// runBuiltinFirst runs a pipeline whose first stage is a builtin feeding
// external stages. The externals are spawned first so a reader exists
// before the builtin writes; the builtin then runs in process with its
// stdout bound to the pipe, and closing the write end delivers EOF.
func (e *Executor) runBuiltinFirst(stages []parser.SimpleCommand) int {
	for i := 1; i < len(stages); i++ {
		if ok, reason := e.cfg.Policy.AllowExternal(stages[i].Argv); !ok {
			e.cfg.Stdio.Errorf("error: %s\n", reason)
			return core.ExitNotExecutable
		}
	}
	if !e.securityOK() {
		return core.ExitSecurity
	}

	head := &stages[0]
	fn, _ := e.cfg.Builtins.Find(head.Argv[0])

	bridge := newStdioBridge(e.cfg.Stdio)
	defer bridge.finish()

	readEnd, writeEnd, err := spawn.Pipe()
	if err != nil {
		e.cfg.Stdio.Errorf("error: pipe: %v\n", err)
		return core.ExitFailure
	}

	tail := stages[1:]
	n := len(tail)
	procs := make([]*os.Process, n)
	statuses := make([]int, n)
	prevRead := readEnd

	for i := range tail {
		st := &tail[i]
		last := i == n-1

		var nextRead, nextWrite *os.File
		if !last {
			var perr error
			nextRead, nextWrite, perr = spawn.Pipe()
			if perr != nil {
				e.cfg.Stdio.Errorf("error: pipe: %v\n", perr)
				closeFile(prevRead)
				closeFile(writeEnd)
				waitAll(procs, statuses)
				return core.ExitFailure
			}
		}

		var stdio [3]*os.File
		stdio[0] = prevRead
		stdio[1] = nextWrite

		var opened fileList
		status := e.applyStageRedirs(st.Redirs, &stdio, &opened)
		if status == core.ExitSuccess {
			if berr := bridge.fill(&stdio); berr != nil {
				e.cfg.Stdio.Errorf("error: pipe: %v\n", berr)
				status = core.ExitFailure
			}
		}
		if status != core.ExitSuccess {
			statuses[i] = status
		} else {
			proc, serr := e.cfg.Policy.Spawn(spawn.Spec{
				Argv:   st.Argv,
				Stdin:  stdio[0],
				Stdout: stdio[1],
				Stderr: stdio[2],
			})
			if serr != nil {
				statuses[i] = e.spawnStatus(serr)
			} else {
				procs[i] = proc
			}
		}
		opened.closeAll()

		closeFile(prevRead)
		closeFile(nextWrite)
		prevRead = nextRead
	}

	// All externals hold only the descriptors they were given, so once the
	// builtin finishes and the parent drops the write end, the first
	// external reads EOF.
	// The pipeline's status is the last stage's; the builtin's own status
	// is discarded, matching the all-external path.
	e.runBuiltin(fn, head, writeEnd)
	writeEnd.Close()

	waitAll(procs, statuses)
	return statuses[n-1]
}

func closeFile(f *os.File) {
	if f != nil {
		f.Close()
	}
}

func waitAll(procs []*os.Process, statuses []int) {
	for i, p := range procs {
		if p != nil {
			statuses[i] = spawn.Wait(p)
		}
	}
}
