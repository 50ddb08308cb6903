package builtins

import (
	"fmt"
	"strings"

	goawk "github.com/benhoyt/goawk/interp"
	awkparser "github.com/benhoyt/goawk/parser"

	"github.com/Fudmottin/clanker/pkg/core"
)

// awk gives sandboxed sessions stream text processing without an external
// binary. The interpreter runs over the builtin's own streams and is locked
// down: no file reads or writes, no process execution.

func registerAwk(r *Registry) {
	r.Add("awk", biAwk, "awk [-F sep] [-v var=val] <program> — run an awk program over stdin")
}

func biAwk(ctx *Context, argv []string) int {
	var vars []string
	fieldSep := ""
	program := ""

	args := argv[1:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-F":
			if i+1 >= len(args) {
				fmt.Fprintln(ctx.Err, "awk: -F requires an argument")
				return core.ExitUsage
			}
			i++
			fieldSep = args[i]
		case strings.HasPrefix(arg, "-F"):
			fieldSep = arg[2:]
		case arg == "-v":
			if i+1 >= len(args) {
				fmt.Fprintln(ctx.Err, "awk: -v requires an argument")
				return core.ExitUsage
			}
			i++
			name, val, ok := strings.Cut(args[i], "=")
			if !ok {
				fmt.Fprintf(ctx.Err, "awk: invalid -v assignment: %s\n", args[i])
				return core.ExitUsage
			}
			vars = append(vars, name, val)
		case program == "":
			program = arg
		default:
			fmt.Fprintln(ctx.Err, "awk: file arguments are not supported; pipe input instead")
			return core.ExitUsage
		}
	}
	if program == "" {
		fmt.Fprintln(ctx.Err, "awk: expected a program")
		return core.ExitUsage
	}

	prog, err := awkparser.ParseProgram([]byte(program), nil)
	if err != nil {
		fmt.Fprintf(ctx.Err, "awk: %v\n", err)
		return core.ExitUsage
	}

	if fieldSep != "" {
		vars = append(vars, "FS", fieldSep)
	}
	config := &goawk.Config{
		Stdin:  ctx.In,
		Output: ctx.Out,
		Error:  ctx.Err,
		Args:   []string{"-"},
		Vars:   vars,

		// Sandbox discipline: the program sees only its streams.
		NoFileReads:  true,
		NoFileWrites: true,
		NoExec:       true,
	}
	status, err := goawk.ExecProgram(prog, config)
	if err != nil {
		fmt.Fprintf(ctx.Err, "awk: %v\n", err)
		return core.ExitFailure
	}
	return status
}
