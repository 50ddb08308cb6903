package builtins

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/Fudmottin/clanker/pkg/core"
	"github.com/Fudmottin/clanker/pkg/sandbox"
)

func registerCore(r *Registry) {
	r.Add("exit", biExit, "exit [n] — exit the shell")
	r.Add("pwd", biPwd, "pwd [-r|--relative] — print current directory")
	r.AddFS("cd", biCd, "cd [dir] — change directory (restricted to root)")
	r.Add("help", biHelp, "help — list built-ins")
}

func biExit(ctx *Context, argv []string) int {
	code := 0
	if len(argv) >= 2 {
		n, err := strconv.Atoi(argv[1])
		if err != nil {
			fmt.Fprintf(ctx.Err, "exit: numeric argument required: %s\n", argv[1])
			return core.ExitUsage
		}
		code = n
	}
	if ctx.RequestExit != nil {
		ctx.RequestExit(code)
	}
	return code
}

func biPwd(ctx *Context, argv []string) int {
	flags := pflag.NewFlagSet("pwd", pflag.ContinueOnError)
	flags.SetOutput(ctx.Err)
	relative := flags.BoolP("relative", "r", false, "print path relative to the sandbox root")
	if err := flags.Parse(argv[1:]); err != nil {
		return core.ExitUsage
	}
	if *relative {
		fmt.Fprintln(ctx.Out, ctx.Root.Rel(*ctx.Cwd))
	} else {
		fmt.Fprintln(ctx.Out, *ctx.Cwd)
	}
	return core.ExitSuccess
}

func biCd(ctx *Context, argv []string) int {
	target := ""
	if len(argv) >= 2 {
		target = argv[1]
	}
	if len(argv) > 2 {
		fmt.Fprintln(ctx.Err, "cd: too many arguments")
		return core.ExitUsage
	}

	printDest := false
	if target == "-" {
		if *ctx.Oldpwd == "" {
			fmt.Fprintln(ctx.Err, "cd: OLDPWD not set")
			return core.ExitFailure
		}
		target = *ctx.Oldpwd
		printDest = true
	}

	dest, err := ctx.Root.Resolve(*ctx.Cwd, target)
	switch {
	case errors.Is(err, sandbox.ErrOutsideRoot):
		fmt.Fprintln(ctx.Err, "cd: blocked (outside root)")
		return core.ExitFailure
	case errors.Is(err, sandbox.ErrHomeUnsupported):
		fmt.Fprintln(ctx.Err, "cd: ~user expansion not supported")
		return core.ExitFailure
	case err != nil:
		fmt.Fprintf(ctx.Err, "cd: %v\n", err)
		return core.ExitFailure
	}

	if err := os.Chdir(dest); err != nil {
		fmt.Fprintf(ctx.Err, "cd: %v\n", chdirReason(err))
		return core.ExitFailure
	}
	*ctx.Oldpwd = *ctx.Cwd
	*ctx.Cwd = dest
	if printDest {
		fmt.Fprintln(ctx.Out, dest)
	}
	return core.ExitSuccess
}

// chdirReason unwraps the PathError so diagnostics read "cd: <path>: <why>".
func chdirReason(err error) string {
	var pe *os.PathError
	if errors.As(err, &pe) {
		return fmt.Sprintf("%s: %v", pe.Path, pe.Err)
	}
	return err.Error()
}

func biHelp(ctx *Context, argv []string) int {
	for _, item := range ctx.Registry.HelpItems() {
		fmt.Fprintf(ctx.Out, "%s  %s\n", item.Name, item.Help)
	}
	return core.ExitSuccess
}
