package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Fudmottin/clanker/pkg/core"
	"github.com/Fudmottin/clanker/pkg/shell"
)

var commandString string

var rootCmd = &cobra.Command{
	Use:   "clanker [script]",
	Short: "A sandboxed interactive command shell",
	Long: `clanker is a sandboxed command shell. It executes pipelines, and-or
chains, and redirections under a fixed root directory (the working directory
at startup) and refuses to run if the process identity changes.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	Run:           run,
}

func init() {
	rootCmd.Flags().StringVarP(&commandString, "command", "c", "", "run this command string and exit")
}

func run(cmd *cobra.Command, args []string) {
	stdio := core.DefaultStdio()

	sh, err := shell.New(stdio)
	if err != nil {
		stdio.Errorf("clanker: %v\n", err)
		os.Exit(core.ExitFailure)
	}
	if code := sh.RefuseRootStart(); code != core.ExitSuccess {
		os.Exit(code)
	}

	haveCommand := cmd.Flags().Changed("command")
	switch {
	case haveCommand && len(args) > 0:
		stdio.Errorf("clanker: cannot combine -c with a script argument\n")
		stdio.Errorf("%s", cmd.UsageString())
		os.Exit(core.ExitUsage)
	case haveCommand:
		os.Exit(sh.RunString(commandString))
	case len(args) == 1:
		os.Exit(sh.RunFile(args[0]))
	default:
		os.Exit(sh.Repl())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Stderr.WriteString("clanker: " + err.Error() + "\n")
		os.Stderr.WriteString(rootCmd.UsageString())
		os.Exit(core.ExitUsage)
	}
}
