package builtins

import (
	"fmt"
	"strings"

	"github.com/Fudmottin/clanker/pkg/core"
)

// The LLM builtins are stubs: they hold the command surface for the model
// backends without talking to any network. No state persists yet.

func registerLLM(r *Registry) {
	r.Add("models", biModels, "models — list configured model backends")
	r.Add("use", biUse, "use <backend> [model=<id>] — select default backend (stub)")
	r.Add("prompt", biPrompt, "prompt <text...> — send text to default model (stub)")
	r.Add("ask", biAsk, "ask <backend> <text...> — send text to backend (stub)")
}

func biModels(ctx *Context, argv []string) int {
	fmt.Fprint(ctx.Out, "openai:gpt-stub\nanthropic:claude-stub\n")
	return core.ExitSuccess
}

func biUse(ctx *Context, argv []string) int {
	if len(argv) < 2 {
		fmt.Fprintln(ctx.Err, "use: expected <backend>")
		return core.ExitUsage
	}
	backend := argv[1]
	model := ""
	for _, arg := range argv[2:] {
		if v, ok := strings.CutPrefix(arg, "model="); ok {
			model = v
		}
	}
	if model != "" {
		fmt.Fprintf(ctx.Out, "default backend set to: %s (model %s) (stub)\n", backend, model)
	} else {
		fmt.Fprintf(ctx.Out, "default backend set to: %s (stub)\n", backend)
	}
	return core.ExitSuccess
}

func biPrompt(ctx *Context, argv []string) int {
	if len(argv) < 2 {
		fmt.Fprintln(ctx.Err, "prompt: expected text")
		return core.ExitUsage
	}
	fmt.Fprintf(ctx.Out, "[stub llm] %s\n", strings.Join(argv[1:], " "))
	return core.ExitSuccess
}

func biAsk(ctx *Context, argv []string) int {
	if len(argv) < 3 {
		fmt.Fprintln(ctx.Err, "ask: expected <backend> <text...>")
		return core.ExitUsage
	}
	fmt.Fprintf(ctx.Out, "[stub %s] %s\n", argv[1], strings.Join(argv[2:], " "))
	return core.ExitSuccess
}
