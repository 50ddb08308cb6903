// Package builtins implements the shell's in-process commands. Builtins
// write only to their Context streams, never to process stdio, so they
// participate correctly in pipelines and redirections.
package builtins

import (
	"io"
	"sort"

	"github.com/Fudmottin/clanker/pkg/sandbox"
)

// Context carries everything a builtin may touch. Cwd and Oldpwd point at
// the shell's mutable state; Root is immutable.
type Context struct {
	Root   *sandbox.Root
	Cwd    *string
	Oldpwd *string

	In  io.Reader
	Out io.Writer
	Err io.Writer

	// Registry lets help enumerate its peers without a package-level
	// back-pointer.
	Registry *Registry

	// RequestExit, when non-nil, asks the driver to terminate the shell
	// with the given code once the current command finishes.
	RequestExit func(code int)
}

// Fn is a builtin entry point. argv[0] is the builtin's own name.
type Fn func(ctx *Context, argv []string) int

type entry struct {
	fn   Fn
	help string
	fs   bool // touches the filesystem; executor re-checks identity first
}

// Registry maps builtin names to implementations and help text.
type Registry struct {
	m map[string]entry
}

// NewRegistry returns a registry with all standard builtins installed.
func NewRegistry() *Registry {
	r := &Registry{m: make(map[string]entry)}
	registerCore(r)
	registerLLM(r)
	registerAwk(r)
	return r
}

// Add registers a builtin.
func (r *Registry) Add(name string, fn Fn, help string) {
	r.m[name] = entry{fn: fn, help: help}
}

// AddFS registers a builtin that touches the filesystem.
func (r *Registry) AddFS(name string, fn Fn, help string) {
	r.m[name] = entry{fn: fn, help: help, fs: true}
}

// Find returns the named builtin.
func (r *Registry) Find(name string) (Fn, bool) {
	e, ok := r.m[name]
	if !ok {
		return nil, false
	}
	return e.fn, true
}

// TouchesFS reports whether the named builtin touches the filesystem.
func (r *Registry) TouchesFS(name string) bool {
	return r.m[name].fs
}

// HelpItem is one (name, help) pair.
type HelpItem struct {
	Name string
	Help string
}

// HelpItems returns all registered builtins sorted by name.
func (r *Registry) HelpItems() []HelpItem {
	items := make([]HelpItem, 0, len(r.m))
	for name, e := range r.m {
		items = append(items, HelpItem{Name: name, Help: e.help})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items
}
