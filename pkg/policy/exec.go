package policy

import (
	"os"

	"github.com/Fudmottin/clanker/pkg/spawn"
)

// ExecPolicy decides whether an external command may run and performs the
// actual spawn. Injecting it keeps command denial, PATH rewriting, or
// heavier confinement out of the executor.
type ExecPolicy interface {
	// AllowExternal returns false and a reason when argv must not run.
	AllowExternal(argv []string) (bool, string)

	// Spawn starts an external process.
	Spawn(spec spawn.Spec) (*os.Process, error)
}

// Default allows every command and delegates spawning to the spawn package.
type Default struct{}

// NewDefault returns the permissive policy.
func NewDefault() *Default { return &Default{} }

func (*Default) AllowExternal([]string) (bool, string) { return true, "" }

func (*Default) Spawn(spec spawn.Spec) (*os.Process, error) {
	return spawn.Run(spec)
}

// Denylist refuses a fixed set of command names and allows the rest.
type Denylist struct {
	// Denied maps a command name to the reason it is refused.
	Denied map[string]string
}

func (d *Denylist) AllowExternal(argv []string) (bool, string) {
	if len(argv) == 0 {
		return false, "empty command"
	}
	if reason, ok := d.Denied[argv[0]]; ok {
		return false, reason
	}
	return true, ""
}

func (d *Denylist) Spawn(spec spawn.Spec) (*os.Process, error) {
	return spawn.Run(spec)
}
