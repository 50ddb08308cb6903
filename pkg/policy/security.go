// Package policy holds the shell's injected policy seams: the security
// policy that guards against privilege drift, and the exec policy that
// decides whether and how external commands run.
package policy

import (
	"golang.org/x/sys/unix"
)

// Identity is a snapshot of the process credentials.
type Identity struct {
	UID  int
	EUID int
	GID  int
	EGID int
}

// CurrentIdentity snapshots the calling process's credentials.
func CurrentIdentity() Identity {
	return Identity{
		UID:  unix.Getuid(),
		EUID: unix.Geteuid(),
		GID:  unix.Getgid(),
		EGID: unix.Getegid(),
	}
}

// Security captures the startup identity once and answers drift queries.
// Immutable after construction.
type Security struct {
	start Identity
}

// CaptureStartupIdentity snapshots the current identity as the baseline.
func CaptureStartupIdentity() *Security {
	return &Security{start: CurrentIdentity()}
}

// StartupIdentity returns the baseline snapshot.
func (s *Security) StartupIdentity() Identity { return s.start }

// RootAtStart reports whether the shell was started as root (real or
// effective). The driver refuses to run in that case.
func (s *Security) RootAtStart() bool {
	return s.start.UID == 0 || s.start.EUID == 0
}

// IdentityUnchanged takes a fresh snapshot and compares it field-wise to
// the startup identity.
func (s *Security) IdentityUnchanged() bool {
	return CurrentIdentity() == s.start
}
