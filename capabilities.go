package sandbridge

import "os"

// Capabilities are the native operations installed eagerly on every
// binding namespace. Each field is a plain capability call with no caching
// semantics; nil fields fall back to the OS-backed defaults, so tests and
// embedders can substitute individual operations.
type Capabilities struct {
	// Crash terminates the host process abruptly. The default panics.
	Crash func()

	// Hang blocks the calling thread forever. The default does exactly that.
	Hang func()

	// Argv returns the host process's command line.
	Argv func() []string

	ProcessMemoryInfo func() (ProcessMemoryInfo, error)
	SystemMemoryInfo  func() (SystemMemoryInfo, error)
}

// DefaultCapabilities returns the OS-backed capability set.
func DefaultCapabilities() Capabilities {
	return Capabilities{
		Crash:             func() { panic("sandbridge: crash binding invoked") },
		Hang:              func() { select {} },
		Argv:              func() []string { return os.Args },
		ProcessMemoryInfo: processMemoryInfo,
		SystemMemoryInfo:  systemMemoryInfo,
	}
}

// withDefaults fills nil fields from DefaultCapabilities.
func (c Capabilities) withDefaults() Capabilities {
	defaults := DefaultCapabilities()
	if c.Crash == nil {
		c.Crash = defaults.Crash
	}
	if c.Hang == nil {
		c.Hang = defaults.Hang
	}
	if c.Argv == nil {
		c.Argv = defaults.Argv
	}
	if c.ProcessMemoryInfo == nil {
		c.ProcessMemoryInfo = defaults.ProcessMemoryInfo
	}
	if c.SystemMemoryInfo == nil {
		c.SystemMemoryInfo = defaults.SystemMemoryInfo
	}
	return c
}
