package sandbridge

import "strings"

// Unit identifies one frame/document-equivalent unit of work owning a
// script context. Only the primary (main) unit of a frame is eligible for
// preload execution and exit notification.
type Unit interface {
	IsMain() bool
	Name() string
}

// StaticUnit is a fixed Unit description, enough for hosts that manage one
// document per context.
type StaticUnit struct {
	Main  bool
	Label string
}

func (u StaticUnit) IsMain() bool { return u.Main }
func (u StaticUnit) Name() string { return u.Label }

// SwitchSource provides command-line-equivalent string switches. An empty
// value means the switch is not set.
type SwitchSource interface {
	Value(name string) string
}

// PreloadSwitch names the switch carrying the preload script path.
const PreloadSwitch = "preload"

// Switches is a fixed switch map, the simplest SwitchSource.
type Switches map[string]string

func (s Switches) Value(name string) string { return s[name] }

// ParseArgv extracts --name=value and --name value switches from an
// argv-style argument list.
func ParseArgv(argv []string) Switches {
	switches := Switches{}
	for i := 0; i < len(argv); i++ {
		arg, ok := strings.CutPrefix(argv[i], "--")
		if !ok {
			continue
		}
		if name, value, ok := strings.Cut(arg, "="); ok {
			switches[name] = value
			continue
		}
		if i+1 < len(argv) && !strings.HasPrefix(argv[i+1], "--") {
			switches[arg] = argv[i+1]
			i++
		}
	}
	return switches
}

// ProcessMemoryInfo describes the host process's memory usage in kilobytes.
type ProcessMemoryInfo struct {
	WorkingSetSize     int64 `json:"workingSetSize"`
	PeakWorkingSetSize int64 `json:"peakWorkingSetSize"`
}

// SystemMemoryInfo describes system-wide memory in kilobytes.
type SystemMemoryInfo struct {
	Total     int64 `json:"total"`
	Free      int64 `json:"free"`
	SwapTotal int64 `json:"swapTotal"`
	SwapFree  int64 `json:"swapFree"`
}
