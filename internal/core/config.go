// Package core holds configuration shared by the bridge library and the
// command-line harness.
package core

// Config holds runtime configuration for the script-execution bridge.
type Config struct {
	MemoryLimitMB    int    // per-isolate heap limit, 0 means engine default
	StorageDir       string // base directory for the builtin storage module
	PreloadBundling  bool   // run the preload through the bundler when it uses imports
	MaxPreloadSizeKB int    // reject preload sources larger than this, 0 disables the check
}

// Defaults returns the configuration used when the caller provides nothing.
func Defaults() Config {
	return Config{
		MemoryLimitMB:    0,
		StorageDir:       "./data",
		PreloadBundling:  true,
		MaxPreloadSizeKB: 4096,
	}
}
