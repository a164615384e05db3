package sandbridge

import (
	v8 "github.com/tommie/v8go"

	"github.com/hostbridge/sandbridge/internal/builtins"
	"github.com/hostbridge/sandbridge/internal/core"
)

// ModuleFunc materializes a builtin module's exports object into a context.
// It is called at most once per context per module; the caller caches the
// result.
type ModuleFunc func(iso *v8.Isolate, ctx *v8.Context) (*v8.Value, error)

// Registry resolves builtin module keys. A failed resolution is terminal
// for that lookup: binding.get reports it as an error naming the key.
type Registry interface {
	Resolve(key string) (ModuleFunc, bool)
}

// MapRegistry is a fixed key -> module map.
type MapRegistry map[string]ModuleFunc

func (r MapRegistry) Resolve(key string) (ModuleFunc, bool) {
	fn, ok := r[key]
	return fn, ok
}

// DefaultRegistry returns the registry of modules shipped with the bridge.
func DefaultRegistry(cfg core.Config) MapRegistry {
	return MapRegistry{
		"compression": builtins.Compression,
		"storage":     builtins.Storage(cfg.StorageDir),
		"id":          builtins.ID,
	}
}
