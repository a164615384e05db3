package builtins

import (
	"github.com/google/uuid"
	v8 "github.com/tommie/v8go"
)

// ID materializes the "id" module: random identifier generation for
// sandboxed code that has no crypto of its own.
func ID(iso *v8.Isolate, ctx *v8.Context) (*v8.Value, error) {
	return exportsObject(iso, ctx, map[string]any{
		"uuid": func() string { return uuid.NewString() },
	})
}
