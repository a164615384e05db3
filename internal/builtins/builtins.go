// Package builtins provides the native capability modules shipped with the
// default binding registry. Each module is a function that materializes its
// exports object into a context exactly once; caching per context is the
// registry caller's concern.
package builtins

import (
	"fmt"

	v8 "github.com/tommie/v8go"

	"github.com/hostbridge/sandbridge/internal/v8util"
)

// exportsObject builds an exports object and installs the given Go-backed
// methods on it.
func exportsObject(iso *v8.Isolate, ctx *v8.Context, methods map[string]any) (*v8.Value, error) {
	obj, err := v8util.NewObject(iso, ctx)
	if err != nil {
		return nil, fmt.Errorf("creating exports object: %w", err)
	}
	for name, fn := range methods {
		if err := v8util.SetMethod(iso, ctx, obj, name, fn); err != nil {
			return nil, fmt.Errorf("installing %s: %w", name, err)
		}
	}
	return obj.Value, nil
}
