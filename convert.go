package sandbridge

import (
	v8 "github.com/tommie/v8go"

	"github.com/hostbridge/sandbridge/internal/v8util"
)

// Converter turns host payloads into script values for notification
// delivery. Embedders with richer payloads than JSON can substitute their
// own.
type Converter interface {
	ToJS(iso *v8.Isolate, ctx *v8.Context, payload any) (*v8.Value, error)
}

// jsonConverter converts payloads through their JSON form, with direct
// conversion for the basic scalar types.
type jsonConverter struct{}

func (jsonConverter) ToJS(iso *v8.Isolate, ctx *v8.Context, payload any) (*v8.Value, error) {
	return v8util.Value(iso, ctx, payload)
}

// DefaultConverter returns the JSON-based converter.
func DefaultConverter() Converter { return jsonConverter{} }
