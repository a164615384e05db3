// Package v8util provides small helpers for exposing Go functions and
// values on V8 objects, with automatic marshaling between Go and JS types.
package v8util

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	v8 "github.com/tommie/v8go"
)

// NewObject creates a new empty JavaScript object.
func NewObject(iso *v8.Isolate, ctx *v8.Context) (*v8.Object, error) {
	tmpl := v8.NewObjectTemplate(iso)
	return tmpl.NewInstance(ctx)
}

// Throw throws a plain JS error value carrying msg and returns nil so
// callback implementations can `return Throw(...)`.
func Throw(iso *v8.Isolate, msg string) *v8.Value {
	jsMsg, _ := v8.NewValue(iso, msg)
	iso.ThrowException(jsMsg)
	return nil
}

// FuncTemplate wraps a Go function in a V8 FunctionTemplate. The Go
// function's signature is inspected via reflection to marshal arguments
// and return values.
//
// Supported Go function signatures:
//   - func(args...) — JS function returns undefined
//   - func(args...) T — JS function returns T
//   - func(args...) (T, error) — returns T on success, throws on error
//
// Supported argument types: string, int, int64, float64, bool.
// Return values go through Value, so structs and slices are supported via
// their JSON form.
func FuncTemplate(iso *v8.Isolate, ctx *v8.Context, name string, fn any) (*v8.FunctionTemplate, error) {
	fnVal := reflect.ValueOf(fn)
	fnType := fnVal.Type()

	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("FuncTemplate: expected function for %q, got %T", name, fn)
	}

	tmpl := v8.NewFunctionTemplate(iso, func(info *v8.FunctionCallbackInfo) *v8.Value {
		args := info.Args()

		if len(args) < fnType.NumIn() {
			return Throw(iso, fmt.Sprintf("%s requires at least %d argument(s), got %d", name, fnType.NumIn(), len(args)))
		}

		goArgs := make([]reflect.Value, fnType.NumIn())
		for i := 0; i < fnType.NumIn(); i++ {
			goArgs[i] = jsToGoArg(args[i], fnType.In(i))
		}

		results := fnVal.Call(goArgs)

		switch fnType.NumOut() {
		case 0:
			return nil
		case 1:
			return resultValue(iso, ctx, name, results[0])
		case 2:
			// (T, error) pattern: throw on error, return T on success.
			errVal := results[1]
			if !errVal.IsNil() {
				return Throw(iso, fmt.Sprintf("calling %s: %s", name, errVal.Interface().(error).Error()))
			}
			return resultValue(iso, ctx, name, results[0])
		default:
			return nil
		}
	})

	return tmpl, nil
}

// SetMethod installs a Go function as a method on obj.
func SetMethod(iso *v8.Isolate, ctx *v8.Context, obj *v8.Object, name string, fn any) error {
	tmpl, err := FuncTemplate(iso, ctx, name, fn)
	if err != nil {
		return err
	}
	return obj.Set(name, tmpl.GetFunction(ctx))
}

// resultValue converts a reflect.Value return into a JS value, throwing on
// conversion failure.
func resultValue(iso *v8.Isolate, ctx *v8.Context, name string, rv reflect.Value) *v8.Value {
	if !rv.IsValid() {
		return nil
	}
	val, err := Value(iso, ctx, rv.Interface())
	if err != nil {
		return Throw(iso, fmt.Sprintf("converting result of %s: %s", name, err))
	}
	return val
}

// Value converts a Go value to a V8 value. Basic types convert directly;
// anything else is serialized to JSON and parsed in JS.
func Value(iso *v8.Isolate, ctx *v8.Context, value any) (*v8.Value, error) {
	if value == nil {
		return v8.Undefined(iso), nil
	}

	switch v := value.(type) {
	case string:
		return v8.NewValue(iso, v)
	case int:
		return v8.NewValue(iso, int32(v))
	case int32:
		return v8.NewValue(iso, v)
	case int64:
		return v8.NewValue(iso, int32(v))
	case float64:
		return v8.NewValue(iso, v)
	case bool:
		return v8.NewValue(iso, v)
	case *v8.Value:
		return v, nil
	case *v8.Object:
		return v.Value, nil
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("marshaling value: %w", err)
		}
		script := fmt.Sprintf("JSON.parse(%s)", strconv.Quote(string(data)))
		return ctx.RunScript(script, "value.js")
	}
}

// jsToGoArg converts a V8 value to a Go reflect.Value of the expected type.
func jsToGoArg(val *v8.Value, targetType reflect.Type) reflect.Value {
	switch targetType.Kind() {
	case reflect.String:
		return reflect.ValueOf(val.String())
	case reflect.Int:
		return reflect.ValueOf(int(val.Integer()))
	case reflect.Int64:
		return reflect.ValueOf(val.Integer())
	case reflect.Float64:
		return reflect.ValueOf(val.Number())
	case reflect.Bool:
		return reflect.ValueOf(val.Boolean())
	default:
		return reflect.Zero(targetType)
	}
}
