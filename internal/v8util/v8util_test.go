package v8util

import (
	"fmt"
	"strings"
	"testing"

	v8 "github.com/tommie/v8go"
)

func newTestContext(t *testing.T) (*v8.Isolate, *v8.Context) {
	t.Helper()
	iso := v8.NewIsolate()
	ctx := v8.NewContext(iso)
	t.Cleanup(func() {
		ctx.Close()
		iso.Dispose()
	})
	return iso, ctx
}

func TestSetMethod_BasicTypes(t *testing.T) {
	iso, ctx := newTestContext(t)

	obj, err := NewObject(iso, ctx)
	if err != nil {
		t.Fatalf("NewObject: %v", err)
	}
	if err := SetMethod(iso, ctx, obj, "concat", func(a, b string) string { return a + b }); err != nil {
		t.Fatalf("SetMethod concat: %v", err)
	}
	if err := SetMethod(iso, ctx, obj, "add", func(a, b int) int { return a + b }); err != nil {
		t.Fatalf("SetMethod add: %v", err)
	}
	if err := ctx.Global().Set("o", obj); err != nil {
		t.Fatalf("setting global: %v", err)
	}

	val, err := ctx.RunScript(`o.concat("foo", "bar") + ":" + o.add(2, 3)`, "test.js")
	if err != nil {
		t.Fatalf("RunScript: %v", err)
	}
	if got := val.String(); got != "foobar:5" {
		t.Errorf("result = %q, want foobar:5", got)
	}
}

func TestSetMethod_ErrorReturnThrows(t *testing.T) {
	iso, ctx := newTestContext(t)

	obj, _ := NewObject(iso, ctx)
	if err := SetMethod(iso, ctx, obj, "boom", func() (string, error) {
		return "", fmt.Errorf("kaput")
	}); err != nil {
		t.Fatalf("SetMethod: %v", err)
	}
	_ = ctx.Global().Set("o", obj)

	val, err := ctx.RunScript(`(function() {
		try { o.boom(); return "no error"; }
		catch (e) { return String(e); }
	})()`, "test.js")
	if err != nil {
		t.Fatalf("RunScript: %v", err)
	}
	if got := val.String(); !strings.Contains(got, "kaput") {
		t.Errorf("caught = %q, want it to contain kaput", got)
	}
}

func TestSetMethod_TooFewArgsThrows(t *testing.T) {
	iso, ctx := newTestContext(t)

	obj, _ := NewObject(iso, ctx)
	if err := SetMethod(iso, ctx, obj, "needsTwo", func(a, b string) string { return a + b }); err != nil {
		t.Fatalf("SetMethod: %v", err)
	}
	_ = ctx.Global().Set("o", obj)

	val, err := ctx.RunScript(`(function() {
		try { o.needsTwo("only"); return "no error"; }
		catch (e) { return String(e); }
	})()`, "test.js")
	if err != nil {
		t.Fatalf("RunScript: %v", err)
	}
	if got := val.String(); !strings.Contains(got, "at least 2 argument") {
		t.Errorf("caught = %q, want argument-count error", got)
	}
}

func TestValue_JSONFallback(t *testing.T) {
	iso, ctx := newTestContext(t)

	type point struct {
		X int      `json:"x"`
		Y int      `json:"y"`
		L []string `json:"l"`
	}
	val, err := Value(iso, ctx, point{X: 1, Y: 2, L: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	_ = ctx.Global().Set("p", val)

	got, err := ctx.RunScript(`p.x + "," + p.y + "," + p.l.join("-")`, "test.js")
	if err != nil {
		t.Fatalf("RunScript: %v", err)
	}
	if s := got.String(); s != "1,2,a-b" {
		t.Errorf("result = %q, want 1,2,a-b", s)
	}
}

func TestValue_Nil(t *testing.T) {
	iso, ctx := newTestContext(t)

	val, err := Value(iso, ctx, nil)
	if err != nil {
		t.Fatalf("Value(nil): %v", err)
	}
	if !val.IsUndefined() {
		t.Errorf("Value(nil) is not undefined")
	}
}

func TestFuncTemplate_NotAFunction(t *testing.T) {
	iso, ctx := newTestContext(t)

	if _, err := FuncTemplate(iso, ctx, "bad", 42); err == nil {
		t.Errorf("FuncTemplate(42) did not fail")
	}
}
