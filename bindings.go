package sandbridge

import (
	"fmt"

	v8 "github.com/tommie/v8go"

	"github.com/hostbridge/sandbridge/internal/envns"
	"github.com/hostbridge/sandbridge/internal/v8util"
)

// envProxyBuilder is evaluated once per context. It returns a builder
// function that closes over the five host-backed handlers and produces the
// env proxy object. The handlers are passed as call arguments, never
// installed on the global object, so scripts can only reach them through
// the proxy's traps.
const envProxyBuilder = `(function (lookup, store, query, remove, keys) {
  const toKey = (prop) =>
    typeof prop === 'symbol' ? ['', true] : [String(prop), false];
  const ATTR_READ_ONLY = 1;
  const ATTR_DONT_ENUM = 2;
  return new Proxy({}, {
    get(target, prop) {
      const [name, sym] = toKey(prop);
      const r = lookup(name, sym);
      return r.found ? r.value : undefined;
    },
    set(target, prop, value) {
      const [name, sym] = toKey(prop);
      store(name, sym, String(value));
      return true;
    },
    has(target, prop) {
      const [name, sym] = toKey(prop);
      return query(name, sym) >= 0;
    },
    deleteProperty(target, prop) {
      const [name, sym] = toKey(prop);
      return remove(name, sym);
    },
    ownKeys() {
      return keys();
    },
    getOwnPropertyDescriptor(target, prop) {
      const [name, sym] = toKey(prop);
      const attrs = query(name, sym);
      if (attrs < 0) {
        return undefined;
      }
      const r = lookup(name, sym);
      return {
        value: r.found ? r.value : undefined,
        writable: (attrs & ATTR_READ_ONLY) === 0,
        enumerable: (attrs & ATTR_DONT_ENUM) === 0,
        configurable: true,
      };
    },
  });
})`

type envLookupResult struct {
	Found bool   `json:"found"`
	Value string `json:"value"`
}

// envKey rebuilds the tagged key from the trap's (name, symbol) pair.
func envKey(name string, symbol bool) envns.Key {
	if symbol {
		return envns.SymbolKey()
	}
	return envns.StringKey(name)
}

// installEnv builds the intercepted environment proxy and sets it on ns.
func installEnv(iso *v8.Isolate, ctx *v8.Context, ns *v8.Object, env *envns.Namespace) error {
	handlers := map[string]any{
		"envLookup": func(name string, symbol bool) envLookupResult {
			value, found := env.Get(envKey(name, symbol))
			return envLookupResult{Found: found, Value: value}
		},
		"envStore": func(name string, symbol bool, value string) string {
			return env.Set(envKey(name, symbol), value)
		},
		"envQuery": func(name string, symbol bool) int {
			return int(env.Query(envKey(name, symbol)))
		},
		"envRemove": func(name string, symbol bool) bool {
			return env.Delete(envKey(name, symbol))
		},
		"envKeys": func() []string {
			return env.Enumerate()
		},
	}

	fns := make(map[string]*v8.Function, len(handlers))
	for name, fn := range handlers {
		tmpl, err := v8util.FuncTemplate(iso, ctx, name, fn)
		if err != nil {
			return fmt.Errorf("wrapping %s: %w", name, err)
		}
		fns[name] = tmpl.GetFunction(ctx)
	}

	builderVal, err := ctx.RunScript(envProxyBuilder, "env-proxy.js")
	if err != nil {
		return fmt.Errorf("evaluating env proxy builder: %w", err)
	}
	builder, err := builderVal.AsFunction()
	if err != nil {
		return fmt.Errorf("env proxy builder: %w", err)
	}

	proxy, err := builder.Call(v8.Undefined(iso),
		fns["envLookup"], fns["envStore"], fns["envQuery"], fns["envRemove"], fns["envKeys"])
	if err != nil {
		return fmt.Errorf("building env proxy: %w", err)
	}
	return ns.Set("env", proxy)
}

// buildBindings assembles the binding namespace for one context: the
// cached module accessor, the eager native methods, and the env proxy.
func buildBindings(ec *ExecutionContext, reg Registry, caps Capabilities, env *envns.Namespace) (*v8.Object, error) {
	iso, ctx := ec.iso, ec.ctx

	ns, err := v8util.NewObject(iso, ctx)
	if err != nil {
		return nil, fmt.Errorf("creating binding namespace: %w", err)
	}

	// get resolves builtin modules and caches the exports per context, so
	// two lookups of the same key yield the identical object.
	getTmpl := v8.NewFunctionTemplate(iso, func(info *v8.FunctionCallbackInfo) *v8.Value {
		args := info.Args()
		if len(args) < 1 {
			return v8util.Throw(iso, "get requires a module key")
		}
		key := args[0].String()
		if cached, ok := ec.modules[key]; ok {
			return cached
		}
		modFn, ok := reg.Resolve(key)
		if !ok {
			return v8util.Throw(iso, "No such module: "+key)
		}
		exports, err := modFn(iso, ctx)
		if err != nil {
			return v8util.Throw(iso, fmt.Sprintf("initializing module %s: %s", key, err))
		}
		ec.modules[key] = exports
		return exports
	})
	if err := ns.Set("get", getTmpl.GetFunction(ctx)); err != nil {
		return nil, fmt.Errorf("installing get: %w", err)
	}

	eager := map[string]any{
		"crash":                func() { caps.Crash() },
		"hang":                 func() { caps.Hang() },
		"getArgv":              func() []string { return caps.Argv() },
		"getProcessMemoryInfo": func() (ProcessMemoryInfo, error) { return caps.ProcessMemoryInfo() },
		"getSystemMemoryInfo":  func() (SystemMemoryInfo, error) { return caps.SystemMemoryInfo() },
	}
	for name, fn := range eager {
		if err := v8util.SetMethod(iso, ctx, ns, name, fn); err != nil {
			return nil, fmt.Errorf("installing %s: %w", name, err)
		}
	}

	if err := installEnv(iso, ctx, ns, env); err != nil {
		return nil, err
	}
	return ns, nil
}
