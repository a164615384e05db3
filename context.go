package sandbridge

import (
	"fmt"

	"github.com/google/uuid"
	v8 "github.com/tommie/v8go"

	"github.com/hostbridge/sandbridge/internal/core"
)

// ExecutionContext is one isolated script evaluation environment with its
// own global object. It is owned by the Manager that created it and must
// only be used from the goroutine that owns that Manager.
type ExecutionContext struct {
	id      string
	iso     *v8.Isolate
	ctx     *v8.Context
	owner   Unit
	modules map[string]*v8.Value // module key -> materialized exports

	destroyed bool
}

// ID returns the context's opaque identity, used as the notification
// channel's side-table key.
func (ec *ExecutionContext) ID() string { return ec.id }

// Owner returns the unit this context was created for.
func (ec *ExecutionContext) Owner() Unit { return ec.owner }

// RunScript evaluates JavaScript source inside the context.
func (ec *ExecutionContext) RunScript(source, origin string) (*v8.Value, error) {
	if ec.destroyed {
		return nil, fmt.Errorf("context %s is destroyed", ec.id)
	}
	return ec.ctx.RunScript(source, origin)
}

// Manager owns one V8 isolate and the execution contexts created in it.
// It enforces the "one current context per thread of control" invariant
// with strictly nested enter/release guards. A Manager and everything it
// creates belong to a single goroutine.
type Manager struct {
	iso   *v8.Isolate
	stack []*ExecutionContext
}

// NewManager allocates the isolate. Allocation failure is fatal for the
// caller; no partially usable Manager is ever returned.
func NewManager(cfg core.Config) (m *Manager, err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("allocating isolate: %v", r)
		}
	}()

	var iso *v8.Isolate
	if cfg.MemoryLimitMB > 0 {
		heapSize := uint64(cfg.MemoryLimitMB) * 1024 * 1024
		iso = v8.NewIsolate(v8.WithResourceConstraints(heapSize/2, heapSize))
	} else {
		iso = v8.NewIsolate()
	}
	if iso == nil {
		return nil, fmt.Errorf("allocating isolate: engine returned no isolate")
	}
	return &Manager{iso: iso}, nil
}

// Create constructs a new execution context bound to owner. Failure is
// fatal: either a usable context is returned or an error, never both.
func (m *Manager) Create(owner Unit) (ec *ExecutionContext, err error) {
	defer func() {
		if r := recover(); r != nil {
			ec, err = nil, fmt.Errorf("allocating context: %v", r)
		}
	}()

	ctx := v8.NewContext(m.iso)
	if ctx == nil {
		return nil, fmt.Errorf("allocating context: engine returned no context")
	}
	return &ExecutionContext{
		id:      uuid.NewString(),
		iso:     m.iso,
		ctx:     ctx,
		owner:   owner,
		modules: make(map[string]*v8.Value),
	}, nil
}

// Guard restores the previously current context when released. Guards must
// be released in strict reverse order of acquisition.
type Guard struct {
	m        *Manager
	ec       *ExecutionContext
	released bool
}

// Enter makes ec the current context. Nesting is allowed; the returned
// guard must be released to restore the previous current context.
func (m *Manager) Enter(ec *ExecutionContext) *Guard {
	m.stack = append(m.stack, ec)
	return &Guard{m: m, ec: ec}
}

// Release restores the context that was current before the matching Enter.
// Releasing out of order or twice is a programming error and panics, the
// same way unlocking an unlocked mutex does.
func (g *Guard) Release() {
	if g.released {
		panic("sandbridge: context guard released twice")
	}
	top := len(g.m.stack) - 1
	if top < 0 || g.m.stack[top] != g.ec {
		panic("sandbridge: context guards released out of order")
	}
	g.m.stack[top] = nil
	g.m.stack = g.m.stack[:top]
	g.released = true
}

// Current returns the innermost entered context, or nil when none is
// entered.
func (m *Manager) Current() *ExecutionContext {
	if len(m.stack) == 0 {
		return nil
	}
	return m.stack[len(m.stack)-1]
}

// Destroy tears down the context. The caller is responsible for delivering
// the exit notification first; after Destroy the context is unusable.
func (m *Manager) Destroy(ec *ExecutionContext) {
	if ec == nil || ec.destroyed {
		return
	}
	for i := range m.stack {
		if m.stack[i] == ec {
			panic("sandbridge: destroying an entered context")
		}
	}
	ec.destroyed = true
	ec.modules = nil
	ec.ctx.Close()
}

// Dispose releases the isolate. All contexts must be destroyed first.
func (m *Manager) Dispose() {
	if m.iso != nil {
		m.iso.Dispose()
		m.iso = nil
	}
}
