package sandbridge

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	v8 "github.com/tommie/v8go"
)

// Channel delivers host-originated notifications to the per-context binding
// namespaces. Namespaces are tracked in an explicit side table keyed by
// context identity, so a context that never had a namespace installed is
// simply absent and every delivery to it is a silent no-op.
type Channel struct {
	mu    sync.Mutex
	slots map[string]*v8.Object
	log   zerolog.Logger
}

// NewChannel creates an empty channel.
func NewChannel(log zerolog.Logger) *Channel {
	return &Channel{
		slots: make(map[string]*v8.Object),
		log:   log,
	}
}

// Register associates a context with its binding namespace. Re-registering
// a context replaces the previous association.
func (c *Channel) Register(ec *ExecutionContext, ns *v8.Object) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots[ec.ID()] = ns
}

// Forget drops the context's association. Forgetting an unknown context is
// a no-op.
func (c *Channel) Forget(ec *ExecutionContext) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.slots, ec.ID())
}

// Invoke calls the handler stored under event on the context's namespace,
// with the namespace as the receiver. A context with no namespace, a
// namespace without the event property, or a non-function property all
// end the delivery quietly. The handler's return value is discarded; a
// thrown exception is reported as an error.
func (c *Channel) Invoke(ec *ExecutionContext, event string, args ...*v8.Value) error {
	c.mu.Lock()
	ns := c.slots[ec.ID()]
	c.mu.Unlock()

	if ns == nil {
		c.log.Debug().Str("context", ec.ID()).Str("event", event).
			Msg("no namespace registered, dropping notification")
		return nil
	}

	handler, err := ns.Get(event)
	if err != nil {
		return fmt.Errorf("reading handler %q: %w", event, err)
	}
	if !handler.IsFunction() {
		c.log.Debug().Str("context", ec.ID()).Str("event", event).
			Msg("no handler installed, dropping notification")
		return nil
	}

	fn, err := handler.AsFunction()
	if err != nil {
		return fmt.Errorf("handler %q: %w", event, err)
	}

	valuers := make([]v8.Valuer, len(args))
	for i, a := range args {
		valuers[i] = a
	}
	if _, err := fn.Call(ns, valuers...); err != nil {
		return fmt.Errorf("invoking handler %q: %w", event, err)
	}
	return nil
}
