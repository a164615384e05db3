// Package sandbridge hosts sandboxed preload scripts in embedded V8
// contexts. It manages context lifecycles, exposes a per-context binding
// namespace with cached builtin modules and an intercepted environment
// view, and delivers host notifications to script-installed handlers.
package sandbridge

import (
	"fmt"

	"github.com/rs/zerolog"
	v8 "github.com/tommie/v8go"

	"github.com/hostbridge/sandbridge/internal/core"
	"github.com/hostbridge/sandbridge/internal/envns"
)

// Options configures a Bridge. Every field has a usable zero value.
type Options struct {
	Config       core.Config
	Registry     Registry
	Capabilities Capabilities
	Switches     SwitchSource
	Converter    Converter
	EnvTable     envns.Table
	Logger       *zerolog.Logger
}

// Bridge is the embedding facade: it owns the context manager, the module
// registry, the environment namespace, and the notification channel, and
// runs the preload lifecycle against them.
type Bridge struct {
	cfg      core.Config
	mgr      *Manager
	reg      Registry
	caps     Capabilities
	switches SwitchSource
	conv     Converter
	env      *envns.Namespace
	channel  *Channel
	log      zerolog.Logger
}

// New builds a Bridge. Nil option fields fall back to defaults: the
// shipped registry, OS-backed capabilities, the real process environment,
// JSON payload conversion, and a no-op logger.
func New(opts Options) (*Bridge, error) {
	cfg := opts.Config
	if cfg == (core.Config{}) {
		cfg = core.Defaults()
	}

	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	reg := opts.Registry
	if reg == nil {
		reg = DefaultRegistry(cfg)
	}

	conv := opts.Converter
	if conv == nil {
		conv = DefaultConverter()
	}

	switches := opts.Switches
	if switches == nil {
		switches = Switches{}
	}

	mgr, err := NewManager(cfg)
	if err != nil {
		return nil, err
	}

	return &Bridge{
		cfg:      cfg,
		mgr:      mgr,
		reg:      reg,
		caps:     opts.Capabilities.withDefaults(),
		switches: switches,
		conv:     conv,
		env:      envns.New(opts.EnvTable),
		channel:  NewChannel(log),
		log:      log,
	}, nil
}

// OnUnitCreated records a new unit of work. The bridge keeps no per-unit
// state; the hook exists so hosts funnel their lifecycle through one place.
func (b *Bridge) OnUnitCreated(u Unit) {
	b.log.Debug().Str("unit", u.Name()).Bool("main", u.IsMain()).
		Msg("unit created")
}

// CreateContext allocates a fresh execution context for owner. The caller
// follows up with OnScriptContextCreated to run the preload lifecycle.
func (b *Bridge) CreateContext(owner Unit) (*ExecutionContext, error) {
	return b.mgr.Create(owner)
}

// OnScriptContextCreated runs the preload lifecycle for a newly created
// context. Contexts owned by non-main units get no binding namespace and
// no preload. A missing preload switch skips the lifecycle entirely.
func (b *Bridge) OnScriptContextCreated(ec *ExecutionContext) error {
	if !ec.Owner().IsMain() {
		b.log.Debug().Str("unit", ec.Owner().Name()).
			Msg("skipping preload for non-main unit")
		return nil
	}

	preloadPath := b.switches.Value(PreloadSwitch)
	if preloadPath == "" {
		b.log.Debug().Str("unit", ec.Owner().Name()).
			Msg("no preload script configured")
		return nil
	}

	wrapped, err := loadPreload(preloadPath, b.cfg)
	if err != nil {
		return err
	}

	guard := b.mgr.Enter(ec)
	defer guard.Release()

	wrapperVal, err := ec.RunScript(wrapped, preloadPath)
	if err != nil {
		return fmt.Errorf("compiling preload script: %w", err)
	}
	wrapper, err := wrapperVal.AsFunction()
	if err != nil {
		return fmt.Errorf("preload wrapper: %w", err)
	}

	ns, err := buildBindings(ec, b.reg, b.caps, b.env)
	if err != nil {
		return err
	}
	b.channel.Register(ec, ns)

	pathVal, err := v8.NewValue(ec.iso, preloadPath)
	if err != nil {
		return fmt.Errorf("converting preload path: %w", err)
	}
	if _, err := wrapper.Call(v8.Null(ec.iso), ns, pathVal); err != nil {
		return fmt.Errorf("running preload script: %w", err)
	}

	b.log.Info().Str("unit", ec.Owner().Name()).Str("preload", preloadPath).
		Msg("preload script ran")
	return nil
}

// OnScriptContextReleasing delivers the exit notification for a context
// about to be destroyed, then drops its channel registration. Non-main
// units never had a namespace and are skipped.
func (b *Bridge) OnScriptContextReleasing(ec *ExecutionContext) error {
	if !ec.Owner().IsMain() {
		return nil
	}

	guard := b.mgr.Enter(ec)
	defer guard.Release()

	err := b.channel.Invoke(ec, "onExit")
	b.channel.Forget(ec)
	return err
}

// EmitMessage delivers a host message to the context's onMessage handler
// with the channel name and the converted payload.
func (b *Bridge) EmitMessage(ec *ExecutionContext, channel string, payload any) error {
	guard := b.mgr.Enter(ec)
	defer guard.Release()

	chanVal, err := v8.NewValue(ec.iso, channel)
	if err != nil {
		return fmt.Errorf("converting channel name: %w", err)
	}
	payloadVal, err := b.conv.ToJS(ec.iso, ec.ctx, payload)
	if err != nil {
		return fmt.Errorf("converting payload: %w", err)
	}
	return b.channel.Invoke(ec, "onMessage", chanVal, payloadVal)
}

// ContextSink adapts one context to a per-message delivery interface.
type ContextSink struct {
	b  *Bridge
	ec *ExecutionContext
}

// Deliver forwards one message to the context's onMessage handler.
func (s ContextSink) Deliver(channel string, payload any) error {
	return s.b.EmitMessage(s.ec, channel, payload)
}

// MessageSink returns a delivery adapter bound to ec, suitable for feed
// consumers.
func (b *Bridge) MessageSink(ec *ExecutionContext) ContextSink {
	return ContextSink{b: b, ec: ec}
}

// DestroyContext tears the context down. Call OnScriptContextReleasing
// first if the script should observe its exit.
func (b *Bridge) DestroyContext(ec *ExecutionContext) {
	b.channel.Forget(ec)
	b.mgr.Destroy(ec)
}

// Close disposes the isolate. All contexts must be destroyed first.
func (b *Bridge) Close() {
	b.mgr.Dispose()
}
