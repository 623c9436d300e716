package main

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"ttlform/internal/config"
	"ttlform/internal/destination"
	"ttlform/internal/editor"
	"ttlform/internal/identity"
	"ttlform/internal/logging"
	"ttlform/internal/store"
	"ttlform/internal/transport"
	"ttlform/internal/turtle"
)

// app is one wired editing session: identity chain, transport, picker and controller.
type app struct {
	cfg    *config.Config
	holder *identity.Holder
	chain  *identity.Chain
	store  *store.Store
	picker *destination.Picker
	ctrl   *editor.Controller

	closeTransport func() error
}

// newApp wires a controller from configuration. The caller must Close it.
func newApp(c *config.Config, f *logging.Factory, sink editor.EventSink) (*app, error) {
	if f == nil {
		f = logging.NewNop()
	}
	a := &app{cfg: c, closeTransport: func() error { return nil }}

	a.holder = identity.NewHolder(c.Identity.Static)
	chain, err := identity.FromConfig(c.Identity, a.holder, f.Get(logging.CategoryIdentity))
	if err != nil {
		return nil, err
	}
	a.chain = chain

	var ing transport.Ingester
	if c.Transport.Mode == "" || c.Transport.Mode == "direct" {
		st, err := store.Open(c.Store.DatabasePath, f.Get(logging.CategoryStore))
		if err != nil {
			return nil, err
		}
		a.store = st
		ing = st
	}

	tr, closeFn, err := transport.New(c.Transport, transport.Deps{
		Ingester: ing,
		Log:      f.Get(logging.CategoryTransport),
		Timeout:  c.GetTransportTimeout(),
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closeTransport = closeFn

	a.picker = destination.NewPicker(c.Editor.DefaultDestination, acceptedTypes(c.Destination.AcceptedTypes))

	ctrl, err := editor.New(editor.Options{
		Parser:       turtle.NewParser(),
		Transport:    tr,
		Identity:     a.chain,
		PickerLoader: destination.StaticLoader(a.picker),
		Sink:         sink,
		Logger:       f.Get(logging.CategoryEditor),
		Debounce:     c.GetDebounce(),
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.ctrl = ctrl
	return a, nil
}

// attach probes the picker. A degraded picker is logged, not fatal.
func (a *app) attach(ctx context.Context, log *zap.Logger) {
	if err := a.ctrl.Attach(ctx); err != nil {
		var ce *editor.ConfigurationError
		if errors.As(err, &ce) {
			log.Warn("editor running in degraded mode", zap.Error(err))
			return
		}
		log.Error("attach failed", zap.Error(err))
	}
}

// Close detaches the controller and releases the transport and store.
func (a *app) Close() error {
	if a.ctrl != nil {
		a.ctrl.Detach()
	}
	var errs []error
	if a.closeTransport != nil {
		errs = append(errs, a.closeTransport())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}

func acceptedTypes(in []config.AcceptedType) []destination.AcceptedType {
	out := make([]destination.AcceptedType, 0, len(in))
	for _, t := range in {
		out = append(out, destination.AcceptedType{Value: t.Value, Label: t.Label, Description: t.Description})
	}
	return out
}
