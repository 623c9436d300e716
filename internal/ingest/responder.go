package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Responder answers ingest requests arriving on a NATS subject.
type Responder struct {
	nc      *nats.Conn
	subject string
	svc     *Service
	log     *zap.Logger
	timeout time.Duration
	sub     *nats.Subscription
}

// NewResponder creates a responder; call Start to subscribe.
func NewResponder(nc *nats.Conn, subject string, svc *Service, log *zap.Logger) *Responder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Responder{nc: nc, subject: subject, svc: svc, log: log, timeout: 30 * time.Second}
}

// Start subscribes in the "ttlform-ingest" queue group so several backends can share load.
func (r *Responder) Start() error {
	sub, err := r.nc.QueueSubscribe(r.subject, "ttlform-ingest", r.handle)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", r.subject, err)
	}
	r.sub = sub
	r.log.Info("ingest responder subscribed", zap.String("subject", r.subject))
	return nil
}

// Stop unsubscribes.
func (r *Responder) Stop() error {
	if r.sub == nil {
		return nil
	}
	return r.sub.Unsubscribe()
}

// Run starts the responder and blocks until ctx is cancelled.
func (r *Responder) Run(ctx context.Context) error {
	if err := r.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return r.Stop()
}

func (r *Responder) handle(m *nats.Msg) {
	var auth string
	if m.Header != nil {
		auth = m.Header.Get("Authorization")
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	_, reply := r.svc.Process(ctx, "nats", auth, m.Data)
	data, err := json.Marshal(reply)
	if err != nil {
		r.log.Error("failed to encode reply", zap.Error(err))
		return
	}
	if err := m.Respond(data); err != nil {
		r.log.Warn("failed to respond", zap.Error(err))
	}
}
