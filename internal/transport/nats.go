package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"ttlform/internal/editor"
)

// NATS submits documents with request/reply on a subject.
type NATS struct {
	nc      *nats.Conn
	subject string
	token   string
	timeout time.Duration
	log     *zap.Logger
	owned   bool
}

// NewNATS uses an existing connection, which the caller keeps owning.
func NewNATS(nc *nats.Conn, subject, token string, timeout time.Duration, log *zap.Logger) *NATS {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &NATS{nc: nc, subject: subject, token: token, timeout: timeout, log: log}
}

// DialNATS connects to url and returns a transport that owns the connection.
func DialNATS(url, subject, token string, timeout time.Duration, log *zap.Logger) (*NATS, error) {
	if subject == "" {
		return nil, errors.New("nats subject is required")
	}
	nc, err := nats.Connect(url, nats.Name("ttlform-editor"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	t := NewNATS(nc, subject, token, timeout, log)
	t.owned = true
	return t, nil
}

// Close drains the connection if this transport opened it.
func (n *NATS) Close() error {
	if !n.owned {
		return nil
	}
	return n.nc.Drain()
}

// Submit implements editor.Transport.
func (n *NATS) Submit(ctx context.Context, doc editor.Document) (editor.Receipt, error) {
	body, err := json.Marshal(requestFor(doc))
	if err != nil {
		return editor.Receipt{}, &editor.TransportError{Message: err.Error(), Err: err}
	}

	msg := nats.NewMsg(n.subject)
	msg.Data = body
	if n.token != "" {
		msg.Header.Set("Authorization", "Bearer "+n.token)
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	resp, err := n.nc.RequestMsgWithContext(ctx, msg)
	if err != nil {
		n.log.Warn("nats ingest request failed", zap.String("subject", n.subject), zap.Error(err))
		return editor.Receipt{}, &editor.TransportError{Message: err.Error(), Err: err}
	}

	reply, err := decodeReply(resp.Data)
	if err != nil {
		return editor.Receipt{}, &editor.TransportError{Message: err.Error(), Err: err}
	}
	if !reply.OK {
		text := reply.Error
		if text == "" {
			text = "ingest rejected"
		}
		return editor.Receipt{}, &editor.TransportError{Message: text}
	}
	return reply.receipt(), nil
}
