// Package transport delivers editor documents to an ingestion backend.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"ttlform/internal/config"
	"ttlform/internal/editor"
	"ttlform/internal/store"
)

// Request is the wire body shared by the HTTP and NATS transports.
type Request struct {
	Content     string `json:"content"`
	Destination string `json:"destination"`
	Author      string `json:"author"`
}

// Reply is what the backend answers.
type Reply struct {
	OK           bool   `json:"ok"`
	Error        string `json:"error,omitempty"`
	SubmissionID string `json:"submission_id,omitempty"`
	Triples      int    `json:"triples"`
}

func requestFor(doc editor.Document) Request {
	return Request{Content: doc.Content, Destination: doc.Destination, Author: doc.Author}
}

func (r Reply) receipt() editor.Receipt {
	return editor.Receipt{ID: r.SubmissionID, TripleCount: r.Triples}
}

// Ingester stores a document in-process.
type Ingester interface {
	IngestDocument(ctx context.Context, content, destination, author string) (store.Receipt, error)
}

// Direct hands documents to an in-process ingester.
type Direct struct {
	ing Ingester
	log *zap.Logger
}

// NewDirect wraps ing.
func NewDirect(ing Ingester, log *zap.Logger) *Direct {
	if log == nil {
		log = zap.NewNop()
	}
	return &Direct{ing: ing, log: log}
}

// Submit implements editor.Transport.
func (d *Direct) Submit(ctx context.Context, doc editor.Document) (editor.Receipt, error) {
	r, err := d.ing.IngestDocument(ctx, doc.Content, doc.Destination, doc.Author)
	if err != nil {
		d.log.Warn("direct ingest failed", zap.Error(err))
		return editor.Receipt{}, &editor.TransportError{Message: err.Error(), Err: err}
	}
	return editor.Receipt{ID: r.ID, TripleCount: r.TripleCount}, nil
}

// Deps are the collaborators New may need.
type Deps struct {
	Ingester Ingester
	Log      *zap.Logger
	Timeout  time.Duration
}

// New builds the configured transport. The returned close function releases any
// connection the transport opened.
func New(cfg config.TransportConfig, deps Deps) (editor.Transport, func() error, error) {
	noop := func() error { return nil }
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	switch cfg.Mode {
	case "", "direct":
		if deps.Ingester == nil {
			return nil, noop, &editor.ConfigurationError{Component: "transport", Err: errors.New("direct mode needs a local store")}
		}
		return NewDirect(deps.Ingester, log), noop, nil

	case "http":
		return NewHTTP(cfg.Endpoint, cfg.Token, deps.Timeout, log), noop, nil

	case "nats":
		t, err := DialNATS(cfg.NATSURL, cfg.Subject, cfg.Token, deps.Timeout, log)
		if err != nil {
			return nil, noop, &editor.ConfigurationError{Component: "transport", Err: err}
		}
		return t, t.Close, nil

	default:
		return nil, noop, &editor.ConfigurationError{Component: "transport", Err: fmt.Errorf("unknown mode %q", cfg.Mode)}
	}
}

// maxSnippet bounds how much of a response body is kept.
const maxSnippet = 4096

// readSnippet reads at most maxSnippet bytes of a response body. A longer body
// is cut and marked with a trailing "…".
func readSnippet(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxSnippet+1))
	if len(data) > maxSnippet {
		return string(data[:maxSnippet]) + "…"
	}
	return string(data)
}

func decodeReply(data []byte) (Reply, error) {
	var reply Reply
	if err := json.Unmarshal(data, &reply); err != nil {
		return Reply{}, fmt.Errorf("failed to decode reply: %w", err)
	}
	return reply, nil
}
