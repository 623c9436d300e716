// Package ingest is the backend that receives submitted Turtle documents over
// HTTP or NATS and stores them.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"ttlform/internal/store"
	"ttlform/internal/transport"
)

// Outcome labels for the request counter.
const (
	OutcomeAccepted     = "accepted"
	OutcomeInvalid      = "invalid"
	OutcomeUnauthorized = "unauthorized"
	OutcomeError        = "error"
)

// ErrUnauthorized is returned when the bearer token is missing or invalid.
var ErrUnauthorized = errors.New("unauthorized")

// Ingester stores documents.
type Ingester interface {
	IngestDocument(ctx context.Context, content, destination, author string) (store.Receipt, error)
}

// Metrics are the backend's Prometheus collectors.
type Metrics struct {
	Requests *prometheus.CounterVec
	Triples  prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ttlform_ingest_requests_total",
			Help: "Ingest requests by transport and outcome.",
		}, []string{"transport", "outcome"}),
		Triples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ttlform_ingested_triples_total",
			Help: "Triples stored by accepted ingest requests.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Requests, m.Triples)
	}
	return m
}

func (m *Metrics) observe(via, outcome string, triples int) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(via, outcome).Inc()
	if triples > 0 {
		m.Triples.Add(float64(triples))
	}
}

// Authenticator checks bearer tokens. With a secret, tokens must be HMAC-signed
// JWTs; without one, any non-empty token is accepted.
type Authenticator struct {
	secret   []byte
	required bool
}

// NewAuthenticator creates an authenticator. A configured secret implies required.
func NewAuthenticator(secret string, required bool) *Authenticator {
	return &Authenticator{secret: []byte(secret), required: required || secret != ""}
}

// Check validates an Authorization header value.
func (a *Authenticator) Check(header string) error {
	if a == nil {
		return nil
	}
	tok := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(header), "Bearer "))
	if tok == "" {
		if a.required {
			return ErrUnauthorized
		}
		return nil
	}
	if len(a.secret) == 0 {
		return nil
	}

	_, err := jwt.Parse(tok, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return nil
}

// Service is the transport-independent ingest path.
type Service struct {
	ing     Ingester
	auth    *Authenticator
	metrics *Metrics
	log     *zap.Logger
}

// NewService wires the ingest path. auth and metrics may be nil.
func NewService(ing Ingester, auth *Authenticator, metrics *Metrics, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{ing: ing, auth: auth, metrics: metrics, log: log}
}

// Process authenticates, decodes and stores one request. via labels the transport.
func (s *Service) Process(ctx context.Context, via, authHeader string, body []byte) (int, transport.Reply) {
	if err := s.auth.Check(authHeader); err != nil {
		s.log.Info("ingest rejected", zap.String("via", via), zap.Error(err))
		s.metrics.observe(via, OutcomeUnauthorized, 0)
		return http.StatusUnauthorized, transport.Reply{Error: "Not authenticated"}
	}

	var req transport.Request
	if err := json.Unmarshal(body, &req); err != nil {
		s.metrics.observe(via, OutcomeInvalid, 0)
		return http.StatusBadRequest, transport.Reply{Error: fmt.Sprintf("malformed request: %v", err)}
	}

	receipt, err := s.ing.IngestDocument(ctx, req.Content, req.Destination, req.Author)
	if err != nil {
		if errors.Is(err, store.ErrInvalidRequest) {
			s.metrics.observe(via, OutcomeInvalid, 0)
			return http.StatusBadRequest, transport.Reply{Error: err.Error()}
		}
		s.log.Error("ingest failed", zap.String("via", via), zap.Error(err))
		s.metrics.observe(via, OutcomeError, 0)
		return http.StatusInternalServerError, transport.Reply{Error: "ingest failed"}
	}

	s.metrics.observe(via, OutcomeAccepted, receipt.TripleCount)
	s.log.Debug("ingest accepted",
		zap.String("via", via),
		zap.String("id", receipt.ID),
		zap.Int("triples", receipt.TripleCount))
	return http.StatusCreated, transport.Reply{OK: true, SubmissionID: receipt.ID, Triples: receipt.TripleCount}
}
