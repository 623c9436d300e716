package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"ttlform/internal/editor"
)

// HTTP posts documents as JSON to an ingestion endpoint.
type HTTP struct {
	endpoint string
	token    string
	client   *http.Client
	log      *zap.Logger
}

// NewHTTP creates an HTTP transport. A zero timeout means 30s.
func NewHTTP(endpoint, token string, timeout time.Duration, log *zap.Logger) *HTTP {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTP{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: timeout},
		log:      log,
	}
}

// Submit implements editor.Transport. Any non-2xx answer is a failure carrying
// "HTTP <status>: <body>", with bodies over 4 KiB cut and marked by "…".
func (h *HTTP) Submit(ctx context.Context, doc editor.Document) (editor.Receipt, error) {
	body, err := json.Marshal(requestFor(doc))
	if err != nil {
		return editor.Receipt{}, &editor.TransportError{Message: err.Error(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return editor.Receipt{}, &editor.TransportError{Message: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.log.Warn("ingest request failed", zap.String("endpoint", h.endpoint), zap.Error(err))
		return editor.Receipt{}, &editor.TransportError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	text := readSnippet(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		h.log.Warn("ingest rejected", zap.Int("status", resp.StatusCode))
		return editor.Receipt{}, &editor.TransportError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(text)),
		}
	}

	// A 2xx without a JSON receipt is still a success.
	reply, err := decodeReply([]byte(text))
	if err != nil {
		h.log.Debug("ingest reply not decodable", zap.Error(err))
		return editor.Receipt{}, nil
	}
	return reply.receipt(), nil
}
