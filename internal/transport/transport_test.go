package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ttlform/internal/config"
	"ttlform/internal/editor"
	"ttlform/internal/store"
)

var testDoc = editor.Document{
	Content:     "@prefix ex: <http://x/> . ex:a ex:b ex:c .",
	Destination: "mntl:publ/imported",
	Author:      "https://alice.example/#me",
}

type fakeIngester struct {
	got     Request
	receipt store.Receipt
	err     error
}

func (f *fakeIngester) IngestDocument(_ context.Context, content, destination, author string) (store.Receipt, error) {
	f.got = Request{Content: content, Destination: destination, Author: author}
	return f.receipt, f.err
}

func TestDirect_Submit(t *testing.T) {
	ing := &fakeIngester{receipt: store.Receipt{ID: "abc", TripleCount: 1}}

	got, err := NewDirect(ing, nil).Submit(context.Background(), testDoc)
	require.NoError(t, err)
	assert.Equal(t, editor.Receipt{ID: "abc", TripleCount: 1}, got)
	assert.Equal(t, requestFor(testDoc), ing.got)
}

func TestDirect_SubmitFailure(t *testing.T) {
	ing := &fakeIngester{err: store.ErrInvalidRequest}

	_, err := NewDirect(ing, nil).Submit(context.Background(), testDoc)

	var te *editor.TransportError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, store.ErrInvalidRequest)
}

func TestHTTP_Submit(t *testing.T) {
	var gotReq Request
	var gotAuth, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Reply{OK: true, SubmissionID: "sub-9", Triples: 1})
	}))
	defer srv.Close()

	got, err := NewHTTP(srv.URL, "tok-1", time.Second, nil).Submit(context.Background(), testDoc)
	require.NoError(t, err)

	assert.Equal(t, editor.Receipt{ID: "sub-9", TripleCount: 1}, got)
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, requestFor(testDoc), gotReq)
}

func TestHTTP_SubmitWithoutTokenOrReceipt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	got, err := NewHTTP(srv.URL, "", 0, nil).Submit(context.Background(), testDoc)
	require.NoError(t, err)
	assert.Equal(t, editor.Receipt{}, got)
}

func TestHTTP_SubmitNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewHTTP(srv.URL, "tok", time.Second, nil).Submit(context.Background(), testDoc)

	var te *editor.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusInternalServerError, te.Status)
	assert.Equal(t, "HTTP 500: boom", te.Message)
}

func TestHTTP_SubmitNon2xxLongBodyIsMarked(t *testing.T) {
	long := strings.Repeat("x", 5000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(long))
	}))
	defer srv.Close()

	_, err := NewHTTP(srv.URL, "", time.Second, nil).Submit(context.Background(), testDoc)

	var te *editor.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "HTTP 502: "+long[:maxSnippet]+"…", te.Message)
}

func TestReadSnippet_ExactLimitIsNotMarked(t *testing.T) {
	body := strings.Repeat("y", maxSnippet)
	assert.Equal(t, body, readSnippet(strings.NewReader(body)))
}

func TestHTTP_SubmitUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTP(url, "", time.Second, nil).Submit(context.Background(), testDoc)

	var te *editor.TransportError
	require.ErrorAs(t, err, &te)
	assert.Zero(t, te.Status)
	assert.NotEmpty(t, te.Message)
}

func TestHTTP_SubmitHonorsContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewHTTP(srv.URL, "", 5*time.Second, nil).Submit(ctx, testDoc)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestNew(t *testing.T) {
	tr, closeFn, err := New(config.TransportConfig{Mode: "direct"}, Deps{Ingester: &fakeIngester{}})
	require.NoError(t, err)
	assert.IsType(t, &Direct{}, tr)
	assert.NoError(t, closeFn())

	tr, _, err = New(config.TransportConfig{Mode: "http", Endpoint: "http://x"}, Deps{})
	require.NoError(t, err)
	assert.IsType(t, &HTTP{}, tr)

	var ce *editor.ConfigurationError
	_, _, err = New(config.TransportConfig{Mode: "direct"}, Deps{})
	assert.ErrorAs(t, err, &ce)

	_, _, err = New(config.TransportConfig{Mode: "pigeon"}, Deps{})
	assert.ErrorAs(t, err, &ce)
}

// TestNATS_RoundTrip needs a running server: TTLFORM_TEST_NATS_URL=nats://localhost:4222.
func TestNATS_RoundTrip(t *testing.T) {
	url := os.Getenv("TTLFORM_TEST_NATS_URL")
	if url == "" {
		t.Skip("TTLFORM_TEST_NATS_URL not set")
	}

	nc, err := nats.Connect(url)
	require.NoError(t, err)
	defer nc.Close()

	subject := "ttlform.test." + nats.NewInbox()[7:]
	sub, err := nc.Subscribe(subject, func(m *nats.Msg) {
		var req Request
		_ = json.Unmarshal(m.Data, &req)
		reply := Reply{OK: req.Author != "", SubmissionID: "n-1", Triples: 1}
		if m.Header.Get("Authorization") != "Bearer tok" {
			reply = Reply{Error: "unauthorized"}
		}
		data, _ := json.Marshal(reply)
		_ = m.Respond(data)
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	got, err := NewNATS(nc, subject, "tok", time.Second, nil).Submit(context.Background(), testDoc)
	require.NoError(t, err)
	assert.Equal(t, "n-1", got.ID)

	_, err = NewNATS(nc, subject, "wrong", time.Second, nil).Submit(context.Background(), testDoc)
	var te *editor.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "unauthorized", te.Message)
}
