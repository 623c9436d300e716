package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"ttlform/internal/editor"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type load struct {
	text, origin string
}

type recordingLoader struct {
	mu    sync.Mutex
	loads []load
}

func (r *recordingLoader) LoadContent(text, origin string) editor.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads = append(r.loads, load{text, origin})
	return editor.Result{Validity: editor.ValidityValid, TripleCount: 1}
}

func (r *recordingLoader) snapshot() []load {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]load(nil), r.loads...)
}

func TestWatcher_LoadsDroppedTurtle(t *testing.T) {
	dir := t.TempDir()
	loader := &recordingLoader{}
	w, err := New(dir, loader, 50*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	const doc = "<http://x/a> <http://x/b> <http://x/c> ."
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gen.ttl"), []byte(doc), 0644))

	require.Eventually(t, func() bool {
		return len(loader.snapshot()) == 1
	}, 3*time.Second, 20*time.Millisecond)

	got := loader.snapshot()[0]
	assert.Equal(t, doc, got.text)
	assert.Equal(t, "agent:file:gen.ttl", got.origin)

	stats := w.GetStats()
	assert.Equal(t, 1, stats.Loaded)
	assert.Equal(t, "agent:file:gen.ttl", stats.LastOrigin)
	assert.True(t, w.IsWatching())
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := New(t.TempDir(), &recordingLoader{}, 0, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	w.Stop()
	w.Stop()
	assert.False(t, w.IsWatching())
}

func TestWatcher_StopAfterFailedStart(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	w, err := New(filepath.Join(file, "sub"), &recordingLoader{}, 0, nil)
	require.NoError(t, err)

	err = w.Start(context.Background())
	require.Error(t, err)
	assert.False(t, w.IsWatching())

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked after a failed Start")
	}
}

func TestWatcher_LoadFileMissing(t *testing.T) {
	w, err := New(t.TempDir(), &recordingLoader{}, 0, nil)
	require.NoError(t, err)
	defer w.Stop()

	err = w.LoadFile(filepath.Join(t.TempDir(), "absent.ttl"))
	assert.True(t, os.IsNotExist(err))
	assert.Zero(t, w.GetStats().Errors)
}

func TestOrigin(t *testing.T) {
	assert.Equal(t, "agent:file:a.ttl", Origin("/drop/dir/a.ttl"))
}
