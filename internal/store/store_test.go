package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ttlform/internal/editor"
)

const doc = `@prefix ex: <http://x/> .
ex:a ex:b ex:c .
ex:a ex:d "literal" .`

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "triples.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_IngestDocument(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	receipt, err := s.IngestDocument(ctx, doc, "mntl:publ/imported", "agent:test")
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.ID)
	assert.Equal(t, 2, receipt.TripleCount)

	n, err := s.CountTriples(ctx, "mntl:publ/imported")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.CountTriples(ctx, "mntl:open/other")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_IngestDocumentRejectsBadInput(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name                        string
		content, destination, author string
	}{
		{"empty content", "  ", "mntl:publ/x", "a"},
		{"no destination", doc, " ", "a"},
		{"no author", doc, "mntl:publ/x", ""},
		{"bad turtle", "not turtle {{{", "mntl:publ/x", "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.IngestDocument(ctx, tt.content, tt.destination, tt.author)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}

	var pe *editor.ParseError
	_, err := s.IngestDocument(ctx, "not turtle {{{", "mntl:publ/x", "a")
	assert.ErrorAs(t, err, &pe)

	total, err := s.CountTriples(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, total, "nothing is written for rejected documents")
}

func TestStore_ListSubmissions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	_, err := s.IngestDocument(ctx, doc, "mntl:publ/one", "alice")
	require.NoError(t, err)
	second, err := s.IngestDocument(ctx, "<http://x/s> <http://x/p> <http://x/o> .", "mntl:open/alice", "agent:gpt")
	require.NoError(t, err)

	subs, err := s.ListSubmissions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, second.ID, subs[0].ID)
	assert.Equal(t, "agent:gpt", subs[0].Author)
	assert.Equal(t, 1, subs[0].TripleCount)
	assert.Equal(t, "mntl:publ/one", subs[1].Destination)
	assert.True(t, subs[0].CreatedAt.After(subs[1].CreatedAt))

	limited, err := s.ListSubmissions(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triples.db")
	s, err := Open(path, nil)
	require.NoError(t, err)
	_, err = s.IngestDocument(context.Background(), doc, "mntl:publ/x", "a")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()
	n, err := s.CountTriples(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, path, s.Path())
}
