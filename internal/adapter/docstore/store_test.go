package docstore

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/work-order-weather-service/internal/domain"
)

type testDoc struct {
	ID    string `json:"_id"`
	Owner string `json:"owner"`
	Note  string `json:"note"`
}

var ownerIndex = Index{
	View: "ownerDoc",
	Name: "ownerIndex",
	Key: func(doc []byte) (string, bool) {
		var d testDoc
		if err := json.Unmarshal(doc, &d); err != nil || d.Owner == "" {
			return "", false
		}
		return d.Owner, true
	},
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{InMemory: true, Indexes: []Index{ownerIndex}}, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_PostAndFind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Post(ctx, "a", testDoc{ID: "a", Owner: "alice", Note: "first"}))

	var got testDoc
	require.NoError(t, s.Find(ctx, "a", &got))
	assert.Equal(t, testDoc{ID: "a", Owner: "alice", Note: "first"}, got)
}

func TestStore_FindMissing(t *testing.T) {
	s := newTestStore(t)

	var got testDoc
	err := s.Find(context.Background(), "nope", &got)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_PostConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Post(ctx, "a", testDoc{ID: "a"}))
	err := s.Post(ctx, "a", testDoc{ID: "a", Note: "again"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestStore_PostRequiresID(t *testing.T) {
	s := newTestStore(t)
	err := s.Post(context.Background(), "", testDoc{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestStore_UpdateMissing(t *testing.T) {
	s := newTestStore(t)
	err := s.Update(context.Background(), "ghost", testDoc{ID: "ghost"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_UpdateMovesIndexEntry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Post(ctx, "a", testDoc{ID: "a", Owner: "alice"}))
	require.NoError(t, s.Update(ctx, "a", testDoc{ID: "a", Owner: "bob"}))

	alice, err := QueryAs[testDoc](ctx, s, "ownerDoc", "ownerIndex", "alice")
	require.NoError(t, err)
	assert.Empty(t, alice)

	bob, err := QueryAs[testDoc](ctx, s, "ownerDoc", "ownerIndex", "bob")
	require.NoError(t, err)
	require.Len(t, bob, 1)
	assert.Equal(t, "a", bob[0].ID)
}

func TestStore_RemoveDropsDocumentAndIndex(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Post(ctx, "a", testDoc{ID: "a", Owner: "alice"}))
	require.NoError(t, s.Remove(ctx, "a"))

	var got testDoc
	assert.ErrorIs(t, s.Find(ctx, "a", &got), domain.ErrNotFound)

	docs, err := s.Query(ctx, "ownerDoc", "ownerIndex", "alice")
	require.NoError(t, err)
	assert.Empty(t, docs)

	assert.ErrorIs(t, s.Remove(ctx, "a"), domain.ErrNotFound)
}

func TestStore_QueryExactKeyOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Post(ctx, "1", testDoc{ID: "1", Owner: "al"}))
	require.NoError(t, s.Post(ctx, "2", testDoc{ID: "2", Owner: "alice"}))
	require.NoError(t, s.Post(ctx, "3", testDoc{ID: "3", Owner: "alice"}))
	require.NoError(t, s.Post(ctx, "4", testDoc{ID: "4"}))
	require.NoError(t, s.Post(ctx, "5", testDoc{ID: "5", Owner: "alice\x00mallory"}))
	require.NoError(t, s.Post(ctx, "6", testDoc{ID: "6", Owner: "alice\x00"}))

	docs, err := QueryAs[testDoc](ctx, s, "ownerDoc", "ownerIndex", "alice")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "2", docs[0].ID)
	assert.Equal(t, "3", docs[1].ID)

	docs, err = QueryAs[testDoc](ctx, s, "ownerDoc", "ownerIndex", "alice\x00mallory")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "5", docs[0].ID)

	docs, err = QueryAs[testDoc](ctx, s, "ownerDoc", "ownerIndex", "alice\x00")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "6", docs[0].ID)
}

func TestStore_QueryUnknownIndex(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Query(context.Background(), "nope", "nope", "x")
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestStore_CanceledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Post(ctx, "a", testDoc{ID: "a"}), domain.ErrPersistence)
}

func TestStore_CheckReadiness(t *testing.T) {
	s, err := Open(Options{InMemory: true}, discardLogger())
	require.NoError(t, err)

	assert.NoError(t, s.CheckReadiness(context.Background()))
	require.NoError(t, s.Close())
	assert.Error(t, s.CheckReadiness(context.Background()))
}
