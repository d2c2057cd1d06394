// Package docstore is a JSON document store on top of BadgerDB with
// find/post/update/remove by id and registered secondary indexes.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/couchcryptid/work-order-weather-service/internal/domain"
)

// Key layout:
//
//	doc:<id>                                      -> document JSON
//	idx:<view>/<index>\x00<len(key)>:<key>\x00<id> -> id
//
// The key length makes each index prefix unique even when a key contains sep.
const (
	docKeyPrefix   = "doc:"
	indexKeyPrefix = "idx:"
	sep            = "\x00"
)

// KeyFunc extracts the index key from an encoded document. Returning false
// leaves the document out of the index.
type KeyFunc func(doc []byte) (string, bool)

// Index is a secondary index, addressed by view and index name.
type Index struct {
	View string
	Name string
	Key  KeyFunc
}

func (ix Index) prefix(key string) []byte {
	return []byte(indexKeyPrefix + ix.View + "/" + ix.Name + sep + strconv.Itoa(len(key)) + ":" + key + sep)
}

// Options configures Open.
type Options struct {
	Dir      string
	InMemory bool
	Indexes  []Index
}

// Store implements the document store used by work orders and the
// coordinate cache.
type Store struct {
	db      *badger.DB
	indexes []Index
	logger  *slog.Logger
}

// Open opens (or creates) a store. With InMemory set, Dir is ignored and
// nothing touches disk.
func Open(opts Options, logger *slog.Logger) (*Store, error) {
	bopts := badger.DefaultOptions(opts.Dir).WithLogger(nil)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open document store: %w", err)
	}
	return New(db, logger, opts.Indexes...), nil
}

// New wraps an already open BadgerDB.
func New(db *badger.DB, logger *slog.Logger, indexes ...Index) *Store {
	return &Store{db: db, indexes: indexes, logger: logger}
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CheckReadiness reports whether the store can serve requests.
func (s *Store) CheckReadiness(_ context.Context) error {
	if s.db.IsClosed() {
		return errors.New("document store is closed")
	}
	return nil
}

// Find decodes the document stored under id into out.
func (s *Store) Find(ctx context.Context, id string, out any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		data, err = getValue(txn, docKey(id))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("find %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("%w: find %q: %w", domain.ErrPersistence, id, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode %q: %w", domain.ErrPersistence, id, err)
	}
	return nil
}

// Post creates a document. It fails with domain.ErrConflict if id is taken.
func (s *Store) Post(ctx context.Context, id string, doc any) error {
	data, err := s.encode(ctx, id, doc)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(docKey(id))
		if err == nil {
			return domain.ErrConflict
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(docKey(id), data); err != nil {
			return err
		}
		return s.setIndexes(txn, id, data)
	})
	return wrapWrite("post", id, err)
}

// Update replaces an existing document. It fails with domain.ErrNotFound if
// there is nothing to replace.
func (s *Store) Update(ctx context.Context, id string, doc any) error {
	data, err := s.encode(ctx, id, doc)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		old, err := getValue(txn, docKey(id))
		if err != nil {
			return err
		}
		if err := s.deleteIndexes(txn, id, old); err != nil {
			return err
		}
		if err := txn.Set(docKey(id), data); err != nil {
			return err
		}
		return s.setIndexes(txn, id, data)
	})
	return wrapWrite("update", id, err)
}

// Remove deletes a document and its index entries.
func (s *Store) Remove(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		old, err := getValue(txn, docKey(id))
		if err != nil {
			return err
		}
		if err := s.deleteIndexes(txn, id, old); err != nil {
			return err
		}
		return txn.Delete(docKey(id))
	})
	return wrapWrite("remove", id, err)
}

// Query returns the encoded documents whose index key equals key, ordered by id.
func (s *Store) Query(ctx context.Context, view, index, key string) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	ix, ok := s.index(view, index)
	if !ok {
		return nil, fmt.Errorf("%w: unknown index %s/%s", domain.ErrPersistence, view, index)
	}

	var docs [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := ix.prefix(key)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			id, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			doc, err := getValue(txn, docKey(string(id)))
			if errors.Is(err, badger.ErrKeyNotFound) {
				s.logger.Warn("dangling index entry", "view", view, "index", index, "id", string(id))
				continue
			}
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: query %s/%s: %w", domain.ErrPersistence, view, index, err)
	}
	return docs, nil
}

// QueryAs runs Query and decodes each document into T.
func QueryAs[T any](ctx context.Context, s *Store, view, index, key string) ([]T, error) {
	raw, err := s.Query(ctx, view, index, key)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raw))
	for _, doc := range raw {
		var v T
		if err := json.Unmarshal(doc, &v); err != nil {
			return nil, fmt.Errorf("%w: decode %s/%s result: %w", domain.ErrPersistence, view, index, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Store) encode(ctx context.Context, id string, doc any) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	if id == "" {
		return nil, fmt.Errorf("%w: document id is required", domain.ErrValidation)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: encode %q: %w", domain.ErrValidation, id, err)
	}
	return data, nil
}

func (s *Store) index(view, name string) (Index, bool) {
	for _, ix := range s.indexes {
		if ix.View == view && ix.Name == name {
			return ix, true
		}
	}
	return Index{}, false
}

func (s *Store) setIndexes(txn *badger.Txn, id string, doc []byte) error {
	for _, ix := range s.indexes {
		key, ok := ix.Key(doc)
		if !ok {
			continue
		}
		if err := txn.Set(append(ix.prefix(key), id...), []byte(id)); err != nil {
			return fmt.Errorf("set index %s/%s: %w", ix.View, ix.Name, err)
		}
	}
	return nil
}

func (s *Store) deleteIndexes(txn *badger.Txn, id string, doc []byte) error {
	for _, ix := range s.indexes {
		key, ok := ix.Key(doc)
		if !ok {
			continue
		}
		if err := txn.Delete(append(ix.prefix(key), id...)); err != nil {
			return fmt.Errorf("delete index %s/%s: %w", ix.View, ix.Name, err)
		}
	}
	return nil
}

func wrapWrite(op, id string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrConflict):
		return fmt.Errorf("%s %q: %w", op, id, domain.ErrConflict)
	case errors.Is(err, badger.ErrKeyNotFound):
		return fmt.Errorf("%s %q: %w", op, id, domain.ErrNotFound)
	default:
		return fmt.Errorf("%w: %s %q: %w", domain.ErrPersistence, op, id, err)
	}
}

func getValue(txn *badger.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func docKey(id string) []byte {
	return []byte(docKeyPrefix + id)
}
