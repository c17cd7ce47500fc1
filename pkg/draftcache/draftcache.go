// Package draftcache keeps local snapshots of in-progress documents in a
// BadgerDB store. A cancelled or interrupted generation leaves partial
// content behind on purpose; the cache makes that draft survive the
// process, keyed by document id.
package draftcache

import (
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/inkstream/inkstream/go/pkg/outline"
)

// ErrNotFound is returned when no draft exists for a document id.
var ErrNotFound = errors.New("draftcache: not found")

// Draft is one cached document snapshot.
type Draft struct {
	DocID     int64            `msgpack:"doc_id" json:"doc_id" yaml:"doc_id"`
	Outline   *outline.Outline `msgpack:"outline" json:"outline" yaml:"outline"`
	State     string           `msgpack:"state" json:"state" yaml:"state"` // session state at snapshot time
	UpdatedAt time.Time        `msgpack:"updated_at" json:"updated_at" yaml:"updated_at"`
}

// Options configures the cache.
type Options struct {
	// Dir is the directory for the badger data files. Required unless
	// InMemory is set.
	Dir string

	// InMemory runs badger without disk persistence. Used by tests.
	InMemory bool
}

// Cache is a badger-backed draft store.
type Cache struct {
	db *badger.DB
}

// Open opens or creates the cache.
func Open(opts Options) (*Cache, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("draftcache: Options.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(nil)
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("draftcache: open: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying store.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Save writes a draft snapshot, overwriting any previous one for the same
// document. UpdatedAt is stamped here.
func (c *Cache) Save(d *Draft) error {
	d.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	data, err := msgpack.Marshal(d)
	if err != nil {
		return fmt.Errorf("draftcache: encode: %w", err)
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(d.DocID), data)
	})
	if err != nil {
		return fmt.Errorf("draftcache: save: %w", err)
	}
	return nil
}

// Load reads the draft for a document id.
func (c *Cache) Load(docID int64) (*Draft, error) {
	var d Draft
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(docID))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &d)
		})
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("draftcache: load: %w", err)
	}
	return &d, nil
}

// Delete removes the draft for a document id. Missing keys are not an
// error.
func (c *Cache) Delete(docID int64) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(docID))
	})
	if err != nil {
		return fmt.Errorf("draftcache: delete: %w", err)
	}
	return nil
}

// List returns all cached drafts in document-id order.
func (c *Cache) List() ([]*Draft, error) {
	var drafts []*Draft
	err := c.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte("draft:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var d Draft
			err := it.Item().Value(func(val []byte) error {
				return msgpack.Unmarshal(val, &d)
			})
			if err != nil {
				return err
			}
			drafts = append(drafts, &d)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("draftcache: list: %w", err)
	}
	return drafts, nil
}

// key encodes a doc id with fixed width so iteration order matches numeric
// order.
func key(docID int64) []byte {
	return []byte(fmt.Sprintf("draft:%020d", docID))
}
