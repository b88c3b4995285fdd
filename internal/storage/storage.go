// Package storage caches search results in BadgerDB. Games themselves are
// never stored.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const hintPrefix = "hint/"

// HintCache wraps BadgerDB for analysis results
type HintCache struct {
	db  *badger.DB
	ttl time.Duration
}

// Open creates a cache under dir, or an in-memory one when dir is empty.
// Entries expire after ttl; zero keeps them forever.
func Open(dir string, ttl time.Duration) (*HintCache, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open hint cache: %w", err)
	}
	return &HintCache{db: db, ttl: ttl}, nil
}

// HintKey identifies one search: the position, the depth and the duck scope.
func HintKey(fen string, movedPiece bool, depth int, scope string) string {
	phase := "p"
	if movedPiece {
		phase = "d"
	}
	return fmt.Sprintf("%s%s|%s|%d|%s", hintPrefix, fen, phase, depth, scope)
}

// Get decodes the entry for key into v. It reports false on a miss.
func (c *HintCache) Get(key string, v any) (bool, error) {
	found := false
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
	return found, err
}

// Put stores v under key as JSON.
func (c *HintCache) Put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), data)
		if c.ttl > 0 {
			e = e.WithTTL(c.ttl)
		}
		return txn.SetEntry(e)
	})
}

// Len counts the live entries.
func (c *HintCache) Len() (int, error) {
	n := 0
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(hintPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Close closes the database
func (c *HintCache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
