// Package tokenmeta persists fungible-token genesis metadata in a local
// bbolt database. Genesis records are immutable on-chain, so a cache hit is
// always authoritative and entries never expire.
package tokenmeta

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

var bucketTokens = []byte("tokens")

// ErrNotFound indicates the token id has no cached record.
var ErrNotFound = errors.New("tokenmeta: token not found")

// Record is the cached genesis metadata for one token.
type Record struct {
	ID          string `json:"id"` // 32-byte genesis txid, hex
	Ticker      string `json:"ticker"`
	Name        string `json:"name"`
	Decimals    uint8  `json:"decimals"`
	DocumentURL string `json:"document_url,omitempty"`
	InitialQty  uint64 `json:"initial_qty,omitempty"`
}

// Store wraps a bbolt database holding token records.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the bbolt database at dbPath. The parent directory
// is created if it does not exist.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("tokenmeta: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("tokenmeta: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketTokens)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("tokenmeta: create bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Get returns the cached record for tokenID, or ErrNotFound.
func (s *Store) Get(tokenID string) (*Record, error) {
	var rec *Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketTokens).Get([]byte(tokenID))
		if data == nil {
			return ErrNotFound
		}
		rec = &Record{}
		return json.Unmarshal(data, rec)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("tokenmeta: get %s: %w", tokenID, err)
	}
	return rec, nil
}

// Put stores a record. Genesis data is write-once: putting an id that is
// already present is a no-op, never an overwrite.
func (s *Store) Put(rec *Record) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("tokenmeta: record must carry a token id")
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketTokens)
		if bucket.Get([]byte(rec.ID)) != nil {
			return nil
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(rec.ID), data)
	})
	if err != nil {
		return fmt.Errorf("tokenmeta: put %s: %w", rec.ID, err)
	}
	return nil
}
