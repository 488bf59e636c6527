package modelstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/aqi-forecast-service/internal/domain"
	bolt "go.etcd.io/bbolt"
)

var (
	modelBucket = []byte("models")
	currentKey  = []byte("current")
)

// lockTimeout bounds the wait for the bbolt file lock. Save holds the
// exclusive lock only for one write transaction.
const lockTimeout = 5 * time.Second

// BoltStore keeps the artifact under a fixed key in a bbolt database.
// Writes are bbolt transactions, so replacement is atomic.
//
// The database is opened per call: Save takes the exclusive lock and Load a
// shared read-only one. A long-running reader therefore never blocks a
// trainer in another process from replacing the artifact.
type BoltStore struct {
	path string
}

// NewBoltStore returns a store backed by the database at path. The file is
// created on the first Save.
func NewBoltStore(path string) *BoltStore {
	return &BoltStore{path: path}
}

func (s *BoltStore) Save(_ context.Context, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	db, err := bolt.Open(s.path, 0o600, &bolt.Options{Timeout: lockTimeout})
	if err != nil {
		return fmt.Errorf("open model db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(modelBucket)
		if err != nil {
			return fmt.Errorf("create model bucket: %w", err)
		}
		return b.Put(currentKey, data)
	})
	if cerr := db.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close model db: %w", cerr)
	}
	return err
}

func (s *BoltStore) Load(_ context.Context) ([]byte, error) {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrModelNotFound
	}
	db, err := bolt.Open(s.path, 0o600, &bolt.Options{Timeout: lockTimeout, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("open model db: %w", err)
	}
	defer db.Close()

	var data []byte
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(modelBucket)
		if b == nil {
			return domain.ErrModelNotFound
		}
		v := b.Get(currentKey)
		if v == nil {
			return domain.ErrModelNotFound
		}
		// v is only valid inside the transaction.
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
