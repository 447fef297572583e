package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	boltBucketSettings = "settings"     // key: boltKeySettings -> encoded blob
	boltKeySettings    = "rrze_updater" // single option key
)

// boltLockTimeout bounds how long a call waits for another process holding
// the database.
const boltLockTimeout = 5 * time.Second

// Bolt keeps the blob under one key of a bbolt database. The database file
// is only open, and therefore locked, for the duration of a single Load or
// Save, so several processes can share it.
type Bolt struct {
	path string
}

// OpenBolt prepares the database at path, creating it if needed
func OpenBolt(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create settings dir: %w", err)
	}

	b := &Bolt{path: path}
	if err := b.update(func(*bbolt.Bucket) error { return nil }); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Bolt) open() (*bbolt.DB, error) {
	db, err := bbolt.Open(b.path, 0600, &bbolt.Options{Timeout: boltLockTimeout})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", b.path, err)
	}
	return db, nil
}

func (b *Bolt) update(fn func(*bbolt.Bucket) error) error {
	db, err := b.open()
	if err != nil {
		return err
	}
	defer db.Close()

	return db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(boltBucketSettings))
		if err != nil {
			return err
		}
		return fn(bucket)
	})
}

func (b *Bolt) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db, err := b.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var data []byte
	err = db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(boltBucketSettings))
		if bucket == nil {
			return ErrNotFound
		}
		v := bucket.Get([]byte(boltKeySettings))
		if v == nil {
			return ErrNotFound
		}
		// v is only valid inside the transaction
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (b *Bolt) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.update(func(bucket *bbolt.Bucket) error {
		return bucket.Put([]byte(boltKeySettings), data)
	})
}

// Close is a no-op; the database is closed after every call.
func (b *Bolt) Close() error {
	return nil
}
