package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const bucketCache = "Cache"

type boltRecord struct {
	Expires time.Time       `json:"expires,omitempty"`
	Value   json.RawMessage `json:"value"`
}

// BoltCache implements Cache on top of a local BoltDB file
type BoltCache struct {
	db  *bolt.DB
	now func() time.Time
}

// Get value from database, expired records are reported as missing
func (b *BoltCache) Get(_ context.Context, key string, dst any) error {
	var record boltRecord
	if err := b.db.View(func(tx *bolt.Tx) error {
		jdata := tx.Bucket([]byte(bucketCache)).Get([]byte(key))
		if len(jdata) == 0 {
			return ErrNotFound
		}
		if err := json.Unmarshal(jdata, &record); err != nil {
			return fmt.Errorf("failed to unmarshal cache record: %w", err)
		}
		return nil
	}); err != nil {
		return err
	}
	if !record.Expires.IsZero() && !b.now().Before(record.Expires) {
		return ErrNotFound
	}
	if err := json.Unmarshal(record.Value, dst); err != nil {
		return fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return nil
}

// Set value to database, zero ttl means no expiration
func (b *BoltCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	jvalue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	record := boltRecord{Value: jvalue}
	if ttl > 0 {
		record.Expires = b.now().Add(ttl)
	}
	jdata, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal cache record: %w", err)
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket([]byte(bucketCache)).Put([]byte(key), jdata); err != nil {
			return fmt.Errorf("failed to put cache record: %w", err)
		}
		return nil
	})
}

// NewBoltCache creates BoltCache instance and initialize bucket
func NewBoltCache(db *bolt.DB) (*BoltCache, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketCache))
		return err
	})
	if err != nil {
		return nil, err
	}
	return &BoltCache{db: db, now: time.Now}, nil
}
