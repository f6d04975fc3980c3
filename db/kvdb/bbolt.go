package kvdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/meghashyamc/docquery/config"
	"github.com/meghashyamc/docquery/logger"
	bolt "go.etcd.io/bbolt"
)

type BoltDB struct {
	store  *bolt.DB
	logger logger.Logger
}

const (
	bucketDocuments = "documents"
	bucketIndex     = "index"
	indexStatusKey  = "__status__"
)

func New(logger logger.Logger, cfg *config.Config) (*BoltDB, error) {
	kvDBPath := cfg.GetKVDBPath()
	if err := os.MkdirAll(filepath.Dir(kvDBPath), 0755); err != nil {
		logger.Error("failed to create key-value database directory", "err", err.Error(), "path", kvDBPath)
		return nil, fmt.Errorf("failed to create key-value database directory: %w", err)
	}

	store, err := bolt.Open(kvDBPath, 0600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		logger.Error("failed to open database", "err", err.Error(), "path", kvDBPath)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	boltDB := &BoltDB{
		store:  store,
		logger: logger,
	}

	if err := boltDB.initBuckets(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return boltDB, nil
}

func (b *BoltDB) initBuckets() error {
	return b.store.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketDocuments, bucketIndex} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				b.logger.Error("failed to create bucket", "bucket", name, "err", err.Error())
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

func (b *BoltDB) PutDocument(record DocumentRecord) error {
	return b.putJSON(bucketDocuments, record.Name, record)
}

func (b *BoltDB) GetDocument(name string) (*DocumentRecord, error) {
	record := &DocumentRecord{}
	if err := b.getJSON(bucketDocuments, name, record); err != nil {
		return nil, err
	}
	return record, nil
}

// ListDocuments returns every upload record ordered by name.
func (b *BoltDB) ListDocuments() ([]DocumentRecord, error) {
	records := []DocumentRecord{}
	err := b.store.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketDocuments))
		if bucket == nil {
			b.logger.Error("bucket not found", "bucket", bucketDocuments)
			return fmt.Errorf("bucket not found")
		}

		return bucket.ForEach(func(k, v []byte) error {
			var record DocumentRecord
			if err := json.Unmarshal(v, &record); err != nil {
				b.logger.Warn("skipping undecodable document record", "key", string(k), "err", err.Error())
				return nil
			}
			records = append(records, record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })
	return records, nil
}

func (b *BoltDB) PutIndexStatus(status IndexStatus) error {
	return b.putJSON(bucketIndex, indexStatusKey, status)
}

func (b *BoltDB) GetIndexStatus() (*IndexStatus, error) {
	status := &IndexStatus{}
	if err := b.getJSON(bucketIndex, indexStatusKey, status); err != nil {
		return nil, err
	}
	return status, nil
}

func (b *BoltDB) Close() error {
	if b.store != nil {
		return b.store.Close()
	}
	return nil
}

func (b *BoltDB) putJSON(bucketName string, key string, value any) error {
	if key == "" {
		b.logger.Error("key cannot be empty", "bucket", bucketName)
		return &InvalidKeyError{
			Key:    key,
			Reason: "key cannot be empty",
		}
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		b.logger.Error("failed to encode value", "key", key, "err", err.Error())
		return fmt.Errorf("failed to encode value for %s: %w", key, err)
	}

	return b.store.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		if bucket == nil {
			b.logger.Error("bucket not found", "bucket", bucketName)
			return fmt.Errorf("bucket not found")
		}

		if err := bucket.Put([]byte(key), encoded); err != nil {
			b.logger.Error("failed to set key", "key", key, "err", err.Error())
			return fmt.Errorf("failed to set key %s: %w", key, err)
		}

		return nil
	})
}

func (b *BoltDB) getJSON(bucketName string, key string, target any) error {
	if key == "" {
		b.logger.Error("key cannot be empty", "bucket", bucketName)
		return &InvalidKeyError{
			Key:    key,
			Reason: "key cannot be empty",
		}
	}

	var value []byte
	err := b.store.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		if bucket == nil {
			b.logger.Error("bucket not found", "bucket", bucketName)
			return fmt.Errorf("bucket not found")
		}

		v := bucket.Get([]byte(key))
		if v == nil {
			return &NotFoundError{Bucket: bucketName, Key: key}
		}

		value = make([]byte, len(v))
		copy(value, v)
		return nil
	})

	if err != nil {
		if errors.Is(err, ErrNotFound) {
			b.logger.Debug("key not found", "bucket", bucketName, "key", key)
		}
		return err
	}

	if err := json.Unmarshal(value, target); err != nil {
		b.logger.Error("failed to decode value", "key", key, "err", err.Error())
		return fmt.Errorf("failed to decode value for %s: %w", key, err)
	}

	return nil
}
