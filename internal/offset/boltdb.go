package offset

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SteelMorgan/logtail/internal/domain"
	"github.com/rs/zerolog/log"
	"go.etcd.io/bbolt"
)

const (
	bucketName = "offsets"
)

// BoltDBStore implements Journal using BoltDB
type BoltDBStore struct {
	db *bbolt.DB
}

// NewBoltDBStore creates a new BoltDB journal
func NewBoltDBStore(dbPath string) (*BoltDBStore, error) {
	// Another run may hold the database; give up quickly instead of blocking
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb (file may be locked by another process): %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	log.Debug().
		Str("db_path", dbPath).
		Msg("BoltDB state journal opened")

	return &BoltDBStore{db: db}, nil
}

// Record stores entry as the latest state of entry.Path
func (s *BoltDBStore) Record(ctx context.Context, entry domain.JournalEntry) error {
	val, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode journal entry: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		return b.Put([]byte(entry.Path), val)
	})
	if err != nil {
		return fmt.Errorf("failed to record offset: %w", err)
	}

	log.Debug().
		Str("file_path", entry.Path).
		Int64("offset", entry.Offset).
		Msg("Journal updated")

	return nil
}

// Get retrieves the latest entry for a tracked file.
// Returns nil if nothing was recorded.
func (s *BoltDBStore) Get(ctx context.Context, filePath string) (*domain.JournalEntry, error) {
	var entry *domain.JournalEntry

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		val := b.Get([]byte(filePath))
		if val == nil {
			return nil
		}

		entry = &domain.JournalEntry{}
		return json.Unmarshal(val, entry)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get offset: %w", err)
	}

	return entry, nil
}

// Delete removes the entry for a tracked file
func (s *BoltDBStore) Delete(ctx context.Context, filePath string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		return b.Delete([]byte(filePath))
	})
	if err != nil {
		return fmt.Errorf("failed to delete offset: %w", err)
	}

	return nil
}

// List returns all recorded entries keyed by tracked path
func (s *BoltDBStore) List(ctx context.Context) (map[string]domain.JournalEntry, error) {
	result := make(map[string]domain.JournalEntry)

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		return b.ForEach(func(k, v []byte) error {
			var entry domain.JournalEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				log.Warn().Err(err).Str("key", string(k)).Msg("Skipping undecodable journal entry")
				return nil
			}
			result[string(k)] = entry
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list offsets: %w", err)
	}

	return result, nil
}

// Close closes the BoltDB database
func (s *BoltDBStore) Close() error {
	return s.db.Close()
}
