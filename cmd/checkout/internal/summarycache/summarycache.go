package summarycache

import (
	"errors"
	"fmt"
	"time"

	"anarchy.ttfm/payin/transactions"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// Cache keeps recently seen transaction summaries so terminal pages can
// still show merchant context after the flow moved on. It is purely an
// optimization, consumers must tolerate misses
type Cache struct {
	db  *badger.DB
	ttl time.Duration
}

type Config struct {
	// Badger database to use
	DB *badger.DB
	// How long entries survive
	TTL time.Duration
}

const DefaultTTL = time.Hour

func New(config Config) (cache Cache) {
	cache.db = config.DB
	cache.ttl = config.TTL
	if cache.ttl <= 0 {
		cache.ttl = DefaultTTL
	}
	return cache
}

func SummaryKey(id uuid.UUID) (key []byte) {
	return []byte(fmt.Sprintf("/summaries/%s", id))
}

// Put stores the summary under its transaction id
func (c *Cache) Put(summary transactions.Summary) (err error) {
	err = c.db.Update(func(txn *badger.Txn) (err error) {
		entry := badger.NewEntry(SummaryKey(summary.Uuid), summary.Bytes()).WithTTL(c.ttl)
		err = txn.SetEntry(entry)
		if err != nil {
			return fmt.Errorf("failed to set summary: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store summary: %w", err)
	}
	return nil
}

// Get retrieves a previously seen summary. A miss is not an error
func (c *Cache) Get(id uuid.UUID) (summary transactions.Summary, found bool, err error) {
	err = c.db.View(func(txn *badger.Txn) (err error) {
		entry, err := txn.Get(SummaryKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return fmt.Errorf("failed to query summary: %w", err)
		}

		err = entry.Value(func(val []byte) (err error) {
			err = summary.FromBytes(val)
			if err != nil {
				return fmt.Errorf("failed to unmarshal summary: %w", err)
			}
			found = true
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to retrieve value: %w", err)
		}
		return nil
	})
	if err != nil {
		return summary, false, fmt.Errorf("failed to query entry from the database: %w", err)
	}
	return summary, found, nil
}
