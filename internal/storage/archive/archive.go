// Package archive stores winning sweep artifacts for later audit: every
// sweep run can deposit its best-strategy document under a key derived
// from the symbol and run time.
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store is the interface for archive backends.
type Store interface {
	// Put stores data under key.
	Put(ctx context.Context, key string, data []byte) error

	// Get retrieves the data stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns all keys with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Key builds the archive key for one sweep run. The UUID suffix keeps
// runs distinct even when two sweeps of the same symbol finish within
// the same second.
func Key(symbol string, at time.Time) string {
	return fmt.Sprintf("sweeps/%s/%s-%s.json", symbol, at.UTC().Format("2006-01-02T15-04-05"), uuid.NewString())
}
