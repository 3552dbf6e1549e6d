// Package catalog records the names of created queues in Pebble so they can
// be recreated after a restart. Messages are never stored.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pebblestore "github.com/rzbill/rendezq/internal/storage/pebble"
)

// Entry is the stored record for one queue.
type Entry struct {
	Name        string `json:"name"`
	CreatedAtMs int64  `json:"createdAtMs"`
}

var queuePrefix = []byte("queue/")

func queueKey(name string) []byte {
	k := make([]byte, 0, len(queuePrefix)+len(name))
	k = append(k, queuePrefix...)
	k = append(k, name...)
	return k
}

// Catalog is a Pebble-backed set of queue names.
type Catalog struct {
	db  *pebblestore.DB
	now func() time.Time
}

// New returns a catalog stored in db.
func New(db *pebblestore.DB) *Catalog {
	return &Catalog{db: db, now: time.Now}
}

// Add records name. Idempotent: an existing entry keeps its creation time.
func (c *Catalog) Add(name string) error {
	_, err := c.Ensure(name)
	return err
}

// Ensure returns the entry for name, creating it if absent.
func (c *Catalog) Ensure(name string) (Entry, error) {
	key := queueKey(name)
	if b, err := c.db.Get(key); err == nil && len(b) > 0 {
		var e Entry
		if err := json.Unmarshal(b, &e); err == nil {
			return e, nil
		}
		// rewrite a corrupted record
	} else if err != nil && !errors.Is(err, pebblestore.ErrNotFound) {
		return Entry{}, fmt.Errorf("catalog: read %q: %w", name, err)
	}

	e := Entry{Name: name, CreatedAtMs: c.now().UnixMilli()}
	b, err := json.Marshal(e)
	if err != nil {
		return Entry{}, err
	}
	if err := c.db.Set(key, b); err != nil {
		return Entry{}, fmt.Errorf("catalog: write %q: %w", name, err)
	}
	return e, nil
}

// Entries lists every recorded queue in name order. Undecodable records are
// reported by name with a zero creation time.
func (c *Catalog) Entries() ([]Entry, error) {
	var out []Entry
	err := c.db.ScanPrefix(queuePrefix, func(k, v []byte) error {
		var e Entry
		if json.Unmarshal(v, &e) != nil || e.Name == "" {
			e = Entry{Name: string(k[len(queuePrefix):])}
		}
		out = append(out, e)
		return nil
	})
	return out, err
}

// Names lists every recorded queue name in order.
func (c *Catalog) Names() ([]string, error) {
	entries, err := c.Entries()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names, nil
}
