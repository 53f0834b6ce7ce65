// Package archive keeps the raw text of every product received, keyed by
// its transmission identity.
//
// Buckets:
//
//	products  full key (TTAAII, CCCC, AFOS, DDHHMM, BBB) to entry
//	latest    base key (without BBB) to the full key written last
//	_meta     schema version, created_at
//
// Two copies with the same full key overwrite each other. Corrections and
// amendments carry a distinct BBB so the originals survive, and Latest
// returns whichever version of a transmission arrived last.
package archive

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	bolt "go.etcd.io/bbolt"

	"nws_parser/internal/nws"
)

const schemaVersion = 1

var (
	bucketProducts = []byte("products")
	bucketLatest   = []byte("latest")
	bucketInternal = []byte("_meta")
)

// ErrNotFound is returned when no entry matches a key.
var ErrNotFound = errors.New("archive: not found")

// Key identifies one transmission.
type Key struct {
	TTAAII string
	CCCC   string
	AFOS   string
	DDHHMM string
	BBB    string
}

// KeyOf returns the archive key of a decoded product.
func KeyOf(p *nws.TextProduct) Key {
	return Key{
		TTAAII: p.WMO.TTAAII,
		CCCC:   p.WMO.CCCC,
		AFOS:   p.AFOS,
		DDHHMM: p.WMO.DDHHMM,
		BBB:    p.WMO.BBB,
	}
}

func (k Key) base() string {
	return strings.Join([]string{k.TTAAII, k.CCCC, k.AFOS, k.DDHHMM}, "|")
}

// String renders the full key.
func (k Key) String() string {
	return k.base() + "|" + k.BBB
}

// Entry is one stored product.
type Entry struct {
	Key       string    `json:"key"`
	ProductID string    `json:"product_id"`
	Family    string    `json:"family,omitempty"`
	Valid     time.Time `json:"valid"`
	StoredAt  time.Time `json:"stored_at"`
	Text      string    `json:"text"`
}

// Store wraps a bbolt database.
type Store struct {
	db    *bolt.DB
	clock clockwork.Clock
}

// Open opens (or creates) the archive at path. Parent directories are
// created automatically.
func Open(path string, clock clockwork.Clock) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", path, err)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	s := &Store{db: db, clock: clock}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketProducts, bucketLatest, bucketInternal} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}
		meta := tx.Bucket(bucketInternal)
		if meta.Get([]byte("schema_version")) == nil {
			if err := meta.Put([]byte("schema_version"), []byte(fmt.Sprintf("%d", schemaVersion))); err != nil {
				return err
			}
			return meta.Put([]byte("created_at"), []byte(s.clock.Now().UTC().Format(time.RFC3339)))
		}
		return nil
	})
}

// Put stores a product. It reports whether an entry with the same full
// key was replaced.
func (s *Store) Put(p *nws.TextProduct, family string) (bool, error) {
	k := KeyOf(p)
	e := Entry{
		Key:       k.String(),
		ProductID: p.ProductID(),
		Family:    family,
		Valid:     p.Valid,
		StoredAt:  s.clock.Now().UTC(),
		Text:      p.Text,
	}
	data, err := json.Marshal(e)
	if err != nil {
		return false, fmt.Errorf("encoding entry: %w", err)
	}
	var replaced bool
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProducts)
		full := []byte(e.Key)
		replaced = b.Get(full) != nil
		if err := b.Put(full, data); err != nil {
			return err
		}
		return tx.Bucket(bucketLatest).Put([]byte(k.base()), full)
	})
	return replaced, err
}

// Get returns the entry stored under an exact key.
func (s *Store) Get(k Key) (Entry, error) {
	var e Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketProducts).Get([]byte(k.String()))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &e)
	})
	return e, err
}

// Latest returns the version of a transmission written last, whatever
// its BBB.
func (s *Store) Latest(k Key) (Entry, error) {
	var e Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		full := tx.Bucket(bucketLatest).Get([]byte(k.base()))
		if full == nil {
			return ErrNotFound
		}
		v := tx.Bucket(bucketProducts).Get(full)
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &e)
	})
	return e, err
}

// Versions lists every stored version of a transmission in key order.
func (s *Store) Versions(k Key) ([]Entry, error) {
	var out []Entry
	prefix := []byte(k.base() + "|")
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketProducts).Cursor()
		for key, v := c.Seek(prefix); key != nil && bytes.HasPrefix(key, prefix); key, v = c.Next() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("decoding %s: %w", key, err)
			}
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

// Count returns the number of stored entries.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketProducts).Stats().KeyN
		return nil
	})
	return n, err
}
