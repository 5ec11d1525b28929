package hub

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var bucketModels = []byte("models")

// Entry records one resolved model in the cache.
type Entry struct {
	ID        string    `json:"id"`
	Revision  string    `json:"revision"`
	Ref       string    `json:"ref,omitempty"` // branch or tag requested at fetch time
	Dir       string    `json:"dir"`
	Files     []string  `json:"files"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Complete reports whether every recorded file still exists on disk.
func (e Entry) Complete() bool {
	if len(e.Files) == 0 {
		return false
	}
	for _, f := range e.Files {
		if _, err := os.Stat(filepath.Join(e.Dir, f)); err != nil {
			return false
		}
	}
	return true
}

// Matches reports whether rev names this entry, by commit or by the ref it
// was fetched under. An empty rev matches anything.
func (e Entry) Matches(rev string) bool {
	return rev == "" || rev == e.Revision || rev == e.Ref
}

// Manifest is a bbolt index of cached models keyed by model id.
type Manifest struct {
	db *bbolt.DB
}

// OpenManifest opens (or creates) the manifest database at path.
func OpenManifest(path string) (*Manifest, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("manifest: failed to open bolt db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketModels)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("manifest: %w", err)
	}
	return &Manifest{db: db}, nil
}

// Get returns the entry for id. ok is false when id was never cached.
func (m *Manifest) Get(id string) (e Entry, ok bool, err error) {
	err = m.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketModels).Get([]byte(id))
		if data == nil {
			return nil
		}
		ok = true
		return json.Unmarshal(data, &e)
	})
	if err != nil {
		return Entry{}, false, fmt.Errorf("manifest: %w", err)
	}
	return e, ok, nil
}

// Put stores e under e.ID, replacing any previous entry.
func (m *Manifest) Put(e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	return m.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketModels).Put([]byte(e.ID), data)
	})
}

// List returns all entries ordered by id.
func (m *Manifest) List() ([]Entry, error) {
	var entries []Entry
	err := m.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketModels).ForEach(func(_, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			entries = append(entries, e)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	return entries, nil
}

// Close releases the database file lock.
func (m *Manifest) Close() error {
	return m.db.Close()
}
