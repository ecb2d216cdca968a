package kvstore

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by Get for a key that was never written. Callers
// treat it as empty initial state, not as a failure.
var ErrNotFound = errors.New("key not found")

// Store is a local key-value store holding one JSON document per key as a
// file in the data directory. Writes are atomic (temp file + rename) and
// serialized per key: at most one write for a key is in flight, later writers
// for the same key wait for it to finish. Writers for distinct keys do not
// block each other. This closes the lost-update window a plain
// read-modify-write of a whole document would otherwise have.
type Store struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("kvstore: data dir is required")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create data dir")
	}

	return &Store{dir: dir, locks: make(map[string]*sync.Mutex)}, nil
}

// Get returns the stored value for key, or ErrNotFound if the key was never
// written.
func (s *Store) Get(key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	payload, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, errors.Wrapf(err, "read key %s", key)
	}

	return payload, nil
}

// Set stores value under key. The write becomes visible atomically; a
// concurrent Get sees either the previous document or the new one, never a
// torn mix.
func (s *Store) Set(key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	path := s.path(key)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, value, 0o644); err != nil {
		return errors.Wrapf(err, "write temp file for key %s", key)
	}

	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "persist key %s", key)
	}

	return nil
}

// Update applies fn to the current value of key (nil when absent) and stores
// the result, all under the key's write lock. Whole-document read-modify-write
// sequences go through here so two rapid updates cannot clobber each other.
func (s *Store) Update(key string, fn func(current []byte) ([]byte, error)) error {
	if err := validateKey(key); err != nil {
		return err
	}

	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	path := s.path(key)

	current, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return errors.Wrapf(err, "read key %s", key)
		}

		current = nil
	}

	next, err := fn(current)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, next, 0o644); err != nil {
		return errors.Wrapf(err, "write temp file for key %s", key)
	}

	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "persist key %s", key)
	}

	return nil
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *Store) Delete(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "delete key %s", key)
	}

	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *Store) keyLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}

	return lock
}

// validateKey keeps keys inside the data dir. Stored keys are the legacy
// uppercase names (WORKOUTS, DAILY_WATER, ...), so the charset is strict.
func validateKey(key string) error {
	if key == "" {
		return errors.New("kvstore: empty key")
	}

	for _, r := range key {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' {
			return errors.Errorf("kvstore: invalid key %q", key)
		}
	}

	return nil
}
