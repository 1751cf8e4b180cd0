package kvstore

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
)

// ErrNotFound is returned by Get when the key has never been set.
var ErrNotFound = errors.New("key not found")

// Store is a small reload-surviving key/value store backed by a JSON
// file. Values are loaded once at init and every mutation is written
// back to disk immediately, so state survives a process restart.
type Store struct {
	path string

	mu     sync.Mutex
	values map[string]string
}

func Open(path string) (*Store, error) {
	s := &Store{
		path:   path,
		values: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}

	err = json.Unmarshal(data, &s.values)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Store) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.values[key]
	if !ok {
		return "", ErrNotFound
	}

	return v, nil
}

func (s *Store) Set(key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return s.flush()
}

func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return s.flush()
}

// flush writes the whole map back to the backing file. Caller must hold mu.
func (s *Store) flush() error {
	data, err := json.Marshal(s.values)
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0644)
}
