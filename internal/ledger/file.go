package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	accountsFile = "player_data.json"
	statsFile    = "blackjack_data.json"
)

// FileStore keeps each ledger in a JSON document on disk. A single
// mutex serializes every load and save; writes go to a temp file that
// is renamed into place so a crash mid-save never truncates a ledger.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates the data directory if needed and returns a store
// rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) LoadAccounts() (map[string]Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := make(map[string]Account)
	if err := s.read(accountsFile, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *FileStore) SaveAccounts(accounts map[string]Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(accountsFile, accounts)
}

// UpdateAccounts runs fn on the current accounts mapping and persists
// the result, holding the store lock across the whole cycle so no other
// load or save can interleave with it.
func (s *FileStore) UpdateAccounts(fn func(map[string]Account) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := make(map[string]Account)
	if err := s.read(accountsFile, &accounts); err != nil {
		return err
	}
	if err := fn(accounts); err != nil {
		return err
	}
	return s.write(accountsFile, accounts)
}

func (s *FileStore) LoadStats() (map[string]Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := make(map[string]Stats)
	if err := s.read(statsFile, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *FileStore) SaveStats(stats map[string]Stats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(statsFile, stats)
}

// UpdateStats is the stats counterpart of UpdateAccounts.
func (s *FileStore) UpdateStats(fn func(map[string]Stats) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := make(map[string]Stats)
	if err := s.read(statsFile, &stats); err != nil {
		return err
	}
	if err := fn(stats); err != nil {
		return err
	}
	return s.write(statsFile, stats)
}

func (s *FileStore) Close() error {
	return nil
}

// read decodes a ledger file into dst. A missing file reads as the
// empty mapping.
func (s *FileStore) read(name string, dst interface{}) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", name, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decoding %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) write(name string, src interface{}) error {
	data, err := json.MarshalIndent(src, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}

	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing %s: %w", name, err)
	}
	return nil
}
