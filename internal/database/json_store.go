package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"fleetping-bot/internal/database/models"
)

// FilePingStore keeps the last ping of every channel in a single JSON
// document keyed by channel id. Every Put rewrites the whole file.
type FilePingStore struct {
	path string
	mu   sync.Mutex
}

// NewFilePingStore returns a store backed by the file at path.
// The file is created on the first Put.
func NewFilePingStore(path string) *FilePingStore {
	return &FilePingStore{path: path}
}

// load reads the whole mapping. A missing or corrupt file yields an empty map.
func (s *FilePingStore) load() map[string]*models.PingRecord {
	records := make(map[string]*models.PingRecord)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("[PingStore] Failed to read %s, starting empty: %v", s.path, err)
		}
		return records
	}
	if len(data) == 0 {
		return records
	}
	if err := json.Unmarshal(data, &records); err != nil {
		log.Printf("[PingStore] Failed to parse %s, starting empty: %v", s.path, err)
		return make(map[string]*models.PingRecord)
	}
	return records
}

// save writes the mapping to a temp file and renames it over the target.
func (s *FilePingStore) save(records map[string]*models.PingRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode ping records: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}

// Get returns the record for channelID or ErrPingNotFound.
func (s *FilePingStore) Get(_ context.Context, channelID string) (*models.PingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.load()[channelID]
	if !ok || record == nil {
		return nil, ErrPingNotFound
	}
	record.ChannelID = channelID
	return record, nil
}

// Put stores record under channelID, replacing any previous one.
func (s *FilePingStore) Put(_ context.Context, channelID string, record *models.PingRecord) error {
	if record == nil {
		return errors.New("nil ping record")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.load()
	stored := *record
	stored.ChannelID = channelID
	records[channelID] = &stored
	return s.save(records)
}

// Delete removes the record for channelID. Missing records are not an error.
func (s *FilePingStore) Delete(_ context.Context, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.load()
	if _, ok := records[channelID]; !ok {
		return nil
	}
	delete(records, channelID)
	return s.save(records)
}
