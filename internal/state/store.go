package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/listops/listops/pkg/models"
)

const (
	StateVersion     = "1.0"
	DefaultStateFile = "output/.listops-state.json"

	// maxHistory bounds the action log kept in the state file
	maxHistory = 500
)

// HistoryEntry represents a single action in the history
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`  // parse, fetch, export, etc.
	Source    string    `json:"source"`  // sheets, file, or a list key
	Count     int       `json:"count"`   // Number of items affected
	Details   string    `json:"details"` // Human-readable description
}

// CachedList is the last parsed catalog of one list
type CachedList struct {
	Key       string          `json:"key"`
	Mode      string          `json:"mode"`
	Branch    string          `json:"branch,omitempty"`
	Origin    string          `json:"origin"` // URL or file path it was read from
	FetchedAt time.Time       `json:"fetched_at"`
	Faults    int             `json:"faults,omitempty"`
	Catalog   *models.Catalog `json:"catalog"`
}

// StateFile represents the state file structure
type StateFile struct {
	Version     string                 `json:"version"`
	Lists       map[string]*CachedList `json:"lists"` // Keyed by list key
	History     []HistoryEntry         `json:"history"`
	LastUpdated time.Time              `json:"last_updated"`
}

// Store manages the on-disk catalog cache
type Store struct {
	mu       sync.RWMutex
	filePath string
	state    *StateFile
}

func emptyState() *StateFile {
	return &StateFile{
		Version: StateVersion,
		Lists:   make(map[string]*CachedList),
		History: []HistoryEntry{},
	}
}

// NewStore creates a new state store
func NewStore(filePath string) *Store {
	if filePath == "" {
		filePath = DefaultStateFile
	}

	return &Store{
		filePath: filePath,
		state:    emptyState(),
	}
}

// Path returns the state file location
func (s *Store) Path() string {
	return s.filePath
}

// Load reads the state from disk. A missing file yields an empty state.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.state = emptyState()
			return nil
		}
		return err
	}

	var state StateFile
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to parse state file: %w", err)
	}
	if state.Version != StateVersion {
		return fmt.Errorf("unsupported state file version %q (want %s)", state.Version, StateVersion)
	}
	if state.Lists == nil {
		state.Lists = make(map[string]*CachedList)
	}
	s.state = &state

	return nil
}

// Save writes the state to disk
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveInternal()
}

// saveInternal saves without acquiring lock (for internal use)
func (s *Store) saveInternal() error {
	s.state.LastUpdated = time.Now()

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return err
	}

	// Write through a temp file so a crash never leaves half a cache
	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.filePath)
}

// Put stores the catalog for a list, replacing the previous one
func (s *Store) Put(entry *CachedList) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.FetchedAt.IsZero() {
		entry.FetchedAt = time.Now()
	}
	s.state.Lists[entry.Key] = entry
}

// Get returns the cached catalog for a list key
func (s *Store) Get(key string) (*CachedList, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, exists := s.state.Lists[key]
	return l, exists
}

// Keys returns the cached list keys, sorted
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.state.Lists))
	for k := range s.state.Lists {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Remove drops a cached list and reports whether it existed
func (s *Store) Remove(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.state.Lists[key]
	delete(s.state.Lists, key)
	return exists
}

// Count returns the number of cached lists
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.Lists)
}

// Clear removes all cached lists
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Lists = make(map[string]*CachedList)
}

// AddHistory adds an entry to the history, dropping the oldest beyond the cap
func (s *Store) AddHistory(action, source string, count int, details string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.History = append(s.state.History, HistoryEntry{
		Timestamp: time.Now(),
		Action:    action,
		Source:    source,
		Count:     count,
		Details:   details,
	})
	if over := len(s.state.History) - maxHistory; over > 0 {
		s.state.History = append([]HistoryEntry(nil), s.state.History[over:]...)
	}
}

// GetHistory returns the history entries
func (s *Store) GetHistory() []HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := make([]HistoryEntry, len(s.state.History))
	copy(history, s.state.History)
	return history
}

// GetRecentHistory returns the last N history entries
func (s *Store) GetRecentHistory(n int) []HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n >= len(s.state.History) {
		history := make([]HistoryEntry, len(s.state.History))
		copy(history, s.state.History)
		return history
	}

	start := len(s.state.History) - n
	history := make([]HistoryEntry, n)
	copy(history, s.state.History[start:])
	return history
}

// LastUpdated returns when the state was last saved
func (s *Store) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.LastUpdated
}

// DefaultStore is the global state store
var DefaultStore = NewStore("")

// Use replaces the global store with one at the given path
func Use(filePath string) {
	DefaultStore = NewStore(filePath)
}

// Load loads the default store
func Load() error {
	return DefaultStore.Load()
}

// Save saves the default store
func Save() error {
	return DefaultStore.Save()
}
