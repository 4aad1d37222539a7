// Package storage is the persistence collaborator for activity rows. It
// accepts normalizer records for batch insert and update, reports outcomes
// per row so the session can reconcile dirty/clean state after a partial
// failure, and never retries on its own.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"carbontrace/core/record"
	"carbontrace/internal/errors"
)

// Backend is a storage backend type
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendFile   Backend = "file"
)

// StoredRow pairs a persisted ID with its record
type StoredRow struct {
	// ID is the opaque identifier assigned on insert
	ID string `json:"id"`

	// Record is the persisted row shape
	Record *record.Record `json:"record"`

	// CreatedAt and UpdatedAt are bookkeeping timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RowUpdate addresses one persisted row for update
type RowUpdate struct {
	ID     string
	Record *record.Record
}

// RowResult reports one row's outcome within a batch. A batch can partially
// succeed; callers must not assume all-or-nothing.
type RowResult struct {
	// ID is the persisted ID, set on successful insert or update
	ID string

	// Err is the per-row failure, nil on success
	Err error
}

// Store is the persistence interface
type Store interface {
	// InsertRows persists new rows, returning one result per input row in
	// order
	InsertRows(ctx context.Context, rows []*record.Record) ([]RowResult, error)

	// UpdateRows rewrites existing rows, returning one result per input
	UpdateRows(ctx context.Context, updates []RowUpdate) ([]RowResult, error)

	// DeleteRow removes a persisted row
	DeleteRow(ctx context.Context, id string) error

	// ListRows returns all rows, optionally filtered by category
	ListRows(ctx context.Context, category string) ([]StoredRow, error)

	// Close releases backend resources
	Close() error
}

// Open creates a store for a backend
func Open(backend Backend, directory string) (Store, error) {
	switch backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile:
		return NewFileStore(directory)
	default:
		return nil, errors.Newf(errors.TypeConfig, "unknown storage backend: %s", backend)
	}
}

// MemoryStore keeps rows in process memory, used in tests and as the
// collaborator stub while no database is configured
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]StoredRow
}

// NewMemoryStore creates an in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]StoredRow)}
}

func (s *MemoryStore) InsertRows(ctx context.Context, rows []*record.Record) ([]RowResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]RowResult, len(rows))
	now := time.Now()
	for i, r := range rows {
		if r == nil {
			results[i] = RowResult{Err: errors.New(errors.TypeInput, "nil record")}
			continue
		}
		id := uuid.NewString()
		s.rows[id] = StoredRow{ID: id, Record: r, CreatedAt: now, UpdatedAt: now}
		results[i] = RowResult{ID: id}
	}
	return results, nil
}

func (s *MemoryStore) UpdateRows(ctx context.Context, updates []RowUpdate) ([]RowResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]RowResult, len(updates))
	for i, u := range updates {
		existing, ok := s.rows[u.ID]
		if !ok {
			results[i] = RowResult{ID: u.ID, Err: errors.NotFound("row", u.ID)}
			continue
		}
		existing.Record = u.Record
		existing.UpdatedAt = time.Now()
		s.rows[u.ID] = existing
		results[i] = RowResult{ID: u.ID}
	}
	return results, nil
}

func (s *MemoryStore) DeleteRow(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[id]; !ok {
		return errors.NotFound("row", id)
	}
	delete(s.rows, id)
	return nil
}

func (s *MemoryStore) ListRows(ctx context.Context, category string) ([]StoredRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []StoredRow
	for _, row := range s.rows {
		if category != "" && row.Record.Category != category {
			continue
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.Before(rows[j].CreatedAt) })
	return rows, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// FileStore persists rows as one JSON document per row
type FileStore struct {
	basePath string
	mu       sync.RWMutex
}

// NewFileStore creates a file store rooted at basePath
func NewFileStore(basePath string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, errors.Storage("failed to create storage directory", err)
	}
	return &FileStore{basePath: basePath}, nil
}

func (s *FileStore) rowPath(id string) string {
	return filepath.Join(s.basePath, id+".json")
}

func (s *FileStore) writeRow(row StoredRow) error {
	data, err := json.MarshalIndent(row, "", "  ")
	if err != nil {
		return errors.Storage("failed to marshal row", err)
	}
	if err := os.WriteFile(s.rowPath(row.ID), data, 0644); err != nil {
		return errors.Storage(fmt.Sprintf("failed to write row %s", row.ID), err)
	}
	return nil
}

func (s *FileStore) readRow(id string) (StoredRow, error) {
	data, err := os.ReadFile(s.rowPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return StoredRow{}, errors.NotFound("row", id)
		}
		return StoredRow{}, errors.Storage(fmt.Sprintf("failed to read row %s", id), err)
	}
	var row StoredRow
	if err := json.Unmarshal(data, &row); err != nil {
		return StoredRow{}, errors.Storage(fmt.Sprintf("failed to decode row %s", id), err)
	}
	return row, nil
}

func (s *FileStore) InsertRows(ctx context.Context, rows []*record.Record) ([]RowResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]RowResult, len(rows))
	now := time.Now()
	for i, r := range rows {
		if r == nil {
			results[i] = RowResult{Err: errors.New(errors.TypeInput, "nil record")}
			continue
		}
		row := StoredRow{ID: uuid.NewString(), Record: r, CreatedAt: now, UpdatedAt: now}
		if err := s.writeRow(row); err != nil {
			results[i] = RowResult{Err: err}
			continue
		}
		results[i] = RowResult{ID: row.ID}
	}
	return results, nil
}

func (s *FileStore) UpdateRows(ctx context.Context, updates []RowUpdate) ([]RowResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]RowResult, len(updates))
	for i, u := range updates {
		row, err := s.readRow(u.ID)
		if err != nil {
			results[i] = RowResult{ID: u.ID, Err: err}
			continue
		}
		row.Record = u.Record
		row.UpdatedAt = time.Now()
		if err := s.writeRow(row); err != nil {
			results[i] = RowResult{ID: u.ID, Err: err}
			continue
		}
		results[i] = RowResult{ID: u.ID}
	}
	return results, nil
}

func (s *FileStore) DeleteRow(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.rowPath(id)); err != nil {
		if os.IsNotExist(err) {
			return errors.NotFound("row", id)
		}
		return errors.Storage(fmt.Sprintf("failed to delete row %s", id), err)
	}
	return nil
}

func (s *FileStore) ListRows(ctx context.Context, category string) ([]StoredRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, errors.Storage("failed to read storage directory", err)
	}

	var rows []StoredRow
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		row, err := s.readRow(strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			return nil, err
		}
		if category != "" && row.Record.Category != category {
			continue
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.Before(rows[j].CreatedAt) })
	return rows, nil
}

func (s *FileStore) Close() error {
	return nil
}
