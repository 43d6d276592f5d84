package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/ekaya-inc/ekaya-bi/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-bi/pkg/models"
)

// FileConnectionStore keeps definitions as a JSON array in one file.
// Writes replace the file atomically; a missing file is an empty store.
type FileConnectionStore struct {
	path string
	mu   sync.RWMutex
	now  func() time.Time
}

func NewFileConnectionStore(path string) *FileConnectionStore {
	return &FileConnectionStore{path: path, now: time.Now}
}

func (s *FileConnectionStore) Get(ctx context.Context, id string) (*models.ConnectionDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	defs, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range defs {
		if defs[i].ID == id {
			return &defs[i], nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (s *FileConnectionStore) GetAll(ctx context.Context) ([]models.ConnectionDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	defs, err := s.load()
	if err != nil {
		return nil, err
	}
	sortByName(defs)
	return defs, nil
}

func (s *FileConnectionStore) Upsert(ctx context.Context, def *models.ConnectionDefinition) error {
	if def == nil || def.ID == "" {
		return apperrors.InvalidInput("Connection id is required.")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	defs, err := s.load()
	if err != nil {
		return err
	}

	now := s.now().UTC()
	def.UpdatedAt = now
	replaced := false
	for i := range defs {
		if defs[i].ID == def.ID {
			def.CreatedAt = defs[i].CreatedAt
			defs[i] = *def
			replaced = true
			break
		}
	}
	if !replaced {
		if def.CreatedAt.IsZero() {
			def.CreatedAt = now
		}
		defs = append(defs, *def)
	}

	return s.save(defs)
}

func (s *FileConnectionStore) load() ([]models.ConnectionDefinition, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.ConnectionDefinition{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read connection store: %w", err)
	}

	var defs []models.ConnectionDefinition
	if len(data) > 0 {
		if err := json.Unmarshal(data, &defs); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
		}
	}
	if defs == nil {
		defs = []models.ConnectionDefinition{}
	}
	return defs, nil
}

// save writes to a temp file in the same directory and renames it over the
// store so readers never see a partial document.
func (s *FileConnectionStore) save(defs []models.ConnectionDefinition) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(defs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode connections: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".connections-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write connections: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync connections: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace connection store: %w", err)
	}
	return nil
}

func sortByName(defs []models.ConnectionDefinition) {
	sort.SliceStable(defs, func(i, j int) bool {
		if defs[i].Name != defs[j].Name {
			return defs[i].Name < defs[j].Name
		}
		return defs[i].ID < defs[j].ID
	})
}

var _ ConnectionStore = (*FileConnectionStore)(nil)
