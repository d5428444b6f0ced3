package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"inzira-booking-client/internal/domain/entity"
	"inzira-booking-client/internal/domain/repository"
)

// FileRecoveryRepository keeps the recovery record as a JSON file
type FileRecoveryRepository struct {
	mu   sync.Mutex
	path string
}

// NewFileRecoveryRepository creates a new file-backed recovery repository
func NewFileRecoveryRepository(path string) repository.RecoveryRepository {
	return &FileRecoveryRepository{path: path}
}

// Save overwrites the record. The file is replaced atomically.
func (r *FileRecoveryRepository) Save(ctx context.Context, record *entity.RecoveryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal recovery record: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create recovery directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create recovery file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write recovery file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write recovery file: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("failed to replace recovery file: %w", err)
	}
	return nil
}

// Load reads the record, nil when the file does not exist
func (r *FileRecoveryRepository) Load(ctx context.Context) (*entity.RecoveryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read recovery file: %w", err)
	}

	var record entity.RecoveryRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode recovery file: %w", err)
	}
	return &record, nil
}

// Clear removes the file
func (r *FileRecoveryRepository) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove recovery file: %w", err)
	}
	return nil
}
