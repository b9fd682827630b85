package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	pdmodels "spverifier/internal/presentation/models"
	dErrors "spverifier/pkg/domain-errors"
	"spverifier/pkg/platform/sentinel"
)

// Store owns the service record and its JSON file.
//
// Every mutation copies the current snapshot, applies the change, writes the
// file and only then swaps the in-memory snapshot, all under one lock. Writes
// are therefore totally ordered and the file always holds a fully applied
// snapshot. Readers get deep copies.
type Store struct {
	path       string
	uploadsDir string
	logger     *slog.Logger

	mu   sync.RWMutex
	data *Data
}

// New creates a store backed by path. Call Load before use.
func New(path, uploadsDir string, logger *slog.Logger) *Store {
	return &Store{path: path, uploadsDir: uploadsDir, logger: logger}
}

// Load creates the uploads directory and reads the record from disk.
// A missing file leaves the store uninitialised.
func (s *Store) Load(ctx context.Context) error {
	if err := os.MkdirAll(s.uploadsDir, 0o755); err != nil {
		return dErrors.Wrap(err, dErrors.CodeFileOperation, "error creating uploads directory")
	}

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.InfoContext(ctx, "no storage file found, starting uninitialised", "path", s.path)
		s.mu.Lock()
		s.data = nil
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeFileOperation, "error reading file")
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return dErrors.Wrap(err, dErrors.CodeFileOperation, "error reading file")
	}
	if data.Hash == nil {
		data.Hash = map[string]string{}
	}

	s.mu.Lock()
	s.data = &data
	s.mu.Unlock()
	s.logger.InfoContext(ctx, "storage loaded", "path", s.path)
	return nil
}

// Initialise seeds an uninitialised store. An initialised store is left
// untouched and InvalidState is returned.
func (s *Store) Initialise(ctx context.Context, data Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data != nil {
		return dErrors.Wrap(sentinel.ErrInvalidState, dErrors.CodeInvalidState, "data already initialized")
	}
	if err := s.commit(ctx, data.clone()); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "storage initialised", "path", s.path)
	return nil
}

// Data returns a snapshot of the record.
func (s *Store) Data() (Data, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return Data{}, notInitialized()
	}
	return s.data.clone(), nil
}

// Metadata returns a copy of the display metadata.
func (s *Store) Metadata() (Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return Metadata{}, notInitialized()
	}
	return s.data.Metadata, nil
}

// UploadsDir is where metadata files live.
func (s *Store) UploadsDir() string {
	return s.uploadsDir
}

// Update applies mutate to a copy of the record and persists it.
func (s *Store) Update(ctx context.Context, mutate func(*Data)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return notInitialized()
	}
	next := s.data.clone()
	mutate(&next)
	return s.commit(ctx, next)
}

// UpdateURL sets the externally reachable base URL.
func (s *Store) UpdateURL(ctx context.Context, url string) error {
	return s.Update(ctx, func(d *Data) { d.URL = url })
}

func (s *Store) UpdateName(ctx context.Context, name string) error {
	return s.Update(ctx, func(d *Data) { d.Name = name })
}

// SetPresentationDefinition replaces the active definition together with the
// raw credential requests it was built from.
func (s *Store) SetPresentationDefinition(ctx context.Context, def *pdmodels.Definition, requested string) error {
	return s.Update(ctx, func(d *Data) {
		d.PresentationDefinition = def.Clone()
		d.MobilePresentationDefinition = requested
	})
}

// UpdateMetadata merges patch into the stored metadata.
func (s *Store) UpdateMetadata(ctx context.Context, patch MetadataPatch) error {
	return s.Update(ctx, func(d *Data) {
		patch.apply(&d.Metadata)
	})
}

// UpdateHash stores or replaces the hash of a device.
func (s *Store) UpdateHash(ctx context.Context, deviceID, hash string) error {
	return s.Update(ctx, func(d *Data) {
		d.Hash[deviceID] = hash
	})
}

// RemoveHash deletes a device hash. Removing an unknown device is a no-op.
func (s *Store) RemoveHash(ctx context.Context, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return notInitialized()
	}
	if _, ok := s.data.Hash[deviceID]; !ok {
		s.logger.InfoContext(ctx, "no hash found for device", "device_id", deviceID)
		return nil
	}
	next := s.data.clone()
	delete(next.Hash, deviceID)
	return s.commit(ctx, next)
}

// commit writes next to disk and swaps it in. Caller holds s.mu.
func (s *Store) commit(ctx context.Context, next Data) error {
	if err := s.persist(next); err != nil {
		s.logger.ErrorContext(ctx, "error saving storage", "path", s.path, "error", err)
		return dErrors.Wrap(err, dErrors.CodeFileOperation, "error saving data")
	}
	s.data = &next
	return nil
}

// persist writes through a temp file and rename so a crash never leaves a
// truncated record behind.
func (s *Store) persist(data Data) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal storage: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func notInitialized() error {
	return dErrors.Wrap(sentinel.ErrNotInitialized, dErrors.CodeNotInitialized, "data not initialized")
}
