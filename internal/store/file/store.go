// Package file persists the catalog as a pretty-printed JSON array.
//
// Writes go to a unique temporary file next to the target and are renamed
// over it, so readers never observe a partial catalog. The previous file is
// copied to <path>.bak first and Load falls back to it when the primary file
// does not parse.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/homenav/internal/domain"
	"github.com/MrSnakeDoc/homenav/internal/logger"
	"github.com/MrSnakeDoc/homenav/internal/utils"
)

const (
	backupSuffix = ".bak"
	filePerm     = 0o644
	dirPerm      = 0o755
)

// Store reads and writes the catalog file at a fixed path.
type Store struct {
	path   string
	logger logger.Logger
}

func NewStore(path string, log logger.Logger) *Store {
	return &Store{path: path, logger: log}
}

func (s *Store) Path() string       { return s.path }
func (s *Store) BackupPath() string { return s.path + backupSuffix }

// Load returns the persisted catalog. A missing file yields an empty catalog
// and creates the parent directory. A corrupt file is replaced by the backup
// when one parses.
func (s *Store) Load(_ context.Context) ([]domain.ServiceEntry, error) {
	entries, err := readEntries(s.path)
	if err == nil {
		return entries, nil
	}

	if errors.Is(err, fs.ErrNotExist) {
		if err := s.ensureDir(); err != nil {
			return nil, err
		}
		s.logger.Info("catalog file not found, starting empty", logger.String("path", s.path))
		return []domain.ServiceEntry{}, nil
	}

	var parseErr *parseError
	if !errors.As(err, &parseErr) {
		return nil, err
	}

	s.logger.Warn("catalog file is corrupt, trying backup",
		logger.String("path", s.path),
		logger.Error(err))

	backup, bakErr := readEntries(s.BackupPath())
	if bakErr != nil {
		return nil, fmt.Errorf("catalog %s unreadable and backup failed: %w", s.path, errors.Join(err, bakErr))
	}
	s.logger.Warn("catalog recovered from backup",
		logger.String("backup", s.BackupPath()),
		logger.Int("entries", len(backup)))
	return backup, nil
}

// Save atomically replaces the catalog file with entries.
func (s *Store) Save(_ context.Context, entries []domain.ServiceEntry) error {
	if entries == nil {
		entries = []domain.ServiceEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}

	if err := s.ensureDir(); err != nil {
		return err
	}

	if err := s.backup(); err != nil {
		return err
	}

	tmp := fmt.Sprintf("%s.tmp-%s", s.path, uuid.NewString())
	if err := writeFileSync(tmp, data); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write temp catalog: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace catalog: %w", err)
	}
	return nil
}

func (s *Store) ensureDir() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("failed to create data dir %s: %w", dir, err)
	}
	return nil
}

// backup copies the current file to <path>.bak. No current file, no backup.
// A current file that does not parse is left out so a good backup, possibly
// the one Load recovered from, is never replaced by a corrupt one.
func (s *Store) backup() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read catalog for backup: %w", err)
	}

	var current []domain.ServiceEntry
	if err := json.Unmarshal(data, &current); err != nil {
		s.logger.Warn("current catalog is corrupt, keeping previous backup",
			logger.String("path", s.path),
			logger.Error(err))
		return nil
	}

	if err := os.WriteFile(s.BackupPath(), data, filePerm); err != nil {
		return fmt.Errorf("failed to write catalog backup: %w", err)
	}
	return nil
}

type parseError struct {
	path string
	err  error
}

func (e *parseError) Error() string { return fmt.Sprintf("failed to parse %s: %v", e.path, e.err) }
func (e *parseError) Unwrap() error { return e.err }

func readEntries(path string) ([]domain.ServiceEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []domain.ServiceEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &parseError{path: path, err: err}
	}
	if entries == nil {
		entries = []domain.ServiceEntry{}
	}
	return entries, nil
}

func writeFileSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, filePerm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		utils.Close(f)
		return err
	}
	if err := f.Sync(); err != nil {
		utils.Close(f)
		return err
	}
	return f.Close()
}
