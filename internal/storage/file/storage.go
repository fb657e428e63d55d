package file

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/mcoot/tkserver/internal/model"
	"github.com/mcoot/tkserver/internal/storage"
)

// Storage keeps the identity snapshot as indented JSON and the membership
// list as one id per line. Writes go to a temp file that is renamed over the
// target, so a crash never leaves a half-written projection behind.
type Storage struct {
	cfg Config
}

// New creates a file storage, creating the directory if needed
func New(cfg Config) (*Storage, error) {
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	if cfg.RecordsFile == "" {
		cfg.RecordsFile = DefaultRecordsFile
	}
	if cfg.MembersFile == "" {
		cfg.MembersFile = DefaultMembersFile
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Storage{cfg: cfg}, nil
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// RecordsPath returns the path of the identity snapshot
func (s *Storage) RecordsPath() string {
	return filepath.Join(s.cfg.Dir, s.cfg.RecordsFile)
}

// MembersPath returns the path of the membership list
func (s *Storage) MembersPath() string {
	return filepath.Join(s.cfg.Dir, s.cfg.MembersFile)
}

// Identity snapshot operations

func (s *Storage) LoadRecords(ctx context.Context) ([]model.IdentityRecord, error) {
	data, err := os.ReadFile(s.RecordsPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, model.ErrSnapshotNotFound
		}
		return nil, err
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return []model.IdentityRecord{}, nil
	}

	var records []model.IdentityRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.cfg.RecordsFile, err)
	}
	if records == nil {
		records = []model.IdentityRecord{}
	}
	return records, nil
}

func (s *Storage) SaveRecords(ctx context.Context, records []model.IdentityRecord) error {
	if records == nil {
		records = []model.IdentityRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return atomic.WriteFile(s.RecordsPath(), bytes.NewReader(data))
}

// Membership list operations

func (s *Storage) LoadMembers(ctx context.Context) ([]string, error) {
	lines, err := s.readMemberLines()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		if id := strings.TrimSpace(line); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *Storage) SaveMembers(ctx context.Context, ids []string) error {
	return atomic.WriteFile(s.MembersPath(), strings.NewReader(joinLines(ids)))
}

func (s *Storage) TruncateMembers(ctx context.Context, maxLines int) (bool, error) {
	lines, err := s.readMemberLines()
	if err != nil {
		return false, err
	}
	if len(lines) <= maxLines {
		return false, nil
	}
	if err := atomic.WriteFile(s.MembersPath(), strings.NewReader(joinLines(lines[:maxLines]))); err != nil {
		return false, err
	}
	return true, nil
}

// readMemberLines returns every raw line of the membership file
func (s *Storage) readMemberLines() ([]string, error) {
	f, err := os.Open(s.MembersPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, model.ErrSnapshotNotFound
		}
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
