package memory

import (
	"context"
	"sync"

	"github.com/mcoot/tkserver/internal/model"
	"github.com/mcoot/tkserver/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
// Save errors can be injected to exercise persistence failure paths
type Storage struct {
	mu sync.RWMutex

	records []model.IdentityRecord
	members []string
	// false until the projection is first written
	hasRecords bool
	hasMembers bool

	saveRecordsErr error
	saveMembersErr error

	recordWrites int
	memberWrites int
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Identity snapshot operations

func (s *Storage) LoadRecords(ctx context.Context) ([]model.IdentityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasRecords {
		return nil, model.ErrSnapshotNotFound
	}
	result := make([]model.IdentityRecord, len(s.records))
	copy(result, s.records)
	return result, nil
}

func (s *Storage) SaveRecords(ctx context.Context, records []model.IdentityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveRecordsErr != nil {
		return s.saveRecordsErr
	}
	s.records = make([]model.IdentityRecord, len(records))
	copy(s.records, records)
	s.hasRecords = true
	s.recordWrites++
	return nil
}

// Membership list operations

func (s *Storage) LoadMembers(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasMembers {
		return nil, model.ErrSnapshotNotFound
	}
	result := make([]string, len(s.members))
	copy(result, s.members)
	return result, nil
}

func (s *Storage) SaveMembers(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveMembersErr != nil {
		return s.saveMembersErr
	}
	s.members = make([]string, len(ids))
	copy(s.members, ids)
	s.hasMembers = true
	s.memberWrites++
	return nil
}

func (s *Storage) TruncateMembers(ctx context.Context, maxLines int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasMembers {
		return false, model.ErrSnapshotNotFound
	}
	if len(s.members) <= maxLines {
		return false, nil
	}
	s.members = s.members[:maxLines]
	return true, nil
}

// Test helpers

// FailSaveRecords makes every SaveRecords call return err until cleared with nil
func (s *Storage) FailSaveRecords(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveRecordsErr = err
}

// FailSaveMembers makes every SaveMembers call return err until cleared with nil
func (s *Storage) FailSaveMembers(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveMembersErr = err
}

// Writes returns how many successful snapshot and membership writes happened
func (s *Storage) Writes() (records, members int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recordWrites, s.memberWrites
}
