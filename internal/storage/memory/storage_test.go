package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tkserver/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

// Record tests

func (s *StorageSuite) TestLoadRecordsBeforeSave() {
	_, err := s.storage.LoadRecords(s.ctx)
	s.ErrorIs(err, model.ErrSnapshotNotFound)
}

func (s *StorageSuite) TestSaveAndLoadRecords() {
	records := []model.IdentityRecord{
		{ID: "abc", Secret: "xyz", DisplayName: "Alice"},
		{ID: "def", Secret: "uvw", DisplayName: "Bob"},
	}
	s.Require().NoError(s.storage.SaveRecords(s.ctx, records))

	loaded, err := s.storage.LoadRecords(s.ctx)
	s.Require().NoError(err)
	s.Equal(records, loaded)
}

func (s *StorageSuite) TestSaveRecordsCopiesInput() {
	records := []model.IdentityRecord{{ID: "abc", Secret: "xyz", DisplayName: "Alice"}}
	s.Require().NoError(s.storage.SaveRecords(s.ctx, records))

	records[0].DisplayName = "Mallory"

	loaded, _ := s.storage.LoadRecords(s.ctx)
	s.Equal("Alice", loaded[0].DisplayName)
}

func (s *StorageSuite) TestFailSaveRecords() {
	boom := errors.New("disk full")
	s.storage.FailSaveRecords(boom)

	err := s.storage.SaveRecords(s.ctx, nil)
	s.ErrorIs(err, boom)

	s.storage.FailSaveRecords(nil)
	s.NoError(s.storage.SaveRecords(s.ctx, nil))

	records, _ := s.storage.Writes()
	s.Equal(1, records)
}

// Member tests

func (s *StorageSuite) TestSaveAndLoadMembers() {
	s.Require().NoError(s.storage.SaveMembers(s.ctx, []string{"a", "b"}))

	loaded, err := s.storage.LoadMembers(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"a", "b"}, loaded)
}

func (s *StorageSuite) TestTruncateMembers() {
	s.Require().NoError(s.storage.SaveMembers(s.ctx, []string{"a", "b", "c", "d"}))

	truncated, err := s.storage.TruncateMembers(s.ctx, 2)
	s.Require().NoError(err)
	s.True(truncated)

	loaded, _ := s.storage.LoadMembers(s.ctx)
	s.Equal([]string{"a", "b"}, loaded)
}

func (s *StorageSuite) TestTruncateMembersUnderLimit() {
	s.Require().NoError(s.storage.SaveMembers(s.ctx, []string{"a"}))

	truncated, err := s.storage.TruncateMembers(s.ctx, 6)
	s.Require().NoError(err)
	s.False(truncated)
}

func (s *StorageSuite) TestTruncateMembersMissing() {
	_, err := s.storage.TruncateMembers(s.ctx, 6)
	s.ErrorIs(err, model.ErrSnapshotNotFound)
}
