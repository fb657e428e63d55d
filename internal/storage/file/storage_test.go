package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tkserver/internal/model"
)

type StorageSuite struct {
	suite.Suite
	dir     string
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.dir = s.T().TempDir()
	store, err := New(DefaultConfig(s.dir))
	s.Require().NoError(err)
	s.storage = store
	s.ctx = context.Background()
}

func (s *StorageSuite) writeFile(name, content string) {
	s.Require().NoError(os.WriteFile(filepath.Join(s.dir, name), []byte(content), 0o644))
}

func (s *StorageSuite) readFile(name string) string {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	s.Require().NoError(err)
	return string(data)
}

// Record tests

func (s *StorageSuite) TestLoadRecordsMissingFile() {
	_, err := s.storage.LoadRecords(s.ctx)
	s.ErrorIs(err, model.ErrSnapshotNotFound)
}

func (s *StorageSuite) TestLoadRecordsEmptyFile() {
	s.writeFile(DefaultRecordsFile, "  \n")

	records, err := s.storage.LoadRecords(s.ctx)
	s.Require().NoError(err)
	s.Empty(records)
}

func (s *StorageSuite) TestLoadRecordsCorruptFile() {
	s.writeFile(DefaultRecordsFile, "{not json")

	_, err := s.storage.LoadRecords(s.ctx)
	s.Error(err)
	s.NotErrorIs(err, model.ErrSnapshotNotFound)
}

func (s *StorageSuite) TestLoadRecordsExistingFormat() {
	s.writeFile(DefaultRecordsFile, `[
  {
    "SteamId": "7656119",
    "Serial": "AAAA-BBBB",
    "Name": "Alice"
  }
]`)

	records, err := s.storage.LoadRecords(s.ctx)
	s.Require().NoError(err)
	s.Equal([]model.IdentityRecord{{ID: "7656119", Secret: "AAAA-BBBB", DisplayName: "Alice"}}, records)
}

func (s *StorageSuite) TestSaveRecordsRoundTrip() {
	records := []model.IdentityRecord{
		{ID: "abc", Secret: "xyz", DisplayName: "Alice"},
		{ID: "def", Secret: "uvw", DisplayName: "Bob"},
	}
	s.Require().NoError(s.storage.SaveRecords(s.ctx, records))

	s.Contains(s.readFile(DefaultRecordsFile), `"SteamId": "abc"`)

	loaded, err := s.storage.LoadRecords(s.ctx)
	s.Require().NoError(err)
	s.Equal(records, loaded)
}

func (s *StorageSuite) TestSaveRecordsLeavesNoTempFiles() {
	s.Require().NoError(s.storage.SaveRecords(s.ctx, []model.IdentityRecord{{ID: "a", Secret: "b"}}))
	s.Require().NoError(s.storage.SaveMembers(s.ctx, []string{"a"}))

	entries, err := os.ReadDir(s.dir)
	s.Require().NoError(err)
	s.Len(entries, 2)
}

// Member tests

func (s *StorageSuite) TestLoadMembersSkipsBlankLines() {
	s.writeFile(DefaultMembersFile, "abc\n\n  def  \r\n\n")

	ids, err := s.storage.LoadMembers(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"abc", "def"}, ids)
}

func (s *StorageSuite) TestSaveMembersOneIDPerLine() {
	s.Require().NoError(s.storage.SaveMembers(s.ctx, []string{"abc", "def"}))
	s.Equal("abc\ndef\n", s.readFile(DefaultMembersFile))
}

func (s *StorageSuite) TestTruncateMembersKeepsPrefix() {
	s.writeFile(DefaultMembersFile, "1\n2\n3\n4\n5\n6\n7\n8\n")

	truncated, err := s.storage.TruncateMembers(s.ctx, 6)
	s.Require().NoError(err)
	s.True(truncated)
	s.Equal("1\n2\n3\n4\n5\n6\n", s.readFile(DefaultMembersFile))
}

func (s *StorageSuite) TestTruncateMembersAtLimitUntouched() {
	s.writeFile(DefaultMembersFile, "1\n2\n3\n4\n5\n6")

	truncated, err := s.storage.TruncateMembers(s.ctx, 6)
	s.Require().NoError(err)
	s.False(truncated)
	s.Equal("1\n2\n3\n4\n5\n6", s.readFile(DefaultMembersFile))
}

func (s *StorageSuite) TestTruncateMembersMissingFile() {
	_, err := s.storage.TruncateMembers(s.ctx, 6)
	s.ErrorIs(err, model.ErrSnapshotNotFound)
}
