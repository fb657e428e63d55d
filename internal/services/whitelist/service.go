package whitelist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mcoot/tkserver/internal/metrics"
	"github.com/mcoot/tkserver/internal/model"
	"github.com/mcoot/tkserver/internal/storage"
)

// ErrPersistence is returned when a projection could not be written after retries.
// The in-memory change that triggered the write is kept.
var ErrPersistence = errors.New("whitelist persistence failed")

const (
	projectionRecords = "records"
	projectionMembers = "members"
)

// Config holds configuration for the whitelist service
type Config struct {
	// MaxRetries bounds the retries of a single projection write
	MaxRetries     uint64
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultConfig returns default whitelist configuration
func DefaultConfig() Config {
	return Config{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     time.Second,
	}
}

// Service owns the identity records and the membership set derived from them.
// The in-memory copies are authoritative; storage holds the two projections.
type Service struct {
	storage storage.Storage
	cfg     Config
	logger  *slog.Logger

	mu        sync.Mutex
	records   []*model.IdentityRecord
	byID      map[string]*model.IdentityRecord
	bySecret  map[string]*model.IdentityRecord
	members   []string
	memberSet map[string]struct{}
	// set when a projection write failed; both projections are rewritten
	// on the next mutation until one succeeds
	inconsistent bool
}

// New creates a new whitelist Service with an empty registry
func New(store storage.Storage, cfg Config, logger *slog.Logger) *Service {
	if cfg.InitialBackoff == 0 {
		cfg = DefaultConfig()
	}
	return &Service{
		storage:   store,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "whitelist")),
		byID:      make(map[string]*model.IdentityRecord),
		bySecret:  make(map[string]*model.IdentityRecord),
		memberSet: make(map[string]struct{}),
	}
}

// Load replaces the registry with the persisted projections.
// Missing or unreadable projections start empty, matching a fresh install.
func (s *Service) Load(ctx context.Context) {
	records, err := s.storage.LoadRecords(ctx)
	switch {
	case errors.Is(err, model.ErrSnapshotNotFound):
		s.logger.Info("identity snapshot not found, starting with empty list")
	case err != nil:
		s.logger.Warn("could not read identity snapshot, starting with empty list",
			slog.String("error", err.Error()))
		records = nil
	}

	members, err := s.storage.LoadMembers(ctx)
	switch {
	case errors.Is(err, model.ErrSnapshotNotFound):
		s.logger.Info("membership list not found, starting empty")
	case err != nil:
		s.logger.Warn("could not read membership list, starting empty",
			slog.String("error", err.Error()))
		members = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.byID = make(map[string]*model.IdentityRecord, len(records))
	s.bySecret = make(map[string]*model.IdentityRecord, len(records))
	for i := range records {
		rec := records[i]
		if _, dup := s.byID[rec.ID]; dup {
			s.logger.Warn("skipping duplicate id in snapshot", slog.String("id", rec.ID))
			continue
		}
		if _, dup := s.bySecret[rec.Secret]; dup {
			s.logger.Warn("skipping duplicate secret in snapshot", slog.String("id", rec.ID))
			continue
		}
		s.insertLocked(&rec)
	}

	s.members = nil
	s.memberSet = make(map[string]struct{}, len(members))
	for _, id := range members {
		s.addMemberLocked(id)
	}

	s.logger.Info("whitelist loaded",
		slog.Int("records", len(s.records)),
		slog.Int("members", len(s.members)))
}

// Register applies the registration rule for an (id, secret, displayName) tuple.
// A conflict returns OutcomeConflict with model.ErrIDTaken or model.ErrSecretTaken
// and leaves the registry untouched. A non-conflict outcome may come with an
// error wrapping ErrPersistence when the projections could not be written.
func (s *Service) Register(ctx context.Context, id, secret, displayName string) (model.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := s.byID[id]
	bySecret := s.bySecret[secret]

	var (
		outcome      model.Outcome
		recordsDirty bool
		membersDirty bool
	)

	switch {
	case byID != nil && byID == bySecret:
		outcome = model.OutcomeGranted
		if byID.DisplayName != displayName {
			byID.DisplayName = displayName
			recordsDirty = true
		}
		if s.addMemberLocked(id) {
			membersDirty = true
			s.logger.Info("existing user added to membership list", slog.String("id", id))
		}

	case byID != nil:
		metrics.Registrations.WithLabelValues(model.OutcomeConflict.String()).Inc()
		return model.OutcomeConflict, model.ErrIDTaken

	case bySecret != nil:
		metrics.Registrations.WithLabelValues(model.OutcomeConflict.String()).Inc()
		return model.OutcomeConflict, model.ErrSecretTaken

	default:
		outcome = model.OutcomeRegistered
		s.insertLocked(&model.IdentityRecord{ID: id, Secret: secret, DisplayName: displayName})
		recordsDirty = true
		membersDirty = s.addMemberLocked(id)
		s.logger.Info("new user added", slog.String("id", id))
	}

	metrics.Registrations.WithLabelValues(outcome.String()).Inc()
	return outcome, s.persistLocked(ctx, recordsDirty, membersDirty)
}

// Count returns the number of identity records
func (s *Service) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// ListAll returns a copy of every identity record in insertion order
func (s *Service) ListAll() []model.IdentityRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]model.IdentityRecord, len(s.records))
	for i, rec := range s.records {
		result[i] = *rec
	}
	return result
}

// Members returns a copy of the membership set in insertion order
func (s *Service) Members() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]string, len(s.members))
	copy(result, s.members)
	return result
}

// IsMember reports whether id is in the membership set
func (s *Service) IsMember(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.memberSet[id]
	return ok
}

// Inconsistent reports whether the last write left the projections out of
// step with memory
func (s *Service) Inconsistent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inconsistent
}

// TruncateMembershipFile caps the persisted membership list at its first
// maxRetainedLines entries. Failures are logged only.
func (s *Service) TruncateMembershipFile(ctx context.Context, maxRetainedLines int) {
	truncated, err := s.storage.TruncateMembers(ctx, maxRetainedLines)
	switch {
	case errors.Is(err, model.ErrSnapshotNotFound):
		return
	case err != nil:
		s.logger.Warn("could not truncate membership list", slog.String("error", err.Error()))
	case truncated:
		s.logger.Info("membership list truncated", slog.Int("kept", maxRetainedLines))
	}
}

func (s *Service) insertLocked(rec *model.IdentityRecord) {
	s.records = append(s.records, rec)
	s.byID[rec.ID] = rec
	s.bySecret[rec.Secret] = rec
}

// addMemberLocked adds id to the membership set and reports whether it was new
func (s *Service) addMemberLocked(id string) bool {
	if _, ok := s.memberSet[id]; ok {
		return false
	}
	s.memberSet[id] = struct{}{}
	s.members = append(s.members, id)
	return true
}

// persistLocked writes the dirty projections. While the registry is flagged
// inconsistent both projections are written regardless.
func (s *Service) persistLocked(ctx context.Context, recordsDirty, membersDirty bool) error {
	if s.inconsistent {
		recordsDirty, membersDirty = true, true
	}

	var errs []error
	if recordsDirty {
		snapshot := make([]model.IdentityRecord, len(s.records))
		for i, rec := range s.records {
			snapshot[i] = *rec
		}
		if err := s.retry(ctx, projectionRecords, func() error {
			return s.storage.SaveRecords(ctx, snapshot)
		}); err != nil {
			errs = append(errs, fmt.Errorf("save records: %w", err))
		}
	}
	if membersDirty {
		ids := make([]string, len(s.members))
		copy(ids, s.members)
		if err := s.retry(ctx, projectionMembers, func() error {
			return s.storage.SaveMembers(ctx, ids)
		}); err != nil {
			errs = append(errs, fmt.Errorf("save members: %w", err))
		}
	}

	if len(errs) > 0 {
		s.inconsistent = true
		err := errors.Join(errs...)
		s.logger.Error("whitelist projections out of sync with memory", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	if s.inconsistent {
		s.logger.Info("whitelist projections back in sync")
	}
	s.inconsistent = false
	return nil
}

// retry runs op with bounded exponential backoff
func (s *Service) retry(ctx context.Context, projection string, op func() error) error {
	strategy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewExponentialBackOff(
				backoff.WithInitialInterval(s.cfg.InitialBackoff),
				backoff.WithMaxInterval(s.cfg.MaxBackoff),
			),
			s.cfg.MaxRetries,
		),
		ctx,
	)

	err := backoff.RetryNotify(op, strategy, func(err error, d time.Duration) {
		s.logger.Warn("retrying whitelist write",
			slog.String("projection", projection),
			slog.String("error", err.Error()),
			slog.Duration("next_attempt_in", d))
	})
	if err != nil {
		metrics.PersistenceFailures.WithLabelValues(projection).Inc()
	}
	return err
}
