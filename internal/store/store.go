package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"awstatus/internal/feed"
	"awstatus/internal/model"
	"awstatus/internal/normalize"
	"awstatus/internal/observability"
)

// Result pairs the filtered current and archived collections.
type Result struct {
	Current  []model.Issue `json:"current"`
	Archived []model.Issue `json:"archived"`
}

// Store holds the normalized current and archived issue collections.
// Refresh replaces both wholesale; queries read a consistent snapshot.
type Store struct {
	fetcher    feed.Fetcher
	normalizer *normalize.Normalizer
	logger     *zap.Logger
	clock      clockwork.Clock
	metrics    *observability.Metrics

	mu              sync.RWMutex
	current         []model.Issue
	archived        []model.Issue
	archiveSpanDays int
}

// Option adjusts a Store at construction time.
type Option func(*Store)

// WithClock swaps the time source used for the archive span.
func WithClock(c clockwork.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithMetrics wires refresh metrics into the store.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// New creates an empty Store.
func New(fetcher feed.Fetcher, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		fetcher:    fetcher,
		normalizer: normalize.NewNormalizer(logger),
		logger:     logger,
		clock:      clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh fetches the status feed and rebuilds both collections. The
// new collections are built in full before they replace the old ones,
// so a failed refresh leaves the previous snapshot untouched. Any
// record failing normalization aborts the whole refresh.
func (s *Store) Refresh(ctx context.Context) error {
	start := s.clock.Now()

	statusFeed, err := s.fetcher.FetchStatus(ctx)
	if err != nil {
		s.countError()
		return err
	}

	current := make([]model.Issue, 0, len(statusFeed.Current))
	for _, raw := range statusFeed.Current {
		issue, err := s.normalizer.Issue(raw)
		if err != nil {
			s.countError()
			return fmt.Errorf("current issue: %w", err)
		}
		current = append(current, issue)
	}

	oldest := start.Unix()
	archived := make([]model.Issue, 0, len(statusFeed.Archive))
	for _, raw := range statusFeed.Archive {
		issue, err := s.normalizer.Issue(raw)
		if err != nil {
			s.countError()
			return fmt.Errorf("archived issue: %w", err)
		}
		if issue.Timestamp < oldest {
			oldest = issue.Timestamp
		}
		archived = append(archived, issue)
	}
	spanDays := int((start.Unix() - oldest) / 86400)

	s.mu.Lock()
	s.current = current
	s.archived = archived
	s.archiveSpanDays = spanDays
	s.mu.Unlock()

	s.logger.Info("refreshed issues",
		zap.Int("current", len(current)),
		zap.Int("archived", len(archived)),
		zap.Int("archive_span_days", spanDays))

	if s.metrics != nil {
		s.metrics.Refreshes.Inc()
		s.metrics.RefreshDuration.Observe(s.clock.Since(start).Seconds())
		s.metrics.CurrentIssues.Set(float64(len(current)))
		s.metrics.ArchivedIssues.Set(float64(len(archived)))
		s.metrics.ArchiveSpanDays.Set(float64(spanDays))
	}
	return nil
}

func (s *Store) countError() {
	if s.metrics != nil {
		s.metrics.RefreshErrors.Inc()
	}
}

// Query filters both collections by the optional service and region
// values (friendly name or code, case-insensitive; empty means no
// filter) and returns each sorted descending by date.
func (s *Store) Query(service, region string) Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Result{
		Current:  filterIssues(s.current, service, region),
		Archived: filterIssues(s.archived, service, region),
	}
}

// ArchiveSpanDays returns the days between the last refresh and the
// oldest archived issue, zero before the first refresh.
func (s *Store) ArchiveSpanDays() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.archiveSpanDays
}
