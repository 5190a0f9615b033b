package health

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/secondopinion/companion/internal/domain/records"
)

var (
	// ErrNoHealthData is returned when a summary is requested for a user
	// with no metrics.
	ErrNoHealthData = errors.New("no health data found")

	ErrMissingUserID = errors.New("user_id is required")
	ErrMissingName   = errors.New("name is required")
)

// Options configure the health service.
type Options struct {
	AlertMode AlertMode
	// AutoSeed fills an empty user with mock vitals (and the demo profile)
	// on first read.
	AutoSeed bool
}

// Service provides vitals, profile and summary operations.
type Service struct {
	store  records.Store
	opts   Options
	logger zerolog.Logger
	now    func() time.Time

	mu     sync.Mutex
	rng    *rand.Rand
	seeded map[string]bool
	locks  map[string]*sync.RWMutex
}

// NewService creates a new health service.
func NewService(store records.Store, opts Options, logger zerolog.Logger) *Service {
	if opts.AlertMode == "" {
		opts.AlertMode = AlertModeAlways
	}
	return &Service{
		store:  store,
		opts:   opts,
		logger: logger,
		now:    time.Now,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		seeded: make(map[string]bool),
		locks:  make(map[string]*sync.RWMutex),
	}
}

// AlertMode returns the configured alert mode.
func (s *Service) AlertMode() AlertMode {
	return s.opts.AlertMode
}

// userLock returns the lock serializing seeding against reads for userID.
func (s *Service) userLock(userID string) *sync.RWMutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.RWMutex{}
		s.locks[userID] = l
	}
	return l
}

// InitMockData seeds MockDays of mock vitals for userID once per process.
// A user that already has stored metrics is left alone. It reports whether
// this call did the seeding.
func (s *Service) InitMockData(ctx context.Context, userID string) (bool, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	s.mu.Lock()
	done := s.seeded[userID]
	s.mu.Unlock()
	if done {
		return false, nil
	}

	existing, err := s.store.Metrics(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("seed metrics for %s: %w", userID, err)
	}
	if len(existing) > 0 {
		s.markSeeded(userID)
		return false, nil
	}

	s.mu.Lock()
	metrics := GenerateMockMetrics(s.rng, s.now(), MockDays)
	s.mu.Unlock()

	for _, m := range metrics {
		if err := s.store.AppendMetric(ctx, userID, m); err != nil {
			return false, fmt.Errorf("seed metrics for %s: %w", userID, err)
		}
	}
	s.markSeeded(userID)
	s.logger.Info().Str("user_id", userID).Int("count", len(metrics)).Msg("seeded mock health data")
	return true, nil
}

func (s *Service) markSeeded(userID string) {
	s.mu.Lock()
	s.seeded[userID] = true
	s.mu.Unlock()
}

// ListMetrics returns the last days metrics for userID. days <= 0 returns
// everything.
func (s *Service) ListMetrics(ctx context.Context, userID string, days int) ([]records.HealthMetric, error) {
	metrics, err := s.metrics(ctx, userID)
	if err != nil {
		return nil, err
	}
	if days > 0 && days < len(metrics) {
		metrics = metrics[len(metrics)-days:]
	}
	return metrics, nil
}

// AddMetric appends a reading. A zero timestamp is set to now.
func (s *Service) AddMetric(ctx context.Context, userID string, m records.HealthMetric) (records.HealthMetric, error) {
	if userID == "" {
		return m, ErrMissingUserID
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = s.now().UTC()
	}
	l := s.userLock(userID)
	l.RLock()
	defer l.RUnlock()
	if err := s.store.AppendMetric(ctx, userID, m); err != nil {
		return m, err
	}
	return m, nil
}

// GetProfile returns the user's profile. When none is stored and AutoSeed is
// on, the demo profile is saved and returned; otherwise nil.
func (s *Service) GetProfile(ctx context.Context, userID string) (*records.UserProfile, error) {
	p, err := s.store.Profile(ctx, userID)
	if err != nil || p != nil || !s.opts.AutoSeed {
		return p, err
	}
	mock := MockProfile(userID)
	if err := s.store.SaveProfile(ctx, userID, mock); err != nil {
		return nil, fmt.Errorf("seed profile for %s: %w", userID, err)
	}
	return &mock, nil
}

// SaveProfile replaces the user's profile.
func (s *Service) SaveProfile(ctx context.Context, userID string, p records.UserProfile) (records.UserProfile, error) {
	if userID == "" {
		return p, ErrMissingUserID
	}
	if p.Name == "" {
		return p, ErrMissingName
	}
	p.UserID = userID
	if err := s.store.SaveProfile(ctx, userID, p); err != nil {
		return p, err
	}
	return p, nil
}

// GetSummary computes the health summary for userID.
func (s *Service) GetSummary(ctx context.Context, userID string) (*Summary, error) {
	metrics, err := s.metrics(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(metrics) == 0 {
		return nil, ErrNoHealthData
	}
	sum := Summarize(userID, metrics, s.opts.AlertMode)
	return &sum, nil
}

// Alerts returns the current alerts for userID, empty when there is no data.
func (s *Service) Alerts(ctx context.Context, userID string) ([]Alert, error) {
	metrics, err := s.readMetrics(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Alerts(metrics, s.opts.AlertMode), nil
}

// metrics reads the user's metrics, seeding first when allowed.
func (s *Service) metrics(ctx context.Context, userID string) ([]records.HealthMetric, error) {
	metrics, err := s.readMetrics(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(metrics) > 0 || !s.opts.AutoSeed {
		return metrics, nil
	}
	if _, err := s.InitMockData(ctx, userID); err != nil {
		return nil, err
	}
	return s.readMetrics(ctx, userID)
}

// readMetrics waits out any seeding in progress for userID.
func (s *Service) readMetrics(ctx context.Context, userID string) ([]records.HealthMetric, error) {
	l := s.userLock(userID)
	l.RLock()
	defer l.RUnlock()
	return s.store.Metrics(ctx, userID)
}
