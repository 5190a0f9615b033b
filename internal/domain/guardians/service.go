package guardians

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/secondopinion/companion/internal/domain/health"
	"github.com/secondopinion/companion/internal/domain/records"
)

var (
	ErrGuardianNotAuthorized = errors.New("guardian not authorized")
	ErrUnknownAccessLevel    = errors.New("unknown access level")
	ErrMissingName           = errors.New("guardian_name is required")
	ErrMissingRelationship   = errors.New("relationship is required")
)

// RecentMetricCount is how many readings a view_all guardian sees.
const RecentMetricCount = 7

// BasicStatus is reported to view_basic guardians. It is a fixed value, not
// derived from the user's readings.
const BasicStatus = "okay"

// NotAvailable stands in for profile fields when the user has no profile.
const NotAvailable = "N/A"

// AlertTypes are the notifications a guardian can subscribe to.
var AlertTypes = []string{"high_blood_pressure", "low_oxygen", "abnormal_glucose", "fall_detection"}

// AlertSource computes a user's current health alerts.
type AlertSource interface {
	Alerts(ctx context.Context, userID string) ([]health.Alert, error)
}

// AddRequest is the input for registering a guardian.
type AddRequest struct {
	Name         string
	Relationship string
	AccessLevel  string
}

// BasicInfo is the reduced view given to view_basic guardians. Name and Age
// hold NotAvailable when the user has no profile.
type BasicInfo struct {
	Name   interface{} `json:"name"`
	Age    interface{} `json:"age"`
	Status string      `json:"status"`
}

// View is what a guardian may see of a user, shaped by access level. Only
// the fields for the guardian's level are populated.
type View struct {
	Guardian      records.Guardian
	Profile       *records.UserProfile
	RecentMetrics []records.HealthMetric
	Alerts        []health.Alert
	BasicInfo     *BasicInfo
}

// Service manages guardians and their scoped views of a user's data.
type Service struct {
	store  records.Store
	alerts AlertSource
	newID  records.IDGenerator
	logger zerolog.Logger
	now    func() time.Time
}

// NewService creates a new guardians service.
func NewService(store records.Store, alerts AlertSource, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		alerts: alerts,
		newID:  records.NewID,
		logger: logger,
		now:    time.Now,
	}
}

// ValidAccessLevel reports whether level is one of the known access levels.
func ValidAccessLevel(level string) bool {
	switch level {
	case records.AccessViewAll, records.AccessViewAlerts, records.AccessViewBasic:
		return true
	}
	return false
}

// Add registers a guardian for userID. An empty access level means
// view_all.
func (s *Service) Add(ctx context.Context, userID string, req AddRequest) (*records.Guardian, error) {
	if req.Name == "" {
		return nil, ErrMissingName
	}
	if req.Relationship == "" {
		return nil, ErrMissingRelationship
	}
	if req.AccessLevel == "" {
		req.AccessLevel = records.AccessViewAll
	}
	if !ValidAccessLevel(req.AccessLevel) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAccessLevel, req.AccessLevel)
	}

	g := records.Guardian{
		GuardianID:   s.newID("guardian"),
		UserID:       userID,
		Name:         req.Name,
		Relationship: req.Relationship,
		AccessLevel:  req.AccessLevel,
		AddedAt:      s.now().UTC(),
	}
	if err := s.store.AppendGuardian(ctx, userID, g); err != nil {
		return nil, fmt.Errorf("append guardian: %w", err)
	}
	s.logger.Info().Str("user_id", userID).Str("guardian_id", g.GuardianID).
		Str("access_level", g.AccessLevel).Msg("guardian added")
	return &g, nil
}

// List returns the user's guardians in the order they were added.
func (s *Service) List(ctx context.Context, userID string) ([]records.Guardian, error) {
	gs, err := s.store.Guardians(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list guardians: %w", err)
	}
	return gs, nil
}

func (s *Service) find(ctx context.Context, userID, guardianID string) (*records.Guardian, error) {
	gs, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range gs {
		if gs[i].GuardianID == guardianID {
			return &gs[i], nil
		}
	}
	return nil, ErrGuardianNotAuthorized
}

// View returns the slice of userID's data that guardianID may see.
func (s *Service) View(ctx context.Context, userID, guardianID string) (*View, error) {
	g, err := s.find(ctx, userID, guardianID)
	if err != nil {
		return nil, err
	}
	v := &View{Guardian: *g}

	switch g.AccessLevel {
	case records.AccessViewAll:
		profile, err := s.store.Profile(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("load profile: %w", err)
		}
		metrics, err := s.store.Metrics(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("load metrics: %w", err)
		}
		if len(metrics) > RecentMetricCount {
			metrics = metrics[len(metrics)-RecentMetricCount:]
		}
		v.Profile = profile
		v.RecentMetrics = metrics
		v.Alerts = []health.Alert{}

	case records.AccessViewAlerts:
		alerts, err := s.alerts.Alerts(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("load alerts: %w", err)
		}
		v.Alerts = alerts

	case records.AccessViewBasic:
		profile, err := s.store.Profile(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("load profile: %w", err)
		}
		info := &BasicInfo{Name: NotAvailable, Age: NotAvailable, Status: BasicStatus}
		if profile != nil {
			info.Name = profile.Name
			info.Age = profile.Age
		}
		v.BasicInfo = info

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAccessLevel, g.AccessLevel)
	}
	return v, nil
}

// EnableAlerts turns on guardian notifications for userID. When guardianID
// is set it must belong to the user.
func (s *Service) EnableAlerts(ctx context.Context, userID, guardianID string) ([]string, error) {
	if guardianID != "" {
		if _, err := s.find(ctx, userID, guardianID); err != nil {
			return nil, err
		}
	}
	out := make([]string, len(AlertTypes))
	copy(out, AlertTypes)
	return out, nil
}
