package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/secondopinion/companion/internal/domain/records"
	"github.com/secondopinion/companion/internal/platform/llm"
)

// PhysicianRecommendation is attached when a reply recommends or suggests
// something.
const PhysicianRecommendation = "Consider consulting your physician for professional medical advice"

// NoInsights is returned when a user lacks a profile or vitals.
const NoInsights = "No data available yet"

var (
	ErrMissingUserID = errors.New("user_id is required")
	ErrEmptyMessage  = errors.New("message is required")
)

// Completer answers a user message given a patient context.
type Completer interface {
	Complete(ctx context.Context, patientContext, userMessage string) llm.Result
}

// MedicalContext echoes the profile lists the reply was grounded on.
type MedicalContext struct {
	UserConditions  []string `json:"user_conditions"`
	UserMedications []string `json:"user_medications"`
}

// Reply is the answer to one chat message.
type Reply struct {
	Response        string         `json:"response"`
	AIStatus        string         `json:"ai_status"`
	MedicalContext  MedicalContext `json:"medical_context"`
	Recommendations []string       `json:"recommendations"`
	Timestamp       time.Time      `json:"timestamp"`
}

// Insights is the daily insight for one user.
type Insights struct {
	UserID          string     `json:"user_id,omitempty"`
	Insights        string     `json:"insights"`
	AIStatus        string     `json:"ai_status,omitempty"`
	Recommendations []string   `json:"recommendations,omitempty"`
	GeneratedAt     *time.Time `json:"generated_at,omitempty"`
}

// Service forwards user messages to the completion gateway with the user's
// health context.
type Service struct {
	store  records.Store
	ai     Completer
	logger zerolog.Logger
	now    func() time.Time
}

// NewService creates a new chat service.
func NewService(store records.Store, ai Completer, logger zerolog.Logger) *Service {
	return &Service{store: store, ai: ai, logger: logger, now: time.Now}
}

// Send answers message for userID.
func (s *Service) Send(ctx context.Context, userID, message string) (*Reply, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	profile, metrics, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	res := s.ai.Complete(ctx, BuildPatientContext(profile, metrics), message)
	if res.Degraded() {
		s.logger.Warn().Err(res.Err).Str("user_id", userID).Str("ai_status", res.Outcome.String()).Msg("chat reply degraded")
	}

	reply := &Reply{
		Response:        res.Reply(),
		AIStatus:        res.Outcome.String(),
		MedicalContext:  MedicalContext{UserConditions: []string{}, UserMedications: []string{}},
		Recommendations: Recommendations(res.Reply()),
		Timestamp:       s.now().UTC(),
	}
	if profile != nil {
		reply.MedicalContext.UserConditions = profile.MedicalConditions
		reply.MedicalContext.UserMedications = profile.Medications
	}
	return reply, nil
}

// HealthInsights asks the model for today's recommendations for userID.
func (s *Service) HealthInsights(ctx context.Context, userID string) (*Insights, error) {
	profile, metrics, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil || len(metrics) == 0 {
		return &Insights{Insights: NoInsights, Recommendations: []string{}}, nil
	}

	prompt := InsightPrompt(*profile, metrics[len(metrics)-1])
	res := s.ai.Complete(ctx, "Generate brief health insights for "+profile.Name, prompt)
	if res.Degraded() {
		s.logger.Warn().Err(res.Err).Str("user_id", userID).Str("ai_status", res.Outcome.String()).Msg("health insights degraded")
	}
	now := s.now().UTC()
	return &Insights{
		UserID:      userID,
		Insights:    res.Reply(),
		AIStatus:    res.Outcome.String(),
		GeneratedAt: &now,
	}, nil
}

// Recommendations returns the canned physician recommendation when the reply
// mentions recommending or suggesting.
func Recommendations(reply string) []string {
	lower := strings.ToLower(reply)
	if strings.Contains(lower, "recommend") || strings.Contains(lower, "suggest") {
		return []string{PhysicianRecommendation}
	}
	return []string{}
}

func (s *Service) load(ctx context.Context, userID string) (*records.UserProfile, []records.HealthMetric, error) {
	profile, err := s.store.Profile(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load profile: %w", err)
	}
	metrics, err := s.store.Metrics(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load metrics: %w", err)
	}
	return profile, metrics, nil
}
