package records

import "context"

// Store is the per-user record store. Reads for a user that was never
// written return an empty slice (or a nil profile) and no error; errors are
// reserved for backend faults.
type Store interface {
	AppendMetric(ctx context.Context, userID string, m HealthMetric) error
	Metrics(ctx context.Context, userID string) ([]HealthMetric, error)

	SaveProfile(ctx context.Context, userID string, p UserProfile) error
	Profile(ctx context.Context, userID string) (*UserProfile, error)

	AppendDocument(ctx context.Context, userID string, d MedicalDocument) error
	Documents(ctx context.Context, userID string) ([]MedicalDocument, error)

	AppendGuardian(ctx context.Context, userID string, g Guardian) error
	Guardians(ctx context.Context, userID string) ([]Guardian, error)
}
