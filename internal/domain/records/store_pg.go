package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// PGStore persists records in PostgreSQL. Schema lives in
// migrations/001_records.sql; every child table is ordered by a
// BIGSERIAL column so reads return insertion order.
type PGStore struct {
	db queryable
}

// NewPGStore creates a Store backed by the given pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{db: pool}
}

const metricCols = `heart_rate, blood_pressure_systolic, blood_pressure_diastolic,
	blood_glucose, oxygen_saturation, body_temperature, steps, sleep_hours, recorded_at`

func (s *PGStore) AppendMetric(ctx context.Context, userID string, m HealthMetric) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO health_metrics (user_id, `+metricCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		userID, m.HeartRate, m.BloodPressureSystolic, m.BloodPressureDiastolic,
		m.BloodGlucose, m.OxygenSaturation, m.BodyTemperature, m.Steps, m.SleepHours, m.Timestamp)
	if err != nil {
		return fmt.Errorf("insert health metric: %w", err)
	}
	return nil
}

func (s *PGStore) Metrics(ctx context.Context, userID string) ([]HealthMetric, error) {
	rows, err := s.db.Query(ctx, `SELECT `+metricCols+` FROM health_metrics WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query health metrics: %w", err)
	}
	defer rows.Close()
	items := []HealthMetric{}
	for rows.Next() {
		var m HealthMetric
		if err := rows.Scan(&m.HeartRate, &m.BloodPressureSystolic, &m.BloodPressureDiastolic,
			&m.BloodGlucose, &m.OxygenSaturation, &m.BodyTemperature, &m.Steps, &m.SleepHours, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan health metric: %w", err)
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (s *PGStore) SaveProfile(ctx context.Context, userID string, p UserProfile) error {
	p = cloneProfile(p)
	_, err := s.db.Exec(ctx, `
		INSERT INTO user_profiles (user_id, name, age, medical_conditions, medications, allergies,
			emergency_contact, lifestyle_goal)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (user_id) DO UPDATE SET
			name = $2, age = $3, medical_conditions = $4, medications = $5, allergies = $6,
			emergency_contact = $7, lifestyle_goal = $8, updated_at = NOW()`,
		userID, p.Name, p.Age, p.MedicalConditions, p.Medications, p.Allergies,
		p.EmergencyContact, p.LifestyleGoal)
	if err != nil {
		return fmt.Errorf("upsert user profile: %w", err)
	}
	return nil
}

func (s *PGStore) Profile(ctx context.Context, userID string) (*UserProfile, error) {
	var p UserProfile
	err := s.db.QueryRow(ctx, `
		SELECT user_id, name, age, medical_conditions, medications, allergies, emergency_contact, lifestyle_goal
		FROM user_profiles WHERE user_id = $1`, userID).
		Scan(&p.UserID, &p.Name, &p.Age, &p.MedicalConditions, &p.Medications, &p.Allergies,
			&p.EmergencyContact, &p.LifestyleGoal)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user profile: %w", err)
	}
	p = cloneProfile(p)
	return &p, nil
}

func (s *PGStore) AppendDocument(ctx context.Context, userID string, d MedicalDocument) error {
	analysis, err := json.Marshal(d.Analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO medical_documents (document_id, user_id, document_type, file_name, blob_id, uploaded_at, analysis)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		d.DocumentID, userID, d.DocumentType, d.FileName, d.BlobID, d.UploadedAt, analysis)
	if err != nil {
		return fmt.Errorf("insert medical document: %w", err)
	}
	return nil
}

func (s *PGStore) Documents(ctx context.Context, userID string) ([]MedicalDocument, error) {
	rows, err := s.db.Query(ctx, `
		SELECT document_id, user_id, document_type, file_name, blob_id, uploaded_at, analysis
		FROM medical_documents WHERE user_id = $1 ORDER BY seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("query medical documents: %w", err)
	}
	defer rows.Close()
	items := []MedicalDocument{}
	for rows.Next() {
		var d MedicalDocument
		var analysis []byte
		if err := rows.Scan(&d.DocumentID, &d.UserID, &d.DocumentType, &d.FileName, &d.BlobID, &d.UploadedAt, &analysis); err != nil {
			return nil, fmt.Errorf("scan medical document: %w", err)
		}
		if len(analysis) > 0 {
			if err := json.Unmarshal(analysis, &d.Analysis); err != nil {
				return nil, fmt.Errorf("unmarshal analysis for %s: %w", d.DocumentID, err)
			}
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (s *PGStore) AppendGuardian(ctx context.Context, userID string, g Guardian) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO guardians (guardian_id, user_id, name, relationship, access_level, added_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		g.GuardianID, userID, g.Name, g.Relationship, g.AccessLevel, g.AddedAt)
	if err != nil {
		return fmt.Errorf("insert guardian: %w", err)
	}
	return nil
}

func (s *PGStore) Guardians(ctx context.Context, userID string) ([]Guardian, error) {
	rows, err := s.db.Query(ctx, `
		SELECT guardian_id, user_id, name, relationship, access_level, added_at
		FROM guardians WHERE user_id = $1 ORDER BY seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("query guardians: %w", err)
	}
	defer rows.Close()
	items := []Guardian{}
	for rows.Next() {
		var g Guardian
		if err := rows.Scan(&g.GuardianID, &g.UserID, &g.Name, &g.Relationship, &g.AccessLevel, &g.AddedAt); err != nil {
			return nil, fmt.Errorf("scan guardian: %w", err)
		}
		items = append(items, g)
	}
	return items, rows.Err()
}
