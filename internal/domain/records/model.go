package records

import "time"

// HealthMetric is a single vitals reading. Readings are appended in
// chronological order and never modified.
type HealthMetric struct {
	HeartRate              int       `json:"heart_rate"`
	BloodPressureSystolic  int       `json:"blood_pressure_systolic"`
	BloodPressureDiastolic int       `json:"blood_pressure_diastolic"`
	BloodGlucose           float64   `json:"blood_glucose"`
	OxygenSaturation       float64   `json:"oxygen_saturation"`
	BodyTemperature        float64   `json:"body_temperature"`
	Steps                  int       `json:"steps"`
	SleepHours             float64   `json:"sleep_hours"`
	Timestamp              time.Time `json:"timestamp"`
}

// Lifestyle goals accepted by the frontend. The value is stored as given.
const (
	GoalLongevity = "longevity"
	GoalCasual    = "casual"
	GoalActive    = "active"
)

// UserProfile is replaced wholesale on every save.
type UserProfile struct {
	UserID            string   `json:"user_id"`
	Name              string   `json:"name"`
	Age               int      `json:"age"`
	MedicalConditions []string `json:"medical_conditions"`
	Medications       []string `json:"medications"`
	Allergies         []string `json:"allergies"`
	EmergencyContact  string   `json:"emergency_contact"`
	LifestyleGoal     string   `json:"lifestyle_goal"`
}

// DocumentAnalysis holds the AI-derived view of an uploaded document.
type DocumentAnalysis struct {
	Status              string   `json:"status"`
	DocumentType        string   `json:"document_type,omitempty"`
	Summary             string   `json:"summary"`
	ExtractedConditions []string `json:"extracted_conditions"`
	KeyFindings         []string `json:"key_findings"`
}

// MedicalDocument is an uploaded file plus its analysis.
type MedicalDocument struct {
	DocumentID   string           `json:"document_id"`
	UserID       string           `json:"user_id"`
	DocumentType string           `json:"document_type"`
	FileName     string           `json:"file_name"`
	BlobID       string           `json:"blob_id,omitempty"`
	UploadedAt   time.Time        `json:"uploaded_at"`
	Analysis     DocumentAnalysis `json:"analysis"`
}

// Guardian access levels.
const (
	AccessViewAll    = "view_all"
	AccessViewAlerts = "view_alerts"
	AccessViewBasic  = "view_basic"
)

// Guardian is a family member or caregiver allowed to view a user's data.
type Guardian struct {
	GuardianID   string    `json:"guardian_id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Relationship string    `json:"relationship"`
	AccessLevel  string    `json:"access_level"`
	AddedAt      time.Time `json:"added_at"`
}
