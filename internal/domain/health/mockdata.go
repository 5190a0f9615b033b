package health

import (
	"math"
	"math/rand"
	"time"

	"github.com/secondopinion/companion/internal/domain/records"
)

// MockDays is how many days of vitals a seed generates.
const MockDays = 30

// GenerateMockMetrics returns one reading per day for the last days days,
// oldest first, in ranges typical for an elderly patient. Every third day is
// a higher-stress day.
func GenerateMockMetrics(rng *rand.Rand, now time.Time, days int) []records.HealthMetric {
	out := make([]records.HealthMetric, 0, days)
	for i := 0; i < days; i++ {
		m := records.HealthMetric{
			HeartRate:              between(rng, 55, 85),
			BloodPressureSystolic:  between(rng, 130, 150),
			BloodPressureDiastolic: between(rng, 80, 95),
			BloodGlucose:           float64(between(rng, 100, 160)),
			OxygenSaturation:       float64(between(rng, 94, 99)),
			BodyTemperature:        round1(37 + rng.Float64() - 0.5),
			Steps:                  between(rng, 2000, 8000),
			SleepHours:             round1(6.5 + rng.Float64()*2),
			Timestamp:              now.AddDate(0, 0, -(days - i)),
		}
		if i%3 == 0 {
			m.HeartRate = between(rng, 75, 95)
			m.BloodGlucose = float64(between(rng, 150, 180))
		}
		out = append(out, m)
	}
	return out
}

// MockProfile is the demo elderly profile served before a real one is saved.
func MockProfile(userID string) records.UserProfile {
	return records.UserProfile{
		UserID: userID,
		Name:   "Margaret Thompson",
		Age:    72,
		MedicalConditions: []string{
			"Hypertension",
			"Type 2 Diabetes (Pre-diabetic)",
			"Mild Arthritis",
			"Sleep Apnea",
		},
		Medications: []string{
			"Lisinopril 10mg daily",
			"Metformin 500mg twice daily",
			"Aspirin 81mg daily",
			"CPAP therapy at night",
		},
		Allergies:        []string{"Penicillin", "Sulfa drugs"},
		EmergencyContact: "+1-555-0102",
		LifestyleGoal:    records.GoalLongevity,
	}
}

// between returns a random int in [lo, hi].
func between(rng *rand.Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
