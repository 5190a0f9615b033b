package health

import (
	"fmt"
	"math"
	"time"

	"github.com/secondopinion/companion/internal/domain/records"
)

// WeeklyWindow is the number of trailing readings averaged for a summary.
const WeeklyWindow = 7

// AlertMode selects how summary alerts are produced.
type AlertMode string

const (
	// AlertModeAlways emits the blood pressure and glucose alerts on every
	// summary, whatever the readings are.
	AlertModeAlways AlertMode = "always"
	// AlertModeThreshold emits alerts only when weekly averages cross
	// BP >150/100, O2 <94% or glucose outside [70, 200].
	AlertModeThreshold AlertMode = "threshold"
)

// ParseAlertMode validates a configured alert mode. Empty means always.
func ParseAlertMode(s string) (AlertMode, error) {
	switch AlertMode(s) {
	case "", AlertModeAlways:
		return AlertModeAlways, nil
	case AlertModeThreshold:
		return AlertModeThreshold, nil
	}
	return "", fmt.Errorf("alert mode must be %q or %q, got %q", AlertModeAlways, AlertModeThreshold, s)
}

// Thresholds used in AlertModeThreshold.
const (
	SystolicLimit  = 150
	DiastolicLimit = 100
	OxygenFloor    = 94
	GlucoseFloor   = 70
	GlucoseCeiling = 200
)

// Field extracts one numeric reading from a metric.
type Field func(m records.HealthMetric) float64

var (
	HeartRate              Field = func(m records.HealthMetric) float64 { return float64(m.HeartRate) }
	BloodPressureSystolic  Field = func(m records.HealthMetric) float64 { return float64(m.BloodPressureSystolic) }
	BloodPressureDiastolic Field = func(m records.HealthMetric) float64 { return float64(m.BloodPressureDiastolic) }
	BloodGlucose           Field = func(m records.HealthMetric) float64 { return m.BloodGlucose }
	OxygenSaturation       Field = func(m records.HealthMetric) float64 { return m.OxygenSaturation }
)

// TrailingAverage returns the mean of field over the last min(window, len)
// metrics. It returns 0 for an empty slice.
func TrailingAverage(metrics []records.HealthMetric, window int, field Field) float64 {
	n := len(metrics)
	if window < n {
		n = window
	}
	if n <= 0 {
		return 0
	}
	var sum float64
	for _, m := range metrics[len(metrics)-n:] {
		sum += field(m)
	}
	return sum / float64(n)
}

// WeeklyAverages are trailing averages rounded to the nearest integer.
type WeeklyAverages struct {
	HeartRate              int `json:"heart_rate"`
	BloodPressureSystolic  int `json:"blood_pressure_systolic"`
	BloodPressureDiastolic int `json:"blood_pressure_diastolic"`
	BloodGlucose           int `json:"blood_glucose"`
}

// Alert is a templated health notice.
type Alert struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// Summary is the health overview for one user.
type Summary struct {
	UserID         string               `json:"user_id"`
	LastUpdated    time.Time            `json:"last_updated"`
	LatestMetrics  records.HealthMetric `json:"latest_metrics"`
	WeeklyAverages WeeklyAverages       `json:"weekly_averages"`
	Alerts         []Alert              `json:"alerts"`
}

// Summarize computes the summary for a non-empty metric sequence. Calling it
// with no metrics is a programming error.
func Summarize(userID string, metrics []records.HealthMetric, mode AlertMode) Summary {
	if len(metrics) == 0 {
		panic("health: Summarize called with no metrics")
	}
	latest := metrics[len(metrics)-1]
	return Summary{
		UserID:        userID,
		LastUpdated:   latest.Timestamp,
		LatestMetrics: latest,
		WeeklyAverages: WeeklyAverages{
			HeartRate:              round(TrailingAverage(metrics, WeeklyWindow, HeartRate)),
			BloodPressureSystolic:  round(TrailingAverage(metrics, WeeklyWindow, BloodPressureSystolic)),
			BloodPressureDiastolic: round(TrailingAverage(metrics, WeeklyWindow, BloodPressureDiastolic)),
			BloodGlucose:           round(TrailingAverage(metrics, WeeklyWindow, BloodGlucose)),
		},
		Alerts: Alerts(metrics, mode),
	}
}

// Alerts derives alerts from the weekly averages. It returns an empty slice
// when there are no metrics.
func Alerts(metrics []records.HealthMetric, mode AlertMode) []Alert {
	alerts := []Alert{}
	if len(metrics) == 0 {
		return alerts
	}

	sys := TrailingAverage(metrics, WeeklyWindow, BloodPressureSystolic)
	dia := TrailingAverage(metrics, WeeklyWindow, BloodPressureDiastolic)
	glu := TrailingAverage(metrics, WeeklyWindow, BloodGlucose)
	o2 := TrailingAverage(metrics, WeeklyWindow, OxygenSaturation)
	gated := mode == AlertModeThreshold

	if !gated || sys > SystolicLimit || dia > DiastolicLimit {
		alerts = append(alerts, Alert{
			Type:     "high_blood_pressure",
			Severity: "warning",
			Message:  fmt.Sprintf("Recent BP readings averaging %d/%d mmHg - consider consulting physician", round(sys), round(dia)),
		})
	}
	if gated && o2 < OxygenFloor {
		alerts = append(alerts, Alert{
			Type:     "low_oxygen",
			Severity: "warning",
			Message:  fmt.Sprintf("Recent oxygen saturation averaging %d%% - consider consulting physician", round(o2)),
		})
	}
	if !gated || glu < GlucoseFloor || glu > GlucoseCeiling {
		alerts = append(alerts, Alert{
			Type:     "pre_diabetes",
			Severity: "info",
			Message:  fmt.Sprintf("Average glucose %d mg/dL - maintain healthy diet and exercise", round(glu)),
		})
	}
	return alerts
}

func round(v float64) int {
	return int(math.Round(v))
}
