package health

import (
	"strings"
	"testing"
	"time"

	"github.com/secondopinion/companion/internal/domain/records"
)

func metricsWithHeartRates(rates ...int) []records.HealthMetric {
	out := make([]records.HealthMetric, len(rates))
	for i, r := range rates {
		out[i] = records.HealthMetric{HeartRate: r}
	}
	return out
}

func TestTrailingAverage_FewerThanWindow(t *testing.T) {
	got := TrailingAverage(metricsWithHeartRates(60, 70, 80), WeeklyWindow, HeartRate)
	if got != 70 {
		t.Errorf("expected 70, got %v", got)
	}
}

func TestTrailingAverage_UsesLastWindowEntries(t *testing.T) {
	// first two entries fall outside the 7-entry window
	m := metricsWithHeartRates(1000, 1000, 70, 70, 70, 70, 70, 70, 84)
	got := TrailingAverage(m, WeeklyWindow, HeartRate)
	if got != 72 {
		t.Errorf("expected 72, got %v", got)
	}
}

func TestTrailingAverage_Empty(t *testing.T) {
	if got := TrailingAverage(nil, WeeklyWindow, HeartRate); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}

func TestSummarize_LatestAndAverages(t *testing.T) {
	ts := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	metrics := []records.HealthMetric{
		{HeartRate: 60, BloodPressureSystolic: 130, BloodPressureDiastolic: 80, BloodGlucose: 100},
		{HeartRate: 71, BloodPressureSystolic: 141, BloodPressureDiastolic: 85, BloodGlucose: 120.5, Timestamp: ts},
	}
	sum := Summarize("u1", metrics, AlertModeAlways)

	if sum.UserID != "u1" {
		t.Errorf("expected user u1, got %s", sum.UserID)
	}
	if sum.LatestMetrics != metrics[1] {
		t.Errorf("expected latest metric to be the last entry")
	}
	if !sum.LastUpdated.Equal(ts) {
		t.Errorf("expected last_updated %v, got %v", ts, sum.LastUpdated)
	}
	want := WeeklyAverages{HeartRate: 66, BloodPressureSystolic: 136, BloodPressureDiastolic: 83, BloodGlucose: 110}
	if sum.WeeklyAverages != want {
		t.Errorf("expected %+v, got %+v", want, sum.WeeklyAverages)
	}
}

func TestSummarize_AlwaysModeEmitsBothAlerts(t *testing.T) {
	metrics := []records.HealthMetric{
		{BloodPressureSystolic: 110, BloodPressureDiastolic: 70, BloodGlucose: 90, OxygenSaturation: 98},
	}
	sum := Summarize("u1", metrics, AlertModeAlways)
	if len(sum.Alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(sum.Alerts))
	}
	bp, glu := sum.Alerts[0], sum.Alerts[1]
	if bp.Type != "high_blood_pressure" || bp.Severity != "warning" {
		t.Errorf("unexpected bp alert %+v", bp)
	}
	if bp.Message != "Recent BP readings averaging 110/70 mmHg - consider consulting physician" {
		t.Errorf("unexpected bp message %q", bp.Message)
	}
	if glu.Type != "pre_diabetes" || glu.Severity != "info" {
		t.Errorf("unexpected glucose alert %+v", glu)
	}
	if glu.Message != "Average glucose 90 mg/dL - maintain healthy diet and exercise" {
		t.Errorf("unexpected glucose message %q", glu.Message)
	}
}

func TestAlerts_ThresholdMode(t *testing.T) {
	tests := []struct {
		name  string
		m     records.HealthMetric
		types []string
	}{
		{"normal", records.HealthMetric{BloodPressureSystolic: 120, BloodPressureDiastolic: 80, BloodGlucose: 110, OxygenSaturation: 97}, nil},
		{"high systolic", records.HealthMetric{BloodPressureSystolic: 151, BloodPressureDiastolic: 80, BloodGlucose: 110, OxygenSaturation: 97}, []string{"high_blood_pressure"}},
		{"high diastolic", records.HealthMetric{BloodPressureSystolic: 140, BloodPressureDiastolic: 101, BloodGlucose: 110, OxygenSaturation: 97}, []string{"high_blood_pressure"}},
		{"boundary bp", records.HealthMetric{BloodPressureSystolic: 150, BloodPressureDiastolic: 100, BloodGlucose: 110, OxygenSaturation: 97}, nil},
		{"low oxygen", records.HealthMetric{BloodPressureSystolic: 120, BloodPressureDiastolic: 80, BloodGlucose: 110, OxygenSaturation: 92}, []string{"low_oxygen"}},
		{"high glucose", records.HealthMetric{BloodPressureSystolic: 120, BloodPressureDiastolic: 80, BloodGlucose: 201, OxygenSaturation: 97}, []string{"pre_diabetes"}},
		{"low glucose", records.HealthMetric{BloodPressureSystolic: 120, BloodPressureDiastolic: 80, BloodGlucose: 65, OxygenSaturation: 97}, []string{"pre_diabetes"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := Alerts([]records.HealthMetric{tt.m}, AlertModeThreshold)
			if len(alerts) != len(tt.types) {
				t.Fatalf("expected %d alerts, got %+v", len(tt.types), alerts)
			}
			for i, typ := range tt.types {
				if alerts[i].Type != typ {
					t.Errorf("alert %d: expected %s, got %s", i, typ, alerts[i].Type)
				}
			}
		})
	}
}

func TestAlerts_LowOxygenMessage(t *testing.T) {
	alerts := Alerts([]records.HealthMetric{{OxygenSaturation: 91.6, BloodGlucose: 100, BloodPressureSystolic: 120}}, AlertModeThreshold)
	if len(alerts) != 1 || !strings.Contains(alerts[0].Message, "92%") {
		t.Errorf("unexpected alerts %+v", alerts)
	}
}

func TestAlerts_NoMetrics(t *testing.T) {
	alerts := Alerts(nil, AlertModeAlways)
	if alerts == nil || len(alerts) != 0 {
		t.Errorf("expected empty non-nil alerts, got %#v", alerts)
	}
}

func TestSummarize_PanicsOnEmpty(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for empty metrics")
		}
	}()
	Summarize("u1", nil, AlertModeAlways)
}

func TestParseAlertMode(t *testing.T) {
	tests := []struct {
		in      string
		want    AlertMode
		wantErr bool
	}{
		{"", AlertModeAlways, false},
		{"always", AlertModeAlways, false},
		{"threshold", AlertModeThreshold, false},
		{"sometimes", "", true},
	}
	for _, tt := range tests {
		got, err := ParseAlertMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAlertMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseAlertMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
