package chat

import (
	"strconv"
	"strings"

	"github.com/secondopinion/companion/internal/domain/records"
)

// BuildPatientContext renders the profile and latest vitals into the block
// interpolated into the system prompt. The output depends only on its
// arguments.
func BuildPatientContext(profile *records.UserProfile, metrics []records.HealthMetric) string {
	name, age := "Patient", "unknown"
	var conditions, medications, allergies []string
	if profile != nil {
		name = profile.Name
		age = strconv.Itoa(profile.Age)
		conditions = profile.MedicalConditions
		medications = profile.Medications
		allergies = profile.Allergies
	}

	var b strings.Builder
	b.WriteString("User: " + name + " (Age: " + age + ")\n")
	b.WriteString("Medical Conditions: " + strings.Join(conditions, ", ") + "\n")
	b.WriteString("Current Medications: " + strings.Join(medications, ", ") + "\n")
	b.WriteString("Allergies: " + strings.Join(allergies, ", ") + "\n")

	if len(metrics) > 0 {
		latest := metrics[len(metrics)-1]
		b.WriteString("\nRecent Vital Signs:\n")
		b.WriteString("- Heart Rate: " + strconv.Itoa(latest.HeartRate) + " bpm\n")
		b.WriteString("- Blood Pressure: " + strconv.Itoa(latest.BloodPressureSystolic) + "/" +
			strconv.Itoa(latest.BloodPressureDiastolic) + " mmHg\n")
		b.WriteString("- Blood Glucose: " + formatFloat(latest.BloodGlucose) + " mg/dL\n")
		b.WriteString("- Oxygen Saturation: " + formatFloat(latest.OxygenSaturation) + "%\n")
		b.WriteString("- Body Temperature: " + formatFloat(latest.BodyTemperature) + "°C\n")
		b.WriteString("- Steps Today: " + strconv.Itoa(latest.Steps) + "\n")
		b.WriteString("- Sleep Last Night: " + formatFloat(latest.SleepHours) + " hours\n")
	}
	return b.String()
}

// InsightPrompt asks for today's recommendations given conditions and the
// latest reading.
func InsightPrompt(profile records.UserProfile, latest records.HealthMetric) string {
	return "Based on a patient with " + strings.Join(profile.MedicalConditions, ", ") +
		", recent vitals showing BP " + strconv.Itoa(latest.BloodPressureSystolic) + "/" +
		strconv.Itoa(latest.BloodPressureDiastolic) +
		" and glucose " + formatFloat(latest.BloodGlucose) +
		", what are key health recommendations for today?"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
