package records

import (
	"context"
	"reflect"
	"testing"
	"time"
)

// testStoreContract runs the behavior every Store backend must share.
// newStore may return a store with data from earlier runs; each case works
// on fresh user IDs.
func testStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()
	at := func(min int) time.Time {
		return time.Date(2024, 3, 1, 8, min, 0, 0, time.UTC)
	}

	t.Run("UnknownUserReadsAreEmpty", func(t *testing.T) {
		s := newStore(t)
		user := NewID("user")

		metrics, err := s.Metrics(ctx, user)
		if err != nil || metrics == nil || len(metrics) != 0 {
			t.Errorf("Metrics = %#v (err %v), want empty non-nil", metrics, err)
		}
		docs, err := s.Documents(ctx, user)
		if err != nil || docs == nil || len(docs) != 0 {
			t.Errorf("Documents = %#v (err %v), want empty non-nil", docs, err)
		}
		guardians, err := s.Guardians(ctx, user)
		if err != nil || guardians == nil || len(guardians) != 0 {
			t.Errorf("Guardians = %#v (err %v), want empty non-nil", guardians, err)
		}
		p, err := s.Profile(ctx, user)
		if err != nil || p != nil {
			t.Errorf("Profile = %+v (err %v), want nil", p, err)
		}
	})

	t.Run("MetricsKeepAppendOrder", func(t *testing.T) {
		s := newStore(t)
		user := NewID("user")
		want := []HealthMetric{
			{HeartRate: 71, BloodPressureSystolic: 128, BloodPressureDiastolic: 82, BloodGlucose: 104.5,
				OxygenSaturation: 97.2, BodyTemperature: 98.4, Steps: 3200, SleepHours: 6.5, Timestamp: at(0)},
			{HeartRate: 74, BloodPressureSystolic: 141, BloodPressureDiastolic: 91, BloodGlucose: 131,
				OxygenSaturation: 94.8, BodyTemperature: 98.9, Steps: 1500, SleepHours: 7.25, Timestamp: at(1)},
			{HeartRate: 68, BloodPressureSystolic: 119, BloodPressureDiastolic: 77, BloodGlucose: 96.1,
				OxygenSaturation: 98, BodyTemperature: 97.9, Steps: 5400, SleepHours: 8, Timestamp: at(2)},
		}
		for _, m := range want {
			if err := s.AppendMetric(ctx, user, m); err != nil {
				t.Fatalf("AppendMetric: %v", err)
			}
		}

		got, err := s.Metrics(ctx, user)
		if err != nil {
			t.Fatalf("Metrics: %v", err)
		}
		for i := range got {
			got[i].Timestamp = got[i].Timestamp.UTC()
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Metrics = %+v, want %+v", got, want)
		}
	})

	t.Run("GuardiansKeepAppendOrder", func(t *testing.T) {
		s := newStore(t)
		user := NewID("user")
		want := []Guardian{
			{GuardianID: NewID("guardian"), UserID: user, Name: "Ana", Relationship: "daughter",
				AccessLevel: AccessViewAll, AddedAt: at(5)},
			{GuardianID: NewID("guardian"), UserID: user, Name: "Tom", Relationship: "neighbor",
				AccessLevel: AccessViewBasic, AddedAt: at(6)},
		}
		for _, g := range want {
			if err := s.AppendGuardian(ctx, user, g); err != nil {
				t.Fatalf("AppendGuardian: %v", err)
			}
		}

		got, err := s.Guardians(ctx, user)
		if err != nil {
			t.Fatalf("Guardians: %v", err)
		}
		for i := range got {
			got[i].AddedAt = got[i].AddedAt.UTC()
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Guardians = %+v, want %+v", got, want)
		}
	})

	t.Run("DocumentsRoundTripAnalysis", func(t *testing.T) {
		s := newStore(t)
		user := NewID("user")
		want := []MedicalDocument{
			{
				DocumentID: NewID("doc"), UserID: user, DocumentType: "medical_document",
				FileName: "bloodwork.pdf", BlobID: "blob-1", UploadedAt: at(10),
				Analysis: DocumentAnalysis{
					Status:              "analyzed",
					DocumentType:        "lab_report",
					Summary:             "Mild anemia.",
					ExtractedConditions: []string{"Anemia"},
					KeyFindings:         []string{"Hemoglobin 11.2"},
				},
			},
			{
				DocumentID: NewID("doc"), UserID: user, DocumentType: "medical_document",
				FileName: "xray.png", BlobID: "blob-2", UploadedAt: at(11),
				Analysis: DocumentAnalysis{
					Status:              "analyzed",
					Summary:             "No acute findings.",
					ExtractedConditions: []string{"Arthritis", "Osteoporosis"},
					KeyFindings:         []string{"Joint space narrowing"},
				},
			},
		}
		for _, d := range want {
			if err := s.AppendDocument(ctx, user, d); err != nil {
				t.Fatalf("AppendDocument: %v", err)
			}
		}

		got, err := s.Documents(ctx, user)
		if err != nil {
			t.Fatalf("Documents: %v", err)
		}
		for i := range got {
			got[i].UploadedAt = got[i].UploadedAt.UTC()
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Documents = %+v, want %+v", got, want)
		}
	})

	t.Run("UsersAreIsolated", func(t *testing.T) {
		s := newStore(t)
		a, b := NewID("user"), NewID("user")
		if err := s.AppendMetric(ctx, a, HealthMetric{HeartRate: 60, Timestamp: at(0)}); err != nil {
			t.Fatal(err)
		}
		if err := s.AppendGuardian(ctx, a, Guardian{GuardianID: NewID("guardian"), UserID: a, Name: "Ana", AddedAt: at(0)}); err != nil {
			t.Fatal(err)
		}
		if err := s.SaveProfile(ctx, a, UserProfile{UserID: a, Name: "Margaret", Age: 72}); err != nil {
			t.Fatal(err)
		}

		if got, _ := s.Metrics(ctx, b); len(got) != 0 {
			t.Errorf("user b sees %d metrics", len(got))
		}
		if got, _ := s.Guardians(ctx, b); len(got) != 0 {
			t.Errorf("user b sees %d guardians", len(got))
		}
		if p, _ := s.Profile(ctx, b); p != nil {
			t.Errorf("user b sees profile %+v", p)
		}
		if got, _ := s.Metrics(ctx, a); len(got) != 1 {
			t.Errorf("user a has %d metrics, want 1", len(got))
		}
	})

	t.Run("SaveProfileReplacesWholesale", func(t *testing.T) {
		s := newStore(t)
		user := NewID("user")
		first := UserProfile{
			UserID: user, Name: "Margaret", Age: 72,
			MedicalConditions: []string{"Hypertension"},
			Medications:       []string{"Lisinopril 10mg", "Aspirin"},
			Allergies:         []string{"Penicillin"},
			EmergencyContact:  "Ana 555-0100",
			LifestyleGoal:     GoalLongevity,
		}
		if err := s.SaveProfile(ctx, user, first); err != nil {
			t.Fatalf("SaveProfile: %v", err)
		}
		got, err := s.Profile(ctx, user)
		if err != nil || got == nil {
			t.Fatalf("Profile = %v (err %v)", got, err)
		}
		if !reflect.DeepEqual(*got, first) {
			t.Errorf("Profile = %+v, want %+v", *got, first)
		}

		// Nil lists in the replacement read back empty, not as the old values.
		if err := s.SaveProfile(ctx, user, UserProfile{UserID: user, Name: "Margaret T.", Age: 73}); err != nil {
			t.Fatalf("SaveProfile: %v", err)
		}
		got, err = s.Profile(ctx, user)
		if err != nil || got == nil {
			t.Fatalf("Profile = %v (err %v)", got, err)
		}
		want := UserProfile{
			UserID: user, Name: "Margaret T.", Age: 73,
			MedicalConditions: []string{}, Medications: []string{}, Allergies: []string{},
		}
		if !reflect.DeepEqual(*got, want) {
			t.Errorf("Profile = %#v, want %#v", *got, want)
		}
	})

	t.Run("ReadsDoNotAliasStorage", func(t *testing.T) {
		s := newStore(t)
		user := NewID("user")
		if err := s.SaveProfile(ctx, user, UserProfile{UserID: user, Name: "Margaret", Allergies: []string{"Penicillin"}}); err != nil {
			t.Fatal(err)
		}
		p, _ := s.Profile(ctx, user)
		p.Allergies[0] = "changed"

		again, _ := s.Profile(ctx, user)
		if again.Allergies[0] != "Penicillin" {
			t.Errorf("stored profile mutated through a read: %v", again.Allergies)
		}
	})
}

func TestMemoryStore_Contract(t *testing.T) {
	testStoreContract(t, func(*testing.T) Store { return NewMemoryStore() })
}
