package records

import (
	"context"
	"sync"
)

// userBucket holds every collection for one user behind its own lock.
type userBucket struct {
	mu        sync.RWMutex
	metrics   []HealthMetric
	profile   *UserProfile
	documents []MedicalDocument
	guardians []Guardian
}

// MemoryStore is a process-local Store. Data lives for the process lifetime.
type MemoryStore struct {
	mu      sync.RWMutex
	buckets map[string]*userBucket
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]*userBucket)}
}

// bucket returns the user's bucket, creating it when create is true.
// A nil return means the user has never been written.
func (s *MemoryStore) bucket(userID string, create bool) *userBucket {
	s.mu.RLock()
	b, ok := s.buckets[userID]
	s.mu.RUnlock()
	if ok || !create {
		return b
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Double-check after acquiring write lock
	if b, ok := s.buckets[userID]; ok {
		return b
	}
	b = &userBucket{}
	s.buckets[userID] = b
	return b
}

func (s *MemoryStore) AppendMetric(_ context.Context, userID string, m HealthMetric) error {
	b := s.bucket(userID, true)
	b.mu.Lock()
	b.metrics = append(b.metrics, m)
	b.mu.Unlock()
	return nil
}

func (s *MemoryStore) Metrics(_ context.Context, userID string) ([]HealthMetric, error) {
	b := s.bucket(userID, false)
	if b == nil {
		return []HealthMetric{}, nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]HealthMetric, len(b.metrics))
	copy(out, b.metrics)
	return out, nil
}

func (s *MemoryStore) SaveProfile(_ context.Context, userID string, p UserProfile) error {
	p = cloneProfile(p)
	b := s.bucket(userID, true)
	b.mu.Lock()
	b.profile = &p
	b.mu.Unlock()
	return nil
}

func (s *MemoryStore) Profile(_ context.Context, userID string) (*UserProfile, error) {
	b := s.bucket(userID, false)
	if b == nil {
		return nil, nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.profile == nil {
		return nil, nil
	}
	p := cloneProfile(*b.profile)
	return &p, nil
}

func (s *MemoryStore) AppendDocument(_ context.Context, userID string, d MedicalDocument) error {
	b := s.bucket(userID, true)
	b.mu.Lock()
	b.documents = append(b.documents, d)
	b.mu.Unlock()
	return nil
}

func (s *MemoryStore) Documents(_ context.Context, userID string) ([]MedicalDocument, error) {
	b := s.bucket(userID, false)
	if b == nil {
		return []MedicalDocument{}, nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]MedicalDocument, len(b.documents))
	copy(out, b.documents)
	return out, nil
}

func (s *MemoryStore) AppendGuardian(_ context.Context, userID string, g Guardian) error {
	b := s.bucket(userID, true)
	b.mu.Lock()
	b.guardians = append(b.guardians, g)
	b.mu.Unlock()
	return nil
}

func (s *MemoryStore) Guardians(_ context.Context, userID string) ([]Guardian, error) {
	b := s.bucket(userID, false)
	if b == nil {
		return []Guardian{}, nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Guardian, len(b.guardians))
	copy(out, b.guardians)
	return out, nil
}

func cloneProfile(p UserProfile) UserProfile {
	p.MedicalConditions = cloneStrings(p.MedicalConditions)
	p.Medications = cloneStrings(p.Medications)
	p.Allergies = cloneStrings(p.Allergies)
	return p
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
