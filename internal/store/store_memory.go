package store

import (
	"context"
	"sort"
	"sync"

	"credledger/internal/models"
)

// In-memory stores used by tests and local development. Same contracts as the
// gorm-backed ones, including the unique-insert rules.

type InMemoryCredentialStore struct {
	mu    sync.RWMutex
	creds map[string]models.Credential
}

func NewInMemoryCredentialStore() *InMemoryCredentialStore {
	return &InMemoryCredentialStore{creds: make(map[string]models.Credential)}
}

func (s *InMemoryCredentialStore) Put(_ context.Context, cred models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred.Fingerprint = NormalizeFingerprint(cred.Fingerprint)
	s.creds[cred.Fingerprint] = cred
	return nil
}

func (s *InMemoryCredentialStore) Get(_ context.Context, fingerprint string) (models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cred, ok := s.creds[NormalizeFingerprint(fingerprint)]; ok {
		return cred, nil
	}
	return models.Credential{}, ErrNotFound
}

func (s *InMemoryCredentialStore) List(_ context.Context) ([]models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Credential, 0, len(s.creds))
	for _, cred := range s.creds {
		out = append(out, cred)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Fingerprint < out[j].Fingerprint })
	return out, nil
}

func (s *InMemoryCredentialStore) FindByEnrollment(_ context.Context, enrollment string) ([]models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Credential
	for _, cred := range s.creds {
		if cred.EnrollmentNumber == enrollment {
			out = append(out, cred)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssueDate.After(out[j].IssueDate) })
	return out, nil
}

type InMemoryStudentStore struct {
	mu       sync.RWMutex
	students map[string]models.Student
}

func NewInMemoryStudentStore() *InMemoryStudentStore {
	return &InMemoryStudentStore{students: make(map[string]models.Student)}
}

func (s *InMemoryStudentStore) Put(_ context.Context, student models.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[student.EnrollmentNumber]; ok {
		return ErrDuplicate
	}
	s.students[student.EnrollmentNumber] = student
	return nil
}

// BulkPut stages the whole batch before touching the map, matching the
// all-or-nothing contract of the gorm store's transaction.
func (s *InMemoryStudentStore) BulkPut(_ context.Context, students []models.Student) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	staged := make(map[string]models.Student)
	duplicates := 0
	for _, student := range students {
		if _, ok := s.students[student.EnrollmentNumber]; ok {
			duplicates++
			continue
		}
		if _, ok := staged[student.EnrollmentNumber]; ok {
			duplicates++
			continue
		}
		staged[student.EnrollmentNumber] = student
	}
	for enrollment, student := range staged {
		s.students[enrollment] = student
	}
	return len(staged), duplicates, nil
}

func (s *InMemoryStudentStore) Get(_ context.Context, enrollment string) (models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if student, ok := s.students[enrollment]; ok {
		return student, nil
	}
	return models.Student{}, ErrNotFound
}

func (s *InMemoryStudentStore) List(_ context.Context) ([]models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Student, 0, len(s.students))
	for _, student := range s.students {
		out = append(out, student)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EnrollmentNumber < out[j].EnrollmentNumber })
	return out, nil
}

type InMemoryRevocationStore struct {
	mu   sync.RWMutex
	revs map[string]models.Revocation
}

func NewInMemoryRevocationStore() *InMemoryRevocationStore {
	return &InMemoryRevocationStore{revs: make(map[string]models.Revocation)}
}

func (s *InMemoryRevocationStore) Put(_ context.Context, rev models.Revocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rev.Fingerprint = NormalizeFingerprint(rev.Fingerprint)
	if _, ok := s.revs[rev.Fingerprint]; ok {
		return ErrAlreadyRevoked
	}
	s.revs[rev.Fingerprint] = rev
	return nil
}

func (s *InMemoryRevocationStore) Get(_ context.Context, fingerprint string) (models.Revocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rev, ok := s.revs[NormalizeFingerprint(fingerprint)]; ok {
		return rev, nil
	}
	return models.Revocation{}, ErrNotFound
}

func (s *InMemoryRevocationStore) List(_ context.Context) ([]models.Revocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Revocation, 0, len(s.revs))
	for _, rev := range s.revs {
		out = append(out, rev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Fingerprint < out[j].Fingerprint })
	return out, nil
}

type InMemoryTransactionStore struct {
	mu  sync.RWMutex
	txs []models.Transaction
}

func NewInMemoryTransactionStore() *InMemoryTransactionStore {
	return &InMemoryTransactionStore{}
}

func (s *InMemoryTransactionStore) Put(_ context.Context, tx models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx.Fingerprint = NormalizeFingerprint(tx.Fingerprint)
	tx.ID = uint(len(s.txs) + 1)
	s.txs = append(s.txs, tx)
	return nil
}

func (s *InMemoryTransactionStore) List(_ context.Context) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Transaction, len(s.txs))
	copy(out, s.txs)
	return out, nil
}
