package store

import (
	"context"
	"errors"
	"fmt"

	"credledger/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStores bundles the three namespaces over one database handle.
type GormStores struct {
	Credentials  *GormCredentialStore
	Students     *GormStudentStore
	Revocations  *GormRevocationStore
	Transactions *GormTransactionStore
}

func NewGormStores(db *gorm.DB) *GormStores {
	return &GormStores{
		Credentials:  &GormCredentialStore{db: db},
		Students:     &GormStudentStore{db: db},
		Revocations:  &GormRevocationStore{db: db},
		Transactions: &GormTransactionStore{db: db},
	}
}

type GormCredentialStore struct {
	db *gorm.DB
}

func (s *GormCredentialStore) Put(ctx context.Context, cred models.Credential) error {
	cred.Fingerprint = NormalizeFingerprint(cred.Fingerprint)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&cred).Error
	if err != nil {
		return fmt.Errorf("put credential: %w", err)
	}
	return nil
}

func (s *GormCredentialStore) Get(ctx context.Context, fingerprint string) (models.Credential, error) {
	var cred models.Credential
	err := s.db.WithContext(ctx).
		Where("fingerprint = ?", NormalizeFingerprint(fingerprint)).
		First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Credential{}, ErrNotFound
	} else if err != nil {
		return models.Credential{}, fmt.Errorf("get credential: %w", err)
	}
	return cred, nil
}

func (s *GormCredentialStore) List(ctx context.Context) ([]models.Credential, error) {
	var creds []models.Credential
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&creds).Error; err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	return creds, nil
}

func (s *GormCredentialStore) FindByEnrollment(ctx context.Context, enrollment string) ([]models.Credential, error) {
	var creds []models.Credential
	err := s.db.WithContext(ctx).
		Where("enrollment_number = ?", enrollment).
		Order("issue_date desc").
		Find(&creds).Error
	if err != nil {
		return nil, fmt.Errorf("find credentials by enrollment: %w", err)
	}
	return creds, nil
}

type GormStudentStore struct {
	db *gorm.DB
}

func (s *GormStudentStore) Put(ctx context.Context, student models.Student) error {
	err := s.db.WithContext(ctx).Create(&student).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	} else if err != nil {
		return fmt.Errorf("put student: %w", err)
	}
	return nil
}

// BulkPut runs inside one transaction so a mid-batch failure leaves nothing
// registered. Existing enrollment numbers are detected with a read before the
// insert; a duplicate-key error would abort the Postgres transaction.
func (s *GormStudentStore) BulkPut(ctx context.Context, students []models.Student) (int, int, error) {
	var inserted, duplicates int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, student := range students {
			var existing models.Student
			err := tx.Where("enrollment_number = ?", student.EnrollmentNumber).First(&existing).Error
			if err == nil {
				duplicates++
				continue
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err := tx.Create(&student).Error; err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("bulk put students: %w", err)
	}
	return inserted, duplicates, nil
}

func (s *GormStudentStore) Get(ctx context.Context, enrollment string) (models.Student, error) {
	var student models.Student
	err := s.db.WithContext(ctx).
		Where("enrollment_number = ?", enrollment).
		First(&student).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Student{}, ErrNotFound
	} else if err != nil {
		return models.Student{}, fmt.Errorf("get student: %w", err)
	}
	return student, nil
}

func (s *GormStudentStore) List(ctx context.Context) ([]models.Student, error) {
	var students []models.Student
	if err := s.db.WithContext(ctx).Order("registration_date desc").Find(&students).Error; err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

type GormRevocationStore struct {
	db *gorm.DB
}

func (s *GormRevocationStore) Put(ctx context.Context, rev models.Revocation) error {
	rev.Fingerprint = NormalizeFingerprint(rev.Fingerprint)
	err := s.db.WithContext(ctx).Create(&rev).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyRevoked
	} else if err != nil {
		return fmt.Errorf("put revocation: %w", err)
	}
	return nil
}

func (s *GormRevocationStore) Get(ctx context.Context, fingerprint string) (models.Revocation, error) {
	var rev models.Revocation
	err := s.db.WithContext(ctx).
		Where("fingerprint = ?", NormalizeFingerprint(fingerprint)).
		First(&rev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Revocation{}, ErrNotFound
	} else if err != nil {
		return models.Revocation{}, fmt.Errorf("get revocation: %w", err)
	}
	return rev, nil
}

func (s *GormRevocationStore) List(ctx context.Context) ([]models.Revocation, error) {
	var revs []models.Revocation
	if err := s.db.WithContext(ctx).Order("revoked_at desc").Find(&revs).Error; err != nil {
		return nil, fmt.Errorf("list revocations: %w", err)
	}
	return revs, nil
}

type GormTransactionStore struct {
	db *gorm.DB
}

func (s *GormTransactionStore) Put(ctx context.Context, tx models.Transaction) error {
	tx.Fingerprint = NormalizeFingerprint(tx.Fingerprint)
	if err := s.db.WithContext(ctx).Create(&tx).Error; err != nil {
		return fmt.Errorf("put transaction: %w", err)
	}
	return nil
}

func (s *GormTransactionStore) List(ctx context.Context) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}
