package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"credledger/internal/models"
)

type InMemoryStoreSuite struct {
	suite.Suite
	ctx         context.Context
	credentials *InMemoryCredentialStore
	students    *InMemoryStudentStore
	revocations *InMemoryRevocationStore
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.credentials = NewInMemoryCredentialStore()
	s.students = NewInMemoryStudentStore()
	s.revocations = NewInMemoryRevocationStore()
}

func (s *InMemoryStoreSuite) TestCredentialRoundTrip() {
	cred := models.Credential{
		Fingerprint:      "0xABCDEF0123",
		TransactionHash:  "0xfeed",
		StudentName:      "Asha Rao",
		EnrollmentNumber: "E100",
		Program:          "B.Sc",
		Institution:      "NIT",
		IssueYear:        2023,
		IssueDate:        time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	s.Require().NoError(s.credentials.Put(s.ctx, cred))

	s.Run("read back field-for-field, key lower-cased", func() {
		got, err := s.credentials.Get(s.ctx, "0xabcdef0123")
		s.Require().NoError(err)
		want := cred
		want.Fingerprint = "0xabcdef0123"
		s.Equal(want, got)
	})

	s.Run("lookup is case-insensitive", func() {
		_, err := s.credentials.Get(s.ctx, "0XABCDEF0123")
		s.NoError(err)
	})

	s.Run("unknown fingerprint", func() {
		_, err := s.credentials.Get(s.ctx, "0xdeadbeef")
		s.ErrorIs(err, ErrNotFound)
	})

	s.Run("find by enrollment", func() {
		creds, err := s.credentials.FindByEnrollment(s.ctx, "E100")
		s.Require().NoError(err)
		s.Len(creds, 1)
	})
}

func (s *InMemoryStoreSuite) TestCredentialOverwriteByKey() {
	first := models.Credential{Fingerprint: "0xaa", StudentName: "Asha Rao"}
	s.Require().NoError(s.credentials.Put(s.ctx, first))

	second := first
	second.TransactionHash = "0xbeef"
	s.Require().NoError(s.credentials.Put(s.ctx, second))

	got, err := s.credentials.Get(s.ctx, "0xaa")
	s.Require().NoError(err)
	s.Equal("0xbeef", got.TransactionHash)
}

func (s *InMemoryStoreSuite) TestStudentUniqueEnrollment() {
	student := models.Student{EnrollmentNumber: "E100", Name: "Asha Rao", Password: "secret"}
	s.Require().NoError(s.students.Put(s.ctx, student))

	s.Run("duplicate rejected", func() {
		s.ErrorIs(s.students.Put(s.ctx, student), ErrDuplicate)
	})

	s.Run("get and list", func() {
		got, err := s.students.Get(s.ctx, "E100")
		s.Require().NoError(err)
		s.Equal("Asha Rao", got.Name)

		all, err := s.students.List(s.ctx)
		s.Require().NoError(err)
		s.Len(all, 1)
	})

	s.Run("unknown enrollment", func() {
		_, err := s.students.Get(s.ctx, "E999")
		s.ErrorIs(err, ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestStudentBulkPut() {
	s.Require().NoError(s.students.Put(s.ctx, models.Student{
		EnrollmentNumber: "E100", Name: "Asha Rao", Password: "pw",
	}))

	inserted, duplicates, err := s.students.BulkPut(s.ctx, []models.Student{
		{EnrollmentNumber: "E100", Name: "Asha Rao", Password: "pw"},
		{EnrollmentNumber: "E101", Name: "Ravi Iyer", Password: "pw"},
		{EnrollmentNumber: "E101", Name: "Ravi Iyer", Password: "pw"},
		{EnrollmentNumber: "E102", Name: "Meera Nair", Password: "pw"},
	})
	s.Require().NoError(err)

	s.Run("existing and in-batch duplicates skipped", func() {
		s.Equal(2, inserted)
		s.Equal(2, duplicates)
	})

	s.Run("batch rows readable afterwards", func() {
		all, err := s.students.List(s.ctx)
		s.Require().NoError(err)
		s.Len(all, 3)

		got, err := s.students.Get(s.ctx, "E102")
		s.Require().NoError(err)
		s.Equal("Meera Nair", got.Name)
	})
}

func (s *InMemoryStoreSuite) TestRevocationUniqueInsert() {
	rev := models.Revocation{
		Fingerprint: "0xAA11",
		Reason:      "duplicate submission",
		RevokedBy:   "admin-1",
		RevokedAt:   time.Now().UTC(),
	}
	s.Require().NoError(s.revocations.Put(s.ctx, rev))

	s.Run("second insert for same key rejected", func() {
		s.ErrorIs(s.revocations.Put(s.ctx, rev), ErrAlreadyRevoked)
	})

	s.Run("case-insensitive get", func() {
		got, err := s.revocations.Get(s.ctx, "0xaa11")
		s.Require().NoError(err)
		s.Equal("duplicate submission", got.Reason)
	})
}

func TestNormalizeFingerprint(t *testing.T) {
	suite := []struct{ in, want string }{
		{"0xABCDef", "0xabcdef"},
		{"  0xff  ", "0xff"},
		{"", ""},
	}
	for _, tc := range suite {
		if got := NormalizeFingerprint(tc.in); got != tc.want {
			t.Errorf("NormalizeFingerprint(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
