package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"credledger/internal/models"
	"credledger/internal/store"
)

type ManagerSuite struct {
	suite.Suite
	ctx         context.Context
	credentials *store.InMemoryCredentialStore
	revocations *store.InMemoryRevocationStore
	manager     *Manager
	now         time.Time
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupTest() {
	s.ctx = context.Background()
	s.credentials = store.NewInMemoryCredentialStore()
	s.revocations = store.NewInMemoryRevocationStore()
	s.now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.manager = NewManager(s.revocations, s.credentials).
		WithClock(func() time.Time { return s.now })

	s.Require().NoError(s.credentials.Put(s.ctx, models.Credential{
		Fingerprint:      "0xabc123",
		StudentName:      "Asha Rao",
		EnrollmentNumber: "E100",
	}))
}

func (s *ManagerSuite) TestRevoke() {
	s.Run("empty reason rejected before any write", func() {
		_, err := s.manager.Revoke(s.ctx, "0xabc123", "", "admin-1")
		s.ErrorIs(err, ErrMissingReason)

		revoked, err := s.manager.IsRevoked(s.ctx, "0xabc123")
		s.Require().NoError(err)
		s.False(revoked)
	})

	s.Run("unknown fingerprint rejected", func() {
		_, err := s.manager.Revoke(s.ctx, "0xdeadbeef", "fraud", "admin-1")
		s.ErrorIs(err, ErrUnknownCredential)
	})

	s.Run("successful revocation is recorded", func() {
		rev, err := s.manager.Revoke(s.ctx, "0xABC123", "duplicate submission", "admin-1")
		s.Require().NoError(err)
		s.Equal("0xabc123", rev.Fingerprint)
		s.Equal("duplicate submission", rev.Reason)
		s.Equal("admin-1", rev.RevokedBy)
		s.Equal(s.now, rev.RevokedAt)
	})

	s.Run("second revocation of same fingerprint rejected", func() {
		_, err := s.manager.Revoke(s.ctx, "0xabc123", "again", "admin-2")
		s.ErrorIs(err, store.ErrAlreadyRevoked)
	})
}

func (s *ManagerSuite) TestQueries() {
	_, err := s.manager.Revoke(s.ctx, "0xabc123", "fraud", "admin-1")
	s.Require().NoError(err)

	s.Run("IsRevoked true after revoke", func() {
		revoked, err := s.manager.IsRevoked(s.ctx, "0xABC123")
		s.Require().NoError(err)
		s.True(revoked)
	})

	s.Run("IsRevoked false for unknown", func() {
		revoked, err := s.manager.IsRevoked(s.ctx, "0xother")
		s.Require().NoError(err)
		s.False(revoked)
	})

	s.Run("RevocationInfo returns the record", func() {
		rev, err := s.manager.RevocationInfo(s.ctx, "0xabc123")
		s.Require().NoError(err)
		s.Equal("fraud", rev.Reason)
	})

	s.Run("RevocationInfo unknown fingerprint", func() {
		_, err := s.manager.RevocationInfo(s.ctx, "0xother")
		s.ErrorIs(err, store.ErrNotFound)
	})
}
