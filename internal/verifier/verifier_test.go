package verifier

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"credledger/internal/ledger"
	"credledger/internal/models"
	"credledger/internal/revocation"
	"credledger/internal/store"
)

// fakeLedger scripts ledger behavior per fingerprint.
type fakeLedger struct {
	valid       map[string]bool
	fields      map[string]ledger.CredentialFields
	unreachable bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		valid:  make(map[string]bool),
		fields: make(map[string]ledger.CredentialFields),
	}
}

func (f *fakeLedger) Issue(_ context.Context, fp string, fields ledger.CredentialFields) (ledger.IssueResult, error) {
	if f.unreachable {
		return ledger.IssueResult{}, ledger.ErrUnreachable
	}
	f.valid[fp] = true
	f.fields[fp] = fields
	return ledger.IssueResult{TxHash: "0xtx-" + fp, BlockNumber: 1}, nil
}

func (f *fakeLedger) Verify(_ context.Context, fp string) (bool, error) {
	if f.unreachable {
		return false, ledger.ErrUnreachable
	}
	return f.valid[fp], nil
}

func (f *fakeLedger) Fetch(_ context.Context, fp string) (ledger.CredentialFields, error) {
	if f.unreachable {
		return ledger.CredentialFields{}, ledger.ErrUnreachable
	}
	fields, ok := f.fields[fp]
	if !ok {
		return ledger.CredentialFields{}, ledger.ErrNotFound
	}
	return fields, nil
}

type VerifierSuite struct {
	suite.Suite
	ctx         context.Context
	ledger      *fakeLedger
	credentials *store.InMemoryCredentialStore
	revocations *revocation.Manager
	verifier    *Verifier
}

func TestVerifierSuite(t *testing.T) {
	suite.Run(t, new(VerifierSuite))
}

func (s *VerifierSuite) SetupTest() {
	s.ctx = context.Background()
	s.ledger = newFakeLedger()
	s.credentials = store.NewInMemoryCredentialStore()
	s.revocations = revocation.NewManager(store.NewInMemoryRevocationStore(), s.credentials)
	s.verifier = New(s.ledger, s.credentials, s.revocations, nil)
}

func (s *VerifierSuite) mirror(fp string) models.Credential {
	cred := models.Credential{
		Fingerprint:      fp,
		TransactionHash:  "0xtx",
		StudentName:      "Asha Rao",
		EnrollmentNumber: "E100",
		Program:          "B.Sc",
		Institution:      "NIT",
		IssueYear:        2023,
		IssueDate:        time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	s.Require().NoError(s.credentials.Put(s.ctx, cred))
	return cred
}

func (s *VerifierSuite) TestLedgerConfirmedValid() {
	s.ledger.valid["0xaa"] = true
	s.mirror("0xaa")

	verdict, err := s.verifier.VerifyFingerprint(s.ctx, "0xAA")
	s.Require().NoError(err)
	s.Equal(StatusValid, verdict.Status)
	s.Equal(SourceLedger, verdict.Source)
	s.Require().NotNil(verdict.Credential)
	s.Equal("Asha Rao", verdict.Credential.StudentName)
}

func (s *VerifierSuite) TestLedgerValidWithoutMirrorUsesLedgerFields() {
	s.ledger.valid["0xbb"] = true
	s.ledger.fields["0xbb"] = ledger.CredentialFields{
		StudentName:      "Asha Rao",
		EnrollmentNumber: "E100",
		Program:          "B.Sc",
		Institution:      "NIT",
		IssueYear:        2023,
	}

	verdict, err := s.verifier.VerifyFingerprint(s.ctx, "0xbb")
	s.Require().NoError(err)
	s.Equal(StatusValid, verdict.Status)
	s.Equal(SourceLedger, verdict.Source)
	s.Require().NotNil(verdict.Credential)
	s.Equal("E100", verdict.Credential.EnrollmentNumber)
}

func (s *VerifierSuite) TestRevocationOverridesLedgerValidity() {
	s.ledger.valid["0xcc"] = true
	s.mirror("0xcc")

	verdict, err := s.verifier.VerifyFingerprint(s.ctx, "0xcc")
	s.Require().NoError(err)
	s.Equal(StatusValid, verdict.Status)

	_, err = s.revocations.Revoke(s.ctx, "0xcc", "duplicate submission", "admin-1")
	s.Require().NoError(err)

	verdict, err = s.verifier.VerifyFingerprint(s.ctx, "0xcc")
	s.Require().NoError(err)
	s.Equal(StatusRevoked, verdict.Status)
	s.Require().NotNil(verdict.Revocation)
	s.Equal("duplicate submission", verdict.Revocation.Reason)
	s.Equal("admin-1", verdict.Revocation.RevokedBy)
}

func (s *VerifierSuite) TestLocalFallbackWhenLedgerUnreachable() {
	s.mirror("0xdd")
	s.ledger.unreachable = true

	verdict, err := s.verifier.VerifyFingerprint(s.ctx, "0xdd")
	s.Require().NoError(err)
	s.Equal(StatusValid, verdict.Status)
	s.Equal(SourceLocal, verdict.Source)
}

func (s *VerifierSuite) TestLocalFallbackWhenLedgerHasNoEntry() {
	s.mirror("0xee")

	verdict, err := s.verifier.VerifyFingerprint(s.ctx, "0xee")
	s.Require().NoError(err)
	s.Equal(StatusValid, verdict.Status)
	s.Equal(SourceLocal, verdict.Source)
}

func (s *VerifierSuite) TestRevocationAppliesToLocalFallback() {
	s.mirror("0xff")
	s.ledger.unreachable = true
	_, err := s.revocations.Revoke(s.ctx, "0xff", "fraud", "admin-1")
	s.Require().NoError(err)

	verdict, err := s.verifier.VerifyFingerprint(s.ctx, "0xff")
	s.Require().NoError(err)
	s.Equal(StatusRevoked, verdict.Status)
}

func (s *VerifierSuite) TestNotFoundAnywhere() {
	verdict, err := s.verifier.VerifyFingerprint(s.ctx, "0xdeadbeef")
	s.Require().NoError(err)
	s.Equal(StatusNotFound, verdict.Status)
	s.Empty(verdict.Source)
	s.Nil(verdict.Credential)
}

func (s *VerifierSuite) TestUnreachableLedgerAndNoLocalRecord() {
	s.ledger.unreachable = true

	verdict, err := s.verifier.VerifyFingerprint(s.ctx, "0xdeadbeef")
	s.Require().NoError(err)
	s.Equal(StatusNotFound, verdict.Status)
}

func (s *VerifierSuite) TestEmptyFingerprint() {
	verdict, err := s.verifier.VerifyFingerprint(s.ctx, "   ")
	s.Require().NoError(err)
	s.Equal(StatusNotFound, verdict.Status)
}
