package store

import (
	"context"
	"errors"
	"strings"

	"credledger/internal/models"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicate      = errors.New("record already exists")
	ErrAlreadyRevoked = errors.New("credential already revoked")
)

// NormalizeFingerprint lower-cases a fingerprint so hex identifiers compare
// case-insensitively across the ledger, the mirror and caller input.
func NormalizeFingerprint(fp string) string {
	return strings.ToLower(strings.TrimSpace(fp))
}

// CredentialStore mirrors ledger-issued credentials. Put persists before
// returning; an existing fingerprint is overwritten (last-writer-wins, rows
// are immutable in practice) so reconciliation backfills stay idempotent.
type CredentialStore interface {
	Put(ctx context.Context, cred models.Credential) error
	Get(ctx context.Context, fingerprint string) (models.Credential, error)
	List(ctx context.Context) ([]models.Credential, error)
	FindByEnrollment(ctx context.Context, enrollment string) ([]models.Credential, error)
}

// StudentStore holds registered holders. Put rejects a duplicate enrollment
// number with ErrDuplicate. BulkPut registers a batch atomically: already
// registered enrollment numbers are skipped and counted, any other failure
// rolls the whole batch back.
type StudentStore interface {
	Put(ctx context.Context, student models.Student) error
	BulkPut(ctx context.Context, students []models.Student) (inserted, duplicates int, err error)
	Get(ctx context.Context, enrollment string) (models.Student, error)
	List(ctx context.Context) ([]models.Student, error)
}

// RevocationStore enforces at-most-one revocation per fingerprint: a second
// Put for the same key fails with ErrAlreadyRevoked. Rows are never deleted.
type RevocationStore interface {
	Put(ctx context.Context, rev models.Revocation) error
	Get(ctx context.Context, fingerprint string) (models.Revocation, error)
	List(ctx context.Context) ([]models.Revocation, error)
}

// TransactionStore keeps the issuance audit trail.
type TransactionStore interface {
	Put(ctx context.Context, tx models.Transaction) error
	List(ctx context.Context) ([]models.Transaction, error)
}
