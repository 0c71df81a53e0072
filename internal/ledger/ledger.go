// Package ledger talks to the append-only certificate registry. The ledger is
// authoritative for issuance and validity; it knows nothing about revocation
// or attachments.
package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrRejected: the ledger processed and declined the transaction.
	ErrRejected = errors.New("ledger rejected transaction")
	// ErrUnreachable: the ledger node could not be reached in time. Callers
	// may retry; verification may fall back to the local mirror.
	ErrUnreachable = errors.New("ledger unreachable")
	// ErrUnauthorizedSigner: the configured key is not allowed to issue.
	ErrUnauthorizedSigner = errors.New("signer not authorized to issue")
	// ErrNotFound: the fingerprint has never been issued on the ledger.
	ErrNotFound = errors.New("fingerprint not found on ledger")
)

// CredentialFields is the ledger's view of one credential.
type CredentialFields struct {
	StudentName      string
	EnrollmentNumber string
	Program          string
	Institution      string
	IssueYear        int
	IssueDate        time.Time
	IPFSHash         string
	IssuerAddress    string
}

// IssueResult references the confirmed ledger transaction.
type IssueResult struct {
	TxHash      string
	BlockNumber uint64
}

// Client is the only external dependency with material latency. Issue blocks
// until the transaction is mined, so every call takes a context and must be
// cancellable.
type Client interface {
	Issue(ctx context.Context, fingerprint string, fields CredentialFields) (IssueResult, error)
	Verify(ctx context.Context, fingerprint string) (bool, error)
	Fetch(ctx context.Context, fingerprint string) (CredentialFields, error)
}
