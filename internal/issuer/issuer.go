// Package issuer coordinates credential issuance: the ledger write must
// confirm before anything is mirrored locally, and nothing is mirrored if the
// ledger declines.
package issuer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"credledger/internal/fingerprint"
	"credledger/internal/ipfs"
	"credledger/internal/ledger"
	"credledger/internal/models"
	"credledger/internal/notify"
	"credledger/internal/store"
)

// ErrUnregisteredHolder: no StudentRecord exists for the enrollment number.
// Checked before any ledger call.
var ErrUnregisteredHolder = errors.New("student not registered for enrollment number")

// ValidationError rejects a request before any external call.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// PartialIssuanceError reports the window where the ledger confirmed the
// transaction but the local mirror write failed. The credential exists on the
// ledger and is invisible locally until Reconcile backfills it; this must
// reach the operator, never be masked as success or as a plain failure.
type PartialIssuanceError struct {
	Fingerprint string
	TxHash      string
	Err         error
}

func (e *PartialIssuanceError) Error() string {
	return fmt.Sprintf("ledger confirmed %s (tx %s) but local mirror write failed: %v",
		e.Fingerprint, e.TxHash, e.Err)
}

func (e *PartialIssuanceError) Unwrap() error { return e.Err }

// Request carries the credential fields plus optional attachment blobs.
type Request struct {
	StudentName      string
	EnrollmentNumber string
	Program          string
	Institution      string
	IssueYear        int
	Photo            []byte
	Document         []byte
}

type Result struct {
	Fingerprint     string `json:"fingerprint"`
	TransactionHash string `json:"transaction_hash"`
	BlockNumber     uint64 `json:"block_number"`
}

type Issuer struct {
	ledger       ledger.Client
	credentials  store.CredentialStore
	students     store.StudentStore
	transactions store.TransactionStore
	pinner       ipfs.Pinner
	notifier     notify.Notifier
	clock        fingerprint.Clock
	issuerAddr   string
}

func New(lc ledger.Client, credentials store.CredentialStore, students store.StudentStore, transactions store.TransactionStore) *Issuer {
	return &Issuer{
		ledger:       lc,
		credentials:  credentials,
		students:     students,
		transactions: transactions,
		clock:        time.Now,
	}
}

// WithPinner enables attachment pinning; without one, attachments are skipped.
func (i *Issuer) WithPinner(p ipfs.Pinner) *Issuer {
	i.pinner = p
	return i
}

// WithNotifier enables the fire-and-forget issuance notification.
func (i *Issuer) WithNotifier(n notify.Notifier) *Issuer {
	i.notifier = n
	return i
}

// WithClock pins the fingerprint salt and issue timestamps, for tests.
func (i *Issuer) WithClock(clock fingerprint.Clock) *Issuer {
	i.clock = clock
	return i
}

// WithIssuerAddress tags audit rows with the signing principal.
func (i *Issuer) WithIssuerAddress(addr string) *Issuer {
	i.issuerAddr = addr
	return i
}

// Issue runs the issuance sequence. Ordering is the consistency guarantee:
// the ledger transaction is submitted and confirmed strictly before the local
// mirror write, and a ledger failure leaves no local trace.
func (i *Issuer) Issue(ctx context.Context, req Request) (Result, error) {
	if err := validate(req); err != nil {
		return Result{}, err
	}

	holder, err := i.students.Get(ctx, req.EnrollmentNumber)
	if errors.Is(err, store.ErrNotFound) {
		return Result{}, ErrUnregisteredHolder
	} else if err != nil {
		return Result{}, fmt.Errorf("look up student: %w", err)
	}

	fp, err := fingerprint.Generate(fingerprint.Fields{
		StudentName:      req.StudentName,
		EnrollmentNumber: req.EnrollmentNumber,
		Program:          req.Program,
		Institution:      req.Institution,
		IssueYear:        req.IssueYear,
	}, i.clock)
	if err != nil {
		return Result{}, fmt.Errorf("generate fingerprint: %w", err)
	}

	ledgerRes, err := i.ledger.Issue(ctx, fp, ledger.CredentialFields{
		StudentName:      req.StudentName,
		EnrollmentNumber: req.EnrollmentNumber,
		Program:          req.Program,
		Institution:      req.Institution,
		IssueYear:        req.IssueYear,
	})
	if err != nil {
		// Typed ledger failure propagates as-is; nothing was persisted.
		return Result{}, err
	}

	cred := models.Credential{
		Fingerprint:      fp,
		TransactionHash:  ledgerRes.TxHash,
		StudentName:      req.StudentName,
		EnrollmentNumber: req.EnrollmentNumber,
		Program:          req.Program,
		Institution:      req.Institution,
		IssueYear:        req.IssueYear,
		IssueDate:        i.clock().UTC(),
	}
	cred.PhotoURL = i.pin(fp+"-photo", req.Photo)
	cred.DocumentURL = i.pin(fp+"-document", req.Document)

	if err := i.credentials.Put(ctx, cred); err != nil {
		return Result{Fingerprint: fp, TransactionHash: ledgerRes.TxHash},
			&PartialIssuanceError{Fingerprint: fp, TxHash: ledgerRes.TxHash, Err: err}
	}

	if i.transactions != nil {
		audit := models.Transaction{
			Fingerprint:     fp,
			TransactionHash: ledgerRes.TxHash,
			BlockNumber:     ledgerRes.BlockNumber,
			IssuerAddress:   i.issuerAddr,
		}
		if err := i.transactions.Put(ctx, audit); err != nil {
			log.Println("issue: audit row write failed:", err)
		}
	}

	if i.notifier != nil && holder.Email != "" {
		if err := i.notifier.CredentialIssued(cred, holder.Email); err != nil {
			log.Println("issue: notification failed (credential unaffected):", err)
		}
	}

	return Result{
		Fingerprint:     fp,
		TransactionHash: ledgerRes.TxHash,
		BlockNumber:     ledgerRes.BlockNumber,
	}, nil
}

// Reconcile closes the partial-issuance window for one fingerprint: re-read
// the credential from the ledger and backfill the local mirror. Idempotent;
// an already-mirrored credential is overwritten with the same data.
func (i *Issuer) Reconcile(ctx context.Context, fp string) (models.Credential, error) {
	fp = store.NormalizeFingerprint(fp)

	fields, err := i.ledger.Fetch(ctx, fp)
	if err != nil {
		return models.Credential{}, err
	}

	cred := models.Credential{
		Fingerprint:      fp,
		StudentName:      fields.StudentName,
		EnrollmentNumber: fields.EnrollmentNumber,
		Program:          fields.Program,
		Institution:      fields.Institution,
		IssueYear:        fields.IssueYear,
		IssueDate:        fields.IssueDate,
	}
	// Keep mirror-only fields (tx hash, attachments) if a row already exists.
	if existing, err := i.credentials.Get(ctx, fp); err == nil {
		cred.TransactionHash = existing.TransactionHash
		cred.PhotoURL = existing.PhotoURL
		cred.DocumentURL = existing.DocumentURL
	}

	if err := i.credentials.Put(ctx, cred); err != nil {
		return models.Credential{}, fmt.Errorf("backfill mirror: %w", err)
	}
	return cred, nil
}

func (i *Issuer) pin(name string, data []byte) string {
	if i.pinner == nil || len(data) == 0 {
		return ""
	}
	url, err := i.pinner.PinBytes(name, data)
	if err != nil {
		log.Println("issue: attachment pin failed (continuing without):", err)
		return ""
	}
	return url
}

func validate(req Request) error {
	switch {
	case req.StudentName == "":
		return &ValidationError{Field: "student_name"}
	case req.EnrollmentNumber == "":
		return &ValidationError{Field: "enrollment_number"}
	case req.Program == "":
		return &ValidationError{Field: "program"}
	case req.Institution == "":
		return &ValidationError{Field: "institution"}
	case req.IssueYear <= 0:
		return &ValidationError{Field: "issue_year"}
	}
	return nil
}
