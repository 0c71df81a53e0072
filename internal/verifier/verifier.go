// Package verifier produces the definitive validity verdict for a
// fingerprint by combining the ledger, the local mirror and the revocation
// set under fixed precedence rules.
package verifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"credledger/internal/ledger"
	"credledger/internal/models"
	"credledger/internal/revocation"
	"credledger/internal/store"
)

type Status string

const (
	StatusValid    Status = "Valid"
	StatusRevoked  Status = "Revoked"
	StatusNotFound Status = "Not_Found"
)

type Source string

const (
	// SourceLedger: existence was confirmed by the ledger on this request
	// (or from a fresh cached ledger read).
	SourceLedger Source = "ledger"
	// SourceLocal: the ledger was unreachable or had no entry and the local
	// mirror answered. Weaker assurance; strict consumers may reject it.
	SourceLocal Source = "local"
)

// Verdict is the tri-state outcome of one verification request.
type Verdict struct {
	Status     Status             `json:"status"`
	Source     Source             `json:"source,omitempty"`
	Credential *models.Credential `json:"credential,omitempty"`
	Revocation *models.Revocation `json:"revocation,omitempty"`
}

type Verifier struct {
	ledger      ledger.Client
	credentials store.CredentialStore
	revocations *revocation.Manager
	cache       *redis.Client
	cacheTTL    time.Duration
}

// New builds a verifier. cache may be nil to disable ledger-read caching.
func New(lc ledger.Client, credentials store.CredentialStore, revocations *revocation.Manager, cache *redis.Client) *Verifier {
	return &Verifier{
		ledger:      lc,
		credentials: credentials,
		revocations: revocations,
		cache:       cache,
		cacheTTL:    time.Minute,
	}
}

// VerifyFingerprint produces the verdict for one fingerprint: ledger first,
// local fallback when the ledger is unreachable or has no entry, revocation
// checked last. The revocation override is the only thing standing between a
// revoked credential and a Valid verdict, so it is applied after both sources
// regardless of what they said.
func (v *Verifier) VerifyFingerprint(ctx context.Context, fp string) (Verdict, error) {
	fp = store.NormalizeFingerprint(fp)
	if fp == "" {
		return Verdict{Status: StatusNotFound}, nil
	}

	verdict := Verdict{Status: StatusNotFound}

	onLedger, ledgerErr := v.ledgerExists(ctx, fp)
	if ledgerErr == nil && onLedger {
		cred := v.resolveRecord(ctx, fp)
		verdict = Verdict{Status: StatusValid, Source: SourceLedger, Credential: cred}
	} else {
		if ledgerErr != nil && !errors.Is(ledgerErr, ledger.ErrNotFound) {
			log.Println("verify: ledger unavailable, falling back to local records:", ledgerErr)
		}
		if local, err := v.credentials.Get(ctx, fp); err == nil {
			verdict = Verdict{Status: StatusValid, Source: SourceLocal, Credential: &local}
		} else if !errors.Is(err, store.ErrNotFound) {
			return Verdict{}, fmt.Errorf("local lookup: %w", err)
		}
	}

	// Revocation wins over everything above, always checked live.
	if rev, err := v.revocations.RevocationInfo(ctx, fp); err == nil {
		return Verdict{Status: StatusRevoked, Revocation: &rev}, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return Verdict{}, fmt.Errorf("revocation lookup: %w", err)
	}

	return verdict, nil
}

// ledgerExists answers "does the ledger hold this fingerprint", consulting
// the cache first. Only positive/negative ledger answers are cached, never
// unreachability and never anything revocation-related.
func (v *Verifier) ledgerExists(ctx context.Context, fp string) (bool, error) {
	key := "ledger:verify:" + fp
	if v.cache != nil {
		if cached, err := v.cache.Get(ctx, key).Result(); err == nil {
			return cached == "1", nil
		}
	}

	onLedger, err := v.ledger.Verify(ctx, fp)
	if err != nil {
		return false, err
	}
	if v.cache != nil {
		val := "0"
		if onLedger {
			val = "1"
		}
		if err := v.cache.Set(ctx, key, val, v.cacheTTL).Err(); err != nil {
			log.Println("verify: cache write failed:", err)
		}
	}
	return onLedger, nil
}

// resolveRecord prefers the local mirror (it carries attachments the ledger
// does not), falling back to the ledger's own fields.
func (v *Verifier) resolveRecord(ctx context.Context, fp string) *models.Credential {
	if local, err := v.credentials.Get(ctx, fp); err == nil {
		return &local
	}

	key := "ledger:fetch:" + fp
	if v.cache != nil {
		if cached, err := v.cache.Get(ctx, key).Bytes(); err == nil {
			var cred models.Credential
			if json.Unmarshal(cached, &cred) == nil {
				return &cred
			}
		}
	}

	fields, err := v.ledger.Fetch(ctx, fp)
	if err != nil {
		log.Println("verify: ledger fetch failed after positive verify:", err)
		return nil
	}
	cred := &models.Credential{
		Fingerprint:      fp,
		StudentName:      fields.StudentName,
		EnrollmentNumber: fields.EnrollmentNumber,
		Program:          fields.Program,
		Institution:      fields.Institution,
		IssueYear:        fields.IssueYear,
		IssueDate:        fields.IssueDate,
	}
	if v.cache != nil {
		if raw, err := json.Marshal(cred); err == nil {
			if err := v.cache.Set(ctx, key, raw, v.cacheTTL).Err(); err != nil {
				log.Println("verify: cache write failed:", err)
			}
		}
	}
	return cred
}
