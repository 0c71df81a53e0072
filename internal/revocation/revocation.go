// Package revocation owns the local revocation set. Revocation never touches
// the ledger: the registry contract cannot revoke, so this engine's records
// are the only authority.
package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"credledger/internal/models"
	"credledger/internal/store"
)

var (
	ErrMissingReason = errors.New("revocation reason is required")
	// ErrUnknownCredential: the fingerprint was never mirrored locally, so
	// there is nothing to revoke.
	ErrUnknownCredential = errors.New("credential not found in local records")
)

type Manager struct {
	revocations store.RevocationStore
	credentials store.CredentialStore
	clock       func() time.Time
}

func NewManager(revocations store.RevocationStore, credentials store.CredentialStore) *Manager {
	return &Manager{
		revocations: revocations,
		credentials: credentials,
		clock:       time.Now,
	}
}

// WithClock pins the revoked-at timestamp source, for tests.
func (m *Manager) WithClock(clock func() time.Time) *Manager {
	m.clock = clock
	return m
}

// Revoke records a permanent revocation. The fingerprint must reference a
// locally known credential; a second revocation of the same fingerprint
// fails with store.ErrAlreadyRevoked. There is no un-revoke.
func (m *Manager) Revoke(ctx context.Context, fp, reason, revokedBy string) (models.Revocation, error) {
	if reason == "" {
		return models.Revocation{}, ErrMissingReason
	}
	fp = store.NormalizeFingerprint(fp)

	if _, err := m.credentials.Get(ctx, fp); errors.Is(err, store.ErrNotFound) {
		return models.Revocation{}, ErrUnknownCredential
	} else if err != nil {
		return models.Revocation{}, fmt.Errorf("look up credential: %w", err)
	}

	rev := models.Revocation{
		Fingerprint: fp,
		Reason:      reason,
		RevokedBy:   revokedBy,
		RevokedAt:   m.clock().UTC(),
	}
	if err := m.revocations.Put(ctx, rev); err != nil {
		return models.Revocation{}, err
	}
	return rev, nil
}

func (m *Manager) IsRevoked(ctx context.Context, fp string) (bool, error) {
	_, err := m.revocations.Get(ctx, fp)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}

// RevocationInfo returns the active revocation record, or store.ErrNotFound.
func (m *Manager) RevocationInfo(ctx context.Context, fp string) (models.Revocation, error) {
	return m.revocations.Get(ctx, fp)
}
