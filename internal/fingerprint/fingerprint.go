// Package fingerprint derives the opaque identifier that keys a credential
// across the ledger and the local mirror.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"time"
)

// Fields is the canonical payload a fingerprint covers. Marshal order is the
// struct order below and must not change: the digest depends on it.
type Fields struct {
	StudentName      string `json:"studentName"`
	EnrollmentNumber string `json:"enrollmentNumber"`
	Program          string `json:"course"`
	Institution      string `json:"institution"`
	IssueYear        int    `json:"issueYear"`
}

// Clock supplies the wall-clock instant mixed into the digest.
type Clock func() time.Time

// Generate returns "0x" + hex(SHA-256(canonical JSON + unix millis)).
//
// The timestamp salt means two calls with identical fields produce different
// fingerprints: reissues never collide and a fingerprint cannot be predicted
// from the printed certificate alone. The function is therefore NOT a pure
// content hash and is not idempotent across calls; callers that need the same
// fingerprint twice must persist it, not recompute it.
func Generate(fields Fields, clock Clock) (string, error) {
	if clock == nil {
		clock = time.Now
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	salted := append(payload, []byte(strconv.FormatInt(clock().UnixMilli(), 10))...)
	digest := sha256.Sum256(salted)
	return "0x" + hex.EncodeToString(digest[:]), nil
}
