package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"credledger/internal/models"
	"credledger/internal/store"
	"credledger/internal/verifier"
)

// VerifyFingerprint resolves a fingerprint to its verdict.
// POST /api/v1/verify  Body: { "fingerprint": "0x..." }
func VerifyFingerprint(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{
			"status": "Bad_Request", "message": "invalid JSON body",
		})
		return
	}
	fp, _ := body["fingerprint"].(string)
	if strings.TrimSpace(fp) == "" {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{
			"status": "Bad_Request", "message": "fingerprint is required",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	verdict, err := deps.Verifier.VerifyFingerprint(ctx, fp)
	if err != nil {
		writeJSONResp(w, http.StatusInternalServerError, map[string]any{
			"status": "Server_Error", "message": "verification failed",
		})
		return
	}
	writeJSONResp(w, http.StatusOK, verdict)
}

// VerifyDetails checks a presented certificate's printed fields against the
// record on file. The institution name is fuzzy-compared (Jaro-Winkler) so a
// re-typed name still matches while a substituted one does not.
// POST /api/v1/verify-details
// Body: { "enrollment_number": "...", "institution": "...", "fingerprint": "0x..."? }
func VerifyDetails(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{
			"status": "Bad_Request", "message": "invalid JSON body",
		})
		return
	}
	enrollment, _ := body["enrollment_number"].(string)
	institution, _ := body["institution"].(string)
	fp, _ := body["fingerprint"].(string)
	if enrollment == "" || institution == "" {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{
			"status": "Bad_Request", "message": "enrollment_number and institution are required",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	rec, ok := findPresentedRecord(ctx, w, enrollment, fp)
	if !ok {
		return
	}

	// Revocation overrides a field match, same as fingerprint verification.
	verdict, err := deps.Verifier.VerifyFingerprint(ctx, rec.Fingerprint)
	if err != nil {
		writeJSONResp(w, http.StatusInternalServerError, map[string]any{
			"status": "Server_Error", "message": "verification failed",
		})
		return
	}
	if verdict.Status == verifier.StatusRevoked {
		writeJSONResp(w, http.StatusOK, verdict)
		return
	}

	official := strings.TrimSpace(rec.Institution)
	presented := strings.TrimSpace(institution)
	metric := metrics.NewJaroWinkler()
	conf := strutil.Similarity(strings.ToLower(presented), strings.ToLower(official), metric)

	data := map[string]any{
		"enrollment_number":     rec.EnrollmentNumber,
		"presented_institution": presented,
		"official_institution":  official,
		"record":                rec,
		"source":                verdict.Source,
	}

	if conf >= 0.85 {
		writeJSONResp(w, http.StatusOK, map[string]any{
			"status":           "Verified",
			"match_confidence": conf,
			"data":             data,
		})
		return
	}
	writeJSONResp(w, http.StatusOK, map[string]any{
		"status":           "Potentially_Tampered",
		"match_confidence": conf,
		"message":          "The institution name on the document does not match the official record.",
		"data":             data,
	})
}

// findPresentedRecord resolves the record a presented certificate claims to
// be: by fingerprint when given, else the newest record for the enrollment.
func findPresentedRecord(ctx context.Context, w http.ResponseWriter, enrollment, fp string) (rec models.Credential, ok bool) {
	if fp != "" {
		cred, err := deps.Credentials.Get(ctx, fp)
		if errors.Is(err, store.ErrNotFound) {
			writeJSONResp(w, http.StatusOK, map[string]any{
				"status":  "Not_Found",
				"message": "No matching record was found for the provided fingerprint.",
			})
			return rec, false
		} else if err != nil {
			writeJSONResp(w, http.StatusInternalServerError, map[string]any{
				"status": "Server_Error", "message": "database error",
			})
			return rec, false
		}
		return cred, true
	}

	creds, err := deps.Credentials.FindByEnrollment(ctx, enrollment)
	if err != nil {
		writeJSONResp(w, http.StatusInternalServerError, map[string]any{
			"status": "Server_Error", "message": "database error",
		})
		return rec, false
	}
	if len(creds) == 0 {
		writeJSONResp(w, http.StatusOK, map[string]any{
			"status":  "Not_Found",
			"message": "No matching record was found for the provided enrollment number.",
		})
		return rec, false
	}
	return creds[0], true
}
