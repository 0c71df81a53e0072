package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"credledger/internal/middleware"
)

// RevokeCredential records a permanent local revocation. The ledger is never
// touched; from here on every verification of this fingerprint is Revoked.
// POST /api/v1/credentials/{fingerprint}/revoke (protected, issuer only)
// Body: { "reason": "..." }
func RevokeCredential(w http.ResponseWriter, r *http.Request) {
	log.Println("RevokeCredential called")
	if !isIssuer(r) {
		http.Error(w, "forbidden: issuer role required", http.StatusForbidden)
		return
	}

	fp := chi.URLParam(r, "fingerprint")
	if fp == "" {
		http.Error(w, "missing fingerprint", http.StatusBadRequest)
		return
	}

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	reason, _ := body["reason"].(string)
	reason = strings.TrimSpace(reason)

	principal, _ := r.Context().Value(middleware.PrincipalKey).(string)
	revokedBy := strings.TrimPrefix(principal, "issuer:")
	if revokedBy == "" {
		revokedBy = "Unknown"
	}

	rev, err := deps.Revocations.Revoke(r.Context(), fp, reason, revokedBy)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSONResp(w, http.StatusCreated, map[string]any{
		"message":    "Certificate revoked.",
		"revocation": rev,
	})
}
