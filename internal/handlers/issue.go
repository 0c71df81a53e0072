package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"credledger/internal/issuer"
)

// ledgerWait bounds the issue-and-confirm ledger call so a stuck transaction
// cannot hang the request forever.
func ledgerWait() time.Duration {
	if v := os.Getenv("LEDGER_CONFIRM_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 90 * time.Second
}

// MintCredential issues a credential: ledger first, local mirror second.
// POST /api/v1/credentials (protected, issuer only)
// Accepts JSON or multipart/form-data (fields + optional "photo"/"document").
func MintCredential(w http.ResponseWriter, r *http.Request) {
	log.Println("MintCredential called")
	if !isIssuer(r) {
		http.Error(w, "forbidden: issuer role required", http.StatusForbidden)
		return
	}

	req, ok := parseIssueRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), ledgerWait())
	defer cancel()

	res, err := deps.Issuer.Issue(ctx, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSONResp(w, http.StatusCreated, res)
}

// ReconcileCredential backfills the local mirror from the ledger for one
// fingerprint, closing the partial-issuance window.
// POST /api/v1/credentials/{fingerprint}/reconcile (protected, issuer only)
func ReconcileCredential(w http.ResponseWriter, r *http.Request) {
	if !isIssuer(r) {
		http.Error(w, "forbidden: issuer role required", http.StatusForbidden)
		return
	}
	fp := chi.URLParam(r, "fingerprint")
	if fp == "" {
		http.Error(w, "missing fingerprint", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	cred, err := deps.Issuer.Reconcile(ctx, fp)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSONResp(w, http.StatusOK, map[string]any{
		"message":    "Local record reconciled from ledger.",
		"credential": cred,
	})
}

func parseIssueRequest(w http.ResponseWriter, r *http.Request) (issuer.Request, bool) {
	var req issuer.Request

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(20 << 20); err != nil {
			writeJSONResp(w, http.StatusBadRequest, map[string]any{
				"status": "Bad_Request", "message": "failed to parse form or file too large",
			})
			return req, false
		}
		req.StudentName = strings.TrimSpace(r.FormValue("student_name"))
		req.EnrollmentNumber = strings.TrimSpace(r.FormValue("enrollment_number"))
		req.Program = strings.TrimSpace(r.FormValue("program"))
		req.Institution = strings.TrimSpace(r.FormValue("institution"))
		if year, err := strconv.Atoi(strings.TrimSpace(r.FormValue("issue_year"))); err == nil {
			req.IssueYear = year
		}
		req.Photo = readFormFile(r, "photo")
		req.Document = readFormFile(r, "document")
		return req, true
	}

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{
			"status": "Bad_Request", "message": "invalid JSON body",
		})
		return req, false
	}
	req.StudentName, _ = body["student_name"].(string)
	req.EnrollmentNumber, _ = body["enrollment_number"].(string)
	req.Program, _ = body["program"].(string)
	req.Institution, _ = body["institution"].(string)
	req.IssueYear = parseYear(body["issue_year"])
	return req, true
}

// parseYear tolerates numbers and strings from loose frontends.
func parseYear(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case json.Number:
		if i, err := strconv.Atoi(t.String()); err == nil {
			return i
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return i
		}
	}
	return 0
}

func readFormFile(r *http.Request, field string) []byte {
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil
	}
	return data
}
