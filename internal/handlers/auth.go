package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"

	"credledger/internal/middleware"
	"credledger/internal/store"
	"credledger/pkg"
)

// Login handles POST /api/v1/auth/login for the issuing principal.
// Body: { "passphrase": "..." }
func Login(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	passphrase, _ := body["passphrase"].(string)
	expected := os.Getenv("ISSUER_PASSPHRASE")
	if expected == "" || strings.TrimSpace(passphrase) != expected {
		http.Error(w, "invalid passphrase", http.StatusUnauthorized)
		return
	}

	signed, err := pkg.CreateToken("issuer:" + deps.IssuerAddress)
	if err != nil {
		http.Error(w, "failed to create token", http.StatusInternalServerError)
		return
	}
	writeJSONResp(w, http.StatusOK, map[string]any{"token": signed, "role": "issuer"})
}

// StudentLogin handles POST /api/v1/auth/student-login.
// Body: { "enrollment_number": "...", "password": "..." }
func StudentLogin(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	enrollment, _ := body["enrollment_number"].(string)
	password, _ := body["password"].(string)
	if enrollment == "" || password == "" {
		http.Error(w, "enrollment_number and password are required", http.StatusBadRequest)
		return
	}

	student, err := deps.Students.Get(r.Context(), enrollment)
	if errors.Is(err, store.ErrNotFound) || (err == nil && student.Password != password) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	} else if err != nil {
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}

	signed, err := pkg.CreateToken("student:" + student.EnrollmentNumber)
	if err != nil {
		http.Error(w, "failed to create token", http.StatusInternalServerError)
		return
	}
	writeJSONResp(w, http.StatusOK, map[string]any{
		"token": signed, "role": "student", "student": student,
	})
}

// AuthMe returns the authenticated principal and its role.
// GET /api/v1/auth/me (protected)
func AuthMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := r.Context().Value(middleware.PrincipalKey).(string)
	if !ok || principal == "" {
		http.Error(w, "principal is missing or invalid", http.StatusBadRequest)
		return
	}

	role := "unknown"
	subject := principal
	if after, found := strings.CutPrefix(principal, "issuer:"); found {
		role, subject = "issuer", after
	} else if after, found := strings.CutPrefix(principal, "student:"); found {
		role, subject = "student", after
	}

	writeJSONResp(w, http.StatusOK, map[string]any{
		"principal": subject,
		"role":      role,
		"authStatus": map[string]any{
			"isAuthenticated": true,
			"accountType":     role,
		},
	})
}

// isIssuer reports whether the request principal is the issuing principal.
func isIssuer(r *http.Request) bool {
	principal, ok := r.Context().Value(middleware.PrincipalKey).(string)
	return ok && strings.HasPrefix(principal, "issuer:")
}
