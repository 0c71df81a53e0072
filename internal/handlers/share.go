package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"credledger/internal/middleware"
	"credledger/internal/store"
)

type shareClaims struct {
	Fingerprint string `json:"fingerprint"`
	jwt.RegisteredClaims
}

type generateShareLinkResp struct {
	ShareableURL string `json:"shareable_url"`
}

func getShareSecret() ([]byte, error) {
	if s := os.Getenv("SHARE_TOKEN_SECRET"); s != "" {
		return []byte(s), nil
	}
	if s := os.Getenv("JWT_SECRET"); s != "" {
		return []byte(s), nil
	}
	return nil, errors.New("missing SHARE_TOKEN_SECRET/JWT_SECRET")
}

// GenerateShareLink creates a short-lived public link for one credential.
// POST /api/v1/credentials/generate-share-link (protected)
func GenerateShareLink(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	principal, ok := r.Context().Value(middleware.PrincipalKey).(string)
	if !ok || principal == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	// Be liberal in what we accept from the frontend
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	fp := ""
	if v, ok := payload["fingerprint"].(string); ok {
		fp = strings.TrimSpace(v)
	} else if v, ok := payload["certificate_hash"].(string); ok { // legacy field name
		fp = strings.TrimSpace(v)
	}
	if fp == "" {
		http.Error(w, "fingerprint is required", http.StatusBadRequest)
		return
	}

	// expires_in_hours may come as number or string
	parseHours := func(x any) (int, bool) {
		switch t := x.(type) {
		case float64:
			return int(t), true
		case json.Number:
			if i, err := strconv.Atoi(t.String()); err == nil {
				return i, true
			}
		case string:
			if i, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
				return i, true
			}
		}
		return 0, false
	}
	expires := 0
	for _, key := range []string{"expires_in_hours", "expiresInHours", "duration"} {
		if v, ok := payload[key]; ok {
			if i, ok2 := parseHours(v); ok2 {
				expires = i
				break
			}
		}
	}
	// Enforce 1..168 hours to avoid immediately-expired tokens
	if expires < 1 || expires > 168 {
		http.Error(w, "expires_in_hours must be between 1 and 168", http.StatusBadRequest)
		return
	}

	cred, err := deps.Credentials.Get(r.Context(), fp)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "credential not found", http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}

	// Ownership: the issuer may share anything, a student only their own.
	if enrollment, found := strings.CutPrefix(principal, "student:"); found {
		if !strings.EqualFold(strings.TrimSpace(cred.EnrollmentNumber), strings.TrimSpace(enrollment)) {
			http.Error(w, "forbidden: not owner of credential", http.StatusForbidden)
			return
		}
	} else if !strings.HasPrefix(principal, "issuer:") {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	secret, err := getShareSecret()
	if err != nil {
		http.Error(w, "server misconfigured", http.StatusInternalServerError)
		return
	}

	exp := time.Now().Add(time.Duration(expires) * time.Hour)
	claims := shareClaims{
		Fingerprint: cred.Fingerprint,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(secret)
	if err != nil {
		http.Error(w, "failed to sign share token", http.StatusInternalServerError)
		return
	}

	base := os.Getenv("FRONTEND_BASE_URL")
	if base == "" {
		base = "http://localhost:3000"
	}
	url := fmt.Sprintf("%s/verify/%s?token=%s", trimRightSlash(base), cred.Fingerprint, signed)
	_ = json.NewEncoder(w).Encode(generateShareLinkResp{ShareableURL: url})
}

// GetCredentialInfo serves a shared credential plus its live verdict, so the
// recipient sees a revocation even if it happened after the link was created.
// GET /api/v1/credential-info/{fingerprint}?token=...
func GetCredentialInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fp := chi.URLParam(r, "fingerprint")
	if fp == "" {
		http.Error(w, "missing fingerprint", http.StatusBadRequest)
		return
	}
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "This verification link is invalid or has expired.", http.StatusUnauthorized)
		return
	}

	secret, err := getShareSecret()
	if err != nil {
		http.Error(w, "server misconfigured", http.StatusInternalServerError)
		return
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &shareClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		http.Error(w, "This verification link is invalid or has expired.", http.StatusUnauthorized)
		return
	}
	claims, ok := parsed.Claims.(*shareClaims)
	if !ok || claims.Fingerprint == "" || claims.ExpiresAt == nil || time.Now().After(claims.ExpiresAt.Time) {
		http.Error(w, "This verification link is invalid or has expired.", http.StatusUnauthorized)
		return
	}
	if !strings.EqualFold(claims.Fingerprint, fp) {
		http.Error(w, "forbidden: fingerprint mismatch", http.StatusForbidden)
		return
	}

	cred, err := deps.Credentials.Get(r.Context(), fp)
	if err != nil {
		http.Error(w, "credential not found", http.StatusNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()
	verdict, err := deps.Verifier.VerifyFingerprint(ctx, fp)
	if err != nil {
		http.Error(w, "verification failed", http.StatusInternalServerError)
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"credential":  cred,
		"verdict":     verdict,
		"valid_until": claims.ExpiresAt.Time,
	})
}

func trimRightSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
