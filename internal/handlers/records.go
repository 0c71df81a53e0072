package handlers

import (
	"net/http"
)

// AllCredentials lists every mirrored credential.
// GET /api/v1/credentials (protected, issuer only)
func AllCredentials(w http.ResponseWriter, r *http.Request) {
	if !isIssuer(r) {
		http.Error(w, "forbidden: issuer role required", http.StatusForbidden)
		return
	}
	creds, err := deps.Credentials.List(r.Context())
	if err != nil {
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}
	writeJSONResp(w, http.StatusOK, creds)
}

// ShowAllTransactions lists the issuance audit trail.
// GET /api/v1/transactions (protected, issuer only)
func ShowAllTransactions(w http.ResponseWriter, r *http.Request) {
	if !isIssuer(r) {
		http.Error(w, "forbidden: issuer role required", http.StatusForbidden)
		return
	}
	txs, err := deps.Transactions.List(r.Context())
	if err != nil {
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}
	writeJSONResp(w, http.StatusOK, txs)
}
