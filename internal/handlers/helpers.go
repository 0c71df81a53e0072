package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"credledger/internal/issuer"
	"credledger/internal/ledger"
	"credledger/internal/revocation"
	"credledger/internal/store"
	"credledger/internal/verifier"
)

// Deps carries everything the handlers touch. Wired once at startup; tests
// swap in in-memory stores and a fake ledger.
type Deps struct {
	Issuer        *issuer.Issuer
	Verifier      *verifier.Verifier
	Revocations   *revocation.Manager
	Credentials   store.CredentialStore
	Students      store.StudentStore
	Transactions  store.TransactionStore
	IssuerAddress string
}

var deps Deps

func Init(d Deps) {
	deps = d
}

func writeJSONResp(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeDomainError maps typed failures to the response vocabulary so clients
// can tell "try again" from "never valid".
func writeDomainError(w http.ResponseWriter, err error) {
	var vErr *issuer.ValidationError
	var pErr *issuer.PartialIssuanceError
	switch {
	case errors.As(err, &vErr):
		writeJSONResp(w, http.StatusBadRequest, map[string]any{
			"status": "Bad_Request", "message": vErr.Error(),
		})
	case errors.Is(err, issuer.ErrUnregisteredHolder):
		writeJSONResp(w, http.StatusUnprocessableEntity, map[string]any{
			"status":  "Unregistered_Holder",
			"message": "Student not registered. Please register first.",
		})
	case errors.As(err, &pErr):
		writeJSONResp(w, http.StatusBadGateway, map[string]any{
			"status":           "Partial_Issuance",
			"fingerprint":      pErr.Fingerprint,
			"transaction_hash": pErr.TxHash,
			"message":          "Ledger confirmed the credential but the local record write failed. Run reconcile for this fingerprint.",
		})
	case errors.Is(err, ledger.ErrUnauthorizedSigner):
		writeJSONResp(w, http.StatusForbidden, map[string]any{
			"status": "Ledger_Rejected", "message": "Configured signer is not authorized to issue.",
		})
	case errors.Is(err, ledger.ErrRejected):
		writeJSONResp(w, http.StatusBadGateway, map[string]any{
			"status": "Ledger_Rejected", "message": "The ledger declined the transaction. Nothing was recorded.",
		})
	case errors.Is(err, ledger.ErrUnreachable):
		writeJSONResp(w, http.StatusServiceUnavailable, map[string]any{
			"status": "Ledger_Unreachable", "message": "The ledger node could not be reached. Try again later.",
		})
	case errors.Is(err, revocation.ErrMissingReason):
		writeJSONResp(w, http.StatusBadRequest, map[string]any{
			"status": "Missing_Reason", "message": "A revocation reason is required.",
		})
	case errors.Is(err, revocation.ErrUnknownCredential), errors.Is(err, ledger.ErrNotFound), errors.Is(err, store.ErrNotFound):
		writeJSONResp(w, http.StatusNotFound, map[string]any{
			"status": "Not_Found", "message": "No record found for the given identifier.",
		})
	case errors.Is(err, store.ErrAlreadyRevoked):
		writeJSONResp(w, http.StatusConflict, map[string]any{
			"status": "Already_Revoked", "message": "This credential has already been revoked.",
		})
	case errors.Is(err, store.ErrDuplicate):
		writeJSONResp(w, http.StatusConflict, map[string]any{
			"status": "Conflict", "message": "A record with this key already exists.",
		})
	default:
		writeJSONResp(w, http.StatusInternalServerError, map[string]any{
			"status": "Server_Error", "message": "internal error",
		})
	}
}
