package handlers

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"
)

// GetCredentialQRCode renders the public verification URL for a fingerprint
// as a PNG QR code.
// GET /credential/{fingerprint}/qrcode
func GetCredentialQRCode(w http.ResponseWriter, r *http.Request) {
	fp := chi.URLParam(r, "fingerprint")
	if fp == "" {
		http.Error(w, "missing fingerprint", http.StatusBadRequest)
		return
	}

	base := os.Getenv("FRONTEND_BASE_URL")
	if base == "" {
		base = "http://localhost:3000"
	}
	data := trimRightSlash(base) + "/verify/" + fp

	png, err := qrcode.Encode(data, qrcode.Medium, 256)
	if err != nil {
		http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
