package router

import (
	"fmt"
	"net/http"

	"credledger/internal/handlers"
	"credledger/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.CORSMiddleware)
	r.Use(middleware.LoggingMiddleware)

	// Public verification surface
	r.Post("/api/v1/verify", handlers.VerifyFingerprint)
	r.Post("/api/v1/verify-details", handlers.VerifyDetails)
	r.Get("/api/v1/credential-info/{fingerprint}", handlers.GetCredentialInfo)
	r.Get("/credential/{fingerprint}/qrcode", handlers.GetCredentialQRCode)

	// Sessions
	r.Post("/api/v1/auth/login", handlers.Login)
	r.Post("/api/v1/auth/student-login", handlers.StudentLogin)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "ok")
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Get("/api/v1/auth/me", handlers.AuthMe)

		// Holder registry
		r.Post("/api/v1/students", handlers.CreateStudent)
		r.Post("/api/v1/students/bulk", handlers.BulkRegisterStudents)
		r.Get("/api/v1/students", handlers.AllStudents)
		r.Get("/api/v1/students/{enrollment}/credentials", handlers.StudentCredentials)

		// Issuance and revocation
		r.Post("/api/v1/credentials", handlers.MintCredential)
		r.Get("/api/v1/credentials", handlers.AllCredentials)
		r.Post("/api/v1/credentials/{fingerprint}/revoke", handlers.RevokeCredential)
		r.Post("/api/v1/credentials/{fingerprint}/reconcile", handlers.ReconcileCredential)
		r.Get("/api/v1/transactions", handlers.ShowAllTransactions)

		// Short-lived share link for a credential
		r.Post("/api/v1/credentials/generate-share-link", handlers.GenerateShareLink)
	})
	return r
}
