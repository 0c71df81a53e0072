package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"credledger/internal/models"
	"credledger/internal/store"
)

// CreateStudent registers a holder. A credential can only be issued for an
// enrollment number registered here first.
// POST /api/v1/students (protected, issuer only)
func CreateStudent(w http.ResponseWriter, r *http.Request) {
	log.Println("CreateStudent called")
	if !isIssuer(r) {
		http.Error(w, "forbidden: issuer role required", http.StatusForbidden)
		return
	}

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	enrollment, _ := body["enrollment_number"].(string)
	name, _ := body["name"].(string)
	email, _ := body["email"].(string)
	program, _ := body["program"].(string)
	password, _ := body["password"].(string)

	if enrollment == "" || name == "" || password == "" {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{
			"status": "Bad_Request", "message": "enrollment_number, name and password are required",
		})
		return
	}

	student := models.Student{
		EnrollmentNumber: enrollment,
		Name:             name,
		Email:            email,
		Program:          program,
		Password:         password,
		RegistrationDate: time.Now().UTC(),
	}
	if err := deps.Students.Put(r.Context(), student); errors.Is(err, store.ErrDuplicate) {
		writeJSONResp(w, http.StatusConflict, map[string]any{
			"status": "Conflict", "message": "A student with this enrollment number already exists.",
		})
		return
	} else if err != nil {
		http.Error(w, "failed to create student", http.StatusInternalServerError)
		return
	}

	writeJSONResp(w, http.StatusCreated, map[string]any{"student": student})
}

// AllStudents lists registered holders.
// GET /api/v1/students (protected)
func AllStudents(w http.ResponseWriter, r *http.Request) {
	students, err := deps.Students.List(r.Context())
	if err != nil {
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}
	writeJSONResp(w, http.StatusOK, students)
}

// StudentCredentials lists the mirror records for one enrollment number.
// GET /api/v1/students/{enrollment}/credentials (protected)
func StudentCredentials(w http.ResponseWriter, r *http.Request) {
	enrollment := chi.URLParam(r, "enrollment")
	if enrollment == "" {
		http.Error(w, "missing enrollment", http.StatusBadRequest)
		return
	}
	creds, err := deps.Credentials.FindByEnrollment(r.Context(), enrollment)
	if err != nil {
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}
	writeJSONResp(w, http.StatusOK, creds)
}
