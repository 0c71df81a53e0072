package handlers

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"credledger/internal/models"
)

// BulkRegisterStudents handles CSV bulk registration of holders.
// POST /api/v1/students/bulk (protected, issuer only)
func BulkRegisterStudents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !isIssuer(r) {
		http.Error(w, "forbidden: issuer role required", http.StatusForbidden)
		return
	}

	if err := r.ParseMultipartForm(50 << 20); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	// Tolerant file field lookup: prefer "studentsCsv", then alternatives,
	// then the first file field present.
	var file multipart.File
	var header *multipart.FileHeader
	var err error

	file, header, err = r.FormFile("studentsCsv")
	if err != nil {
		alts := []string{"students", "csv", "file", "upload", "students_file", "studentsCSV"}
		available := []string{}
		if r.MultipartForm != nil && r.MultipartForm.File != nil {
			for k := range r.MultipartForm.File {
				available = append(available, k)
			}
		}
		for _, a := range alts {
			if f2, h2, e2 := r.FormFile(a); e2 == nil {
				file, header, err = f2, h2, nil
				break
			}
		}
		if err != nil && len(available) > 0 {
			if f2, h2, e2 := r.FormFile(available[0]); e2 == nil {
				file, header, err = f2, h2, nil
			}
		}
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error":               "studentsCsv file is required",
				"expected_field":      "studentsCsv",
				"available_file_keys": available,
			})
			return
		}
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	requiredHeaders := []string{"enrollment_number", "name", "email", "program", "password"}
	headers, err := reader.Read()
	if err != nil {
		http.Error(w, "unable to read CSV header", http.StatusBadRequest)
		return
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(strings.ToLower(headers[i]))
	}
	if !equalStringSlices(headers, requiredHeaders) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":    "Invalid CSV format. Please use the provided template.",
			"expected": requiredHeaders,
			"got":      headers,
		})
		return
	}

	// Every row is validated before anything is written, and the insert is a
	// single atomic batch: a bad file leaves the registry untouched.
	var students []models.Student
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			http.Error(w, "failed to read CSV rows", http.StatusBadRequest)
			return
		}
		if len(rec) != len(requiredHeaders) {
			http.Error(w, "row does not match header length", http.StatusBadRequest)
			return
		}

		student := models.Student{
			EnrollmentNumber: strings.TrimSpace(rec[0]),
			Name:             strings.TrimSpace(rec[1]),
			Email:            strings.TrimSpace(rec[2]),
			Program:          strings.TrimSpace(rec[3]),
			Password:         strings.TrimSpace(rec[4]),
			RegistrationDate: time.Now().UTC(),
		}
		if student.EnrollmentNumber == "" || student.Name == "" {
			http.Error(w, "enrollment_number and name are required in every row", http.StatusBadRequest)
			return
		}
		students = append(students, student)
	}

	count, duplicates, err := deps.Students.BulkPut(r.Context(), students)
	if err != nil {
		http.Error(w, "failed to register students", http.StatusInternalServerError)
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"message":            fmt.Sprintf("Successfully registered %d students. Skipped %d duplicates.", count, duplicates),
		"inserted":           count,
		"duplicates_skipped": duplicates,
		"file":               header.Filename,
	})
}

func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
