package models

import (
	"time"
)

// Credential is the local mirror of a ledger-issued certificate. Rows are
// immutable once written; a reissue gets a fresh fingerprint and a fresh row.
type Credential struct {
	Fingerprint      string    `gorm:"primaryKey;size:66" json:"fingerprint"`
	TransactionHash  string    `gorm:"size:66" json:"transaction_hash"`
	StudentName      string    `gorm:"not null" json:"student_name"`
	EnrollmentNumber string    `gorm:"index;not null" json:"enrollment_number"`
	Program          string    `gorm:"not null" json:"program"`
	Institution      string    `gorm:"not null" json:"institution"`
	IssueYear        int       `json:"issue_year"`
	IssueDate        time.Time `json:"issue_date"`
	PhotoURL         string    `json:"photo_url,omitempty"`
	DocumentURL      string    `json:"document_url,omitempty"`
	CreatedAt        time.Time `json:"-"`
}

// Student must exist before a credential can be issued for its enrollment number.
type Student struct {
	EnrollmentNumber string    `gorm:"primaryKey" json:"enrollment_number"`
	Name             string    `gorm:"not null" json:"name"`
	Email            string    `json:"email,omitempty"`
	Program          string    `json:"program"`
	Password         string    `gorm:"not null" json:"-"`
	RegistrationDate time.Time `json:"registration_date"`
}

// Revocation is local-authoritative: the ledger has no revoke capability, so
// a row here overrides ledger validity. The fingerprint primary key makes a
// second revocation of the same credential a duplicate-key error.
type Revocation struct {
	Fingerprint string    `gorm:"primaryKey;size:66" json:"fingerprint"`
	Reason      string    `gorm:"not null" json:"reason"`
	RevokedBy   string    `json:"revoked_by"`
	RevokedAt   time.Time `json:"revoked_at"`
}

// Transaction is the issuance audit trail: one row per confirmed ledger write.
type Transaction struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Fingerprint     string    `gorm:"index;size:66" json:"fingerprint"`
	TransactionHash string    `gorm:"size:66" json:"transaction_hash"`
	BlockNumber     uint64    `json:"block_number"`
	IssuerAddress   string    `json:"issuer_address"`
	CreatedAt       time.Time `json:"created_at"`
}
