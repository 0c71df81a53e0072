// Package notify tells the holder a credential was issued. Delivery is
// best-effort: a failed notification never invalidates the issuance.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"credledger/internal/models"
)

// Notifier dispatches an issued-credential notification to the holder.
type Notifier interface {
	CredentialIssued(cred models.Credential, email string) error
}

// WebhookNotifier POSTs the notification payload to a hosted mailer function.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhook(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *WebhookNotifier) CredentialIssued(cred models.Credential, email string) error {
	payload := map[string]any{
		"studentEmail":     email,
		"studentName":      cred.StudentName,
		"enrollmentNumber": cred.EnrollmentNumber,
		"course":           cred.Program,
		"institution":      cred.Institution,
		"issueYear":        cred.IssueYear,
		"certificateHash":  cred.Fingerprint,
		"transactionHash":  cred.TransactionHash,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	resp, err := n.client.Post(n.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notifier returned %s", resp.Status)
	}
	return nil
}
