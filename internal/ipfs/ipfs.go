// Package ipfs pins credential attachments (holder photo, source document)
// and hands back gateway URLs for the local mirror.
package ipfs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zde37/pinata-go-sdk/pinata"
)

// Pinner stores one attachment blob and returns a fetchable URL.
type Pinner interface {
	PinBytes(name string, data []byte) (string, error)
}

// PinataPinner pins through the Pinata API.
type PinataPinner struct {
	client  *pinata.Client
	gateway string
}

// NewPinata builds a pinner from PINATA_JWT and an optional
// PINATA_GATEWAY_URL override.
func NewPinata() (*PinataPinner, error) {
	jwt := os.Getenv("PINATA_JWT")
	if jwt == "" {
		return nil, fmt.Errorf("missing PINATA_JWT")
	}
	gateway := os.Getenv("PINATA_GATEWAY_URL")
	if gateway == "" {
		gateway = "https://gateway.pinata.cloud/ipfs"
	}
	auth := pinata.NewAuthWithJWT(jwt)
	return &PinataPinner{client: pinata.New(auth), gateway: gateway}, nil
}

func (p *PinataPinner) PinBytes(name string, data []byte) (string, error) {
	// The SDK pins from a file path, so stage the blob in a temp file.
	tmp, err := os.CreateTemp("", "attach-*"+filepath.Ext(name))
	if err != nil {
		return "", fmt.Errorf("stage attachment: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("stage attachment: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("stage attachment: %w", err)
	}

	resp, err := p.client.PinFile(tmp.Name(), nil)
	if err != nil {
		return "", fmt.Errorf("pin %s: %w", name, err)
	}
	return fmt.Sprintf("%s/%s", p.gateway, resp.IpfsHash), nil
}
