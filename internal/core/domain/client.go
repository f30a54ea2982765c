// Package domain defines the core domain models for keymesh.
package domain

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// ClientIDPrefix is the prefix for connection IDs.
const ClientIDPrefix = "kmcl-"

// GenerateClientID generates a connection ID using ULID.
// Format: kmcl-{ulid_lowercase}, 31 characters total.
func GenerateClientID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", ErrInternal.WithCause(err)
	}
	return ClientIDPrefix + strings.ToLower(id.String()), nil
}

// IsValidClientID checks if the string is a valid connection ID.
func IsValidClientID(id string) bool {
	if !strings.HasPrefix(id, ClientIDPrefix) {
		return false
	}
	ulidPart := strings.ToUpper(strings.TrimPrefix(id, ClientIDPrefix))
	_, err := ulid.Parse(ulidPart)
	return err == nil
}
