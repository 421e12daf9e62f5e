package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/dsxmeta/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

const keyPrefix = "dsx_"

// NewAPIKey generates a raw key and the record to persist for it. The raw key
// is returned once and never stored.
func NewAPIKey(tenantID uuid.UUID, name string, scopes []string) (string, *models.APIKey, error) {
	for _, s := range scopes {
		if !models.ValidScope(s) {
			return "", nil, fmt.Errorf("unknown scope %q", s)
		}
	}

	secret := make([]byte, 16)
	if _, err := rand.Read(secret); err != nil {
		return "", nil, fmt.Errorf("generate key: %w", err)
	}
	raw := keyPrefix + hex.EncodeToString(secret)

	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("hash key: %w", err)
	}

	now := time.Now().UTC()
	return raw, &models.APIKey{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      name,
		KeyHash:   string(hash),
		KeyPrefix: raw[:KeyPrefixLen],
		Scopes:    scopes,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
