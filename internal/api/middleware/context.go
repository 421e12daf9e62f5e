package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/dsxmeta/pkg/models"
)

type contextKey int

const (
	identityKey contextKey = iota
	identitySlotKey
)

// Identity is the caller resolved from its API key.
type Identity struct {
	TenantID  uuid.UUID
	KeyPrefix string
	Key       *models.APIKey
}

// identitySlot lets an outer middleware see the identity that auth resolves
// further down the chain.
type identitySlot struct {
	id *Identity
}

func withIdentity(ctx context.Context, id *Identity) context.Context {
	if slot, ok := ctx.Value(identitySlotKey).(*identitySlot); ok {
		slot.id = id
	}
	return context.WithValue(ctx, identityKey, id)
}

func identityFrom(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil
}

// GetTenantID returns the tenant of the authenticated caller.
func GetTenantID(r *http.Request) (uuid.UUID, bool) {
	id, ok := identityFrom(r.Context())
	if !ok {
		return uuid.Nil, false
	}
	return id.TenantID, true
}

// WithAuth returns ctx as the auth middleware would leave it. Used by handler tests.
func WithAuth(ctx context.Context, tenantID uuid.UUID, prefix string, scopes ...string) context.Context {
	return withIdentity(ctx, &Identity{
		TenantID:  tenantID,
		KeyPrefix: prefix,
		Key:       &models.APIKey{TenantID: tenantID, KeyPrefix: prefix, Scopes: scopes},
	})
}
