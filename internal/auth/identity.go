package auth

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	AdminToken = "admin-token"
	GuestToken = "guest-token"

	AdminSentinelID = "admin-id"
	GuestSentinelID = "guest-id"
)

// Identity is the claim every authorization decision is made against.
type Identity struct {
	ID      string
	IsAdmin bool
	IsGuest bool
}

// ObjectID returns the identity's id as a stored user id. Sentinel identities
// have no stored user and report false.
func (i Identity) ObjectID() (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(i.ID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

type ctxKey string

const identityKey ctxKey = "identity"

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
