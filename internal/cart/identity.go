package cart

import (
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Identity names the owner of a cart: an authenticated user or an anonymous
// session. When both are present the user wins.
type Identity struct {
	UserID    *uuid.UUID
	SessionID string
}

// UserIdentity builds an identity for an authenticated user.
func UserIdentity(userID uuid.UUID) Identity {
	return Identity{UserID: &userID}
}

// SessionIdentity builds an identity for an anonymous session.
func SessionIdentity(sessionID string) Identity {
	return Identity{SessionID: sessionID}
}

// IsZero reports whether neither a user nor a session is set.
func (i Identity) IsZero() bool {
	return !i.IsUser() && strings.TrimSpace(i.SessionID) == ""
}

// IsUser reports whether the identity resolves to a user cart.
func (i Identity) IsUser() bool {
	return i.UserID != nil && *i.UserID != uuid.Nil
}

// Key is a stable string used for request-scope memoization.
func (i Identity) Key() string {
	if i.IsUser() {
		return "user:" + i.UserID.String()
	}
	return "session:" + strings.TrimSpace(i.SessionID)
}

// Owns reports whether the cart belongs to this identity.
func (i Identity) Owns(cart *models.Cart) bool {
	if cart == nil {
		return false
	}
	if i.IsUser() {
		return cart.UserID != nil && *cart.UserID == *i.UserID
	}
	return cart.UserID == nil && cart.SessionID != nil && *cart.SessionID == strings.TrimSpace(i.SessionID)
}
