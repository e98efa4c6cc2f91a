package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles a user can hold. "admin" can never be self-assigned at signup.
const (
	RoleStudent  = "student"
	RoleEmployer = "employer"
	RoleAdmin    = "admin"
)

// Identity is the authenticated caller extracted from a validated session
// credential. It carries what every authorization decision needs and
// nothing more.
type Identity struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (i *Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

func (i *Identity) HasRole(roles ...string) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

// CanManage is the single authorization predicate for mutating operations on
// owned resources: admins manage everything, everyone else only what they own.
func CanManage(identity *Identity, resourceOwnerID int64) bool {
	if identity == nil {
		return false
	}
	return identity.IsAdmin() || identity.ID == resourceOwnerID
}

// Claims are the JWT session-credential claims.
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenGenerator issues and verifies session credentials.
type TokenGenerator interface {
	Generate(userID int64, email, role string) (token string, expiresAt time.Time, err error)
	Validate(tokenString string) (*Claims, error)
}

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

type ctxKey string

const contextIdentityKey ctxKey = "identity"

func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(contextIdentityKey).(*Identity)
	return id, ok
}

func ContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, contextIdentityKey, identity)
}
