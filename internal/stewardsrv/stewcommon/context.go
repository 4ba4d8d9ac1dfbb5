// Package stewcommon provides context management utilities for the steward
// service. It carries the authenticated user identity and request-scoped
// metadata through the handler chain.
package stewcommon

import (
	"context"

	"github.com/stewarddata/steward-internal/pkg/types"
)

// ctxKeyType represents the type for all context keys
type ctxKeyType string

const (
	ctxUserContextKey ctxKeyType = "StewardUserContext"
	ctxTokenTypeKey   ctxKeyType = "StewardTokenType"
	ctxTestContextKey ctxKeyType = "StewardTestContext"
)

// UserContext represents the identity of the caller as resolved from
// forward headers or a validated access token.
type UserContext struct {
	// Email is the caller's email address
	Email string
	// Username is the caller's preferred username
	Username string
	// User is the opaque user identifier supplied by the proxy
	User string
	// Subject is the token subject when the caller authenticated with a token
	Subject string
}

// SetUserContext sets the user context in the provided context.
func SetUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, ctxUserContextKey, user)
}

// UserContextFromContext retrieves the user context from the provided context.
func UserContextFromContext(ctx context.Context) *UserContext {
	if user, ok := ctx.Value(ctxUserContextKey).(*UserContext); ok {
		return user
	}
	return nil
}

// DisplayName returns the best available human-readable identity for the
// caller, falling back to "unknown" when nothing was supplied.
func (u *UserContext) DisplayName() string {
	if u == nil {
		return "unknown"
	}
	if u.Username != "" {
		return u.Username
	}
	if u.Email != "" {
		return u.Email
	}
	if u.Subject != "" {
		return u.Subject
	}
	if u.User != "" {
		return u.User
	}
	return "unknown"
}

// SetTokenType sets the type of the validated access token in the context.
func SetTokenType(ctx context.Context, t types.TokenType) context.Context {
	return context.WithValue(ctx, ctxTokenTypeKey, t)
}

// TokenTypeFromContext retrieves the access token type from the context.
func TokenTypeFromContext(ctx context.Context) types.TokenType {
	if t, ok := ctx.Value(ctxTokenTypeKey).(types.TokenType); ok {
		return t
	}
	return types.TokenTypeUnknown
}

// SetTestContext marks the context as a test context.
func SetTestContext(ctx context.Context, val bool) context.Context {
	return context.WithValue(ctx, ctxTestContextKey, val)
}

// IsTestContext reports whether the context was marked as a test context.
func IsTestContext(ctx context.Context) bool {
	if val, ok := ctx.Value(ctxTestContextKey).(bool); ok {
		return val
	}
	return false
}
