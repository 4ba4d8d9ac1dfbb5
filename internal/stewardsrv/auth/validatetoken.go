package auth

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"github.com/stewarddata/steward-internal/internal/common/apperrors"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/stewcommon"
	"github.com/stewarddata/steward-internal/pkg/types"
)

// ValidateToken parses and verifies a bearer token and returns a context
// carrying the token's principal. The token subject becomes the caller's
// Subject; forward-header identity already in the context is kept.
func ValidateToken(ctx context.Context, tokenString string) (context.Context, apperrors.Error) {
	if tokenString == "" {
		return ctx, ErrInvalidToken.Msg("empty token")
	}

	signingKey, err := getKeyManager().GetActiveKey(ctx)
	if err != nil {
		return ctx, err
	}

	token, parseErr := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return signingKey.PublicKey, nil
	})
	if parseErr != nil {
		log.Ctx(ctx).Debug().Err(parseErr).Msg("failed to parse token")
		return ctx, ErrInvalidToken.Err(parseErr)
	}
	if !token.Valid {
		return ctx, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ctx, ErrInvalidToken
	}

	subject, ok := claims["sub"].(string)
	if !ok || subject == "" {
		return ctx, ErrInvalidToken.Msg("token has no subject")
	}
	issuer, ok := claims["iss"].(string)
	if !ok || issuer != tokenIssuer() {
		return ctx, ErrInvalidToken.Msg("token issued by another server")
	}

	tokenUse := types.TokenTypeUnknown
	if use, ok := claims["token_use"].(string); ok {
		tokenUse = types.TokenType(use)
	}

	user := stewcommon.UserContextFromContext(ctx)
	if user == nil {
		user = &stewcommon.UserContext{}
	} else {
		copied := *user
		user = &copied
	}
	user.Subject = subject

	ctx = stewcommon.SetUserContext(ctx, user)
	ctx = stewcommon.SetTokenType(ctx, tokenUse)
	return ctx, nil
}
