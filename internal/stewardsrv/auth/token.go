// Package auth issues and validates the service's optional bearer tokens.
// Identity normally arrives on forward headers from the proxy; tokens exist
// for API clients that call the service directly.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/stewarddata/steward-internal/internal/common/apperrors"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/auth/keymanager"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/config"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/stewcommon"
	"github.com/stewarddata/steward-internal/pkg/types"
)

const defaultRole = "member"

var (
	keyManagerInstance *keymanager.KeyManager
	keyManagerOnce     sync.Once
)

func getKeyManager() *keymanager.KeyManager {
	keyManagerOnce.Do(func() {
		keyManagerInstance = keymanager.NewKeyManager()
	})
	return keyManagerInstance
}

// accessClaims is the claim set carried by issued tokens.
type accessClaims struct {
	Role     string `json:"role"`
	TokenUse string `json:"token_use"`
	jwt.RegisteredClaims
}

// TokenResponse is the wire form of an issued token.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func tokenIssuer() string {
	return "steward:" + config.Config().Server.Port
}

// IssueToken signs a short-lived access token for the calling identity. The
// subject is the caller's email when the proxy supplied one.
func IssueToken(ctx context.Context, role string) (*TokenResponse, apperrors.Error) {
	if !config.Config().Auth.Enabled {
		return nil, ErrAuthDisabled
	}

	user := stewcommon.UserContextFromContext(ctx)
	subject := ""
	if user != nil {
		subject = user.Email
	}
	if subject == "" {
		subject = user.DisplayName()
	}
	if role == "" {
		role = defaultRole
	}

	tokenDuration, err := config.ParseTokenDuration(config.Config().Auth.TokenValidity)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("unable to parse token validity")
		return nil, ErrUnableToGenerateToken
	}
	tokenExpiry := time.Now().Add(tokenDuration)

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, accessClaims{
		Role:     role,
		TokenUse: string(types.TokenTypeIdentity),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    tokenIssuer(),
			Audience:  jwt.ClaimStrings{tokenIssuer()},
			ExpiresAt: jwt.NewNumericDate(tokenExpiry),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.NewString(),
		},
	})

	signingKey, aerr := getKeyManager().GetActiveKey(ctx)
	if aerr != nil {
		log.Ctx(ctx).Error().Err(aerr).Msg("unable to get active signing key")
		return nil, aerr
	}

	tokenString, err := token.SignedString(signingKey.PrivateKey)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("unable to sign token")
		return nil, ErrUnableToGenerateToken
	}

	log.Ctx(ctx).Info().Str("subject", subject).Str("role", role).Msg("issued access token")
	return &TokenResponse{
		AccessToken: tokenString,
		TokenType:   "Bearer",
		ExpiresAt:   tokenExpiry,
	}, nil
}
