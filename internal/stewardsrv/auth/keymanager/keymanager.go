// Package keymanager owns the token signing key pair. The private key is
// stored encrypted at rest and decrypted once per process; rotation is a
// matter of deactivating the stored key and restarting.
package keymanager

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/stewarddata/steward-internal/internal/common/apperrors"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/config"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/dberror"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/models"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/stewcommon"
)

// SigningKey is a decrypted key pair ready for signing tokens.
type SigningKey struct {
	KeyID      uuid.UUID
	PrivateKey ed25519.PrivateKey
	PublicKey  ed25519.PublicKey
	ExpiresAt  time.Time
}

// IsExpired checks if the signing key has expired. A zero expiry never
// expires.
func (sk *SigningKey) IsExpired() bool {
	return !sk.ExpiresAt.IsZero() && sk.ExpiresAt.Before(time.Now())
}

// KeyManager caches the active signing key for the life of the process.
type KeyManager struct {
	activeKey *SigningKey
	mu        sync.Mutex
}

// NewKeyManager creates a new KeyManager instance
func NewKeyManager() *KeyManager {
	return &KeyManager{}
}

// GetActiveKey retrieves the active signing key, creating and storing a new
// one if none exists yet.
func (km *KeyManager) GetActiveKey(ctx context.Context) (*SigningKey, apperrors.Error) {
	if km.activeKey != nil {
		return km.activeKey, nil
	}
	return km.retrieveOrCreateKey(ctx)
}

func (km *KeyManager) retrieveOrCreateKey(ctx context.Context) (*SigningKey, apperrors.Error) {
	km.mu.Lock()
	defer km.mu.Unlock()

	if km.activeKey != nil {
		return km.activeKey, nil
	}

	key, err := db.DB(ctx).GetActiveSigningKey(ctx)
	if err != nil {
		if !errors.Is(err, dberror.ErrNotFound) {
			return nil, err
		}
	}

	if key == nil {
		pub, priv, genErr := ed25519.GenerateKey(rand.Reader)
		if genErr != nil {
			log.Ctx(ctx).Error().Err(genErr).Msg("unable to generate signing key")
			return nil, apperrors.New("unable to generate signing key").Err(genErr)
		}

		encKey, encErr := stewcommon.Encrypt(priv, config.Config().Auth.KeyEncryptionPasswd)
		if encErr != nil {
			log.Ctx(ctx).Error().Err(encErr).Msg("unable to encrypt signing key")
			return nil, apperrors.New("unable to encrypt signing key").Err(encErr)
		}

		key = &models.SigningKey{
			PublicKey:  pub,
			PrivateKey: encKey,
			IsActive:   true,
		}
		if err := db.DB(ctx).CreateSigningKey(ctx, key); err != nil {
			return nil, err
		}

		km.activeKey = &SigningKey{
			KeyID:      key.KeyID,
			PrivateKey: priv,
			PublicKey:  pub,
		}
		log.Ctx(ctx).Info().Str("key_id", key.KeyID.String()).Msg("generated new signing key")
	} else {
		decKey, decErr := stewcommon.Decrypt(key.PrivateKey, config.Config().Auth.KeyEncryptionPasswd)
		if decErr != nil {
			log.Ctx(ctx).Error().Err(decErr).Msg("unable to decrypt signing key")
			return nil, apperrors.New("unable to decrypt signing key").Err(decErr)
		}

		km.activeKey = &SigningKey{
			KeyID:      key.KeyID,
			PrivateKey: decKey,
			PublicKey:  key.PublicKey,
		}
	}

	return km.activeKey, nil
}
