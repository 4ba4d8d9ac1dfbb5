package stewcommon

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

// Sealed blobs are laid out as [salt|nonce|ciphertext]. The salt feeds the
// argon2id derivation, the nonce feeds AES-GCM, and both travel with the
// ciphertext so a blob is self-contained.
const (
	sealSaltLen  = 16
	sealNonceLen = 12
	sealKeyLen   = 32

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

func sealCipher(passwd string, salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey([]byte(passwd), salt, argonTime, argonMemory, argonThreads, sealKeyLen)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt seals data under a passphrase-derived key. Used for signing key
// material stored at rest.
func Encrypt(data []byte, passwd string) ([]byte, error) {
	header := make([]byte, sealSaltLen+sealNonceLen)
	if _, err := io.ReadFull(rand.Reader, header); err != nil {
		return nil, err
	}
	salt, nonce := header[:sealSaltLen], header[sealSaltLen:]

	aead, err := sealCipher(passwd, salt)
	if err != nil {
		return nil, err
	}
	return aead.Seal(header, nonce, data, nil), nil
}

// Decrypt opens a blob produced by Encrypt. A wrong passphrase fails
// authentication and returns an error.
func Decrypt(blob []byte, passwd string) ([]byte, error) {
	if len(blob) < sealSaltLen+sealNonceLen {
		return nil, fmt.Errorf("encrypted blob too short")
	}
	salt := blob[:sealSaltLen]
	nonce := blob[sealSaltLen : sealSaltLen+sealNonceLen]
	ciphertext := blob[sealSaltLen+sealNonceLen:]

	aead, err := sealCipher(passwd, salt)
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, nonce, ciphertext, nil)
}
