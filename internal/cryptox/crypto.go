// Package cryptox implements the key custody primitives of the vault:
// per-file content keys, envelope wrapping of those keys under a
// caller-held master key, and AEAD encryption of file bodies.
//
// Envelope encryption keeps master-key rotation cheap: only the wrapped
// key blobs need re-wrapping, never the file bodies themselves.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"

	"github.com/cryptovault/vaultd/internal/common"
	"golang.org/x/crypto/argon2"
)

// AlgAES256GCM identifies the authenticated construction used for both
// key wrapping and content encryption.
const AlgAES256GCM = "aes-256-gcm"

// ContentKeySize is the size of the per-file symmetric key (AES-256).
const ContentKeySize = 32

// WrapMeta carries everything needed to unwrap a wrapped content key
// except the master key itself. The GCM auth tag is folded into the
// wrapped ciphertext.
type WrapMeta struct {
	Alg   string
	Nonce []byte
}

// DeriveMasterKey derives a 32-byte master key from a passphrase and salt
// using argon2id.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// GenerateContentKey produces a fresh cryptographically random content
// key. The caller owns the key and must wipe it after use; it is never
// logged and never persisted unwrapped.
func GenerateContentKey() ([]byte, error) {
	key := make([]byte, ContentKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Wrap encrypts rawKey under masterKey with AES-256-GCM. A fresh random
// nonce is generated on every call; reusing a nonce under the same master
// key would void the construction's guarantees.
func Wrap(rawKey, masterKey []byte) ([]byte, WrapMeta, error) {
	aead, err := newGCM(masterKey)
	if err != nil {
		return nil, WrapMeta{}, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, WrapMeta{}, err
	}

	wrapped := aead.Seal(nil, nonce, rawKey, nil)
	return wrapped, WrapMeta{Alg: AlgAES256GCM, Nonce: nonce}, nil
}

// Unwrap authenticates and decrypts a wrapped content key. Any failure,
// whether from a tampered ciphertext, a wrong master key, or corrupted
// metadata, surfaces as common.ErrKeyUnwrap; no partial plaintext is
// ever returned.
func Unwrap(wrapped []byte, meta WrapMeta, masterKey []byte) ([]byte, error) {
	if meta.Alg != AlgAES256GCM {
		return nil, common.ErrKeyUnwrap
	}

	aead, err := newGCM(masterKey)
	if err != nil {
		return nil, common.ErrKeyUnwrap
	}
	if len(meta.Nonce) != aead.NonceSize() {
		return nil, common.ErrKeyUnwrap
	}

	rawKey, err := aead.Open(nil, meta.Nonce, wrapped, nil)
	if err != nil {
		return nil, common.ErrKeyUnwrap
	}
	return rawKey, nil
}

// EncryptContent encrypts a file body under the given content key and
// returns the ciphertext together with the nonce used.
func EncryptContent(plaintext, key []byte) (ciphertext, nonce []byte, err error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}

	return aead.Seal(nil, nonce, plaintext, nil), nonce, nil
}

// DecryptContent reverses EncryptContent.
func DecryptContent(ciphertext, nonce, key []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, nonce, ciphertext, nil)
}
