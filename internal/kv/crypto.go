package kv

import (
	"crypto/rand"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// deriveKey derives a 32-byte ChaCha20-Poly1305 key from a password and a
// store-embedded salt.
func deriveKey(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize)
}

// seal encrypts plaintext under key, returning nonce||ciphertext so the
// nonce travels with the value instead of needing its own column.
func seal(key, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, nil), nil
}

// open reverses seal, returning the AEAD's own error on authentication
// failure (the tag is the only signal we get: a wrong key and a corrupt
// ciphertext are indistinguishable, so both surface as the same error;
// callers map it to ErrWrongPassword or ErrDeserializaton).
func open(key, sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < chacha20poly1305.NonceSizeX {
		return nil, errShortCiphertext
	}
	nonce, ciphertext := sealed[:chacha20poly1305.NonceSizeX], sealed[chacha20poly1305.NonceSizeX:]
	plain := make([]byte, 0, len(ciphertext))
	return aead.Open(plain, nonce, ciphertext, nil)
}

func memZero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
