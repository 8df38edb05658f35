package gg20

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/gob"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// Recovery lets a party reconstruct its shares for a key it has lost
// locally, using only its mnemonic-derived seed and ciphertext the
// client held onto since keygen (grounded on
// original_source/src/gg20/recover.rs). tss-lib has no tofn-style
// recover_party_keypair/SecretKeyShare.recover pair, so rather than
// invent an incompatible keypair-recovery scheme this derives a
// deterministic per-share AEAD key from the seed and the key uid and
// uses it to seal/open the same opaque LocalPartySaveData blobs keygen
// already produces. This is recorded in DESIGN.md as a narrowing of the
// reference recovery cryptography, not a reimplementation of it.

// deriveRecoveryKey is deterministic in (seed, keyUID, shareIndex): every
// party can recompute it at recovery time from the same mnemonic it used
// at keygen time, with no coordination.
func deriveRecoveryKey(seed SecretRecoveryKey, keyUID string, shareIndex int) [32]byte {
	h := sha256.New()
	h.Write(seed[:])
	h.Write([]byte(keyUID))
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], uint32(shareIndex))
	h.Write(idx[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func sealShare(key [32]byte, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

func openShare(key [32]byte, sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize() {
		return nil, fmt.Errorf("gg20: recovery ciphertext too short")
	}
	nonce, ct := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	return aead.Open(nil, nonce, ct, nil)
}

// SealPrivateRecoverInfo produces the opaque blob a client stashes as
// KeygenOutput.PrivateRecoverInfo: one AEAD-sealed copy of each share
// this party holds, keyed off its mnemonic seed so only this same party
// can ever open it again.
func SealPrivateRecoverInfo(seed SecretRecoveryKey, keyUID string, shares [][]byte) ([]byte, error) {
	sealed := make([][]byte, len(shares))
	for i, s := range shares {
		key := deriveRecoveryKey(seed, keyUID, i)
		ct, err := sealShare(key, s)
		if err != nil {
			return nil, fmt.Errorf("gg20: sealing recovery info for share %d: %w", i, err)
		}
		sealed[i] = ct
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(sealed); err != nil {
		return nil, fmt.Errorf("gg20: encoding recovery info: %w", err)
	}
	return buf.Bytes(), nil
}

// OpenPrivateRecoverInfo reverses SealPrivateRecoverInfo, returning the
// raw per-share LocalPartySaveData blobs ready to persist as a
// PartyInfo.SecretKeyShares.
func OpenPrivateRecoverInfo(seed SecretRecoveryKey, keyUID string, blob []byte) ([][]byte, error) {
	var sealed [][]byte
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&sealed); err != nil {
		return nil, fmt.Errorf("gg20: decoding recovery info: %w", err)
	}
	shares := make([][]byte, len(sealed))
	for i, ct := range sealed {
		key := deriveRecoveryKey(seed, keyUID, i)
		pt, err := openShare(key, ct)
		if err != nil {
			return nil, fmt.Errorf("gg20: opening recovery info for share %d: %w", i, err)
		}
		shares[i] = pt
	}
	return shares, nil
}
