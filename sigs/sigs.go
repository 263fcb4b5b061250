// Package sigs signs and verifies message payloads with secp256k1,
// delegating to github.com/filecoin-project/go-crypto — the same library
// lotus's own signing layer wraps — for the curve math and recovery byte.
package sigs

import (
	"fmt"

	fcrypto "github.com/filecoin-project/go-crypto"
	"golang.org/x/crypto/blake2b"
)

// SignatureLen is the wire length of a secp256k1 signature: 64-byte (r‖s)
// plus a 1-byte recovery id.
const SignatureLen = 65

// Sign hashes msg with BLAKE2b-256 and signs the digest, returning the
// 65-byte (r‖s‖v) signature in canonical low-s form, as go-crypto.Sign
// already produces.
func Sign(privKey, msg []byte) ([65]byte, error) {
	var out [65]byte
	digest := blake2b.Sum256(msg)
	sig, err := fcrypto.Sign(privKey, digest[:])
	if err != nil {
		return out, fmt.Errorf("sigs: sign: %w", err)
	}
	if len(sig) != SignatureLen {
		return out, fmt.Errorf("sigs: unexpected signature length %d, want %d", len(sig), SignatureLen)
	}
	copy(out[:], sig)
	return out, nil
}

// Verify recovers the public key embedded in sig and reports whether it
// matches pubKey for the given message.
func Verify(pubKey, msg []byte, sig [65]byte) error {
	digest := blake2b.Sum256(msg)
	recovered, err := fcrypto.EcRecover(digest[:], sig[:])
	if err != nil {
		return fmt.Errorf("sigs: recover public key: %w", err)
	}
	if len(recovered) != len(pubKey) {
		return fmt.Errorf("sigs: recovered key length %d != %d", len(recovered), len(pubKey))
	}
	for i := range pubKey {
		if recovered[i] != pubKey[i] {
			return fmt.Errorf("sigs: signature does not match public key")
		}
	}
	return nil
}
