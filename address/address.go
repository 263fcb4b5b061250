// Package address wraps github.com/filecoin-project/go-address for the
// address codec: a human-readable string form and a compact wire form, both
// carrying a BLAKE2b-32 checksum over the protocol byte and payload.
package address

import (
	"fmt"

	fcaddr "github.com/filecoin-project/go-address"
	fcrypto "github.com/filecoin-project/go-crypto"
)

// Address re-exports the go-address type so callers don't need a second
// import for the value this package produces.
type Address = fcaddr.Address

// Protocol re-exports the go-address protocol byte enum (ID/SECP256K1/Actor/BLS).
type Protocol = fcaddr.Protocol

const (
	ProtocolID        = fcaddr.ID
	ProtocolSECP256K1 = fcaddr.SECP256K1
	ProtocolActor     = fcaddr.Actor
	ProtocolBLS       = fcaddr.BLS
)

// ToPublic derives the uncompressed secp256k1 public key from a raw private
// key and wraps its BLAKE2b-160 digest into a protocol-1 address: exactly
// what go-address.NewSecp256k1Address does internally, so the construction
// lives there rather than being reimplemented here.
func ToPublic(privKey []byte) (pubKey []byte, addr Address, err error) {
	pubKey = fcrypto.PublicKey(privKey)
	addr, err = fcaddr.NewSecp256k1Address(pubKey)
	if err != nil {
		return nil, fcaddr.Undef, fmt.Errorf("address: derive secp256k1 address: %w", err)
	}
	return pubKey, addr, nil
}

// FromString parses the human-readable `<net><type><base32(...)>` form,
// validating its embedded checksum.
func FromString(s string) (Address, error) {
	a, err := fcaddr.NewFromString(s)
	if err != nil {
		return fcaddr.Undef, fmt.Errorf("address: parse %q: %w", s, err)
	}
	return a, nil
}

// FromBytes parses the compact wire form `protocol_byte ‖ payload`,
// validating the checksum for protocols that carry one.
func FromBytes(b []byte) (Address, error) {
	a, err := fcaddr.NewFromBytes(b)
	if err != nil {
		return fcaddr.Undef, fmt.Errorf("address: parse bytes: %w", err)
	}
	return a, nil
}

// ToBytes renders addr in its compact wire form.
func ToBytes(addr Address) []byte { return addr.Bytes() }
