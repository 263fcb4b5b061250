// Package cidutil builds and verifies the content identifiers used
// throughout the client: CIDv1, codec 0x71 (dag-cbor), BLAKE2b-256 digest.
package cidutil

import (
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// BuildCID derives the CID of an encoded value: CIDv1, dag-cbor, BLAKE2b-256.
func BuildCID(data []byte) (cid.Cid, error) {
	mh, err := multihash.Sum(data, multihash.BLAKE2B_MIN+31, -1)
	if err != nil {
		return cid.Undef, fmt.Errorf("cidutil: hash: %w", err)
	}
	return cid.NewCidV1(cid.DagCBOR, mh), nil
}

// Verify reports whether data is the preimage of c: its BLAKE2b-256 digest
// must match c's multihash digest exactly.
func Verify(c cid.Cid, data []byte) error {
	want, err := BuildCID(data)
	if err != nil {
		return err
	}
	if !want.Equals(c) {
		return fmt.Errorf("cidutil: block does not match CID %s (got %s)", c, want)
	}
	return nil
}

// EncodeCIDBytes renders c as its raw binary CID bytes, without the CBOR
// tag 42 or the 0x00 multibase-identity prefix (codec.EncodeCID adds those).
func EncodeCIDBytes(c cid.Cid) []byte {
	return c.Bytes()
}

// DecodeCIDBytes parses the raw CID bytes (without the CBOR tag/byte-string
// envelope, which codec.DecodeValue already strips via Value.AsLink).
func DecodeCIDBytes(b []byte) (cid.Cid, error) {
	c, err := cid.Cast(b)
	if err != nil {
		return cid.Undef, fmt.Errorf("cidutil: malformed CID bytes: %w", err)
	}
	if c.Prefix().Codec != cid.DagCBOR {
		return cid.Undef, fmt.Errorf("cidutil: unexpected codec %#x, want dag-cbor", c.Prefix().Codec)
	}
	return c, nil
}
