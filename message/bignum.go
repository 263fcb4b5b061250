package message

import (
	"fmt"
	"math/big"

	gstbig "github.com/filecoin-project/go-state-types/big"
)

// serializeBigNum renders an arbitrary-precision decimal string as the wire
// form `(0x00 ‖ big-endian magnitude)`, or an empty byte string for zero.
// The leading 0x00 is a sign byte: this wire format never encodes negative
// amounts (gas/value fields are unsigned in practice), matching the
// teacher's bigIntBytes helper.
func serializeBigNum(decimal string) ([]byte, error) {
	v, err := parseBigNum(decimal)
	if err != nil {
		return nil, err
	}
	return encodeBigInt(v), nil
}

// encodeBigInt renders v (assumed non-negative) as `(0x00 ‖ be_magnitude)`,
// or an empty slice when v is zero.
func encodeBigInt(v *big.Int) []byte {
	if v.Sign() == 0 {
		return []byte{}
	}
	mag := v.Bytes()
	out := make([]byte, 1+len(mag))
	out[0] = 0x00
	copy(out[1:], mag)
	return out
}

// decodeBigNum parses the wire form back into a decimal string.
func decodeBigNum(b []byte) (string, error) {
	v, err := decodeBigInt(b)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

func decodeBigInt(b []byte) (*big.Int, error) {
	if len(b) == 0 {
		return big.NewInt(0), nil
	}
	if b[0] != 0x00 {
		return nil, fmt.Errorf("message: bignum sign byte %#x, want 0x00", b[0])
	}
	v := new(big.Int).SetBytes(b[1:])
	return v, nil
}

func parseBigNum(decimal string) (*big.Int, error) {
	if decimal == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(decimal, 10)
	if !ok {
		return nil, fmt.Errorf("message: malformed decimal big-num %q", decimal)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("message: negative big-num %q is not representable", decimal)
	}
	return v, nil
}

// asTokenAmount wraps v as the go-state-types big.Int wire-compatible type,
// the field type this package's Message uses for value/gasFeeCap/gasPremium.
func asTokenAmount(v *big.Int) gstbig.Int {
	return gstbig.Int{Int: v}
}
