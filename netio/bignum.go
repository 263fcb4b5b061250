package netio

import (
	"fmt"
	"math/big"

	"github.com/lightfil/client/codec"
)

// encodeBigNumField mirrors message.serializeBigNum's wire convention
// (0x00 ‖ big-endian magnitude, empty for zero) for the handshake fields
// that carry arbitrary-precision decimals outside the message codec.
func encodeBigNumField(decimal string) (codec.Value, error) {
	if decimal == "" {
		decimal = "0"
	}
	v, ok := new(big.Int).SetString(decimal, 10)
	if !ok {
		return codec.Value{}, fmt.Errorf("netio: invalid decimal %q", decimal)
	}
	if v.Sign() < 0 {
		return codec.Value{}, fmt.Errorf("netio: negative big-num %q", decimal)
	}
	if v.Sign() == 0 {
		return codec.FromBytes(nil), nil
	}
	magnitude := v.Bytes()
	b := make([]byte, 1+len(magnitude))
	b[0] = 0x00
	copy(b[1:], magnitude)
	return codec.FromBytes(b), nil
}
