package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/ipfs/go-cid"
)

// CBOR major types, mirrored from the RFC (and from cbg.Maj* in
// github.com/whyrusleeping/cbor-gen, which this package's encoder uses
// directly for header writing).
const (
	majUnsignedInt = 0
	majNegativeInt = 1
	majByteString  = 2
	majTextString  = 3
	majArray       = 4
	majMap         = 5
	majTag         = 6
	majOther       = 7
)

const cidLinkTag = 42

// ErrTrailingBytes is returned by DecodeValue when the input has bytes left
// over after a complete value was parsed.
var ErrTrailingBytes = fmt.Errorf("codec: trailing bytes after decoded value")

// DecodeValue decodes exactly one value from data, failing if any bytes
// remain afterward.
func DecodeValue(data []byte) (Value, error) {
	v, rest, err := decodeOne(data)
	if err != nil {
		return Value{}, err
	}
	if len(rest) != 0 {
		return Value{}, ErrTrailingBytes
	}
	return v, nil
}

// Decode decodes one value from the front of data and returns the unread
// remainder, for callers that walk a sequence of sibling values without a
// wrapping array.
func Decode(data []byte) (Value, []byte, error) {
	return decodeOne(data)
}

func decodeOne(data []byte) (Value, []byte, error) {
	if len(data) == 0 {
		return Value{}, nil, fmt.Errorf("codec: unexpected end of input")
	}

	first := data[0]
	major := first >> 5
	info := first & 0x1f
	rest := data[1:]

	length, rest, err := readLength(info, rest)
	if err != nil {
		return Value{}, nil, err
	}

	switch major {
	case majUnsignedInt:
		return Value{Kind: KindInt, Int: int64(length)}, rest, nil

	case majNegativeInt:
		return Value{Kind: KindInt, Int: -1 - int64(length)}, rest, nil

	case majByteString:
		if uint64(len(rest)) < length {
			return Value{}, nil, fmt.Errorf("codec: byte string truncated")
		}
		b := make([]byte, length)
		copy(b, rest[:length])
		return Value{Kind: KindBytes, Bytes: b}, rest[length:], nil

	case majTextString:
		if uint64(len(rest)) < length {
			return Value{}, nil, fmt.Errorf("codec: text string truncated")
		}
		s := string(rest[:length])
		return Value{Kind: KindText, Text: s}, rest[length:], nil

	case majArray:
		items := make([]Value, 0, length)
		cur := rest
		for i := uint64(0); i < length; i++ {
			var v Value
			var err error
			v, cur, err = decodeOne(cur)
			if err != nil {
				return Value{}, nil, fmt.Errorf("codec: array element %d: %w", i, err)
			}
			items = append(items, v)
		}
		return Value{Kind: KindList, List: items}, cur, nil

	case majMap:
		entries := make([]MapEntry, 0, length)
		cur := rest
		for i := uint64(0); i < length; i++ {
			var k, v Value
			var err error
			k, cur, err = decodeOne(cur)
			if err != nil {
				return Value{}, nil, fmt.Errorf("codec: map key %d: %w", i, err)
			}
			v, cur, err = decodeOne(cur)
			if err != nil {
				return Value{}, nil, fmt.Errorf("codec: map value %d: %w", i, err)
			}
			entries = append(entries, MapEntry{Key: k, Val: v})
		}
		return Value{Kind: KindMap, Map: entries}, cur, nil

	case majTag:
		if length != cidLinkTag {
			return Value{}, nil, fmt.Errorf("codec: unsupported tag %d", length)
		}
		inner, cur, err := decodeOne(rest)
		if err != nil {
			return Value{}, nil, fmt.Errorf("codec: tag %d payload: %w", length, err)
		}
		raw, err := inner.AsBytes()
		if err != nil {
			return Value{}, nil, fmt.Errorf("codec: tag %d payload must be bytes: %w", length, err)
		}
		if len(raw) == 0 || raw[0] != 0x00 {
			return Value{}, nil, fmt.Errorf("codec: CID byte string missing multibase identity prefix")
		}
		c, err := cid.Cast(raw[1:])
		if err != nil {
			return Value{}, nil, fmt.Errorf("codec: malformed CID link: %w", err)
		}
		return Value{Kind: KindLink, Link: c}, cur, nil

	case majOther:
		switch info {
		case 20:
			return Value{Kind: KindBool, Bool: false}, rest, nil
		case 21:
			return Value{Kind: KindBool, Bool: true}, rest, nil
		case 22:
			return Value{Kind: KindNull}, rest, nil
		default:
			return Value{}, nil, fmt.Errorf("codec: unsupported simple value %d", info)
		}
	}

	return Value{}, nil, fmt.Errorf("codec: unsupported major type %d", major)
}

// readLength parses the argument that follows a major-type byte: either the
// 5-bit immediate value (info < 24) or a 1/2/4/8-byte big-endian follow-on.
func readLength(info byte, data []byte) (uint64, []byte, error) {
	switch {
	case info < 24:
		return uint64(info), data, nil
	case info == 24:
		if len(data) < 1 {
			return 0, nil, fmt.Errorf("codec: truncated 1-byte length")
		}
		return uint64(data[0]), data[1:], nil
	case info == 25:
		if len(data) < 2 {
			return 0, nil, fmt.Errorf("codec: truncated 2-byte length")
		}
		return uint64(binary.BigEndian.Uint16(data)), data[2:], nil
	case info == 26:
		if len(data) < 4 {
			return 0, nil, fmt.Errorf("codec: truncated 4-byte length")
		}
		return uint64(binary.BigEndian.Uint32(data)), data[4:], nil
	case info == 27:
		if len(data) < 8 {
			return 0, nil, fmt.Errorf("codec: truncated 8-byte length")
		}
		return binary.BigEndian.Uint64(data), data[8:], nil
	default:
		return 0, nil, fmt.Errorf("codec: unsupported length encoding (info=%d)", info)
	}
}
