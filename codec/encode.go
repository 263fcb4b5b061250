package codec

import (
	"bytes"
	"fmt"
	"sort"

	cbg "github.com/whyrusleeping/cbor-gen"
)

// Encode renders v as canonical wire bytes: minimal-length integers, map
// entries sorted by (key length, then bytewise key), and CID links tagged
// with CBOR tag 42 per the identity-multibase convention used throughout
// this dependency graph.
func Encode(v Value) []byte {
	var buf bytes.Buffer
	writeValue(&buf, v)
	return buf.Bytes()
}

// EncodeArray writes a top-level CBOR array with the given pre-encoded
// elements — the shape every fixed-arity record (Message, BlockHeader, AMT
// and HAMT nodes) uses for its wire form.
func EncodeArray(elements ...[]byte) []byte {
	var buf bytes.Buffer
	cbg.WriteMajorTypeHeader(&buf, cbg.MajArray, uint64(len(elements)))
	for _, e := range elements {
		buf.Write(e)
	}
	return buf.Bytes()
}

// EncodeUint writes a uint64 as CBOR major type 0.
func EncodeUint(v uint64) []byte {
	var buf bytes.Buffer
	cbg.WriteMajorTypeHeader(&buf, cbg.MajUnsignedInt, v)
	return buf.Bytes()
}

// EncodeInt writes a signed int64: major type 0 when non-negative, major
// type 1 (two's-complement-style negative) otherwise.
func EncodeInt(v int64) []byte {
	if v >= 0 {
		return EncodeUint(uint64(v))
	}
	var buf bytes.Buffer
	cbg.WriteMajorTypeHeader(&buf, cbg.MajNegativeInt, uint64(-v-1))
	return buf.Bytes()
}

// EncodeBytes writes a byte string as CBOR major type 2.
func EncodeBytes(b []byte) []byte {
	var buf bytes.Buffer
	cbg.WriteMajorTypeHeader(&buf, cbg.MajByteString, uint64(len(b)))
	buf.Write(b)
	return buf.Bytes()
}

// EncodeText writes a text string as CBOR major type 3.
func EncodeText(s string) []byte {
	var buf bytes.Buffer
	cbg.WriteMajorTypeHeader(&buf, cbg.MajTextString, uint64(len(s)))
	buf.WriteString(s)
	return buf.Bytes()
}

// EncodeNil returns CBOR null (0xf6).
func EncodeNil() []byte { return []byte{0xf6} }

// EncodeBool returns CBOR true (0xf5) or false (0xf4).
func EncodeBool(v bool) []byte {
	if v {
		return []byte{0xf5}
	}
	return []byte{0xf4}
}

// EncodeCID writes a CID as CBOR tag 42 wrapping a byte string with the
// leading 0x00 multibase-identity prefix lotus and the rest of the pack use
// for on-wire CID links.
func EncodeCID(raw []byte) []byte {
	var buf bytes.Buffer
	cbg.WriteMajorTypeHeader(&buf, cbg.MajTag, cidLinkTag)
	tagged := make([]byte, len(raw)+1)
	tagged[0] = 0x00
	copy(tagged[1:], raw)
	cbg.WriteMajorTypeHeader(&buf, cbg.MajByteString, uint64(len(tagged)))
	buf.Write(tagged)
	return buf.Bytes()
}

func writeValue(buf *bytes.Buffer, v Value) {
	switch v.Kind {
	case KindBytes:
		buf.Write(EncodeBytes(v.Bytes))
	case KindText:
		buf.Write(EncodeText(v.Text))
	case KindInt:
		buf.Write(EncodeInt(v.Int))
	case KindBool:
		buf.Write(EncodeBool(v.Bool))
	case KindNull:
		buf.Write(EncodeNil())
	case KindList:
		cbg.WriteMajorTypeHeader(buf, cbg.MajArray, uint64(len(v.List)))
		for _, e := range v.List {
			writeValue(buf, e)
		}
	case KindMap:
		writeMap(buf, v.Map)
	case KindLink:
		buf.Write(EncodeCID(v.Link.Bytes()))
	default:
		panic(fmt.Sprintf("codec: cannot encode invalid Value (kind %d)", v.Kind))
	}
}

// writeMap applies the deterministic DAG-CBOR map ordering: shortest
// encoded key first, ties broken bytewise on the encoded key.
func writeMap(buf *bytes.Buffer, entries []MapEntry) {
	encoded := make([]struct {
		key []byte
		val []byte
	}, len(entries))
	for i, e := range entries {
		encoded[i].key = Encode(e.Key)
		encoded[i].val = Encode(e.Val)
	}
	sort.Slice(encoded, func(i, j int) bool {
		a, b := encoded[i].key, encoded[j].key
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return bytes.Compare(a, b) < 0
	})
	cbg.WriteMajorTypeHeader(buf, cbg.MajMap, uint64(len(encoded)))
	for _, e := range encoded {
		buf.Write(e.key)
		buf.Write(e.val)
	}
}
