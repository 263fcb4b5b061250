// Package codec implements the tagged binary encoding used on the wire:
// a DAG-CBOR-flavored subset with deterministic map ordering, minimal-length
// integers, and CID links tagged with CBOR tag 42.
//
// Decoded trees surface as Value, a small sum type, rather than untyped
// interface{} — callers convert into named records (Message, BlockHeader,
// AMT/HAMT nodes, ...) immediately at the boundary instead of threading
// raw containers through the rest of the program.
package codec

import (
	"fmt"

	"github.com/ipfs/go-cid"
)

// Kind discriminates the variants of Value.
type Kind int

const (
	KindInvalid Kind = iota
	KindBytes
	KindText
	KindInt
	KindBool
	KindNull
	KindList
	KindMap
	KindLink
)

// MapEntry is one key/value pair of a decoded map, in the order encountered
// on the wire. Key uniqueness is the caller's concern, not the codec's.
type MapEntry struct {
	Key Value
	Val Value
}

// Value is the sum type every decode produces: Bytes | Text | Int | Bool |
// Null | List | Map | Link. Exactly one field group is meaningful for a
// given Kind.
type Value struct {
	Kind Kind

	Bytes []byte
	Text  string
	Int   int64
	Bool  bool
	List  []Value
	Map   []MapEntry
	Link  cid.Cid
}

func Null() Value                 { return Value{Kind: KindNull} }
func FromBytes(b []byte) Value    { return Value{Kind: KindBytes, Bytes: b} }
func FromText(s string) Value     { return Value{Kind: KindText, Text: s} }
func FromInt(i int64) Value       { return Value{Kind: KindInt, Int: i} }
func FromBool(b bool) Value       { return Value{Kind: KindBool, Bool: b} }
func FromList(l []Value) Value    { return Value{Kind: KindList, List: l} }
func FromLink(c cid.Cid) Value    { return Value{Kind: KindLink, Link: c} }

// AsBytes returns the byte string payload, or an error if v is not a byte
// string.
func (v Value) AsBytes() ([]byte, error) {
	if v.Kind != KindBytes {
		return nil, fmt.Errorf("codec: expected bytes, got kind %d", v.Kind)
	}
	return v.Bytes, nil
}

// AsInt returns the integer payload, or an error if v is not numeric.
func (v Value) AsInt() (int64, error) {
	if v.Kind != KindInt {
		return 0, fmt.Errorf("codec: expected int, got kind %d", v.Kind)
	}
	return v.Int, nil
}

// AsList returns the element slice, or an error if v is not a list.
func (v Value) AsList() ([]Value, error) {
	if v.Kind != KindList {
		return nil, fmt.Errorf("codec: expected list, got kind %d", v.Kind)
	}
	return v.List, nil
}

// AsLink returns the CID payload, or an error if v is not a link.
func (v Value) AsLink() (cid.Cid, error) {
	if v.Kind != KindLink {
		return cid.Undef, fmt.Errorf("codec: expected link, got kind %d", v.Kind)
	}
	return v.Link, nil
}

// IsNull reports whether v decoded to CBOR null.
func (v Value) IsNull() bool { return v.Kind == KindNull }
