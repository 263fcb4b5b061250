// Package message builds, signs, and gas-fills the canonical Filecoin
// message: a fixed 10-field array encoding, CID derivation over both the
// unsigned and signed forms, and the client's static gas estimator.
package message

import (
	"fmt"
	"math/big"

	gstbig "github.com/filecoin-project/go-state-types/big"
	"github.com/ipfs/go-cid"

	"github.com/lightfil/client/address"
	"github.com/lightfil/client/cidutil"
	"github.com/lightfil/client/codec"
	"github.com/lightfil/client/sigs"
)

// Message is the unsigned transaction. Field order here is cosmetic; the
// wire order is fixed by Encode/Decode, not by struct layout.
type Message struct {
	Version    int64
	To         address.Address
	From       address.Address
	Nonce      uint64
	Value      gstbig.Int
	GasLimit   int64
	GasFeeCap  gstbig.Int
	GasPremium gstbig.Int
	Method     uint64
	Params     []byte
}

// SignatureTypeSecp256k1 is the signature-type byte used for secp256k1
// signatures on SignedMessage's wire form.
const SignatureTypeSecp256k1 = 0x01

// Signature is the wire pair (type_byte ‖ 65-byte secp256k1 signature).
type Signature struct {
	Type byte
	Data [65]byte
}

// SignedMessage pairs an unsigned Message with its signature.
type SignedMessage struct {
	Message   Message
	Signature Signature
}

// Encode renders msg as the fixed 10-element canonical array.
func Encode(msg Message) ([]byte, error) {
	toBytes := address.ToBytes(msg.To)
	fromBytes := address.ToBytes(msg.From)

	value := encodeBigInt(bigIntOrZero(msg.Value))
	feeCap := encodeBigInt(bigIntOrZero(msg.GasFeeCap))
	premium := encodeBigInt(bigIntOrZero(msg.GasPremium))

	params := msg.Params
	if params == nil {
		params = []byte{}
	}

	return codec.EncodeArray(
		codec.EncodeInt(msg.Version),
		codec.EncodeBytes(toBytes),
		codec.EncodeBytes(fromBytes),
		codec.EncodeUint(msg.Nonce),
		codec.EncodeBytes(value),
		codec.EncodeInt(msg.GasLimit),
		codec.EncodeBytes(feeCap),
		codec.EncodeBytes(premium),
		codec.EncodeUint(msg.Method),
		codec.EncodeBytes(params),
	), nil
}

// Decode parses the fixed 10-element canonical array back into a Message.
func Decode(data []byte) (Message, error) {
	v, err := codec.DecodeValue(data)
	if err != nil {
		return Message{}, fmt.Errorf("message: decode: %w", err)
	}
	items, err := v.AsList()
	if err != nil {
		return Message{}, fmt.Errorf("message: expected array: %w", err)
	}
	if len(items) != 10 {
		return Message{}, fmt.Errorf("message: expected arity 10, got %d", len(items))
	}

	version, err := items[0].AsInt()
	if err != nil {
		return Message{}, fmt.Errorf("message: version: %w", err)
	}
	toRaw, err := items[1].AsBytes()
	if err != nil {
		return Message{}, fmt.Errorf("message: to: %w", err)
	}
	to, err := address.FromBytes(toRaw)
	if err != nil {
		return Message{}, fmt.Errorf("message: to address: %w", err)
	}
	fromRaw, err := items[2].AsBytes()
	if err != nil {
		return Message{}, fmt.Errorf("message: from: %w", err)
	}
	from, err := address.FromBytes(fromRaw)
	if err != nil {
		return Message{}, fmt.Errorf("message: from address: %w", err)
	}
	nonce, err := items[3].AsInt()
	if err != nil {
		return Message{}, fmt.Errorf("message: nonce: %w", err)
	}
	valueRaw, err := items[4].AsBytes()
	if err != nil {
		return Message{}, fmt.Errorf("message: value: %w", err)
	}
	valueInt, err := decodeBigInt(valueRaw)
	if err != nil {
		return Message{}, fmt.Errorf("message: value: %w", err)
	}
	gasLimit, err := items[5].AsInt()
	if err != nil {
		return Message{}, fmt.Errorf("message: gasLimit: %w", err)
	}
	feeCapRaw, err := items[6].AsBytes()
	if err != nil {
		return Message{}, fmt.Errorf("message: gasFeeCap: %w", err)
	}
	feeCapInt, err := decodeBigInt(feeCapRaw)
	if err != nil {
		return Message{}, fmt.Errorf("message: gasFeeCap: %w", err)
	}
	premiumRaw, err := items[7].AsBytes()
	if err != nil {
		return Message{}, fmt.Errorf("message: gasPremium: %w", err)
	}
	premiumInt, err := decodeBigInt(premiumRaw)
	if err != nil {
		return Message{}, fmt.Errorf("message: gasPremium: %w", err)
	}
	method, err := items[8].AsInt()
	if err != nil {
		return Message{}, fmt.Errorf("message: method: %w", err)
	}
	params, err := items[9].AsBytes()
	if err != nil {
		return Message{}, fmt.Errorf("message: params: %w", err)
	}

	return Message{
		Version:    version,
		To:         to,
		From:       from,
		Nonce:      uint64(nonce),
		Value:      asTokenAmount(valueInt),
		GasLimit:   gasLimit,
		GasFeeCap:  asTokenAmount(feeCapInt),
		GasPremium: asTokenAmount(premiumInt),
		Method:     uint64(method),
		Params:     params,
	}, nil
}

// Cid computes the CID of the unsigned message's canonical encoding.
func Cid(msg Message) (cid.Cid, error) {
	enc, err := Encode(msg)
	if err != nil {
		return cid.Undef, err
	}
	return cidutil.BuildCID(enc)
}

// EncodeSigned renders the outer (unsigned_message_array, signature) pair.
func EncodeSigned(sm SignedMessage) ([]byte, error) {
	unsigned, err := Encode(sm.Message)
	if err != nil {
		return nil, err
	}
	sig := codec.EncodeBytes(append([]byte{sm.Signature.Type}, sm.Signature.Data[:]...))
	return codec.EncodeArray(unsigned, sig), nil
}

// SignMessage signs the CID bytes of the unsigned message (not its raw
// encoding), per the client's fixed resolution of the source's ambiguous
// re-hash target, and returns the signed message plus the CID re-hashed
// over the signed wire form.
func SignMessage(msg Message, privKey []byte) (SignedMessage, cid.Cid, error) {
	unsignedCid, err := Cid(msg)
	if err != nil {
		return SignedMessage{}, cid.Undef, fmt.Errorf("message: unsigned cid: %w", err)
	}

	sig, err := sigs.Sign(privKey, unsignedCid.Bytes())
	if err != nil {
		return SignedMessage{}, cid.Undef, fmt.Errorf("message: sign: %w", err)
	}

	sm := SignedMessage{
		Message: msg,
		Signature: Signature{
			Type: SignatureTypeSecp256k1,
			Data: sig,
		},
	}

	signedBytes, err := EncodeSigned(sm)
	if err != nil {
		return SignedMessage{}, cid.Undef, fmt.Errorf("message: encode signed: %w", err)
	}
	signedCid, err := cidutil.BuildCID(signedBytes)
	if err != nil {
		return SignedMessage{}, cid.Undef, fmt.Errorf("message: signed cid: %w", err)
	}

	return sm, signedCid, nil
}

func bigIntOrZero(v gstbig.Int) *big.Int {
	if v.Int == nil {
		return big.NewInt(0)
	}
	return v.Int
}
