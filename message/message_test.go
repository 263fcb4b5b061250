package message

import (
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/lightfil/client/address"
)

func fixtureMessage(t *testing.T) Message {
	t.Helper()
	to, err := address.FromString("t15ihq5ibzwki2b4ep2f46avlkrqzhpqgtga7pdrq")
	if err != nil {
		t.Fatalf("to address: %v", err)
	}
	from, err := address.FromString("t1izccwid4h3svp5sl2xow6jhuc72qmznv6gkbecq")
	if err != nil {
		t.Fatalf("from address: %v", err)
	}
	value, err := serializeBigNum("12")
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	feeCap, err := serializeBigNum("234")
	if err != nil {
		t.Fatalf("feeCap: %v", err)
	}
	premium, err := serializeBigNum("234")
	if err != nil {
		t.Fatalf("premium: %v", err)
	}
	valueInt, _ := decodeBigInt(value)
	feeCapInt, _ := decodeBigInt(feeCap)
	premiumInt, _ := decodeBigInt(premium)

	return Message{
		Version:    0,
		To:         to,
		From:       from,
		Nonce:      34,
		Value:      asTokenAmount(valueInt),
		GasLimit:   123,
		GasFeeCap:  asTokenAmount(feeCapInt),
		GasPremium: asTokenAmount(premiumInt),
		Method:     6,
		Params:     []byte{},
	}
}

func TestEncodeUnsignedKnownVector(t *testing.T) {
	msg := fixtureMessage(t)
	enc, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := "8a005501ea0f0ea039b291a0f08fd179e0556a8c3277c0d3550146442b207c3ee557f64bd5dd6f24f417f50665b5182242000c187b4200ea4200ea0640"
	if hex.EncodeToString(enc) != want {
		t.Fatalf("got  %x\nwant %s", enc, want)
	}

	c, err := Cid(msg)
	if err != nil {
		t.Fatalf("Cid: %v", err)
	}
	wantCid := "bafy2bzaceax4su4dipbrdsnqivh7i57flcprnmpd5u7jlax26geaze6de2eg4"
	if c.String() != wantCid {
		t.Fatalf("got %s, want %s", c.String(), wantCid)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	msg := fixtureMessage(t)
	enc, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	dec, err := Decode(enc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if dec.Nonce != msg.Nonce || dec.Method != msg.Method || dec.GasLimit != msg.GasLimit {
		t.Fatalf("round trip mismatch: %+v vs %+v", dec, msg)
	}
	if dec.To.String() != msg.To.String() || dec.From.String() != msg.From.String() {
		t.Fatalf("address round trip mismatch")
	}
}

func TestSignMessageKnownKey(t *testing.T) {
	priv, err := base64.StdEncoding.DecodeString("M8EkrelmXXqGwOqnSzPK19VPNo8X2ibvap2sVcF5AZtg=")
	if err != nil {
		t.Fatalf("decode fixture key: %v", err)
	}
	msg := fixtureMessage(t)

	sm, signedCid, err := SignMessage(msg, priv)
	if err != nil {
		t.Fatalf("SignMessage: %v", err)
	}
	if sm.Signature.Type != SignatureTypeSecp256k1 {
		t.Fatalf("got signature type %d, want %d", sm.Signature.Type, SignatureTypeSecp256k1)
	}
	if signedCid.Prefix().Codec != 0x71 {
		t.Fatalf("expected dag-cbor codec on signed cid, got %#x", signedCid.Prefix().Codec)
	}

	sigHex := hex.EncodeToString(sm.Signature.Data[:])
	if sigHex[:16] != "efdbb8ac12e6a4fb" {
		t.Fatalf("got signature prefix %s, want efdbb8ac12e6a4fb", sigHex[:16])
	}
	if sigHex[len(sigHex)-6:] != "b13c01" {
		t.Fatalf("got signature suffix %s, want b13c01", sigHex[len(sigHex)-6:])
	}
	if sm.Signature.Data[64] != 1 {
		t.Fatalf("got recovery byte %d, want 1", sm.Signature.Data[64])
	}

	enc, err := EncodeSigned(sm)
	if err != nil {
		t.Fatalf("EncodeSigned: %v", err)
	}
	if len(enc) == 0 {
		t.Fatalf("expected non-empty signed encoding")
	}
	if hex.EncodeToString(enc[:2]) != "828a" {
		t.Fatalf("signed message should begin with outer-pair array header 0x828a, got %x", enc[:2])
	}
}

func TestBigNumRoundTrip(t *testing.T) {
	cases := []string{"0", "1", "18446744073709551615", "1000000000000000000"}
	for _, c := range cases {
		enc, err := serializeBigNum(c)
		if err != nil {
			t.Fatalf("serializeBigNum(%s): %v", c, err)
		}
		got, err := decodeBigNum(enc)
		if err != nil {
			t.Fatalf("decodeBigNum(%s): %v", c, err)
		}
		if got != c {
			t.Fatalf("round trip: got %s, want %s", got, c)
		}
	}
}
