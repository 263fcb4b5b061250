package sigs

import (
	"encoding/base64"
	"encoding/hex"
	"testing"

	fcrypto "github.com/filecoin-project/go-crypto"
	"github.com/ipfs/go-cid"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	priv, err := base64.StdEncoding.DecodeString("M8EkrelmXXqGwOqnSzPK19VPNo8X2ibvap2sVcF5AZtg=")
	if err != nil {
		t.Fatalf("decode fixture key: %v", err)
	}
	pub := fcrypto.PublicKey(priv)

	msg := []byte("unsigned-message-cid-bytes")
	sig, err := Sign(priv, msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := Verify(pub, msg, sig); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestSignProducesRecoveryByte(t *testing.T) {
	priv, err := base64.StdEncoding.DecodeString("M8EkrelmXXqGwOqnSzPK19VPNo8X2ibvap2sVcF5AZtg=")
	if err != nil {
		t.Fatalf("decode fixture key: %v", err)
	}
	sig, err := Sign(priv, []byte("any message"))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if sig[64] > 3 {
		t.Fatalf("recovery byte out of range: %d", sig[64])
	}
	_ = hex.EncodeToString(sig[:])
}

// TestSignKnownVectorMatchesSpec reproduces the literal signing vector:
// key #1 over the known unsigned message's CID bytes must yield a
// signature beginning efdbb8ac12e6a4fb, ending b13c01, with recovery id 1.
func TestSignKnownVectorMatchesSpec(t *testing.T) {
	priv, err := base64.StdEncoding.DecodeString("M8EkrelmXXqGwOqnSzPK19VPNo8X2ibvap2sVcF5AZtg=")
	if err != nil {
		t.Fatalf("decode fixture key: %v", err)
	}
	unsignedCid, err := cid.Decode("bafy2bzaceax4su4dipbrdsnqivh7i57flcprnmpd5u7jlax26geaze6de2eg4")
	if err != nil {
		t.Fatalf("decode fixture cid: %v", err)
	}

	sig, err := Sign(priv, unsignedCid.Bytes())
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	got := hex.EncodeToString(sig[:])
	if got[:16] != "efdbb8ac12e6a4fb" {
		t.Fatalf("got signature prefix %s, want efdbb8ac12e6a4fb", got[:16])
	}
	if got[len(got)-6:] != "b13c01" {
		t.Fatalf("got signature suffix %s, want b13c01", got[len(got)-6:])
	}
	if sig[64] != 1 {
		t.Fatalf("got recovery byte %d, want 1", sig[64])
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	priv, err := base64.StdEncoding.DecodeString("M8EkrelmXXqGwOqnSzPK19VPNo8X2ibvap2sVcF5AZtg=")
	if err != nil {
		t.Fatalf("decode fixture key: %v", err)
	}
	otherPriv := make([]byte, 32)
	otherPriv[31] = 0x02

	sig, err := Sign(priv, []byte("message"))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	otherPub := fcrypto.PublicKey(otherPriv)
	if err := Verify(otherPub, []byte("message"), sig); err == nil {
		t.Fatalf("expected verification failure against unrelated key")
	}
}
