package natives

import (
	"encoding/hex"
	"testing"

	"loxgo/internal/object"
)

func TestEdSignVerifyRoundTrip(t *testing.T) {
	seed := []byte("a 32+ byte seed, padded out here")
	msg := []byte("sign me")

	sig, pub, err := edSign(msg, seed)
	if err != nil {
		t.Fatalf("edSign: %v", err)
	}

	ok, err := edVerify(msg, hex.EncodeToString(sig), hex.EncodeToString(pub))
	if err != nil {
		t.Fatalf("edVerify: %v", err)
	}
	if !ok {
		t.Error("expected a signature produced by edSign to verify")
	}
}

func TestEdVerifyRejectsTamperedMessage(t *testing.T) {
	seed := []byte("another seed value used for signing")
	sig, pub, err := edSign([]byte("original"), seed)
	if err != nil {
		t.Fatalf("edSign: %v", err)
	}

	ok, err := edVerify([]byte("tampered"), hex.EncodeToString(sig), hex.EncodeToString(pub))
	if err != nil {
		t.Fatalf("edVerify: %v", err)
	}
	if ok {
		t.Error("expected verification to fail for a tampered message")
	}
}

func TestEdVerifyRejectsMalformedInput(t *testing.T) {
	if _, err := edVerify([]byte("x"), "not-hex", "not-hex"); err == nil {
		t.Error("expected an error for a malformed signature")
	}
}

func TestCryptoNativesAreRegistered(t *testing.T) {
	env := object.NewEnvironment()
	RegisterCrypto(env)
	for _, name := range []string{"sha256", "hmac_sha256", "sign", "verify"} {
		if _, ok := env.Get(name); !ok {
			t.Errorf("expected %q to be defined", name)
		}
	}
}
