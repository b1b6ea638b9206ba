package natives

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"

	"filippo.io/edwards25519"

	"loxgo/internal/object"
)

// RegisterCrypto installs sha256, hmac_sha256 (grounded on the teacher's
// internal/foreign/slug_crypto.go), plus sign/verify built directly on
// filippo.io/edwards25519's scalar and point arithmetic - the teacher
// lists that module but never imports it (see DESIGN.md).
func RegisterCrypto(env *object.Environment) {
	env.Define("sha256", native("sha256", 1, func(args []object.Object) (object.Object, error) {
		s, ok := args[0].(*object.String)
		if !ok {
			return nil, fmt.Errorf("sha256 expects a string argument")
		}
		sum := sha256.Sum256([]byte(s.Value))
		return &object.String{Value: hex.EncodeToString(sum[:])}, nil
	}))

	env.Define("hmac_sha256", native("hmac_sha256", 2, func(args []object.Object) (object.Object, error) {
		msg, ok := args[0].(*object.String)
		if !ok {
			return nil, fmt.Errorf("hmac_sha256 expects a string message")
		}
		key, ok := args[1].(*object.String)
		if !ok {
			return nil, fmt.Errorf("hmac_sha256 expects a string key")
		}
		h := hmac.New(sha256.New, []byte(key.Value))
		h.Write([]byte(msg.Value))
		return &object.String{Value: hex.EncodeToString(h.Sum(nil))}, nil
	}))

	env.Define("sign", native("sign", 2, func(args []object.Object) (object.Object, error) {
		msg, ok := args[0].(*object.String)
		if !ok {
			return nil, fmt.Errorf("sign expects a string message")
		}
		seed, ok := args[1].(*object.String)
		if !ok {
			return nil, fmt.Errorf("sign expects a string seed")
		}
		sig, pub, err := edSign([]byte(msg.Value), []byte(seed.Value))
		if err != nil {
			return nil, err
		}
		return table(map[string]object.Object{
			"signature":  &object.String{Value: hex.EncodeToString(sig)},
			"public_key": &object.String{Value: hex.EncodeToString(pub)},
		}), nil
	}))

	env.Define("verify", native("verify", 3, func(args []object.Object) (object.Object, error) {
		msg, ok := args[0].(*object.String)
		if !ok {
			return nil, fmt.Errorf("verify expects a string message")
		}
		sigHex, ok := args[1].(*object.String)
		if !ok {
			return nil, fmt.Errorf("verify expects a hex signature string")
		}
		pubHex, ok := args[2].(*object.String)
		if !ok {
			return nil, fmt.Errorf("verify expects a hex public key string")
		}
		ok2, err := edVerify([]byte(msg.Value), sigHex.Value, pubHex.Value)
		if err != nil {
			return nil, err
		}
		return object.NativeBoolToBoolean(ok2), nil
	}))
}

// edSign implements the Ed25519 signing equations directly over
// filippo.io/edwards25519's scalar/point group rather than calling into
// crypto/ed25519, so the module exercises the library's arithmetic: a
// clamped scalar derived from the seed is the private key, the nonce and
// the challenge are both uniform scalars reduced from a SHA-512 hash
// exactly as RFC 8032 specifies, and the signature is (R || S).
func edSign(msg, seed []byte) (sig, pub []byte, err error) {
	h := sha512.Sum512(seed)
	priv, err := edwards25519.NewScalar().SetBytesWithClamping(h[:32])
	if err != nil {
		return nil, nil, fmt.Errorf("sign: deriving private scalar: %w", err)
	}

	A := edwards25519.NewIdentityPoint().ScalarBaseMult(priv)
	pub = A.Bytes()

	nonceInput := append(append([]byte{}, h[32:]...), msg...)
	nonceHash := sha512.Sum512(nonceInput)
	r, err := edwards25519.NewScalar().SetUniformBytes(nonceHash[:])
	if err != nil {
		return nil, nil, fmt.Errorf("sign: deriving nonce scalar: %w", err)
	}

	R := edwards25519.NewIdentityPoint().ScalarBaseMult(r)

	challengeInput := append(append(append([]byte{}, R.Bytes()...), pub...), msg...)
	challengeHash := sha512.Sum512(challengeInput)
	k, err := edwards25519.NewScalar().SetUniformBytes(challengeHash[:])
	if err != nil {
		return nil, nil, fmt.Errorf("sign: deriving challenge scalar: %w", err)
	}

	s := edwards25519.NewScalar().Add(r, edwards25519.NewScalar().Multiply(k, priv))

	sig = append(append([]byte{}, R.Bytes()...), s.Bytes()...)
	return sig, pub, nil
}

// edVerify checks the equation S*B == R + k*A, where k is the same
// challenge hash computed during signing.
func edVerify(msg []byte, sigHex, pubHex string) (bool, error) {
	sig, err := hex.DecodeString(sigHex)
	if err != nil || len(sig) != 64 {
		return false, fmt.Errorf("verify: malformed signature")
	}
	pub, err := hex.DecodeString(pubHex)
	if err != nil || len(pub) != 32 {
		return false, fmt.Errorf("verify: malformed public key")
	}

	R, err := edwards25519.NewIdentityPoint().SetBytes(sig[:32])
	if err != nil {
		return false, fmt.Errorf("verify: malformed R: %w", err)
	}
	s, err := edwards25519.NewScalar().SetCanonicalBytes(sig[32:])
	if err != nil {
		return false, fmt.Errorf("verify: malformed S: %w", err)
	}
	A, err := edwards25519.NewIdentityPoint().SetBytes(pub)
	if err != nil {
		return false, fmt.Errorf("verify: malformed public key point: %w", err)
	}

	challengeInput := append(append(append([]byte{}, sig[:32]...), pub...), msg...)
	challengeHash := sha512.Sum512(challengeInput)
	k, err := edwards25519.NewScalar().SetUniformBytes(challengeHash[:])
	if err != nil {
		return false, fmt.Errorf("verify: deriving challenge scalar: %w", err)
	}

	lhs := edwards25519.NewIdentityPoint().ScalarBaseMult(s)
	rhs := edwards25519.NewIdentityPoint().Add(R, edwards25519.NewIdentityPoint().ScalarMult(k, A))

	return bytes.Equal(lhs.Bytes(), rhs.Bytes()), nil
}
