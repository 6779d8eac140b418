package auth

import "github.com/smallyu/go-schnorr-ratchet/internal/crypto/curves"

// KeyPair is a freshly generated Ed25519 Schnorr identity.
type KeyPair struct {
	Public  [32]byte
	Private [32]byte
}

// GenerateKeyPair draws a uniform scalar x and returns (compress(x·B), x),
// per spec §6.
func GenerateKeyPair() (*KeyPair, error) {
	curve := curves.NewEd25519()
	x, err := curve.NewScalar()
	if err != nil {
		return nil, err
	}
	X := curve.BasePoint().ScalarMult(x)

	var kp KeyPair
	copy(kp.Private[:], x.Bytes())
	copy(kp.Public[:], X.Bytes())
	return &kp, nil
}
