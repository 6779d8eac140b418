// Package schnorr implements the single Schnorr proof-of-knowledge
// primitive shared by the interactive identification protocol and the
// non-interactive ratcheted proof: both prove knowledge of x such that
// X = x·B, and both verify the same s·B == R + c·X equation. Only the
// source of the challenge c differs between the two callers.
package schnorr

import (
	"errors"

	"github.com/smallyu/go-schnorr-ratchet/internal/crypto/curves"
)

// ErrAlreadyResponded is returned by Respond when called more than once on
// the same Prover; a commitment may be used for exactly one response.
var ErrAlreadyResponded = errors.New("schnorr: commitment already consumed")

// Prover holds one party's half of a Schnorr proof: a fresh random nonce r
// and the commitment R = r·B derived from it. It is used both for the
// interactive protocol (where c arrives from a verifier) and the
// non-interactive one (where the caller derives c itself via a hash and
// feeds it back through Respond).
type Prover struct {
	curve      curves.Curve
	x          curves.Scalar
	r          curves.Scalar
	commitment curves.Point
	responded  bool
}

// NewProver draws a fresh nonce r and computes the commitment R = r·B for
// the secret x (whose public key X = x·B is known to the verifier out of
// band).
func NewProver(curve curves.Curve, x curves.Scalar) (*Prover, error) {
	r, err := curve.NewScalar()
	if err != nil {
		return nil, err
	}
	return &Prover{
		curve:      curve,
		x:          x,
		r:          r,
		commitment: curve.BasePoint().ScalarMult(r),
	}, nil
}

// Commitment returns R = r·B.
func (p *Prover) Commitment() curves.Point {
	return p.commitment
}

// Nonce returns the random r underlying this commitment. IMA and NMA both
// need it a second time after the proof completes, to perform a
// Diffie-Hellman style multiplication r·R_peer when deriving the shared
// secret.
func (p *Prover) Nonce() curves.Scalar {
	return p.r
}

// Respond consumes the commitment's nonce to answer challenge c with
// s = r + c·x (mod q). It may be called exactly once per Prover.
func (p *Prover) Respond(c curves.Scalar) (curves.Scalar, error) {
	if p.responded {
		return nil, ErrAlreadyResponded
	}
	p.responded = true
	return p.r.Add(c.Mul(p.x)), nil
}

// Verify checks s·B == R + c·X, the core Schnorr identity. It performs no
// replay or decoding checks of its own; callers are expected to have
// already decoded R and X from the wire (curves.Curve.PointFromBytes
// rejects malformed or low-order encodings) before calling Verify.
func Verify(curve curves.Curve, X, R curves.Point, c, s curves.Scalar) bool {
	if curve == nil || X == nil || R == nil || c == nil || s == nil {
		return false
	}
	lhs := curve.BasePoint().ScalarMult(s)
	rhs := R.Add(X.ScalarMult(c))
	return lhs.Equal(rhs)
}
