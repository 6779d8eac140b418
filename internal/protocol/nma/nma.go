// Package nma implements the non-interactive, ratcheted authentication
// round (spec §4.3): a single Fiat-Shamir Schnorr proof whose challenge is a
// keyed hash over the current shared secret and counter, so that producing
// a valid proof requires possessing that secret as much as it requires
// knowing the private scalar. Acceptance evolves both sides' copy of the
// shared secret and counter forward, so a captured (R, c, s) can never be
// replayed against the next round.
package nma

import (
	"encoding/binary"
	"errors"

	"github.com/smallyu/go-schnorr-ratchet/internal/crypto/curves"
	"github.com/smallyu/go-schnorr-ratchet/internal/crypto/schnorrhash"
	"github.com/smallyu/go-schnorr-ratchet/internal/crypto/zk/schnorr"
	"github.com/smallyu/go-schnorr-ratchet/internal/keyring"
	"github.com/smallyu/go-schnorr-ratchet/pkg/auth"
)

// Prove produces one NMA message authenticating self to peer, optionally
// binding it to an application message, and ratchets self's copy of the
// shared secret and counter for this direction forward. The message on the
// wire is exactly (R, c, s); there is no separate MAC field because c
// already is that MAC — computeChallenge folds the shared secret in, so a
// party without it cannot produce a c the verifier will recompute.
func Prove(curve curves.Curve, p auth.Peer, message []byte) (auth.NMAMessage, error) {
	unlock, err := lockPair(p, p.Self, p.Them)
	if err != nil {
		return auth.NMAMessage{}, err
	}
	defer unlock()

	privBytes, ok, err := p.Keyring.Get(keyring.PrivateKey(uint32(p.Self)), 32)
	if err != nil {
		return auth.NMAMessage{}, auth.NewFault(p.Them, auth.ErrStoreUnavailable, err)
	}
	if !ok {
		return auth.NMAMessage{}, auth.NewFault(p.Them, auth.ErrStoreUnavailable, errors.New("nma: no private key for self"))
	}
	x, err := curve.ScalarFromCanonicalBytes(privBytes)
	if err != nil {
		return auth.NMAMessage{}, auth.NewFault(p.Them, auth.ErrMalformedInput, err)
	}

	K, n, err := readRatchetState(p, p.Self, p.Them)
	if err != nil {
		return auth.NMAMessage{}, err
	}

	prover, err := schnorr.NewProver(curve, x)
	if err != nil {
		return auth.NMAMessage{}, err
	}

	c := computeChallenge(curve, K, n, prover.Commitment().Bytes(), message)
	s, err := prover.Respond(c)
	if err != nil {
		return auth.NMAMessage{}, err
	}

	// The initiating side ratchets with its own response (spec §4.3, design
	// note §9 open question 3, initiator branch).
	if err := ratchet(p, p.Self, p.Them, K, n, s); err != nil {
		return auth.NMAMessage{}, err
	}

	var msg auth.NMAMessage
	copy(msg.R[:], prover.Commitment().Bytes())
	copy(msg.C[:], c.Bytes())
	copy(msg.S[:], s.Bytes())
	return msg, nil
}

// Verify checks an NMA message received from peer, classifying failure into
// the schnorr/MAC/combined accounting buckets of §4.5, and on acceptance
// ratchets self's copy of the shared secret and counter for this direction
// forward.
func Verify(curve curves.Curve, p auth.Peer, msg auth.NMAMessage, message []byte) error {
	unlock, err := lockPair(p, p.Self, p.Them)
	if err != nil {
		return err
	}
	defer unlock()

	peerPubBytes, ok, err := p.Keyring.Get(keyring.PublicKey(uint32(p.Them)), 32)
	if err != nil {
		return auth.NewFault(p.Them, auth.ErrStoreUnavailable, err)
	}
	if !ok {
		return auth.NewFault(p.Them, auth.ErrStoreUnavailable, errors.New("nma: no public key for peer"))
	}
	peerX, err := curve.PointFromBytes(peerPubBytes)
	if err != nil {
		return auth.NewFault(p.Them, auth.ErrMalformedInput, err)
	}

	R, err := curve.PointFromBytes(msg.R[:])
	if err != nil {
		return auth.NewFault(p.Them, auth.ErrMalformedInput, err)
	}
	c, err := curve.ScalarFromCanonicalBytes(msg.C[:])
	if err != nil {
		return auth.NewFault(p.Them, auth.ErrMalformedInput, err)
	}
	s, err := curve.ScalarFromCanonicalBytes(msg.S[:])
	if err != nil {
		return auth.NewFault(p.Them, auth.ErrMalformedInput, err)
	}

	unseen, err := p.Store.CheckCommitment(uint32(p.Them), msg.R)
	if err != nil {
		return auth.NewFault(p.Them, auth.ErrStoreUnavailable, err)
	}
	if !unseen {
		return auth.NewFault(p.Them, auth.ErrReplay, nil)
	}

	K, n, err := readRatchetState(p, p.Self, p.Them)
	if err != nil {
		return err
	}

	expectedC := computeChallenge(curve, K, n, msg.R[:], message)
	macOK := expectedC.Equal(c)
	schnorrOK := schnorr.Verify(curve, peerX, R, c, s)

	if err := p.Store.ManageIntrusion(uint32(p.Them), schnorrOK, macOK); err != nil {
		return auth.NewFault(p.Them, auth.ErrStoreUnavailable, err)
	}
	if !macOK || !schnorrOK {
		return auth.NewFault(p.Them, auth.ErrCryptoReject, nil)
	}

	// The verifying side ratchets with the peer's response (spec §4.3,
	// design note §9 open question 3, responder branch).
	if err := ratchet(p, p.Self, p.Them, K, n, s); err != nil {
		return err
	}
	if err := p.Store.RecordCommitment(uint32(p.Them), msg.R); err != nil {
		return auth.NewFault(p.Them, auth.ErrStoreUnavailable, err)
	}
	return nil
}

// computeChallenge derives the Fiat-Shamir challenge c = H(R, K, n, m?) as a
// scalar. The SHA3-256 input is a fixed domain label followed by R, K, n and
// the optional m, each framed by schnorrhash.Builder, rather than a bare
// concatenation of those fields. Binding K and n into
// the hash is what makes c double as the session MAC: a party without K
// cannot produce the c a holder of K will recompute, and a stale (n no
// longer current) proof no longer recomputes to the same c either.
func computeChallenge(curve curves.Curve, K [32]byte, n uint32, R, message []byte) curves.Scalar {
	var nBytes [4]byte
	binary.BigEndian.PutUint32(nBytes[:], n)

	digest := schnorrhash.New().
		Write([]byte("nma-challenge-v1")).
		Write(R).
		Write(K[:]).
		Write(nBytes[:]).
		WriteOptional(message, message != nil).
		Sum()
	return curve.ScalarFromWideBytes(digest[:])
}

// ratchet evolves (K, n) to (K', n'') per spec §4.3: n' = n+1, then
// K' = H(K, n', response), then n'' = n'+1. response is the appropriate
// side's Schnorr response per open question 3 (see callers).
func ratchet(p auth.Peer, self, peer auth.Identity, K [32]byte, n uint32, response curves.Scalar) error {
	nPrime := n + 1
	var nPrimeBytes [4]byte
	binary.BigEndian.PutUint32(nPrimeBytes[:], nPrime)

	KPrime := schnorrhash.New().
		Write([]byte("nma-ratchet-v1")).
		Write(K[:]).
		Write(nPrimeBytes[:]).
		Write(response.Bytes()).
		Sum()

	nDoublePrime := nPrime + 1
	var nDoublePrimeBytes [4]byte
	binary.BigEndian.PutUint32(nDoublePrimeBytes[:], nDoublePrime)

	if err := p.Keyring.Update(keyring.SharedSecret(uint32(self), uint32(peer)), KPrime[:]); err != nil {
		return auth.NewFault(peer, auth.ErrStoreUnavailable, err)
	}
	if err := p.Keyring.Update(keyring.SharedCounter(uint32(self), uint32(peer)), nDoublePrimeBytes[:]); err != nil {
		return auth.NewFault(peer, auth.ErrStoreUnavailable, err)
	}
	return nil
}

func readRatchetState(p auth.Peer, self, peer auth.Identity) ([32]byte, uint32, error) {
	var K [32]byte
	kBytes, ok, err := p.Keyring.Get(keyring.SharedSecret(uint32(self), uint32(peer)), 32)
	if err != nil {
		return K, 0, auth.NewFault(peer, auth.ErrStoreUnavailable, err)
	}
	if !ok {
		return K, 0, auth.NewFault(peer, auth.ErrStoreUnavailable, errors.New("nma: no shared secret for pair; run IMA first"))
	}
	copy(K[:], kBytes)

	nBytes, ok, err := p.Keyring.Get(keyring.SharedCounter(uint32(self), uint32(peer)), 4)
	if err != nil {
		return K, 0, auth.NewFault(peer, auth.ErrStoreUnavailable, err)
	}
	if !ok {
		return K, 0, auth.NewFault(peer, auth.ErrStoreUnavailable, errors.New("nma: no shared counter for pair; run IMA first"))
	}
	return K, binary.BigEndian.Uint32(nBytes), nil
}

// lockPair acquires the per-pair lock required by §5 across the
// verify/prove-then-ratchet sequence, if the backing store supports one.
// Stores that cannot offer an in-process lock (a networked secret manager,
// for instance) are expected to provide their own external serialization;
// lockPair degrades to a no-op unlock in that case rather than failing.
func lockPair(p auth.Peer, self, peer auth.Identity) (func(), error) {
	locker, ok := p.Keyring.(keyring.Locker)
	if !ok {
		return func() {}, nil
	}
	return locker.Lock(uint32(self), uint32(peer)), nil
}

// Role distinguishes the two branches of the NMA.new(A, B, peer_proof?)
// constructor from spec §4.3.1 "Role discipline in NMA": Initiator seeds no
// peer_proof and so has nothing yet to derive a session key from; Responder
// is seeded with the peer's already-received proof and derives the session
// key immediately.
type Role int

const (
	Initiator Role = iota
	Responder
)

// Session is the stateful constructor form the spec names directly as
// NMA.new(A, B, peer_proof?), distinct from the long-lived ratcheted K that
// Prove/Verify evolve. A Session derives a DH-style per-round session key
// the same way IMA derives its shared secret (§4.3.1: "identical to IMA"):
// K_sess = SHA3-256(compress(r_self·R_peer)).
//
// The responder branch (peerProof supplied) derives K_sess immediately from
// the peer's commitment R. The initiator branch (peerProof nil) has no
// peer commitment yet at construction time; it calls DerivePeerProof once
// the peer's own proof arrives, completing a mutual round. Because
// scalar multiplication on the curve commutes, r_A·R_B and r_B·R_A are the
// same point, so both sides land on the same K_sess regardless of which
// branch computed it first.
type Session struct {
	curve  curves.Curve
	role   Role
	self   auth.Identity
	peer   auth.Identity
	prover *schnorr.Prover

	sessionKey     [32]byte
	haveSessionKey bool
}

// New constructs an NMA session for (p.Self, p.Them). peerProof is nil for
// the initiator branch; supplying the peer's already-received NMA message
// selects the responder branch and derives the session key right away.
func New(curve curves.Curve, p auth.Peer, peerProof *auth.NMAMessage) (*Session, error) {
	privBytes, ok, err := p.Keyring.Get(keyring.PrivateKey(uint32(p.Self)), 32)
	if err != nil {
		return nil, auth.NewFault(p.Them, auth.ErrStoreUnavailable, err)
	}
	if !ok {
		return nil, auth.NewFault(p.Them, auth.ErrStoreUnavailable, errors.New("nma: no private key for self"))
	}
	x, err := curve.ScalarFromCanonicalBytes(privBytes)
	if err != nil {
		return nil, auth.NewFault(p.Them, auth.ErrMalformedInput, err)
	}

	prover, err := schnorr.NewProver(curve, x)
	if err != nil {
		return nil, err
	}

	s := &Session{curve: curve, role: Initiator, self: p.Self, peer: p.Them, prover: prover}
	if peerProof != nil {
		s.role = Responder
		if err := s.DerivePeerProof(*peerProof); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Role reports which branch this session took at construction.
func (s *Session) Role() Role { return s.role }

// Commitment returns this session's own R = r·B, the value a peer passes as
// peer_proof when completing a mutual round from the other side.
func (s *Session) Commitment() curves.Point { return s.prover.Commitment() }

// DerivePeerProof derives the DH session key from the peer's commitment R,
// per §4.3.1's "identical to IMA" — compare
// internal/protocol/ima/ima.go's complete(), which performs the same
// peerCommitment.ScalarMult(ownNonce) then Sum256 sequence. The responder
// branch calls this from New; the initiator branch calls it explicitly once
// the peer's own proof arrives.
func (s *Session) DerivePeerProof(peerProof auth.NMAMessage) error {
	peerR, err := s.curve.PointFromBytes(peerProof.R[:])
	if err != nil {
		return auth.NewFault(s.peer, auth.ErrMalformedInput, err)
	}
	shared := peerR.ScalarMult(s.prover.Nonce())
	s.sessionKey = schnorrhash.Sum256(shared.Bytes())
	s.haveSessionKey = true
	return nil
}

// SessionKey returns the derived DH session key and whether it has been
// computed yet (false on an initiator session before DerivePeerProof runs).
func (s *Session) SessionKey() ([32]byte, bool) { return s.sessionKey, s.haveSessionKey }
