// Package ima implements the Interactive Mutual Authentication protocol
// (spec §4.2): the four-message Schnorr exchange two identities run to
// bootstrap a shared secret and a shared counter in the keyring. It is
// modeled as an explicit state machine — an out-of-sequence Ingest returns
// a typed OutOfOrder fault, and GenNext returns the NEXT_STEP_REQUIRED
// sentinel whenever this side has nothing to send yet or any more — built
// on the single Schnorr primitive in internal/crypto/zk/schnorr, shared
// with package nma so the proof logic is never duplicated.
package ima

import (
	"errors"

	"github.com/smallyu/go-schnorr-ratchet/internal/crypto/curves"
	"github.com/smallyu/go-schnorr-ratchet/internal/crypto/schnorrhash"
	"github.com/smallyu/go-schnorr-ratchet/internal/crypto/zk/schnorr"
	"github.com/smallyu/go-schnorr-ratchet/internal/keyring"
	"github.com/smallyu/go-schnorr-ratchet/internal/replay"
	"github.com/smallyu/go-schnorr-ratchet/pkg/auth"
)

// Role distinguishes the two halves of the exchange: the initiator sends
// first (message 1), the receiver replies (message 2) and completes the
// trace (message 4).
type Role int

const (
	Initiator Role = 0
	Receiver  Role = 1
)

// Session drives one IMA exchange for one party. It is not safe for
// concurrent use — a session belongs to one logical party and is driven by
// one caller at a time (spec §5).
type Session struct {
	curve curves.Curve
	role  Role
	self  auth.Identity
	peer  auth.Identity

	keys    keyring.Store
	replays replay.Store

	x     curves.Scalar
	peerX curves.Point

	prover       *schnorr.Prover
	ownChallenge curves.Scalar

	sentCommitment     bool
	havePeerCommitment bool
	peerCommitment     curves.Point

	sentOwnPart           bool // message 4 (receiver) / message 3 (initiator) sent
	challengeFromPeer     curves.Scalar
	haveChallengeFromPeer bool

	done     bool
	accepted bool
}

// New creates an IMA session. Both roles draw their nonce r and their own
// challenge c at construction — neither depends on anything from the peer.
func New(curve curves.Curve, role Role, p auth.Peer) (*Session, error) {
	privBytes, ok, err := p.Keyring.Get(keyring.PrivateKey(uint32(p.Self)), 32)
	if err != nil {
		return nil, auth.NewFault(p.Them, auth.ErrStoreUnavailable, err)
	}
	if !ok {
		return nil, auth.NewFault(p.Them, auth.ErrStoreUnavailable, errors.New("ima: no private key for self"))
	}
	x, err := curve.ScalarFromCanonicalBytes(privBytes)
	if err != nil {
		return nil, auth.NewFault(p.Them, auth.ErrMalformedInput, err)
	}

	peerPubBytes, ok, err := p.Keyring.Get(keyring.PublicKey(uint32(p.Them)), 32)
	if err != nil {
		return nil, auth.NewFault(p.Them, auth.ErrStoreUnavailable, err)
	}
	if !ok {
		return nil, auth.NewFault(p.Them, auth.ErrStoreUnavailable, errors.New("ima: no public key for peer"))
	}
	peerX, err := curve.PointFromBytes(peerPubBytes)
	if err != nil {
		return nil, auth.NewFault(p.Them, auth.ErrMalformedInput, err)
	}

	prover, err := schnorr.NewProver(curve, x)
	if err != nil {
		return nil, err
	}
	ownChallenge, err := curve.NewScalar()
	if err != nil {
		return nil, err
	}

	return &Session{
		curve:        curve,
		role:         role,
		self:         p.Self,
		peer:         p.Them,
		keys:         p.Keyring,
		replays:      p.Store,
		x:            x,
		peerX:        peerX,
		prover:       prover,
		ownChallenge: ownChallenge,
	}, nil
}

// Accepted reports whether the exchange has completed successfully and the
// shared secret has been written to the keyring.
func (s *Session) Accepted() bool { return s.accepted }

// Done reports whether this session has nothing further to send or ingest.
func (s *Session) Done() bool { return s.done }

// GenNext advances the stage and returns the next message this session is
// responsible for emitting. While it is waiting on the peer's next message,
// and once there is nothing left for this role to send, it returns the
// StageNextStepRequired sentinel.
func (s *Session) GenNext() (auth.IMAMessage, error) {
	if s.role == Initiator {
		return s.initiatorNext()
	}
	return s.receiverNext()
}

func (s *Session) initiatorNext() (auth.IMAMessage, error) {
	switch {
	case !s.sentCommitment:
		s.sentCommitment = true
		var msg auth.IMAMessage
		msg.Stage = auth.StageCommitment
		copy(msg.Val1[:], s.prover.Commitment().Bytes())
		return msg, nil

	case !s.havePeerCommitment:
		return auth.SentinelIMAMessage(), nil

	case !s.sentOwnPart:
		resp, err := s.prover.Respond(s.challengeFromPeer)
		if err != nil {
			return auth.IMAMessage{}, err
		}
		s.sentOwnPart = true
		var msg auth.IMAMessage
		msg.Stage = auth.StageChallengeAndResponse
		copy(msg.Val1[:], s.ownChallenge.Bytes())
		copy(msg.Val2[:], resp.Bytes())
		msg.HasVal2 = true
		return msg, nil

	default:
		return auth.SentinelIMAMessage(), nil
	}
}

func (s *Session) receiverNext() (auth.IMAMessage, error) {
	switch {
	case !s.havePeerCommitment:
		return auth.SentinelIMAMessage(), nil

	case !s.sentCommitment:
		s.sentCommitment = true
		var msg auth.IMAMessage
		msg.Stage = auth.StageCommitmentAndChallenge
		copy(msg.Val1[:], s.prover.Commitment().Bytes())
		copy(msg.Val2[:], s.ownChallenge.Bytes())
		msg.HasVal2 = true
		return msg, nil

	case !s.haveChallengeFromPeer:
		return auth.SentinelIMAMessage(), nil

	case !s.sentOwnPart:
		resp, err := s.prover.Respond(s.challengeFromPeer)
		if err != nil {
			return auth.IMAMessage{}, err
		}
		s.sentOwnPart = true
		var msg auth.IMAMessage
		msg.Stage = auth.StageResponse
		copy(msg.Val1[:], resp.Bytes())
		return msg, nil

	default:
		return auth.SentinelIMAMessage(), nil
	}
}

// Ingest processes a message received from the peer. A stage tag that does
// not match what this session currently expects is rejected as out of
// order, with no state mutation (spec §4.2, §7).
func (s *Session) Ingest(msg auth.IMAMessage) error {
	if s.done {
		return auth.NewFault(s.peer, auth.ErrOutOfOrder, nil)
	}
	switch msg.Stage {
	case auth.StageCommitment:
		return s.ingestCommitment(msg)
	case auth.StageCommitmentAndChallenge:
		return s.ingestCommitmentAndChallenge(msg)
	case auth.StageChallengeAndResponse:
		return s.ingestChallengeAndResponse(msg)
	case auth.StageResponse:
		return s.ingestResponse(msg)
	default:
		return auth.NewFault(s.peer, auth.ErrOutOfOrder, nil)
	}
}

// ingestCommitment handles message 1 (receiver's view): R_I alone.
func (s *Session) ingestCommitment(msg auth.IMAMessage) error {
	if s.role != Receiver || s.havePeerCommitment {
		return auth.NewFault(s.peer, auth.ErrOutOfOrder, nil)
	}
	return s.acceptPeerCommitment(msg.Val1)
}

// ingestCommitmentAndChallenge handles message 2 (initiator's view): R_R, c_R.
func (s *Session) ingestCommitmentAndChallenge(msg auth.IMAMessage) error {
	if s.role != Initiator || s.havePeerCommitment || !msg.HasVal2 {
		return auth.NewFault(s.peer, auth.ErrOutOfOrder, nil)
	}
	if err := s.acceptPeerCommitment(msg.Val1); err != nil {
		return err
	}
	c, err := s.curve.ScalarFromCanonicalBytes(msg.Val2[:])
	if err != nil {
		return auth.NewFault(s.peer, auth.ErrMalformedInput, err)
	}
	s.challengeFromPeer = c
	s.haveChallengeFromPeer = true
	return nil
}

// ingestChallengeAndResponse handles message 3 (receiver's view): c_I, s_I.
// s_I is the initiator's response to this session's own challenge, so it is
// verified here and now, using the receiver's ownChallenge.
func (s *Session) ingestChallengeAndResponse(msg auth.IMAMessage) error {
	if s.role != Receiver || !s.sentCommitment || s.haveChallengeFromPeer || !msg.HasVal2 {
		return auth.NewFault(s.peer, auth.ErrOutOfOrder, nil)
	}
	c, err := s.curve.ScalarFromCanonicalBytes(msg.Val1[:])
	if err != nil {
		return auth.NewFault(s.peer, auth.ErrMalformedInput, err)
	}
	peerResp, err := s.curve.ScalarFromCanonicalBytes(msg.Val2[:])
	if err != nil {
		return auth.NewFault(s.peer, auth.ErrMalformedInput, err)
	}
	if !schnorr.Verify(s.curve, s.peerX, s.peerCommitment, s.ownChallenge, peerResp) {
		return auth.NewFault(s.peer, auth.ErrCryptoReject, nil)
	}
	s.challengeFromPeer = c
	s.haveChallengeFromPeer = true
	return nil
}

// ingestResponse handles message 4 (initiator's view): s_R, the receiver's
// response to the initiator's own challenge. Verifying it completes the
// exchange and derives the shared secret.
func (s *Session) ingestResponse(msg auth.IMAMessage) error {
	if s.role != Initiator || !s.sentOwnPart || s.done {
		return auth.NewFault(s.peer, auth.ErrOutOfOrder, nil)
	}
	peerResp, err := s.curve.ScalarFromCanonicalBytes(msg.Val1[:])
	if err != nil {
		return auth.NewFault(s.peer, auth.ErrMalformedInput, err)
	}
	if !schnorr.Verify(s.curve, s.peerX, s.peerCommitment, s.ownChallenge, peerResp) {
		return auth.NewFault(s.peer, auth.ErrCryptoReject, nil)
	}
	return s.complete()
}

// acceptPeerCommitment runs the replay check from spec §4.4 before storing
// a newly learned peer commitment. For the receiver this completes its
// half of message 1's processing; for the initiator it is step one of
// ingesting message 2. On the receiver side this alone does not yet
// complete the exchange — the receiver completes only through Finish,
// after it has emitted message 4.
func (s *Session) acceptPeerCommitment(rBytes [32]byte) error {
	R, err := s.curve.PointFromBytes(rBytes[:])
	if err != nil {
		return auth.NewFault(s.peer, auth.ErrMalformedInput, err)
	}
	unseen, err := s.replays.CheckCommitment(uint32(s.peer), rBytes)
	if err != nil {
		return auth.NewFault(s.peer, auth.ErrStoreUnavailable, err)
	}
	if !unseen {
		return auth.NewFault(s.peer, auth.ErrReplay, nil)
	}
	s.peerCommitment = R
	s.havePeerCommitment = true
	return nil
}

// complete derives the shared secret K = SHA3-256(compress(r_self·R_peer))
// and writes SharedSecretKey / SharedCounter=1 to the keyring (spec §4.2),
// and records the peer's commitment as used (spec §4.4). The initiator
// calls it once message 4 verifies; the receiver calls it through Finish
// after emitting message 4 — see Finish below for the receiver side of
// this asymmetry.
func (s *Session) complete() error {
	var rBytes [32]byte
	copy(rBytes[:], s.peerCommitment.Bytes())
	if err := s.replays.RecordCommitment(uint32(s.peer), rBytes); err != nil {
		return auth.NewFault(s.peer, auth.ErrStoreUnavailable, err)
	}

	shared := s.peerCommitment.ScalarMult(s.prover.Nonce())
	K := schnorrhash.Sum256(shared.Bytes())

	if err := s.keys.Put(keyring.SharedSecret(uint32(s.self), uint32(s.peer)), K[:]); err != nil {
		return auth.NewFault(s.peer, auth.ErrStoreUnavailable, err)
	}
	counter := []byte{0, 0, 0, 1}
	if err := s.keys.Put(keyring.SharedCounter(uint32(s.self), uint32(s.peer)), counter); err != nil {
		return auth.NewFault(s.peer, auth.ErrStoreUnavailable, err)
	}

	s.accepted = true
	s.done = true
	return nil
}

// Finish lets the receiver close out its session once it has emitted
// message 4: the receiver's proof of knowledge is only actually checked by
// the initiator, so a receiver that wants to record the same shared secret
// locally (rather than only ever learning of success implicitly) derives
// it directly, without waiting on a round trip that the protocol never
// sends back.
func (s *Session) Finish() error {
	if s.role != Receiver || !s.sentOwnPart || s.done {
		return auth.NewFault(s.peer, auth.ErrOutOfOrder, nil)
	}
	return s.complete()
}
