// Package e2e drives the full IMA-then-NMA lifecycle across packages,
// routing wire messages between two in-process parties the way two
// independent processes exchanging them would.
package e2e

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallyu/go-schnorr-ratchet/internal/crypto/curves"
	"github.com/smallyu/go-schnorr-ratchet/internal/keyring"
	"github.com/smallyu/go-schnorr-ratchet/internal/protocol/ima"
	"github.com/smallyu/go-schnorr-ratchet/internal/protocol/nma"
	"github.com/smallyu/go-schnorr-ratchet/internal/replay"
	"github.com/smallyu/go-schnorr-ratchet/pkg/auth"
)

const (
	alice auth.Identity = 1
	bob   auth.Identity = 2
)

func setupIdentities(t *testing.T) (*keyring.Memory, *replay.Memory) {
	t.Helper()
	store := keyring.NewMemory()
	for _, id := range []auth.Identity{alice, bob} {
		kp, err := auth.GenerateKeyPair()
		require.NoError(t, err)
		require.NoError(t, store.Put(keyring.PrivateKey(uint32(id)), kp.Private[:]))
		require.NoError(t, store.Put(keyring.PublicKey(uint32(id)), kp.Public[:]))
	}
	return store, replay.NewMemory(3, 3, 3)
}

func runIMA(t *testing.T, curve curves.Curve, peerAlice, peerBob auth.Peer) {
	t.Helper()
	initiator, err := ima.New(curve, ima.Initiator, peerAlice)
	require.NoError(t, err)
	receiver, err := ima.New(curve, ima.Receiver, peerBob)
	require.NoError(t, err)

	msg1, err := initiator.GenNext()
	require.NoError(t, err)
	require.NoError(t, receiver.Ingest(msg1))

	msg2, err := receiver.GenNext()
	require.NoError(t, err)
	require.NoError(t, initiator.Ingest(msg2))

	msg3, err := initiator.GenNext()
	require.NoError(t, err)
	require.NoError(t, receiver.Ingest(msg3))

	msg4, err := receiver.GenNext()
	require.NoError(t, err)
	require.NoError(t, initiator.Ingest(msg4))
	require.NoError(t, receiver.Finish())

	require.True(t, initiator.Accepted())
	require.True(t, receiver.Accepted())
}

// TestHandshakeThenRatchetedAuthentication covers the common path end to
// end: IMA establishes the shared secret, then a sequence of NMA rounds
// authenticates alice to bob, each ratcheting the shared state forward.
func TestHandshakeThenRatchetedAuthentication(t *testing.T) {
	curve := curves.NewEd25519()
	store, replays := setupIdentities(t)
	peerAlice := auth.Peer{Self: alice, Them: bob, Keyring: store, Store: replays}
	peerBob := auth.Peer{Self: bob, Them: alice, Keyring: store, Store: replays}

	runIMA(t, curve, peerAlice, peerBob)

	for i := 0; i < 3; i++ {
		msg, err := nma.Prove(curve, peerAlice, []byte("request"))
		require.NoError(t, err)
		require.NoError(t, nma.Verify(curve, peerBob, msg, []byte("request")))
	}

	cAlice, _, err := store.Get(keyring.SharedCounter(uint32(alice), uint32(bob)), 4)
	require.NoError(t, err)
	cBob, _, err := store.Get(keyring.SharedCounter(uint32(bob), uint32(alice)), 4)
	require.NoError(t, err)
	assert.Equal(t, cAlice, cBob, "three NMA rounds must leave both sides' counters in lockstep")
}

// TestReplayedIMACommitmentIsRejected exercises the cross-package defense
// in depth: a fresh IMA session built with a reused commitment must be
// rejected even though the cryptographic material is otherwise valid.
func TestReplayedIMACommitmentIsRejected(t *testing.T) {
	curve := curves.NewEd25519()
	store, replays := setupIdentities(t)
	peerAlice := auth.Peer{Self: alice, Them: bob, Keyring: store, Store: replays}
	peerBob := auth.Peer{Self: bob, Them: alice, Keyring: store, Store: replays}

	initiator, err := ima.New(curve, ima.Initiator, peerAlice)
	require.NoError(t, err)
	msg1, err := initiator.GenNext()
	require.NoError(t, err)

	require.NoError(t, replays.RecordCommitment(uint32(alice), msg1.Val1))

	receiver, err := ima.New(curve, ima.Receiver, peerBob)
	require.NoError(t, err)
	err = receiver.Ingest(msg1)
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrReplay)
}

// TestNMAWithoutPriorHandshakeFails checks that NMA refuses to run before
// IMA has ever populated the shared secret for the pair.
func TestNMAWithoutPriorHandshakeFails(t *testing.T) {
	curve := curves.NewEd25519()
	store, replays := setupIdentities(t)
	peerAlice := auth.Peer{Self: alice, Them: bob, Keyring: store, Store: replays}

	_, err := nma.Prove(curve, peerAlice, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrStoreUnavailable)
}
