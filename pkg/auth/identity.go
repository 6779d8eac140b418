// Package auth is the public surface of the Schnorr mutual-authentication
// core: identities, wire messages, and the error taxonomy. The protocol
// state machines themselves live in internal/protocol/ima and
// internal/protocol/nma; this package is what a caller wiring a transport
// and a keyring together actually imports.
package auth

import (
	"github.com/smallyu/go-schnorr-ratchet/internal/keyring"
	"github.com/smallyu/go-schnorr-ratchet/internal/replay"
)

// Identity names a party. Each identity owns a private scalar x and a
// public point X = x·B, addressed in the keyring by the Key constructors in
// internal/keyring.
type Identity uint32

// Peer bundles one session's own identity, the identity it is
// authenticating with, and the two external collaborators the protocol
// reads and writes through. It exists purely as constructor ergonomics —
// IMA and NMA sessions would otherwise take four separate parameters on
// every call.
type Peer struct {
	Self    Identity
	Them    Identity
	Keyring keyring.Store
	Store   replay.Store
}
