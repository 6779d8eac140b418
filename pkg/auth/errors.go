package auth

import (
	"errors"
	"fmt"
)

// The five error kinds the core distinguishes (spec §7). Callers match
// against these with errors.Is; Fault carries the peer and, where there is
// one, the underlying cause.
var (
	// ErrMalformedInput: a 32-byte field does not decompress to a valid
	// point, or a scalar is not canonical.
	ErrMalformedInput = errors.New("auth: malformed input")

	// ErrOutOfOrder: a stage-tagged message arrived when a different tag
	// was expected.
	ErrOutOfOrder = errors.New("auth: message out of order")

	// ErrReplay: the commitment has already been accepted from this peer.
	ErrReplay = errors.New("auth: commitment already used")

	// ErrCryptoReject: the Schnorr check or the MAC check failed.
	ErrCryptoReject = errors.New("auth: proof rejected")

	// ErrStoreUnavailable: keyring or replay-store I/O failed.
	ErrStoreUnavailable = errors.New("auth: backing store unavailable")
)

// Fault reports a peer-attributable failure. It wraps one of the sentinel
// errors above so callers can still match with errors.Is, while keeping the
// identity of the offending peer and, where applicable, the underlying
// cause available to the caller.
type Fault struct {
	Peer Identity
	Kind error
	Err  error
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("auth: peer %d: %s: %v", f.Peer, f.Kind, f.Err)
	}
	return fmt.Sprintf("auth: peer %d: %s", f.Peer, f.Kind)
}

func (f *Fault) Unwrap() error { return f.Kind }

// NewFault wraps kind (one of the Err* sentinels above) with the peer it is
// attributed to and, optionally, the underlying error that triggered it.
func NewFault(peer Identity, kind error, err error) *Fault {
	return &Fault{Peer: peer, Kind: kind, Err: err}
}
