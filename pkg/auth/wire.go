package auth

// Stage tags an IMA message with the step of §4.2's four-message trace it
// carries.
type Stage byte

const (
	// StageNextStepRequired is the sentinel emitted when a session has
	// nothing to send at this point.
	StageNextStepRequired Stage = 0
	// StageCommitment carries R alone (message 1, I→R).
	StageCommitment Stage = 1
	// StageCommitmentAndChallenge carries R and c (message 2, R→I).
	StageCommitmentAndChallenge Stage = 2
	// StageChallengeAndResponse carries c and s (message 3, I→R).
	StageChallengeAndResponse Stage = 3
	// StageResponse carries s alone (message 4, R→I).
	StageResponse Stage = 4
)

// IMAMessage is one step of the interactive protocol: (tag, val1, val2?).
// Val2 is meaningful iff Stage is StageCommitmentAndChallenge or
// StageChallengeAndResponse; HasVal2 records whether it was sent so a
// sentinel message can't be mistaken for a zero-valued real one.
type IMAMessage struct {
	Stage   Stage
	Val1    [32]byte
	Val2    [32]byte
	HasVal2 bool
}

// SentinelIMAMessage is returned by a session while it is waiting on the
// peer's next message, and once every message it is responsible for
// emitting has already been sent.
func SentinelIMAMessage() IMAMessage {
	return IMAMessage{Stage: StageNextStepRequired}
}

// NMAMessage is the wire form of a non-interactive proof: (R, c, s). The
// MAC is never a separate field — the challenge c itself serves as the MAC,
// and the verifier recomputes it from (K, n, R, m?) (spec §4.3, design
// note §9 open question 2).
type NMAMessage struct {
	R [32]byte
	C [32]byte
	S [32]byte
}
