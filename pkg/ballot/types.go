// Package ballot implements the Ballot Engine (§4.3): casting, auditing,
// confirming, and fetching the public view of ballots, plus the storage
// contract (as Go interfaces) the engine is built against.
package ballot

import (
	"time"

	"go.dedis.ch/kyber/v3"
)

// State is one of the three positions in the ballot state machine.
type State int

const (
	Unconfirmed State = iota
	Audited
	Confirmed
)

func (s State) String() string {
	switch s {
	case Unconfirmed:
		return "Unconfirmed"
	case Audited:
		return "Audited"
	case Confirmed:
		return "Confirmed"
	default:
		return "Unknown"
	}
}

// VoteRecord is one candidate's entry in a ballot's vote vector. R and Z
// are always present; the engine's stored record keeps Rand and V, the
// plaintext randomness and bit (I2), in every state, and Revealed is true
// only in the Audited state, where a Receipt exposes them.
type VoteRecord struct {
	R, Z     kyber.Point
	PWF      *VoteProofWire
	Revealed bool
	Rand     kyber.Scalar // r_k; public only if Revealed.
	V        int          // v_k; public only if Revealed.
}

// VoteProofWire is the serializable {c1, c2, r1, r2} shape of §3.
type VoteProofWire struct {
	C1, C2 kyber.Scalar
	R1, R2 kyber.Scalar
}

// BallotProofWire is the serializable {a, b, r} shape of the ballot-level PWF.
type BallotProofWire struct {
	A, B kyber.Point
	R    kyber.Scalar
}

// Ballot is the full internal record of §3, including secrets the engine
// needs but a Receipt (see receipt.go) never exposes in Unconfirmed or
// Confirmed state.
type Ballot struct {
	ElectionID   string
	QuestionID   string
	BallotID     uint64
	CreationTime time.Time
	State        State

	// Votes is keyed by candidate name; iteration order for hashing must be
	// the question's canonical candidate order, never map order.
	Votes map[string]*VoteRecord
	PWF   *BallotProofWire

	ConfirmationCode string
	Signature        []byte

	// VoterRef is an opaque identifier the caller supplies for the I6
	// single-confirmation check. The engine never interprets it.
	VoterRef string
}
