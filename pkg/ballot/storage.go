package ballot

import (
	"context"

	"go.dedis.ch/kyber/v3"
)

// Question mirrors the §3 question shape: candidates and the electorate
// group constraint restricting who may confirm on it.
type Question struct {
	ID         string
	candidates []string
	// GroupConstraint maps an electorate name to the set of group names
	// within it that are permitted to confirm a vote.
	GroupConstraint map[string][]string
}

func NewQuestion(id string, candidates []string, groupConstraint map[string][]string) *Question {
	return &Question{ID: id, candidates: candidates, GroupConstraint: groupConstraint}
}

// Candidates returns the canonical, ordered candidate list. Every hash
// transcript and fan-out that iterates candidates must use this order, not
// map iteration order.
func (q *Question) Candidates() []string {
	return q.candidates
}

// ElectionRecord is the `elections` collection document of §6, trimmed to
// the crypto bundle and question shape the engine actually consumes.
type ElectionRecord struct {
	ID         string
	G1, G2     kyber.Point
	PrivateKey kyber.Scalar // nil once stripped for public-only views.
	PublicKey  kyber.Point
	Questions  map[string]*Question
}

// CandidateTotal is the `candidate_totals` collection document of §6.
// Version implements optimistic concurrency control: a write must supply
// the version it read and is rejected if the document has moved on.
type CandidateTotal struct {
	ElectionID, QuestionID, CandidateName string
	Tally                                 kyber.Scalar
	RSum                                  kyber.Scalar
	Version                               uint64
}

// ElectionStore reads election crypto bundles and question metadata. The
// engine never writes through this interface; election setup is out of
// scope (§1 Non-goals).
type ElectionStore interface {
	GetElection(ctx context.Context, electionID string) (*ElectionRecord, error)
}

// CounterStore implements the atomic find-and-modify-with-upsert counter
// contract of §6 for `ballot_id` allocation. Never generate ballot_id
// client-side (§9).
type CounterStore interface {
	NextBallotID(ctx context.Context, electionID, questionID string) (uint64, error)
}

// BallotStore is the `ballots` collection contract of §6.
type BallotStore interface {
	// Insert persists a freshly cast Unconfirmed ballot. Fails with
	// KindStorageConflict if (election_id, question_id, ballot_id) already
	// exists (I1).
	Insert(ctx context.Context, b *Ballot) error

	// Get returns the ballot with that natural key, or a NotFound Error.
	Get(ctx context.Context, electionID, questionID string, ballotID uint64) (*Ballot, error)

	// CompareAndSwapState performs the conditional update
	// `state == from -> state = to` that both audit and confirm rely on.
	// It returns KindWrongState if the stored state is not `from`, and
	// KindNotFound if the ballot (or its TTL-expired remnant) is gone.
	CompareAndSwapState(ctx context.Context, electionID, questionID string, ballotID uint64, from, to State) error

	// RevealVotes stores the plaintext {r, v} pairs produced by audit. Must
	// only be called after a successful CompareAndSwapState to Audited.
	RevealVotes(ctx context.Context, electionID, questionID string, ballotID uint64, reveal map[string]VoteReveal) error

	// ClaimConfirmation implements the I6 single-confirmation check and
	// claim as one atomic operation: it fails with KindAlreadyConfirmed if
	// voterRef already holds a confirmed ballot on this question, otherwise
	// it claims the confirmation for voterRef and succeeds. Callers must not
	// split this into a separate check-then-mark pair of calls, since two
	// independently-lockable calls reopen the race this method exists to
	// close (two concurrent confirmations for the same voter on two
	// different ballots).
	ClaimConfirmation(ctx context.Context, electionID, questionID, voterRef string) error

	// ReleaseConfirmation undoes a successful ClaimConfirmation. Used to
	// compensate when a later step of Confirm fails after the claim was
	// taken, so the voter may retry.
	ReleaseConfirmation(ctx context.Context, electionID, questionID, voterRef string) error
}

// VoteReveal is the plaintext pair exposed by audit for one candidate.
type VoteReveal struct {
	Rand kyber.Scalar
	V    int
}

// CandidateTotalStore is the `candidate_totals` collection contract of §6.
type CandidateTotalStore interface {
	// GetTotal returns the current total, creating a zero-valued one with
	// Version 0 on first access.
	GetTotal(ctx context.Context, electionID, questionID, candidateName string) (*CandidateTotal, error)

	// CompareAndSwapTotal writes updated in place of the document whose
	// version is updated.Version, incrementing the stored version. Returns
	// KindStorageConflict if the version has moved on since GetTotal.
	CompareAndSwapTotal(ctx context.Context, updated *CandidateTotal) error
}
