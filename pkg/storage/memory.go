// Package storage implements the in-memory reference implementation of the
// storage contract declared as Go interfaces in pkg/ballot. It is a test
// double and demo CLI backend, not a production database client.
package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"dreip/pkg/ballot"
	"dreip/pkg/group"
)

type ballotKey struct {
	electionID, questionID string
	ballotID               uint64
}

type confirmKey struct {
	electionID, questionID, voterRef string
}

type totalKey struct {
	electionID, questionID, candidateName string
}

// MemoryStore implements ballot.ElectionStore, ballot.BallotStore,
// ballot.CandidateTotalStore, and ballot.CounterStore over plain Go maps
// guarded by a single mutex. It mirrors the four collections of §6
// one-for-one: elections, ballots, candidate_totals, counters.
type MemoryStore struct {
	mu sync.Mutex

	elections       map[string]*ballot.ElectionRecord
	ballots         map[ballotKey]*ballot.Ballot
	totals          map[totalKey]*ballot.CandidateTotal
	counters        map[string]uint64
	confirmedVoters map[confirmKey]struct{}

	ttl time.Duration
}

// NewMemoryStore creates an empty store. ttl governs Unconfirmed-ballot
// expiry, mirroring the `ballots` collection's TTL index of §6.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		elections:       make(map[string]*ballot.ElectionRecord),
		ballots:         make(map[ballotKey]*ballot.Ballot),
		totals:          make(map[totalKey]*ballot.CandidateTotal),
		counters:        make(map[string]uint64),
		confirmedVoters: make(map[confirmKey]struct{}),
		ttl:             ttl,
	}
}

// PutElection registers an election's crypto bundle and questions. Election
// setup is out of scope for the engine itself (§1 Non-goals); this is the
// demo CLI's seeding hook, not part of the ballot.ElectionStore contract.
func (m *MemoryStore) PutElection(e *ballot.ElectionRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.elections[e.ID] = e
}

func (m *MemoryStore) GetElection(_ context.Context, electionID string) (*ballot.ElectionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.elections[electionID]
	if !ok {
		return nil, ballot.NewError(ballot.KindNotFound, "election %q not found", electionID)
	}
	return e, nil
}

func counterKey(electionID, questionID string) string {
	return electionID + "\x00" + questionID
}

func (m *MemoryStore) NextBallotID(_ context.Context, electionID, questionID string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := counterKey(electionID, questionID)
	next := m.counters[key] + 1
	m.counters[key] = next
	return next, nil
}

func (m *MemoryStore) Insert(_ context.Context, b *ballot.Ballot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := ballotKey{b.ElectionID, b.QuestionID, b.BallotID}
	if _, exists := m.ballots[key]; exists {
		return ballot.NewError(ballot.KindStorageConflict, "ballot %d already exists for (%s, %s)", b.BallotID, b.ElectionID, b.QuestionID)
	}
	m.ballots[key] = b
	return nil
}

// expired reports whether an Unconfirmed ballot has outlived its TTL. A
// ballot with no CreationTime never expires. A racing expiry is surfaced
// to the caller as NotFound, per §5.
func (m *MemoryStore) expired(b *ballot.Ballot) bool {
	return b.State == ballot.Unconfirmed && m.ttl > 0 && !b.CreationTime.IsZero() && time.Since(b.CreationTime) > m.ttl
}

func (m *MemoryStore) Get(_ context.Context, electionID, questionID string, ballotID uint64) (*ballot.Ballot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := ballotKey{electionID, questionID, ballotID}
	b, ok := m.ballots[key]
	if !ok {
		return nil, ballot.NewError(ballot.KindNotFound, "ballot %d not found for (%s, %s)", ballotID, electionID, questionID)
	}
	if m.expired(b) {
		delete(m.ballots, key)
		return nil, ballot.NewError(ballot.KindNotFound, "ballot %d expired", ballotID)
	}
	return b, nil
}

func (m *MemoryStore) CompareAndSwapState(_ context.Context, electionID, questionID string, ballotID uint64, from, to ballot.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := ballotKey{electionID, questionID, ballotID}
	b, ok := m.ballots[key]
	if !ok {
		return ballot.NewError(ballot.KindNotFound, "ballot %d not found for (%s, %s)", ballotID, electionID, questionID)
	}
	if m.expired(b) {
		delete(m.ballots, key)
		return ballot.NewError(ballot.KindNotFound, "ballot %d expired", ballotID)
	}
	if b.State != from {
		return ballot.NewError(ballot.KindWrongState, "ballot %d is %s, not %s", ballotID, b.State, from)
	}
	b.State = to
	return nil
}

func (m *MemoryStore) RevealVotes(_ context.Context, electionID, questionID string, ballotID uint64, reveal map[string]ballot.VoteReveal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := ballotKey{electionID, questionID, ballotID}
	b, ok := m.ballots[key]
	if !ok {
		return ballot.NewError(ballot.KindNotFound, "ballot %d not found for (%s, %s)", ballotID, electionID, questionID)
	}
	for name, r := range reveal {
		v, ok := b.Votes[name]
		if !ok {
			continue
		}
		v.Revealed = true
		v.Rand = r.Rand
		v.V = r.V
	}
	return nil
}

// ClaimConfirmation implements the I6 single-confirmation check and claim as
// one atomic step: under a single critical section it checks whether
// voterRef already holds a confirmed ballot on this question and, if not,
// claims it. Checking and marking separately (as two lockable calls) would
// let two concurrent Confirm calls both observe "not yet confirmed" before
// either claims, producing two Confirmed ballots for one voter.
func (m *MemoryStore) ClaimConfirmation(_ context.Context, electionID, questionID, voterRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := confirmKey{electionID, questionID, voterRef}
	if _, ok := m.confirmedVoters[key]; ok {
		return ballot.NewError(ballot.KindAlreadyConfirmed, "voter has already confirmed a ballot on question %q", questionID)
	}
	m.confirmedVoters[key] = struct{}{}
	return nil
}

// ReleaseConfirmation undoes a ClaimConfirmation, for the compensating path
// when a later step in Confirm fails after the claim was taken.
func (m *MemoryStore) ReleaseConfirmation(_ context.Context, electionID, questionID, voterRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.confirmedVoters, confirmKey{electionID, questionID, voterRef})
	return nil
}

func (m *MemoryStore) totalGet(electionID, questionID, candidateName string) *ballot.CandidateTotal {
	key := totalKey{electionID, questionID, candidateName}
	t, ok := m.totals[key]
	if !ok {
		t = &ballot.CandidateTotal{
			ElectionID: electionID, QuestionID: questionID, CandidateName: candidateName,
			Tally: group.Suite.Scalar().Zero(), RSum: group.Suite.Scalar().Zero(), Version: 0,
		}
		m.totals[key] = t
	}
	return t
}

func (m *MemoryStore) GetTotal(_ context.Context, electionID, questionID, candidateName string) (*ballot.CandidateTotal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.totalGet(electionID, questionID, candidateName)
	// Return a copy so the caller's compare-and-swap can't race the stored
	// version through direct mutation of scalar fields.
	copyOf := *t
	return &copyOf, nil
}

// ListBallots returns every ballot cast on a question, in ascending
// ballot_id order. It is a demo CLI / audit-export reporting helper, not
// part of the ballot.BallotStore contract — a production store would page
// this rather than materialize it whole.
func (m *MemoryStore) ListBallots(electionID, questionID string) []*ballot.Ballot {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*ballot.Ballot
	for key, b := range m.ballots {
		if key.electionID == electionID && key.questionID == questionID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BallotID < out[j].BallotID })
	return out
}

// ListTotals returns the current CandidateTotal for each of candidates, in
// the given order, creating zero-valued entries for any not yet touched.
func (m *MemoryStore) ListTotals(electionID, questionID string, candidates []string) []*ballot.CandidateTotal {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*ballot.CandidateTotal, len(candidates))
	for i, name := range candidates {
		t := m.totalGet(electionID, questionID, name)
		copyOf := *t
		out[i] = &copyOf
	}
	return out
}

func (m *MemoryStore) CompareAndSwapTotal(_ context.Context, updated *ballot.CandidateTotal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := totalKey{updated.ElectionID, updated.QuestionID, updated.CandidateName}
	current := m.totalGet(updated.ElectionID, updated.QuestionID, updated.CandidateName)
	if current.Version != updated.Version {
		return ballot.NewError(ballot.KindStorageConflict, "candidate total for %q has moved from version %d to %d", updated.CandidateName, updated.Version, current.Version)
	}
	stored := *updated
	stored.Version = current.Version + 1
	m.totals[key] = &stored
	return nil
}
