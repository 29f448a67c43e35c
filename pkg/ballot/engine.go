package ballot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.dedis.ch/kyber/v3"

	opctx "dreip/pkg/context"
	"dreip/pkg/group"
	"dreip/pkg/log"
	"dreip/pkg/metrics"
	"dreip/pkg/proof"
)

// Engine is the Ballot Engine of §4.3: it mints, audits, confirms, and
// publishes ballots against a storage contract. The HMAC secret, the
// process RNG (via pkg/group), and the stores are the engine's shared
// resources (§5).
type Engine struct {
	Elections  ElectionStore
	Ballots    BallotStore
	Totals     CandidateTotalStore
	Counters   CounterStore
	hmacSecret []byte
	ttl        time.Duration
}

// NewEngine constructs an Engine. ttl is the Unconfirmed-ballot expiry
// window (default config.DefaultUnconfirmedTTL).
func NewEngine(elections ElectionStore, ballots BallotStore, totals CandidateTotalStore, counters CounterStore, hmacSecret []byte, ttl time.Duration) *Engine {
	return &Engine{
		Elections:  elections,
		Ballots:    ballots,
		Totals:     totals,
		Counters:   counters,
		hmacSecret: hmacSecret,
		ttl:        ttl,
	}
}

// TTL returns the configured Unconfirmed-ballot expiry window, for wiring
// into whatever storage implementation enforces it.
func (e *Engine) TTL() time.Duration {
	return e.ttl
}

// Ref identifies a ballot for audit/confirm/fetch_receipt callers.
type Ref struct {
	ElectionID, QuestionID string
	BallotID               uint64
}

// Cast implements `cast`: mints a fresh Unconfirmed ballot for
// candidateChoice. voterRef is opaque and only consulted again at Confirm
// time for the I6 check; it is not persisted as part of the public receipt.
func (e *Engine) Cast(octx *opctx.OperationContext, ctx context.Context, electionID, questionID, candidateChoice, voterRef string) (*Receipt, error) {
	var receipt *Receipt
	err := octx.Recorder.Record("ballot.cast", metrics.MLogic, func() error {
		log.Debug("cast: starting election=%s question=%s", electionID, questionID)

		election, err := e.Elections.GetElection(ctx, electionID)
		if err != nil {
			return newError(KindNotFound, "fetching election %q: %w", electionID, err)
		}
		question, ok := election.Questions[questionID]
		if !ok {
			return newError(KindNotFound, "question %q not found in election %q", questionID, electionID)
		}
		if !containsCandidate(question.Candidates(), candidateChoice) {
			return newError(KindConstraintViolation, "candidate %q is not on question %q", candidateChoice, questionID)
		}

		ballotID, err := e.Counters.NextBallotID(ctx, electionID, questionID)
		if err != nil {
			return newError(KindStorageConflict, "allocating ballot_id: %w", err)
		}

		b, err := e.mintBallot(election, question, electionID, questionID, ballotID, candidateChoice, voterRef)
		if err != nil {
			return err
		}

		if err := e.Ballots.Insert(ctx, b); err != nil {
			return newError(KindStorageConflict, "persisting ballot %d: %w", ballotID, err)
		}

		log.Debug("cast: minted ballot election=%s question=%s ballot_id=%d", electionID, questionID, ballotID)
		receipt = toReceipt(b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// mintBallot performs the pure-crypto half of cast: sampling randomness,
// encoding votes, and producing both proof layers. It never touches
// storage.
func (e *Engine) mintBallot(election *ElectionRecord, question *Question, electionID, questionID string, ballotID uint64, candidateChoice, voterRef string) (*Ballot, error) {
	candidates := question.Candidates()
	crypto := &group.ElectionCrypto{G1: election.G1, G2: election.G2, PrivateKey: election.PrivateKey, PublicKey: election.PublicKey}

	type perCandidate struct {
		name string
		r    kyber.Scalar
		v    int
		R, Z kyber.Point
	}
	minted := make([]perCandidate, len(candidates))

	for i, name := range candidates {
		r := group.RandomScalar()
		v := 0
		if name == candidateChoice {
			v = 1
		}
		R, Z, err := crypto.ComputeVote(r, v)
		if err != nil {
			return nil, newError(KindProofInvalid, "encoding vote for %q: %w", name, err)
		}
		minted[i] = perCandidate{name: name, r: r, v: v, R: R, Z: Z}
	}

	votes := make(map[string]*VoteRecord, len(minted))
	rTotal := group.Suite.Scalar().Zero()
	RTotal := group.Suite.Point().Null()
	ZTotal := group.Suite.Point().Null()

	for _, mc := range minted {
		st := proof.VoteStatement{
			BallotID: ballotID, ElectionID: electionID, QuestionID: questionID,
			CandidateName: mc.name,
			G1:            election.G1, G2: election.G2, Y: election.PublicKey,
			R: mc.R, Z: mc.Z,
		}
		pwf, err := proof.ProveVote(st, mc.r, mc.v)
		if err != nil {
			return nil, newError(KindProofInvalid, "proving vote for %q: %w", mc.name, err)
		}
		votes[mc.name] = &VoteRecord{
			R: mc.R, Z: mc.Z,
			PWF:      &VoteProofWire{C1: pwf.C1, C2: pwf.C2, R1: pwf.R1, R2: pwf.R2},
			Revealed: false,
			Rand:     mc.r,
			V:        mc.v,
		}
		rTotal = group.Suite.Scalar().Add(rTotal, mc.r)
		RTotal = group.Suite.Point().Add(RTotal, mc.R)
		ZTotal = group.Suite.Point().Add(ZTotal, mc.Z)
	}

	bst := proof.BallotStatement{
		ElectionID: electionID, QuestionID: questionID, BallotID: ballotID,
		G1: election.G1, G2: election.G2, RTotal: RTotal, ZTotal: ZTotal,
	}
	ballotPWF, err := proof.ProveBallot(bst, rTotal)
	if err != nil {
		return nil, newError(KindProofInvalid, "proving ballot well-formedness: %w", err)
	}

	code, err := confirmationCode(electionID, questionID, ballotID, RTotal, ZTotal)
	if err != nil {
		return nil, newError(KindProofInvalid, "deriving confirmation code: %w", err)
	}

	sig, err := signReceipt(e.hmacSecret, electionID, questionID, ballotID, Unconfirmed)
	if err != nil {
		return nil, newError(KindProofInvalid, "signing receipt: %w", err)
	}

	return &Ballot{
		ElectionID: electionID, QuestionID: questionID, BallotID: ballotID,
		CreationTime:     time.Now(),
		State:            Unconfirmed,
		Votes:            votes,
		PWF:              &BallotProofWire{A: ballotPWF.A, B: ballotPWF.B, R: ballotPWF.R},
		ConfirmationCode: code,
		Signature:        sig,
		VoterRef:         voterRef,
	}, nil
}

func containsCandidate(candidates []string, name string) bool {
	for _, c := range candidates {
		if c == name {
			return true
		}
	}
	return false
}

// Audit implements `audit`: authenticates the caller via signature,
// transitions Unconfirmed -> Audited, and reveals {r_k, v_k} for every
// candidate. No tally update (I5).
func (e *Engine) Audit(octx *opctx.OperationContext, ctx context.Context, ref Ref, signature []byte) (*Receipt, error) {
	var receipt *Receipt
	err := octx.Recorder.Record("ballot.audit", metrics.MLogic, func() error {
		ok, err := verifyReceiptSignature(e.hmacSecret, ref.ElectionID, ref.QuestionID, ref.BallotID, Unconfirmed, signature)
		if err != nil {
			return newError(KindSignatureInvalid, "verifying receipt signature: %w", err)
		}
		if !ok {
			return newError(KindSignatureInvalid, "receipt signature does not match ballot %d", ref.BallotID)
		}

		if err := e.Ballots.CompareAndSwapState(ctx, ref.ElectionID, ref.QuestionID, ref.BallotID, Unconfirmed, Audited); err != nil {
			return classifyStateError(err, ref.BallotID)
		}

		b, err := e.Ballots.Get(ctx, ref.ElectionID, ref.QuestionID, ref.BallotID)
		if err != nil {
			return newError(KindNotFound, "reloading audited ballot %d: %w", ref.BallotID, err)
		}

		reveal := make(map[string]VoteReveal, len(b.Votes))
		for name, v := range b.Votes {
			v.Revealed = true
			reveal[name] = VoteReveal{Rand: v.Rand, V: v.V}
		}
		if err := e.Ballots.RevealVotes(ctx, ref.ElectionID, ref.QuestionID, ref.BallotID, reveal); err != nil {
			return newError(KindStorageConflict, "persisting revealed votes for ballot %d: %w", ref.BallotID, err)
		}
		b.State = Audited

		log.Debug("audit: revealed ballot election=%s question=%s ballot_id=%d", ref.ElectionID, ref.QuestionID, ref.BallotID)
		receipt = toReceipt(b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// Confirm implements `confirm`: authenticates the caller, enforces I6 and
// the question's group constraint, then atomically transitions the ballot
// to Confirmed and increments every candidate's accumulator (I4). On any
// accumulator failure it compensates by reverting the state transition and
// surfaces KindStorageConflict, per §5.
func (e *Engine) Confirm(octx *opctx.OperationContext, ctx context.Context, ref Ref, signature []byte, voterRef string, voterGroups []string) (*Receipt, error) {
	var receipt *Receipt
	err := octx.Recorder.Record("ballot.confirm", metrics.MLogic, func() error {
		ok, err := verifyReceiptSignature(e.hmacSecret, ref.ElectionID, ref.QuestionID, ref.BallotID, Unconfirmed, signature)
		if err != nil {
			return newError(KindSignatureInvalid, "verifying receipt signature: %w", err)
		}
		if !ok {
			return newError(KindSignatureInvalid, "receipt signature does not match ballot %d", ref.BallotID)
		}

		election, err := e.Elections.GetElection(ctx, ref.ElectionID)
		if err != nil {
			return newError(KindNotFound, "fetching election %q: %w", ref.ElectionID, err)
		}
		question, ok := election.Questions[ref.QuestionID]
		if !ok {
			return newError(KindNotFound, "question %q not found in election %q", ref.QuestionID, ref.ElectionID)
		}
		if !satisfiesGroupConstraint(question.GroupConstraint, voterGroups) {
			return newError(KindConstraintViolation, "voter is not eligible to confirm on question %q", ref.QuestionID)
		}

		if err := e.Ballots.ClaimConfirmation(ctx, ref.ElectionID, ref.QuestionID, voterRef); err != nil {
			return classifyClaimError(err, ref.QuestionID)
		}

		if err := e.Ballots.CompareAndSwapState(ctx, ref.ElectionID, ref.QuestionID, ref.BallotID, Unconfirmed, Confirmed); err != nil {
			if releaseErr := e.Ballots.ReleaseConfirmation(ctx, ref.ElectionID, ref.QuestionID, voterRef); releaseErr != nil {
				log.Error("confirm: releasing confirmation claim failed ballot_id=%d error=%v", ref.BallotID, releaseErr)
			}
			// The ballot passed the signature check above, so NotFound here
			// means it expired while being confirmed.
			var se *Error
			if errors.As(err, &se) && se.Kind == KindNotFound {
				return newError(KindWrongState, "ballot %d is no longer Unconfirmed: %w", ref.BallotID, err)
			}
			return classifyStateError(err, ref.BallotID)
		}

		b, err := e.Ballots.Get(ctx, ref.ElectionID, ref.QuestionID, ref.BallotID)
		if err != nil {
			return newError(KindNotFound, "reloading confirmed ballot %d: %w", ref.BallotID, err)
		}
		b.State = Confirmed

		if err := e.incrementTotals(ctx, ref, b); err != nil {
			// Compensate: revert the state transition and the confirmation
			// claim, and surface a retryable conflict, per §5's
			// degraded-mode rule.
			if revertErr := e.Ballots.CompareAndSwapState(ctx, ref.ElectionID, ref.QuestionID, ref.BallotID, Confirmed, Unconfirmed); revertErr != nil {
				log.Error("confirm: compensating revert failed ballot_id=%d error=%v", ref.BallotID, revertErr)
			}
			if releaseErr := e.Ballots.ReleaseConfirmation(ctx, ref.ElectionID, ref.QuestionID, voterRef); releaseErr != nil {
				log.Error("confirm: releasing confirmation claim failed ballot_id=%d error=%v", ref.BallotID, releaseErr)
			}
			return newError(KindStorageConflict, "incrementing candidate totals for ballot %d: %w", ref.BallotID, err)
		}

		log.Debug("confirm: counted ballot election=%s question=%s ballot_id=%d", ref.ElectionID, ref.QuestionID, ref.BallotID)
		receipt = toReceipt(b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// incrementTotals applies I4 with optimistic-concurrency retries per
// candidate, following §4.4's "read, mutate in process, compare-and-swap"
// contract.
func (e *Engine) incrementTotals(ctx context.Context, ref Ref, b *Ballot) error {
	const maxRetries = 5
	for name, v := range b.Votes {
		var lastErr error
		for attempt := 0; attempt < maxRetries; attempt++ {
			current, err := e.Totals.GetTotal(ctx, ref.ElectionID, ref.QuestionID, name)
			if err != nil {
				return fmt.Errorf("reading total for %q: %w", name, err)
			}
			updated := &CandidateTotal{
				ElectionID: ref.ElectionID, QuestionID: ref.QuestionID, CandidateName: name,
				Tally:   group.Suite.Scalar().Add(current.Tally, group.EncodeBit(v.V)),
				RSum:    group.Suite.Scalar().Add(current.RSum, v.Rand),
				Version: current.Version,
			}
			lastErr = e.Totals.CompareAndSwapTotal(ctx, updated)
			if lastErr == nil {
				break
			}
		}
		if lastErr != nil {
			return fmt.Errorf("exhausted retries updating total for %q: %w", name, lastErr)
		}
	}
	return nil
}

func satisfiesGroupConstraint(constraint map[string][]string, voterGroups []string) bool {
	if len(constraint) == 0 {
		return true
	}
	for _, allowed := range constraint {
		for _, g := range allowed {
			for _, have := range voterGroups {
				if g == have {
					return true
				}
			}
		}
	}
	return false
}

// classifyStateError passes a storage-tagged Error from CompareAndSwapState
// through unchanged (NotFound for a missing or expired ballot, WrongState
// for a state mismatch) and reports any other error as WrongState. Confirm
// turns a NotFound into WrongState before calling it; Audit does not.
func classifyStateError(err error, ballotID uint64) error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return newError(KindWrongState, "ballot %d is not in the expected state: %w", ballotID, err)
}

// classifyClaimError passes a storage-tagged Error through unchanged (the
// reference store already returns KindAlreadyConfirmed), and otherwise
// treats a claim failure as a storage conflict rather than guessing at a
// more specific kind.
func classifyClaimError(err error, questionID string) error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return newError(KindStorageConflict, "claiming confirmation on question %q: %w", questionID, err)
}

// FetchReceipt implements `fetch_receipt`: always the public view, full
// reveal only when Audited.
func (e *Engine) FetchReceipt(octx *opctx.OperationContext, ctx context.Context, ref Ref) (*Receipt, error) {
	var receipt *Receipt
	err := octx.Recorder.Record("ballot.fetch_receipt", metrics.MLogic, func() error {
		b, err := e.Ballots.Get(ctx, ref.ElectionID, ref.QuestionID, ref.BallotID)
		if err != nil {
			return newError(KindNotFound, "fetching ballot %d: %w", ref.BallotID, err)
		}
		receipt = toReceipt(b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}
