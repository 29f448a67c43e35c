// Package verify implements the Verification/Audit component of §4.5: an
// independent, read-only re-checker that takes a public "question dump"
// and re-verifies every proof and homomorphic identity the system's
// invariants require.
package verify

import (
	"fmt"

	"go.dedis.ch/kyber/v3"

	"dreip/pkg/ballot"
	opctx "dreip/pkg/context"
	"dreip/pkg/concurrency"
	"dreip/pkg/group"
	"dreip/pkg/metrics"
	"dreip/pkg/proof"
	"dreip/pkg/tally"
)

// Dump is the question dump of §4.5: everything an independent verifier
// needs, and nothing it must trust the server for.
type Dump struct {
	ElectionID, QuestionID string
	G1, G2, Y              kyber.Point
	Candidates             []string

	Audited   []*ballot.Ballot // state == Audited, with {r_k, v_k} revealed.
	Confirmed []*ballot.Ballot // state == Confirmed, secret form.

	// Totals and PrivateKey/TrusteeShares are populated only once the
	// election is closed; phase 3 is skipped when Totals is nil, and
	// otherwise needs PrivateKey or TrusteeShares.
	Totals        []*ballot.CandidateTotal
	PrivateKey    kyber.Scalar
	TrusteeShares []*tally.DKGShare
}

// Verify runs the three ordered checks of §4.5 and returns at the first
// failure. It is strictly read-only and deterministic.
func Verify(octx *opctx.OperationContext, dump *Dump) error {
	return octx.Recorder.Record("verify.question", metrics.MLogic, func() error {
		if err := verifyAudited(octx, dump); err != nil {
			return fmt.Errorf("phase 1 (audited ballots): %w", err)
		}
		if err := verifyConfirmed(octx, dump); err != nil {
			return fmt.Errorf("phase 2 (confirmed ballots): %w", err)
		}
		if dump.Totals != nil {
			if err := verifyTotals(octx, dump); err != nil {
				return fmt.Errorf("phase 3 (candidate totals): %w", err)
			}
		}
		return nil
	})
}

// verifyAudited implements check 1: revealed encoding, bit range,
// per-vote PWF, the ballot sums to one, and the ballot-level PWF.
func verifyAudited(octx *opctx.OperationContext, dump *Dump) error {
	return octx.Recorder.Record("verify.audited", metrics.MLogic, func() error {
		return concurrency.ForEach(octx, dump.Audited, func(_ int, b *ballot.Ballot) error {
			return verifyAuditedBallot(dump, b)
		})
	})
}

func verifyAuditedBallot(dump *Dump, b *ballot.Ballot) error {
	sumV := 0
	RTotal := group.Suite.Point().Null()
	ZTotal := group.Suite.Point().Null()

	for _, name := range dump.Candidates {
		v, ok := b.Votes[name]
		if !ok {
			return fmt.Errorf("ballot %d: missing vote for candidate %q", b.BallotID, name)
		}
		if !v.Revealed {
			return fmt.Errorf("ballot %d: candidate %q is not revealed in an audited ballot", b.BallotID, name)
		}
		if v.V != 0 && v.V != 1 {
			return fmt.Errorf("ballot %d: candidate %q has an out-of-range revealed bit %d", b.BallotID, name, v.V)
		}

		expectedR := group.Suite.Point().Mul(v.Rand, dump.G1)
		if !expectedR.Equal(v.R) {
			return fmt.Errorf("ballot %d: candidate %q's R does not match revealed randomness", b.BallotID, name)
		}
		expectedZ := group.Suite.Point().Mul(v.Rand, dump.G2)
		if v.V == 1 {
			expectedZ = group.Suite.Point().Add(expectedZ, dump.G1)
		}
		if !expectedZ.Equal(v.Z) {
			return fmt.Errorf("ballot %d: candidate %q's Z does not match revealed (randomness, bit)", b.BallotID, name)
		}

		if err := verifyVotePWF(dump, b, name, v); err != nil {
			return err
		}

		sumV += v.V
		RTotal = group.Suite.Point().Add(RTotal, v.R)
		ZTotal = group.Suite.Point().Add(ZTotal, v.Z)
	}

	if sumV != 1 {
		return fmt.Errorf("ballot %d: revealed votes sum to %d, not 1", b.BallotID, sumV)
	}
	return verifyBallotPWF(dump, b, RTotal, ZTotal)
}

// verifyConfirmed implements check 2: per-vote and ballot-level PWFs only
// (the secret form never reveals r, v).
func verifyConfirmed(octx *opctx.OperationContext, dump *Dump) error {
	return octx.Recorder.Record("verify.confirmed", metrics.MLogic, func() error {
		return concurrency.ForEach(octx, dump.Confirmed, func(_ int, b *ballot.Ballot) error {
			return verifyConfirmedBallot(dump, b)
		})
	})
}

func verifyConfirmedBallot(dump *Dump, b *ballot.Ballot) error {
	RTotal := group.Suite.Point().Null()
	ZTotal := group.Suite.Point().Null()
	for _, name := range dump.Candidates {
		v, ok := b.Votes[name]
		if !ok {
			return fmt.Errorf("ballot %d: missing vote for candidate %q", b.BallotID, name)
		}
		if err := verifyVotePWF(dump, b, name, v); err != nil {
			return err
		}
		RTotal = group.Suite.Point().Add(RTotal, v.R)
		ZTotal = group.Suite.Point().Add(ZTotal, v.Z)
	}
	return verifyBallotPWF(dump, b, RTotal, ZTotal)
}

func verifyVotePWF(dump *Dump, b *ballot.Ballot, candidateName string, v *ballot.VoteRecord) error {
	if v.PWF == nil {
		return fmt.Errorf("ballot %d: candidate %q has no per-vote proof", b.BallotID, candidateName)
	}
	st := proof.VoteStatement{
		BallotID: b.BallotID, ElectionID: dump.ElectionID, QuestionID: dump.QuestionID,
		CandidateName: candidateName,
		G1:            dump.G1, G2: dump.G2, Y: dump.Y,
		R: v.R, Z: v.Z,
	}
	p := &proof.VoteProof{C1: v.PWF.C1, C2: v.PWF.C2, R1: v.PWF.R1, R2: v.PWF.R2}
	if err := proof.VerifyVote(st, p); err != nil {
		return fmt.Errorf("ballot %d: candidate %q: %w", b.BallotID, candidateName, err)
	}
	return nil
}

func verifyBallotPWF(dump *Dump, b *ballot.Ballot, RTotal, ZTotal kyber.Point) error {
	if b.PWF == nil {
		return fmt.Errorf("ballot %d: has no ballot-level proof", b.BallotID)
	}
	st := proof.BallotStatement{
		ElectionID: dump.ElectionID, QuestionID: dump.QuestionID, BallotID: b.BallotID,
		G1: dump.G1, G2: dump.G2, RTotal: RTotal, ZTotal: ZTotal,
	}
	p := &proof.BallotProof{A: b.PWF.A, B: b.PWF.B, R: b.PWF.R}
	if err := proof.VerifyBallot(st, p); err != nil {
		return fmt.Errorf("ballot %d: %w", b.BallotID, err)
	}
	return nil
}

// verifyTotals implements check 3: per-candidate r_sum/tally recovery and
// the question-wide plausible-count cross-check.
func verifyTotals(octx *opctx.OperationContext, dump *Dump) error {
	return octx.Recorder.Record("verify.totals", metrics.MLogic, func() error {
		confirmedCount := len(dump.Confirmed)

		for _, total := range dump.Totals {
			sums := tally.SumConfirmedVotes(dump.Confirmed, total.CandidateName)

			var recovered kyber.Point
			switch {
			case dump.PrivateKey != nil:
				recovered = tally.RecoverSingleKey(dump.PrivateKey, sums)
			case len(dump.TrusteeShares) > 0:
				r, _, err := tally.RecoverMultiTrustee(dump.TrusteeShares, sums)
				if err != nil {
					return fmt.Errorf("candidate %q: recovering via trustee shares: %w", total.CandidateName, err)
				}
				recovered = r
			default:
				return fmt.Errorf("totals supplied without a private key or trustee shares to recover them")
			}

			if err := tally.VerifyCandidateTotal(total, sums, recovered); err != nil {
				return err
			}

			tallyInt, err := scalarToSmallInt(total.Tally, confirmedCount)
			if err != nil {
				return fmt.Errorf("candidate %q: %w", total.CandidateName, err)
			}
			if tallyInt < 0 || tallyInt > confirmedCount {
				return fmt.Errorf("candidate %q: tally %d is not a plausible count for %d confirmed ballots", total.CandidateName, tallyInt, confirmedCount)
			}
		}

		sumScalar := tally.SumTallies(dump.Totals)
		expected := group.Suite.Scalar().SetInt64(int64(confirmedCount))
		if !sumScalar.Equal(expected) {
			return fmt.Errorf("sum of candidate tallies does not equal the number of confirmed ballots (%d)", confirmedCount)
		}
		return nil
	})
}

// scalarToSmallInt recovers a plaintext integer from a Zq scalar known to
// lie in [0, bound], by trial comparison — tallies are bounded by the
// number of confirmed ballots on a question, never large enough to need a
// real discrete-log search.
func scalarToSmallInt(s kyber.Scalar, bound int) (int, error) {
	candidate := group.Suite.Scalar().Zero()
	for i := 0; i <= bound; i++ {
		if candidate.Equal(s) {
			return i, nil
		}
		candidate = group.Suite.Scalar().Add(candidate, group.Suite.Scalar().One())
	}
	return 0, fmt.Errorf("scalar does not correspond to any integer in [0, %d]", bound)
}
