package tally

import (
	"fmt"

	"go.dedis.ch/kyber/v3"
	kproof "go.dedis.ch/kyber/v3/proof"

	"dreip/pkg/ballot"
	"dreip/pkg/group"
)

// CandidateSums is the homomorphic sum of (R, Z) across every confirmed
// ballot's vote for one candidate — the actual ciphertext aggregate the
// accumulator's scalars are checked against.
type CandidateSums struct {
	RSum, ZSum kyber.Point
}

// SumConfirmedVotes recomputes CandidateSums for candidateName from a set
// of ballots. Only ballots in state Confirmed contribute, per I4/I5.
func SumConfirmedVotes(ballots []*ballot.Ballot, candidateName string) CandidateSums {
	RSum := group.Suite.Point().Null()
	ZSum := group.Suite.Point().Null()
	for _, b := range ballots {
		if b.State != ballot.Confirmed {
			continue
		}
		v, ok := b.Votes[candidateName]
		if !ok {
			continue
		}
		RSum = group.Suite.Point().Add(RSum, v.R)
		ZSum = group.Suite.Point().Add(ZSum, v.Z)
	}
	return CandidateSums{RSum: RSum, ZSum: ZSum}
}

// RecoverSingleKey computes Z_sum - x*R_sum, the baseline single-key
// close-time recovery of §4.4.
func RecoverSingleKey(x kyber.Scalar, sums CandidateSums) kyber.Point {
	xR := group.Suite.Point().Mul(x, sums.RSum)
	return group.Suite.Point().Sub(sums.ZSum, xR)
}

// ShareProof is a trustee's proof that its published partial decryption
// was formed honestly from the public share it committed to at DKG time:
// a DLEQ proof that the same scalar sk satisfies Pk = sk*g1 and
// Partial = sk*R_sum.
type ShareProof struct {
	predicate kproof.Predicate
	points    map[string]kyber.Point
	proof     []byte
}

// partialDecrypt computes one trustee's contribution sk*R_sum and a DLEQ
// proof binding it to the trustee's public share, mirroring the teacher's
// generic-predicate ElGamal proof idiom.
func partialDecrypt(share *DKGShare, RSum kyber.Point) (kyber.Point, *ShareProof, error) {
	partial := group.Suite.Point().Mul(share.Sk, RSum)

	predicate := kproof.And(kproof.Rep("Pk", "sk", "G1"), kproof.Rep("Partial", "sk", "RSum"))
	points := map[string]kyber.Point{"Pk": share.Pk, "G1": group.G1, "Partial": partial, "RSum": RSum}
	secrets := map[string]kyber.Scalar{"sk": share.Sk}

	prover := predicate.Prover(group.Suite, secrets, points, nil)
	proofBytes, err := kproof.HashProve(group.Suite, "dreip-tally-share", prover)
	if err != nil {
		return nil, nil, fmt.Errorf("proving partial decryption: %w", err)
	}

	return partial, &ShareProof{predicate: predicate, points: points, proof: proofBytes}, nil
}

// Verify checks a trustee's DLEQ proof against its claimed partial
// decryption.
func (p *ShareProof) Verify() error {
	verifier := p.predicate.Verifier(group.Suite, p.points)
	if err := kproof.HashVerify(group.Suite, "dreip-tally-share", verifier, p.proof); err != nil {
		return fmt.Errorf("verifying partial decryption proof: %w", err)
	}
	return nil
}

// RecoverMultiTrustee recovers tally*g1 without ever reconstructing the
// election private key in one place: each trustee contributes
// sk_i*R_sum, the contributions are subtracted from Z_sum one at a time,
// and each trustee's contribution carries its own DLEQ proof. After every
// share has been applied, the accumulated result equals
// Z_sum - (Σ sk_i)*R_sum = Z_sum - x*R_sum, the same quantity
// RecoverSingleKey computes from the whole key directly.
func RecoverMultiTrustee(shares []*DKGShare, sums CandidateSums) (kyber.Point, []*ShareProof, error) {
	proofs := make([]*ShareProof, len(shares))
	remainder := group.Suite.Point().Set(sums.ZSum)

	for i, share := range shares {
		partial, shareProof, err := partialDecrypt(share, sums.RSum)
		if err != nil {
			return nil, nil, fmt.Errorf("trustee %d: %w", i, err)
		}
		if err := shareProof.Verify(); err != nil {
			return nil, nil, fmt.Errorf("trustee %d produced an unverifiable share: %w", i, err)
		}
		remainder = group.Suite.Point().Sub(remainder, partial)
		proofs[i] = shareProof
	}

	return remainder, proofs, nil
}

// SumTallies adds every candidate's tally scalar together, for the
// question-wide P4 cross-check (Σ tally = number of confirmed ballots).
func SumTallies(totals []*ballot.CandidateTotal) kyber.Scalar {
	sum := group.Suite.Scalar().Zero()
	for _, t := range totals {
		sum = group.Suite.Scalar().Add(sum, t.Tally)
	}
	return sum
}

// VerifyCandidateTotal checks a candidate_totals document against its
// recomputed ciphertext sums, per P3: tally*g1 = recovered, and
// r_sum*g1 = R_sum.
func VerifyCandidateTotal(total *ballot.CandidateTotal, sums CandidateSums, recovered kyber.Point) error {
	expectedTallyPoint := group.Suite.Point().Mul(total.Tally, group.G1)
	if !expectedTallyPoint.Equal(recovered) {
		return fmt.Errorf("tally for %q does not match recovered ciphertext sum", total.CandidateName)
	}
	expectedRSumPoint := group.Suite.Point().Mul(total.RSum, group.G1)
	if !expectedRSumPoint.Equal(sums.RSum) {
		return fmt.Errorf("r_sum for %q does not match the confirmed ballots' R sum", total.CandidateName)
	}
	return nil
}
