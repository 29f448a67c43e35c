package proof

import (
	"fmt"

	"go.dedis.ch/kyber/v3"

	"dreip/pkg/group"
)

// VoteProof is the disjunctive Chaum-Pedersen proof of §4.2.1 that an
// encoded vote (R, Z) commits to v ∈ {0, 1}.
type VoteProof struct {
	C1, C2 kyber.Scalar // Challenge shares for branch 0 and branch 1.
	R1, R2 kyber.Scalar // Responses for branch 0 and branch 1.
}

// VoteStatement is the public tuple a per-vote proof is bound to and
// verified against.
type VoteStatement struct {
	BallotID      uint64
	ElectionID    string
	QuestionID    string
	CandidateName string
	G1, G2, Y     kyber.Point
	R, Z          kyber.Point
}

// ProveVote constructs a VoteProof that (R, Z) = (r*g1, r*g2 + v*g1) for the
// given secret (r, v), following the branch-simulation construction of
// §4.2.1 exactly: the real branch is honestly committed and the other
// branch's challenge/response are chosen first and the commitment
// back-computed from them.
func ProveVote(st VoteStatement, r kyber.Scalar, v int) (*VoteProof, error) {
	if v != 0 && v != 1 {
		return nil, fmt.Errorf("vote bit must be 0 or 1, got %d", v)
	}

	w := group.RandomScalar()
	simC := group.RandomScalar()
	simR := group.RandomScalar()

	var A0, B0, A1, B1 kyber.Point

	if v == 0 {
		// Branch 0 is real, branch 1 is simulated.
		A0 = group.Suite.Point().Mul(w, st.G1)
		B0 = group.Suite.Point().Mul(w, st.G2)
		A1, B1 = simulateBranch(simC, simR, st.R, st.Z, st.G1, st.G2, 1)
	} else {
		// Branch 1 is real, branch 0 is simulated.
		A1 = group.Suite.Point().Mul(w, st.G1)
		B1 = group.Suite.Point().Mul(w, st.G2)
		A0, B0 = simulateBranch(simC, simR, st.R, st.Z, st.G1, st.G2, 0)
	}

	transcript, err := perVoteTranscript(st.BallotID, st.ElectionID, st.QuestionID, st.CandidateName, st.G1, st.G2, st.Y, st.R, st.Z, A0, B0, A1, B1)
	if err != nil {
		return nil, fmt.Errorf("building per-vote transcript: %w", err)
	}
	c := challenge(transcript)

	var proof VoteProof
	if v == 0 {
		c0 := group.Suite.Scalar().Sub(c, simC)
		r0 := group.Suite.Scalar().Add(w, group.Suite.Scalar().Mul(c0, r))
		proof = VoteProof{C1: c0, C2: simC, R1: r0, R2: simR}
	} else {
		c1 := group.Suite.Scalar().Sub(c, simC)
		r1 := group.Suite.Scalar().Add(w, group.Suite.Scalar().Mul(c1, r))
		proof = VoteProof{C1: simC, C2: c1, R1: simR, R2: r1}
	}
	return &proof, nil
}

// simulateBranch back-computes the commitment pair for a branch whose
// challenge and response were chosen freely, per §4.2.1's simulated-branch
// formula: A = r*g1 - c*R, B = r*g2 - c*(Z - branch*g1).
func simulateBranch(c, r kyber.Scalar, R, Z, g1, g2 kyber.Point, branch int) (A, B kyber.Point) {
	A = group.Suite.Point().Sub(group.Suite.Point().Mul(r, g1), group.Suite.Point().Mul(c, R))
	zAdj := Z
	if branch == 1 {
		zAdj = group.Suite.Point().Sub(Z, g1)
	}
	B = group.Suite.Point().Sub(group.Suite.Point().Mul(r, g2), group.Suite.Point().Mul(c, zAdj))
	return A, B
}

// VerifyVote recomputes both branch commitments from the proof and checks
// that the claimed challenge shares sum to the Fiat-Shamir challenge.
func VerifyVote(st VoteStatement, p *VoteProof) error {
	A0, B0 := simulateBranch(p.C1, p.R1, st.R, st.Z, st.G1, st.G2, 0)
	A1, B1 := simulateBranch(p.C2, p.R2, st.R, st.Z, st.G1, st.G2, 1)

	transcript, err := perVoteTranscript(st.BallotID, st.ElectionID, st.QuestionID, st.CandidateName, st.G1, st.G2, st.Y, st.R, st.Z, A0, B0, A1, B1)
	if err != nil {
		return fmt.Errorf("building per-vote transcript: %w", err)
	}
	c := challenge(transcript)

	sum := group.Suite.Scalar().Add(p.C1, p.C2)
	if !sum.Equal(c) {
		return ErrProofInvalid
	}
	return nil
}
