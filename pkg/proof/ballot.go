package proof

import (
	"fmt"

	"go.dedis.ch/kyber/v3"

	"dreip/pkg/group"
)

// BallotProof is the ballot-level two-base Schnorr proof of §4.2.2 that a
// ballot's votes sum to exactly one, without revealing r_total.
type BallotProof struct {
	A, B kyber.Point
	R    kyber.Scalar
}

// BallotStatement is the public tuple a ballot-level proof is bound to.
type BallotStatement struct {
	ElectionID, QuestionID string
	BallotID               uint64
	G1, G2                 kyber.Point
	RTotal, ZTotal         kyber.Point
}

// ProveBallot constructs a BallotProof of knowledge of rTotal such that
// RTotal = rTotal*g1 and ZTotal = rTotal*g2 + g1.
func ProveBallot(st BallotStatement, rTotal kyber.Scalar) (*BallotProof, error) {
	w := group.RandomScalar()
	a := group.Suite.Point().Mul(w, st.G1)
	b := group.Suite.Point().Mul(w, st.G2)

	transcript, err := ballotTranscript(st.ElectionID, st.QuestionID, st.BallotID, st.G1, st.G2, st.RTotal, st.ZTotal, a, b)
	if err != nil {
		return nil, fmt.Errorf("building ballot transcript: %w", err)
	}
	c := challenge(transcript)

	r := group.Suite.Scalar().Add(w, group.Suite.Scalar().Mul(c, rTotal))
	return &BallotProof{A: a, B: b, R: r}, nil
}

// VerifyBallot recomputes a ?= r*g1 - c*RTotal and b ?= r*g2 - c*(ZTotal -
// g1) and checks both hold for the claimed challenge.
func VerifyBallot(st BallotStatement, p *BallotProof) error {
	transcript, err := ballotTranscript(st.ElectionID, st.QuestionID, st.BallotID, st.G1, st.G2, st.RTotal, st.ZTotal, p.A, p.B)
	if err != nil {
		return fmt.Errorf("building ballot transcript: %w", err)
	}
	c := challenge(transcript)

	aCheck := group.Suite.Point().Sub(group.Suite.Point().Mul(p.R, st.G1), group.Suite.Point().Mul(c, st.RTotal))
	if !aCheck.Equal(p.A) {
		return ErrProofInvalid
	}

	zAdj := group.Suite.Point().Sub(st.ZTotal, st.G1)
	bCheck := group.Suite.Point().Sub(group.Suite.Point().Mul(p.R, st.G2), group.Suite.Point().Mul(c, zAdj))
	if !bCheck.Equal(p.B) {
		return ErrProofInvalid
	}
	return nil
}
