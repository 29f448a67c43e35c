package proof

import (
	"testing"

	"go.dedis.ch/kyber/v3"

	"dreip/pkg/group"
)

func TestBallotProof(t *testing.T) {
	group.InitCryptoParams("dreip-test")
	crypto, err := group.NewElectionCrypto("proof-test-ballot-election", "")
	if err != nil {
		t.Fatalf("NewElectionCrypto() error = %v", err)
	}
	candidates := []string{"alice", "bob", "carol"}

	sumVotes := func(choice string) (BallotStatement, kyber.Scalar) {
		rTotal := group.Suite.Scalar().Zero()
		RTotal := group.Suite.Point().Null()
		ZTotal := group.Suite.Point().Null()
		for _, name := range candidates {
			r := group.RandomScalar()
			v := 0
			if name == choice {
				v = 1
			}
			R, Z, err := crypto.ComputeVote(r, v)
			if err != nil {
				t.Fatalf("ComputeVote() error = %v", err)
			}
			rTotal = group.Suite.Scalar().Add(rTotal, r)
			RTotal = group.Suite.Point().Add(RTotal, R)
			ZTotal = group.Suite.Point().Add(ZTotal, Z)
		}
		return BallotStatement{
			ElectionID: "proof-test-ballot-election", QuestionID: "q1", BallotID: 1,
			G1: crypto.G1, G2: crypto.G2, RTotal: RTotal, ZTotal: ZTotal,
		}, rTotal
	}

	t.Run("a ballot that sums to one verifies", func(t *testing.T) {
		st, rTotal := sumVotes("bob")
		p, err := ProveBallot(st, rTotal)
		if err != nil {
			t.Fatalf("ProveBallot() error = %v", err)
		}
		if err := VerifyBallot(st, p); err != nil {
			t.Errorf("VerifyBallot() error = %v", err)
		}
	})

	t.Run("rejects a tampered RTotal", func(t *testing.T) {
		st, rTotal := sumVotes("alice")
		p, err := ProveBallot(st, rTotal)
		if err != nil {
			t.Fatalf("ProveBallot() error = %v", err)
		}
		st.RTotal = group.Suite.Point().Add(st.RTotal, group.G1)
		if err := VerifyBallot(st, p); err == nil {
			t.Errorf("expected a tampered RTotal to fail verification")
		}
	})

	t.Run("rejects a ballot that does not sum to one", func(t *testing.T) {
		rTotal := group.Suite.Scalar().Zero()
		RTotal := group.Suite.Point().Null()
		ZTotal := group.Suite.Point().Null()
		for i := range candidates {
			r := group.RandomScalar()
			v := 0
			if i < 2 {
				v = 1
			}
			R, Z, err := crypto.ComputeVote(r, v)
			if err != nil {
				t.Fatalf("ComputeVote() error = %v", err)
			}
			rTotal = group.Suite.Scalar().Add(rTotal, r)
			RTotal = group.Suite.Point().Add(RTotal, R)
			ZTotal = group.Suite.Point().Add(ZTotal, Z)
		}
		st := BallotStatement{
			ElectionID: "proof-test-ballot-election", QuestionID: "q1", BallotID: 2,
			G1: crypto.G1, G2: crypto.G2, RTotal: RTotal, ZTotal: ZTotal,
		}
		// ZTotal here actually equals rTotal*g2 + 2*g1, so the honestly
		// constructed proof of rTotal*g2 + g1 must fail verification.
		p, err := ProveBallot(st, rTotal)
		if err != nil {
			t.Fatalf("ProveBallot() error = %v", err)
		}
		if err := VerifyBallot(st, p); err == nil {
			t.Errorf("expected a two-vote ballot to fail the sum-to-one check")
		}
	})
}
