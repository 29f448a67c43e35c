package proof

import (
	"testing"

	"go.dedis.ch/kyber/v3"

	"dreip/pkg/group"
)

func TestVoteProof(t *testing.T) {
	group.InitCryptoParams("dreip-test")
	crypto, err := group.NewElectionCrypto("proof-test-election", "")
	if err != nil {
		t.Fatalf("NewElectionCrypto() error = %v", err)
	}

	statementFor := func(r kyber.Scalar, v int) (VoteStatement, error) {
		R, Z, err := crypto.ComputeVote(r, v)
		if err != nil {
			return VoteStatement{}, err
		}
		return VoteStatement{
			BallotID: 1, ElectionID: "proof-test-election", QuestionID: "q1",
			CandidateName: "alice",
			G1:            crypto.G1, G2: crypto.G2, Y: crypto.PublicKey,
			R: R, Z: Z,
		}, nil
	}

	t.Run("valid proof for bit 0 verifies", func(t *testing.T) {
		r := group.RandomScalar()
		st, err := statementFor(r, 0)
		if err != nil {
			t.Fatalf("statementFor() error = %v", err)
		}
		p, err := ProveVote(st, r, 0)
		if err != nil {
			t.Fatalf("ProveVote() error = %v", err)
		}
		if err := VerifyVote(st, p); err != nil {
			t.Errorf("VerifyVote() error = %v", err)
		}
	})

	t.Run("valid proof for bit 1 verifies", func(t *testing.T) {
		r := group.RandomScalar()
		st, err := statementFor(r, 1)
		if err != nil {
			t.Fatalf("statementFor() error = %v", err)
		}
		p, err := ProveVote(st, r, 1)
		if err != nil {
			t.Fatalf("ProveVote() error = %v", err)
		}
		if err := VerifyVote(st, p); err != nil {
			t.Errorf("VerifyVote() error = %v", err)
		}
	})

	t.Run("rejects an out-of-range bit", func(t *testing.T) {
		r := group.RandomScalar()
		if _, err := ProveVote(VoteStatement{}, r, 2); err == nil {
			t.Errorf("expected an error for vote bit 2")
		}
	})

	t.Run("rejects a tampered response", func(t *testing.T) {
		r := group.RandomScalar()
		st, err := statementFor(r, 1)
		if err != nil {
			t.Fatalf("statementFor() error = %v", err)
		}
		p, err := ProveVote(st, r, 1)
		if err != nil {
			t.Fatalf("ProveVote() error = %v", err)
		}
		p.R2 = group.Suite.Scalar().Add(p.R2, group.Suite.Scalar().One())
		if err := VerifyVote(st, p); err == nil {
			t.Errorf("expected a tampered response to fail verification")
		}
	})

	t.Run("rejects a proof bound to the wrong ballot_id", func(t *testing.T) {
		r := group.RandomScalar()
		st, err := statementFor(r, 1)
		if err != nil {
			t.Fatalf("statementFor() error = %v", err)
		}
		p, err := ProveVote(st, r, 1)
		if err != nil {
			t.Fatalf("ProveVote() error = %v", err)
		}
		st.BallotID = 2
		if err := VerifyVote(st, p); err == nil {
			t.Errorf("expected a mismatched ballot_id to fail verification")
		}
	})
}
