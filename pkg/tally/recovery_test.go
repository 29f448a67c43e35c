package tally_test

import (
	"testing"

	"dreip/pkg/ballot"
	"dreip/pkg/group"
	"dreip/pkg/tally"
)

func confirmedBallotFor(t *testing.T, crypto *group.ElectionCrypto, candidates []string, choice string, ballotID uint64) *ballot.Ballot {
	t.Helper()
	votes := make(map[string]*ballot.VoteRecord, len(candidates))
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
		votes[name] = &ballot.VoteRecord{R: R, Z: Z, Rand: r, V: v}
	}
	return &ballot.Ballot{ElectionID: "tally-test", QuestionID: "q1", BallotID: ballotID, State: ballot.Confirmed, Votes: votes}
}

func TestSingleKeyRecovery(t *testing.T) {
	group.InitCryptoParams("dreip-tally-test")
	crypto, err := group.NewElectionCrypto("tally-test", "")
	if err != nil {
		t.Fatalf("NewElectionCrypto() error = %v", err)
	}
	candidates := []string{"alice", "bob"}

	ballots := []*ballot.Ballot{
		confirmedBallotFor(t, crypto, candidates, "alice", 1),
		confirmedBallotFor(t, crypto, candidates, "bob", 2),
		confirmedBallotFor(t, crypto, candidates, "alice", 3),
	}

	t.Run("recovers the correct tally per candidate", func(t *testing.T) {
		aliceSums := tally.SumConfirmedVotes(ballots, "alice")
		recovered := tally.RecoverSingleKey(crypto.PrivateKey, aliceSums)
		expected := group.Suite.Point().Mul(group.Suite.Scalar().SetInt64(2), group.G1)
		if !recovered.Equal(expected) {
			t.Errorf("expected alice's recovered tally point to equal 2*g1")
		}
	})

	t.Run("ignores ballots that are not Confirmed", func(t *testing.T) {
		unconfirmed := confirmedBallotFor(t, crypto, candidates, "alice", 4)
		unconfirmed.State = ballot.Unconfirmed
		sums := tally.SumConfirmedVotes(append(ballots, unconfirmed), "alice")
		expectedSums := tally.SumConfirmedVotes(ballots, "alice")
		if !sums.RSum.Equal(expectedSums.RSum) || !sums.ZSum.Equal(expectedSums.ZSum) {
			t.Errorf("expected an Unconfirmed ballot to be excluded from the sums")
		}
	})

	t.Run("VerifyCandidateTotal accepts a correctly recovered total", func(t *testing.T) {
		sums := tally.SumConfirmedVotes(ballots, "alice")
		recovered := tally.RecoverSingleKey(crypto.PrivateKey, sums)
		rSumScalar := group.Suite.Scalar().Zero()
		for _, b := range ballots {
			if v, ok := b.Votes["alice"]; ok {
				rSumScalar = group.Suite.Scalar().Add(rSumScalar, v.Rand)
			}
		}
		total := &ballot.CandidateTotal{
			ElectionID: "tally-test", QuestionID: "q1", CandidateName: "alice",
			Tally: group.Suite.Scalar().SetInt64(2), RSum: rSumScalar,
		}
		if err := tally.VerifyCandidateTotal(total, sums, recovered); err != nil {
			t.Errorf("VerifyCandidateTotal() error = %v", err)
		}
	})

	t.Run("VerifyCandidateTotal rejects a tampered tally", func(t *testing.T) {
		sums := tally.SumConfirmedVotes(ballots, "alice")
		recovered := tally.RecoverSingleKey(crypto.PrivateKey, sums)
		total := &ballot.CandidateTotal{
			ElectionID: "tally-test", QuestionID: "q1", CandidateName: "alice",
			Tally: group.Suite.Scalar().SetInt64(99), RSum: group.Suite.Scalar().Zero(),
		}
		if err := tally.VerifyCandidateTotal(total, sums, recovered); err == nil {
			t.Errorf("expected a tampered tally to fail verification")
		}
	})

	t.Run("SumTallies adds every candidate total's scalar", func(t *testing.T) {
		totals := []*ballot.CandidateTotal{
			{CandidateName: "alice", Tally: group.Suite.Scalar().SetInt64(2)},
			{CandidateName: "bob", Tally: group.Suite.Scalar().SetInt64(1)},
		}
		sum := tally.SumTallies(totals)
		if !sum.Equal(group.Suite.Scalar().SetInt64(3)) {
			t.Errorf("expected the sum of tallies to be 3")
		}
	})
}

func TestMultiTrusteeRecovery(t *testing.T) {
	group.InitCryptoParams("dreip-tally-multi-test")
	g2, err := group.DeriveG2("tally-multi-test", "")
	if err != nil {
		t.Fatalf("DeriveG2() error = %v", err)
	}
	shares, collectivePK := tally.GenerateTrustees(3)
	crypto := &group.ElectionCrypto{G1: group.G1, G2: g2, PublicKey: collectivePK}
	candidates := []string{"alice", "bob"}

	ballots := []*ballot.Ballot{
		confirmedBallotFor(t, crypto, candidates, "alice", 1),
		confirmedBallotFor(t, crypto, candidates, "alice", 2),
		confirmedBallotFor(t, crypto, candidates, "bob", 3),
	}

	t.Run("recovers the same tally as single-key recovery would", func(t *testing.T) {
		sums := tally.SumConfirmedVotes(ballots, "alice")
		recovered, proofs, err := tally.RecoverMultiTrustee(shares, sums)
		if err != nil {
			t.Fatalf("RecoverMultiTrustee() error = %v", err)
		}
		expected := group.Suite.Point().Mul(group.Suite.Scalar().SetInt64(2), group.G1)
		if !recovered.Equal(expected) {
			t.Errorf("expected the recovered point to equal 2*g1")
		}
		for i, p := range proofs {
			if err := p.Verify(); err != nil {
				t.Errorf("trustee %d proof failed to verify: %v", i, err)
			}
		}
	})

	t.Run("bob's recovered tally differs from alice's", func(t *testing.T) {
		aliceSums := tally.SumConfirmedVotes(ballots, "alice")
		bobSums := tally.SumConfirmedVotes(ballots, "bob")
		aliceRecovered, _, err := tally.RecoverMultiTrustee(shares, aliceSums)
		if err != nil {
			t.Fatalf("RecoverMultiTrustee(alice) error = %v", err)
		}
		bobRecovered, _, err := tally.RecoverMultiTrustee(shares, bobSums)
		if err != nil {
			t.Fatalf("RecoverMultiTrustee(bob) error = %v", err)
		}
		if aliceRecovered.Equal(bobRecovered) {
			t.Errorf("expected different candidates to recover different tallies")
		}
	})
}
