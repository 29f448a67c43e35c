package storage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"dreip/pkg/ballot"
	"dreip/pkg/group"
	"dreip/pkg/storage"
)

func TestMemoryStoreBallotLifecycle(t *testing.T) {
	ctx := context.Background()
	group.InitCryptoParams("dreip-storage-test")

	t.Run("Insert then Get round trips a ballot", func(t *testing.T) {
		store := storage.NewMemoryStore(time.Hour)
		b := &ballot.Ballot{ElectionID: "e1", QuestionID: "q1", BallotID: 1, State: ballot.Unconfirmed, Votes: map[string]*ballot.VoteRecord{}}
		if err := store.Insert(ctx, b); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
		got, err := store.Get(ctx, "e1", "q1", 1)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.BallotID != 1 {
			t.Errorf("Get() returned ballot_id %d, want 1", got.BallotID)
		}
	})

	t.Run("Insert rejects a duplicate natural key", func(t *testing.T) {
		store := storage.NewMemoryStore(time.Hour)
		b := &ballot.Ballot{ElectionID: "e1", QuestionID: "q1", BallotID: 1, State: ballot.Unconfirmed, Votes: map[string]*ballot.VoteRecord{}}
		if err := store.Insert(ctx, b); err != nil {
			t.Fatalf("first Insert() error = %v", err)
		}
		if err := store.Insert(ctx, b); err == nil {
			t.Errorf("expected a duplicate insert to fail")
		}
	})

	t.Run("Get on a missing ballot returns NotFound", func(t *testing.T) {
		store := storage.NewMemoryStore(time.Hour)
		if _, err := store.Get(ctx, "e1", "q1", 999); err == nil {
			t.Errorf("expected NotFound for a missing ballot")
		}
	})

	t.Run("CompareAndSwapState enforces the expected from-state", func(t *testing.T) {
		store := storage.NewMemoryStore(time.Hour)
		b := &ballot.Ballot{ElectionID: "e1", QuestionID: "q1", BallotID: 1, State: ballot.Unconfirmed, Votes: map[string]*ballot.VoteRecord{}}
		if err := store.Insert(ctx, b); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
		if err := store.CompareAndSwapState(ctx, "e1", "q1", 1, ballot.Unconfirmed, ballot.Confirmed); err != nil {
			t.Fatalf("CompareAndSwapState() error = %v", err)
		}
		if err := store.CompareAndSwapState(ctx, "e1", "q1", 1, ballot.Unconfirmed, ballot.Audited); err == nil {
			t.Errorf("expected a state-mismatched CAS to fail")
		}
	})

	t.Run("an Unconfirmed ballot expires after its TTL", func(t *testing.T) {
		store := storage.NewMemoryStore(time.Millisecond)
		b := &ballot.Ballot{
			ElectionID: "e1", QuestionID: "q1", BallotID: 1,
			State: ballot.Unconfirmed, CreationTime: time.Now().Add(-time.Hour),
			Votes: map[string]*ballot.VoteRecord{},
		}
		if err := store.Insert(ctx, b); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
		if _, err := store.Get(ctx, "e1", "q1", 1); err == nil {
			t.Errorf("expected an expired Unconfirmed ballot to be NotFound")
		}
	})

	t.Run("ClaimConfirmation rejects a second claim for the same voter", func(t *testing.T) {
		store := storage.NewMemoryStore(time.Hour)
		if err := store.ClaimConfirmation(ctx, "e1", "q1", "voter-1"); err != nil {
			t.Fatalf("first ClaimConfirmation() error = %v", err)
		}
		err := store.ClaimConfirmation(ctx, "e1", "q1", "voter-1")
		if err == nil {
			t.Fatalf("expected a second claim for the same voter to fail")
		}
		var be *ballot.Error
		if !errors.As(err, &be) || be.Kind != ballot.KindAlreadyConfirmed {
			t.Errorf("expected KindAlreadyConfirmed, got %v", err)
		}
	})

	t.Run("ReleaseConfirmation lets the voter claim again", func(t *testing.T) {
		store := storage.NewMemoryStore(time.Hour)
		if err := store.ClaimConfirmation(ctx, "e1", "q1", "voter-1"); err != nil {
			t.Fatalf("ClaimConfirmation() error = %v", err)
		}
		if err := store.ReleaseConfirmation(ctx, "e1", "q1", "voter-1"); err != nil {
			t.Fatalf("ReleaseConfirmation() error = %v", err)
		}
		if err := store.ClaimConfirmation(ctx, "e1", "q1", "voter-1"); err != nil {
			t.Errorf("expected a released claim to be claimable again, got %v", err)
		}
	})
}

func TestMemoryStoreCandidateTotals(t *testing.T) {
	ctx := context.Background()
	group.InitCryptoParams("dreip-storage-totals-test")

	t.Run("GetTotal creates a zero-valued total on first access", func(t *testing.T) {
		store := storage.NewMemoryStore(time.Hour)
		total, err := store.GetTotal(ctx, "e1", "q1", "alice")
		if err != nil {
			t.Fatalf("GetTotal() error = %v", err)
		}
		if !total.Tally.Equal(group.Suite.Scalar().Zero()) || total.Version != 0 {
			t.Errorf("expected a zero-valued, version-0 total, got tally=%v version=%d", total.Tally, total.Version)
		}
	})

	t.Run("CompareAndSwapTotal rejects a stale version", func(t *testing.T) {
		store := storage.NewMemoryStore(time.Hour)
		current, err := store.GetTotal(ctx, "e1", "q1", "alice")
		if err != nil {
			t.Fatalf("GetTotal() error = %v", err)
		}
		updated := &ballot.CandidateTotal{
			ElectionID: "e1", QuestionID: "q1", CandidateName: "alice",
			Tally: group.Suite.Scalar().One(), RSum: group.Suite.Scalar().Zero(), Version: current.Version,
		}
		if err := store.CompareAndSwapTotal(ctx, updated); err != nil {
			t.Fatalf("first CompareAndSwapTotal() error = %v", err)
		}
		if err := store.CompareAndSwapTotal(ctx, updated); err == nil {
			t.Errorf("expected a stale-version CAS to fail")
		}
	})

	t.Run("ListTotals returns one entry per requested candidate in order", func(t *testing.T) {
		store := storage.NewMemoryStore(time.Hour)
		totals := store.ListTotals("e1", "q1", []string{"alice", "bob"})
		if len(totals) != 2 {
			t.Fatalf("expected 2 totals, got %d", len(totals))
		}
		if totals[0].CandidateName != "alice" || totals[1].CandidateName != "bob" {
			t.Errorf("expected totals in requested order, got %q then %q", totals[0].CandidateName, totals[1].CandidateName)
		}
	})

	t.Run("ListBallots returns ballots in ascending ballot_id order", func(t *testing.T) {
		store := storage.NewMemoryStore(time.Hour)
		for _, id := range []uint64{3, 1, 2} {
			b := &ballot.Ballot{ElectionID: "e1", QuestionID: "q1", BallotID: id, State: ballot.Confirmed, Votes: map[string]*ballot.VoteRecord{}}
			if err := store.Insert(ctx, b); err != nil {
				t.Fatalf("Insert() error = %v", err)
			}
		}
		ballots := store.ListBallots("e1", "q1")
		if len(ballots) != 3 {
			t.Fatalf("expected 3 ballots, got %d", len(ballots))
		}
		for i, want := range []uint64{1, 2, 3} {
			if ballots[i].BallotID != want {
				t.Errorf("ballots[%d].BallotID = %d, want %d", i, ballots[i].BallotID, want)
			}
		}
	})
}
