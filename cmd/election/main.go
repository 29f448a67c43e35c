package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	mrand "math/rand"
	"os"
	"path/filepath"

	"dreip/pkg/auditexport"
	"dreip/pkg/ballot"
	opctx "dreip/pkg/context"
	"dreip/pkg/group"
	ioreceipt "dreip/pkg/io"
	"dreip/pkg/log"
	"dreip/pkg/metrics"
	"dreip/pkg/result"
	"dreip/pkg/storage"
	"dreip/pkg/tally"
	"dreip/pkg/verify"

	"go.dedis.ch/kyber/v3"

	"dreip/pkg/config"
)

const (
	electionID = "demo-election"
	questionID = "demo-question"
)

var candidateNames = []string{"Alice", "Bob", "Carol"}

func main() {
	voters := flag.Int("voters", 300, "Number of simulated voters in the demo run.")
	auditRate := flag.Float64("audit-rate", 0.1, "Fraction of cast ballots the demo audits instead of confirming.")

	cfg := config.NewConfig()

	group.InitCryptoParams(cfg.Seed)

	election, trusteeShares, privateKey, err := setupElection(cfg.Trustees)
	if err != nil {
		log.Fatalf("failed to set up election: %v", err)
	}

	store := storage.NewMemoryStore(cfg.UnconfirmedTTL)
	store.PutElection(election)

	hmacSecret, err := loadOrGenerateHMACSecret(cfg.HMACSecretHex)
	if err != nil {
		log.Fatalf("failed to establish HMAC secret: %v", err)
	}

	engine := ballot.NewEngine(store, store, store, store, hmacSecret, cfg.UnconfirmedTTL)

	rec := metrics.NewRecorder()
	octx := opctx.NewContext(cfg, rec)
	ctx := context.Background()

	board := newDashboard(candidateNames)
	board.open()

	if err := rec.Record("Simulation", metrics.MLogic, func() error {
		return runDemo(octx, ctx, engine, store, board, *voters, *auditRate)
	}); err != nil {
		board.close()
		log.Fatalf("demo run failed: %v", err)
	}
	board.close()

	if cfg.PrintMetrics {
		rec.PrintTree(os.Stdout, 6, 12)
	}

	totals := store.ListTotals(electionID, questionID, candidateNames)
	audited, confirmed := splitByState(store.ListBallots(electionID, questionID))

	dump := &verify.Dump{
		ElectionID: electionID, QuestionID: questionID,
		G1: election.G1, G2: election.G2, Y: election.PublicKey,
		Candidates:    candidateNames,
		Audited:       audited,
		Confirmed:     confirmed,
		Totals:        totals,
		PrivateKey:    privateKey,
		TrusteeShares: trusteeShares,
	}
	if err := verify.Verify(octx, dump); err != nil {
		log.Error("independent re-verification FAILED: %v", err)
	} else {
		log.Info("independent re-verification passed: %d audited, %d confirmed ballots, %d candidate totals", len(audited), len(confirmed), len(totals))
	}

	if err := exportArtifacts(octx, store); err != nil {
		log.Error("failed to export audit artifacts: %v", err)
	}

	analyzer := metrics.NewAnalyzer()
	analyzer.Add(rec)
	writer := result.NewWriter(cfg.ResultsPath, electionID, 1)
	if err := writer.WriteAllResults(analyzer.Analyze()); err != nil {
		log.Error("failed to write result report: %v", err)
	}

	printTallySummary(totals)
}

// setupElection provisions the election's crypto bundle and single demo
// question. Trustees>1 selects the multi-trustee close-time recovery path;
// Trustees<=1 selects the single-key baseline.
func setupElection(trustees uint64) (*ballot.ElectionRecord, []*tally.DKGShare, kyber.Scalar, error) {
	question := ballot.NewQuestion(questionID, candidateNames, nil)

	if trustees <= 1 {
		crypto, err := group.NewElectionCrypto(electionID, "")
		if err != nil {
			return nil, nil, nil, fmt.Errorf("deriving single-key election crypto: %w", err)
		}
		record := &ballot.ElectionRecord{
			ID: electionID, G1: crypto.G1, G2: crypto.G2,
			PrivateKey: crypto.PrivateKey, PublicKey: crypto.PublicKey,
			Questions: map[string]*ballot.Question{questionID: question},
		}
		return record, nil, crypto.PrivateKey, nil
	}

	g2, err := group.DeriveG2(electionID, "")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("deriving g2: %w", err)
	}
	shares, collectivePK := tally.GenerateTrustees(trustees)
	record := &ballot.ElectionRecord{
		ID: electionID, G1: group.G1, G2: g2,
		PrivateKey: nil, PublicKey: collectivePK,
		Questions: map[string]*ballot.Question{questionID: question},
	}
	return record, shares, nil, nil
}

func loadOrGenerateHMACSecret(hexSecret string) ([]byte, error) {
	if hexSecret != "" {
		secret, err := hex.DecodeString(hexSecret)
		if err != nil {
			return nil, fmt.Errorf("decoding --hmac-secret: %w", err)
		}
		return secret, nil
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generating HMAC secret: %w", err)
	}
	return secret, nil
}

// runDemo casts, then either audits or confirms, one ballot per simulated
// voter, refreshing the dashboard periodically.
func runDemo(octx *opctx.OperationContext, ctx context.Context, engine *ballot.Engine, store *storage.MemoryStore, board *dashboard, voters int, auditRate float64) error {
	confirmedCount, auditedCount := 0, 0
	tallies := make(map[string]int, len(candidateNames))

	for i := 0; i < voters; i++ {
		voterRef := fmt.Sprintf("voter-%d", i)
		choice := candidateNames[mrand.Intn(len(candidateNames))]

		receipt, err := engine.Cast(octx, ctx, electionID, questionID, choice, voterRef)
		if err != nil {
			return fmt.Errorf("casting ballot for %s: %w", voterRef, err)
		}
		ref := ballot.Ref{ElectionID: electionID, QuestionID: questionID, BallotID: receipt.BallotID}

		if mrand.Float64() < auditRate {
			if _, err := engine.Audit(octx, ctx, ref, receipt.Signature); err != nil {
				return fmt.Errorf("auditing ballot %d: %w", receipt.BallotID, err)
			}
			auditedCount++
		} else {
			if _, err := engine.Confirm(octx, ctx, ref, receipt.Signature, voterRef, nil); err != nil {
				return fmt.Errorf("confirming ballot %d: %w", receipt.BallotID, err)
			}
			confirmedCount++
			tallies[choice]++
		}

		if i%10 == 0 || i == voters-1 {
			board.render(electionID, questionID, tallies, i+1, auditedCount, confirmedCount)
		}
	}
	return nil
}

func splitByState(ballots []*ballot.Ballot) (audited, confirmed []*ballot.Ballot) {
	for _, b := range ballots {
		switch b.State {
		case ballot.Audited:
			audited = append(audited, b)
		case ballot.Confirmed:
			confirmed = append(confirmed, b)
		}
	}
	return audited, confirmed
}

// exportArtifacts renders the bulletin-board PDF and a QR receipt for one
// confirmed ballot, the demo's exercise of pkg/auditexport and pkg/io.
func exportArtifacts(octx *opctx.OperationContext, store *storage.MemoryStore) error {
	all := store.ListBallots(electionID, questionID)
	bundle, err := auditexport.BuildBulletin(octx, electionID, questionID, candidateNames, all)
	if err != nil {
		return fmt.Errorf("building bulletin board: %w", err)
	}

	cfg := octx.Config
	bulletinPath := filepath.Join(cfg.ResultsPath, "bulletin.pdf")
	if err := os.WriteFile(bulletinPath, bundle.PDF, 0644); err != nil {
		return fmt.Errorf("writing bulletin board PDF: %w", err)
	}
	log.Info("bulletin board written to %s, merkle root %s", bulletinPath, hex.EncodeToString(bundle.Root))

	var sample *ballot.Ballot
	for _, b := range all {
		if b.State == ballot.Confirmed {
			sample = b
			break
		}
	}
	if sample == nil {
		return nil
	}

	receipt, err := (&ballot.Engine{Ballots: store}).FetchReceipt(octx, context.Background(), ballot.Ref{ElectionID: electionID, QuestionID: questionID, BallotID: sample.BallotID})
	if err != nil {
		return fmt.Errorf("fetching sample receipt: %w", err)
	}
	code := ioreceipt.NewReceiptCode(receipt)
	pdfBytes, err := ioreceipt.WritePDF(octx, code)
	if err != nil {
		return fmt.Errorf("rendering sample receipt QR: %w", err)
	}
	receiptPath := filepath.Join(cfg.ResultsPath, fmt.Sprintf("receipt_%d.pdf", sample.BallotID))
	if err := os.WriteFile(receiptPath, pdfBytes, 0644); err != nil {
		return fmt.Errorf("writing sample receipt PDF: %w", err)
	}
	log.Info("sample receipt QR written to %s", receiptPath)
	return nil
}

func printTallySummary(totals []*ballot.CandidateTotal) {
	fmt.Println("\n-------------------------------------------------")
	fmt.Println("--- Final candidate totals ---")
	fmt.Println("-------------------------------------------------")
	for _, t := range totals {
		tallyInt, err := scalarToInt(t.Tally)
		if err != nil {
			fmt.Printf("%-12s (unreadable: %v)\n", t.CandidateName, err)
			continue
		}
		fmt.Printf("%-12s %d\n", t.CandidateName, tallyInt)
	}
	fmt.Println("-------------------------------------------------")
}

// scalarToInt recovers a small plaintext integer from a Zq scalar by trial
// comparison, exactly as pkg/verify does for the same reason: candidate
// tallies are always small.
func scalarToInt(s kyber.Scalar) (int, error) {
	candidate := group.Suite.Scalar().Zero()
	for i := 0; i < 1<<20; i++ {
		if candidate.Equal(s) {
			return i, nil
		}
		candidate = group.Suite.Scalar().Add(candidate, group.Suite.Scalar().One())
	}
	return 0, fmt.Errorf("scalar is not a small plaintext integer")
}
