package auditexport

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/jung-kurt/gofpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	opctx "dreip/pkg/context"
	"dreip/pkg/ballot"
	"dreip/pkg/metrics"
)

// Bundle is the rendered bulletin board for one question: a PDF a human
// can read and the Merkle root that ties it to the exact ballot records it
// lists.
type Bundle struct {
	PDF  []byte
	Root []byte
}

// BuildBulletin renders a question dump into a publishable bulletin board:
// a table of ballot entries (confirmation code, state, revealed votes
// where applicable) and the Merkle root over them, then validates the
// rendered PDF is well-formed before handing it back. Ballot ordering in
// pdfOrder fixes both the table's row order and the tree's leaf order.
func BuildBulletin(octx *opctx.OperationContext, electionID, questionID string, candidates []string, pdfOrder []*ballot.Ballot) (*Bundle, error) {
	var bundle *Bundle
	err := octx.Recorder.Record("auditexport.build_bulletin", metrics.MLogic, func() error {
		tree, err := BuildBallotTree(pdfOrder, candidates)
		if err != nil {
			return err
		}
		root := tree.Root()

		pdfBytes, err := renderBulletinPDF(octx, electionID, questionID, candidates, pdfOrder, root)
		if err != nil {
			return err
		}

		bundle = &Bundle{PDF: pdfBytes, Root: root}
		return nil
	})
	return bundle, err
}

func renderBulletinPDF(octx *opctx.OperationContext, electionID, questionID string, candidates []string, ballots []*ballot.Ballot, root []byte) ([]byte, error) {
	var out []byte
	err := octx.Recorder.Record("auditexport.render_pdf", metrics.MDiskWrite, func() error {
		pdf := gofpdf.New("P", "mm", "A4", "")
		pdf.SetTitle(fmt.Sprintf("%s / %s bulletin board", electionID, questionID), true)
		pdf.AddPage()

		pdf.SetFont("Arial", "B", 14)
		pdf.Cell(0, 10, fmt.Sprintf("Bulletin board: election %s, question %s", electionID, questionID))
		pdf.Ln(10)

		pdf.SetFont("Arial", "", 9)
		pdf.Cell(0, 6, fmt.Sprintf("Merkle root: %s", hex.EncodeToString(root)))
		pdf.Ln(8)

		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(25, 6, "Ballot ID", "1", 0, "", false, 0, "")
		pdf.CellFormat(25, 6, "State", "1", 0, "", false, 0, "")
		pdf.CellFormat(0, 6, "Confirmation code", "1", 1, "", false, 0, "")

		pdf.SetFont("Arial", "", 9)
		for _, b := range ballots {
			pdf.CellFormat(25, 6, fmt.Sprintf("%d", b.BallotID), "1", 0, "", false, 0, "")
			pdf.CellFormat(25, 6, b.State.String(), "1", 0, "", false, 0, "")
			pdf.CellFormat(0, 6, b.ConfirmationCode, "1", 1, "", false, 0, "")

			if b.State == ballot.Audited {
				for _, name := range candidates {
					v, ok := b.Votes[name]
					if ok && v.Revealed {
						pdf.CellFormat(50, 5, "", "0", 0, "", false, 0, "")
						pdf.CellFormat(0, 5, fmt.Sprintf("  %s: %d", name, v.V), "0", 1, "", false, 0, "")
					}
				}
			}
		}

		tmp, err := os.CreateTemp("", "bulletin-*.pdf")
		if err != nil {
			return fmt.Errorf("creating temp file for bulletin PDF: %w", err)
		}
		tmpPath := tmp.Name()
		defer os.Remove(tmpPath)

		if err := pdf.Output(tmp); err != nil {
			tmp.Close()
			return fmt.Errorf("rendering bulletin PDF: %w", err)
		}
		if err := tmp.Close(); err != nil {
			return fmt.Errorf("closing bulletin PDF temp file: %w", err)
		}

		if err := api.ValidateFile(tmpPath, nil); err != nil {
			return fmt.Errorf("rendered bulletin PDF failed validation: %w", err)
		}

		data, err := os.ReadFile(tmpPath)
		if err != nil {
			return fmt.Errorf("reading back rendered bulletin PDF: %w", err)
		}
		out = data
		return nil
	})
	return out, err
}
