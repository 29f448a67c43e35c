package io_test

import (
	"testing"

	"dreip/pkg/ballot"
	receiptio "dreip/pkg/io"
)

func TestReceiptCode(t *testing.T) {
	t.Run("NewReceiptCode picks Audit type for an Audited receipt", func(t *testing.T) {
		r := &ballot.Receipt{ElectionID: "e1", QuestionID: "q1", BallotID: 1, State: ballot.Audited, ConfirmationCode: "cc", Signature: []byte("sig")}
		code := receiptio.NewReceiptCode(r)
		if code.Type != receiptio.AuditQRType {
			t.Errorf("expected AuditQRType, got %v", code.Type)
		}
	})

	t.Run("NewReceiptCode picks Cast type for a Confirmed receipt", func(t *testing.T) {
		r := &ballot.Receipt{ElectionID: "e1", QuestionID: "q1", BallotID: 1, State: ballot.Confirmed, ConfirmationCode: "cc", Signature: []byte("sig")}
		code := receiptio.NewReceiptCode(r)
		if code.Type != receiptio.CastQRType {
			t.Errorf("expected CastQRType, got %v", code.Type)
		}
	})

	t.Run("Serialize/Deserialize round trip every field", func(t *testing.T) {
		r := &ballot.Receipt{ElectionID: "e1", QuestionID: "q1", BallotID: 42, State: ballot.Audited, ConfirmationCode: "abc123", Signature: []byte{1, 2, 3, 4}}
		code := receiptio.NewReceiptCode(r)

		data, err := code.Serialize()
		if err != nil {
			t.Fatalf("Serialize() error = %v", err)
		}

		recovered := &receiptio.ReceiptCode{}
		if err := recovered.Deserialize(data); err != nil {
			t.Fatalf("Deserialize() error = %v", err)
		}
		if recovered.Type != code.Type || recovered.ElectionID != code.ElectionID ||
			recovered.QuestionID != code.QuestionID || recovered.BallotID != code.BallotID ||
			recovered.ConfirmationCode != code.ConfirmationCode || string(recovered.Signature) != string(code.Signature) {
			t.Errorf("round trip did not preserve the code, got %+v, want %+v", recovered, code)
		}
	})

	t.Run("Ref reconstructs the ballot.Ref the code points at", func(t *testing.T) {
		r := &ballot.Receipt{ElectionID: "e1", QuestionID: "q1", BallotID: 7, State: ballot.Confirmed, ConfirmationCode: "cc", Signature: []byte("sig")}
		code := receiptio.NewReceiptCode(r)
		ref := code.Ref()
		want := ballot.Ref{ElectionID: "e1", QuestionID: "q1", BallotID: 7}
		if ref != want {
			t.Errorf("Ref() = %+v, want %+v", ref, want)
		}
	})
}
