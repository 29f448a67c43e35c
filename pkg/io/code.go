// Package io renders and scans the receipt codes handed to a voter at
// cast/audit/confirm time: a QR code carrying just enough of a Receipt for
// an independent scanner to re-fetch and re-verify it, wrapped in a PDF for
// printing or archival, and a reader that reverses the process.
package io

import (
	"fmt"

	"dreip/pkg/ballot"
	"dreip/pkg/serialization"
)

// CodeType records whether a receipt code was minted for an Audited
// receipt or at another point in the flow; every code carries the same
// fields whatever its type.
type CodeType int

const (
	CastQRType CodeType = iota
	AuditQRType
)

func (t CodeType) String() string {
	switch t {
	case CastQRType:
		return "Cast"
	case AuditQRType:
		return "Audit"
	default:
		return "Unknown"
	}
}

// ReceiptCode is the scannable projection of a ballot.Receipt: the
// coordinates needed to re-fetch it (election, question, ballot ID) plus
// the confirmation code and detached signature a voter can hand to a
// third-party verifier without trusting the server's word for it.
type ReceiptCode struct {
	Type             CodeType
	ElectionID       string
	QuestionID       string
	BallotID         uint64
	ConfirmationCode string
	Signature        []byte
}

// NewReceiptCode projects a Receipt into its scannable form.
func NewReceiptCode(r *ballot.Receipt) *ReceiptCode {
	t := CastQRType
	if r.State == ballot.Audited {
		t = AuditQRType
	}
	return &ReceiptCode{
		Type:             t,
		ElectionID:       r.ElectionID,
		QuestionID:       r.QuestionID,
		BallotID:         r.BallotID,
		ConfirmationCode: r.ConfirmationCode,
		Signature:        r.Signature,
	}
}

// Serialize converts the code into the byte payload encoded into the QR
// image.
func (c *ReceiptCode) Serialize() ([]byte, error) {
	s := serialization.NewSerializer()
	s.WriteUint64(uint64(c.Type))
	s.WriteByteSlice([]byte(c.ElectionID))
	s.WriteByteSlice([]byte(c.QuestionID))
	s.WriteUint64(c.BallotID)
	s.WriteByteSlice([]byte(c.ConfirmationCode))
	s.WriteByteSlice(c.Signature)
	return s.Bytes()
}

// Deserialize populates the code from a scanned QR payload.
func (c *ReceiptCode) Deserialize(data []byte) error {
	d := serialization.NewDeserializer(data)
	c.Type = CodeType(d.ReadUint64())
	c.ElectionID = string(d.ReadByteSlice())
	c.QuestionID = string(d.ReadByteSlice())
	c.BallotID = d.ReadUint64()
	c.ConfirmationCode = string(d.ReadByteSlice())
	c.Signature = d.ReadByteSlice()
	if err := d.Err(); err != nil {
		return fmt.Errorf("deserializing receipt code: %w", err)
	}
	return nil
}

// Ref reconstructs the ballot.Ref this code points at, for handing to
// ballot.Engine.FetchReceipt.
func (c *ReceiptCode) Ref() ballot.Ref {
	return ballot.Ref{ElectionID: c.ElectionID, QuestionID: c.QuestionID, BallotID: c.BallotID}
}
