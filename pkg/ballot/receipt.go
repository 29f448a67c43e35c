package ballot

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"go.dedis.ch/kyber/v3"

	"dreip/pkg/serialization"
)

// signableStub builds the exact byte sequence signed and verified per §6's
// wire-forms note: `(ballot_id || election_id || question_id || state)`.
func signableStub(electionID, questionID string, ballotID uint64, state State) ([]byte, error) {
	s := serialization.NewSerializer()
	s.WriteUint64(ballotID)
	s.WriteByteSlice([]byte(electionID))
	s.WriteByteSlice([]byte(questionID))
	s.WriteUint64(uint64(state))
	return s.Bytes()
}

// signReceipt computes the detached HMAC-SHA256 signature over a ballot
// reference and its current state, using the engine's process-local secret.
// It is independent of any voter cookie or auth token (§9).
func signReceipt(secret []byte, electionID, questionID string, ballotID uint64, state State) ([]byte, error) {
	stub, err := signableStub(electionID, questionID, ballotID, state)
	if err != nil {
		return nil, err
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(stub)
	return mac.Sum(nil), nil
}

// verifyReceiptSignature checks a caller-presented signature against the
// ballot reference and a candidate state using constant-time comparison.
func verifyReceiptSignature(secret []byte, electionID, questionID string, ballotID uint64, state State, signature []byte) (bool, error) {
	expected, err := signReceipt(secret, electionID, questionID, ballotID, state)
	if err != nil {
		return false, err
	}
	return hmac.Equal(expected, signature), nil
}

// confirmationCodeTag domain-separates the confirmation_code digest from
// any other hash in the system.
const confirmationCodeTag = "cc"

// confirmationCode derives the §4.3 confirmation_code: URL-safe base64 of
// the first 30 bytes of H("cc" || election_id || question_id || ballot_id ||
// R_total || Z_total).
func confirmationCode(electionID, questionID string, ballotID uint64, rTotal, zTotal kyber.Point) (string, error) {
	s := serialization.NewSerializer()
	s.WriteByteSlice([]byte(confirmationCodeTag))
	s.WriteByteSlice([]byte(electionID))
	s.WriteByteSlice([]byte(questionID))
	s.WriteUint64(ballotID)

	rBytes, err := rTotal.MarshalBinary()
	if err != nil {
		return "", err
	}
	zBytes, err := zTotal.MarshalBinary()
	if err != nil {
		return "", err
	}
	s.WriteByteSlice(rBytes)
	s.WriteByteSlice(zBytes)

	transcript, err := s.Bytes()
	if err != nil {
		return "", err
	}
	digest := sha256.Sum256(transcript)
	enc := base64.URLEncoding.WithPadding(base64.NoPadding)
	return enc.EncodeToString(digest[:30]), nil
}

// Receipt is the public view of a ballot per fetch_receipt: Unconfirmed and
// Confirmed states always strip {r, v}; Audited always reveals them.
type Receipt struct {
	ElectionID, QuestionID string
	BallotID               uint64
	State                  State
	Votes                  map[string]*VoteRecord
	PWF                    *BallotProofWire
	ConfirmationCode       string
	Signature              []byte
}

// toReceipt projects a Ballot onto its public view, stripping revealed
// randomness and plaintext bits whenever the state is not Audited.
func toReceipt(b *Ballot) *Receipt {
	votes := make(map[string]*VoteRecord, len(b.Votes))
	for name, v := range b.Votes {
		if b.State == Audited {
			votes[name] = v
			continue
		}
		votes[name] = &VoteRecord{R: v.R, Z: v.Z, PWF: v.PWF, Revealed: false}
	}
	return &Receipt{
		ElectionID:       b.ElectionID,
		QuestionID:       b.QuestionID,
		BallotID:         b.BallotID,
		State:            b.State,
		Votes:            votes,
		PWF:              b.PWF,
		ConfirmationCode: b.ConfirmationCode,
		Signature:        b.Signature,
	}
}
