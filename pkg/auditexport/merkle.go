// Package auditexport renders a question's public bulletin board into a
// human-auditable PDF and a tamper-evidence commitment over the ballot
// records it lists, so a third party can check the PDF it was handed
// against a root it obtained independently.
package auditexport

import (
	"crypto/sha256"
	"fmt"

	"github.com/cbergoon/merkletree"

	"dreip/pkg/ballot"
	"dreip/pkg/serialization"
)

// ballotContent adapts a ballot record to merkletree.Content: its hash
// covers every field a verifier needs to know wasn't altered after
// publication, in the question's canonical candidate order.
type ballotContent struct {
	b          *ballot.Ballot
	candidates []string
}

func (c ballotContent) CalculateHash() ([]byte, error) {
	s := serialization.NewSerializer()
	s.WriteByteSlice([]byte(c.b.ElectionID))
	s.WriteByteSlice([]byte(c.b.QuestionID))
	s.WriteUint64(c.b.BallotID)
	s.WriteUint64(uint64(c.b.State))
	s.WriteByteSlice([]byte(c.b.ConfirmationCode))
	s.WriteByteSlice(c.b.Signature)
	for _, name := range c.candidates {
		v, ok := c.b.Votes[name]
		if !ok {
			return nil, fmt.Errorf("ballot %d: missing vote for candidate %q", c.b.BallotID, name)
		}
		s.WriteKyber(v.R, v.Z)
		if v.PWF != nil {
			s.WriteKyber(v.PWF.C1, v.PWF.C2, v.PWF.R1, v.PWF.R2)
		}
	}
	if c.b.PWF != nil {
		s.WriteKyber(c.b.PWF.A, c.b.PWF.B, c.b.PWF.R)
	}
	transcript, err := s.Bytes()
	if err != nil {
		return nil, fmt.Errorf("hashing ballot %d for the bulletin board tree: %w", c.b.BallotID, err)
	}
	digest := sha256.Sum256(transcript)
	return digest[:], nil
}

func (c ballotContent) Equals(other merkletree.Content) (bool, error) {
	o, ok := other.(ballotContent)
	if !ok {
		return false, fmt.Errorf("cannot compare ballotContent to %T", other)
	}
	h1, err := c.CalculateHash()
	if err != nil {
		return false, err
	}
	h2, err := o.CalculateHash()
	if err != nil {
		return false, err
	}
	return string(h1) == string(h2), nil
}

// BallotTree is the Merkle tree over one question's published ballot
// records (audited and confirmed, in a fixed order) and the root
// commitment published alongside the bulletin board PDF.
type BallotTree struct {
	tree *merkletree.MerkleTree
}

// BuildBallotTree constructs the tree. ballots must already be in the
// order the PDF lists them in — the root is a commitment to that order as
// well as the contents.
func BuildBallotTree(ballots []*ballot.Ballot, candidates []string) (*BallotTree, error) {
	contents := make([]merkletree.Content, len(ballots))
	for i, b := range ballots {
		contents[i] = ballotContent{b: b, candidates: candidates}
	}
	tree, err := merkletree.NewTree(contents)
	if err != nil {
		return nil, fmt.Errorf("building bulletin board merkle tree: %w", err)
	}
	return &BallotTree{tree: tree}, nil
}

// Root returns the tree's root hash.
func (t *BallotTree) Root() []byte {
	return t.tree.MerkleRoot()
}

// VerifyBallot checks that b (at the same position it was built with) is
// still a member of the tree — a tamper check against t's stored root.
func (t *BallotTree) VerifyBallot(b *ballot.Ballot, candidates []string) (bool, error) {
	return t.tree.VerifyContent(ballotContent{b: b, candidates: candidates})
}

// VerifyTree re-derives every internal node from the leaves and checks it
// against the stored root, catching corruption of the tree itself rather
// than of one leaf.
func (t *BallotTree) VerifyTree() (bool, error) {
	return t.tree.VerifyTree()
}
