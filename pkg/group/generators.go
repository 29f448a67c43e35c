package group

import (
	"go.dedis.ch/kyber/v3"

	"dreip/pkg/serialization"
)

// g2DomainTag separates g2 derivation from every other use of the suite's
// XOF, so no other hash-to-point or hash-to-scalar call in the protocol can
// collide with it.
const g2DomainTag = "dreip-g2-v1"

// DeriveG2 derives the election's second generator deterministically from
// its election_id and a seed. The derivation is a hash-to-point: nobody,
// including the deriver, learns log_g1(g2), which is the only requirement
// §4.1 places on g2.
func DeriveG2(electionID string, seed string) (kyber.Point, error) {
	s := serialization.NewSerializer()
	s.WriteByteSlice([]byte(g2DomainTag))
	s.WriteByteSlice([]byte(electionID))
	s.WriteByteSlice([]byte(seed))
	transcript, err := s.Bytes()
	if err != nil {
		return nil, err
	}

	xof := Suite.XOF(transcript)
	g2 := Suite.Point().Pick(xof)
	return g2, nil
}
