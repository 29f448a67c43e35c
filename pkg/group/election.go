package group

import (
	"fmt"

	"go.dedis.ch/kyber/v3"
)

// ElectionCrypto is the per-election crypto bundle of §3: two independent
// generators and an ElGamal-style keypair over them.
type ElectionCrypto struct {
	G1        kyber.Point
	G2        kyber.Point
	PrivateKey kyber.Scalar // x; nil if this process does not hold it (e.g. a verifier).
	PublicKey  kyber.Point  // Y = x*g1
}

// NewElectionCrypto derives g2 for electionID and mints a fresh single-key
// election keypair. The multi-trustee variant is assembled from DeriveG2
// and tally.GenerateTrustees instead (see cmd/election's setupElection).
func NewElectionCrypto(electionID string, seed string) (*ElectionCrypto, error) {
	g2, err := DeriveG2(electionID, seed)
	if err != nil {
		return nil, fmt.Errorf("deriving g2: %w", err)
	}
	x := RandomScalar()
	y := Suite.Point().Mul(x, G1)
	return &ElectionCrypto{G1: G1, G2: g2, PrivateKey: x, PublicKey: y}, nil
}

// PublicOnly strips the private key, yielding the view a verifier or an
// external auditor is given.
func (c *ElectionCrypto) PublicOnly() *ElectionCrypto {
	return &ElectionCrypto{G1: c.G1, G2: c.G2, PublicKey: c.PublicKey}
}

// ComputeVote computes the public (R, Z) pair for a single candidate's
// secret randomness r and plaintext bit v, per I2: R = r*g1, Z = r*g2 + v*g1.
func (c *ElectionCrypto) ComputeVote(r kyber.Scalar, v int) (R, Z kyber.Point, err error) {
	if v != 0 && v != 1 {
		return nil, nil, fmt.Errorf("vote bit must be 0 or 1, got %d", v)
	}
	R = Suite.Point().Mul(r, c.G1)
	rg2 := Suite.Point().Mul(r, c.G2)
	if v == 1 {
		Z = Suite.Point().Add(rg2, c.G1)
	} else {
		Z = rg2
	}
	return R, Z, nil
}

// EncodeBit encodes a plaintext vote bit as the 32-byte big-endian scalar
// wire form §6 mandates (all-zero for 0, low byte set for 1).
func EncodeBit(v int) kyber.Scalar {
	return Suite.Scalar().SetInt64(int64(v))
}
