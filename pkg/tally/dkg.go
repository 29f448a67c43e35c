// Package tally implements the Tally Accumulator's close-time recovery
// and verification (§4.4): recomputing each candidate's per-candidate
// ciphertext sums from confirmed ballots and checking them against the
// accumulator's published scalars, either from a single published key or
// from a set of trustee decryption shares that never reconstruct the key
// in one place.
package tally

import (
	"fmt"

	"go.dedis.ch/kyber/v3"

	"dreip/pkg/group"
	"dreip/pkg/log"
)

// DKGShare is a single trustee's additive share of the election private
// key, and the corresponding public share.
type DKGShare struct {
	Sk kyber.Scalar
	Pk kyber.Point
}

func (s *DKGShare) String() string {
	return fmt.Sprintf("Pk: %s", s.Pk)
}

// GenerateTrustees performs a simulated distributed key generation: splits
// a fresh private key into numTrustees additive shares and returns both
// the shares and their sum's public key. A production election authority
// would run an interactive DKG across physically separate trustees; this
// simulates the same algebraic outcome for the demo CLI and tests.
func GenerateTrustees(numTrustees uint64) ([]*DKGShare, kyber.Point) {
	shares := make([]*DKGShare, 0, numTrustees)
	var collectivePK kyber.Point

	for i := uint64(0); i < numTrustees; i++ {
		sk := group.RandomScalar()
		share := &DKGShare{
			Sk: sk,
			Pk: group.Suite.Point().Mul(sk, group.G1),
		}
		shares = append(shares, share)

		if collectivePK == nil {
			collectivePK = group.Suite.Point().Set(share.Pk)
		} else {
			collectivePK = group.Suite.Point().Add(collectivePK, share.Pk)
		}
	}

	log.Debug("generated %d trustee shares, collective public key %s", numTrustees, collectivePK)
	return shares, collectivePK
}
