// Package group implements the Group Algebra component: a prime-order
// elliptic curve group with two independent generators, and the fixed-length
// serialization the rest of the protocol treats as canonical.
package group

import (
	"crypto/cipher"

	"go.dedis.ch/kyber/v3/suites"
	"go.dedis.ch/kyber/v3/util/random"

	"dreip/pkg/log"
)

// Suite is the elliptic curve suite used for the entire engine.
var Suite = suites.MustFind("Ed25519")

var RandomStream cipher.Stream

// InitCryptoParams initializes the process-wide crypto parameters. A
// non-empty seed makes all randomness (and therefore all derived
// generators, ballots, and keys) deterministic, which test scenarios rely
// on; production use should pass an empty seed.
func InitCryptoParams(seed string) {
	if seed != "" {
		log.Debug("Using deterministic randomness seed: %s", seed)
		RandomStream = random.New(Suite.XOF([]byte(seed)))
	} else {
		log.Debug("Using random source")
		RandomStream = Suite.RandomStream()
	}
}

// G1 is the canonical base point (generator) for the group.
var G1 = Suite.Point().Base()
