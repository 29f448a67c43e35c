package group

import (
	"crypto/sha512"

	"go.dedis.ch/kyber/v3"
)

// HashToScalar reduces an arbitrary transcript to an element of Zq via
// SHA-512 (512 bits of digest, satisfying §4.2's wide-reduction
// requirement) followed by the suite's own mod-q reduction in
// Scalar.SetBytes.
func HashToScalar(transcript []byte) kyber.Scalar {
	digest := sha512.Sum512(transcript)
	return Suite.Scalar().SetBytes(digest[:])
}
