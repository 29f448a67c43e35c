package proof

import "errors"

// ErrProofInvalid is returned by VerifyVote/VerifyBallot when a proof fails
// to recompute the Fiat-Shamir challenge. Per §7, the caller-facing error
// is always this opaque sentinel — never the arithmetic detail of what
// failed to check out.
var ErrProofInvalid = errors.New("proof of well-formedness is invalid")
