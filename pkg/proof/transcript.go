// Package proof implements the non-interactive zero-knowledge proof
// primitives of §4.2: the per-vote disjunctive Chaum-Pedersen proof that an
// encoded vote is 0 or 1, and the ballot-level two-base Schnorr proof that
// a ballot's votes sum to exactly one. Both are hand-rolled Fiat-Shamir
// sigma protocols (rather than routed through kyber's generic predicate
// compiler) because the challenge transcript must bind a specific,
// caller-chosen tuple of named values byte-for-byte.
package proof

import (
	"go.dedis.ch/kyber/v3"

	"dreip/pkg/group"
	"dreip/pkg/serialization"
)

// perVoteDomainTag and ballotDomainTag separate the two proofs' Fiat-Shamir
// transcripts so neither can be replayed as the other.
const (
	perVoteDomainTag = "dreip-pwf-vote-v1"
	ballotDomainTag  = "dreip-pwf-ballot-v1"
)

func writePoints(s *serialization.Serializer, pts ...kyber.Point) {
	s.WriteKyber(pointsToMarshaling(pts)...)
}

func pointsToMarshaling(pts []kyber.Point) []kyber.Marshaling {
	out := make([]kyber.Marshaling, len(pts))
	for i, p := range pts {
		out[i] = p
	}
	return out
}

// perVoteTranscript builds the exact ordered transcript of §4.2.1:
// ballot_id, election_id, question_id, candidate_name, g1, g2, Y, R, Z,
// A_0, B_0, A_1, B_1.
func perVoteTranscript(ballotID uint64, electionID, questionID, candidateName string, g1, g2, Y, R, Z, A0, B0, A1, B1 kyber.Point) ([]byte, error) {
	s := serialization.NewSerializer()
	s.WriteByteSlice([]byte(perVoteDomainTag))
	s.WriteUint64(ballotID)
	s.WriteByteSlice([]byte(electionID))
	s.WriteByteSlice([]byte(questionID))
	s.WriteByteSlice([]byte(candidateName))
	writePoints(s, g1, g2, Y, R, Z, A0, B0, A1, B1)
	return s.Bytes()
}

// ballotTranscript builds the exact ordered transcript of §4.2.2:
// election_id, question_id, ballot_id, g1, g2, R_total, Z_total, a, b.
func ballotTranscript(electionID, questionID string, ballotID uint64, g1, g2, RTotal, ZTotal, a, b kyber.Point) ([]byte, error) {
	s := serialization.NewSerializer()
	s.WriteByteSlice([]byte(ballotDomainTag))
	s.WriteByteSlice([]byte(electionID))
	s.WriteByteSlice([]byte(questionID))
	s.WriteUint64(ballotID)
	writePoints(s, g1, g2, RTotal, ZTotal, a, b)
	return s.Bytes()
}

// challenge reduces a transcript to a scalar via the shared wide-reduction
// hash of the Group Algebra component.
func challenge(transcript []byte) kyber.Scalar {
	return group.HashToScalar(transcript)
}
