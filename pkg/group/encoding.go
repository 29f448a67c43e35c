package group

import (
	"encoding/base64"
	"fmt"

	"go.dedis.ch/kyber/v3"
)

// ErrInvalidEncoding is returned by PointFromBytes/ScalarFromBytes on malformed
// or non-canonical input.
type ErrInvalidEncoding struct {
	Kind string // "point" or "scalar"
	Err  error
}

func (e *ErrInvalidEncoding) Error() string {
	return fmt.Sprintf("invalid %s encoding: %v", e.Kind, e.Err)
}

// RandomScalar samples a fresh element of Zq from the process randomness
// source.
func RandomScalar() kyber.Scalar {
	return Suite.Scalar().Pick(RandomStream)
}

// ScalarToBytes serializes a scalar to its canonical 32-byte big-endian
// wire form.
func ScalarToBytes(s kyber.Scalar) ([]byte, error) {
	b, err := s.MarshalBinary()
	if err != nil {
		return nil, &ErrInvalidEncoding{Kind: "scalar", Err: err}
	}
	// kyber's Ed25519 scalar encoding is little-endian; reverse it.
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return b, nil
}

// ScalarFromBytes decompresses a canonical 32-byte big-endian scalar
// encoding, per the round-trip property (P6).
func ScalarFromBytes(b []byte) (kyber.Scalar, error) {
	s := Suite.Scalar()
	le := make([]byte, len(b))
	for i := range b {
		le[len(b)-1-i] = b[i]
	}
	if err := s.UnmarshalBinary(le); err != nil {
		return nil, &ErrInvalidEncoding{Kind: "scalar", Err: err}
	}
	return s, nil
}

// PointToBytes serializes a point to its canonical fixed-length compressed
// encoding.
func PointToBytes(p kyber.Point) ([]byte, error) {
	b, err := p.MarshalBinary()
	if err != nil {
		return nil, &ErrInvalidEncoding{Kind: "point", Err: err}
	}
	return b, nil
}

// PointFromBytes decompresses a canonical point encoding, rejecting
// non-canonical input and the identity point (on curves where the identity
// is distinguishable from a valid compressed encoding).
func PointFromBytes(b []byte) (kyber.Point, error) {
	p := Suite.Point()
	if err := p.UnmarshalBinary(b); err != nil {
		return nil, &ErrInvalidEncoding{Kind: "point", Err: err}
	}
	if p.Equal(Suite.Point().Null()) {
		return nil, &ErrInvalidEncoding{Kind: "point", Err: fmt.Errorf("identity point rejected")}
	}
	return p, nil
}

// b64 is the URL-safe, unpadded transport encoding every wire form uses.
var b64 = base64.URLEncoding.WithPadding(base64.NoPadding)

// EncodeWire renders raw canonical bytes as the protocol's URL-safe
// unpadded base64 wire form.
func EncodeWire(b []byte) string {
	return b64.EncodeToString(b)
}

// DecodeWire parses the protocol's URL-safe unpadded base64 wire form back
// to raw canonical bytes.
func DecodeWire(s string) ([]byte, error) {
	return b64.DecodeString(s)
}

// ScalarToWire serializes a scalar directly to its wire string form.
func ScalarToWire(s kyber.Scalar) (string, error) {
	b, err := ScalarToBytes(s)
	if err != nil {
		return "", err
	}
	return EncodeWire(b), nil
}

// ScalarFromWire parses a scalar directly from its wire string form.
func ScalarFromWire(s string) (kyber.Scalar, error) {
	b, err := DecodeWire(s)
	if err != nil {
		return nil, &ErrInvalidEncoding{Kind: "scalar", Err: err}
	}
	return ScalarFromBytes(b)
}

// PointToWire serializes a point directly to its wire string form.
func PointToWire(p kyber.Point) (string, error) {
	b, err := PointToBytes(p)
	if err != nil {
		return "", err
	}
	return EncodeWire(b), nil
}

// PointFromWire parses a point directly from its wire string form.
func PointFromWire(s string) (kyber.Point, error) {
	b, err := DecodeWire(s)
	if err != nil {
		return nil, &ErrInvalidEncoding{Kind: "point", Err: err}
	}
	return PointFromBytes(b)
}
