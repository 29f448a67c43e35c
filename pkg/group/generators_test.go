package group

import "testing"

func TestDeriveG2(t *testing.T) {
	InitCryptoParams("dreip-test")

	t.Run("deterministic for the same election_id and seed", func(t *testing.T) {
		a, err := DeriveG2("election-x", "seed-1")
		if err != nil {
			t.Fatalf("DeriveG2() error = %v", err)
		}
		b, err := DeriveG2("election-x", "seed-1")
		if err != nil {
			t.Fatalf("DeriveG2() error = %v", err)
		}
		if !a.Equal(b) {
			t.Errorf("expected the same g2 for repeated derivation, got different points")
		}
	})

	t.Run("differs across election_id", func(t *testing.T) {
		a, err := DeriveG2("election-x", "seed-1")
		if err != nil {
			t.Fatalf("DeriveG2() error = %v", err)
		}
		b, err := DeriveG2("election-y", "seed-1")
		if err != nil {
			t.Fatalf("DeriveG2() error = %v", err)
		}
		if a.Equal(b) {
			t.Errorf("expected different g2 across election_id, got equal points")
		}
	})

	t.Run("never equals g1", func(t *testing.T) {
		g2, err := DeriveG2("election-z", "seed-2")
		if err != nil {
			t.Fatalf("DeriveG2() error = %v", err)
		}
		if g2.Equal(G1) {
			t.Errorf("g2 collided with g1")
		}
	})
}

func TestScalarPointWireRoundTrip(t *testing.T) {
	InitCryptoParams("dreip-test")

	t.Run("scalar round trip", func(t *testing.T) {
		s := RandomScalar()
		wire, err := ScalarToWire(s)
		if err != nil {
			t.Fatalf("ScalarToWire() error = %v", err)
		}
		recovered, err := ScalarFromWire(wire)
		if err != nil {
			t.Fatalf("ScalarFromWire() error = %v", err)
		}
		if !recovered.Equal(s) {
			t.Errorf("round trip changed the scalar")
		}
	})

	t.Run("point round trip", func(t *testing.T) {
		p := Suite.Point().Mul(RandomScalar(), G1)
		wire, err := PointToWire(p)
		if err != nil {
			t.Fatalf("PointToWire() error = %v", err)
		}
		recovered, err := PointFromWire(wire)
		if err != nil {
			t.Fatalf("PointFromWire() error = %v", err)
		}
		if !recovered.Equal(p) {
			t.Errorf("round trip changed the point")
		}
	})

	t.Run("rejects the identity point", func(t *testing.T) {
		identity := Suite.Point().Null()
		b, err := PointToBytes(identity)
		if err != nil {
			t.Fatalf("PointToBytes() error = %v", err)
		}
		if _, err := PointFromBytes(b); err == nil {
			t.Errorf("expected an error decoding the identity point")
		}
	})

	t.Run("rejects malformed scalar bytes", func(t *testing.T) {
		if _, err := ScalarFromBytes([]byte{1, 2, 3}); err == nil {
			t.Errorf("expected an error for a short scalar encoding")
		}
	})
}
