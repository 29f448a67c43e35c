package group

import (
	"testing"
)

func TestElectionCrypto(t *testing.T) {
	InitCryptoParams("dreip-test")

	t.Run("NewElectionCrypto derives independent generators", func(t *testing.T) {
		crypto, err := NewElectionCrypto("election-a", "")
		if err != nil {
			t.Fatalf("NewElectionCrypto() error = %v", err)
		}
		if crypto.G1.Equal(crypto.G2) {
			t.Errorf("g1 and g2 must be independent, got equal points")
		}
		other, err := NewElectionCrypto("election-b", "")
		if err != nil {
			t.Fatalf("NewElectionCrypto() error = %v", err)
		}
		if crypto.G2.Equal(other.G2) {
			t.Errorf("g2 must be bound to election_id, got equal across elections")
		}
	})

	t.Run("ComputeVote encodes 0 and 1 distinctly", func(t *testing.T) {
		crypto, err := NewElectionCrypto("election-c", "")
		if err != nil {
			t.Fatalf("NewElectionCrypto() error = %v", err)
		}
		r := RandomScalar()

		R0, Z0, err := crypto.ComputeVote(r, 0)
		if err != nil {
			t.Fatalf("ComputeVote(0) error = %v", err)
		}
		R1, Z1, err := crypto.ComputeVote(r, 1)
		if err != nil {
			t.Fatalf("ComputeVote(1) error = %v", err)
		}
		if !R0.Equal(R1) {
			t.Errorf("R must not depend on the vote bit")
		}
		if Z0.Equal(Z1) {
			t.Errorf("Z must differ between bit 0 and bit 1")
		}
		expectedR := Suite.Point().Mul(r, crypto.G1)
		if !R0.Equal(expectedR) {
			t.Errorf("R = r*g1 does not hold")
		}
	})

	t.Run("ComputeVote rejects out-of-range bits", func(t *testing.T) {
		crypto, err := NewElectionCrypto("election-d", "")
		if err != nil {
			t.Fatalf("NewElectionCrypto() error = %v", err)
		}
		if _, _, err := crypto.ComputeVote(RandomScalar(), 2); err == nil {
			t.Errorf("expected an error for vote bit 2")
		}
	})

	t.Run("PublicOnly strips the private key", func(t *testing.T) {
		crypto, err := NewElectionCrypto("election-e", "")
		if err != nil {
			t.Fatalf("NewElectionCrypto() error = %v", err)
		}
		pub := crypto.PublicOnly()
		if pub.PrivateKey != nil {
			t.Errorf("expected a nil private key, got %v", pub.PrivateKey)
		}
		if !pub.PublicKey.Equal(crypto.PublicKey) {
			t.Errorf("public key must survive PublicOnly()")
		}
	})
}

func TestEncodeBit(t *testing.T) {
	tests := []struct {
		name string
		v    int
	}{
		{"zero", 0},
		{"one", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeBit(tt.v)
			want := Suite.Scalar().SetInt64(int64(tt.v))
			if !got.Equal(want) {
				t.Errorf("EncodeBit(%d) = %v, want %v", tt.v, got, want)
			}
		})
	}
}
