package serialization

import (
	"bytes"
	"testing"

	"go.dedis.ch/kyber/v3/suites"
)

func TestSerializerRoundTrip(t *testing.T) {
	suite := suites.MustFind("Ed25519")

	t.Run("uint64 round trip", func(t *testing.T) {
		s := NewSerializer()
		s.WriteUint64(42)
		data, err := s.Bytes()
		if err != nil {
			t.Fatalf("Bytes() error = %v", err)
		}
		d := NewDeserializer(data)
		if got := d.ReadUint64(); got != 42 {
			t.Errorf("ReadUint64() = %d, want 42", got)
		}
		if err := d.Err(); err != nil {
			t.Errorf("Err() = %v", err)
		}
	})

	t.Run("byte slice round trip preserves length", func(t *testing.T) {
		s := NewSerializer()
		s.WriteByteSlice([]byte("hello"))
		data, err := s.Bytes()
		if err != nil {
			t.Fatalf("Bytes() error = %v", err)
		}
		d := NewDeserializer(data)
		if got := d.ReadByteSlice(); !bytes.Equal(got, []byte("hello")) {
			t.Errorf("ReadByteSlice() = %q, want %q", got, "hello")
		}
	})

	t.Run("kyber scalar and point round trip", func(t *testing.T) {
		scalar := suite.Scalar().SetInt64(7)
		point := suite.Point().Mul(scalar, suite.Point().Base())

		s := NewSerializer()
		s.WriteKyber(scalar, point)
		data, err := s.Bytes()
		if err != nil {
			t.Fatalf("Bytes() error = %v", err)
		}

		recoveredScalar := suite.Scalar()
		recoveredPoint := suite.Point()
		d := NewDeserializer(data)
		d.ReadKyber(recoveredScalar, recoveredPoint)
		if err := d.Err(); err != nil {
			t.Fatalf("Err() = %v", err)
		}
		if !recoveredScalar.Equal(scalar) {
			t.Errorf("recovered scalar does not match")
		}
		if !recoveredPoint.Equal(point) {
			t.Errorf("recovered point does not match")
		}
	})

	t.Run("multiple fields preserve order", func(t *testing.T) {
		s := NewSerializer()
		s.WriteByteSlice([]byte("tag"))
		s.WriteUint64(99)
		s.WriteByteSlice([]byte("trailer"))
		data, err := s.Bytes()
		if err != nil {
			t.Fatalf("Bytes() error = %v", err)
		}

		d := NewDeserializer(data)
		tag := d.ReadByteSlice()
		num := d.ReadUint64()
		trailer := d.ReadByteSlice()
		if err := d.Err(); err != nil {
			t.Fatalf("Err() = %v", err)
		}
		if string(tag) != "tag" || num != 99 || string(trailer) != "trailer" {
			t.Errorf("fields decoded out of order: tag=%q num=%d trailer=%q", tag, num, trailer)
		}
	})

	t.Run("reading past the end of the buffer surfaces an error", func(t *testing.T) {
		d := NewDeserializer([]byte{0, 0, 0, 1})
		_ = d.ReadByteSlice()
		if err := d.Err(); err == nil {
			t.Errorf("expected an error reading a truncated byte slice")
		}
	})
}
