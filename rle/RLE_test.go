package rle

import (
	"bytes"
	"strings"
	"testing"

	"github.com/filepress/filepress"
)

func roundTrip(t *testing.T, input []byte) []byte {
	t.Helper()

	c, err := NewRLE()

	if err != nil {
		t.Fatalf("NewRLE: %v", err)
	}

	var encoded bytes.Buffer

	if err := c.Encode(bytes.NewReader(input), &encoded, nil); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var decoded bytes.Buffer

	if err := c.Decode(bytes.NewReader(encoded.Bytes()), &decoded, nil); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if !bytes.Equal(decoded.Bytes(), input) {
		t.Fatalf("round trip mismatch: got %v, want %v", decoded.Bytes(), input)
	}

	return encoded.Bytes()
}

func TestEncodeBasicPairs(t *testing.T) {
	c, _ := NewRLE()
	var encoded bytes.Buffer

	if err := c.Encode(strings.NewReader("AABBBCCCC"), &encoded, nil); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	want := []byte{'A', 2, 'B', 3, 'C', 4}

	if !bytes.Equal(encoded.Bytes(), want) {
		t.Fatalf("got %v, want %v", encoded.Bytes(), want)
	}
}

func TestRoundTripEmpty(t *testing.T) {
	roundTrip(t, nil)
}

func TestRoundTripSingleByte(t *testing.T) {
	roundTrip(t, []byte{'z'})
}

func TestRoundTripLongRunSpansEscapeBlocks(t *testing.T) {
	input := bytes.Repeat([]byte{'X'}, 300)
	encoded := roundTrip(t, input)

	want := []byte{0xFF, 0x00, 'X', 'X', 45}

	if !bytes.Equal(encoded, want) {
		t.Fatalf("escape encoding: got %v, want %v", encoded, want)
	}
}

func TestRoundTripExactMultipleOf255(t *testing.T) {
	input := bytes.Repeat([]byte{'Y'}, 510)
	encoded := roundTrip(t, input)

	want := []byte{0xFF, 0x00, 'Y', 0xFF, 0x00, 'Y'}

	if !bytes.Equal(encoded, want) {
		t.Fatalf("escape encoding: got %v, want %v", encoded, want)
	}
}

func TestRoundTripEscapeByteRuns(t *testing.T) {
	// Short runs of 0xFF are literal pairs, not escapes.
	encoded := roundTrip(t, []byte{0xFF, 0xFF, 0xFF})

	want := []byte{0xFF, 3}

	if !bytes.Equal(encoded, want) {
		t.Fatalf("got %v, want %v", encoded, want)
	}

	// Long runs of 0xFF go through the escape path like any other byte.
	roundTrip(t, bytes.Repeat([]byte{0xFF}, 700))
}

func TestRoundTripAllByteValues(t *testing.T) {
	input := make([]byte, 0, 768)

	for i := 0; i < 256; i++ {
		input = append(input, byte(i), byte(i), byte(i))
	}

	roundTrip(t, input)
}

func TestRoundTripRandomish(t *testing.T) {
	input := []byte("the quick brown fox jumps over the lazy dog 1234567890!!!")
	roundTrip(t, input)
}

func TestNonExpansionForRepetitiveInput(t *testing.T) {
	input := bytes.Repeat([]byte{'Q'}, 10)
	c, _ := NewRLE()
	var encoded bytes.Buffer

	if err := c.Encode(bytes.NewReader(input), &encoded, nil); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if encoded.Len() >= len(input) {
		t.Fatalf("expected encoded length < %d, got %d", len(input), encoded.Len())
	}
}

func TestDecodeTruncatedEscapeFails(t *testing.T) {
	c, _ := NewRLE()
	var decoded bytes.Buffer
	err := c.Decode(bytes.NewReader([]byte{0xFF, 0x00}), &decoded, nil)

	ce, ok := err.(*filepress.CodecError)

	if !ok || ce.Kind != filepress.ErrTruncatedPayload {
		t.Fatalf("expected ErrTruncatedPayload, got %v", err)
	}
}

func TestDecodeZeroCountOutsideEscapeFails(t *testing.T) {
	c, _ := NewRLE()
	var decoded bytes.Buffer
	err := c.Decode(bytes.NewReader([]byte{'a', 0}), &decoded, nil)

	ce, ok := err.(*filepress.CodecError)

	if !ok || ce.Kind != filepress.ErrCorruptCode {
		t.Fatalf("expected ErrCorruptCode, got %v", err)
	}
}

func TestProgressIsMonotonic(t *testing.T) {
	c, _ := NewRLE()
	var encoded bytes.Buffer
	var last int64

	err := c.Encode(strings.NewReader("AAAABBBBCCCC"), &encoded, func(processed int64) {
		if processed < last {
			t.Fatalf("progress went backwards: %d after %d", processed, last)
		}

		last = processed
	})

	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if last != 12 {
		t.Fatalf("expected final progress 12, got %d", last)
	}
}
