package header

import (
	"bytes"
	"testing"

	"github.com/filepress/filepress"
)

var rleMagic = [MagicSize]byte{'R', 'L', 'E'}

func TestWriteReadRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	h := New(rleMagic, "txt")

	if err := h.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(&buf)

	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if got.Magic != rleMagic || got.Version != VersionNumber || got.Extension != "txt" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestWriteProducesExactLayout(t *testing.T) {
	var buf bytes.Buffer

	h := New([MagicSize]byte{'H', 'U', 'F'}, "txt")

	if err := h.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	want := []byte{0x48, 0x55, 0x46, 0x01, 0x03, 0x74, 0x78, 0x74}

	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("got % x, want % x", buf.Bytes(), want)
	}
}

func TestWriteRejectsOverlongExtension(t *testing.T) {
	var buf bytes.Buffer

	h := New(rleMagic, string(bytes.Repeat([]byte{'e'}, 256)))

	if err := h.Write(&buf); err == nil {
		t.Fatal("expected error for a 256-byte extension")
	}
}

func TestReadRejectsBadVersion(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(rleMagic[:])
	buf.WriteByte(99)
	buf.WriteByte(3)
	buf.WriteString("txt")

	_, err := Read(&buf)

	var ce *filepress.CodecError

	if err == nil {
		t.Fatal("expected error for unsupported version")
	}

	if !asCodecError(err, &ce) || ce.Kind != filepress.ErrInvalidHeader {
		t.Fatalf("expected ErrInvalidHeader, got %v", err)
	}
}

func TestReadRejectsZeroExtensionLength(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(rleMagic[:])
	buf.WriteByte(VersionNumber)
	buf.WriteByte(0)

	if _, err := Read(&buf); err == nil {
		t.Fatal("expected error for zero-length extension")
	}
}

func TestReadRejectsTruncatedExtension(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(rleMagic[:])
	buf.WriteByte(VersionNumber)
	buf.WriteByte(5)
	buf.WriteString("ab")

	if _, err := Read(&buf); err == nil {
		t.Fatal("expected error for truncated extension bytes")
	}
}

func TestIsMagic(t *testing.T) {
	h := New(rleMagic, "dat")

	if !h.IsMagic(rleMagic) {
		t.Fatal("expected IsMagic to match its own magic")
	}

	if h.IsMagic([MagicSize]byte{'H', 'U', 'F'}) {
		t.Fatal("expected IsMagic to reject a different magic")
	}
}

func asCodecError(err error, target **filepress.CodecError) bool {
	ce, ok := err.(*filepress.CodecError)

	if ok {
		*target = ce
	}

	return ok
}
