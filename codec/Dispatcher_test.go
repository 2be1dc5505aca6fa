package codec

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/filepress/filepress"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	for _, algo := range []filepress.Algorithm{filepress.AlgoRLE, filepress.AlgoHuffman, filepress.AlgoDeflate} {
		input := []byte("AAAABBBCCDDDDDDDDEEE the quick brown fox")
		var compressed bytes.Buffer

		if err := Compress(bytes.NewReader(input), &compressed, algo, "txt", int64(len(input)), false, nil); err != nil {
			t.Fatalf("%s: Compress: %v", algo, err)
		}

		var decompressed bytes.Buffer
		ext, err := Decompress(bytes.NewReader(compressed.Bytes()), &decompressed, algo, int64(compressed.Len()), false, nil)

		if err != nil {
			t.Fatalf("%s: Decompress: %v", algo, err)
		}

		if ext != "txt" {
			t.Fatalf("%s: expected extension txt, got %q", algo, ext)
		}

		if !bytes.Equal(decompressed.Bytes(), input) {
			t.Fatalf("%s: round trip mismatch", algo)
		}
	}
}

func TestDecompressAlgorithmMismatch(t *testing.T) {
	input := []byte("hello world")
	var compressed bytes.Buffer

	if err := Compress(bytes.NewReader(input), &compressed, filepress.AlgoHuffman, "txt",
		int64(len(input)), false, nil); err != nil {
		t.Fatalf("Compress: %v", err)
	}

	var decompressed bytes.Buffer
	_, err := Decompress(bytes.NewReader(compressed.Bytes()), &decompressed, filepress.AlgoRLE,
		int64(compressed.Len()), false, nil)

	ce, ok := err.(*filepress.CodecError)

	if !ok || ce.Kind != filepress.ErrAlgorithmMismatch {
		t.Fatalf("expected ErrAlgorithmMismatch, got %v", err)
	}
}

func TestDecompressUnknownMagic(t *testing.T) {
	var decompressed bytes.Buffer
	bogus := append([]byte("BAD"), 1, 3)
	bogus = append(bogus, []byte("txt")...)

	_, err := Decompress(bytes.NewReader(bogus), &decompressed, filepress.AlgoRLE, 0, false, nil)

	ce, ok := err.(*filepress.CodecError)

	if !ok || ce.Kind != filepress.ErrUnknownFormat {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestDecompressBadVersionIsInvalidHeader(t *testing.T) {
	var decompressed bytes.Buffer
	bogus := append([]byte("RLE"), 2, 3)
	bogus = append(bogus, []byte("txt")...)

	_, err := Decompress(bytes.NewReader(bogus), &decompressed, filepress.AlgoRLE, 0, false, nil)

	ce, ok := err.(*filepress.CodecError)

	if !ok || ce.Kind != filepress.ErrInvalidHeader {
		t.Fatalf("expected ErrInvalidHeader, got %v", err)
	}
}

func TestCompressFileDecompressFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "sample.txt")
	content := bytes.Repeat([]byte("compress me, maybe\n"), 2000)

	if err := os.WriteFile(inputPath, content, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	for _, algo := range []filepress.Algorithm{filepress.AlgoRLE, filepress.AlgoHuffman, filepress.AlgoDeflate} {
		compressedPath, err := CompressFile(inputPath, "", algo, true, nil)

		if err != nil {
			t.Fatalf("%s: CompressFile: %v", algo, err)
		}

		wantSuffix := "sample." + CompressedExtension(algo)

		if filepath.Base(compressedPath) != wantSuffix {
			t.Fatalf("%s: derived output %q, want basename %q", algo, compressedPath, wantSuffix)
		}

		restoredPath := filepath.Join(dir, "restored.txt")
		gotPath, err := DecompressFile(compressedPath, restoredPath, algo, true, nil)

		if err != nil {
			t.Fatalf("%s: DecompressFile: %v", algo, err)
		}

		if gotPath != restoredPath {
			t.Fatalf("%s: resolved output %q, want %q", algo, gotPath, restoredPath)
		}

		restored, err := os.ReadFile(restoredPath)

		if err != nil {
			t.Fatalf("%s: ReadFile: %v", algo, err)
		}

		if !bytes.Equal(restored, content) {
			t.Fatalf("%s: file round trip mismatch", algo)
		}
	}
}

func TestDecompressFileDerivesOutputFromHeaderExtension(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "notes.md")

	if err := os.WriteFile(inputPath, []byte("# heading\nbody\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	compressedPath, err := CompressFile(inputPath, "", filepress.AlgoHuffman, false, nil)

	if err != nil {
		t.Fatalf("CompressFile: %v", err)
	}

	// Remove the original so the derived restore path is free.
	if err := os.Remove(inputPath); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	restoredPath, err := DecompressFile(compressedPath, "", filepress.AlgoHuffman, false, nil)

	if err != nil {
		t.Fatalf("DecompressFile: %v", err)
	}

	if restoredPath != inputPath {
		t.Fatalf("derived restore path %q, want %q", restoredPath, inputPath)
	}
}

func TestDecompressFileRemovesPartialOutputOnFailure(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "data.bin")

	if err := os.WriteFile(inputPath, bytes.Repeat([]byte("abcd0123"), 512), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	compressedPath, err := CompressFile(inputPath, "", filepress.AlgoHuffman, false, nil)

	if err != nil {
		t.Fatalf("CompressFile: %v", err)
	}

	// Truncate the payload so the decode dies partway through.
	data, err := os.ReadFile(compressedPath)

	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if err := os.WriteFile(compressedPath, data[:len(data)-4], 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	outputPath := filepath.Join(dir, "restored.bin")
	_, err = DecompressFile(compressedPath, outputPath, filepress.AlgoHuffman, false, nil)

	if err == nil {
		t.Fatal("expected decode failure on truncated payload")
	}

	if _, statErr := os.Stat(outputPath); !os.IsNotExist(statErr) {
		t.Fatalf("expected partial output to be removed, stat err: %v", statErr)
	}
}

type recordingListener struct {
	types []int
}

func (l *recordingListener) ProcessEvent(evt *filepress.Event) {
	l.types = append(l.types, evt.Type())
}

func TestListenersReceiveStartAndEndEvents(t *testing.T) {
	l := &recordingListener{}
	input := []byte("AAAABBB")
	var compressed bytes.Buffer

	if err := Compress(bytes.NewReader(input), &compressed, filepress.AlgoRLE, "txt",
		int64(len(input)), false, []filepress.Listener{l}); err != nil {
		t.Fatalf("Compress: %v", err)
	}

	if len(l.types) == 0 || l.types[0] != filepress.EvtCompressionStart {
		t.Fatalf("expected first event to be EvtCompressionStart, got %v", l.types)
	}

	if l.types[len(l.types)-1] != filepress.EvtCompressionEnd {
		t.Fatalf("expected last event to be EvtCompressionEnd, got %v", l.types)
	}
}
