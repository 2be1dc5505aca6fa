/*
Copyright 2011-2017 Frederic Langlet
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package codec is the dispatcher: the only component an external shell
// talks to. It selects a payload codec by magic number on decode, by
// caller choice on encode, reads/writes the FileHeader, translates byte
// progress into listener events, and recovers any panic that escapes a
// codec call, rewrapping it as a filepress.CodecError (the huffman codec
// already converts the bit-primitive panics it raises itself). Every
// fatal condition surfaces as exactly one error; no partial success is
// ever signaled, and the file-level operations remove a partially
// written output on failure.
package codec

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	logging "github.com/op/go-logging"

	"github.com/filepress/filepress"
	"github.com/filepress/filepress/deflate"
	"github.com/filepress/filepress/header"
	"github.com/filepress/filepress/huffman"
	"github.com/filepress/filepress/rle"
)

var log = logging.MustGetLogger("filepress")

// timeNowZero hands a zero time.Time to Event constructors, which treat
// a zero value as "stamp with time.Now() internally".
func timeNowZero() time.Time {
	return time.Time{}
}

var (
	magicRLE = [header.MagicSize]byte{'R', 'L', 'E'}
	magicHUF = [header.MagicSize]byte{'H', 'U', 'F'}
	magicZST = [header.MagicSize]byte{'Z', 'S', 'T'}
)

func magicFor(algo filepress.Algorithm) [header.MagicSize]byte {
	switch algo {
	case filepress.AlgoRLE:
		return magicRLE
	case filepress.AlgoHuffman:
		return magicHUF
	default:
		return magicZST
	}
}

func algoFor(magic [header.MagicSize]byte) (filepress.Algorithm, bool) {
	switch magic {
	case magicRLE:
		return filepress.AlgoRLE, true
	case magicHUF:
		return filepress.AlgoHuffman, true
	case magicZST:
		return filepress.AlgoDeflate, true
	default:
		return 0, false
	}
}

// CompressedExtension returns the output suffix (without dot) used for
// files produced with algo.
func CompressedExtension(algo filepress.Algorithm) string {
	switch algo {
	case filepress.AlgoRLE:
		return "rle"
	case filepress.AlgoHuffman:
		return "huff"
	default:
		return "zst"
	}
}

func newPayloadCodec(algo filepress.Algorithm) (filepress.Codec, error) {
	switch algo {
	case filepress.AlgoRLE:
		return rle.NewRLE()
	case filepress.AlgoHuffman:
		return huffman.NewHuffman()
	case filepress.AlgoDeflate:
		return deflate.NewDeflate()
	default:
		return nil, &filepress.CodecError{Kind: filepress.ErrUnknownFormat, Msg: "unknown algorithm"}
	}
}

// fingerprinter tracks an xxhash64 digest of the bytes written through
// it. The digest is informational: listeners may display it, nothing
// validates against it.
type fingerprinter struct {
	w io.Writer
	d *xxhash.Digest
}

func newFingerprinter(w io.Writer) *fingerprinter {
	return &fingerprinter{w: w, d: xxhash.New()}
}

func (f *fingerprinter) Write(p []byte) (int, error) {
	n, err := f.w.Write(p)
	_, _ = f.d.Write(p[:n])
	return n, err
}

func (f *fingerprinter) sum() uint64 {
	if f == nil {
		return 0
	}

	return f.d.Sum64()
}

// Compress writes a FileHeader for algo (magic + extension, no leading
// dot) followed by the algo-encoded payload of src, to dst. listeners
// (if any) receive start/header/progress/end events; inputSize drives
// the 0-100 percentage translation and may be 0 if unknown. When
// hashing is true, events carry a running xxhash64 fingerprint of the
// bytes produced so far.
func Compress(src io.Reader, dst io.Writer, algo filepress.Algorithm, extension string,
	inputSize int64, hashing bool, listeners []filepress.Listener) (err error) {

	defer func() {
		if r := recover(); r != nil {
			err = toCodecError(r)
			log.Errorf("compress failed: %v", err)
		}
	}()

	filepress.NotifyListeners(listeners, filepress.NewEventFromString(filepress.EvtCompressionStart, "", timeNowZero()))

	payloadCodec, cErr := newPayloadCodec(algo)

	if cErr != nil {
		return cErr
	}

	var fp *fingerprinter

	if hashing {
		fp = newFingerprinter(dst)
		dst = fp
	}

	h := header.New(magicFor(algo), extension)
	log.Infof("compressing with algorithm %s, extension %q", algo, extension)

	if err := h.Write(dst); err != nil {
		return err
	}

	filepress.NotifyListeners(listeners, filepress.NewEventFromString(filepress.EvtHeaderWritten, "", timeNowZero()))

	progress := func(processed int64) {
		filepress.NotifyListeners(listeners,
			filepress.NewEvent(filepress.EvtProgress, processed, inputSize, fp.sum(), hashing, timeNowZero()))
	}

	if err := payloadCodec.Encode(src, dst, progress); err != nil {
		return err
	}

	filepress.NotifyListeners(listeners,
		filepress.NewEvent(filepress.EvtProgress, inputSize, inputSize, fp.sum(), hashing, timeNowZero()))
	filepress.NotifyListeners(listeners, filepress.NewEventFromString(filepress.EvtCompressionEnd, "", timeNowZero()))
	return nil
}

// Decompress reads+validates a FileHeader from src, determines the
// file's algorithm from its magic, rejects a mismatch against expected,
// then decodes the payload into dst. Returns the original extension
// recovered from the header. When hashing is true, events carry a
// running xxhash64 fingerprint of the restored bytes.
func Decompress(src io.Reader, dst io.Writer, expected filepress.Algorithm, inputSize int64,
	hashing bool, listeners []filepress.Listener) (extension string, err error) {

	defer func() {
		if r := recover(); r != nil {
			err = toCodecError(r)
			log.Errorf("decompress failed: %v", err)
		}
	}()

	filepress.NotifyListeners(listeners, filepress.NewEventFromString(filepress.EvtDecompressionStart, "", timeNowZero()))

	h, hErr := header.Read(src)

	if hErr != nil {
		return "", hErr
	}

	if err := decodePayload(h, src, dst, expected, inputSize, hashing, listeners); err != nil {
		return "", err
	}

	return h.Extension, nil
}

// decodePayload carries a decompress call from a parsed header to the
// end events. Callers have already emitted the start event.
func decodePayload(h header.FileHeader, src io.Reader, dst io.Writer, expected filepress.Algorithm,
	inputSize int64, hashing bool, listeners []filepress.Listener) error {

	filepress.NotifyListeners(listeners, filepress.NewEventFromString(filepress.EvtHeaderRead, "", timeNowZero()))

	fileAlgo, known := algoFor(h.Magic)

	if !known {
		return &filepress.CodecError{Kind: filepress.ErrUnknownFormat,
			Msg: "header magic is not a recognized algorithm"}
	}

	if fileAlgo != expected {
		return &filepress.CodecError{Kind: filepress.ErrAlgorithmMismatch,
			Msg: "file algorithm does not match the expected algorithm"}
	}

	payloadCodec, cErr := newPayloadCodec(fileAlgo)

	if cErr != nil {
		return cErr
	}

	log.Infof("decompressing algorithm %s, extension %q", fileAlgo, h.Extension)

	var fp *fingerprinter

	if hashing {
		fp = newFingerprinter(dst)
		dst = fp
	}

	progress := func(processed int64) {
		filepress.NotifyListeners(listeners,
			filepress.NewEvent(filepress.EvtProgress, processed, inputSize, fp.sum(), hashing, timeNowZero()))
	}

	if err := payloadCodec.Decode(src, dst, progress); err != nil {
		return err
	}

	filepress.NotifyListeners(listeners,
		filepress.NewEvent(filepress.EvtProgress, inputSize, inputSize, fp.sum(), hashing, timeNowZero()))
	filepress.NotifyListeners(listeners, filepress.NewEventFromString(filepress.EvtDecompressionEnd, "", timeNowZero()))
	return nil
}

// CompressFile compresses inputPath into outputPath with algo. An empty
// outputPath derives "<stem>.rle", "<stem>.huff" or "<stem>.zst" beside
// the input. The header's extension field records the input's extension
// without its leading dot ("bin" when the input has none, since the
// header cannot carry an empty extension). Returns the resolved output
// path. On failure the partial output file is removed.
func CompressFile(inputPath, outputPath string, algo filepress.Algorithm, hashing bool,
	listeners []filepress.Listener) (string, error) {

	input, err := os.Open(inputPath)

	if err != nil {
		return "", &filepress.CodecError{Kind: filepress.ErrIOOpenFailure, Msg: err.Error()}
	}

	defer input.Close()

	st, err := input.Stat()

	if err != nil {
		return "", &filepress.CodecError{Kind: filepress.ErrIOOpenFailure, Msg: err.Error()}
	}

	extension := strings.TrimPrefix(filepath.Ext(inputPath), ".")

	if extension == "" {
		extension = "bin"
	}

	if outputPath == "" {
		outputPath = stemOf(inputPath) + "." + CompressedExtension(algo)
	}

	output, err := os.Create(outputPath)

	if err != nil {
		return "", &filepress.CodecError{Kind: filepress.ErrIOOpenFailure, Msg: err.Error()}
	}

	if err := Compress(input, output, algo, extension, st.Size(), hashing, listeners); err != nil {
		output.Close()
		removePartialOutput(outputPath)
		return "", err
	}

	if err := output.Close(); err != nil {
		removePartialOutput(outputPath)
		return "", &filepress.CodecError{Kind: filepress.ErrIOOpenFailure, Msg: err.Error()}
	}

	return outputPath, nil
}

// DecompressFile restores inputPath into outputPath, validating the
// header and rejecting an algorithm mismatch against expected. An empty
// outputPath derives "<stem>.<original extension from the header>"
// beside the input. Returns the resolved output path. On failure the
// partial output file is removed.
func DecompressFile(inputPath, outputPath string, expected filepress.Algorithm, hashing bool,
	listeners []filepress.Listener) (outPath string, err error) {

	defer func() {
		if r := recover(); r != nil {
			err = toCodecError(r)
			log.Errorf("decompress failed: %v", err)

			if outPath != "" {
				removePartialOutput(outPath)
				outPath = ""
			}
		}
	}()

	input, err := os.Open(inputPath)

	if err != nil {
		return "", &filepress.CodecError{Kind: filepress.ErrIOOpenFailure, Msg: err.Error()}
	}

	defer input.Close()

	st, err := input.Stat()

	if err != nil {
		return "", &filepress.CodecError{Kind: filepress.ErrIOOpenFailure, Msg: err.Error()}
	}

	filepress.NotifyListeners(listeners, filepress.NewEventFromString(filepress.EvtDecompressionStart, "", timeNowZero()))

	h, hErr := header.Read(input)

	if hErr != nil {
		return "", hErr
	}

	if outputPath == "" {
		outputPath = stemOf(inputPath) + "." + h.Extension
	}

	output, oErr := os.Create(outputPath)

	if oErr != nil {
		return "", &filepress.CodecError{Kind: filepress.ErrIOOpenFailure, Msg: oErr.Error()}
	}

	outPath = outputPath

	if err := decodePayload(h, input, output, expected, st.Size(), hashing, listeners); err != nil {
		output.Close()
		removePartialOutput(outputPath)
		return "", err
	}

	if err := output.Close(); err != nil {
		removePartialOutput(outputPath)
		return "", &filepress.CodecError{Kind: filepress.ErrIOOpenFailure, Msg: err.Error()}
	}

	return outputPath, nil
}

// stemOf strips the final extension from path, keeping the directory.
func stemOf(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// removePartialOutput deletes a half-written output so it cannot be
// mistaken for a valid compressed or restored file.
func removePartialOutput(path string) {
	if err := os.Remove(path); err != nil {
		log.Warningf("could not remove partial output %s: %v", path, err)
	}
}

func toCodecError(r any) error {
	if ce, ok := r.(*filepress.CodecError); ok {
		return ce
	}

	if err, ok := r.(error); ok {
		return &filepress.CodecError{Kind: filepress.ErrInternalInvariant, Msg: err.Error()}
	}

	return &filepress.CodecError{Kind: filepress.ErrInternalInvariant, Msg: "unrecoverable failure"}
}
