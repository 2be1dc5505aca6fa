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

// Package rle implements the byte-oriented run-length codec: a stream of
// (byte, count) pairs, with runs of 255 or more split into 3-byte escape
// blocks (0xFF, 0x00, B), each block worth exactly 255 copies of B.
package rle

import (
	"bufio"
	"io"

	"github.com/filepress/filepress"
)

const (
	escapeByte    = 0xFF
	escapeMarker  = 0x00
	maxRun        = 255
	readChunkSize = 16384
)

// RLE implements filepress.Codec.
type RLE struct {
}

var _ filepress.Codec = (*RLE)(nil)

// NewRLE creates a run-length codec.
func NewRLE() (*RLE, error) {
	return &RLE{}, nil
}

// Encode reads all of src and writes the RLE-encoded payload to dst. A
// run of N copies of a byte B is emitted as N/255 escape blocks
// (0xFF, 0x00, B), each worth 255 B's, followed - if N mod 255 != 0 - by
// a single (B, N mod 255) pair. Runs that never reach a full block are
// emitted directly as a single (B, count) pair.
func (this *RLE) Encode(src io.Reader, dst io.Writer, progress filepress.ProgressFunc) error {
	br := bufio.NewReaderSize(src, readChunkSize)
	bw := bufio.NewWriterSize(dst, readChunkSize)

	var processed, lastReport int64
	var haveRun bool
	var runByte byte
	var runLen int

	flushRun := func() error {
		if !haveRun {
			return nil
		}

		for runLen >= maxRun {
			if _, err := bw.Write([]byte{escapeByte, escapeMarker, runByte}); err != nil {
				return &filepress.CodecError{Kind: filepress.ErrIOOpenFailure, Msg: err.Error()}
			}

			runLen -= maxRun
		}

		if runLen > 0 {
			if _, err := bw.Write([]byte{runByte, byte(runLen)}); err != nil {
				return &filepress.CodecError{Kind: filepress.ErrIOOpenFailure, Msg: err.Error()}
			}
		}

		haveRun = false
		runLen = 0
		return nil
	}

	for {
		b, err := br.ReadByte()

		if err != nil {
			if err == io.EOF {
				break
			}

			return &filepress.CodecError{Kind: filepress.ErrIOOpenFailure, Msg: err.Error()}
		}

		processed++

		if haveRun && b == runByte {
			runLen++
		} else {
			if err := flushRun(); err != nil {
				return err
			}

			haveRun = true
			runByte = b
			runLen = 1
		}

		if progress != nil && processed-lastReport >= readChunkSize {
			progress(processed)
			lastReport = processed
		}
	}

	if err := flushRun(); err != nil {
		return err
	}

	if err := bw.Flush(); err != nil {
		return &filepress.CodecError{Kind: filepress.ErrIOOpenFailure, Msg: err.Error()}
	}

	if progress != nil {
		progress(processed)
	}

	return nil
}

// Decode reads an RLE-encoded payload from src and writes the restored
// bytes to dst. A pair (c, k) with k > 0 expands to k copies of c, even
// when c is 0xFF; only the exact prefix (0xFF, 0x00) is an escape, in
// which case the following byte expands to 255 copies.
func (this *RLE) Decode(src io.Reader, dst io.Writer, progress filepress.ProgressFunc) error {
	br := bufio.NewReaderSize(src, readChunkSize)
	bw := bufio.NewWriterSize(dst, readChunkSize)

	var processed, lastReport int64

	for {
		c, err := br.ReadByte()

		if err != nil {
			if err == io.EOF {
				break
			}

			return &filepress.CodecError{Kind: filepress.ErrIOOpenFailure, Msg: err.Error()}
		}

		k, err := br.ReadByte()

		if err != nil {
			return &filepress.CodecError{Kind: filepress.ErrTruncatedPayload,
				Msg: "byte not followed by a count"}
		}

		processed += 2

		if c == escapeByte && k == escapeMarker {
			value, err := br.ReadByte()

			if err != nil {
				return &filepress.CodecError{Kind: filepress.ErrTruncatedPayload,
					Msg: "escape prefix not followed by a run byte"}
			}

			processed++

			if err := writeRepeated(bw, value, maxRun); err != nil {
				return err
			}
		} else {
			if k == 0 {
				return &filepress.CodecError{Kind: filepress.ErrCorruptCode,
					Msg: "run count byte is zero outside an escape sequence"}
			}

			if err := writeRepeated(bw, c, int(k)); err != nil {
				return err
			}
		}

		if progress != nil && processed-lastReport >= readChunkSize {
			progress(processed)
			lastReport = processed
		}
	}

	if err := bw.Flush(); err != nil {
		return &filepress.CodecError{Kind: filepress.ErrIOOpenFailure, Msg: err.Error()}
	}

	if progress != nil {
		progress(processed)
	}

	return nil
}

func writeRepeated(bw *bufio.Writer, b byte, count int) error {
	for i := 0; i < count; i++ {
		if err := bw.WriteByte(b); err != nil {
			return &filepress.CodecError{Kind: filepress.ErrIOOpenFailure, Msg: err.Error()}
		}
	}

	return nil
}
