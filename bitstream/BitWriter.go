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

package bitstream

import (
	"errors"
	"io"

	"github.com/filepress/filepress"
)

const bufferSize = 16384

// BitWriter is the default implementation of filepress.OutputBitStream:
// a single partial byte of pending bits plus a 16 KiB output buffer,
// MSB-first. Only Flush ever emits padding; every other write path keeps
// exactly the bits it was given.
type BitWriter struct {
	closed    bool
	written   uint64 // bits flushed to the underlying stream
	position  int    // index of next free byte in buffer
	current   byte   // partially filled byte, bits packed from the MSB down
	availBits uint   // number of unset bits remaining in current, in [0..8]
	os        io.Writer
	buffer    []byte
}

var _ filepress.OutputBitStream = (*BitWriter)(nil)

// NewBitWriter creates a BitWriter that flushes full buffers to stream.
func NewBitWriter(stream io.Writer) (*BitWriter, error) {
	if stream == nil {
		return nil, errors.New("invalid null output stream parameter")
	}

	this := new(BitWriter)
	this.os = stream
	this.buffer = make([]byte, bufferSize)
	this.availBits = 8
	return this, nil
}

// WriteBit appends the least significant bit of bit to the stream.
// Panics if the stream is closed.
func (this *BitWriter) WriteBit(bit int) {
	if this.closed {
		panic(errors.New("stream closed"))
	}

	this.availBits--
	this.current |= byte((bit & 1) << this.availBits)

	if this.availBits == 0 {
		this.pushCurrent()
	}
}

// WriteBits appends a sequence of '0'/'1' characters to the stream and
// returns the number of bits written. Panics if the stream is closed or
// bits contains a character other than '0'/'1'.
func (this *BitWriter) WriteBits(bits string) int {
	for i := 0; i < len(bits); i++ {
		switch bits[i] {
		case '0':
			this.WriteBit(0)
		case '1':
			this.WriteBit(1)
		default:
			panic(errors.New("invalid bit character: must be '0' or '1'"))
		}
	}

	return len(bits)
}

// WriteUint appends the low count bits of value, MSB-first. Used by the
// codecs to write fixed-width table and length fields without going
// through WriteBits. count must be in [1..64].
func (this *BitWriter) WriteUint(value uint64, count uint) {
	if count == 0 || count > 64 {
		panic(errors.New("invalid bit count: must be in [1..64]"))
	}

	for i := int(count) - 1; i >= 0; i-- {
		this.WriteBit(int(value>>uint(i)) & 1)
	}
}

// Flush is the only operation that emits padding: a partial pending byte
// is zero-padded on the right (in the unset low bits) and pushed out,
// then the buffer is written to the underlying stream.
func (this *BitWriter) Flush() {
	if this.closed {
		panic(errors.New("stream closed"))
	}

	if this.availBits != 8 && this.availBits != 0 {
		this.pushCurrent()
	}

	if this.position > 0 {
		if _, err := this.os.Write(this.buffer[0:this.position]); err != nil {
			panic(err)
		}

		this.written += uint64(this.position) << 3
		this.position = 0
	}
}

func (this *BitWriter) pushCurrent() {
	this.buffer[this.position] = this.current
	this.position++
	this.current = 0
	this.availBits = 8

	if this.position >= len(this.buffer) {
		if this.position > 0 {
			if _, err := this.os.Write(this.buffer[0:this.position]); err != nil {
				panic(err)
			}

			this.written += uint64(this.position) << 3
			this.position = 0
		}
	}
}

// Close flushes any pending bits and makes the stream unavailable for
// further writes.
func (this *BitWriter) Close() error {
	if this.closed {
		return nil
	}

	this.Flush()
	this.closed = true
	return nil
}

// BitsWritten returns the number of bits emitted so far, padding bits
// from Flush included.
func (this *BitWriter) BitsWritten() uint64 {
	return this.written + uint64(this.position<<3) + uint64(8-this.availBits)
}
