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

// BitReader is the default implementation of filepress.InputBitStream: a
// single partial byte of unconsumed bits plus a 16 KiB input buffer,
// MSB-first. The refill is transparent; callers see no distinction
// between intra-buffer and cross-buffer reads. No padding is ever
// stripped here - a decoder that over-reads past the writer's Flush
// padding is a caller bug, not something this type can detect.
type BitReader struct {
	closed    bool
	read      uint64 // bits consumed from the underlying stream so far
	position  int    // index of the next unread byte in buffer
	available int    // number of valid bytes currently in buffer
	current   byte   // partially consumed byte, bits served from the MSB down
	availBits uint   // number of unconsumed bits left in current, in [0..8]
	is        io.Reader
	buffer    []byte
}

var _ filepress.InputBitStream = (*BitReader)(nil)

// NewBitReader creates a BitReader pulling from stream.
func NewBitReader(stream io.Reader) (*BitReader, error) {
	if stream == nil {
		return nil, errors.New("invalid null input stream parameter")
	}

	this := new(BitReader)
	this.is = stream
	this.buffer = make([]byte, bufferSize)
	return this, nil
}

// ReadBit returns the next bit, MSB-first. Panics if the stream is
// closed or exhausted.
func (this *BitReader) ReadBit() int {
	if this.closed {
		panic(errors.New("stream closed"))
	}

	if this.availBits == 0 {
		this.pullCurrent()
	}

	this.availBits--
	return int((this.current >> this.availBits) & 1)
}

// ReadUint reads count bits, MSB-first, and returns them as the low
// bits of a uint64. Used by the codecs to read fixed-width table and
// length fields. count must be in [1..64].
func (this *BitReader) ReadUint(count uint) uint64 {
	if count == 0 || count > 64 {
		panic(errors.New("invalid bit count: must be in [1..64]"))
	}

	var v uint64

	for i := uint(0); i < count; i++ {
		v = (v << 1) | uint64(this.ReadBit())
	}

	return v
}

func (this *BitReader) pullCurrent() {
	if this.position >= this.available {
		this.read += uint64(this.available) << 3
		n, err := this.is.Read(this.buffer)

		if n <= 0 {
			if err == nil {
				err = io.ErrUnexpectedEOF
			}

			panic(err)
		}

		this.available = n
		this.position = 0
	}

	this.current = this.buffer[this.position]
	this.position++
	this.availBits = 8
}

// Close makes the stream unavailable for further reads.
func (this *BitReader) Close() error {
	this.closed = true
	return nil
}

// BitsRead returns the number of bits consumed so far.
func (this *BitReader) BitsRead() uint64 {
	return this.read + uint64(this.position<<3) - uint64(this.availBits)
}
