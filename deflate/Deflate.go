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

// Package deflate is a third, supplemental codec beyond RLE and Huffman:
// a zstd-backed entry sharing the same FileHeader framing and dispatcher
// plumbing. The payload representation is entirely zstd's; this package
// only streams bytes through the library in fixed-size chunks.
package deflate

import (
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/filepress/filepress"
)

const readChunkSize = 16384

// Deflate implements filepress.Codec, backed by zstd at its default
// encoder level - this module does not chase ratio beyond what the
// library's defaults already provide.
type Deflate struct {
}

var _ filepress.Codec = (*Deflate)(nil)

// NewDeflate creates a zstd-backed codec.
func NewDeflate() (*Deflate, error) {
	return &Deflate{}, nil
}

// Encode streams src through a zstd encoder into dst in fixed-size
// chunks, invoking progress after each chunk.
func (this *Deflate) Encode(src io.Reader, dst io.Writer, progress filepress.ProgressFunc) error {
	enc, err := zstd.NewWriter(dst)

	if err != nil {
		return &filepress.CodecError{Kind: filepress.ErrInternalInvariant, Msg: err.Error()}
	}

	buf := make([]byte, readChunkSize)
	var processed int64

	for {
		n, rerr := src.Read(buf)

		if n > 0 {
			if _, werr := enc.Write(buf[:n]); werr != nil {
				enc.Close()
				return &filepress.CodecError{Kind: filepress.ErrIOOpenFailure, Msg: werr.Error()}
			}

			processed += int64(n)

			if progress != nil {
				progress(processed)
			}
		}

		if rerr == io.EOF {
			break
		}

		if rerr != nil {
			enc.Close()
			return &filepress.CodecError{Kind: filepress.ErrIOOpenFailure, Msg: rerr.Error()}
		}
	}

	if err := enc.Close(); err != nil {
		return &filepress.CodecError{Kind: filepress.ErrIOOpenFailure, Msg: err.Error()}
	}

	return nil
}

// countingReader tracks how many compressed bytes the decoder has
// consumed, so progress reports line up with the input size the
// dispatcher measures.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Decode streams src through a zstd decoder into dst in fixed-size
// chunks, invoking progress after each chunk with the number of
// compressed input bytes consumed so far.
func (this *Deflate) Decode(src io.Reader, dst io.Writer, progress filepress.ProgressFunc) error {
	cr := &countingReader{r: src}
	dec, err := zstd.NewReader(cr)

	if err != nil {
		return &filepress.CodecError{Kind: filepress.ErrInvalidHeader, Msg: err.Error()}
	}

	defer dec.Close()

	buf := make([]byte, readChunkSize)

	for {
		n, rerr := dec.Read(buf)

		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return &filepress.CodecError{Kind: filepress.ErrIOOpenFailure, Msg: werr.Error()}
			}

			if progress != nil {
				progress(cr.n)
			}
		}

		if rerr == io.EOF {
			break
		}

		if rerr != nil {
			return &filepress.CodecError{Kind: filepress.ErrTruncatedPayload, Msg: rerr.Error()}
		}
	}

	return nil
}
