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

// Package header implements the fixed-layout framing record every
// compressed stream carries: a 3-byte magic, a 1-byte version, a
// 1-byte extension length, and the extension bytes themselves. Read
// returns a value and Write takes one; there is no mutable shared
// header object. Read does not validate the magic - classifying it is
// the dispatcher's job.
package header

import (
	"io"

	"github.com/filepress/filepress"
)

const (
	MagicSize     = 3
	VersionNumber = 1
)

// FileHeader is the framing record written before every codec's payload.
type FileHeader struct {
	Magic     [MagicSize]byte
	Version   uint8
	Extension string // no leading dot
}

// New builds a header for the current version carrying the given magic
// and original file extension.
func New(magic [MagicSize]byte, extension string) FileHeader {
	return FileHeader{Magic: magic, Version: VersionNumber, Extension: extension}
}

// Write serializes h to w: magic, version, extension length, extension
// bytes. Returns an error if the extension is too long to fit the
// 1-byte length field.
func (h FileHeader) Write(w io.Writer) error {
	if len(h.Extension) > 255 {
		return &filepress.CodecError{Kind: filepress.ErrInvalidHeader,
			Msg: "extension too long to encode in a single byte"}
	}

	buf := make([]byte, 0, MagicSize+1+1+len(h.Extension))
	buf = append(buf, h.Magic[:]...)
	buf = append(buf, h.Version)
	buf = append(buf, byte(len(h.Extension)))
	buf = append(buf, h.Extension...)

	if _, err := w.Write(buf); err != nil {
		return &filepress.CodecError{Kind: filepress.ErrIOOpenFailure, Msg: err.Error()}
	}

	return nil
}

// Read parses a FileHeader from r, validating the version and the
// extension length.
func Read(r io.Reader) (FileHeader, error) {
	var h FileHeader

	if _, err := io.ReadFull(r, h.Magic[:]); err != nil {
		return FileHeader{}, &filepress.CodecError{Kind: filepress.ErrInvalidHeader,
			Msg: "failed to read magic number"}
	}

	var versionBuf [1]byte

	if _, err := io.ReadFull(r, versionBuf[:]); err != nil {
		return FileHeader{}, &filepress.CodecError{Kind: filepress.ErrInvalidHeader,
			Msg: "failed to read version"}
	}

	h.Version = versionBuf[0]

	if h.Version != VersionNumber {
		return FileHeader{}, &filepress.CodecError{Kind: filepress.ErrInvalidHeader,
			Msg: "unsupported file version"}
	}

	var extLenBuf [1]byte

	if _, err := io.ReadFull(r, extLenBuf[:]); err != nil || extLenBuf[0] == 0 {
		return FileHeader{}, &filepress.CodecError{Kind: filepress.ErrInvalidHeader,
			Msg: "invalid extension length"}
	}

	extBuf := make([]byte, extLenBuf[0])

	if _, err := io.ReadFull(r, extBuf); err != nil {
		return FileHeader{}, &filepress.CodecError{Kind: filepress.ErrInvalidHeader,
			Msg: "failed to read original file extension"}
	}

	h.Extension = string(extBuf)
	return h, nil
}

// IsMagic reports whether h carries the given magic value.
func (h FileHeader) IsMagic(expected [MagicSize]byte) bool {
	return h.Magic == expected
}
