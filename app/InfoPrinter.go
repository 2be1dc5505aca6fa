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

package main

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/filepress/filepress"
)

const (
	ENCODING = 0
	DECODING = 1
)

// InfoPrinter is the verbose-mode listener: it prints percentage
// progress as events arrive and, when the dispatcher was asked to
// fingerprint, the running xxhash64 of the produced bytes at the end.
type InfoPrinter struct {
	writer      io.Writer
	type_       uint
	level       uint
	lock        sync.Mutex
	lastPercent int
	lastHash    uint64
	hashing     bool
}

func NewInfoPrinter(infoLevel, type_ uint, writer io.Writer) (*InfoPrinter, error) {
	if writer == nil {
		return nil, errors.New("Invalid null writer parameter")
	}

	this := new(InfoPrinter)
	this.type_ = type_ & 1
	this.level = infoLevel
	this.writer = writer
	this.lastPercent = -1
	return this, nil
}

func (this *InfoPrinter) ProcessEvent(evt *filepress.Event) {
	this.lock.Lock()
	defer this.lock.Unlock()

	switch evt.Type() {
	case filepress.EvtCompressionStart, filepress.EvtDecompressionStart:
		this.lastPercent = -1
		this.lastHash = 0
		this.hashing = false

	case filepress.EvtProgress:
		if evt.Hashing() {
			this.hashing = true
			this.lastHash = evt.Hash()
		}

		if p := evt.Percentage(); p != this.lastPercent {
			fmt.Fprintf(this.writer, "%3d%%\r", p)
			this.lastPercent = p
		}

	case filepress.EvtCompressionEnd, filepress.EvtDecompressionEnd:
		verb := "Compressed"

		if this.type_ == DECODING {
			verb = "Decompressed"
		}

		if this.hashing {
			fmt.Fprintf(this.writer, "%s [%016x]\n", verb, this.lastHash)
		} else {
			fmt.Fprintf(this.writer, "%s\n", verb)
		}
	}
}
