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

package filepress

import (
	"fmt"
	"time"
)

const (
	EvtCompressionStart     = 0
	EvtDecompressionStart   = 1
	EvtHeaderWritten        = 2
	EvtHeaderRead           = 3
	EvtProgress             = 4
	EvtCompressionEnd       = 5
	EvtDecompressionEnd     = 6
)

// Event reports one step of a compress/decompress call. The hash carried
// here is an xxhash64 fingerprint of the bytes produced so far:
// informational only, displayed by a verbose listener, never consulted
// to validate a decode (the magic+version check in header.FileHeader is
// the module's integrity boundary).
type Event struct {
	eventType int
	processed int64
	total     int64
	hash      uint64
	hashing   bool
	eventTime time.Time
	msg       string
}

// NewEventFromString builds a message-only event, e.g. a start/end marker.
func NewEventFromString(evtType int, msg string, evtTime time.Time) *Event {
	if evtTime.IsZero() {
		evtTime = time.Now()
	}

	return &Event{eventType: evtType, msg: msg, eventTime: evtTime}
}

// NewEvent builds a progress event. hash/hashing are only meaningful when
// a caller opted into fingerprinting (see app's verbose mode).
func NewEvent(evtType int, processed, total int64, hash uint64, hashing bool, evtTime time.Time) *Event {
	if evtTime.IsZero() {
		evtTime = time.Now()
	}

	return &Event{eventType: evtType, processed: processed, total: total,
		hash: hash, hashing: hashing, eventTime: evtTime}
}

func (this *Event) Type() int {
	return this.eventType
}

func (this *Event) Time() time.Time {
	return this.eventTime
}

// Processed returns the number of input bytes processed so far.
func (this *Event) Processed() int64 {
	return this.processed
}

// Percentage derives a 0-100 progress value from the processed and total
// byte counts, clamped so a final tick always reads 100.
func (this *Event) Percentage() int {
	if this.total <= 0 {
		return 100
	}

	p := int((this.processed * 100) / this.total)

	if p > 100 {
		p = 100
	}

	return p
}

// Hash returns the informational xxhash64 fingerprint, valid only when
// Hashing() is true.
func (this *Event) Hash() uint64 {
	return this.hash
}

func (this *Event) Hashing() bool {
	return this.hashing
}

func (this *Event) String() string {
	if len(this.msg) > 0 {
		return this.msg
	}

	hash := ""
	t := ""

	if this.hashing == true {
		hash = fmt.Sprintf(", \"hash\":\"%016x\"", this.hash)
	}

	switch this.eventType {
	case EvtCompressionStart:
		t = "COMPRESSION_START"

	case EvtDecompressionStart:
		t = "DECOMPRESSION_START"

	case EvtHeaderWritten:
		t = "HEADER_WRITTEN"

	case EvtHeaderRead:
		t = "HEADER_READ"

	case EvtProgress:
		t = "PROGRESS"

	case EvtCompressionEnd:
		t = "COMPRESSION_END"

	case EvtDecompressionEnd:
		t = "DECOMPRESSION_END"
	}

	return fmt.Sprintf("{ \"type\":\"%s\", \"processed\":%d, \"percent\":%d%s }",
		t, this.processed, this.Percentage(), hash)
}

// Listener receives Events emitted during a compress/decompress call.
type Listener interface {
	ProcessEvent(evt *Event)
}

// NotifyListeners fans evt out to every listener, recovering from any
// panic a misbehaving listener raises so one bad listener cannot abort
// an in-progress codec call.
func NotifyListeners(listeners []Listener, evt *Event) {
	defer func() {
		_ = recover()
	}()

	for _, l := range listeners {
		l.ProcessEvent(evt)
	}
}
