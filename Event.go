/*
Copyright 2011-2026 Frederic Langlet
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

package huffman

import (
	"fmt"
	"time"
)

const (
	EVT_COMPRESSION_START     = 0 // Compression starts
	EVT_DECOMPRESSION_START   = 1 // Decompression starts
	EVT_BEFORE_ANALYSIS       = 2 // Frequency pass starts
	EVT_AFTER_ANALYSIS        = 3 // Frequency pass ends
	EVT_BEFORE_ENTROPY        = 4 // Huffman encoding/decoding starts
	EVT_AFTER_ENTROPY         = 5 // Huffman encoding/decoding ends
	EVT_COMPRESSION_END       = 6 // Compression ends
	EVT_DECOMPRESSION_END     = 7 // Decompression ends
	EVT_AFTER_HEADER_ENCODING = 8 // Container header written
	EVT_AFTER_HEADER_DECODING = 9 // Container header read

	EVT_HASH_NONE   = 0
	EVT_HASH_64BITS = 64
)

// Event a compression/decompression event
type Event struct {
	eventType int
	size      int64
	hash      uint64
	hashType  int
	eventTime time.Time
	msg       string
}

// NewEventFromString creates a new Event instance that wraps a message
func NewEventFromString(evtType int, msg string, evtTime time.Time) *Event {
	if evtTime.IsZero() {
		evtTime = time.Now()
	}

	return &Event{eventType: evtType, size: 0, msg: msg, eventTime: evtTime}
}

// NewEvent creates a new Event instance with size and hash info
// Returns nil if the hashType is not in { EVT_HASH_NONE, EVT_HASH_64BITS }
func NewEvent(evtType int, size int64, hash uint64, hashType int, evtTime time.Time) *Event {
	if evtTime.IsZero() {
		evtTime = time.Now()
	}

	if hashType != EVT_HASH_NONE && hashType != EVT_HASH_64BITS {
		return nil
	}

	return &Event{eventType: evtType, size: size, hash: hash,
		hashType: hashType, eventTime: evtTime}
}

// Type returns the type info
func (this *Event) Type() int {
	return this.eventType
}

// Time returns the time info
func (this *Event) Time() time.Time {
	return this.eventTime
}

// Size returns the size info
func (this *Event) Size() int64 {
	return this.size
}

// Hash returns the hash info
func (this *Event) Hash() uint64 {
	return this.hash
}

// HashType returns EVT_HASH_NONE or EVT_HASH_64BITS
func (this *Event) HashType() int {
	return this.hashType
}

// Message returns the wrapped message (may be empty)
func (this *Event) Message() string {
	return this.msg
}

// String returns a string representation of this event.
// If the event wraps a message, the message is returned.
// Otherwise a string is built from the fields.
func (this *Event) String() string {
	if len(this.msg) > 0 {
		return this.msg
	}

	hash := ""

	if this.hashType != EVT_HASH_NONE {
		hash = fmt.Sprintf(", \"hash\": %016x", this.hash)
	}

	return fmt.Sprintf("{ \"type\":\"%s\", \"size\":%d, \"time\":%d%s }", EventName(this.eventType),
		this.size, this.eventTime.UnixNano()/1000000, hash)
}

// EventName returns the name of an event type
func EventName(evtType int) string {
	switch evtType {
	case EVT_COMPRESSION_START:
		return "COMPRESSION_START"

	case EVT_DECOMPRESSION_START:
		return "DECOMPRESSION_START"

	case EVT_BEFORE_ANALYSIS:
		return "BEFORE_ANALYSIS"

	case EVT_AFTER_ANALYSIS:
		return "AFTER_ANALYSIS"

	case EVT_BEFORE_ENTROPY:
		return "BEFORE_ENTROPY"

	case EVT_AFTER_ENTROPY:
		return "AFTER_ENTROPY"

	case EVT_COMPRESSION_END:
		return "COMPRESSION_END"

	case EVT_DECOMPRESSION_END:
		return "DECOMPRESSION_END"

	case EVT_AFTER_HEADER_ENCODING:
		return "AFTER_HEADER_ENCODING"

	case EVT_AFTER_HEADER_DECODING:
		return "AFTER_HEADER_DECODING"

	default:
		return "UNKNOWN"
	}
}

// Listener is an interface implemented by event processors
type Listener interface {
	// ProcessEvent is the method called whenever a Listener receives an event.
	ProcessEvent(evt *Event)
}

// NotifyListeners sends the event to all the listeners. Panics in listeners
// are ignored.
func NotifyListeners(listeners []Listener, evt *Event) {
	defer func() {
		//lint:ignore SA9003 Ignore panics in listeners
		// nolint:staticcheck
		if r := recover(); r != nil {
		}
	}()

	for _, bl := range listeners {
		bl.ProcessEvent(evt)
	}
}
