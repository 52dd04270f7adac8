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

package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	huffman "github.com/flanglet/huffman-go"
	"github.com/pkg/errors"
)

// An implementation of Listener to display the phases of a run (verbose
// option of the FileCompressor/FileDecompressor)

const (
	// COMPRESSION event type
	COMPRESSION = 0
	// DECOMPRESSION event type
	DECOMPRESSION = 1
)

type phaseInfo struct {
	time0      time.Time
	time1      time.Time
	time2      time.Time
	time3      time.Time
	stage0Size int64
	stage1Size int64
}

// InfoPrinter contains all the data required to print the events of a run
type InfoPrinter struct {
	writer   io.Writer
	infoType uint
	level    uint
	info     phaseInfo
	lock     sync.Mutex
}

// NewInfoPrinter creates a new instance of InfoPrinter
func NewInfoPrinter(infoLevel, infoType uint, writer io.Writer) (*InfoPrinter, error) {
	if writer == nil {
		return nil, errors.New("invalid null writer parameter")
	}

	if infoType != COMPRESSION && infoType != DECOMPRESSION {
		return nil, errors.Errorf("invalid info type parameter: %d", infoType)
	}

	this := &InfoPrinter{}
	this.infoType = infoType
	this.level = infoLevel
	this.writer = writer
	return this, nil
}

// ProcessEvent receives an event and writes a log record to the internal writer
func (this *InfoPrinter) ProcessEvent(evt *huffman.Event) {
	this.lock.Lock()
	defer this.lock.Unlock()

	switch evt.Type() {
	case huffman.EVT_BEFORE_ANALYSIS:
		this.info.time0 = evt.Time()

		if this.level >= 5 {
			fmt.Fprintln(this.writer, evt)
		}

	case huffman.EVT_AFTER_ANALYSIS:
		this.info.time1 = evt.Time()
		this.info.stage0Size = evt.Size()

		if this.level >= 5 {
			fmt.Fprintln(this.writer, evt)
		}

		if this.level >= 4 {
			fmt.Fprintf(this.writer, "Frequency analysis: %d bytes [%d ms]\n", evt.Size(),
				this.info.time1.Sub(this.info.time0).Milliseconds())
		}

	case huffman.EVT_AFTER_HEADER_ENCODING, huffman.EVT_AFTER_HEADER_DECODING:
		if this.level >= 3 {
			fmt.Fprintln(this.writer, "")
			fmt.Fprint(this.writer, evt.Message())
		}

	case huffman.EVT_BEFORE_ENTROPY:
		this.info.time2 = evt.Time()
		this.info.stage1Size = evt.Size()

		if this.level >= 5 {
			fmt.Fprintln(this.writer, evt)
		}

	case huffman.EVT_AFTER_ENTROPY:
		this.info.time3 = evt.Time()
		durationMS := this.info.time3.Sub(this.info.time2).Milliseconds()

		if this.level >= 5 {
			fmt.Fprintf(this.writer, "%s [%d ms]\n", evt, durationMS)
		}

		if this.level >= 4 {
			var msg string

			if this.infoType == COMPRESSION {
				msg = fmt.Sprintf("Huffman encoding: %d => %d bytes [%d ms]", this.info.stage1Size, evt.Size(), durationMS)

				if this.info.stage1Size != 0 {
					msg += fmt.Sprintf(" (%d%%)", evt.Size()*100/this.info.stage1Size)
				}
			} else {
				msg = fmt.Sprintf("Huffman decoding: %d bytes [%d ms]", evt.Size(), durationMS)
			}

			fmt.Fprintln(this.writer, msg)
		}

		if this.level >= 3 && evt.HashType() != huffman.EVT_HASH_NONE {
			fmt.Fprintf(this.writer, "Checksum (xxhash64): %016x\n", evt.Hash())
		}

	default:
		if this.level >= 5 {
			fmt.Fprintln(this.writer, evt)
		}
	}
}
