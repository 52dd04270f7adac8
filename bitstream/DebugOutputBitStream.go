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

package bitstream

import (
	"errors"
	"fmt"
	"io"

	huffman "github.com/flanglet/huffman-go"
)

// bitTracer prints bits as they go through a debug bitstream, one line
// per 'width' bits, with an optional decimal value for each completed byte.
type bitTracer struct {
	out       io.Writer
	mark      byte
	showMark  bool
	hexa      bool
	current   byte
	width     int
	lineIndex int
}

func (this *bitTracer) trace(value uint64, length uint) {
	for i := uint(1); i <= length; i++ {
		bit := byte(value>>(length-i)) & 1
		this.current = (this.current << 1) | bit
		this.lineIndex++
		fmt.Fprintf(this.out, "%d", bit)

		if this.showMark == true && i == length {
			fmt.Fprintf(this.out, "%c", this.mark)
		}

		if this.width > 7 && this.lineIndex%this.width == 0 {
			if this.hexa == true {
				this.printByte(this.current)
			}

			fmt.Fprintf(this.out, "\n")
			this.lineIndex = 0
		} else if this.lineIndex&7 == 0 {
			if this.hexa == true {
				this.printByte(this.current)
			} else {
				fmt.Fprintf(this.out, " ")
			}
		}
	}
}

func (this *bitTracer) traceArray(bits []byte, count uint) {
	for i := uint(0); i < count>>3; i++ {
		this.trace(uint64(bits[i]), 8)
	}

	if r := count & 7; r != 0 {
		this.trace(uint64(bits[count>>3]>>(8-r)), r)
	}
}

func (this *bitTracer) printByte(val byte) {
	fmt.Fprintf(this.out, " [%03d] ", val)
}

// DebugOutputBitStream is an implementation of OutputBitStream used for debugging.
type DebugOutputBitStream struct {
	delegate huffman.OutputBitStream
	tracer   bitTracer
}

// NewDebugOutputBitStream creates a DebugOutputBitStream wrapped around 'obs'.
// All calls are delegated to the 'obs' OutputBitStream and written bits are logged
// to the provided io.Writer.
func NewDebugOutputBitStream(obs huffman.OutputBitStream, writer io.Writer) (*DebugOutputBitStream, error) {
	if obs == nil {
		return nil, errors.New("The delegate cannot be null")
	}

	if writer == nil {
		return nil, errors.New("The writer cannot be null")
	}

	this := &DebugOutputBitStream{}
	this.delegate = obs
	this.tracer = bitTracer{out: writer, width: 80, mark: 'w'}
	return this, nil
}

// WriteBit writes the least significant bit of the input integer
// Panics if closed or an IO error is received.
func (this *DebugOutputBitStream) WriteBit(bit int) {
	this.delegate.WriteBit(bit)
	this.tracer.trace(uint64(bit&1), 1)
}

// WriteBits writes the least significant bits of 'bits' to the bitstream.
// Length is the number of bits to write (in [1..64]).
// Returns the number of bits written.
func (this *DebugOutputBitStream) WriteBits(bits uint64, length uint) uint {
	res := this.delegate.WriteBits(bits, length)
	this.tracer.trace(bits, length)
	return res
}

// WriteArray writes bits out of the byte slice. Length is the number of bits.
// Returns the number of bits written.
func (this *DebugOutputBitStream) WriteArray(bits []byte, count uint) uint {
	res := this.delegate.WriteArray(bits, count)
	this.tracer.traceArray(bits, count)
	return res
}

// Close makes the bitstream unavailable for further writes.
func (this *DebugOutputBitStream) Close() (bool, error) {
	return this.delegate.Close()
}

// Written returns the number of bits written
func (this *DebugOutputBitStream) Written() uint64 {
	return this.delegate.Written()
}

// Mark sets the internal mark state. When true, displays 'w'
// after each bit or bit sequence written to the bitstream delegate.
func (this *DebugOutputBitStream) Mark(mark bool) {
	this.tracer.showMark = mark
}

// ShowByte sets the internal show byte state. When true, displays
// the value of each completed byte after the bits.
func (this *DebugOutputBitStream) ShowByte(show bool) {
	this.tracer.hexa = show
}
