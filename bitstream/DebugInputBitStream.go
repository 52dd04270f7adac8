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
	"io"

	huffman "github.com/flanglet/huffman-go"
)

// DebugInputBitStream is an implementation of InputBitStream used for debugging.
type DebugInputBitStream struct {
	delegate huffman.InputBitStream
	tracer   bitTracer
}

// NewDebugInputBitStream creates a DebugInputBitStream wrapped around 'ibs'.
// All calls are delegated to the 'ibs' InputBitStream and read bits are logged
// to the provided io.Writer.
func NewDebugInputBitStream(ibs huffman.InputBitStream, writer io.Writer) (*DebugInputBitStream, error) {
	if ibs == nil {
		return nil, errors.New("The delegate cannot be null")
	}

	if writer == nil {
		return nil, errors.New("The writer cannot be null")
	}

	this := &DebugInputBitStream{}
	this.delegate = ibs
	this.tracer = bitTracer{out: writer, width: 80, mark: 'r'}
	return this, nil
}

// ReadBit returns the next bit in the bitstream. Panics if closed or EOS is reached.
func (this *DebugInputBitStream) ReadBit() int {
	res := this.delegate.ReadBit()
	this.tracer.trace(uint64(res), 1)
	return res
}

// ReadBits reads 'length' (in [1..64]) bits from the bitstream.
// Returns the bits read as an uint64.
// Panics if closed or EOS is reached.
func (this *DebugInputBitStream) ReadBits(length uint) uint64 {
	res := this.delegate.ReadBits(length)
	this.tracer.trace(res, length)
	return res
}

// ReadArray reads 'length' bits from the bitstream and put them in the byte slice.
// Returns the number of bits read.
func (this *DebugInputBitStream) ReadArray(bits []byte, count uint) uint {
	count = this.delegate.ReadArray(bits, count)
	this.tracer.traceArray(bits, count)
	return count
}

// HasMoreToRead returns false when the bitstream is closed or the EOS has been reached
func (this *DebugInputBitStream) HasMoreToRead() (bool, error) {
	return this.delegate.HasMoreToRead()
}

// Close makes the bitstream unavailable for further reads.
func (this *DebugInputBitStream) Close() (bool, error) {
	return this.delegate.Close()
}

// Read returns the number of bits read
func (this *DebugInputBitStream) Read() uint64 {
	return this.delegate.Read()
}

// Mark sets the internal mark state. When true, displays 'r'
// after each bit or bit sequence read from the bitstream delegate.
func (this *DebugInputBitStream) Mark(mark bool) {
	this.tracer.showMark = mark
}

// ShowByte sets the internal show byte state. When true, displays
// the value of each completed byte after the bits.
func (this *DebugInputBitStream) ShowByte(show bool) {
	this.tracer.hexa = show
}
