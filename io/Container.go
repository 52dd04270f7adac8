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

package io

import (
	"fmt"
	"strings"

	huffman "github.com/flanglet/huffman-go"
	"github.com/flanglet/huffman-go/bitstream"
	"github.com/flanglet/huffman-go/entropy"
)

// Container layout (multi byte values are big endian):
// - magic: 16 bits ("HC")
// - version: 8 bits
// - symbol count: 64 bits
// - code description (absent if the symbol count is 0):
//     version 1: pre-order tree (0 = internal node, 1 = leaf + 8 bit symbol)
//     version 2: alphabet + 8 bit code length per symbol (canonical codes)
//   then the number of padding bits in the last payload byte (3 bits),
//   zero filled to the next byte boundary
// - payload: concatenated codes, last byte zero padded

const (
	CONTAINER_MAGIC          = 0x4843 // "HC"
	FORMAT_VERSION_TREE      = 1
	FORMAT_VERSION_CANONICAL = 2
	MIN_HEADER_SIZE          = 11 // bytes
	_PADDING_BITS            = 3
)

// Header the container header
type Header struct {
	Version     uint
	SymbolCount uint64
	Padding     uint // zero bits at the end of the payload
	Tree        *entropy.HuffmanTree
	Codes       *entropy.CodeTable
	PayloadBits uint64
	Size        uint64 // header size in bits
}

// NewHeader builds the header of the container of data with the given byte
// frequencies.
func NewHeader(freqs *entropy.FrequencyTable, version uint) (*Header, error) {
	if version != FORMAT_VERSION_TREE && version != FORMAT_VERSION_CANONICAL {
		errMsg := fmt.Sprintf("Invalid container version: %d", version)
		return nil, &IOError{msg: errMsg, code: huffman.ERR_CREATE_COMPRESSOR}
	}

	this := &Header{}
	this.Version = version
	this.SymbolCount = freqs.Total()
	this.Tree = entropy.NewHuffmanTree(freqs)
	this.Codes = entropy.NewCodeTable(this.Tree)

	if version == FORMAT_VERSION_CANONICAL && this.SymbolCount > 0 {
		var err error
		this.Codes = this.Codes.Canonical()

		if this.Tree, err = entropy.NewHuffmanTreeFromCodes(this.Codes); err != nil {
			return nil, &IOError{msg: "Cannot build canonical codes", code: huffman.ERR_CREATE_COMPRESSOR, cause: err}
		}
	}

	this.PayloadBits = this.Codes.EncodedBits(freqs)
	this.Padding = uint((8 - this.PayloadBits&7) & 7)
	return this, nil
}

// Write writes the header to the bitstream. The bitstream is byte aligned
// once the header has been written.
func (this *Header) Write(obs huffman.OutputBitStream) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errorFromPanic(r, huffman.ERR_WRITE_FILE, "Cannot write container header")
		}
	}()

	start := obs.Written()
	obs.WriteBits(CONTAINER_MAGIC, 16)
	obs.WriteBits(uint64(this.Version), 8)
	obs.WriteBits(this.SymbolCount, 64)

	if this.SymbolCount > 0 {
		if this.Version == FORMAT_VERSION_TREE {
			this.Tree.Serialize(obs)
		} else if _, err := entropy.EncodeCodeLengths(obs, this.Codes); err != nil {
			return &IOError{msg: "Cannot write code lengths", code: huffman.ERR_WRITE_FILE, cause: err}
		}

		obs.WriteBits(uint64(this.Padding), _PADDING_BITS)

		if fill := uint(8-obs.Written()&7) & 7; fill > 0 {
			obs.WriteBits(0, fill)
		}
	}

	this.Size = obs.Written() - start
	return nil
}

// ReadHeader reads and validates the header from the bitstream
func ReadHeader(ibs huffman.InputBitStream) (header *Header, err error) {
	defer func() {
		if r := recover(); r != nil {
			header = nil
			err = errorFromPanic(r, huffman.ERR_READ_FILE, "Cannot read container header")
		}
	}()

	start := ibs.Read()

	if magic := ibs.ReadBits(16); magic != CONTAINER_MAGIC {
		errMsg := fmt.Sprintf("Invalid container: incorrect magic number 0x%04x", magic)
		return nil, &IOError{msg: errMsg, code: huffman.ERR_CORRUPT_CONTAINER}
	}

	this := &Header{}
	this.Version = uint(ibs.ReadBits(8))

	if this.Version != FORMAT_VERSION_TREE && this.Version != FORMAT_VERSION_CANONICAL {
		errMsg := fmt.Sprintf("Unsupported container version: %d", this.Version)
		return nil, &IOError{msg: errMsg, code: huffman.ERR_UNSUPPORTED_FORMAT}
	}

	this.SymbolCount = ibs.ReadBits(64)

	if this.SymbolCount == 0 {
		this.Tree = entropy.NewHuffmanTree(&entropy.FrequencyTable{})
		this.Codes = entropy.NewCodeTable(this.Tree)
		this.Size = ibs.Read() - start
		return this, nil
	}

	if this.Version == FORMAT_VERSION_TREE {
		if this.Tree, err = entropy.ReadHuffmanTree(ibs); err != nil {
			return nil, codecError(err, huffman.ERR_READ_FILE, "Cannot read Huffman tree")
		}

		this.Codes = entropy.NewCodeTable(this.Tree)
	} else {
		if this.Codes, err = entropy.DecodeCodeLengths(ibs); err != nil {
			return nil, codecError(err, huffman.ERR_READ_FILE, "Cannot read code lengths")
		}

		if this.Tree, err = entropy.NewHuffmanTreeFromCodes(this.Codes); err != nil {
			return nil, codecError(err, huffman.ERR_READ_FILE, "Cannot rebuild Huffman tree")
		}
	}

	this.Padding = uint(ibs.ReadBits(_PADDING_BITS))

	if fill := uint(8-ibs.Read()&7) & 7; fill > 0 {
		if ibs.ReadBits(fill) != 0 {
			return nil, &IOError{msg: "Invalid container: non zero header padding", code: huffman.ERR_CORRUPT_CONTAINER}
		}
	}

	this.Size = ibs.Read() - start
	return this, nil
}

// String returns a description of the header
func (this *Header) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Container version: %d", this.Version))

	if this.Version == FORMAT_VERSION_CANONICAL {
		sb.WriteString(" (canonical codes)")
	}

	sb.WriteString(fmt.Sprintf("\nSymbol count: %d\n", this.SymbolCount))

	if this.SymbolCount > 0 {
		sb.WriteString(fmt.Sprintf("Distinct symbols: %d\n", this.Codes.Len()))
		sb.WriteString(fmt.Sprintf("Longest code: %d bits\n", this.longestCode()))
		sb.WriteString(fmt.Sprintf("Header size: %d bytes\n", (this.Size+7)>>3))
	}

	return sb.String()
}

func (this *Header) longestCode() uint {
	res := uint(0)

	for _, l := range this.Codes.Lengths() {
		if l > res {
			res = l
		}
	}

	return res
}

// Convert a panic raised by a bitstream into an IOError. A premature end of
// stream means the container is truncated.
func errorFromPanic(r any, code int, msg string) *IOError {
	if ioErr, isIOErr := r.(*IOError); isIOErr == true {
		return ioErr
	}

	if err, isErr := r.(error); isErr == true {
		if err == bitstream.ErrEndOfStream {
			return &IOError{msg: "Invalid container: unexpected end of data", code: huffman.ERR_CORRUPT_CONTAINER, cause: err}
		}

		return &IOError{msg: msg, code: code, cause: err}
	}

	return &IOError{msg: fmt.Sprintf("%s: %v", msg, r), code: code}
}
