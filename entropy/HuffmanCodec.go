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

package entropy

import (
	huffman "github.com/flanglet/huffman-go"
	"github.com/pkg/errors"
)

// HuffmanEncoder  Implementation of a static Huffman encoder.
// Each byte is replaced by its code, the codes are provided at creation time.
type HuffmanEncoder struct {
	bitstream huffman.OutputBitStream
	codes     [256]Code
}

// NewHuffmanEncoder creates an instance of HuffmanEncoder writing the codes
// of the table to the bitstream
func NewHuffmanEncoder(bs huffman.OutputBitStream, table *CodeTable) (*HuffmanEncoder, error) {
	if bs == nil {
		return nil, errors.New("Huffman codec: Invalid null bitstream parameter")
	}

	if table == nil {
		return nil, errors.New("Huffman codec: Invalid null code table parameter")
	}

	this := &HuffmanEncoder{}
	this.bitstream = bs
	this.codes = table.codes
	return this, nil
}

// Write encodes the data provided into the bitstream. Return the number of bytes
// encoded. Symbols absent from the code table stop the encoding with an error.
// Errors of the bitstream are raised as panics.
func (this *HuffmanEncoder) Write(block []byte) (int, error) {
	for i, b := range block {
		code := &this.codes[b]

		if code.Length == 0 {
			return i, errors.Wrapf(ErrUnknownSymbol, "no code for symbol %d", b)
		}

		if code.Length <= 64 {
			this.bitstream.WriteBits(code.Bits[0]>>(64-code.Length), code.Length)
		} else {
			code.Encode(this.bitstream)
		}
	}

	return len(block), nil
}

// Dispose this implementation does nothing
func (this *HuffmanEncoder) Dispose() {
}

// BitStream returns the underlying bitstream
func (this *HuffmanEncoder) BitStream() huffman.OutputBitStream {
	return this.bitstream
}

// HuffmanDecoder Implementation of a static Huffman decoder.
// Walks the tree one bit at a time, from the root to a leaf.
type HuffmanDecoder struct {
	bitstream huffman.InputBitStream
	nodes     []HuffmanNode
	root      int
}

// NewHuffmanDecoder creates an instance of HuffmanDecoder reading codes of
// the tree from the bitstream
func NewHuffmanDecoder(bs huffman.InputBitStream, tree *HuffmanTree) (*HuffmanDecoder, error) {
	if bs == nil {
		return nil, errors.New("Huffman codec: Invalid null bitstream parameter")
	}

	if tree == nil {
		return nil, errors.New("Huffman codec: Invalid null tree parameter")
	}

	this := &HuffmanDecoder{}
	this.bitstream = bs
	this.nodes = tree.nodes
	this.root = tree.root
	return this, nil
}

// Read decodes len(block) symbols from the bitstream into the block.
// Return the number of bytes decoded. Reaching the end of the bitstream before
// the last symbol yields an error wrapping ErrInvalidCodes.
func (this *HuffmanDecoder) Read(block []byte) (n int, err error) {
	if len(block) == 0 {
		return 0, nil
	}

	if this.root < 0 {
		return 0, errors.New("Huffman codec: Cannot decode symbols with an empty tree")
	}

	defer func() {
		if r := recover(); r != nil {
			err = recoveredError(r)
		}
	}()

	nodes := this.nodes
	root := &nodes[this.root]

	if root.IsLeaf() == true {
		// Single symbol: one 0 bit per symbol
		for n = 0; n < len(block); n++ {
			if this.bitstream.ReadBit() != 0 {
				return n, errors.Wrap(ErrInvalidCodes, "invalid code for single symbol tree")
			}

			block[n] = root.Symbol
		}

		return n, nil
	}

	for n = 0; n < len(block); n++ {
		node := root

		for node.IsLeaf() == false {
			if this.bitstream.ReadBit() == 0 {
				node = &nodes[node.Left]
			} else {
				node = &nodes[node.Right]
			}
		}

		block[n] = node.Symbol
	}

	return n, nil
}

// BitStream returns the underlying bitstream
func (this *HuffmanDecoder) BitStream() huffman.InputBitStream {
	return this.bitstream
}

// Dispose this implementation does nothing
func (this *HuffmanDecoder) Dispose() {
}
