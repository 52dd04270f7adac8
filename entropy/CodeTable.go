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
	"math/bits"
	"sort"
	"strings"

	huffman "github.com/flanglet/huffman-go"
	"github.com/pkg/errors"
)

const (
	// MAX_CODE_LENGTH is the longest code a tree over 256 symbols can produce
	MAX_CODE_LENGTH = 255
)

// Code a Huffman code. The bits are left aligned: bit 0 of the code is the
// most significant bit of Bits[0].
type Code struct {
	Bits   [4]uint64
	Length uint
}

// Bit returns the bit at index i (0 is the first bit written)
func (this Code) Bit(i uint) int {
	return int(this.Bits[i>>6]>>(63-(i&63))) & 1
}

// HasPrefix returns true if 'other' is a prefix of this code
func (this Code) HasPrefix(other Code) bool {
	if other.Length > this.Length {
		return false
	}

	n := other.Length

	for w := 0; n > 0; w++ {
		k := n

		if k > 64 {
			k = 64
		}

		shift := 64 - k

		if this.Bits[w]>>shift != other.Bits[w]>>shift {
			return false
		}

		n -= k
	}

	return true
}

// Encode writes the code to the bitstream and returns the number of bits written
func (this Code) Encode(obs huffman.OutputBitStream) uint {
	if this.Length <= 64 {
		return obs.WriteBits(this.Bits[0]>>(64-this.Length), this.Length)
	}

	remaining := this.Length

	for w := 0; remaining > 0; w++ {
		n := remaining

		if n > 64 {
			n = 64
		}

		obs.WriteBits(this.Bits[w]>>(64-n), n)
		remaining -= n
	}

	return this.Length
}

// String returns the code as a string of '0' and '1'
func (this Code) String() string {
	var sb strings.Builder

	for i := uint(0); i < this.Length; i++ {
		sb.WriteByte(byte('0' + this.Bit(i)))
	}

	return sb.String()
}

// Append a bit to the code
func (this Code) append(bit int) Code {
	if bit != 0 {
		this.Bits[this.Length>>6] |= uint64(1) << (63 - (this.Length & 63))
	}

	this.Length++
	return this
}

// CodeTable maps each symbol to its Huffman code
type CodeTable struct {
	codes [256]Code
	count int
}

// NewCodeTable derives the codes from the leaf paths of the tree: 0 for
// a left edge and 1 for a right edge. A tree with a single leaf gets the
// code '0'.
func NewCodeTable(tree *HuffmanTree) *CodeTable {
	this := &CodeTable{}

	if tree.Root() < 0 {
		return this
	}

	root := tree.Node(tree.Root())

	if root.IsLeaf() == true {
		this.codes[root.Symbol] = Code{Length: 1}
		this.count = 1
		return this
	}

	type pending struct {
		node int
		code Code
	}

	stack := make([]pending, 0, 2*MAX_CODE_LENGTH)
	stack = append(stack, pending{node: tree.Root()})

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[0 : len(stack)-1]
		node := tree.Node(p.node)

		if node.IsLeaf() == true {
			this.codes[node.Symbol] = p.code
			this.count++
			continue
		}

		stack = append(stack, pending{node: node.Right, code: p.code.append(1)})
		stack = append(stack, pending{node: node.Left, code: p.code.append(0)})
	}

	return this
}

// NewCanonicalCodeTable builds the canonical codes matching the code lengths
// (0 for absent symbols). Codes are assigned in increasing order of length
// then symbol. Fails if the lengths cannot describe a complete prefix code.
func NewCanonicalCodeTable(lengths [256]uint) (*CodeTable, error) {
	this := &CodeTable{}
	symbols := make([]int, 0, 256)

	for s, length := range lengths {
		if length == 0 {
			continue
		}

		if length > MAX_CODE_LENGTH {
			return nil, errors.Wrapf(ErrInvalidCodes, "code length %d for symbol %d exceeds %d", length, s, MAX_CODE_LENGTH)
		}

		symbols = append(symbols, s)
	}

	this.count = len(symbols)

	if this.count == 0 {
		return this, nil
	}

	if this.count == 1 {
		if lengths[symbols[0]] != 1 {
			return nil, errors.Wrapf(ErrInvalidCodes, "invalid code length %d for single symbol", lengths[symbols[0]])
		}

		this.codes[symbols[0]] = Code{Length: 1}
		return this, nil
	}

	sort.SliceStable(symbols, func(i, j int) bool {
		return lengths[symbols[i]] < lengths[symbols[j]]
	})

	var next [4]uint64

	for i, s := range symbols {
		length := lengths[s]
		this.codes[s] = Code{Bits: next, Length: length}

		// Add one unit at the last bit of the current code
		pos := length - 1
		w := int(pos >> 6)
		var carry uint64
		next[w], carry = bits.Add64(next[w], uint64(1)<<(63-(pos&63)), 0)

		for w--; w >= 0 && carry != 0; w-- {
			next[w], carry = bits.Add64(next[w], 0, carry)
		}

		if carry != 0 && i != len(symbols)-1 {
			return nil, errors.Wrap(ErrInvalidCodes, "oversubscribed code lengths")
		}

		if carry == 0 && i == len(symbols)-1 {
			return nil, errors.Wrap(ErrInvalidCodes, "incomplete code lengths")
		}
	}

	return this, nil
}

// Lookup returns the code of the symbol
func (this *CodeTable) Lookup(symbol byte) (Code, error) {
	if this.codes[symbol].Length == 0 {
		return Code{}, errors.Wrapf(ErrUnknownSymbol, "no code for symbol %d", symbol)
	}

	return this.codes[symbol], nil
}

// Len returns the number of symbols in the table
func (this *CodeTable) Len() int {
	return this.count
}

// Alphabet returns the symbols of the table in increasing order
func (this *CodeTable) Alphabet() []int {
	res := make([]int, 0, this.count)

	for s := range this.codes {
		if this.codes[s].Length != 0 {
			res = append(res, s)
		}
	}

	return res
}

// Lengths returns the code length of each symbol (0 if absent)
func (this *CodeTable) Lengths() [256]uint {
	var res [256]uint

	for s := range this.codes {
		res[s] = this.codes[s].Length
	}

	return res
}

// Canonical returns the table of canonical codes with the same lengths
func (this *CodeTable) Canonical() *CodeTable {
	res, err := NewCanonicalCodeTable(this.Lengths())

	if err != nil {
		// Lengths derived from a tree always describe a complete code
		panic(err)
	}

	return res
}

// EncodedBits returns the size in bits of the payload encoding symbols
// with the given frequencies
func (this *CodeTable) EncodedBits(freqs *FrequencyTable) uint64 {
	total := uint64(0)

	for s, f := range freqs {
		total += f * uint64(this.codes[s].Length)
	}

	return total
}

// IsPrefixFree returns true if no code is the prefix of another code
func (this *CodeTable) IsPrefixFree() bool {
	alphabet := this.Alphabet()

	for i, si := range alphabet {
		for j, sj := range alphabet {
			if i != j && this.codes[si].HasPrefix(this.codes[sj]) == true {
				return false
			}
		}
	}

	return true
}
