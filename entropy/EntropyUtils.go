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
	"fmt"

	huffman "github.com/flanglet/huffman-go"
	"github.com/flanglet/huffman-go/bitstream"
	"github.com/pkg/errors"
)

const (
	_FULL_ALPHABET    = 0 // Flag for full alphabet encoding
	_PARTIAL_ALPHABET = 1 // Flag for partial alphabet encoding
	_ALPHABET_256     = 0 // Flag for alphabet with 256 symbols
	_ALPHABET_0       = 1 // Flag for alphabet not with no symbol
)

var (
	// ErrInvalidCodes is returned when a serialized tree or a code length
	// description cannot describe a valid prefix code
	ErrInvalidCodes = errors.New("Invalid Huffman code description")

	// ErrUnknownSymbol is returned when a symbol has no code in the table
	ErrUnknownSymbol = errors.New("Unknown symbol")
)

// EncodeAlphabet writes the alphabet to the bitstream and return the number
// of symbols written or an error.
// alphabet must be composed of values in [0..255] sorted in increasing order
func EncodeAlphabet(obs huffman.OutputBitStream, alphabet []int) (int, error) {
	count := len(alphabet)

	if count > 256 {
		return 0, fmt.Errorf("The max alphabet length is 256, got %v", count)
	}

	for i := range alphabet {
		if alphabet[i] < 0 || alphabet[i] > 255 || (i > 0 && alphabet[i] <= alphabet[i-1]) {
			return 0, fmt.Errorf("Invalid alphabet: symbols must be increasing values in [0..255]")
		}
	}

	if count == 0 {
		obs.WriteBit(_FULL_ALPHABET)
		obs.WriteBit(_ALPHABET_0)
	} else if count == 256 {
		obs.WriteBit(_FULL_ALPHABET)
		obs.WriteBit(_ALPHABET_256)
	} else {
		// Partial alphabet
		obs.WriteBit(_PARTIAL_ALPHABET)
		masks := [32]byte{}

		for i := 0; i < count; i++ {
			masks[alphabet[i]>>3] |= (1 << uint8(alphabet[i]&7))
		}

		// Encode presence flags
		lastMask := alphabet[count-1] >> 3
		obs.WriteBits(uint64(lastMask), 5)
		obs.WriteArray(masks[:], 8*uint(lastMask+1))
	}

	return count, nil
}

// DecodeAlphabet reads the alphabet from the bitstream and return the number of symbols
// read or an error. The alphabet slice must hold at least 256 values.
func DecodeAlphabet(ibs huffman.InputBitStream, alphabet []int) (int, error) {
	if len(alphabet) < 256 {
		return 0, fmt.Errorf("Invalid alphabet size: %v (must be at least 256)", len(alphabet))
	}

	// Read encoding mode from bitstream
	if ibs.ReadBit() == _FULL_ALPHABET {
		if ibs.ReadBit() == _ALPHABET_0 {
			return 0, nil
		}

		// Full alphabet
		for i := 0; i < 256; i++ {
			alphabet[i] = i
		}

		return 256, nil
	}

	// Partial alphabet
	lastMask := int(ibs.ReadBits(5))
	masks := [32]byte{}
	count := 0
	ibs.ReadArray(masks[:], 8*uint(lastMask+1))

	// Decode presence flags
	for i := 0; i <= lastMask; i++ {
		n := i * 8

		for j := 0; j < 8; j++ {
			bit := int(masks[i]>>uint(j)) & 1
			alphabet[count] = n + j
			count += bit
		}
	}

	return count, nil
}

// EncodeCodeLengths writes the alphabet of the table followed by the length
// of each code (8 bits per symbol). Returns the number of symbols written.
func EncodeCodeLengths(obs huffman.OutputBitStream, table *CodeTable) (int, error) {
	alphabet := table.Alphabet()

	if _, err := EncodeAlphabet(obs, alphabet); err != nil {
		return 0, err
	}

	for _, s := range alphabet {
		obs.WriteBits(uint64(table.codes[s].Length), 8)
	}

	return len(alphabet), nil
}

// DecodeCodeLengths reads an alphabet and the code lengths written by
// EncodeCodeLengths and rebuilds the canonical code table.
func DecodeCodeLengths(ibs huffman.InputBitStream) (table *CodeTable, err error) {
	defer func() {
		if r := recover(); r != nil {
			table = nil
			err = recoveredError(r)
		}
	}()

	var alphabet [256]int
	count, err := DecodeAlphabet(ibs, alphabet[:])

	if err != nil {
		return nil, err
	}

	if count == 0 {
		return nil, errors.Wrap(ErrInvalidCodes, "empty alphabet")
	}

	var lengths [256]uint

	for i := 0; i < count; i++ {
		length := uint(ibs.ReadBits(8))

		if length == 0 {
			return nil, errors.Wrapf(ErrInvalidCodes, "null code length for symbol %d", alphabet[i])
		}

		lengths[alphabet[i]] = length
	}

	return NewCanonicalCodeTable(lengths)
}

// Turn a panic raised by a bitstream into an error
func recoveredError(r any) error {
	if err, isErr := r.(error); isErr == true {
		if err == bitstream.ErrEndOfStream {
			return errors.Wrap(ErrInvalidCodes, "premature end of bitstream")
		}

		return err
	}

	return fmt.Errorf("%v", r)
}
