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

// Package huffman defines all the top level interfaces used in the huffman
// lossless file compressor/decompressor.
//
// The implementation of these interfaces are available in sub-folders
// like bitstream, entropy or io.
// In particular, the io package contains the implementation of the
// Writer and Reader used to compress and decompress data.
package huffman

const (
	// Exit statuses returned by the command line tool
	EXIT_SUCCESS      = 0
	EXIT_FAILURE      = 1
	EXIT_OPTION_ERROR = 2
	EXIT_IO_ERROR     = 3
	EXIT_CODEC_ERROR  = 4
)

const (
	ERR_MISSING_PARAM       = 1
	ERR_INVALID_PARAM       = 2
	ERR_OUTPUT_IS_DIR       = 3
	ERR_OVERWRITE_FILE      = 4
	ERR_CREATE_FILE         = 5
	ERR_OPEN_FILE           = 6
	ERR_READ_FILE           = 7
	ERR_WRITE_FILE          = 8
	ERR_CREATE_BITSTREAM    = 9
	ERR_CREATE_COMPRESSOR   = 10
	ERR_CREATE_DECOMPRESSOR = 11
	ERR_CORRUPT_CONTAINER   = 12
	ERR_UNSUPPORTED_FORMAT  = 13
	ERR_SYMBOL_COUNT        = 14
	ERR_UNKNOWN_SYMBOL      = 15
	ERR_UNKNOWN             = 127
)

// ExitStatus maps an error code to the exit status of the command line tool
// (0 success, 1 unspecified error, 2 option error, 3 I/O error, 4 codec error).
func ExitStatus(code int) int {
	switch code {
	case 0:
		return EXIT_SUCCESS

	case ERR_MISSING_PARAM, ERR_INVALID_PARAM:
		return EXIT_OPTION_ERROR

	case ERR_OUTPUT_IS_DIR, ERR_OVERWRITE_FILE, ERR_CREATE_FILE, ERR_OPEN_FILE,
		ERR_READ_FILE, ERR_WRITE_FILE, ERR_CREATE_BITSTREAM:
		return EXIT_IO_ERROR

	case ERR_CORRUPT_CONTAINER, ERR_UNSUPPORTED_FORMAT, ERR_SYMBOL_COUNT,
		ERR_CREATE_COMPRESSOR, ERR_CREATE_DECOMPRESSOR:
		return EXIT_CODEC_ERROR

	default:
		return EXIT_FAILURE
	}
}

// InputBitStream is a bitstream reader
type InputBitStream interface {
	// ReadBit returns the next bit in the bitstream. Panics if closed or EOS is reached.
	ReadBit() int

	// ReadBits reads 'length' (in [1..64]) bits from the bitstream.
	// Returns the bits read as an uint64.
	// Panics if closed or EOS is reached.
	ReadBits(length uint) uint64

	// ReadArray reads 'length' bits from the bitstream and put them in the byte slice.
	// Returns the number of bits read.
	// Panics if closed or EOS is reached.
	ReadArray(bits []byte, length uint) uint

	// Close makes the bitstream unavailable for further reads.
	Close() (bool, error)

	// Read returns the number of bits read
	Read() uint64

	// HasMoreToRead returns false when the bitstream is closed or the EOS has been reached
	HasMoreToRead() (bool, error)
}

// OutputBitStream is a bitstream writer
type OutputBitStream interface {
	// WriteBit writes the least significant bit of the input integer.
	// Panics if closed or an IO error is received.
	WriteBit(bit int)

	// WriteBits writes the least significant bits of 'bits' to the bitstream.
	// Length is the number of bits to write (in [1..64]).
	// Returns the number of bits written.
	// Panics if closed or an IO error is received.
	WriteBits(bits uint64, length uint) uint

	// WriteArray writes bits out of the byte slice. Length is the number of bits.
	// Returns the number of bits written.
	// Panics if closed or an IO error is received.
	WriteArray(bits []byte, length uint) uint

	// Close flushes the pending bits (the last byte is padded with 0 bits)
	// and makes the bitstream unavailable for further writes.
	Close() (bool, error)

	// Written returns the number of bits written
	Written() uint64
}

// EntropyEncoder entropy encodes data to a bitstream
type EntropyEncoder interface {
	// Write encodes the data provided into the bitstream. Return the number of bytes
	// written to the bitstream
	Write(block []byte) (int, error)

	// BitStream returns the underlying bitstream
	BitStream() OutputBitStream

	// Dispose must be called before getting rid of the entropy encoder
	// Trying to encode after a call to dispose gives undefined behavior
	Dispose()
}

// EntropyDecoder entropy decodes data from a bitstream
type EntropyDecoder interface {
	// Read decodes data from the bitstream and return it in the provided buffer.
	// Return the number of bytes read from the bitstream
	Read(block []byte) (int, error)

	// BitStream returns the underlying bitstream
	BitStream() InputBitStream

	// Dispose must be called before getting rid of the entropy decoder
	// Trying to decode after a call to dispose gives undefined behavior
	Dispose()
}
