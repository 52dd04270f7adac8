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

// Package io provides the implementations of a Writer and a Reader
// used to respectively losslessly compress and decompress data.
package io

import (
	"fmt"
	"io"
	"time"

	huffman "github.com/flanglet/huffman-go"
	"github.com/flanglet/huffman-go/bitstream"
	"github.com/flanglet/huffman-go/entropy"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

// Write to/read from bitstream using a 2 step process:
// Encoding:
// - step 1: the byte frequencies of the whole input are computed
// - step 2: the container header is written, then each byte is replaced by its Huffman code
// Decoding reads the header, rebuilds the tree and walks it for each symbol.

const (
	_STREAM_DEFAULT_BUFFER_SIZE = 256 * 1024
	_MIN_STREAM_BUFFER_SIZE     = 1024
	_MAX_STREAM_BUFFER_SIZE     = 1 << 29
	_COPY_BUFFER_SIZE           = 64 * 1024
)

// IOError an extended error containing a message, a code value and
// optionally the error that caused it
type IOError struct {
	msg   string
	code  int
	cause error
}

// NewIOError creates an IOError with a message and a code
func NewIOError(msg string, code int) *IOError {
	return &IOError{msg: msg, code: code}
}

// WrapIOError creates an IOError with a message and a code around an error
func WrapIOError(err error, msg string, code int) *IOError {
	return &IOError{msg: msg, code: code, cause: err}
}

// Error returns the underlying error
func (this IOError) Error() string {
	if this.cause != nil {
		return fmt.Sprintf("%v: %v (code %v)", this.msg, this.cause, this.code)
	}

	return fmt.Sprintf("%v (code %v)", this.msg, this.code)
}

// Message returns the message string associated with the error
func (this IOError) Message() string {
	return this.msg
}

// ErrorCode returns the code value associated with the error
func (this IOError) ErrorCode() int {
	return this.code
}

// Unwrap returns the error that caused this error (may be nil)
func (this IOError) Unwrap() error {
	return this.cause
}

// Cause returns the error that caused this error (may be nil)
func (this IOError) Cause() error {
	return this.cause
}

// ErrorCode returns the code of the IOError found in the chain of the error,
// ERR_UNKNOWN if there is none and 0 for a nil error.
func ErrorCode(err error) int {
	if err == nil {
		return 0
	}

	var ioErr *IOError

	if errors.As(err, &ioErr) == true {
		return ioErr.ErrorCode()
	}

	return huffman.ERR_UNKNOWN
}

// Map an error returned by the entropy codec to an IOError
func codecError(err error, code int, msg string) *IOError {
	var ioErr *IOError

	if errors.As(err, &ioErr) == true {
		return ioErr
	}

	if errors.Is(err, entropy.ErrInvalidCodes) == true {
		return &IOError{msg: "Invalid container", code: huffman.ERR_CORRUPT_CONTAINER, cause: err}
	}

	if errors.Is(err, entropy.ErrUnknownSymbol) == true {
		return &IOError{msg: msg, code: huffman.ERR_UNKNOWN_SYMBOL, cause: err}
	}

	return &IOError{msg: msg, code: code, cause: err}
}

func getBufferSize(ctx map[string]any) (uint, error) {
	bufferSize := uint(_STREAM_DEFAULT_BUFFER_SIZE)

	if val, hasKey := ctx["bufferSize"]; hasKey {
		bufferSize = val.(uint)
	}

	if bufferSize < _MIN_STREAM_BUFFER_SIZE || bufferSize > _MAX_STREAM_BUFFER_SIZE || bufferSize&7 != 0 {
		errMsg := fmt.Sprintf("Invalid buffer size: %d (must be a multiple of 8 in [%d..%d])", bufferSize,
			_MIN_STREAM_BUFFER_SIZE, _MAX_STREAM_BUFFER_SIZE)
		return 0, &IOError{msg: errMsg, code: huffman.ERR_INVALID_PARAM}
	}

	return bufferSize, nil
}

// Writer a Writer that compresses data to an underlying stream.
// The frequencies of the data must be known before the first write. Closing
// the Writer does not close the underlying stream.
type Writer struct {
	obs          huffman.OutputBitStream
	encoder      huffman.EntropyEncoder
	header       *Header
	written      uint64
	payloadStart uint64
	initialized  bool
	closed       bool
	failure      error // header error, returned by all later calls
	hasher       *xxhash.Digest
	listeners    []huffman.Listener
	ctx          map[string]any
}

// NewWriter creates a new instance of Writer for data with the given byte
// frequencies. If canonical is true, the container describes the codes
// with their lengths only.
func NewWriter(os io.Writer, freqs *entropy.FrequencyTable, canonical bool) (*Writer, error) {
	ctx := make(map[string]any)
	ctx["canonical"] = canonical
	return NewWriterWithCtx(os, freqs, ctx)
}

// NewWriterWithCtx creates a new instance of Writer using a map of parameters.
// Recognized keys: "canonical" (bool), "bufferSize" (uint), "checksum" (bool).
// Once closed, the context holds the xxhash64 of the data under "hash" if
// the checksum is enabled.
func NewWriterWithCtx(os io.Writer, freqs *entropy.FrequencyTable, ctx map[string]any) (*Writer, error) {
	if os == nil {
		return nil, &IOError{msg: "Invalid null output stream parameter", code: huffman.ERR_CREATE_COMPRESSOR}
	}

	if freqs == nil {
		return nil, &IOError{msg: "Invalid null frequencies parameter", code: huffman.ERR_CREATE_COMPRESSOR}
	}

	if ctx == nil {
		return nil, &IOError{msg: "Invalid null context parameter", code: huffman.ERR_CREATE_COMPRESSOR}
	}

	bufferSize, err := getBufferSize(ctx)

	if err != nil {
		return nil, err
	}

	version := uint(FORMAT_VERSION_TREE)

	if val, hasKey := ctx["canonical"]; hasKey && val.(bool) == true {
		version = FORMAT_VERSION_CANONICAL
	}

	this := &Writer{}
	this.ctx = ctx
	this.listeners = make([]huffman.Listener, 0)

	if this.header, err = NewHeader(freqs, version); err != nil {
		return nil, err
	}

	if this.obs, err = bitstream.NewDefaultOutputBitStream(os, bufferSize); err != nil {
		return nil, &IOError{msg: "Cannot create output bitstream", code: huffman.ERR_CREATE_BITSTREAM, cause: err}
	}

	if this.encoder, err = entropy.NewHuffmanEncoder(this.obs, this.header.Codes); err != nil {
		return nil, &IOError{msg: "Cannot create Huffman encoder", code: huffman.ERR_CREATE_COMPRESSOR, cause: err}
	}

	if val, hasKey := ctx["checksum"]; hasKey && val.(bool) == true {
		this.hasher = xxhash.New()
	}

	ctx["version"] = version
	ctx["symbolCount"] = this.header.SymbolCount
	return this, nil
}

// AddListener adds an event listener to this writer.
// Returns true if the listener has been added.
func (this *Writer) AddListener(bl huffman.Listener) bool {
	if bl == nil {
		return false
	}

	this.listeners = append(this.listeners, bl)
	return true
}

// RemoveListener removes an event listener from this writer.
// Returns true if the listener has been removed.
func (this *Writer) RemoveListener(bl huffman.Listener) bool {
	if bl == nil {
		return false
	}

	for i, e := range this.listeners {
		if e == bl {
			this.listeners = append(this.listeners[0:i], this.listeners[i+1:]...)
			return true
		}
	}

	return false
}

func (this *Writer) writeHeader() error {
	if err := this.header.Write(this.obs); err != nil {
		return err
	}

	this.payloadStart = this.obs.Written()

	if len(this.listeners) > 0 {
		evt := huffman.NewEventFromString(huffman.EVT_AFTER_HEADER_ENCODING, this.header.String(), time.Now())
		huffman.NotifyListeners(this.listeners, evt)
		evt = huffman.NewEvent(huffman.EVT_BEFORE_ENTROPY, int64(this.header.SymbolCount), 0, huffman.EVT_HASH_NONE, time.Time{})
		huffman.NotifyListeners(this.listeners, evt)
	}

	return nil
}

// Write writes len(block) bytes from block to the underlying data stream.
// Returns the number of bytes written from block (0 <= n <= len(block)) and
// any error encountered that caused the write to stop early.
// Writing more bytes than accounted for by the frequencies is an error.
func (this *Writer) Write(block []byte) (n int, err error) {
	if this.closed == true {
		return 0, &IOError{msg: "Stream closed", code: huffman.ERR_WRITE_FILE}
	}

	if this.failure != nil {
		return 0, this.failure
	}

	if this.initialized == false {
		if this.failure = this.writeHeader(); this.failure != nil {
			return 0, this.failure
		}

		this.initialized = true
	}

	if this.written+uint64(len(block)) > this.header.SymbolCount {
		errMsg := fmt.Sprintf("Too many bytes written: %d (expected %d)", this.written+uint64(len(block)), this.header.SymbolCount)
		return 0, &IOError{msg: errMsg, code: huffman.ERR_SYMBOL_COUNT}
	}

	defer func() {
		if r := recover(); r != nil {
			err = errorFromPanic(r, huffman.ERR_WRITE_FILE, "Cannot write compressed data")
		}
	}()

	n, err = this.encoder.Write(block)
	this.written += uint64(n)

	if this.hasher != nil {
		this.hasher.Write(block[0:n])
	}

	if err != nil {
		return n, codecError(err, huffman.ERR_WRITE_FILE, "Cannot encode data")
	}

	return n, nil
}

// Close checks that all the bytes have been written, flushes the pending
// bits and makes the Writer unavailable for further writes. Idempotent.
// The underlying stream is not closed.
func (this *Writer) Close() error {
	if this.closed == true {
		return nil
	}

	this.closed = true

	if this.failure != nil {
		return this.failure
	}

	if this.initialized == false {
		if this.failure = this.writeHeader(); this.failure != nil {
			return this.failure
		}

		this.initialized = true
	}

	if this.written != this.header.SymbolCount {
		errMsg := fmt.Sprintf("Incorrect number of bytes written: %d (expected %d)", this.written, this.header.SymbolCount)
		return &IOError{msg: errMsg, code: huffman.ERR_SYMBOL_COUNT}
	}

	if bits := this.obs.Written() - this.payloadStart; bits != this.header.PayloadBits {
		errMsg := fmt.Sprintf("The data written does not match the byte frequencies (%d bits encoded, expected %d)",
			bits, this.header.PayloadBits)
		return &IOError{msg: errMsg, code: huffman.ERR_SYMBOL_COUNT}
	}

	this.encoder.Dispose()

	if _, err := this.obs.Close(); err != nil {
		return &IOError{msg: "Cannot flush compressed data", code: huffman.ERR_WRITE_FILE, cause: err}
	}

	if this.hasher != nil {
		this.ctx["hash"] = this.hasher.Sum64()
	}

	if len(this.listeners) > 0 {
		hash, hashType := uint64(0), huffman.EVT_HASH_NONE

		if this.hasher != nil {
			hash, hashType = this.hasher.Sum64(), huffman.EVT_HASH_64BITS
		}

		evt := huffman.NewEvent(huffman.EVT_AFTER_ENTROPY, int64(this.GetWritten()), hash, hashType, time.Time{})
		huffman.NotifyListeners(this.listeners, evt)
	}

	return nil
}

// GetWritten returns the number of bytes written so far
func (this *Writer) GetWritten() uint64 {
	return (this.obs.Written() + 7) >> 3
}

// Header returns the container header
func (this *Writer) Header() *Header {
	return this.header
}

// Checksum returns the xxhash64 of the bytes written if the checksum is
// enabled and a boolean indicating whether it is
func (this *Writer) Checksum() (uint64, bool) {
	if this.hasher == nil {
		return 0, false
	}

	return this.hasher.Sum64(), true
}

// Reader a Reader that decompresses data from an underlying stream.
// Closing the Reader does not close the underlying stream.
type Reader struct {
	ibs         huffman.InputBitStream
	decoder     huffman.EntropyDecoder
	header      *Header
	remaining   uint64
	initialized bool
	verified    bool
	closed      bool
	failure     error // header or end of container error, returned by all later reads
	hasher      *xxhash.Digest
	listeners   []huffman.Listener
	ctx         map[string]any
}

// NewReader creates a new instance of Reader
func NewReader(is io.Reader) (*Reader, error) {
	ctx := make(map[string]any)
	return NewReaderWithCtx(is, ctx)
}

// NewReaderWithCtx creates a new instance of Reader using a map of parameters.
// Recognized keys: "bufferSize" (uint), "checksum" (bool). After the header
// has been read, the context holds the "version" and "symbolCount" values.
// Once all symbols are decoded, it holds the xxhash64 of the data under
// "hash" if the checksum is enabled.
func NewReaderWithCtx(is io.Reader, ctx map[string]any) (*Reader, error) {
	if is == nil {
		return nil, &IOError{msg: "Invalid null input stream parameter", code: huffman.ERR_CREATE_DECOMPRESSOR}
	}

	if ctx == nil {
		return nil, &IOError{msg: "Invalid null context parameter", code: huffman.ERR_CREATE_DECOMPRESSOR}
	}

	bufferSize, err := getBufferSize(ctx)

	if err != nil {
		return nil, err
	}

	this := &Reader{}
	this.ctx = ctx
	this.listeners = make([]huffman.Listener, 0)

	if this.ibs, err = bitstream.NewDefaultInputBitStream(is, bufferSize); err != nil {
		return nil, &IOError{msg: "Cannot create input bitstream", code: huffman.ERR_CREATE_BITSTREAM, cause: err}
	}

	if val, hasKey := ctx["checksum"]; hasKey && val.(bool) == true {
		this.hasher = xxhash.New()
	}

	return this, nil
}

// AddListener adds an event listener to this reader.
// Returns true if the listener has been added.
func (this *Reader) AddListener(bl huffman.Listener) bool {
	if bl == nil {
		return false
	}

	this.listeners = append(this.listeners, bl)
	return true
}

// RemoveListener removes an event listener from this reader.
// Returns true if the listener has been removed.
func (this *Reader) RemoveListener(bl huffman.Listener) bool {
	if bl == nil {
		return false
	}

	for i, e := range this.listeners {
		if e == bl {
			this.listeners = append(this.listeners[0:i], this.listeners[i+1:]...)
			return true
		}
	}

	return false
}

func (this *Reader) readHeader() error {
	header, err := ReadHeader(this.ibs)

	if err != nil {
		return err
	}

	this.header = header
	this.remaining = header.SymbolCount
	this.ctx["version"] = header.Version
	this.ctx["symbolCount"] = header.SymbolCount

	if this.decoder, err = entropy.NewHuffmanDecoder(this.ibs, header.Tree); err != nil {
		return &IOError{msg: "Cannot create Huffman decoder", code: huffman.ERR_CREATE_DECOMPRESSOR, cause: err}
	}

	if len(this.listeners) > 0 {
		evt := huffman.NewEventFromString(huffman.EVT_AFTER_HEADER_DECODING, header.String(), time.Now())
		huffman.NotifyListeners(this.listeners, evt)
		evt = huffman.NewEvent(huffman.EVT_BEFORE_ENTROPY, int64(header.SymbolCount), 0, huffman.EVT_HASH_NONE, time.Time{})
		huffman.NotifyListeners(this.listeners, evt)
	}

	return nil
}

// Check the end of the payload: the bits left in the last byte must match
// the padding recorded in the header and be zero, no byte can follow.
func (this *Reader) verifyEnd() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errorFromPanic(r, huffman.ERR_READ_FILE, "Cannot read compressed data")
		}
	}()

	if this.header.SymbolCount > 0 {
		tail := uint(8-this.ibs.Read()&7) & 7

		if tail != this.header.Padding {
			errMsg := fmt.Sprintf("Invalid container: %d padding bits found, expected %d", tail, this.header.Padding)
			return &IOError{msg: errMsg, code: huffman.ERR_CORRUPT_CONTAINER}
		}

		if tail > 0 && this.ibs.ReadBits(tail) != 0 {
			return &IOError{msg: "Invalid container: non zero padding bits", code: huffman.ERR_CORRUPT_CONTAINER}
		}
	}

	more, err := this.ibs.HasMoreToRead()

	if err != nil {
		return &IOError{msg: "Cannot read compressed data", code: huffman.ERR_READ_FILE, cause: err}
	}

	if more == true {
		errMsg := "Invalid container: symbol count inconsistent with payload length (trailing data)"
		return &IOError{msg: errMsg, code: huffman.ERR_CORRUPT_CONTAINER}
	}

	if this.hasher != nil {
		this.ctx["hash"] = this.hasher.Sum64()
	}

	if len(this.listeners) > 0 {
		hash, hashType := uint64(0), huffman.EVT_HASH_NONE

		if this.hasher != nil {
			hash, hashType = this.hasher.Sum64(), huffman.EVT_HASH_64BITS
		}

		evt := huffman.NewEvent(huffman.EVT_AFTER_ENTROPY, int64(this.header.SymbolCount), hash, hashType, time.Time{})
		huffman.NotifyListeners(this.listeners, evt)
	}

	return nil
}

// Read reads up to len(block) bytes and copies them into block.
// Returns the number of bytes read (0 <= n <= len(block)) and any error encountered.
// io.EOF is returned once all the symbols of the container have been decoded
// and the end of the container has been validated.
func (this *Reader) Read(block []byte) (int, error) {
	if this.closed == true {
		return 0, &IOError{msg: "Stream closed", code: huffman.ERR_READ_FILE}
	}

	if this.failure != nil {
		return 0, this.failure
	}

	if this.initialized == false {
		if this.failure = this.readHeader(); this.failure != nil {
			return 0, this.failure
		}

		this.initialized = true
	}

	if this.remaining == 0 {
		if this.verified == false {
			if this.failure = this.verifyEnd(); this.failure != nil {
				return 0, this.failure
			}

			this.verified = true
		}

		return 0, io.EOF
	}

	n := len(block)

	if uint64(n) > this.remaining {
		n = int(this.remaining)
	}

	n, err := this.decoder.Read(block[0:n])
	this.remaining -= uint64(n)

	if this.hasher != nil {
		this.hasher.Write(block[0:n])
	}

	if err != nil {
		return n, codecError(err, huffman.ERR_READ_FILE, "Cannot decode data")
	}

	return n, nil
}

// Close makes the Reader unavailable for further reads. Idempotent.
// The underlying stream is not closed.
func (this *Reader) Close() error {
	if this.closed == true {
		return nil
	}

	this.closed = true

	if this.decoder != nil {
		this.decoder.Dispose()
	}

	if _, err := this.ibs.Close(); err != nil {
		return &IOError{msg: "Cannot close input bitstream", code: huffman.ERR_READ_FILE, cause: err}
	}

	return nil
}

// GetRead returns the number of bytes read so far
func (this *Reader) GetRead() uint64 {
	return (this.ibs.Read() + 7) >> 3
}

// Header returns the container header (nil before the first read)
func (this *Reader) Header() *Header {
	return this.header
}

// Checksum returns the xxhash64 of the bytes decoded if the checksum is
// enabled and a boolean indicating whether it is
func (this *Reader) Checksum() (uint64, bool) {
	if this.hasher == nil {
		return 0, false
	}

	return this.hasher.Sum64(), true
}

// Compress compresses the input into the output: a first pass computes the
// byte frequencies, then the input is rewound and encoded.
// Returns the number of bytes written to the output.
func Compress(input io.ReadSeeker, output io.Writer, ctx map[string]any, listeners ...huffman.Listener) (int64, error) {
	if ctx == nil {
		ctx = make(map[string]any)
	}

	if len(listeners) > 0 {
		evt := huffman.NewEvent(huffman.EVT_BEFORE_ANALYSIS, 0, 0, huffman.EVT_HASH_NONE, time.Time{})
		huffman.NotifyListeners(listeners, evt)
	}

	freqs, size, err := entropy.CountFrequencies(input)

	if err != nil {
		return 0, &IOError{msg: "Cannot read input", code: huffman.ERR_READ_FILE, cause: err}
	}

	if len(listeners) > 0 {
		evt := huffman.NewEvent(huffman.EVT_AFTER_ANALYSIS, size, 0, huffman.EVT_HASH_NONE, time.Time{})
		huffman.NotifyListeners(listeners, evt)
	}

	if _, err := input.Seek(0, io.SeekStart); err != nil {
		return 0, &IOError{msg: "Cannot rewind input", code: huffman.ERR_READ_FILE, cause: err}
	}

	writer, err := NewWriterWithCtx(output, &freqs, ctx)

	if err != nil {
		return 0, err
	}

	for _, bl := range listeners {
		writer.AddListener(bl)
	}

	buffer := make([]byte, _COPY_BUFFER_SIZE)

	for {
		n, err := input.Read(buffer)

		if n > 0 {
			if _, err := writer.Write(buffer[0:n]); err != nil {
				return int64(writer.GetWritten()), err
			}
		}

		if err == io.EOF {
			break
		}

		if err != nil {
			return int64(writer.GetWritten()), &IOError{msg: "Cannot read input", code: huffman.ERR_READ_FILE, cause: err}
		}
	}

	if err := writer.Close(); err != nil {
		return int64(writer.GetWritten()), err
	}

	return int64(writer.GetWritten()), nil
}

// Decompress decompresses the input into the output.
// Returns the number of bytes written to the output.
func Decompress(input io.Reader, output io.Writer, ctx map[string]any, listeners ...huffman.Listener) (int64, error) {
	if ctx == nil {
		ctx = make(map[string]any)
	}

	reader, err := NewReaderWithCtx(input, ctx)

	if err != nil {
		return 0, err
	}

	for _, bl := range listeners {
		reader.AddListener(bl)
	}

	buffer := make([]byte, _COPY_BUFFER_SIZE)
	decoded := int64(0)

	for {
		n, err := reader.Read(buffer)

		if n > 0 {
			if _, err := output.Write(buffer[0:n]); err != nil {
				reader.Close()
				return decoded, &IOError{msg: "Cannot write output", code: huffman.ERR_WRITE_FILE, cause: err}
			}

			decoded += int64(n)
		}

		if err == io.EOF {
			break
		}

		if err != nil {
			reader.Close()
			return decoded, err
		}
	}

	if err := reader.Close(); err != nil {
		return decoded, err
	}

	return decoded, nil
}
