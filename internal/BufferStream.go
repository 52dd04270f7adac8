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

package internal

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
)

// BufferStream a closable read/write/seek stream of bytes held in memory
type BufferStream struct {
	buf    []byte
	offset int
	closed bool
}

// NewBufferStream creates a new instance of BufferStream, optionally
// initialized with the provided bytes.
func NewBufferStream(args ...[]byte) *BufferStream {
	this := &BufferStream{}

	if len(args) == 1 {
		this.buf = args[0]
	} else {
		this.buf = make([]byte, 0)
	}

	return this
}

// Write returns an error if the stream is closed, otherwise appends the given
// data to the internal buffer. Returns the number of bytes written.
func (this *BufferStream) Write(b []byte) (int, error) {
	if this.closed == true {
		return 0, errors.New("Stream closed")
	}

	this.buf = append(this.buf, b...)
	return len(b), nil
}

// Read returns an error if the stream is closed, otherwise reads data from
// the internal buffer at the read offset position.
// Returns the number of bytes read or (0, io.EOF) when no more data remains.
func (this *BufferStream) Read(b []byte) (int, error) {
	if this.closed == true {
		return 0, errors.New("Stream closed")
	}

	if this.offset >= len(this.buf) {
		return 0, io.EOF
	}

	n := copy(b, this.buf[this.offset:])
	this.offset += n
	return n, nil
}

// Seek sets the read offset (io.Seeker)
func (this *BufferStream) Seek(offset int64, whence int) (int64, error) {
	if this.closed == true {
		return 0, errors.New("Stream closed")
	}

	var pos int64

	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(this.offset) + offset
	case io.SeekEnd:
		pos = int64(len(this.buf)) + offset
	default:
		return 0, errors.New("Invalid whence")
	}

	if pos < 0 {
		return 0, errors.New("Negative position")
	}

	if pos > int64(len(this.buf)) {
		pos = int64(len(this.buf))
	}

	this.offset = int(pos)
	return pos, nil
}

// Close makes the stream unavailable for future reads or writes.
func (this *BufferStream) Close() error {
	this.closed = true
	return nil
}

// Closed says whether Close has been called
func (this *BufferStream) Closed() bool {
	return this.closed
}

// Len returns the number of bytes not read yet
func (this *BufferStream) Len() int {
	return len(this.buf) - this.offset
}

// Bytes returns a copy of the whole content of the stream
func (this *BufferStream) Bytes() []byte {
	return bytes.Clone(this.buf)
}
