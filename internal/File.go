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
	"bufio"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

const (
	// DEFAULT_FILE_BUFFER_SIZE is the size of the block buffers used for file I/O
	DEFAULT_FILE_BUFFER_SIZE = 64 * 1024
)

// FileData a basic structure encapsulating a file path and size
type FileData struct {
	FullPath string
	Path     string
	Name     string
	Size     int64
}

// NewFileData creates an instance of FileData from a file path and size
func NewFileData(fullPath string, size int64) *FileData {
	this := &FileData{}
	this.FullPath = fullPath
	this.Size = size
	this.Path, this.Name = filepath.Split(fullPath)
	return this
}

// StatFile returns the FileData of a regular file
func StatFile(path string) (*FileData, error) {
	fi, err := os.Stat(path)

	if err != nil {
		return nil, errors.Wrapf(err, "cannot access '%s'", path)
	}

	if fi.IsDir() {
		return nil, errors.Errorf("'%s' is a directory", path)
	}

	return NewFileData(path, fi.Size()), nil
}

// ByteReader a buffered byte source backed by a file
type ByteReader struct {
	file   *os.File
	reader *bufio.Reader
	name   string
}

// OpenInputFile opens the file for reading
func OpenInputFile(path string) (*ByteReader, error) {
	f, err := os.Open(path)

	if err != nil {
		return nil, errors.Wrapf(err, "cannot open input file '%s'", path)
	}

	this := &ByteReader{}
	this.file = f
	this.name = path
	this.reader = bufio.NewReaderSize(f, DEFAULT_FILE_BUFFER_SIZE)
	return this, nil
}

// HasNextByte returns true if at least one more byte can be read
func (this *ByteReader) HasNextByte() bool {
	_, err := this.reader.Peek(1)
	return err == nil
}

// ReadByte returns the next byte of the file (io.ByteReader)
func (this *ByteReader) ReadByte() (byte, error) {
	b, err := this.reader.ReadByte()

	if err != nil && err != io.EOF {
		return 0, errors.Wrapf(err, "cannot read input file '%s'", this.name)
	}

	return b, err
}

// Read reads up to len(p) bytes (io.Reader)
func (this *ByteReader) Read(p []byte) (int, error) {
	n, err := this.reader.Read(p)

	if err != nil && err != io.EOF {
		return n, errors.Wrapf(err, "cannot read input file '%s'", this.name)
	}

	return n, err
}

// Seek repositions the file and drops the buffered bytes (io.Seeker)
func (this *ByteReader) Seek(offset int64, whence int) (int64, error) {
	pos, err := this.file.Seek(offset, whence)

	if err != nil {
		return pos, errors.Wrapf(err, "cannot seek in input file '%s'", this.name)
	}

	this.reader.Reset(this.file)
	return pos, nil
}

// Close closes the file
func (this *ByteReader) Close() error {
	if err := this.file.Close(); err != nil {
		return errors.Wrapf(err, "cannot close input file '%s'", this.name)
	}

	return nil
}

// ByteWriter a buffered byte sink backed by a file
type ByteWriter struct {
	file   *os.File
	writer *bufio.Writer
	name   string
	closed bool
}

// CreateOutputFile creates the file for writing. An existing file is only
// replaced if 'overwrite' is true.
func CreateOutputFile(path string, overwrite bool) (*ByteWriter, error) {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC

	if overwrite == false {
		flags |= os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, 0666)

	if err != nil {
		if os.IsExist(err) {
			return nil, errors.Wrapf(err, "file '%s' exists and the 'force' option has not been provided", path)
		}

		return nil, errors.Wrapf(err, "cannot open output file '%s' for writing", path)
	}

	this := &ByteWriter{}
	this.file = f
	this.name = path
	this.writer = bufio.NewWriterSize(f, DEFAULT_FILE_BUFFER_SIZE)
	return this, nil
}

// WriteByte writes one byte (io.ByteWriter)
func (this *ByteWriter) WriteByte(b byte) error {
	if err := this.writer.WriteByte(b); err != nil {
		return errors.Wrapf(err, "cannot write to output file '%s'", this.name)
	}

	return nil
}

// Write writes len(p) bytes (io.Writer)
func (this *ByteWriter) Write(p []byte) (int, error) {
	n, err := this.writer.Write(p)

	if err != nil {
		return n, errors.Wrapf(err, "cannot write to output file '%s'", this.name)
	}

	return n, nil
}

// Close flushes the buffered bytes and closes the file. Idempotent.
func (this *ByteWriter) Close() error {
	if this.closed == true {
		return nil
	}

	this.closed = true

	if err := this.writer.Flush(); err != nil {
		this.file.Close()
		return errors.Wrapf(err, "cannot write to output file '%s'", this.name)
	}

	if err := this.file.Close(); err != nil {
		return errors.Wrapf(err, "cannot close output file '%s'", this.name)
	}

	return nil
}

// Discard closes the file without flushing and removes it, so that no
// partial output survives a failure.
func (this *ByteWriter) Discard() error {
	if this.closed == false {
		this.closed = true
		this.file.Close()
	}

	if err := os.Remove(this.name); err != nil && os.IsNotExist(err) == false {
		return errors.Wrapf(err, "cannot remove output file '%s'", this.name)
	}

	return nil
}

// Name returns the name of the file
func (this *ByteWriter) Name() string {
	return this.name
}

// IsReservedName returns true if the file name is reserved by the OS
func IsReservedName(fileName string) bool {
	if runtime.GOOS != "windows" {
		return false
	}

	// Sorted list
	var reserved = []string{"AUX", "COM0", "COM1", "COM2", "COM3", "COM4", "COM5", "COM6",
		"COM7", "COM8", "COM9", "COM¹", "COM²", "COM³", "CON", "LPT0", "LPT1", "LPT2",
		"LPT3", "LPT4", "LPT5", "LPT6", "LPT7", "LPT8", "LPT9", "NUL", "PRN"}

	for _, r := range reserved {
		res := strings.Compare(strings.ToUpper(fileName), r)

		if res == 0 {
			return true
		}

		if res < 0 {
			break
		}
	}

	return false
}
