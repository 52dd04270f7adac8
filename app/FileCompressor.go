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

package main

import (
	"fmt"
	"io/fs"
	"os"
	"time"

	huffman "github.com/flanglet/huffman-go"
	"github.com/flanglet/huffman-go/internal"
	kio "github.com/flanglet/huffman-go/io"
	"github.com/pkg/errors"
)

// FileCompressor main file compressor struct
type FileCompressor struct {
	verbosity    uint
	overwrite    bool
	removeSource bool
	canonical    bool
	checksum     bool
	level        int
	inputName    string
	outputName   string
	listeners    []huffman.Listener
}

// NewFileCompressor creates a new instance of FileCompressor given
// a map of argument name/value pairs.
func NewFileCompressor(argsMap map[string]any) (*FileCompressor, error) {
	this := &FileCompressor{}
	this.listeners = make([]huffman.Listener, 0)

	if force, prst := argsMap["overwrite"]; prst == true {
		this.overwrite = force.(bool)
		delete(argsMap, "overwrite")
	}

	if rmSrc, prst := argsMap["remove"]; prst == true {
		this.removeSource = rmSrc.(bool)
		delete(argsMap, "remove")
	}

	if canonical, prst := argsMap["canonical"]; prst == true {
		this.canonical = canonical.(bool)
		delete(argsMap, "canonical")
	}

	if checksum, prst := argsMap["checksum"]; prst == true {
		this.checksum = checksum.(bool)
		delete(argsMap, "checksum")
	}

	this.level = _DEFAULT_LEVEL

	if level, prst := argsMap["level"]; prst == true {
		this.level = level.(int)
		delete(argsMap, "level")
	}

	if this.level < _MIN_LEVEL || this.level > _MAX_LEVEL {
		errMsg := fmt.Sprintf("Invalid compression level: %d", this.level)
		return nil, kio.NewIOError(errMsg, huffman.ERR_INVALID_PARAM)
	}

	this.verbosity = _DEFAULT_VERBOSE

	if v, prst := argsMap["verbosity"]; prst == true {
		this.verbosity = v.(uint)
		delete(argsMap, "verbosity")
	}

	// The checksum is displayed with the container information
	if this.verbosity > 2 {
		this.checksum = true
	}

	var err error

	if this.inputName, this.outputName, err = fileNames(argsMap, _COMPRESS_SUFFIX); err != nil {
		return nil, err
	}

	if this.verbosity > 3 && len(argsMap) > 0 {
		for k := range argsMap {
			log.Println("Warning: ignoring invalid option ["+k+"]", this.verbosity > 0)
		}
	}

	return this, nil
}

// AddListener adds an event listener to this compressor.
// Returns true if the listener has been added.
func (this *FileCompressor) AddListener(bl huffman.Listener) bool {
	if bl == nil {
		return false
	}

	this.listeners = append(this.listeners, bl)
	return true
}

// RemoveListener removes an event listener from this compressor.
// Returns true if the listener has been removed.
func (this *FileCompressor) RemoveListener(bl huffman.Listener) bool {
	for i, e := range this.listeners {
		if e == bl {
			this.listeners = append(this.listeners[0:i], this.listeners[i+1:]...)
			return true
		}
	}

	return false
}

// Compress compresses the input file into the output file.
// Returns the error code and the number of bytes written.
// The output file is removed if the compression fails.
func (this *FileCompressor) Compress() (int, uint64) {
	var msg string

	if this.verbosity > 2 {
		if listener, err := NewInfoPrinter(this.verbosity, COMPRESSION, os.Stdout); err == nil {
			this.AddListener(listener)
		}

		log.Println(fmt.Sprintf("Verbosity: %d", this.verbosity), true)
		log.Println(fmt.Sprintf("Overwrite: %t", this.overwrite), true)
		log.Println(fmt.Sprintf("Compression level: %d", this.level), true)

		if this.canonical == true {
			log.Println("Codes: canonical", true)
		} else {
			log.Println("Codes: tree", true)
		}

		log.Println("Input file name: '"+this.inputName+"'", true)
		log.Println("Output file name: '"+this.outputName+"'", true)
	}

	inputData, err := checkFiles(this.inputName, this.outputName)

	if err != nil {
		return reportError(err), 0
	}

	input, err := internal.OpenInputFile(this.inputName)

	if err != nil {
		return reportError(kio.WrapIOError(err, "Cannot compress", huffman.ERR_OPEN_FILE)), 0
	}

	defer input.Close()
	output, err := createOutputFile(this.outputName, this.overwrite)

	if err != nil {
		return reportError(err), 0
	}

	ctx := make(map[string]any)
	ctx["inputName"] = this.inputName
	ctx["outputName"] = this.outputName
	ctx["fileSize"] = inputData.Size
	ctx["level"] = this.level
	ctx["canonical"] = this.canonical
	ctx["checksum"] = this.checksum

	log.Println("\nCompressing "+this.inputName+" ...", this.verbosity > 1)
	log.Println("", this.verbosity > 3)

	if len(this.listeners) > 0 {
		evt := huffman.NewEvent(huffman.EVT_COMPRESSION_START, inputData.Size, 0, huffman.EVT_HASH_NONE, time.Now())
		huffman.NotifyListeners(this.listeners, evt)
	}

	before := time.Now()
	written, err := kio.Compress(input, output, ctx, this.listeners...)

	if err == nil {
		if err = output.Close(); err != nil {
			err = kio.WrapIOError(err, "Cannot compress", huffman.ERR_WRITE_FILE)
		}
	}

	if err != nil {
		code := reportError(err)

		if err := output.Discard(); err != nil {
			log.Println("Warning: "+err.Error(), this.verbosity > 0)
		}

		return code, uint64(written)
	}

	delta := time.Since(before).Milliseconds()
	read := int64(0)

	if count, prst := ctx["symbolCount"]; prst == true {
		read = int64(count.(uint64))
	}

	if this.verbosity >= 1 {
		log.Println("", this.verbosity > 1)
		msg = formatDuration(delta)

		if this.verbosity > 1 {
			log.Println("Compression time:   "+msg, true)
			log.Println(fmt.Sprintf("Input size:         %d", read), true)
			log.Println(fmt.Sprintf("Output size:        %d", written), true)

			if read != 0 {
				log.Println(fmt.Sprintf("Compression ratio:  %.6f", float64(written)/float64(read)), true)
			}

			if delta > 0 {
				log.Println(fmt.Sprintf("Throughput (KiB/s): %d", ((read*int64(1000))>>10)/delta), true)
			}
		} else {
			msg = fmt.Sprintf("Compressed %s: %d => %d in %s", this.inputName, read, written, msg)
			log.Println(msg, true)
		}

		log.Println("", this.verbosity > 1)
	}

	// Above verbosity 2, the checksum is printed by the InfoPrinter
	if hash, prst := ctx["hash"]; prst == true && this.verbosity >= 1 && this.verbosity <= 2 {
		log.Println(fmt.Sprintf("Checksum (xxhash64): %016x", hash.(uint64)), true)
	}

	if len(this.listeners) > 0 {
		evt := huffman.NewEvent(huffman.EVT_COMPRESSION_END, written, 0, huffman.EVT_HASH_NONE, time.Now())
		huffman.NotifyListeners(this.listeners, evt)
	}

	if this.removeSource == true {
		removeInput(input, this.inputName, this.verbosity)
	}

	return 0, uint64(written)
}

// Extract the input and output names from the arguments. The output name
// defaults to the input name followed by the suffix.
func fileNames(argsMap map[string]any, suffix string) (string, string, error) {
	inputName, _ := argsMap["inputName"].(string)
	delete(argsMap, "inputName")
	outputName, _ := argsMap["outputName"].(string)
	delete(argsMap, "outputName")

	if len(inputName) == 0 {
		return "", "", kio.NewIOError("Missing input file name", huffman.ERR_MISSING_PARAM)
	}

	if internal.IsReservedName(inputName) {
		return "", "", kio.NewIOError(fmt.Sprintf("'%s' is a reserved name", inputName), huffman.ERR_INVALID_PARAM)
	}

	if len(outputName) == 0 {
		outputName = inputName + suffix
	}

	if internal.IsReservedName(outputName) {
		return "", "", kio.NewIOError(fmt.Sprintf("'%s' is a reserved name", outputName), huffman.ERR_INVALID_PARAM)
	}

	if inputName == outputName {
		return "", "", kio.NewIOError("The input and output files must be different", huffman.ERR_INVALID_PARAM)
	}

	return inputName, outputName, nil
}

// Check that the input is a regular file and that the output is neither a
// directory nor the input file.
func checkFiles(inputName, outputName string) (*internal.FileData, error) {
	inputData, err := internal.StatFile(inputName)

	if err != nil {
		return nil, kio.WrapIOError(err, "Cannot access input", huffman.ERR_OPEN_FILE)
	}

	fi, err := os.Stat(outputName)

	if err != nil {
		return inputData, nil
	}

	if fi.IsDir() {
		errMsg := fmt.Sprintf("Output '%s' is a directory", outputName)
		return nil, kio.NewIOError(errMsg, huffman.ERR_OUTPUT_IS_DIR)
	}

	if fi2, err := os.Stat(inputName); err == nil && os.SameFile(fi, fi2) {
		return nil, kio.NewIOError("The input and output files must be different", huffman.ERR_INVALID_PARAM)
	}

	return inputData, nil
}

func createOutputFile(outputName string, overwrite bool) (*internal.ByteWriter, error) {
	output, err := internal.CreateOutputFile(outputName, overwrite)

	if err == nil {
		return output, nil
	}

	if errors.Is(err, fs.ErrExist) == true {
		return nil, kio.WrapIOError(err, "Cannot create output", huffman.ERR_OVERWRITE_FILE)
	}

	return nil, kio.WrapIOError(err, "Cannot create output", huffman.ERR_CREATE_FILE)
}

func removeInput(input *internal.ByteReader, inputName string, verbosity uint) {
	// Close input prior to deletion. The deferred call does not check for error.
	if err := input.Close(); err != nil {
		log.Println(fmt.Sprintf("Warning: %v", err), verbosity > 0)
	}

	if os.Remove(inputName) != nil {
		log.Println("Warning: input file could not be deleted", verbosity > 0)
	}
}

func formatDuration(delta int64) string {
	if delta >= 100000 {
		return fmt.Sprintf("%.1f s", float64(delta)/1000)
	}

	return fmt.Sprintf("%.0f ms", float64(delta))
}
