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
	"os"
	"time"

	huffman "github.com/flanglet/huffman-go"
	"github.com/flanglet/huffman-go/internal"
	kio "github.com/flanglet/huffman-go/io"
)

// FileDecompressor main file decompressor struct
type FileDecompressor struct {
	verbosity    uint
	overwrite    bool
	removeSource bool
	checksum     bool
	inputName    string
	outputName   string
	listeners    []huffman.Listener
}

// NewFileDecompressor creates a new instance of FileDecompressor given
// a map of argument name/value pairs.
func NewFileDecompressor(argsMap map[string]any) (*FileDecompressor, error) {
	this := &FileDecompressor{}
	this.listeners = make([]huffman.Listener, 0)

	if force, prst := argsMap["overwrite"]; prst == true {
		this.overwrite = force.(bool)
		delete(argsMap, "overwrite")
	}

	if rmSrc, prst := argsMap["remove"]; prst == true {
		this.removeSource = rmSrc.(bool)
		delete(argsMap, "remove")
	}

	if checksum, prst := argsMap["checksum"]; prst == true {
		this.checksum = checksum.(bool)
		delete(argsMap, "checksum")
	}

	this.verbosity = _DEFAULT_VERBOSE

	if v, prst := argsMap["verbosity"]; prst == true {
		this.verbosity = v.(uint)
		delete(argsMap, "verbosity")
	}

	if this.verbosity > 2 {
		this.checksum = true
	}

	var err error

	if this.inputName, this.outputName, err = fileNames(argsMap, _DECOMPRESS_SUFFIX); err != nil {
		return nil, err
	}

	if this.verbosity > 3 && len(argsMap) > 0 {
		for k := range argsMap {
			log.Println("Warning: ignoring invalid option ["+k+"]", this.verbosity > 0)
		}
	}

	return this, nil
}

// AddListener adds an event listener to this decompressor.
// Returns true if the listener has been added.
func (this *FileDecompressor) AddListener(bl huffman.Listener) bool {
	if bl == nil {
		return false
	}

	this.listeners = append(this.listeners, bl)
	return true
}

// RemoveListener removes an event listener from this decompressor.
// Returns true if the listener has been removed.
func (this *FileDecompressor) RemoveListener(bl huffman.Listener) bool {
	for i, e := range this.listeners {
		if e == bl {
			this.listeners = append(this.listeners[0:i], this.listeners[i+1:]...)
			return true
		}
	}

	return false
}

// Decompress decompresses the input file into the output file.
// Returns the error code and the number of bytes written.
// The output file is removed if the decompression fails.
func (this *FileDecompressor) Decompress() (int, uint64) {
	var msg string

	if this.verbosity > 2 {
		if listener, err := NewInfoPrinter(this.verbosity, DECOMPRESSION, os.Stdout); err == nil {
			this.AddListener(listener)
		}

		log.Println(fmt.Sprintf("Verbosity: %d", this.verbosity), true)
		log.Println(fmt.Sprintf("Overwrite: %t", this.overwrite), true)
		log.Println("Input file name: '"+this.inputName+"'", true)
		log.Println("Output file name: '"+this.outputName+"'", true)
	}

	inputData, err := checkFiles(this.inputName, this.outputName)

	if err != nil {
		return reportError(err), 0
	}

	input, err := internal.OpenInputFile(this.inputName)

	if err != nil {
		return reportError(kio.WrapIOError(err, "Cannot decompress", huffman.ERR_OPEN_FILE)), 0
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
	ctx["checksum"] = this.checksum

	log.Println("\nDecompressing "+this.inputName+" ...", this.verbosity > 1)
	log.Println("", this.verbosity > 3)

	if len(this.listeners) > 0 {
		evt := huffman.NewEvent(huffman.EVT_DECOMPRESSION_START, inputData.Size, 0, huffman.EVT_HASH_NONE, time.Now())
		huffman.NotifyListeners(this.listeners, evt)
	}

	before := time.Now()
	decoded, err := kio.Decompress(input, output, ctx, this.listeners...)

	if err == nil {
		if err = output.Close(); err != nil {
			err = kio.WrapIOError(err, "Cannot decompress", huffman.ERR_WRITE_FILE)
		}
	}

	if err != nil {
		code := reportError(err)

		if err := output.Discard(); err != nil {
			log.Println("Warning: "+err.Error(), this.verbosity > 0)
		}

		return code, uint64(decoded)
	}

	delta := time.Since(before).Milliseconds()

	if this.verbosity >= 1 {
		log.Println("", this.verbosity > 1)
		msg = formatDuration(delta)

		if this.verbosity > 1 {
			log.Println("Decompression time: "+msg, true)
			log.Println(fmt.Sprintf("Input size:         %d", inputData.Size), true)
			log.Println(fmt.Sprintf("Output size:        %d", decoded), true)

			if delta > 0 {
				log.Println(fmt.Sprintf("Throughput (KiB/s): %d", ((decoded*int64(1000))>>10)/delta), true)
			}
		} else {
			msg = fmt.Sprintf("Decompressed %s: %d => %d in %s", this.inputName, inputData.Size, decoded, msg)
			log.Println(msg, true)
		}

		log.Println("", this.verbosity > 1)
	}

	// Above verbosity 2, the checksum is printed by the InfoPrinter
	if hash, prst := ctx["hash"]; prst == true && this.verbosity >= 1 && this.verbosity <= 2 {
		log.Println(fmt.Sprintf("Checksum (xxhash64): %016x", hash.(uint64)), true)
	}

	if len(this.listeners) > 0 {
		evt := huffman.NewEvent(huffman.EVT_DECOMPRESSION_END, decoded, 0, huffman.EVT_HASH_NONE, time.Now())
		huffman.NotifyListeners(this.listeners, evt)
	}

	if this.removeSource == true {
		removeInput(input, this.inputName, this.verbosity)
	}

	return 0, uint64(decoded)
}
