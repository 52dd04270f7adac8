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
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	huffman "github.com/flanglet/huffman-go"
	kio "github.com/flanglet/huffman-go/io"
)

const (
	_ARG_IDX_INPUT     = 0
	_ARG_IDX_OUTPUT    = 1
	_HUFFMAN_VERSION   = "1.0"
	_APP_HEADER        = "Huffman " + _HUFFMAN_VERSION + " (c) Frederic Langlet"
	_ARG_INPUT         = "--input="
	_ARG_OUTPUT        = "--output="
	_ARG_LEVEL         = "--level="
	_ARG_COMPRESS      = "--compress"
	_ARG_DECOMPRESS    = "--decompress"
	_ARG_VERBOSE       = "--verbose="
	_ARG_FORCE         = "--force"
	_ARG_CHECKSUM      = "--checksum"
	_ARG_CANONICAL     = "--canonical"
	_ARG_REMOVE        = "--rm"
	_COMPRESS_SUFFIX   = ".hc"
	_DECOMPRESS_SUFFIX = ".hd"
	_MIN_LEVEL         = 1
	_MAX_LEVEL         = 7
	_DEFAULT_LEVEL     = 2
	_DEFAULT_VERBOSE   = 1
	_MAX_VERBOSE       = 5
)

var (
	_CMD_LINE_ARGS = []string{"-i", "-o"}

	mutex sync.Mutex
	log   = Printer{os: bufio.NewWriter(os.Stdout)}
)

func main() {
	argsMap := make(map[string]any)

	if status := processCommandLine(os.Args, argsMap); status != 0 {
		// Help requested ?
		if status < 0 {
			os.Exit(huffman.EXIT_SUCCESS)
		}

		println("Try --help or -h")
		os.Exit(huffman.ExitStatus(status))
	}

	mode := argsMap["mode"].(string)
	delete(argsMap, "mode")
	status := 0

	if mode == "c" {
		status = compress(argsMap)
	} else {
		status = decompress(argsMap)
	}

	os.Exit(huffman.ExitStatus(status))
}

func compress(argsMap map[string]any) (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "An unexpected error occurred during compression: %v\n", r)
			code = huffman.ERR_UNKNOWN
		}
	}()

	fc, err := NewFileCompressor(argsMap)

	if err != nil {
		return reportError(err)
	}

	code, _ = fc.Compress()
	return code
}

func decompress(argsMap map[string]any) (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "An unexpected error occurred during decompression: %v\n", r)
			code = huffman.ERR_UNKNOWN
		}
	}()

	fd, err := NewFileDecompressor(argsMap)

	if err != nil {
		return reportError(err)
	}

	code, _ = fd.Decompress()
	return code
}

// Print the error on stderr and return its code
func reportError(err error) int {
	code := kio.ErrorCode(err)

	if code == huffman.ERR_UNKNOWN_SYMBOL || code == huffman.ERR_UNKNOWN {
		fmt.Fprintf(os.Stderr, "An unexpected condition happened. Exiting ...\n%v\n", err)
	} else {
		fmt.Fprintln(os.Stderr, err.Error())
	}

	return code
}

// Returns 0 if the arguments are valid and the argsMap has been filled, -1 if
// the help has been displayed and an error code otherwise.
// The last argument that is not an option (or option value) is the input.
// If both -c and -d are provided, the last one wins.
func processCommandLine(args []string, argsMap map[string]any) int {
	verbose := _DEFAULT_VERBOSE
	level := -1
	overwrite := false
	remove := false
	canonical := false
	checksum := false
	inputName := ""
	outputName := ""
	mode := " "
	ctx := -1
	warningDupOpt := "Warning: ignoring duplicate %s (%s)"
	errInvalidOpt := "Invalid %s provided on command line: %s"

	if len(args) <= 1 {
		printHelp(mode)
		fmt.Fprintln(os.Stderr, "Missing arguments: an input file and a mode (-c or -d) are required")
		return huffman.ERR_MISSING_PARAM
	}

	for i, arg := range args {
		if i == 0 {
			continue
		}

		arg = strings.TrimSpace(arg)

		if ctx != -1 {
			if ctx == _ARG_IDX_OUTPUT {
				if outputName != "" {
					log.Println(fmt.Sprintf(warningDupOpt, "output name", arg), verbose > 0)
				} else {
					outputName = arg
				}
			} else if inputName != "" {
				log.Println(fmt.Sprintf(warningDupOpt, "input name", arg), verbose > 0)
			} else {
				inputName = arg
			}

			ctx = -1
			continue
		}

		if arg == "--help" || arg == "-h" {
			printHelp(mode)
			return -1
		}

		if arg == _ARG_COMPRESS || arg == "-c" {
			mode = "c"
			continue
		}

		if arg == _ARG_DECOMPRESS || arg == "-d" {
			mode = "d"
			continue
		}

		if arg == _ARG_FORCE || arg == "-f" {
			overwrite = true
			continue
		}

		if arg == _ARG_REMOVE {
			remove = true
			continue
		}

		if arg == _ARG_CANONICAL {
			canonical = true
			continue
		}

		if arg == _ARG_CHECKSUM || arg == "-x" {
			checksum = true
			continue
		}

		if arg == "-v" {
			verbose = 2
			continue
		}

		idx := -1

		for j, v := range _CMD_LINE_ARGS {
			if arg == v {
				idx = j
				break
			}
		}

		if idx != -1 {
			ctx = idx
			continue
		}

		if strings.HasPrefix(arg, _ARG_OUTPUT) {
			name := strings.TrimPrefix(arg, _ARG_OUTPUT)

			if outputName != "" {
				log.Println(fmt.Sprintf(warningDupOpt, "output name", name), verbose > 0)
			} else {
				outputName = name
			}

			continue
		}

		if strings.HasPrefix(arg, _ARG_INPUT) {
			name := strings.TrimPrefix(arg, _ARG_INPUT)

			if inputName != "" {
				log.Println(fmt.Sprintf(warningDupOpt, "input name", name), verbose > 0)
			} else {
				inputName = name
			}

			continue
		}

		if strings.HasPrefix(arg, _ARG_VERBOSE) || strings.HasPrefix(arg, "-v=") {
			var err error
			str := arg[strings.IndexByte(arg, '=')+1:]

			if verbose, err = strconv.Atoi(strings.TrimSpace(str)); err != nil || verbose < 0 || verbose > _MAX_VERBOSE {
				fmt.Fprintln(os.Stderr, fmt.Sprintf(errInvalidOpt, "verbosity level", arg))
				return huffman.ERR_INVALID_PARAM
			}

			continue
		}

		if strings.HasPrefix(arg, _ARG_LEVEL) || strings.HasPrefix(arg, "-l") {
			var str string

			if strings.HasPrefix(arg, _ARG_LEVEL) {
				str = strings.TrimPrefix(arg, _ARG_LEVEL)
			} else {
				str = strings.TrimPrefix(arg, "-l")
			}

			str = strings.TrimSpace(str)

			if len(str) == 0 {
				fmt.Fprintln(os.Stderr, "Missing compression level")
				return huffman.ERR_MISSING_PARAM
			}

			if level != -1 {
				log.Println(fmt.Sprintf(warningDupOpt, "compression level", str), verbose > 0)
				continue
			}

			var err error

			if level, err = strconv.Atoi(str); err != nil || level < _MIN_LEVEL || level > _MAX_LEVEL {
				fmt.Fprintln(os.Stderr, fmt.Sprintf(errInvalidOpt, "compression level", str))
				return huffman.ERR_INVALID_PARAM
			}

			continue
		}

		if strings.HasPrefix(arg, "-") == false && i == len(args)-1 {
			if inputName != "" {
				log.Println(fmt.Sprintf(warningDupOpt, "input name", arg), verbose > 0)
			} else {
				inputName = arg
			}

			continue
		}

		fmt.Fprintf(os.Stderr, "Unknown option: %s\n", arg)
		return huffman.ERR_INVALID_PARAM
	}

	if ctx != -1 {
		fmt.Fprintf(os.Stderr, "Missing value for option %s\n", _CMD_LINE_ARGS[ctx])
		return huffman.ERR_MISSING_PARAM
	}

	if mode != "c" && mode != "d" {
		fmt.Fprintln(os.Stderr, "No mode provided: use -c to compress or -d to decompress")
		return huffman.ERR_MISSING_PARAM
	}

	if len(inputName) == 0 {
		fmt.Fprintln(os.Stderr, "Missing input file name")
		return huffman.ERR_MISSING_PARAM
	}

	if len(outputName) == 0 {
		outputName = defaultOutputName(inputName, mode)
	}

	if inputName == outputName {
		fmt.Fprintln(os.Stderr, "The input and output files must be different")
		return huffman.ERR_INVALID_PARAM
	}

	if mode == "d" {
		if canonical == true {
			log.Println("Warning: ignoring option [--canonical]. Only applicable in compress mode.", verbose > 0)
			canonical = false
		}

		if level != -1 {
			log.Println("Warning: ignoring option [level]. Only applicable in compress mode.", verbose > 0)
		}
	}

	if level == -1 {
		level = _DEFAULT_LEVEL
	}

	if verbose > 1 {
		log.Println("\n"+_APP_HEADER+"\n", true)
	}

	argsMap["mode"] = mode
	argsMap["verbosity"] = uint(verbose)
	argsMap["inputName"] = inputName
	argsMap["outputName"] = outputName

	if overwrite == true {
		argsMap["overwrite"] = true
	}

	if remove == true {
		argsMap["remove"] = true
	}

	if checksum == true {
		argsMap["checksum"] = true
	}

	if mode == "c" {
		argsMap["level"] = level

		if canonical == true {
			argsMap["canonical"] = true
		}
	}

	return 0
}

// The output name defaults to the input name with a mode specific suffix
func defaultOutputName(inputName, mode string) string {
	if mode == "c" {
		return inputName + _COMPRESS_SUFFIX
	}

	return inputName + _DECOMPRESS_SUFFIX
}

func printHelp(mode string) {
	log.Println("", true)
	log.Println(_APP_HEADER, true)
	log.Println("", true)
	log.Println("Usage: huffman <options> <inputName>", true)
	log.Println("        Compresses or decompresses <inputName> depending on the options.\n", true)
	log.Println("   -h, --help", true)
	log.Println("        Display this message\n", true)

	if mode != "c" && mode != "d" {
		log.Println("   -c, --compress", true)
		log.Println("        Compress mode", true)
		log.Println("", true)
		log.Println("   -d, --decompress", true)
		log.Println("        Decompress mode", true)
		log.Println("        If both -c and -d are provided, the last one sets the mode.", true)
		log.Println("", true)
	}

	log.Println("   -i, --input=<inputName>", true)
	log.Println("        Name of the input file. Defaults to the last argument.\n", true)
	log.Println("   -o, --output=<outputName>", true)

	if mode == "c" {
		log.Println("        Optional name of the output file (defaults to <inputName"+_COMPRESS_SUFFIX+">)\n", true)
	} else if mode == "d" {
		log.Println("        Optional name of the output file (defaults to <inputName"+_DECOMPRESS_SUFFIX+">)\n", true)
	} else {
		log.Println("        Optional name of the output file (defaults to <inputName> followed", true)
		log.Println("        by '"+_COMPRESS_SUFFIX+"' in compress mode or '"+_DECOMPRESS_SUFFIX+"' in decompress mode)\n", true)
	}

	if mode != "d" {
		log.Println("   -l<level>, --level=<level>", true)
		msg := fmt.Sprintf("        Set the compression level [%d..%d] (default %d).", _MIN_LEVEL, _MAX_LEVEL, _DEFAULT_LEVEL)
		log.Println(msg, true)
		log.Println("        The level is reported but does not change the output.\n", true)
		log.Println("   --canonical", true)
		log.Println("        Describe the codes with their lengths only (canonical Huffman codes)\n", true)
	}

	log.Println("   -x, --checksum", true)
	log.Println("        Compute a 64 bit hash of the uncompressed data\n", true)
	log.Println("   -v, -v=<level>, --verbose=<level>", true)
	log.Println("        Set the verbosity level [0..5] ('-v' alone means 2)", true)
	log.Println("        0=silent, 1=default, 2=display sizes and run time, 3=display configuration", true)
	log.Println("        and container header, 4=display timings of each phase, 5=display all events\n", true)
	log.Println("   -f, --force", true)
	log.Println("        Overwrite the output file if it already exists\n", true)
	log.Println("   --rm", true)
	log.Println("        Remove the input file after successful (de)compression.\n", true)
	log.Println("Exit statuses:", true)
	log.Println("   0: successful execution", true)
	log.Println("   1: unspecified error", true)
	log.Println("   2: error in some option", true)
	log.Println("   3: file error", true)
	log.Println("   4: error caused by compression/decompression\n", true)

	if mode != "d" {
		log.Println("EG. huffman -c -l3 -v foo.txt", true)
		log.Println("EG. huffman --compress --output=foo.hc --canonical --force foo.txt\n", true)
	}

	if mode != "c" {
		log.Println("EG. huffman -d -o foo.txt foo.hc", true)
		log.Println("EG. huffman --decompress --input=foo.hc --verbose=3 --rm\n", true)
	}
}

// Printer a buffered printer (required in concurrent code)
type Printer struct {
	os *bufio.Writer
}

// Println concurrently safe version (order wise) of Println
func (this *Printer) Println(msg string, printFlag bool) {
	if printFlag == true {
		mutex.Lock()

		// Best effort, ignore error
		if w, _ := this.os.Write([]byte(msg + "\n")); w > 0 {
			_ = this.os.Flush()
		}

		mutex.Unlock()
	}
}
