/*
Copyright 2011-2017 Frederic Langlet
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
	"strings"
	"sync"

	"github.com/filepress/filepress"
)

const (
	ARG_IDX_INPUT   = 2
	ARG_IDX_OUTPUT  = 3
	ARG_IDX_ALGO    = 4
	ARG_IDX_VERBOSE = 5
	APP_HEADER      = "Filepress 1.0"
)

var (
	CMD_LINE_ARGS = []string{
		"-c", "-d", "-i", "-o", "-a", "-v", "-h",
	}
	mutex sync.Mutex
	log   = Printer{os: bufio.NewWriter(os.Stdout)}
)

func main() {
	argsMap := make(map[string]interface{})
	processCommandLine(os.Args, argsMap)
	mode := argsMap["mode"].(string)
	delete(argsMap, "mode")
	status := filepress.ERR_UNKNOWN

	if mode == "c" {
		status = compress(argsMap)
	} else if mode == "d" {
		status = decompress(argsMap)
	} else {
		println("Missing arguments: try --help or -h")
		status = filepress.ERR_MISSING_PARAM
	}

	os.Exit(status)
}

func compress(argsMap map[string]interface{}) int {
	code := filepress.ERR_NONE

	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("An unexpected error occurred during compression: %v\n", r)
			code = filepress.ERR_UNKNOWN
		}

		os.Exit(code)
	}()

	fc, err := NewFileCompressor(argsMap)

	if err != nil {
		fmt.Printf("Failed to create file compressor: %v\n", err)
		code = filepress.ERR_INVALID_PARAM
		return code
	}

	code = fc.Compress()
	return code
}

func decompress(argsMap map[string]interface{}) int {
	code := filepress.ERR_NONE

	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("An unexpected error occurred during decompression: %v\n", r)
			code = filepress.ERR_UNKNOWN
		}

		os.Exit(code)
	}()

	fd, err := NewFileDecompressor(argsMap)

	if err != nil {
		fmt.Printf("Failed to create file decompressor: %v\n", err)
		code = filepress.ERR_INVALID_PARAM
		return code
	}

	code = fd.Decompress()
	return code
}

func processCommandLine(args []string, argsMap map[string]interface{}) {
	verbose := 1
	inputName := ""
	outputName := ""
	algoName := ""
	ctx := -1
	mode := " "

	for i, arg := range args {
		if i == 0 {
			continue
		}

		arg = strings.TrimSpace(arg)

		if ctx != -1 && isCmdLineArg(arg) {
			fmt.Printf("Missing value for the option preceding [%v]\n", arg)
			os.Exit(filepress.ERR_INVALID_PARAM)
		}

		if arg == "--compress" || arg == "-c" {
			if mode == "d" {
				fmt.Println("Both compression and decompression options were provided.")
				os.Exit(filepress.ERR_INVALID_PARAM)
			}

			mode = "c"
			continue
		}

		if arg == "--decompress" || arg == "-d" {
			if mode == "c" {
				fmt.Println("Both compression and decompression options were provided.")
				os.Exit(filepress.ERR_INVALID_PARAM)
			}

			mode = "d"
			continue
		}

		if arg == "--help" || arg == "-h" {
			log.Println("\n"+APP_HEADER+"\n", true)
			log.Println("   -h, --help", true)
			log.Println("        display this message\n", true)
			log.Println("   -c, --compress", true)
			log.Println("        compress the input file\n", true)
			log.Println("   -d, --decompress", true)
			log.Println("        decompress the input file\n", true)
			log.Println("   -i, --input=<inputName>", true)
			log.Println("        mandatory name of the input file\n", true)
			log.Println("   -o, --output=<outputName>", true)
			log.Println("        optional name of the output file; defaults to the input", true)
			log.Println("        name with '.rle', '.huff' or '.zst' appended to the stem", true)
			log.Println("        when compressing, and to the original extension recorded", true)
			log.Println("        in the file header when decompressing\n", true)
			log.Println("   -a, --algorithm=<rle|huf|zst>", true)
			log.Println("        algorithm to compress with, or expected algorithm of the", true)
			log.Println("        file to decompress (defaults to rle)\n", true)
			log.Println("   -v, --verbose=<level>", true)
			log.Println("        0=silent, 1=default, 2=progress display\n", true)
			log.Println("EG. Filepress -c -i foo.txt -a huf -v 2", true)
			log.Println("EG. Filepress -d -i foo.huff -a huf -o foo.txt\n", true)
			os.Exit(0)
		}

		if arg == "-i" {
			ctx = ARG_IDX_INPUT
			continue
		}

		if arg == "-o" {
			ctx = ARG_IDX_OUTPUT
			continue
		}

		if arg == "-a" {
			ctx = ARG_IDX_ALGO
			continue
		}

		if arg == "-v" {
			ctx = ARG_IDX_VERBOSE
			continue
		}

		if strings.HasPrefix(arg, "--input=") || ctx == ARG_IDX_INPUT {
			inputName = strings.TrimSpace(strings.TrimPrefix(arg, "--input="))
			ctx = -1
			continue
		}

		if strings.HasPrefix(arg, "--output=") || ctx == ARG_IDX_OUTPUT {
			outputName = strings.TrimSpace(strings.TrimPrefix(arg, "--output="))
			ctx = -1
			continue
		}

		if strings.HasPrefix(arg, "--algorithm=") || ctx == ARG_IDX_ALGO {
			algoName = strings.TrimSpace(strings.TrimPrefix(arg, "--algorithm="))
			ctx = -1
			continue
		}

		if strings.HasPrefix(arg, "--verbose=") || ctx == ARG_IDX_VERBOSE {
			verboseLevel := strings.TrimSpace(strings.TrimPrefix(arg, "--verbose="))
			var err error

			if verbose, err = parseVerbose(verboseLevel); err != nil {
				fmt.Printf("Invalid verbosity level provided on command line: %v\n", arg)
				os.Exit(filepress.ERR_INVALID_PARAM)
			}

			ctx = -1
			continue
		}

		if ctx == -1 {
			fmt.Printf("Warning: ignoring unknown option [%v]\n", arg)
		}

		ctx = -1
	}

	if inputName == "" {
		fmt.Println("Missing input file name, exiting ...")
		os.Exit(filepress.ERR_MISSING_PARAM)
	}

	if verbose >= 1 {
		log.Println("\n"+APP_HEADER+"\n", true)
	}

	argsMap["mode"] = mode
	argsMap["verbose"] = uint(verbose)
	argsMap["inputName"] = inputName
	argsMap["outputName"] = outputName
	argsMap["algorithm"] = algoName
}

func isCmdLineArg(arg string) bool {
	for _, a := range CMD_LINE_ARGS {
		if arg == a {
			return true
		}
	}

	return false
}

func parseVerbose(s string) (int, error) {
	var v int

	if _, err := fmt.Sscanf(s, "%d", &v); err != nil {
		return 0, err
	}

	if v < 0 || v > 2 {
		return 0, fmt.Errorf("verbosity out of range: %d", v)
	}

	return v, nil
}

// parseAlgorithm maps a command-line algorithm name to its Algorithm
// value. An empty name selects RLE.
func parseAlgorithm(name string) (filepress.Algorithm, error) {
	switch strings.ToLower(name) {
	case "", "rle":
		return filepress.AlgoRLE, nil
	case "huf", "huffman":
		return filepress.AlgoHuffman, nil
	case "zst", "zstd":
		return filepress.AlgoDeflate, nil
	default:
		return 0, fmt.Errorf("unknown algorithm: %s", name)
	}
}

// Buffered printer shared by the CLI components.
type Printer struct {
	os *bufio.Writer
}

func (this *Printer) Println(msg string, print bool) {
	if print == true {
		mutex.Lock()

		// Best effort, ignore error
		if w, _ := this.os.Write([]byte(msg + "\n")); w > 0 {
			_ = this.os.Flush()
		}

		mutex.Unlock()
	}
}
