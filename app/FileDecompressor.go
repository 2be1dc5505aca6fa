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
	"fmt"
	"os"
	"time"

	"github.com/filepress/filepress"
	"github.com/filepress/filepress/codec"
)

// FileDecompressor drives one decompress call from parsed command-line
// arguments. The expected algorithm comes from the caller; the
// dispatcher rejects the file if its magic disagrees.
type FileDecompressor struct {
	verbosity  uint
	inputName  string
	outputName string
	expected   filepress.Algorithm
	listeners  []filepress.Listener
}

func NewFileDecompressor(argsMap map[string]interface{}) (*FileDecompressor, error) {
	this := new(FileDecompressor)
	this.verbosity = argsMap["verbose"].(uint)
	this.inputName = argsMap["inputName"].(string)
	this.outputName = argsMap["outputName"].(string)

	expected, err := parseAlgorithm(argsMap["algorithm"].(string))

	if err != nil {
		return nil, err
	}

	this.expected = expected
	this.listeners = make([]filepress.Listener, 0)

	if this.verbosity >= 2 {
		if ip, err := NewInfoPrinter(this.verbosity, DECODING, os.Stdout); err == nil {
			this.AddListener(ip)
		}
	}

	return this, nil
}

func (this *FileDecompressor) AddListener(l filepress.Listener) bool {
	if l == nil {
		return false
	}

	this.listeners = append(this.listeners, l)
	return true
}

// Decompress runs the dispatcher and returns a process exit code.
func (this *FileDecompressor) Decompress() int {
	hashing := this.verbosity >= 2
	before := time.Now()

	outputName, err := codec.DecompressFile(this.inputName, this.outputName, this.expected, hashing, this.listeners)

	if err != nil {
		fmt.Printf("%v\n", err)

		if ce, ok := err.(*filepress.CodecError); ok && ce.Kind == filepress.ErrIOOpenFailure {
			return filepress.ERR_OPEN_FILE
		}

		return filepress.ERR_PROCESS
	}

	if this.verbosity >= 1 {
		delta := time.Since(before).Milliseconds()
		log.Println(fmt.Sprintf("Decompressing %s: %d => %d bytes in %d ms (%s)",
			this.inputName, fileSize(this.inputName), fileSize(outputName), delta, outputName), true)
	}

	return filepress.ERR_NONE
}
