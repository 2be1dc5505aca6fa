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

// FileCompressor drives one compress call from parsed command-line
// arguments: it resolves paths, attaches the verbose listener, invokes
// the dispatcher and reports the outcome.
type FileCompressor struct {
	verbosity  uint
	inputName  string
	outputName string
	algo       filepress.Algorithm
	listeners  []filepress.Listener
}

func NewFileCompressor(argsMap map[string]interface{}) (*FileCompressor, error) {
	this := new(FileCompressor)
	this.verbosity = argsMap["verbose"].(uint)
	this.inputName = argsMap["inputName"].(string)
	this.outputName = argsMap["outputName"].(string)

	algo, err := parseAlgorithm(argsMap["algorithm"].(string))

	if err != nil {
		return nil, err
	}

	this.algo = algo
	this.listeners = make([]filepress.Listener, 0)

	if this.verbosity >= 2 {
		if ip, err := NewInfoPrinter(this.verbosity, ENCODING, os.Stdout); err == nil {
			this.AddListener(ip)
		}
	}

	return this, nil
}

func (this *FileCompressor) AddListener(l filepress.Listener) bool {
	if l == nil {
		return false
	}

	this.listeners = append(this.listeners, l)
	return true
}

// Compress runs the dispatcher and returns a process exit code.
func (this *FileCompressor) Compress() int {
	hashing := this.verbosity >= 2
	before := time.Now()

	outputName, err := codec.CompressFile(this.inputName, this.outputName, this.algo, hashing, this.listeners)

	if err != nil {
		fmt.Printf("%v\n", err)

		if ce, ok := err.(*filepress.CodecError); ok && ce.Kind == filepress.ErrIOOpenFailure {
			return filepress.ERR_OPEN_FILE
		}

		return filepress.ERR_PROCESS
	}

	if this.verbosity >= 1 {
		delta := time.Since(before).Milliseconds()
		inSize := fileSize(this.inputName)
		outSize := fileSize(outputName)
		log.Println(fmt.Sprintf("Compressing %s: %d => %d bytes in %d ms (%s)",
			this.inputName, inSize, outSize, delta, outputName), true)

		if inSize > 0 {
			log.Println(fmt.Sprintf("Ratio: %f", float64(outSize)/float64(inSize)), true)
		}
	}

	return filepress.ERR_NONE
}

func fileSize(name string) int64 {
	st, err := os.Stat(name)

	if err != nil {
		return 0
	}

	return st.Size()
}
