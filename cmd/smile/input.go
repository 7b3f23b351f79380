// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"unicode"

	"github.com/SnellerInc/smile/compr"
)

// input is a document read from
// a file, stdin, or the command line
type input struct {
	data []byte
	// compression is the detected compression
	// algorithm, or "" if data was not compressed
	compression string
	// size is the number of bytes read,
	// after hex decoding
	size    int
	release func()
}

func (in *input) Close() {
	if in.release != nil {
		in.release()
		in.release = nil
	}
}

// readInput resolves arg to input data: "-" reads stdin,
// the name of a regular file reads the file, and anything
// else is taken to be the data itself when literal is set.
//
// When hexMode is true, the raw bytes are treated as hex:
// whitespace is stripped and the hex is decoded to binary.
// zstd and s2 compressed input is decompressed.
func readInput(arg string, stdin io.Reader, hexMode, literal bool) (*input, error) {
	in := &input{}
	switch info, err := os.Stat(arg); {
	case arg == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		in.data = data
	case err == nil && info.Mode().IsRegular():
		if err := in.readFile(arg, info.Size()); err != nil {
			return nil, err
		}
	case literal:
		in.data = []byte(arg)
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", arg, err)
	default:
		return nil, fmt.Errorf("%s is not a regular file", arg)
	}
	if hexMode {
		decoded, err := decodeHexInput(in.data)
		if err != nil {
			in.Close()
			return nil, err
		}
		in.data = decoded
	}
	in.size = len(in.data)
	out, algo, err := compr.Decompress(in.data)
	if err != nil {
		in.Close()
		return nil, err
	}
	if algo != "" && dashv {
		logf("decompressed %d bytes of %s input to %d bytes", len(in.data), algo, len(out))
	}
	in.data, in.compression = out, algo
	return in, nil
}

func (in *input) readFile(path string, size int64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if mem, ok := mmap(f, size); ok {
		if dashv {
			logf("mapped %s (%d bytes)", path, size)
		}
		in.data = mem
		in.release = func() { unmap(mem) }
		return nil
	}
	in.data, err = io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

// decodeHexInput strips whitespace from hex-encoded input and decodes
// it to binary bytes. Whitespace between hex digit pairs is allowed
// (e.g., "3a 29 0a 03" or "3a290a03").
func decodeHexInput(data []byte) ([]byte, error) {
	cleaned := bytes.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, data)

	if len(cleaned) == 0 {
		return nil, fmt.Errorf("empty input after stripping whitespace from hex")
	}

	decoded := make([]byte, hex.DecodedLen(len(cleaned)))
	count, err := hex.Decode(decoded, cleaned)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return decoded[:count], nil
}

// writeOutput writes buf to path,
// or to stdout if path is "-"
func writeOutput(e *env, path string, buf []byte) error {
	if path == "-" || path == "" {
		_, err := e.stdout.Write(buf)
		return err
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return err
	}
	if dashv {
		logf("wrote %d bytes to %s", len(buf), path)
	}
	return nil
}
