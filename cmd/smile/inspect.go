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

	"github.com/SnellerInc/smile/smile"

	"github.com/spf13/pflag"
	"golang.org/x/crypto/blake2b"
)

// report formats the result of inspecting a document
func report(in *input, st *smile.Stats) []byte {
	var b bytes.Buffer
	line := func(name string, val any) {
		fmt.Fprintf(&b, "%-20s%v\n", name+":", val)
	}
	sum := blake2b.Sum256(in.data)
	line("size", in.size)
	if in.compression != "" {
		line("compression", fmt.Sprintf("%s (%d bytes decompressed)", in.compression, len(in.data)))
	}
	line("blake2b-256", hex.EncodeToString(sum[:]))
	line("version", st.Header.Version)
	line("shared keys", st.Header.SharedKeys)
	line("shared values", st.Header.SharedValues)
	line("raw binary bit", st.Header.RawBinary)
	line("max depth", st.MaxDepth)
	line("objects", st.Objects)
	line("arrays", st.Arrays)
	line("strings", st.Strings)
	line("numbers", st.Numbers)
	line("literals", st.Literals)
	line("shared key refs", st.SharedKeyRefs)
	line("shared value refs", st.SharedValueRefs)
	line("skipped tokens", st.Skipped)
	line("key table resets", st.KeyTableResets)
	line("value table resets", st.ValueTableResets)
	line("end marker", st.EndMarker)
	line("trailing bytes", len(in.data)-st.Size)
	return b.Bytes()
}

// entry point for 'smile inspect ...'
func inspectFlags(fs *pflag.FlagSet, e *env) func(args []string) error {
	var (
		hexMode  bool
		maxDepth int
	)
	fs.BoolVar(&hexMode, "hex", false, "input is hex-encoded")
	fs.IntVar(&maxDepth, "max-depth", smile.DefaultMaxDepth, "maximum container nesting")

	return func(args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("inspect takes one argument: a file path, a Smile string, or - to read stdin")
		}
		in, err := readInput(args[0], e.stdin, hexMode, true)
		if err != nil {
			return err
		}
		defer in.Close()

		var st smile.Stats
		d := smile.Decoder{MaxDepth: e.maxDepth(maxDepth), Stats: &st}
		if _, err := d.Decode(in.data); err != nil {
			return fmt.Errorf("an error occurred while decoding the Smile data: %w", err)
		}
		return writeOutput(e, "-", report(in, &st))
	}
}
