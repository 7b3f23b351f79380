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
	"fmt"

	"github.com/SnellerInc/smile/smile"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/pflag"
	"sigs.k8s.io/yaml"
)

// cborEncMode sorts map keys so
// that output is deterministic
var cborEncMode cbor.EncMode

func init() {
	var err error
	cborEncMode, err = cbor.EncOptions{Sort: cbor.SortCanonical}.EncMode()
	if err != nil {
		panic("cbor encoder initialization failed: " + err.Error())
	}
}

type renderOptions struct {
	format string
	json   smile.JSONOptions
}

// render converts v to the requested output format
func render(v smile.Value, opts *renderOptions) ([]byte, error) {
	switch opts.format {
	case "json":
		buf, err := smile.AppendJSON(nil, v, &opts.json)
		if err != nil {
			return nil, err
		}
		return append(buf, '\n'), nil
	case "yaml":
		buf, err := smile.AppendJSON(nil, v, nil)
		if err != nil {
			return nil, err
		}
		return yaml.JSONToYAML(buf)
	case "cbor":
		return cborEncMode.Marshal(smile.ToAny(v))
	default:
		return nil, fmt.Errorf("unknown output format %q (want json, yaml or cbor)", opts.format)
	}
}

// entry point for 'smile decode ...'
func decodeFlags(fs *pflag.FlagSet, e *env) func(args []string) error {
	var (
		pretty   bool
		escape   bool
		hexMode  bool
		format   string
		output   string
		maxDepth int
	)
	fs.BoolVar(&pretty, "pretty", false, "pretty-print JSON output")
	fs.BoolVar(&escape, "escape-unicode", false, "write non-ASCII characters in JSON output as \\u escapes")
	fs.BoolVar(&hexMode, "hex", false, "input is hex-encoded")
	fs.StringVarP(&format, "format", "f", "json", "output format: json, yaml or cbor")
	fs.StringVarP(&output, "output", "o", "-", "output file (or - for stdout)")
	fs.IntVar(&maxDepth, "max-depth", smile.DefaultMaxDepth, "maximum container nesting")

	return func(args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("decode takes one argument: a file path, a Smile string, or - to read stdin")
		}
		in, err := readInput(args[0], e.stdin, hexMode, true)
		if err != nil {
			return err
		}
		defer in.Close()

		d := smile.Decoder{MaxDepth: e.maxDepth(maxDepth)}
		v, err := d.Decode(in.data)
		if err != nil {
			return fmt.Errorf("an error occurred while decoding the Smile data: %w", err)
		}
		opts := renderOptions{format: format}
		if e.flagBool("pretty", pretty, e.conf.Pretty) {
			opts.json.Indent = defaultIndent
			if e.conf.Indent != "" {
				opts.json.Indent = e.conf.Indent
			}
		}
		opts.json.EscapeUnicode = e.flagBool("escape-unicode", escape, e.conf.EscapeUnicode)
		buf, err := render(v, &opts)
		if err != nil {
			return err
		}
		return writeOutput(e, output, buf)
	}
}
