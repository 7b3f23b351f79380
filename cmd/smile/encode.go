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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/SnellerInc/smile/compr"
	"github.com/SnellerInc/smile/smile"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"
	"sigs.k8s.io/yaml"
)

// cborDecMode decodes CBOR maps as
// map[string]any so they can be marshaled
// as Smile objects
var cborDecMode cbor.DecMode

func init() {
	var err error
	cborDecMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("cbor decoder initialization failed: " + err.Error())
	}
}

// fromJSON decodes exactly one JSON value
func fromJSON(text []byte) (smile.Value, error) {
	d := json.NewDecoder(bytes.NewReader(text))
	v, err := smile.FromJSON(d)
	if err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}
	if _, err := d.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode JSON: unexpected data after the top-level value")
	}
	return v, nil
}

// encodeDocument converts data in the
// given format into a Smile document
func encodeDocument(data []byte, from string, opts *smile.Options) ([]byte, error) {
	switch from {
	case "json":
		// accept comments and trailing commas
		v, err := fromJSON(jsonc.ToJSON(data))
		if err != nil {
			return nil, err
		}
		return smile.Encode(v, opts)
	case "yaml":
		text, err := yaml.YAMLToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
		v, err := fromJSON(text)
		if err != nil {
			return nil, err
		}
		return smile.Encode(v, opts)
	case "cbor":
		var x any
		if err := cborDecMode.Unmarshal(data, &x); err != nil {
			return nil, fmt.Errorf("decode CBOR: %w", err)
		}
		return smile.MarshalDocument(x, opts)
	default:
		return nil, fmt.Errorf("unknown input format %q (want json, yaml or cbor)", from)
	}
}

// entry point for 'smile encode ...'
func encodeFlags(fs *pflag.FlagSet, e *env) func(args []string) error {
	var (
		from         string
		noKeys       bool
		noValues     bool
		noRawBinary  bool
		compression  string
		output       string
		appendMarker bool
	)
	fs.StringVar(&from, "from", "json", "input format: json, yaml or cbor")
	fs.BoolVar(&noKeys, "no-shared-keys", false, "disable back-references for repeated keys")
	fs.BoolVar(&noValues, "no-shared-values", false, "disable back-references for repeated string values")
	fs.BoolVar(&noRawBinary, "no-raw-binary", false, "clear the raw binary header flag")
	fs.StringVar(&compression, "compress", "", "compress the output ("+strings.Join(compr.Names(), ", ")+")")
	fs.StringVarP(&output, "output", "o", "-", "output file (or - for stdout)")
	fs.BoolVar(&appendMarker, "end-marker", false, "append an end-of-content marker")

	return func(args []string) error {
		arg := "-"
		switch len(args) {
		case 0:
		case 1:
			arg = args[0]
		default:
			return fmt.Errorf("encode takes at most one argument: a file path or - to read stdin")
		}
		in, err := readInput(arg, e.stdin, false, false)
		if err != nil {
			return err
		}
		defer in.Close()

		opts := smile.Options{
			SharedKeys:   !noKeys,
			SharedValues: !noValues,
			RawBinary:    !noRawBinary,
		}
		if !e.fs.Changed("no-shared-keys") && e.conf.SharedKeys != nil {
			opts.SharedKeys = *e.conf.SharedKeys
		}
		if !e.fs.Changed("no-shared-values") && e.conf.SharedValues != nil {
			opts.SharedValues = *e.conf.SharedValues
		}
		if !e.fs.Changed("no-raw-binary") && e.conf.RawBinary != nil {
			opts.RawBinary = *e.conf.RawBinary
		}
		buf, err := encodeDocument(in.data, from, &opts)
		if err != nil {
			return err
		}
		if appendMarker {
			buf = append(buf, 0xfe)
		}
		if dashv {
			logf("encoded %d bytes of %s as %d bytes of Smile", in.size, from, len(buf))
		}
		if name := e.flagString("compress", compression, e.conf.Compression); name != "" {
			c := compr.Compression(name)
			if c == nil {
				return fmt.Errorf("unknown compression %q (want one of %s)", name, strings.Join(compr.Names(), ", "))
			}
			buf = c.Compress(buf, nil)
			if dashv {
				logf("compressed with %s to %d bytes", c.Name(), len(buf))
			}
		}
		return writeOutput(e, output, buf)
	}
}
