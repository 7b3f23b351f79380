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

package smile

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/big"
	"strconv"
	"strings"
)

func jsonObject(d *json.Decoder) (Value, error) {
	out := &Object{}
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		if tok == json.Delim('}') {
			break
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string object key; found %v", tok)
		}
		body, err := d.Token()
		if err != nil {
			return nil, err
		}
		v, err := fromJSON(body, d)
		if err != nil {
			return nil, err
		}
		out.Set(name, v)
	}
	return out, nil
}

func jsonArray(d *json.Decoder) (Value, error) {
	out := Array{}
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		if tok == json.Delim(']') {
			break
		}
		v, err := fromJSON(tok, d)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// parseNumber converts the text of a JSON
// number to Int, BigInt, or Float
func parseNumber(str string) (Value, error) {
	if !strings.ContainsAny(str, ".eE") {
		if i, err := strconv.ParseInt(str, 10, 64); err == nil {
			return Int(i), nil
		}
		if b, ok := new(big.Int).SetString(str, 10); ok {
			return NewBigInt(b), nil
		}
	}
	f, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return nil, fmt.Errorf("number %q out of range", str)
	}
	return Float(f), nil
}

func fromJSON(tok json.Token, d *json.Decoder) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		if t == json.Delim('{') {
			return jsonObject(d)
		}
		if t == json.Delim('[') {
			return jsonArray(d)
		}
		return nil, fmt.Errorf("fromJSON: unexpected delim %v", t)
	case json.Number:
		return parseNumber(t.String())
	case float64:
		return Float(t), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null{}, nil
	default:
		return nil, fmt.Errorf("fromJSON: unexpected token %v", t)
	}
}

// FromJSON decodes one JSON value from d.
// Integers become Int (or BigInt when they
// do not fit in 64 bits) and other numbers
// become Float.
func FromJSON(d *json.Decoder) (Value, error) {
	d.UseNumber()
	tok, err := d.Token()
	if err != nil {
		return nil, err
	}
	v, err := fromJSON(tok, d)
	if err == io.EOF {
		// decoding a single value should
		// succeed without hitting EOF
		err = io.ErrUnexpectedEOF
	}
	return v, err
}

// JSONOptions controls JSON output.
type JSONOptions struct {
	// Indent, if non-empty, enables multi-line
	// output with one Indent per nesting level.
	Indent string
	// EscapeUnicode writes non-ASCII
	// characters as \u escapes.
	EscapeUnicode bool
}

type jsonWriter struct {
	opts  JSONOptions
	out   []byte
	depth int
}

func (j *jsonWriter) newline() {
	if j.opts.Indent == "" {
		return
	}
	j.out = append(j.out, '\n')
	for i := 0; i < j.depth; i++ {
		j.out = append(j.out, j.opts.Indent...)
	}
}

func appendJSONFloat(dst []byte, f float64, bits int) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return dst, fmt.Errorf("smile: cannot represent %v in JSON", f)
	}
	// same formatting rules as encoding/json
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 {
		if bits == 64 && (abs < 1e-6 || abs >= 1e21) || bits == 32 && (float32(abs) < 1e-6 || float32(abs) >= 1e21) {
			format = 'e'
		}
	}
	dst = strconv.AppendFloat(dst, f, format, -1, bits)
	if format == 'e' {
		// clean up e-09 to e-9
		n := len(dst)
		if n >= 4 && dst[n-4] == 'e' && dst[n-3] == '-' && dst[n-2] == '0' {
			dst[n-2] = dst[n-1]
			dst = dst[:n-1]
		}
	}
	return dst, nil
}

func (j *jsonWriter) value(v Value) error {
	if isnull(v) {
		j.out = append(j.out, "null"...)
		return nil
	}
	var err error
	switch v := v.(type) {
	case Bool:
		j.out = strconv.AppendBool(j.out, bool(v))
	case Int:
		j.out = strconv.AppendInt(j.out, int64(v), 10)
	case *BigInt:
		j.out = v.Big().Append(j.out, 10)
	case Float:
		j.out, err = appendJSONFloat(j.out, float64(v), 64)
	case Float32:
		j.out, err = appendJSONFloat(j.out, float64(v), 32)
	case *Decimal:
		j.out = append(j.out, v.String()...)
	case String:
		j.out = appendQuoted(j.out, string(v), j.opts.EscapeUnicode)
	case Array:
		if len(v) == 0 {
			j.out = append(j.out, '[', ']')
			return nil
		}
		j.out = append(j.out, '[')
		j.depth++
		for i := range v {
			if i > 0 {
				j.out = append(j.out, ',')
			}
			j.newline()
			if err := j.value(v[i]); err != nil {
				return err
			}
		}
		j.depth--
		j.newline()
		j.out = append(j.out, ']')
	case *Object:
		if v.Len() == 0 {
			j.out = append(j.out, '{', '}')
			return nil
		}
		j.out = append(j.out, '{')
		j.depth++
		for i := range v.fields {
			if i > 0 {
				j.out = append(j.out, ',')
			}
			j.newline()
			j.out = appendQuoted(j.out, v.fields[i].Key, j.opts.EscapeUnicode)
			j.out = append(j.out, ':')
			if j.opts.Indent != "" {
				j.out = append(j.out, ' ')
			}
			if err := j.value(v.fields[i].Value); err != nil {
				return err
			}
		}
		j.depth--
		j.newline()
		j.out = append(j.out, '}')
	default:
		return fmt.Errorf("smile: cannot write %T as JSON", v)
	}
	return err
}

// AppendJSON appends the JSON text of v to dst.
func AppendJSON(dst []byte, v Value, opts *JSONOptions) ([]byte, error) {
	j := jsonWriter{out: dst}
	if opts != nil {
		j.opts = *opts
	}
	if err := j.value(v); err != nil {
		return dst, err
	}
	return j.out, nil
}

// WriteJSON writes the JSON text of v to w.
func WriteJSON(w io.Writer, v Value, opts *JSONOptions) error {
	buf, err := AppendJSON(nil, v, opts)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}
