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
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/slices"
)

var structEncoders sync.Map

var valueType = reflect.TypeOf((*Value)(nil)).Elem()

func init() {
	structEncoders.Store(reflect.TypeOf(time.Time{}), encodefn(func(dst *Writer, v reflect.Value) {
		dst.WriteString(v.Interface().(time.Time).Format(time.RFC3339Nano))
	}))
	structEncoders.Store(reflect.TypeOf(big.Int{}), encodefn(func(dst *Writer, v reflect.Value) {
		x := v.Interface().(big.Int)
		dst.WriteBigInt(&x)
	}))
	structEncoders.Store(reflect.TypeOf(Decimal{}), encodefn(func(dst *Writer, v reflect.Value) {
		d := v.Interface().(Decimal)
		d.Encode(dst)
	}))
}

type encodefn func(*Writer, reflect.Value)

func encodeValue(dst *Writer, src reflect.Value) {
	if src.Kind() == reflect.Interface || src.Kind() == reflect.Pointer {
		if src.IsNil() {
			dst.WriteNull()
			return
		}
	}
	src.Interface().(Value).Encode(dst)
}

func compileEncoder(t reflect.Type) (encodefn, bool) {
	// in order to break dependency chains for (mutually-)recursive types,
	// force any concurrent lookups to delay compilation until eval time
	slow := func(dst *Writer, v reflect.Value) {
		fn, ok := encoderFunc(v.Type())
		if !ok {
			panic("smile.compileEncoder: failed to compile structure?")
		}
		fn(dst, v)
	}
	f, ok := structEncoders.LoadOrStore(t, encodefn(nil))
	if ok {
		fn := f.(encodefn)
		if fn != nil {
			return fn, true
		}
		return slow, true
	}
	type fieldEnc struct {
		index     int
		name      string
		fn        encodefn
		omitempty bool
	}

	var encs []fieldEnc
	fields := reflect.VisibleFields(t)
	for i := range fields {
		if fields[i].PkgPath != "" || len(fields[i].Index) != 1 {
			continue // unexported or promoted embedded struct field
		}
		name := fields[i].Name
		typ := fields[i].Type
		omitempty := false
		if val, ok := fields[i].Tag.Lookup("smile"); ok {
			var rest, tagname string
			tagname, rest, ok = strings.Cut(val, ",")
			if tagname != "" {
				name = tagname
			}
			if ok && rest == "omitempty" {
				omitempty = true
			}
		}
		if name == "-" {
			continue // explicitly ignored
		}
		efn, ok := encoderFunc(typ)
		if !ok {
			continue
		}
		encs = append(encs, fieldEnc{
			index:     fields[i].Index[0],
			name:      name,
			fn:        efn,
			omitempty: omitempty,
		})
	}
	self := func(dst *Writer, src reflect.Value) {
		dst.BeginObject()
		for i := range encs {
			val := src.Field(encs[i].index)
			if encs[i].omitempty && val.IsZero() {
				continue
			}
			dst.WriteKey(encs[i].name)
			encs[i].fn(dst, val)
		}
		dst.EndObject()
	}
	structEncoders.Store(t, encodefn(self))
	return self, true
}

func encodeList(dst *Writer, inner encodefn, src reflect.Value) {
	l := src.Len()
	dst.BeginArray()
	for i := 0; i < l; i++ {
		inner(dst, src.Index(i))
	}
	dst.EndArray()
}

func encoderFunc(t reflect.Type) (encodefn, bool) {
	if t.Implements(valueType) {
		return encodeValue, true
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(dst *Writer, src reflect.Value) {
			dst.WriteInt(src.Int())
		}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return func(dst *Writer, src reflect.Value) {
			u := src.Uint()
			if u > math.MaxInt64 {
				dst.WriteBigInt(new(big.Int).SetUint64(u))
				return
			}
			dst.WriteInt(int64(u))
		}, true
	case reflect.Float32:
		return func(dst *Writer, src reflect.Value) {
			dst.WriteFloat32(float32(src.Float()))
		}, true
	case reflect.Float64:
		return func(dst *Writer, src reflect.Value) {
			dst.WriteFloat64(src.Float())
		}, true
	case reflect.Slice, reflect.Array:
		elem := t.Elem()
		if elem.Kind() == reflect.Uint8 {
			return func(dst *Writer, src reflect.Value) {
				dst.fail(unsupported(dst.Size(), "binary data"))
			}, true
		}
		inner, ok := encoderFunc(elem)
		if !ok {
			return nil, false
		}
		return func(dst *Writer, src reflect.Value) {
			if src.Kind() == reflect.Slice && src.IsNil() {
				dst.WriteNull()
				return
			}
			encodeList(dst, inner, src)
		}, true
	case reflect.String:
		return func(dst *Writer, src reflect.Value) {
			dst.WriteString(src.String())
		}, true
	case reflect.Map:
		kt := t.Key()
		if kt.Kind() != reflect.String {
			return nil, false
		}
		eval, ok := encoderFunc(t.Elem())
		if !ok {
			return nil, false
		}
		return func(dst *Writer, src reflect.Value) {
			if src.IsNil() {
				dst.WriteNull()
				return
			}
			// sort keys so that output is deterministic
			keys := src.MapKeys()
			slices.SortFunc(keys, func(a, b reflect.Value) int {
				return strings.Compare(a.String(), b.String())
			})
			dst.BeginObject()
			for i := range keys {
				dst.WriteKey(keys[i].String())
				eval(dst, src.MapIndex(keys[i]))
			}
			dst.EndObject()
		}, true
	case reflect.Struct:
		return compileEncoder(t)
	case reflect.Bool:
		return func(dst *Writer, src reflect.Value) {
			dst.WriteBool(src.Bool())
		}, true
	case reflect.Pointer:
		body, ok := encoderFunc(t.Elem())
		if !ok {
			return nil, false
		}
		return func(dst *Writer, src reflect.Value) {
			if src.IsNil() {
				dst.WriteNull()
			} else {
				body(dst, src.Elem())
			}
		}, true
	case reflect.Interface:
		return func(dst *Writer, src reflect.Value) {
			if src.IsNil() {
				dst.WriteNull()
				return
			}
			val := src.Elem()
			fn, ok := encoderFunc(val.Type())
			if !ok {
				dst.WriteNull()
				return
			}
			fn(dst, val)
		}, true
	default:
		return nil, false
	}
}

// Marshal encodes src into dst.
//
// Structs become objects with one key per exported
// field; the key can be changed with a `smile:"name"`
// tag and ",omitempty" skips zero values.
// Maps must have string keys and are written
// in sorted key order. Values of types that
// implement Value are encoded as themselves.
func Marshal(dst *Writer, src any) error {
	if src == nil {
		dst.WriteNull()
		return nil
	}
	v := reflect.ValueOf(src)
	t := v.Type()
	enc, ok := encoderFunc(t)
	if !ok {
		return fmt.Errorf("smile.Marshal: cannot marshal type %s", t)
	}
	enc(dst, v)
	return dst.Err()
}

// MarshalDocument encodes src as a complete document.
// src must marshal to an array or an object.
// If opts is nil, DefaultOptions are used.
func MarshalDocument(src any, opts *Options) ([]byte, error) {
	o := DefaultOptions()
	if opts != nil {
		o = *opts
	}
	w := NewWriter(o)
	if err := Marshal(w, src); err != nil {
		return nil, err
	}
	buf := w.Bytes()
	if b := buf[HeaderSize]; b != tokArrayStart && b != tokObjectStart {
		return nil, &InvalidInputError{Kind: tokenKind(b)}
	}
	return buf, nil
}

// tokenKind returns the Kind of the
// value introduced by token byte b
func tokenKind(b byte) Kind {
	switch valueClass[b] {
	case classLiteral:
		switch b {
		case tokEmptyString:
			return StringKind
		case tokLiteralNull:
			return NullKind
		default:
			return BoolKind
		}
	case classInt, classSmallInt:
		return IntKind
	case classFloat:
		if b == tokBigDecimal {
			return DecimalKind
		}
		return FloatKind
	case classArrayStart:
		return ArrayKind
	case classObjectStart:
		return ObjectKind
	default:
		return StringKind
	}
}

// ToAny converts v to plain Go values:
// nil, bool, int64, *big.Int, float64, float32,
// string, []any and map[string]any.
// Decimals are converted to float64
// and may lose precision.
func ToAny(v Value) any {
	if isnull(v) {
		return nil
	}
	switch v := v.(type) {
	case Bool:
		return bool(v)
	case Int:
		return int64(v)
	case *BigInt:
		return v.Big()
	case Float:
		return float64(v)
	case Float32:
		return float32(v)
	case *Decimal:
		return v.Float64()
	case String:
		return string(v)
	case Array:
		out := make([]any, len(v))
		for i := range v {
			out[i] = ToAny(v[i])
		}
		return out
	case *Object:
		out := make(map[string]any, v.Len())
		v.Each(func(f Field) bool {
			out[f.Key] = ToAny(f.Value)
			return true
		})
		return out
	default:
		return nil
	}
}
