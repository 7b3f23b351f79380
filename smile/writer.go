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
	"math/big"
	"unicode/utf8"

	ascii "github.com/SnellerInc/smile/utf8"
)

// Options controls how a document is encoded.
type Options struct {
	// SharedKeys enables back-references
	// for repeated object keys.
	SharedKeys bool
	// SharedValues enables back-references
	// for repeated short string values.
	SharedValues bool
	// RawBinary is recorded in the header.
	RawBinary bool
}

// DefaultOptions returns options with
// every feature enabled.
func DefaultOptions() Options {
	return Options{SharedKeys: true, SharedValues: true, RawBinary: true}
}

type segkind uint8

const (
	segarray segkind = iota
	segobject
)

// Writer builds a Smile document incrementally.
//
// Containers are written with paired calls to
// BeginArray/EndArray and BeginObject/EndObject.
// Inside an object, every value must be
// preceded by a call to WriteKey.
//
// Writer does not return errors from its Write
// methods; the first problem is recorded and
// returned by Err.
type Writer struct {
	buf    []byte
	opts   Options
	keys   Symtab
	values Symtab
	segs   []segkind
	err    error
}

// NewWriter returns a Writer that has
// already written the document header.
func NewWriter(opts Options) *Writer {
	w := &Writer{}
	w.Reset(opts)
	return w
}

// Reset discards the contents of w,
// clears its shared tables, and writes
// a new header.
func (w *Writer) Reset(opts Options) {
	w.opts = opts
	w.buf = appendHeader(w.buf[:0], &w.opts)
	w.segs = w.segs[:0]
	w.err = nil
	w.keys.Reset()
	w.values.Reset()
	if opts.SharedKeys {
		w.keys.index()
	}
	if opts.SharedValues {
		w.values.index()
	}
}

// Bytes returns the encoded document.
// The returned slice aliases the
// Writer's internal buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Size returns the number of bytes written.
func (w *Writer) Size() int { return len(w.buf) }

// Err returns the first error encountered
// by a Write method, if any.
func (w *Writer) Err() error { return w.err }

// Depth returns the number of open containers.
func (w *Writer) Depth() int { return len(w.segs) }

func (w *Writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

// BeginArray begins an array. Elements are
// written with the Write* methods until
// EndArray is called.
func (w *Writer) BeginArray() {
	w.segs = append(w.segs, segarray)
	w.buf = append(w.buf, tokArrayStart)
}

// EndArray ends an array.
//
// If EndArray is not paired with a
// corresponding BeginArray call,
// it will panic.
func (w *Writer) EndArray() {
	if len(w.segs) == 0 || w.segs[len(w.segs)-1] != segarray {
		panic("EndArray() called when current segment is not an array")
	}
	w.segs = w.segs[:len(w.segs)-1]
	w.buf = append(w.buf, tokArrayEnd)
}

// BeginObject begins an object. Fields
// are written with paired calls to WriteKey
// and one of the Write* methods, followed
// by EndObject.
func (w *Writer) BeginObject() {
	w.segs = append(w.segs, segobject)
	w.buf = append(w.buf, tokObjectStart)
}

// EndObject ends an object.
//
// If EndObject is not paired with a
// corresponding BeginObject call,
// it will panic.
func (w *Writer) EndObject() {
	if len(w.segs) == 0 || w.segs[len(w.segs)-1] != segobject {
		panic("EndObject() called when current segment is not an object")
	}
	w.segs = w.segs[:len(w.segs)-1]
	w.buf = append(w.buf, tokObjectEnd)
}

// WriteEnd writes an end-of-content marker.
// Decoders stop reading at the marker.
//
// WriteEnd panics if a container is still open.
func (w *Writer) WriteEnd() {
	if w.Depth() != 0 {
		panic("WriteEnd() called with open containers")
	}
	w.buf = append(w.buf, tokEndContent)
}

// classify reports whether str is ASCII,
// recording an error if it is not valid UTF-8
func (w *Writer) classify(str string) bool {
	n := ascii.ASCIIPrefix(str)
	if n == len(str) {
		return true
	}
	if !utf8.ValidString(str[n:]) {
		w.fail(&InvalidInputError{Kind: StringKind, Msg: "string is not valid UTF-8"})
	}
	return false
}

// WriteKey writes an object key.
func (w *Writer) WriteKey(key string) {
	if key == "" {
		w.buf = append(w.buf, keyEmpty)
		return
	}
	if w.opts.SharedKeys {
		if id, ok := w.keys.Find(key); ok {
			if id <= maxShortKeyRef {
				w.buf = append(w.buf, keySharedShort+byte(id))
			} else {
				w.buf = append(w.buf, keySharedLong+byte(id>>8), byte(id))
			}
			return
		}
	}
	isascii := w.classify(key)
	switch n := len(key); {
	case isascii && n <= maxShortKeyASCII:
		w.buf = append(w.buf, keyShortASCII+byte(n-1))
		w.buf = append(w.buf, key...)
	case !isascii && n <= maxShortKeyUTF8:
		w.buf = append(w.buf, keyShortUnicode+byte(n-2))
		w.buf = append(w.buf, key...)
	default:
		w.buf = append(w.buf, keyLong)
		w.buf = append(w.buf, key...)
		w.buf = append(w.buf, tokEndString)
	}
	if w.opts.SharedKeys {
		w.keys.Add(key)
	}
}

// WriteNull writes a null.
func (w *Writer) WriteNull() {
	w.buf = append(w.buf, tokLiteralNull)
}

// WriteBool writes a boolean.
func (w *Writer) WriteBool(b bool) {
	if b {
		w.buf = append(w.buf, tokTrue)
	} else {
		w.buf = append(w.buf, tokFalse)
	}
}

// WriteInt writes an integer using the
// smallest of the small-int, 32-bit and
// 64-bit forms.
func (w *Writer) WriteInt(i int64) {
	if int64(int32(i)) != i {
		w.buf = append(w.buf, tokInt64)
		w.buf = appendVInt(w.buf, zigzag64(i))
		return
	}
	z := zigzag32(int32(i))
	if z <= 0x1f {
		w.buf = append(w.buf, tokSmallInt+byte(z))
		return
	}
	w.buf = append(w.buf, tokInt32)
	w.buf = appendVInt(w.buf, z)
}

// WriteBigInt writes an arbitrary-precision
// integer. Values that fit in an int64 are
// written with WriteInt.
func (w *Writer) WriteBigInt(x *big.Int) {
	if x.IsInt64() {
		w.WriteInt(x.Int64())
		return
	}
	w.buf = append(w.buf, tokBigInt)
	w.appendBig(x)
}

func (w *Writer) appendBig(x *big.Int) {
	raw := twosComplement(x)
	w.buf = appendVInt(w.buf, uint64(len(raw)))
	w.buf = append7Bit(w.buf, raw)
}

// WriteFloat64 writes a double-precision float.
func (w *Writer) WriteFloat64(f float64) {
	w.buf = append(w.buf, tokFloat64)
	w.buf = appendFloat64(w.buf, f)
}

// WriteFloat32 writes a single-precision float.
func (w *Writer) WriteFloat32(f float32) {
	w.buf = append(w.buf, tokFloat32)
	w.buf = appendFloat32(w.buf, f)
}

// WriteDecimal writes the decimal
// unscaled * 10^(-scale).
func (w *Writer) WriteDecimal(unscaled *big.Int, scale int32) {
	w.buf = append(w.buf, tokBigDecimal)
	w.buf = appendVInt(w.buf, zigzag32(scale))
	w.appendBig(unscaled)
}

// WriteString writes a string. Strings of at
// most 64 bytes are written in a short form
// and, when shared values are enabled, become
// eligible for back-references.
func (w *Writer) WriteString(str string) {
	n := len(str)
	if n == 0 {
		w.buf = append(w.buf, tokEmptyString)
		return
	}
	if n > maxSmallASCII {
		if w.classify(str) {
			w.buf = append(w.buf, tokLongASCII)
		} else {
			w.buf = append(w.buf, tokLongUnicode)
		}
		w.buf = append(w.buf, str...)
		w.buf = append(w.buf, tokEndString)
		return
	}
	if w.opts.SharedValues {
		if id, ok := w.values.Find(str); ok {
			if id <= maxShortSharedRef {
				w.buf = append(w.buf, tokSharedShort+byte(id))
			} else {
				w.buf = append(w.buf, tokSharedLong+byte(id>>8), byte(id))
			}
			return
		}
	}
	switch isascii := w.classify(str); {
	case isascii && n <= maxTinyASCII:
		w.buf = append(w.buf, tokTinyASCII+byte(n-1))
	case isascii:
		w.buf = append(w.buf, tokSmallASCII+byte(n-maxTinyASCII-1))
	case n <= maxTinyUnicode:
		w.buf = append(w.buf, tokTinyUnicode+byte(n-2))
	default:
		w.buf = append(w.buf, tokSmallUnicode+byte(n-maxTinyUnicode-1))
	}
	w.buf = append(w.buf, str...)
	if w.opts.SharedValues {
		w.values.Add(str)
	}
}

// Encode encodes v as a complete document.
// The root value must be an Array or an *Object.
// If opts is nil, DefaultOptions are used.
func Encode(v Value, opts *Options) ([]byte, error) {
	if isnull(v) {
		return nil, &InvalidInputError{Kind: NullKind}
	}
	if k := v.Kind(); k != ArrayKind && k != ObjectKind {
		return nil, &InvalidInputError{Kind: k}
	}
	o := DefaultOptions()
	if opts != nil {
		o = *opts
	}
	w := NewWriter(o)
	v.Encode(w)
	if w.err != nil {
		return nil, w.err
	}
	return w.Bytes(), nil
}
