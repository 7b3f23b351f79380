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
	"bytes"
	"math"
	"unicode/utf8"

	ascii "github.com/SnellerInc/smile/utf8"
)

// DefaultMaxDepth is the container nesting
// limit used when Decoder.MaxDepth is zero.
const DefaultMaxDepth = 1000

// Decoder decodes Smile documents.
// The zero value is ready to use.
type Decoder struct {
	// MaxDepth limits container nesting.
	// If zero, DefaultMaxDepth is used.
	MaxDepth int
	// Stats, if non-nil, is populated
	// after each call to Decode.
	Stats *Stats
}

// Decode decodes a complete Smile document
// using the default Decoder.
func Decode(buf []byte) (Value, error) {
	var d Decoder
	return d.Decode(buf)
}

// Decode decodes the document in buf.
// The root of the document must be an
// array or an object; bytes following
// the root value are ignored.
func (d *Decoder) Decode(buf []byte) (Value, error) {
	hdr, _, err := ReadHeader(buf)
	if err != nil {
		return nil, err
	}
	s := decodeState{
		buf:      buf,
		off:      HeaderSize,
		hdr:      hdr,
		maxdepth: d.MaxDepth,
	}
	if s.maxdepth <= 0 {
		s.maxdepth = DefaultMaxDepth
	}
	s.stats.Header = hdr
	v, err := s.root()
	if err != nil {
		return nil, err
	}
	if d.Stats != nil {
		s.stats.Size = s.off
		s.stats.KeyTableResets = s.keys.Resets()
		s.stats.ValueTableResets = s.values.Resets()
		*d.Stats = s.stats
	}
	return v, nil
}

type decodeState struct {
	buf      []byte
	off      int
	hdr      Header
	keys     Symtab
	values   Symtab
	done     bool
	maxdepth int
	stats    Stats
}

func (s *decodeState) next() (byte, bool) {
	if s.off >= len(s.buf) {
		s.done = true
		return 0, false
	}
	b := s.buf[s.off]
	s.off++
	return b, true
}

func (s *decodeState) root() (Value, error) {
	b, ok := s.next()
	if !ok {
		return nil, truncated(s.off, "document (no root value)")
	}
	switch b {
	case tokArrayStart:
		return s.array(1)
	case tokObjectStart:
		return s.object(1)
	default:
		return nil, malformed(s.off-1, "root value must be an array or object; found %s (0x%02x)", valueClass[b], b)
	}
}

func (s *decodeState) enter(depth int) error {
	if depth > s.maxdepth {
		return malformed(s.off-1, "nesting depth exceeds %d", s.maxdepth)
	}
	if depth > s.stats.MaxDepth {
		s.stats.MaxDepth = depth
	}
	return nil
}

// array decodes array elements up to the
// closing token, an end-of-content marker,
// or the end of the buffer
func (s *decodeState) array(depth int) (Value, error) {
	if err := s.enter(depth); err != nil {
		return nil, err
	}
	s.stats.Arrays++
	out := Array{}
	for !s.done {
		b, ok := s.next()
		if !ok || b == tokArrayEnd {
			break
		}
		v, skip, err := s.value(b, depth)
		if err != nil {
			return nil, err
		}
		if !skip {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *decodeState) object(depth int) (Value, error) {
	if err := s.enter(depth); err != nil {
		return nil, err
	}
	s.stats.Objects++
	out := &Object{}
	for !s.done {
		b, ok := s.next()
		if !ok || b == tokObjectEnd {
			break
		}
		key, kskip, err := s.key(b)
		if err != nil {
			return nil, err
		}
		vb, ok := s.next()
		if !ok {
			return nil, truncated(s.off, "object field value")
		}
		v, vskip, err := s.value(vb, depth)
		if err != nil {
			return nil, err
		}
		if !kskip && !vskip {
			out.Set(key, v)
		}
	}
	return out, nil
}

// value decodes the value introduced by
// token byte b. If skip is true, the token
// produced nothing and should be ignored.
func (s *decodeState) value(b byte, depth int) (v Value, skip bool, err error) {
	start := s.off - 1
	switch c := valueClass[b]; c {
	case classSkip:
		s.stats.Skipped++
		return nil, true, nil
	case classEndContent:
		s.done = true
		s.stats.EndMarker = true
		return nil, true, nil
	case classSharedShort:
		return s.sharedValue(start, int(b)-tokSharedShort)
	case classSharedLong:
		lo, ok := s.next()
		if !ok {
			return nil, false, truncated(s.off, "shared value reference")
		}
		return s.sharedValue(start, int(b&0x03)<<8|int(lo))
	case classLiteral:
		s.stats.Literals++
		switch b {
		case tokEmptyString:
			return String(""), false, nil
		case tokLiteralNull:
			return Null{}, false, nil
		case tokFalse:
			return Bool(false), false, nil
		default:
			return Bool(true), false, nil
		}
	case classSmallInt:
		s.stats.Numbers++
		return Int(unzigzag(uint64(b & 0x1f))), false, nil
	case classInt:
		s.stats.Numbers++
		if b == tokBigInt {
			x, err := s.bigint("big integer")
			if err != nil {
				return nil, false, err
			}
			return NewBigInt(fromTwosComplement(x)), false, nil
		}
		u, err := s.vint("integer")
		if err != nil {
			return nil, false, err
		}
		if b == tokInt32 && u > math.MaxUint32 {
			return nil, false, malformed(start, "32-bit integer out of range")
		}
		return Int(unzigzag(u)), false, nil
	case classFloat:
		s.stats.Numbers++
		return s.float(start, b)
	case classTinyASCII:
		return s.shortValue(int(b-tokTinyASCII)+1, false)
	case classSmallASCII:
		return s.shortValue(int(b-tokSmallASCII)+maxTinyASCII+1, false)
	case classTinyUnicode:
		return s.shortValue(int(b-tokTinyUnicode)+2, true)
	case classSmallUnicode:
		return s.shortValue(int(b-tokSmallUnicode)+maxTinyUnicode+1, true)
	case classLongASCII, classLongUnicode:
		str, err := s.long(c == classLongUnicode)
		if err != nil {
			return nil, false, err
		}
		s.stats.Strings++
		return String(str), false, nil
	case classArrayStart:
		v, err := s.array(depth + 1)
		return v, false, err
	case classObjectStart:
		v, err := s.object(depth + 1)
		return v, false, err
	case classBinary7:
		return nil, false, unsupported(start, "7-bit binary data")
	case classRawBinary:
		return nil, false, unsupported(start, "raw binary data")
	case classArrayEnd, classObjectEnd, classEndString:
		return nil, false, malformed(start, "unexpected %s in value position", c)
	default:
		return nil, false, malformed(start, "invalid token 0x%02x", b)
	}
}

// key decodes the object key introduced by b
func (s *decodeState) key(b byte) (string, bool, error) {
	start := s.off - 1
	switch c := keyClass[b]; c {
	case classSkip:
		s.stats.Skipped++
		return "", true, nil
	case classKeyEmpty:
		return "", false, nil
	case classKeySharedShort:
		return s.sharedKey(start, int(b-keySharedShort))
	case classKeySharedLong:
		lo, ok := s.next()
		if !ok {
			return "", false, truncated(s.off, "shared key reference")
		}
		return s.sharedKey(start, int(b&0x03)<<8|int(lo))
	case classKeyASCII:
		str, err := s.short(int(b-keyShortASCII)+1, false, &s.keys, s.hdr.SharedKeys)
		return str, false, err
	case classKeyUnicode:
		str, err := s.short(int(b-keyShortUnicode)+2, true, &s.keys, s.hdr.SharedKeys)
		return str, false, err
	case classKeyLong:
		str, err := s.long(true)
		if err != nil {
			return "", false, err
		}
		if s.hdr.SharedKeys {
			s.keys.Add(str)
		}
		return str, false, nil
	case classKeyForbidden:
		return "", false, malformed(start, "forbidden key token 0x%02x", b)
	default:
		return "", false, malformed(start, "invalid key token 0x%02x", b)
	}
}

func (s *decodeState) sharedValue(start, i int) (Value, bool, error) {
	if !s.hdr.SharedValues {
		return nil, false, malformed(start, "shared value reference with shared values disabled")
	}
	str, ok := s.values.Lookup(i)
	if !ok {
		s.stats.Skipped++
		return nil, true, nil
	}
	s.stats.SharedValueRefs++
	s.stats.Strings++
	return String(str), false, nil
}

func (s *decodeState) sharedKey(start, i int) (string, bool, error) {
	if !s.hdr.SharedKeys {
		return "", false, malformed(start, "shared key reference with shared keys disabled")
	}
	str, ok := s.keys.Lookup(i)
	if !ok {
		s.stats.Skipped++
		return "", true, nil
	}
	s.stats.SharedKeyRefs++
	return str, false, nil
}

func (s *decodeState) shortValue(n int, unicode bool) (Value, bool, error) {
	str, err := s.short(n, unicode, &s.values, s.hdr.SharedValues)
	if err != nil {
		return nil, false, err
	}
	s.stats.Strings++
	return String(str), false, nil
}

// short reads a string of n bytes
// and adds it to tab if shared is set
func (s *decodeState) short(n int, unicode bool, tab *Symtab, shared bool) (string, error) {
	if len(s.buf)-s.off < n {
		return "", truncated(len(s.buf), "string")
	}
	str, err := s.text(s.buf[s.off:s.off+n], unicode)
	if err != nil {
		return "", err
	}
	s.off += n
	if shared {
		tab.Add(str)
	}
	return str, nil
}

// long reads a string terminated by tokEndString
func (s *decodeState) long(unicode bool) (string, error) {
	rest := s.buf[s.off:]
	end := bytes.IndexByte(rest, tokEndString)
	if end < 0 {
		return "", truncated(len(s.buf), "long string")
	}
	str, err := s.text(rest[:end], unicode)
	if err != nil {
		return "", err
	}
	s.off += end + 1
	return str, nil
}

// text converts the bytes of a string token.
// Bytes of 0x80 and above in an ASCII-tagged
// string are read as Latin-1.
func (s *decodeState) text(raw []byte, unicode bool) (string, error) {
	if unicode {
		if !utf8.Valid(raw) {
			return "", malformed(s.off, "invalid UTF-8 in string")
		}
		return string(raw), nil
	}
	if ascii.IsASCII(raw) {
		return string(raw), nil
	}
	out := make([]byte, 0, len(raw)*2)
	for _, b := range raw {
		out = utf8.AppendRune(out, rune(b))
	}
	return string(out), nil
}

func (s *decodeState) vint(what string) (uint64, error) {
	u, n := readVInt(s.buf[s.off:])
	if n == 0 {
		return 0, truncated(len(s.buf), what)
	}
	if n < 0 {
		return 0, malformed(s.off, "%s overflows 64 bits", what)
	}
	s.off += n
	return u, nil
}

// bigint reads a length-prefixed run of
// 7-bit packed two's complement bytes
func (s *decodeState) bigint(what string) ([]byte, error) {
	n, err := s.vint(what + " length")
	if err != nil {
		return nil, err
	}
	if n > uint64(len(s.buf)) {
		return nil, truncated(len(s.buf), what)
	}
	size := packedSize(int(n))
	if len(s.buf)-s.off < size {
		return nil, truncated(len(s.buf), what)
	}
	raw := read7Bit(s.buf[s.off:], int(n))
	s.off += size
	return raw, nil
}

func (s *decodeState) float(start int, b byte) (Value, bool, error) {
	switch b {
	case tokFloat32:
		if len(s.buf)-s.off < float32Size {
			return nil, false, truncated(len(s.buf), "float32")
		}
		u := readPacked(s.buf[s.off:], float32Size)
		s.off += float32Size
		return Float32(math.Float32frombits(uint32(u))), false, nil
	case tokFloat64:
		if len(s.buf)-s.off < float64Size {
			return nil, false, truncated(len(s.buf), "float64")
		}
		u := readPacked(s.buf[s.off:], float64Size)
		s.off += float64Size
		return Float(math.Float64frombits(u)), false, nil
	default:
		u, err := s.vint("decimal scale")
		if err != nil {
			return nil, false, err
		}
		scale := unzigzag(u)
		if scale < math.MinInt32 || scale > math.MaxInt32 {
			return nil, false, malformed(start, "decimal scale %d out of range", scale)
		}
		raw, err := s.bigint("decimal")
		if err != nil {
			return nil, false, err
		}
		return &Decimal{Unscaled: fromTwosComplement(raw), Scale: int32(scale)}, false, nil
	}
}
