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
)

// The first three bytes of every Smile document: ":)\n"
var magic = [3]byte{0x3a, 0x29, 0x0a}

// HeaderSize is the size of a Smile header
// including the trailing options byte.
const HeaderSize = 4

// options byte bits
const (
	headerSharedKeys   = 0x01
	headerSharedValues = 0x02
	headerRawBinary    = 0x04
	headerVersionShift = 4
)

// value-position tokens
const (
	tokNull         = 0x00
	tokSharedShort  = 0x01 // through 0x1f
	tokEmptyString  = 0x20
	tokLiteralNull  = 0x21
	tokFalse        = 0x22
	tokTrue         = 0x23
	tokInt32        = 0x24
	tokInt64        = 0x25
	tokBigInt       = 0x26
	tokFloat32      = 0x28
	tokFloat64      = 0x29
	tokBigDecimal   = 0x2a
	tokTinyASCII    = 0x40
	tokSmallASCII   = 0x60
	tokTinyUnicode  = 0x80
	tokSmallUnicode = 0xa0
	tokSmallInt     = 0xc0
	tokLongASCII    = 0xe0
	tokLongUnicode  = 0xe4
	tokBinary7      = 0xe8
	tokSharedLong   = 0xec
	tokArrayStart   = 0xf8
	tokArrayEnd     = 0xf9
	tokObjectStart  = 0xfa
	tokObjectEnd    = 0xfb
	tokEndString    = 0xfc
	tokRawBinary    = 0xfd
	tokEndContent   = 0xfe
	tokInvalid      = 0xff
)

// key-position tokens
const (
	keyEmpty        = 0x20
	keySharedLong   = 0x30 // through 0x33
	keyLong         = 0x34
	keyForbidden    = 0x3a
	keySharedShort  = 0x40 // through 0x7f
	keyShortASCII   = 0x80 // through 0xbf
	keyShortUnicode = 0xc0 // through 0xf7
)

// string length ceilings for the short forms
const (
	maxTinyASCII      = 32
	maxSmallASCII     = 64
	maxTinyUnicode    = 33
	maxSmallUnicode   = 64
	maxShortKeyASCII  = 64
	maxShortKeyUTF8   = 56
	maxShortSharedRef = 30 // short value refs cover indexes 0..30
	maxShortKeyRef    = 63
)

// class is the decoding action selected
// by a single token byte
type class uint8

const (
	classInvalid class = iota
	classSkip
	classSharedShort
	classLiteral
	classInt
	classFloat
	classTinyASCII
	classSmallASCII
	classTinyUnicode
	classSmallUnicode
	classSmallInt
	classLongASCII
	classLongUnicode
	classBinary7
	classSharedLong
	classArrayStart
	classArrayEnd
	classObjectStart
	classObjectEnd
	classEndString
	classRawBinary
	classEndContent

	// key-only classes
	classKeyEmpty
	classKeySharedLong
	classKeyLong
	classKeyForbidden
	classKeySharedShort
	classKeyASCII
	classKeyUnicode
)

var classNames = [...]string{
	classInvalid:        "invalid",
	classSkip:           "reserved",
	classSharedShort:    "shared value reference",
	classLiteral:        "literal",
	classInt:            "integer",
	classFloat:          "float",
	classTinyASCII:      "tiny ascii",
	classSmallASCII:     "small ascii",
	classTinyUnicode:    "tiny unicode",
	classSmallUnicode:   "small unicode",
	classSmallInt:       "small int",
	classLongASCII:      "long ascii",
	classLongUnicode:    "long unicode",
	classBinary7:        "7-bit binary",
	classSharedLong:     "long shared value reference",
	classArrayStart:     "array start",
	classArrayEnd:       "array end",
	classObjectStart:    "object start",
	classObjectEnd:      "object end",
	classEndString:      "end of string",
	classRawBinary:      "raw binary",
	classEndContent:     "end of content",
	classKeyEmpty:       "empty key",
	classKeySharedLong:  "long shared key reference",
	classKeyLong:        "long key",
	classKeyForbidden:   "forbidden key",
	classKeySharedShort: "shared key reference",
	classKeyASCII:       "short ascii key",
	classKeyUnicode:     "short unicode key",
}

func (c class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

// span is a half-open range of token bytes
// beginning at lo and ending at the next span
type span struct {
	lo    byte
	class class
}

// valueSpans partitions the value-position token space;
// it must be sorted by lo
var valueSpans = []span{
	{tokNull, classSkip},
	{tokSharedShort, classSharedShort},
	{tokEmptyString, classLiteral},
	{tokInt32, classInt},
	{0x27, classSkip},
	{tokFloat32, classFloat},
	{0x2b, classSkip},
	{tokTinyASCII, classTinyASCII},
	{tokSmallASCII, classSmallASCII},
	{tokTinyUnicode, classTinyUnicode},
	{tokSmallUnicode, classSmallUnicode},
	{tokSmallInt, classSmallInt},
	{tokLongASCII, classLongASCII},
	{tokLongUnicode, classLongUnicode},
	{tokBinary7, classBinary7},
	{tokSharedLong, classSharedLong},
	{0xf0, classSkip},
	{tokArrayStart, classArrayStart},
	{tokArrayEnd, classArrayEnd},
	{tokObjectStart, classObjectStart},
	{tokObjectEnd, classObjectEnd},
	{tokEndString, classEndString},
	{tokRawBinary, classRawBinary},
	{tokEndContent, classEndContent},
	{tokInvalid, classInvalid},
}

// keySpans partitions the key-position token space
var keySpans = []span{
	{0x00, classSkip},
	{keyEmpty, classKeyEmpty},
	{0x21, classSkip},
	{keySharedLong, classKeySharedLong},
	{keyLong, classKeyLong},
	{0x35, classSkip},
	{keyForbidden, classKeyForbidden},
	{0x3b, classSkip},
	{keySharedShort, classKeySharedShort},
	{keyShortASCII, classKeyASCII},
	{keyShortUnicode, classKeyUnicode},
	{tokArrayStart, classSkip},
	{tokObjectEnd, classObjectEnd},
	{tokEndString, classSkip},
	{tokInvalid, classInvalid},
}

var (
	valueClass [256]class
	keyClass   [256]class
)

func fill(dst *[256]class, spans []span) {
	for i := range spans {
		hi := 256
		if i+1 < len(spans) {
			hi = int(spans[i+1].lo)
		}
		for b := int(spans[i].lo); b < hi; b++ {
			dst[b] = spans[i].class
		}
	}
}

func init() {
	fill(&valueClass, valueSpans)
	fill(&keyClass, keySpans)
}
