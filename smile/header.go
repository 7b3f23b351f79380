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

// Header is the decoded fourth byte
// of a Smile document.
type Header struct {
	// Version is the format version
	// in the top 4 bits.
	Version uint8
	// SharedKeys indicates that object keys
	// may be back-references (bit 0).
	SharedKeys bool
	// SharedValues indicates that short string
	// values may be back-references (bit 1).
	SharedValues bool
	// RawBinary reports bit 2 as written.
	RawBinary bool
}

func (h Header) String() string {
	return fmt.Sprintf("version=%d shared-keys=%v shared-values=%v raw-binary=%v",
		h.Version, h.SharedKeys, h.SharedValues, h.RawBinary)
}

// ReadHeader parses the header at the front
// of buf and returns it along with the
// remaining bytes.
func ReadHeader(buf []byte) (Header, []byte, error) {
	if len(buf) < len(magic) {
		if string(buf) != string(magic[:len(buf)]) {
			return Header{}, nil, malformed(0, "bad magic %x", buf)
		}
		return Header{}, nil, truncated(len(buf), "header")
	}
	if buf[0] != magic[0] || buf[1] != magic[1] || buf[2] != magic[2] {
		return Header{}, nil, malformed(0, "bad magic %x", buf[:3])
	}
	if len(buf) < HeaderSize {
		return Header{}, nil, truncated(len(buf), "header")
	}
	b := buf[3]
	h := Header{
		Version:      b >> headerVersionShift,
		SharedKeys:   b&headerSharedKeys != 0,
		SharedValues: b&headerSharedValues != 0,
		RawBinary:    b&headerRawBinary != 0,
	}
	return h, buf[HeaderSize:], nil
}

// Byte returns the options byte describing h;
// it is the inverse of the parsing done by ReadHeader.
func (h Header) Byte() byte {
	b := h.Version << headerVersionShift
	if h.SharedKeys {
		b |= headerSharedKeys
	}
	if h.SharedValues {
		b |= headerSharedValues
	}
	if h.RawBinary {
		b |= headerRawBinary
	}
	return b
}

// appendHeader appends a version-0 header for
// opts. Bit 2 is set when raw binary is *not*
// requested; readers of this package report
// the bit as-is.
func appendHeader(dst []byte, opts *Options) []byte {
	h := Header{
		SharedKeys:   opts.SharedKeys,
		SharedValues: opts.SharedValues,
		RawBinary:    !opts.RawBinary,
	}
	dst = append(dst, magic[:]...)
	return append(dst, h.Byte())
}
