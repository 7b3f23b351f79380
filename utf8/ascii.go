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

// Package utf8 provides additional UTF-8 related functions.
package utf8

const hibits = 0x8080808080808080

// IsASCII reports whether every byte of str is below 0x80.
func IsASCII[T string | []byte](str T) bool {
	// process 8 bytes at once using a SWAR algorithm
	for len(str) >= 8 {
		qword := uint64(str[0]) | uint64(str[1])<<8 |
			uint64(str[2])<<16 | uint64(str[3])<<24 |
			uint64(str[4])<<32 | uint64(str[5])<<40 |
			uint64(str[6])<<48 | uint64(str[7])<<56
		if qword&hibits != 0 {
			return false
		}
		str = str[8:]
	}
	for i := 0; i < len(str); i++ {
		if str[i] >= 0x80 {
			return false
		}
	}
	return true
}

// ASCIIPrefix returns the length of the
// longest prefix of str that is all ASCII.
func ASCIIPrefix[T string | []byte](str T) int {
	n := 0
	for len(str)-n >= 8 {
		s := str[n:]
		qword := uint64(s[0]) | uint64(s[1])<<8 |
			uint64(s[2])<<16 | uint64(s[3])<<24 |
			uint64(s[4])<<32 | uint64(s[5])<<40 |
			uint64(s[6])<<48 | uint64(s[7])<<56
		if qword&hibits != 0 {
			break
		}
		n += 8
	}
	for n < len(str) && str[n] < 0x80 {
		n++
	}
	return n
}
