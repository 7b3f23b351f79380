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
	"math"
	"math/big"
	"math/bits"
)

// vintSize returns the encoded size of v as a VInt:
// a big-endian sequence of 7-bit groups with the
// high bit clear, followed by a final byte with
// the high bit set that carries the 6 least-significant bits.
func vintSize(v uint64) int {
	hi := v >> 6
	if hi == 0 {
		return 1
	}
	return 1 + (bits.Len64(hi)+6)/7
}

func appendVInt(dst []byte, v uint64) []byte {
	for i := vintSize(v) - 2; i >= 0; i-- {
		dst = append(dst, byte(v>>(6+7*i))&0x7f)
	}
	return append(dst, 0x80|byte(v&0x3f))
}

// readVInt reads a VInt from the front of buf
// and returns the value and the number of bytes
// consumed. It returns n == 0 if buf ends
// before the final byte and n < 0 if the
// value overflows 64 bits.
func readVInt(buf []byte) (v uint64, n int) {
	for i := 0; i < len(buf); i++ {
		b := buf[i]
		if b&0x80 != 0 {
			if v>>58 != 0 {
				return 0, -1
			}
			return v<<6 | uint64(b&0x3f), i + 1
		}
		if v>>57 != 0 {
			return 0, -1
		}
		v = v<<7 | uint64(b)
	}
	return 0, 0
}

func zigzag32(i int32) uint64 {
	return uint64(uint32((i << 1) ^ (i >> 31)))
}

func zigzag64(i int64) uint64 {
	return uint64((i << 1) ^ (i >> 63))
}

func unzigzag(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}

// packed float sizes
const (
	float32Size = 5
	float64Size = 10
)

func appendPacked(dst []byte, v uint64, n int) []byte {
	for i := n - 1; i >= 0; i-- {
		dst = append(dst, byte(v>>(7*i))&0x7f)
	}
	return dst
}

// readPacked reads n 7-bit groups; the
// caller ensures len(buf) >= n
func readPacked(buf []byte, n int) uint64 {
	var v uint64
	for _, b := range buf[:n] {
		v = v<<7 | uint64(b&0x7f)
	}
	return v
}

func appendFloat32(dst []byte, f float32) []byte {
	return appendPacked(dst, uint64(math.Float32bits(f)), float32Size)
}

func appendFloat64(dst []byte, f float64) []byte {
	return appendPacked(dst, math.Float64bits(f), float64Size)
}

// packedSize returns the encoded size of
// n raw bytes in 7-bit form: each full
// block of 7 bytes takes 8, and a trailing
// partial block of k bytes takes k+1
func packedSize(n int) int {
	size := (n / 7) * 8
	if rem := n % 7; rem > 0 {
		size += rem + 1
	}
	return size
}

func append7Bit(dst, src []byte) []byte {
	for len(src) >= 7 {
		var acc uint64
		for _, b := range src[:7] {
			acc = acc<<8 | uint64(b)
		}
		dst = appendPacked(dst, acc, 8)
		src = src[7:]
	}
	if n := len(src); n > 0 {
		var acc uint64
		for _, b := range src {
			acc = acc<<8 | uint64(b)
		}
		// n leading groups of 7 bits,
		// then the last n bits right-aligned
		dst = appendPacked(dst, acc>>n, n)
		dst = append(dst, byte(acc&(1<<n-1)))
	}
	return dst
}

// read7Bit decodes n raw bytes from packed;
// the caller ensures len(packed) >= packedSize(n)
func read7Bit(packed []byte, n int) []byte {
	out := make([]byte, 0, n)
	for n >= 7 {
		acc := readPacked(packed, 8)
		for i := 6; i >= 0; i-- {
			out = append(out, byte(acc>>(8*i)))
		}
		packed = packed[8:]
		n -= 7
	}
	if n > 0 {
		acc := readPacked(packed, n)
		acc = acc<<n | uint64(packed[n]&(1<<n-1))
		for i := n - 1; i >= 0; i-- {
			out = append(out, byte(acc>>(8*i)))
		}
	}
	return out
}

// twosComplement returns the minimal big-endian
// two's complement representation of x
func twosComplement(x *big.Int) []byte {
	mag := x
	if x.Sign() < 0 {
		mag = new(big.Int).Not(x)
	}
	n := mag.BitLen()/8 + 1
	if x.Sign() >= 0 {
		return x.FillBytes(make([]byte, n))
	}
	y := new(big.Int).Lsh(big.NewInt(1), uint(8*n))
	y.Add(y, x)
	return y.FillBytes(make([]byte, n))
}

func fromTwosComplement(b []byte) *big.Int {
	x := new(big.Int).SetBytes(b)
	if len(b) > 0 && b[0]&0x80 != 0 {
		x.Sub(x, new(big.Int).Lsh(big.NewInt(1), uint(8*len(b))))
	}
	return x
}
