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
	"math/big"
	"math/rand"
	"testing"
)

func TestVInt(t *testing.T) {
	testcases := []struct {
		v   uint64
		enc []byte
	}{
		{0, []byte{0x80}},
		{63, []byte{0xbf}},
		{64, []byte{0x01, 0x80}},
		{200, []byte{0x03, 0x88}},
		{1 << 13, []byte{0x01, 0x00, 0x80}},
		{math.MaxUint64, []byte{0x03, 0x7f, 0x7f, 0x7f, 0x7f, 0x7f, 0x7f, 0x7f, 0x7f, 0xbf}},
	}
	for _, tc := range testcases {
		got := appendVInt(nil, tc.v)
		if !bytes.Equal(got, tc.enc) {
			t.Errorf("appendVInt(%d) = % x, want % x", tc.v, got, tc.enc)
		}
		if vintSize(tc.v) != len(tc.enc) {
			t.Errorf("vintSize(%d) = %d", tc.v, vintSize(tc.v))
		}
		v, n := readVInt(append(got, 0xff))
		if v != tc.v || n != len(tc.enc) {
			t.Errorf("readVInt(% x) = %d, %d", got, v, n)
		}
	}
	if _, n := readVInt([]byte{0x01, 0x02}); n != 0 {
		t.Errorf("unterminated: n = %d", n)
	}
	over := append(bytes.Repeat([]byte{0x7f}, 10), 0x80)
	if _, n := readVInt(over); n >= 0 {
		t.Errorf("overflow: n = %d", n)
	}
}

func TestZigZag(t *testing.T) {
	for _, i := range []int64{0, -1, 1, 15, -16, math.MaxInt32, math.MinInt32, math.MaxInt64, math.MinInt64} {
		if got := unzigzag(zigzag64(i)); got != i {
			t.Errorf("zigzag64 round trip %d -> %d", i, got)
		}
		if int64(int32(i)) == i {
			if zigzag32(int32(i)) != zigzag64(i) {
				t.Errorf("zigzag32(%d) != zigzag64(%d)", i, i)
			}
		}
	}
	if zigzag32(-16) != 31 || zigzag32(15) != 30 || zigzag32(16) != 32 {
		t.Error("unexpected small zigzag values")
	}
}

func TestPacked7Bit(t *testing.T) {
	rng := rand.New(rand.NewSource(0))
	for n := 0; n < 30; n++ {
		src := make([]byte, n)
		rng.Read(src)
		enc := append7Bit(nil, src)
		if len(enc) != packedSize(n) {
			t.Fatalf("n=%d: encoded %d bytes, packedSize says %d", n, len(enc), packedSize(n))
		}
		for _, b := range enc {
			if b&0x80 != 0 {
				t.Fatalf("n=%d: high bit set in % x", n, enc)
			}
		}
		if got := read7Bit(enc, n); !bytes.Equal(got, src) {
			t.Fatalf("n=%d: got % x want % x", n, got, src)
		}
	}
	// a single byte is split 7/1
	if got := append7Bit(nil, []byte{0xff}); !bytes.Equal(got, []byte{0x7f, 0x01}) {
		t.Errorf("got % x", got)
	}
}

func TestTwosComplement(t *testing.T) {
	testcases := []struct {
		x   int64
		enc []byte
	}{
		{0, []byte{0x00}},
		{-1, []byte{0xff}},
		{127, []byte{0x7f}},
		{128, []byte{0x00, 0x80}},
		{-128, []byte{0x80}},
		{-129, []byte{0xff, 0x7f}},
		{255, []byte{0x00, 0xff}},
	}
	for _, tc := range testcases {
		got := twosComplement(big.NewInt(tc.x))
		if !bytes.Equal(got, tc.enc) {
			t.Errorf("twosComplement(%d) = % x, want % x", tc.x, got, tc.enc)
		}
		if back := fromTwosComplement(got); back.Int64() != tc.x {
			t.Errorf("fromTwosComplement(% x) = %s", got, back)
		}
	}
}

func TestPackedFloats(t *testing.T) {
	for _, f := range []float64{0, 1.5, -0.25, math.Pi, math.MaxFloat64, math.Inf(1)} {
		enc := appendFloat64(nil, f)
		if len(enc) != float64Size {
			t.Fatalf("len %d", len(enc))
		}
		if got := math.Float64frombits(readPacked(enc, float64Size)); got != f {
			t.Errorf("float64 %g -> %g", f, got)
		}
		f32 := float32(f)
		enc = appendFloat32(nil, f32)
		if got := math.Float32frombits(uint32(readPacked(enc, float32Size))); got != f32 {
			t.Errorf("float32 %g -> %g", f32, got)
		}
	}
}
