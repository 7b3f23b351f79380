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
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"
	"testing"
)

func TestEncode(t *testing.T) {
	all := DefaultOptions()
	none := Options{}
	testcases := []struct {
		name string
		in   Value
		opts *Options
		want string
	}{
		{"object", NewObject(Field{"a", String("test")}), nil, "3a290a03 fa 80 61 43 74 65 73 74 fb"},
		{"no-options", Array{}, &none, "3a290a04 f8 f9"},
		{"empty-object", NewObject(), &all, "3a290a03 fa fb"},
		{
			name: "shared-key",
			in: Array{
				NewObject(Field{"a", Int(1)}),
				NewObject(Field{"a", Int(2)}),
			},
			want: "3a290a03 f8 fa 80 61 c2 fb fa 40 c4 fb f9",
		},
		{
			name: "unshared-key",
			in: Array{
				NewObject(Field{"a", Int(1)}),
				NewObject(Field{"a", Int(2)}),
			},
			opts: &none,
			want: "3a290a04 f8 fa 80 61 c2 fb fa 80 61 c4 fb f9",
		},
		{"shared-value", Array{String("abc"), String("abc")}, nil, "3a290a03 f8 42 61 62 63 01 f9"},
		{"unshared-value", Array{String("abc"), String("abc")}, &none, "3a290a04 f8 42 61 62 63 42 61 62 63 f9"},
		{"literals", Array{Null{}, Bool(false), Bool(true), String(""), nil}, nil, "3a290a03 f8 21 22 23 20 21 f9"},
		{"small-ints", Array{Int(0), Int(-1), Int(1), Int(15), Int(-16)}, nil, "3a290a03 f8 c0 c1 c2 de df f9"},
		{"int32", Array{Int(100), Int(16), Int(-17)}, nil, "3a290a03 f8 24 03 88 24 a0 24 a1 f9"},
		{"int64", Array{Int(1 << 31)}, nil, "3a290a03 f8 25 20 00 00 00 80 f9"},
		{"float64", Array{Float(1.5), Float(-0.25)}, nil, "3a290a03 f8 29 00 3f 7c 00 00 00 00 00 00 00 29 01 3f 68 00 00 00 00 00 00 00 f9"},
		{"float32", Array{Float32(1.5)}, nil, "3a290a03 f8 28 03 7e 00 00 00 f9"},
		{"decimal", Array{&Decimal{Unscaled: big.NewInt(15), Scale: 1}}, nil, "3a290a03 f8 2a 82 81 07 01 f9"},
		{"unicode", Array{String("é")}, nil, "3a290a03 f8 80 c3 a9 f9"},
		{"unicode-key", NewObject(Field{"é", Int(1)}), nil, "3a290a03 fa c0 c3 a9 c2 fb"},
		{"empty-key", NewObject(Field{"", Int(1)}), nil, "3a290a03 fa 20 c2 fb"},
	}
	for i := range testcases {
		tc := &testcases[i]
		t.Run(tc.name, func(t *testing.T) {
			got, err := Encode(tc.in, tc.opts)
			if err != nil {
				t.Fatal(err)
			}
			want := unhex(t, tc.want)
			if !bytes.Equal(got, want) {
				t.Errorf("got  % x", got)
				t.Errorf("want % x", want)
			}
		})
	}
}

func TestEncodeBigInt(t *testing.T) {
	x, _ := new(big.Int).SetString("18446744073709551616", 10)
	got, err := Encode(Array{NewBigInt(x), NewBigInt(new(big.Int).Neg(x))}, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := unhex(t, "3a290a03 f8 26 89 00 40 00 00 00 00 00 00 00 00 00 26 89 7f 40 00 00 00 00 00 00 00 00 00 f9")
	if !bytes.Equal(got, want) {
		t.Errorf("got  % x", got)
		t.Errorf("want % x", want)
	}
	// big values that fit in 64 bits use the integer forms
	if _, ok := NewBigInt(big.NewInt(-5)).(Int); !ok {
		t.Error("NewBigInt(-5) should be an Int")
	}
}

func TestEncodeStringForms(t *testing.T) {
	testcases := []struct {
		str string
		tok byte
	}{
		{"a", tokTinyASCII},
		{strings.Repeat("a", 32), tokTinyASCII + 31},
		{strings.Repeat("a", 33), tokSmallASCII},
		{strings.Repeat("a", 64), tokSmallASCII + 31},
		{strings.Repeat("a", 65), tokLongASCII},
		{"é", tokTinyUnicode},
		{strings.Repeat("é", 16) + "a", tokTinyUnicode + 31},
		{strings.Repeat("é", 17), tokSmallUnicode},
		{strings.Repeat("é", 32), tokSmallUnicode + 30},
		{strings.Repeat("é", 33), tokLongUnicode},
	}
	for i := range testcases {
		str := testcases[i].str
		buf, err := Encode(Array{String(str)}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if got := buf[HeaderSize+1]; got != testcases[i].tok {
			t.Errorf("len %d: token %#x, want %#x", len(str), got, testcases[i].tok)
		}
		v, err := Decode(buf)
		if err != nil {
			t.Fatalf("len %d: %v", len(str), err)
		}
		if !Equal(v, Array{String(str)}) {
			t.Errorf("len %d: round trip mismatch", len(str))
		}
	}
}

func TestEncodeKeyForms(t *testing.T) {
	testcases := []struct {
		key string
		tok byte
	}{
		{"a", keyShortASCII},
		{strings.Repeat("k", 64), keyShortASCII + 63},
		{strings.Repeat("k", 65), keyLong},
		{"é", keyShortUnicode},
		{strings.Repeat("é", 28), keyShortUnicode + 54},
		{strings.Repeat("é", 28) + "a", keyLong},
	}
	for i := range testcases {
		key := testcases[i].key
		in := Array{NewObject(Field{key, Int(1)}), NewObject(Field{key, Int(2)})}
		buf, err := Encode(in, nil)
		if err != nil {
			t.Fatal(err)
		}
		if got := buf[HeaderSize+2]; got != testcases[i].tok {
			t.Errorf("len %d: token %#x, want %#x", len(key), got, testcases[i].tok)
		}
		// the second object refers to the first key
		if bytes.Count(buf, []byte{0xfa, keySharedShort}) != 1 {
			t.Errorf("len %d: expected a shared key reference in % x", len(key), buf)
		}
		v, err := Decode(buf)
		if err != nil {
			t.Fatalf("len %d: %v", len(key), err)
		}
		if !Equal(v, in) {
			t.Errorf("len %d: round trip mismatch", len(key))
		}
	}
}

func TestLongStringsNotShared(t *testing.T) {
	str := String(strings.Repeat("x", 65))
	buf, err := Encode(Array{str, str}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Count(buf, []byte(str)) != 2 {
		t.Errorf("expected two copies of the long string")
	}
}

func TestEncodeInvalidRoot(t *testing.T) {
	for _, v := range []Value{nil, Null{}, Int(1), String("x"), Bool(true), Float(1), (*Object)(nil)} {
		_, err := Encode(v, nil)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Encode(%#v): got error %v", v, err)
		}
	}
}

func TestEncodeNilPointers(t *testing.T) {
	v := Array{(*Object)(nil), (*BigInt)(nil), (*Decimal)(nil), NewObject(Field{"o", (*Object)(nil)})}
	buf, err := Encode(v, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := unhex(t, "3a290a03 f8 21 21 21 fa 80 6f 21 fb f9")
	if !bytes.Equal(buf, want) {
		t.Errorf("got %x", buf)
	}
	if got := toJSON(t, v); got != `[null,null,null,{"o":null}]` {
		t.Errorf("got %s", got)
	}
	back, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(back, v) {
		t.Errorf("got %s", toJSON(t, back))
	}
	if x := ToAny(v).([]any); x[0] != nil || x[1] != nil || x[2] != nil {
		t.Errorf("got %v", x)
	}
}

func TestEncodeInvalidUTF8(t *testing.T) {
	for _, v := range []Value{
		Array{String("a\xffb")},
		Array{String(strings.Repeat("é", 40) + "\xff")},
		NewObject(Field{"\xfe\xfe", Int(1)}),
	} {
		_, err := Encode(v, nil)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("got error %v", err)
		}
	}
}

func TestWriterPanics(t *testing.T) {
	try := func(name string, fn func(w *Writer)) {
		t.Helper()
		defer func() {
			if recover() == nil {
				t.Errorf("%s: expected a panic", name)
			}
		}()
		fn(NewWriter(DefaultOptions()))
	}
	try("EndArray", func(w *Writer) { w.EndArray() })
	try("EndObject", func(w *Writer) { w.EndObject() })
	try("mismatched", func(w *Writer) {
		w.BeginArray()
		w.EndObject()
	})
	try("WriteEnd", func(w *Writer) {
		w.BeginObject()
		w.WriteEnd()
	})
}

func TestWriter(t *testing.T) {
	w := NewWriter(DefaultOptions())
	w.BeginObject()
	w.WriteKey("list")
	w.BeginArray()
	w.WriteInt(math.MaxInt64)
	w.WriteInt(math.MinInt64)
	w.WriteFloat64(math.Inf(-1))
	w.WriteDecimal(big.NewInt(-12345), -3)
	w.EndArray()
	w.WriteKey("s")
	w.WriteString("str")
	if w.Depth() != 1 {
		t.Fatalf("depth %d", w.Depth())
	}
	w.EndObject()
	w.WriteEnd()
	if err := w.Err(); err != nil {
		t.Fatal(err)
	}
	v, err := Decode(w.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	want := NewObject(
		Field{"list", Array{
			Int(math.MaxInt64),
			Int(math.MinInt64),
			Float(math.Inf(-1)),
			&Decimal{Unscaled: big.NewInt(-12345000), Scale: 0},
		}},
		Field{"s", String("str")},
	)
	if !Equal(v, want) {
		t.Errorf("got %#v", v)
	}
}

// both tables hold at most MaxShared strings;
// the encoder and decoder must agree on when
// they are emptied
func TestSharedTableWrap(t *testing.T) {
	const n = MaxShared + 100
	var strs, objs Array
	add := func(i int) {
		strs = append(strs, String(fmt.Sprintf("s%05d", i)))
		objs = append(objs, NewObject(Field{fmt.Sprintf("k%05d", i), Int(int64(i))}))
	}
	for round := 0; round < 2; round++ {
		for i := 0; i < n; i++ {
			add(i)
		}
	}
	// still present after the last wrap
	for i := n - 10; i < n; i++ {
		add(i)
	}
	in := NewObject(Field{"strings", strs}, Field{"objects", objs})

	for _, opts := range []Options{DefaultOptions(), {}} {
		buf, err := Encode(in, &opts)
		if err != nil {
			t.Fatal(err)
		}
		var st Stats
		d := Decoder{Stats: &st}
		out, err := d.Decode(buf)
		if err != nil {
			t.Fatal(err)
		}
		if !Equal(in, out) {
			t.Fatalf("%+v: round trip mismatch", opts)
		}
		if opts.SharedValues && st.SharedValueRefs == 0 {
			t.Errorf("expected shared value references")
		}
		if opts.SharedKeys && st.SharedKeyRefs == 0 {
			t.Errorf("expected shared key references")
		}
		if opts.SharedValues != (st.ValueTableResets >= 2) {
			t.Errorf("%+v: %d value table resets", opts, st.ValueTableResets)
		}
		if opts.SharedKeys != (st.KeyTableResets >= 1) {
			t.Errorf("%+v: %d key table resets", opts, st.KeyTableResets)
		}
	}
}

func TestSharedLongRefs(t *testing.T) {
	var arr Array
	for round := 0; round < 2; round++ {
		for i := 0; i < 100; i++ {
			arr = append(arr, String(fmt.Sprintf("v%d", i)))
		}
	}
	buf, err := Encode(arr, nil)
	if err != nil {
		t.Fatal(err)
	}
	// indexes 31..99 need the two-byte form
	if c := bytes.Count(buf, []byte{tokSharedLong}); c != 69 {
		t.Errorf("%d long references", c)
	}
	out, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(arr, out) {
		t.Fatal("round trip mismatch")
	}
}

func TestRoundTrip(t *testing.T) {
	huge, _ := new(big.Int).SetString("-123456789012345678901234567890", 10)
	in := NewObject(
		Field{"null", Null{}},
		Field{"bools", Array{Bool(true), Bool(false)}},
		Field{"ints", Array{Int(0), Int(-1), Int(31), Int(32), Int(-32), Int(math.MaxInt32), Int(math.MinInt32), Int(math.MaxInt32 + 1), Int(math.MinInt64)}},
		Field{"big", NewBigInt(huge)},
		Field{"floats", Array{Float(0), Float(math.Pi), Float(math.SmallestNonzeroFloat64), Float32(-2.5)}},
		Field{"decimals", Array{&Decimal{Unscaled: huge, Scale: 10}, &Decimal{Unscaled: big.NewInt(7), Scale: -2}}},
		Field{"strings", Array{String(""), String("ascii"), String("żółw"), String(strings.Repeat("long ", 30))}},
		Field{"nested", Array{Array{Array{}}, NewObject(Field{"x", NewObject()})}},
	)
	for _, opts := range []Options{DefaultOptions(), {SharedKeys: true}, {SharedValues: true}, {}} {
		buf, err := Encode(in, &opts)
		if err != nil {
			t.Fatal(err)
		}
		out, err := Decode(buf)
		if err != nil {
			t.Fatalf("%+v: %v", opts, err)
		}
		if !Equal(in, out) {
			t.Errorf("%+v: got %s", opts, toJSON(t, out))
		}
		// re-encoding is deterministic
		again, err := Encode(out, &opts)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(buf, again) {
			t.Errorf("%+v: re-encoded output differs", opts)
		}
	}
}
