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
	"encoding/json"
	"errors"
	"io"
	"math"
	"strings"
	"testing"
)

func fromJSONString(t *testing.T, text string) Value {
	t.Helper()
	v, err := FromJSON(json.NewDecoder(strings.NewReader(text)))
	if err != nil {
		t.Fatalf("FromJSON(%s): %v", text, err)
	}
	return v
}

func TestJSONRoundTrip(t *testing.T) {
	docs := []string{
		`{}`,
		`[]`,
		`{"a":"test"}`,
		`[{"a":1},{"a":2}]`,
		`{"a":[1,2.5,"x",null,true,{"b":{}}],"big":123456789012345678901234567890}`,
		`{"neg":-9223372036854775808,"under":-9223372036854775809}`,
		`["é","żółw","a/b","tab\there","quote\"d"]`,
		`{"deep":[[[[[[[[[[1]]]]]]]]]]}`,
		`[1e+21,1e-7,0.1,-1.5]`,
	}
	for _, doc := range docs {
		v := fromJSONString(t, doc)
		buf, err := Encode(v, nil)
		if err != nil {
			t.Fatalf("%s: %v", doc, err)
		}
		out, err := Decode(buf)
		if err != nil {
			t.Fatalf("%s: %v", doc, err)
		}
		if got := toJSON(t, out); got != doc {
			t.Errorf("got  %s", got)
			t.Errorf("want %s", doc)
		}
	}
}

func TestFromJSONNumbers(t *testing.T) {
	v := fromJSONString(t, `[1, -1, 1.0, 1e2, 18446744073709551616]`)
	arr := v.(Array)
	if _, ok := arr[0].(Int); !ok {
		t.Errorf("1 -> %T", arr[0])
	}
	if _, ok := arr[2].(Float); !ok {
		t.Errorf("1.0 -> %T", arr[2])
	}
	if _, ok := arr[3].(Float); !ok {
		t.Errorf("1e2 -> %T", arr[3])
	}
	if b, ok := arr[4].(*BigInt); !ok || b.String() != "18446744073709551616" {
		t.Errorf("2^64 -> %#v", arr[4])
	}
}

func TestFromJSONErrors(t *testing.T) {
	_, err := FromJSON(json.NewDecoder(strings.NewReader(`{"a":`)))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("got %v", err)
	}
	_, err = FromJSON(json.NewDecoder(strings.NewReader(`[1e999]`)))
	if err == nil {
		t.Error("expected an error for an out-of-range number")
	}
}

func TestWriteJSON(t *testing.T) {
	v := NewObject(
		Field{"a", Array{Int(1), String("é😀")}},
		Field{"b", NewObject()},
		Field{"c", Array{}},
	)
	testcases := []struct {
		opts JSONOptions
		want string
	}{
		{JSONOptions{}, `{"a":[1,"é😀"],"b":{},"c":[]}`},
		{JSONOptions{EscapeUnicode: true}, `{"a":[1,"\u00e9\ud83d\ude00"],"b":{},"c":[]}`},
		{JSONOptions{Indent: "    "}, "{\n    \"a\": [\n        1,\n        \"é😀\"\n    ],\n    \"b\": {},\n    \"c\": []\n}"},
	}
	for i := range testcases {
		var out bytes.Buffer
		if err := WriteJSON(&out, v, &testcases[i].opts); err != nil {
			t.Fatal(err)
		}
		if got := out.String(); got != testcases[i].want {
			t.Errorf("got  %s", got)
			t.Errorf("want %s", testcases[i].want)
		}
	}
}

func TestWriteJSONSpecials(t *testing.T) {
	testcases := []struct {
		in   Value
		want string
	}{
		{Array{String("\x01\n\u2028\u2029")}, `["\u0001\n\u2028\u2029"]`},
		{Array{Float32(0.1)}, `[0.1]`},
		{Array{Float(1e-7)}, `[1e-7]`},
		{Array{&Decimal{Unscaled: bigint("-5"), Scale: 3}}, `[-0.005]`},
		{Array{&Decimal{Unscaled: bigint("0"), Scale: -3}}, `[0E+3]`},
		{Array{&Decimal{Unscaled: bigint("7"), Scale: -2}}, `[7E+2]`},
		{Array{&Decimal{Unscaled: bigint("1"), Scale: 10}}, `[1E-10]`},
		{Array{&Decimal{Unscaled: bigint("-12"), Scale: math.MinInt32}}, `[-1.2E+2147483649]`},
	}
	for i := range testcases {
		if got := toJSON(t, testcases[i].in); got != testcases[i].want {
			t.Errorf("got %s want %s", got, testcases[i].want)
		}
	}
	if _, err := AppendJSON(nil, Array{Float(math.NaN())}, nil); err == nil {
		t.Error("expected an error for NaN")
	}
}
