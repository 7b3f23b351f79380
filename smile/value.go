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

// Package smile implements the Smile binary
// encoding of JSON documents.
package smile

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Kind is the JSON-level shape of a Value
type Kind uint8

const (
	NullKind Kind = iota
	BoolKind
	IntKind // Int and BigInt
	FloatKind
	DecimalKind
	StringKind
	ArrayKind
	ObjectKind
)

func (k Kind) String() string {
	switch k {
	case NullKind:
		return "null"
	case BoolKind:
		return "bool"
	case IntKind:
		return "int"
	case FloatKind:
		return "float"
	case DecimalKind:
		return "decimal"
	case StringKind:
		return "string"
	case ArrayKind:
		return "array"
	case ObjectKind:
		return "object"
	default:
		return "invalid"
	}
}

// Value represents a decoded (or encodable)
// Smile value.
//
// A Value should be one of
//   Null, Bool, Int, BigInt, Float, Float32,
//   Decimal, String, Array, *Object
//
type Value interface {
	Kind() Kind
	// Encode writes the value to dst.
	Encode(dst *Writer)

	// used for Equal
	equal(Value) bool
}

var (
	// all of these types must be values
	_ Value = Null{}
	_ Value = Bool(true)
	_ Value = Int(0)
	_ Value = &BigInt{}
	_ Value = Float(0)
	_ Value = Float32(0)
	_ Value = &Decimal{}
	_ Value = String("")
	_ Value = Array(nil)
	_ Value = &Object{}
)

// Equal returns whether a and b are
// semantically equivalent. Numbers compare
// by numeric value and objects compare
// without regard to field order.
func Equal(a, b Value) bool {
	if isnull(a) || isnull(b) {
		return isnull(a) && isnull(b)
	}
	return a.equal(b)
}

// isnull reports whether v is nil, Null,
// or a nil pointer to a Value type
func isnull(v Value) bool {
	switch v := v.(type) {
	case nil, Null:
		return true
	case *Object:
		return v == nil
	case *BigInt:
		return v == nil
	case *Decimal:
		return v == nil
	default:
		return false
	}
}

// Null is the JSON null
type Null struct{}

func (Null) Kind() Kind { return NullKind }
func (Null) Encode(dst *Writer) { dst.WriteNull() }
func (Null) equal(x Value) bool { return isnull(x) }

// Bool is a boolean value
type Bool bool

func (b Bool) Kind() Kind         { return BoolKind }
func (b Bool) Encode(dst *Writer) { dst.WriteBool(bool(b)) }

func (b Bool) equal(x Value) bool {
	b2, ok := x.(Bool)
	return ok && b2 == b
}

// Int is an integer that fits in 64 bits
type Int int64

func (i Int) Kind() Kind         { return IntKind }
func (i Int) Encode(dst *Writer) { dst.WriteInt(int64(i)) }

func (i Int) equal(x Value) bool {
	switch x := x.(type) {
	case Int:
		return x == i
	case *BigInt:
		return x.v.IsInt64() && x.v.Int64() == int64(i)
	case Float:
		return float64(int64(x)) == float64(x) && int64(x) == int64(i)
	default:
		return false
	}
}

// BigInt is an integer outside the int64 range.
// Use NewBigInt to construct one.
type BigInt struct {
	v *big.Int
}

// NewBigInt returns x as a Value. If x fits
// in an int64, the result is an Int.
// The returned value does not alias x.
func NewBigInt(x *big.Int) Value {
	if x.IsInt64() {
		return Int(x.Int64())
	}
	return &BigInt{v: new(big.Int).Set(x)}
}

// Big returns a copy of the integer.
func (b *BigInt) Big() *big.Int {
	if b.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(b.v)
}

func (b *BigInt) String() string { return b.Big().String() }

func (b *BigInt) Kind() Kind { return IntKind }

func (b *BigInt) Encode(dst *Writer) {
	if b == nil {
		dst.WriteNull()
		return
	}
	dst.WriteBigInt(b.Big())
}

func (b *BigInt) equal(x Value) bool {
	switch x := x.(type) {
	case *BigInt:
		return b.Big().Cmp(x.Big()) == 0
	case Int:
		return x.equal(b)
	default:
		return false
	}
}

// Float is a double-precision float
type Float float64

func (f Float) Kind() Kind         { return FloatKind }
func (f Float) Encode(dst *Writer) { dst.WriteFloat64(float64(f)) }

func (f Float) equal(x Value) bool {
	switch x := x.(type) {
	case Float:
		return x == f || (math.IsNaN(float64(x)) && math.IsNaN(float64(f)))
	case Float32:
		return float64(x) == float64(f)
	case Int:
		return x.equal(f)
	default:
		return false
	}
}

// Float32 is a single-precision float;
// it is encoded with the 32-bit float token
type Float32 float32

func (f Float32) Kind() Kind         { return FloatKind }
func (f Float32) Encode(dst *Writer) { dst.WriteFloat32(float32(f)) }

func (f Float32) equal(x Value) bool {
	switch x := x.(type) {
	case Float32:
		return x == f || (math.IsNaN(float64(x)) && math.IsNaN(float64(f)))
	case Float:
		return x.equal(f)
	default:
		return false
	}
}

// Decimal is an arbitrary-precision decimal
// with the value Unscaled * 10^(-Scale)
type Decimal struct {
	Unscaled *big.Int
	Scale    int32
}

func (d *Decimal) Kind() Kind { return DecimalKind }

func (d *Decimal) Encode(dst *Writer) {
	if d == nil {
		dst.WriteNull()
		return
	}
	dst.WriteDecimal(d.unscaled(), d.Scale)
}

func (d *Decimal) unscaled() *big.Int {
	if d.Unscaled == nil {
		return new(big.Int)
	}
	return d.Unscaled
}

// String formats d the way Java's BigDecimal.toString
// does: plain notation when the scale is non-negative
// and the adjusted exponent is at least -6, and
// scientific notation (1.5E+7) otherwise.
func (d *Decimal) String() string {
	digits := new(big.Int).Abs(d.unscaled()).String()
	var sb strings.Builder
	if d.unscaled().Sign() < 0 {
		sb.WriteByte('-')
	}
	// exponent of the leading digit
	adjusted := int64(len(digits)-1) - int64(d.Scale)
	switch {
	case d.Scale == 0:
		sb.WriteString(digits)
	case d.Scale > 0 && adjusted >= -6:
		if point := len(digits) - int(d.Scale); point > 0 {
			sb.WriteString(digits[:point])
			sb.WriteByte('.')
			sb.WriteString(digits[point:])
		} else {
			sb.WriteString("0.")
			sb.WriteString(strings.Repeat("0", -point))
			sb.WriteString(digits)
		}
	default:
		sb.WriteString(digits[:1])
		if len(digits) > 1 {
			sb.WriteByte('.')
			sb.WriteString(digits[1:])
		}
		if adjusted != 0 {
			sb.WriteByte('E')
			if adjusted > 0 {
				sb.WriteByte('+')
			}
			sb.WriteString(strconv.FormatInt(adjusted, 10))
		}
	}
	return sb.String()
}

// Float64 returns the float64 nearest to d.
// Values outside the float64 range become
// ±Inf or zero.
func (d *Decimal) Float64() float64 {
	// String never expands the exponent,
	// so this is bounded by the number of digits
	f, _ := strconv.ParseFloat(d.String(), 64)
	return f
}

// normal returns the unscaled value and scale
// of d with trailing zeros removed
func (d *Decimal) normal() (*big.Int, int64) {
	u := new(big.Int).Set(d.unscaled())
	if u.Sign() == 0 {
		return u, 0
	}
	scale := int64(d.Scale)
	ten := big.NewInt(10)
	q, r := new(big.Int), new(big.Int)
	for {
		q.QuoRem(u, ten, r)
		if r.Sign() != 0 {
			return u, scale
		}
		u, q = q, u
		scale--
	}
}

func (d *Decimal) equal(x Value) bool {
	d2, ok := x.(*Decimal)
	if !ok {
		return false
	}
	u1, s1 := d.normal()
	u2, s2 := d2.normal()
	return s1 == s2 && u1.Cmp(u2) == 0
}

// String is a UTF-8 string
type String string

func (s String) Kind() Kind         { return StringKind }
func (s String) Encode(dst *Writer) { dst.WriteString(string(s)) }

func (s String) equal(x Value) bool {
	s2, ok := x.(String)
	return ok && s == s2
}

// Array is an ordered sequence of values
type Array []Value

func (a Array) Kind() Kind { return ArrayKind }

func (a Array) Encode(dst *Writer) {
	dst.BeginArray()
	for i := range a {
		if a[i] == nil {
			dst.WriteNull()
			continue
		}
		a[i].Encode(dst)
	}
	dst.EndArray()
}

func (a Array) equal(x Value) bool {
	a2, ok := x.(Array)
	if !ok || len(a) != len(a2) {
		return false
	}
	for i := range a {
		if !Equal(a[i], a2[i]) {
			return false
		}
	}
	return true
}

// Field is a key/value pair in an Object
type Field struct {
	Key   string
	Value Value
}

// indexAt is the number of fields at which
// Object starts maintaining a key index
const indexAt = 8

// Object is an ordered mapping from unique
// string keys to values. Insertion order is
// preserved; setting an existing key replaces
// its value in place.
type Object struct {
	fields []Field
	index  map[string]int
}

// NewObject returns an Object containing
// the given fields. Later fields with a
// duplicate key overwrite earlier ones.
func NewObject(fields ...Field) *Object {
	o := &Object{fields: make([]Field, 0, len(fields))}
	for i := range fields {
		o.Set(fields[i].Key, fields[i].Value)
	}
	return o
}

func (o *Object) Kind() Kind { return ObjectKind }

func (o *Object) Encode(dst *Writer) {
	if o == nil {
		dst.WriteNull()
		return
	}
	dst.BeginObject()
	for i := range o.fields {
		dst.WriteKey(o.fields[i].Key)
		if o.fields[i].Value == nil {
			dst.WriteNull()
			continue
		}
		o.fields[i].Value.Encode(dst)
	}
	dst.EndObject()
}

// Len returns the number of fields in o.
// A nil Object has no fields.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.fields)
}

func (o *Object) find(key string) int {
	if o.index != nil {
		i, ok := o.index[key]
		if !ok {
			return -1
		}
		return i
	}
	return slices.IndexFunc(o.fields, func(f Field) bool {
		return f.Key == key
	})
}

// Set sets the value associated with key.
func (o *Object) Set(key string, v Value) {
	if i := o.find(key); i >= 0 {
		o.fields[i].Value = v
		return
	}
	o.fields = append(o.fields, Field{Key: key, Value: v})
	switch {
	case o.index != nil:
		o.index[key] = len(o.fields) - 1
	case len(o.fields) >= indexAt:
		o.index = make(map[string]int, len(o.fields)*2)
		for i := range o.fields {
			o.index[o.fields[i].Key] = i
		}
	}
}

// Get returns the value associated with key.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return nil, false
	}
	i := o.find(key)
	if i < 0 {
		return nil, false
	}
	return o.fields[i].Value, true
}

// Fields returns a copy of the fields of o
// in insertion order.
func (o *Object) Fields() []Field {
	if o == nil {
		return nil
	}
	return slices.Clone(o.fields)
}

// Clone returns a shallow copy of o.
func (o *Object) Clone() *Object {
	return &Object{
		fields: slices.Clone(o.fields),
		index:  maps.Clone(o.index),
	}
}

// Each calls fn for each field in order.
// If fn returns false, Each returns early.
func (o *Object) Each(fn func(Field) bool) {
	if o == nil {
		return
	}
	for i := range o.fields {
		if !fn(o.fields[i]) {
			return
		}
	}
}

func (o *Object) equal(x Value) bool {
	o2, ok := x.(*Object)
	if !ok {
		return false
	}
	if o == o2 {
		return true
	}
	if len(o.fields) != len(o2.fields) {
		return false
	}
	f1 := o.Fields()
	f2 := o2.Fields()
	byKey := func(x, y Field) int {
		return strings.Compare(x.Key, y.Key)
	}
	slices.SortFunc(f1, byKey)
	slices.SortFunc(f2, byKey)
	for i := range f1 {
		if f1[i].Key != f2[i].Key {
			return false
		}
		if !Equal(f1[i].Value, f2[i].Value) {
			return false
		}
	}
	return true
}
