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
	"errors"
	"fmt"
	"io"
)

var (
	// ErrFormat is matched (via errors.Is) by
	// every *FormatError.
	ErrFormat = errors.New("smile: malformed input")
	// ErrUnsupported is matched by every *UnsupportedError.
	ErrUnsupported = errors.New("smile: unsupported feature")
	// ErrInvalidInput is matched by every *InvalidInputError.
	ErrInvalidInput = errors.New("smile: invalid input")
)

// FormatError is returned when decoding
// input that is not valid Smile.
type FormatError struct {
	// Offset is the byte offset at which
	// the problem was detected.
	Offset int
	Msg    string
	// Err is an optional underlying cause
	// (e.g. io.ErrUnexpectedEOF).
	Err error
}

func (f *FormatError) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("smile: offset %d: %s: %s", f.Offset, f.Msg, f.Err)
	}
	return fmt.Sprintf("smile: offset %d: %s", f.Offset, f.Msg)
}

func (f *FormatError) Unwrap() error { return f.Err }

func (f *FormatError) Is(target error) bool { return target == ErrFormat }

// UnsupportedError is returned when decoding
// or encoding a construct this package does
// not implement.
type UnsupportedError struct {
	Offset  int
	Feature string
}

func (u *UnsupportedError) Error() string {
	return fmt.Sprintf("smile: offset %d: %s is not supported", u.Offset, u.Feature)
}

func (u *UnsupportedError) Is(target error) bool { return target == ErrUnsupported }

// InvalidInputError is returned from Encode
// when the root value is not an Array or Object,
// or when a value cannot be represented in Smile.
type InvalidInputError struct {
	Kind Kind
	// Msg, if set, replaces the default
	// root-kind message.
	Msg string
}

func (i *InvalidInputError) Error() string {
	if i.Msg != "" {
		return "smile: invalid input: " + i.Msg
	}
	return fmt.Sprintf("smile: root value must be an array or object; found %s", i.Kind)
}

func (i *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

func malformed(off int, f string, args ...interface{}) error {
	return &FormatError{Offset: off, Msg: fmt.Sprintf(f, args...)}
}

func truncated(off int, what string) error {
	return &FormatError{Offset: off, Msg: "truncated " + what, Err: io.ErrUnexpectedEOF}
}

func unsupported(off int, feature string) error {
	return &UnsupportedError{Offset: off, Feature: feature}
}
