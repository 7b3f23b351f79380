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
	"github.com/dchest/siphash"
)

// MaxShared is the capacity of a
// shared-string table. Adding a string
// to a full table first empties it.
const MaxShared = 1024

// hash table seeds; any fixed values work
const (
	symk0 = 0x736d696c65000001
	symk1 = 0x736d696c65000002
)

// slot table size; a power of two at
// least twice MaxShared
const symslots = 2 * MaxShared

// Symtab is a positional table of shared
// strings. Decoders and encoders each keep
// one table for keys and one for values, and
// both sides add strings in the same order
// so that indexes agree.
type Symtab struct {
	interned []string // index -> string lookup
	// slots is an open-addressed index
	// from hash(string) to 1+index;
	// only encoders populate it
	slots   []uint16
	scratch []byte
	resets  int
}

// Reset empties the table.
func (s *Symtab) Reset() {
	s.clear()
	s.resets = 0
}

func (s *Symtab) clear() {
	s.interned = s.interned[:0]
	if s.slots != nil {
		clear(s.slots)
	}
}

// Len returns the number of strings
// currently in the table.
func (s *Symtab) Len() int { return len(s.interned) }

// Resets returns the number of times the
// table filled up and was emptied since
// the last call to Reset.
func (s *Symtab) Resets() int { return s.resets }

// Lookup gets the string associated with
// index i. It returns ("", false) when i
// is out of range.
func (s *Symtab) Lookup(i int) (string, bool) {
	if i < 0 || i >= len(s.interned) {
		return "", false
	}
	return s.interned[i], true
}

// Add appends str to the table and returns
// its index. If the table is full, it is
// emptied first, so the result is 0.
func (s *Symtab) Add(str string) int {
	if len(s.interned) >= MaxShared {
		s.clear()
		s.resets++
	}
	s.interned = append(s.interned, str)
	id := len(s.interned) - 1
	if s.slots != nil {
		s.insert(str, id)
	}
	return id
}

// index makes the table searchable with Find.
// Strings already in the table are indexed.
func (s *Symtab) index() {
	if s.slots != nil {
		return
	}
	s.slots = make([]uint16, symslots)
	for i := range s.interned {
		s.insert(s.interned[i], i)
	}
}

func (s *Symtab) hash(str string) int {
	s.scratch = append(s.scratch[:0], str...)
	return int(siphash.Hash(symk0, symk1, s.scratch) & (symslots - 1))
}

func (s *Symtab) insert(str string, id int) {
	h := s.hash(str)
	for s.slots[h] != 0 {
		h = (h + 1) & (symslots - 1)
	}
	s.slots[h] = uint16(id + 1)
}

// Find returns the index of str if it is
// present in the table. If the same string
// was added more than once, any of its
// indexes may be returned.
func (s *Symtab) Find(str string) (int, bool) {
	if s.slots == nil {
		for i := range s.interned {
			if s.interned[i] == str {
				return i, true
			}
		}
		return -1, false
	}
	h := s.hash(str)
	for s.slots[h] != 0 {
		id := int(s.slots[h]) - 1
		if s.interned[id] == str {
			return id, true
		}
		h = (h + 1) & (symslots - 1)
	}
	return -1, false
}
