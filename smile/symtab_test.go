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
	"math/rand"
	"testing"
)

func TestSymtab(t *testing.T) {
	syms := []string{
		"Ticket",
		"IssueData",
		"IssueTime",
		"MeterId",
		"MarkedTime",
		"RPState",
	}
	var s Symtab
	s.index()
	for i := range syms {
		if id := s.Add(syms[i]); id != i {
			t.Fatalf("Add(%q) = %d, want %d", syms[i], id, i)
		}
	}
	for i := range syms {
		id, ok := s.Find(syms[i])
		if !ok || id != i {
			t.Errorf("Find(%q) = %d, %v", syms[i], id, ok)
		}
		str, ok := s.Lookup(i)
		if !ok || str != syms[i] {
			t.Errorf("Lookup(%d) = %q, %v", i, str, ok)
		}
	}
	if _, ok := s.Find("Fine"); ok {
		t.Error("found a string that was never added")
	}
	if _, ok := s.Lookup(len(syms)); ok {
		t.Error("Lookup past the end succeeded")
	}
	if _, ok := s.Lookup(-1); ok {
		t.Error("Lookup(-1) succeeded")
	}
	for i := range syms {
		if str, ok := s.Lookup(i); !ok || str != syms[i] {
			t.Errorf("Lookup(%d) = %q, %v", i, str, ok)
		}
	}
}

func TestSymtabWrap(t *testing.T) {
	var indexed, plain Symtab
	indexed.index()
	for i := 0; i < MaxShared; i++ {
		str := fmt.Sprintf("sym%d", i)
		indexed.Add(str)
		plain.Add(str)
	}
	if indexed.Len() != MaxShared || indexed.Resets() != 0 {
		t.Fatalf("len %d resets %d", indexed.Len(), indexed.Resets())
	}
	if id, ok := indexed.Find("sym1023"); !ok || id != 1023 {
		t.Fatalf("Find(sym1023) = %d, %v", id, ok)
	}
	for _, s := range []*Symtab{&indexed, &plain} {
		if id := s.Add("next"); id != 0 {
			t.Errorf("Add after full = %d", id)
		}
		if s.Len() != 1 || s.Resets() != 1 {
			t.Errorf("len %d resets %d", s.Len(), s.Resets())
		}
		if _, ok := s.Find("sym0"); ok {
			t.Error("found a string from before the reset")
		}
		if id, ok := s.Find("next"); !ok || id != 0 {
			t.Errorf("Find(next) = %d, %v", id, ok)
		}
	}
	indexed.Reset()
	if indexed.Len() != 0 || indexed.Resets() != 0 {
		t.Error("Reset did not empty the table")
	}
}

func TestSymtabIndexLater(t *testing.T) {
	var s Symtab
	s.Add("a")
	s.Add("b")
	s.index()
	if id, ok := s.Find("b"); !ok || id != 1 {
		t.Errorf("Find(b) = %d, %v", id, ok)
	}
}

func BenchmarkSymtabFind(b *testing.B) {
	var s Symtab
	s.index()
	syms := make([]string, MaxShared)
	for i := range syms {
		syms[i] = fmt.Sprintf("field_%d", rand.Int())
		s.Add(syms[i])
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Find(syms[i%len(syms)])
	}
}
