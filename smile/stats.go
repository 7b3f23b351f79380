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

// Stats collects counters while decoding.
type Stats struct {
	Header Header
	// Size is the number of bytes consumed,
	// including the header.
	Size int
	// MaxDepth is the deepest container nesting.
	MaxDepth int

	Arrays, Objects  int
	Strings, Numbers int
	Literals         int
	// SharedKeyRefs and SharedValueRefs count
	// back-references that resolved.
	SharedKeyRefs   int
	SharedValueRefs int
	// Skipped counts reserved tokens and
	// references to unpopulated table slots.
	Skipped int
	// KeyTableResets and ValueTableResets count
	// how many times a full shared table was cleared.
	KeyTableResets   int
	ValueTableResets int
	// EndMarker is set if decoding stopped
	// at an end-of-content marker.
	EndMarker bool
}
