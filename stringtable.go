// Copyright 2025 the original author or authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package osmpbf

import (
	"cmp"
	"slices"
)

// stringOffset records a string appended by Push together with the byte
// offset assigned to it.
type stringOffset struct {
	value  string
	offset uint32
}

// StringTable assigns byte offsets to strings and serialises them into a
// single NUL-separated blob.  Every index it hands out is the byte position
// at which that string starts in the blob produced by Finish.
//
// Strings enter through two doors.  Insert deduplicates: the same string
// always yields the offset of its first appearance.  Push always appends,
// so repeated pushes of one string produce distinct offsets; the dedup map
// still learns the string on its first push, so a later Insert returns the
// first-push offset.
//
// A StringTable is not safe for concurrent use.
type StringTable struct {
	valid       bool
	indexed     map[string]uint32
	contiguous  []stringOffset
	sizeInBytes uint32
}

// NewStringTable returns an empty table.
func NewStringTable() *StringTable {
	return &StringTable{
		valid:   true,
		indexed: make(map[string]uint32),
	}
}

// NextIndex returns the offset that the next appended string will receive,
// which is also the length of the blob Finish would currently produce.
func (st *StringTable) NextIndex() uint32 {
	st.check()

	return st.sizeInBytes
}

// Insert returns the offset of s, appending it only if the table has not
// seen it before.
func (st *StringTable) Insert(s string) uint32 {
	st.check()

	if offset, ok := st.indexed[s]; ok {
		return offset
	}

	offset := st.sizeInBytes
	st.indexed[s] = offset
	st.sizeInBytes += uint32(len(s)) + 1

	return offset
}

// Push appends s unconditionally and returns its offset.  The first push of
// a string also registers it for Insert lookups.
func (st *StringTable) Push(s string) uint32 {
	st.check()

	offset := st.sizeInBytes
	st.contiguous = append(st.contiguous, stringOffset{value: s, offset: offset})

	if _, ok := st.indexed[s]; !ok {
		st.indexed[s] = offset
	}

	st.sizeInBytes += uint32(len(s)) + 1

	return offset
}

// Finish consumes the table and returns the blob: every string's bytes at
// its assigned offset, each followed by a single NUL.  The blob's length is
// the final NextIndex.  The table must not be used afterwards.
func (st *StringTable) Finish() []byte {
	st.check()
	st.valid = false

	pairs := make([]stringOffset, 0, len(st.indexed)+len(st.contiguous))
	pairs = append(pairs, st.contiguous...)

	for s, offset := range st.indexed {
		pairs = append(pairs, stringOffset{value: s, offset: offset})
	}

	slices.SortFunc(pairs, func(a, b stringOffset) int {
		return cmp.Compare(a.offset, b.offset)
	})

	blob := make([]byte, 0, st.sizeInBytes)

	// A string that entered through both Push and Insert appears twice in
	// pairs with the same offset; emit it once.
	var last int64 = -1

	for _, p := range pairs {
		if int64(p.offset) == last {
			continue
		}

		last = int64(p.offset)

		blob = append(blob, p.value...)
		blob = append(blob, 0x00)
	}

	st.indexed = nil
	st.contiguous = nil

	return blob
}

func (st *StringTable) check() {
	if !st.valid {
		panic("osmpbf: StringTable used after Finish")
	}
}
