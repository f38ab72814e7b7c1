/* Copyright 2013 Google Inc. All Rights Reserved.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package breakpad

import "sort"

// covers reports whether addr lies in the half-open range [base, base+size),
// written to avoid additive overflow at the top of the address space.
func covers(base, size, addr uint64) bool {
	return addr >= base && addr-base < size
}

// rangeEntry is one stored half-open range and its associated value, plus
// any ranges nested cleanly inside it.
type rangeEntry[T any] struct {
	base, size uint64
	value      T
	children   *containmentRangeMap[T]
}

// containmentRangeMap stores half-open address ranges that may nest but may
// never cross: a stored range must either be disjoint from, properly
// contain, or be properly contained by every other range at the same level.
// It is implemented as a base-sorted slice with per-entry nested maps for
// contained ranges, rather than a flat interval tree, so that
// retrieve-nearest can cheaply walk down into the most specific containing
// range.
type containmentRangeMap[T any] struct {
	entries []rangeEntry[T]
}

func newContainmentRangeMap[T any]() *containmentRangeMap[T] {
	return &containmentRangeMap[T]{}
}

// store inserts [base, base+size) with value into the map. It fails, with
// no effect, if size is zero, if base+size overflows, or if the new range
// crosses (neither nests within nor contains) an existing top-level range.
// A tie on base with an existing top-level entry is overwritten ("last
// stored wins").
func (m *containmentRangeMap[T]) store(base, size uint64, value T) bool {
	if size == 0 {
		return false
	}
	if base+size < base {
		return false
	}
	end := base + size

	idx := sort.Search(len(m.entries), func(i int) bool { return m.entries[i].base >= base })

	if idx < len(m.entries) && m.entries[idx].base == base {
		m.entries[idx] = rangeEntry[T]{base: base, size: size, value: value}
		return true
	}

	// Does an existing entry strictly contain the new range? If so, try to
	// nest the new range inside it.
	if idx > 0 {
		prev := &m.entries[idx-1]
		prevEnd := prev.base + prev.size
		if base >= prev.base && end <= prevEnd {
			if prev.children == nil {
				prev.children = newContainmentRangeMap[T]()
			}
			return prev.children.store(base, size, value)
		}
		// Crossing, not nesting: reject.
		if base < prevEnd {
			return false
		}
	}

	// Does the new range strictly contain the following existing entry (or
	// entries)? Breakpad ranges in practice nest one level at a time, so it
	// is enough to check the immediately following entry; a crossing
	// against it is rejected, proper containment absorbs just that one
	// entry as a child.
	if idx < len(m.entries) {
		next := &m.entries[idx]
		nextEnd := next.base + next.size
		if next.base >= base && nextEnd <= end {
			child := rangeEntry[T]{base: base, size: size, value: value}
			child.children = newContainmentRangeMap[T]()
			child.children.entries = append(child.children.entries, m.entries[idx])
			m.entries[idx] = child
			return true
		}
		if next.base < end {
			return false
		}
	}

	entry := rangeEntry[T]{base: base, size: size, value: value}
	m.entries = append(m.entries, entry)
	sort.Slice(m.entries, func(i, j int) bool { return m.entries[i].base < m.entries[j].base })
	return true
}

// retrieveRange returns the innermost stored range covering addr.
func (m *containmentRangeMap[T]) retrieveRange(addr uint64) (value T, base, size uint64, ok bool) {
	e := m.findCovering(addr)
	if e == nil {
		return value, 0, 0, false
	}
	for e.children != nil {
		if child := e.children.findCovering(addr); child != nil {
			e = child
			continue
		}
		break
	}
	return e.value, e.base, e.size, true
}

// retrieveNearest returns the innermost range whose base is <= addr: either
// the range covering addr (descending into children as deep as possible),
// or, absent that, the top-level range with the greatest base <= addr. This
// lets a caller bound an unrelated point-keyed lookup (e.g. PUBLIC symbols)
// by the next function even when no function covers addr.
func (m *containmentRangeMap[T]) retrieveNearest(addr uint64) (value T, base, size uint64, ok bool) {
	if e := m.findCovering(addr); e != nil {
		for e.children != nil {
			if child := e.children.findCovering(addr); child != nil {
				e = child
				continue
			}
			break
		}
		return e.value, e.base, e.size, true
	}

	idx := sort.Search(len(m.entries), func(i int) bool { return m.entries[i].base > addr })
	if idx == 0 {
		return value, 0, 0, false
	}
	e := &m.entries[idx-1]
	return e.value, e.base, e.size, true
}

// findCovering returns the top-level entry whose range covers addr, or nil.
func (m *containmentRangeMap[T]) findCovering(addr uint64) *rangeEntry[T] {
	idx := sort.Search(len(m.entries), func(i int) bool { return m.entries[i].base > addr })
	if idx == 0 {
		return nil
	}
	e := &m.entries[idx-1]
	if covers(e.base, e.size, addr) {
		return e
	}
	return nil
}

// flatRangeMap point-keys values by address and retrieves the entry with
// the greatest key <= addr, used for PUBLIC symbols which have no extent of
// their own.
type flatRangeMap[T any] struct {
	keys   []uint64
	values []T
}

func newFlatRangeMap[T any]() *flatRangeMap[T] {
	return &flatRangeMap[T]{}
}

// store inserts addr -> value. Fails if addr already has an entry.
func (m *flatRangeMap[T]) store(addr uint64, value T) bool {
	idx := sort.Search(len(m.keys), func(i int) bool { return m.keys[i] >= addr })
	if idx < len(m.keys) && m.keys[idx] == addr {
		return false
	}
	m.keys = append(m.keys, 0)
	m.values = append(m.values, value)
	copy(m.keys[idx+1:], m.keys[idx:])
	copy(m.values[idx+1:], m.values[idx:])
	m.keys[idx] = addr
	m.values[idx] = value
	return true
}

// retrieve returns the entry with the greatest key <= addr.
func (m *flatRangeMap[T]) retrieve(addr uint64) (value T, key uint64, ok bool) {
	idx := sort.Search(len(m.keys), func(i int) bool { return m.keys[i] > addr })
	if idx == 0 {
		return value, 0, false
	}
	return m.values[idx-1], m.keys[idx-1], true
}

func (m *flatRangeMap[T]) len() int {
	return len(m.keys)
}

// orderedMap is an insertion-tolerant, key-ascending address -> string map,
// used for CFI delta rules. Unlike flatRangeMap it exposes a lower-bound
// iterator rather than nearest-below retrieval.
type orderedMap struct {
	keys   []uint64
	values []string
}

func newOrderedMap() *orderedMap {
	return &orderedMap{}
}

func (m *orderedMap) set(key uint64, value string) {
	idx := sort.Search(len(m.keys), func(i int) bool { return m.keys[i] >= key })
	if idx < len(m.keys) && m.keys[idx] == key {
		m.values[idx] = value
		return
	}
	m.keys = append(m.keys, 0)
	m.values = append(m.values, "")
	copy(m.keys[idx+1:], m.keys[idx:])
	copy(m.values[idx+1:], m.values[idx:])
	m.keys[idx] = key
	m.values[idx] = value
}

// lowerBound returns the index of the first entry with key >= key, or
// len(m.keys) if none.
func (m *orderedMap) lowerBound(key uint64) int {
	return sort.Search(len(m.keys), func(i int) bool { return m.keys[i] >= key })
}

func (m *orderedMap) len() int {
	return len(m.keys)
}
