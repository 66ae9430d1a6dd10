package param

import (
	"github.com/justyntemme/plughost/pkg/framework/debug"
)

// Table holds the parameter descriptors of one plugin instance. The
// control side rebuilds it while processing is detached: Create allocates
// for a known count, Clear releases everything. Between those two points
// the table's shape never changes, so the processing path reads it without
// locks.
type Table struct {
	data    []Data
	ranges  []Ranges
	special []Special
}

// Create allocates descriptors for count parameters, optionally with a
// special-role column. The table must be empty and the count positive;
// violations are logged and leave the table untouched.
func (t *Table) Create(count uint32, withSpecial bool) bool {
	if !debug.Check(len(t.data) == 0, "parameter table empty before create") {
		return false
	}
	if !debug.Checkf(count > 0, "parameter count %d positive", count) {
		return false
	}

	t.data = make([]Data, count)
	t.ranges = make([]Ranges, count)
	for i := range t.data {
		t.data[i] = Data{
			Index:  IndexNull,
			RIndex: IndexNull,
			MidiCC: MidiCCNone,
		}
		t.ranges[i] = DefaultRanges()
	}
	if withSpecial {
		t.special = make([]Special, count)
	}
	return true
}

// Clear releases all descriptor storage.
func (t *Table) Clear() {
	t.data = nil
	t.ranges = nil
	t.special = nil
}

// Count reports how many parameters the table describes.
func (t *Table) Count() uint32 {
	return uint32(len(t.data))
}

// HasSpecial reports whether the table carries a special-role column.
func (t *Table) HasSpecial() bool {
	return t.special != nil
}

// DataAt returns the descriptor at index, or nil when out of range.
func (t *Table) DataAt(index uint32) *Data {
	if !debug.Checkf(index < t.Count(), "parameter index %d within %d", index, t.Count()) {
		return nil
	}
	return &t.data[index]
}

// RangesAt returns the ranges at index, or nil when out of range.
func (t *Table) RangesAt(index uint32) *Ranges {
	if !debug.Checkf(index < t.Count(), "parameter index %d within %d", index, t.Count()) {
		return nil
	}
	return &t.ranges[index]
}

// SpecialAt returns the special role at index. Tables without the column
// and out-of-range indexes report SpecialNone.
func (t *Table) SpecialAt(index uint32) Special {
	if t.special == nil || index >= t.Count() {
		return SpecialNone
	}
	return t.special[index]
}

// SetSpecial tags the parameter at index with a role. It reports false
// when the table has no special column or the index is out of range.
func (t *Table) SetSpecial(index uint32, s Special) bool {
	if !debug.Check(t.special != nil, "parameter table has a special column") {
		return false
	}
	if !debug.Checkf(index < t.Count(), "parameter index %d within %d", index, t.Count()) {
		return false
	}
	t.special[index] = s
	return true
}

// FindSpecial returns the index of the first parameter tagged with s, or
// IndexNull when none is.
func (t *Table) FindSpecial(s Special) int32 {
	for i := range t.special {
		if t.special[i] == s {
			return int32(i)
		}
	}
	return IndexNull
}

// FixedValue clamps value into the parameter's range. Out-of-range indexes
// are logged and report the range minimum substitute of zero.
func (t *Table) FixedValue(index uint32, value float32) float32 {
	if !debug.Checkf(index < t.Count(), "parameter index %d within %d", index, t.Count()) {
		return 0
	}
	return t.ranges[index].FixValue(value)
}
