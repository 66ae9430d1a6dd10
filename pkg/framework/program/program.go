// Package program tracks a plugin's preset programs and MIDI bank
// programs, including which entry is current. Tables are rebuilt by the
// control side while processing is detached.
package program

import (
	"github.com/justyntemme/plughost/pkg/framework/debug"
)

// CurrentNone is the current index when nothing is selected.
const CurrentNone int32 = -1

// List is the named program table.
type List struct {
	names   []string
	current int32
}

// Create allocates count empty program names and deselects. The table
// must be empty and the count positive.
func (l *List) Create(count uint32) bool {
	if !debug.Check(len(l.names) == 0, "program table empty before create") {
		return false
	}
	if !debug.Checkf(count > 0, "program count %d positive", count) {
		return false
	}
	l.names = make([]string, count)
	l.current = CurrentNone
	return true
}

// Clear releases the table and deselects.
func (l *List) Clear() {
	l.names = nil
	l.current = CurrentNone
}

// Count reports how many programs the table holds.
func (l *List) Count() uint32 {
	return uint32(len(l.names))
}

// Name returns the program name at index.
func (l *List) Name(index uint32) (string, bool) {
	if !debug.Checkf(index < l.Count(), "program index %d within %d", index, l.Count()) {
		return "", false
	}
	return l.names[index], true
}

// SetName stores a program name at index.
func (l *List) SetName(index uint32, name string) bool {
	if !debug.Checkf(index < l.Count(), "program index %d within %d", index, l.Count()) {
		return false
	}
	l.names[index] = name
	return true
}

// Current returns the selected index, or CurrentNone.
func (l *List) Current() int32 {
	return l.current
}

// SetCurrent selects a program. CurrentNone deselects; anything else must
// be in range.
func (l *List) SetCurrent(index int32) bool {
	if index != CurrentNone && !debug.Checkf(index >= 0 && uint32(index) < l.Count(),
		"program selection %d within %d", index, l.Count()) {
		return false
	}
	l.current = index
	return true
}

// CurrentName returns the selected program's name. It reports false when
// nothing is selected, guarding against a selection that survived a table
// rebuild.
func (l *List) CurrentName() (string, bool) {
	if l.current == CurrentNone || uint32(l.current) >= l.Count() {
		return "", false
	}
	return l.names[l.current], true
}

// MIDIProgram is one bank/program entry.
type MIDIProgram struct {
	Bank    uint32
	Program uint32
	Name    string
}

// MIDIList is the MIDI program table.
type MIDIList struct {
	entries []MIDIProgram
	current int32
}

// Create allocates count empty entries and deselects. The table must be
// empty and the count positive.
func (l *MIDIList) Create(count uint32) bool {
	if !debug.Check(len(l.entries) == 0, "midi program table empty before create") {
		return false
	}
	if !debug.Checkf(count > 0, "midi program count %d positive", count) {
		return false
	}
	l.entries = make([]MIDIProgram, count)
	l.current = CurrentNone
	return true
}

// Clear releases the table and deselects.
func (l *MIDIList) Clear() {
	l.entries = nil
	l.current = CurrentNone
}

// Count reports how many entries the table holds.
func (l *MIDIList) Count() uint32 {
	return uint32(len(l.entries))
}

// At returns the entry at index, or nil when out of range.
func (l *MIDIList) At(index uint32) *MIDIProgram {
	if !debug.Checkf(index < l.Count(), "midi program index %d within %d", index, l.Count()) {
		return nil
	}
	return &l.entries[index]
}

// Current returns the selected index, or CurrentNone.
func (l *MIDIList) Current() int32 {
	return l.current
}

// SetCurrent selects an entry. CurrentNone deselects; anything else must
// be in range.
func (l *MIDIList) SetCurrent(index int32) bool {
	if index != CurrentNone && !debug.Checkf(index >= 0 && uint32(index) < l.Count(),
		"midi program selection %d within %d", index, l.Count()) {
		return false
	}
	l.current = index
	return true
}

// CurrentEntry returns the selected entry by value. It reports false when
// nothing is selected or the selection is stale, so callers never read
// through a rebuilt table.
func (l *MIDIList) CurrentEntry() (MIDIProgram, bool) {
	if l.current == CurrentNone || uint32(l.current) >= l.Count() {
		return MIDIProgram{}, false
	}
	return l.entries[l.current], true
}

// Find returns the index of the entry matching bank and program, or
// CurrentNone when absent.
func (l *MIDIList) Find(bank, prog uint32) int32 {
	for i := range l.entries {
		if l.entries[i].Bank == bank && l.entries[i].Program == prog {
			return int32(i)
		}
	}
	return CurrentNone
}
