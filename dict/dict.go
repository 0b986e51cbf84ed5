// Package dict implements the name dictionary: a LIFO spine of bindings
// from word names to tagged values, with mark/forget checkpointing. Local
// variable names are not bound here; the compiler's per-definition scopes
// resolve them (see compiler.ResolveLocal).
package dict

import "github.com/jhlagado/ts-tacitus-sub002/vm"

// entry is one binding on the dictionary spine.
type entry struct {
	name      string
	value     vm.Value
	immediate bool
}

// Dict is a dictionary spine. The zero value is ready to use.
type Dict struct {
	entries []entry
}

// New returns an empty Dict.
func New() *Dict {
	return &Dict{}
}

// Define pushes a new entry onto the spine. Shadowing is permitted: a
// redefinition of an existing name does not remove the earlier entry, it is
// simply found first by Lookup.
func (d *Dict) Define(name string, value vm.Value, immediate bool) {
	d.entries = append(d.entries, entry{name: name, value: value, immediate: immediate})
}

// Lookup returns the most recent binding for name, or (0, false) if none
// exists.
func (d *Dict) Lookup(name string) (vm.Value, bool) {
	for k := len(d.entries) - 1; k >= 0; k-- {
		if d.entries[k].name == name {
			return d.entries[k].value, true
		}
	}
	return 0, false
}

// FindEntry is Lookup plus the entry's immediate flag.
func (d *Dict) FindEntry(name string) (value vm.Value, immediate bool, ok bool) {
	for k := len(d.entries) - 1; k >= 0; k-- {
		if d.entries[k].name == name {
			return d.entries[k].value, d.entries[k].immediate, true
		}
	}
	return 0, false, false
}

// Checkpoint is a snapshot of the dictionary spine's length, returned by
// Mark and consumed by Forget.
type Checkpoint int

// Mark snapshots the current spine length.
func (d *Dict) Mark() Checkpoint {
	return Checkpoint(len(d.entries))
}

// Forget discards every entry defined since cp was taken.
func (d *Dict) Forget(cp Checkpoint) {
	if int(cp) < len(d.entries) {
		d.entries = d.entries[:cp]
	}
}

// Len reports how many entries are currently live, for diagnostics.
func (d *Dict) Len() int {
	return len(d.entries)
}
