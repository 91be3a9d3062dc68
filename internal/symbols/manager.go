// Package symbols provides the symbol table of the assembler.
package symbols

import (
	"errors"
	"fmt"
	"sort"

	"github.com/retroenv/retrogolib/set"
)

// NoRecord marks a symbol that is not defined by a source record.
const NoRecord = -1

// ErrDuplicate is returned when a symbol is defined a second time.
var ErrDuplicate = errors.New("symbol already defined")

// Entry is a single symbol.
type Entry struct {
	Name    string
	Text    string // operand text of the definition, for diagnostics
	Value   int    // pseudo-address or constant value
	Defined bool

	Record     int   // index of the defining record or NoRecord
	References []int // indexes of records that reference the symbol
}

// Table maps symbol names to entries and tracks the symbols that are still
// waiting for a value.
type Table struct {
	entries map[string]*Entry
	pending set.Set[string]
}

// New creates a new symbol table.
func New() *Table {
	return &Table{
		entries: make(map[string]*Entry),
		pending: set.New[string](),
	}
}

// Define adds a symbol that does not have a value yet.
func (t *Table) Define(name, text string, record int) (*Entry, error) {
	if existing, ok := t.entries[name]; ok {
		return existing, fmt.Errorf("%w: '%s'", ErrDuplicate, name)
	}

	entry := &Entry{
		Name:   name,
		Text:   text,
		Record: record,
	}
	t.entries[name] = entry
	t.pending.Add(name)
	return entry, nil
}

// DefineValue adds a symbol with a known value.
func (t *Table) DefineValue(name string, value, record int) (*Entry, error) {
	entry, err := t.Define(name, "", record)
	if err != nil {
		return entry, err
	}
	t.Resolve(name, value)
	return entry, nil
}

// Resolve assigns the value of a previously defined symbol.
func (t *Table) Resolve(name string, value int) bool {
	entry, ok := t.entries[name]
	if !ok {
		return false
	}
	entry.Value = value
	entry.Defined = true
	delete(t.pending, name)
	return true
}

// Get returns the entry of a symbol.
func (t *Table) Get(name string) (*Entry, bool) {
	entry, ok := t.entries[name]
	return entry, ok
}

// Has returns whether a symbol exists, regardless of having a value.
func (t *Table) Has(name string) bool {
	_, ok := t.entries[name]
	return ok
}

// Lookup returns the value of a symbol, whether the value is known and
// whether the symbol exists.
func (t *Table) Lookup(name string) (int, bool, bool) {
	entry, ok := t.entries[name]
	if !ok {
		return 0, false, false
	}
	return entry.Value, entry.Defined, true
}

// AddReference records that the given record references the symbol.
func (t *Table) AddReference(name string, record int) {
	entry, ok := t.entries[name]
	if !ok {
		return
	}
	for _, ref := range entry.References {
		if ref == record {
			return
		}
	}
	entry.References = append(entry.References, record)
}

// Pending returns the number of symbols without a value.
func (t *Table) Pending() int {
	return len(t.pending)
}

// PendingNames returns the sorted names of all symbols without a value.
func (t *Table) PendingNames() []string {
	names := make([]string, 0, len(t.pending))
	for name := range t.pending {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of symbols in the table.
func (t *Table) Len() int {
	return len(t.entries)
}

// Sorted returns all entries sorted by name.
func (t *Table) Sorted() []*Entry {
	items := make([]*Entry, 0, len(t.entries))
	for _, entry := range t.entries {
		items = append(items, entry)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Name < items[j].Name
	})
	return items
}
