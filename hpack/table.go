package hpack

import "errors"

// ErrTableSizeUpdateTooLarge is returned when a dynamic table size update
// requests a size larger than the hard limit negotiated for the
// connection (SETTINGS_HEADER_TABLE_SIZE).
var ErrTableSizeUpdateTooLarge = errors.New("hpack: dynamic table size update exceeds negotiated limit")

// dynamicTable is the per-direction HPACK dynamic table (RFC 7541 §2.3.2).
// Both Encoder and Decoder embed one; they are never shared, since each
// direction of a connection's header-field stream keeps its own
// compression state (RFC 7541 §2.2).
type dynamicTable struct {
	entries []Field // entries[0] is the most recently inserted entry
	size    int
	maxSize int // current negotiated size, <= limit
	limit   int // hard local cap (SETTINGS_HEADER_TABLE_SIZE)
}

func newDynamicTable(limit int) *dynamicTable {
	return &dynamicTable{maxSize: limit, limit: limit}
}

// setLimit lowers or raises the hard local cap. Used when the embedder
// changes the advertised SETTINGS_HEADER_TABLE_SIZE.
func (t *dynamicTable) setLimit(n int) {
	t.limit = n
	if t.maxSize > n {
		t.maxSize = n
		t.evictTo(n)
	}
}

// updateSize applies a Dynamic Table Size Update instruction (RFC 7541
// §6.3), which a peer may send at the start of any header block.
func (t *dynamicTable) updateSize(n int) error {
	if n > t.limit {
		return ErrTableSizeUpdateTooLarge
	}
	t.maxSize = n
	t.evictTo(n)
	return nil
}

func (t *dynamicTable) evictTo(max int) {
	for t.size > max && len(t.entries) > 0 {
		last := t.entries[len(t.entries)-1]
		t.entries = t.entries[:len(t.entries)-1]
		t.size -= last.size()
	}
}

// add inserts f as the newest entry, evicting older entries as needed. A
// single entry larger than the table's current size empties the table
// entirely without being stored (RFC 7541 §4.4).
func (t *dynamicTable) add(f Field) {
	sz := f.size()
	if sz > t.maxSize {
		t.entries = t.entries[:0]
		t.size = 0
		return
	}
	t.entries = append([]Field{f}, t.entries...)
	t.size += sz
	t.evictTo(t.maxSize)
}

// get returns the entry at RFC 1-based dynamic-table index i.
func (t *dynamicTable) get(i int) (Field, bool) {
	idx := i - 1
	if idx < 0 || idx >= len(t.entries) {
		return Field{}, false
	}
	return t.entries[idx], true
}

// findInDynamic looks for name (and optionally value) among the dynamic
// entries, returning 1-based indices into the dynamic table (0 if absent).
func (t *dynamicTable) findInDynamic(name, value string) (full int, nameOnly int) {
	for i, e := range t.entries {
		if e.Name == name {
			if nameOnly == 0 {
				nameOnly = i + 1
			}
			if e.Value == value {
				return i + 1, nameOnly
			}
		}
	}
	return 0, nameOnly
}
