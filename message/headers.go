// Package message holds the protocol-version-independent request/response
// model: header containers, messages, and the body chunks that flow
// alongside them. Nothing in this package touches a socket; it is built and
// read by the HTTP/1 and HTTP/2 engines, and handed to the embedder as-is.
package message

import (
	"errors"
	"strings"

	"github.com/omegazero-org/omz-http-lib/internal/wire"
)

// ErrLocked is returned by every Headers mutator once the container has
// been locked. The HTTP/2 send paths lock a message (or trailer block) the
// moment it is handed to the wire so that later code cannot mutate state a
// peer has already observed; messages delivered to a callback are not
// locked.
var ErrLocked = errors.New("message: header container is locked")

// pair is a single name/value header entry. Names are stored lowercased;
// callers never see the original casing, matching the HTTP/2 requirement
// that header field names are always lowercase on the wire (RFC 7540
// §8.1.2) and giving HTTP/1 and HTTP/2 a uniform representation.
type pair struct {
	name, value string
}

// Headers is an ordered multimap of header fields. Field order among
// distinct names, and among repeated occurrences of the same name, is
// preserved exactly as inserted; nothing about that order is part of any
// matching contract, it is simply preserved for fidelity when echoing or
// forwarding a message.
type Headers struct {
	pairs  []pair
	locked bool
}

// NewHeaders returns an empty, unlocked header container.
func NewHeaders() *Headers {
	return &Headers{}
}

func lowerName(name string) string {
	if isLower(name) {
		return name
	}
	b := []byte(name)
	wire.ToLower(b)
	return string(b)
}

func isLower(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			return false
		}
	}
	return true
}

// Locked reports whether the container has been locked.
func (h *Headers) Locked() bool {
	return h.locked
}

// Lock freezes the container; every mutator after this call returns
// ErrLocked instead of applying.
func (h *Headers) Lock() {
	h.locked = true
}

// Count returns the number of values stored under name.
func (h *Headers) Count(name string) int {
	name = lowerName(name)
	n := 0
	for _, p := range h.pairs {
		if p.name == name {
			n++
		}
	}
	return n
}

// GetFirst returns the first value stored under name.
func (h *Headers) GetFirst(name string) (string, bool) {
	name = lowerName(name)
	for _, p := range h.pairs {
		if p.name == name {
			return p.value, true
		}
	}
	return "", false
}

// Get returns the value at index among the occurrences of name, in
// insertion order. A negative index counts from the end (-1 is the last
// occurrence), matching the convention used for header access throughout
// this engine.
func (h *Headers) Get(name string, index int) (string, bool) {
	name = lowerName(name)
	var matches []string
	for _, p := range h.pairs {
		if p.name == name {
			matches = append(matches, p.value)
		}
	}
	if index < 0 {
		index += len(matches)
	}
	if index < 0 || index >= len(matches) {
		return "", false
	}
	return matches[index], true
}

// All returns every stored header as ordered name/value pairs. Names are
// lowercase. The returned slice is a copy; mutating it has no effect on h.
func (h *Headers) All() []Pair {
	out := make([]Pair, len(h.pairs))
	for i, p := range h.pairs {
		out[i] = Pair{Name: p.name, Value: p.value}
	}
	return out
}

// Pair is a single name/value header exposed to callers of All.
type Pair struct {
	Name, Value string
}

// Names returns the distinct header names present, lowercase, in first-seen
// order.
func (h *Headers) Names() []string {
	var names []string
	seen := make(map[string]struct{})
	for _, p := range h.pairs {
		if _, ok := seen[p.name]; ok {
			continue
		}
		seen[p.name] = struct{}{}
		names = append(names, p.name)
	}
	return names
}

// Add appends a new occurrence of name, leaving any existing occurrences in
// place.
func (h *Headers) Add(name, value string) error {
	if h.locked {
		return ErrLocked
	}
	h.pairs = append(h.pairs, pair{lowerName(name), value})
	return nil
}

// Set removes every existing occurrence of name and inserts value as the
// sole occurrence, at the position of the first removed occurrence (or at
// the end if name was absent).
func (h *Headers) Set(name, value string) error {
	if h.locked {
		return ErrLocked
	}
	name = lowerName(name)
	inserted := false
	out := h.pairs[:0]
	for _, p := range h.pairs {
		if p.name != name {
			out = append(out, p)
			continue
		}
		if !inserted {
			out = append(out, pair{name, value})
			inserted = true
		}
	}
	h.pairs = out
	if !inserted {
		h.pairs = append(h.pairs, pair{name, value})
	}
	return nil
}

// Edit replaces the value at index among the occurrences of name (same
// indexing convention as Get). It returns an error if no such occurrence
// exists.
func (h *Headers) Edit(name string, index int, value string) error {
	if h.locked {
		return ErrLocked
	}
	name = lowerName(name)
	var positions []int
	for i, p := range h.pairs {
		if p.name == name {
			positions = append(positions, i)
		}
	}
	if index < 0 {
		index += len(positions)
	}
	if index < 0 || index >= len(positions) {
		return errors.New("message: no such header occurrence")
	}
	h.pairs[positions[index]].value = value
	return nil
}

// Delete removes every occurrence of name.
func (h *Headers) Delete(name string) error {
	if h.locked {
		return ErrLocked
	}
	name = lowerName(name)
	out := h.pairs[:0]
	for _, p := range h.pairs {
		if p.name != name {
			out = append(out, p)
		}
	}
	h.pairs = out
	return nil
}

// Extract removes every occurrence of name and returns the first value that
// was present, if any.
func (h *Headers) Extract(name string) (string, bool) {
	first, ok := h.GetFirst(name)
	if ok {
		h.Delete(name)
	}
	return first, ok
}

// AppendWithSeparator appends value to the existing first occurrence of
// name, joined with sep, or inserts it as a new occurrence if name is
// absent. This is how repeated Cookie header fields in an HTTP/2 header
// block are re-folded into a single HTTP/1-style header (RFC 7540
// §8.1.2.5): each field is folded in with sep == "; ".
func (h *Headers) AppendWithSeparator(name, value, sep string) error {
	if h.locked {
		return ErrLocked
	}
	name = lowerName(name)
	for i := range h.pairs {
		if h.pairs[i].name == name {
			h.pairs[i].value = strings.Join([]string{h.pairs[i].value, value}, sep)
			return nil
		}
	}
	h.pairs = append(h.pairs, pair{name, value})
	return nil
}

// Clone returns an independent, unlocked copy of h.
func (h *Headers) Clone() *Headers {
	c := &Headers{pairs: make([]pair, len(h.pairs))}
	copy(c.pairs, h.pairs)
	return c
}
