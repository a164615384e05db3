// Package envns presents an environment-variable table as an intercepted
// string-keyed namespace with get/set/query/delete/enumerate semantics.
// It is engine- and platform-agnostic: the script-engine glue lives in the
// root package, and all OS specifics are confined to the Table adapter.
package envns

import "strings"

// KeyKind distinguishes string property keys from symbolic ones. The
// distinction is made once at the call boundary instead of by runtime type
// tests inside the handlers.
type KeyKind int

const (
	KindString KeyKind = iota
	KindSymbol
)

// Key is a tagged property key.
type Key struct {
	Name string
	Kind KeyKind
}

// StringKey builds a string-kinded key.
func StringKey(name string) Key { return Key{Name: name, Kind: KindString} }

// SymbolKey builds a symbolic key. Its name is ignored by every handler.
func SymbolKey() Key { return Key{Kind: KindSymbol} }

// Attr describes a key's property attributes as reported by Query.
// The flag values match the script engine's property attribute encoding.
type Attr int

const (
	// AttrNone marks a present key with default attributes.
	AttrNone Attr = 0

	AttrReadOnly   Attr = 1 << 0
	AttrDontEnum   Attr = 1 << 1
	AttrDontDelete Attr = 1 << 2

	// AttrNotFound marks an absent key.
	AttrNotFound Attr = -1
)

// AttrHidden is the composite reported for keys whose name starts with '=':
// present, but excluded from enumeration and immune to writes and deletes.
const AttrHidden = AttrReadOnly | AttrDontEnum | AttrDontDelete

// enumBatchSize bounds the chunk buffer used while building the enumeration
// result, mirroring the fixed-size transfer buffer of the original binding
// layer. Overflowing chunks are flushed and the buffer reused.
const enumBatchSize = 8

// Namespace implements the five intercepted operations over a Table.
// It holds no state of its own: every call observes the table live, so an
// external mutation between two reads is visible to the second one.
type Namespace struct {
	table Table
}

// New creates a Namespace over the given table. A nil table means the real
// process environment.
func New(table Table) *Namespace {
	if table == nil {
		table = OS()
	}
	return &Namespace{table: table}
}

// hidden reports whether a key names a hidden, read-only variable.
func hidden(name string) bool { return strings.HasPrefix(name, "=") }

// Get returns the key's value. Symbolic keys and absent keys report
// found=false; an empty string value reports ("", true), so callers can
// tell "unset" from "set to empty".
func (n *Namespace) Get(key Key) (string, bool) {
	if key.Kind != KindString {
		return "", false
	}
	return n.table.Lookup(key.Name)
}

// Set writes the key and returns the value that was requested, whether or
// not the write took effect. Writes to hidden ('='-prefixed) keys are
// dropped but still echoed, matching the original read-then-echo contract.
func (n *Namespace) Set(key Key, value string) string {
	if key.Kind == KindString && !hidden(key.Name) {
		_ = n.table.Set(key.Name, value)
	}
	return value
}

// Query reports whether the key exists and with which attributes.
func (n *Namespace) Query(key Key) Attr {
	if key.Kind != KindString {
		return AttrNotFound
	}
	if _, ok := n.table.Lookup(key.Name); !ok {
		return AttrNotFound
	}
	if hidden(key.Name) {
		return AttrHidden
	}
	return AttrNone
}

// Delete removes the key if it is a string key. It always reports true:
// the namespace has no non-configurable properties, so deletion appears to
// succeed like the language's delete operator even when the underlying
// removal was a no-op.
func (n *Namespace) Delete(key Key) bool {
	if key.Kind == KindString {
		_ = n.table.Unset(key.Name)
	}
	return true
}

// Enumerate walks the table and returns every non-hidden key. The walk is
// live: a second call re-reads the table and may observe different keys.
// Ordering follows the table's native order and is not stable across
// platforms.
func (n *Namespace) Enumerate() []string {
	var keys []string
	var batch [enumBatchSize]string
	filled := 0
	for _, e := range n.table.Entries() {
		if e.Name == "" || hidden(e.Name) {
			continue
		}
		batch[filled] = e.Name
		filled++
		if filled == enumBatchSize {
			keys = append(keys, batch[:filled]...)
			filled = 0
		}
	}
	if filled > 0 {
		keys = append(keys, batch[:filled]...)
	}
	return keys
}
