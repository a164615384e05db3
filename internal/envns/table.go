package envns

import (
	"os"
	"strings"
)

// Entry is one key/value pair from an environment table.
type Entry struct {
	Name  string
	Value string
}

// Table abstracts the process environment so the namespace logic can be
// exercised against a fake table in tests. Implementations perform no
// caching: every call reflects the table's state at call time.
type Table interface {
	Lookup(name string) (string, bool)
	Set(name, value string) error
	Unset(name string) error
	Entries() []Entry
}

// osTable forwards every operation to the host process environment.
type osTable struct{}

// OS returns a Table backed by the real process environment.
func OS() Table { return osTable{} }

func (osTable) Lookup(name string) (string, bool) { return os.LookupEnv(name) }
func (osTable) Set(name, value string) error      { return os.Setenv(name, value) }
func (osTable) Unset(name string) error           { return os.Unsetenv(name) }

func (osTable) Entries() []Entry {
	environ := os.Environ()
	entries := make([]Entry, 0, len(environ))
	for _, kv := range environ {
		entries = append(entries, splitEntry(kv))
	}
	return entries
}

// splitEntry parses a NAME=value string from the environment block.
// A leading '=' belongs to the name (Windows hidden variables look like
// "=C:=C:\..."), so the separator search starts at index 1.
func splitEntry(kv string) Entry {
	if kv == "" {
		return Entry{}
	}
	if i := strings.Index(kv[1:], "="); i >= 0 {
		return Entry{Name: kv[:i+1], Value: kv[i+2:]}
	}
	return Entry{Name: kv}
}

// MapTable is an in-memory Table with stable insertion order, used in tests
// and anywhere a process-independent environment is needed.
type MapTable struct {
	values map[string]string
	order  []string
}

// NewMapTable creates a MapTable preloaded with the given entries.
func NewMapTable(entries ...Entry) *MapTable {
	t := &MapTable{values: make(map[string]string, len(entries))}
	for _, e := range entries {
		_ = t.Set(e.Name, e.Value)
	}
	return t
}

func (t *MapTable) Lookup(name string) (string, bool) {
	v, ok := t.values[name]
	return v, ok
}

func (t *MapTable) Set(name, value string) error {
	if _, ok := t.values[name]; !ok {
		t.order = append(t.order, name)
	}
	t.values[name] = value
	return nil
}

func (t *MapTable) Unset(name string) error {
	if _, ok := t.values[name]; ok {
		delete(t.values, name)
		for i, n := range t.order {
			if n == name {
				t.order = append(t.order[:i], t.order[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (t *MapTable) Entries() []Entry {
	entries := make([]Entry, 0, len(t.order))
	for _, name := range t.order {
		entries = append(entries, Entry{Name: name, Value: t.values[name]})
	}
	return entries
}
