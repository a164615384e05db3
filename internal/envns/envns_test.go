package envns

import (
	"fmt"
	"sort"
	"testing"
)

func newTestNamespace(entries ...Entry) (*Namespace, *MapTable) {
	table := NewMapTable(entries...)
	return New(table), table
}

func TestGet_PresentAndAbsent(t *testing.T) {
	ns, _ := newTestNamespace(Entry{Name: "HOME", Value: "/root"})

	v, ok := ns.Get(StringKey("HOME"))
	if !ok || v != "/root" {
		t.Errorf("Get(HOME) = (%q, %v), want (/root, true)", v, ok)
	}

	if _, ok := ns.Get(StringKey("NOPE")); ok {
		t.Errorf("Get(NOPE) reported found for an absent key")
	}
}

func TestGet_EmptyValueDistinctFromMissing(t *testing.T) {
	ns, _ := newTestNamespace(Entry{Name: "EMPTY", Value: ""})

	v, ok := ns.Get(StringKey("EMPTY"))
	if !ok || v != "" {
		t.Errorf("Get(EMPTY) = (%q, %v), want (\"\", true)", v, ok)
	}
	if _, ok := ns.Get(StringKey("MISSING")); ok {
		t.Errorf("Get(MISSING) must not be found")
	}
}

func TestGet_SymbolKey(t *testing.T) {
	ns, _ := newTestNamespace(Entry{Name: "HOME", Value: "/root"})
	if _, ok := ns.Get(SymbolKey()); ok {
		t.Errorf("Get(symbol) reported found")
	}
}

func TestSet_WriteThenRead(t *testing.T) {
	ns, _ := newTestNamespace()

	if echo := ns.Set(StringKey("K"), "X"); echo != "X" {
		t.Errorf("Set echo = %q, want X", echo)
	}
	if v, ok := ns.Get(StringKey("K")); !ok || v != "X" {
		t.Errorf("Get(K) after Set = (%q, %v), want (X, true)", v, ok)
	}
}

func TestSet_HiddenKeyIsDroppedButEchoed(t *testing.T) {
	ns, table := newTestNamespace(Entry{Name: "=C:", Value: `C:\`})

	if echo := ns.Set(StringKey("=C:"), "D:"); echo != "D:" {
		t.Errorf("Set echo = %q, want D:", echo)
	}
	if v, _ := table.Lookup("=C:"); v != `C:\` {
		t.Errorf("hidden key value changed to %q, write should have been dropped", v)
	}
}

func TestQuery(t *testing.T) {
	ns, _ := newTestNamespace(
		Entry{Name: "PATH", Value: "/bin"},
		Entry{Name: "=C:", Value: `C:\`},
	)

	cases := []struct {
		key  Key
		want Attr
	}{
		{StringKey("PATH"), AttrNone},
		{StringKey("=C:"), AttrHidden},
		{StringKey("NOPE"), AttrNotFound},
		{SymbolKey(), AttrNotFound},
	}
	for _, tc := range cases {
		if got := ns.Query(tc.key); got != tc.want {
			t.Errorf("Query(%q) = %d, want %d", tc.key.Name, got, tc.want)
		}
	}
}

func TestQuery_HiddenAttrBits(t *testing.T) {
	if AttrHidden&AttrReadOnly == 0 || AttrHidden&AttrDontEnum == 0 || AttrHidden&AttrDontDelete == 0 {
		t.Fatalf("AttrHidden = %d, want ReadOnly|DontEnum|DontDelete", AttrHidden)
	}
}

func TestDelete_AlwaysReportsSuccess(t *testing.T) {
	ns, _ := newTestNamespace(Entry{Name: "K", Value: "v"})

	if !ns.Delete(StringKey("K")) {
		t.Errorf("Delete(K) = false, want true")
	}
	if got := ns.Query(StringKey("K")); got != AttrNotFound {
		t.Errorf("Query(K) after Delete = %d, want AttrNotFound", got)
	}
	// Deleting an absent key still succeeds.
	if !ns.Delete(StringKey("K")) {
		t.Errorf("Delete of absent key = false, want true")
	}
	if !ns.Delete(SymbolKey()) {
		t.Errorf("Delete(symbol) = false, want true")
	}
}

func TestEnumerate_ExcludesHiddenKeys(t *testing.T) {
	ns, _ := newTestNamespace(
		Entry{Name: "A", Value: "1"},
		Entry{Name: "=HIDDEN", Value: "x"},
		Entry{Name: "B", Value: "2"},
	)

	keys := ns.Enumerate()
	for _, k := range keys {
		if k == "=HIDDEN" {
			t.Fatalf("Enumerate included hidden key %q", k)
		}
	}
	if len(keys) != 2 {
		t.Errorf("Enumerate returned %v, want 2 keys", keys)
	}
}

func TestEnumerate_ChunkBoundaries(t *testing.T) {
	// Sizes around the batch buffer size exercise the flush-and-reuse path.
	for _, n := range []int{0, 1, enumBatchSize - 1, enumBatchSize, enumBatchSize + 1, 3*enumBatchSize + 2} {
		var entries []Entry
		for i := 0; i < n; i++ {
			entries = append(entries, Entry{Name: fmt.Sprintf("K%03d", i), Value: "v"})
		}
		ns, _ := newTestNamespace(entries...)
		keys := ns.Enumerate()
		if len(keys) != n {
			t.Errorf("n=%d: Enumerate returned %d keys", n, len(keys))
			continue
		}
		for i, k := range keys {
			if want := fmt.Sprintf("K%03d", i); k != want {
				t.Errorf("n=%d: keys[%d] = %q, want %q", n, i, k, want)
			}
		}
	}
}

func TestEnumerate_StableSetWithoutMutation(t *testing.T) {
	ns, _ := newTestNamespace(
		Entry{Name: "X", Value: "1"},
		Entry{Name: "Y", Value: "2"},
		Entry{Name: "Z", Value: "3"},
	)

	first := ns.Enumerate()
	second := ns.Enumerate()
	sort.Strings(first)
	sort.Strings(second)
	if len(first) != len(second) {
		t.Fatalf("key counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("key sets differ at %d: %q vs %q", i, first[i], second[i])
		}
	}
}

func TestNamespace_IsLive(t *testing.T) {
	ns, table := newTestNamespace(Entry{Name: "K", Value: "old"})

	if v, _ := ns.Get(StringKey("K")); v != "old" {
		t.Fatalf("Get(K) = %q, want old", v)
	}
	// External mutation between two reads must be observed.
	_ = table.Set("K", "new")
	if v, _ := ns.Get(StringKey("K")); v != "new" {
		t.Errorf("Get(K) after external mutation = %q, want new", v)
	}

	_ = table.Set("ADDED", "1")
	found := false
	for _, k := range ns.Enumerate() {
		if k == "ADDED" {
			found = true
		}
	}
	if !found {
		t.Errorf("Enumerate did not observe externally added key")
	}
}

func TestOSTable_Roundtrip(t *testing.T) {
	ns := New(nil)

	t.Setenv("SANDBRIDGE_TEST_KEY", "initial")
	if v, ok := ns.Get(StringKey("SANDBRIDGE_TEST_KEY")); !ok || v != "initial" {
		t.Fatalf("Get = (%q, %v), want (initial, true)", v, ok)
	}

	ns.Set(StringKey("SANDBRIDGE_TEST_KEY"), "updated")
	if v, _ := ns.Get(StringKey("SANDBRIDGE_TEST_KEY")); v != "updated" {
		t.Errorf("Get after Set = %q, want updated", v)
	}

	found := false
	for _, k := range ns.Enumerate() {
		if k == "SANDBRIDGE_TEST_KEY" {
			found = true
		}
	}
	if !found {
		t.Errorf("Enumerate missing SANDBRIDGE_TEST_KEY")
	}

	ns.Delete(StringKey("SANDBRIDGE_TEST_KEY"))
	if got := ns.Query(StringKey("SANDBRIDGE_TEST_KEY")); got != AttrNotFound {
		t.Errorf("Query after Delete = %d, want AttrNotFound", got)
	}
}

func TestSplitEntry(t *testing.T) {
	cases := []struct {
		in   string
		want Entry
	}{
		{"PATH=/bin", Entry{Name: "PATH", Value: "/bin"}},
		{"EMPTY=", Entry{Name: "EMPTY", Value: ""}},
		{"NOVALUE", Entry{Name: "NOVALUE"}},
		{`=C:=C:\`, Entry{Name: "=C:", Value: `C:\`}},
		{"A=b=c", Entry{Name: "A", Value: "b=c"}},
		{"", Entry{}},
	}
	for _, tc := range cases {
		if got := splitEntry(tc.in); got != tc.want {
			t.Errorf("splitEntry(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}
