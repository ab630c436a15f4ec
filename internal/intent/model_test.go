package intent

import "testing"

func TestSortEntriesOrdersByName(t *testing.T) {
	m := &Model{
		Entities: []Entry{
			{Kind: KindEntity, Name: "Zebra"},
			{Kind: KindEntity, Name: "Apple"},
			{Kind: KindEntity, Name: "Mango"},
		},
	}
	m.SortEntries()
	got := []string{m.Entities[0].Name, m.Entities[1].Name, m.Entities[2].Name}
	want := []string{"Apple", "Mango", "Zebra"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SortEntries() order = %v, want %v", got, want)
		}
	}
}

func TestDuplicateNamesDetected(t *testing.T) {
	m := &Model{
		ValueObjects: []Entry{
			{Kind: KindValueObject, Name: "Money"},
			{Kind: KindValueObject, Name: "Money"},
		},
	}
	dup, ok := m.DuplicateNames()
	if !ok || dup != "Money" {
		t.Fatalf("DuplicateNames() = (%q, %v), want (\"Money\", true)", dup, ok)
	}
}

func TestNoDuplicatesAcrossDifferentSequences(t *testing.T) {
	m := &Model{
		ValueObjects: []Entry{{Kind: KindValueObject, Name: "Money"}},
		Entities:     []Entry{{Kind: KindEntity, Name: "Money"}},
	}
	_, ok := m.DuplicateNames()
	if ok {
		t.Fatalf("DuplicateNames() should not flag the same name used in two different sequences")
	}
}
