package core

import (
	"strconv"
	"testing"
)

func TestHistory_NewestFirst(t *testing.T) {
	h := NewHistory(3)
	if got := h.Recent(); len(got) != 0 {
		t.Fatalf("empty history returned %d entries", len(got))
	}

	for i := 1; i <= 2; i++ {
		h.Add(HistoryEntry{ImportID: strconv.Itoa(i)})
	}
	assertIDs(t, h.Recent(), "2", "1")
}

func TestHistory_EvictsOldest(t *testing.T) {
	h := NewHistory(3)
	for i := 1; i <= 5; i++ {
		h.Add(HistoryEntry{ImportID: strconv.Itoa(i)})
	}
	assertIDs(t, h.Recent(), "5", "4", "3")

	h.Add(HistoryEntry{ImportID: "6"})
	assertIDs(t, h.Recent(), "6", "5", "4")
}

func TestHistory_DefaultSize(t *testing.T) {
	h := NewHistory(0)
	for i := 0; i < DefaultHistorySize+10; i++ {
		h.Add(HistoryEntry{})
	}
	if got := len(h.Recent()); got != DefaultHistorySize {
		t.Errorf("len = %d, want %d", got, DefaultHistorySize)
	}
}

func assertIDs(t *testing.T, entries []HistoryEntry, want ...string) {
	t.Helper()
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}
	for i, e := range entries {
		if e.ImportID != want[i] {
			t.Errorf("entry %d = %q, want %q", i, e.ImportID, want[i])
		}
	}
}
