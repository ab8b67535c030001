package browser

import (
	"path/filepath"
	"testing"
)

func TestJournalRecordAndRecent(t *testing.T) {
	j, err := OpenJournal(filepath.Join(t.TempDir(), "trace.db"), "01SESSION", discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()

	j.Record("goto", `{"url":"https://a"}`, true, "")
	j.Record("click", `{"x":0.5,"y":0.5}`, true, "")
	j.Record("back", "", false, "No previous page in history")

	entries, err := j.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}

	// Newest first, seq strictly increasing in write order.
	if entries[0].Kind != "back" || entries[1].Kind != "click" || entries[2].Kind != "goto" {
		t.Errorf("order = %s, %s, %s", entries[0].Kind, entries[1].Kind, entries[2].Kind)
	}
	if entries[2].Seq != 1 || entries[1].Seq != 2 || entries[0].Seq != 3 {
		t.Errorf("seqs = %d, %d, %d", entries[2].Seq, entries[1].Seq, entries[0].Seq)
	}
	for _, e := range entries {
		if e.Session != "01SESSION" {
			t.Errorf("session = %q", e.Session)
		}
		if e.TS.IsZero() {
			t.Error("timestamp not stored")
		}
	}
	if entries[0].OK || entries[0].Detail != "No previous page in history" {
		t.Errorf("refusal entry = %+v", entries[0])
	}
}

func TestJournalRecentLimit(t *testing.T) {
	j, err := OpenJournal(filepath.Join(t.TempDir(), "trace.db"), "01SESSION", discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()

	for i := 0; i < 5; i++ {
		j.Record("hover", "", true, "")
	}
	entries, err := j.Recent(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Seq != 5 || entries[1].Seq != 4 {
		t.Errorf("entries = %+v", entries)
	}
}
