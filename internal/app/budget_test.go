package app

import (
	"strings"
	"testing"
)

func TestTrimToBudgetFittingLogIsUnchanged(t *testing.T) {
	entries := []Entry{
		{Role: RoleUser, Text: "hello"},
		{Role: RoleModel, Text: "hi"},
	}

	out := TrimToBudget(entries, 100)
	if len(out) != len(entries) {
		t.Fatalf("fitting log must be returned whole, got %d entries", len(out))
	}
	for i := range entries {
		if out[i].Text != entries[i].Text {
			t.Fatalf("entry %d changed: %q", i, out[i].Text)
		}
	}
}

func TestTrimToBudgetKeepsSessionAnchor(t *testing.T) {
	entries := []Entry{
		{Role: RoleUser, Text: "anchor " + strings.Repeat("a", 50)},
		{Role: RoleModel, Text: strings.Repeat("b", 50)},
		{Role: RoleUser, Text: strings.Repeat("c", 50)},
		{Role: RoleModel, Text: strings.Repeat("d", 50)},
	}

	out := TrimToBudget(entries, 120)
	if len(out) < 2 {
		t.Fatalf("expected anchor plus recent entries, got %d", len(out))
	}
	if !strings.HasPrefix(out[0].Text, "anchor") {
		t.Fatal("first entry must always be the session anchor")
	}
	// Order preserved, newest entries kept.
	if out[len(out)-1].Text != entries[len(entries)-1].Text {
		t.Fatal("newest entry must survive pruning")
	}
}

func TestTrimToBudgetCountsWarnings(t *testing.T) {
	entries := []Entry{
		{Role: RoleUser, Text: "anchor"},
		{Role: RoleModel, Text: strings.Repeat("x", 40), Warning: strings.Repeat("w", 40)},
		{Role: RoleUser, Text: strings.Repeat("y", 40)},
	}

	// Text alone would fit two tail entries; warning chars push the middle
	// entry out.
	out := TrimToBudget(entries, 60)
	if len(out) != 2 {
		t.Fatalf("expected anchor + newest only, got %d entries", len(out))
	}
	if out[1].Text != entries[2].Text {
		t.Fatalf("unexpected tail entry: %q", out[1].Text)
	}
}

func TestTrimToBudgetSingleEntryLog(t *testing.T) {
	entries := []Entry{{Role: RoleUser, Text: strings.Repeat("z", 500)}}
	out := TrimToBudget(entries, 10)
	if len(out) != 1 {
		t.Fatalf("anchor must survive even over budget, got %d", len(out))
	}
}
