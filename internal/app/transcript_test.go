package app

import (
	"strings"
	"testing"
)

func TestExportTranscriptRendersDiffBlocks(t *testing.T) {
	entries := []Entry{
		{Role: RoleUser, Text: "bump x"},
		{Role: RoleModel, Text: "Done.", ProposedChanges: []ProposedChange{
			{FilePath: "a.py", OldContent: "x=1\n", NewContent: "x=2\n"},
		}},
	}

	out := ExportTranscript(entries)
	if !strings.Contains(out, "## User") || !strings.Contains(out, "## Assistant") {
		t.Fatalf("missing role headers:\n%s", out)
	}
	if !strings.Contains(out, "```diff\n-x=1\n+x=2\n```") {
		t.Fatalf("expected fenced +/- diff block:\n%s", out)
	}
}

func TestExportTranscriptShowsChangeErrors(t *testing.T) {
	entries := []Entry{
		{Role: RoleModel, Text: "Tried.", ProposedChanges: []ProposedChange{
			{FilePath: "a.py", Err: "operation 1: source text \"zz\" not found"},
		}},
	}

	out := ExportTranscript(entries)
	if !strings.Contains(out, "Rejected change") || !strings.Contains(out, "not found") {
		t.Fatalf("errored change must render its diagnostic:\n%s", out)
	}
	if strings.Contains(out, "```diff") {
		t.Fatalf("errored change must not render a diff:\n%s", out)
	}
}

func TestExportTranscriptWarningsAndErrors(t *testing.T) {
	entries := []Entry{
		{Role: RoleUser, Text: "hi", Warning: "context pruned"},
		{Role: RoleModel, Text: "", Error: "api error: status 500"},
	}

	out := ExportTranscript(entries)
	if !strings.Contains(out, "> Warning: context pruned") {
		t.Fatalf("warning missing:\n%s", out)
	}
	if !strings.Contains(out, "> Error: api error") {
		t.Fatalf("error missing:\n%s", out)
	}
}
