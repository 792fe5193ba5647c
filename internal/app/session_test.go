package app

import (
	"context"
	"strings"
	"testing"
)

func newTestSession(t *testing.T, responses ...string) *Session {
	t.Helper()
	cfg := DefaultConfig()
	return NewSession(cfg, NewMockClient(responses...), NewStore(t.TempDir()), nil)
}

func TestSendMessageAttachesProposedChanges(t *testing.T) {
	s := newTestSession(t, `<status_update>editing</status_update>Done, updated the file.
<file_changes>
<change path="a.py">
<content>
x=2
</content>
</change>
</file_changes>`)
	s.LoadFiles([]ProjectFile{{Path: "a.py", Content: "x=1\n"}})

	var lastStatus string
	err := s.SendMessage(context.Background(), "bump x", nil, func(u StreamUpdate) {
		if u.Status != "" {
			lastStatus = u.Status
		}
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lastStatus != "editing" {
		t.Fatalf("expected live status, got %q", lastStatus)
	}

	entries := s.Entries()
	last := entries[len(entries)-1]
	if last.Role != RoleModel {
		t.Fatalf("expected model entry last, got %s", last.Role)
	}
	if last.Text != "Done, updated the file." {
		t.Fatalf("unexpected conversational text: %q", last.Text)
	}
	if len(last.ProposedChanges) != 1 {
		t.Fatalf("expected one proposed change, got %+v", last.ProposedChanges)
	}
	ch := last.ProposedChanges[0]
	if ch.FilePath != "a.py" || ch.OldContent != "x=1\n" || ch.NewContent != "x=2" {
		t.Fatalf("unexpected change: %+v", ch)
	}
}

func TestApplyChangeCommitsAndSnapshots(t *testing.T) {
	s := newTestSession(t)
	s.LoadFiles([]ProjectFile{{Path: "a.py", Content: "x=1\n"}})
	before := s.History().Len()

	err := s.ApplyChange(ProposedChange{FilePath: "a.py", OldContent: "x=1\n", NewContent: "x=2\n"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := s.FileContent("a.py"); got != "x=2\n" {
		t.Fatalf("content not committed: %q", got)
	}
	if s.History().Len() != before+1 {
		t.Fatal("apply must push exactly one snapshot")
	}
	if prev, ok := s.History().MostRecentVersionOf("a.py"); !ok || prev != "x=1\n" {
		t.Fatalf("snapshot must hold the pre-change content, got %q", prev)
	}
	if mod := s.ModifiedFiles(); len(mod) != 1 || mod[0] != "a.py" {
		t.Fatalf("modified tracker wrong: %v", mod)
	}
}

func TestApplyDeleteRemovesFileAndTrackerEntry(t *testing.T) {
	s := newTestSession(t)
	s.LoadFiles([]ProjectFile{{Path: "b.py", Content: "data\n"}})
	if err := s.ApplyChange(ProposedChange{FilePath: "b.py", OldContent: "data\n", NewContent: "x\n"}); err != nil {
		t.Fatalf("setup apply failed: %v", err)
	}

	err := s.ApplyChange(ProposedChange{FilePath: "b.py", OldContent: "x\n", NewContent: ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.FileContent("b.py"); ok {
		t.Fatal("b.py should be removed from the file set")
	}
	if len(s.ModifiedFiles()) != 0 {
		t.Fatalf("delete must drop the path from the modified tracker: %v", s.ModifiedFiles())
	}
}

func TestApplyChangeWithErrorIsRejected(t *testing.T) {
	s := newTestSession(t)
	if err := s.ApplyChange(ProposedChange{FilePath: "a.py", Err: "anchor not found"}); err == nil {
		t.Fatal("errored change must not be applicable")
	}
}

func TestRevertFileRestoresHistoricalContentAndStaysUndoable(t *testing.T) {
	s := newTestSession(t)
	s.LoadFiles([]ProjectFile{{Path: "a.py", Content: "v1\n"}})
	if err := s.ApplyChange(ProposedChange{FilePath: "a.py", OldContent: "v1\n", NewContent: "v2\n"}); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	before := s.History().Len()
	if err := s.RevertFile("a.py"); err != nil {
		t.Fatalf("revert failed: %v", err)
	}
	if got, _ := s.FileContent("a.py"); got != "v1\n" {
		t.Fatalf("expected historical content back, got %q", got)
	}
	// The pre-revert state was snapshotted first, so the revert itself can
	// be undone.
	if s.History().Len() != before+1 {
		t.Fatal("revert must push the pre-revert snapshot")
	}
	if prev, _ := s.History().MostRecentVersionOf("a.py"); prev != "v2\n" {
		t.Fatalf("newest snapshot should hold the pre-revert content, got %q", prev)
	}
}

func TestRevertUnknownPathFails(t *testing.T) {
	s := newTestSession(t)
	if err := s.RevertFile("nope.py"); err == nil {
		t.Fatal("revert without history must fail")
	}
}

func TestSendMessageCapturesMemoryUpdate(t *testing.T) {
	s := newTestSession(t, "Noted.<memory_update>\nprefers short names\n</memory_update>")
	if err := s.SendMessage(context.Background(), "remember this", nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Memory() != "prefers short names" {
		t.Fatalf("memory not captured: %q", s.Memory())
	}
}

func TestSendMessageMalformedBlockSurfacesEntryError(t *testing.T) {
	s := newTestSession(t, `Text.<file_changes><change path="a.py"><content>oops</file_changes>`)
	if err := s.SendMessage(context.Background(), "go", nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := s.Entries()
	last := entries[len(entries)-1]
	if last.Error == "" {
		t.Fatal("malformed container must surface on the entry")
	}
	if last.Text != "Text." {
		t.Fatalf("conversational text must still be shown, got %q", last.Text)
	}
	if len(last.ProposedChanges) != 0 {
		t.Fatalf("no changes expected, got %+v", last.ProposedChanges)
	}
}

func TestStopMarksEntryAndParsesPartialOutput(t *testing.T) {
	s := newTestSession(t, "First part of a long answer.\nSecond line.\n")
	stopOnce := false
	err := s.SendMessage(context.Background(), "explain", nil, func(u StreamUpdate) {
		if !stopOnce {
			stopOnce = true
			s.Stop()
		}
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := s.Entries()
	last := entries[len(entries)-1]
	if last.Error != "" {
		t.Fatalf("user stop is not a stream failure: %q", last.Error)
	}
	if !strings.Contains(last.Text, "[stopped by user]") {
		t.Fatalf("expected stop marker in text, got %q", last.Text)
	}
}

func TestSendMessageAttachmentNames(t *testing.T) {
	s := newTestSession(t, "ok")
	if err := s.SendMessage(context.Background(), "look", []string{"notes.txt"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries := s.Entries()
	user := entries[len(entries)-2]
	if len(user.Attachments) != 1 || user.Attachments[0].Name != "notes.txt" {
		t.Fatalf("attachment names not recorded: %+v", user.Attachments)
	}
}

func TestWorkspaceRoundTrip(t *testing.T) {
	s := newTestSession(t)
	s.LoadFiles([]ProjectFile{{Path: "a.py", Content: "x=1\n"}})
	if err := s.SaveWorkspace("demo"); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	s.LoadFiles(nil)
	if len(s.Files()) != 0 {
		t.Fatal("expected empty file set after clearing")
	}
	if err := s.LoadWorkspace("demo"); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	files := s.Files()
	if len(files) != 1 || files[0].Content != "x=1\n" {
		t.Fatalf("workspace content lost: %+v", files)
	}
}
