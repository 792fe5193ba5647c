package app

import (
	"fmt"
	"strings"
)

// OpKind discriminates the three targeted-edit operations.
type OpKind string

const (
	OpInsert  OpKind = "insert"
	OpReplace OpKind = "replace"
	OpDelete  OpKind = "delete"
)

// ChangeOperation is one targeted edit against a single file. Operations
// apply in document order against the progressively modified content.
type ChangeOperation struct {
	Kind OpKind

	// insert
	AnchorLine string
	Position   string // "before" or "after"
	Text       string

	// replace
	Source      string
	Replacement string

	// delete
	Target string
}

// PatchFailure classifies why an operation could not be applied.
type PatchFailure string

const (
	FailAnchorNotFound  PatchFailure = "AnchorNotFound"
	FailAnchorAmbiguous PatchFailure = "AnchorAmbiguous"
	FailSourceNotFound  PatchFailure = "SourceNotFound"
	FailTargetNotFound  PatchFailure = "TargetNotFound"
	FailEmptyFile       PatchFailure = "EmptyFile"
)

// PatchError reports a failed operation. A failure aborts the whole file's
// patch; nothing before it is kept.
type PatchError struct {
	Code    PatchFailure
	OpIndex int
	Needle  string
}

func (e *PatchError) Error() string {
	switch e.Code {
	case FailAnchorNotFound:
		return fmt.Sprintf("operation %d: no line contains anchor %q", e.OpIndex+1, e.Needle)
	case FailAnchorAmbiguous:
		return fmt.Sprintf("operation %d: anchor %q matches more than one line", e.OpIndex+1, e.Needle)
	case FailSourceNotFound:
		return fmt.Sprintf("operation %d: source text %q not found", e.OpIndex+1, e.Needle)
	case FailTargetNotFound:
		return fmt.Sprintf("operation %d: target text %q not found", e.OpIndex+1, e.Needle)
	case FailEmptyFile:
		return "targeted operations cannot apply to an empty or missing file; use a full-content change"
	}
	return fmt.Sprintf("operation %d failed (%s)", e.OpIndex+1, e.Code)
}

// ApplyOperations runs ops in order against oldContent and returns the new
// content. The first failing operation aborts the patch: either every
// operation applies or the content is untouched (the caller keeps the
// original).
func ApplyOperations(oldContent string, ops []ChangeOperation) (string, error) {
	if oldContent == "" {
		return "", &PatchError{Code: FailEmptyFile}
	}
	content := oldContent
	for i, op := range ops {
		next, err := applyOne(content, op)
		if err != nil {
			if pe, ok := err.(*PatchError); ok {
				pe.OpIndex = i
			}
			return "", err
		}
		content = next
	}
	return content, nil
}

func applyOne(content string, op ChangeOperation) (string, error) {
	switch op.Kind {
	case OpInsert:
		return applyInsert(content, op)
	case OpReplace:
		idx := strings.Index(content, op.Source)
		if idx < 0 {
			return "", &PatchError{Code: FailSourceNotFound, Needle: snippet(op.Source)}
		}
		return content[:idx] + op.Replacement + content[idx+len(op.Source):], nil
	case OpDelete:
		idx := strings.Index(content, op.Target)
		if idx < 0 {
			return "", &PatchError{Code: FailTargetNotFound, Needle: snippet(op.Target)}
		}
		return content[:idx] + content[idx+len(op.Target):], nil
	}
	return "", fmt.Errorf("unknown operation kind %q", op.Kind)
}

func applyInsert(content string, op ChangeOperation) (string, error) {
	hasTrailing := strings.HasSuffix(content, "\n")
	body := strings.TrimSuffix(content, "\n")
	lines := strings.Split(body, "\n")

	// The anchor must identify exactly one line. Applying to the wrong
	// location silently is worse than failing.
	match := -1
	for i, line := range lines {
		if strings.Contains(line, op.AnchorLine) {
			if match >= 0 {
				return "", &PatchError{Code: FailAnchorAmbiguous, Needle: snippet(op.AnchorLine)}
			}
			match = i
		}
	}
	if match < 0 {
		return "", &PatchError{Code: FailAnchorNotFound, Needle: snippet(op.AnchorLine)}
	}

	at := match
	if op.Position == "after" {
		at = match + 1
	}
	updated := make([]string, 0, len(lines)+1)
	updated = append(updated, lines[:at]...)
	updated = append(updated, op.Text)
	updated = append(updated, lines[at:]...)

	out := strings.Join(updated, "\n")
	if hasTrailing {
		out += "\n"
	}
	return out, nil
}

// snippet bounds needle text quoted in error messages.
func snippet(s string) string {
	s = strings.ReplaceAll(s, "\n", "\\n")
	if len(s) > 60 {
		return s[:57] + "..."
	}
	return s
}
