package app

import (
	"fmt"
	"strings"
)

// ChangeBody is the tagged variant behind a per-file change entry: either a
// full-content payload or an ordered operation list, never both. Constructed
// only via FullReplace/Operations so downstream code cannot observe an
// invalid combination.
type ChangeBody struct {
	full *string
	ops  []ChangeOperation
}

func FullReplace(text string) ChangeBody {
	return ChangeBody{full: &text}
}

func Operations(ops []ChangeOperation) ChangeBody {
	return ChangeBody{ops: ops}
}

// Full returns the full-content payload when this body is a whole-file
// replacement.
func (b ChangeBody) Full() (string, bool) {
	if b.full == nil {
		return "", false
	}
	return *b.full, true
}

// Operations returns the operation list when this body is a targeted edit.
func (b ChangeBody) Operations() ([]ChangeOperation, bool) {
	if b.full != nil {
		return nil, false
	}
	return b.ops, true
}

// ProposedChange is one reviewable file mutation. OldContent is resolved from
// the live file set at parse time ("" for new files); NewContent == "" is the
// delete sentinel. Err isolates a parse or patch failure to this file without
// blocking other files' changes.
type ProposedChange struct {
	FilePath   string `json:"file_path"`
	OldContent string `json:"old_content"`
	NewContent string `json:"new_content"`
	Err        string `json:"error,omitempty"`
}

// IsDelete reports whether applying this change removes the file.
func (c ProposedChange) IsDelete() bool {
	return c.NewContent == "" && c.OldContent != ""
}

// IsCreate reports whether applying this change adds a new file.
func (c ProposedChange) IsCreate() bool {
	return c.OldContent == "" && c.NewContent != ""
}

// ParseError is a typed failure for a malformed change container. The caller
// attaches it to the conversation entry; the response's conversational text
// is still shown.
type ParseError struct {
	Reason   string
	Fragment string
}

func (e *ParseError) Error() string {
	frag := snippet(e.Fragment)
	if frag == "" {
		return "malformed change block: " + e.Reason
	}
	return fmt.Sprintf("malformed change block: %s (near %q)", e.Reason, frag)
}

// LocateChangeBlock finds the first complete outer change container in the
// final response text. It returns the text outside the container (before and
// after, concatenated and trimmed) and the container's interior. When no
// complete container exists the entire blob is conversational and found is
// false — an unterminated container (for example after a user stop) is
// deliberately treated as absent, not as an error.
func LocateChangeBlock(text string) (conversational, block string, found bool) {
	open := strings.Index(text, changesOpen)
	if open < 0 {
		return strings.TrimSpace(text), "", false
	}
	rest := text[open+len(changesOpen):]
	close := strings.Index(rest, changesClose)
	if close < 0 {
		return strings.TrimSpace(text), "", false
	}
	outside := text[:open] + rest[close+len(changesClose):]
	return strings.TrimSpace(outside), rest[:close], true
}

// ParseChanges converts a change container's interior into ordered
// ProposedChange records, resolving old content against files. Problems
// scoped to one entry (missing path, bad operation, failed patch) surface on
// that entry's Err; a structurally broken container returns a *ParseError.
func ParseChanges(block string, files []ProjectFile) ([]ProposedChange, error) {
	var changes []ProposedChange

	rest := block
	for {
		start := strings.Index(rest, "<change")
		if start < 0 {
			break
		}
		headerEnd := strings.Index(rest[start:], ">")
		if headerEnd < 0 {
			return nil, &ParseError{Reason: "unterminated <change> header", Fragment: rest[start:]}
		}
		header := rest[start : start+headerEnd+1]
		body := rest[start+headerEnd+1:]

		end := strings.Index(body, "</change>")
		if end < 0 {
			return nil, &ParseError{Reason: "missing </change>", Fragment: header}
		}
		entry := body[:end]
		rest = body[end+len("</change>"):]

		path := attrValue(header, "path")
		if path == "" {
			changes = append(changes, ProposedChange{Err: "change entry is missing its path attribute"})
			continue
		}

		chBody, err := parseEntryBody(entry)
		if err != nil {
			if pe, ok := err.(*ParseError); ok {
				return nil, pe
			}
			changes = append(changes, ProposedChange{FilePath: path, Err: err.Error()})
			continue
		}

		oldContent, _ := FindFile(files, path)
		change := ProposedChange{FilePath: path, OldContent: oldContent}

		if full, ok := chBody.Full(); ok {
			if full == "" && oldContent == "" {
				// Delete of a nonexistent file is a no-op, not an error.
				continue
			}
			change.NewContent = full
		} else {
			ops, _ := chBody.Operations()
			newContent, err := ApplyOperations(oldContent, ops)
			if err != nil {
				change.Err = err.Error()
			} else {
				change.NewContent = newContent
			}
		}
		changes = append(changes, change)
	}

	return changes, nil
}

// parseEntryBody classifies one entry as full-content or operation-list.
func parseEntryBody(entry string) (ChangeBody, error) {
	if start := strings.Index(entry, "<content>"); start >= 0 {
		body := entry[start+len("<content>"):]
		end := strings.Index(body, "</content>")
		if end < 0 {
			return ChangeBody{}, &ParseError{Reason: "missing </content>", Fragment: entry}
		}
		if hasOperationTag(entry[:start]) || hasOperationTag(body[end+len("</content>"):]) {
			return ChangeBody{}, fmt.Errorf("change entry mixes <content> with operations; they are mutually exclusive")
		}
		return FullReplace(trimBlockPayload(body[:end])), nil
	}

	ops, err := parseOperations(entry)
	if err != nil {
		return ChangeBody{}, err
	}
	if len(ops) == 0 {
		return ChangeBody{}, fmt.Errorf("change entry has neither <content> nor operations")
	}
	return Operations(ops), nil
}

func hasOperationTag(s string) bool {
	return strings.Contains(s, "<insert") || strings.Contains(s, "<replace>") || strings.Contains(s, "<delete>")
}

// parseOperations extracts insert/replace/delete elements in document order.
func parseOperations(entry string) ([]ChangeOperation, error) {
	var ops []ChangeOperation
	rest := entry
	for {
		insAt := strings.Index(rest, "<insert")
		repAt := strings.Index(rest, "<replace>")
		delAt := strings.Index(rest, "<delete>")

		at, kind := -1, OpKind("")
		if insAt >= 0 {
			at, kind = insAt, OpInsert
		}
		if repAt >= 0 && (at < 0 || repAt < at) {
			at, kind = repAt, OpReplace
		}
		if delAt >= 0 && (at < 0 || delAt < at) {
			at, kind = delAt, OpDelete
		}
		if at < 0 {
			break
		}

		switch kind {
		case OpInsert:
			headerEnd := strings.Index(rest[at:], ">")
			if headerEnd < 0 {
				return nil, &ParseError{Reason: "unterminated <insert> header", Fragment: rest[at:]}
			}
			header := rest[at : at+headerEnd+1]
			body := rest[at+headerEnd+1:]
			end := strings.Index(body, "</insert>")
			if end < 0 {
				return nil, &ParseError{Reason: "missing </insert>", Fragment: header}
			}
			anchor := attrValue(header, "anchor")
			if anchor == "" {
				return nil, fmt.Errorf("insert operation is missing its anchor attribute")
			}
			position := attrValue(header, "position")
			if position == "" {
				position = "after"
			}
			if position != "before" && position != "after" {
				return nil, fmt.Errorf("insert position must be before or after, got %q", position)
			}
			ops = append(ops, ChangeOperation{
				Kind:       OpInsert,
				AnchorLine: anchor,
				Position:   position,
				Text:       trimBlockPayload(body[:end]),
			})
			rest = body[end+len("</insert>"):]

		case OpReplace:
			body := rest[at+len("<replace>"):]
			end := strings.Index(body, "</replace>")
			if end < 0 {
				return nil, &ParseError{Reason: "missing </replace>", Fragment: "<replace>"}
			}
			inner := body[:end]
			oldText, ok := innerElement(inner, "old")
			if !ok {
				return nil, fmt.Errorf("replace operation is missing its <old> element")
			}
			newText, ok := innerElement(inner, "new")
			if !ok {
				return nil, fmt.Errorf("replace operation is missing its <new> element")
			}
			ops = append(ops, ChangeOperation{
				Kind:        OpReplace,
				Source:      trimBlockPayload(oldText),
				Replacement: trimBlockPayload(newText),
			})
			rest = body[end+len("</replace>"):]

		case OpDelete:
			body := rest[at+len("<delete>"):]
			end := strings.Index(body, "</delete>")
			if end < 0 {
				return nil, &ParseError{Reason: "missing </delete>", Fragment: "<delete>"}
			}
			ops = append(ops, ChangeOperation{
				Kind:   OpDelete,
				Target: trimBlockPayload(body[:end]),
			})
			rest = body[end+len("</delete>"):]
		}
	}
	return ops, nil
}

// innerElement extracts the payload of <name>…</name> inside s.
func innerElement(s, name string) (string, bool) {
	open := "<" + name + ">"
	close := "</" + name + ">"
	start := strings.Index(s, open)
	if start < 0 {
		return "", false
	}
	body := s[start+len(open):]
	end := strings.Index(body, close)
	if end < 0 {
		return "", false
	}
	return body[:end], true
}

// attrValue pulls a double-quoted attribute out of a tag header.
func attrValue(header, name string) string {
	marker := name + `="`
	start := strings.Index(header, marker)
	if start < 0 {
		return ""
	}
	rest := header[start+len(marker):]
	end := strings.Index(rest, `"`)
	if end < 0 {
		return ""
	}
	return rest[:end]
}
