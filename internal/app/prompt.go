package app

import (
	"fmt"
	"strings"
)

// protocolRules documents the tag protocol the parser understands. The model
// must follow it exactly; anything outside the tags is shown to the user as
// conversation.
const protocolRules = `You are aide, a coding assistant in a terminal. The user has loaded a set of
project files and will discuss them with you; you can propose edits.

Protocol (strict):
- While thinking, you may emit short progress notes as
  <status_update>one line</status_update>. They are shown live and stripped
  from your final answer.
- To replace your persistent session notes, emit at most one
  <memory_update>
  new notes
  </memory_update>
  block. It fully replaces the previous notes.
- To propose file edits, emit exactly one
  <file_changes> ... </file_changes>
  block containing one <change path="relative/path"> entry per file.
- Inside a <change>, use exactly one of:
  1. A full file body: <content>entire new file content</content>.
     An empty <content></content> deletes the file. For an intentionally
     empty file, send a single newline instead.
  2. Targeted operations, applied top to bottom:
     <insert anchor="unique line substring" position="after">new line</insert>
     <replace><old>exact current text</old><new>replacement</new></replace>
     <delete>exact text to remove</delete>
     The insert anchor must match exactly one line of the file. Prefer a
     full <content> body when edits are extensive.
- Never mention the tags themselves in your conversational text.`

// BuildSystemPrompt assembles the system section: protocol rules, persistent
// session memory, and the current project files.
func BuildSystemPrompt(memory string, files []ProjectFile) string {
	var b strings.Builder
	b.WriteString(protocolRules)

	if strings.TrimSpace(memory) != "" {
		b.WriteString("\n\nSession notes from previous turns:\n")
		b.WriteString(memory)
	}

	if len(files) > 0 {
		b.WriteString("\n\nProject files:\n")
		for _, f := range files {
			fmt.Fprintf(&b, "\n--- %s ---\n%s\n", f.Path, f.Content)
		}
	} else {
		b.WriteString("\n\nNo project files are loaded yet.")
	}
	return b.String()
}

// BuildPrompt renders the outgoing prompt: system section, then the budgeted
// conversation log oldest-first, then the role tag the model continues from.
func BuildPrompt(system string, entries []Entry, budgetChars int) string {
	trimmed := TrimToBudget(entries, budgetChars)

	var b strings.Builder
	b.WriteString(system)
	b.WriteString("\n\n=== Conversation ===\n")
	for _, e := range trimmed {
		tag := "[USER]"
		if e.Role == RoleModel {
			tag = "[ASSISTANT]"
		}
		b.WriteString("\n" + tag + "\n")
		b.WriteString(e.Text)
		if len(e.Attachments) > 0 {
			names := make([]string, 0, len(e.Attachments))
			for _, a := range e.Attachments {
				names = append(names, a.Name)
			}
			fmt.Fprintf(&b, "\n(attached: %s)", strings.Join(names, ", "))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n[ASSISTANT]\n")
	return b.String()
}
