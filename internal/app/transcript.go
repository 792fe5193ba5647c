package app

import (
	"fmt"
	"strings"
)

// ExportTranscript renders the conversation log as a flat markdown document.
// Each proposed change becomes a fenced diff block of +/-/space lines from
// the same engine that backs the interactive view, so the two stay visually
// consistent (the export just skips elision).
func ExportTranscript(entries []Entry) string {
	var b strings.Builder
	b.WriteString("# aide transcript\n")

	for _, e := range entries {
		switch e.Role {
		case RoleUser:
			b.WriteString("\n## User\n\n")
		default:
			b.WriteString("\n## Assistant\n\n")
		}
		if e.Text != "" {
			b.WriteString(e.Text)
			b.WriteString("\n")
		}
		if len(e.Attachments) > 0 {
			names := make([]string, 0, len(e.Attachments))
			for _, a := range e.Attachments {
				names = append(names, a.Name)
			}
			fmt.Fprintf(&b, "\n*Attached: %s*\n", strings.Join(names, ", "))
		}
		if e.Warning != "" {
			fmt.Fprintf(&b, "\n> Warning: %s\n", e.Warning)
		}
		if e.Error != "" {
			fmt.Fprintf(&b, "\n> Error: %s\n", e.Error)
		}
		for _, c := range e.ProposedChanges {
			writeChange(&b, c)
		}
	}
	return b.String()
}

func writeChange(b *strings.Builder, c ProposedChange) {
	label := "Change"
	switch {
	case c.Err != "":
		label = "Rejected change"
	case c.IsCreate():
		label = "Create"
	case c.IsDelete():
		label = "Delete"
	}
	if c.FilePath != "" {
		fmt.Fprintf(b, "\n**%s: `%s`**\n", label, c.FilePath)
	} else {
		fmt.Fprintf(b, "\n**%s**\n", label)
	}
	if c.Err != "" {
		fmt.Fprintf(b, "\n> %s\n", c.Err)
		return
	}
	b.WriteString("\n```diff\n")
	b.WriteString(RenderUnified(c.OldContent, c.NewContent))
	b.WriteString("\n```\n")
}
