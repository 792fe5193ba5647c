package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"aide/internal/app"
)

// DiffRenderer styles the engine's diff rows for the terminal. It never
// re-diffs; added/removed/common/elided decisions come from the engine so the
// interactive view and the transcript export always agree.
type DiffRenderer struct {
	context int

	addedStyle   lipgloss.Style
	removedStyle lipgloss.Style
	contextStyle lipgloss.Style
	elidedStyle  lipgloss.Style
	headerStyle  lipgloss.Style
	errorStyle   lipgloss.Style
}

func NewDiffRenderer(context int) *DiffRenderer {
	if context <= 0 {
		context = app.DefaultDiffContext
	}
	return &DiffRenderer{
		context: context,
		addedStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorSuccess)),
		removedStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorError)),
		contextStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorFg)),
		elidedStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorMuted)).
			Italic(true),
		headerStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorAccent)).
			Bold(true),
		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorError)),
	}
}

// RenderChange renders one proposed change: a header line, then the windowed
// diff (or the change's error when it is not applicable).
func (d *DiffRenderer) RenderChange(c app.ProposedChange) string {
	var b strings.Builder

	var action string
	switch {
	case c.Err != "":
		action = "Rejected"
	case c.IsCreate():
		action = "Create"
	case c.IsDelete():
		action = "Delete"
	default:
		action = "Modify"
	}
	title := action
	if c.FilePath != "" {
		title = fmt.Sprintf("%s: %s", action, c.FilePath)
	}
	b.WriteString(d.headerStyle.Render(title))
	b.WriteString("\n")

	if c.Err != "" {
		b.WriteString(d.errorStyle.Render("  " + c.Err))
		return b.String()
	}

	rows := app.WindowRows(app.DiffLines(c.OldContent, c.NewContent), d.context)
	b.WriteString(d.RenderRows(rows))
	return b.String()
}

// RenderRows styles engine diff rows, one terminal line per row.
func (d *DiffRenderer) RenderRows(rows []app.DiffRow) string {
	var b strings.Builder
	for _, row := range rows {
		switch row.Kind {
		case app.RowAdded:
			b.WriteString(d.addedStyle.Render("+" + row.Text))
		case app.RowRemoved:
			b.WriteString(d.removedStyle.Render("-" + row.Text))
		case app.RowElided:
			b.WriteString(d.elidedStyle.Render(fmt.Sprintf("  ⋮ %d unchanged lines", row.Hidden)))
		default:
			b.WriteString(d.contextStyle.Render(" " + row.Text))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
