package app

import "strings"

// RowKind tags a rendered diff row.
type RowKind int

const (
	RowCommon RowKind = iota
	RowAdded
	RowRemoved
	RowElided
)

// DiffRow is one row of a rendered diff. Line numbers are 1-based; 0 means
// the side has no corresponding line. Elided rows carry the collapsed line
// count in Hidden instead of text.
type DiffRow struct {
	Kind    RowKind
	Text    string
	OldLine int
	NewLine int
	Hidden  int
}

// DefaultDiffContext is how many unchanged lines are kept around each changed
// run when a diff view collapses long common regions.
const DefaultDiffContext = 3

// DiffLines computes a line-level LCS diff between two content strings.
// No semantic reordering: output preserves document order, removed lines
// before added lines at each divergence.
func DiffLines(oldContent, newContent string) []DiffRow {
	oldLines := splitDiffLines(oldContent)
	newLines := splitDiffLines(newContent)

	// Classic LCS table; target scale is project files of at most a few
	// thousand lines, so the quadratic table is fine.
	m, n := len(oldLines), len(newLines)
	lcs := make([][]int, m+1)
	for i := range lcs {
		lcs[i] = make([]int, n+1)
	}
	for i := m - 1; i >= 0; i-- {
		for j := n - 1; j >= 0; j-- {
			if oldLines[i] == newLines[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	var rows []DiffRow
	i, j := 0, 0
	for i < m && j < n {
		switch {
		case oldLines[i] == newLines[j]:
			rows = append(rows, DiffRow{Kind: RowCommon, Text: oldLines[i], OldLine: i + 1, NewLine: j + 1})
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			rows = append(rows, DiffRow{Kind: RowRemoved, Text: oldLines[i], OldLine: i + 1})
			i++
		default:
			rows = append(rows, DiffRow{Kind: RowAdded, Text: newLines[j], NewLine: j + 1})
			j++
		}
	}
	for ; i < m; i++ {
		rows = append(rows, DiffRow{Kind: RowRemoved, Text: oldLines[i], OldLine: i + 1})
	}
	for ; j < n; j++ {
		rows = append(rows, DiffRow{Kind: RowAdded, Text: newLines[j], NewLine: j + 1})
	}
	return rows
}

// WindowRows collapses long unchanged runs to an elision row, keeping context
// lines of unchanged text on each side of every changed run. Interior runs
// collapse only when longer than 2*context+1; runs touching the start or end
// of the file keep context lines on their changed side only.
func WindowRows(rows []DiffRow, context int) []DiffRow {
	if context < 0 {
		context = DefaultDiffContext
	}
	var out []DiffRow
	i := 0
	for i < len(rows) {
		if rows[i].Kind != RowCommon {
			out = append(out, rows[i])
			i++
			continue
		}
		j := i
		for j < len(rows) && rows[j].Kind == RowCommon {
			j++
		}
		run := rows[i:j]
		atStart := i == 0
		atEnd := j == len(rows)

		keepLeft, keepRight := context, context
		if atStart {
			keepLeft = 0
		}
		if atEnd {
			keepRight = 0
		}

		collapse := false
		switch {
		case atStart && atEnd:
			// Whole file unchanged; nothing to review, show as-is.
		case atStart || atEnd:
			collapse = len(run) > context+1
		default:
			collapse = len(run) > 2*context+1
		}

		if !collapse {
			out = append(out, run...)
		} else {
			hidden := len(run) - keepLeft - keepRight
			out = append(out, run[:keepLeft]...)
			out = append(out, DiffRow{Kind: RowElided, Hidden: hidden})
			out = append(out, run[len(run)-keepRight:]...)
		}
		i = j
	}
	return out
}

// RenderUnified renders a full, un-elided "+/-/space" diff between two
// content strings, one prefixed line per row. Used for the transcript export;
// the interactive view styles the same rows instead.
func RenderUnified(oldContent, newContent string) string {
	rows := DiffLines(oldContent, newContent)
	var b strings.Builder
	for _, row := range rows {
		switch row.Kind {
		case RowAdded:
			b.WriteString("+")
		case RowRemoved:
			b.WriteString("-")
		default:
			b.WriteString(" ")
		}
		b.WriteString(row.Text)
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func splitDiffLines(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.Split(strings.TrimSuffix(content, "\n"), "\n")
}
