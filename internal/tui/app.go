package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"aide/internal/app"
)

// Model is the chat TUI: a transcript viewport over the session log, a
// textarea input, and a live status line while a response streams.
type Model struct {
	session *app.Session
	diff    *DiffRenderer

	input   textarea.Model
	view    viewport.Model
	keys    keyMap
	ready   bool
	width   int
	height  int
	spinner int
	status  string
	flash   string
	updates chan app.StreamUpdate
	done    chan error
}

type keyMap struct {
	Send     key.Binding
	Stop     key.Binding
	ApplyAll key.Binding
	Save     key.Binding
	Quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Send:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Stop:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "stop")),
		ApplyAll: key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("ctrl+a", "apply changes")),
		Save:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save workspace")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func New(session *app.Session, diffContext int) *Model {
	ta := textarea.New()
	ta.Placeholder = "Ask about your files... (enter to send)"
	ta.Focus()
	ta.CharLimit = 8000
	ta.SetWidth(80)
	ta.SetHeight(3)
	ta.Prompt = "▍ "
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.BlurredStyle.CursorLine = lipgloss.NewStyle()

	return &Model{
		session: session,
		diff:    NewDiffRenderer(diffContext),
		input:   ta,
		keys:    newKeyMap(),
	}
}

func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

type streamUpdateMsg app.StreamUpdate

type streamDoneMsg struct{ err error }

type spinMsg struct{}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.SetWidth(msg.Width - 4)
		vpHeight := msg.Height - m.input.Height() - 5
		if vpHeight < 3 {
			vpHeight = 3
		}
		if !m.ready {
			m.view = viewport.New(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.view.Width = msg.Width
			m.view.Height = vpHeight
		}
		m.refreshTranscript()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Stop):
			if m.session.Busy() {
				m.session.Stop()
			}
			return m, nil

		case key.Matches(msg, m.keys.Send):
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.session.Busy() {
				return m, nil
			}
			m.input.Reset()
			m.status = "sending"
			m.flash = ""
			return m, tea.Batch(m.sendCmd(text), m.spinCmd())

		case key.Matches(msg, m.keys.ApplyAll):
			applied := m.session.ApplyAll(m.latestChanges())
			m.flash = fmt.Sprintf("applied %d change(s)", applied)
			m.refreshTranscript()
			return m, nil

		case key.Matches(msg, m.keys.Save):
			if err := m.session.SaveWorkspace("default"); err != nil {
				m.flash = "save failed: " + err.Error()
			} else {
				m.flash = "workspace saved"
			}
			return m, nil
		}

	case streamUpdateMsg:
		m.status = msg.Status
		m.refreshTranscript()
		return m, m.waitActivity()

	case streamDoneMsg:
		m.status = ""
		if msg.err != nil {
			m.flash = msg.err.Error()
		}
		m.refreshTranscript()
		return m, nil

	case spinMsg:
		if m.session.Busy() {
			m.spinner = (m.spinner + 1) % len(spinnerFrames)
			return m, m.spinCmd()
		}
	}

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.view, cmd = m.view.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (m *Model) View() string {
	if !m.ready {
		return "loading..."
	}
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.view.View())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m *Model) renderHeader() string {
	title := lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent)).Bold(true).Render("aide")
	mod := m.session.ModifiedFiles()
	meta := fmt.Sprintf("%d files · %d modified", len(m.session.Files()), len(mod))
	return title + "  " + lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted)).Render(meta)
}

func (m *Model) renderFooter() string {
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted))
	if m.session.Busy() {
		status := m.status
		if status == "" {
			status = "waiting for model"
		}
		frame := spinnerFrames[m.spinner%len(spinnerFrames)]
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent2)).Render(frame+" "+status) +
			muted.Render("  (esc to stop)")
	}
	line := "enter send · ctrl+a apply · ctrl+s save · ctrl+c quit"
	if m.flash != "" {
		line = m.flash + "  ·  " + line
	}
	return muted.Render(line)
}

// refreshTranscript re-renders the session log into the viewport and keeps it
// pinned to the bottom.
func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}
	var b strings.Builder
	you := lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent)).Bold(true)
	ai := lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent2)).Bold(true)
	warn := lipgloss.NewStyle().Foreground(lipgloss.Color(colorWarn))
	errSty := lipgloss.NewStyle().Foreground(lipgloss.Color(colorError))

	for _, e := range m.session.Entries() {
		if e.Role == app.RoleUser {
			b.WriteString(you.Render("You"))
		} else {
			b.WriteString(ai.Render("Assistant"))
		}
		b.WriteString("\n")
		if e.Text != "" {
			b.WriteString(e.Text)
			b.WriteString("\n")
		}
		if len(e.Attachments) > 0 {
			names := make([]string, 0, len(e.Attachments))
			for _, a := range e.Attachments {
				names = append(names, a.Name)
			}
			b.WriteString(warn.Render("attached: " + strings.Join(names, ", ")))
			b.WriteString("\n")
		}
		if e.Warning != "" {
			b.WriteString(warn.Render("warning: " + e.Warning))
			b.WriteString("\n")
		}
		if e.Error != "" {
			b.WriteString(errSty.Render("error: " + e.Error))
			b.WriteString("\n")
		}
		for _, c := range e.ProposedChanges {
			b.WriteString(m.diff.RenderChange(c))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	m.view.SetContent(b.String())
	m.view.GotoBottom()
}

// latestChanges returns the proposed changes of the newest model entry.
func (m *Model) latestChanges() []app.ProposedChange {
	entries := m.session.Entries()
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Role == app.RoleModel {
			return entries[i].ProposedChanges
		}
	}
	return nil
}

// sendCmd runs the blocking SendMessage off the UI loop; chunk updates and
// completion arrive back as messages through waitActivity.
func (m *Model) sendCmd(text string) tea.Cmd {
	updates := make(chan app.StreamUpdate, 32)
	done := make(chan error, 1)
	m.updates = updates
	m.done = done
	go func() {
		err := m.session.SendMessage(context.Background(), text, nil, func(u app.StreamUpdate) {
			select {
			case updates <- u:
			default:
				// UI is behind; dropping an intermediate update is fine,
				// the next one carries the full buffer state anyway.
			}
		})
		done <- err
	}()
	return m.waitActivity()
}

func (m *Model) waitActivity() tea.Cmd {
	updates, done := m.updates, m.done
	return func() tea.Msg {
		select {
		case u := <-updates:
			return streamUpdateMsg(u)
		case err := <-done:
			return streamDoneMsg{err: err}
		}
	}
}

func (m *Model) spinCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(_ time.Time) tea.Msg {
		return spinMsg{}
	})
}
