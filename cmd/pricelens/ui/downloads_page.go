package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"pricelens/internal/types"
)

// Archive is the downloads view's handle on the stored artifacts.
// *downloads.Manager implements it.
type Archive interface {
	List() []types.Artifact
	Count() int
	CanShare() bool
	Download(id string) (string, error)
	Share(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// archiveChangedMsg is sent when the archive was modified or reloaded.
type archiveChangedMsg struct{ count int }

// actionDoneMsg reports a finished download, share or delete.
type actionDoneMsg struct {
	text string
	err  error
}

// DownloadsPageModel lists archived PDFs with download, share and delete.
type DownloadsPageModel struct {
	ctx     context.Context
	archive Archive
	styles  Styles

	table     table.Model
	artifacts []types.Artifact
	confirm   string // id awaiting delete confirmation
	busy      bool
	status    string
	statusErr bool

	width  int
	height int
}

// NewDownloadsPageModel creates the downloads view.
func NewDownloadsPageModel(ctx context.Context, archive Archive, styles Styles) DownloadsPageModel {
	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	ts := table.DefaultStyles()
	ts.Header = ts.Header.Foreground(styles.Theme.Primary).Bold(true)
	ts.Selected = ts.Selected.Foreground(styles.Theme.Background).Background(styles.Theme.Primary)
	t.SetStyles(ts)

	m := DownloadsPageModel{ctx: ctx, archive: archive, styles: styles, table: t}
	m.Refresh()
	return m
}

func columns(width int) []table.Column {
	date := 22
	name := max(width-date-6, 20)
	return []table.Column{
		{Title: "Name", Width: name},
		{Title: "Datum", Width: date},
	}
}

// SetSize updates the table dimensions.
func (m *DownloadsPageModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.table.SetColumns(columns(w))
	m.table.SetHeight(max(h-3, 3)) // status, help
}

// Refresh reloads the artifact list from the archive.
func (m *DownloadsPageModel) Refresh() {
	m.artifacts = m.archive.List()
	rows := make([]table.Row, len(m.artifacts))
	for i, a := range m.artifacts {
		rows[i] = table.Row{a.Name, a.Date}
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
	if m.confirm != "" && !m.has(m.confirm) {
		m.confirm = ""
	}
}

func (m DownloadsPageModel) has(id string) bool {
	for _, a := range m.artifacts {
		if a.ID == id {
			return true
		}
	}
	return false
}

// Selected returns the highlighted artifact.
func (m DownloadsPageModel) Selected() (types.Artifact, bool) {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.artifacts) {
		return types.Artifact{}, false
	}
	return m.artifacts[c], true
}

// Confirming reports whether a delete awaits confirmation.
func (m DownloadsPageModel) Confirming() bool { return m.confirm != "" }

func (m DownloadsPageModel) run(fn func() actionDoneMsg) (DownloadsPageModel, tea.Cmd) {
	m.busy = true
	m.status = ""
	return m, func() tea.Msg { return fn() }
}

// Update handles messages.
func (m DownloadsPageModel) Update(msg tea.Msg) (DownloadsPageModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.confirm != "" {
			id := m.confirm
			m.confirm = ""
			if msg.String() != "y" {
				m.status = "Löschen abgebrochen."
				m.statusErr = false
				return m, nil
			}
			archive, ctx := m.archive, m.ctx
			return m.run(func() actionDoneMsg {
				if err := archive.Delete(ctx, id); err != nil {
					return actionDoneMsg{err: err}
				}
				return actionDoneMsg{text: "PDF gelöscht."}
			})
		}

		a, ok := m.Selected()
		switch msg.String() {
		case "d", "enter":
			if !ok || m.busy {
				return m, nil
			}
			archive := m.archive
			return m.run(func() actionDoneMsg {
				path, err := archive.Download(a.ID)
				if err != nil {
					return actionDoneMsg{err: err}
				}
				return actionDoneMsg{text: "Heruntergeladen: " + path}
			})
		case "s":
			if !ok || m.busy {
				return m, nil
			}
			if !m.archive.CanShare() {
				m.status = types.UserMessage(types.ErrShareUnsupported)
				m.statusErr = true
				return m, nil
			}
			archive, ctx := m.archive, m.ctx
			return m.run(func() actionDoneMsg {
				if err := archive.Share(ctx, a.ID); err != nil {
					return actionDoneMsg{err: err}
				}
				return actionDoneMsg{text: "PDF geteilt."}
			})
		case "x", "delete":
			if !ok || m.busy {
				return m, nil
			}
			m.confirm = a.ID
			m.status = ""
			return m, nil
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd

	case actionDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.status = types.UserMessage(msg.err)
			m.statusErr = true
		} else {
			m.status = msg.text
			m.statusErr = false
		}
		m.Refresh()
		return m, nil

	case archiveChangedMsg:
		m.Refresh()
		return m, nil
	}
	return m, nil
}

// View renders the page.
func (m DownloadsPageModel) View() string {
	if len(m.artifacts) == 0 {
		return m.styles.Muted.Render("Noch keine PDFs gespeichert. Suchergebnisse mit ctrl+e exportieren.")
	}

	var sb strings.Builder
	sb.WriteString(m.table.View())
	sb.WriteString("\n")

	switch {
	case m.confirm != "":
		a, _ := m.Selected()
		sb.WriteString(m.styles.Warning.Render(fmt.Sprintf("%s löschen? (y/n)", a.Name)))
	case m.busy:
		sb.WriteString(m.styles.Muted.Render("…"))
	case m.statusErr:
		sb.WriteString(m.styles.Error.Render(m.status))
	case m.status != "":
		sb.WriteString(m.styles.Success.Render(m.status))
	}
	sb.WriteString("\n")

	help := []string{"↑/↓ auswählen", "d herunterladen"}
	if m.archive.CanShare() {
		help = append(help, "s teilen")
	}
	help = append(help, "x löschen")
	sb.WriteString(m.styles.Muted.Render(strings.Join(help, " · ")))
	return sb.String()
}
