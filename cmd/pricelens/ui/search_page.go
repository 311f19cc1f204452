package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"pricelens/internal/composer"
	"pricelens/internal/logging"
	"pricelens/internal/render"
	"pricelens/internal/session"
	"pricelens/internal/types"
)

// Exporter freezes a result list into an archived document.
type Exporter interface {
	Export(ctx context.Context, query string, products []types.Product) (*composer.Result, error)
}

// snapshotMsg carries the session state after a submit resolved.
type snapshotMsg struct{ snap session.Snapshot }

// exportDoneMsg reports the outcome of ctrl+e.
type exportDoneMsg struct {
	res *composer.Result
	err error
}

// SearchPageModel is the category toggle, query input and result cards.
type SearchPageModel struct {
	ctx      context.Context
	session  *session.Session
	exporter Exporter
	styles   Styles
	glamour  string

	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model

	category  types.Category
	snap      session.Snapshot
	exporting bool
	status    string
	statusErr bool

	width  int
	height int
}

// NewSearchPageModel creates the search view.
func NewSearchPageModel(ctx context.Context, sess *session.Session, exporter Exporter, styles Styles, glamourStyle string) SearchPageModel {
	ti := textinput.New()
	ti.Prompt = "› "
	ti.PromptStyle = styles.Prompt
	ti.CharLimit = 200
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	m := SearchPageModel{
		ctx:      ctx,
		session:  sess,
		exporter: exporter,
		styles:   styles,
		glamour:  glamourStyle,
		input:    ti,
		spinner:  sp,
		viewport: viewport.New(80, 20),
		category: types.CategoryHardware,
		snap:     sess.Snapshot(),
	}
	m.input.Placeholder = m.category.Placeholder()
	return m
}

// SetSize updates the size of the viewport.
func (m *SearchPageModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.input.Width = max(w-6, 10)
	m.viewport.Width = w
	m.viewport.Height = max(h-5, 1) // category, input, status, divider
	m.UpdateContent()
}

// UpdateContent re-renders the result cards for the current width.
func (m *SearchPageModel) UpdateContent() {
	if len(m.snap.Products) == 0 {
		m.viewport.SetContent(m.styles.Muted.Render(m.emptyText()))
		return
	}
	out, err := render.Terminal(m.snap.Query, m.snap.Products, max(m.viewport.Width-2, 20), m.glamour)
	if err != nil {
		logging.Get(logging.CategoryUI).Warn("render results: %v", err)
		out = render.Markdown(m.snap.Query, m.snap.Products)
	}
	m.viewport.SetContent(out)
	m.viewport.GotoTop()
}

func (m SearchPageModel) emptyText() string {
	switch m.snap.State {
	case session.Loading:
		return ""
	case session.Success:
		return "Keine Produkte gefunden."
	default:
		return "Suchbegriff eingeben und Enter drücken."
	}
}

// CanExport reports whether ctrl+e has something to export.
func (m SearchPageModel) CanExport() bool {
	return m.snap.State == session.Success && len(m.snap.Products) > 0 && !m.exporting
}

func (m SearchPageModel) submit() (SearchPageModel, tea.Cmd) {
	done, err := m.session.SubmitAsync(m.ctx, m.category, m.input.Value())
	m.snap = m.session.Snapshot()
	m.status = ""
	if err != nil {
		m.UpdateContent()
		return m, nil
	}
	m.UpdateContent()

	sess := m.session
	wait := func() tea.Msg {
		<-done
		return snapshotMsg{snap: sess.Snapshot()}
	}
	return m, tea.Batch(wait, m.spinner.Tick)
}

func (m SearchPageModel) export() (SearchPageModel, tea.Cmd) {
	if !m.CanExport() {
		return m, nil
	}
	m.exporting = true
	m.status = "PDF wird erstellt…"
	m.statusErr = false

	exporter, ctx := m.exporter, m.ctx
	query, products := m.snap.Query, m.snap.Products
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		res, err := exporter.Export(ctx, query, products)
		return exportDoneMsg{res: res, err: err}
	})
}

// Update handles messages.
func (m SearchPageModel) Update(msg tea.Msg) (SearchPageModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			return m.submit()
		case "ctrl+t":
			m.category = m.category.Next()
			m.input.Placeholder = m.category.Placeholder()
			return m, nil
		case "ctrl+e":
			return m.export()
		case "ctrl+l":
			m.session.Reset()
			m.input.SetValue("")
			m.snap = m.session.Snapshot()
			m.status = ""
			m.statusErr = false
			m.UpdateContent()
			return m, nil
		case "pgup", "pgdown", "up", "down":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case snapshotMsg:
		m.snap = m.session.Snapshot()
		m.UpdateContent()
		return m, nil

	case exportDoneMsg:
		m.exporting = false
		if msg.err != nil {
			m.status = types.UserMessage(msg.err)
			m.statusErr = true
			return m, nil
		}
		m.statusErr = false
		m.status = fmt.Sprintf("PDF gespeichert: %s", msg.res.Artifact.Name)
		if msg.res.DownloadPath != "" {
			m.status += " → " + msg.res.DownloadPath
		}
		return m, nil

	case spinner.TickMsg:
		if !m.snap.Loading() && !m.exporting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the page.
func (m SearchPageModel) View() string {
	var sb strings.Builder

	sb.WriteString(m.styles.Category.Render(string(m.category)))
	sb.WriteString("  ")
	sb.WriteString(m.styles.Muted.Render("ctrl+t Kategorie wechseln · ctrl+l leeren"))
	sb.WriteString("\n")
	sb.WriteString(m.input.View())
	sb.WriteString("\n")

	switch {
	case m.snap.Loading():
		sb.WriteString(m.spinner.View() + " Suche läuft…")
	case m.snap.Err != "":
		sb.WriteString(m.styles.Error.Render(m.snap.Err))
	case m.exporting:
		sb.WriteString(m.spinner.View() + " " + m.status)
	case m.status != "" && m.statusErr:
		sb.WriteString(m.styles.Error.Render(m.status))
	case m.status != "":
		sb.WriteString(m.styles.Success.Render(m.status))
	case m.CanExport():
		sb.WriteString(m.styles.Muted.Render("ctrl+e Als PDF exportieren"))
	}
	sb.WriteString("\n")
	sb.WriteString(m.styles.RenderDivider(m.width))
	sb.WriteString("\n")
	sb.WriteString(m.viewport.View())
	return sb.String()
}
