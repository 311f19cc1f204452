package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pricelens/internal/logging"
	"pricelens/internal/session"
)

// View identifies a top-level screen.
type View int

const (
	ViewSearch View = iota
	ViewDownloads
)

func (v View) String() string {
	switch v {
	case ViewSearch:
		return "search"
	case ViewDownloads:
		return "downloads"
	default:
		return "unknown"
	}
}

// Deps are the services the shell drives.
type Deps struct {
	Session  *session.Session
	Exporter Exporter
	Archive  Archive
	Styles   Styles
	// GlamourStyle defaults to the theme's style.
	GlamourStyle string
	// ResizeDebounce defaults to DefaultResizeDuration; negative applies
	// resizes immediately.
	ResizeDebounce time.Duration
	// Subscribe registers for archive changes made outside the shell.
	Subscribe func(fn func(n int))
}

// Model is the navigation shell.
type Model struct {
	archive Archive
	styles  Styles
	resize  *ResizeDebouncer

	view      View
	search    SearchPageModel
	downloads DownloadsPageModel

	width  int
	height int
}

// New creates the shell on the search view.
func New(ctx context.Context, deps Deps) Model {
	style := deps.GlamourStyle
	if style == "" {
		style = deps.Styles.Theme.GlamourStyle()
	}
	d := deps.ResizeDebounce
	switch {
	case d == 0:
		d = DefaultResizeDuration
	case d < 0:
		d = 0
	}
	return Model{
		archive:   deps.Archive,
		styles:    deps.Styles,
		resize:    NewResizeDebouncer(d),
		view:      ViewSearch,
		search:    NewSearchPageModel(ctx, deps.Session, deps.Exporter, deps.Styles, style),
		downloads: NewDownloadsPageModel(ctx, deps.Archive, deps.Styles),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// ActiveView returns the visible screen.
func (m Model) ActiveView() View { return m.view }

// Badge is the count shown next to the downloads tab; zero hides it.
func (m Model) Badge() int { return m.archive.Count() }

func (m Model) switchTo(v View) Model {
	if v == m.view {
		return m
	}
	logging.UIDebug("view %s -> %s", m.view, v)
	m.view = v
	if v == ViewSearch {
		m.search.input.Focus()
	} else {
		m.search.input.Blur()
		m.downloads.Refresh()
	}
	return m
}

func (m *Model) setSize(w, h int) {
	m.width, m.height = w, h
	body := max(h-3, 1) // header, divider, footer
	m.search.SetSize(w, body)
	m.downloads.SetSize(w, body)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if m.width == 0 {
			m.setSize(msg.Width, msg.Height)
			return m, nil
		}
		return m, m.resize.Resize(msg.Width, msg.Height)

	case resizeSettledMsg:
		if m.resize.Settled(msg) {
			m.setSize(msg.width, msg.height)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "tab", "shift+tab":
			if m.view == ViewSearch {
				return m.switchTo(ViewDownloads), nil
			}
			return m.switchTo(ViewSearch), nil
		case "f1":
			return m.switchTo(ViewSearch), nil
		case "f2":
			return m.switchTo(ViewDownloads), nil
		case "esc":
			if m.view == ViewDownloads && !m.downloads.Confirming() {
				return m.switchTo(ViewSearch), nil
			}
		}
		if m.view == ViewDownloads && !m.downloads.Confirming() {
			switch msg.String() {
			case "1":
				return m.switchTo(ViewSearch), nil
			case "2":
				return m, nil
			case "q":
				return m, tea.Quit
			}
		}

	case archiveChangedMsg, actionDoneMsg:
		var cmd tea.Cmd
		m.downloads, cmd = m.downloads.Update(msg)
		return m, cmd

	case snapshotMsg, exportDoneMsg:
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		if _, ok := msg.(exportDoneMsg); ok {
			m.downloads.Refresh()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	if m.view == ViewSearch {
		m.search, cmd = m.search.Update(msg)
	} else {
		m.downloads, cmd = m.downloads.Update(msg)
	}
	return m, cmd
}

func (m Model) header() string {
	tab := func(label string, v View) string {
		if m.view == v {
			return m.styles.ActiveTab.Render(label)
		}
		return m.styles.Tab.Render(label)
	}

	downloads := tab("2 Downloads", ViewDownloads)
	if n := m.Badge(); n > 0 {
		downloads = lipgloss.JoinHorizontal(lipgloss.Center, downloads, m.styles.Badge.Render(fmt.Sprint(n)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Center,
		m.styles.Header.Render("Preisvergleich"),
		tab("1 Suche", ViewSearch),
		downloads,
	)
}

func (m Model) footer() string {
	keys := []string{"tab Ansicht wechseln", "ctrl+c beenden"}
	if m.view == ViewSearch {
		keys = append([]string{"enter suchen"}, keys...)
	}
	return m.styles.Footer.Render(strings.Join(keys, " · "))
}

// View implements tea.Model.
func (m Model) View() string {
	var body string
	if m.view == ViewSearch {
		body = m.search.View()
	} else {
		body = m.downloads.View()
	}
	return strings.Join([]string{
		m.header(),
		m.styles.RenderDivider(m.width),
		m.styles.Content.Render(body),
		m.footer(),
	}, "\n")
}

// Run starts the shell in the alternate screen and blocks until it exits.
func Run(ctx context.Context, deps Deps) error {
	p := tea.NewProgram(New(ctx, deps),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if deps.Subscribe != nil {
		deps.Subscribe(func(n int) {
			go p.Send(archiveChangedMsg{count: n})
		})
	}
	logging.UI("shell started")
	_, err := p.Run()
	logging.UI("shell stopped")
	return err
}
