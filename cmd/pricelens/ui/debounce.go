package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultResizeDuration is the recommended debounce duration for resize events
const DefaultResizeDuration = 150 * time.Millisecond

// resizeSettledMsg fires once the terminal size stopped changing.
type resizeSettledMsg struct {
	gen    int
	width  int
	height int
}

// ResizeDebouncer coalesces bursts of WindowSizeMsg so the expensive
// markdown re-render runs once per resize.
type ResizeDebouncer struct {
	duration time.Duration
	gen      int
}

// NewResizeDebouncer creates a debouncer with the given quiet period.
func NewResizeDebouncer(d time.Duration) *ResizeDebouncer {
	return &ResizeDebouncer{duration: d}
}

// Resize records a new size and returns a command that reports it after
// the quiet period. Only the last command's message is accepted by Settled.
func (rd *ResizeDebouncer) Resize(width, height int) tea.Cmd {
	rd.gen++
	gen := rd.gen
	if rd.duration <= 0 {
		return func() tea.Msg { return resizeSettledMsg{gen: gen, width: width, height: height} }
	}
	return tea.Tick(rd.duration, func(time.Time) tea.Msg {
		return resizeSettledMsg{gen: gen, width: width, height: height}
	})
}

// Settled reports whether msg belongs to the latest Resize call.
func (rd *ResizeDebouncer) Settled(msg resizeSettledMsg) bool {
	return msg.gen == rd.gen
}
