package ui

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
)

// SessionData holds the session facts shown in the header.
type SessionData struct {
	Session       string
	State         string
	Conversations int64
	Messages      int64
	Uptime        time.Duration
}

// SessionInfo displays session metadata in the header.
type SessionInfo struct {
	*tview.TextView
	theme *Theme
}

// NewSessionInfo creates a new session info panel.
func NewSessionInfo(theme *Theme) *SessionInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)

	return &SessionInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders data; nil clears the panel.
func (si *SessionInfo) Update(data *SessionData) {
	si.Clear()
	if data == nil {
		return
	}

	rows := []struct {
		label string
		value string
	}{
		{"Session:", data.Session},
		{"State:", data.State},
		{"Convs:", fmt.Sprint(data.Conversations)},
		{"Msgs:", fmt.Sprint(data.Messages)},
		{"Uptime:", formatDuration(data.Uptime)},
	}

	fg := ColorName(si.theme.FgColor)
	counter := ColorName(si.theme.CounterColor)
	for i, r := range rows {
		if i > 0 {
			_, _ = fmt.Fprintln(si)
		}
		_, _ = fmt.Fprintf(si, "[%s::b]%-8s[-:-:-] [%s]%s[-]", fg, r.label, counter, tview.Escape(r.value))
	}
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
