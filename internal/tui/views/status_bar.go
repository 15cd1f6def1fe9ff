package views

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
)

// StatusBar displays the session, daemon state and import progress.
type StatusBar struct {
	*tview.TextView
	session  string
	state    string
	progress int
	now      func() time.Time
}

// NewStatusBar creates a new status bar.
func NewStatusBar() *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	return &StatusBar{TextView: tv, progress: -1, now: time.Now}
}

// SetSession updates the session name display.
func (sb *StatusBar) SetSession(name string) {
	sb.session = name
	sb.render()
}

// SetState updates the daemon state display.
func (sb *StatusBar) SetState(state string) {
	sb.state = state
	sb.render()
}

// SetProgress shows import progress from current/total bytes. A negative
// total clears it; an unknown (zero) total shows an indeterminate marker.
func (sb *StatusBar) SetProgress(total, current int64) {
	switch {
	case total < 0:
		sb.progress = -1
	case total == 0:
		sb.progress = 0
	default:
		sb.progress = int(min(current*100/total, 100))
	}
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()

	line := fmt.Sprintf(" [::b]%s[-:-:-] | %s", tview.Escape(sb.session), sb.state)
	if sb.progress >= 0 {
		line += fmt.Sprintf(" [green]import %d%%[-]", sb.progress)
	}
	line += " | " + sb.now().Format("15:04")

	_, _ = fmt.Fprint(sb, line)
}
