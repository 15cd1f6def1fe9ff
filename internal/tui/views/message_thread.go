package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/matheus3301/sms/internal/rpc"
	"github.com/matheus3301/sms/internal/tui/ui"
	"github.com/rivo/tview"
)

// inboxBox is the SMS type / MMS msg_box of received messages.
const inboxBox = 1

// MessageThread displays the messages of a single conversation.
type MessageThread struct {
	*tview.TextView
	theme    *ui.Theme
	title    string
	threadID int64
	now      func() time.Time
}

// NewMessageThread creates a new message thread view.
func NewMessageThread(theme *ui.Theme) *MessageThread {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Messages ")
	tv.SetTitleColor(theme.TitleColor)

	return &MessageThread{
		TextView: tv,
		theme:    theme,
		now:      time.Now,
	}
}

// Name implements Component.
func (mt *MessageThread) Name() string { return "thread" }

// Init implements Component.
func (mt *MessageThread) Init() {}

// Start implements Component.
func (mt *MessageThread) Start() {}

// Stop implements Component.
func (mt *MessageThread) Stop() {}

// Hints implements Component.
func (mt *MessageThread) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		ui.Hint("j/k", "Scroll"),
		ui.Hint("Esc", "Back"),
		ui.Hint(":", "Command"),
		ui.Hint("q", "Quit"),
	}
}

// SetThread sets the thread shown and its title.
func (mt *MessageThread) SetThread(threadID int64, title string) {
	mt.threadID = threadID
	mt.title = title
	mt.SetTitle(fmt.Sprintf(" %s ", tview.Escape(sanitizeForTerminal(title))))
}

// Title returns the title of the thread shown.
func (mt *MessageThread) Title() string { return mt.title }

// ThreadID returns the thread shown.
func (mt *MessageThread) ThreadID() int64 { return mt.threadID }

// Update renders msgs, which arrive newest first, oldest at the top.
func (mt *MessageThread) Update(msgs []rpc.Message) {
	mt.Clear()
	if len(msgs) == 0 {
		_, _ = fmt.Fprintf(mt, "[%s]No messages[-]", ui.ColorName(mt.theme.CounterColor))
		return
	}

	now := mt.now()
	meColor := ui.ColorName(mt.theme.MenuKeyColor)
	themColor := ui.ColorName(mt.theme.CounterColor)
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		sender, color := "Me", meColor
		if m.Box == inboxBox {
			sender, color = m.Address, themColor
		}

		_, _ = fmt.Fprintf(mt, "[%s::b]%s[-:-:-] [::d]%s %s[-:-:-]\n",
			color, tview.Escape(sanitizeForTerminal(sender)), formatTimestamp(m.Date, now), strings.ToUpper(m.Kind))
		if m.Subject != "" {
			_, _ = fmt.Fprintf(mt, "[::i]%s[-:-:-]\n", tview.Escape(sanitizeForTerminal(m.Subject)))
		}
		if m.Body != "" {
			_, _ = fmt.Fprintln(mt, tview.Escape(m.Body))
		}
		for _, a := range m.Attachments {
			name := a.Name
			if name == "" {
				name = a.ContentType
			}
			_, _ = fmt.Fprintf(mt, "[%s]<%s, %d bytes>[-]\n", themColor, tview.Escape(name), a.Size)
		}
		_, _ = fmt.Fprintln(mt)
	}
	mt.ScrollToEnd()
}
