package views

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/sms/internal/rpc"
	"github.com/matheus3301/sms/internal/tui/ui"
	"github.com/rivo/tview"
)

// ConversationList is the main conversation table.
type ConversationList struct {
	*tview.Table
	theme   *ui.Theme
	convs   []rpc.Conversation
	visible []rpc.Conversation
	filter  string
	now     func() time.Time
}

// NewConversationList creates a new conversation list table.
func NewConversationList(theme *ui.Theme) *ConversationList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitle(" Conversations ")
	table.SetTitleColor(theme.TitleColor)

	return &ConversationList{
		Table: table,
		theme: theme,
		now:   time.Now,
	}
}

// Name implements Component.
func (cl *ConversationList) Name() string { return "conversations" }

// Init implements Component.
func (cl *ConversationList) Init() { cl.render() }

// Start implements Component.
func (cl *ConversationList) Start() {}

// Stop implements Component.
func (cl *ConversationList) Stop() {}

// Hints implements Component.
func (cl *ConversationList) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Open"},
		{Key: "p", Description: "Pin/Unpin"},
		{Key: "x", Description: "Archive"},
		{Key: "a", Description: "Archived"},
		{Key: "/", Description: "Filter"},
		{Key: ":", Description: "Command"},
		{Key: "q", Description: "Quit"},
	}
}

// Update replaces the conversations, keeping the selected thread selected
// when it is still listed.
func (cl *ConversationList) Update(convs []rpc.Conversation) {
	selected, hadSelection := cl.Selected()
	cl.convs = convs
	cl.render()
	if !hadSelection {
		return
	}
	for i, c := range cl.visible {
		if c.ThreadID == selected.ThreadID {
			cl.Select(i+1, 0)
			return
		}
	}
}

// SetFilter sets the active filter text and re-renders.
func (cl *ConversationList) SetFilter(filter string) {
	cl.filter = filter
	cl.render()
	cl.Select(1, 0)
}

// ClearFilter clears the active filter.
func (cl *ConversationList) ClearFilter() {
	cl.SetFilter("")
}

// Filter returns the active filter text.
func (cl *ConversationList) Filter() string { return cl.filter }

func (cl *ConversationList) render() {
	cl.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" ", 0},
		{" NAME", 1},
		{" LAST MESSAGE", 2},
		{" TIME", 0},
		{" TYPE", 0},
	}
	for col, h := range headers {
		cl.SetCell(0, col, tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg).
			SetBackgroundColor(cl.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp))
	}

	cl.visible = cl.visible[:0]
	now := cl.now()
	for _, c := range cl.convs {
		name := displayName(c.Title, c.Recipients)
		if cl.filter != "" && !containsFold(name, cl.filter) && !containsFold(c.Snippet, cl.filter) {
			continue
		}
		cl.visible = append(cl.visible, c)
		row := len(cl.visible)

		marker := " "
		if c.Pinned {
			marker = "*"
		}
		attrs := tcell.AttrNone
		if !c.Read {
			attrs = tcell.AttrBold
		}
		kind := "SMS"
		if c.IsGroup {
			kind = "GROUP"
		}

		cl.SetCell(row, 0, tview.NewTableCell(marker).SetTextColor(cl.theme.PinnedColor))
		cl.SetCell(row, 1, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(name))).
			SetExpansion(1).SetTextColor(cl.theme.FgColor).SetAttributes(attrs))
		cl.SetCell(row, 2, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(c.Snippet))).
			SetExpansion(2).SetTextColor(cl.theme.FgColor).SetMaxWidth(60))
		cl.SetCell(row, 3, tview.NewTableCell(formatTimestamp(c.Date, now)).
			SetTextColor(cl.theme.FgColor).SetAlign(tview.AlignRight))
		cl.SetCell(row, 4, tview.NewTableCell(kind).
			SetTextColor(cl.theme.FgColor).SetAlign(tview.AlignRight))
	}

	if cl.filter != "" {
		cl.SetTitle(fmt.Sprintf(" Conversations (%d/%d) filter: %s ", len(cl.visible), len(cl.convs), tview.Escape(cl.filter)))
	} else {
		cl.SetTitle(fmt.Sprintf(" Conversations (%d) ", len(cl.convs)))
	}
}

// Selected returns the conversation under the cursor.
func (cl *ConversationList) Selected() (rpc.Conversation, bool) {
	row, _ := cl.GetSelection()
	return cl.At(row - 1)
}

// At returns the i-th visible conversation (0-based).
func (cl *ConversationList) At(i int) (rpc.Conversation, bool) {
	if i < 0 || i >= len(cl.visible) {
		return rpc.Conversation{}, false
	}
	return cl.visible[i], true
}

// Len returns the number of visible conversations.
func (cl *ConversationList) Len() int { return len(cl.visible) }
