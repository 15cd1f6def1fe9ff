package views

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/sms/internal/archive"
	"github.com/matheus3301/sms/internal/tui/ui"
	"github.com/rivo/tview"
)

const (
	archivePageList    = "list"
	archivePageMessage = "message"
)

// ArchiveList renders the archived conversations screen. It switches
// between a table and a centered message used for the loading indicator,
// the empty placeholder and load errors.
type ArchiveList struct {
	*tview.Pages
	theme   *ui.Theme
	table   *tview.Table
	message *tview.TextView
	convs   []archive.Conversation
	now     func() time.Time
}

// NewArchiveList creates the archive screen.
func NewArchiveList(theme *ui.Theme) *ArchiveList {
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
	table.SetTitleColor(theme.TitleColor)

	message := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	message.SetBorder(true)
	message.SetBorderColor(theme.BorderColor)
	message.SetBackgroundColor(theme.BgColor)
	message.SetTitleColor(theme.TitleColor)
	message.SetTitle(" " + archive.TitleText + " ")

	pages := tview.NewPages().
		AddPage(archivePageList, table, true, false).
		AddPage(archivePageMessage, message, true, true)

	return &ArchiveList{
		Pages:   pages,
		theme:   theme,
		table:   table,
		message: message,
		now:     time.Now,
	}
}

// Name implements Component.
func (al *ArchiveList) Name() string { return "archive" }

// Init implements Component.
func (al *ArchiveList) Init() {}

// Start implements Component.
func (al *ArchiveList) Start() {}

// Stop implements Component.
func (al *ArchiveList) Stop() {}

// Hints implements Component.
func (al *ArchiveList) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		ui.Hint("Enter", "Open"),
		ui.Hint("r", "Reload"),
		ui.Hint("Esc", "Back"),
		ui.Hint("q", "Quit"),
	}
}

// ShowLoading implements archive.View.
func (al *ArchiveList) ShowLoading(text string) {
	al.showMessage(fmt.Sprintf("\n[%s]%s[-]", ui.ColorName(al.theme.FgColor), tview.Escape(text)))
}

// ShowPlaceholder implements archive.View.
func (al *ArchiveList) ShowPlaceholder(text, hint string) {
	al.convs = nil
	al.showMessage(fmt.Sprintf("\n[%s::b]%s[-:-:-]\n\n[%s]%s[-]",
		ui.ColorName(al.theme.PlaceholderColor), tview.Escape(text),
		ui.ColorName(al.theme.FgColor), tview.Escape(hint)))
}

// ShowError implements archive.View.
func (al *ArchiveList) ShowError(err error) {
	al.convs = nil
	al.showMessage(fmt.Sprintf("\n[%s]%s[-]", ui.ColorName(al.theme.FlashErrColor), tview.Escape(err.Error())))
}

// ShowConversations implements archive.View.
func (al *ArchiveList) ShowConversations(convs []archive.Conversation) {
	al.convs = convs
	al.render()
	al.table.Select(1, 0)
	al.SwitchToPage(archivePageList)
}

func (al *ArchiveList) showMessage(text string) {
	al.message.SetText(text)
	al.SwitchToPage(archivePageMessage)
}

func (al *ArchiveList) render() {
	al.table.Clear()
	for col, h := range []string{" ", " NAME", " LAST MESSAGE", " TIME"} {
		exp := 0
		switch col {
		case 1:
			exp = 1
		case 2:
			exp = 2
		}
		al.table.SetCell(0, col, tview.NewTableCell(h).
			SetSelectable(false).
			SetTextColor(al.theme.TableHeaderFg).
			SetBackgroundColor(al.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(exp))
	}

	now := al.now()
	for i, c := range al.convs {
		row := i + 1
		marker := " "
		if c.Pinned {
			marker = "*"
		}
		al.table.SetCell(row, 0, tview.NewTableCell(marker).SetTextColor(al.theme.PinnedColor))
		al.table.SetCell(row, 1, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(displayName(c.Title, c.Recipients)))).
			SetExpansion(1).SetTextColor(al.theme.FgColor))
		al.table.SetCell(row, 2, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(c.Snippet))).
			SetExpansion(2).SetTextColor(al.theme.FgColor).SetMaxWidth(60))
		al.table.SetCell(row, 3, tview.NewTableCell(formatTimestamp(c.Date, now)).
			SetTextColor(al.theme.FgColor).SetAlign(tview.AlignRight))
	}
	al.table.SetTitle(fmt.Sprintf(" %s (%d) ", archive.TitleText, len(al.convs)))
}

// SetSelectedFunc calls fn with the 0-based index of an activated row.
func (al *ArchiveList) SetSelectedFunc(fn func(index int)) {
	al.table.SetSelectedFunc(func(row, _ int) {
		fn(row - 1)
	})
}

// Table returns the list table (for focus management).
func (al *ArchiveList) Table() *tview.Table { return al.table }

// MessageText returns the text of the loading/placeholder/error message.
func (al *ArchiveList) MessageText() string { return al.message.GetText(true) }

// ShowingList reports whether the table, rather than a message, is shown.
func (al *ArchiveList) ShowingList() bool {
	name, _ := al.GetFrontPage()
	return name == archivePageList
}
