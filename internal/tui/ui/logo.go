package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// logoLines is the header banner.
var logoLines = []string{
	"╔═╗╔╦╗╔═╗",
	"╚═╗║║║╚═╗",
	"╚═╝╩ ╩╚═╝",
}

// Logo displays a compact ASCII art banner.
type Logo struct {
	*tview.TextView
	theme *Theme
}

// NewLogo creates a new logo component.
func NewLogo(theme *Theme) *Logo {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(1, 0, 1, 0)

	l := &Logo{TextView: tv, theme: theme}
	title := ColorName(theme.TitleColor)
	for _, line := range logoLines {
		_, _ = fmt.Fprintf(l, "[%s::b]%s[-:-:-]\n", title, line)
	}
	_, _ = fmt.Fprintf(l, "[%s]Message archive[-]", ColorName(theme.FgColor))
	return l
}
