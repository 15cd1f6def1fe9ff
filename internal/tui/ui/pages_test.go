package ui

import (
	"slices"
	"testing"

	"github.com/rivo/tview"
)

func newTestPages() (*Pages, *[][]string) {
	p := NewPages()
	for _, name := range []string{"conversations", "archive", "thread"} {
		p.AddPage(name, tview.NewBox(), true, false)
	}
	var changes [][]string
	p.SetOnChange(func(stack []string) { changes = append(changes, stack) })
	return p, &changes
}

func TestPagesPushPop(t *testing.T) {
	p, changes := newTestPages()
	p.Reset("conversations")
	p.Push("archive")
	p.Push("thread")

	if got := p.Stack(); !slices.Equal(got, []string{"conversations", "archive", "thread"}) {
		t.Errorf("stack = %v", got)
	}
	if front, _ := p.GetFrontPage(); front != "thread" {
		t.Errorf("front = %q", front)
	}

	if popped := p.Pop(); popped != "thread" {
		t.Errorf("Pop = %q", popped)
	}
	if p.Current() != "archive" {
		t.Errorf("Current = %q", p.Current())
	}
	p.Pop()
	if popped := p.Pop(); popped != "" {
		t.Errorf("root popped: %q", popped)
	}
	if len(*changes) != 5 {
		t.Errorf("change notifications = %d, want 5", len(*changes))
	}
}

func TestPagesPushExistingUnwinds(t *testing.T) {
	p, _ := newTestPages()
	p.Reset("conversations")
	p.Push("archive")
	p.Push("thread")
	p.Push("archive")

	if got := p.Stack(); !slices.Equal(got, []string{"conversations", "archive"}) {
		t.Errorf("stack = %v", got)
	}
	if p.HasPage("thread") && isVisible(p, "thread") {
		t.Error("thread still visible")
	}
}

func isVisible(p *Pages, name string) bool {
	front, _ := p.GetFrontPage()
	return front == name
}
