package archive

import (
	"context"
	"sync"
)

// State is the screen's display state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateEmpty
	StatePopulated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateEmpty:
		return "empty"
	case StatePopulated:
		return "populated"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Source yields the archived conversations with their pinned flags.
type Source interface {
	ListArchived(ctx context.Context) ([]Conversation, error)
}

// View renders the screen. Its methods are called on the UI goroutine.
type View interface {
	ShowLoading(text string)
	ShowPlaceholder(text, hint string)
	ShowConversations(convs []Conversation)
	ShowError(err error)
}

// Navigator opens a thread.
type Navigator interface {
	OpenThread(threadID int64, title string)
}

// Controller loads archived conversations into a View. dispatch must run
// its argument on the UI goroutine, e.g. tview's QueueUpdateDraw.
type Controller struct {
	source   Source
	view     View
	nav      Navigator
	dispatch func(func())

	mu    sync.Mutex
	gen   uint64
	state State
	items []Conversation
}

// NewController creates a controller. A nil dispatch runs updates inline.
func NewController(src Source, view View, nav Navigator, dispatch func(func())) *Controller {
	if dispatch == nil {
		dispatch = func(f func()) { f() }
	}
	return &Controller{source: src, view: view, nav: nav, dispatch: dispatch}
}

// Load shows the loading indicator and queries the source on a new
// goroutine. The returned channel is closed once the view was updated, or
// once the result was dropped because a later Load superseded it.
func (c *Controller) Load(ctx context.Context) <-chan struct{} {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.state, c.items = StateLoading, nil
	c.mu.Unlock()
	c.view.ShowLoading(LoadingText)

	done := make(chan struct{})
	go func() {
		convs, err := c.source.ListArchived(ctx)
		if err == nil {
			Sort(convs)
		}
		c.dispatch(func() {
			defer close(done)
			if !c.latest(gen) {
				return
			}
			c.apply(convs, err)
		})
	}()
	return done
}

func (c *Controller) latest(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen == gen
}

func (c *Controller) apply(convs []Conversation, err error) {
	switch {
	case err != nil:
		c.setState(StateFailed, nil)
		c.view.ShowError(err)
	case len(convs) == 0:
		c.setState(StateEmpty, nil)
		c.view.ShowPlaceholder(PlaceholderText, PlaceholderHint)
	default:
		c.setState(StatePopulated, convs)
		c.view.ShowConversations(convs)
	}
}

// Activate opens the thread of the item at index i of the shown list.
func (c *Controller) Activate(i int) bool {
	c.mu.Lock()
	if i < 0 || i >= len(c.items) {
		c.mu.Unlock()
		return false
	}
	item := c.items[i]
	c.mu.Unlock()

	c.nav.OpenThread(item.ThreadID, item.Title)
	return true
}

// State returns the current display state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Items returns the conversations currently shown.
func (c *Controller) Items() []Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Conversation(nil), c.items...)
}

func (c *Controller) setState(s State, items []Conversation) {
	c.mu.Lock()
	c.state = s
	c.items = items
	c.mu.Unlock()
}
