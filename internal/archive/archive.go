// Package archive drives the archived-conversations screen: it loads the
// archived threads off the UI goroutine, orders them pinned first and
// newest first, and tells the view which of its states to show.
package archive

import (
	"cmp"
	"context"
	"slices"

	"github.com/matheus3301/sms/internal/config"
	"github.com/matheus3301/sms/internal/store"
)

// Texts shown by the screen.
const (
	LoadingText     = "Loading messages…"
	PlaceholderText = "No archived conversations have been found"
	PlaceholderHint = "Archive a conversation from the main list with x"
	TitleText       = "Archived conversations"
)

// Conversation is one row of the screen.
type Conversation struct {
	ThreadID   int64
	Recipients string
	Title      string
	Snippet    string
	Date       int64
	Read       bool
	IsGroup    bool
	Pinned     bool
}

// FromStore converts stored conversations, marking those in pinned.
func FromStore(convs []store.Conversation, pinned map[int64]bool) []Conversation {
	out := make([]Conversation, 0, len(convs))
	for _, c := range convs {
		out = append(out, Conversation{
			ThreadID:   c.ThreadID,
			Recipients: c.Recipients,
			Title:      c.Title,
			Snippet:    c.Snippet,
			Date:       c.Date,
			Read:       c.Read,
			IsGroup:    c.IsGroup,
			Pinned:     pinned[c.ThreadID],
		})
	}
	return out
}

// Sort orders convs in place: pinned before unpinned, then by date
// descending. Equal keys keep their input order.
func Sort(convs []Conversation) {
	slices.SortStableFunc(convs, func(a, b Conversation) int {
		if c := cmp.Compare(weight(b), weight(a)); c != 0 {
			return c
		}
		return cmp.Compare(b.Date, a.Date)
	})
}

func weight(c Conversation) int {
	if c.Pinned {
		return 1
	}
	return 0
}

// StoreSource reads archived conversations from the message store and
// pinned membership from the session settings.
type StoreSource struct {
	DB       *store.DB
	Settings *config.SettingsStore
}

// ListArchived implements Source.
func (s StoreSource) ListArchived(_ context.Context) ([]Conversation, error) {
	convs, err := s.DB.ListArchived()
	if err != nil {
		return nil, err
	}
	return FromStore(convs, s.Settings.PinnedSet()), nil
}
