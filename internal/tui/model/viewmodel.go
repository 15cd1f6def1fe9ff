package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/matheus3301/sms/internal/archive"
	"github.com/matheus3301/sms/internal/rpc"
	"github.com/matheus3301/sms/internal/tui/client"
)

// ViewModel caches daemon state for the views and signals UI refreshes.
type ViewModel struct {
	mu sync.RWMutex

	client        *client.Client
	status        *rpc.GetStatusResponse
	conversations []rpc.Conversation
	messages      []rpc.Message
	activeThread  int64
	progress      *rpc.ImportEvent

	refreshCh chan struct{}
}

// NewViewModel creates a new view model connected to the daemon client.
func NewViewModel(c *client.Client) *ViewModel {
	return &ViewModel{
		client:    c,
		refreshCh: make(chan struct{}, 1),
	}
}

// RefreshCh returns the channel that signals the conversation list is stale.
func (vm *ViewModel) RefreshCh() <-chan struct{} {
	return vm.refreshCh
}

// RequestRefresh marks the conversation list stale. Requests coalesce.
func (vm *ViewModel) RequestRefresh() {
	select {
	case vm.refreshCh <- struct{}{}:
	default:
	}
}

// LoadStatus fetches the daemon status.
func (vm *ViewModel) LoadStatus(ctx context.Context) error {
	resp, err := vm.client.Session.GetStatus(ctx, &rpc.GetStatusRequest{})
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.status = resp
	vm.mu.Unlock()
	return nil
}

// LoadConversations fetches the non-archived conversations, pinned first.
func (vm *ViewModel) LoadConversations(ctx context.Context) error {
	resp, err := vm.client.Conversations.ListConversations(ctx, &rpc.ListConversationsRequest{})
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.conversations = resp.Conversations
	vm.mu.Unlock()
	return nil
}

// ListArchived fetches the archived conversations for the archive screen.
func (vm *ViewModel) ListArchived(ctx context.Context) ([]archive.Conversation, error) {
	resp, err := vm.client.Conversations.ListArchived(ctx, &rpc.ListArchivedRequest{})
	if err != nil {
		return nil, err
	}
	out := make([]archive.Conversation, 0, len(resp.Conversations))
	for _, c := range resp.Conversations {
		out = append(out, archive.Conversation{
			ThreadID:   c.ThreadID,
			Recipients: c.Recipients,
			Title:      c.Title,
			Snippet:    c.Snippet,
			Date:       c.Date,
			Read:       c.Read,
			IsGroup:    c.IsGroup,
			Pinned:     c.Pinned,
		})
	}
	return out, nil
}

// LoadMessages fetches the newest messages of a thread.
func (vm *ViewModel) LoadMessages(ctx context.Context, threadID int64) error {
	resp, err := vm.client.Messages.ListMessages(ctx, &rpc.ListMessagesRequest{
		ThreadID: threadID,
		Limit:    200,
	})
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.activeThread = threadID
	vm.messages = resp.Messages
	vm.mu.Unlock()
	return nil
}

// SetArchived moves a conversation in or out of the archive.
func (vm *ViewModel) SetArchived(ctx context.Context, threadID int64, archived bool) (*rpc.Conversation, error) {
	resp, err := vm.client.Conversations.SetArchived(ctx, &rpc.SetArchivedRequest{ThreadID: threadID, Archived: archived})
	if err != nil {
		return nil, err
	}
	vm.RequestRefresh()
	return &resp.Conversation, nil
}

// SetPinned adds or removes a conversation from the pinned set.
func (vm *ViewModel) SetPinned(ctx context.Context, threadID int64, pinned bool) (*rpc.Conversation, error) {
	resp, err := vm.client.Conversations.SetPinned(ctx, &rpc.SetPinnedRequest{ThreadID: threadID, Pinned: pinned})
	if err != nil {
		return nil, err
	}
	vm.RequestRefresh()
	return &resp.Conversation, nil
}

// Import runs an import on the daemon and calls onEvent for each streamed
// event. It returns the final event.
func (vm *ViewModel) Import(ctx context.Context, path string, onEvent func(rpc.ImportEvent)) (*rpc.ImportEvent, error) {
	stream, err := vm.client.Backup.Import(ctx, &rpc.ImportRequest{Path: path})
	if err != nil {
		return nil, err
	}
	defer vm.setProgress(nil)

	var last *rpc.ImportEvent
	for {
		evt, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return last, err
		}
		last = evt
		if evt.Kind == rpc.ImportProgress {
			vm.setProgress(evt)
		}
		if onEvent != nil {
			onEvent(*evt)
		}
	}
	if last == nil || last.Kind != rpc.ImportFinished {
		return last, fmt.Errorf("import stream ended without a result")
	}
	return last, nil
}

// Export writes a backup of the store to path on the daemon's filesystem.
func (vm *ViewModel) Export(ctx context.Context, path string) (*rpc.ExportResponse, error) {
	return vm.client.Backup.Export(ctx, &rpc.ExportRequest{Path: path})
}

// WatchEvents forwards daemon events to fn until ctx is done or the stream
// breaks.
func (vm *ViewModel) WatchEvents(ctx context.Context, fn func(rpc.EventEnvelope)) error {
	stream, err := vm.client.Backup.WatchEvents(ctx, &rpc.WatchEventsRequest{})
	if err != nil {
		return err
	}
	for {
		evt, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		fn(*evt)
	}
}

func (vm *ViewModel) setProgress(evt *rpc.ImportEvent) {
	vm.mu.Lock()
	vm.progress = evt
	vm.mu.Unlock()
}

// Conversations returns a snapshot of the conversation list.
func (vm *ViewModel) Conversations() []rpc.Conversation {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.conversations
}

// Messages returns a snapshot of the active thread's messages.
func (vm *ViewModel) Messages() []rpc.Message {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.messages
}

// ActiveThread returns the thread whose messages are loaded.
func (vm *ViewModel) ActiveThread() int64 {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.activeThread
}

// Status returns a snapshot of the daemon status.
func (vm *ViewModel) Status() *rpc.GetStatusResponse {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.status
}

// Progress returns the latest progress event of a running import, if any.
func (vm *ViewModel) Progress() *rpc.ImportEvent {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.progress
}
