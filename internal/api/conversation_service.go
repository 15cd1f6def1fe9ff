package api

import (
	"context"
	"errors"

	"github.com/matheus3301/sms/internal/archive"
	"github.com/matheus3301/sms/internal/bus"
	"github.com/matheus3301/sms/internal/config"
	"github.com/matheus3301/sms/internal/rpc"
	"github.com/matheus3301/sms/internal/store"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

// ChangedPayload is published with bus.KindConversationChanged.
type ChangedPayload struct {
	ThreadID int64 `json:"thread_id"`
	Archived bool  `json:"archived"`
	Pinned   bool  `json:"pinned"`
}

// ConversationService implements rpc.ConversationServiceServer.
type ConversationService struct {
	db       *store.DB
	settings *config.SettingsStore
	bus      *bus.Bus
}

// NewConversationService creates a conversation service backed by the store.
func NewConversationService(db *store.DB, settings *config.SettingsStore, b *bus.Bus) *ConversationService {
	return &ConversationService{db: db, settings: settings, bus: b}
}

func (s *ConversationService) ListConversations(_ context.Context, req *rpc.ListConversationsRequest) (*rpc.ListConversationsResponse, error) {
	convs, err := s.db.ListConversations(req.Archived)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "list conversations: %v", err)
	}
	items := archive.FromStore(convs, s.settings.PinnedSet())
	archive.Sort(items)
	return &rpc.ListConversationsResponse{Conversations: toRPC(items, req.Archived)}, nil
}

func (s *ConversationService) ListArchived(ctx context.Context, _ *rpc.ListArchivedRequest) (*rpc.ListConversationsResponse, error) {
	items, err := archive.StoreSource{DB: s.db, Settings: s.settings}.ListArchived(ctx)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "list archived: %v", err)
	}
	archive.Sort(items)
	return &rpc.ListConversationsResponse{Conversations: toRPC(items, true)}, nil
}

func (s *ConversationService) GetConversation(_ context.Context, req *rpc.GetConversationRequest) (*rpc.ConversationResponse, error) {
	c, err := s.lookup(req.ThreadID)
	if err != nil {
		return nil, err
	}
	return &rpc.ConversationResponse{Conversation: *c}, nil
}

func (s *ConversationService) SetArchived(_ context.Context, req *rpc.SetArchivedRequest) (*rpc.ConversationResponse, error) {
	if err := s.db.SetArchived(req.ThreadID, req.Archived); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, grpcstatus.Errorf(codes.NotFound, "conversation %d not found", req.ThreadID)
		}
		return nil, grpcstatus.Errorf(codes.Internal, "set archived: %v", err)
	}
	return s.changed(req.ThreadID)
}

func (s *ConversationService) SetPinned(_ context.Context, req *rpc.SetPinnedRequest) (*rpc.ConversationResponse, error) {
	if _, err := s.lookup(req.ThreadID); err != nil {
		return nil, err
	}
	if err := s.settings.SetPinned(req.ThreadID, req.Pinned); err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "save pinned conversations: %v", err)
	}
	return s.changed(req.ThreadID)
}

func (s *ConversationService) changed(threadID int64) (*rpc.ConversationResponse, error) {
	c, err := s.lookup(threadID)
	if err != nil {
		return nil, err
	}
	s.bus.Emit(bus.KindConversationChanged, ChangedPayload{ThreadID: c.ThreadID, Archived: c.Archived, Pinned: c.Pinned})
	return &rpc.ConversationResponse{Conversation: *c}, nil
}

func (s *ConversationService) lookup(threadID int64) (*rpc.Conversation, error) {
	c, err := s.db.GetConversation(threadID)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "get conversation: %v", err)
	}
	if c == nil {
		return nil, grpcstatus.Errorf(codes.NotFound, "conversation %d not found", threadID)
	}
	return &rpc.Conversation{
		ThreadID:   c.ThreadID,
		Recipients: c.Recipients,
		Title:      c.Title,
		Snippet:    c.Snippet,
		Date:       c.Date,
		Read:       c.Read,
		IsGroup:    c.IsGroup,
		Archived:   c.Archived,
		Pinned:     s.settings.IsPinned(c.ThreadID),
	}, nil
}

func toRPC(items []archive.Conversation, archived bool) []rpc.Conversation {
	out := make([]rpc.Conversation, 0, len(items))
	for _, c := range items {
		out = append(out, rpc.Conversation{
			ThreadID:   c.ThreadID,
			Recipients: c.Recipients,
			Title:      c.Title,
			Snippet:    c.Snippet,
			Date:       c.Date,
			Read:       c.Read,
			IsGroup:    c.IsGroup,
			Archived:   archived,
			Pinned:     c.Pinned,
		})
	}
	return out
}
