package api

import (
	"context"
	"strings"

	"github.com/matheus3301/sms/internal/rpc"
	"github.com/matheus3301/sms/internal/store"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

// MessageService implements rpc.MessageServiceServer.
type MessageService struct {
	db *store.DB
}

// NewMessageService creates a new message service backed by the store.
func NewMessageService(db *store.DB) *MessageService {
	return &MessageService{db: db}
}

func (s *MessageService) ListMessages(_ context.Context, req *rpc.ListMessagesRequest) (*rpc.ListMessagesResponse, error) {
	limit := 50
	if req.Limit > 0 {
		limit = req.Limit
	}

	msgs, err := s.db.ListMessages(req.ThreadID, req.BeforeDate, req.BeforeID, limit)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "list messages: %v", err)
	}

	out := make([]rpc.Message, 0, len(msgs))
	for i := range msgs {
		m := &msgs[i]
		if m.Kind == store.KindMMS {
			if err := s.db.LoadAttachments(m); err != nil {
				return nil, grpcstatus.Errorf(codes.Internal, "load attachments: %v", err)
			}
		}
		out = append(out, messageToRPC(m))
	}

	return &rpc.ListMessagesResponse{
		Messages: out,
		HasMore:  len(msgs) == limit,
	}, nil
}

func (s *MessageService) SearchMessages(_ context.Context, req *rpc.SearchMessagesRequest) (*rpc.SearchMessagesResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, grpcstatus.Error(codes.InvalidArgument, "query is required")
	}
	limit := 50
	if req.Limit > 0 {
		limit = req.Limit
	}

	results, err := s.db.SearchMessages(req.Query, req.ThreadID, limit)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "search messages: %v", err)
	}

	out := make([]rpc.SearchResult, 0, len(results))
	for _, r := range results {
		out = append(out, rpc.SearchResult{
			Message: messageToRPC(&r.Message),
			Snippet: r.Snippet,
		})
	}
	return &rpc.SearchMessagesResponse{Results: out}, nil
}

func messageToRPC(m *store.Message) rpc.Message {
	out := rpc.Message{
		ID:       m.ID,
		ThreadID: m.ThreadID,
		Kind:     m.Kind,
		Address:  m.Address,
		Body:     m.Body,
		Subject:  m.Subject,
		Box:      m.Box,
		Date:     m.Date,
		Read:     m.Read,
	}
	for _, p := range m.Parts {
		// Text parts are already in Body and SMIL only describes layout.
		if p.ContentType == "application/smil" || p.ContentType == "text/plain" {
			continue
		}
		name := p.Name
		if name == "" {
			name = p.Filename
		}
		out.Attachments = append(out.Attachments, rpc.Attachment{ContentType: p.ContentType, Name: name, Size: len(p.Data)})
	}
	return out
}
