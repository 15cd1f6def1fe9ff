package api

import (
	"context"
	"time"

	"github.com/matheus3301/sms/internal/rpc"
	"github.com/matheus3301/sms/internal/status"
	"github.com/matheus3301/sms/internal/store"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

// SessionService implements rpc.SessionServiceServer.
type SessionService struct {
	sessionName string
	startedAt   time.Time
	machine     *status.Machine
	db          *store.DB
}

// NewSessionService creates a new session service.
func NewSessionService(sessionName string, machine *status.Machine, db *store.DB) *SessionService {
	return &SessionService{
		sessionName: sessionName,
		startedAt:   time.Now(),
		machine:     machine,
		db:          db,
	}
}

func (s *SessionService) GetStatus(_ context.Context, _ *rpc.GetStatusRequest) (*rpc.GetStatusResponse, error) {
	resp := &rpc.GetStatusResponse{
		Session:  s.sessionName,
		State:    string(s.machine.Current()),
		UptimeMs: time.Since(s.startedAt).Milliseconds(),
	}

	var err error
	if resp.ConversationCount, err = s.db.ConversationCount(); err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "count conversations: %v", err)
	}
	if resp.MessageCount, err = s.db.MessageCount(); err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "count messages: %v", err)
	}
	return resp, nil
}
