package model

import (
	"context"
	"net"
	"testing"

	"github.com/matheus3301/sms/internal/rpc"
	"github.com/matheus3301/sms/internal/tui/client"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type fakeConversations struct {
	rpc.ConversationServiceServer
}

func (fakeConversations) ListConversations(context.Context, *rpc.ListConversationsRequest) (*rpc.ListConversationsResponse, error) {
	return &rpc.ListConversationsResponse{Conversations: []rpc.Conversation{
		{ThreadID: 1, Title: "Alice", Pinned: true},
		{ThreadID: 2, Title: "Bob"},
	}}, nil
}

func (fakeConversations) ListArchived(context.Context, *rpc.ListArchivedRequest) (*rpc.ListConversationsResponse, error) {
	return &rpc.ListConversationsResponse{Conversations: []rpc.Conversation{
		{ThreadID: 7, Title: "Carol", Snippet: "bye", Date: 500, Archived: true, Pinned: true, IsGroup: true},
	}}, nil
}

func (fakeConversations) SetPinned(_ context.Context, in *rpc.SetPinnedRequest) (*rpc.ConversationResponse, error) {
	return &rpc.ConversationResponse{Conversation: rpc.Conversation{ThreadID: in.ThreadID, Pinned: in.Pinned}}, nil
}

func (fakeConversations) SetArchived(_ context.Context, in *rpc.SetArchivedRequest) (*rpc.ConversationResponse, error) {
	return nil, status.Errorf(codes.NotFound, "conversation %d not found", in.ThreadID)
}

type fakeBackup struct {
	rpc.BackupServiceServer
	events []rpc.ImportEvent
}

func (f fakeBackup) Import(_ *rpc.ImportRequest, stream rpc.ServerStream[rpc.ImportEvent]) error {
	for i := range f.events {
		if err := stream.Send(&f.events[i]); err != nil {
			return err
		}
	}
	return nil
}

func newViewModel(t *testing.T, backup fakeBackup) *ViewModel {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	rpc.RegisterConversationServiceServer(srv, fakeConversations{})
	rpc.RegisterBackupServiceServer(srv, backup)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return NewViewModel(client.FromConn(conn))
}

func TestLoadConversations(t *testing.T) {
	vm := newViewModel(t, fakeBackup{})
	if err := vm.LoadConversations(context.Background()); err != nil {
		t.Fatal(err)
	}
	convs := vm.Conversations()
	if len(convs) != 2 || convs[0].Title != "Alice" || !convs[0].Pinned {
		t.Errorf("Conversations = %+v", convs)
	}
}

func TestListArchivedConvertsConversations(t *testing.T) {
	vm := newViewModel(t, fakeBackup{})
	got, err := vm.ListArchived(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	c := got[0]
	if c.ThreadID != 7 || c.Title != "Carol" || c.Snippet != "bye" || c.Date != 500 || !c.Pinned || !c.IsGroup {
		t.Errorf("ListArchived = %+v", c)
	}
}

func TestMutationsRequestRefresh(t *testing.T) {
	vm := newViewModel(t, fakeBackup{})
	c, err := vm.SetPinned(context.Background(), 3, true)
	if err != nil {
		t.Fatal(err)
	}
	if c.ThreadID != 3 || !c.Pinned {
		t.Errorf("SetPinned = %+v", c)
	}
	select {
	case <-vm.RefreshCh():
	default:
		t.Error("expected refresh signal")
	}

	if _, err := vm.SetArchived(context.Background(), 9, true); status.Code(err) != codes.NotFound {
		t.Errorf("SetArchived err = %v, want NotFound", err)
	}
	select {
	case <-vm.RefreshCh():
		t.Error("failed mutation should not signal refresh")
	default:
	}
}

func TestRefreshRequestsCoalesce(t *testing.T) {
	vm := newViewModel(t, fakeBackup{})
	vm.RequestRefresh()
	vm.RequestRefresh()
	<-vm.RefreshCh()
	select {
	case <-vm.RefreshCh():
		t.Error("expected a single pending refresh")
	default:
	}
}

func TestImportStreamsEvents(t *testing.T) {
	vm := newViewModel(t, fakeBackup{events: []rpc.ImportEvent{
		{Kind: rpc.ImportStarted, RunID: "r1"},
		{Kind: rpc.ImportProgress, RunID: "r1", Total: 10, Current: 5},
		{Kind: rpc.ImportRecordFailed, RunID: "r1", Error: "bad"},
		{Kind: rpc.ImportFinished, RunID: "r1", Result: "PARTIAL", Imported: 2, Failed: 1},
	}})

	var kinds []string
	last, err := vm.Import(context.Background(), "demo_backup.json", func(evt rpc.ImportEvent) {
		kinds = append(kinds, evt.Kind)
	})
	if err != nil {
		t.Fatal(err)
	}
	if last.Result != "PARTIAL" || last.Imported != 2 || last.Failed != 1 {
		t.Errorf("last = %+v", last)
	}
	if len(kinds) != 4 {
		t.Errorf("kinds = %v", kinds)
	}
	if vm.Progress() != nil {
		t.Error("progress should be cleared after import")
	}
}

func TestImportWithoutResultFails(t *testing.T) {
	vm := newViewModel(t, fakeBackup{events: []rpc.ImportEvent{{Kind: rpc.ImportStarted}}})
	if _, err := vm.Import(context.Background(), "x.json", nil); err == nil {
		t.Error("expected error for stream without finished event")
	}
}
