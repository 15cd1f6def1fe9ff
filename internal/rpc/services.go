package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// Service names.
const (
	SessionServiceName      = "sms.v1.SessionService"
	ConversationServiceName = "sms.v1.ConversationService"
	MessageServiceName      = "sms.v1.MessageService"
	BackupServiceName       = "sms.v1.BackupService"
)

// SessionServiceServer reports daemon state.
type SessionServiceServer interface {
	GetStatus(context.Context, *GetStatusRequest) (*GetStatusResponse, error)
}

var sessionServiceDesc = grpc.ServiceDesc{
	ServiceName: SessionServiceName,
	HandlerType: (*SessionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(SessionServiceName, "GetStatus", func(srv any, ctx context.Context, in *GetStatusRequest) (*GetStatusResponse, error) {
			return srv.(SessionServiceServer).GetStatus(ctx, in)
		}),
	},
	Metadata: "sms/v1/session",
}

func RegisterSessionServiceServer(s grpc.ServiceRegistrar, srv SessionServiceServer) {
	s.RegisterService(&sessionServiceDesc, srv)
}

type SessionServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewSessionServiceClient(cc grpc.ClientConnInterface) *SessionServiceClient {
	return &SessionServiceClient{cc: cc}
}

func (c *SessionServiceClient) GetStatus(ctx context.Context, in *GetStatusRequest, opts ...grpc.CallOption) (*GetStatusResponse, error) {
	return invoke[GetStatusResponse](ctx, c.cc, SessionServiceName, "GetStatus", in, opts)
}

// ConversationServiceServer lists and updates conversations.
type ConversationServiceServer interface {
	ListConversations(context.Context, *ListConversationsRequest) (*ListConversationsResponse, error)
	ListArchived(context.Context, *ListArchivedRequest) (*ListConversationsResponse, error)
	GetConversation(context.Context, *GetConversationRequest) (*ConversationResponse, error)
	SetArchived(context.Context, *SetArchivedRequest) (*ConversationResponse, error)
	SetPinned(context.Context, *SetPinnedRequest) (*ConversationResponse, error)
}

var conversationServiceDesc = grpc.ServiceDesc{
	ServiceName: ConversationServiceName,
	HandlerType: (*ConversationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(ConversationServiceName, "ListConversations", func(srv any, ctx context.Context, in *ListConversationsRequest) (*ListConversationsResponse, error) {
			return srv.(ConversationServiceServer).ListConversations(ctx, in)
		}),
		unary(ConversationServiceName, "ListArchived", func(srv any, ctx context.Context, in *ListArchivedRequest) (*ListConversationsResponse, error) {
			return srv.(ConversationServiceServer).ListArchived(ctx, in)
		}),
		unary(ConversationServiceName, "GetConversation", func(srv any, ctx context.Context, in *GetConversationRequest) (*ConversationResponse, error) {
			return srv.(ConversationServiceServer).GetConversation(ctx, in)
		}),
		unary(ConversationServiceName, "SetArchived", func(srv any, ctx context.Context, in *SetArchivedRequest) (*ConversationResponse, error) {
			return srv.(ConversationServiceServer).SetArchived(ctx, in)
		}),
		unary(ConversationServiceName, "SetPinned", func(srv any, ctx context.Context, in *SetPinnedRequest) (*ConversationResponse, error) {
			return srv.(ConversationServiceServer).SetPinned(ctx, in)
		}),
	},
	Metadata: "sms/v1/conversation",
}

func RegisterConversationServiceServer(s grpc.ServiceRegistrar, srv ConversationServiceServer) {
	s.RegisterService(&conversationServiceDesc, srv)
}

type ConversationServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewConversationServiceClient(cc grpc.ClientConnInterface) *ConversationServiceClient {
	return &ConversationServiceClient{cc: cc}
}

func (c *ConversationServiceClient) ListConversations(ctx context.Context, in *ListConversationsRequest, opts ...grpc.CallOption) (*ListConversationsResponse, error) {
	return invoke[ListConversationsResponse](ctx, c.cc, ConversationServiceName, "ListConversations", in, opts)
}

func (c *ConversationServiceClient) ListArchived(ctx context.Context, in *ListArchivedRequest, opts ...grpc.CallOption) (*ListConversationsResponse, error) {
	return invoke[ListConversationsResponse](ctx, c.cc, ConversationServiceName, "ListArchived", in, opts)
}

func (c *ConversationServiceClient) GetConversation(ctx context.Context, in *GetConversationRequest, opts ...grpc.CallOption) (*ConversationResponse, error) {
	return invoke[ConversationResponse](ctx, c.cc, ConversationServiceName, "GetConversation", in, opts)
}

func (c *ConversationServiceClient) SetArchived(ctx context.Context, in *SetArchivedRequest, opts ...grpc.CallOption) (*ConversationResponse, error) {
	return invoke[ConversationResponse](ctx, c.cc, ConversationServiceName, "SetArchived", in, opts)
}

func (c *ConversationServiceClient) SetPinned(ctx context.Context, in *SetPinnedRequest, opts ...grpc.CallOption) (*ConversationResponse, error) {
	return invoke[ConversationResponse](ctx, c.cc, ConversationServiceName, "SetPinned", in, opts)
}

// MessageServiceServer reads messages.
type MessageServiceServer interface {
	ListMessages(context.Context, *ListMessagesRequest) (*ListMessagesResponse, error)
	SearchMessages(context.Context, *SearchMessagesRequest) (*SearchMessagesResponse, error)
}

var messageServiceDesc = grpc.ServiceDesc{
	ServiceName: MessageServiceName,
	HandlerType: (*MessageServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MessageServiceName, "ListMessages", func(srv any, ctx context.Context, in *ListMessagesRequest) (*ListMessagesResponse, error) {
			return srv.(MessageServiceServer).ListMessages(ctx, in)
		}),
		unary(MessageServiceName, "SearchMessages", func(srv any, ctx context.Context, in *SearchMessagesRequest) (*SearchMessagesResponse, error) {
			return srv.(MessageServiceServer).SearchMessages(ctx, in)
		}),
	},
	Metadata: "sms/v1/message",
}

func RegisterMessageServiceServer(s grpc.ServiceRegistrar, srv MessageServiceServer) {
	s.RegisterService(&messageServiceDesc, srv)
}

type MessageServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewMessageServiceClient(cc grpc.ClientConnInterface) *MessageServiceClient {
	return &MessageServiceClient{cc: cc}
}

func (c *MessageServiceClient) ListMessages(ctx context.Context, in *ListMessagesRequest, opts ...grpc.CallOption) (*ListMessagesResponse, error) {
	return invoke[ListMessagesResponse](ctx, c.cc, MessageServiceName, "ListMessages", in, opts)
}

func (c *MessageServiceClient) SearchMessages(ctx context.Context, in *SearchMessagesRequest, opts ...grpc.CallOption) (*SearchMessagesResponse, error) {
	return invoke[SearchMessagesResponse](ctx, c.cc, MessageServiceName, "SearchMessages", in, opts)
}

// BackupServiceServer imports and exports backups and manages their settings.
type BackupServiceServer interface {
	Import(*ImportRequest, ServerStream[ImportEvent]) error
	Export(context.Context, *ExportRequest) (*ExportResponse, error)
	ListImportRuns(context.Context, *ListImportRunsRequest) (*ListImportRunsResponse, error)
	GetSettings(context.Context, *GetSettingsRequest) (*SettingsResponse, error)
	UpdateSettings(context.Context, *UpdateSettingsRequest) (*SettingsResponse, error)
	WatchEvents(*WatchEventsRequest, ServerStream[EventEnvelope]) error
}

var backupServiceDesc = grpc.ServiceDesc{
	ServiceName: BackupServiceName,
	HandlerType: (*BackupServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(BackupServiceName, "Export", func(srv any, ctx context.Context, in *ExportRequest) (*ExportResponse, error) {
			return srv.(BackupServiceServer).Export(ctx, in)
		}),
		unary(BackupServiceName, "ListImportRuns", func(srv any, ctx context.Context, in *ListImportRunsRequest) (*ListImportRunsResponse, error) {
			return srv.(BackupServiceServer).ListImportRuns(ctx, in)
		}),
		unary(BackupServiceName, "GetSettings", func(srv any, ctx context.Context, in *GetSettingsRequest) (*SettingsResponse, error) {
			return srv.(BackupServiceServer).GetSettings(ctx, in)
		}),
		unary(BackupServiceName, "UpdateSettings", func(srv any, ctx context.Context, in *UpdateSettingsRequest) (*SettingsResponse, error) {
			return srv.(BackupServiceServer).UpdateSettings(ctx, in)
		}),
	},
	Streams: []grpc.StreamDesc{
		serverStreaming("Import", func(srv any, in *ImportRequest, stream ServerStream[ImportEvent]) error {
			return srv.(BackupServiceServer).Import(in, stream)
		}),
		serverStreaming("WatchEvents", func(srv any, in *WatchEventsRequest, stream ServerStream[EventEnvelope]) error {
			return srv.(BackupServiceServer).WatchEvents(in, stream)
		}),
	},
	Metadata: "sms/v1/backup",
}

func RegisterBackupServiceServer(s grpc.ServiceRegistrar, srv BackupServiceServer) {
	s.RegisterService(&backupServiceDesc, srv)
}

type BackupServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewBackupServiceClient(cc grpc.ClientConnInterface) *BackupServiceClient {
	return &BackupServiceClient{cc: cc}
}

func (c *BackupServiceClient) Import(ctx context.Context, in *ImportRequest, opts ...grpc.CallOption) (*ClientStream[ImportEvent], error) {
	return openStream[ImportEvent](ctx, c.cc, &backupServiceDesc.Streams[0], BackupServiceName, in, opts)
}

func (c *BackupServiceClient) Export(ctx context.Context, in *ExportRequest, opts ...grpc.CallOption) (*ExportResponse, error) {
	return invoke[ExportResponse](ctx, c.cc, BackupServiceName, "Export", in, opts)
}

func (c *BackupServiceClient) ListImportRuns(ctx context.Context, in *ListImportRunsRequest, opts ...grpc.CallOption) (*ListImportRunsResponse, error) {
	return invoke[ListImportRunsResponse](ctx, c.cc, BackupServiceName, "ListImportRuns", in, opts)
}

func (c *BackupServiceClient) GetSettings(ctx context.Context, in *GetSettingsRequest, opts ...grpc.CallOption) (*SettingsResponse, error) {
	return invoke[SettingsResponse](ctx, c.cc, BackupServiceName, "GetSettings", in, opts)
}

func (c *BackupServiceClient) UpdateSettings(ctx context.Context, in *UpdateSettingsRequest, opts ...grpc.CallOption) (*SettingsResponse, error) {
	return invoke[SettingsResponse](ctx, c.cc, BackupServiceName, "UpdateSettings", in, opts)
}

func (c *BackupServiceClient) WatchEvents(ctx context.Context, in *WatchEventsRequest, opts ...grpc.CallOption) (*ClientStream[EventEnvelope], error) {
	return openStream[EventEnvelope](ctx, c.cc, &backupServiceDesc.Streams[1], BackupServiceName, in, opts)
}
