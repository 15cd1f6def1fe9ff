package client

import (
	"fmt"

	"github.com/matheus3301/sms/internal/rpc"
	"google.golang.org/grpc"
)

// Client wraps the gRPC connection to the daemon.
type Client struct {
	conn          *grpc.ClientConn
	Session       *rpc.SessionServiceClient
	Conversations *rpc.ConversationServiceClient
	Messages      *rpc.MessageServiceClient
	Backup        *rpc.BackupServiceClient
}

// New dials the daemon's Unix domain socket and returns typed service clients.
func New(socketPath string) (*Client, error) {
	conn, err := rpc.Dial(socketPath)
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}
	c := FromConn(conn)
	c.conn = conn
	return c, nil
}

// FromConn builds the service clients over an existing connection. Close is
// a no-op for clients created this way.
func FromConn(cc grpc.ClientConnInterface) *Client {
	return &Client{
		Session:       rpc.NewSessionServiceClient(cc),
		Conversations: rpc.NewConversationServiceClient(cc),
		Messages:      rpc.NewMessageServiceClient(cc),
		Backup:        rpc.NewBackupServiceClient(cc),
	}
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
