package main

import (
	"context"
	"fmt"
	"time"

	"github.com/matheus3301/sms/internal/lock"
	"github.com/matheus3301/sms/internal/rpc"
	"github.com/matheus3301/sms/internal/session"
	"github.com/matheus3301/sms/internal/tui/client"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status and store counts",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List known sessions and whether their daemon holds the lock",
	Args:  cobra.NoArgs,
	RunE:  runSessions,
}

func runStatus(cmd *cobra.Command, _ []string) error {
	return withClient(cmd, timeout, func(ctx context.Context, c *client.Client) error {
		resp, err := c.Session.GetStatus(ctx, &rpc.GetStatusRequest{})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOut {
			return outputJSON(out, resp)
		}
		fmt.Fprintf(out, "Session:       %s\n", resp.Session)
		fmt.Fprintf(out, "State:         %s\n", resp.State)
		fmt.Fprintf(out, "Uptime:        %s\n", (time.Duration(resp.UptimeMs) * time.Millisecond).Round(time.Second))
		fmt.Fprintf(out, "Conversations: %d\n", resp.ConversationCount)
		fmt.Fprintf(out, "Messages:      %d\n", resp.MessageCount)
		return nil
	})
}

type sessionInfo struct {
	Name string `json:"name"`
	Path string `json:"path"`
	PID  int    `json:"pid,omitempty"`
}

func runSessions(cmd *cobra.Command, _ []string) error {
	names, err := session.List()
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	infos := make([]sessionInfo, 0, len(names))
	for _, name := range names {
		dir := session.Dir(name)
		infos = append(infos, sessionInfo{Name: name, Path: dir, PID: lock.Holder(dir)})
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return outputJSON(out, infos)
	}
	if len(infos) == 0 {
		fmt.Fprintln(out, "No sessions found.")
		return nil
	}
	for _, s := range infos {
		state := "stopped"
		if s.PID > 0 {
			state = fmt.Sprintf("locked by pid %d", s.PID)
		}
		fmt.Fprintf(out, "%-20s %s (%s)\n", s.Name, s.Path, state)
	}
	return nil
}
