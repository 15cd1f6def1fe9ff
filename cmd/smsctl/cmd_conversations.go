package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/matheus3301/sms/internal/rpc"
	"github.com/matheus3301/sms/internal/tui/client"
	"github.com/spf13/cobra"
)

var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"convs"},
	Short:   "List conversations, pinned first",
	Args:    cobra.NoArgs,
	RunE:    runConversations,
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "List archived conversations",
	Args:  cobra.NoArgs,
	RunE:  runArchiveList,
}

var archiveAddCmd = &cobra.Command{
	Use:   "add <thread-id>",
	Short: "Archive a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setArchived(cmd, args[0], true) },
}

var archiveRemoveCmd = &cobra.Command{
	Use:   "remove <thread-id>",
	Short: "Move a conversation out of the archive",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setArchived(cmd, args[0], false) },
}

var pinCmd = &cobra.Command{
	Use:   "pin <thread-id>",
	Short: "Pin a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setPinned(cmd, args[0], true) },
}

var unpinCmd = &cobra.Command{
	Use:   "unpin <thread-id>",
	Short: "Unpin a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setPinned(cmd, args[0], false) },
}

var messagesCmd = &cobra.Command{
	Use:   "messages <thread-id>",
	Short: "Show the newest messages of a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runMessages,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over message bodies",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	archiveCmd.AddCommand(archiveAddCmd, archiveRemoveCmd)
	conversationsCmd.Flags().Bool("archived", false, "list archived conversations instead")
	messagesCmd.Flags().Int("limit", 50, "maximum messages to show")
	messagesCmd.Flags().Int64("before", 0, "only messages before this unix ms date")
	messagesCmd.Flags().Int64("before-id", 0, "with --before, continue after this message id")
	searchCmd.Flags().Int64("thread", 0, "restrict to one conversation")
	searchCmd.Flags().Int("limit", 20, "maximum results")
}

func runConversations(cmd *cobra.Command, _ []string) error {
	archived, _ := cmd.Flags().GetBool("archived")
	return withClient(cmd, timeout, func(ctx context.Context, c *client.Client) error {
		resp, err := c.Conversations.ListConversations(ctx, &rpc.ListConversationsRequest{Archived: archived})
		if err != nil {
			return err
		}
		return printConversations(cmd.OutOrStdout(), resp.Conversations, "No conversations.")
	})
}

func runArchiveList(cmd *cobra.Command, _ []string) error {
	return withClient(cmd, timeout, func(ctx context.Context, c *client.Client) error {
		resp, err := c.Conversations.ListArchived(ctx, &rpc.ListArchivedRequest{})
		if err != nil {
			return err
		}
		return printConversations(cmd.OutOrStdout(), resp.Conversations, "No archived conversations have been found")
	})
}

func printConversations(out io.Writer, convs []rpc.Conversation, empty string) error {
	if jsonOut {
		return outputJSON(out, convs)
	}
	if len(convs) == 0 {
		fmt.Fprintln(out, empty)
		return nil
	}
	for _, c := range convs {
		fmt.Fprintln(out, conversationLine(c))
	}
	return nil
}

func conversationLine(c rpc.Conversation) string {
	flags := []byte("  ")
	if c.Pinned {
		flags[0] = '*'
	}
	if !c.Read {
		flags[1] = 'u'
	}
	title := c.Title
	if title == "" {
		title = c.Recipients
	}
	return fmt.Sprintf("%6d %s %-16s %-24s %s", c.ThreadID, flags, formatDate(c.Date), shorten(title, 24), oneLine(c.Snippet))
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func setArchived(cmd *cobra.Command, arg string, archived bool) error {
	id, err := parseThreadID(arg)
	if err != nil {
		return err
	}
	return withClient(cmd, timeout, func(ctx context.Context, c *client.Client) error {
		resp, err := c.Conversations.SetArchived(ctx, &rpc.SetArchivedRequest{ThreadID: id, Archived: archived})
		if err != nil {
			return err
		}
		return printConversations(cmd.OutOrStdout(), []rpc.Conversation{resp.Conversation}, "")
	})
}

func setPinned(cmd *cobra.Command, arg string, pinned bool) error {
	id, err := parseThreadID(arg)
	if err != nil {
		return err
	}
	return withClient(cmd, timeout, func(ctx context.Context, c *client.Client) error {
		resp, err := c.Conversations.SetPinned(ctx, &rpc.SetPinnedRequest{ThreadID: id, Pinned: pinned})
		if err != nil {
			return err
		}
		return printConversations(cmd.OutOrStdout(), []rpc.Conversation{resp.Conversation}, "")
	})
}

func runMessages(cmd *cobra.Command, args []string) error {
	id, err := parseThreadID(args[0])
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	before, _ := cmd.Flags().GetInt64("before")
	beforeID, _ := cmd.Flags().GetInt64("before-id")
	return withClient(cmd, timeout, func(ctx context.Context, c *client.Client) error {
		resp, err := c.Messages.ListMessages(ctx, &rpc.ListMessagesRequest{
			ThreadID:   id,
			BeforeDate: before,
			BeforeID:   beforeID,
			Limit:      limit,
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOut {
			return outputJSON(out, resp)
		}
		for i := len(resp.Messages) - 1; i >= 0; i-- {
			fmt.Fprintln(out, messageLine(resp.Messages[i]))
		}
		if resp.HasMore && len(resp.Messages) > 0 {
			last := resp.Messages[len(resp.Messages)-1]
			fmt.Fprintf(out, "(older messages: --before %d --before-id %d)\n", last.Date, last.ID)
		}
		return nil
	})
}

func messageLine(m rpc.Message) string {
	from := "me"
	if m.Box == 1 {
		from = m.Address
	}
	body := oneLine(m.Body)
	if m.Subject != "" {
		body = "[" + m.Subject + "] " + body
	}
	if n := len(m.Attachments); n > 0 {
		body += fmt.Sprintf(" (+%d attachments)", n)
	}
	return fmt.Sprintf("%s %s %-16s %s", formatDate(m.Date), strings.ToUpper(m.Kind), from, body)
}

func runSearch(cmd *cobra.Command, args []string) error {
	thread, _ := cmd.Flags().GetInt64("thread")
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")
	return withClient(cmd, timeout, func(ctx context.Context, c *client.Client) error {
		resp, err := c.Messages.SearchMessages(ctx, &rpc.SearchMessagesRequest{Query: query, ThreadID: thread, Limit: limit})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOut {
			return outputJSON(out, resp.Results)
		}
		if len(resp.Results) == 0 {
			fmt.Fprintln(out, "No matches.")
			return nil
		}
		for _, r := range resp.Results {
			fmt.Fprintf(out, "%6d %s %s\n", r.Message.ThreadID, formatDate(r.Message.Date), oneLine(r.Snippet))
		}
		return nil
	})
}
