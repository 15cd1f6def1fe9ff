package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/matheus3301/sms/internal/session"
	"github.com/matheus3301/sms/internal/tui/client"
	"github.com/spf13/cobra"
)

var (
	sessionFlag string
	jsonOut     bool
	timeout     time.Duration
)

// connect dials the daemon of a session. Tests replace it.
var connect = func(sessionName string) (*client.Client, error) {
	return client.New(session.SocketPath(sessionName))
}

var rootCmd = &cobra.Command{
	Use:   "smsctl",
	Short: "Control an sms daemon session",
	Long: `smsctl talks to the smsd daemon of a session over its Unix socket.

It imports and exports SMS/MMS backups, manages archived and pinned
conversations, and lists what the store holds.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sessionFlag, "session", "", "session name (overrides config default)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "timeout for unary calls")

	rootCmd.AddCommand(statusCmd, sessionsCmd)
	rootCmd.AddCommand(importCmd, exportCmd, importsCmd, settingsCmd)
	rootCmd.AddCommand(conversationsCmd, archiveCmd, pinCmd, unpinCmd, messagesCmd, searchCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// sessionName resolves and validates the session the command targets.
func sessionName() (string, error) {
	name := session.Resolve(sessionFlag)
	if err := session.ValidateName(name); err != nil {
		return "", err
	}
	return name, nil
}

// withClient connects to the session's daemon and runs fn. A zero limit
// leaves the call bound only by the command's context.
func withClient(cmd *cobra.Command, limit time.Duration, fn func(ctx context.Context, c *client.Client) error) error {
	name, err := sessionName()
	if err != nil {
		return err
	}
	c, err := connect(name)
	if err != nil {
		return fmt.Errorf("cannot connect to daemon for session %q: %w", name, err)
	}
	defer func() { _ = c.Close() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if limit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limit)
		defer cancel()
	}
	return fn(ctx, c)
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseThreadID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid thread id %q", arg)
	}
	return id, nil
}

// optionalBool returns a pointer to the flag value when it was set.
func optionalBool(cmd *cobra.Command, name string) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetBool(name)
	return &v
}

func formatDate(ms int64) string {
	if ms <= 0 {
		return "-"
	}
	return time.UnixMilli(ms).Format("2006-01-02 15:04")
}
