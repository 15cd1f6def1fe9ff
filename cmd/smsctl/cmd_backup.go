package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/matheus3301/sms/internal/backup"
	"github.com/matheus3301/sms/internal/importer"
	"github.com/matheus3301/sms/internal/rpc"
	"github.com/matheus3301/sms/internal/tui/client"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file|asset>",
	Short: "Import an SMS/MMS JSON backup",
	Long: `Streams a backup file into the session's store.

A path is sent to the daemon as an absolute path; a bare name that is not a
file in the working directory selects a backup bundled with the daemon
(e.g. demo_backup.json). --sms and --mms override the session settings.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export all conversations to a JSON backup",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var importsCmd = &cobra.Command{
	Use:   "imports",
	Short: "List recent import runs",
	Args:  cobra.NoArgs,
	RunE:  runImports,
}

func init() {
	importCmd.Flags().Bool("sms", true, "import SMS records")
	importCmd.Flags().Bool("mms", true, "import MMS records")
	exportCmd.Flags().Bool("sms", true, "export SMS records")
	exportCmd.Flags().Bool("mms", true, "export MMS records")
	importsCmd.Flags().Int("limit", 20, "maximum runs to list")
}

// errImportFailed makes the process exit non-zero when nothing could be
// imported.
var errImportFailed = errors.New("import failed")

func runImport(cmd *cobra.Command, args []string) error {
	source, err := backup.ResolveSource(args[0])
	if err != nil {
		return err
	}
	req := &rpc.ImportRequest{
		Path:      source,
		ImportSMS: optionalBool(cmd, "sms"),
		ImportMMS: optionalBool(cmd, "mms"),
	}

	return withClient(cmd, 0, func(ctx context.Context, c *client.Client) error {
		stream, err := c.Backup.Import(ctx, req)
		if err != nil {
			return err
		}
		out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

		var final *rpc.ImportEvent
		lastPct := -1
		for {
			evt, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return err
			}
			if jsonOut {
				if err := outputJSON(out, evt); err != nil {
					return err
				}
			}
			switch evt.Kind {
			case rpc.ImportProgress:
				if !jsonOut && evt.Total > 0 {
					if pct := int(evt.Current * 100 / evt.Total); pct != lastPct {
						lastPct = pct
						fmt.Fprintf(errOut, "\rimporting %3d%%", pct)
					}
				}
			case rpc.ImportRecordFailed:
				if !jsonOut {
					if lastPct >= 0 {
						fmt.Fprintln(errOut)
						lastPct = -1
					}
					fmt.Fprintf(errOut, "%s\n", describeFailure(evt))
				}
			case rpc.ImportFinished:
				final = evt
			}
		}
		if !jsonOut && lastPct >= 0 {
			fmt.Fprintln(errOut)
		}
		if final == nil {
			return errors.New("import stream ended without a result")
		}
		if !jsonOut {
			fmt.Fprintf(out, "%s: imported %d, failed %d\n", final.Result, final.Imported, final.Failed)
		}
		if importer.Result(final.Result) == importer.ResultFail {
			return errImportFailed
		}
		return nil
	})
}

func describeFailure(evt *rpc.ImportEvent) string {
	if evt.Fatal {
		return "aborted: " + evt.Error
	}
	return "skipped record: " + evt.Error
}

func runExport(cmd *cobra.Command, args []string) error {
	path, err := backup.ResolveTarget(args[0])
	if err != nil {
		return err
	}
	req := &rpc.ExportRequest{
		Path:      path,
		ExportSMS: optionalBool(cmd, "sms"),
		ExportMMS: optionalBool(cmd, "mms"),
	}
	return withClient(cmd, 0, func(ctx context.Context, c *client.Client) error {
		resp, err := c.Backup.Export(ctx, req)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOut {
			return outputJSON(out, resp)
		}
		fmt.Fprintf(out, "Exported %d conversations (%d sms, %d mms) to %s\n", resp.Conversations, resp.SMS, resp.MMS, resp.Path)
		return nil
	})
}

func runImports(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	return withClient(cmd, timeout, func(ctx context.Context, c *client.Client) error {
		resp, err := c.Backup.ListImportRuns(ctx, &rpc.ListImportRunsRequest{Limit: limit})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOut {
			return outputJSON(out, resp.Runs)
		}
		if len(resp.Runs) == 0 {
			fmt.Fprintln(out, "No imports yet.")
			return nil
		}
		for _, r := range resp.Runs {
			result := r.Result
			if result == "" {
				result = "RUNNING"
			}
			fmt.Fprintf(out, "%s  %-11s %5d ok %5d failed  %s\n",
				formatDate(r.StartedAt), result, r.Imported, r.Failed, shorten(r.Source, 60))
		}
		return nil
	})
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "…" + s[len(s)-n+1:]
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show the session's import/export settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key=value>...",
	Short: "Change import_sms, import_mms, export_sms or export_mms",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsSetCmd)
}

func runSettingsGet(cmd *cobra.Command, _ []string) error {
	return withClient(cmd, timeout, func(ctx context.Context, c *client.Client) error {
		resp, err := c.Backup.GetSettings(ctx, &rpc.GetSettingsRequest{})
		if err != nil {
			return err
		}
		return printSettings(cmd.OutOrStdout(), resp.Settings)
	})
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	req, err := parseSettings(args)
	if err != nil {
		return err
	}
	return withClient(cmd, timeout, func(ctx context.Context, c *client.Client) error {
		resp, err := c.Backup.UpdateSettings(ctx, req)
		if err != nil {
			return err
		}
		return printSettings(cmd.OutOrStdout(), resp.Settings)
	})
}

// parseSettings turns key=value pairs into an update request.
func parseSettings(args []string) (*rpc.UpdateSettingsRequest, error) {
	req := &rpc.UpdateSettingsRequest{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		var b bool
		switch strings.ToLower(value) {
		case "true", "on", "yes", "1":
			b = true
		case "false", "off", "no", "0":
		default:
			return nil, fmt.Errorf("invalid value %q for %s", value, key)
		}
		switch key {
		case "import_sms":
			req.ImportSMS = rpc.Bool(b)
		case "import_mms":
			req.ImportMMS = rpc.Bool(b)
		case "export_sms":
			req.ExportSMS = rpc.Bool(b)
		case "export_mms":
			req.ExportMMS = rpc.Bool(b)
		default:
			return nil, fmt.Errorf("unknown setting %q", key)
		}
	}
	return req, nil
}

func printSettings(out io.Writer, s rpc.Settings) error {
	if jsonOut {
		return outputJSON(out, s)
	}
	fmt.Fprintf(out, "import_sms = %v\n", s.ImportSMS)
	fmt.Fprintf(out, "import_mms = %v\n", s.ImportMMS)
	fmt.Fprintf(out, "export_sms = %v\n", s.ExportSMS)
	fmt.Fprintf(out, "export_mms = %v\n", s.ExportMMS)
	fmt.Fprintf(out, "pinned     = %v\n", s.Pinned)
	return nil
}
