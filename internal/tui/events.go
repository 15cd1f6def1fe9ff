package tui

import (
	"encoding/json"
	"fmt"

	"github.com/matheus3301/sms/internal/bus"
	"github.com/matheus3301/sms/internal/importer"
	"github.com/matheus3301/sms/internal/rpc"
	"github.com/matheus3301/sms/internal/tui/ui"
)

// eventPayload is the union of the daemon event payloads the UI reads.
// Field matching is case-insensitive, so it decodes both tagged and
// untagged payload structs.
type eventPayload struct {
	RunID         string
	Source        string
	Section       string
	Error         string
	Fatal         bool
	Result        string
	Imported      int
	Failed        int
	Total         int64
	Current       int64
	Path          string
	Conversations int
	To            string
}

func decodePayload(evt rpc.EventEnvelope) eventPayload {
	var p eventPayload
	if len(evt.Payload) > 0 {
		_ = json.Unmarshal(evt.Payload, &p)
	}
	return p
}

// toast is a notification derived from a daemon event.
type toast struct {
	Text  string
	Level ui.FlashLevel
}

// importSummary words the outcome of a finished import.
func importSummary(result string, imported, failed int) toast {
	switch importer.Result(result) {
	case importer.ResultNothingNew:
		return toast{"Nothing new to import", ui.FlashInfo}
	case importer.ResultOK:
		return toast{fmt.Sprintf("Imported %d messages", imported), ui.FlashInfo}
	case importer.ResultPartial:
		return toast{fmt.Sprintf("Imported %d messages, %d failed", imported, failed), ui.FlashWarn}
	default:
		return toast{fmt.Sprintf("Import failed (%d errors)", failed), ui.FlashErr}
	}
}

// toastFor returns the notification for evt, if it warrants one.
func toastFor(evt rpc.EventEnvelope, p eventPayload) (toast, bool) {
	switch evt.Kind {
	case bus.KindImportStarted:
		return toast{fmt.Sprintf("Importing %s", p.Source), ui.FlashInfo}, true
	case bus.KindImportRecordFailed:
		if p.Fatal {
			return toast{"Import aborted: " + p.Error, ui.FlashErr}, true
		}
		what := "record"
		if p.Section != "" {
			what = p.Section + " record"
		}
		return toast{fmt.Sprintf("Skipped %s: %s", what, p.Error), ui.FlashWarn}, true
	case bus.KindImportFinished:
		return importSummary(p.Result, p.Imported, p.Failed), true
	case bus.KindExportFinished:
		if p.Error != "" {
			return toast{"Export failed: " + p.Error, ui.FlashErr}, true
		}
		return toast{fmt.Sprintf("Exported %d conversations to %s", p.Conversations, p.Path), ui.FlashInfo}, true
	}
	return toast{}, false
}

// refreshes reports whether evt makes the conversation list stale.
func refreshes(kind string) bool {
	switch kind {
	case bus.KindConversationRefresh, bus.KindConversationChanged, bus.KindImportFinished:
		return true
	}
	return false
}
