package bus

import "time"

// Event kinds. Subscribers filter by namespace prefix ("import.", "message.", ...).
const (
	KindMessageUpserted     = "message.upserted"
	KindConversationRefresh = "conversation.refresh"
	KindConversationChanged = "conversation.changed"
	KindImportStarted       = "import.started"
	KindImportProgress      = "import.progress"
	KindImportRecordFailed  = "import.record_failed"
	KindImportFinished      = "import.finished"
	KindExportFinished      = "export.finished"
	KindStatusChanged       = "session.status_changed"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
