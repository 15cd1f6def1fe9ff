package rpc

import "encoding/json"

// Session.

type GetStatusRequest struct{}

type GetStatusResponse struct {
	Session           string `json:"session"`
	State             string `json:"state"`
	UptimeMs          int64  `json:"uptime_ms"`
	ConversationCount int64  `json:"conversation_count"`
	MessageCount      int64  `json:"message_count"`
}

// Conversations.

type Conversation struct {
	ThreadID   int64  `json:"thread_id"`
	Recipients string `json:"recipients"`
	Title      string `json:"title"`
	Snippet    string `json:"snippet"`
	Date       int64  `json:"date"`
	Read       bool   `json:"read"`
	IsGroup    bool   `json:"is_group"`
	Archived   bool   `json:"archived"`
	Pinned     bool   `json:"pinned"`
}

type ListConversationsRequest struct {
	Archived bool `json:"archived"`
}

type ListArchivedRequest struct{}

type ListConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
}

type GetConversationRequest struct {
	ThreadID int64 `json:"thread_id"`
}

type SetArchivedRequest struct {
	ThreadID int64 `json:"thread_id"`
	Archived bool  `json:"archived"`
}

type SetPinnedRequest struct {
	ThreadID int64 `json:"thread_id"`
	Pinned   bool  `json:"pinned"`
}

type ConversationResponse struct {
	Conversation Conversation `json:"conversation"`
}

// Messages.

type Attachment struct {
	ContentType string `json:"content_type"`
	Name        string `json:"name,omitempty"`
	Size        int    `json:"size"`
}

type Message struct {
	ID          int64        `json:"id"`
	ThreadID    int64        `json:"thread_id"`
	Kind        string       `json:"kind"`
	Address     string       `json:"address"`
	Body        string       `json:"body"`
	Subject     string       `json:"subject,omitempty"`
	Box         int          `json:"box"`
	Date        int64        `json:"date"`
	Read        bool         `json:"read"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

type ListMessagesRequest struct {
	ThreadID   int64 `json:"thread_id"`
	BeforeDate int64 `json:"before_date"`
	BeforeID   int64 `json:"before_id,omitempty"`
	Limit      int   `json:"limit"`
}

type ListMessagesResponse struct {
	Messages []Message `json:"messages"`
	HasMore  bool      `json:"has_more"`
}

type SearchMessagesRequest struct {
	Query    string `json:"query"`
	ThreadID int64  `json:"thread_id"`
	Limit    int    `json:"limit"`
}

type SearchResult struct {
	Message Message `json:"message"`
	Snippet string  `json:"snippet"`
}

type SearchMessagesResponse struct {
	Results []SearchResult `json:"results"`
}

// Backups.

// Import event kinds.
const (
	ImportStarted      = "started"
	ImportProgress     = "progress"
	ImportRecordFailed = "record_failed"
	ImportFinished     = "finished"
)

type ImportRequest struct {
	Path string `json:"path"`
	// Nil toggles fall back to the session settings.
	ImportSMS *bool `json:"import_sms,omitempty"`
	ImportMMS *bool `json:"import_mms,omitempty"`
}

type ImportEvent struct {
	Kind     string `json:"kind"`
	RunID    string `json:"run_id"`
	Total    int64  `json:"total,omitempty"`
	Current  int64  `json:"current,omitempty"`
	Error    string `json:"error,omitempty"`
	Fatal    bool   `json:"fatal,omitempty"`
	Result   string `json:"result,omitempty"`
	Imported int    `json:"imported"`
	Failed   int    `json:"failed"`
}

type ExportRequest struct {
	Path      string `json:"path"`
	ExportSMS *bool  `json:"export_sms,omitempty"`
	ExportMMS *bool  `json:"export_mms,omitempty"`
}

type ExportResponse struct {
	Path          string `json:"path"`
	Conversations int    `json:"conversations"`
	SMS           int    `json:"sms"`
	MMS           int    `json:"mms"`
}

type ImportRun struct {
	ID         string `json:"id"`
	Source     string `json:"source"`
	Result     string `json:"result"`
	Imported   int    `json:"imported"`
	Failed     int    `json:"failed"`
	StartedAt  int64  `json:"started_at"`
	FinishedAt int64  `json:"finished_at"`
}

type ListImportRunsRequest struct {
	Limit int `json:"limit"`
}

type ListImportRunsResponse struct {
	Runs []ImportRun `json:"runs"`
}

type Settings struct {
	ImportSMS bool    `json:"import_sms"`
	ImportMMS bool    `json:"import_mms"`
	ExportSMS bool    `json:"export_sms"`
	ExportMMS bool    `json:"export_mms"`
	Pinned    []int64 `json:"pinned"`
}

type GetSettingsRequest struct{}

type UpdateSettingsRequest struct {
	ImportSMS *bool `json:"import_sms,omitempty"`
	ImportMMS *bool `json:"import_mms,omitempty"`
	ExportSMS *bool `json:"export_sms,omitempty"`
	ExportMMS *bool `json:"export_mms,omitempty"`
}

type SettingsResponse struct {
	Settings Settings `json:"settings"`
}

type WatchEventsRequest struct {
	// Namespace filters by event kind prefix; empty receives everything.
	Namespace string `json:"namespace"`
}

type EventEnvelope struct {
	EventID          string          `json:"event_id"`
	Session          string          `json:"session"`
	Kind             string          `json:"kind"`
	OccurredAtUnixMs int64           `json:"occurred_at_unix_ms"`
	Payload          json.RawMessage `json:"payload,omitempty"`
}

// Bool returns a pointer to b, for optional request fields.
func Bool(b bool) *bool { return &b }
