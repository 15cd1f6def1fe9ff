// Package ingest persists backup records into the message store.
package ingest

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/matheus3301/sms/internal/backup"
	"github.com/matheus3301/sms/internal/bus"
	"github.com/matheus3301/sms/internal/logging"
	"github.com/matheus3301/sms/internal/store"
	"go.uber.org/zap"
)

// contentNamespace scopes the name-based UUIDs used as dedupe keys.
var contentNamespace = uuid.MustParse("0b6f3a52-4a3c-4f61-9e59-3c2d8f6a1c07")

const snippetLen = 100

// UpsertedPayload is published with bus.KindMessageUpserted.
type UpsertedPayload struct {
	ThreadID  int64
	MessageID int64
	Kind      string
}

// Writer stores SMS and MMS backup records. Writing a record that is
// already present is a no-op and not an error.
type Writer struct {
	db     *store.DB
	bus    *bus.Bus
	logger *zap.Logger
}

// NewWriter creates a writer over db.
func NewWriter(db *store.DB, b *bus.Bus, logger *zap.Logger) *Writer {
	return &Writer{db: db, bus: b, logger: logging.OrNop(logger)}
}

// WriteSms stores one text message in the thread of its address.
func (w *Writer) WriteSms(s *backup.SmsBackup) error {
	if err := s.Validate(); err != nil {
		return err
	}
	m := &store.Message{
		Kind:           store.KindSMS,
		Address:        s.Address,
		Body:           s.Body,
		Box:            s.Type,
		Date:           s.Date,
		DateSent:       s.DateSent,
		Read:           s.Read != 0,
		Seen:           s.Read != 0,
		Locked:         s.Locked != 0,
		Status:         s.Status,
		SubscriptionID: s.SubscriptionID,
		Protocol:       s.Protocol,
		ServiceCenter:  s.ServiceCenter,
	}
	m.ContentKey = ContentKey(store.KindSMS,
		store.NormalizeAddress(s.Address),
		strconv.FormatInt(s.Date, 10),
		strconv.Itoa(s.Type),
		s.Body)

	return w.insert([]string{s.Address}, m, truncate(s.Body, snippetLen))
}

// WriteMms stores one multimedia message with its parts and addresses.
func (w *Writer) WriteMms(mb *backup.MmsBackup) error {
	if err := mb.Validate(); err != nil {
		return err
	}
	recipients := mb.Recipients()
	status := -1
	if mb.Status != nil {
		status = *mb.Status
	}
	m := &store.Message{
		Kind:           store.KindMMS,
		Address:        mb.Sender(),
		Body:           mb.Text(),
		Subject:        mb.Subject,
		SubjectCharset: mb.SubjectCharset,
		Box:            mb.MessageBox,
		Date:           MMSMillis(mb.Date),
		DateSent:       MMSMillis(mb.DateSent),
		Read:           mb.Read != 0,
		Seen:           mb.Seen != 0,
		Locked:         mb.Locked != 0,
		Status:         status,
		SubscriptionID: mb.SubscriptionID,
		Creator:        mb.Creator,
		ContentType:    mb.ContentType,
		DeliveryReport: mb.DeliveryReport,
		ReadReport:     mb.ReadReport,
		MessageType:    mb.MessageType,
		TextOnly:       mb.TextOnly != 0,
		TransactionID:  mb.TransactionID,
		MessageID:      mb.MessageID,
	}

	for _, p := range mb.Parts {
		part := store.Part{
			Seq:                p.Seq,
			ContentType:        p.ContentType,
			Name:               p.Name,
			Filename:           p.Filename,
			Charset:            p.Charset,
			ContentDisposition: p.ContentDisposition,
			ContentID:          p.ContentID,
			ContentLocation:    p.ContentLocation,
			CTStart:            p.CTStart,
			CTType:             p.CTType,
			Text:               p.Text,
		}
		if p.Data != "" {
			data, err := base64.StdEncoding.DecodeString(p.Data)
			if err != nil {
				return fmt.Errorf("decode part %d data: %w", p.Seq, err)
			}
			part.Data = data
		}
		m.Parts = append(m.Parts, part)
	}
	for _, a := range mb.Addresses {
		m.Addresses = append(m.Addresses, store.Address{Address: a.Address, Type: a.Type, Charset: a.Charset})
	}

	m.ContentKey = ContentKey(store.KindMMS,
		store.RecipientsKey(recipients),
		strconv.FormatInt(m.Date, 10),
		strconv.Itoa(mb.MessageBox),
		mb.MessageID,
		mb.TransactionID,
		m.Body)

	snippet := m.Body
	if snippet == "" {
		snippet = mb.Subject
	}
	if snippet == "" {
		snippet = "MMS"
	}
	return w.insert(recipients, m, truncate(snippet, snippetLen))
}

// insert stores m in the thread of recipients. Records are fully built
// before this point so a rejected one never creates a thread.
func (w *Writer) insert(recipients []string, m *store.Message, snippet string) error {
	inserted, err := w.db.InsertThreadMessage(recipients, m, snippet)
	if err != nil {
		return fmt.Errorf("insert %s for %v: %w", m.Kind, recipients, err)
	}
	if !inserted {
		w.logger.Debug("skipping duplicate message", zap.String("kind", m.Kind), zap.Int64("thread_id", m.ThreadID))
		return nil
	}
	w.bus.Emit(bus.KindMessageUpserted, UpsertedPayload{ThreadID: m.ThreadID, MessageID: m.ID, Kind: m.Kind})
	return nil
}

// ContentKey derives a stable dedupe key from a message's identifying fields.
func ContentKey(kind string, fields ...string) string {
	data := kind + "\x1f" + strings.Join(fields, "\x1f")
	return uuid.NewSHA1(contentNamespace, []byte(data)).String()
}

// MMSMillis converts an MMS date to unix milliseconds. Backups store MMS
// dates in seconds; values already in milliseconds pass through.
func MMSMillis(date int64) int64 {
	if date > 0 && date < 100_000_000_000 {
		return date * 1000
	}
	return date
}

func truncate(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	r := []rune(s)
	return string(r[:maxRunes])
}
