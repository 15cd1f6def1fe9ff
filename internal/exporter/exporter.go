// Package exporter writes the message store as a backup the importer reads.
package exporter

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/matheus3301/sms/internal/backup"
	"github.com/matheus3301/sms/internal/logging"
	"github.com/matheus3301/sms/internal/store"
	"go.uber.org/zap"
)

// Options selects which record kinds are exported.
type Options struct {
	ExportSMS bool
	ExportMMS bool
}

// Report counts what an export wrote.
type Report struct {
	Conversations int
	SMS           int
	MMS           int
}

// ProgressFunc receives the number of conversations and how many are done.
type ProgressFunc func(total, current int)

// Exporter reads conversations from the store.
type Exporter struct {
	db     *store.DB
	logger *zap.Logger
}

// New creates an exporter over db.
func New(db *store.DB, logger *zap.Logger) *Exporter {
	return &Exporter{db: db, logger: logging.OrNop(logger)}
}

// Export writes one object per conversation, archived ones included, each
// carrying the enabled "sms" and "mms" arrays.
func (e *Exporter) Export(ctx context.Context, w io.Writer, opts Options, onProgress ProgressFunc) (Report, error) {
	var rep Report

	active, err := e.db.ListConversations(false)
	if err != nil {
		return rep, fmt.Errorf("list conversations: %w", err)
	}
	archived, err := e.db.ListArchived()
	if err != nil {
		return rep, fmt.Errorf("list archived: %w", err)
	}
	convs := append(active, archived...)

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("["); err != nil {
		return rep, err
	}
	for i, c := range convs {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if i > 0 {
			if _, err := bw.WriteString(","); err != nil {
				return rep, err
			}
		}
		if err := e.writeConversation(bw, c.ThreadID, opts, &rep); err != nil {
			return rep, fmt.Errorf("export thread %d: %w", c.ThreadID, err)
		}
		rep.Conversations++
		if onProgress != nil {
			onProgress(len(convs), i+1)
		}
	}
	if _, err := bw.WriteString("]\n"); err != nil {
		return rep, err
	}
	if err := bw.Flush(); err != nil {
		return rep, err
	}

	e.logger.Info("export finished",
		zap.Int("conversations", rep.Conversations),
		zap.Int("sms", rep.SMS),
		zap.Int("mms", rep.MMS))
	return rep, nil
}

func (e *Exporter) writeConversation(bw *bufio.Writer, threadID int64, opts Options, rep *Report) error {
	if _, err := bw.WriteString("{"); err != nil {
		return err
	}
	sep := ""
	if opts.ExportSMS {
		n, err := e.writeSection(bw, threadID, store.KindSMS, func(m *store.Message) any { return toSms(m) })
		if err != nil {
			return err
		}
		rep.SMS += n
		sep = ","
	}
	if opts.ExportMMS {
		if _, err := bw.WriteString(sep); err != nil {
			return err
		}
		n, err := e.writeSection(bw, threadID, store.KindMMS, func(m *store.Message) any { return toMms(m) })
		if err != nil {
			return err
		}
		rep.MMS += n
	}
	_, err := bw.WriteString("}")
	return err
}

func (e *Exporter) writeSection(bw *bufio.Writer, threadID int64, kind string, convert func(*store.Message) any) (int, error) {
	if _, err := fmt.Fprintf(bw, "%q:[", kind); err != nil {
		return 0, err
	}
	n := 0
	err := e.db.ForEachMessage(threadID, kind, func(m *store.Message) error {
		data, err := json.Marshal(convert(m))
		if err != nil {
			return err
		}
		if n > 0 {
			if err := bw.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := bw.Write(data); err != nil {
			return err
		}
		n++
		return nil
	})
	if err != nil {
		return n, err
	}
	return n, bw.WriteByte(']')
}

func toSms(m *store.Message) backup.SmsBackup {
	return backup.SmsBackup{
		SubscriptionID: m.SubscriptionID,
		Address:        m.Address,
		Body:           m.Body,
		Date:           m.Date,
		DateSent:       m.DateSent,
		Locked:         flag(m.Locked),
		Protocol:       m.Protocol,
		Read:           flag(m.Read),
		Status:         m.Status,
		Type:           m.Box,
		ServiceCenter:  m.ServiceCenter,
	}
}

func toMms(m *store.Message) backup.MmsBackup {
	out := backup.MmsBackup{
		Creator:        m.Creator,
		ContentType:    m.ContentType,
		DeliveryReport: m.DeliveryReport,
		Date:           m.Date / 1000,
		DateSent:       m.DateSent / 1000,
		Locked:         flag(m.Locked),
		MessageType:    m.MessageType,
		MessageBox:     m.Box,
		Read:           flag(m.Read),
		ReadReport:     m.ReadReport,
		Seen:           flag(m.Seen),
		TextOnly:       flag(m.TextOnly),
		Subject:        m.Subject,
		SubjectCharset: m.SubjectCharset,
		SubscriptionID: m.SubscriptionID,
		TransactionID:  m.TransactionID,
		MessageID:      m.MessageID,
		Parts:          []backup.MmsPart{},
		Addresses:      []backup.MmsAddress{},
	}
	if m.Status != -1 {
		st := m.Status
		out.Status = &st
	}
	for _, p := range m.Parts {
		part := backup.MmsPart{
			ContentDisposition: p.ContentDisposition,
			Charset:            p.Charset,
			ContentID:          p.ContentID,
			ContentLocation:    p.ContentLocation,
			ContentType:        p.ContentType,
			CTStart:            p.CTStart,
			CTType:             p.CTType,
			Filename:           p.Filename,
			Name:               p.Name,
			Seq:                p.Seq,
			Text:               p.Text,
		}
		if len(p.Data) > 0 {
			part.Data = base64.StdEncoding.EncodeToString(p.Data)
		}
		out.Parts = append(out.Parts, part)
	}
	for _, a := range m.Addresses {
		out.Addresses = append(out.Addresses, backup.MmsAddress{Address: a.Address, Type: a.Type, Charset: a.Charset})
	}
	return out
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}
