package store

import (
	"fmt"
	"time"
)

const messageColumns = `id, thread_id, kind, content_key, address, body, subject, subject_charset, box,
	date, date_sent, read, seen, locked, status, subscription_id, protocol, service_center,
	creator, content_type, delivery_report, read_report, message_type, text_only, transaction_id, message_id`

// InsertMessage stores m with its parts and addresses and bumps the
// conversation's date, snippet and read flag. A message whose ContentKey
// already exists is left untouched and reported with inserted=false.
func (db *DB) InsertMessage(m *Message, snippet string) (inserted bool, err error) {
	return db.insertMessage(nil, m, snippet)
}

// InsertThreadMessage is InsertMessage into the thread of recipients. The
// thread is resolved in the same transaction, so a failed insert does not
// leave an empty conversation behind.
func (db *DB) InsertThreadMessage(recipients []string, m *Message, snippet string) (inserted bool, err error) {
	if len(recipients) == 0 {
		return false, fmt.Errorf("insert message: no recipients")
	}
	return db.insertMessage(recipients, m, snippet)
}

func (db *DB) insertMessage(recipients []string, m *Message, snippet string) (inserted bool, err error) {
	tx, err := db.Begin()
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if recipients != nil {
		if m.ThreadID, err = getOrCreateThread(tx, recipients); err != nil {
			return false, err
		}
	}

	now := time.Now().UnixMilli()
	res, err := tx.Exec(`
		INSERT INTO messages (thread_id, kind, content_key, address, body, subject, subject_charset, box,
			date, date_sent, read, seen, locked, status, subscription_id, protocol, service_center,
			creator, content_type, delivery_report, read_report, message_type, text_only, transaction_id, message_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(content_key) DO NOTHING`,
		m.ThreadID, m.Kind, m.ContentKey, m.Address, m.Body, m.Subject, m.SubjectCharset, m.Box,
		m.Date, m.DateSent, m.Read, m.Seen, m.Locked, m.Status, m.SubscriptionID, m.Protocol, m.ServiceCenter,
		m.Creator, m.ContentType, m.DeliveryReport, m.ReadReport, m.MessageType, m.TextOnly, m.TransactionID, m.MessageID, now)
	if err != nil {
		return false, fmt.Errorf("insert message: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	if m.ID, err = res.LastInsertId(); err != nil {
		return false, err
	}

	for _, p := range m.Parts {
		if _, err := tx.Exec(`
			INSERT INTO message_parts (message_id, seq, content_type, name, filename, charset,
				content_disposition, content_id, content_location, ct_start, ct_type, text, data)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, p.Seq, p.ContentType, p.Name, p.Filename, p.Charset,
			p.ContentDisposition, p.ContentID, p.ContentLocation, p.CTStart, p.CTType, p.Text, p.Data); err != nil {
			return false, fmt.Errorf("insert part %d: %w", p.Seq, err)
		}
	}
	for _, a := range m.Addresses {
		if _, err := tx.Exec(`INSERT INTO message_addresses (message_id, address, type, charset) VALUES (?, ?, ?, ?)`,
			m.ID, a.Address, a.Type, a.Charset); err != nil {
			return false, fmt.Errorf("insert address %q: %w", a.Address, err)
		}
	}

	// Only a newer message moves the conversation's snippet and read state.
	if _, err := tx.Exec(`
		UPDATE conversations SET
			snippet = CASE WHEN ? >= date THEN ? ELSE snippet END,
			read = CASE WHEN ? >= date THEN ? ELSE read END,
			date = MAX(date, ?),
			updated_at = ?
		WHERE thread_id = ?`,
		m.Date, snippet, m.Date, m.Read, m.Date, now, m.ThreadID); err != nil {
		return false, fmt.Errorf("bump conversation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

// ListMessages returns a thread's messages newest first, keyset-paginated
// by (date, id). beforeDate <= 0 starts from the newest message. With
// beforeID <= 0 the page holds messages strictly older than beforeDate;
// otherwise it continues after the row (beforeDate, beforeID).
func (db *DB) ListMessages(threadID, beforeDate, beforeID int64, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if beforeDate <= 0 {
		beforeDate, beforeID = 1<<63-1, 0
	}
	rows, err := db.Query(`
		SELECT `+messageColumns+`
		FROM messages
		WHERE thread_id = ? AND (date < ? OR (date = ? AND id < ?))
		ORDER BY date DESC, id DESC
		LIMIT ?`, threadID, beforeDate, beforeDate, beforeID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *m)
	}
	return msgs, rows.Err()
}

// ForEachMessage calls fn for every message of threadID of the given kind,
// oldest first, with parts and addresses loaded. Iteration stops at the
// first error returned by fn.
func (db *DB) ForEachMessage(threadID int64, kind string, fn func(*Message) error) error {
	rows, err := db.Query(`
		SELECT `+messageColumns+`
		FROM messages
		WHERE thread_id = ? AND kind = ?
		ORDER BY date ASC, id ASC`, threadID, kind)
	if err != nil {
		return err
	}
	var msgs []*Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			_ = rows.Close()
			return err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("iterate messages: %w", err)
	}
	if err := rows.Close(); err != nil {
		return err
	}

	for _, m := range msgs {
		if m.Kind == KindMMS {
			if err := db.LoadAttachments(m); err != nil {
				return err
			}
		}
		if err := fn(m); err != nil {
			return err
		}
	}
	return nil
}

// LoadAttachments fills m.Parts and m.Addresses from the store.
func (db *DB) LoadAttachments(m *Message) error {
	rows, err := db.Query(`
		SELECT seq, content_type, name, filename, charset, content_disposition, content_id,
			content_location, ct_start, ct_type, text, data
		FROM message_parts WHERE message_id = ? ORDER BY seq, id`, m.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var p Part
		if err := rows.Scan(&p.Seq, &p.ContentType, &p.Name, &p.Filename, &p.Charset, &p.ContentDisposition,
			&p.ContentID, &p.ContentLocation, &p.CTStart, &p.CTType, &p.Text, &p.Data); err != nil {
			_ = rows.Close()
			return err
		}
		m.Parts = append(m.Parts, p)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("iterate parts: %w", err)
	}
	if err := rows.Close(); err != nil {
		return err
	}

	rows, err = db.Query(`SELECT address, type, charset FROM message_addresses WHERE message_id = ? ORDER BY rowid`, m.ID)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var a Address
		if err := rows.Scan(&a.Address, &a.Type, &a.Charset); err != nil {
			return err
		}
		m.Addresses = append(m.Addresses, a)
	}
	return rows.Err()
}

// MessageCount returns the total number of messages.
func (db *DB) MessageCount() (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}

func scanMessage(r rowScanner) (*Message, error) {
	var m Message
	err := r.Scan(&m.ID, &m.ThreadID, &m.Kind, &m.ContentKey, &m.Address, &m.Body, &m.Subject, &m.SubjectCharset, &m.Box,
		&m.Date, &m.DateSent, &m.Read, &m.Seen, &m.Locked, &m.Status, &m.SubscriptionID, &m.Protocol, &m.ServiceCenter,
		&m.Creator, &m.ContentType, &m.DeliveryReport, &m.ReadReport, &m.MessageType, &m.TextOnly, &m.TransactionID, &m.MessageID)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
