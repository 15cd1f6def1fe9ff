package store

import (
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

const conversationColumns = `thread_id, recipients, title, snippet, date, read, is_group, archived`

// RecipientsKey normalizes and sorts addresses into the key that identifies
// a thread. Empty addresses are dropped and duplicates collapse.
func RecipientsKey(addresses []string) string {
	var norm []string
	for _, a := range addresses {
		if n := NormalizeAddress(a); n != "" {
			norm = append(norm, n)
		}
	}
	slices.Sort(norm)
	return strings.Join(slices.Compact(norm), ",")
}

// NormalizeAddress strips formatting from a phone number so that
// "+1 (555) 010-9999" and "+15550109999" share a thread. Non-numeric
// addresses (emails, short names) are only trimmed and lower-cased.
func NormalizeAddress(a string) string {
	a = strings.TrimSpace(a)
	if a == "" {
		return ""
	}
	var b strings.Builder
	for i, r := range a {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return strings.ToLower(a)
		}
	}
	return b.String()
}

// GetOrCreateThread returns the thread id for the recipient set, creating
// the conversation when it does not exist yet.
func (db *DB) GetOrCreateThread(addresses []string) (int64, error) {
	return getOrCreateThread(db.DB, addresses)
}

type queryer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

func getOrCreateThread(q queryer, addresses []string) (int64, error) {
	key := RecipientsKey(addresses)
	if key == "" {
		return 0, fmt.Errorf("get or create thread: no usable address")
	}
	recipients := strings.Split(key, ",")
	now := time.Now().UnixMilli()
	if _, err := q.Exec(`
		INSERT INTO conversations (recipients, title, is_group, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(recipients) DO NOTHING`,
		key, strings.Join(recipients, ", "), len(recipients) > 1, now); err != nil {
		return 0, fmt.Errorf("insert conversation: %w", err)
	}
	var id int64
	if err := q.QueryRow(`SELECT thread_id FROM conversations WHERE recipients = ?`, key).Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup conversation: %w", err)
	}
	return id, nil
}

// UpsertConversation inserts or replaces a conversation's display fields.
// A zero ThreadID lets SQLite allocate one; the id is written back.
func (db *DB) UpsertConversation(c *Conversation) error {
	now := time.Now().UnixMilli()
	var id any
	if c.ThreadID != 0 {
		id = c.ThreadID
	}
	err := db.QueryRow(`
		INSERT INTO conversations (thread_id, recipients, title, snippet, date, read, is_group, archived, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(recipients) DO UPDATE SET
			title = excluded.title,
			snippet = excluded.snippet,
			date = excluded.date,
			read = excluded.read,
			is_group = excluded.is_group,
			archived = excluded.archived,
			updated_at = excluded.updated_at
		RETURNING thread_id`,
		id, c.Recipients, c.Title, c.Snippet, c.Date, c.Read, c.IsGroup, c.Archived, now).Scan(&c.ThreadID)
	return err
}

// ListConversations returns conversations with the given archived flag,
// newest first.
func (db *DB) ListConversations(archived bool) ([]Conversation, error) {
	rows, err := db.Query(`
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE archived = ?
		ORDER BY date DESC, thread_id DESC`, boolInt(archived))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var convs []Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, *c)
	}
	return convs, rows.Err()
}

// ListArchived returns every archived conversation, newest first.
func (db *DB) ListArchived() ([]Conversation, error) {
	return db.ListConversations(true)
}

// GetConversation returns a conversation by thread id, or nil if missing.
func (db *DB) GetConversation(threadID int64) (*Conversation, error) {
	row := db.QueryRow(`SELECT `+conversationColumns+` FROM conversations WHERE thread_id = ?`, threadID)
	c, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// SetArchived moves a conversation in or out of the archive.
func (db *DB) SetArchived(threadID int64, archived bool) error {
	res, err := db.Exec(`UPDATE conversations SET archived = ?, updated_at = ? WHERE thread_id = ?`,
		boolInt(archived), time.Now().UnixMilli(), threadID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ConversationCount returns the total number of conversations.
func (db *DB) ConversationCount() (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM conversations`).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(r rowScanner) (*Conversation, error) {
	var c Conversation
	if err := r.Scan(&c.ThreadID, &c.Recipients, &c.Title, &c.Snippet, &c.Date, &c.Read, &c.IsGroup, &c.Archived); err != nil {
		return nil, err
	}
	return &c, nil
}
