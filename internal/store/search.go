package store

// SearchMessages runs a full-text query over message bodies and subjects,
// optionally restricted to one thread. Results are newest first.
func (db *DB) SearchMessages(query string, threadID int64, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 50
	}

	q := `
		SELECT m.id, m.thread_id, m.kind, m.content_key, m.address, m.body, m.subject, m.subject_charset, m.box,
			m.date, m.date_sent, m.read, m.seen, m.locked, m.status, m.subscription_id, m.protocol, m.service_center,
			m.creator, m.content_type, m.delivery_report, m.read_report, m.message_type, m.text_only,
			m.transaction_id, m.message_id,
			snippet(messages_fts, '<<', '>>', '...', -1, 12)
		FROM messages_fts
		JOIN messages m ON m.id = messages_fts.docid
		WHERE messages_fts MATCH ?`

	args := []any{query}
	if threadID != 0 {
		q += " AND m.thread_id = ?"
		args = append(args, threadID)
	}
	q += " ORDER BY m.date DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		m := &r.Message
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.Kind, &m.ContentKey, &m.Address, &m.Body, &m.Subject, &m.SubjectCharset, &m.Box,
			&m.Date, &m.DateSent, &m.Read, &m.Seen, &m.Locked, &m.Status, &m.SubscriptionID, &m.Protocol, &m.ServiceCenter,
			&m.Creator, &m.ContentType, &m.DeliveryReport, &m.ReadReport, &m.MessageType, &m.TextOnly,
			&m.TransactionID, &m.MessageID, &r.Snippet); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
