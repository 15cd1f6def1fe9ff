package store

import (
	"path/filepath"
	"slices"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := testDB(t)

	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 3 {
		t.Errorf("version = %d, want 3 (init + search + import runs)", result.Version)
	}
}

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+1 (555) 010-9999", "+15550109999"},
		{"555.010.9999", "5550109999"},
		{"  5550109999 ", "5550109999"},
		{"Bob@Example.com", "bob@example.com"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeAddress(tt.in); got != tt.want {
			t.Errorf("NormalizeAddress(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRecipientsKeySortsAndDedupes(t *testing.T) {
	got := RecipientsKey([]string{"555-0002", "5550001", "", "555 0002"})
	if got != "5550001,5550002" {
		t.Errorf("RecipientsKey = %q, want 5550001,5550002", got)
	}
}

func TestGetOrCreateThreadIsStable(t *testing.T) {
	db := testDB(t)

	id1, err := db.GetOrCreateThread([]string{"+1 555 0100"})
	if err != nil {
		t.Fatal(err)
	}
	id2, err := db.GetOrCreateThread([]string{"+15550100"})
	if err != nil {
		t.Fatal(err)
	}
	if id1 != id2 {
		t.Errorf("thread ids differ for the same number: %d vs %d", id1, id2)
	}

	group, err := db.GetOrCreateThread([]string{"5550200", "5550100"})
	if err != nil {
		t.Fatal(err)
	}
	if group == id1 {
		t.Error("group thread must differ from 1:1 thread")
	}
	c, err := db.GetConversation(group)
	if err != nil {
		t.Fatal(err)
	}
	if c == nil || !c.IsGroup || c.Title != "5550100, 5550200" {
		t.Errorf("group conversation = %+v", c)
	}

	if _, err := db.GetOrCreateThread([]string{" "}); err == nil {
		t.Error("expected error for empty address set")
	}
}

func TestInsertMessageDedupesAndBumpsConversation(t *testing.T) {
	db := testDB(t)

	thread, err := db.GetOrCreateThread([]string{"5550100"})
	if err != nil {
		t.Fatal(err)
	}

	older := &Message{ThreadID: thread, Kind: KindSMS, ContentKey: "k1", Address: "5550100", Body: "first", Box: 1, Date: 1000}
	newer := &Message{ThreadID: thread, Kind: KindSMS, ContentKey: "k2", Address: "5550100", Body: "second", Box: 1, Date: 2000, Read: true}

	for _, m := range []*Message{newer, older} {
		inserted, err := db.InsertMessage(m, m.Body)
		if err != nil {
			t.Fatal(err)
		}
		if !inserted {
			t.Fatalf("message %s not inserted", m.ContentKey)
		}
	}

	dup := *older
	inserted, err := db.InsertMessage(&dup, dup.Body)
	if err != nil {
		t.Fatal(err)
	}
	if inserted {
		t.Error("duplicate content key should not insert")
	}

	c, err := db.GetConversation(thread)
	if err != nil {
		t.Fatal(err)
	}
	// The older message arrived last but must not replace the snippet.
	if c.Snippet != "second" || c.Date != 2000 || !c.Read {
		t.Errorf("conversation = %+v, want snippet=second date=2000 read", c)
	}

	msgs, err := db.ListMessages(thread, 0, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 || msgs[0].Body != "second" {
		t.Fatalf("ListMessages = %+v", msgs)
	}

	page, err := db.ListMessages(thread, 2000, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].Body != "first" {
		t.Errorf("keyset page = %+v, want [first]", page)
	}
}

func TestListMessagesPagesThroughSameDate(t *testing.T) {
	db := testDB(t)

	thread, err := db.GetOrCreateThread([]string{"5550100"})
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"a", "b", "c", "d"} {
		m := &Message{ThreadID: thread, Kind: KindMMS, ContentKey: key, Body: key, Date: 1000}
		if _, err := db.InsertMessage(m, key); err != nil {
			t.Fatal(err)
		}
	}

	var seen []string
	var beforeDate, beforeID int64
	for {
		page, err := db.ListMessages(thread, beforeDate, beforeID, 2)
		if err != nil {
			t.Fatal(err)
		}
		if len(page) == 0 {
			break
		}
		for _, m := range page {
			seen = append(seen, m.Body)
		}
		last := page[len(page)-1]
		beforeDate, beforeID = last.Date, last.ID
	}
	if want := []string{"d", "c", "b", "a"}; !slices.Equal(seen, want) {
		t.Errorf("paged bodies = %v, want %v", seen, want)
	}
}

func TestInsertThreadMessageRollsBackThread(t *testing.T) {
	db := testDB(t)

	m := &Message{Kind: KindMMS, ContentKey: "m1", Date: 1000,
		Addresses: []Address{{Address: "5550100", Type: 151}}}
	if _, err := db.Exec(`DROP TABLE message_addresses`); err != nil {
		t.Fatal(err)
	}
	if _, err := db.InsertThreadMessage([]string{"5550100"}, m, "hi"); err == nil {
		t.Fatal("expected insert error")
	}
	n, err := db.ConversationCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("ConversationCount = %d, want 0 after rollback", n)
	}

	ok := &Message{Kind: KindSMS, ContentKey: "s1", Body: "hello", Date: 2000}
	inserted, err := db.InsertThreadMessage([]string{"+1 555 0100"}, ok, "hello")
	if err != nil || !inserted {
		t.Fatalf("InsertThreadMessage = %v, %v", inserted, err)
	}
	c, err := db.GetConversation(ok.ThreadID)
	if err != nil || c == nil {
		t.Fatalf("GetConversation(%d) = %v, %v", ok.ThreadID, c, err)
	}
	if c.Recipients != "+15550100" || c.Snippet != "hello" {
		t.Errorf("conversation = %+v", c)
	}
}

func TestForEachMessageReportsReadErrors(t *testing.T) {
	db := testDB(t)

	thread, err := db.GetOrCreateThread([]string{"5550100"})
	if err != nil {
		t.Fatal(err)
	}
	m := &Message{ThreadID: thread, Kind: KindMMS, ContentKey: "m1", Date: 1000}
	if _, err := db.InsertMessage(m, "mms"); err != nil {
		t.Fatal(err)
	}
	if m.ID != 1 {
		t.Fatalf("message id = %d, want 1", m.ID)
	}

	// abs() of the smallest int64 fails while rows are being stepped.
	if _, err := db.Exec(`DROP TABLE message_parts`); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`
		CREATE VIEW message_parts AS
		SELECT id, id AS message_id, abs(-9223372036854775807 - id) AS seq,
			'' AS content_type, '' AS name, '' AS filename, '' AS charset, '' AS content_disposition,
			'' AS content_id, '' AS content_location, '' AS ct_start, '' AS ct_type, '' AS text, NULL AS data
		FROM messages`); err != nil {
		t.Fatal(err)
	}

	called := false
	err = db.ForEachMessage(thread, KindMMS, func(*Message) error {
		called = true
		return nil
	})
	if err == nil {
		t.Fatal("expected read error, got nil")
	}
	if called {
		t.Error("fn called for a message whose parts failed to load")
	}
}

func TestForEachMessageLoadsAttachments(t *testing.T) {
	db := testDB(t)

	thread, err := db.GetOrCreateThread([]string{"5550100", "5550200"})
	if err != nil {
		t.Fatal(err)
	}
	mms := &Message{
		ThreadID: thread, Kind: KindMMS, ContentKey: "mms1", Date: 5000, Box: 1,
		Parts: []Part{
			{Seq: 0, ContentType: "text/plain", Text: "look"},
			{Seq: 1, ContentType: "image/png", Name: "a.png", Data: []byte{0x89, 'P', 'N', 'G'}},
		},
		Addresses: []Address{{Address: "5550100", Type: 137}, {Address: "5550200", Type: 151}},
	}
	if _, err := db.InsertMessage(mms, "look"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.InsertMessage(&Message{ThreadID: thread, Kind: KindSMS, ContentKey: "sms1", Date: 4000}, ""); err != nil {
		t.Fatal(err)
	}

	var got []*Message
	if err := db.ForEachMessage(thread, KindMMS, func(m *Message) error {
		got = append(got, m)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d mms, want 1", len(got))
	}
	if len(got[0].Parts) != 2 || string(got[0].Parts[1].Data) != "\x89PNG" {
		t.Errorf("parts = %+v", got[0].Parts)
	}
	if len(got[0].Addresses) != 2 || got[0].Addresses[0].Type != 137 {
		t.Errorf("addresses = %+v", got[0].Addresses)
	}
}

func TestArchivedListing(t *testing.T) {
	db := testDB(t)

	for i, addr := range []string{"5550001", "5550002", "5550003"} {
		c := &Conversation{Recipients: addr, Title: addr, Date: int64(1000 * (i + 1))}
		if err := db.UpsertConversation(c); err != nil {
			t.Fatal(err)
		}
		if i > 0 {
			if err := db.SetArchived(c.ThreadID, true); err != nil {
				t.Fatal(err)
			}
		}
	}

	archived, err := db.ListArchived()
	if err != nil {
		t.Fatal(err)
	}
	if len(archived) != 2 {
		t.Fatalf("got %d archived, want 2", len(archived))
	}
	if archived[0].Title != "5550003" {
		t.Errorf("first archived = %q, want newest 5550003", archived[0].Title)
	}

	active, err := db.ListConversations(false)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0].Title != "5550001" {
		t.Errorf("active = %+v", active)
	}

	if err := db.SetArchived(9999, true); err != ErrNotFound {
		t.Errorf("SetArchived(missing) error = %v, want ErrNotFound", err)
	}
}

func TestGetConversationMissing(t *testing.T) {
	db := testDB(t)
	c, err := db.GetConversation(404)
	if err != nil {
		t.Fatal(err)
	}
	if c != nil {
		t.Errorf("expected nil for missing conversation, got %+v", c)
	}
}

func TestSearchMessages(t *testing.T) {
	db := testDB(t)

	thread, err := db.GetOrCreateThread([]string{"5550100"})
	if err != nil {
		t.Fatal(err)
	}
	for i, body := range []string{"dinner at eight", "running late"} {
		m := &Message{ThreadID: thread, Kind: KindSMS, ContentKey: body, Body: body, Date: int64(1000 + i)}
		if _, err := db.InsertMessage(m, body); err != nil {
			t.Fatal(err)
		}
	}

	results, err := db.SearchMessages("dinner", 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Message.Body != "dinner at eight" {
		t.Errorf("body = %q", results[0].Message.Body)
	}

	results, err = db.SearchMessages("dinner", thread+1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("thread filter ignored: %d results", len(results))
	}
}

func TestImportRuns(t *testing.T) {
	db := testDB(t)

	if err := db.StartImportRun("run-1", "backup.json"); err != nil {
		t.Fatal(err)
	}
	if err := db.FinishImportRun("run-1", "PARTIAL", 3, 2); err != nil {
		t.Fatal(err)
	}
	if err := db.FinishImportRun("missing", "OK", 1, 0); err != ErrNotFound {
		t.Errorf("FinishImportRun(missing) = %v, want ErrNotFound", err)
	}

	runs, err := db.ListImportRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	r := runs[0]
	if r.Result != "PARTIAL" || r.Imported != 3 || r.Failed != 2 || r.FinishedAt == 0 {
		t.Errorf("run = %+v", r)
	}
}

func TestCounts(t *testing.T) {
	db := testDB(t)
	thread, err := db.GetOrCreateThread([]string{"5550100"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.InsertMessage(&Message{ThreadID: thread, Kind: KindSMS, ContentKey: "a", Date: 1}, ""); err != nil {
		t.Fatal(err)
	}
	convs, err := db.ConversationCount()
	if err != nil || convs != 1 {
		t.Errorf("ConversationCount = %d, %v", convs, err)
	}
	msgs, err := db.MessageCount()
	if err != nil || msgs != 1 {
		t.Errorf("MessageCount = %d, %v", msgs, err)
	}
}
