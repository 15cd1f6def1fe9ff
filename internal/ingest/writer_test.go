package ingest

import (
	"encoding/base64"
	"path/filepath"
	"testing"
	"time"

	"github.com/matheus3301/sms/internal/backup"
	"github.com/matheus3301/sms/internal/bus"
	"github.com/matheus3301/sms/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	_, err = db.Migrate()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestWriteSmsCreatesThreadAndMessage(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	w := NewWriter(db, b, nil)

	ch, unsub := b.Subscribe("message.", 10)
	defer unsub()

	err := w.WriteSms(&backup.SmsBackup{
		Address: "+1 (555) 010-0001", Body: "hello", Date: 1_700_000_000_000,
		Type: backup.BoxInbox, Read: 1,
	})
	require.NoError(t, err)

	convs, err := db.ListConversations(false)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, "+15550100001", convs[0].Recipients)
	assert.Equal(t, "hello", convs[0].Snippet)
	assert.Equal(t, int64(1_700_000_000_000), convs[0].Date)
	assert.True(t, convs[0].Read)

	msgs, err := db.ListMessages(convs[0].ThreadID, 0, 0, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, store.KindSMS, msgs[0].Kind)
	assert.Equal(t, "hello", msgs[0].Body)

	select {
	case evt := <-ch:
		assert.Equal(t, bus.KindMessageUpserted, evt.Kind)
		p, ok := evt.Payload.(UpsertedPayload)
		require.True(t, ok)
		assert.Equal(t, convs[0].ThreadID, p.ThreadID)
	case <-time.After(time.Second):
		t.Fatal("no message.upserted event")
	}
}

func TestWriteSmsDuplicateIsNotAnError(t *testing.T) {
	db := testDB(t)
	w := NewWriter(db, nil, nil)

	rec := &backup.SmsBackup{Address: "5550100", Body: "same", Date: 1000, Type: backup.BoxSent}
	require.NoError(t, w.WriteSms(rec))
	require.NoError(t, w.WriteSms(rec))

	n, err := db.MessageCount()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestWriteSmsRejectsMissingAddress(t *testing.T) {
	w := NewWriter(testDB(t), nil, nil)
	err := w.WriteSms(&backup.SmsBackup{Body: "orphan", Date: 1000})
	assert.ErrorIs(t, err, backup.ErrMissingAddress)
}

func TestWriteMmsStoresPartsAndUsesRecipientThread(t *testing.T) {
	db := testDB(t)
	w := NewWriter(db, nil, nil)

	png := []byte{0x89, 'P', 'N', 'G'}
	err := w.WriteMms(&backup.MmsBackup{
		Date:       1_700_000_001,
		MessageBox: backup.BoxSent,
		Subject:    "pics",
		Parts: []backup.MmsPart{
			{Seq: 0, ContentType: "text/plain", Text: "look"},
			{Seq: 1, ContentType: "image/png", Name: "a.png", Data: base64.StdEncoding.EncodeToString(png)},
		},
		Addresses: []backup.MmsAddress{
			{Address: "+15550000000", Type: backup.AddrTypeFrom},
			{Address: "+15550100002", Type: backup.AddrTypeTo},
			{Address: "+15550100003", Type: backup.AddrTypeTo},
		},
	})
	require.NoError(t, err)

	convs, err := db.ListConversations(false)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, "+15550100002,+15550100003", convs[0].Recipients)
	assert.True(t, convs[0].IsGroup)
	assert.Equal(t, "look", convs[0].Snippet)
	assert.Equal(t, int64(1_700_000_001_000), convs[0].Date)

	var got []store.Message
	err = db.ForEachMessage(convs[0].ThreadID, store.KindMMS, func(m *store.Message) error {
		got = append(got, *m)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "+15550000000", got[0].Address)
	require.Len(t, got[0].Parts, 2)
	assert.Equal(t, png, got[0].Parts[1].Data)
	assert.Len(t, got[0].Addresses, 3)
}

func TestWriteMmsRejectsBadPartData(t *testing.T) {
	db := testDB(t)
	w := NewWriter(db, nil, nil)
	err := w.WriteMms(&backup.MmsBackup{
		Date:       1,
		MessageBox: backup.BoxInbox,
		Parts:      []backup.MmsPart{{Seq: 0, ContentType: "image/png", Data: "!!not base64!!"}},
		Addresses:  []backup.MmsAddress{{Address: "+15550100004", Type: backup.AddrTypeFrom}},
	})
	assert.Error(t, err)

	convs, err := db.ListConversations(false)
	require.NoError(t, err)
	assert.Empty(t, convs, "rejected record must not leave a thread behind")
}

func TestFailedInsertRollsBackThread(t *testing.T) {
	db := testDB(t)
	w := NewWriter(db, nil, nil)
	_, err := db.Exec(`DROP TABLE message_addresses`)
	require.NoError(t, err)

	err = w.WriteMms(&backup.MmsBackup{
		Date:       1_700_000_000,
		MessageBox: backup.BoxSent,
		Parts:      []backup.MmsPart{{Seq: 0, ContentType: "text/plain", Text: "hi"}},
		Addresses:  []backup.MmsAddress{{Address: "+15550100005", Type: backup.AddrTypeTo}},
	})
	require.Error(t, err)

	n, err := db.ConversationCount()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMMSMillis(t *testing.T) {
	assert.Equal(t, int64(1_700_000_000_000), MMSMillis(1_700_000_000))
	assert.Equal(t, int64(1_700_000_000_000), MMSMillis(1_700_000_000_000))
	assert.Equal(t, int64(0), MMSMillis(0))
}

func TestContentKeyIsStable(t *testing.T) {
	a := ContentKey(store.KindSMS, "+1", "1000", "1", "hi")
	assert.Equal(t, a, ContentKey(store.KindSMS, "+1", "1000", "1", "hi"))
	assert.NotEqual(t, a, ContentKey(store.KindSMS, "+1", "1000", "2", "hi"))
	assert.NotEqual(t, a, ContentKey(store.KindMMS, "+1", "1000", "1", "hi"))
}
