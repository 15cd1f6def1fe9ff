package exporter

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/matheus3301/sms/internal/assets"
	"github.com/matheus3301/sms/internal/importer"
	"github.com/matheus3301/sms/internal/ingest"
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

func seed(t *testing.T, db *store.DB) {
	t.Helper()
	im := importer.New(ingest.NewWriter(db, nil, nil), assets.FS, nil, nil, nil)
	rep, err := im.Import(context.Background(), assets.DemoBackup, importer.Options{ImportSMS: true, ImportMMS: true}, nil)
	require.NoError(t, err)
	require.Equal(t, importer.ResultOK, rep.Result)
}

func TestExportRoundTrip(t *testing.T) {
	src := testDB(t)
	seed(t, src)

	var buf bytes.Buffer
	rep, err := New(src, nil).Export(context.Background(), &buf, Options{ExportSMS: true, ExportMMS: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, Report{Conversations: 3, SMS: 3, MMS: 1}, rep)

	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	dst := testDB(t)
	im := importer.New(ingest.NewWriter(dst, nil, nil), nil, nil, nil, nil)
	irep, err := im.Import(context.Background(), path, importer.Options{ImportSMS: true, ImportMMS: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, importer.ResultOK, irep.Result)
	assert.Equal(t, 4, irep.Imported)

	want, err := src.ListConversations(false)
	require.NoError(t, err)
	got, err := dst.ListConversations(false)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Recipients, got[i].Recipients)
		assert.Equal(t, want[i].Snippet, got[i].Snippet)
		assert.Equal(t, want[i].Date, got[i].Date)
	}

	// Importing the export back into its source adds nothing.
	im = importer.New(ingest.NewWriter(src, nil, nil), nil, nil, nil, nil)
	_, err = im.Import(context.Background(), path, importer.Options{ImportSMS: true, ImportMMS: true}, nil)
	require.NoError(t, err)
	n, err := src.MessageCount()
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestExportHonorsToggles(t *testing.T) {
	db := testDB(t)
	seed(t, db)

	var buf bytes.Buffer
	rep, err := New(db, nil).Export(context.Background(), &buf, Options{ExportMMS: true}, nil)
	require.NoError(t, err)
	assert.Zero(t, rep.SMS)
	assert.Equal(t, 1, rep.MMS)

	var objects []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &objects))
	require.Len(t, objects, 3)
	for _, obj := range objects {
		assert.NotContains(t, obj, "sms")
		assert.Contains(t, obj, "mms")
	}
}

func TestExportIncludesArchived(t *testing.T) {
	db := testDB(t)
	seed(t, db)
	convs, err := db.ListConversations(false)
	require.NoError(t, err)
	require.NoError(t, db.SetArchived(convs[0].ThreadID, true))

	var buf bytes.Buffer
	rep, err := New(db, nil).Export(context.Background(), &buf, Options{ExportSMS: true, ExportMMS: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Conversations)
}

func TestExportEmptyStore(t *testing.T) {
	var buf bytes.Buffer
	var calls int
	rep, err := New(testDB(t), nil).Export(context.Background(), &buf, Options{ExportSMS: true, ExportMMS: true}, func(int, int) { calls++ })
	require.NoError(t, err)
	assert.Equal(t, Report{}, rep)
	assert.Equal(t, "[]\n", buf.String())
	assert.Zero(t, calls)
}

func TestExportReportsProgress(t *testing.T) {
	db := testDB(t)
	seed(t, db)

	var got [][2]int
	_, err := New(db, nil).Export(context.Background(), &bytes.Buffer{}, Options{ExportSMS: true}, func(total, current int) {
		got = append(got, [2]int{total, current})
	})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{3, 1}, {3, 2}, {3, 3}}, got)
}
