package importer

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/matheus3301/sms/internal/assets"
	"github.com/matheus3301/sms/internal/backup"
	"github.com/matheus3301/sms/internal/bus"
	"github.com/matheus3301/sms/internal/ingest"
	"github.com/matheus3301/sms/internal/store"
	"github.com/matheus3301/sms/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	sms []backup.SmsBackup
	mms []backup.MmsBackup
}

func (w *fakeWriter) WriteSms(m *backup.SmsBackup) error {
	if err := m.Validate(); err != nil {
		return err
	}
	w.sms = append(w.sms, *m)
	return nil
}

func (w *fakeWriter) WriteMms(m *backup.MmsBackup) error {
	if err := m.Validate(); err != nil {
		return err
	}
	w.mms = append(w.mms, *m)
	return nil
}

var all = Options{ImportSMS: true, ImportMMS: true}

func writeBackup(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backup.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestClassify(t *testing.T) {
	tests := []struct {
		imported, failed int
		want             Result
	}{
		{0, 0, ResultNothingNew},
		{5, 2, ResultPartial},
		{0, 1, ResultFail},
		{7, 0, ResultOK},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.imported, tt.failed), "Classify(%d, %d)", tt.imported, tt.failed)
	}
}

func TestImportValidSms(t *testing.T) {
	path := writeBackup(t, `[{"sms":[
		{"address":"+15550100001","body":"one","date":1000,"type":1},
		{"address":"+15550100001","body":"two","date":2000,"type":2},
		{"address":"+15550100002","body":"three","date":3000,"type":1}
	]}]`)
	w := &fakeWriter{}
	im := New(w, nil, nil, nil, nil)

	rep, err := im.Import(context.Background(), path, all, nil)
	require.NoError(t, err)
	assert.Equal(t, ResultOK, rep.Result)
	assert.Equal(t, 3, rep.Imported)
	assert.Equal(t, 0, rep.Failed)
	require.Len(t, w.sms, 3)
	assert.Equal(t, "three", w.sms[2].Body)
}

func TestImportDisabledKindIsNothingNew(t *testing.T) {
	path := writeBackup(t, `[{"mms":[
		{"date":1,"msg_box":1,"addresses":[{"address":"+15550100003","type":137}]},
		{"date":2,"msg_box":1,"addresses":[{"address":"+15550100003","type":137}]}
	]}]`)
	w := &fakeWriter{}
	im := New(w, nil, nil, nil, nil)

	rep, err := im.Import(context.Background(), path, Options{ImportSMS: true, ImportMMS: false}, nil)
	require.NoError(t, err)
	assert.Equal(t, ResultNothingNew, rep.Result)
	assert.Zero(t, rep.Imported)
	assert.Zero(t, rep.Failed)
	assert.Empty(t, w.mms)
}

func TestImportBadRecordsArePartial(t *testing.T) {
	path := writeBackup(t, `[{"sms":[
		{"address":"+15550100001","body":"ok 1","date":1000},
		{"address":"+15550100001","body":"bad date","date":"yesterday"},
		{"address":"+15550100001","body":"ok 2","date":2000},
		{"body":"no address","date":3000},
		{"address":"+15550100001","body":"ok 3","date":4000}
	]}]`)
	w := &fakeWriter{}
	b := bus.New()
	failures, unsub := b.Subscribe(bus.KindImportRecordFailed, 10)
	defer unsub()

	im := New(w, nil, nil, b, nil)
	rep, err := im.Import(context.Background(), path, all, nil)
	require.NoError(t, err)
	assert.Equal(t, ResultPartial, rep.Result)
	assert.Equal(t, 3, rep.Imported)
	assert.Equal(t, 2, rep.Failed)
	assert.Len(t, w.sms, 3)

	assert.Len(t, failures, 2)
	evt := <-failures
	p, ok := evt.Payload.(FailurePayload)
	require.True(t, ok)
	assert.Equal(t, backup.SectionSMS, p.Section)
	assert.False(t, p.Fatal)
}

func TestImportMissingFileFails(t *testing.T) {
	im := New(&fakeWriter{}, nil, nil, nil, nil)
	rep, err := im.Import(context.Background(), filepath.Join(t.TempDir(), "nope.json"), all, nil)
	require.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, ResultFail, rep.Result)
	assert.Equal(t, 0, rep.Imported)
	assert.GreaterOrEqual(t, rep.Failed, 1)
}

func TestImportTruncatedStreamHalts(t *testing.T) {
	path := writeBackup(t, `[{"sms":[{"address":"+15550100001","body":"kept","date":1000},{"address":"+1555`)
	w := &fakeWriter{}
	im := New(w, nil, nil, nil, nil)

	rep, err := im.Import(context.Background(), path, all, nil)
	require.Error(t, err)
	assert.Equal(t, ResultPartial, rep.Result)
	assert.Equal(t, 1, rep.Imported)
	assert.Equal(t, 1, rep.Failed)
}

func TestImportRejectsNonArrayRoot(t *testing.T) {
	path := writeBackup(t, `{"sms":[]}`)
	rep, err := New(&fakeWriter{}, nil, nil, nil, nil).Import(context.Background(), path, all, nil)
	require.ErrorIs(t, err, ErrUnexpectedToken)
	assert.Equal(t, ResultFail, rep.Result)
	assert.Equal(t, 1, rep.Failed)
}

func TestImportEmptyFileFails(t *testing.T) {
	path := writeBackup(t, ``)
	rep, err := New(&fakeWriter{}, nil, nil, nil, nil).Import(context.Background(), path, all, nil)
	require.Error(t, err)
	assert.Equal(t, ResultFail, rep.Result)
}

func TestImportEmptyArrayIsNothingNew(t *testing.T) {
	path := writeBackup(t, `[]`)
	rep, err := New(&fakeWriter{}, nil, nil, nil, nil).Import(context.Background(), path, all, nil)
	require.NoError(t, err)
	assert.Equal(t, ResultNothingNew, rep.Result)
}

func TestImportSkipsUnknownSections(t *testing.T) {
	path := writeBackup(t, `[
		{"calls":[{"number":"+15550100009","duration":{"s":[1,2,3]}}],
		 "sms":[{"address":"+15550100001","body":"hi","date":1000}],
		 "version":3},
		{"mms":{"unexpected":["shape",{"deep":[[]]}]}}
	]`)
	w := &fakeWriter{}
	im := New(w, nil, nil, nil, nil)

	rep, err := im.Import(context.Background(), path, Options{ImportSMS: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, ResultOK, rep.Result)
	assert.Equal(t, 1, rep.Imported)
	assert.Len(t, w.sms, 1)
}

func TestImportPublishesRefreshPerObject(t *testing.T) {
	path := writeBackup(t, `[
		{"sms":[{"address":"+15550100001","body":"a","date":1000}]},
		{},
		{"sms":[{"address":"+15550100002","body":"b","date":2000}]}
	]`)
	b := bus.New()
	refresh, unsub := b.Subscribe(bus.KindConversationRefresh, 10)
	defer unsub()

	_, err := New(&fakeWriter{}, nil, nil, b, nil).Import(context.Background(), path, all, nil)
	require.NoError(t, err)
	assert.Len(t, refresh, 3)
}

func TestImportReportsProgress(t *testing.T) {
	content := `[{"sms":[{"address":"+15550100001","body":"a","date":1000},{"address":"+15550100001","body":"b","date":2000}]},{"skipped":[1,2,3]}]`
	path := writeBackup(t, content)

	var calls [][2]int64
	_, err := New(&fakeWriter{}, nil, nil, nil, nil).Import(context.Background(), path, all, func(total, current int64) {
		calls = append(calls, [2]int64{total, current})
	})
	require.NoError(t, err)
	require.Len(t, calls, 3)
	var last int64
	for _, c := range calls {
		assert.Equal(t, int64(len(content)), c[0])
		assert.GreaterOrEqual(t, c[1], last)
		assert.LessOrEqual(t, c[1], c[0])
		last = c[1]
	}
}

func TestImportCancelledBetweenRecords(t *testing.T) {
	path := writeBackup(t, `[{"sms":[{"address":"+15550100001","body":"a","date":1000}]}]`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := &fakeWriter{}
	rep, err := New(w, nil, nil, nil, nil).Import(ctx, path, all, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, ResultFail, rep.Result)
	assert.Empty(t, w.sms)
}

func TestImportOpensBundledAsset(t *testing.T) {
	bundle := fstest.MapFS{
		"sample.json": {Data: []byte(`[{"sms":[{"address":"+15550100001","body":"bundled","date":1000}]}]`)},
	}
	w := &fakeWriter{}
	rep, err := New(w, bundle, nil, nil, nil).Import(context.Background(), "sample.json", all, nil)
	require.NoError(t, err)
	assert.Equal(t, ResultOK, rep.Result)
	require.Len(t, w.sms, 1)
	assert.Equal(t, "bundled", w.sms[0].Body)
}

func TestImportMissingAsset(t *testing.T) {
	rep, err := New(&fakeWriter{}, fstest.MapFS{}, nil, nil, nil).Import(context.Background(), "missing.json", all, nil)
	require.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, ResultFail, rep.Result)
}

func TestImportDemoBackupIntoStore(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Migrate()
	require.NoError(t, err)

	im := New(ingest.NewWriter(db, nil, nil), assets.FS, nil, nil, nil)
	rep, err := im.Import(context.Background(), assets.DemoBackup, all, nil)
	require.NoError(t, err)
	assert.Equal(t, ResultOK, rep.Result)
	assert.Equal(t, 4, rep.Imported)

	n, err := db.ConversationCount()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	// Re-importing the same backup stores nothing new but still succeeds.
	rep, err = im.Import(context.Background(), assets.DemoBackup, all, nil)
	require.NoError(t, err)
	assert.Equal(t, ResultOK, rep.Result)
	msgs, err := db.MessageCount()
	require.NoError(t, err)
	assert.Equal(t, int64(4), msgs)
}

func TestImportAsyncRunsOnWorker(t *testing.T) {
	path := writeBackup(t, `[{"sms":[{"address":"+15550100001","body":"a","date":1000}]}]`)
	wk := worker.New(4, nil)
	wk.Start(context.Background())
	defer wk.Stop()

	done := make(chan Report, 1)
	im := New(&fakeWriter{}, nil, wk, nil, nil)
	err := im.ImportAsync(path, all, nil, func(rep Report, err error) {
		assert.NoError(t, err)
		done <- rep
	})
	require.NoError(t, err)

	select {
	case rep := <-done:
		assert.Equal(t, ResultOK, rep.Result)
		assert.NotEmpty(t, rep.RunID)
	case <-time.After(5 * time.Second):
		t.Fatal("callback not invoked")
	}
}

type panicWriter struct{ fakeWriter }

func (panicWriter) WriteSms(*backup.SmsBackup) error { panic("disk on fire") }

func TestImportAsyncCallbackRunsAfterPanic(t *testing.T) {
	path := writeBackup(t, `[{"sms":[{"address":"+15550100001","body":"a","date":1000}]}]`)
	wk := worker.New(4, nil)
	wk.Start(context.Background())
	defer wk.Stop()

	type outcome struct {
		rep Report
		err error
	}
	done := make(chan outcome, 1)
	im := New(&panicWriter{}, nil, wk, nil, nil)
	require.NoError(t, im.ImportAsync(path, all, nil, func(rep Report, err error) {
		done <- outcome{rep, err}
	}))

	select {
	case o := <-done:
		assert.ErrorIs(t, o.err, ErrAborted)
		assert.Equal(t, ResultFail, o.rep.Result)
		assert.Equal(t, 1, o.rep.Failed)
		assert.NotEmpty(t, o.rep.RunID)
	case <-time.After(5 * time.Second):
		t.Fatal("callback not invoked after panic")
	}

	// The worker survives the panic and keeps serving jobs.
	ran := make(chan struct{})
	require.NoError(t, wk.Submit(func(context.Context) { close(ran) }))
	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("worker stopped after panic")
	}
}

func TestImportAsyncWorkerStopped(t *testing.T) {
	im := New(&fakeWriter{}, nil, worker.New(1, nil), nil, nil)
	err := im.ImportAsync("x.json", all, nil, nil)
	assert.True(t, errors.Is(err, worker.ErrNotRunning))
}

func TestSkipValue(t *testing.T) {
	for _, in := range []string{`1`, `"s"`, `null`, `[]`, `{"a":[1,{"b":{}}]}`} {
		dec := json.NewDecoder(strings.NewReader(in + ` "after"`))
		require.NoError(t, skipValue(dec), in)
		tok, err := dec.Token()
		require.NoError(t, err)
		assert.Equal(t, "after", tok, in)
	}
}
