// Package importer streams SMS/MMS backup files into the message store.
//
// The backup is read token by token: section names are inspected before
// their values are decoded, so unknown sections and kinds that are
// switched off are skipped without building any records.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/matheus3301/sms/internal/backup"
	"github.com/matheus3301/sms/internal/bus"
	"github.com/matheus3301/sms/internal/logging"
	"github.com/matheus3301/sms/internal/worker"
	"go.uber.org/zap"
)

// ErrUnexpectedToken is wrapped by stream errors caused by a backup that is
// not an array of objects of arrays.
var ErrUnexpectedToken = errors.New("importer: unexpected token")

// ErrAborted is passed to an ImportAsync callback when the import ended
// without producing a report.
var ErrAborted = errors.New("importer: import aborted")

// Writer persists decoded records.
type Writer interface {
	WriteSms(*backup.SmsBackup) error
	WriteMms(*backup.MmsBackup) error
}

// Submitter queues work on the background worker.
type Submitter interface {
	Submit(worker.Task) error
}

// Options selects which record kinds are imported.
type Options struct {
	ImportSMS bool
	ImportMMS bool
	// RunID tags published events; one is generated when empty.
	RunID string
}

// ProgressFunc receives the source size and the number of bytes consumed.
// total is 0 when the size is unknown.
type ProgressFunc func(total, current int64)

// StartedPayload is published with bus.KindImportStarted.
type StartedPayload struct {
	RunID  string
	Source string
}

// ProgressPayload is published with bus.KindImportProgress.
type ProgressPayload struct {
	RunID    string
	Total    int64
	Current  int64
	Imported int
	Failed   int
}

// FailurePayload is published with bus.KindImportRecordFailed. Fatal marks a
// stream failure that ended the import.
type FailurePayload struct {
	RunID   string
	Section string
	Error   string
	Fatal   bool
}

// Importer reads backups and hands each record to a Writer.
type Importer struct {
	writer Writer
	assets fs.FS
	worker Submitter
	bus    *bus.Bus
	logger *zap.Logger
}

// New creates an importer. Sources without a "/" are opened from assets.
func New(w Writer, assets fs.FS, wk Submitter, b *bus.Bus, logger *zap.Logger) *Importer {
	return &Importer{
		writer: w,
		assets: assets,
		worker: wk,
		bus:    b,
		logger: logging.OrNop(logger),
	}
}

// ImportAsync runs Import on the background worker and passes its report
// to callback. The error is returned only when the job cannot be queued.
// The callback runs even if the import panics, with a FAIL report and
// ErrAborted.
func (im *Importer) ImportAsync(path string, opts Options, onProgress ProgressFunc, callback func(Report, error)) error {
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	return im.worker.Submit(func(ctx context.Context) {
		rep := Report{RunID: opts.RunID, Source: path, Result: ResultFail, Failed: 1}
		err := ErrAborted
		if callback != nil {
			defer func() { callback(rep, err) }()
		}
		rep, err = im.Import(ctx, path, opts, onProgress)
	})
}

// Import reads the backup at path. A record that cannot be decoded or
// written is counted as failed and the import goes on; an error reading
// the stream itself is counted once and stops the import. The returned
// report is always classified; the error is the stream failure, if any.
func (im *Importer) Import(ctx context.Context, path string, opts Options, onProgress ProgressFunc) (Report, error) {
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	r := &run{
		im:         im,
		opts:       opts,
		onProgress: onProgress,
		logger:     im.logger.With(zap.String("run_id", opts.RunID), zap.String("source", path)),
		lastPct:    -1,
	}
	im.bus.Emit(bus.KindImportStarted, StartedPayload{RunID: opts.RunID, Source: path})
	r.logger.Info("import started", zap.Bool("sms", opts.ImportSMS), zap.Bool("mms", opts.ImportMMS))

	err := r.read(ctx, path)
	if err != nil {
		r.fatal(err)
	}

	rep := Report{
		RunID:    opts.RunID,
		Source:   path,
		Result:   Classify(r.imported, r.failed),
		Imported: r.imported,
		Failed:   r.failed,
	}
	r.logger.Info("import finished",
		zap.String("result", string(rep.Result)),
		zap.Int("imported", rep.Imported),
		zap.Int("failed", rep.Failed))
	im.bus.Emit(bus.KindImportFinished, rep)
	return rep, err
}

func (im *Importer) open(path string) (io.ReadCloser, int64, error) {
	var (
		f   fs.File
		err error
	)
	if strings.Contains(path, "/") {
		f, err = os.Open(path)
	} else if im.assets != nil {
		f, err = im.assets.Open(path)
	} else {
		err = fmt.Errorf("no bundled assets: %w", fs.ErrNotExist)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}
	return f, size, nil
}

// run holds the state of one import. It is touched only by the goroutine
// executing Import.
type run struct {
	im         *Importer
	opts       Options
	onProgress ProgressFunc
	logger     *zap.Logger

	dec      *json.Decoder
	total    int64
	lastPct  int64
	imported int
	failed   int
}

func (r *run) read(ctx context.Context, path string) error {
	src, size, err := r.im.open(path)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	r.total = size
	r.dec = json.NewDecoder(src)
	return r.stream(ctx)
}

func (r *run) stream(ctx context.Context) error {
	if err := r.expect('['); err != nil {
		return err
	}
	for r.dec.More() {
		if err := r.expect('{'); err != nil {
			return err
		}
		for r.dec.More() {
			tok, err := r.dec.Token()
			if err != nil {
				return err
			}
			name, ok := tok.(string)
			if !ok {
				return fmt.Errorf("%w: %v at offset %d", ErrUnexpectedToken, tok, r.dec.InputOffset())
			}
			if !r.accepts(name) {
				if err := skipValue(r.dec); err != nil {
					return err
				}
				r.progress()
				continue
			}
			if err := r.section(ctx, name); err != nil {
				return err
			}
		}
		if err := r.expect('}'); err != nil {
			return err
		}
		r.im.bus.Emit(bus.KindConversationRefresh, nil)
	}
	return r.expect(']')
}

func (r *run) accepts(name string) bool {
	switch name {
	case backup.SectionSMS:
		return r.opts.ImportSMS
	case backup.SectionMMS:
		return r.opts.ImportMMS
	default:
		return false
	}
}

func (r *run) section(ctx context.Context, name string) error {
	if err := r.expect('['); err != nil {
		return err
	}
	for r.dec.More() {
		if err := ctx.Err(); err != nil {
			return err
		}
		var raw json.RawMessage
		if err := r.dec.Decode(&raw); err != nil {
			return err
		}
		if err := r.record(name, raw); err != nil {
			r.fail(name, err)
		} else {
			r.imported++
		}
		r.progress()
	}
	return r.expect(']')
}

func (r *run) record(name string, raw json.RawMessage) error {
	switch name {
	case backup.SectionSMS:
		var msg backup.SmsBackup
		if err := json.Unmarshal(raw, &msg); err != nil {
			return fmt.Errorf("decode sms: %w", err)
		}
		return r.im.writer.WriteSms(&msg)
	default:
		var msg backup.MmsBackup
		if err := json.Unmarshal(raw, &msg); err != nil {
			return fmt.Errorf("decode mms: %w", err)
		}
		return r.im.writer.WriteMms(&msg)
	}
}

func (r *run) fail(section string, err error) {
	r.failed++
	r.logger.Warn("import record failed", zap.String("section", section), zap.Error(err))
	r.im.bus.Emit(bus.KindImportRecordFailed, FailurePayload{RunID: r.opts.RunID, Section: section, Error: err.Error()})
}

func (r *run) fatal(err error) {
	r.failed++
	r.logger.Error("import stream failed", zap.Error(err))
	r.im.bus.Emit(bus.KindImportRecordFailed, FailurePayload{RunID: r.opts.RunID, Error: err.Error(), Fatal: true})
}

func (r *run) progress() {
	current := r.dec.InputOffset()
	if r.onProgress != nil {
		r.onProgress(r.total, current)
	}
	if r.total <= 0 {
		return
	}
	if pct := current * 100 / r.total; pct != r.lastPct {
		r.lastPct = pct
		r.im.bus.Emit(bus.KindImportProgress, ProgressPayload{
			RunID:    r.opts.RunID,
			Total:    r.total,
			Current:  current,
			Imported: r.imported,
			Failed:   r.failed,
		})
	}
}

func (r *run) expect(want json.Delim) error {
	tok, err := r.dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: got %v, want %v at offset %d", ErrUnexpectedToken, tok, want, r.dec.InputOffset())
	}
	return nil
}

// skipValue consumes the next value without decoding it.
func skipValue(dec *json.Decoder) error {
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch tok {
		case json.Delim('['), json.Delim('{'):
			depth++
		case json.Delim(']'), json.Delim('}'):
			depth--
		}
		if depth == 0 {
			return nil
		}
	}
}
