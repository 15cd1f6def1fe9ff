package api

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/matheus3301/sms/internal/bus"
	"github.com/matheus3301/sms/internal/config"
	"github.com/matheus3301/sms/internal/exporter"
	"github.com/matheus3301/sms/internal/importer"
	"github.com/matheus3301/sms/internal/logging"
	"github.com/matheus3301/sms/internal/rpc"
	"github.com/matheus3301/sms/internal/status"
	"github.com/matheus3301/sms/internal/store"
	"github.com/matheus3301/sms/internal/worker"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

// ExportPayload is published with bus.KindExportFinished.
type ExportPayload struct {
	Path          string `json:"path"`
	Conversations int    `json:"conversations"`
	Error         string `json:"error,omitempty"`
}

// BackupService implements rpc.BackupServiceServer. Imports and exports
// run on the background worker and are recorded in the store.
type BackupService struct {
	sessionName string
	importer    *importer.Importer
	exporter    *exporter.Exporter
	worker      *worker.Worker
	db          *store.DB
	settings    *config.SettingsStore
	machine     *status.Machine
	bus         *bus.Bus
	logger      *zap.Logger
}

// NewBackupService creates the backup service.
func NewBackupService(
	sessionName string,
	im *importer.Importer,
	ex *exporter.Exporter,
	wk *worker.Worker,
	db *store.DB,
	settings *config.SettingsStore,
	machine *status.Machine,
	b *bus.Bus,
	logger *zap.Logger,
) *BackupService {
	return &BackupService{
		sessionName: sessionName,
		importer:    im,
		exporter:    ex,
		worker:      wk,
		db:          db,
		settings:    settings,
		machine:     machine,
		bus:         b,
		logger:      logging.OrNop(logger),
	}
}

// Import queues the import and streams its events until it finishes. If the
// client goes away the import still runs to completion.
func (s *BackupService) Import(req *rpc.ImportRequest, stream rpc.ServerStream[rpc.ImportEvent]) error {
	if strings.TrimSpace(req.Path) == "" {
		return grpcstatus.Error(codes.InvalidArgument, "path is required")
	}

	cfg := s.settings.Snapshot()
	opts := importer.Options{
		ImportSMS: orDefault(req.ImportSMS, cfg.ImportSMS),
		ImportMMS: orDefault(req.ImportMMS, cfg.ImportMMS),
		RunID:     uuid.NewString(),
	}

	release, err := s.machine.Enter(status.Importing)
	if err != nil {
		return grpcstatus.Errorf(codes.FailedPrecondition, "cannot import now: %v", err)
	}
	if err := s.db.StartImportRun(opts.RunID, req.Path); err != nil {
		release()
		return grpcstatus.Errorf(codes.Internal, "record import run: %v", err)
	}

	events, unsub := s.bus.Subscribe("import.", 256)
	defer unsub()

	done := make(chan importer.Report, 1)
	err = s.importer.ImportAsync(req.Path, opts, nil, func(rep importer.Report, _ error) {
		if err := s.db.FinishImportRun(rep.RunID, string(rep.Result), rep.Imported, rep.Failed); err != nil {
			s.logger.Error("failed to record import result", zap.String("run_id", rep.RunID), zap.Error(err))
		}
		release()
		done <- rep
	})
	if err != nil {
		release()
		_ = s.db.FinishImportRun(opts.RunID, string(importer.ResultFail), 0, 1)
		return grpcstatus.Errorf(codes.Unavailable, "queue import: %v", err)
	}

	for {
		select {
		case evt := <-events:
			if out, ok := importEvent(evt, opts.RunID); ok {
				if err := stream.Send(out); err != nil {
					return err
				}
			}
		case rep := <-done:
			for drained := false; !drained; {
				select {
				case evt := <-events:
					if out, ok := importEvent(evt, opts.RunID); ok {
						if err := stream.Send(out); err != nil {
							return err
						}
					}
				default:
					drained = true
				}
			}
			return stream.Send(&rpc.ImportEvent{
				Kind:     rpc.ImportFinished,
				RunID:    rep.RunID,
				Result:   string(rep.Result),
				Imported: rep.Imported,
				Failed:   rep.Failed,
			})
		case <-stream.Context().Done():
			return nil
		}
	}
}

// importEvent converts bus events of run runID. The finished event is sent
// from the report instead.
func importEvent(evt bus.Event, runID string) (*rpc.ImportEvent, bool) {
	switch p := evt.Payload.(type) {
	case importer.StartedPayload:
		if p.RunID == runID {
			return &rpc.ImportEvent{Kind: rpc.ImportStarted, RunID: p.RunID}, true
		}
	case importer.ProgressPayload:
		if p.RunID == runID {
			return &rpc.ImportEvent{
				Kind:     rpc.ImportProgress,
				RunID:    p.RunID,
				Total:    p.Total,
				Current:  p.Current,
				Imported: p.Imported,
				Failed:   p.Failed,
			}, true
		}
	case importer.FailurePayload:
		if p.RunID == runID {
			return &rpc.ImportEvent{Kind: rpc.ImportRecordFailed, RunID: p.RunID, Error: p.Error, Fatal: p.Fatal}, true
		}
	}
	return nil, false
}

func (s *BackupService) Export(ctx context.Context, req *rpc.ExportRequest) (*rpc.ExportResponse, error) {
	if strings.TrimSpace(req.Path) == "" {
		return nil, grpcstatus.Error(codes.InvalidArgument, "path is required")
	}
	cfg := s.settings.Snapshot()
	opts := exporter.Options{
		ExportSMS: orDefault(req.ExportSMS, cfg.ExportSMS),
		ExportMMS: orDefault(req.ExportMMS, cfg.ExportMMS),
	}

	release, err := s.machine.Enter(status.Exporting)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.FailedPrecondition, "cannot export now: %v", err)
	}

	type result struct {
		rep exporter.Report
		err error
	}
	done := make(chan result, 1)
	err = s.worker.Submit(func(wctx context.Context) {
		defer release()
		rep, err := s.exportTo(wctx, req.Path, opts)
		payload := ExportPayload{Path: req.Path, Conversations: rep.Conversations}
		if err != nil {
			payload.Error = err.Error()
		}
		s.bus.Emit(bus.KindExportFinished, payload)
		done <- result{rep, err}
	})
	if err != nil {
		release()
		return nil, grpcstatus.Errorf(codes.Unavailable, "queue export: %v", err)
	}

	select {
	case r := <-done:
		if r.err != nil {
			return nil, grpcstatus.Errorf(codes.Internal, "export: %v", r.err)
		}
		return &rpc.ExportResponse{
			Path:          req.Path,
			Conversations: r.rep.Conversations,
			SMS:           r.rep.SMS,
			MMS:           r.rep.MMS,
		}, nil
	case <-ctx.Done():
		return nil, grpcstatus.FromContextError(ctx.Err()).Err()
	}
}

func (s *BackupService) exportTo(ctx context.Context, path string, opts exporter.Options) (exporter.Report, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return exporter.Report{}, err
	}
	rep, err := s.exporter.Export(ctx, f, opts, nil)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return rep, fmt.Errorf("write %s: %w", path, err)
	}
	return rep, nil
}

func (s *BackupService) ListImportRuns(_ context.Context, req *rpc.ListImportRunsRequest) (*rpc.ListImportRunsResponse, error) {
	runs, err := s.db.ListImportRuns(req.Limit)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "list import runs: %v", err)
	}
	out := make([]rpc.ImportRun, 0, len(runs))
	for _, r := range runs {
		out = append(out, rpc.ImportRun{
			ID:         r.ID,
			Source:     r.Source,
			Result:     r.Result,
			Imported:   r.Imported,
			Failed:     r.Failed,
			StartedAt:  r.StartedAt,
			FinishedAt: r.FinishedAt,
		})
	}
	return &rpc.ListImportRunsResponse{Runs: out}, nil
}

func (s *BackupService) GetSettings(_ context.Context, _ *rpc.GetSettingsRequest) (*rpc.SettingsResponse, error) {
	return &rpc.SettingsResponse{Settings: settingsToRPC(s.settings.Snapshot())}, nil
}

func (s *BackupService) UpdateSettings(_ context.Context, req *rpc.UpdateSettingsRequest) (*rpc.SettingsResponse, error) {
	cur := s.settings.Snapshot()
	if req.ImportSMS != nil || req.ImportMMS != nil {
		if err := s.settings.SetImportToggles(orDefault(req.ImportSMS, cur.ImportSMS), orDefault(req.ImportMMS, cur.ImportMMS)); err != nil {
			return nil, grpcstatus.Errorf(codes.Internal, "save settings: %v", err)
		}
	}
	if req.ExportSMS != nil || req.ExportMMS != nil {
		if err := s.settings.SetExportToggles(orDefault(req.ExportSMS, cur.ExportSMS), orDefault(req.ExportMMS, cur.ExportMMS)); err != nil {
			return nil, grpcstatus.Errorf(codes.Internal, "save settings: %v", err)
		}
	}
	return &rpc.SettingsResponse{Settings: settingsToRPC(s.settings.Snapshot())}, nil
}

// WatchEvents forwards bus events under req.Namespace until the client
// disconnects.
func (s *BackupService) WatchEvents(req *rpc.WatchEventsRequest, stream rpc.ServerStream[rpc.EventEnvelope]) error {
	ch, unsub := s.bus.Subscribe(req.Namespace, 256)
	defer unsub()

	for {
		select {
		case evt := <-ch:
			env := &rpc.EventEnvelope{
				EventID:          uuid.New().String(),
				Session:          s.sessionName,
				Kind:             evt.Kind,
				OccurredAtUnixMs: evt.Timestamp.UnixMilli(),
			}
			if evt.Payload != nil {
				payload, err := json.Marshal(evt.Payload)
				if err != nil {
					s.logger.Warn("dropping unencodable event payload", zap.String("kind", evt.Kind), zap.Error(err))
				} else {
					env.Payload = payload
				}
			}
			if err := stream.Send(env); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		}
	}
}

func settingsToRPC(cfg config.Settings) rpc.Settings {
	out := rpc.Settings{
		ImportSMS: cfg.ImportSMS,
		ImportMMS: cfg.ImportMMS,
		ExportSMS: cfg.ExportSMS,
		ExportMMS: cfg.ExportMMS,
	}
	for _, key := range cfg.PinnedConversations {
		if id, err := strconv.ParseInt(key, 10, 64); err == nil {
			out.Pinned = append(out.Pinned, id)
		}
	}
	return out
}

func orDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
