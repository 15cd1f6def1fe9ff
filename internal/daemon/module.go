package daemon

import (
	"context"

	"github.com/matheus3301/sms/internal/api"
	"github.com/matheus3301/sms/internal/assets"
	"github.com/matheus3301/sms/internal/bus"
	"github.com/matheus3301/sms/internal/config"
	"github.com/matheus3301/sms/internal/exporter"
	"github.com/matheus3301/sms/internal/importer"
	"github.com/matheus3301/sms/internal/ingest"
	"github.com/matheus3301/sms/internal/lock"
	"github.com/matheus3301/sms/internal/logging"
	"github.com/matheus3301/sms/internal/session"
	"github.com/matheus3301/sms/internal/status"
	"github.com/matheus3301/sms/internal/store"
	"github.com/matheus3301/sms/internal/worker"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
	SocketPath  string // optional override for testing; empty = use default
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideSettings,
			provideWorker,
			provideWriter,
			provideImporter,
			provideExporter,
			provideSessionService,
			provideConversationService,
			provideMessageService,
			provideBackupService,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	return logging.New(session.LogPath(p.SessionName), p.SessionName)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	logger.Info("acquiring session lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(session.Dir(p.SessionName))
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	return l, nil
}

// provideStore depends on the lock so the database is only opened by the
// daemon that owns the session.
func provideStore(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := session.DBPath(p.SessionName)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideSettings(p Params, logger *zap.Logger) (*config.SettingsStore, error) {
	st, err := config.OpenSettings(session.SettingsPath(p.SessionName))
	if err != nil {
		return nil, err
	}
	s := st.Snapshot()
	logger.Info("settings loaded",
		zap.Bool("import_sms", s.ImportSMS),
		zap.Bool("import_mms", s.ImportMMS),
		zap.Int("pinned", len(s.PinnedConversations)))
	return st, nil
}

func provideWorker(logger *zap.Logger) *worker.Worker {
	return worker.New(8, logger.Named("worker"))
}

func provideWriter(db *store.DB, b *bus.Bus, logger *zap.Logger) *ingest.Writer {
	return ingest.NewWriter(db, b, logger.Named("ingest"))
}

func provideImporter(w *ingest.Writer, wk *worker.Worker, b *bus.Bus, logger *zap.Logger) *importer.Importer {
	return importer.New(w, assets.FS, wk, b, logger.Named("importer"))
}

func provideExporter(db *store.DB, logger *zap.Logger) *exporter.Exporter {
	return exporter.New(db, logger.Named("exporter"))
}

func provideSessionService(p Params, m *status.Machine, db *store.DB) *api.SessionService {
	return api.NewSessionService(p.SessionName, m, db)
}

func provideConversationService(db *store.DB, settings *config.SettingsStore, b *bus.Bus) *api.ConversationService {
	return api.NewConversationService(db, settings, b)
}

func provideMessageService(db *store.DB) *api.MessageService {
	return api.NewMessageService(db)
}

func provideBackupService(
	p Params,
	im *importer.Importer,
	ex *exporter.Exporter,
	wk *worker.Worker,
	db *store.DB,
	settings *config.SettingsStore,
	m *status.Machine,
	b *bus.Bus,
	logger *zap.Logger,
) *api.BackupService {
	return api.NewBackupService(p.SessionName, im, ex, wk, db, settings, m, b, logger.Named("backup"))
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, lk *lock.Lock, db *store.DB, wk *worker.Worker, machine *status.Machine, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			wk.Start(context.Background())

			// Start gRPC server in background.
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
					_ = machine.Transition(status.Error)
				}
			}()

			return machine.Transition(status.Ready)
		},
		OnStop: func(ctx context.Context) error {
			srv.Stop(ctx)
			wk.Stop()
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
