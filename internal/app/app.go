package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"beecam/internal/config"
	"beecam/internal/logger"
	"beecam/internal/repository"
	"beecam/internal/repository/sqlite"
	"beecam/internal/route"
	"beecam/internal/service/ai"
	"beecam/internal/service/camera"
	"beecam/internal/service/capture"
	"beecam/internal/service/imaging"
	journalsvc "beecam/internal/service/journal"
	"beecam/internal/service/led"
	"beecam/internal/service/query"
	"beecam/internal/service/watch"
	"beecam/internal/service/websocket"
	"beecam/internal/state"
	"beecam/internal/storage"
)

const shutdownTimeout = 5 * time.Second

// App owns every long running component of the server.
type App struct {
	config  *config.Config
	logger  *logger.Logger
	fs      afero.Fs
	runtime *state.Runtime

	db       *sqlite.DB
	journal  repository.JournalRepository
	buffer   *journalsvc.Buffer
	hub      *websocket.HubService
	camera   *camera.UDPSource
	detector []*ai.DetectorService
	pipeline *capture.Pipeline
	watcher  *watch.Watcher
	server   *http.Server
}

// NewApp loads the configuration, prepares the boot session on the artifact
// root and wires the capture and query services.
func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.ArtifactRoot, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact root: %w", err)
	}
	fs := afero.NewBasePathFs(afero.NewOsFs(), cfg.ArtifactRoot)
	rt := state.NewRuntime(cfg.InferEnabled, cfg.SaveEnabled)

	a := &App{config: cfg, logger: log, fs: fs, runtime: rt}
	a.scaffold()
	a.openJournal()

	a.hub = websocket.NewHubService(log)
	ledController := led.NewController(rt, led.Multi{
		led.LogIndicator{Logger: log},
		led.HubIndicator{Hub: a.hub},
	}, cfg.LEDThresholdPct)
	ledController.Init()

	bees := ai.NewDetectorService(ai.BeeOptions(cfg.ModelPath, cfg.ConfigPath, cfg.BeeThreshold, cfg.InputWidth, cfg.InputHeight), log)
	varroa := ai.NewDetectorService(ai.VarroaOptions(cfg.VarroaModelPath, cfg.VarroaConfigPath, cfg.VarroaThreshold, cfg.CropSize), log)
	a.detector = []*ai.DetectorService{bees, varroa}

	a.camera = camera.NewUDPSource(cfg.CameraPort, log)
	var recorder capture.Recorder
	if a.journal != nil {
		a.buffer = journalsvc.NewBuffer(a.journal, log)
		recorder = a.buffer
	}
	a.pipeline = capture.NewPipeline(capture.Deps{
		Config:  cfg,
		Runtime: rt,
		Source:  a.camera,
		Imager:  imaging.NewImager(),
		Bees:    bees,
		Varroa:  varroa,
		Store:   storage.NewFileStore(fs, rt, imaging.Encoder{}, log),
		Journal: recorder,
		Hub:     a.hub,
		LED:     ledController,
		Logger:  log,
	})
	a.watcher = watch.New(cfg.ArtifactRoot, a.hub, log)

	a.server = &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		Handler: route.SetupRoutes(route.Deps{
			Password: cfg.Password,
			Fs:       fs,
			Runtime:  rt,
			Query:    query.NewService(fs, log),
			Hub:      a.hub,
			Journal:  a.journal,
			Logger:   log,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// scaffold prepares the session tree. On failure storage stays unavailable
// for this boot and every write becomes a no-op.
func (a *App) scaffold() {
	tree := storage.NewTree(a.fs, a.logger)
	scaffolder := storage.NewScaffolder(a.fs, tree, storage.NewAllocator(a.fs, tree, a.logger), a.logger)

	session, logFile, err := scaffolder.Scaffold()
	if err != nil {
		a.logger.Error("Storage unavailable for this boot: %v", err)
		a.runtime.SetStorageOK(false)
		return
	}
	a.runtime.SetStorageOK(true)
	a.runtime.SetSession(session)
	a.logger.AttachSession(logFile, a.runtime.StorageOK)
}

func (a *App) openJournal() {
	if err := os.MkdirAll(filepath.Dir(a.config.DatabasePath), 0755); err != nil {
		a.logger.Warning("Journal disabled: %v", err)
		return
	}
	db, err := sqlite.New(a.config.DatabasePath)
	if err != nil {
		a.logger.Warning("Journal disabled: %v", err)
		return
	}
	a.db = db
	a.journal = sqlite.NewJournalRepository(db)
}

// Run serves until ctx is cancelled and then shuts every component down.
func (a *App) Run(ctx context.Context) error {
	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("failed to open camera port: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		return a.camera.Serve(ctx)
	})
	g.Go(func() error {
		a.pipeline.Run(ctx)
		return nil
	})
	if a.buffer != nil {
		g.Go(func() error {
			return a.buffer.Run(ctx)
		})
	}
	if session := a.runtime.Session(); session != nil {
		g.Go(func() error {
			if err := a.watcher.Run(ctx, session.BeeOverlaysDir, session.OverlaysMiteDir, session.OverlaysNoMiteDir); err != nil {
				a.logger.Warning("Overlay watcher stopped: %v", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		a.logger.Info("beecam listening on %s (artifacts in %s)", a.server.Addr, a.config.ArtifactRoot)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	a.close()
	return err
}

func (a *App) close() {
	for _, d := range a.detector {
		d.Close()
	}
	if err := a.logger.DetachSession(); err != nil {
		a.logger.Warning("Closing session log: %v", err)
	}
	if a.db != nil {
		a.db.Close()
	}
	a.logger.Info("beecam stopped")
}
