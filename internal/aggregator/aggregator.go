package aggregator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ObiAU/techpulse/internal/cache"
	"github.com/ObiAU/techpulse/internal/config"
	"github.com/ObiAU/techpulse/internal/logger"
	"github.com/ObiAU/techpulse/internal/metrics"
	"github.com/ObiAU/techpulse/internal/models"
	"github.com/ObiAU/techpulse/internal/processor"
	"github.com/ObiAU/techpulse/internal/sources"
	"github.com/ObiAU/techpulse/internal/storage"
)

// Notifier receives the pulse of every successful run.
type Notifier interface {
	SendDigest(ctx context.Context, runID string, pulse *models.Pulse) error
}

// Deps are the collaborators of a run. Remote, Notifier, Metrics and Cache
// may be nil.
type Deps struct {
	Jobs      []sources.Job
	Processor *processor.Processor
	Local     *storage.LocalStore
	Remote    storage.RecordStore
	Notifier  Notifier
	Metrics   *metrics.Recorder
	Cache     cache.Store
	Log       *logger.Logger
}

// RunSummary describes one finished run.
type RunSummary struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Records    map[string]int `json:"records"`
	FilePath   string         `json:"file_path,omitempty"`
	Stored     bool           `json:"stored"`
	Notified   bool           `json:"notified"`
	Error      string         `json:"error,omitempty"`
}

type Aggregator struct {
	config *config.Config
	deps   Deps
	log    *logger.Logger
	server *echo.Echo

	mu        sync.RWMutex
	running   bool
	runs      int
	lastRun   *RunSummary
	lastPulse *models.Pulse
	lastRunID string
}

func New(cfg *config.Config, deps Deps) *Aggregator {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	a := &Aggregator{config: cfg, deps: deps, log: log}
	a.server = a.newServer()
	return a
}

// RunOnce fetches every source, builds the pulse and persists it. A local
// write failure aborts the run; a remote store failure is returned after the
// local file has been written.
func (a *Aggregator) RunOnce(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Records:   make(map[string]int),
	}
	log := a.log.With(logger.String("run_id", summary.RunID))
	log.Info("run started")

	err := a.run(ctx, log, summary)

	summary.FinishedAt = time.Now().UTC()
	if err != nil {
		summary.Error = err.Error()
		log.Error("run failed", logger.Error(err))
	} else {
		log.Info("run complete",
			logger.Int("records", totalRecords(summary.Records)),
			logger.String("file", summary.FilePath),
			logger.Bool("stored", summary.Stored),
			logger.Duration("elapsed", summary.FinishedAt.Sub(summary.StartedAt)))
	}
	if a.deps.Metrics != nil {
		a.deps.Metrics.RecordRun(summary.FinishedAt.Sub(summary.StartedAt), err, summary.FinishedAt)
	}

	a.mu.Lock()
	a.runs++
	a.lastRun = summary
	a.mu.Unlock()

	return summary, err
}

func (a *Aggregator) run(ctx context.Context, log *logger.Logger, summary *RunSummary) error {
	var observer sources.FetchObserver
	if a.deps.Metrics != nil {
		observer = a.deps.Metrics
	}

	batch := sources.FetchAll(ctx, a.deps.Jobs, log, observer)
	for name, records := range batch {
		summary.Records[name] = len(records)
	}

	pulse := a.deps.Processor.Process(ctx, batch)
	if pulse.Empty() {
		log.Warn("every source came back empty, nothing to save")
		return nil
	}

	path, err := a.deps.Local.Save(pulse)
	if err != nil {
		a.recordPersistError("local")
		return fmt.Errorf("save pulse locally: %w", err)
	}
	summary.FilePath = path
	log.Info("pulse saved", logger.String("path", path))

	a.mu.Lock()
	a.lastPulse = pulse
	a.lastRunID = summary.RunID
	a.mu.Unlock()

	if a.deps.Remote == nil {
		log.Warn("record store disabled, pulse kept locally only")
	} else {
		data, err := json.Marshal(pulse)
		if err != nil {
			return fmt.Errorf("encode pulse: %w", err)
		}
		row := storage.Row{ID: summary.RunID, CreatedAt: summary.StartedAt, PulseData: string(data)}
		if err := a.deps.Remote.Insert(ctx, row); err != nil {
			a.recordPersistError(a.deps.Remote.Name())
			return fmt.Errorf("store pulse in %s: %w", a.deps.Remote.Name(), err)
		}
		summary.Stored = true
		log.Info("pulse stored", logger.String("store", a.deps.Remote.Name()))
	}

	if a.deps.Notifier != nil {
		if err := a.deps.Notifier.SendDigest(ctx, summary.RunID, pulse); err != nil {
			log.Warn("digest not sent", logger.Error(err))
		} else {
			summary.Notified = true
		}
	}

	return nil
}

// Run serves the status endpoints and runs the pipeline now and then every
// run.interval until ctx is done.
func (a *Aggregator) Run(ctx context.Context) error {
	a.setRunning(true)
	defer a.setRunning(false)

	a.loadLatest()

	addr := fmt.Sprintf(":%d", a.config.Server.Port)
	go func() {
		a.log.Info("status server listening", logger.String("addr", addr))
		if err := a.server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("status server error", logger.Error(err))
		}
	}()

	a.loop(ctx)
	return a.shutdown()
}

func (a *Aggregator) loop(ctx context.Context) {
	_, _ = a.RunOnce(ctx)

	ticker := time.NewTicker(a.config.Run.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = a.RunOnce(ctx)
		}
	}
}

// Latest returns the most recent pulse and its run id, if any.
func (a *Aggregator) Latest() (string, *models.Pulse) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastRunID, a.lastPulse
}

// loadLatest picks up the newest pulse file so a restarted server has
// something to show before its first run finishes.
func (a *Aggregator) loadLatest() {
	pulse, path, err := a.deps.Local.Latest()
	if err != nil {
		if !errors.Is(err, storage.ErrNoPulse) {
			a.log.Warn("could not load previous pulse", logger.Error(err))
		}
		return
	}

	a.mu.Lock()
	if a.lastPulse == nil {
		a.lastPulse = pulse
	}
	a.mu.Unlock()
	a.log.Info("previous pulse loaded", logger.String("path", path))
}

func (a *Aggregator) recordPersistError(destination string) {
	if a.deps.Metrics != nil {
		a.deps.Metrics.RecordPersistError(destination)
	}
}

func (a *Aggregator) setRunning(running bool) {
	a.mu.Lock()
	a.running = running
	a.mu.Unlock()
}

func (a *Aggregator) shutdown() error {
	a.log.Info("shutting down status server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown status server: %w", err)
	}
	return nil
}

func totalRecords(counts map[string]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}
