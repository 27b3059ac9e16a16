package sources

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ObiAU/techpulse/internal/config"
	"github.com/ObiAU/techpulse/internal/httpclient"
	"github.com/ObiAU/techpulse/internal/logger"
	"github.com/ObiAU/techpulse/internal/models"
)

// FetchObserver is told how every source fetch went.
type FetchObserver interface {
	ObserveFetch(source string, records int, err error, elapsed time.Duration)
}

// Job pairs a source with the number of items to take from it.
type Job struct {
	Source models.Source
	Limit  int
}

// DefaultJobs wires the four upstream sources from cfg.
func DefaultJobs(cfg *config.Config, log *logger.Logger) []Job {
	client := httpclient.New(
		httpclient.WithTimeout(cfg.Sources.HTTPTimeout),
		httpclient.WithUserAgent(cfg.Sources.UserAgent),
	)

	return []Job{
		{Source: NewGitHubTrendingClient(client), Limit: cfg.Sources.GitHubLimit},
		{Source: NewProductHuntClient(cfg.Sources.ProductHuntToken, client, log), Limit: cfg.Sources.ProductHuntLimit},
		{Source: NewRSSClient(nil, client, log), Limit: cfg.Sources.RSSPerFeed},
		{Source: NewManifoldClient(client), Limit: cfg.Sources.ManifoldLimit},
	}
}

// FetchAll runs every job concurrently. A failing source contributes an
// empty list; FetchAll itself never fails.
func FetchAll(ctx context.Context, jobs []Job, log *logger.Logger, observer FetchObserver) models.Batch {
	var (
		mu    sync.Mutex
		batch = make(models.Batch, len(jobs))
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			name := job.Source.Name()
			start := time.Now()

			records, err := job.Source.Fetch(gctx, job.Limit)
			elapsed := time.Since(start)
			if observer != nil {
				observer.ObserveFetch(name, len(records), err, elapsed)
			}

			if err != nil {
				log.Error("source fetch failed", logger.String("source", name), logger.Error(err))
				records = nil
			} else {
				log.Info("source fetched",
					logger.String("source", name),
					logger.Int("records", len(records)),
					logger.Duration("elapsed", elapsed))
			}
			if records == nil {
				records = []models.Record{}
			}

			mu.Lock()
			batch[name] = records
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return batch
}
