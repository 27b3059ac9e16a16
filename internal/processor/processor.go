package processor

import (
	"context"
	"time"

	"github.com/ObiAU/techpulse/internal/ai"
	"github.com/ObiAU/techpulse/internal/logger"
	"github.com/ObiAU/techpulse/internal/models"
)

// OracleObserver is told about every oracle round-trip a transform makes.
type OracleObserver interface {
	ObserveOracleCall(site string, err error, elapsed time.Duration)
}

// Processor turns fetched records into chart-ready sections. A nil oracle
// disables the oracle-backed transforms, which then return their empty
// shapes.
type Processor struct {
	oracle   ai.Oracle
	log      *logger.Logger
	observer OracleObserver
}

type Option func(*Processor)

func WithObserver(o OracleObserver) Option {
	return func(p *Processor) {
		p.observer = o
	}
}

func New(oracle ai.Oracle, log *logger.Logger, opts ...Option) *Processor {
	p := &Processor{oracle: oracle, log: log}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process builds the pulse document for one run. Transforms run one after
// another and only for sources that returned records.
func (p *Processor) Process(ctx context.Context, batch models.Batch) *models.Pulse {
	pulse := &models.Pulse{}

	if records := batch[models.SourceGitHubTrending]; len(records) > 0 {
		pulse.LanguageDistribution = LanguageDistribution(records)
	}
	if records := batch[models.SourceRSSArticles]; len(records) > 0 {
		pulse.NewsWordCloud = p.NewsWordCloud(ctx, records)
	}
	if records := batch[models.SourceProductHunt]; len(records) > 0 {
		pulse.TagConnections = p.TagConnections(ctx, records)
	}
	if records := batch[models.SourcePredictions]; len(records) > 0 {
		pulse.PredictionsPlot = p.PredictionsPlot(ctx, records)
	}

	return pulse
}

func (p *Processor) classify(ctx context.Context, site, instruction, payload string) (*ai.Result, error) {
	start := time.Now()
	res, err := p.oracle.Classify(ctx, instruction, payload)
	if p.observer != nil {
		p.observer.ObserveOracleCall(site, err, time.Since(start))
	}
	return res, err
}
