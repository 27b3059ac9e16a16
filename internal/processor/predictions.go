package processor

import (
	"context"
	"fmt"
	"strings"

	"github.com/ObiAU/techpulse/internal/logger"
	"github.com/ObiAU/techpulse/internal/models"
)

// PredictionCategories are the categories a market question can be filed
// under. Anything the oracle invents maps to "Other".
var PredictionCategories = []string{
	"AI & Machine Learning",
	"Big Tech",
	"Crypto & Web3",
	"Space & Hardware",
	"Policy & Regulation",
	"Startups & Business",
	"Other",
}

const (
	predictionDatasetLabel = "Tech Prediction Markets"
	otherCategory          = "Other"
	fallbackProbability    = 0.5
)

var predictionInstruction = fmt.Sprintf(`You classify prediction market questions about technology. Pick exactly one category from: %s.
Respond with a JSON object: {"category": "<one category, spelled exactly as given>"}`,
	strings.Join(PredictionCategories, ", "))

// PredictionsPlot places every market on a probability/volume plane. A
// market whose classification fails is still plotted, at (0.5, 0) as Other.
func (p *Processor) PredictionsPlot(ctx context.Context, records []models.Record) *models.PredictionPlot {
	categories := make([]string, len(PredictionCategories))
	copy(categories, PredictionCategories)

	dataset := models.PredictionDataset{Label: predictionDatasetLabel, Data: []models.PlotPoint{}}
	plot := &models.PredictionPlot{Categories: categories}

	if p.oracle == nil {
		p.log.Warn("oracle disabled, skipping prediction plot", logger.Int("markets", len(records)))
		plot.Datasets = []models.PredictionDataset{dataset}
		return plot
	}

	for _, r := range records {
		point := models.PlotPoint{
			X:     r.Probability,
			Y:     r.Volume,
			Label: r.Title,
			URL:   r.URL,
		}

		res, err := p.classify(ctx, "prediction_category", predictionInstruction, r.Title)
		if err != nil {
			p.log.Warn("market classification failed, using fallback point",
				logger.String("question", r.Title), logger.Error(err))
			point.X, point.Y, point.Category = fallbackProbability, 0, otherCategory
		} else {
			point.Category = canonicalPrediction(res.String("category"))
		}

		dataset.Data = append(dataset.Data, point)
	}

	plot.Datasets = []models.PredictionDataset{dataset}
	return plot
}

func canonicalPrediction(category string) string {
	for _, c := range PredictionCategories {
		if strings.EqualFold(c, category) {
			return c
		}
	}
	return otherCategory
}
