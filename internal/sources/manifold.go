package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ObiAU/techpulse/internal/httpclient"
	"github.com/ObiAU/techpulse/internal/models"
)

const (
	manifoldAPIURL         = "https://api.manifold.markets"
	manifoldScanLimit      = 200
	manifoldMinPool        = 1000
	manifoldActivityWindow = 7 * 24 * time.Hour
)

var techKeywords = []string{
	"ai", "gpt", "openai", "google", "apple", "meta", "tech", "programming",
	"software", "startup", "crypto", "llm", "agi", "microsoft", "amazon", "tesla",
	"nvidia", "chatgpt", "anthropic", "claude", "gemini", "bard", "twitter", "x.com",
	"spacex", "neuralink", "github", "bitcoin", "ethereum", "blockchain", "quantum", "data",
	"machine learning", "neural", "algorithm", "compute",
}

// ManifoldClient picks active, well funded binary markets about technology
// from the most recently traded Manifold markets.
type ManifoldClient struct {
	client  *httpclient.Client
	baseURL string
	now     func() time.Time
}

type manifoldMarket struct {
	Question    string          `json:"question"`
	URL         string          `json:"url"`
	OutcomeType string          `json:"outcomeType"`
	IsResolved  bool            `json:"isResolved"`
	Pool        json.RawMessage `json:"pool"`
	Probability float64         `json:"probability"`
	Volume      float64         `json:"volume"`
	LastBetTime int64           `json:"lastBetTime"`
}

func NewManifoldClient(client *httpclient.Client) *ManifoldClient {
	return &ManifoldClient{client: client, baseURL: manifoldAPIURL, now: time.Now}
}

func (c *ManifoldClient) Fetch(ctx context.Context, limit int) ([]models.Record, error) {
	var markets []manifoldMarket
	err := c.client.SendAndParse(ctx, &httpclient.RequestOptions{
		URL: c.baseURL + "/v0/markets",
		QueryParams: map[string][]string{
			"limit": {fmt.Sprint(manifoldScanLimit)},
			"sort":  {"last-bet-time"},
		},
	}, &markets)
	if err != nil {
		return nil, fmt.Errorf("manifold markets: %w", err)
	}

	now := c.now()
	cutoff := now.Add(-manifoldActivityWindow).UnixMilli()

	var records []models.Record
	for _, m := range markets {
		if m.OutcomeType != "BINARY" || m.IsResolved {
			continue
		}
		pool, ok := poolTotal(m.Pool)
		if !ok || pool <= manifoldMinPool || m.LastBetTime < cutoff {
			continue
		}
		if !isTechQuestion(m.Question) {
			continue
		}

		records = append(records, models.Record{
			Source:      "Manifold Markets",
			Title:       m.Question,
			URL:         m.URL,
			FetchedAt:   now.UTC(),
			Probability: m.Probability,
			Volume:      m.Volume,
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Volume > records[j].Volume
	})
	if len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}

func (c *ManifoldClient) Name() string {
	return models.SourcePredictions
}

// poolTotal sums the YES and NO sides. Markets whose pool is not an object
// are skipped by the caller.
func poolTotal(raw json.RawMessage) (float64, bool) {
	var pool map[string]float64
	if len(raw) == 0 || json.Unmarshal(raw, &pool) != nil {
		return 0, false
	}
	return pool["YES"] + pool["NO"], true
}

func isTechQuestion(question string) bool {
	q := strings.ToLower(question)
	for _, kw := range techKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}
