package models

import (
	"context"
	"time"
)

// Keys of the fetched batch.
const (
	SourceGitHubTrending = "github_trending"
	SourceProductHunt    = "product_hunt"
	SourceRSSArticles    = "rss_articles"
	SourcePredictions    = "predictions"
)

// Record is one item pulled from an upstream source. Fields that a source does
// not provide are left at their zero value.
type Record struct {
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	FetchedAt   time.Time `json:"fetched_at"`

	// GitHub Trending
	Language   string `json:"language,omitempty"`
	Stars      int    `json:"stars,omitempty"`
	StarsToday int    `json:"stars_today,omitempty"`

	// Product Hunt
	Tagline  string   `json:"tagline,omitempty"`
	Website  string   `json:"website,omitempty"`
	Votes    int      `json:"votes,omitempty"`
	Comments int      `json:"comments,omitempty"`
	Topics   []string `json:"topics,omitempty"`

	// Manifold
	Probability float64 `json:"probability,omitempty"`
	Volume      float64 `json:"volume,omitempty"`
}

// Batch maps a source key to the records fetched from it in one run.
type Batch map[string][]Record

func (b Batch) Total() int {
	total := 0
	for _, records := range b {
		total += len(records)
	}
	return total
}

type Source interface {
	Fetch(ctx context.Context, limit int) ([]Record, error)
	Name() string
}
