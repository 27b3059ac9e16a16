package sources

import (
	"context"
	"time"

	"github.com/ObiAU/techpulse/internal/httpclient"
	"github.com/ObiAU/techpulse/internal/logger"
	"github.com/ObiAU/techpulse/internal/models"
)

const (
	minDescriptionLength = 50
	maxDescriptionLength = 1500
	clippedDescription   = 997
)

type Feed struct {
	Name string
	URL  string
}

var DefaultFeeds = []Feed{
	{Name: "TechCrunch", URL: "https://techcrunch.com/feed/"},
	{Name: "The Verge", URL: "https://www.theverge.com/rss/index.xml"},
	{Name: "Ars Technica", URL: "https://feeds.arstechnica.com/arstechnica/index"},
	{Name: "MIT Tech Review", URL: "https://www.technologyreview.com/feed/"},
	{Name: "Hacker News Best", URL: "https://hnrss.org/best"},
}

// RSSClient reads a fixed set of tech news feeds. A feed that fails is
// logged and skipped.
type RSSClient struct {
	feeds  []Feed
	client *httpclient.Client
	pause  time.Duration
	log    *logger.Logger
}

func NewRSSClient(feeds []Feed, client *httpclient.Client, log *logger.Logger) *RSSClient {
	if len(feeds) == 0 {
		feeds = DefaultFeeds
	}
	return &RSSClient{
		feeds:  feeds,
		client: client,
		pause:  500 * time.Millisecond,
		log:    log,
	}
}

// Fetch takes up to limit entries from every feed.
func (c *RSSClient) Fetch(ctx context.Context, limit int) ([]models.Record, error) {
	parser := newFeedParser(c.client)
	seen := make(map[string]bool)

	var records []models.Record
	for i, feed := range c.feeds {
		if i > 0 && c.pause > 0 {
			select {
			case <-ctx.Done():
				return records, ctx.Err()
			case <-time.After(c.pause):
			}
		}

		parsed, err := parser.ParseURLWithContext(feed.URL, ctx)
		if err != nil {
			c.log.Error("feed fetch failed", logger.String("feed", feed.Name), logger.Error(err))
			continue
		}

		now := time.Now().UTC()
		taken := 0
		for _, item := range parsed.Items {
			if taken == limit {
				break
			}
			taken++

			text := item.Description
			if text == "" {
				text = item.Content
			}
			description := clipDescription(stripHTML(text), maxDescriptionLength, clippedDescription)
			if len([]rune(description)) < minDescriptionLength {
				continue
			}

			key := generateHash(item.Link + "\n" + item.Title)
			if seen[key] {
				continue
			}
			seen[key] = true

			title := item.Title
			if title == "" {
				title = "No title"
			}
			records = append(records, models.Record{
				Source:      "RSS - " + feed.Name,
				Title:       title,
				Description: description,
				URL:         item.Link,
				FetchedAt:   now,
			})
		}
	}

	return records, nil
}

func (c *RSSClient) Name() string {
	return models.SourceRSSArticles
}
