package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/ObiAU/techpulse/internal/httpclient"
	"github.com/ObiAU/techpulse/internal/logger"
	"github.com/ObiAU/techpulse/internal/models"
)

const (
	productHuntAPIURL  = "https://api.producthunt.com/v2/api/graphql"
	productHuntFeedURL = "https://www.producthunt.com/feed"
)

const productHuntQuery = `query todaysPosts($first: Int!) {
  posts(order: VOTES, first: $first) {
    edges {
      node {
        name
        tagline
        description
        votesCount
        commentsCount
        url
        website
        topics { edges { node { name } } }
      }
    }
  }
}`

var errNoProductHuntToken = errors.New("no product hunt token")

// ProductHuntClient reads today's top posts from the GraphQL API and falls
// back to the public RSS feed whenever the API cannot be used.
type ProductHuntClient struct {
	token   string
	client  *httpclient.Client
	apiURL  string
	feedURL string
	log     *logger.Logger
}

type productHuntResponse struct {
	Data struct {
		Posts struct {
			Edges []struct {
				Node productHuntPost `json:"node"`
			} `json:"edges"`
		} `json:"posts"`
	} `json:"data"`
	Errors []json.RawMessage `json:"errors"`
}

type productHuntPost struct {
	Name          string `json:"name"`
	Tagline       string `json:"tagline"`
	Description   string `json:"description"`
	VotesCount    int    `json:"votesCount"`
	CommentsCount int    `json:"commentsCount"`
	URL           string `json:"url"`
	Website       string `json:"website"`
	Topics        struct {
		Edges []struct {
			Node struct {
				Name string `json:"name"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"topics"`
}

func NewProductHuntClient(token string, client *httpclient.Client, log *logger.Logger) *ProductHuntClient {
	return &ProductHuntClient{
		token:   token,
		client:  client,
		apiURL:  productHuntAPIURL,
		feedURL: productHuntFeedURL,
		log:     log,
	}
}

func (c *ProductHuntClient) Fetch(ctx context.Context, limit int) ([]models.Record, error) {
	records, err := c.fetchAPI(ctx, limit)
	if err == nil {
		return records, nil
	}

	c.log.Warn("product hunt api unavailable, using rss feed", logger.Error(err))
	return c.fetchFeed(ctx, limit)
}

func (c *ProductHuntClient) Name() string {
	return models.SourceProductHunt
}

func (c *ProductHuntClient) fetchAPI(ctx context.Context, limit int) ([]models.Record, error) {
	if c.token == "" {
		return nil, errNoProductHuntToken
	}

	var resp productHuntResponse
	err := c.client.SendAndParse(ctx, &httpclient.RequestOptions{
		Method: "POST",
		URL:    c.apiURL,
		Headers: map[string]string{
			"Authorization": "Bearer " + c.token,
			"Accept":        "application/json",
		},
		Body: map[string]interface{}{
			"query":     productHuntQuery,
			"variables": map[string]int{"first": limit},
		},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("graphql errors: %s", resp.Errors[0])
	}

	now := time.Now().UTC()
	records := make([]models.Record, 0, len(resp.Data.Posts.Edges))
	for _, edge := range resp.Data.Posts.Edges {
		post := edge.Node

		topics := make([]string, 0, len(post.Topics.Edges))
		for _, t := range post.Topics.Edges {
			topics = append(topics, t.Node.Name)
		}

		description := post.Description
		if description == "" {
			description = post.Tagline
		}

		records = append(records, models.Record{
			Source:      "Product Hunt",
			Title:       post.Name,
			Description: description,
			URL:         post.URL,
			FetchedAt:   now,
			Tagline:     post.Tagline,
			Website:     post.Website,
			Votes:       post.VotesCount,
			Comments:    post.CommentsCount,
			Topics:      topics,
		})
	}

	return records, nil
}

func (c *ProductHuntClient) fetchFeed(ctx context.Context, limit int) ([]models.Record, error) {
	feed, err := newFeedParser(c.client).ParseURLWithContext(c.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("product hunt feed: %w", err)
	}

	now := time.Now().UTC()
	records := make([]models.Record, 0, limit)
	for _, item := range feed.Items {
		if len(records) == limit {
			break
		}
		title := item.Title
		if title == "" {
			title = "Unknown"
		}
		records = append(records, models.Record{
			Source:      "Product Hunt (RSS)",
			Title:       title,
			Description: stripHTML(item.Description),
			URL:         item.Link,
			FetchedAt:   now,
		})
	}

	return records, nil
}

func newFeedParser(client *httpclient.Client) *gofeed.Parser {
	fp := gofeed.NewParser()
	fp.Client = client.HTTPClient()
	if ua := client.UserAgent(); ua != "" {
		fp.UserAgent = ua
	}
	return fp
}
