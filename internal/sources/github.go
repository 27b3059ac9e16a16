package sources

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/ObiAU/techpulse/internal/httpclient"
	"github.com/ObiAU/techpulse/internal/models"
)

const githubTrendingURL = "https://github.com/trending"

// GitHubTrendingClient scrapes the public trending page; there is no API for
// it.
type GitHubTrendingClient struct {
	client *httpclient.Client
	url    string
}

func NewGitHubTrendingClient(client *httpclient.Client) *GitHubTrendingClient {
	return &GitHubTrendingClient{client: client, url: githubTrendingURL}
}

func (c *GitHubTrendingClient) Fetch(ctx context.Context, limit int) ([]models.Record, error) {
	var body []byte
	if err := c.client.SendAndParse(ctx, &httpclient.RequestOptions{URL: c.url}, &body); err != nil {
		return nil, fmt.Errorf("github trending: %w", err)
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse trending page: %w", err)
	}

	return parseTrending(doc, limit, time.Now().UTC()), nil
}

func (c *GitHubTrendingClient) Name() string {
	return models.SourceGitHubTrending
}

func parseTrending(doc *html.Node, limit int, fetchedAt time.Time) []models.Record {
	rows := findAll(doc, func(n *html.Node) bool {
		return n.Data == "article" && hasClass(n, "Box-row")
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}

	records := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		heading := findFirst(row, func(n *html.Node) bool {
			return n.Data == "h2" && hasClass(n, "h3")
		})
		if heading == nil {
			continue
		}
		link := findFirst(heading, func(n *html.Node) bool { return n.Data == "a" })
		if link == nil {
			continue
		}
		href := attr(link, "href")
		name := strings.Trim(href, "/")
		if name == "" {
			continue
		}

		description := "No description"
		if p := findFirst(row, func(n *html.Node) bool { return n.Data == "p" && hasClass(n, "col-9") }); p != nil {
			description = textContent(p)
		}

		language := "Unknown"
		if span := findFirst(row, func(n *html.Node) bool {
			return n.Data == "span" && attr(n, "itemprop") == "programmingLanguage"
		}); span != nil {
			language = textContent(span)
		}

		stars := 0
		if a := findFirst(row, func(n *html.Node) bool {
			return n.Data == "a" && attr(n, "href") == href+"/stargazers"
		}); a != nil {
			stars = parseStarCount(textContent(a))
		}

		starsToday := 0
		if span := findFirst(row, func(n *html.Node) bool {
			return n.Data == "span" && hasClass(n, "d-inline-block") && hasClass(n, "float-sm-right")
		}); span != nil {
			if text := textContent(span); strings.Contains(text, "stars today") {
				starsToday = parseStarCount(strings.Fields(text)[0])
			}
		}

		records = append(records, models.Record{
			Source:      "GitHub Trending",
			Title:       name,
			Description: description,
			URL:         "https://github.com/" + name,
			FetchedAt:   fetchedAt,
			Language:    language,
			Stars:       stars,
			StarsToday:  starsToday,
		})
	}

	return records
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(n)
	return out
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && match(c) {
			return c
		}
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
