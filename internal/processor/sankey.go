package processor

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ObiAU/techpulse/internal/ai"
	"github.com/ObiAU/techpulse/internal/logger"
	"github.com/ObiAU/techpulse/internal/models"
)

// ProductCategories is the ordered node list of the co-occurrence graph. A
// node's identity is its index.
var ProductCategories = []string{
	"AI/ML",
	"Developer Tools",
	"Productivity",
	"Design",
	"Marketing",
	"Finance",
	"Health & Fitness",
	"Education",
	"Social & Community",
	"Entertainment",
	"Hardware",
	"Other",
}

const (
	categoryScoreThreshold = 3
	maxProductCategories   = 2
	shortTaglineLength     = 80
)

var categoryInstruction = fmt.Sprintf(`You classify tech products. Score how well the product fits each of these categories on a 1 to 10 scale: %s.
Respond with a JSON object that maps every category name, spelled exactly as given, to its integer score.`,
	strings.Join(ProductCategories, ", "))

// TagConnections assigns each product up to two categories and counts how
// often category pairs occur together. A product whose classification fails
// is filed under "Other" alone.
func (p *Processor) TagConnections(ctx context.Context, records []models.Record) *models.CategoryGraph {
	graph := &models.CategoryGraph{
		Nodes:             make([]models.CategoryNode, 0, len(ProductCategories)),
		Links:             []models.CategoryLink{},
		ProductCategories: []models.ProductAssignment{},
	}
	for _, name := range ProductCategories {
		graph.Nodes = append(graph.Nodes, models.CategoryNode{Name: name})
	}

	if p.oracle == nil {
		p.log.Warn("oracle disabled, skipping product category graph", logger.Int("products", len(records)))
		return graph
	}

	type pair struct{ source, target int }
	links := make(map[pair]*models.CategoryLink)

	for _, r := range records {
		categories, err := p.productCategories(ctx, r)
		if err != nil {
			p.log.Warn("product classification failed, using Other",
				logger.String("product", r.Title), logger.Error(err))
			categories = []string{"Other"}
		}

		ref := models.ProductRef{Title: r.Title, Tagline: shortTagline(r)}
		graph.ProductCategories = append(graph.ProductCategories, models.ProductAssignment{
			Title:      r.Title,
			Tagline:    ref.Tagline,
			Categories: categories,
		})

		for i := 0; i < len(categories); i++ {
			for j := i + 1; j < len(categories); j++ {
				a, b := categoryIndex(categories[i]), categoryIndex(categories[j])
				if a == b {
					continue
				}
				if a > b {
					a, b = b, a
				}
				key := pair{a, b}
				link, ok := links[key]
				if !ok {
					link = &models.CategoryLink{Source: a, Target: b, Products: []models.ProductRef{}}
					links[key] = link
				}
				link.Value++
				link.Products = append(link.Products, ref)
			}
		}
	}

	for _, link := range links {
		graph.Links = append(graph.Links, *link)
	}
	sort.Slice(graph.Links, func(i, j int) bool {
		if graph.Links[i].Source != graph.Links[j].Source {
			return graph.Links[i].Source < graph.Links[j].Source
		}
		return graph.Links[i].Target < graph.Links[j].Target
	})

	return graph
}

func (p *Processor) productCategories(ctx context.Context, r models.Record) ([]string, error) {
	res, err := p.classify(ctx, "product_category", categoryInstruction, productPayload(r))
	if err != nil {
		return nil, err
	}
	return SelectCategories(categoryScores(res)), nil
}

// SelectCategories keeps the two best scoring categories above the threshold.
// Equal scores keep the canonical category order.
func SelectCategories(scores map[string]float64) []string {
	var picked []string
	for _, name := range ProductCategories {
		if scores[name] > categoryScoreThreshold {
			picked = append(picked, name)
		}
	}
	sort.SliceStable(picked, func(i, j int) bool {
		return scores[picked[i]] > scores[picked[j]]
	})

	if len(picked) > maxProductCategories {
		picked = picked[:maxProductCategories]
	}
	if picked == nil {
		picked = []string{}
	}
	return picked
}

// categoryScores accepts either a flat {"Category": score} object or one
// nested under "scores"/"categories".
func categoryScores(res *ai.Result) map[string]float64 {
	for _, key := range []string{"scores", "categories"} {
		if nested, ok := res.Object(key); ok {
			return nested.Scores()
		}
	}
	return res.Scores()
}

func productPayload(r models.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Product: %s\n", r.Title)
	if len(r.Topics) > 0 {
		fmt.Fprintf(&b, "Topics: %s\n", strings.Join(r.Topics, ", "))
		return b.String()
	}

	text := r.Tagline
	if text == "" {
		text = r.Description
	}
	fmt.Fprintf(&b, "Description: %s\n", text)
	return b.String()
}

func shortTagline(r models.Record) string {
	text := r.Tagline
	if text == "" {
		text = r.Description
	}
	return truncate(text, shortTaglineLength)
}

func categoryIndex(name string) int {
	for i, c := range ProductCategories {
		if c == name {
			return i
		}
	}
	return len(ProductCategories) - 1
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return strings.TrimSpace(string(r[:n-3])) + "..."
}

func numberField(item gjson.Result, key string) (float64, bool) {
	return ai.Number(item.Get(key))
}
