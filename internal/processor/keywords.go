package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ObiAU/techpulse/internal/logger"
	"github.com/ObiAU/techpulse/internal/models"
)

const (
	maxCandidateTokens = 50
	minTokenLength     = 3
	maxHotTopics       = 5
)

const keywordInstruction = `You are a tech news analyst. You receive a JSON array of the most frequent words in today's tech headlines, each with its count.
Pick the words that are most newsworthy right now, not simply the most frequent ones. Score each picked word from 1 to 10 and explain in one sentence why it matters today.
Respond with a JSON object: {"keywords": [{"text": "word", "value": 8, "desc": "one sentence"}]}`

const hotTopicInstruction = `You are a tech news analyst. You receive a JSON array of today's articles with their title and description.
Identify 3 to 5 distinct hot topics across them. For each give a short name, a one or two sentence summary and its momentum: "rising", "stable" or "declining".
Respond with a JSON object: {"hot_topics": [{"topic": "name", "summary": "text", "momentum": "rising"}]}`

// TokenCount is one row of the keyword frequency table.
type TokenCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// NewsWordCloud asks the oracle for newsworthy keywords and hot topics. When
// the oracle is missing or either call fails, the whole word cloud is empty.
func (p *Processor) NewsWordCloud(ctx context.Context, records []models.Record) *models.WordCloud {
	if p.oracle == nil {
		p.log.Warn("oracle disabled, skipping news word cloud", logger.Int("articles", len(records)))
		return emptyWordCloud()
	}

	keywords, err := p.newsKeywords(ctx, records)
	if err != nil {
		p.log.Error("keyword extraction failed", logger.Error(err))
		return emptyWordCloud()
	}

	topics, err := p.hotTopics(ctx, records)
	if err != nil {
		p.log.Error("hot topic extraction failed", logger.Error(err))
		return emptyWordCloud()
	}

	return &models.WordCloud{Keywords: keywords, HotTopics: topics}
}

func (p *Processor) newsKeywords(ctx context.Context, records []models.Record) ([]models.KeywordEntry, error) {
	keywords := []models.KeywordEntry{}

	table := TopTokens(records, maxCandidateTokens)
	if len(table) == 0 {
		return keywords, nil
	}

	payload, err := json.Marshal(table)
	if err != nil {
		return nil, fmt.Errorf("encode frequency table: %w", err)
	}

	res, err := p.classify(ctx, "keywords", keywordInstruction, string(payload))
	if err != nil {
		return nil, fmt.Errorf("classify keywords: %w", err)
	}

	for _, item := range res.Objects("keywords") {
		text := strings.TrimSpace(item.Get("text").String())
		if text == "" {
			continue
		}
		value, ok := numberField(item, "value")
		if !ok {
			continue
		}
		keywords = append(keywords, models.KeywordEntry{
			Text:  text,
			Value: value,
			Desc:  strings.TrimSpace(item.Get("desc").String()),
		})
	}
	return keywords, nil
}

type articleText struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (p *Processor) hotTopics(ctx context.Context, records []models.Record) ([]models.HotTopic, error) {
	articles := make([]articleText, 0, len(records))
	for _, r := range records {
		articles = append(articles, articleText{Title: r.Title, Description: r.Description})
	}

	payload, err := json.Marshal(articles)
	if err != nil {
		return nil, fmt.Errorf("encode articles: %w", err)
	}

	res, err := p.classify(ctx, "hot_topics", hotTopicInstruction, string(payload))
	if err != nil {
		return nil, fmt.Errorf("classify hot topics: %w", err)
	}

	topics := []models.HotTopic{}
	for _, item := range res.Objects("hot_topics") {
		if len(topics) == maxHotTopics {
			break
		}
		name := strings.TrimSpace(item.Get("topic").String())
		if name == "" {
			continue
		}
		momentum := item.Get("momentum").String()
		if momentum == "" {
			momentum = item.Get("trend").String()
		}
		topics = append(topics, models.HotTopic{
			Topic:    name,
			Summary:  strings.TrimSpace(item.Get("summary").String()),
			Momentum: parseMomentum(momentum),
		})
	}
	return topics, nil
}

// TopTokens counts candidate keywords across titles and descriptions and
// returns the n most frequent. Ties keep the order of first appearance.
func TopTokens(records []models.Record, n int) []TokenCount {
	counts := make(map[string]int)
	var order []string

	for _, r := range records {
		for _, token := range tokenize(r.Title + " " + r.Description) {
			if _, seen := counts[token]; !seen {
				order = append(order, token)
			}
			counts[token]++
		}
	}

	table := make([]TokenCount, 0, len(order))
	for _, word := range order {
		table = append(table, TokenCount{Word: word, Count: counts[word]})
	}
	sort.SliceStable(table, func(i, j int) bool {
		return table[i].Count > table[j].Count
	})

	if len(table) > n {
		table = table[:n]
	}
	return table
}

// tokenize lowercases text, drops everything but ASCII letters and
// whitespace, and filters short tokens and stop words.
func tokenize(text string) []string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' || r == '\v':
			b.WriteRune(' ')
		}
	}

	var tokens []string
	for _, token := range strings.Fields(b.String()) {
		if len(token) < minTokenLength || isStopWord(token) {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

func parseMomentum(s string) models.Momentum {
	switch m := models.Momentum(strings.ToLower(strings.TrimSpace(s))); m {
	case models.MomentumRising, models.MomentumStable, models.MomentumDeclining:
		return m
	default:
		return models.MomentumStable
	}
}

func emptyWordCloud() *models.WordCloud {
	return &models.WordCloud{
		Keywords:  []models.KeywordEntry{},
		HotTopics: []models.HotTopic{},
	}
}
