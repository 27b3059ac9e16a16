package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ObiAU/techpulse/internal/logger"
	"github.com/ObiAU/techpulse/internal/models"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, f.err
}

func fullPulse() *models.Pulse {
	return &models.Pulse{
		LanguageDistribution: &models.LanguageChart{
			Labels:   []string{"Python", "Go", "Rust", "C++"},
			Datasets: []models.LanguageDataset{{Data: []int{4, 9, 2, 6}}},
		},
		NewsWordCloud: &models.WordCloud{
			Keywords: []models.KeywordEntry{
				{Text: "chips", Value: 6}, {Text: "agents", Value: 9}, {Text: "eu", Value: 3},
			},
			HotTopics: []models.HotTopic{
				{Topic: "AI <hardware>", Momentum: models.MomentumRising},
				{Topic: "Layoffs", Momentum: models.MomentumDeclining},
			},
		},
		TagConnections: &models.CategoryGraph{
			Nodes: []models.CategoryNode{{Name: "AI/ML"}, {Name: "Developer Tools"}, {Name: "Productivity"}},
			Links: []models.CategoryLink{
				{Source: 0, Target: 2, Value: 1},
				{Source: 0, Target: 1, Value: 3},
			},
		},
		PredictionsPlot: &models.PredictionPlot{
			Datasets: []models.PredictionDataset{{Data: []models.PlotPoint{
				{X: 0.2, Y: 100, Label: "Small market", URL: "https://m/a"},
				{X: 0.31, Y: 12000, Label: "Will GPT-6 ship & win?", URL: "https://m/b"},
			}}},
		},
	}
}

func TestFormatDigest(t *testing.T) {
	digest := FormatDigest("run-42", fullPulse())

	assert.Contains(t, digest, "Go (9), C++ (6), Python (4)")
	assert.NotContains(t, digest, "Rust (2)")
	assert.Contains(t, digest, "agents, chips, eu")
	assert.Contains(t, digest, "• AI &lt;hardware&gt; 📈")
	assert.Contains(t, digest, "• Layoffs 📉")
	assert.Contains(t, digest, "AI/ML + Developer Tools (3 products)")
	assert.Contains(t, digest, `<a href="https://m/b">Will GPT-6 ship &amp; win?</a> at 31%`)
	assert.True(t, strings.HasSuffix(digest, "<i>run run-42</i>"))
}

func TestFormatDigest_EmptySections(t *testing.T) {
	digest := FormatDigest("", &models.Pulse{
		NewsWordCloud:   &models.WordCloud{Keywords: []models.KeywordEntry{}, HotTopics: []models.HotTopic{}},
		PredictionsPlot: &models.PredictionPlot{Datasets: []models.PredictionDataset{{Data: []models.PlotPoint{}}}},
	})
	assert.Equal(t, "📡 <b>Tech Pulse</b>", digest)
}

func TestFormatDigest_MismatchedLanguageChart(t *testing.T) {
	pulse := &models.Pulse{LanguageDistribution: &models.LanguageChart{
		Labels:   []string{"Go", "Rust", "Zig"},
		Datasets: []models.LanguageDataset{{Data: []int{7}}},
	}}

	var digest string
	require.NotPanics(t, func() { digest = FormatDigest("r", pulse) })
	assert.Contains(t, digest, "Go (7)")
	assert.NotContains(t, digest, "Rust")

	pulse.LanguageDistribution.Labels = []string{"Go"}
	pulse.LanguageDistribution.Datasets[0].Data = []int{7, 3, 1}
	require.NotPanics(t, func() { digest = FormatDigest("r", pulse) })
	assert.Contains(t, digest, "Go (7)")
}

func TestSendDigest(t *testing.T) {
	fake := &fakeSender{}
	b := &Bot{send: fake, chatID: 1234, log: logger.Nop()}

	require.NoError(t, b.SendDigest(context.Background(), "r1", fullPulse()))
	require.Len(t, fake.sent, 1)
	assert.Equal(t, int64(1234), fake.sent[0].ChatID)
	assert.Equal(t, "HTML", fake.sent[0].ParseMode)
	assert.True(t, fake.sent[0].DisableWebPagePreview)

	fake.err = errors.New("forbidden")
	assert.Error(t, b.SendDigest(context.Background(), "r2", fullPulse()))
}

func TestHandleUpdate(t *testing.T) {
	fake := &fakeSender{}
	b := &Bot{send: fake, chatID: 1, log: logger.Nop()}

	var pulse *models.Pulse
	latest := func() (string, *models.Pulse) { return "run-7", pulse }
	message := func(text string) tgbotapi.Update {
		return tgbotapi.Update{Message: &tgbotapi.Message{Text: text, Chat: &tgbotapi.Chat{ID: 99}}}
	}

	b.handleUpdate(tgbotapi.Update{}, latest)
	assert.Empty(t, fake.sent, "updates without a message are ignored")

	b.handleUpdate(message("/pulse"), latest)
	pulse = fullPulse()
	b.handleUpdate(message("/pulse"), latest)
	b.handleUpdate(message("/help"), latest)
	b.handleUpdate(message("hello"), latest)

	require.Len(t, fake.sent, 4)
	for _, msg := range fake.sent {
		assert.Equal(t, int64(99), msg.ChatID)
	}
	assert.Contains(t, fake.sent[0].Text, "No pulse yet")
	assert.Contains(t, fake.sent[1].Text, "run run-7")
	assert.Contains(t, fake.sent[2].Text, "/pulse")
	assert.Contains(t, fake.sent[3].Text, "Unknown command")
}
