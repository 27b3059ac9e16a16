package telegram

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ObiAU/techpulse/internal/logger"
	"github.com/ObiAU/techpulse/internal/models"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot posts a digest of every pulse to one chat and answers /pulse with the
// latest digest.
type Bot struct {
	api    *tgbotapi.BotAPI
	send   sender
	chatID int64
	log    *logger.Logger
}

func NewBot(token string, chatID int64, log *logger.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Bot{api: api, send: api, chatID: chatID, log: log}, nil
}

// SendDigest posts the digest of pulse to the configured chat.
func (b *Bot) SendDigest(_ context.Context, runID string, pulse *models.Pulse) error {
	return b.sendMessage(b.chatID, FormatDigest(runID, pulse))
}

// Listen answers chat commands until ctx is done. latest returns the most
// recent pulse, or nil before the first run.
func (b *Bot) Listen(ctx context.Context, latest func() (string, *models.Pulse)) {
	if b.api == nil {
		return
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		b.handleUpdate(update, latest)
	}
}

func (b *Bot) handleUpdate(update tgbotapi.Update, latest func() (string, *models.Pulse)) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	text := update.Message.Text

	var reply string
	switch {
	case strings.HasPrefix(text, "/start"), strings.HasPrefix(text, "/help"):
		reply = helpText
	case strings.HasPrefix(text, "/pulse"):
		runID, pulse := latest()
		if pulse == nil {
			reply = "No pulse yet. The first run has not finished."
		} else {
			reply = FormatDigest(runID, pulse)
		}
	default:
		reply = "Unknown command. Use /help for available commands."
	}

	if err := b.sendMessage(chatID, reply); err != nil {
		b.log.Warn("telegram reply failed", logger.Error(err))
	}
}

const helpText = `Tech Pulse 📡

Commands:
/pulse - Latest tech pulse digest
/help - Show this help`

func (b *Bot) sendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "HTML"
	msg.DisableWebPagePreview = true

	if _, err := b.send.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// FormatDigest renders the headline numbers of a pulse as Telegram HTML.
func FormatDigest(runID string, pulse *models.Pulse) string {
	var b strings.Builder
	b.WriteString("📡 <b>Tech Pulse</b>\n")

	if chart := pulse.LanguageDistribution; chart != nil && len(chart.Datasets) > 0 {
		type lang struct {
			name  string
			repos int
		}
		data := chart.Datasets[0].Data
		n := min(len(chart.Labels), len(data))
		langs := make([]lang, 0, n)
		for i := 0; i < n; i++ {
			langs = append(langs, lang{chart.Labels[i], data[i]})
		}
		sort.SliceStable(langs, func(i, j int) bool { return langs[i].repos > langs[j].repos })
		if len(langs) > 3 {
			langs = langs[:3]
		}

		parts := make([]string, 0, len(langs))
		for _, l := range langs {
			parts = append(parts, fmt.Sprintf("%s (%d)", html.EscapeString(l.name), l.repos))
		}
		if len(parts) > 0 {
			fmt.Fprintf(&b, "\n💻 <b>Trending languages:</b> %s\n", strings.Join(parts, ", "))
		}
	}

	if cloud := pulse.NewsWordCloud; cloud != nil {
		keywords := append([]models.KeywordEntry(nil), cloud.Keywords...)
		sort.SliceStable(keywords, func(i, j int) bool { return keywords[i].Value > keywords[j].Value })
		if len(keywords) > 5 {
			keywords = keywords[:5]
		}
		if len(keywords) > 0 {
			words := make([]string, 0, len(keywords))
			for _, k := range keywords {
				words = append(words, html.EscapeString(k.Text))
			}
			fmt.Fprintf(&b, "\n🔑 <b>Keywords:</b> %s\n", strings.Join(words, ", "))
		}

		if len(cloud.HotTopics) > 0 {
			b.WriteString("\n🔥 <b>Hot topics:</b>\n")
			for _, t := range cloud.HotTopics {
				fmt.Fprintf(&b, "• %s %s\n", html.EscapeString(t.Topic), momentumIcon(t.Momentum))
			}
		}
	}

	if graph := pulse.TagConnections; graph != nil && len(graph.Links) > 0 {
		best := graph.Links[0]
		for _, l := range graph.Links[1:] {
			if l.Value > best.Value {
				best = l
			}
		}
		if best.Source < len(graph.Nodes) && best.Target < len(graph.Nodes) {
			fmt.Fprintf(&b, "\n🔗 <b>Strongest pairing:</b> %s + %s (%d products)\n",
				html.EscapeString(graph.Nodes[best.Source].Name),
				html.EscapeString(graph.Nodes[best.Target].Name),
				best.Value)
		}
	}

	if plot := pulse.PredictionsPlot; plot != nil && len(plot.Datasets) > 0 && len(plot.Datasets[0].Data) > 0 {
		top := plot.Datasets[0].Data[0]
		for _, p := range plot.Datasets[0].Data[1:] {
			if p.Y > top.Y {
				top = p
			}
		}
		fmt.Fprintf(&b, "\n🎲 <b>Biggest market:</b> <a href=\"%s\">%s</a> at %.0f%%\n",
			html.EscapeString(top.URL), html.EscapeString(top.Label), top.X*100)
	}

	if runID != "" {
		fmt.Fprintf(&b, "\n<i>run %s</i>", html.EscapeString(runID))
	}
	return strings.TrimRight(b.String(), "\n")
}

func momentumIcon(m models.Momentum) string {
	switch m {
	case models.MomentumRising:
		return "📈"
	case models.MomentumDeclining:
		return "📉"
	default:
		return "➖"
	}
}
