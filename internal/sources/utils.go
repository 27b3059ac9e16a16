package sources

import (
	"crypto/sha256"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

func generateHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", hash)
}

// stripHTML returns the visible text of an HTML fragment with whitespace
// collapsed. Script and style bodies are dropped.
func stripHTML(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))

	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or a malformed tail; either way the text so far is the answer.
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if isHiddenTag(string(name)) {
				skip++
			}
			if blockTags[string(name)] {
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if isHiddenTag(string(name)) && skip > 0 {
				skip--
			}
			if blockTags[string(name)] {
				b.WriteByte(' ')
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

var blockTags = map[string]bool{
	"p": true, "br": true, "div": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "blockquote": true, "figure": true,
}

func isHiddenTag(name string) bool {
	return name == "script" || name == "style"
}

// clipDescription cuts descriptions longer than max runes down to
// keep runes plus an ellipsis.
func clipDescription(s string, max, keep int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:keep]) + "..."
}

// parseStarCount reads GitHub star counters such as "1,234" or "12.5k".
func parseStarCount(text string) int {
	s := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(text), ",", ""))
	if s == "" {
		return 0
	}

	if strings.Contains(s, "k") {
		f, err := strconv.ParseFloat(strings.ReplaceAll(s, "k", ""), 64)
		if err != nil {
			return 0
		}
		return int(math.Round(f * 1000))
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
