package processor

import (
	"github.com/ObiAU/techpulse/internal/models"
)

const (
	languageChartLabel = "GitHub Trending Languages"
	unknownLanguage    = "Unknown"
	otherLanguage      = "Other"
	minLanguageShare   = 0.02
)

var languagePalette = []string{"#3572A5", "#F1E05A", "#00ADD8", "#DEA584", "#89E051", "#B07219", "#CCCCCC"}

// LanguageDistribution groups trending repositories by language. Languages
// under 2% of all records (unknown ones included in the total) are rolled up
// into "Other", which always comes last.
func LanguageDistribution(records []models.Record) *models.LanguageChart {
	chart := &models.LanguageChart{
		Labels:   []string{},
		Datasets: []models.LanguageDataset{},
	}

	total := len(records)
	if total == 0 {
		return chart
	}

	var order []string
	buckets := make(map[string]*models.LanguageBucket)
	for _, r := range records {
		lang := r.Language
		if lang == "" || lang == unknownLanguage {
			continue
		}

		b, ok := buckets[lang]
		if !ok {
			b = &models.LanguageBucket{Repos: []models.RepoSummary{}}
			buckets[lang] = b
			order = append(order, lang)
		}
		b.Add(models.LanguageBucket{
			RepoCount:  1,
			TotalStars: r.Stars,
			StarsToday: r.StarsToday,
			Repos: []models.RepoSummary{{
				Name:        r.Title,
				URL:         r.URL,
				Description: r.Description,
				Stars:       r.Stars,
				StarsToday:  r.StarsToday,
			}},
		})
	}

	if len(order) == 0 {
		return chart
	}

	dataset := models.LanguageDataset{
		Label:           languageChartLabel,
		Data:            []int{},
		BackgroundColor: []string{},
		HoverData:       []models.LanguageBucket{},
	}
	other := models.LanguageBucket{Repos: []models.RepoSummary{}}

	appendBucket := func(label string, b models.LanguageBucket) {
		chart.Labels = append(chart.Labels, label)
		dataset.Data = append(dataset.Data, b.RepoCount)
		dataset.BackgroundColor = append(dataset.BackgroundColor, languagePalette[len(dataset.BackgroundColor)%len(languagePalette)])
		dataset.HoverData = append(dataset.HoverData, b)
	}

	for _, lang := range order {
		b := buckets[lang]
		if float64(b.RepoCount)/float64(total) < minLanguageShare {
			other.Add(*b)
			continue
		}
		appendBucket(lang, *b)
	}
	if other.RepoCount > 0 {
		appendBucket(otherLanguage, other)
	}

	chart.Datasets = append(chart.Datasets, dataset)
	return chart
}
