package models

// LanguageChart is the pie/donut chart of trending repository languages.
type LanguageChart struct {
	Labels   []string          `json:"labels"`
	Datasets []LanguageDataset `json:"datasets"`
}

type LanguageDataset struct {
	Label           string           `json:"label"`
	Data            []int            `json:"data"`
	BackgroundColor []string         `json:"backgroundColor"`
	HoverData       []LanguageBucket `json:"hoverData"`
}

type LanguageBucket struct {
	RepoCount  int           `json:"repo_count"`
	TotalStars int           `json:"total_stars"`
	StarsToday int           `json:"stars_today"`
	Repos      []RepoSummary `json:"repos"`
}

type RepoSummary struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Stars       int    `json:"stars"`
	StarsToday  int    `json:"stars_today"`
}

// Add merges other into b.
func (b *LanguageBucket) Add(other LanguageBucket) {
	b.RepoCount += other.RepoCount
	b.TotalStars += other.TotalStars
	b.StarsToday += other.StarsToday
	b.Repos = append(b.Repos, other.Repos...)
}

type WordCloud struct {
	Keywords  []KeywordEntry `json:"keywords"`
	HotTopics []HotTopic     `json:"hot_topics"`
}

type KeywordEntry struct {
	Text  string  `json:"text"`
	Value float64 `json:"value"`
	Desc  string  `json:"desc,omitempty"`
}

type Momentum string

const (
	MomentumRising    Momentum = "rising"
	MomentumStable    Momentum = "stable"
	MomentumDeclining Momentum = "declining"
)

type HotTopic struct {
	Topic    string   `json:"topic"`
	Summary  string   `json:"summary"`
	Momentum Momentum `json:"momentum"`
}

// CategoryGraph is the category co-occurrence (Sankey) graph.
type CategoryGraph struct {
	Nodes             []CategoryNode      `json:"nodes"`
	Links             []CategoryLink      `json:"links"`
	ProductCategories []ProductAssignment `json:"product_categories"`
}

type CategoryNode struct {
	Name string `json:"name"`
}

type CategoryLink struct {
	Source   int          `json:"source"`
	Target   int          `json:"target"`
	Value    int          `json:"value"`
	Products []ProductRef `json:"products"`
}

type ProductRef struct {
	Title   string `json:"title"`
	Tagline string `json:"tagline"`
}

type ProductAssignment struct {
	Title      string   `json:"title"`
	Tagline    string   `json:"tagline"`
	Categories []string `json:"categories"`
}

type PredictionPlot struct {
	Datasets   []PredictionDataset `json:"datasets"`
	Categories []string            `json:"categories"`
}

type PredictionDataset struct {
	Label string      `json:"label"`
	Data  []PlotPoint `json:"data"`
}

type PlotPoint struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Category string  `json:"category"`
	Label    string  `json:"label"`
	URL      string  `json:"url"`
}

// Pulse is the document persisted once per run. Sections whose source
// returned nothing are omitted.
type Pulse struct {
	LanguageDistribution *LanguageChart  `json:"github_language_distribution,omitempty"`
	NewsWordCloud        *WordCloud      `json:"news_word_cloud,omitempty"`
	TagConnections       *CategoryGraph  `json:"product_hunt_tag_connections,omitempty"`
	PredictionsPlot      *PredictionPlot `json:"manifold_predictions_bubble_plot,omitempty"`
}

func (p *Pulse) Empty() bool {
	return p.LanguageDistribution == nil && p.NewsWordCloud == nil &&
		p.TagConnections == nil && p.PredictionsPlot == nil
}
