package domain

import "time"

// Read models produced by the aggregation engine and the analysis pipeline.
// All of them are derived from []Review and carry no identity of their own.

type SentimentCount struct {
	Sentiment string  `json:"sentiment"` // positive|neutral|negative
	Count     int     `json:"count"`
	Percent   float64 `json:"percent"`
}

type StaffMention struct {
	Name      string   `json:"name"`
	Count     int      `json:"count"`
	Sentiment string   `json:"sentiment"` // majority across mentions, ties -> neutral
	Examples  []string `json:"examples,omitempty"`
}

type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

type LanguageCount struct {
	Language string `json:"language"`
	Count    int    `json:"count"`
}

type MonthBucket struct {
	Month   string   `json:"month"` // YYYY-MM
	Reviews []Review `json:"-"`
	Count   int      `json:"count"`
	Average float64  `json:"average"`
}

type TrendPoint struct {
	Month           string  `json:"month"`
	PositivePercent float64 `json:"positivePercent"`
}

type Metrics struct {
	ReviewCount          int              `json:"reviewCount"`
	AverageRating        float64          `json:"averageRating"`
	RatingBreakdown      map[int]int      `json:"ratingBreakdown"`
	SentimentAnalysis    []SentimentCount `json:"sentimentAnalysis"`
	ResponseRatePercent  float64          `json:"responseRatePercent"`
	LanguageDistribution []LanguageCount  `json:"languageDistribution"`
}

type PeriodComparison struct {
	CurrentCount        int     `json:"currentCount"`
	PreviousCount       int     `json:"previousCount"`
	CountChangePercent  float64 `json:"countChangePercent"`
	CurrentAverage      float64 `json:"currentAverage"`
	PreviousAverage     float64 `json:"previousAverage"`
	AverageDelta        float64 `json:"averageDelta"`
	CurrentPositivePct  float64 `json:"currentPositivePct"`
	PreviousPositivePct float64 `json:"previousPositivePct"`
	CurrentResponsePct  float64 `json:"currentResponsePct"`
	PreviousResponsePct float64 `json:"previousResponsePct"`
}

type Trends struct {
	Monthly    []MonthBucket    `json:"monthly"`
	Sentiment  []TrendPoint     `json:"sentiment"`
	Comparison PeriodComparison `json:"comparison"`
}

type AnalysisResult struct {
	SentimentAnalysis    []SentimentCount `json:"sentimentAnalysis"`
	StaffMentions        []StaffMention   `json:"staffMentions"`
	CommonTerms          []TermCount      `json:"commonTerms"`
	MainThemes           []TermCount      `json:"mainThemes"`
	OverallAnalysis      string           `json:"overallAnalysis"`
	RatingBreakdown      map[int]int      `json:"ratingBreakdown"`
	LanguageDistribution []LanguageCount  `json:"languageDistribution"`

	// Provenance
	Provider    string    `json:"provider"` // openai|anthropic|gemini|local
	Model       string    `json:"model,omitempty"`
	GeneratedAt time.Time `json:"generatedAt"`
	FromCache   bool      `json:"fromCache"`
}
