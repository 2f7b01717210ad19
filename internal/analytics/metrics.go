// Package analytics contains the pure aggregation functions the dashboard
// endpoints are built on. Every function is a stateless reduction over a
// review slice: input order never changes a result, and an empty input
// yields zero values rather than NaN.
package analytics

import (
	"math"
	"sort"
	"strings"

	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/domain"
)

// clampStars keeps out-of-range ratings countable instead of dropping them,
// so rating partitions always sum to len(rs).
func clampStars(s int) int {
	if s < 1 {
		return 1
	}
	if s > 5 {
		return 5
	}
	return s
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// AverageRating returns the mean star rating rounded to two decimals,
// or 0 for an empty input.
func AverageRating(rs []domain.Review) float64 {
	if len(rs) == 0 {
		return 0
	}
	sum := 0
	for _, r := range rs {
		sum += clampStars(r.Stars)
	}
	return round2(float64(sum) / float64(len(rs)))
}

// CountByRating partitions reviews by star rating. All five keys are always
// present and the counts sum to len(rs).
func CountByRating(rs []domain.Review) map[int]int {
	out := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for _, r := range rs {
		out[clampStars(r.Stars)]++
	}
	return out
}

// sentimentOf returns the review's pre-computed sentiment, falling back to a
// rating-derived label when the upstream field is empty.
func sentimentOf(r domain.Review) string {
	if r.Sentiment != nil {
		switch s := strings.ToLower(strings.TrimSpace(*r.Sentiment)); s {
		case "positive", "neutral", "negative":
			return s
		}
	}
	switch {
	case clampStars(r.Stars) >= 4:
		return "positive"
	case clampStars(r.Stars) == 3:
		return "neutral"
	default:
		return "negative"
	}
}

// SentimentCounts returns positive/neutral/negative counts with percentages,
// always in that order.
func SentimentCounts(rs []domain.Review) []domain.SentimentCount {
	counts := map[string]int{}
	for _, r := range rs {
		counts[sentimentOf(r)]++
	}
	out := make([]domain.SentimentCount, 0, 3)
	for _, label := range []string{"positive", "neutral", "negative"} {
		pct := 0.0
		if len(rs) > 0 {
			pct = round2(float64(counts[label]) / float64(len(rs)) * 100)
		}
		out = append(out, domain.SentimentCount{Sentiment: label, Count: counts[label], Percent: pct})
	}
	return out
}

// ResponseRate returns the percentage of reviews carrying an owner response.
func ResponseRate(rs []domain.Review) float64 {
	if len(rs) == 0 {
		return 0
	}
	n := 0
	for _, r := range rs {
		if r.ResponseText != nil && strings.TrimSpace(*r.ResponseText) != "" {
			n++
		}
	}
	return round2(float64(n) / float64(len(rs)) * 100)
}

// LanguageDistribution counts reviews per language code ("unknown" when the
// source did not detect one), sorted by count desc then code.
func LanguageDistribution(rs []domain.Review) []domain.LanguageCount {
	counts := map[string]int{}
	for _, r := range rs {
		lang := "unknown"
		if r.Language != nil && strings.TrimSpace(*r.Language) != "" {
			lang = strings.ToLower(strings.TrimSpace(*r.Language))
		}
		counts[lang]++
	}
	out := make([]domain.LanguageCount, 0, len(counts))
	for l, c := range counts {
		out = append(out, domain.LanguageCount{Language: l, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Language < out[j].Language
	})
	return out
}

// Overview assembles the metrics read model served by the API.
func Overview(rs []domain.Review) domain.Metrics {
	return domain.Metrics{
		ReviewCount:          len(rs),
		AverageRating:        AverageRating(rs),
		RatingBreakdown:      CountByRating(rs),
		SentimentAnalysis:    SentimentCounts(rs),
		ResponseRatePercent:  ResponseRate(rs),
		LanguageDistribution: LanguageDistribution(rs),
	}
}
