package analytics

import (
	"sort"

	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/domain"
)

// monthKey formats a review's publication month as YYYY-MM. Reviews without
// a timestamp land in a literal "unknown" bucket so grouping stays an exact
// partition of the input.
func monthKey(r domain.Review) string {
	if r.PublishedAt == nil {
		return "unknown"
	}
	return r.PublishedAt.Format("2006-01")
}

// GroupByMonth buckets reviews by publication month, ascending. The buckets
// partition the input exactly: every review appears in exactly one bucket.
func GroupByMonth(rs []domain.Review) []domain.MonthBucket {
	byMonth := map[string][]domain.Review{}
	for _, r := range rs {
		k := monthKey(r)
		byMonth[k] = append(byMonth[k], r)
	}
	keys := make([]string, 0, len(byMonth))
	for k := range byMonth {
		keys = append(keys, k)
	}
	sort.Strings(keys) // "unknown" sorts after all YYYY-MM keys
	out := make([]domain.MonthBucket, 0, len(keys))
	for _, k := range keys {
		items := byMonth[k]
		out = append(out, domain.MonthBucket{
			Month:   k,
			Reviews: items,
			Count:   len(items),
			Average: AverageRating(items),
		})
	}
	return out
}

// SentimentTrend returns the per-month positive share as a percentage,
// months ascending.
func SentimentTrend(rs []domain.Review) []domain.TrendPoint {
	buckets := GroupByMonth(rs)
	out := make([]domain.TrendPoint, 0, len(buckets))
	for _, b := range buckets {
		pos := 0
		for _, r := range b.Reviews {
			if sentimentOf(r) == "positive" {
				pos++
			}
		}
		pct := 0.0
		if b.Count > 0 {
			pct = round2(float64(pos) / float64(b.Count) * 100)
		}
		out = append(out, domain.TrendPoint{Month: b.Month, PositivePercent: pct})
	}
	return out
}

func positivePercent(rs []domain.Review) float64 {
	if len(rs) == 0 {
		return 0
	}
	pos := 0
	for _, r := range rs {
		if sentimentOf(r) == "positive" {
			pos++
		}
	}
	return round2(float64(pos) / float64(len(rs)) * 100)
}

// ComparePeriods computes deltas between a current and a previous review
// set. Percent-change fields are 0 when the previous value is 0.
func ComparePeriods(current, previous []domain.Review) domain.PeriodComparison {
	c := domain.PeriodComparison{
		CurrentCount:        len(current),
		PreviousCount:       len(previous),
		CurrentAverage:      AverageRating(current),
		PreviousAverage:     AverageRating(previous),
		CurrentPositivePct:  positivePercent(current),
		PreviousPositivePct: positivePercent(previous),
		CurrentResponsePct:  ResponseRate(current),
		PreviousResponsePct: ResponseRate(previous),
	}
	c.AverageDelta = round2(c.CurrentAverage - c.PreviousAverage)
	if c.PreviousCount > 0 {
		c.CountChangePercent = round2(float64(c.CurrentCount-c.PreviousCount) / float64(c.PreviousCount) * 100)
	}
	return c
}
