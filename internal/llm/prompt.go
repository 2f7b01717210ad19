package llm

import (
	"fmt"
	"strings"

	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/domain"
)

const maxPromptReviewRunes = 400

// BuildPrompt renders one review chunk plus the locally computed aggregates
// into the analysis prompt. The aggregates anchor the model's numbers so the
// narrative cannot drift from what the metrics endpoints report.
func BuildPrompt(business string, chunk []domain.Review, m domain.Metrics, full bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Business: %s\n", business)
	fmt.Fprintf(&b, "Reviews in total: %d, average rating %.1f/5.\n", m.ReviewCount, m.AverageRating)
	b.WriteString("Rating breakdown:")
	for star := 5; star >= 1; star-- {
		fmt.Fprintf(&b, " %d★=%d", star, m.RatingBreakdown[star])
	}
	b.WriteString("\nSentiment:")
	for _, s := range m.SentimentAnalysis {
		fmt.Fprintf(&b, " %s=%d", s.Sentiment, s.Count)
	}
	fmt.Fprintf(&b, "\nOwner response rate: %.0f%%.\n\n", m.ResponseRatePercent)

	fmt.Fprintf(&b, "Review excerpts (%d of %d):\n", len(chunk), m.ReviewCount)
	for _, r := range chunk {
		stars := r.Stars
		text := ""
		if r.Text != nil {
			text = truncRunes(strings.TrimSpace(*r.Text), maxPromptReviewRunes)
		}
		date := ""
		if r.PublishedAt != nil {
			date = r.PublishedAt.Format("2006-01-02")
		}
		fmt.Fprintf(&b, "- [%d★ %s] %s\n", stars, date, text)
		if r.ResponseText != nil && strings.TrimSpace(*r.ResponseText) != "" {
			fmt.Fprintf(&b, "  owner replied: %s\n", truncRunes(strings.TrimSpace(*r.ResponseText), 160))
		}
	}

	if full {
		b.WriteString("\nWrite a thorough analysis: overall impression, recurring strengths, recurring problems, staff called out by name, and three concrete recommendations for the owner.")
	} else {
		b.WriteString("\nWrite a short analysis (one paragraph): overall impression, the main strength, the main problem.")
	}
	return b.String()
}

// BuildMergePrompt asks the model to fold per-chunk narratives into one.
func BuildMergePrompt(business string, parts []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Below are partial analyses of separate batches of reviews for %s. Merge them into one coherent analysis without repeating yourself and without losing any named staff member or concrete recommendation.\n\n", business)
	for i, p := range parts {
		fmt.Fprintf(&b, "--- Batch %d ---\n%s\n\n", i+1, p)
	}
	return b.String()
}

func truncRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
