package analytics

import (
	"fmt"
	"strings"

	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/domain"
)

// BasicAnalysis builds the deterministic rating-based narrative used when no
// LLM provider is configured or the provider call fails. It reads only the
// local aggregates, so two runs over the same reviews produce the same text.
func BasicAnalysis(name string, rs []domain.Review) string {
	if len(rs) == 0 {
		return fmt.Sprintf("No reviews available for %s yet.", name)
	}

	avg := AverageRating(rs)
	byRating := CountByRating(rs)
	sentiments := SentimentCounts(rs)
	resp := ResponseRate(rs)

	var b strings.Builder
	fmt.Fprintf(&b, "%s has %d reviews with an average rating of %.1f out of 5.\n", name, len(rs), avg)

	high := byRating[4] + byRating[5]
	low := byRating[1] + byRating[2]
	switch {
	case float64(high) >= 0.8*float64(len(rs)):
		b.WriteString("Customer satisfaction is strong: most reviewers rate the experience 4 stars or higher.\n")
	case float64(low) >= 0.4*float64(len(rs)):
		b.WriteString("A substantial share of reviewers rate the experience 2 stars or lower, which points to recurring problems worth investigating.\n")
	default:
		b.WriteString("Ratings are mixed, with both satisfied and dissatisfied reviewers represented.\n")
	}

	for _, s := range sentiments {
		if s.Sentiment == "positive" {
			fmt.Fprintf(&b, "%.0f%% of reviews read as positive.\n", s.Percent)
		}
	}

	if staff := StaffMentions(rs); len(staff) > 0 {
		names := make([]string, 0, 3)
		for i, m := range staff {
			if i >= 3 {
				break
			}
			names = append(names, m.Name)
		}
		fmt.Fprintf(&b, "Frequently mentioned staff: %s.\n", strings.Join(names, ", "))
	}

	if resp < 30 {
		fmt.Fprintf(&b, "Only %.0f%% of reviews have an owner response; responding more consistently tends to improve ratings over time.", resp)
	} else {
		fmt.Fprintf(&b, "%.0f%% of reviews have an owner response.", resp)
	}
	return b.String()
}
