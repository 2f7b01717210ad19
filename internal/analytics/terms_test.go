package analytics_test

import (
	"strings"
	"testing"

	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/analytics"
	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/domain"
)

func textReview(stars int, text string) domain.Review {
	return domain.Review{Stars: stars, Text: &text}
}

func TestCommonTerms(t *testing.T) {
	rs := []domain.Review{
		textReview(5, "The coffee was amazing, best coffee in town"),
		textReview(4, "Great coffee and friendly service"),
		textReview(2, "Service was slow but the coffee saved it"),
	}
	terms := analytics.CommonTerms(rs, 5)
	if len(terms) == 0 || terms[0].Term != "coffee" || terms[0].Count != 4 {
		t.Fatalf("expected coffee x4 first, got %+v", terms)
	}
	for _, tc := range terms {
		if len([]rune(tc.Term)) < 3 {
			t.Fatalf("short token leaked: %+v", tc)
		}
		if tc.Term == "the" || tc.Term == "was" {
			t.Fatalf("stopword leaked: %+v", tc)
		}
	}
}

func TestCommonTerms_DeterministicTies(t *testing.T) {
	rs := []domain.Review{textReview(5, "alpha beta"), textReview(4, "beta alpha")}
	a := analytics.CommonTerms(rs, 10)
	b := analytics.CommonTerms([]domain.Review{rs[1], rs[0]}, 10)
	if len(a) != 2 || a[0].Term != "alpha" || a[1].Term != "beta" {
		t.Fatalf("ties must break alphabetically: %+v", a)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("reorder changed terms: %+v vs %+v", a, b)
		}
	}
}

func TestStaffMentions(t *testing.T) {
	pos, neg := "positive", "negative"
	rs := []domain.Review{
		{Stars: 5, Staff: ptr("Anna, Ben"), Sentiment: &pos, Text: ptr("Anna and Ben were wonderful")},
		{Stars: 5, Staff: ptr("anna"), Sentiment: &pos, Text: ptr("anna again, superb")},
		{Stars: 1, Staff: ptr("Ben"), Sentiment: &neg, Text: ptr("Ben ignored us")},
		{Stars: 4, Staff: ptr("  ")},
	}
	mentions := analytics.StaffMentions(rs)
	if len(mentions) != 2 {
		t.Fatalf("want 2 staff, got %+v", mentions)
	}
	if mentions[0].Name != "Anna" || mentions[0].Count != 2 || mentions[0].Sentiment != "positive" {
		t.Fatalf("unexpected first mention: %+v", mentions[0])
	}
	// Ben: one positive, one negative -> tie -> neutral.
	if mentions[1].Name != "Ben" || mentions[1].Count != 2 || mentions[1].Sentiment != "neutral" {
		t.Fatalf("unexpected second mention: %+v", mentions[1])
	}
}

func TestStaffMentions_DuplicateWithinOneReviewCountsOnce(t *testing.T) {
	rs := []domain.Review{{Stars: 5, Staff: ptr("Mia, mia, MIA")}}
	mentions := analytics.StaffMentions(rs)
	if len(mentions) != 1 || mentions[0].Count != 1 {
		t.Fatalf("duplicate names in one review must count once: %+v", mentions)
	}
	if mentions[0].Name != "Mia" {
		t.Fatalf("first-seen casing should win, got %q", mentions[0].Name)
	}
}

func TestMajoritySentiment_Ties(t *testing.T) {
	cases := []struct {
		counts map[string]int
		want   string
	}{
		{map[string]int{"positive": 3, "negative": 1}, "positive"},
		{map[string]int{"positive": 2, "negative": 2}, "neutral"},
		{map[string]int{}, "neutral"},
		{map[string]int{"negative": 1}, "negative"},
	}
	for _, c := range cases {
		if got := analytics.MajoritySentiment(c.counts); got != c.want {
			t.Fatalf("MajoritySentiment(%v) = %s, want %s", c.counts, got, c.want)
		}
	}
}

func TestBasicAnalysis_Deterministic(t *testing.T) {
	rs := []domain.Review{
		textReview(5, "Lovely"), textReview(5, "Great"), textReview(4, "Good"),
		{Stars: 2, ResponseText: ptr("Sorry to hear that")},
	}
	a := analytics.BasicAnalysis("Blue Door Cafe", rs)
	b := analytics.BasicAnalysis("Blue Door Cafe", rs)
	if a != b {
		t.Fatalf("narrative not deterministic")
	}
	if !strings.Contains(a, "Blue Door Cafe") || !strings.Contains(a, "4 reviews") {
		t.Fatalf("narrative missing basics: %q", a)
	}
	if empty := analytics.BasicAnalysis("X", nil); !strings.Contains(empty, "No reviews") {
		t.Fatalf("unexpected empty-input narrative: %q", empty)
	}
}
