package analytics

import (
	"sort"
	"strings"
	"unicode"

	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/domain"
)

// Stopwords for the three languages the source data actually contains.
// Kept deliberately small; term extraction is a frequency table, not NLP.
var stopwords = map[string]bool{
	// en
	"the": true, "and": true, "was": true, "were": true, "for": true,
	"with": true, "this": true, "that": true, "have": true, "had": true,
	"but": true, "not": true, "you": true, "very": true, "they": true,
	"are": true, "our": true, "all": true, "from": true, "there": true,
	"their": true, "been": true, "would": true, "will": true, "just": true,
	"when": true, "here": true, "your": true, "also": true, "out": true,
	"about": true, "get": true, "got": true, "has": true, "its": true,
	// fr
	"les": true, "des": true, "est": true, "une": true, "pour": true,
	"avec": true, "tres": true, "très": true, "nous": true, "vous": true,
	"dans": true, "sont": true, "mais": true, "pas": true, "qui": true,
	"que": true, "sur": true, "plus": true, "bien": true,
	// es
	"los": true, "las": true, "por": true, "con": true, "muy": true,
	"para": true, "una": true, "del": true, "como": true, "este": true,
	"esta": true, "pero": true, "nos": true, "mas": true, "más": true,
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// CommonTerms returns the most frequent non-stopword tokens across review
// text, at most limit entries. Tokens shorter than three runes are skipped.
// Ties break alphabetically so the result is deterministic.
func CommonTerms(rs []domain.Review, limit int) []domain.TermCount {
	if limit <= 0 {
		limit = 10
	}
	freq := map[string]int{}
	for _, r := range rs {
		if r.Text == nil {
			continue
		}
		for _, tok := range tokenize(*r.Text) {
			if len([]rune(tok)) < 3 || stopwords[tok] {
				continue
			}
			freq[tok]++
		}
	}
	out := make([]domain.TermCount, 0, len(freq))
	for t, c := range freq {
		out = append(out, domain.TermCount{Term: t, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Term < out[j].Term
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

const maxMentionExamples = 3

// StaffMentions aggregates the pre-computed staff field: names are split on
// commas, matched case-insensitively, and reported under the first-seen
// casing. Sentiment per name is the majority across mentioning reviews,
// ties resolving to neutral.
func StaffMentions(rs []domain.Review) []domain.StaffMention {
	return aggregateMentions(rs, func(r domain.Review) *string { return r.Staff })
}

// Themes aggregates the pre-computed themes field under the same rules.
func Themes(rs []domain.Review) []domain.StaffMention {
	return aggregateMentions(rs, func(r domain.Review) *string { return r.Themes })
}

type mentionAgg struct {
	name      string // first-seen casing
	count     int
	sentiment map[string]int
	examples  []string
}

func aggregateMentions(rs []domain.Review, field func(domain.Review) *string) []domain.StaffMention {
	byKey := map[string]*mentionAgg{}
	for _, r := range rs {
		v := field(r)
		if v == nil {
			continue
		}
		seen := map[string]bool{} // a name listed twice in one review counts once
		for _, part := range strings.Split(*v, ",") {
			name := strings.TrimSpace(part)
			if name == "" {
				continue
			}
			key := strings.ToLower(name)
			if seen[key] {
				continue
			}
			seen[key] = true
			agg := byKey[key]
			if agg == nil {
				agg = &mentionAgg{name: name, sentiment: map[string]int{}}
				byKey[key] = agg
			}
			agg.count++
			agg.sentiment[sentimentOf(r)]++
			if len(agg.examples) < maxMentionExamples && r.Text != nil {
				agg.examples = append(agg.examples, snippet(*r.Text))
			}
		}
	}
	out := make([]domain.StaffMention, 0, len(byKey))
	for _, agg := range byKey {
		out = append(out, domain.StaffMention{
			Name:      agg.name,
			Count:     agg.count,
			Sentiment: MajoritySentiment(agg.sentiment),
			Examples:  agg.examples,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// MajoritySentiment picks the label with the highest count; any tie for the
// top spot resolves to neutral.
func MajoritySentiment(counts map[string]int) string {
	best, bestCount, tied := "neutral", -1, false
	for _, label := range []string{"positive", "neutral", "negative"} {
		c := counts[label]
		if c > bestCount {
			best, bestCount, tied = label, c, false
		} else if c == bestCount {
			tied = true
		}
	}
	if tied || bestCount <= 0 {
		return "neutral"
	}
	return best
}

const snippetRunes = 120

func snippet(text string) string {
	text = strings.TrimSpace(text)
	r := []rune(text)
	if len(r) <= snippetRunes {
		return text
	}
	return string(r[:snippetRunes]) + "…"
}
