package app

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/domain"
)

/********** alias registries (single source of truth) **********/

// Scraped datasets are not uniform: older runs used different field names.
var reviewAliases = map[string][]string{
	"url":        {"reviewUrl", "review_url", "url"},
	"author":     {"name", "reviewerName", "author", "user.name"},
	"title":      {"title", "reviewTitle"},
	"text":       {"textTranslated", "text", "review_text", "reviewText", "comment"},
	"published":  {"publishedAtDate", "publishedAt", "published_at", "date"},
	"response":   {"responseFromOwnerText", "ownerResponse", "response_text"},
	"responseAt": {"responseFromOwnerDate", "ownerResponseDate"},
	"sentiment":  {"sentiment"},
	"staff":      {"staffMentioned", "staff_mentioned", "staff"},
	"themes":     {"mainThemes", "main_themes", "themes"},
	"lang":       {"language", "originalLanguage", "lang"},
	"stars":      {"stars", "rating", "score"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func aliasStr(m map[string]any, key string) *string {
	for _, p := range reviewAliases[key] {
		if s := lookupStr(m, p); s != "" {
			return &s
		}
	}
	return nil
}

func aliasStars(m map[string]any) (int, bool) {
	for _, p := range reviewAliases["stars"] {
		switch v := lookupAny(m, p).(type) {
		case float64:
			return int(v), true
		case int:
			return v, true
		case string:
			if s := strings.TrimSpace(v); s != "" {
				var f float64
				if err := json.Unmarshal([]byte(s), &f); err == nil {
					return int(f), true
				}
			}
		}
	}
	return 0, false
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func aliasTime(m map[string]any, key string) *time.Time {
	for _, p := range reviewAliases[key] {
		s := lookupStr(m, p)
		if s == "" {
			continue
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				u := t.UTC()
				return &u
			}
		}
	}
	return nil
}

/********** item -> domain **********/

// mapReviews converts raw dataset items into domain records. Items without
// a star rating or a review URL are dropped: without the URL the upsert has
// no identity, and without stars every aggregate would be guesswork.
func mapReviews(businessID int64, items []map[string]any) []domain.Review {
	out := make([]domain.Review, 0, len(items))
	dropped := 0
	for _, it := range items {
		stars, ok := aliasStars(it)
		if !ok || stars < 1 || stars > 5 {
			dropped++
			continue
		}
		url := aliasStr(it, "url")
		if url == nil {
			dropped++
			continue
		}
		raw, _ := json.Marshal(it)
		out = append(out, domain.Review{
			BusinessID:   businessID,
			ReviewURL:    url,
			Author:       aliasStr(it, "author"),
			Stars:        stars,
			Title:        aliasStr(it, "title"),
			Text:         aliasStr(it, "text"),
			PublishedAt:  aliasTime(it, "published"),
			ResponseText: aliasStr(it, "response"),
			ResponseAt:   aliasTime(it, "responseAt"),
			Sentiment:    aliasStr(it, "sentiment"),
			Staff:        aliasStr(it, "staff"),
			Themes:       aliasStr(it, "themes"),
			Language:     aliasStr(it, "lang"),
			RawJSON:      raw,
		})
	}
	if dropped > 0 {
		log.Warn().Int64("business", businessID).Int("dropped", dropped).
			Msg("skipped items without rating or review URL")
	}
	return out
}
