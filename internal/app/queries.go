package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/analytics"
	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/domain"
)

// Read keys embed a per-business version, so an ingest invalidates every
// cached shape (any limit, any window) by bumping one counter instead of
// enumerating keys.
func verKey(id int64) string { return fmt.Sprintf("ver:%d", id) }

func reviewsKey(id, ver int64, limit int, sort string) string {
	return fmt.Sprintf("reviews:%d:%d:%d:%s", id, ver, limit, sort)
}
func metricsKey(id, ver int64, months int) string {
	return fmt.Sprintf("metrics:%d:%d:%d", id, ver, months)
}
func trendsKey(id, ver int64, months int) string {
	return fmt.Sprintf("trends:%d:%d:%d", id, ver, months)
}

// verTTLSeconds must outlive every read TTL: when the version entry expires,
// readers fall back to version 0, whose entries are long gone by then.
const verTTLSeconds = 7 * 24 * 3600

func keyVersion(ctx context.Context, c domain.Cache, id int64) int64 {
	var v int64
	if ok, _ := c.Get(ctx, verKey(id), &v); ok {
		return v
	}
	return 0
}

type QueryService struct {
	repo     domain.ReviewRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.ReviewRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

func (s *QueryService) GetBusiness(ctx context.Context, id int64) (domain.Business, error) {
	return s.repo.GetBusiness(ctx, id)
}

func (s *QueryService) ListBusinesses(ctx context.Context) ([]domain.Business, error) {
	return s.repo.ListBusinesses(ctx)
}

func (s *QueryService) ListReviews(ctx context.Context, id int64, pg domain.PageQuery) (domain.ReviewsPage, error) {
	key := reviewsKey(id, keyVersion(ctx, s.cache, id), pg.Limit, pg.Sort)
	var out domain.ReviewsPage
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	rs, err := s.repo.ListReviews(ctx, id, pg)
	if err != nil {
		return domain.ReviewsPage{}, err
	}

	// copy slice to avoid aliasing the repo's backing array (prevents callers
	// from mutating the cached value)
	copyRS := deepCopyReviewsPage(rs)

	// optional size guard
	if b, _ := json.Marshal(copyRS); len(b) < 1_000_000 {
		_ = s.cache.Set(ctx, key, copyRS, int(s.cacheTTL.Seconds()))
	}
	return copyRS, nil
}

// Metrics returns the aggregate overview for the last N months (0 = full
// history), computed by the analytics package and cached per shape.
func (s *QueryService) Metrics(ctx context.Context, id int64, months int) (domain.Metrics, error) {
	key := metricsKey(id, keyVersion(ctx, s.cache, id), months)
	var out domain.Metrics
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	rs, err := s.repo.ListReviewsSince(ctx, id, months)
	if err != nil {
		return domain.Metrics{}, err
	}
	out = analytics.Overview(rs)
	_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

// Trends returns monthly buckets, the sentiment trend and a comparison of
// the requested window against the window before it. months=0 builds the
// series over the full history; the comparison then falls back to a
// 12-month window so "before" stays a bounded period, not all of time.
func (s *QueryService) Trends(ctx context.Context, id int64, months int) (domain.Trends, error) {
	key := trendsKey(id, keyVersion(ctx, s.cache, id), months)
	var out domain.Trends
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	window := months
	if window <= 0 {
		window = 12
	}
	fetch := 2 * window
	if months <= 0 {
		fetch = 0 // full history
	}
	rs, err := s.repo.ListReviewsSince(ctx, id, fetch)
	if err != nil {
		return domain.Trends{}, err
	}

	now := time.Now().UTC()
	current, previous := splitByCutoff(rs, now.AddDate(0, -window, 0))

	series := current
	if months <= 0 {
		series = rs
		// The full-history fetch reaches past the comparison baseline; cap
		// "previous" at the window before the current one.
		floor := now.AddDate(0, -2*window, 0)
		bounded := previous[:0:0]
		for _, r := range previous {
			if !r.PublishedAt.Before(floor) {
				bounded = append(bounded, r)
			}
		}
		previous = bounded
	}

	out = domain.Trends{
		Monthly:    analytics.GroupByMonth(series),
		Sentiment:  analytics.SentimentTrend(series),
		Comparison: analytics.ComparePeriods(current, previous),
	}
	_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

// splitByCutoff puts reviews at or after the cutoff (and undated ones) into
// current, the rest into previous.
func splitByCutoff(rs []domain.Review, cutoff time.Time) (current, previous []domain.Review) {
	for _, r := range rs {
		if r.PublishedAt == nil || !r.PublishedAt.Before(cutoff) {
			current = append(current, r)
		} else {
			previous = append(previous, r)
		}
	}
	return current, previous
}

func deepCopyReviewsPage(in domain.ReviewsPage) domain.ReviewsPage {
	out := domain.ReviewsPage{NextCursor: in.NextCursor}
	if n := len(in.Items); n > 0 {
		out.Items = make([]domain.Review, n)
		copy(out.Items, in.Items)
	}
	return out
}
