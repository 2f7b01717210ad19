package app_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/app"
	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/domain"
)

// ---- fakes ----

type fakeRepo struct {
	business  domain.Business
	page      domain.ReviewsPage
	all       []domain.Review
	listCalls int
}

func (f *fakeRepo) UpsertBusiness(ctx context.Context, b domain.Business) (int64, error) {
	return f.business.ID, nil
}
func (f *fakeRepo) UpsertReviews(ctx context.Context, rs []domain.Review) error { return nil }
func (f *fakeRepo) LogMiss(ctx context.Context, id int64, status int, reason string) error {
	return nil
}
func (f *fakeRepo) GetBusiness(ctx context.Context, id int64) (domain.Business, error) {
	if id != f.business.ID {
		return domain.Business{}, domain.ErrNotFound
	}
	return f.business, nil
}
func (f *fakeRepo) ListBusinesses(ctx context.Context) ([]domain.Business, error) {
	return []domain.Business{f.business}, nil
}
func (f *fakeRepo) ListReviews(ctx context.Context, id int64, pg domain.PageQuery) (domain.ReviewsPage, error) {
	f.listCalls++
	return f.page, nil
}
func (f *fakeRepo) ListReviewsSince(ctx context.Context, id int64, months int) ([]domain.Review, error) {
	f.listCalls++
	return f.all, nil
}

// fakeCache round-trips values through JSON, like both real adapters do.
type fakeCache struct {
	store map[string][]byte
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

func ptr[T any](v T) *T { return &v }

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// ---- tests ----

func TestListReviews_CacheMissThenHit(t *testing.T) {
	repo := &fakeRepo{
		page: domain.ReviewsPage{Items: []domain.Review{
			{BusinessID: 1, Author: ptr("Ana"), Stars: 5},
		}},
	}
	cache := &fakeCache{}
	q := app.NewQueryService(repo, cache, 10*time.Minute)

	out, err := q.ListReviews(context.Background(), 1, domain.PageQuery{Limit: 10})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(out.Items) != 1 || deref(out.Items[0].Author) != "Ana" {
		t.Fatalf("unexpected reviews: %+v", out.Items)
	}

	// Change repo, call again -> should come from cache
	repo.page.Items[0].Author = ptr("Changed")
	out2, _ := q.ListReviews(context.Background(), 1, domain.PageQuery{Limit: 10})
	if deref(out2.Items[0].Author) != "Ana" {
		t.Fatalf("expected cached author Ana, got %s", deref(out2.Items[0].Author))
	}
	if repo.listCalls != 1 {
		t.Fatalf("repo hit %d times, want 1", repo.listCalls)
	}
}

func TestMetrics_ComputedAndCached(t *testing.T) {
	repo := &fakeRepo{all: []domain.Review{
		{Stars: 5}, {Stars: 5}, {Stars: 5}, {Stars: 4}, {Stars: 4},
		{Stars: 3}, {Stars: 2}, {Stars: 1}, {Stars: 1}, {Stars: 1},
	}}
	cache := &fakeCache{}
	q := app.NewQueryService(repo, cache, 10*time.Minute)

	m, err := q.Metrics(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if m.AverageRating != 3.1 || m.ReviewCount != 10 {
		t.Fatalf("unexpected metrics: %+v", m)
	}
	if m.RatingBreakdown[5] != 3 || m.RatingBreakdown[1] != 3 {
		t.Fatalf("unexpected breakdown: %+v", m.RatingBreakdown)
	}

	// Second call is served from cache.
	repo.all = nil
	m2, _ := q.Metrics(context.Background(), 1, 0)
	if m2.ReviewCount != 10 {
		t.Fatalf("expected cached metrics, got %+v", m2)
	}
	if repo.listCalls != 1 {
		t.Fatalf("repo hit %d times, want 1", repo.listCalls)
	}
}

func TestTrends_SplitsWindows(t *testing.T) {
	now := time.Now().UTC()
	recent := now.AddDate(0, -1, 0)
	old := now.AddDate(0, -8, 0)
	repo := &fakeRepo{all: []domain.Review{
		{Stars: 5, PublishedAt: &recent},
		{Stars: 4, PublishedAt: &recent},
		{Stars: 1, PublishedAt: &old},
		{Stars: 2, PublishedAt: &old},
	}}
	q := app.NewQueryService(repo, &fakeCache{}, 10*time.Minute)

	tr, err := q.Trends(context.Background(), 1, 6)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if tr.Comparison.CurrentCount != 2 || tr.Comparison.PreviousCount != 2 {
		t.Fatalf("unexpected window split: %+v", tr.Comparison)
	}
	if tr.Comparison.CurrentAverage != 4.5 || tr.Comparison.PreviousAverage != 1.5 {
		t.Fatalf("unexpected averages: %+v", tr.Comparison)
	}
	if len(tr.Monthly) != 1 || tr.Monthly[0].Count != 2 {
		t.Fatalf("unexpected monthly buckets: %+v", tr.Monthly)
	}
}

func TestTrends_FullHistorySeries(t *testing.T) {
	now := time.Now().UTC()
	recent := now.AddDate(0, -1, 0)
	prior := now.AddDate(0, -15, 0)
	ancient := now.AddDate(0, -30, 0)
	repo := &fakeRepo{all: []domain.Review{
		{Stars: 5, PublishedAt: &recent},
		{Stars: 3, PublishedAt: &prior},
		{Stars: 1, PublishedAt: &ancient},
	}}
	q := app.NewQueryService(repo, &fakeCache{}, 10*time.Minute)

	tr, err := q.Trends(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	// months=0: the series covers the whole history...
	if len(tr.Monthly) != 3 {
		t.Fatalf("full history should bucket every month, got %+v", tr.Monthly)
	}
	// ...but the comparison stays last-12 vs the 12 before, so the
	// 30-month-old review is outside both windows.
	if tr.Comparison.CurrentCount != 1 || tr.Comparison.PreviousCount != 1 {
		t.Fatalf("comparison windows not bounded: %+v", tr.Comparison)
	}
}
