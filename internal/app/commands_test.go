package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/adapters/source"
	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/app"
	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/domain"
)

type fakeSource struct {
	items []map[string]any
	err   error
}

func (f *fakeSource) FetchReviews(ctx context.Context, datasetID string, limit int) ([]map[string]any, error) {
	return f.items, f.err
}

// recordingRepo tracks what the ingestion run writes.
type recordingRepo struct {
	fakeRepo
	upserted []domain.Review
	misses   []int
}

func (r *recordingRepo) UpsertBusiness(ctx context.Context, b domain.Business) (int64, error) {
	return 42, nil
}
func (r *recordingRepo) UpsertReviews(ctx context.Context, rs []domain.Review) error {
	r.upserted = append(r.upserted, rs...)
	return nil
}
func (r *recordingRepo) LogMiss(ctx context.Context, id int64, status int, reason string) error {
	r.misses = append(r.misses, status)
	return nil
}

func TestIngestBusiness_MapsAndUpserts(t *testing.T) {
	src := &fakeSource{items: []map[string]any{
		{"reviewUrl": "https://maps.google.com/r/1", "stars": float64(5), "name": "Ana", "text": "Great"},
		{"reviewUrl": "https://maps.google.com/r/2", "stars": "4", "textTranslated": "Fine"},
		{"name": "NoURL", "stars": float64(3)},       // dropped: no identity
		{"reviewUrl": "https://maps.google.com/r/3"}, // dropped: no rating
	}}
	repo := &recordingRepo{}

	ing := app.NewIngestionService(src, repo, &fakeCache{})
	if err := ing.IngestBusiness(context.Background(), domain.Business{Name: "Cafe", DatasetID: "ds"}, 100); err != nil {
		t.Fatalf("err: %v", err)
	}

	if len(repo.upserted) != 2 {
		t.Fatalf("want 2 mapped reviews, got %d: %+v", len(repo.upserted), repo.upserted)
	}
	if repo.upserted[0].Stars != 5 || repo.upserted[1].Stars != 4 {
		t.Fatalf("stars not mapped: %+v", repo.upserted)
	}
	if deref(repo.upserted[1].Text) != "Fine" {
		t.Fatalf("translated text should win: %+v", repo.upserted[1])
	}
}

func TestIngestBusiness_InvalidatesCachedReads(t *testing.T) {
	repo := &recordingRepo{fakeRepo: fakeRepo{all: []domain.Review{{Stars: 5}, {Stars: 3}}}}
	cache := &fakeCache{}
	q := app.NewQueryService(repo, cache, 10*time.Minute)
	ctx := context.Background()

	// Warm the cache, confirm the second read is served from it.
	if _, err := q.Metrics(ctx, 42, 0); err != nil {
		t.Fatalf("err: %v", err)
	}
	if _, err := q.Metrics(ctx, 42, 5); err != nil {
		t.Fatalf("err: %v", err)
	}
	if _, err := q.Metrics(ctx, 42, 0); err != nil {
		t.Fatalf("err: %v", err)
	}
	if repo.listCalls != 2 {
		t.Fatalf("repo hit %d times before ingest, want 2", repo.listCalls)
	}

	ing := app.NewIngestionService(&fakeSource{}, repo, cache)
	if err := ing.IngestBusiness(ctx, domain.Business{Name: "Cafe", DatasetID: "ds"}, 100); err != nil {
		t.Fatalf("err: %v", err)
	}

	// Every cached shape must miss now, including the odd months=5 window.
	if _, err := q.Metrics(ctx, 42, 0); err != nil {
		t.Fatalf("err: %v", err)
	}
	if _, err := q.Metrics(ctx, 42, 5); err != nil {
		t.Fatalf("err: %v", err)
	}
	if repo.listCalls != 4 {
		t.Fatalf("cached reads survived the ingest: repo hits = %d, want 4", repo.listCalls)
	}
}

func TestIngestBusiness_SourceMissIsRecorded(t *testing.T) {
	src := &fakeSource{err: source.ErrNotFound}
	repo := &recordingRepo{}

	ing := app.NewIngestionService(src, repo, &fakeCache{})
	if err := ing.IngestBusiness(context.Background(), domain.Business{Name: "Gone", DatasetID: "ds"}, 100); err != nil {
		t.Fatalf("missing dataset must not fail the run, got: %v", err)
	}
	if len(repo.misses) != 1 || repo.misses[0] != 404 {
		t.Fatalf("want a 404 miss row, got %+v", repo.misses)
	}
	if len(repo.upserted) != 0 {
		t.Fatalf("nothing should be upserted on a miss: %+v", repo.upserted)
	}
}

func TestIngestBusiness_TransportErrorBubbles(t *testing.T) {
	boom := errors.New("connection reset")
	src := &fakeSource{err: boom}
	repo := &recordingRepo{}

	ing := app.NewIngestionService(src, repo, &fakeCache{})
	if err := ing.IngestBusiness(context.Background(), domain.Business{Name: "Cafe", DatasetID: "ds"}, 100); !errors.Is(err, boom) {
		t.Fatalf("transport errors must surface, got: %v", err)
	}
	if len(repo.misses) != 0 {
		t.Fatalf("transport error is not a miss: %+v", repo.misses)
	}
}
