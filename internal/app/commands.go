package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/adapters/source"
	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/domain"
)

type IngestionService struct {
	source domain.SourceClient
	repo   domain.ReviewRepository
	cache  domain.Cache
}

func NewIngestionService(c domain.SourceClient, r domain.ReviewRepository, cache domain.Cache) *IngestionService {
	return &IngestionService{source: c, repo: r, cache: cache}
}

// IngestBusiness registers the business, pulls its reviews from the source
// dataset and upserts them. 404/401/403 from the source are recorded as
// misses and end the run gracefully; anything else bubbles up.
func (s *IngestionService) IngestBusiness(ctx context.Context, b domain.Business, reviewCount int) error {
	id, err := s.repo.UpsertBusiness(ctx, b)
	if err != nil {
		return fmt.Errorf("upsert business %q failed: %w", b.Name, err)
	}

	items, err := s.source.FetchReviews(ctx, b.DatasetID, reviewCount)
	if err != nil {
		switch {
		case errors.Is(err, source.ErrNotFound):
			_ = s.repo.LogMiss(ctx, id, 404, "dataset not found")
		case errors.Is(err, source.ErrUnauthorized):
			_ = s.repo.LogMiss(ctx, id, 401, "unauthorized")
		case errors.Is(err, source.ErrForbidden):
			_ = s.repo.LogMiss(ctx, id, 403, "forbidden")
		default:
			// Network/5xx/JSON errors are unexpected: surface them.
			return err
		}
		// Evict any stale caches so we don't keep serving an old snapshot.
		if s.cache != nil {
			s.invalidateBusiness(ctx, id)
		}
		return nil
	}

	if rs := mapReviews(id, items); len(rs) > 0 {
		if err := s.repo.UpsertReviews(ctx, rs); err != nil {
			// Do not swallow this; we need to know inserts failed.
			return fmt.Errorf("upsert reviews failed for %q: %w", b.Name, err)
		}
	}

	// Invalidate even when the fetch came back empty, so an emptied dataset
	// doesn't keep serving stale aggregates.
	if s.cache != nil {
		s.invalidateBusiness(ctx, id)
	}
	return nil
}

// invalidateBusiness bumps the per-business cache version. Every read key
// embeds the version, so all cached shapes for this business (any limit,
// any window) die at once.
func (s *IngestionService) invalidateBusiness(ctx context.Context, id int64) {
	_ = s.cache.Set(ctx, verKey(id), time.Now().UnixNano(), verTTLSeconds)
}
