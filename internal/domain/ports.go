package domain

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

type ReviewRepository interface {
	// Write paths
	UpsertBusiness(ctx context.Context, b Business) (int64, error)
	UpsertReviews(ctx context.Context, rs []Review) error
	LogMiss(ctx context.Context, businessID int64, status int, reason string) error

	// Read paths
	GetBusiness(ctx context.Context, id int64) (Business, error)
	ListBusinesses(ctx context.Context) ([]Business, error)
	ListReviews(ctx context.Context, businessID int64, pg PageQuery) (ReviewsPage, error)
	ListReviewsSince(ctx context.Context, businessID int64, months int) ([]Review, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type SourceClient interface {
	FetchReviews(ctx context.Context, datasetID string, limit int) ([]map[string]any, error)
}

type PageQuery struct {
	Limit  int
	Cursor *string
	Sort   string
}

type ReviewsPage struct {
	Items      []Review
	NextCursor *string
}
