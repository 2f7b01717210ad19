package domain

import "time"

type Business struct {
	ID        int64
	Name      string
	DatasetID string // source dataset handle used by the ingestor
	CreatedAt *time.Time
}
