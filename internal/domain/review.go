package domain

import "time"

type Review struct {
	ID           int64
	BusinessID   int64
	ReviewURL    *string // source identity; upserts key on this
	Author       *string
	Stars        int // 1..5; items without a rating are dropped at ingest
	Title        *string
	Text         *string
	PublishedAt  *time.Time
	ResponseText *string // owner reply, if any
	ResponseAt   *time.Time
	Sentiment    *string // positive|neutral|negative, pre-computed upstream
	Staff        *string // comma-separated staff names mentioned
	Themes       *string // comma-separated recurring themes
	Language     *string
	RawJSON      []byte
}
