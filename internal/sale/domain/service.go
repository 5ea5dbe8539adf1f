package domain

import (
	"context"
	"errors"
)

type Service interface {
	// Record persists every session and item of one batch atomically,
	// all stamped with the same instant.
	Record(ctx context.Context, req RecordRequest) (*RecordResponse, error)
}

type SessionInput struct {
	Computer string `json:"computer"`
	Duration int    `json:"duration"`
	Charge   int64  `json:"charge"`
}

type ItemInput struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type RecordRequest struct {
	Items    []ItemInput
	Sessions []SessionInput
}

type RecordResponse struct {
	RecordedAt string  `json:"recorded_at"`
	SessionIDs []int64 `json:"session_ids"`
	ItemIDs    []int64 `json:"item_ids"`
}

// ErrPersistence is the only failure a caller sees; the cause is logged.
var ErrPersistence = errors.New("persistence_error")
