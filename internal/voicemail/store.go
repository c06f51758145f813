package voicemail

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("voicemail: record not found")
	ErrMalformedRecord = errors.New("voicemail: stored record is malformed")
)

const (
	listLimitMin = 1
	listLimitMax = 100
)

// ListOptions selects a page of the reverse-chronological index.
type ListOptions struct {
	Offset int
	Limit  int

	// UnlistenedOnly filters the fetched page down to unheard messages.
	UnlistenedOnly bool
}

// ListResult carries one page plus the full index size. Total counts every
// index entry, including ids whose payload failed to parse; the mismatch
// surfaces data-integrity drift instead of hiding it.
type ListResult struct {
	Records []Record `json:"voicemails"`
	Total   int64    `json:"total"`
	Offset  int      `json:"offset"`
	Limit   int      `json:"limit"`
}

// Store persists voicemail records and their creation-time index.
//
// Update is read-modify-write, not transactional: two webhooks landing close
// together can race and the later write wins. That is the accepted concurrency
// contract for this store, not a bug to fix with locking.
type Store interface {
	Create(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, error)
	Update(ctx context.Context, id string, mutate func(*Record) error) (Record, error)
	List(ctx context.Context, opts ListOptions) (ListResult, error)
	Delete(ctx context.Context, id string) error
}

func clampLimit(limit int) int {
	if limit < listLimitMin {
		return listLimitMin
	}
	if limit > listLimitMax {
		return listLimitMax
	}
	return limit
}
