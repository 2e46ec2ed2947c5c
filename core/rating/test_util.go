package rating

import "time"

// NewServiceMock returns a Service with a pinned clock, making recomputation
// fully deterministic.
func NewServiceMock(repo Repository, history HistoryReader, now time.Time) Service {
	return &service{
		repo:    repo,
		history: history,
		nowFunc: func() time.Time { return now },
	}
}
