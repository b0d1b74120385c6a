package cache

import "time"

type Status int

const (
	StatusIdle Status = iota
	StatusFetching
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusFetching:
		return "fetching"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// State is a point-in-time copy of one cache entry.
type State struct {
	Key         Key
	Data        any
	HasData     bool
	Status      Status
	Err         error
	FetchedAt   time.Time
	Stale       bool
	Subscribers int
}

// Settled reports whether the entry holds a result and no fetch is pending.
func (s State) Settled() bool {
	return s.Status == StatusSuccess || s.Status == StatusError
}
