package services

import "fmt"

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

// Page is a skip/limit window over a listing
type Page struct {
	Skip  int
	Limit int
}

// NormalizePage validates a requested window. A zero limit selects the default.
func NormalizePage(skip, limit int) (Page, error) {
	if skip < 0 {
		return Page{}, Validation("skip", "skip must be greater than or equal to 0")
	}
	if limit == 0 {
		limit = DefaultPageLimit
	}
	if limit < 1 || limit > MaxPageLimit {
		return Page{}, Validation("limit", fmt.Sprintf("limit must be between 1 and %d", MaxPageLimit))
	}
	return Page{Skip: skip, Limit: limit}, nil
}
