package models

import "math"

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 50

	// MaxPageNumber keeps Offset from overflowing at any allowed limit.
	MaxPageNumber = math.MaxInt/MaxPageLimit + 1
)

// Page is a normalized 1-based page request.
type Page struct {
	Number int
	Limit  int
}

// NewPage clamps number and limit to sane values.
func NewPage(number, limit int) Page {
	if number < 1 {
		number = 1
	}
	if number > MaxPageNumber {
		number = MaxPageNumber
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return Page{Number: number, Limit: limit}
}

// Offset returns the number of records to skip.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// PageCount returns how many pages total records span.
func (p Page) PageCount(total int) int {
	if total == 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}

// HasMore reports whether pages exist after this one.
func (p Page) HasMore(total int) bool {
	return p.Number < p.PageCount(total)
}
