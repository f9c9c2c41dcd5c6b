package domain

import (
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// timestampLayouts are tried in order. Single-digit layout fields also accept
// zero-padded input, so "1/2/2006" matches "01/08/2023".
var timestampLayouts = []string{
	"1/2/2006 3:04:05 PM",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	DateLayout,
}

// DateParser converts timestamp strings to calendar dates, memoising results
// in a bounded LRU cache. It is not safe for concurrent use.
type DateParser struct {
	cache  *lru.Cache[string, time.Time]
	hits   int
	misses int
}

// NewDateParser creates a parser that remembers up to cacheSize distinct strings.
func NewDateParser(cacheSize int) (*DateParser, error) {
	cache, err := lru.New[string, time.Time](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create date cache: %w", err)
	}
	return &DateParser{cache: cache}, nil
}

// ParseDate returns the calendar date of value as midnight UTC. Time of day is
// discarded; the date is taken in the timestamp's own wall clock, so
// "2023-01-01T23:30:00-08:00" is 2023-01-01.
func (p *DateParser) ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if d, ok := p.cache.Get(value); ok {
		p.hits++
		return d, nil
	}
	p.misses++

	d, err := parseCalendarDate(value)
	if err != nil {
		return time.Time{}, err
	}
	p.cache.Add(value, d)
	return d, nil
}

// CacheStats returns the number of cache hits and misses since creation.
func (p *DateParser) CacheStats() (hits, misses int) {
	return p.hits, p.misses
}

func parseCalendarDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrUnparseableDate)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return truncateToDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, value)
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
