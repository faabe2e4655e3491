package util

import (
	"errors"
	"strconv"
	"time"
)

// ErrInvalidTTL is returned for TTL strings that do not match <integer><unit>.
// Callers must apply an explicit default and log it; treating an unparseable
// TTL as zero or infinite is never acceptable.
var ErrInvalidTTL = errors.New("invalid ttl string")

const (
	day  = 24 * time.Hour
	week = 7 * day
	year = 365 * day
)

// ParseTTL parses compact TTL strings like "15m" or "30d".
// Supported units: s, m, h, d, w, y.
func ParseTTL(s string) (time.Duration, error) {
	if len(s) < 2 {
		return 0, ErrInvalidTTL
	}

	n, err := strconv.ParseInt(s[:len(s)-1], 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrInvalidTTL
	}

	var unit time.Duration
	switch s[len(s)-1] {
	case 's':
		unit = time.Second
	case 'm':
		unit = time.Minute
	case 'h':
		unit = time.Hour
	case 'd':
		unit = day
	case 'w':
		unit = week
	case 'y':
		unit = year
	default:
		return 0, ErrInvalidTTL
	}

	return time.Duration(n) * unit, nil
}
