package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Cursor is the watcher high-watermark: the largest source modification
// time observed so far, in seconds since the epoch. Zero means "from the
// beginning".
type Cursor float64

// ParseCursor parses a persisted cursor. An empty string is the zero cursor.
func ParseCursor(s string) (Cursor, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCursor, s)
	}
	return Cursor(f), nil
}

// String renders the cursor as a decimal string that ParseCursor accepts.
func (c Cursor) String() string {
	return strconv.FormatFloat(float64(c), 'f', -1, 64)
}

// Advance returns the larger of c and mtime.
func (c Cursor) Advance(mtime float64) Cursor {
	if Cursor(mtime) > c {
		return Cursor(mtime)
	}
	return c
}

// Time converts the cursor to a wall-clock time.
func (c Cursor) Time() time.Time {
	sec, frac := math.Modf(float64(c))
	return time.Unix(int64(sec), int64(frac*1e9))
}

// EpochSeconds converts t to fractional seconds since the epoch.
func EpochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// WatchState tracks the persisted cursor for one watched root.
type WatchState struct {
	// WatchID identifies the watched root.
	WatchID string

	// Cursor is the persisted decimal cursor string.
	Cursor string

	// LastTick is when the cursor was last advanced.
	LastTick time.Time
}
