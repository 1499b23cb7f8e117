package util

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

var ErrInvalidDate = errors.New("invalid date format (use YYYY-MM-DD or RFC3339)")

// DateRange is a half-open [From, Until) window. A date-only end bound is
// widened to cover the whole day.
type DateRange struct {
	From     time.Time
	HasFrom  bool
	Until    time.Time
	HasUntil bool
}

func parseBound(s string) (t time.Time, ok bool, dateOnly bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, false, nil
	}
	if tt, e := time.Parse(time.RFC3339, s); e == nil {
		return tt, true, false, nil
	}
	if tt, e := time.Parse("2006-01-02", s); e == nil {
		return tt, true, true, nil
	}
	return time.Time{}, false, false, ErrInvalidDate
}

// ParseDateRange accepts blank bounds as missing. Reversed bounds are swapped;
// whether the end is widened depends on how the end string was written.
func ParseDateRange(start, end string) (DateRange, error) {
	from, hasFrom, _, err := parseBound(start)
	if err != nil {
		return DateRange{}, err
	}
	until, hasUntil, endDateOnly, err := parseBound(end)
	if err != nil {
		return DateRange{}, err
	}

	if hasFrom && hasUntil && until.Before(from) {
		from, until = until, from
	}
	if hasUntil && endDateOnly {
		until = until.AddDate(0, 0, 1)
	}
	return DateRange{From: from, HasFrom: hasFrom, Until: until, HasUntil: hasUntil}, nil
}

// Apply filters q on column with the range bounds that are set.
func (r DateRange) Apply(q *gorm.DB, column string) *gorm.DB {
	if r.HasFrom {
		q = q.Where(column+" >= ?", r.From)
	}
	if r.HasUntil {
		q = q.Where(column+" < ?", r.Until)
	}
	return q
}
