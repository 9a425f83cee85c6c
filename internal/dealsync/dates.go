package dealsync

import (
	"fmt"
	"strings"
	"time"
)

// KatanaDateLayout is the millisecond UTC layout Katana expects.
const KatanaDateLayout = "2006-01-02T15:04:05.000Z"

var wonTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseWonTime accepts an RFC 3339 timestamp or a zone-less
// "YYYY-MM-DD HH:MM:SS" value, which is read as UTC.
func ParseWonTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range wonTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidWonTime, value)
}

// FormatKatanaDate renders t in UTC with the sub-second part zeroed.
func FormatKatanaDate(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(KatanaDateLayout)
}

// OrderDates returns the created and delivery dates for a won time.
func OrderDates(wonTime string, leadTime time.Duration) (created, delivery string, err error) {
	won, err := ParseWonTime(wonTime)
	if err != nil {
		return "", "", err
	}
	return FormatKatanaDate(won), FormatKatanaDate(won.Add(leadTime)), nil
}
