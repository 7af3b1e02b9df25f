// Package date разбирает даты из тела запросов.
package date

import (
	"fmt"
	"strings"
	"time"
)

// Layouts принимаемые форматы: полная отметка времени RFC 3339 или календарная дата.
var Layouts = []string{time.RFC3339, time.DateOnly}

// Parse разбирает s в одном из форматов Layouts. Календарная дата трактуется как полночь UTC.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range Layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: expected RFC 3339 or YYYY-MM-DD", s)
}
