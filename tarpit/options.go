package tarpit

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// DateParser turns user date input into a YYYY-MM-DD string. now anchors
// relative words such as "today".
type DateParser func(input string, now time.Time) (string, error)

// Options configures store behavior
type Options struct {
	Logger    *slog.Logger
	ParseDate DateParser
	Now       func() time.Time
}

// DefaultOptions returns options with a discarding logger, the built-in date
// parser and the wall clock.
func DefaultOptions() Options {
	return Options{
		Logger:    slog.New(slog.DiscardHandler),
		ParseDate: ParseDate,
		Now:       time.Now,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Logger == nil {
		o.Logger = d.Logger
	}
	if o.ParseDate == nil {
		o.ParseDate = d.ParseDate
	}
	if o.Now == nil {
		o.Now = d.Now
	}
	return o
}

const dateLayout = "2006-01-02"

var dateLayouts = []string{
	dateLayout,
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"2 Jan 2006",
	"Jan 2 2006",
	"Jan 2, 2006",
}

// ParseDate is the built-in DateParser. It accepts now, today, yesterday and
// tomorrow plus a handful of absolute layouts.
func ParseDate(input string, now time.Time) (string, error) {
	s := strings.TrimSpace(input)
	switch strings.ToLower(s) {
	case "now", "today":
		return now.Format(dateLayout), nil
	case "yesterday":
		return now.AddDate(0, 0, -1).Format(dateLayout), nil
	case "tomorrow":
		return now.AddDate(0, 0, 1).Format(dateLayout), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t.Format(dateLayout), nil
		}
	}
	return "", fmt.Errorf("invalid date: %s", input)
}
