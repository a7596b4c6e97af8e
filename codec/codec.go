// Package codec holds the scalar format helpers shared by validation and
// template generation: ISO-8601-like datetimes, durations, and URIs.
package codec

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// datetimeLayouts are tried in order. RFC3339 first; the space-separated and
// date-only forms appear in test reports emitted by common tooling.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDatetime parses an ISO-8601-like timestamp.
func ParseDatetime(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range datetimeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// FormatDatetime renders a canonical RFC3339 timestamp in UTC.
func FormatDatetime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

var errNegativeDuration = errors.New("negative duration")

// ParseDuration parses a non-negative time span from a string. Accepted
// forms: a plain number of seconds ("1.5"), a Go duration ("1m30s"), or a
// clock-style span ("[D.]HH:MM:SS[.frac]").
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, errors.New("empty duration")
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return Seconds(secs)
	}
	if d, err := time.ParseDuration(s); err == nil {
		if d < 0 {
			return 0, errNegativeDuration
		}
		return d, nil
	}
	return parseClockDuration(s)
}

// Seconds converts a numeric seconds value to a Duration, rejecting negative
// spans.
func Seconds(secs float64) (time.Duration, error) {
	if secs < 0 {
		return 0, errNegativeDuration
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// parseClockDuration handles "[D.]HH:MM:SS[.frac]".
func parseClockDuration(s string) (time.Duration, error) {
	days := 0
	rest := s
	if dot := strings.Index(s, "."); dot > 0 && strings.Index(s, ":") > dot {
		d, err := strconv.Atoi(s[:dot])
		if err != nil || d < 0 {
			return 0, fmt.Errorf("malformed duration %q", s)
		}
		days = d
		rest = s[dot+1:]
	}
	parts := strings.Split(rest, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("malformed duration %q", s)
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	sec, err3 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil || err3 != nil || h < 0 || m < 0 || sec < 0 {
		return 0, fmt.Errorf("malformed duration %q", s)
	}
	d := time.Duration(days)*24*time.Hour +
		time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(sec*float64(time.Second))
	return d, nil
}

// FormatDuration renders a duration as fractional seconds, the form test
// reports conventionally carry.
func FormatDuration(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

// ParseURI parses a URI, requiring an explicit scheme.
func ParseURI(s string) (*url.URL, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("uri %q has no scheme", s)
	}
	return u, nil
}
