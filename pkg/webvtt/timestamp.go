// Package webvtt implements the canonical concrete instance of the
// segmented-output pipeline: timestamp parsing/formatting, the text
// segmenter, and the text output (WebVTT writer) handler. Grounded on
// packager/media/formats/webvtt/webvtt_media_parser.cc and text_readers.h.
package webvtt

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTimestamp parses "[HH:]MM:SS.mmm" into milliseconds. Minutes and
// seconds must be in [0,59], milliseconds in [0,999]; hours are unbounded.
// When present, the hours group must have at least two digits, so
// "1:00:00.000" is malformed. The digit counts of minutes and seconds are
// not checked; milliseconds must be exactly three digits.
func ParseTimestamp(s string) (int64, error) {
	parts := strings.Split(s, ":")
	var hours, minutes int64
	var secondsStr string

	switch len(parts) {
	case 3:
		if len(parts[0]) < 2 {
			return 0, fmt.Errorf("webvtt: hours must be at least 2 digits in timestamp %q", s)
		}
		h, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil || h < 0 {
			return 0, fmt.Errorf("webvtt: invalid hours in timestamp %q", s)
		}
		hours = h
		m, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || m < 0 || m > 59 {
			return 0, fmt.Errorf("webvtt: invalid minutes in timestamp %q", s)
		}
		minutes = m
		secondsStr = parts[2]
	case 2:
		m, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil || m < 0 || m > 59 {
			return 0, fmt.Errorf("webvtt: invalid minutes in timestamp %q", s)
		}
		minutes = m
		secondsStr = parts[1]
	default:
		return 0, fmt.Errorf("webvtt: malformed timestamp %q", s)
	}

	secParts := strings.SplitN(secondsStr, ".", 2)
	if len(secParts) != 2 {
		return 0, fmt.Errorf("webvtt: malformed timestamp %q: missing milliseconds", s)
	}
	seconds, err := strconv.ParseInt(secParts[0], 10, 64)
	if err != nil || seconds < 0 || seconds > 59 {
		return 0, fmt.Errorf("webvtt: invalid seconds in timestamp %q", s)
	}
	if len(secParts[1]) != 3 {
		return 0, fmt.Errorf("webvtt: invalid milliseconds in timestamp %q", s)
	}
	ms, err := strconv.ParseInt(secParts[1], 10, 64)
	if err != nil || ms < 0 || ms > 999 {
		return 0, fmt.Errorf("webvtt: invalid milliseconds in timestamp %q", s)
	}

	total := hours*3600000 + minutes*60000 + seconds*1000 + ms
	return total, nil
}

// FormatTimestamp renders ms as the canonical long form "HH:MM:SS.mmm"
// with zero-padded hours of at least 2 digits.
func FormatTimestamp(ms int64) string {
	hours := ms / 3600000
	rem := ms % 3600000
	minutes := rem / 60000
	rem %= 60000
	seconds := rem / 1000
	millis := rem % 1000

	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
}
