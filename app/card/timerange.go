package card

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	daysPattern  = regexp.MustCompile(`(\d+)\s*天`)
	hoursPattern = regexp.MustCompile(`(\d+)\s*小时`)
)

const (
	dateLayout     = "2006-1-2"
	dateTimeLayout = "2006-1-2 15:04"

	// maxRelativeHours bounds "N天M小时" to a century.
	maxRelativeHours = 100 * 366 * 24
)

// UnparseableTimeError carries the progress text that matched no grammar.
type UnparseableTimeError struct {
	Text   string
	Reason string
}

func (e *UnparseableTimeError) Error() string {
	return fmt.Sprintf("unparseable time text %q: %s", e.Text, e.Reason)
}

// Resolve turns a progress text into a time window anchored at capturedAt.
// On failure the window is empty and the error describes why; it is a
// diagnostic, not a reason to drop the record.
func Resolve(progress string, lifecycle Lifecycle, capturedAt time.Time) (TimeWindow, error) {
	text := strings.TrimSpace(progress)
	capturedAt = CaptureInstant(capturedAt)

	var (
		window TimeWindow
		err    *UnparseableTimeError
	)
	switch {
	case isRelative(text):
		window, err = resolveRelative(text, lifecycle, capturedAt)
	case strings.Contains(text, "-"):
		window, err = resolveAbsolute(text)
	default:
		err = &UnparseableTimeError{Reason: "no known time format"}
	}

	if err != nil {
		err.Text = progress
		return TimeWindow{}, err
	}
	return window, nil
}

func isRelative(text string) bool {
	return daysPattern.MatchString(text) || hoursPattern.MatchString(text)
}

func resolveRelative(text string, lifecycle Lifecycle, capturedAt time.Time) (TimeWindow, *UnparseableTimeError) {
	days, err := capturedInt(daysPattern, text)
	if err != nil {
		return TimeWindow{}, &UnparseableTimeError{Reason: err.Error()}
	}
	hours, err := capturedInt(hoursPattern, text)
	if err != nil {
		return TimeWindow{}, &UnparseableTimeError{Reason: err.Error()}
	}

	total := days*24 + hours
	if days > maxRelativeHours/24 || total > maxRelativeHours {
		return TimeWindow{}, &UnparseableTimeError{Reason: "duration out of range"}
	}
	delta := time.Duration(total) * time.Hour

	switch lifecycle {
	case Upcoming:
		start := capturedAt.Add(delta).Truncate(time.Hour)
		return TimeWindow{Start: &start}, nil
	case Ongoing:
		end := capturedAt.Add(delta).Truncate(time.Hour)
		return TimeWindow{End: &end}, nil
	case Ended:
		end := capturedAt.Add(-delta).Truncate(time.Hour)
		return TimeWindow{End: &end}, nil
	default:
		return TimeWindow{}, &UnparseableTimeError{Reason: "relative time needs a lifecycle"}
	}
}

// capturedInt returns 0 when the pattern is absent.
func capturedInt(pattern *regexp.Regexp, text string) (int, error) {
	match := pattern.FindStringSubmatch(text)
	if match == nil {
		return 0, nil
	}
	n, err := strconv.Atoi(match[1])
	if err != nil || n > math.MaxInt32 {
		return 0, fmt.Errorf("invalid number %q", match[1])
	}
	return n, nil
}

func resolveAbsolute(text string) (TimeWindow, *UnparseableTimeError) {
	parts := strings.Split(text, "-")
	if len(parts) != 2 {
		return TimeWindow{}, &UnparseableTimeError{Reason: fmt.Sprintf("expected two dates, got %d parts", len(parts))}
	}

	start, err := parseDate(parts[0])
	if err != nil {
		return TimeWindow{}, &UnparseableTimeError{Reason: err.Error()}
	}
	end, err := parseDate(parts[1])
	if err != nil {
		return TimeWindow{}, &UnparseableTimeError{Reason: err.Error()}
	}

	if start.After(end) {
		return TimeWindow{}, &UnparseableTimeError{Reason: "start is after end"}
	}

	return TimeWindow{Start: &start, End: &end}, nil
}

func parseDate(value string) (time.Time, error) {
	value = strings.ReplaceAll(strings.TrimSpace(value), "/", "-")
	value = strings.Join(strings.Fields(value), " ")

	layout := dateLayout
	if strings.Contains(value, ":") {
		layout = dateTimeLayout
	}

	parsed, err := time.ParseInLocation(layout, value, Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: %w", value, err)
	}
	return parsed.Truncate(time.Hour), nil
}
