package util

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultPattern is used by FormatPattern when no pattern is given
const DefaultPattern = "{y}-{m}-{d} {h}:{i}:{s}"

var (
	patternToken = regexp.MustCompile(`\{([ymdhisa])+\}`)
	digitsOnly   = regexp.MustCompile(`^[0-9]+$`)
	weekdayNames = [...]string{"日", "一", "二", "三", "四", "五", "六"}

	dateLayouts = []string{
		"2006/01/02 15:04:05",
		"2006/01/02 15:04",
		"2006/01/02",
		"2006/1/2 15:04:05",
		"2006/1/2",
		time.RFC3339,
	}
)

// ParseTime parses a timestamp. All-digit input is read as unix seconds when it
// has 10 digits and as unix milliseconds otherwise; anything else is parsed as a
// date with '-' and '/' treated alike.
func ParseTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}
	if loc == nil {
		loc = time.Local
	}

	if digitsOnly.MatchString(value) {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", value, err)
		}
		if len(value) == 10 {
			return time.Unix(n, 0).In(loc), nil
		}
		return time.UnixMilli(n).In(loc), nil
	}

	if strings.Contains(value, "T") {
		if t, err := time.Parse(time.RFC3339, value); err == nil {
			return t.In(loc), nil
		}
	}

	normalized := strings.ReplaceAll(value, "-", "/")
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, normalized, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time value %q", value)
}

// FormatPattern renders t using {y} {m} {d} {h} {i} {s} tokens, each zero padded
// to two digits. {a} renders the weekday as a single Chinese numeral.
func FormatPattern(t time.Time, pattern string) string {
	if pattern == "" {
		pattern = DefaultPattern
	}

	return patternToken.ReplaceAllStringFunc(pattern, func(token string) string {
		key := token[len(token)-2]
		var value int
		switch key {
		case 'y':
			value = t.Year()
		case 'm':
			value = int(t.Month())
		case 'd':
			value = t.Day()
		case 'h':
			value = t.Hour()
		case 'i':
			value = t.Minute()
		case 's':
			value = t.Second()
		case 'a':
			return weekdayNames[t.Weekday()]
		}
		return fmt.Sprintf("%02d", value)
	})
}

// FormatRelative describes t relative to now for timestamps up to two days old
// and falls back to pattern (or a month/day/hour/minute form) beyond that.
func FormatRelative(t, now time.Time, pattern string) string {
	diff := now.Sub(t).Seconds()

	switch {
	case diff < 30:
		return "刚刚"
	case diff < 3600:
		return fmt.Sprintf("%d分钟前", int(math.Ceil(diff/60)))
	case diff < 3600*24:
		return fmt.Sprintf("%d小时前", int(math.Ceil(diff/3600)))
	case diff < 3600*24*2:
		return "1天前"
	}

	if pattern != "" {
		return FormatPattern(t, pattern)
	}
	return fmt.Sprintf("%d月%d日%d时%d分", int(t.Month()), t.Day(), t.Hour(), t.Minute())
}

// FormatDate renders t in one of the short layouts used across the console.
func FormatDate(t time.Time, layout string) string {
	switch layout {
	case "MM-dd hh:mm:ss":
		return t.Format("01-02 15:04:05")
	case "yyyy-MM-dd", "":
		return t.Format("2006-01-02")
	default:
		return t.Format("2006-01-02 15:04:05")
	}
}
