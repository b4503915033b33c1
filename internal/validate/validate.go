package validate

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reID  = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reQ   = regexp.MustCompile(`^[A-Za-z0-9 _.'\-]{1,50}$`)
	reKey = regexp.MustCompile(`^[a-z][a-z0-9_]{0,49}$`)
	rePIN = regexp.MustCompile(`^[0-9]{4,8}$`)
)

// ID validates a locally generated entity identifier.
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Q validates a search query: trims, enforces allowed characters and max length.
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if len(s) > 50 {
		s = s[:50]
	}
	return s, reQ.MatchString(s)
}

// Category passes through a trimmed category name, empty meaning "all".
func Category(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 50 {
		s = s[:50]
	}
	return s
}

// SettingKey validates a settings key (snake_case, lowercase).
func SettingKey(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reKey.MatchString(s)
}

// PIN validates a numeric device PIN.
func PIN(s string) bool { return rePIN.MatchString(s) }

// Millis parses an epoch-milliseconds query parameter, returning def when
// absent or unparseable.
func Millis(s string, def int64) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return def
	}
	return n
}
