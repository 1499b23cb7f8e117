package util

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_\-.]`)

// SanitizeName turns free text into a single safe path segment. Case is kept.
func SanitizeName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = unsafeNameChars.ReplaceAllString(s, "")
	s = strings.Trim(s, ".")
	if s == "" {
		return "unknown"
	}
	return s
}

// TimestampedName prefixes a sanitised filename with the upload time so
// repeated uploads of the same file never collide.
func TimestampedName(now time.Time, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	base := strings.TrimSuffix(path.Base(strings.ReplaceAll(filename, "\\", "/")), path.Ext(filename))
	return fmt.Sprintf("%d_%s%s", now.UnixMilli(), SanitizeName(base), ext)
}

func ClampRunes(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}
