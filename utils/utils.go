package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

func UrlQuery(s string) string { return strings.ReplaceAll(s, " ", "+") }

func Str(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// CleanText collapses runs of whitespace into single spaces.
func CleanText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// TopicKey normalizes a raw query into the key used by the topic index:
// lowercased, trimmed, truncated to at most 60 bytes on a rune boundary so
// multi-byte queries never produce an invalid key.
func TopicKey(query string) string {
	key := strings.ToLower(strings.TrimSpace(query))
	if len(key) <= 60 {
		return key
	}
	cut := 60
	for cut > 0 && !utf8.RuneStart(key[cut]) {
		cut--
	}
	return key[:cut]
}
