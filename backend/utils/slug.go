package utils

import (
	"regexp"
	"strings"
)

var (
	slugStripRe    = regexp.MustCompile(`[^\w\s-]`)
	slugCollapseRe = regexp.MustCompile(`[-\s]+`)
)

// Slugify converts a title into a URL-friendly slug.
func Slugify(text string) string {
	text = strings.ToLower(text)
	text = slugStripRe.ReplaceAllString(text, "")
	text = slugCollapseRe.ReplaceAllString(text, "-")
	return strings.Trim(text, "-")
}
