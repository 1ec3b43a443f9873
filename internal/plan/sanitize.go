package plan

import (
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// SanitizeName replaces every character outside alphanumerics, hyphen
// and underscore with a hyphen, making a tag safe as a filename stem.
func SanitizeName(s string) string {
	return unsafeChars.ReplaceAllString(s, "-")
}

// OutputName derives the output filename for an item: the sanitized tag
// when one is set, otherwise the original filename's stem, with the
// selected format as extension.
func OutputName(tag, originalName, format string) string {
	stem := tag
	if stem == "" {
		base := filepath.Base(originalName)
		stem = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if stem == "" {
		stem = "converted"
	}
	return SanitizeName(stem) + "." + format
}
