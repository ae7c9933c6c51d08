package backup

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// MaxSlugLength is the longest slug Slugify returns.
	MaxSlugLength = 60
	// DefaultSlug replaces names that reduce to nothing.
	DefaultSlug = "workflow"
)

// slugRegex matches runs of characters that become a single hyphen
var slugRegex = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a workflow name into a file-name-safe slug.
// Rules:
// - Lowercase
// - Replace every run of characters outside [a-z0-9] with one hyphen
// - Trim leading/trailing hyphens
// - Max length: 60 bytes, trimmed again after the cut
// - Empty result: "workflow"
//
// Examples:
//
//	"Hello World!" -> "hello-world"
//	"  --Weird__Name--  " -> "weird-name"
//	"!!!" -> "workflow"
func Slugify(name string) string {
	result := cases.Lower(language.Und).String(name)
	result = slugRegex.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")

	if len(result) > MaxSlugLength {
		result = strings.TrimRight(result[:MaxSlugLength], "-")
	}

	if result == "" {
		return DefaultSlug
	}
	return result
}
