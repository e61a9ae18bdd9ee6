// Package prompt handles prompt templates: placeholder substitution from a
// value cache and loading of prompt libraries from disk.
package prompt

import (
	"fmt"
	"regexp"
)

// placeholder matches {name} tokens with word-character names. JSON braces
// in templates do not match because their contents are not bare words.
var placeholder = regexp.MustCompile(`\{(\w+)\}`)

// MissingPlaceholderError reports a template placeholder with no value in
// the cache.
type MissingPlaceholderError struct {
	Name string
}

func (e *MissingPlaceholderError) Error() string {
	return fmt.Sprintf("no value for placeholder {%s}", e.Name)
}

// Fill substitutes {name} placeholders in template with values from cache.
// With acceptUnfilled set, unknown placeholders are left verbatim instead
// of failing; otherwise the first missing name aborts the fill.
func Fill(template string, cache map[string]string, acceptUnfilled bool) (string, error) {
	var missing *MissingPlaceholderError

	out := placeholder.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		if val, ok := cache[name]; ok {
			return val
		}
		if missing == nil {
			missing = &MissingPlaceholderError{Name: name}
		}
		return match
	})

	if missing != nil && !acceptUnfilled {
		return "", missing
	}
	return out, nil
}

// Placeholders lists the distinct placeholder names in a template, in
// first-appearance order.
func Placeholders(template string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range placeholder.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}
