// Package decode recovers structured data from model text output. Models
// asked for JSON frequently wrap it in markdown fences, quote the whole
// document, or leave a trailing comma; this package repairs those defects
// before unmarshalling.
package decode

import (
	"regexp"
	"strings"

	"github.com/goccy/go-json"

	"github.com/personagen/llmroute/pkg/errors"
)

// trailingComma matches a comma followed only by whitespace before a
// closing brace or bracket.
var trailingComma = regexp.MustCompile(`,\s*([}\]])`)

// jsonSpan matches the widest brace-delimited span, so prose around a
// JSON object is discarded.
var jsonSpan = regexp.MustCompile(`(?s)\{.*\}`)

// Clean strips the markdown and quoting artifacts models add around JSON
// output and extracts the object span from surrounding prose. The result
// may still be invalid JSON; Clean only removes the known wrappers.
func Clean(raw string) string {
	s := strings.TrimSpace(raw)

	// ```json ... ``` or bare ``` fences
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}

	// Whole-document quoting
	s = strings.Trim(s, `"`)

	if span := jsonSpan.FindString(s); span != "" {
		s = span
	}
	return s
}

// JSON cleans raw model output and unmarshals it into v. The cleaned text
// is parsed strictly first; the trailing-comma repair only runs on a parse
// failure, so string values containing ", }" survive intact. A failure
// after repair yields a malformed-response error carrying the model name
// so callers can retry or drop the model.
func JSON(model, raw string, v any) error {
	cleaned := Clean(raw)
	if cleaned == "" {
		return errors.NewMalformedResponseError(model, "empty response body")
	}
	if err := json.Unmarshal([]byte(cleaned), v); err == nil {
		return nil
	}
	repaired := trailingComma.ReplaceAllString(cleaned, "$1")
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return errors.NewMalformedResponseError(model, "invalid JSON after cleaning: "+err.Error())
	}
	return nil
}

// Object decodes raw model output into a generic JSON object.
func Object(model, raw string) (map[string]any, error) {
	var out map[string]any
	if err := JSON(model, raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
