package prompt

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"golang.org/x/text/language"
)

// Library is a prompt document loaded from disk: one shared system prompt
// and an ordered list of prompt specs run against it.
type Library struct {
	// Lang is the output language the prompts are written for.
	Lang string `json:"lang"`

	// SystemPrompt is the shared system turn. Must carry a {day}
	// placeholder so every run is anchored to a calendar day.
	SystemPrompt string `json:"system_prompt"`

	Prompts []Spec `json:"prompts"`
}

// LoadLibrary reads and validates a prompt library file.
func LoadLibrary(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt library: %w", err)
	}

	var lib Library
	if err := json.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("parse prompt library: %w", err)
	}
	if err := lib.Validate(); err != nil {
		return nil, fmt.Errorf("invalid prompt library %s: %w", path, err)
	}
	return &lib, nil
}

// Validate checks the library invariants.
func (l *Library) Validate() error {
	if l.Lang == "" {
		return fmt.Errorf("lang is required")
	}
	if _, err := language.Parse(l.Lang); err != nil {
		return fmt.Errorf("lang %q is not a valid language tag: %w", l.Lang, err)
	}
	if l.SystemPrompt == "" {
		return fmt.Errorf("system_prompt is required")
	}

	hasDay := false
	for _, name := range Placeholders(l.SystemPrompt) {
		if name == "day" {
			hasDay = true
			break
		}
	}
	if !hasDay {
		return fmt.Errorf("system_prompt must contain a {day} placeholder")
	}

	if len(l.Prompts) == 0 {
		return fmt.Errorf("prompts must not be empty")
	}
	seen := make(map[string]bool, len(l.Prompts))
	for i, s := range l.Prompts {
		if s.Prompt == "" {
			return fmt.Errorf("prompts[%d]: prompt is required", i)
		}
		if s.CacheKey == "" {
			return fmt.Errorf("prompts[%d]: cache_key is required", i)
		}
		if seen[s.CacheKey] {
			return fmt.Errorf("prompts[%d]: duplicate cache_key %q", i, s.CacheKey)
		}
		seen[s.CacheKey] = true
	}
	return nil
}
