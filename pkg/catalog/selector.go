package catalog

import (
	"log/slog"

	llmerrors "github.com/personagen/llmroute/pkg/errors"
	"github.com/personagen/llmroute/pkg/types"
)

// Select produces the ordered candidate list for one request attempt.
//
// Starting from the preference-ordered base list it removes exhausted
// models (unless the paid tier is active), restricts to JSON-mode models
// when the request needs JSON (restricting, never reordering), and moves
// reasoning models to the front when reasoning is forced. Selection is
// deterministic given identical inputs.
func Select(
	catalog *Catalog,
	base []string,
	exhausted Exhaustion,
	opts types.RequestOptions,
	usePaidAPI bool,
	logger *slog.Logger,
) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	models := make([]string, 0, len(base))
	for _, m := range base {
		if !usePaidAPI && exhausted.IsExhausted(m) {
			continue
		}
		models = append(models, m)
	}

	if opts.AsJSON {
		filtered := models[:0:0]
		for _, m := range models {
			d, err := catalog.Lookup(m)
			if err != nil {
				return nil, err
			}
			if d.SupportsJSONMode {
				filtered = append(filtered, m)
			}
		}
		models = filtered
	}

	if opts.ForceReasoning {
		reasoning := make([]string, 0, len(models))
		rest := make([]string, 0, len(models))
		for _, m := range models {
			d, err := catalog.Lookup(m)
			if err != nil {
				return nil, err
			}
			if d.IsReasoningModel {
				reasoning = append(reasoning, m)
			} else {
				rest = append(rest, m)
			}
		}
		if len(reasoning) > 0 {
			models = append(reasoning, rest...)
		} else if len(models) > 0 {
			// Degraded mode: no reasoning-capable candidate survived
			// the filters. Keep the original order, warn, never error.
			logger.Warn("no reasoning model available, using filtered order",
				"fallback", models[0],
			)
		}
	}

	if len(models) == 0 {
		return nil, llmerrors.NewNoModelAvailableError(
			"no models available after selection/filtering")
	}
	return models, nil
}
