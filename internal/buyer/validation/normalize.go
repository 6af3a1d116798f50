package validation

import (
	"strconv"
	"strings"

	"leadbook/internal/buyer/models"
	platformstrings "leadbook/pkg/platform/strings"
)

// Mode selects how raw input is coerced before the shared rule pass.
type Mode int

const (
	// ModeStrict expects JSON-typed values and coerces nothing.
	ModeStrict Mode = iota
	// ModeCSV expects every value as a string, as read from a CSV cell.
	ModeCSV
)

func (m Mode) String() string {
	if m == ModeCSV {
		return "csv"
	}
	return "strict"
}

// normalize copies raw and, in csv mode, coerces string cells into the shapes
// the rule pass expects. Cells that cannot be coerced are left as strings so
// the rules report them.
func normalize(mode Mode, raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	if mode != ModeCSV {
		return out
	}

	for k, v := range out {
		if s, ok := v.(string); ok {
			out[k] = strings.TrimSpace(s)
		}
	}

	for _, k := range []string{models.FieldBudgetMin, models.FieldBudgetMax} {
		s, ok := out[k].(string)
		if !ok {
			continue
		}
		if s == "" {
			delete(out, k)
			continue
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			out[k] = n
		}
	}

	if s, ok := out[models.FieldTags].(string); ok {
		out[models.FieldTags] = splitTags(s)
	}

	for _, k := range []string{models.FieldBHK, models.FieldStatus, models.FieldNotes} {
		if s, ok := out[k].(string); ok && s == "" {
			delete(out, k)
		}
	}
	return out
}

// splitTags splits a comma-separated cell, trimming tokens and dropping
// empties. Repeated tags are kept, as in JSON input.
func splitTags(s string) []string {
	return platformstrings.SplitTrimmed(s, ",")
}
