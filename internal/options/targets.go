package options

import (
	"maps"
	"strings"
)

// QueryValidator reports whether a targets value is a declarative
// environment query rather than an explicit environment map.
type QueryValidator func(value any) bool

// IsQuery accepts a non-empty query string or a non-empty list of them.
func IsQuery(value any) bool {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v) != ""
	case []string:
		if len(v) == 0 {
			return false
		}
		for _, item := range v {
			if strings.TrimSpace(item) == "" {
				return false
			}
		}
		return true
	case []any:
		if len(v) == 0 {
			return false
		}
		for _, item := range v {
			text, ok := item.(string)
			if !ok || strings.TrimSpace(text) == "" {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func normalizeTargets(raw any, isQuery QueryValidator) (Targets, error) {
	if raw == nil {
		return Targets{}, nil
	}
	if isQuery(raw) {
		return Targets{QueryKey: copyQuery(raw)}, nil
	}
	switch value := raw.(type) {
	case map[string]any:
		return Targets(maps.Clone(value)), nil
	case Targets:
		return maps.Clone(value), nil
	default:
		return nil, invalidf(OptTargets, "the 'targets' option must be a query, a list of queries or an object of environment versions, but got %s", describe(raw))
	}
}

func copyQuery(raw any) any {
	switch value := raw.(type) {
	case []string:
		return append([]string(nil), value...)
	case []any:
		return append([]any(nil), value...)
	default:
		return raw
	}
}
