package options

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/agext/levenshtein"
)

func validateTopLevelOptions(raw Raw) error {
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if isTopLevelOption(key) {
			continue
		}
		return &Error{
			Option:  key,
			Message: fmt.Sprintf("%s is not a valid top-level option. Maybe you meant to use '%s'?", key, Suggest(TopLevelOptions, key)),
			kind:    ErrUnknownOption,
		}
	}
	return nil
}

func isTopLevelOption(key string) bool {
	for _, option := range TopLevelOptions {
		if option == key {
			return true
		}
	}
	return false
}

// Suggest returns the candidate closest to value by edit distance. Ties go
// to the earlier candidate.
func Suggest(candidates []string, value string) string {
	best := ""
	bestDistance := math.MaxInt
	for _, candidate := range candidates {
		distance := levenshtein.Distance(candidate, value, nil)
		if distance < bestDistance {
			best = candidate
			bestDistance = distance
		}
	}
	return best
}

func validateBool(name string, raw any, def bool) (bool, error) {
	if raw == nil {
		return def, nil
	}
	value, ok := raw.(bool)
	if !ok {
		return false, invalidf(name, "'%s' option must be a boolean", name)
	}
	return value, nil
}

func validateModules(raw any) (Modules, error) {
	switch value := raw.(type) {
	case nil:
		return ModulesAuto, nil
	case bool:
		if !value {
			return ModulesOff, nil
		}
	case string:
		normalized := strings.TrimSpace(value)
		if normalized == "cjs" {
			return ModulesCommonJS, nil
		}
		// Off is spelled with the boolean false only.
		for _, candidate := range modulesValues {
			if candidate != ModulesOff && string(candidate) == normalized {
				return candidate, nil
			}
		}
	}
	return "", invalidf(OptModules, "the 'modules' option must be one of false, %s, but got %s", quotedModules(), describe(raw))
}

func quotedModules() string {
	values := make([]string, 0, len(modulesValues))
	for _, value := range modulesValues {
		if value == ModulesOff {
			continue
		}
		values = append(values, strconv.Quote(string(value)))
	}
	return strings.Join(values, ", ")
}

// validateUseBuiltIns accepts false, "entry" and "usage". The deprecated
// boolean true selects "entry".
func validateUseBuiltIns(raw any) (UseBuiltIns, error) {
	switch value := raw.(type) {
	case nil:
		return UseBuiltInsOff, nil
	case bool:
		if value {
			return UseBuiltInsEntry, nil
		}
		return UseBuiltInsOff, nil
	case string:
		switch UseBuiltIns(strings.TrimSpace(value)) {
		case UseBuiltInsEntry:
			return UseBuiltInsEntry, nil
		case UseBuiltInsUsage:
			return UseBuiltInsUsage, nil
		}
	}
	return "", invalidf(OptUseBuiltIns, "the 'useBuiltIns' option must be one of false, \"entry\", \"usage\", but got %s", describe(raw))
}

func validateConfigPath(raw any, cwd string) (string, error) {
	if raw == nil {
		return cwd, nil
	}
	value, ok := raw.(string)
	if !ok {
		return "", invalidf(OptConfigPath, "the 'configPath' option must be a string")
	}
	return value, nil
}

func validateStringList(name string, raw any) ([]string, error) {
	switch value := raw.(type) {
	case nil:
		return nil, nil
	case []string:
		return append([]string(nil), value...), nil
	case []any:
		list := make([]string, 0, len(value))
		for idx, item := range value {
			text, ok := item.(string)
			if !ok {
				return nil, invalidf(name, "the '%s' option must be a list of strings, but item %d is %s", name, idx, describe(item))
			}
			list = append(list, text)
		}
		return list, nil
	default:
		return nil, invalidf(name, "the '%s' option must be a list of strings, but got %s", name, describe(raw))
	}
}

func describe(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	case bool, int, int64, uint64, float64:
		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("a value of type %T", v)
	}
}
