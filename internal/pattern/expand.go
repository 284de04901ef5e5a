package pattern

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ben-ranford/presetenv/internal/catalog"
)

var ErrUnmatched = errors.New("pattern matches no catalog entry")

// UnmatchedError lists every pattern of one option that resolved to
// nothing in the active catalog.
type UnmatchedError struct {
	Option   string
	Patterns []string
	Source   string
}

func (e *UnmatchedError) Error() string {
	return fmt.Sprintf(
		"invalid option: the plugins/built-ins '%s' passed to the '%s' option are not valid; check %s",
		strings.Join(e.Patterns, ", "), e.Option, e.Source,
	)
}

func (e *UnmatchedError) Unwrap() error {
	return ErrUnmatched
}

// Expand resolves patterns against the catalog and returns the sorted
// union of their matches. All patterns are evaluated before failing so the
// error names every unmatched one.
func Expand(option string, patterns []string, active catalog.Catalog) ([]string, error) {
	if len(patterns) == 0 {
		return []string{}, nil
	}

	selected := make(map[string]struct{})
	unmatched := make([]string, 0)
	for _, raw := range patterns {
		matches := Select(Parse(raw), active)
		if len(matches) == 0 {
			unmatched = append(unmatched, raw)
			continue
		}
		for _, name := range matches {
			selected[name] = struct{}{}
		}
	}
	if len(unmatched) > 0 {
		return nil, &UnmatchedError{Option: option, Patterns: unmatched, Source: active.Source()}
	}

	result := make([]string, 0, len(selected))
	for name := range selected {
		result = append(result, name)
	}
	sort.Strings(result)
	return result, nil
}

// Select returns the catalog members p matches, in catalog order.
func Select(p Pattern, active catalog.Catalog) []string {
	if literal, ok := p.(Literal); ok {
		if active.Has(literal.name) {
			return []string{literal.name}
		}
		return nil
	}
	matches := make([]string, 0)
	active.Each(func(name string) {
		if p.Matches(name) {
			matches = append(matches, name)
		}
	})
	return matches
}
