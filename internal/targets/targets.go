package targets

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/ben-ranford/presetenv/internal/options"
)

var (
	ErrUnknownEnvironment = errors.New("unknown target environment")
	ErrInvalidVersion     = errors.New("invalid target version")
	ErrQueryUnsupported   = errors.New("target queries need a query resolver")
)

const esModulesKey = "esmodules"

// Environments lists the target names with known support data.
var Environments = []string{"android", "chrome", "edge", "electron", "firefox", "ie", "ios", "node", "opera", "safari", "samsung"}

// Resolved maps an environment to the minimum version to support.
type Resolved map[string]*semver.Version

// Names returns the environment names in sorted order.
func (r Resolved) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// QueryResolver evaluates declarative environment queries, for example a
// browserslist implementation.
type QueryResolver interface {
	Resolve(queries []string) (map[string]string, error)
}

type Options struct {
	Queries QueryResolver
	// CurrentNode is the version used for node: "current".
	CurrentNode string
}

// Resolve turns normalized targets into explicit versions. Explicit
// environments override versions produced by a query. The returned
// warnings describe keys that were accepted but ignored.
func Resolve(t options.Targets, opts Options) (Resolved, []string, error) {
	resolved := make(Resolved)
	warnings := make([]string, 0)

	if query, ok := t[options.QueryKey]; ok {
		if err := resolveQuery(query, opts.Queries, resolved); err != nil {
			return nil, nil, err
		}
	}

	keys := make([]string, 0, len(t))
	for key := range t {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		switch key {
		case options.QueryKey:
			continue
		case esModulesKey:
			warnings = append(warnings, "targets.esmodules is not resolved here and was ignored")
			continue
		}
		if !isEnvironment(key) {
			return nil, nil, fmt.Errorf("%w: %s (did you mean %s?)", ErrUnknownEnvironment, key, options.Suggest(Environments, key))
		}
		version, err := resolveVersion(key, t[key], opts.CurrentNode)
		if err != nil {
			return nil, nil, err
		}
		resolved[key] = version
	}

	return resolved, warnings, nil
}

func resolveQuery(query any, resolver QueryResolver, into Resolved) error {
	queries := queryList(query)
	if resolver == nil {
		return fmt.Errorf("%w: %s", ErrQueryUnsupported, strings.Join(queries, ", "))
	}
	versions, err := resolver.Resolve(queries)
	if err != nil {
		return fmt.Errorf("resolve targets query: %w", err)
	}
	for env, raw := range versions {
		version, ok := options.CoerceVersion(raw)
		if !ok {
			return fmt.Errorf("%w: query returned %s %q", ErrInvalidVersion, env, raw)
		}
		into[env] = version
	}
	return nil
}

func queryList(query any) []string {
	switch value := query.(type) {
	case string:
		return []string{value}
	case []string:
		return append([]string(nil), value...)
	case []any:
		list := make([]string, 0, len(value))
		for _, item := range value {
			list = append(list, fmt.Sprint(item))
		}
		return list
	default:
		return []string{fmt.Sprint(value)}
	}
}

func resolveVersion(env string, raw any, currentNode string) (*semver.Version, error) {
	var text string
	switch value := raw.(type) {
	case string:
		text = value
	case bool:
		if env == "node" && value {
			text = "current"
		}
	case int:
		text = strconv.Itoa(value)
	case int64:
		text = strconv.FormatInt(value, 10)
	case uint64:
		text = strconv.FormatUint(value, 10)
	case float64:
		text = strconv.FormatFloat(value, 'f', -1, 64)
	}
	if env == "node" && text == "current" {
		if strings.TrimSpace(currentNode) == "" {
			return nil, fmt.Errorf("%w: node: \"current\" needs the running node version", ErrInvalidVersion)
		}
		text = currentNode
	}
	version, ok := options.CoerceVersion(text)
	if !ok {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidVersion, env, raw)
	}
	return version, nil
}

func isEnvironment(name string) bool {
	for _, env := range Environments {
		if env == name {
			return true
		}
	}
	return false
}
