package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ben-ranford/presetenv/internal/options"
	"github.com/ben-ranford/presetenv/internal/safeio"
)

const (
	readConfigFileErrFmt = "read config file %s: %w"
	parseConfigErrFmt    = "parse config file %s: %w"
	DefaultSource        = "defaults"
)

var (
	ErrNotFound = errors.New("config file not found")
	ErrCycle    = errors.New("config extends cycle")
)

// FileNames are the config files discovered at the repository root, in
// lookup order.
var FileNames = []string{".presetenvrc.yml", ".presetenvrc.yaml", "presetenv.json", "presetenv.toml"}

type LoadResult struct {
	Preset     options.Raw
	Runtime    map[string]any
	ConfigPath string
	// Sources lists every file that contributed, highest precedence first.
	Sources []string
}

func Load(repoPath, explicitPath string) (LoadResult, error) {
	repoAbs, err := filepath.Abs(repoPath)
	if err != nil {
		return LoadResult{}, fmt.Errorf("resolve repo path: %w", err)
	}
	explicitProvided := strings.TrimSpace(explicitPath) != ""

	configPath, found, err := resolveConfigPath(repoAbs, strings.TrimSpace(explicitPath))
	if err != nil {
		return LoadResult{}, err
	}
	if !found {
		return LoadResult{
			Preset:  options.Raw{},
			Runtime: map[string]any{},
			Sources: []string{DefaultSource},
		}, nil
	}

	resolver := newExtendsResolver(repoAbs)
	merged, err := resolver.resolveFile(configPath, explicitProvided)
	if err != nil {
		return LoadResult{}, err
	}
	return LoadResult{
		Preset:     merged.preset,
		Runtime:    merged.runtime,
		ConfigPath: configPath,
		Sources:    merged.sourcesHighToLow(),
	}, nil
}

func resolveConfigPath(repoPath, explicitPath string) (string, bool, error) {
	if explicitPath != "" {
		candidate := explicitPath
		if !filepath.IsAbs(candidate) {
			candidate = filepath.Join(repoPath, candidate)
		}
		candidate = filepath.Clean(candidate)
		if _, err := os.Stat(candidate); err != nil {
			if os.IsNotExist(err) {
				return "", false, fmt.Errorf("%w: %s", ErrNotFound, candidate)
			}
			return "", false, fmt.Errorf(readConfigFileErrFmt, candidate, err)
		}
		return candidate, true, nil
	}

	for _, name := range FileNames {
		candidate := filepath.Join(repoPath, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !os.IsNotExist(err) {
			return "", false, fmt.Errorf(readConfigFileErrFmt, candidate, err)
		}
	}
	return "", false, nil
}

func readConfigFile(repoPath, path string, explicitProvided bool) ([]byte, error) {
	if !explicitProvided {
		return safeio.ReadFileUnder(repoPath, path)
	}
	return safeio.ReadFileWithin(repoPath, path)
}

type rawConfig struct {
	Extends []string       `yaml:"extends" json:"extends" toml:"extends"`
	Preset  map[string]any `yaml:"preset" json:"preset" toml:"preset"`
	Runtime map[string]any `yaml:"runtime" json:"runtime" toml:"runtime"`
}

func parseConfig(path string, data []byte) (rawConfig, error) {
	var cfg rawConfig
	switch configExtension(path) {
	case ".json":
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return rawConfig{}, fmt.Errorf("invalid JSON config: %w", err)
		}
		if decoder.More() {
			return rawConfig{}, fmt.Errorf("invalid JSON config: multiple JSON values")
		}
	case ".toml":
		decoder := toml.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return rawConfig{}, fmt.Errorf("invalid TOML config: %w", err)
		}
	default:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return rawConfig{}, fmt.Errorf("invalid YAML config: %w", err)
		}
	}
	return cfg, nil
}

func configExtension(location string) string {
	if parsed, ok := parseRemoteURL(location); ok {
		return strings.ToLower(filepath.Ext(parsed.Path))
	}
	return strings.ToLower(filepath.Ext(location))
}

type extendsResolver struct {
	repoPath string
	stack    []string
}

type mergeResult struct {
	preset            map[string]any
	runtime           map[string]any
	appliedSourcesLow []string
}

func newExtendsResolver(repoPath string) *extendsResolver {
	return &extendsResolver{repoPath: repoPath, stack: make([]string, 0, 8)}
}

// resolveFile merges a config with everything it extends. Bases apply in
// order and the including file wins, key by key.
func (r *extendsResolver) resolveFile(path string, explicitProvided bool) (mergeResult, error) {
	canonical, remote, err := canonicalLocation(path)
	if err != nil {
		return mergeResult{}, err
	}
	if err := r.push(canonical); err != nil {
		return mergeResult{}, err
	}
	defer r.pop(canonical)

	data, err := readLocation(r.repoPath, canonical, explicitProvided, remote)
	if err != nil {
		return mergeResult{}, err
	}
	cfg, err := parseConfig(canonical, data)
	if err != nil {
		return mergeResult{}, fmt.Errorf(parseConfigErrFmt, canonical, err)
	}

	merged := mergeResult{preset: map[string]any{}, runtime: map[string]any{}}
	for idx, ref := range cfg.Extends {
		resolvedRef, err := resolveExtendsRef(canonical, ref)
		if err != nil {
			return mergeResult{}, fmt.Errorf("parse config file %s: invalid extends[%d]: %w", canonical, idx, err)
		}
		base, err := r.resolveFile(resolvedRef, true)
		if err != nil {
			return mergeResult{}, err
		}
		maps.Copy(merged.preset, base.preset)
		maps.Copy(merged.runtime, base.runtime)
		merged.appliedSourcesLow = append(merged.appliedSourcesLow, base.appliedSourcesLow...)
	}
	maps.Copy(merged.preset, cfg.Preset)
	maps.Copy(merged.runtime, cfg.Runtime)
	merged.appliedSourcesLow = dedupeStable(append(merged.appliedSourcesLow, canonical))
	return merged, nil
}

func (m mergeResult) sourcesHighToLow() []string {
	sources := make([]string, 0, len(m.appliedSourcesLow)+1)
	for i := len(m.appliedSourcesLow) - 1; i >= 0; i-- {
		sources = append(sources, m.appliedSourcesLow[i])
	}
	return append(sources, DefaultSource)
}

func resolveExtendsRef(currentPath, ref string) (string, error) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return "", fmt.Errorf("extends reference must not be empty")
	}
	if parentURL, ok := parseRemoteURL(currentPath); ok {
		return resolveRemoteRef(parentURL, trimmed)
	}
	if _, ok := parseRemoteURL(trimmed); ok {
		return canonicalRemoteURL(trimmed)
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed), nil
	}
	return filepath.Clean(filepath.Join(filepath.Dir(currentPath), trimmed)), nil
}

func canonicalLocation(path string) (string, bool, error) {
	if _, ok := parseRemoteURL(path); ok {
		canonical, err := canonicalRemoteURL(path)
		if err != nil {
			return "", false, err
		}
		return canonical, true, nil
	}
	canonical, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", false, fmt.Errorf("resolve config path: %w", err)
	}
	return canonical, false, nil
}

func readLocation(repoPath, location string, explicitProvided, remote bool) ([]byte, error) {
	if remote {
		data, err := readRemoteFile(location)
		if err != nil {
			return nil, fmt.Errorf("read remote config file %s: %w", location, err)
		}
		return data, nil
	}
	data, err := readConfigFile(repoPath, location, explicitProvided)
	if err != nil {
		return nil, fmt.Errorf(readConfigFileErrFmt, location, err)
	}
	return data, nil
}

func dedupeStable(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result
}

func (r *extendsResolver) push(path string) error {
	for _, current := range r.stack {
		if current == path {
			chain := append(append([]string{}, r.stack...), path)
			return fmt.Errorf("%w: %s", ErrCycle, strings.Join(chain, " -> "))
		}
	}
	r.stack = append(r.stack, path)
	return nil
}

func (r *extendsResolver) pop(path string) {
	if len(r.stack) > 0 && r.stack[len(r.stack)-1] == path {
		r.stack = r.stack[:len(r.stack)-1]
	}
}
