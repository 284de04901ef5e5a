package options

import (
	"errors"
	"os"

	"github.com/ben-ranford/presetenv/internal/catalog"
	"github.com/ben-ranford/presetenv/internal/pattern"
)

// Normalizer turns raw options into a Normalized configuration. A zero
// Normalizer uses the default registry, an empty working directory, the
// IsQuery validator and discards notices.
type Normalizer struct {
	Registry *catalog.Registry
	Cwd      string
	Sink     Sink
	IsQuery  QueryValidator
}

// Normalize validates raw against the default registry, with the process
// working directory as the configPath default.
func Normalize(raw Raw) (Normalized, error) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	n := &Normalizer{Cwd: cwd}
	return n.Normalize(raw)
}

func (n *Normalizer) Normalize(raw Raw) (Normalized, error) {
	reg := n.Registry
	if reg == nil {
		reg = catalog.Default()
	}
	sink := n.Sink
	if sink == nil {
		sink = discardSink{}
	}
	isQuery := n.IsQuery
	if isQuery == nil {
		isQuery = IsQuery
	}

	if err := validateTopLevelOptions(raw); err != nil {
		return Normalized{}, err
	}

	useBuiltIns, err := validateUseBuiltIns(raw[OptUseBuiltIns])
	if err != nil {
		return Normalized{}, err
	}
	coreJS, err := normalizeCoreJS(raw[OptCoreJS], useBuiltIns, sink)
	if err != nil {
		return Normalized{}, err
	}
	active := reg.Active(coreJS.Major())

	include, exclude, err := expandIncludeExclude(raw, active)
	if err != nil {
		return Normalized{}, err
	}
	if err := checkConflicts(include, exclude); err != nil {
		return Normalized{}, err
	}

	cfg := Normalized{
		Include:     include,
		Exclude:     exclude,
		UseBuiltIns: useBuiltIns,
		CoreJS:      coreJS,
	}
	if cfg.ConfigPath, err = validateConfigPath(raw[OptConfigPath], n.Cwd); err != nil {
		return Normalized{}, err
	}
	if cfg.Modules, err = validateModules(raw[OptModules]); err != nil {
		return Normalized{}, err
	}
	if cfg.Targets, err = normalizeTargets(raw[OptTargets], isQuery); err != nil {
		return Normalized{}, err
	}

	flags := []struct {
		name   string
		target *bool
	}{
		{OptDebug, &cfg.Debug},
		{OptForceAllTransforms, &cfg.ForceAllTransforms},
		{OptIgnoreBrowserslistConfig, &cfg.IgnoreBrowserslistConfig},
		{OptLoose, &cfg.Loose},
		{OptShippedProposals, &cfg.ShippedProposals},
		{OptSpec, &cfg.Spec},
	}
	for _, flag := range flags {
		if *flag.target, err = validateBool(flag.name, raw[flag.name], false); err != nil {
			return Normalized{}, err
		}
	}

	return cfg, nil
}

func expandIncludeExclude(raw Raw, active catalog.Catalog) ([]string, []string, error) {
	includePatterns, err := validateStringList(OptInclude, raw[OptInclude])
	if err != nil {
		return nil, nil, err
	}
	excludePatterns, err := validateStringList(OptExclude, raw[OptExclude])
	if err != nil {
		return nil, nil, err
	}
	include, includeErr := pattern.Expand(OptInclude, includePatterns, active)
	exclude, excludeErr := pattern.Expand(OptExclude, excludePatterns, active)
	if includeErr != nil || excludeErr != nil {
		return nil, nil, errors.Join(includeErr, excludeErr)
	}
	return include, exclude, nil
}
