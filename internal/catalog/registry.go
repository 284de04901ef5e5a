package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
)

const (
	pluginsFile         = "data/plugins.json"
	coreJS2File         = "data/corejs2-built-ins.json"
	coreJS3File         = "data/corejs3-built-ins.json"
	defaultIncludesFile = "data/default-includes.json"
	moduleTransformFile = "data/module-transformations.json"
	runtimeCoreJS2File  = "data/runtime-corejs2.json"
	helpersFile         = "data/helpers.json"
)

//go:embed data/*.json
var dataFS embed.FS

// Support maps an environment name to the first version that ships a
// feature natively. A missing environment means no known native support.
type Support map[string]string

type Feature struct {
	Name string
	// Support is shared with the registry and must not be modified.
	Support         Support
	ShippedProposal bool
	Proposal        bool
}

type rawFeature struct {
	Support         Support `json:"support"`
	ShippedProposal bool    `json:"shippedProposal"`
	Proposal        bool    `json:"proposal"`
}

// Registry holds every static table the normalizer, planner and runtime
// rewriter consult. It is built once and never mutated afterwards, so a
// single instance may be shared between goroutines.
type Registry struct {
	plugins          []Feature
	coreJS2          []Feature
	coreJS3          []Feature
	defaultIncludes  []string
	moduleTransforms map[string]string
	runtime          RuntimeDefinitions
	helpers          map[string]*semver.Version

	withoutPolyfill Catalog
	withCoreJS2     Catalog
	withCoreJS3     Catalog
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)

// Default returns the process-wide registry built from the embedded data.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry, defaultErr = Load()
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("catalog: embedded data is invalid: %v", defaultErr))
	}
	return defaultRegistry
}

// Load decodes the embedded catalog data into a new Registry.
func Load() (*Registry, error) {
	plugins, err := loadFeatures(pluginsFile)
	if err != nil {
		return nil, err
	}
	coreJS2, err := loadFeatures(coreJS2File)
	if err != nil {
		return nil, err
	}
	coreJS3, err := loadFeatures(coreJS3File)
	if err != nil {
		return nil, err
	}

	var defaultIncludes []string
	if err := decodeFile(defaultIncludesFile, &defaultIncludes); err != nil {
		return nil, err
	}
	moduleTransforms := make(map[string]string)
	if err := decodeFile(moduleTransformFile, &moduleTransforms); err != nil {
		return nil, err
	}
	runtime, err := loadRuntimeDefinitions(runtimeCoreJS2File)
	if err != nil {
		return nil, err
	}
	helpers, err := loadHelpers(helpersFile)
	if err != nil {
		return nil, err
	}

	pluginNames := featureNames(plugins)
	moduleNames := make([]string, 0, len(moduleTransforms))
	for _, name := range moduleTransforms {
		moduleNames = append(moduleNames, name)
	}

	return &Registry{
		plugins:          plugins,
		coreJS2:          coreJS2,
		coreJS3:          coreJS3,
		defaultIncludes:  defaultIncludes,
		moduleTransforms: moduleTransforms,
		runtime:          runtime,
		helpers:          helpers,
		withoutPolyfill:  newCatalog(sourceList(pluginsFile, moduleTransformFile), pluginNames, moduleNames),
		withCoreJS2:      newCatalog(sourceList(pluginsFile, coreJS2File, moduleTransformFile), pluginNames, featureNames(coreJS2), defaultIncludes, moduleNames),
		withCoreJS3:      newCatalog(sourceList(pluginsFile, coreJS3File, moduleTransformFile), pluginNames, featureNames(coreJS3), moduleNames),
	}, nil
}

func (r *Registry) WithoutPolyfill() Catalog { return r.withoutPolyfill }
func (r *Registry) WithCoreJS2() Catalog     { return r.withCoreJS2 }
func (r *Registry) WithCoreJS3() Catalog     { return r.withCoreJS3 }

// Active selects the catalog for a resolved corejs major version. Zero
// means no corejs; majors other than 2 and 3 have no polyfill catalog.
func (r *Registry) Active(coreJSMajor uint64) Catalog {
	switch coreJSMajor {
	case 2:
		return r.withCoreJS2
	case 3:
		return r.withCoreJS3
	default:
		return r.withoutPolyfill
	}
}

// Plugins returns the transform plugins in name order.
func (r *Registry) Plugins() []Feature {
	return append([]Feature(nil), r.plugins...)
}

// Polyfills returns the polyfill entries for a corejs major version.
func (r *Registry) Polyfills(coreJSMajor uint64) []Feature {
	switch coreJSMajor {
	case 2:
		return append([]Feature(nil), r.coreJS2...)
	case 3:
		return append([]Feature(nil), r.coreJS3...)
	default:
		return nil
	}
}

func (r *Registry) DefaultIncludes() []string {
	return append([]string(nil), r.defaultIncludes...)
}

// ModuleTransform returns the plugin implementing a module format.
func (r *Registry) ModuleTransform(format string) (string, bool) {
	name, ok := r.moduleTransforms[format]
	return name, ok
}

func (r *Registry) Runtime() RuntimeDefinitions {
	return r.runtime
}

// HelperAvailable reports whether the named compiler helper ships with the
// given runtime package version. A range such as "^7.4.0" is judged by its
// lower bound.
func (r *Registry) HelperAvailable(name, version string) bool {
	minVersion, ok := r.helpers[name]
	if !ok {
		return false
	}
	requested, err := semver.NewVersion(strings.TrimLeft(strings.TrimSpace(version), "^~>=v "))
	if err != nil {
		return false
	}
	return !requested.LessThan(minVersion)
}

func loadFeatures(path string) ([]Feature, error) {
	raw := make(map[string]rawFeature)
	if err := decodeFile(path, &raw); err != nil {
		return nil, err
	}
	features := make([]Feature, 0, len(raw))
	for name, entry := range raw {
		for env, version := range entry.Support {
			if _, err := semver.NewVersion(version); err != nil {
				return nil, fmt.Errorf("%s: %s: invalid %s version %q: %w", path, name, env, version, err)
			}
		}
		features = append(features, Feature{
			Name:            name,
			Support:         entry.Support,
			ShippedProposal: entry.ShippedProposal,
			Proposal:        entry.Proposal,
		})
	}
	sort.Slice(features, func(i, j int) bool { return features[i].Name < features[j].Name })
	return features, nil
}

func loadHelpers(path string) (map[string]*semver.Version, error) {
	raw := make(map[string]string)
	if err := decodeFile(path, &raw); err != nil {
		return nil, err
	}
	helpers := make(map[string]*semver.Version, len(raw))
	for name, value := range raw {
		version, err := semver.NewVersion(value)
		if err != nil {
			return nil, fmt.Errorf("%s: helper %s: %w", path, name, err)
		}
		helpers[name] = version
	}
	return helpers, nil
}

func decodeFile(path string, target any) error {
	data, err := dataFS.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func featureNames(features []Feature) []string {
	names := make([]string, 0, len(features))
	for _, feature := range features {
		names = append(names, feature.Name)
	}
	return names
}
