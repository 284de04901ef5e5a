package plan

import (
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/lo"

	"github.com/ben-ranford/presetenv/internal/catalog"
	"github.com/ben-ranford/presetenv/internal/options"
	"github.com/ben-ranford/presetenv/internal/targets"
)

const (
	reasonForced   = "forceAllTransforms"
	reasonIncluded = "include"
	reasonNoTarget = "no targets"
	reasonModules  = "modules"
	reasonDefault  = "web default"
)

// Item is one activated plugin or polyfill. Reasons is only filled when
// the configuration asks for debug output.
type Item struct {
	Name    string   `json:"name"`
	Reasons []string `json:"reasons,omitempty"`
}

type Plan struct {
	Plugins   []Item `json:"plugins"`
	Polyfills []Item `json:"polyfills"`
}

func (p Plan) PluginNames() []string {
	return itemNames(p.Plugins)
}

func (p Plan) PolyfillNames() []string {
	return itemNames(p.Polyfills)
}

type selection struct {
	debug bool
	items map[string][]string
}

func newSelection(debug bool) *selection {
	return &selection{debug: debug, items: make(map[string][]string)}
}

func (s *selection) add(name string, reasons ...string) {
	existing, ok := s.items[name]
	if !ok {
		existing = []string{}
	}
	if s.debug {
		existing = append(existing, reasons...)
	}
	s.items[name] = existing
}

func (s *selection) remove(names []string) {
	for _, name := range names {
		delete(s.items, name)
	}
}

func (s *selection) list() []Item {
	items := make([]Item, 0, len(s.items))
	for name, reasons := range s.items {
		item := Item{Name: name}
		if len(reasons) > 0 {
			item.Reasons = lo.Uniq(reasons)
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items
}

// Build selects the plugins and polyfills to activate for cfg at the
// resolved target versions.
func Build(reg *catalog.Registry, cfg options.Normalized, resolved targets.Resolved) Plan {
	pluginCatalog := reg.WithoutPolyfill()
	includedPlugins := lo.Filter(cfg.Include, func(name string, _ int) bool {
		return pluginCatalog.Has(name)
	})
	includedPolyfills := lo.Filter(cfg.Include, func(name string, _ int) bool {
		return !pluginCatalog.Has(name)
	})

	plugins := newSelection(cfg.Debug)
	for _, feature := range reg.Plugins() {
		if feature.ShippedProposal && !cfg.ShippedProposals {
			continue
		}
		if cfg.ForceAllTransforms {
			plugins.add(feature.Name, reasonForced)
			continue
		}
		if reasons, required := requiredBy(feature, resolved); required {
			plugins.add(feature.Name, reasons...)
		}
	}
	if name, ok := moduleTransform(reg, cfg.Modules); ok {
		plugins.add(name, reasonModules)
	}
	for _, name := range includedPlugins {
		plugins.add(name, reasonIncluded)
	}
	plugins.remove(cfg.Exclude)

	polyfills := newSelection(cfg.Debug)
	if cfg.UseBuiltIns.Enabled() {
		major := cfg.CoreJS.Major()
		proposals := cfg.CoreJS != nil && cfg.CoreJS.Proposals
		defaults := reg.DefaultIncludes()
		for _, feature := range reg.Polyfills(major) {
			if feature.Proposal && !proposals {
				continue
			}
			if major == 2 && lo.Contains(defaults, feature.Name) {
				continue
			}
			if reasons, required := requiredBy(feature, resolved); required {
				polyfills.add(feature.Name, reasons...)
			}
		}
		if major == 2 && targetsWeb(resolved) {
			for _, name := range defaults {
				polyfills.add(name, reasonDefault)
			}
		}
		for _, name := range includedPolyfills {
			polyfills.add(name, reasonIncluded)
		}
		polyfills.remove(cfg.Exclude)
	}

	return Plan{Plugins: plugins.list(), Polyfills: polyfills.list()}
}

// requiredBy reports whether any target lacks native support for feature
// and names those targets.
func requiredBy(feature catalog.Feature, resolved targets.Resolved) ([]string, bool) {
	if len(resolved) == 0 {
		return []string{reasonNoTarget}, true
	}
	reasons := make([]string, 0)
	for _, env := range resolved.Names() {
		target := resolved[env]
		supported, ok := feature.Support[env]
		if !ok {
			reasons = append(reasons, env+" "+target.String())
			continue
		}
		minimum, err := semver.NewVersion(supported)
		if err != nil || target.LessThan(minimum) {
			reasons = append(reasons, env+" "+target.String())
		}
	}
	return reasons, len(reasons) > 0
}

func moduleTransform(reg *catalog.Registry, modules options.Modules) (string, bool) {
	switch modules {
	case options.ModulesOff:
		return "", false
	case options.ModulesAuto:
		return reg.ModuleTransform(string(options.ModulesCommonJS))
	default:
		return reg.ModuleTransform(string(modules))
	}
}

func targetsWeb(resolved targets.Resolved) bool {
	if len(resolved) == 0 {
		return true
	}
	return lo.ContainsBy(resolved.Names(), func(env string) bool { return env != "node" })
}

func itemNames(items []Item) []string {
	return lo.Map(items, func(item Item, _ int) string { return item.Name })
}
