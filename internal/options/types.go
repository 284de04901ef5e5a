package options

import (
	"encoding/json"

	"github.com/Masterminds/semver/v3"
)

// Raw is a decoded, not yet validated options object.
type Raw map[string]any

const (
	OptConfigPath               = "configPath"
	OptCoreJS                   = "corejs"
	OptDebug                    = "debug"
	OptExclude                  = "exclude"
	OptForceAllTransforms       = "forceAllTransforms"
	OptIgnoreBrowserslistConfig = "ignoreBrowserslistConfig"
	OptInclude                  = "include"
	OptLoose                    = "loose"
	OptModules                  = "modules"
	OptShippedProposals         = "shippedProposals"
	OptSpec                     = "spec"
	OptTargets                  = "targets"
	OptUseBuiltIns              = "useBuiltIns"
)

// TopLevelOptions is the closed set of accepted option names, sorted.
var TopLevelOptions = []string{
	OptConfigPath,
	OptCoreJS,
	OptDebug,
	OptExclude,
	OptForceAllTransforms,
	OptIgnoreBrowserslistConfig,
	OptInclude,
	OptLoose,
	OptModules,
	OptShippedProposals,
	OptSpec,
	OptTargets,
	OptUseBuiltIns,
}

type Modules string

const (
	ModulesOff      Modules = "off"
	ModulesAuto     Modules = "auto"
	ModulesAMD      Modules = "amd"
	ModulesCommonJS Modules = "commonjs"
	ModulesSystemJS Modules = "systemjs"
	ModulesUMD      Modules = "umd"
)

var modulesValues = []Modules{ModulesOff, ModulesAuto, ModulesAMD, ModulesCommonJS, ModulesSystemJS, ModulesUMD}

type UseBuiltIns string

const (
	UseBuiltInsOff   UseBuiltIns = "false"
	UseBuiltInsEntry UseBuiltIns = "entry"
	UseBuiltInsUsage UseBuiltIns = "usage"
)

func (u UseBuiltIns) Enabled() bool {
	return u == UseBuiltInsEntry || u == UseBuiltInsUsage
}

// MarshalJSON encodes the disabled mode as false, the way it is written in
// configuration files.
func (u UseBuiltIns) MarshalJSON() ([]byte, error) {
	if !u.Enabled() {
		return []byte("false"), nil
	}
	return json.Marshal(string(u))
}

// Targets maps environment names to minimum versions, or holds a single
// query under QueryKey. Values are owned by the target resolver.
type Targets map[string]any

const QueryKey = "browsers"

type CoreJS struct {
	Version   *semver.Version `json:"version"`
	Proposals bool            `json:"proposals"`
}

func (c *CoreJS) Major() uint64 {
	if c == nil || c.Version == nil {
		return 0
	}
	return c.Version.Major()
}

// Normalized is the validated configuration handed to plugin selection.
// Every slice and map is freshly allocated by Normalize; callers treat the
// value as read-only.
type Normalized struct {
	ConfigPath               string      `json:"configPath"`
	Debug                    bool        `json:"debug"`
	Include                  []string    `json:"include"`
	Exclude                  []string    `json:"exclude"`
	ForceAllTransforms       bool        `json:"forceAllTransforms"`
	IgnoreBrowserslistConfig bool        `json:"ignoreBrowserslistConfig"`
	Loose                    bool        `json:"loose"`
	Modules                  Modules     `json:"modules"`
	ShippedProposals         bool        `json:"shippedProposals"`
	Spec                     bool        `json:"spec"`
	Targets                  Targets     `json:"targets"`
	UseBuiltIns              UseBuiltIns `json:"useBuiltIns"`
	CoreJS                   *CoreJS     `json:"corejs"`
}
