package transform

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/ben-ranford/presetenv/internal/options"
)

const (
	DefaultRuntimeVersion = "7.0.0-beta.0"

	runtimeModule        = "@babel/runtime"
	runtimeCoreJS2Module = "@babel/runtime-corejs2"
)

var ErrRemovedOption = errors.New("removed option")

// Options configures the runtime rewriter.
type Options struct {
	CoreJS       int    `json:"corejs"`
	Helpers      bool   `json:"helpers"`
	Regenerator  bool   `json:"regenerator"`
	UseESModules bool   `json:"useESModules"`
	Version      string `json:"version"`
}

func DefaultOptions() Options {
	return Options{
		Helpers:     true,
		Regenerator: true,
		Version:     DefaultRuntimeVersion,
	}
}

var knownOptions = []string{"corejs", "corejsVersion", "helpers", "regenerator", "useESModules", "version"}

var removedOptions = map[string]func(value any) string{
	"useBuiltIns": func(value any) string {
		if truthy(value) {
			return "The 'useBuiltIns' option has been removed. The @babel/runtime module now uses builtins by default."
		}
		return "The 'useBuiltIns' option has been removed. Use the 'corejs' option to polyfill with `core-js` via @babel/runtime."
	},
	"polyfill": func(value any) string {
		if value == false {
			return "The 'polyfill' option has been removed. The @babel/runtime module now skips polyfilling by default."
		}
		return "The 'polyfill' option has been removed. Use the 'corejs' option to polyfill with `core-js` via @babel/runtime."
	},
	"moduleName": func(any) string {
		return "The 'moduleName' option has been removed. @babel/transform-runtime no longer supports arbitrary runtimes. " +
			"If you were using this to set an absolute path for Babel's standard runtimes, please use the 'absoluteRuntime' option."
	},
}

// ParseOptions validates a raw rewriter options object. Removed legacy
// options are rejected whatever their value.
func ParseOptions(raw map[string]any) (Options, error) {
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if message, ok := removedOptions[key]; ok {
			return Options{}, options.NewError(key, ErrRemovedOption, "%s", message(raw[key]))
		}
	}
	for _, key := range keys {
		if !lo.Contains(knownOptions, key) {
			return Options{}, options.NewError(key, options.ErrUnknownOption, "'%s' is not a valid runtime option. Maybe you meant to use '%s'?", key, options.Suggest(knownOptions, key))
		}
	}

	opts := DefaultOptions()
	coreJSRaw, coreJSKey := raw["corejs"], "corejs"
	if value, ok := raw["corejsVersion"]; ok {
		if _, both := raw["corejs"]; both {
			return Options{}, options.NewError("corejsVersion", options.ErrInvalidOption, "set only one of 'corejs' and 'corejsVersion'")
		}
		coreJSRaw, coreJSKey = value, "corejsVersion"
	}
	coreJS, err := parseCoreJS(coreJSKey, coreJSRaw)
	if err != nil {
		return Options{}, err
	}
	opts.CoreJS = coreJS

	flags := []struct {
		name   string
		target *bool
	}{
		{"helpers", &opts.Helpers},
		{"regenerator", &opts.Regenerator},
		{"useESModules", &opts.UseESModules},
	}
	for _, flag := range flags {
		value, ok := raw[flag.name]
		if !ok || value == nil {
			continue
		}
		b, isBool := value.(bool)
		if !isBool {
			return Options{}, options.NewError(flag.name, options.ErrInvalidOption, "The '%s' option must be undefined, or a boolean.", flag.name)
		}
		*flag.target = b
	}

	if value, ok := raw["version"]; ok && value != nil {
		version, isString := value.(string)
		if !isString {
			return Options{}, options.NewError("version", options.ErrInvalidOption, "The 'version' option must be a version string.")
		}
		opts.Version = version
	}
	return opts, nil
}

func parseCoreJS(key string, value any) (int, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case bool:
		if !v {
			return 0, nil
		}
	case string:
		if v == "2" {
			return 2, nil
		}
	case int:
		if v == 2 {
			return 2, nil
		}
	case int64:
		if v == 2 {
			return 2, nil
		}
	case float64:
		if v == 2 {
			return 2, nil
		}
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		encoded = []byte(fmt.Sprint(value))
	}
	return 0, options.NewError(key, options.ErrInvalidOption, "The '%s' option must be undefined, false, 2 or '2', but got %s.", key, encoded)
}

func (o Options) moduleName() string {
	if o.CoreJS == 2 {
		return runtimeCoreJS2Module
	}
	return runtimeModule
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	default:
		return true
	}
}
