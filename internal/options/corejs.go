package options

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/lo"
)

const (
	coreJSDefaultNotice = "We noticed you're using the `useBuiltIns` option without declaring a " +
		"core-js version. Currently, we assume version 2.x when no version is passed. " +
		"Since this default version will likely change in future versions, set the `corejs` " +
		"option explicitly (corejs: 2 or corejs: 3)."
	coreJSUnusedNotice = "The `corejs` option only has an effect when the `useBuiltIns` option is not false."
	coreJSRangeMessage = "the version passed to `corejs` is invalid. Currently, only core-js@2 and core-js@3 are supported"
)

var versionDigits = regexp.MustCompile(`\d+(?:\.\d+){0,2}`)

// CoerceVersion extracts the first dotted number from text and parses it,
// so "3", "3.1" and "core-js@3.1.4" all yield versions.
func CoerceVersion(text string) (*semver.Version, bool) {
	match := versionDigits.FindString(text)
	if match == "" {
		return nil, false
	}
	version, err := semver.NewVersion(match)
	if err != nil {
		return nil, false
	}
	return version, true
}

// normalizeCoreJS resolves the corejs option. When useBuiltIns is enabled
// and corejs is absent or false, it defaults to 2 and emits a notice.
func normalizeCoreJS(raw any, useBuiltIns UseBuiltIns, sink Sink) (*CoreJS, error) {
	proposals := false
	rawVersion := raw

	if raw == nil || raw == false {
		rawVersion = nil
		if useBuiltIns.Enabled() {
			sink.Notice(coreJSDefaultNotice)
			rawVersion = 2
		}
	}
	if value, ok := raw.(map[string]any); ok {
		keys := lo.Keys(value)
		sort.Strings(keys)
		for _, key := range keys {
			if key != "version" && key != "proposals" {
				return nil, invalidf(OptCoreJS, "the 'corejs' option object only accepts 'version' and 'proposals', but got '%s'", key)
			}
		}
		flag, err := validateBool("corejs.proposals", value["proposals"], false)
		if err != nil {
			return nil, err
		}
		proposals = flag
		rawVersion = value["version"]
	}

	version, parsed := parseCoreJSVersion(rawVersion)
	if useBuiltIns.Enabled() {
		if !parsed || version.Major() < 2 || version.Major() > 3 {
			return nil, &Error{Option: OptCoreJS, Message: coreJSRangeMessage, kind: ErrCoreJSRange}
		}
	} else if parsed {
		sink.Notice(coreJSUnusedNotice)
	}
	if !parsed {
		return nil, nil
	}
	return &CoreJS{Version: version, Proposals: proposals}, nil
}

func parseCoreJSVersion(raw any) (*semver.Version, bool) {
	switch value := raw.(type) {
	case nil:
		return nil, false
	case bool:
		return nil, false
	case string:
		return CoerceVersion(value)
	case int:
		return CoerceVersion(strconv.Itoa(value))
	case int64:
		return CoerceVersion(strconv.FormatInt(value, 10))
	case uint64:
		return CoerceVersion(strconv.FormatUint(value, 10))
	case float64:
		return CoerceVersion(strconv.FormatFloat(value, 'f', -1, 64))
	default:
		return CoerceVersion(fmt.Sprint(value))
	}
}
