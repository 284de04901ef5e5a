package options

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/ben-ranford/presetenv/internal/catalog"
)

const (
	normalizeErrFmt = "normalize: %v"
	testCwd         = "/work/app"
)

func newTestNormalizer(sink Sink) *Normalizer {
	return &Normalizer{Registry: catalog.Default(), Cwd: testCwd, Sink: sink}
}

func mustNormalize(t *testing.T, raw Raw) Normalized {
	t.Helper()
	cfg, err := newTestNormalizer(nil).Normalize(raw)
	if err != nil {
		t.Fatalf(normalizeErrFmt, err)
	}
	return cfg
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := mustNormalize(t, Raw{})
	if cfg.ConfigPath != testCwd {
		t.Fatalf("expected configPath default %q, got %q", testCwd, cfg.ConfigPath)
	}
	if cfg.Modules != ModulesAuto {
		t.Fatalf("expected modules=auto, got %q", cfg.Modules)
	}
	if cfg.UseBuiltIns != UseBuiltInsOff {
		t.Fatalf("expected useBuiltIns=false, got %q", cfg.UseBuiltIns)
	}
	if cfg.CoreJS != nil {
		t.Fatalf("expected no corejs, got %+v", cfg.CoreJS)
	}
	if cfg.Debug || cfg.Loose || cfg.Spec || cfg.ForceAllTransforms || cfg.ShippedProposals || cfg.IgnoreBrowserslistConfig {
		t.Fatalf("expected all flags false, got %+v", cfg)
	}
	if len(cfg.Include) != 0 || len(cfg.Exclude) != 0 || len(cfg.Targets) != 0 {
		t.Fatalf("expected empty include/exclude/targets, got %+v", cfg)
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	raw := Raw{
		OptInclude:     []any{"transform-.*", "es.promise"},
		OptExclude:     []any{"transform-typeof-symbol"},
		OptCoreJS:      3,
		OptUseBuiltIns: "usage",
		OptTargets:     map[string]any{"chrome": "58", "node": 8},
		OptDebug:       true,
	}
	first := mustNormalize(t, raw)
	second := mustNormalize(t, raw)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical output, got %+v and %+v", first, second)
	}
}

func TestNormalizeRejectsUnknownOption(t *testing.T) {
	_, err := newTestNormalizer(nil).Normalize(Raw{"targetz": "defaults"})
	if !errors.Is(err, ErrUnknownOption) {
		t.Fatalf("expected ErrUnknownOption, got %v", err)
	}
	if !strings.Contains(err.Error(), "targetz") || !strings.Contains(err.Error(), "'targets'") {
		t.Fatalf("expected bad key and suggestion in message, got %q", err.Error())
	}
	var optErr *Error
	if !errors.As(err, &optErr) || optErr.Option != "targetz" {
		t.Fatalf("expected *Error for targetz, got %#v", err)
	}
}

func TestNormalizeUnknownOptionWinsOverOtherErrors(t *testing.T) {
	_, err := newTestNormalizer(nil).Normalize(Raw{"moduleName": "foo", OptModules: "bogus"})
	if !errors.Is(err, ErrUnknownOption) {
		t.Fatalf("expected unknown option error first, got %v", err)
	}
}

func TestNormalizeDeprecatedFlagDefaultsCoreJS2(t *testing.T) {
	notices := &Notices{}
	cfg, err := newTestNormalizer(notices).Normalize(Raw{OptUseBuiltIns: true})
	if err != nil {
		t.Fatalf(normalizeErrFmt, err)
	}
	if cfg.CoreJS.Major() != 2 {
		t.Fatalf("expected corejs major 2, got %d", cfg.CoreJS.Major())
	}
	if cfg.UseBuiltIns != UseBuiltInsEntry {
		t.Fatalf("expected deprecated true to select entry, got %q", cfg.UseBuiltIns)
	}
	if len(notices.Messages) != 1 || !strings.Contains(notices.Messages[0], "core-js version") {
		t.Fatalf("expected one advisory notice, got %v", notices.Messages)
	}
}

func TestNormalizeCoreJSOutOfRange(t *testing.T) {
	for _, value := range []any{4, "4", 1, "one", true, 5.2} {
		_, err := newTestNormalizer(nil).Normalize(Raw{OptUseBuiltIns: true, OptCoreJS: value})
		if !errors.Is(err, ErrCoreJSRange) {
			t.Fatalf("expected range error for corejs=%v, got %v", value, err)
		}
	}
}

func TestNormalizeCoreJSAccepted(t *testing.T) {
	cases := map[string]struct {
		value any
		major uint64
	}{
		"absent":  {nil, 2},
		"false":   {false, 2},
		"int2":    {2, 2},
		"string2": {"2", 2},
		"int3":    {3, 3},
		"string3": {"3", 3},
		"float":   {3.1, 3},
		"int64":   {int64(3), 3},
		"object":  {map[string]any{"version": "3.2", "proposals": true}, 3},
	}
	for name, tc := range cases {
		raw := Raw{OptUseBuiltIns: "usage"}
		if tc.value != nil {
			raw[OptCoreJS] = tc.value
		}
		cfg, err := newTestNormalizer(nil).Normalize(raw)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if cfg.CoreJS.Major() != tc.major {
			t.Fatalf("%s: expected major %d, got %d", name, tc.major, cfg.CoreJS.Major())
		}
	}
}

func TestNormalizeCoreJSObjectProposals(t *testing.T) {
	cfg := mustNormalize(t, Raw{OptUseBuiltIns: "entry", OptCoreJS: map[string]any{"version": 3, "proposals": true}})
	if !cfg.CoreJS.Proposals || cfg.CoreJS.Version.String() != "3.0.0" {
		t.Fatalf("unexpected corejs: %+v", cfg.CoreJS)
	}
	_, err := newTestNormalizer(nil).Normalize(Raw{OptCoreJS: map[string]any{"version": 3, "extra": 1}})
	if !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("expected invalid option for unknown corejs key, got %v", err)
	}
}

func TestNormalizeCoreJSWithoutBuiltInsNotices(t *testing.T) {
	notices := &Notices{}
	cfg, err := newTestNormalizer(notices).Normalize(Raw{OptCoreJS: 3})
	if err != nil {
		t.Fatalf(normalizeErrFmt, err)
	}
	if cfg.CoreJS.Major() != 3 {
		t.Fatalf("expected corejs to be kept, got %+v", cfg.CoreJS)
	}
	if len(notices.Messages) != 1 || !strings.Contains(notices.Messages[0], "only has an effect") {
		t.Fatalf("expected unused-corejs notice, got %v", notices.Messages)
	}
}

func TestNormalizeIncludeExcludeConflict(t *testing.T) {
	_, err := newTestNormalizer(nil).Normalize(Raw{
		OptUseBuiltIns: "usage",
		OptCoreJS:      3,
		OptInclude:     []any{"es.promise", "transform-spread"},
		OptExclude:     []any{"es.promise", "transform-.*"},
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if !strings.Contains(err.Error(), "'es.promise, transform-spread'") {
		t.Fatalf("expected every conflicting name, got %q", err.Error())
	}
}

func TestNormalizeUnmatchedPatternsAcrossOptions(t *testing.T) {
	_, err := newTestNormalizer(nil).Normalize(Raw{
		OptInclude: []any{"es.promise", "nope"},
		OptExclude: []any{"also-nope"},
	})
	if !errors.Is(err, ErrUnmatchedPattern) {
		t.Fatalf("expected unmatched pattern error, got %v", err)
	}
	for _, part := range []string{"es.promise, nope", "'include'", "also-nope", "'exclude'"} {
		if !strings.Contains(err.Error(), part) {
			t.Fatalf("expected %q in %q", part, err.Error())
		}
	}
}

func TestNormalizeExpandsAgainstActiveCatalog(t *testing.T) {
	cfg := mustNormalize(t, Raw{OptUseBuiltIns: "entry", OptCoreJS: 2, OptInclude: []any{"es6.promise", "@babel/plugin-transform-spread"}})
	if strings.Join(cfg.Include, ",") != "es6.promise,transform-spread" {
		t.Fatalf("unexpected include set: %v", cfg.Include)
	}
}

func TestNormalizeTargetsQueryAndMap(t *testing.T) {
	cfg := mustNormalize(t, Raw{OptTargets: "> 0.25%, not dead"})
	if len(cfg.Targets) != 1 || cfg.Targets[QueryKey] != "> 0.25%, not dead" {
		t.Fatalf("expected query to be wrapped, got %v", cfg.Targets)
	}

	input := map[string]any{"chrome": "58"}
	cfg = mustNormalize(t, Raw{OptTargets: input})
	if !reflect.DeepEqual(map[string]any(cfg.Targets), input) {
		t.Fatalf("expected equal targets map, got %v", cfg.Targets)
	}
	cfg.Targets["chrome"] = "60"
	if input["chrome"] != "58" {
		t.Fatalf("expected targets to be copied, input was modified")
	}

	_, err := newTestNormalizer(nil).Normalize(Raw{OptTargets: 42})
	if !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("expected invalid targets error, got %v", err)
	}
}

func TestNormalizeCustomQueryValidator(t *testing.T) {
	n := newTestNormalizer(nil)
	n.IsQuery = func(value any) bool { return value == "defaults" }
	cfg, err := n.Normalize(Raw{OptTargets: "defaults"})
	if err != nil {
		t.Fatalf(normalizeErrFmt, err)
	}
	if cfg.Targets[QueryKey] != "defaults" {
		t.Fatalf("expected custom query to be wrapped, got %v", cfg.Targets)
	}
	if _, err := n.Normalize(Raw{OptTargets: "last 2 versions"}); err == nil {
		t.Fatalf("expected unrecognized query to be rejected")
	}
}

func TestNormalizeScalarValidation(t *testing.T) {
	cases := []struct {
		raw  Raw
		want string
	}{
		{Raw{OptLoose: "yes"}, "'loose' option must be a boolean"},
		{Raw{OptDebug: 1}, "'debug' option must be a boolean"},
		{Raw{OptModules: "esm"}, "the 'modules' option must be one of false, \"auto\", \"amd\", \"commonjs\", \"systemjs\", \"umd\""},
		{Raw{OptUseBuiltIns: "always"}, "the 'useBuiltIns' option must be one of false, \"entry\", \"usage\""},
		{Raw{OptConfigPath: 7}, "'configPath' option must be a string"},
		{Raw{OptInclude: "transform-spread"}, "must be a list of strings"},
	}
	for _, tc := range cases {
		_, err := newTestNormalizer(nil).Normalize(tc.raw)
		if !errors.Is(err, ErrInvalidOption) {
			t.Fatalf("expected invalid option for %v, got %v", tc.raw, err)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("expected %q in %q", tc.want, err.Error())
		}
	}
}

func TestNormalizeModulesAliases(t *testing.T) {
	cases := map[any]Modules{false: ModulesOff, "cjs": ModulesCommonJS, "umd": ModulesUMD, "systemjs": ModulesSystemJS}
	for input, want := range cases {
		cfg := mustNormalize(t, Raw{OptModules: input})
		if cfg.Modules != want {
			t.Fatalf("modules=%v: expected %q, got %q", input, want, cfg.Modules)
		}
	}
}

func TestNormalizeRejectsStringSpellingsOfFalse(t *testing.T) {
	cases := []Raw{
		{OptModules: "false"},
		{OptModules: "off"},
		{OptUseBuiltIns: "false"},
	}
	for _, raw := range cases {
		if _, err := newTestNormalizer(nil).Normalize(raw); !errors.Is(err, ErrInvalidOption) {
			t.Fatalf("expected invalid option for %v, got %v", raw, err)
		}
	}
}

func TestNormalizePackageLevelUsesWorkingDirectory(t *testing.T) {
	cfg, err := Normalize(Raw{OptSpec: true})
	if err != nil {
		t.Fatalf(normalizeErrFmt, err)
	}
	if cfg.ConfigPath == "" || !cfg.Spec {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestSuggest(t *testing.T) {
	if got := Suggest(TopLevelOptions, "useBuiltins"); got != OptUseBuiltIns {
		t.Fatalf("expected useBuiltIns suggestion, got %q", got)
	}
	if got := Suggest(TopLevelOptions, "exlude"); got != OptExclude {
		t.Fatalf("expected exclude suggestion, got %q", got)
	}
}

func TestUseBuiltInsJSON(t *testing.T) {
	data, err := UseBuiltInsOff.MarshalJSON()
	if err != nil || string(data) != "false" {
		t.Fatalf("expected false, got %s (%v)", data, err)
	}
	data, err = UseBuiltInsUsage.MarshalJSON()
	if err != nil || string(data) != `"usage"` {
		t.Fatalf("expected \"usage\", got %s (%v)", data, err)
	}
}
