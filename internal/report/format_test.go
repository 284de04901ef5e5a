package report

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/xeipuuv/gojsonschema"

	"github.com/ben-ranford/presetenv/internal/catalog"
	"github.com/ben-ranford/presetenv/internal/options"
	"github.com/ben-ranford/presetenv/internal/plan"
	"github.com/ben-ranford/presetenv/internal/targets"
)

const formatErrFmt = "format: %v"

func sampleResult(t *testing.T) Result {
	t.Helper()
	cfg, err := options.Normalize(options.Raw{
		"useBuiltIns": "usage",
		"corejs":      "3",
		"targets":     map[string]any{"chrome": "60"},
		"debug":       true,
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	resolved, warnings, err := targets.Resolve(cfg.Targets, targets.Options{})
	if err != nil {
		t.Fatalf("resolve targets: %v", err)
	}
	built := plan.Build(catalog.Default(), cfg, resolved)
	return Result{
		ConfigPath: "/repo/.presetenvrc.yml",
		Options:    cfg,
		Targets:    map[string]string{"chrome": resolved["chrome"].String()},
		Plugins:    built.Plugins,
		Polyfills:  built.Polyfills,
		Warnings:   append(warnings, "example notice"),
	}
}

func sampleRewrite() RewriteResult {
	return RewriteResult{
		File:    "src/index.js",
		Module:  true,
		Runtime: "@babel/runtime-corejs2",
		Imports: []Import{{Local: "_Promise", Source: "@babel/runtime-corejs2/core-js/promise"}},
		Changes: []Change{{Line: 3, Original: "Promise", Replacement: "_Promise"}},
	}
}

func validateAgainst(t *testing.T, schemaName string, document string) {
	t.Helper()
	schema, err := Schema(schemaName)
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewStringLoader(document))
	if err != nil {
		t.Fatalf("validate %s schema: %v", schemaName, err)
	}
	if result.Valid() {
		return
	}
	messages := make([]string, 0, len(result.Errors()))
	for _, item := range result.Errors() {
		messages = append(messages, item.String())
	}
	t.Fatalf("%s output failed schema validation: %s", schemaName, strings.Join(messages, "; "))
}

func TestFormatJSONValidatesAgainstSchema(t *testing.T) {
	output, err := NewFormatter().Format(sampleResult(t), FormatJSON)
	if err != nil {
		t.Fatalf(formatErrFmt, err)
	}
	validateAgainst(t, "result", output)

	var decoded map[string]any
	if err := json.Unmarshal([]byte(output), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["schemaVersion"] != SchemaVersion {
		t.Fatalf("expected schema version to be filled in, got %#v", decoded["schemaVersion"])
	}
}

func TestFormatJSONEmptyResultValidates(t *testing.T) {
	cfg, err := options.Normalize(nil)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	output, err := NewFormatter().Format(Result{Options: cfg}, FormatJSON)
	if err != nil {
		t.Fatalf(formatErrFmt, err)
	}
	validateAgainst(t, "result", output)
	if !strings.Contains(output, "\"plugins\": []") {
		t.Fatalf("expected empty plugin list, got %s", output)
	}
}

func TestFormatJSONIsStable(t *testing.T) {
	result := sampleResult(t)
	first, err := NewFormatter().Format(result, FormatJSON)
	if err != nil {
		t.Fatalf(formatErrFmt, err)
	}
	second, err := NewFormatter().Format(result, FormatJSON)
	if err != nil {
		t.Fatalf(formatErrFmt, err)
	}
	if first != second {
		t.Fatalf("expected identical output across runs")
	}
}

func TestFormatTable(t *testing.T) {
	output, err := NewFormatter().Format(sampleResult(t), FormatTable)
	if err != nil {
		t.Fatalf(formatErrFmt, err)
	}
	for _, want := range []string{"Summary:", "useBuiltIns=usage", "corejs=3.0.0", "Config: /repo/.presetenvrc.yml", "Targets:", "- chrome 60.0.0", "Kind", "plugin", "polyfill", "Warnings:", "- example notice"} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected %q in table output:\n%s", want, output)
		}
	}
}

func TestFormatRewrite(t *testing.T) {
	formatter := NewFormatter()
	output, err := formatter.FormatRewrite(sampleRewrite(), FormatJSON)
	if err != nil {
		t.Fatalf(formatErrFmt, err)
	}
	validateAgainst(t, "rewrite", output)

	table, err := formatter.FormatRewrite(sampleRewrite(), FormatTable)
	if err != nil {
		t.Fatalf(formatErrFmt, err)
	}
	for _, want := range []string{"src/index.js (module)", "1 imports from @babel/runtime-corejs2", "_Promise", "Line"} {
		if !strings.Contains(table, want) {
			t.Fatalf("expected %q in rewrite table:\n%s", want, table)
		}
	}
}

func TestFormatRewriteSARIF(t *testing.T) {
	result := sampleRewrite()
	result.Warnings = []string{"file has syntax errors"}
	output, err := NewFormatter().FormatRewrite(result, FormatSARIF)
	if err != nil {
		t.Fatalf(formatErrFmt, err)
	}
	var log sarifLog
	if err := json.Unmarshal([]byte(output), &log); err != nil {
		t.Fatalf("decode sarif: %v", err)
	}
	if log.Version != sarifVersion || len(log.Runs) != 1 {
		t.Fatalf("unexpected sarif envelope: %#v", log)
	}
	run := log.Runs[0]
	if len(run.Tool.Driver.Rules) != 2 || run.Tool.Driver.Rules[0].ID != ruleConfigNotice {
		t.Fatalf("expected sorted rules, got %#v", run.Tool.Driver.Rules)
	}
	if len(run.Results) != 2 || run.Results[0].Locations[0].PhysicalLocation.Region.StartLine != 3 {
		t.Fatalf("unexpected sarif results: %#v", run.Results)
	}
}

func TestFormatNormalizeSARIFWithoutWarnings(t *testing.T) {
	output, err := NewFormatter().Format(Result{}, FormatSARIF)
	if err != nil {
		t.Fatalf(formatErrFmt, err)
	}
	if !strings.Contains(output, "\"results\": []") {
		t.Fatalf("expected empty results array, got %s", output)
	}
}

func TestFormatUnknown(t *testing.T) {
	if _, err := NewFormatter().Format(Result{}, Format("xml")); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected unknown format error, got %v", err)
	}
	if _, err := ParseFormat("xml"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected parse error, got %v", err)
	}
	if format, err := ParseFormat(" JSON "); err != nil || format != FormatJSON {
		t.Fatalf("expected json format, got %q err=%v", format, err)
	}
	if _, err := Schema("missing"); err == nil {
		t.Fatalf("expected missing schema error")
	}
}
