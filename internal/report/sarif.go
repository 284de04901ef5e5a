package report

import (
	"encoding/json"
	"path/filepath"
	"sort"
)

const (
	sarifSchemaURI = "https://json.schemastore.org/sarif-2.1.0.json"
	sarifVersion   = "2.1.0"

	ruleRuntimeRewrite = "presetenv/runtime/rewrite"
	ruleConfigNotice   = "presetenv/config/notice"
)

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version,omitempty"`
	Rules   []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID               string        `json:"id"`
	Name             string        `json:"name,omitempty"`
	ShortDescription sarifMessage  `json:"shortDescription"`
	Help             *sarifMessage `json:"help,omitempty"`
}

type sarifResult struct {
	RuleID     string          `json:"ruleId"`
	Level      string          `json:"level,omitempty"`
	Message    sarifMessage    `json:"message"`
	Locations  []sarifLocation `json:"locations,omitempty"`
	Properties map[string]any  `json:"properties,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine,omitempty"`
}

type sarifRuleBuilder struct {
	rules map[string]sarifRule
}

func newSARIFRuleBuilder() *sarifRuleBuilder {
	return &sarifRuleBuilder{rules: make(map[string]sarifRule)}
}

func (b *sarifRuleBuilder) add(rule sarifRule) {
	if _, ok := b.rules[rule.ID]; ok {
		return
	}
	b.rules[rule.ID] = rule
}

func (b *sarifRuleBuilder) list() []sarifRule {
	ids := make([]string, 0, len(b.rules))
	for id := range b.rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	items := make([]sarifRule, 0, len(ids))
	for _, id := range ids {
		items = append(items, b.rules[id])
	}
	return items
}

func formatNormalizeSARIF(result Result) (string, error) {
	rules := newSARIFRuleBuilder()
	results := appendNoticeResults(nil, rules, result.Warnings, result.ConfigPath)
	return encodeSARIF(rules, results)
}

func formatRewriteSARIF(result RewriteResult) (string, error) {
	rules := newSARIFRuleBuilder()
	results := make([]sarifResult, 0, len(result.Changes)+len(result.Warnings))
	if len(result.Changes) > 0 {
		rules.add(sarifRule{
			ID:               ruleRuntimeRewrite,
			Name:             "runtime-rewrite",
			ShortDescription: sarifMessage{Text: "Expression rewritten to a runtime import"},
			Help:             &sarifMessage{Text: "Helpers, regenerator and corejs-2 globals are imported from the runtime package instead of being inlined or read from the global scope."},
		})
	}
	for _, change := range result.Changes {
		results = append(results, sarifResult{
			RuleID:    ruleRuntimeRewrite,
			Level:     "note",
			Message:   sarifMessage{Text: oneLine(change.Original) + " -> " + oneLine(change.Replacement)},
			Locations: []sarifLocation{fileLocation(result.File, change.Line)},
			Properties: map[string]any{
				"original":    change.Original,
				"replacement": change.Replacement,
			},
		})
	}
	results = appendNoticeResults(results, rules, result.Warnings, result.File)
	return encodeSARIF(rules, results)
}

func appendNoticeResults(results []sarifResult, rules *sarifRuleBuilder, warnings []string, anchor string) []sarifResult {
	if len(warnings) == 0 {
		return results
	}
	rules.add(sarifRule{
		ID:               ruleConfigNotice,
		Name:             "config-notice",
		ShortDescription: sarifMessage{Text: "Configuration notice"},
	})
	for _, warning := range warnings {
		item := sarifResult{RuleID: ruleConfigNotice, Level: "warning", Message: sarifMessage{Text: warning}}
		if anchor != "" {
			item.Locations = []sarifLocation{fileLocation(anchor, 0)}
		}
		results = append(results, item)
	}
	return results
}

func fileLocation(path string, line int) sarifLocation {
	location := sarifLocation{
		PhysicalLocation: sarifPhysicalLocation{
			ArtifactLocation: sarifArtifactLocation{URI: filepath.ToSlash(path)},
		},
	}
	if line > 0 {
		location.PhysicalLocation.Region = &sarifRegion{StartLine: line}
	}
	return location
}

func encodeSARIF(rules *sarifRuleBuilder, results []sarifResult) (string, error) {
	if results == nil {
		results = []sarifResult{}
	}
	log := sarifLog{
		Schema:  sarifSchemaURI,
		Version: sarifVersion,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    "presetenv",
						Version: SchemaVersion,
						Rules:   rules.list(),
					},
				},
				Results: results,
			},
		},
	}
	payload, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return "", err
	}
	return string(payload) + "\n", nil
}
