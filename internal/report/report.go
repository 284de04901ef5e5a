package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ben-ranford/presetenv/internal/options"
	"github.com/ben-ranford/presetenv/internal/plan"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatSARIF Format = "sarif"
)

const SchemaVersion = "0.1.0"

var ErrUnknownFormat = errors.New("unknown format")

func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatSARIF):
		return FormatSARIF, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, value)
	}
}

// Result is the output of a normalize run.
type Result struct {
	SchemaVersion string             `json:"schemaVersion"`
	ConfigPath    string             `json:"configPath,omitempty"`
	ConfigSources []string           `json:"configSources,omitempty"`
	Options       options.Normalized `json:"options"`
	Targets       map[string]string  `json:"targets,omitempty"`
	Plugins       []plan.Item        `json:"plugins"`
	Polyfills     []plan.Item        `json:"polyfills"`
	Warnings      []string           `json:"warnings,omitempty"`
}

// RewriteResult is the output of a rewrite run over one file.
type RewriteResult struct {
	SchemaVersion string   `json:"schemaVersion"`
	File          string   `json:"file"`
	Module        bool     `json:"module"`
	Runtime       string   `json:"runtime"`
	Imports       []Import `json:"imports"`
	Changes       []Change `json:"changes"`
	Warnings      []string `json:"warnings,omitempty"`
}

type Import struct {
	Local  string `json:"local"`
	Source string `json:"source"`
}

type Change struct {
	Line        int    `json:"line"`
	Original    string `json:"original"`
	Replacement string `json:"replacement"`
}
