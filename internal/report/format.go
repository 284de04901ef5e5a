package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/ben-ranford/presetenv/internal/plan"
)

type Formatter struct{}

func NewFormatter() Formatter {
	return Formatter{}
}

func (f Formatter) Format(result Result, format Format) (string, error) {
	switch format {
	case FormatTable:
		return formatTable(result), nil
	case FormatJSON:
		return formatJSON(withSchemaVersion(result))
	case FormatSARIF:
		return formatNormalizeSARIF(result)
	default:
		return "", ErrUnknownFormat
	}
}

func (f Formatter) FormatRewrite(result RewriteResult, format Format) (string, error) {
	if result.SchemaVersion == "" {
		result.SchemaVersion = SchemaVersion
	}
	switch format {
	case FormatTable:
		return formatRewriteTable(result), nil
	case FormatJSON:
		return formatJSON(result)
	case FormatSARIF:
		return formatRewriteSARIF(result)
	default:
		return "", ErrUnknownFormat
	}
}

func withSchemaVersion(result Result) Result {
	if result.SchemaVersion == "" {
		result.SchemaVersion = SchemaVersion
	}
	if result.Plugins == nil {
		result.Plugins = []plan.Item{}
	}
	if result.Polyfills == nil {
		result.Polyfills = []plan.Item{}
	}
	return result
}

func formatJSON(value any) (string, error) {
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", err
	}
	return string(payload) + "\n", nil
}

func formatTable(result Result) string {
	var buffer bytes.Buffer
	appendOptionsSummary(&buffer, result)
	appendTargets(&buffer, result.Targets)

	writer := tabwriter.NewWriter(&buffer, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(writer, "Kind\tName\tReasons")
	for _, item := range result.Plugins {
		_, _ = fmt.Fprintln(writer, formatItemRow("plugin", item))
	}
	for _, item := range result.Polyfills {
		_, _ = fmt.Fprintln(writer, formatItemRow("polyfill", item))
	}
	_ = writer.Flush()

	appendWarnings(&buffer, result.Warnings)
	return buffer.String()
}

func appendOptionsSummary(buffer *bytes.Buffer, result Result) {
	cfg := result.Options
	corejs := "-"
	if cfg.CoreJS != nil && cfg.CoreJS.Version != nil {
		corejs = cfg.CoreJS.Version.String()
		if cfg.CoreJS.Proposals {
			corejs += " (proposals)"
		}
	}
	_, _ = fmt.Fprintf(
		buffer,
		"Summary: %d plugins, %d polyfills (modules=%s, useBuiltIns=%s, corejs=%s)\n",
		len(result.Plugins),
		len(result.Polyfills),
		cfg.Modules,
		cfg.UseBuiltIns,
		corejs,
	)
	if result.ConfigPath != "" {
		_, _ = fmt.Fprintf(buffer, "Config: %s\n", result.ConfigPath)
	}
	buffer.WriteString("\n")
}

func appendTargets(buffer *bytes.Buffer, targets map[string]string) {
	if len(targets) == 0 {
		return
	}
	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)
	buffer.WriteString("Targets:\n")
	for _, name := range names {
		_, _ = fmt.Fprintf(buffer, "- %s %s\n", name, targets[name])
	}
	buffer.WriteString("\n")
}

func formatItemRow(kind string, item plan.Item) string {
	reasons := "-"
	if len(item.Reasons) > 0 {
		reasons = strings.Join(item.Reasons, ", ")
	}
	return fmt.Sprintf("%s\t%s\t%s", kind, item.Name, reasons)
}

func formatRewriteTable(result RewriteResult) string {
	var buffer bytes.Buffer
	kind := "script"
	if result.Module {
		kind = "module"
	}
	_, _ = fmt.Fprintf(&buffer, "Summary: %s (%s), %d imports from %s, %d rewrites\n\n", result.File, kind, len(result.Imports), result.Runtime, len(result.Changes))

	if len(result.Imports) > 0 {
		writer := tabwriter.NewWriter(&buffer, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(writer, "Local\tSource")
		for _, imp := range result.Imports {
			_, _ = fmt.Fprintf(writer, "%s\t%s\n", imp.Local, imp.Source)
		}
		_ = writer.Flush()
		buffer.WriteString("\n")
	}
	if len(result.Changes) > 0 {
		writer := tabwriter.NewWriter(&buffer, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(writer, "Line\tOriginal\tReplacement")
		for _, change := range result.Changes {
			_, _ = fmt.Fprintf(writer, "%d\t%s\t%s\n", change.Line, oneLine(change.Original), oneLine(change.Replacement))
		}
		_ = writer.Flush()
	}

	appendWarnings(&buffer, result.Warnings)
	return buffer.String()
}

func oneLine(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

func appendWarnings(buffer *bytes.Buffer, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	buffer.WriteString("\nWarnings:\n")
	for _, warning := range warnings {
		buffer.WriteString("- ")
		buffer.WriteString(warning)
		buffer.WriteString("\n")
	}
}
