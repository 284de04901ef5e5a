package cli

import "strings"

const (
	normalizeSynopsis = "  presetenv normalize [--repo PATH] [--config PATH] [--format table|json|sarif] [--node-version VERSION]\n"
	rewriteSynopsis   = "  presetenv rewrite FILE [--repo PATH] [--config PATH] [--out PATH] [--format table|json|sarif]\n"
)

const (
	repoOption        = "  --repo PATH              Repository path (default: .)\n"
	configOption      = "  --config PATH            Config file (default: .presetenvrc.yml, .presetenvrc.yaml, presetenv.json or presetenv.toml)\n"
	formatOption      = "  --format FORMAT          Report format (table, json or sarif)\n"
	rewriteFormatOpt  = "  --format FORMAT          Print a rewrite report instead of the rewritten source\n"
	nodeVersionOption = "  --node-version VERSION   Version used for node: \"current\" targets (default: installed node)\n"
	outOption         = "  --out PATH               Write the rewritten source to PATH\n"
	helpOption        = "  -h, --help               Show this help text\n"
)

func Usage() string {
	return CommandUsage("")
}

// CommandUsage returns the help text for one command, or for all of them
// when command is empty or unknown.
func CommandUsage(command string) string {
	var b strings.Builder
	b.WriteString("Usage:\n")
	switch command {
	case "normalize":
		b.WriteString(normalizeSynopsis)
		b.WriteString("\nOptions:\n")
		b.WriteString(repoOption + configOption + formatOption + nodeVersionOption + helpOption)
	case "rewrite":
		b.WriteString(rewriteSynopsis)
		b.WriteString("\nOptions:\n")
		b.WriteString(repoOption + configOption + outOption + rewriteFormatOpt + helpOption)
	default:
		b.WriteString("  presetenv [normalize]\n")
		b.WriteString(normalizeSynopsis + rewriteSynopsis)
		b.WriteString("\nOptions:\n")
		b.WriteString(repoOption + configOption + formatOption + nodeVersionOption + outOption + helpOption)
	}
	return b.String()
}
