package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/ben-ranford/presetenv/internal/app"
	"github.com/ben-ranford/presetenv/internal/report"
)

var ErrHelpRequested = errors.New("help requested")

// UsageError ties a parse failure to the command whose usage applies.
type UsageError struct {
	Command string
	Err     error
}

func (e *UsageError) Error() string {
	return e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

func usageError(command string, err error) error {
	if err == nil {
		return nil
	}
	return &UsageError{Command: command, Err: err}
}

func ParseArgs(args []string) (app.Request, error) {
	req := app.DefaultRequest()
	if len(args) == 0 {
		return req, nil
	}

	if isHelpArg(args[0]) {
		if len(args) > 1 {
			return req, usageError(args[1], ErrHelpRequested)
		}
		return req, ErrHelpRequested
	}

	switch args[0] {
	case "normalize":
		parsed, err := parseNormalize(args[1:], req)
		return parsed, usageError("normalize", err)
	case "rewrite":
		parsed, err := parseRewrite(args[1:], req)
		return parsed, usageError("rewrite", err)
	default:
		if strings.HasPrefix(args[0], "-") {
			parsed, err := parseNormalize(args, req)
			return parsed, usageError("", err)
		}
		return req, fmt.Errorf("unknown command: %s", args[0])
	}
}

func parseNormalize(args []string, req app.Request) (app.Request, error) {
	args = normalizeArgs(args)

	fs := flag.NewFlagSet("normalize", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	repoPath := fs.String("repo", req.RepoPath, "repository path")
	configPath := fs.String("config", req.ConfigPath, "config file path")
	formatFlag := fs.String("format", string(req.Normalize.Format), "output format")
	nodeVersion := fs.String("node-version", "", "version for node: current")

	if err := parseFlags(fs, args); err != nil {
		return req, err
	}
	if fs.NArg() > 0 {
		return req, fmt.Errorf("unexpected arguments for normalize")
	}

	format, err := report.ParseFormat(*formatFlag)
	if err != nil {
		return req, err
	}

	req.Mode = app.ModeNormalize
	req.RepoPath = strings.TrimSpace(*repoPath)
	req.ConfigPath = strings.TrimSpace(*configPath)
	req.Normalize = app.NormalizeRequest{
		Format:      format,
		NodeVersion: strings.TrimSpace(*nodeVersion),
	}
	return req, nil
}

func parseRewrite(args []string, req app.Request) (app.Request, error) {
	args = normalizeArgs(args)

	fs := flag.NewFlagSet("rewrite", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	repoPath := fs.String("repo", req.RepoPath, "repository path")
	configPath := fs.String("config", req.ConfigPath, "config file path")
	outPath := fs.String("out", "", "output path")
	formatFlag := fs.String("format", "", "report format")

	if err := parseFlags(fs, args); err != nil {
		return req, err
	}

	remaining := fs.Args()
	if len(remaining) == 0 || strings.TrimSpace(remaining[0]) == "" {
		return req, fmt.Errorf("missing source file")
	}
	if len(remaining) > 1 {
		return req, fmt.Errorf("too many arguments for rewrite")
	}

	var format report.Format
	if visitedFlags(fs)["format"] {
		parsed, err := report.ParseFormat(*formatFlag)
		if err != nil {
			return req, err
		}
		format = parsed
	}

	req.Mode = app.ModeRewrite
	req.RepoPath = strings.TrimSpace(*repoPath)
	req.ConfigPath = strings.TrimSpace(*configPath)
	req.Rewrite = app.RewriteRequest{
		File:    strings.TrimSpace(remaining[0]),
		OutPath: strings.TrimSpace(*outPath),
		Format:  format,
	}
	return req, nil
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ErrHelpRequested
		}
		return err
	}
	return nil
}

func isHelpArg(arg string) bool {
	switch arg {
	case "-h", "--help", "help":
		return true
	default:
		return false
	}
}

// normalizeArgs moves flags ahead of positionals so flags may follow the
// source file.
func normalizeArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	flags := make([]string, 0, len(args))
	positionals := make([]string, 0, 1)

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			positionals = append(positionals, args[i+1:]...)
			break
		}
		if strings.HasPrefix(arg, "-") {
			flags = append(flags, arg)
			if flagNeedsValue(arg) && i+1 < len(args) {
				flags = append(flags, args[i+1])
				i++
			}
			continue
		}
		positionals = append(positionals, arg)
	}

	return append(flags, positionals...)
}

func flagNeedsValue(arg string) bool {
	if strings.Contains(arg, "=") {
		return false
	}
	switch strings.TrimLeft(arg, "-") {
	case "repo", "config", "format", "node-version", "out":
		return true
	default:
		return false
	}
}

func visitedFlags(fs *flag.FlagSet) map[string]bool {
	visited := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		visited[f.Name] = true
	})
	return visited
}
