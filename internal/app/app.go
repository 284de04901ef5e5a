package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ben-ranford/presetenv/internal/catalog"
	"github.com/ben-ranford/presetenv/internal/config"
	"github.com/ben-ranford/presetenv/internal/nodeexec"
	"github.com/ben-ranford/presetenv/internal/options"
	"github.com/ben-ranford/presetenv/internal/plan"
	"github.com/ben-ranford/presetenv/internal/report"
	"github.com/ben-ranford/presetenv/internal/safeio"
	"github.com/ben-ranford/presetenv/internal/targets"
	"github.com/ben-ranford/presetenv/internal/transform"
)

var ErrUnknownMode = errors.New("unknown mode")

type App struct {
	Registry  *catalog.Registry
	Formatter report.Formatter
	// Err receives warnings when the output has no room for them.
	Err io.Writer
	// NodeVersion reports the running node version for node: "current".
	NodeVersion func(ctx context.Context) (string, error)
	// Queries resolves browserslist queries. Nil rejects them.
	Queries targets.QueryResolver
}

func New(errOut io.Writer) *App {
	return &App{
		Registry:    catalog.Default(),
		Formatter:   report.NewFormatter(),
		Err:         errOut,
		NodeVersion: nodeexec.CurrentVersion,
	}
}

func (a *App) Execute(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch req.Mode {
	case ModeNormalize:
		return a.executeNormalize(ctx, req)
	case ModeRewrite:
		return a.executeRewrite(ctx, req)
	default:
		return "", ErrUnknownMode
	}
}

func (a *App) executeNormalize(ctx context.Context, req Request) (string, error) {
	repoPath, loaded, err := loadConfig(req)
	if err != nil {
		return "", err
	}

	notices := &options.Notices{}
	normalizer := options.Normalizer{Registry: a.Registry, Cwd: repoPath, Sink: notices}
	cfg, err := normalizer.Normalize(loaded.Preset)
	if err != nil {
		return "", withConfigPath(loaded.ConfigPath, err)
	}

	currentNode := strings.TrimSpace(req.Normalize.NodeVersion)
	if currentNode == "" && needsCurrentNode(cfg.Targets) && a.NodeVersion != nil {
		currentNode, err = a.NodeVersion(ctx)
		if err != nil {
			return "", fmt.Errorf("targets: node: \"current\": %w", err)
		}
	}
	resolved, targetWarnings, err := targets.Resolve(cfg.Targets, targets.Options{Queries: a.Queries, CurrentNode: currentNode})
	if err != nil {
		return "", withConfigPath(loaded.ConfigPath, err)
	}

	built := plan.Build(a.Registry, cfg, resolved)
	result := report.Result{
		ConfigPath:    loaded.ConfigPath,
		ConfigSources: loaded.Sources,
		Options:       cfg,
		Targets:       versionStrings(resolved),
		Plugins:       built.Plugins,
		Polyfills:     built.Polyfills,
		Warnings:      append(append([]string{}, notices.Messages...), targetWarnings...),
	}
	return a.Formatter.Format(result, req.Normalize.Format)
}

func (a *App) executeRewrite(ctx context.Context, req Request) (string, error) {
	repoPath, loaded, err := loadConfig(req)
	if err != nil {
		return "", err
	}
	plugin, err := transform.NewPlugin(a.Registry, loaded.Runtime)
	if err != nil {
		return "", withConfigPath(loaded.ConfigPath, err)
	}

	sourcePath := req.Rewrite.File
	if !filepath.IsAbs(sourcePath) {
		sourcePath = filepath.Join(repoPath, sourcePath)
	}
	content, err := safeio.ReadFileWithin(repoPath, sourcePath)
	if err != nil {
		return "", fmt.Errorf("read source %s: %w", req.Rewrite.File, err)
	}
	file, err := transform.ParseFile(ctx, sourcePath, content)
	if err != nil {
		return "", err
	}
	defer file.Close()

	warnings := make([]string, 0, 1)
	if file.HasSyntaxErrors() {
		warnings = append(warnings, req.Rewrite.File+": source has syntax errors; expressions inside them are left as written")
	}
	plugin.Transform(file)
	code := file.Code()

	if req.Rewrite.OutPath != "" {
		if err := safeio.WriteFile(req.Rewrite.OutPath, []byte(code), 0o644); err != nil {
			return "", fmt.Errorf("write output %s: %w", req.Rewrite.OutPath, err)
		}
	}
	if req.Rewrite.Format == "" {
		a.warn(warnings)
		if req.Rewrite.OutPath != "" {
			return "", nil
		}
		return code, nil
	}

	result := report.RewriteResult{
		File:     filepath.ToSlash(req.Rewrite.File),
		Module:   file.IsModule(),
		Runtime:  plugin.ModuleName(),
		Imports:  reportImports(file.Imports()),
		Changes:  reportChanges(file.Changes()),
		Warnings: warnings,
	}
	return a.Formatter.FormatRewrite(result, req.Rewrite.Format)
}

func (a *App) warn(warnings []string) {
	if a.Err == nil {
		return
	}
	for _, warning := range warnings {
		fmt.Fprintf(a.Err, "warning: %s\n", warning)
	}
}

func loadConfig(req Request) (string, config.LoadResult, error) {
	repoPath, err := normalizeRepoPath(req.RepoPath)
	if err != nil {
		return "", config.LoadResult{}, err
	}
	loaded, err := config.Load(repoPath, req.ConfigPath)
	if err != nil {
		return "", config.LoadResult{}, err
	}
	return repoPath, loaded, nil
}

func normalizeRepoPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = "."
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve repo path: %w", err)
	}
	return abs, nil
}

func withConfigPath(configPath string, err error) error {
	if configPath == "" {
		return err
	}
	return fmt.Errorf("%s: %w", configPath, err)
}

func needsCurrentNode(t options.Targets) bool {
	switch value := t["node"].(type) {
	case string:
		return value == "current"
	case bool:
		return value
	default:
		return false
	}
}

func versionStrings(resolved targets.Resolved) map[string]string {
	if len(resolved) == 0 {
		return nil
	}
	out := make(map[string]string, len(resolved))
	for name, version := range resolved {
		out[name] = version.String()
	}
	return out
}

func reportImports(decls []*transform.ImportDecl) []report.Import {
	imports := make([]report.Import, 0, len(decls))
	for _, decl := range decls {
		imports = append(imports, report.Import{Local: decl.Local, Source: decl.Source})
	}
	return imports
}

func reportChanges(changes []transform.Change) []report.Change {
	out := make([]report.Change, 0, len(changes))
	for _, change := range changes {
		out = append(out, report.Change{Line: change.Line, Original: change.Original, Replacement: change.Replacement})
	}
	return out
}
