package app

import "github.com/ben-ranford/presetenv/internal/report"

type Mode string

const (
	ModeNormalize Mode = "normalize"
	ModeRewrite   Mode = "rewrite"
)

type Request struct {
	Mode       Mode
	RepoPath   string
	ConfigPath string
	Normalize  NormalizeRequest
	Rewrite    RewriteRequest
}

type NormalizeRequest struct {
	Format report.Format
	// NodeVersion answers node: "current" targets. Empty means ask the
	// installed node binary.
	NodeVersion string
}

type RewriteRequest struct {
	File    string
	OutPath string
	// Format selects a report instead of the rewritten source. Empty prints
	// the source.
	Format report.Format
}

func DefaultRequest() Request {
	return Request{
		Mode:     ModeNormalize,
		RepoPath: ".",
		Normalize: NormalizeRequest{
			Format: report.FormatTable,
		},
	}
}
