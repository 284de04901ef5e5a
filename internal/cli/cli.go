package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ben-ranford/presetenv/internal/app"
)

type Runner interface {
	Execute(ctx context.Context, req app.Request) (string, error)
}

type CLI struct {
	Runner Runner
	Out    io.Writer
	Err    io.Writer
}

func New(runner Runner, out io.Writer, errOut io.Writer) *CLI {
	return &CLI{
		Runner: runner,
		Out:    out,
		Err:    errOut,
	}
}

func (c *CLI) Run(ctx context.Context, args []string) int {
	req, err := ParseArgs(args)
	if err != nil {
		command := ""
		var usageErr *UsageError
		if errors.As(err, &usageErr) {
			command = usageErr.Command
		}
		if errors.Is(err, ErrHelpRequested) {
			fmt.Fprint(c.Out, CommandUsage(command))
			return 0
		}
		fmt.Fprintf(c.Err, "error: %v\n\n%s", err, CommandUsage(command))
		return 2
	}

	output, err := c.Runner.Execute(ctx, req)
	if err != nil {
		fmt.Fprintf(c.Err, "error: %v\n", err)
		return 1
	}
	fmt.Fprint(c.Out, output)
	if output != "" && !strings.HasSuffix(output, "\n") && !printsSource(req) {
		fmt.Fprintln(c.Out)
	}
	return 0
}

// printsSource reports whether the output is rewritten source, which is
// written byte for byte.
func printsSource(req app.Request) bool {
	return req.Mode == app.ModeRewrite && req.Rewrite.Format == ""
}
