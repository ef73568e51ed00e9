// Package format runs external code formatters over generated output.
package format

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// DirPlaceholder is replaced with the output directory in command arguments.
const DirPlaceholder = "{dir}"

// DefaultCommands lint and then format the generated TypeScript.
var DefaultCommands = [][]string{
	{"npx", "eslint", DirPlaceholder, "--fix"},
	{"npx", "prettier", DirPlaceholder, "--write"},
}

// Runner runs each command in order. Every command runs even when an earlier one fails;
// the returned error joins all failures.
type Runner struct {
	Commands [][]string
	Logger   *slog.Logger
}

func (r *Runner) Format(ctx context.Context, dir string) error {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var errs []error
	for _, command := range r.Commands {
		if len(command) == 0 {
			continue
		}
		args := expand(command[1:], dir)

		logger.Debug("running formatter", "command", command[0], "args", args)
		// #nosec G204 - commands come from the operator's configuration
		cmd := exec.CommandContext(ctx, command[0], args...)
		var out bytes.Buffer
		cmd.Stdout = &out
		cmd.Stderr = &out
		if err := cmd.Run(); err != nil {
			errs = append(errs, fmt.Errorf("failed to run %s: %w: %s", command[0], err, strings.TrimSpace(out.String())))
		}
	}
	return errors.Join(errs...)
}

func expand(args []string, dir string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = strings.ReplaceAll(arg, DirPlaceholder, dir)
	}
	return out
}
