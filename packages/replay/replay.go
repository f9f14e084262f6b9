package replay

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/teeterhq/teeter/packages/resultfile"
)

// Plan is a replay ready to execute: the binary, its arguments, and
// any compatibility warnings collected while reconstructing it.
type Plan struct {
	Source   string
	Binary   string
	Args     []string
	Recorded resultfile.RecordedRun
	Warnings []string
}

// Command returns the full command line the plan will execute.
func (p *Plan) Command() string {
	return strings.Join(append([]string{p.Binary}, p.Args...), " ")
}

// Load parses a result file and builds an executable plan from the
// command it recorded. Flags that would clobber the source file are
// rewritten and surfaced as warnings rather than executed verbatim.
func Load(path string) (*Plan, error) {
	rec, err := resultfile.ParseFile(path)
	if err != nil {
		return nil, err
	}
	if rec.Command == "" {
		return nil, fmt.Errorf("no recorded command in %s", path)
	}

	fields := strings.Fields(rec.Command)
	plan := &Plan{
		Source:   path,
		Binary:   fields[0],
		Args:     append([]string(nil), fields[1:]...),
		Recorded: *rec,
	}

	for i := 0; i < len(plan.Args); i++ {
		switch arg := plan.Args[i]; {
		case arg == "--log-overwrite":
			plan.Args[i] = "--log-append"
			plan.warn("recorded run used --log-overwrite; replaying with --log-append to preserve history")
		case arg == "--log-file" && i+1 < len(plan.Args) && plan.Args[i+1] == path:
			// Writing the replay's log over its own source would
			// destroy the recording being replayed.
			plan.Args = append(plan.Args[:i+1], plan.Args[i+2:]...)
			plan.warn(fmt.Sprintf("recorded run logged to %s; replay will pick a fresh log name", path))
		case strings.HasPrefix(arg, "--log-file=") && strings.TrimPrefix(arg, "--log-file=") == path:
			plan.Args[i] = "--log-file"
			plan.warn(fmt.Sprintf("recorded run logged to %s; replay will pick a fresh log name", path))
		}
	}
	return plan, nil
}

func (p *Plan) warn(msg string) {
	p.Warnings = append(p.Warnings, msg)
}

// execCommand is swapped in tests.
var execCommand = exec.CommandContext

// Run executes the plan, streaming output to the current process, and
// returns the child's exit code.
func (p *Plan) Run(ctx context.Context) (int, error) {
	cmd := execCommand(ctx, p.Binary, p.Args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return -1, fmt.Errorf("replaying %s: %w", p.Recorded.Command, err)
	}
	return 0, nil
}
