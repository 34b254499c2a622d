package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/condevent/internal/compiler"
	"github.com/roach88/condevent/internal/ir"
)

// ValidateResult is the JSON payload of a successful validate.
type ValidateResult struct {
	Name       string   `json:"name"`
	Hash       string   `json:"hash"`
	Conditions []string `json:"conditions"`
	Events     []string `json:"events"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <ruleset>",
		Short: "Validate a ruleset file",
		Long: `Load a ruleset (.cue, .yaml, .yml or .json) and check it against the
component registry.

Exit codes:
  0 - Ruleset is valid
  1 - Ruleset failed to compile or validate
  2 - Command error (file not found, etc.)

Examples:
  condevent validate ./door.cue
  condevent validate ./door.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	r, err := loadRuleset(path)
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) && exitErr.Code == ExitFailure {
			_ = f.Error("E001", err.Error(), nil)
		}
		return err
	}

	reg := compiler.DefaultRegistry(newLogger(opts, cmd.ErrOrStderr(), slog.LevelWarn))
	if errs := compiler.Validate(r, reg); len(errs) > 0 {
		return reportValidationErrors(f, errs)
	}

	hash, err := ir.RulesetHash(*r)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to hash ruleset", err)
	}
	result := ValidateResult{
		Name:       r.Name,
		Hash:       hash,
		Conditions: labels(r.Conditions),
		Events:     labels(r.Events),
	}

	if f.JSON() {
		return f.Success(result)
	}
	fmt.Fprintf(f.Writer, "✓ %s is valid\n", r.Name)
	fmt.Fprintf(f.Writer, "  hash: %s\n", hash)
	fmt.Fprintf(f.Writer, "  conditions: %d, events: %d\n", len(r.Conditions), len(r.Events))
	return nil
}

// loadRuleset maps load failures to exit codes: unreadable files are
// command errors, compile failures are validation failures.
func loadRuleset(path string) (*ir.Ruleset, error) {
	if err := requireFile(path, "ruleset not found"); err != nil {
		return nil, err
	}
	r, err := compiler.LoadRuleset(path)
	if err != nil {
		var ce *compiler.CompileError
		if errors.As(err, &ce) {
			return nil, WrapExitError(ExitFailure, "compile failed", err)
		}
		return nil, WrapExitError(ExitCommandError, "failed to load ruleset", err)
	}
	return r, nil
}

func requireFile(path, msg string) error {
	if _, err := os.Stat(path); err != nil {
		return WrapExitError(ExitCommandError, msg, err)
	}
	return nil
}

func reportValidationErrors(f *OutputFormatter, errs []compiler.ValidationError) error {
	if f.JSON() {
		_ = f.Error("E100", fmt.Sprintf("validation failed with %d error(s)", len(errs)), errs)
	} else {
		fmt.Fprintln(f.Writer, "✗ Validation failed")
		for _, e := range errs {
			fmt.Fprintf(f.Writer, "  %s\n", e.Error())
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}

func labels(specs []ir.ComponentSpec) []string {
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.Label()
	}
	return out
}
