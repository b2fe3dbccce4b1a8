package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/heaplab/internal/config"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// ValidateResult holds the validation result for JSON output.
type ValidateResult struct {
	Path   string         `json:"path"`
	Valid  bool           `json:"valid"`
	Config *config.Config `json:"config,omitempty"`
	Error  *ConfigIssue   `json:"error,omitempty"`
}

// ConfigIssue is a config error with its source position.
type ConfigIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate [config]",
		Short: "Validate a CUE configuration",
		Long: `Check a configuration file or directory against the heaplab schema.

The file is unified with the built-in schema, so unknown fields and
out-of-range values are reported with their position. Without an
argument the --config path is checked.

Exit codes:
  0 - Configuration is valid
  1 - Configuration is invalid
  2 - Command error (no path given)

Examples:
  heaplab validate ./heaplab.cue
  heaplab validate ./config/
  heaplab validate ./heaplab.cue --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.ConfigPath
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(opts, path, cmd)
		},
	}

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	if path == "" {
		return NewExitError(ExitCommandError, "no configuration given: pass a path or --config")
	}
	if _, err := os.Stat(path); err != nil {
		return WrapExitError(ExitCommandError, "cannot read configuration", err)
	}
	out := NewOutputFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, err := config.Load(path)
	if err != nil {
		issue := issueOf(err)
		result := ValidateResult{Path: path, Error: &issue}
		if out.JSON() {
			if err := out.Failure(CodeInvalidConfig, "invalid configuration", result); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "✗ %s\n", path)
			fmt.Fprintf(cmd.OutOrStdout(), "  %v\n", err)
		}
		return WrapExitError(ExitFailure, "invalid configuration", err)
	}

	if out.JSON() {
		return out.Success(ValidateResult{Path: path, Valid: true, Config: &cfg})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", path)
	if opts.Verbose {
		e := cfg.Experiment
		fmt.Fprintf(cmd.OutOrStdout(), "  array: %d values in [%d,%d], history limit %d\n",
			e.ArrayLength, e.MinValue, e.MaxValue, e.HistoryLimit)
		fmt.Fprintf(cmd.OutOrStdout(), "  server: %s\n", cfg.Server.Addr)
	}
	return nil
}

func issueOf(err error) ConfigIssue {
	var ce *config.Error
	if !errors.As(err, &ce) {
		return ConfigIssue{Field: "config", Message: err.Error()}
	}
	issue := ConfigIssue{Field: ce.Field, Message: ce.Message}
	if ce.Pos.IsValid() {
		issue.File = ce.Pos.Filename()
		issue.Line = ce.Pos.Line()
		issue.Column = ce.Pos.Column()
	}
	return issue
}
