// Package app wires the pdpp command-line surface of spec.md §4.4 onto
// the translate/ppconfig/pplog pipeline, in the cobra command/package
// layout of the teacher's cmd/defuzz/app (NewDefuzzCommand +
// NewGenerateCommand): a root command holding its flags and a
// RunE that does the actual work, since this translator has a single
// mode of operation rather than subcommands.
package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjy-dev/pdpp/internal/pplog"
	"github.com/zjy-dev/pdpp/internal/ppconfig"
	"github.com/zjy-dev/pdpp/internal/translate"
)

// NewRootCommand creates the root (and only) pdpp command.
func NewRootCommand() *cobra.Command {
	var (
		debug      bool
		file       string
		modeFlags  []string
		varFlags   []string
		configPath string
		fullHelp   bool
	)

	cmd := &cobra.Command{
		Use:   "pdpp -f FILE [-m mode,...] [-v NAME=INT]...",
		Short: "Translate WAIT_EVT-annotated C source into continuation-passing scheduler code.",
		Long: `pdpp rewrites a C source file that uses the START_FUNC/END_FUNC/
__context/WAIT_EVT<N> macros into straight-line C that, at each wait,
either falls through (event already ready) or saves the live context
into a heap-allocated continuation and returns to a scheduler through
a switch/case dispatch.

Examples:
  pdpp -f task.c
  pdpp -f task.c -m optimized,trace
  pdpp -f task.c -v PDEVT_SCRATCH_BYTES=2048 -v PDEVT_LIST_SIZE=8`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if fullHelp {
				return cmd.Help()
			}
			if len(args) > 0 {
				return usageErrorf(cmd, "unexpected positional argument %q", args[0])
			}
			if file == "" {
				return usageErrorf(cmd, "missing required flag -f/--file")
			}

			log := pplog.New(levelFor(debug), true)

			cfg := ppconfig.New()
			if configPath != "" {
				defaults, err := ppconfig.LoadDefaults(configPath)
				if err != nil {
					return usageErrorf(cmd, "failed to load --config %q: %v", configPath, err)
				}
				cfg.Apply(defaults)
			}

			for _, raw := range modeFlags {
				if err := cfg.ApplyMode(raw, log); err != nil {
					return usageErrorf(cmd, "%v", err)
				}
			}
			for _, raw := range varFlags {
				if err := cfg.ParseVarFlag(raw); err != nil {
					return usageErrorf(cmd, "%v", err)
				}
			}
			cfg.FillDefaults()

			res, err := translate.Run(file, cfg, log)
			if err != nil {
				return usageErrorf(cmd, "%v", err)
			}
			if res.Errors > 0 {
				return usageErrorf(cmd, "translation of %q completed with %d structural error(s); see diagnostics above", file, res.Errors)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", res.OutputPath)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "elevate logger verbosity to DEBUG")
	cmd.Flags().StringVarP(&file, "file", "f", "", "input C source file (required)")
	cmd.Flags().StringArrayVarP(&modeFlags, "mode", "m", nil, "comma-separated mode flags: optimized, ctxcheck, trace (repeatable; last occurrence wins per flag)")
	cmd.Flags().StringArrayVarP(&varFlags, "var", "v", nil, "NAME=INT override for PDEVT_SCRATCH_BYTES, PDEVT_MERGE_SIZE, or PDEVT_LIST_SIZE (repeatable; last occurrence per NAME wins)")
	cmd.Flags().StringVar(&configPath, "config", "", "optional YAML file presetting the three macro sizing constants")
	cmd.Flags().BoolVar(&fullHelp, "full-help", false, "print usage and exit")

	// spec.md §4.4: -h/--help/--full-help print usage and exit with
	// status 2 (not cobra's usual 0), since this tool treats a help
	// request as "did not perform a translation" rather than success.
	defaultHelp := cmd.HelpFunc()
	cmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		defaultHelp(c, args)
		os.Exit(2)
	})

	return cmd
}

// usageErrorf reports a usage error (spec.md §7.1) by printing the
// message and a reference to -h to stderr and returning an error that
// carries exit status 2.
func usageErrorf(cmd *cobra.Command, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(cmd.ErrOrStderr(), "%s\nsee -h/--help for usage\n", msg)
	return &exitError{msg: msg}
}

// exitError is returned by RunE for every usage or I/O error so that
// main can map it to exit status 2 (spec.md §6).
type exitError struct{ msg string }

func (e *exitError) Error() string { return e.msg }

// levelFor returns the pplog level string for the -d/--debug flag.
func levelFor(debug bool) string {
	if debug {
		return "debug"
	}
	return "info"
}
