package main

import (
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/devsync/internal/config"
)

type rootFlags struct {
	configPath string
	verbose    bool
	dryRun     bool
	strict     bool
	reportPath string
	noTUI      bool
}

func newRootCmd(d deps) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "devsync",
		Short:         "devsync reconciles a developer machine with a declarative configuration",
		Long:          "devsync reads a desired-state document and installs only what is missing, one item at a time.\nRunning it again on an unchanged machine changes nothing.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd.Context(), d, *flags)
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", config.DefaultPath, "Path to the configuration document")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, "Probe every item without installing anything")
	cmd.PersistentFlags().BoolVar(&flags.strict, "strict", false, "Exit non-zero when any item fails")
	cmd.PersistentFlags().StringVar(&flags.reportPath, "report", "", "Write a JSON run report to this path")
	cmd.PersistentFlags().BoolVar(&flags.noTUI, "no-tui", false, "Disable the interactive progress view")

	cmd.AddCommand(newApplyCmd(d, flags))
	cmd.AddCommand(newPlanCmd(d, flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
