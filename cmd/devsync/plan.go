package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/devsync/internal/config"
	"github.com/alexisbeaulieu97/devsync/internal/reconcile"
)

func newPlanCmd(d deps, root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "List the items the configuration asks for, in apply order, without probing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := config.Load(root.configPath)
			if err != nil {
				return err
			}

			items := reconcile.Plan(doc)
			out := d.stdout
			group := ""
			for i, item := range items {
				if item.Group != group {
					group = item.Group
					fmt.Fprintf(out, "%s:\n", group)
				}
				line := fmt.Sprintf("  %3d. %s", i+1, item.Key())
				if item.Label != "" && item.Label != item.Identifier {
					line += fmt.Sprintf(" (%s)", item.Label)
				}
				if len(item.Alternatives) > 1 {
					line += fmt.Sprintf(" alternatives: %v", item.Alternatives)
				}
				fmt.Fprintln(out, line)
			}
			fmt.Fprintf(out, "%d items planned\n", len(items))
			return nil
		},
	}
}
