package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kirillkom/document-router/internal/infrastructure/classifier/keyword"
	"github.com/kirillkom/document-router/internal/infrastructure/routing/rules"
)

func (c *cli) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that the classifier rules and routing table load",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := c.config()
			if _, err := keyword.LoadRules(cfg.ClassifierRulesPath); err != nil {
				return err
			}
			table, err := rules.LoadTable(cfg.RoutingRulesPath)
			if err != nil {
				return err
			}
			if _, err := rules.New(table); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "classifier rules: ok (%s)\n", sourceName(cfg.ClassifierRulesPath))
			fmt.Fprintf(out, "routing table: ok (%s, %d rules, %d departments)\n",
				sourceName(cfg.RoutingRulesPath), len(table.Rules), len(table.Departments))
			return nil
		},
	}
}

func sourceName(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}
