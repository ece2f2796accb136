package main

import (
	"github.com/spf13/cobra"

	"github.com/kirillkom/document-router/internal/core/domain"
)

func (c *cli) routeCmd() *cobra.Command {
	var req domain.RoutingRequest
	var priority string
	cmd := &cobra.Command{
		Use:   "route",
		Short: "Compute the routing decision for a classified document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cls, err := c.classification()
			if err != nil {
				return err
			}
			req.Priority = domain.Priority(priority)
			decision, err := cls.Service.RouteDocument(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), decision)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&req.DocumentID, "doc-id", "", "document id echoed in the decision")
	flags.StringVar(&req.DocType, "doc-type", "", "classified document type")
	flags.StringVar(&req.Department, "department", "", "classified department")
	flags.StringVar(&priority, "priority", string(domain.DefaultPriority), "classified priority")
	flags.Float64Var(&req.RiskScore, "risk-score", 0, "risk score between 0 and 1")
	return cmd
}
