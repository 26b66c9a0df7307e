package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/dataload/internal/integration"
	"github.com/leapstack-labs/dataload/internal/record"
	"github.com/leapstack-labs/dataload/internal/table"
)

// NewIntegrationsCommand creates the integrations command.
func NewIntegrationsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "integrations",
		Short: "List supported integrations",
		Long:  `List the integrations the backend can load from, with their load routes.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig()
			opts, err := cfg.TableOptions()
			if err != nil {
				return err
			}
			opts.Footer = false
			opts.MaxWidth = 0
			return table.Render(cmd.OutOrStdout(), table.Build(record.Loaded(integrationRecords())), opts)
		},
	}
}

// integrationRecords describes each supported integration as a record.
func integrationRecords() []record.Record {
	types := integration.Types()
	out := make([]record.Record, 0, len(types))
	for _, t := range types {
		e, _ := integration.Endpoint(t)
		path, _ := integration.LoadPath(t)
		out = append(out, record.New(
			record.F("integration", string(t)),
			record.F("endpoint", e),
			record.F("load_path", path),
		))
	}
	return out
}
