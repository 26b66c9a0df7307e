package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/dataload/internal/loader"
	"github.com/leapstack-labs/dataload/internal/table"
)

// NewLoadCommand creates the load command.
func NewLoadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load records once and print them",
		Long: `Ask the integration backend for the selected integration's records and
print them as a table.

Columns come from the fields of the first record. When nothing is returned
the placeholder "No data to display." is printed instead. On failure the
backend's detail message (or a generic notice) is printed and the command
exits non-zero.`,
		Example: `  # Load HubSpot records with an access token
  dataload load -i hubspot --credentials '{"access_token":"..."}'

  # Credentials from a file, output as CSV
  dataload load -i notion --credentials-file notion.json -f csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			return runLoad(cmd, cc)
		},
	}
	addSourceFlags(cmd)
	return cmd
}

func runLoad(cmd *cobra.Command, cc *CommandContext) error {
	cc.Logger.Debug("loading", "integration", cc.Source.Integration, "base_url", cc.Client.BaseURL())

	if err := cc.Loader.TriggerLoad(cmd.Context()); err != nil {
		// The user-visible notice is the whole message.
		return errors.New(loader.Message(err))
	}

	if err := table.Render(cc.Out, table.Build(cc.Loader.Dataset()), cc.Table); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}
