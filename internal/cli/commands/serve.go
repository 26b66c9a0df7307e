package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/dataload/internal/cli/config"
	"github.com/leapstack-labs/dataload/internal/integration/fixture"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Addr           string
	DataFile       string
	Watch          bool
	RequireToken   bool
	Reject         map[string]string
	AllowedOrigins []string
}

// NewServeCommand creates the fixture backend command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local stand-in for the integration backend",
		Long: `Serve canned records over the integration backend's HTTP contract:
POST /integrations/{endpoint}/load with a "credentials" form field.

Without --data, built-in sample records are served for every integration.
Use --reject to make a token fail with a given detail message.`,
		Example: `  # Sample data on the default backend address
  dataload serve

  # Records from a file, reloaded on change, with one revoked token
  dataload serve --data fixtures.json --watch --reject revoked="invalid token"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", ":8000", "Listen address")
	cmd.Flags().StringVar(&opts.DataFile, "data", "", "JSON file mapping endpoints to record lists")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Reload the data file when it changes")
	cmd.Flags().BoolVar(&opts.RequireToken, "require-token", false, "Reject credentials without an access_token")
	cmd.Flags().StringToStringVar(&opts.Reject, "reject", nil, "token=detail pairs to reject")
	cmd.Flags().StringSliceVar(&opts.AllowedOrigins, "allow-origin", nil, "CORS origins (default: localhost)")
	_ = cmd.MarkFlagFilename("data", "json")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	logger := config.GetLogger(cmd.Context())

	data := fixture.Sample()
	if opts.DataFile != "" {
		d, err := fixture.LoadData(opts.DataFile)
		if err != nil {
			return err
		}
		data = d
	} else if opts.Watch {
		return fmt.Errorf("--watch needs --data")
	}

	srv := fixture.NewServer(fixture.Config{
		Data:           data,
		DataFile:       opts.DataFile,
		Watch:          opts.Watch,
		RequireToken:   opts.RequireToken,
		Rejected:       opts.Reject,
		AllowedOrigins: opts.AllowedOrigins,
	}, logger)
	return srv.Run(cmd.Context(), opts.Addr)
}
