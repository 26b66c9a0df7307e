package commands

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/dataload/internal/cli/config"
	"github.com/leapstack-labs/dataload/internal/integration"
	"github.com/leapstack-labs/dataload/internal/loader"
	"github.com/leapstack-labs/dataload/internal/table"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
	Client *integration.Client
	Source *integration.Source
	Loader *loader.Loader
	Table  table.Options
	Out    io.Writer
	Err    io.Writer
}

// NewCommandContext wires a client, source and loader from the loaded
// configuration. It fails when no valid integration is configured.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	return newCommandContext(cmd, getConfig(), config.GetLogger(cmd.Context()))
}

func newCommandContext(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) (*CommandContext, error) {
	typ, err := cfg.RequireIntegration()
	if err != nil {
		return nil, err
	}
	opts, err := cfg.TableOptions()
	if err != nil {
		return nil, err
	}

	client := integration.NewClient(cfg.BaseURL, logger, integration.WithTimeout(cfg.Timeout))
	src := &integration.Source{
		Client:      client,
		Integration: typ,
		Credentials: integration.Credentials(cfg.Credentials),
	}
	l := loader.New(src,
		loader.WithLogger(logger),
		loader.WithSequencing(cfg.Loader.Sequencing),
	)

	return &CommandContext{
		Cfg:    cfg,
		Logger: logger,
		Client: client,
		Source: src,
		Loader: l,
		Table:  opts,
		Out:    cmd.OutOrStdout(),
		Err:    cmd.ErrOrStderr(),
	}, nil
}

// getConfig returns the current configuration, or defaults when none was
// loaded (for commands run outside the root command, as in tests).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Defaults()
}

// addSourceFlags registers the flags that select what to load.
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("integration", "i", "", "Integration to load from (notion, airtable, hubspot, slack)")
	cmd.Flags().String("credentials", "", "Credentials as a JSON object")
	cmd.Flags().String("credentials-file", "", "Read credentials from a JSON or YAML file")

	_ = cmd.RegisterFlagCompletionFunc("integration", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		var names []string
		for _, t := range integration.Types() {
			e, _ := integration.Endpoint(t)
			names = append(names, e)
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.MarkFlagFilename("credentials-file", "json", "yaml", "yml")
}
