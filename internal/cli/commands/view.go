package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/leapstack-labs/dataload/internal/cli/config"
	"github.com/leapstack-labs/dataload/internal/tui"
)

// ViewOptions holds options for the view command.
type ViewOptions struct {
	AutoLoad bool
	LogFile  string
}

// NewViewCommand creates the interactive view command.
func NewViewCommand() *cobra.Command {
	opts := &ViewOptions{}

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Browse records in an interactive table",
		Long: `Open a full-screen table of the selected integration's records.

Press l to load, c to clear, arrow keys to move between cells and q to quit.
The selected cell's full text is shown below the table. Failed loads show
the backend's message until the next key press.`,
		Example: `  dataload view -i slack --credentials-file slack.json --load`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if f, ok := cmd.OutOrStdout().(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
				return errors.New("view needs a terminal\nHint: use 'dataload load' for piped output")
			}
			return runView(cmd, opts)
		},
	}
	addSourceFlags(cmd)
	cmd.Flags().BoolVar(&opts.AutoLoad, "load", false, "Load as soon as the view opens")
	cmd.Flags().StringVar(&opts.LogFile, "log-file", "", "Write logs to this file while the view is open")
	_ = cmd.MarkFlagFilename("log-file")
	return cmd
}

func runView(cmd *cobra.Command, opts *ViewOptions) error {
	cfg := getConfig()

	// Log lines would tear the full-screen view, so they go to a file or
	// nowhere.
	logger := slog.New(slog.DiscardHandler)
	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer func() { _ = f.Close() }()
		logger = config.NewLogger(f, cfg.Verbose)
	}

	cc, err := newCommandContext(cmd, cfg, logger)
	if err != nil {
		return err
	}

	return tui.Run(cmd.Context(), cc.Loader, tui.Options{
		Title:    fmt.Sprintf("dataload · %s", cc.Source.Integration),
		MinWidth: cc.Table.MinWidth,
		MaxWidth: cc.Table.MaxWidth,
		AutoLoad: opts.AutoLoad,
	}, tea.WithOutput(cmd.OutOrStdout()))
}
