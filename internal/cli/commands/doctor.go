package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/dataload/internal/cli/config"
	"github.com/leapstack-labs/dataload/internal/integration"
	"github.com/leapstack-labs/dataload/internal/loader"
	"github.com/leapstack-labs/dataload/internal/record"
	"github.com/leapstack-labs/dataload/internal/table"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	TryLoad bool
}

// Check status values.
const (
	StatusPass  = "pass"
	StatusWarn  = "warn"
	StatusError = "error"
)

// HealthCheck is the result of one doctor check.
type HealthCheck struct {
	Name   string
	Status string
	Detail string
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and backend reachability",
		Long: `Check that dataload is ready to load data:
- which config file is in use
- whether an integration and credentials are configured
- whether the integration backend answers

With --try-load a real load is made and the record count reported.
Exits non-zero when any check fails.`,
		Example: `  # Basic health check
  dataload doctor

  # Also attempt a load from Notion
  dataload doctor -i notion --try-load`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, getConfig(), opts)
		},
	}

	addSourceFlags(cmd)
	cmd.Flags().BoolVar(&opts.TryLoad, "try-load", false, "Attempt a load from the selected integration")

	return cmd
}

func runDoctor(cmd *cobra.Command, cfg *config.Config, opts *DoctorOptions) error {
	logger := config.GetLogger(cmd.Context())
	client := integration.NewClient(cfg.BaseURL, logger, integration.WithTimeout(cfg.Timeout))

	checks := runChecks(cmd.Context(), cfg, client, opts)

	tableOpts, err := cfg.TableOptions()
	if err != nil {
		return err
	}
	tableOpts.Footer = false
	tableOpts.MaxWidth = 0
	if err := table.Render(cmd.OutOrStdout(), table.Build(record.Loaded(checkRecords(checks))), tableOpts); err != nil {
		return err
	}

	if n := countStatus(checks, StatusError); n > 0 {
		return fmt.Errorf("%d check(s) failed", n)
	}
	return nil
}

func runChecks(ctx context.Context, cfg *config.Config, client *integration.Client, opts *DoctorOptions) []HealthCheck {
	var checks []HealthCheck
	add := func(name, status, detail string) {
		checks = append(checks, HealthCheck{Name: name, Status: status, Detail: detail})
	}

	if path := config.GetConfigFileUsed(); path != "" {
		add("config", StatusPass, filepath.Base(path))
	} else {
		add("config", StatusWarn, "no config file, using defaults")
	}

	typ, typErr := cfg.RequireIntegration()
	if typErr != nil {
		add("integration", StatusWarn, "none selected")
	} else {
		add("integration", StatusPass, string(typ))
	}

	if _, ok := cfg.Credentials["access_token"]; ok {
		add("credentials", StatusPass, "access_token set")
	} else {
		add("credentials", StatusWarn, "no access_token")
	}

	if err := client.Ping(ctx); err != nil {
		add("backend", StatusError, fmt.Sprintf("%s: %v", client.BaseURL(), err))
	} else {
		add("backend", StatusPass, client.BaseURL())
	}

	if opts.TryLoad {
		switch {
		case typErr != nil:
			add("load", StatusError, "no integration selected")
		default:
			src := &integration.Source{Client: client, Integration: typ, Credentials: integration.Credentials(cfg.Credentials)}
			records, err := src.Load(ctx)
			if err != nil {
				add("load", StatusError, loader.Message(err))
			} else {
				add("load", StatusPass, fmt.Sprintf("%d record(s)", len(records)))
			}
		}
	}

	return checks
}

func checkRecords(checks []HealthCheck) []record.Record {
	title := cases.Title(language.English)
	out := make([]record.Record, 0, len(checks))
	for _, c := range checks {
		out = append(out, record.New(
			record.F("check", title.String(c.Name)),
			record.F("status", c.Status),
			record.F("detail", c.Detail),
		))
	}
	return out
}

func countStatus(checks []HealthCheck, status string) int {
	n := 0
	for _, c := range checks {
		if c.Status == status {
			n++
		}
	}
	return n
}
