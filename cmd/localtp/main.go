// Command localtp derives the dialing formats mandated for a home
// NPA/NXX, generates the matching dial-plan translation patterns and
// converges a Webex Calling location (or the organization) onto them.
package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeokrohn/wxc-nanp/internal/domain/dialplan"
	"github.com/jeokrohn/wxc-nanp/internal/infrastructure/config"
	"github.com/jeokrohn/wxc-nanp/internal/infrastructure/localityguide"
	"github.com/jeokrohn/wxc-nanp/internal/infrastructure/telemetry"
	"github.com/jeokrohn/wxc-nanp/internal/infrastructure/webexcalling"
	"github.com/jeokrohn/wxc-nanp/internal/service/provisioning"
)

type options struct {
	configPath   string
	npa          string
	nxx          string
	location     string
	organization bool
	token        string
	readOnly     bool
	patternsOnly bool
	verbose      bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "localtp",
		Short: "Provision local dialing translation patterns for a home NPA/NXX",
		Long: `localtp looks up the exchanges local to a home NPA/NXX, derives the
dialing format each call type requires and reconciles the resulting
translation patterns against Webex Calling.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "path to YAML configuration file")
	flags.StringVar(&opts.npa, "npa", "", "home area code (NPA)")
	flags.StringVar(&opts.nxx, "nxx", "", "home exchange code (NXX)")
	flags.StringVar(&opts.location, "location", "", "Webex Calling location name to provision")
	flags.BoolVar(&opts.organization, "org", false, "provision at organization level instead of a location")
	flags.StringVar(&opts.token, "token", "", "Webex API access token (defaults to WEBEX_TOKEN)")
	flags.BoolVar(&opts.readOnly, "readonly", false, "compute and show the plan without applying it")
	flags.BoolVar(&opts.patternsOnly, "patternsonly", false, "only print the generated patterns, no API access")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	return cmd
}

// loadConfig resolves configuration and layers the explicitly set CLI
// flags on top.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("npa") {
		cfg.NPA = opts.npa
	}
	if flags.Changed("nxx") {
		cfg.NXX = opts.nxx
	}
	if flags.Changed("location") {
		cfg.Location = opts.location
	}
	if flags.Changed("org") {
		cfg.Organization = opts.organization
	}
	if flags.Changed("token") {
		cfg.Webex.Token = opts.token
	}
	if flags.Changed("readonly") {
		cfg.ReadOnly = opts.readOnly
	}
	if flags.Changed("patternsonly") {
		cfg.PatternsOnly = opts.patternsOnly
	}
	if opts.verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cmd *cobra.Command, cfg *config.Config) error {
	logger, err := telemetry.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	home, err := cfg.Home()
	if err != nil {
		return err
	}
	table, err := cfg.FormatTable()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	guide := localityguide.NewClient(cfg.Guide, logger)
	webex := webexcalling.NewClient(cfg.Webex, logger)

	scope := dialplan.OrganizationScope()
	if cfg.Mode() != provisioning.ModePatternsOnly && cfg.Location != "" {
		locationID, err := webex.ResolveLocation(ctx, cfg.Location)
		if err != nil {
			return err
		}
		logger.Debug("resolved location",
			zap.String("name", cfg.Location), zap.String("id", locationID))
		scope = dialplan.LocationScope(locationID)
	}

	svc := provisioning.NewService(guide, webex, provisioning.Settings{
		Home:           home,
		Scope:          scope,
		Mode:           cfg.Mode(),
		Table:          table,
		SteeringPrefix: cfg.SteeringPrefix,
	}, logger)

	report, err := svc.Run(ctx)
	if report != nil {
		printReport(cmd.OutOrStdout(), report)
	}
	return err
}

func printReport(out io.Writer, report *provisioning.Report) {
	fmt.Fprintf(out, "Translation patterns (%d):\n", len(report.Desired))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, p := range report.Desired {
		fmt.Fprintf(w, "  %s\t%s\t%s\n", p.Name, p.MatchPattern, p.ReplacementPattern)
	}
	w.Flush()

	if report.Mode == provisioning.ModePatternsOnly {
		return
	}

	fmt.Fprintln(out)
	if report.Plan.IsEmpty() {
		fmt.Fprintln(out, "No changes are required.")
		return
	}
	for _, op := range report.Plan.Operations() {
		status := ""
		if op.Err != nil {
			status = "  (FAILED)"
		}
		fmt.Fprintf(out, "%s%s\n", op.Description(), status)
	}
	if report.Mode == provisioning.ModeReadOnly {
		fmt.Fprintln(out, "\nReadonly mode: no changes were applied.")
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
