package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/younsl/logreaper/internal/version"
)

var (
	eventFile         string
	inclusionPrefixes string
	exclusionPatterns string
	minAgeHours       string
	lastActivityHours string
	excludeRetention  bool
	excludeSubscribed bool

	region         string
	profile        string
	mode           string
	dryRun         bool
	pacingInterval time.Duration
	logLevel       string
	logFormat      string
	showVersion    bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// newRootCmd builds the root command and binds its flags.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "logreaper",
		Short: "Delete unused CloudWatch Logs log groups by retention policy",
		Long: `logreaper scans the CloudWatch Logs log groups under one or more name
prefixes, evaluates each against a retention policy, and deletes the ones
that are old, inactive, unsubscribed, and not excluded.

The policy comes from an event file (JSON or YAML), from flags, or both.
Flags override fields of the event file.`,
		Example: `  logreaper --inclusion-prefixes /aws/lambda/ --min-age-hours 48 --last-activity-hours 720 --dry-run
  logreaper --event policy.yaml --region eu-west-1`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintln(cmd.OutOrStdout(), version.Get())
				return nil
			}
			return run(cmd)
		},
	}

	flags := rootCmd.Flags()

	// Trigger payload
	flags.StringVarP(&eventFile, "event", "e", "", "Trigger event file (JSON or YAML) holding the policy")
	flags.StringVarP(&inclusionPrefixes, "inclusion-prefixes", "p", "", "Log group name prefixes to scan (comma separated, empty matches all)")
	flags.StringVarP(&exclusionPatterns, "exclusion-patterns", "x", "", "Regular expressions protecting matching log groups (comma separated)")
	flags.StringVar(&minAgeHours, "min-age-hours", "", "Skip log groups created less than this many hours ago")
	flags.StringVar(&lastActivityHours, "last-activity-hours", "", "Skip log groups written to less than this many hours ago")
	flags.BoolVar(&excludeRetention, "exclude-retention", false, "Skip log groups with a retention setting")
	flags.BoolVar(&excludeSubscribed, "exclude-subscribed", false, "Skip log groups with subscription filters")

	// Runtime
	flags.StringVarP(&region, "region", "r", "", "AWS region (default: AWS_REGION or the shared config)")
	flags.StringVar(&profile, "profile", "", "AWS shared config profile")
	flags.StringVar(&mode, "mode", "", "Run mode selecting the default pacing: production or test")
	flags.BoolVar(&dryRun, "dry-run", false, "Report what would be deleted without deleting")
	flags.DurationVar(&pacingInterval, "pacing-interval", 0, "Minimum interval between log group evaluations (default from mode)")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&logFormat, "log-format", "", "Log format: json or text")
	flags.BoolVarP(&showVersion, "version", "v", false, "Show version information")

	return rootCmd
}
