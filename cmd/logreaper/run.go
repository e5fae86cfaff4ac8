package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/younsl/logreaper/internal/config"
	"github.com/younsl/logreaper/internal/logger"
	"github.com/younsl/logreaper/internal/models"
	"github.com/younsl/logreaper/pkg/aws"
	"github.com/younsl/logreaper/pkg/formatter"
	"github.com/younsl/logreaper/pkg/policy"
	"github.com/younsl/logreaper/pkg/reaper"
	"github.com/younsl/logreaper/pkg/utils"
)

func run(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	event, err := loadEvent(cmd)
	if err != nil {
		return err
	}
	p, err := event.Policy()
	if err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	awsCfg, err := aws.LoadAWSConfig(ctx, cfg.AWS.Region, cfg.AWS.Profile)
	if err != nil {
		return err
	}
	client := aws.NewLogsClient(awsCfg, log)

	scanner := reaper.NewScanner(client,
		reaper.WithPacer(reaper.NewRatePacer(cfg.PacingInterval)),
		reaper.WithDryRun(cfg.DryRun),
		reaper.WithLogger(log),
	)
	runner := reaper.NewRunner(scanner, log)

	printPolicy(p, client.Region(), cfg)

	scanStartTime := time.Now()
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond)
	s.Suffix = " Scanning CloudWatch Log Groups ..."
	s.Start()

	result, runErr := runner.Run(ctx, p)
	scanDuration := time.Since(scanStartTime)

	status := "✓"
	if runErr != nil {
		status = "✗"
	}
	s.FinalMSG = fmt.Sprintf("%s [%d deleted, %d skipped] CloudWatch Log Groups processed - Completed in %.2f seconds\n",
		status, len(result.Deleted), len(result.Skipped), scanDuration.Seconds())
	s.Stop()

	formatter.PrintRunResult(os.Stdout, result, scanStartTime, scanDuration)

	if runErr != nil {
		return fmt.Errorf("run aborted, results above are partial: %w", runErr)
	}
	return nil
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("mode") {
		cfg.Mode = strings.ToLower(mode)
		if !flags.Changed("pacing-interval") && os.Getenv("LOGREAPER_PACING_INTERVAL") == "" {
			cfg.PacingInterval = config.DefaultPacing(cfg.Mode)
		}
	}
	if flags.Changed("pacing-interval") {
		cfg.PacingInterval = pacingInterval
	}
	if flags.Changed("dry-run") {
		cfg.DryRun = dryRun
	}
	if flags.Changed("region") {
		cfg.AWS.Region = region
	}
	if flags.Changed("profile") {
		cfg.AWS.Profile = profile
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadEvent builds the trigger payload from the event file and flag overrides.
func loadEvent(cmd *cobra.Command) (policy.Event, error) {
	var event policy.Event
	if eventFile != "" {
		loaded, err := policy.LoadEvent(eventFile)
		if err != nil {
			return policy.Event{}, err
		}
		event = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("inclusion-prefixes") {
		event.InclusionPrefixes = policy.NewTriggerValue(inclusionPrefixes)
	}
	if flags.Changed("exclusion-patterns") {
		event.ExclusionPatterns = policy.NewTriggerValue(exclusionPatterns)
	}
	if flags.Changed("min-age-hours") {
		event.MinAgeHours = policy.NewTriggerValue(minAgeHours)
	}
	if flags.Changed("last-activity-hours") {
		event.LastActivityHours = policy.NewTriggerValue(lastActivityHours)
	}
	if flags.Changed("exclude-retention") {
		event.ExcludeRetention = policy.NewTriggerValue(strconv.FormatBool(excludeRetention))
	}
	if flags.Changed("exclude-subscribed") {
		event.ExcludeSubscribed = policy.NewTriggerValue(strconv.FormatBool(excludeSubscribed))
	}
	return event, nil
}

// printPolicy prints the rule set before the scan starts
func printPolicy(p models.Policy, awsRegion string, cfg *config.Config) {
	fmt.Printf("Starting log group scan in %s ...\n", awsRegion)

	prefixes := make([]string, 0, len(p.InclusionPrefixes))
	for _, prefix := range p.InclusionPrefixes {
		if prefix == "" {
			prefix = "(all)"
		}
		prefixes = append(prefixes, prefix)
	}
	fmt.Printf("  Prefixes:           %s\n", strings.Join(prefixes, ", "))

	if len(p.ExclusionPatterns) > 0 {
		patterns := make([]string, 0, len(p.ExclusionPatterns))
		for _, re := range p.ExclusionPatterns {
			patterns = append(patterns, re.String())
		}
		fmt.Printf("  Exclusion patterns: %s\n", strings.Join(patterns, ", "))
	}
	if p.MinAge != nil {
		fmt.Printf("  Minimum age:        %s\n", utils.FormatHours(*p.MinAge))
	}
	if p.LastActivity != nil {
		fmt.Printf("  Idle for at least:  %s\n", utils.FormatHours(*p.LastActivity))
	}
	fmt.Printf("  Exclude retention:  %t\n", p.ExcludeRetention)
	fmt.Printf("  Exclude subscribed: %t\n", p.ExcludeSubscribed)
	if cfg.DryRun {
		fmt.Println("  Dry run:            no log group will be deleted")
	}
}
