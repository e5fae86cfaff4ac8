package formatter

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/younsl/logreaper/internal/models"
)

// PrintRunResult prints the deleted and skipped log groups of a run followed by
// a per-reason summary.
func PrintRunResult(w io.Writer, result models.RunResult, scanStartTime time.Time, scanDuration time.Duration) {
	PrintDeletedTable(w, result)
	PrintSkippedTable(w, result.Skipped)
	PrintSkipSummary(w, result.Skipped)

	fmt.Fprintf(w, "\nScan completed at %s (took %.2fs)\n",
		scanStartTime.Format("2006-01-02 15:04:05"), scanDuration.Seconds())
}

// PrintDeletedTable prints the log groups a run deleted, in scan order.
func PrintDeletedTable(w io.Writer, result models.RunResult) {
	if len(result.Deleted) == 0 {
		if result.DryRun {
			fmt.Fprintln(w, "No log groups would be deleted.")
		} else {
			fmt.Fprintln(w, "No log groups deleted.")
		}
		return
	}

	if result.DryRun {
		fmt.Fprintln(w, "\nLog Groups To Delete (dry run):")
	} else {
		fmt.Fprintln(w, "\nDeleted Log Groups:")
	}

	// Set up tabwriter with kubectl style spacing
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "LOG GROUP NAME\tSIZE\tCREATED")

	for _, d := range result.Deleted {
		created := "N/A"
		if !d.CreationTime.IsZero() {
			created = humanize.Time(d.CreationTime)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Name, formatBytes(d.StoredBytes), created)
	}

	fmt.Fprintf(tw, "Total:\t%s\t(%d log groups)\n",
		formatBytes(result.ReclaimedBytes()),
		len(result.Deleted),
	)
	tw.Flush()
}

// PrintSkippedTable prints the log groups a run kept and why.
func PrintSkippedTable(w io.Writer, skipped []models.SkippedGroup) {
	if len(skipped) == 0 {
		return
	}

	fmt.Fprintln(w, "\nSkipped Log Groups:")

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "LOG GROUP NAME\tREASON")
	for _, s := range skipped {
		fmt.Fprintf(tw, "%s\t%s\n", s.Name, s.Reason)
	}
	tw.Flush()
}

// PrintSkipSummary prints how many log groups each rule protected.
func PrintSkipSummary(w io.Writer, skipped []models.SkippedGroup) {
	if len(skipped) == 0 {
		return
	}

	counts := models.RunResult{Skipped: skipped}.SkipCounts()

	fmt.Fprintln(w, "\n## Skipped Log Groups by Reason")

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "REASON\tCOUNT")
	for _, reason := range models.SkipReasons {
		if counts[reason] == 0 {
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\n", reason, counts[reason])
	}
	tw.Flush()
}

func formatBytes(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	return humanize.Bytes(uint64(n))
}
