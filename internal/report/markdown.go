package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/matjmiles/healthcare-job-organizer/internal/pipeline"
	"github.com/matjmiles/healthcare-job-organizer/internal/posting"
)

// SummaryFileName is the timestamped name for a summary written at now
func SummaryFileName(now time.Time) string {
	return "run_summary_" + now.UTC().Format("20060102_150405") + ".md"
}

var reasonLabels = map[posting.RejectReason]string{
	posting.ReasonClinicalRole:         "Clinical Roles (RN, MD, etc.)",
	posting.ReasonSoftwareRole:         "Software/Engineering Roles",
	posting.ReasonNoAdminKeyword:       "No Admin Keywords",
	posting.ReasonEducationRequirement: "Education Requirements",
	posting.ReasonNonTargetLocation:    "Out of Scope States",
}

// Markdown renders the run summary. stats may be nil when only the jobs
// file is available.
func Markdown(jobs []posting.Normalized, stats *pipeline.RunStats, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Healthcare Admin Jobs Run Summary\n\n")
	fmt.Fprintf(&b, "*Generated %s*\n\n", now.UTC().Format(time.RFC3339))

	writeFiltering(&b, stats)
	writeJobs(&b, jobs)

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeFiltering(b *strings.Builder, stats *pipeline.RunStats) {
	b.WriteString("## Filtering Analysis\n\n")
	if stats == nil {
		b.WriteString("No filtering statistics available.\n\n")
		return
	}

	b.WriteString("### Processing Summary\n\n")
	fmt.Fprintf(b, "- **Total Jobs Analyzed**: %d\n", stats.TotalJobsAnalyzed)
	fmt.Fprintf(b, "- **Passed Filters**: %d\n", stats.PassedFilters)
	fmt.Fprintf(b, "- **Final Jobs Included**: %d\n", stats.FinalJobsIncluded)
	fmt.Fprintf(b, "- **Duplicates Removed**: %d\n", stats.DuplicatesRemoved)
	fmt.Fprintf(b, "- **Total Filtered Out**: %d\n", stats.FilteredOut.Total())
	if stats.NewPostings > 0 {
		fmt.Fprintf(b, "- **New Since Last Run**: %d\n", stats.NewPostings)
	}
	if stats.EmployersFailed > 0 {
		fmt.Fprintf(b, "- **Employers Failed**: %d\n", stats.EmployersFailed)
	}
	if stats.TotalJobsAnalyzed > 0 {
		fmt.Fprintf(b, "- **Inclusion Rate**: %s\n", percent(stats.FinalJobsIncluded, stats.TotalJobsAnalyzed))
	}
	b.WriteString("\n")

	if stats.FilteredOut.Total() > 0 {
		b.WriteString("### Filtering Breakdown\n\n")
		b.WriteString("| Reason | Count | % of Total |\n")
		b.WriteString("|--------|-------|------------|\n")
		for _, reason := range posting.RejectReasons {
			n := stats.FilteredOut.Count(reason)
			if n == 0 {
				continue
			}
			fmt.Fprintf(b, "| %s | %d | %s |\n", reasonLabels[reason], n, percent(n, stats.TotalJobsAnalyzed))
		}
		b.WriteString("\n")
	}

	if !stats.Timestamp.IsZero() {
		fmt.Fprintf(b, "*Filtering stats from: %s*\n\n", stats.Timestamp.UTC().Format(time.RFC3339))
	}
}

func writeJobs(b *strings.Builder, jobs []posting.Normalized) {
	if len(jobs) == 0 {
		b.WriteString("## Jobs\n\nNo jobs found to analyze.\n")
		return
	}

	fmt.Fprintf(b, "## Analysis of %d Jobs\n\n", len(jobs))

	employers := newCounter()
	states := newCounter()
	regions := newCounter()
	tracks := newCounter()
	platforms := newCounter()
	entry := 0
	withPay := 0
	paySum := 0.0

	for _, j := range jobs {
		employers.add(orDefault(j.Company, "Unknown"))
		switch {
		case j.RemoteFlag:
			states.add("Remote")
		default:
			states.add(orDefault(j.State, "Unknown"))
		}
		regions.add(orDefault(j.Region, "Unknown"))
		tracks.add(orDefault(j.CareerTrack, "Unknown"))
		platforms.add(orDefault(string(j.SourcePlatform), "Unknown"))
		if j.EntryLevelFlag {
			entry++
		}
		if j.PayEstimate.Available() {
			withPay++
			paySum += *j.PayEstimate.HourlyMidpoint
		}
	}

	writeTable(b, "Jobs by Employer", "Employer", employers)
	writeTable(b, "Jobs by State", "State", states)
	writeTable(b, "Jobs by Region", "Region", regions)
	writeTable(b, "Jobs by Career Track", "Career Track", tracks)

	b.WriteString("### Entry Level\n\n")
	fmt.Fprintf(b, "- **Entry Level**: %d (%s)\n", entry, percent(entry, len(jobs)))
	fmt.Fprintf(b, "- **Experienced**: %d (%s)\n\n", len(jobs)-entry, percent(len(jobs)-entry, len(jobs)))

	b.WriteString("### Pay\n\n")
	fmt.Fprintf(b, "- **With Pay Information**: %d (%s)\n", withPay, percent(withPay, len(jobs)))
	if withPay > 0 {
		fmt.Fprintf(b, "- **Average Hourly Midpoint**: $%.2f/hr\n", paySum/float64(withPay))
	}
	b.WriteString("\n")

	writeTable(b, "Jobs by Platform", "Platform", platforms)
}

type counter struct {
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(key string) {
	c.counts[key]++
}

type entry struct {
	key   string
	count int
}

// sorted orders by count descending, then key
func (c *counter) sorted() []entry {
	out := make([]entry, 0, len(c.counts))
	for k, n := range c.counts {
		out = append(out, entry{k, n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].key < out[j].key
	})
	return out
}

func writeTable(b *strings.Builder, title, column string, c *counter) {
	fmt.Fprintf(b, "### %s\n\n", title)
	fmt.Fprintf(b, "| %s | Count |\n", column)
	fmt.Fprintf(b, "|%s|-------|\n", strings.Repeat("-", len(column)+2))
	for _, e := range c.sorted() {
		fmt.Fprintf(b, "| %s | %d |\n", strings.ReplaceAll(e.key, "|", `\|`), e.count)
	}
	b.WriteString("\n")
}

func percent(n, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(n)/float64(total)*100)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
