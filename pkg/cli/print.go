package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/m-mizutani/drover/pkg/domain/model"
)

var (
	successColor = color.New(color.FgGreen)
	failureColor = color.New(color.FgRed, color.Bold)
	headerColor  = color.New(color.FgCyan)
)

// printReport writes one line per job result followed by a summary line
func printReport(w io.Writer, report *model.RunReport) {
	for _, res := range report.Results {
		if res.Succeeded() {
			_, _ = successColor.Fprintln(w, res.Line())
		} else {
			_, _ = failureColor.Fprintln(w, res.Line())
		}
	}

	failed := len(report.Failed())
	summary := fmt.Sprintf("%d/%d artifacts published", len(report.Results)-failed, len(report.Results))
	if failed > 0 {
		_, _ = failureColor.Fprintln(w, summary)
	} else {
		_, _ = headerColor.Fprintln(w, summary)
	}
}

// printJobs writes resolved jobs without running them
func printJobs(w io.Writer, jobs []*model.PublishJob) {
	if len(jobs) == 0 {
		_, _ = headerColor.Fprintln(w, "no artifacts to publish")
		return
	}

	for _, job := range jobs {
		line := fmt.Sprintf("%s: %s -> %s (tag prefix %s)", job.ArtifactID, job.ArtifactPath, job.Channel, job.TagPrefix)
		if job.IsPromotion() {
			line = fmt.Sprintf("%s: promote %s -> %s", job.ArtifactID, job.OriginChannel, job.Channel)
			if job.Revision > 0 {
				line += fmt.Sprintf(" (revision %d)", job.Revision)
			}
		}
		_, _ = fmt.Fprintln(w, line)
	}
}
