package github

import (
	"context"
	"errors"
	"strings"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
)

// maxDescription is the GitHub limit for commit status descriptions
const maxDescription = 140

// StatusReporter posts one commit status per job of a run
type StatusReporter struct {
	client    interfaces.GitHubClient
	targetURL string
}

var _ interfaces.Reporter = (*StatusReporter)(nil)

// NewStatusReporter creates a reporter. targetURL is linked from each status (may be empty).
func NewStatusReporter(client interfaces.GitHubClient, targetURL string) *StatusReporter {
	return &StatusReporter{
		client:    client,
		targetURL: targetURL,
	}
}

// Report posts commit statuses. Runs without repository or commit are skipped.
func (r *StatusReporter) Report(ctx context.Context, report *model.RunReport) error {
	logger := ctxlog.From(ctx)

	if report.Event == nil || report.Event.CommitSHA == "" {
		logger.Debug("Skip commit status, no commit in event")
		return nil
	}
	owner, repo, ok := strings.Cut(report.Event.Repository, "/")
	if !ok || owner == "" || repo == "" {
		logger.Debug("Skip commit status, no repository in event", "repository", report.Event.Repository)
		return nil
	}

	var errs []error
	for _, res := range report.Results {
		status := &github.RepoStatus{
			State:       github.Ptr(statusState(res)),
			Context:     github.Ptr(types.ServiceName + "/" + res.ArtifactID),
			Description: github.Ptr(truncate(res.Line(), maxDescription)),
		}
		if r.targetURL != "" {
			status.TargetURL = github.Ptr(r.targetURL)
		}

		if _, _, err := r.client.CreateStatus(ctx, owner, repo, report.Event.CommitSHA, status); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return goerr.Wrap(errors.Join(errs...), "failed to post commit statuses", goerr.V("failed", len(errs)))
	}
	return nil
}

func statusState(res *model.PublishResult) string {
	if res.Succeeded() {
		return "success"
	}
	return "failure"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
