package usecase

import (
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
)

// Resolve decides which publish jobs an event produces under matrix.
// It is a pure function: no I/O, same input always yields the same jobs.
// An ineligible event yields no jobs and no error.
func Resolve(event *model.Event, matrix *model.Matrix) ([]*model.PublishJob, error) {
	switch event.Kind {
	case model.EventKindPush:
		if !model.MatchBranch(matrix.Triggers.PushBranches, event.Branch) {
			return nil, nil
		}
		return matrixJobs(event, matrix, matrix.DefaultChannel), nil

	case model.EventKindPullRequest:
		if !model.MatchBranch(matrix.Triggers.PullRequestHeadPrefixes, event.HeadRef) {
			return nil, nil
		}
		return matrixJobs(event, matrix, matrix.Triggers.PullRequestChannel), nil

	case model.EventKindDispatch:
		job, err := dispatchJob(event, matrix)
		if err != nil {
			return nil, err
		}
		return []*model.PublishJob{job}, nil

	default:
		return nil, nil
	}
}

func matrixJobs(event *model.Event, matrix *model.Matrix, channel string) []*model.PublishJob {
	jobs := make([]*model.PublishJob, 0, len(matrix.Artifacts))
	for _, a := range matrix.Artifacts {
		jobs = append(jobs, &model.PublishJob{
			ID:             model.NewJobID(event.ID, a.ID),
			ArtifactID:     a.ID,
			ArtifactPath:   a.Path,
			Channel:        channel,
			TagPrefix:      a.TagPrefix,
			CredentialsRef: a.CredentialsRef,
		})
	}
	return jobs
}

func dispatchJob(event *model.Event, matrix *model.Matrix) (*model.PublishJob, error) {
	for _, name := range matrix.Triggers.DispatchRequired {
		if strings.TrimSpace(event.Input(name)) == "" {
			return nil, goerr.New("required dispatch input is missing",
				goerr.V("input", name),
				goerr.T(types.ErrTagConfig))
		}
	}

	subdir := strings.TrimSpace(event.Input(model.InputSubdirName))
	if subdir == "" {
		return nil, goerr.New("required dispatch input is missing",
			goerr.V("input", model.InputSubdirName),
			goerr.T(types.ErrTagConfig))
	}
	if strings.ContainsAny(subdir, `/\`) || strings.Contains(subdir, "..") {
		return nil, goerr.New("invalid artifact subdirectory name",
			goerr.V("subdir", subdir),
			goerr.T(types.ErrTagConfig))
	}

	channel := strings.TrimSpace(event.Input(model.InputDestinationChannel))
	if channel == "" {
		return nil, goerr.New("required dispatch input is missing",
			goerr.V("input", model.InputDestinationChannel),
			goerr.T(types.ErrTagConfig))
	}

	var revision int
	if rev := strings.TrimSpace(event.Input(model.InputRevision)); rev != "" {
		n, err := strconv.Atoi(rev)
		if err != nil || n <= 0 {
			return nil, goerr.New("revision must be a positive integer",
				goerr.V("revision", rev),
				goerr.T(types.ErrTagConfig))
		}
		revision = n
	}

	job := &model.PublishJob{
		ID:             model.NewJobID(event.ID, subdir),
		ArtifactID:     subdir,
		ArtifactPath:   model.ArtifactPath(matrix.ArtifactRoot, subdir),
		Channel:        channel,
		OriginChannel:  strings.TrimSpace(event.Input(model.InputOriginChannel)),
		Revision:       revision,
		TagPrefix:      subdir,
		CredentialsRef: matrix.CredentialsRef,
	}

	if a, ok := matrix.Lookup(subdir); ok {
		job.ArtifactPath = a.Path
		job.CredentialsRef = a.CredentialsRef
	}

	return job, nil
}
