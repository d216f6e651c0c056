package model

import (
	"fmt"
	"time"

	"github.com/m-mizutani/drover/pkg/domain/types"
)

// PublishStatus is the terminal status of a job
type PublishStatus string

const (
	StatusSuccess PublishStatus = "success"
	StatusFailure PublishStatus = "failure"
)

// PublishResult is the terminal outcome of one PublishJob
type PublishResult struct {
	JobID      string
	ArtifactID string
	Status     PublishStatus
	Err        error
	Attempts   int
	FinishedAt time.Time
}

// NewSuccess creates a success result for job
func NewSuccess(job *PublishJob, attempts int) *PublishResult {
	return &PublishResult{
		JobID:      job.ID,
		ArtifactID: job.ArtifactID,
		Status:     StatusSuccess,
		Attempts:   attempts,
		FinishedAt: time.Now(),
	}
}

// NewFailure creates a failure result for job
func NewFailure(job *PublishJob, attempts int, err error) *PublishResult {
	return &PublishResult{
		JobID:      job.ID,
		ArtifactID: job.ArtifactID,
		Status:     StatusFailure,
		Err:        err,
		Attempts:   attempts,
		FinishedAt: time.Now(),
	}
}

// Succeeded reports whether the job succeeded
func (r *PublishResult) Succeeded() bool {
	return r.Status == StatusSuccess
}

// ErrorKind returns the error kind name, empty on success
func (r *PublishResult) ErrorKind() string {
	return types.ErrorKind(r.Err)
}

// Line renders the human readable per-job line
func (r *PublishResult) Line() string {
	if r.Succeeded() {
		return fmt.Sprintf("%s: %s", r.ArtifactID, StatusSuccess)
	}
	return fmt.Sprintf("%s: %s: %s: %v", r.ArtifactID, StatusFailure, r.ErrorKind(), r.Err)
}

// RunReport collects all results produced for one event
type RunReport struct {
	RunID      string
	Event      *Event
	Jobs       []*PublishJob
	Results    []*PublishResult
	StartedAt  time.Time
	FinishedAt time.Time
}

// Failed returns results with failure status
func (r *RunReport) Failed() []*PublishResult {
	var failed []*PublishResult
	for _, res := range r.Results {
		if !res.Succeeded() {
			failed = append(failed, res)
		}
	}
	return failed
}

// Succeeded reports whether every job of the run succeeded
func (r *RunReport) Succeeded() bool {
	return len(r.Failed()) == 0
}
