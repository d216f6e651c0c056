package model

import "time"

// RunRecord is the persisted form of a RunReport
type RunRecord struct {
	RunID      string      `json:"run_id" firestore:"run_id"`
	EventKind  string      `json:"event_kind" firestore:"event_kind"`
	Branch     string      `json:"branch,omitempty" firestore:"branch,omitempty"`
	HeadRef    string      `json:"head_ref,omitempty" firestore:"head_ref,omitempty"`
	Repository string      `json:"repository,omitempty" firestore:"repository,omitempty"`
	CommitSHA  string      `json:"commit_sha,omitempty" firestore:"commit_sha,omitempty"`
	Sender     string      `json:"sender,omitempty" firestore:"sender,omitempty"`
	Succeeded  bool        `json:"succeeded" firestore:"succeeded"`
	Jobs       []JobRecord `json:"jobs" firestore:"jobs"`
	StartedAt  time.Time   `json:"started_at" firestore:"started_at"`
	FinishedAt time.Time   `json:"finished_at" firestore:"finished_at"`
}

// JobRecord is the persisted form of one job and its result
type JobRecord struct {
	JobID         string `json:"job_id" firestore:"job_id"`
	ArtifactID    string `json:"artifact_id" firestore:"artifact_id"`
	ArtifactPath  string `json:"artifact_path,omitempty" firestore:"artifact_path,omitempty"`
	Channel       string `json:"channel,omitempty" firestore:"channel,omitempty"`
	OriginChannel string `json:"origin_channel,omitempty" firestore:"origin_channel,omitempty"`
	Revision      int    `json:"revision,omitempty" firestore:"revision,omitempty"`
	Status        string `json:"status" firestore:"status"`
	ErrorKind     string `json:"error_kind,omitempty" firestore:"error_kind,omitempty"`
	Error         string `json:"error,omitempty" firestore:"error,omitempty"`
	Attempts      int    `json:"attempts" firestore:"attempts"`
}

// Record converts the report into its persisted form
func (r *RunReport) Record() *RunRecord {
	rec := &RunRecord{
		RunID:      r.RunID,
		Succeeded:  r.Succeeded(),
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
	if r.Event != nil {
		rec.EventKind = string(r.Event.Kind)
		rec.Branch = r.Event.Branch
		rec.HeadRef = r.Event.HeadRef
		rec.Repository = r.Event.Repository
		rec.CommitSHA = r.Event.CommitSHA
		rec.Sender = r.Event.Sender
	}

	jobs := make(map[string]*PublishJob, len(r.Jobs))
	for _, j := range r.Jobs {
		jobs[j.ID] = j
	}

	for _, res := range r.Results {
		jr := JobRecord{
			JobID:      res.JobID,
			ArtifactID: res.ArtifactID,
			Status:     string(res.Status),
			Attempts:   res.Attempts,
		}
		if res.Err != nil {
			jr.ErrorKind = res.ErrorKind()
			jr.Error = res.Err.Error()
		}
		if j, ok := jobs[res.JobID]; ok {
			jr.ArtifactPath = j.ArtifactPath
			jr.Channel = j.Channel
			jr.OriginChannel = j.OriginChannel
			jr.Revision = j.Revision
		}
		rec.Jobs = append(rec.Jobs, jr)
	}

	return rec
}
