package model_test

import (
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
)

func TestPublishResult_Line(t *testing.T) {
	job := &model.PublishJob{ID: "job-1", ArtifactID: "istio-pilot"}

	ok := model.NewSuccess(job, 1)
	gt.Value(t, ok.Line()).Equal("istio-pilot: success")

	ng := model.NewFailure(job, 1, goerr.New("registry returned 401", goerr.T(types.ErrTagAuth)))
	gt.Value(t, ng.Line()).Equal("istio-pilot: failure: AuthError: registry returned 401")
	gt.Value(t, ng.ErrorKind()).Equal("AuthError")
}

func TestRunReport_Failed(t *testing.T) {
	a := &model.PublishJob{ID: "1", ArtifactID: "a"}
	b := &model.PublishJob{ID: "2", ArtifactID: "b"}

	report := &model.RunReport{
		Results: []*model.PublishResult{
			model.NewSuccess(a, 1),
			model.NewFailure(b, 3, goerr.New("503", goerr.T(types.ErrTagTransient))),
		},
	}

	gt.A(t, report.Failed()).Length(1)
	gt.Value(t, report.Failed()[0].ArtifactID).Equal("b")
	gt.False(t, report.Succeeded())

	gt.True(t, (&model.RunReport{}).Succeeded())
}

func TestNewJobID_Deterministic(t *testing.T) {
	gt.Value(t, model.NewJobID("run-1", "a")).Equal(model.NewJobID("run-1", "a"))
	gt.Value(t, model.NewJobID("run-1", "a")).NotEqual(model.NewJobID("run-1", "b"))
	gt.Value(t, model.NewJobID("run-1", "a")).NotEqual(model.NewJobID("run-2", "a"))
}

func TestRunReport_Record(t *testing.T) {
	job := &model.PublishJob{
		ID:            "job-1",
		ArtifactID:    "X",
		ArtifactPath:  "./charms/X",
		Channel:       "1.0/stable",
		OriginChannel: "latest/edge",
		Revision:      42,
	}
	report := &model.RunReport{
		RunID: "run-1",
		Event: &model.Event{Kind: model.EventKindDispatch, Branch: "main", Repository: "o/r", CommitSHA: "abc"},
		Jobs:  []*model.PublishJob{job},
		Results: []*model.PublishResult{
			model.NewFailure(job, 1, goerr.New("registry returned 401", goerr.T(types.ErrTagAuth))),
		},
	}

	rec := report.Record()
	gt.Value(t, rec.RunID).Equal("run-1")
	gt.Value(t, rec.EventKind).Equal("dispatch")
	gt.Value(t, rec.Repository).Equal("o/r")
	gt.False(t, rec.Succeeded)
	gt.A(t, rec.Jobs).Length(1)

	jr := rec.Jobs[0]
	gt.Value(t, jr.Status).Equal("failure")
	gt.Value(t, jr.ErrorKind).Equal("AuthError")
	gt.Value(t, jr.Error).Equal("registry returned 401")
	gt.Value(t, jr.Channel).Equal("1.0/stable")
	gt.Value(t, jr.OriginChannel).Equal("latest/edge")
	gt.Value(t, jr.Revision).Equal(42)
}
