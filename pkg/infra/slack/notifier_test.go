package slack_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	slackgo "github.com/slack-go/slack"

	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
	"github.com/m-mizutani/drover/pkg/infra/slack"
)

func newReport(fail bool) *model.RunReport {
	a := &model.PublishJob{ID: "1", ArtifactID: "istio-pilot"}
	results := []*model.PublishResult{model.NewSuccess(a, 1)}
	if fail {
		b := &model.PublishJob{ID: "2", ArtifactID: "istio-gateway"}
		results = append(results, model.NewFailure(b, 1, goerr.New("registry returned 401", goerr.T(types.ErrTagAuth))))
	}
	return &model.RunReport{
		RunID:   "run-1",
		Event:   &model.Event{Kind: model.EventKindPush, Branch: "main", Repository: "canonical/istio-operators"},
		Results: results,
	}
}

func TestNotifier_Report(t *testing.T) {
	var got slackgo.WebhookMessage
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := slack.New(server.URL, slack.WithChannel("#releases"))
	gt.NoError(t, n.Report(context.Background(), newReport(true)))

	gt.Value(t, calls).Equal(1)
	gt.Value(t, got.Channel).Equal("#releases")
	gt.Value(t, got.Text).Equal("Published 1/2 artifacts for canonical/istio-operators@main")
	gt.A(t, got.Attachments).Length(2)
	gt.Value(t, got.Attachments[0].Color).Equal("good")
	gt.Value(t, got.Attachments[0].Text).Equal("istio-pilot: success")
	gt.Value(t, got.Attachments[1].Color).Equal("danger")
	gt.String(t, got.Attachments[1].Text).Contains("istio-gateway: failure: AuthError")
}

func TestNotifier_OnlyFailures(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := slack.New(server.URL, slack.WithOnlyFailures())
	gt.NoError(t, n.Report(context.Background(), newReport(false)))
	gt.Value(t, calls).Equal(0)

	gt.NoError(t, n.Report(context.Background(), newReport(true)))
	gt.Value(t, calls).Equal(1)
}

func TestNotifier_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	n := slack.New(server.URL)
	gt.Error(t, n.Report(context.Background(), newReport(true)))
}
