package github_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	githubcontroller "github.com/m-mizutani/drover/pkg/controller/github"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name      string
		eventType string
		body      string
		wantKind  model.EventKind
		check     func(t *testing.T, event *model.Event)
	}{
		{
			name:      "Push to branch",
			eventType: "push",
			body:      `{"ref":"refs/heads/main","after":"abc123","repository":{"full_name":"canonical/istio-operators"},"sender":{"login":"octocat"}}`,
			wantKind:  model.EventKindPush,
			check: func(t *testing.T, event *model.Event) {
				gt.Value(t, event.Branch).Equal("main")
				gt.Value(t, event.CommitSHA).Equal("abc123")
				gt.Value(t, event.Repository).Equal("canonical/istio-operators")
				gt.Value(t, event.Sender).Equal("octocat")
			},
		},
		{
			name:      "Push to nested branch keeps slashes",
			eventType: "push",
			body:      `{"ref":"refs/heads/track/1.17","after":"abc123"}`,
			wantKind:  model.EventKindPush,
			check: func(t *testing.T, event *model.Event) {
				gt.Value(t, event.Branch).Equal("track/1.17")
			},
		},
		{
			name:      "Tag push is unsupported",
			eventType: "push",
			body:      `{"ref":"refs/tags/v1.0.0","after":"abc123"}`,
			wantKind:  model.EventKindUnknown,
		},
		{
			name:      "Pull request opened",
			eventType: "pull_request",
			body:      `{"action":"opened","pull_request":{"head":{"ref":"branch/fix","sha":"def456"},"base":{"ref":"main"}},"repository":{"full_name":"canonical/istio-operators"}}`,
			wantKind:  model.EventKindPullRequest,
			check: func(t *testing.T, event *model.Event) {
				gt.Value(t, event.HeadRef).Equal("branch/fix")
				gt.Value(t, event.BaseRef).Equal("main")
				gt.Value(t, event.CommitSHA).Equal("def456")
			},
		},
		{
			name:      "Pull request closed is unsupported",
			eventType: "pull_request",
			body:      `{"action":"closed","pull_request":{"head":{"ref":"branch/fix"}}}`,
			wantKind:  model.EventKindUnknown,
		},
		{
			name:      "Workflow dispatch with inputs",
			eventType: "workflow_dispatch",
			body:      `{"ref":"refs/heads/main","inputs":{"destination-channel":"1.17/stable","origin-channel":"1.17/edge","rev":"42","charm-subdir-name":"istio-pilot","dry":true}}`,
			wantKind:  model.EventKindDispatch,
			check: func(t *testing.T, event *model.Event) {
				gt.Value(t, event.Branch).Equal("main")
				gt.Value(t, event.Input(model.InputDestinationChannel)).Equal("1.17/stable")
				gt.Value(t, event.Input(model.InputRevision)).Equal("42")
				gt.Value(t, event.Input(model.InputSubdirName)).Equal("istio-pilot")
				gt.Value(t, event.Inputs["dry"]).Equal("true")
			},
		},
		{
			name:      "Workflow dispatch without inputs",
			eventType: "workflow_dispatch",
			body:      `{"ref":"refs/heads/main"}`,
			wantKind:  model.EventKindDispatch,
			check: func(t *testing.T, event *model.Event) {
				gt.Value(t, len(event.Inputs)).Equal(0)
			},
		},
		{
			name:      "Unrelated event type is not parsed",
			eventType: "release",
			body:      `not json`,
			wantKind:  model.EventKindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := githubcontroller.ParseEvent(tt.eventType, "delivery-1", []byte(tt.body))
			gt.NoError(t, err)
			gt.Value(t, event.ID).Equal("delivery-1")
			gt.Value(t, event.Kind).Equal(tt.wantKind)
			if tt.check != nil {
				tt.check(t, event)
			}
		})
	}
}

func TestParseEvent_InvalidPayload(t *testing.T) {
	_, err := githubcontroller.ParseEvent("push", "delivery-1", []byte(`{invalid`))
	gt.Error(t, err)
	gt.Value(t, types.ErrorKind(err)).Equal("ConfigError")
}

func TestLoadActionsEvent(t *testing.T) {
	t.Run("From event payload", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "event.json")
		gt.NoError(t, os.WriteFile(path, []byte(`{"ref":"refs/heads/main","inputs":{"revision":"7","artifact-subdir-name":"istio-gateway","destination-channel":"latest/stable","origin-channel":"latest/edge"}}`), 0o600))

		env := map[string]string{
			"GITHUB_EVENT_NAME":  "workflow_dispatch",
			"GITHUB_EVENT_PATH":  path,
			"GITHUB_RUN_ID":      "1234",
			"GITHUB_RUN_ATTEMPT": "2",
			"GITHUB_REPOSITORY":  "canonical/istio-operators",
			"GITHUB_SHA":         "abc123",
			"GITHUB_ACTOR":       "octocat",
		}
		event, err := githubcontroller.LoadActionsEvent(func(k string) string { return env[k] })
		gt.NoError(t, err)
		gt.Value(t, event.ID).Equal("1234-2")
		gt.Value(t, event.Kind).Equal(model.EventKindDispatch)
		gt.Value(t, event.Input(model.InputRevision)).Equal("7")
		gt.Value(t, event.Input(model.InputSubdirName)).Equal("istio-gateway")
		gt.Value(t, event.Repository).Equal("canonical/istio-operators")
		gt.Value(t, event.CommitSHA).Equal("abc123")
		gt.Value(t, event.Sender).Equal("octocat")
	})

	t.Run("From environment only", func(t *testing.T) {
		env := map[string]string{
			"GITHUB_EVENT_NAME": "pull_request",
			"GITHUB_HEAD_REF":   "branch/feature",
			"GITHUB_BASE_REF":   "main",
		}
		event, err := githubcontroller.LoadActionsEvent(func(k string) string { return env[k] })
		gt.NoError(t, err)
		gt.Value(t, event.Kind).Equal(model.EventKindPullRequest)
		gt.Value(t, event.HeadRef).Equal("branch/feature")
		gt.Value(t, event.BaseRef).Equal("main")
	})

	t.Run("Missing run ID gets a unique event ID", func(t *testing.T) {
		env := map[string]string{
			"GITHUB_EVENT_NAME": "push",
			"GITHUB_REF_NAME":   "main",
		}
		first, err := githubcontroller.LoadActionsEvent(func(k string) string { return env[k] })
		gt.NoError(t, err)
		second, err := githubcontroller.LoadActionsEvent(func(k string) string { return env[k] })
		gt.NoError(t, err)

		gt.Value(t, first.ID).NotEqual("")
		gt.Value(t, second.ID).NotEqual("")
		gt.Value(t, first.ID).NotEqual(second.ID)
	})

	t.Run("Missing event name", func(t *testing.T) {
		_, err := githubcontroller.LoadActionsEvent(func(string) string { return "" })
		gt.Error(t, err)
		gt.Value(t, types.ErrorKind(err)).Equal("ConfigError")
	})

	t.Run("Missing event file", func(t *testing.T) {
		env := map[string]string{
			"GITHUB_EVENT_NAME": "push",
			"GITHUB_EVENT_PATH": filepath.Join(t.TempDir(), "missing.json"),
		}
		_, err := githubcontroller.LoadActionsEvent(func(k string) string { return env[k] })
		gt.Error(t, err)
	})
}
