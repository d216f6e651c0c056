package github

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
)

// LoadActionsEvent builds an Event from the environment of a GitHub Actions
// runner. getenv is os.Getenv outside of tests.
func LoadActionsEvent(getenv func(string) string) (*model.Event, error) {
	eventName := getenv("GITHUB_EVENT_NAME")
	if eventName == "" {
		return nil, goerr.New("GITHUB_EVENT_NAME is not set", goerr.T(types.ErrTagConfig))
	}

	runID := getenv("GITHUB_RUN_ID")
	if attempt := getenv("GITHUB_RUN_ATTEMPT"); runID != "" && attempt != "" {
		runID += "-" + attempt
	}
	if runID == "" {
		runID = uuid.NewString()
	}

	if path := getenv("GITHUB_EVENT_PATH"); path != "" {
		body, err := os.ReadFile(path)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read GitHub event payload",
				goerr.V("path", path),
				goerr.T(types.ErrTagConfig))
		}

		event, err := ParseEvent(eventName, runID, body)
		if err != nil {
			return nil, err
		}
		fillFromEnv(event, getenv)
		return event, nil
	}

	event := &model.Event{
		ID:         runID,
		Kind:       model.ParseEventKind(eventName),
		ReceivedAt: time.Now(),
	}
	switch event.Kind {
	case model.EventKindPush, model.EventKindDispatch:
		event.Branch = getenv("GITHUB_REF_NAME")
	case model.EventKindPullRequest:
		event.HeadRef = getenv("GITHUB_HEAD_REF")
		event.BaseRef = getenv("GITHUB_BASE_REF")
	}
	fillFromEnv(event, getenv)
	return event, nil
}

func fillFromEnv(event *model.Event, getenv func(string) string) {
	if event.Repository == "" {
		event.Repository = getenv("GITHUB_REPOSITORY")
	}
	if event.CommitSHA == "" {
		event.CommitSHA = getenv("GITHUB_SHA")
	}
	if event.Sender == "" {
		event.Sender = getenv("GITHUB_ACTOR")
	}
}
