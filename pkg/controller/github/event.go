package github

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
)

// Pull request actions that carry a new head commit
var pullRequestActions = map[string]bool{
	"opened":      true,
	"synchronize": true,
	"reopened":    true,
}

// ParseEvent parses a raw GitHub payload into an Event. Event types that
// never produce jobs are returned with EventKindUnknown instead of an error.
func ParseEvent(eventType, deliveryID string, body []byte) (*model.Event, error) {
	if model.ParseEventKind(eventType) == model.EventKindUnknown {
		return &model.Event{
			ID:         deliveryID,
			Kind:       model.EventKindUnknown,
			ReceivedAt: time.Now(),
		}, nil
	}

	payload, err := github.ParseWebHook(eventType, body)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid GitHub event payload",
			goerr.V("event_type", eventType),
			goerr.T(types.ErrTagConfig))
	}

	return ToEvent(deliveryID, payload)
}

// ToEvent converts a go-github event payload into an Event
func ToEvent(deliveryID string, payload any) (*model.Event, error) {
	event := &model.Event{
		ID:         deliveryID,
		Kind:       model.EventKindUnknown,
		ReceivedAt: time.Now(),
	}

	switch e := payload.(type) {
	case *github.PushEvent:
		event.Repository = e.GetRepo().GetFullName()
		event.Sender = e.GetSender().GetLogin()
		event.CommitSHA = e.GetAfter()

		// Tag pushes are not branch pushes
		branch, ok := strings.CutPrefix(e.GetRef(), "refs/heads/")
		if !ok {
			return event, nil
		}
		event.Kind = model.EventKindPush
		event.Branch = branch

	case *github.PullRequestEvent:
		event.Repository = e.GetRepo().GetFullName()
		event.Sender = e.GetSender().GetLogin()
		setPullRequest(event, e.GetAction(), e.GetPullRequest())

	case *github.PullRequestTargetEvent:
		event.Repository = e.GetRepo().GetFullName()
		event.Sender = e.GetSender().GetLogin()
		setPullRequest(event, e.GetAction(), e.GetPullRequest())

	case *github.WorkflowDispatchEvent:
		inputs, err := decodeInputs(e.Inputs)
		if err != nil {
			return nil, err
		}
		event.Kind = model.EventKindDispatch
		event.Repository = e.GetRepo().GetFullName()
		event.Sender = e.GetSender().GetLogin()
		event.Branch = strings.TrimPrefix(e.GetRef(), "refs/heads/")
		event.Inputs = inputs
	}

	return event, nil
}

func setPullRequest(event *model.Event, action string, pr *github.PullRequest) {
	if !pullRequestActions[action] {
		return
	}
	event.Kind = model.EventKindPullRequest
	event.HeadRef = pr.GetHead().GetRef()
	event.BaseRef = pr.GetBase().GetRef()
	event.CommitSHA = pr.GetHead().GetSHA()
}

// decodeInputs flattens dispatch inputs to strings. Boolean and number
// inputs are rendered the way the Actions runner renders them.
func decodeInputs(raw json.RawMessage) (map[string]string, error) {
	inputs := map[string]string{}
	if len(raw) == 0 || string(raw) == "null" {
		return inputs, nil
	}

	var values map[string]any
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, goerr.Wrap(err, "invalid workflow_dispatch inputs", goerr.T(types.ErrTagConfig))
	}

	for k, v := range values {
		switch tv := v.(type) {
		case nil:
			inputs[k] = ""
		case string:
			inputs[k] = tv
		default:
			inputs[k] = fmt.Sprint(tv)
		}
	}
	return inputs, nil
}
