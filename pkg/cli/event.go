package cli

import (
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	githubcontroller "github.com/m-mizutani/drover/pkg/controller/github"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
)

// eventConfig describes the triggering event when not running inside GitHub Actions
type eventConfig struct {
	ID      string
	Kind    string
	Branch  string
	HeadRef string
	BaseRef string
	Inputs  []string
}

func (c *eventConfig) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "event",
			Usage:       "Event kind (push, pull_request, dispatch). Read from GITHUB_EVENT_NAME when empty",
			Destination: &c.Kind,
		},
		&cli.StringFlag{
			Name:        "event-id",
			Usage:       "Event ID used as run ID",
			Destination: &c.ID,
		},
		&cli.StringFlag{
			Name:        "branch",
			Usage:       "Pushed branch or dispatch ref",
			Destination: &c.Branch,
		},
		&cli.StringFlag{
			Name:        "head-ref",
			Usage:       "Pull request source branch",
			Destination: &c.HeadRef,
		},
		&cli.StringFlag{
			Name:        "base-ref",
			Usage:       "Pull request target branch",
			Destination: &c.BaseRef,
		},
		&cli.StringSliceFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "Dispatch input as key=value, repeatable",
			Destination: &c.Inputs,
		},
	}
}

// Event builds the event from flags, or from the GitHub Actions environment
// when --event is not given
func (c *eventConfig) Event() (*model.Event, error) {
	if c.Kind == "" {
		return githubcontroller.LoadActionsEvent(os.Getenv)
	}

	kind := model.ParseEventKind(c.Kind)
	if kind == model.EventKindUnknown {
		return nil, goerr.New("unsupported event kind",
			goerr.V("event", c.Kind),
			goerr.T(types.ErrTagConfig))
	}

	inputs := make(map[string]string, len(c.Inputs))
	for _, kv := range c.Inputs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, goerr.New("input must be key=value",
				goerr.V("input", kv),
				goerr.T(types.ErrTagConfig))
		}
		inputs[k] = v
	}

	id := c.ID
	if id == "" {
		id = uuid.NewString()
	}

	return &model.Event{
		ID:         id,
		Kind:       kind,
		Branch:     c.Branch,
		HeadRef:    c.HeadRef,
		BaseRef:    c.BaseRef,
		Inputs:     inputs,
		Repository: os.Getenv("GITHUB_REPOSITORY"),
		CommitSHA:  os.Getenv("GITHUB_SHA"),
		Sender:     os.Getenv("GITHUB_ACTOR"),
		ReceivedAt: time.Now(),
	}, nil
}
