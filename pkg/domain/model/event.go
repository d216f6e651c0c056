package model

import "time"

// EventKind represents the kind of CI event that may trigger publishing
type EventKind string

const (
	EventKindPush        EventKind = "push"
	EventKindPullRequest EventKind = "pull_request"
	EventKindDispatch    EventKind = "dispatch"
	EventKindUnknown     EventKind = "unknown"
)

// Manual dispatch input names
const (
	InputDestinationChannel = "destination-channel"
	InputOriginChannel      = "origin-channel"
	InputRevision           = "rev"
	InputSubdirName         = "charm-subdir-name"
)

// inputAliases maps alternative dispatch input names to their canonical name
var inputAliases = map[string]string{
	"revision":             InputRevision,
	"artifact-subdir-name": InputSubdirName,
}

// ParseEventKind converts a GitHub event name into EventKind
func ParseEventKind(name string) EventKind {
	switch name {
	case "push":
		return EventKindPush
	case "pull_request", "pull_request_target":
		return EventKindPullRequest
	case "workflow_dispatch", "dispatch":
		return EventKindDispatch
	default:
		return EventKindUnknown
	}
}

// Event represents a CI event received from GitHub (webhook or Actions runner)
type Event struct {
	ID         string            // Delivery ID or workflow run ID
	Kind       EventKind         // Event kind
	Branch     string            // Pushed branch or dispatch ref, without refs/heads/
	HeadRef    string            // Pull request source branch
	BaseRef    string            // Pull request target branch
	Inputs     map[string]string // Manual dispatch inputs
	Repository string            // owner/name
	CommitSHA  string            // Commit the event refers to
	Sender     string            // User who triggered the event
	ReceivedAt time.Time         // Time when the event was received
}

// Input returns the dispatch input by canonical name, accepting known aliases.
// An empty value counts as absent.
func (e *Event) Input(name string) string {
	if v := e.Inputs[name]; v != "" {
		return v
	}
	for alias, canonical := range inputAliases {
		if canonical != name {
			continue
		}
		if v := e.Inputs[alias]; v != "" {
			return v
		}
	}
	return ""
}

// IsSupportedEvent checks if the event kind can ever produce publish jobs
func (e *Event) IsSupportedEvent() bool {
	switch e.Kind {
	case EventKindPush, EventKindPullRequest, EventKindDispatch:
		return true
	default:
		return false
	}
}
