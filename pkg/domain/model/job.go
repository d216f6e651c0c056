package model

import (
	"github.com/google/uuid"
)

// jobNamespace is the UUID namespace for deterministic job IDs
var jobNamespace = uuid.MustParse("0b4f2f7e-3f8e-4d5a-9f55-7c1d2d6a9e31")

// PublishJob is one publish or promote call for one artifact, derived from an Event
type PublishJob struct {
	ID             string
	ArtifactID     string
	ArtifactPath   string
	Channel        string
	OriginChannel  string // Set for promotions
	Revision       int    // 0 means unset
	TagPrefix      string
	CredentialsRef string
}

// NewJobID returns a deterministic job ID for an artifact within an event
func NewJobID(eventID, artifactID string) string {
	return uuid.NewSHA1(jobNamespace, []byte(eventID+"/"+artifactID)).String()
}

// IsPromotion reports whether the job moves an existing revision between channels
func (j *PublishJob) IsPromotion() bool {
	return j.OriginChannel != ""
}

// PublishRequest is the body of the registry publish call
type PublishRequest struct {
	ArtifactPath string `json:"artifact_path"`
	Channel      string `json:"channel"`
	TagPrefix    string `json:"tag_prefix"`
	Revision     int    `json:"revision,omitempty"`
}

// PromoteRequest is the body of the registry promote call
type PromoteRequest struct {
	OriginChannel      string `json:"origin_channel"`
	DestinationChannel string `json:"destination_channel"`
	Revision           int    `json:"revision,omitempty"`
	TagPrefix          string `json:"tag_prefix"`
}

// PublishRequest builds the registry request for an upload job
func (j *PublishJob) PublishRequest() *PublishRequest {
	return &PublishRequest{
		ArtifactPath: j.ArtifactPath,
		Channel:      j.Channel,
		TagPrefix:    j.TagPrefix,
		Revision:     j.Revision,
	}
}

// PromoteRequest builds the registry request for a promotion job
func (j *PublishJob) PromoteRequest() *PromoteRequest {
	return &PromoteRequest{
		OriginChannel:      j.OriginChannel,
		DestinationChannel: j.Channel,
		Revision:           j.Revision,
		TagPrefix:          j.TagPrefix,
	}
}
