package interfaces

import (
	"context"

	"github.com/m-mizutani/drover/pkg/domain/model"
)

// Registry is the external artifact registry. Errors must carry one of the
// kind tags in pkg/domain/types so that callers can decide on retries.
type Registry interface {
	// Publish uploads the artifact at req.ArtifactPath to req.Channel
	Publish(ctx context.Context, cred *model.Credential, req *model.PublishRequest) error

	// Promote moves an already published revision from origin to destination channel
	Promote(ctx context.Context, cred *model.Credential, req *model.PromoteRequest) error
}

// CredentialProvider hands out scoped credentials. The returned release
// function must be called once the credential is no longer used.
type CredentialProvider interface {
	Acquire(ctx context.Context, ref string) (*model.Credential, func(), error)
}

// Reporter receives the report of a finished run (commit status, chat, error tracker, storage)
type Reporter interface {
	Report(ctx context.Context, report *model.RunReport) error
}
