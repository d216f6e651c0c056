package github

import (
	"context"
	"net/http"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
)

type client struct {
	githubClient *github.Client
}

// NewClient creates a new GitHub client with App authentication
func NewClient(appID, installationID int64, privateKey []byte) (interfaces.GitHubClient, error) {
	// Create GitHub App transport
	itr, err := ghinstallation.New(http.DefaultTransport, appID, installationID, privateKey)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GitHub App transport",
			goerr.V("app_id", appID),
			goerr.V("installation_id", installationID))
	}

	return &client{
		githubClient: github.NewClient(&http.Client{Transport: itr}),
	}, nil
}

// NewClientWithToken creates a new GitHub client authenticated by a token (e.g. GITHUB_TOKEN)
func NewClientWithToken(token string) interfaces.GitHubClient {
	return &client{
		githubClient: github.NewClient(nil).WithAuthToken(token),
	}
}

// newClientWithBaseURL is used by tests to point the client at a fake API server
func newClientWithBaseURL(baseURL string) (*client, error) {
	c, err := github.NewClient(nil).WithEnterpriseURLs(baseURL, baseURL)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to set GitHub base URL", goerr.V("url", baseURL))
	}
	return &client{githubClient: c}, nil
}

// CreateStatus creates a commit status for a specific ref
func (c *client) CreateStatus(ctx context.Context, owner, repo, ref string, status *github.RepoStatus) (*github.RepoStatus, *github.Response, error) {
	created, resp, err := c.githubClient.Repositories.CreateStatus(ctx, owner, repo, ref, status)
	if err != nil {
		return nil, resp, goerr.Wrap(err, "failed to create commit status",
			goerr.V("owner", owner),
			goerr.V("repo", repo),
			goerr.V("ref", ref))
	}
	return created, resp, nil
}
