package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/types"
	"github.com/m-mizutani/drover/pkg/infra/github"
)

// GitHub holds GitHub configuration
type GitHub struct {
	WebhookSecret string `masq:"secret"`

	Token          string `masq:"secret"`
	AppID          int64
	InstallationID int64
	PrivateKey     string `masq:"secret"`
	PrivateKeyFile string
	Status         bool
	TargetURL      string
}

// WebhookFlags returns CLI flags for receiving GitHub webhooks
func (c *GitHub) WebhookFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-webhook-secret",
			Usage:       "GitHub webhook secret",
			Required:    true,
			Destination: &c.WebhookSecret,
			Sources:     cli.EnvVars("DROVER_GITHUB_WEBHOOK_SECRET"),
		},
	}
}

// Flags returns CLI flags for GitHub API access
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "github-status",
			Usage:       "Post a commit status per published artifact",
			Destination: &c.Status,
			Sources:     cli.EnvVars("DROVER_GITHUB_STATUS"),
		},
		&cli.StringFlag{
			Name:        "github-token",
			Usage:       "GitHub token for commit statuses",
			Destination: &c.Token,
			Sources:     cli.EnvVars("DROVER_GITHUB_TOKEN", "GITHUB_TOKEN"),
		},
		&cli.Int64Flag{
			Name:        "github-app-id",
			Usage:       "GitHub App ID, used instead of a token",
			Destination: &c.AppID,
			Sources:     cli.EnvVars("DROVER_GITHUB_APP_ID"),
		},
		&cli.Int64Flag{
			Name:        "github-installation-id",
			Usage:       "GitHub App installation ID",
			Destination: &c.InstallationID,
			Sources:     cli.EnvVars("DROVER_GITHUB_INSTALLATION_ID"),
		},
		&cli.StringFlag{
			Name:        "github-private-key",
			Usage:       "GitHub App private key (PEM)",
			Destination: &c.PrivateKey,
			Sources:     cli.EnvVars("DROVER_GITHUB_PRIVATE_KEY"),
		},
		&cli.StringFlag{
			Name:        "github-private-key-file",
			Usage:       "Path to the GitHub App private key (PEM)",
			Destination: &c.PrivateKeyFile,
			Sources:     cli.EnvVars("DROVER_GITHUB_PRIVATE_KEY_FILE"),
		},
		&cli.StringFlag{
			Name:        "github-status-url",
			Usage:       "Target URL attached to commit statuses",
			Destination: &c.TargetURL,
			Sources:     cli.EnvVars("DROVER_GITHUB_STATUS_URL"),
		},
	}
}

// Client builds a GitHub API client, preferring GitHub App authentication
func (c *GitHub) Client() (interfaces.GitHubClient, error) {
	if c.AppID != 0 {
		key := []byte(c.PrivateKey)
		if len(key) == 0 && c.PrivateKeyFile != "" {
			raw, err := os.ReadFile(c.PrivateKeyFile)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to read GitHub App private key",
					goerr.V("path", c.PrivateKeyFile),
					goerr.T(types.ErrTagConfig))
			}
			key = raw
		}
		if len(key) == 0 || c.InstallationID == 0 {
			return nil, goerr.New("GitHub App requires installation ID and private key",
				goerr.V("app_id", c.AppID),
				goerr.T(types.ErrTagConfig))
		}
		return github.NewClient(c.AppID, c.InstallationID, key)
	}

	if c.Token == "" {
		return nil, goerr.New("--github-token or GitHub App credentials are required for commit statuses",
			goerr.T(types.ErrTagConfig))
	}
	return github.NewClientWithToken(c.Token), nil
}

// Reporter returns the commit status reporter, or nil when disabled
func (c *GitHub) Reporter() (interfaces.Reporter, error) {
	if !c.Status {
		return nil, nil
	}

	client, err := c.Client()
	if err != nil {
		return nil, err
	}
	return github.NewStatusReporter(client, c.TargetURL), nil
}
