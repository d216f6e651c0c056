package config

import (
	"github.com/joho/godotenv"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/drover/pkg/domain/types"
)

// Env holds dotenv files loaded before any other configuration is read.
// Variables already set in the environment take precedence.
type Env struct {
	Files []string
}

// Flags returns CLI flags for env file configuration
func (c *Env) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "env-file",
			Usage:       "Load environment variables (e.g. credentials_ref tokens) from a dotenv file, repeatable",
			Destination: &c.Files,
			Sources:     cli.EnvVars("DROVER_ENV_FILE"),
		},
	}
}

// Load reads all configured env files
func (c *Env) Load() error {
	if len(c.Files) == 0 {
		return nil
	}
	if err := godotenv.Load(c.Files...); err != nil {
		return goerr.Wrap(err, "failed to load env file",
			goerr.V("files", c.Files),
			goerr.T(types.ErrTagConfig))
	}
	return nil
}
