package config

import (
	"github.com/urfave/cli/v3"

	controller "github.com/m-mizutani/drover/pkg/controller/http"
)

// Server holds server configuration
type Server struct {
	Addr           string
	MaxPayloadSize int64
}

// Flags returns CLI flags for server configuration
func (c *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Server address",
			Value:       "localhost:8080",
			Destination: &c.Addr,
			Sources:     cli.EnvVars("DROVER_ADDR"),
		},
		&cli.Int64Flag{
			Name:        "max-payload-size",
			Usage:       "Largest webhook body accepted, in bytes",
			Value:       controller.DefaultMaxPayloadSize,
			Destination: &c.MaxPayloadSize,
			Sources:     cli.EnvVars("DROVER_MAX_PAYLOAD_SIZE"),
		},
	}
}

// Options returns HTTP server options
func (c *Server) Options() []controller.Option {
	return []controller.Option{
		controller.WithAddr(c.Addr),
		controller.WithMaxPayloadSize(c.MaxPayloadSize),
	}
}
