package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
)

// Matrix holds the location of the artifact matrix file
type Matrix struct {
	Path string
}

// Flags returns CLI flags for matrix configuration
func (c *Matrix) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "matrix",
			Aliases:     []string{"m"},
			Usage:       "Path to the artifact matrix file (TOML, or YAML by .yaml/.yml extension)",
			Value:       "drover.toml",
			Destination: &c.Path,
			Sources:     cli.EnvVars("DROVER_MATRIX"),
		},
	}
}

// Load reads, defaults and validates the matrix file
func (c *Matrix) Load() (*model.Matrix, error) {
	raw, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read matrix file",
			goerr.V("path", c.Path),
			goerr.T(types.ErrTagConfig))
	}

	parse := ParseMatrix
	switch strings.ToLower(filepath.Ext(c.Path)) {
	case ".yaml", ".yml":
		parse = ParseMatrixYAML
	}

	matrix, err := parse(raw)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid matrix file", goerr.V("path", c.Path))
	}
	return matrix, nil
}

// ParseMatrix decodes a TOML matrix. Unknown keys are rejected.
func ParseMatrix(raw []byte) (*model.Matrix, error) {
	var matrix model.Matrix
	dec := toml.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&matrix); err != nil {
		return nil, goerr.Wrap(err, "failed to decode matrix", goerr.T(types.ErrTagConfig))
	}

	return finalizeMatrix(&matrix)
}

// ParseMatrixYAML decodes a YAML matrix. Unknown keys are rejected.
func ParseMatrixYAML(raw []byte) (*model.Matrix, error) {
	var matrix model.Matrix
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&matrix); err != nil {
		return nil, goerr.Wrap(err, "failed to decode matrix", goerr.T(types.ErrTagConfig))
	}

	return finalizeMatrix(&matrix)
}

func finalizeMatrix(matrix *model.Matrix) (*model.Matrix, error) {
	matrix.ApplyDefaults()
	if err := matrix.Validate(); err != nil {
		return nil, err
	}
	return matrix, nil
}
