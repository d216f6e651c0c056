package model

import (
	"path"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/drover/pkg/domain/types"
)

const (
	DefaultChannel      = "latest/edge"
	DefaultArtifactRoot = "./charms"
)

// Artifact is one entry of the publish matrix
type Artifact struct {
	ID             string `toml:"id" yaml:"id"`
	Path           string `toml:"path" yaml:"path"`
	TagPrefix      string `toml:"tag_prefix" yaml:"tag_prefix"`
	CredentialsRef string `toml:"credentials_ref" yaml:"credentials_ref"`
}

// Triggers holds eligibility patterns, configured independently per event kind
type Triggers struct {
	PushBranches            []string `toml:"push_branches" yaml:"push_branches"`
	PullRequestHeadPrefixes []string `toml:"pull_request_head_prefixes" yaml:"pull_request_head_prefixes"`
	PullRequestChannel      string   `toml:"pull_request_channel" yaml:"pull_request_channel"`
	DispatchRequired        []string `toml:"dispatch_required" yaml:"dispatch_required"`
}

// Matrix is the static publish configuration
type Matrix struct {
	DefaultChannel string     `toml:"default_channel" yaml:"default_channel"`
	ArtifactRoot   string     `toml:"artifact_root" yaml:"artifact_root"`
	CredentialsRef string     `toml:"credentials_ref" yaml:"credentials_ref"`
	Triggers       Triggers   `toml:"triggers" yaml:"triggers"`
	Artifacts      []Artifact `toml:"artifacts" yaml:"artifacts"`
}

// ApplyDefaults fills unset fields with their default values
func (m *Matrix) ApplyDefaults() {
	if m.DefaultChannel == "" {
		m.DefaultChannel = DefaultChannel
	}
	if m.ArtifactRoot == "" {
		m.ArtifactRoot = DefaultArtifactRoot
	}
	if m.Triggers.PushBranches == nil {
		m.Triggers.PushBranches = []string{"master", "main", "track/**"}
	}
	if m.Triggers.PullRequestHeadPrefixes == nil {
		m.Triggers.PullRequestHeadPrefixes = []string{"branch/*"}
	}
	if m.Triggers.PullRequestChannel == "" {
		m.Triggers.PullRequestChannel = m.DefaultChannel
	}
	if m.Triggers.DispatchRequired == nil {
		m.Triggers.DispatchRequired = []string{InputDestinationChannel, InputSubdirName}
	}

	for i := range m.Artifacts {
		a := &m.Artifacts[i]
		if a.Path == "" {
			a.Path = ArtifactPath(m.ArtifactRoot, a.ID)
		}
		if a.TagPrefix == "" {
			a.TagPrefix = a.ID
		}
		if a.CredentialsRef == "" {
			a.CredentialsRef = m.CredentialsRef
		}
	}
}

// Validate checks the matrix after defaults are applied
func (m *Matrix) Validate() error {
	if len(m.Artifacts) == 0 {
		return goerr.New("matrix has no artifacts", goerr.T(types.ErrTagConfig))
	}
	if m.DefaultChannel == "" {
		return goerr.New("default channel is empty", goerr.T(types.ErrTagConfig))
	}

	seen := make(map[string]bool, len(m.Artifacts))
	for i, a := range m.Artifacts {
		if a.ID == "" {
			return goerr.New("artifact id is empty", goerr.V("index", i), goerr.T(types.ErrTagConfig))
		}
		if seen[a.ID] {
			return goerr.New("duplicated artifact id", goerr.V("id", a.ID), goerr.T(types.ErrTagConfig))
		}
		seen[a.ID] = true
	}

	return nil
}

// ArtifactPath joins root and subdir keeping a leading "./"
func ArtifactPath(root, subdir string) string {
	return strings.TrimSuffix(root, "/") + "/" + subdir
}

// Lookup returns the artifact with id
func (m *Matrix) Lookup(id string) (Artifact, bool) {
	for _, a := range m.Artifacts {
		if a.ID == id {
			return a, true
		}
	}
	return Artifact{}, false
}

// MatchBranch reports whether branch matches any of patterns.
//
// Pattern forms:
//   - "main": exact match
//   - "track/*": "track/" followed by exactly one path segment
//   - "track/**": "track/" followed by one or more path segments
func MatchBranch(patterns []string, branch string) bool {
	if branch == "" {
		return false
	}
	for _, p := range patterns {
		if matchPattern(p, branch) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, branch string) bool {
	switch {
	case strings.HasSuffix(pattern, "/**"):
		prefix := strings.TrimSuffix(pattern, "**")
		return strings.HasPrefix(branch, prefix) && len(branch) > len(prefix)
	case strings.ContainsAny(pattern, "*?["):
		ok, err := path.Match(pattern, branch)
		return err == nil && ok
	default:
		return pattern == branch
	}
}
