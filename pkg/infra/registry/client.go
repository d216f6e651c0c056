package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
)

const (
	// PlatformTokenHeader carries the platform (GitHub) token used by the registry for tagging
	PlatformTokenHeader = "X-Platform-Token"

	maxErrorBody = 4096
)

// Option is a functional option for Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithoutSchemaValidation disables local request validation
func WithoutSchemaValidation() Option {
	return func(client *Client) {
		client.validate = false
	}
}

// Client is an HTTP client of the artifact registry API
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	validator  *schemaValidator
	validate   bool
}

var _ interfaces.Registry = (*Client)(nil)

// NewClient creates a registry client for baseURL
func NewClient(ctx context.Context, baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid registry URL", goerr.V("url", baseURL), goerr.T(types.ErrTagConfig))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, goerr.New("registry URL must be http or https", goerr.V("url", baseURL), goerr.T(types.ErrTagConfig))
	}

	validator, err := newSchemaValidator(ctx)
	if err != nil {
		return nil, err
	}

	client := &Client{
		baseURL:    u,
		httpClient: &http.Client{},
		validator:  validator,
		validate:   true,
	}
	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Publish calls POST /publish
func (c *Client) Publish(ctx context.Context, cred *model.Credential, req *model.PublishRequest) error {
	return c.post(ctx, cred, "publish", "PublishRequest", req)
}

// Promote calls POST /promote
func (c *Client) Promote(ctx context.Context, cred *model.Credential, req *model.PromoteRequest) error {
	return c.post(ctx, cred, "promote", "PromoteRequest", req)
}

func (c *Client) post(ctx context.Context, cred *model.Credential, path, schema string, body any) error {
	if cred == nil || cred.Token == "" {
		return goerr.New("registry credential is empty", goerr.T(types.ErrTagAuth))
	}

	if c.validate {
		if err := c.validator.validate(schema, body); err != nil {
			return err
		}
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal registry request", goerr.T(types.ErrTagConfig))
	}

	endpoint := c.baseURL.JoinPath(path).String()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return goerr.Wrap(err, "failed to create registry request", goerr.V("url", endpoint), goerr.T(types.ErrTagConfig))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+cred.Token)
	httpReq.Header.Set("User-Agent", types.ServiceName+"/"+types.Version)
	if cred.PlatformToken != "" {
		httpReq.Header.Set(PlatformTokenHeader, cred.PlatformToken)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return goerr.Wrap(err, "failed to call registry", goerr.V("url", endpoint), goerr.T(types.ErrTagTransient))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return goerr.New("registry returned "+resp.Status,
		goerr.V("url", endpoint),
		goerr.V("status", resp.StatusCode),
		goerr.V("body", string(respBody)),
		classifyStatus(resp.StatusCode))
}

// classifyStatus maps a non-2xx status code to an error kind tag option
func classifyStatus(code int) goerr.Option {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return goerr.T(types.ErrTagAuth)
	case code == http.StatusRequestTimeout || code == http.StatusTooManyRequests:
		return goerr.T(types.ErrTagTransient)
	case code >= 500:
		return goerr.T(types.ErrTagTransient)
	default:
		return goerr.T(types.ErrTagRejected)
	}
}
