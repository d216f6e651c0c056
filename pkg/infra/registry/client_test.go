package registry_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
	"github.com/m-mizutani/drover/pkg/infra/registry"
	"github.com/m-mizutani/drover/pkg/usecase"
)

type staticCredentials struct {
	released atomic.Int32
}

func (s *staticCredentials) Acquire(ctx context.Context, ref string) (*model.Credential, func(), error) {
	cred := &model.Credential{Ref: ref, Token: "secret-token", PlatformToken: "gh-token"}
	return cred, func() { s.released.Add(1) }, nil
}

func newCredential() *model.Credential {
	return &model.Credential{Ref: "TEST", Token: "secret-token", PlatformToken: "gh-token"}
}

func newPublishRequest() *model.PublishRequest {
	return &model.PublishRequest{
		ArtifactPath: "./charms/istio-pilot",
		Channel:      "latest/edge",
		TagPrefix:    "istio-pilot",
	}
}

func TestClient_Publish_Request(t *testing.T) {
	var got model.PublishRequest
	var auth, platform, contentType, path string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		platform = r.Header.Get(registry.PlatformTokenHeader)
		contentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := registry.NewClient(context.Background(), server.URL)
	gt.NoError(t, err)

	gt.NoError(t, client.Publish(context.Background(), newCredential(), newPublishRequest()))
	gt.Value(t, path).Equal("/publish")
	gt.Value(t, auth).Equal("Bearer secret-token")
	gt.Value(t, platform).Equal("gh-token")
	gt.Value(t, contentType).Equal("application/json")
	gt.Value(t, got.ArtifactPath).Equal("./charms/istio-pilot")
	gt.Value(t, got.Channel).Equal("latest/edge")
	gt.Value(t, got.TagPrefix).Equal("istio-pilot")
	gt.Value(t, got.Revision).Equal(0)
}

func TestClient_Promote_Request(t *testing.T) {
	var body map[string]any
	var path string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := registry.NewClient(context.Background(), server.URL+"/api/v1")
	gt.NoError(t, err)

	err = client.Promote(context.Background(), newCredential(), &model.PromoteRequest{
		OriginChannel:      "latest/edge",
		DestinationChannel: "1.0/stable",
		Revision:           42,
		TagPrefix:          "X",
	})
	gt.NoError(t, err)
	gt.Value(t, path).Equal("/api/v1/promote")
	gt.Value(t, body["origin_channel"]).Equal(any("latest/edge"))
	gt.Value(t, body["destination_channel"]).Equal(any("1.0/stable"))
	gt.Value(t, body["revision"]).Equal(any(float64(42)))
	gt.Value(t, body["tag_prefix"]).Equal(any("X"))
}

func TestClient_StatusClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   string
	}{
		{name: "ok", status: http.StatusOK, want: ""},
		{name: "created", status: http.StatusCreated, want: ""},
		{name: "unauthorized", status: http.StatusUnauthorized, want: "AuthError"},
		{name: "forbidden", status: http.StatusForbidden, want: "AuthError"},
		{name: "bad request", status: http.StatusBadRequest, want: "RegistryRejected"},
		{name: "conflict", status: http.StatusConflict, want: "RegistryRejected"},
		{name: "request timeout", status: http.StatusRequestTimeout, want: "TransientError"},
		{name: "too many requests", status: http.StatusTooManyRequests, want: "TransientError"},
		{name: "internal error", status: http.StatusInternalServerError, want: "TransientError"},
		{name: "unavailable", status: http.StatusServiceUnavailable, want: "TransientError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":"test"}`))
			}))
			defer server.Close()

			client, err := registry.NewClient(context.Background(), server.URL)
			gt.NoError(t, err)

			err = client.Publish(context.Background(), newCredential(), newPublishRequest())
			gt.Value(t, types.ErrorKind(err)).Equal(tt.want)
		})
	}
}

func TestClient_NetworkErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := registry.NewClient(context.Background(), url)
	gt.NoError(t, err)

	err = client.Publish(context.Background(), newCredential(), newPublishRequest())
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, types.ErrTagTransient))
}

func TestClient_SchemaValidation(t *testing.T) {
	var called atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tests := []struct {
		name string
		req  *model.PublishRequest
	}{
		{
			name: "empty path",
			req:  &model.PublishRequest{Channel: "latest/edge", TagPrefix: "a"},
		},
		{
			name: "channel without risk",
			req:  &model.PublishRequest{ArtifactPath: "./charms/a", Channel: "latest", TagPrefix: "a"},
		},
		{
			name: "unknown risk",
			req:  &model.PublishRequest{ArtifactPath: "./charms/a", Channel: "latest/unstable", TagPrefix: "a"},
		},
		{
			name: "negative revision",
			req:  &model.PublishRequest{ArtifactPath: "./charms/a", Channel: "latest/edge", TagPrefix: "a", Revision: -1},
		},
	}

	client, err := registry.NewClient(context.Background(), server.URL)
	gt.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.Publish(context.Background(), newCredential(), tt.req)
			gt.Error(t, err)
			gt.True(t, goerr.HasTag(err, types.ErrTagConfig))
		})
	}
	gt.Value(t, called.Load()).Equal(int32(0))

	t.Run("disabled validation sends request", func(t *testing.T) {
		client, err := registry.NewClient(context.Background(), server.URL, registry.WithoutSchemaValidation())
		gt.NoError(t, err)
		gt.NoError(t, client.Publish(context.Background(), newCredential(), tests[1].req))
		gt.Value(t, called.Load()).Equal(int32(1))
	})
}

func TestClient_EmptyCredential(t *testing.T) {
	client, err := registry.NewClient(context.Background(), "http://localhost:1")
	gt.NoError(t, err)

	err = client.Publish(context.Background(), &model.Credential{}, newPublishRequest())
	gt.True(t, goerr.HasTag(err, types.ErrTagAuth))
}

func TestNewClient_InvalidURL(t *testing.T) {
	for _, u := range []string{"ftp://example.com", "://bad", "example.com"} {
		t.Run(u, func(t *testing.T) {
			_, err := registry.NewClient(context.Background(), u)
			gt.Error(t, err)
			gt.True(t, goerr.HasTag(err, types.ErrTagConfig))
		})
	}
}

// Publisher against a real HTTP registry: 503, 503, then 200.
func TestPublisherWithClient_RetryOn503(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := registry.NewClient(context.Background(), server.URL)
	gt.NoError(t, err)

	creds := &staticCredentials{}
	pub := usecase.NewPublisher(client, creds, usecase.WithBackoff(time.Millisecond, 5*time.Millisecond))

	result := pub.Publish(context.Background(), &model.PublishJob{
		ID:           "job-1",
		ArtifactID:   "istio-pilot",
		ArtifactPath: "./charms/istio-pilot",
		Channel:      "latest/edge",
		TagPrefix:    "istio-pilot",
	})

	gt.True(t, result.Succeeded())
	gt.Value(t, result.Attempts).Equal(3)
	gt.Value(t, calls.Load()).Equal(int32(3))
	gt.Value(t, creds.released.Load()).Equal(int32(1))
}

// Publisher against a real HTTP registry: 401 is never retried.
func TestPublisherWithClient_NoRetryOn401(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client, err := registry.NewClient(context.Background(), server.URL)
	gt.NoError(t, err)

	pub := usecase.NewPublisher(client, &staticCredentials{}, usecase.WithBackoff(time.Millisecond, 5*time.Millisecond))
	result := pub.Publish(context.Background(), &model.PublishJob{
		ID:           "job-1",
		ArtifactID:   "istio-pilot",
		ArtifactPath: "./charms/istio-pilot",
		Channel:      "latest/edge",
		TagPrefix:    "istio-pilot",
	})

	gt.False(t, result.Succeeded())
	gt.Value(t, result.ErrorKind()).Equal("AuthError")
	gt.Value(t, result.Attempts).Equal(1)
	gt.Value(t, calls.Load()).Equal(int32(1))
}
