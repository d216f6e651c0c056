package credential

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
)

// Option is a functional option for Provider
type Option func(*Provider)

// WithFallbackToken sets the token used when a reference is empty or not found
func WithFallbackToken(token string) Option {
	return func(p *Provider) {
		p.fallback = token
	}
}

// WithPlatformToken sets the platform token attached to every credential
func WithPlatformToken(token string) Option {
	return func(p *Provider) {
		p.platformToken = token
	}
}

// WithLookup replaces environment variable lookup
func WithLookup(lookup func(key string) (string, bool)) Option {
	return func(p *Provider) {
		p.lookup = lookup
	}
}

// WithClock replaces the clock used for expiry checks
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		p.now = now
	}
}

// Provider resolves credential references to tokens stored in environment variables
type Provider struct {
	lookup        func(key string) (string, bool)
	fallback      string
	platformToken string
	now           func() time.Time
}

var _ interfaces.CredentialProvider = (*Provider)(nil)

// New creates a credential provider
func New(opts ...Option) *Provider {
	p := &Provider{
		lookup: os.LookupEnv,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Acquire returns a credential for ref. The release function clears the token material.
func (p *Provider) Acquire(ctx context.Context, ref string) (*model.Credential, func(), error) {
	token := p.fallback
	if ref != "" {
		if v, ok := p.lookup(ref); ok && strings.TrimSpace(v) != "" {
			token = strings.TrimSpace(v)
		}
	}
	if token == "" {
		return nil, nil, goerr.New("credential not found", goerr.V("ref", ref), goerr.T(types.ErrTagAuth))
	}

	if err := p.checkExpiry(token); err != nil {
		return nil, nil, goerr.Wrap(err, "credential is not usable", goerr.V("ref", ref))
	}

	cred := &model.Credential{
		Ref:           ref,
		Token:         token,
		PlatformToken: p.platformToken,
	}
	ctxlog.From(ctx).Debug("Credential acquired", "credential", cred)

	return cred, cred.Clear, nil
}

// checkExpiry rejects JWT tokens whose exp claim is in the past. Opaque tokens are accepted as is.
func (p *Provider) checkExpiry(token string) error {
	if strings.Count(token, ".") != 2 {
		return nil
	}

	parsed, err := jwt.ParseString(token, jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		return nil
	}

	exp := parsed.Expiration()
	if !exp.IsZero() && p.now().After(exp) {
		return goerr.New("credential token has expired",
			goerr.V("expired_at", exp),
			goerr.T(types.ErrTagAuth))
	}
	return nil
}
