package types

import "github.com/m-mizutani/goerr/v2"

// Error kind tags. Every error surfaced to a PublishResult carries exactly one of them.
var (
	// ErrTagConfig marks bad or missing input. Fatal, raised before any network call.
	ErrTagConfig = goerr.NewTag("ConfigError")
	// ErrTagTransient marks network failures, timeouts and 5xx responses. Retried.
	ErrTagTransient = goerr.NewTag("TransientError")
	// ErrTagAuth marks credential problems. Never retried.
	ErrTagAuth = goerr.NewTag("AuthError")
	// ErrTagRejected marks 4xx responses other than auth failures. Never retried.
	ErrTagRejected = goerr.NewTag("RegistryRejected")
)

// ErrorKind returns the kind name of err, or "unknown" if err has no kind tag
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case goerr.HasTag(err, ErrTagConfig):
		return ErrTagConfig.String()
	case goerr.HasTag(err, ErrTagAuth):
		return ErrTagAuth.String()
	case goerr.HasTag(err, ErrTagRejected):
		return ErrTagRejected.String()
	case goerr.HasTag(err, ErrTagTransient):
		return ErrTagTransient.String()
	default:
		return "unknown"
	}
}

// IsTransient reports whether err may succeed on retry
func IsTransient(err error) bool {
	return goerr.HasTag(err, ErrTagTransient)
}
