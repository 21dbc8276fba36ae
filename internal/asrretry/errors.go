// Package asrretry classifies ASR backend failures into retry-relevant
// sentinels and drives the exponential backoff used to retry transient
// ones. A condensed chunk's transcription request can fail for reasons
// worth retrying (rate limit, timeout) and reasons that never improve on
// retry (bad audio, exhausted quota, bad credentials); this package is
// where that distinction lives, one layer below internal/asrclient.
//
// Backends map HTTP status codes onto these sentinels with
// fmt.Errorf("%s: %w", msg, sentinel). Callers check with
// errors.Is(err, asrretry.ErrRateLimit) etc.
package asrretry

import "errors"

// Sentinel errors for ASR backend request failures.
var (
	// ErrRateLimit indicates the backend's rate limit was exceeded (temporary, retryable).
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrQuotaExceeded indicates the account quota was exhausted (billing issue, not retryable).
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrTimeout indicates a transcription request timed out.
	ErrTimeout = errors.New("request timeout")

	// ErrAuthFailed indicates backend authentication failed (invalid key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrBadRequest indicates the backend rejected the chunk itself (malformed
	// audio, unsupported format) — retrying the same file never helps.
	ErrBadRequest = errors.New("bad request")
)
