package copyvios

import (
	"context"
	"net/http"
	"time"
)

// Fingerprint is an opaque statistical summary of a text. The engine relies
// only on its size; everything else is up to the model.
type Fingerprint interface {
	Size() int
}

// FingerprintModel builds fingerprints from text and computes the
// shared-content fingerprint of two of them.
type FingerprintModel interface {
	Build(text string) Fingerprint
	Intersect(a, b Fingerprint) Fingerprint
}

// SourceFetcher retrieves a URL and returns its extracted plain text.
// ok is false when no usable text could be obtained; fetch failures are
// final for that URL and never surface as errors.
type SourceFetcher interface {
	FetchText(ctx context.Context, rawURL string, headers http.Header, timeout time.Duration) (text string, ok bool)
}

// DomainClassifier maps a URL to its registrable domain, used to group
// requests by host-equivalent for rate-considerate scheduling.
type DomainClassifier interface {
	RegistrableDomain(rawURL string) string
}

// Limiter gates fetches per domain.
type Limiter interface {
	Wait(ctx context.Context, domain string) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
