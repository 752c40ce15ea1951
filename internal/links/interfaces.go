package links

import (
	"context"
	"io"
	"time"
)

// Source streams Records from an external table store.
// Scan calls fn once per non-archived row and stops at the first error fn returns.
type Source interface {
	Scan(ctx context.Context, fn func(Record) error) error
}

// Prober checks a destination URL. Probe never fails; failures are encoded in the result.
type Prober interface {
	Probe(ctx context.Context, url string) ProbeResult
}

// BlobStore writes report artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Publisher pushes completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces export run IDs.
type IDGenerator interface {
	NewID() (string, error)
}

// Queue buffers Records between the source scan and the probe workers.
type Queue interface {
	Enqueue(ctx context.Context, rec Record) error
	Dequeue(ctx context.Context) (Record, error)
	Close()
}
