package scrape

import (
	"context"
	"time"
)

// Fetcher retrieves the rendered content of one address. Implementations must
// be safe for concurrent use; each Fetch owns an independent page session.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Page, error)
}

// ListingExtractor pulls detail addresses and the next-page signal out of a
// rendered listing page.
type ListingExtractor interface {
	ExtractListing(page Page) (ListingResult, error)
}

// DetailExtractor turns a rendered detail page into a Record. It returns
// ErrNoData when the page yielded nothing usable.
type DetailExtractor interface {
	ExtractDetail(page Page) (Record, error)
}

// RecordSink durably persists one record per call. Implementations serialize
// concurrent writers internally.
type RecordSink interface {
	Write(record Record) error
}

// AddressSink replaces the persisted discovery list with the given snapshot.
type AddressSink interface {
	Rewrite(addresses []string) error
}

// Sleeper abstracts backoff waits so tests can observe them without waiting.
type Sleeper interface {
	Pause(ctx context.Context, d time.Duration)
}
