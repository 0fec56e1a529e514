package scrape

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config controls one pipeline run over a single catalog.
type Config struct {
	// BaseURL is the first listing page; pagination offsets are appended.
	BaseURL string
	// PageSize is the offset stride between listing pages.
	PageSize int
	// MaxOffset caps the traversal; zero means the site's next-page signal
	// alone ends discovery.
	MaxOffset int
	// MaxRecords caps the number of detail addresses scraped; zero means all.
	MaxRecords int
	// Workers is the detail-phase fan-out. Each worker walks a disjoint
	// slice of the discovered addresses.
	Workers int
}

// Stats summarizes a detail phase run.
type Stats struct {
	Succeeded int
	Failed    int
}

// Pipeline drives the discovery and detail phases against one catalog.
type Pipeline struct {
	cfg            Config
	fetcher        Fetcher
	listing        ListingExtractor
	detail         DetailExtractor
	challenge      *ChallengeDetector
	discoveryRetry *Controller
	detailRetry    *Controller
	logger         *zap.Logger
}

// NewPipeline wires the pipeline collaborators. Each run gets a fresh ID
// attached to every log line.
func NewPipeline(
	cfg Config,
	fetcher Fetcher,
	listing ListingExtractor,
	detail DetailExtractor,
	challenge *ChallengeDetector,
	discoveryRetry *Controller,
	detailRetry *Controller,
	logger *zap.Logger,
) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		cfg:            cfg,
		fetcher:        fetcher,
		listing:        listing,
		detail:         detail,
		challenge:      challenge,
		discoveryRetry: discoveryRetry,
		detailRetry:    detailRetry,
		logger:         logger.With(zap.String("run_id", uuid.NewString())),
	}
}

// Discover walks the paginated listing until the site reports no further
// page, the configured bound is reached, or a listing page fails terminally.
// The deduplicated snapshot is flushed to addrSink after every page so
// partial discovery survives interruption. A run that cannot process even
// the first listing page returns an error.
func (p *Pipeline) Discover(ctx context.Context, addrSink AddressSink) ([]string, error) {
	dedup := NewDedupSet()
	cursor := NewCursor(p.cfg.PageSize, p.cfg.MaxOffset)
	pages := 0

	for cursor.HasNext() {
		address := cursor.CurrentAddress(p.cfg.BaseURL)
		var result ListingResult
		err := p.discoveryRetry.Execute(ctx, func(ctx context.Context) error {
			page, ferr := p.fetcher.Fetch(ctx, address)
			if ferr != nil {
				return fmt.Errorf("fetch listing: %w", ferr)
			}
			if cerr := p.challenge.Check(page); cerr != nil {
				return cerr
			}
			out, xerr := p.listing.ExtractListing(page)
			if xerr != nil {
				return fmt.Errorf("extract listing: %w", xerr)
			}
			if len(out.Addresses) == 0 {
				return ErrNoData
			}
			result = out
			return nil
		})
		if err != nil {
			if pages == 0 {
				return nil, fmt.Errorf("first listing page unreachable: %w", err)
			}
			p.logger.Warn("listing page abandoned, stopping discovery",
				zap.String("url", address),
				zap.Int("offset", cursor.Offset()),
				zap.Error(err),
			)
			cursor.Stop()
			break
		}

		added := 0
		for _, a := range result.Addresses {
			if dedup.Add(a) {
				added++
			}
		}
		pages++
		metricListingPages.Inc()
		p.logger.Info("listing page processed",
			zap.String("url", address),
			zap.Int("offset", cursor.Offset()),
			zap.Int("found", len(result.Addresses)),
			zap.Int("new", added),
			zap.Int("total_unique", dedup.Len()),
			zap.Bool("has_next", result.HasNext),
		)

		if addrSink != nil {
			if werr := addrSink.Rewrite(dedup.Snapshot()); werr != nil {
				return nil, fmt.Errorf("persist discovered addresses: %w", werr)
			}
		}

		if !result.HasNext {
			cursor.Stop()
		} else {
			cursor.Advance()
		}
	}

	p.logger.Info("discovery finished",
		zap.Int("pages", pages),
		zap.Int("unique_addresses", dedup.Len()),
	)
	return dedup.Snapshot(), nil
}

// ScrapeDetails visits every discovered address in insertion order and
// streams each successful record into the sink. A single address exhausting
// its retries is logged and skipped, never fatal. The returned error is
// non-nil only when the run made no progress at all or the sink broke.
func (p *Pipeline) ScrapeDetails(ctx context.Context, addresses []string, sink RecordSink) (Stats, error) {
	if p.cfg.MaxRecords > 0 && len(addresses) > p.cfg.MaxRecords {
		addresses = addresses[:p.cfg.MaxRecords]
	}
	workers := p.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(addresses) {
		workers = len(addresses)
	}

	var (
		mu      sync.Mutex
		stats   Stats
		sinkErr error
		wg      sync.WaitGroup
	)

	// Deduplication is complete before fan-out, so workers share nothing but
	// the sink, which serializes internally.
	for _, chunk := range splitChunks(addresses, workers) {
		wg.Add(1)
		go func(chunk []string) {
			defer wg.Done()
			for _, address := range chunk {
				if ctx.Err() != nil {
					return
				}
				record, err := p.scrapeOne(ctx, address)
				if err != nil {
					var terminal *TerminalError
					if errors.As(err, &terminal) {
						p.logger.Warn("address abandoned",
							zap.String("url", address),
							zap.String("kind", string(terminal.Kind)),
							zap.Int("attempts", terminal.Attempts),
						)
						mu.Lock()
						stats.Failed++
						mu.Unlock()
						continue
					}
					// Context cancellation: stop this worker quietly.
					return
				}
				mu.Lock()
				if werr := sink.Write(record); werr != nil {
					sinkErr = fmt.Errorf("write record for %s: %w", address, werr)
					mu.Unlock()
					return
				}
				stats.Succeeded++
				mu.Unlock()
				metricRecordsWritten.Inc()
			}
		}(chunk)
	}
	wg.Wait()

	if sinkErr != nil {
		return stats, sinkErr
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	p.logger.Info("detail phase finished",
		zap.Int("succeeded", stats.Succeeded),
		zap.Int("failed", stats.Failed),
		zap.Int("total", len(addresses)),
	)
	if stats.Succeeded == 0 && len(addresses) > 0 {
		return stats, fmt.Errorf("no detail page could be scraped (%d attempted)", len(addresses))
	}
	return stats, nil
}

// scrapeOne runs the per-address state machine: PENDING -> FETCHING ->
// {SUCCEEDED, RETRYING -> FETCHING, FAILED-TERMINAL}. The retry controller
// owns the RETRYING loop.
func (p *Pipeline) scrapeOne(ctx context.Context, address string) (Record, error) {
	status := StatusPending
	p.logger.Debug("address state", zap.String("url", address), zap.String("status", string(status)))
	var record Record
	err := p.detailRetry.Execute(ctx, func(ctx context.Context) error {
		status = StatusFetching
		page, ferr := p.fetcher.Fetch(ctx, address)
		if ferr != nil {
			status = StatusRetrying
			return fmt.Errorf("fetch detail: %w", ferr)
		}
		if cerr := p.challenge.Check(page); cerr != nil {
			status = StatusRetrying
			return cerr
		}
		rec, xerr := p.detail.ExtractDetail(page)
		if xerr != nil {
			status = StatusRetrying
			return xerr
		}
		if rec["url"] == "" {
			rec["url"] = address
		}
		record = rec
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
			return nil, err
		}
		var terminal *TerminalError
		if !errors.As(err, &terminal) {
			// Context deadline hit between attempts; treat as terminal for
			// this address so the caller's accounting stays simple.
			err = &TerminalError{Kind: FailureTransient, Attempts: 1, Err: err}
		}
		status = StatusFailedTerminal
		p.logger.Debug("address state settled",
			zap.String("url", address),
			zap.String("status", string(status)),
		)
		return nil, err
	}
	status = StatusSucceeded
	p.logger.Debug("address state settled",
		zap.String("url", address),
		zap.String("status", string(status)),
		zap.Int("fields", len(record)),
	)
	return record, nil
}

// splitChunks partitions addresses into n disjoint contiguous slices,
// preserving insertion order within each.
func splitChunks(addresses []string, n int) [][]string {
	if n <= 1 {
		if len(addresses) == 0 {
			return nil
		}
		return [][]string{addresses}
	}
	chunks := make([][]string, 0, n)
	size := (len(addresses) + n - 1) / n
	for start := 0; start < len(addresses); start += size {
		end := start + size
		if end > len(addresses) {
			end = len(addresses)
		}
		chunks = append(chunks, addresses[start:end])
	}
	return chunks
}
