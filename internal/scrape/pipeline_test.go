package scrape

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fetchFunc func(ctx context.Context, rawURL string) (Page, error)

func (f fetchFunc) Fetch(ctx context.Context, rawURL string) (Page, error) {
	return f(ctx, rawURL)
}

// listingByURL serves canned listing results keyed by page address.
type listingByURL map[string]ListingResult

func (m listingByURL) ExtractListing(page Page) (ListingResult, error) {
	res, ok := m[page.URL]
	if !ok {
		return ListingResult{}, fmt.Errorf("unexpected listing page %s", page.URL)
	}
	return res, nil
}

type detailFunc func(page Page) (Record, error)

func (f detailFunc) ExtractDetail(page Page) (Record, error) {
	return f(page)
}

type memAddressSink struct {
	rewrites [][]string
}

func (s *memAddressSink) Rewrite(addresses []string) error {
	snap := make([]string, len(addresses))
	copy(snap, addresses)
	s.rewrites = append(s.rewrites, snap)
	return nil
}

type memRecordSink struct {
	mu      sync.Mutex
	records []Record
}

func (s *memRecordSink) Write(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func okFetcher() Fetcher {
	return fetchFunc(func(_ context.Context, rawURL string) (Page, error) {
		return Page{URL: rawURL, StatusCode: 200, Body: []byte("<html></html>")}, nil
	})
}

func quickController(maxAttempts int) *Controller {
	return NewController(Policy{MaxAttempts: maxAttempts}, zap.NewNop()).WithSleeper(&recordingSleeper{})
}

func TestPipeline_DiscoverMergesOverlappingPages(t *testing.T) {
	t.Parallel()
	base := "https://sofifa.test/players"
	listing := listingByURL{
		base:                {Addresses: []string{"u1", "u2"}, HasNext: true},
		base + "?offset=60": {Addresses: []string{"u2", "u3"}, HasNext: false},
	}
	p := NewPipeline(
		Config{BaseURL: base, PageSize: 60},
		okFetcher(), listing, nil,
		NewChallengeDetector(DefaultChallengeMarkers),
		quickController(3), quickController(3),
		zap.NewNop(),
	)

	sink := &memAddressSink{}
	addresses, err := p.Discover(context.Background(), sink)
	require.NoError(t, err)
	require.Equal(t, []string{"u1", "u2", "u3"}, addresses)

	// Snapshot persisted after every page, growing monotonically.
	require.Len(t, sink.rewrites, 2)
	require.Equal(t, []string{"u1", "u2"}, sink.rewrites[0])
	require.Equal(t, []string{"u1", "u2", "u3"}, sink.rewrites[1])
}

func TestPipeline_DiscoverFirstPageUnreachable(t *testing.T) {
	t.Parallel()
	fetcher := fetchFunc(func(context.Context, string) (Page, error) {
		return Page{}, errors.New("connection refused")
	})
	p := NewPipeline(
		Config{BaseURL: "https://sofifa.test/players", PageSize: 60},
		fetcher, listingByURL{}, nil,
		NewChallengeDetector(nil),
		quickController(2), quickController(1),
		zap.NewNop(),
	)

	_, err := p.Discover(context.Background(), &memAddressSink{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "first listing page unreachable")
}

func TestPipeline_DiscoverKeepsPartialResultOnLaterFailure(t *testing.T) {
	t.Parallel()
	base := "https://sofifa.test/players"
	listing := listingByURL{
		base: {Addresses: []string{"u1", "u2"}, HasNext: true},
		// offset=60 is absent, so the second page fails extraction.
	}
	p := NewPipeline(
		Config{BaseURL: base, PageSize: 60},
		okFetcher(), listing, nil,
		NewChallengeDetector(nil),
		quickController(2), quickController(1),
		zap.NewNop(),
	)

	addresses, err := p.Discover(context.Background(), &memAddressSink{})
	require.NoError(t, err)
	require.Equal(t, []string{"u1", "u2"}, addresses)
}

func TestPipeline_DiscoverRetriesThroughChallenge(t *testing.T) {
	t.Parallel()
	base := "https://sofifa.test/players"
	calls := 0
	fetcher := fetchFunc(func(_ context.Context, rawURL string) (Page, error) {
		calls++
		if calls == 1 {
			return Page{URL: rawURL, StatusCode: 403, Body: []byte("<title>Just a moment...</title>")}, nil
		}
		return Page{URL: rawURL, StatusCode: 200, Body: []byte("<html></html>")}, nil
	})
	listing := listingByURL{base: {Addresses: []string{"u1"}, HasNext: false}}
	p := NewPipeline(
		Config{BaseURL: base, PageSize: 60},
		fetcher, listing, nil,
		NewChallengeDetector(DefaultChallengeMarkers),
		quickController(3), quickController(1),
		zap.NewNop(),
	)

	addresses, err := p.Discover(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, []string{"u1"}, addresses)
	require.Equal(t, 2, calls)
}

func TestPipeline_DiscoverHonorsMaxOffset(t *testing.T) {
	t.Parallel()
	base := "https://sofifa.test/teams"
	listing := listingByURL{
		base:                {Addresses: []string{"t1"}, HasNext: true},
		base + "?offset=60": {Addresses: []string{"t2"}, HasNext: true},
	}
	p := NewPipeline(
		Config{BaseURL: base, PageSize: 60, MaxOffset: 60},
		okFetcher(), listing, nil,
		NewChallengeDetector(nil),
		quickController(1), quickController(1),
		zap.NewNop(),
	)

	addresses, err := p.Discover(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, []string{"t1", "t2"}, addresses)
}

func TestPipeline_ScrapeDetailsSkipsTerminalFailures(t *testing.T) {
	t.Parallel()
	detail := detailFunc(func(page Page) (Record, error) {
		if page.URL == "u2" {
			return nil, ErrNoData
		}
		return Record{"name": "player for " + page.URL}, nil
	})
	p := NewPipeline(
		Config{Workers: 1},
		okFetcher(), nil, detail,
		NewChallengeDetector(nil),
		quickController(1), quickController(2),
		zap.NewNop(),
	)

	sink := &memRecordSink{}
	stats, err := p.ScrapeDetails(context.Background(), []string{"u1", "u2", "u3"}, sink)
	require.NoError(t, err)
	require.Equal(t, Stats{Succeeded: 2, Failed: 1}, stats)

	require.Len(t, sink.records, 2)
	require.Equal(t, "u1", sink.records[0]["url"])
	require.Equal(t, "u3", sink.records[1]["url"])
}

func TestPipeline_ScrapeDetailsCapsRecords(t *testing.T) {
	t.Parallel()
	detail := detailFunc(func(page Page) (Record, error) {
		return Record{"name": "x"}, nil
	})
	p := NewPipeline(
		Config{Workers: 1, MaxRecords: 2},
		okFetcher(), nil, detail,
		NewChallengeDetector(nil),
		quickController(1), quickController(1),
		zap.NewNop(),
	)

	sink := &memRecordSink{}
	stats, err := p.ScrapeDetails(context.Background(), []string{"u1", "u2", "u3", "u4"}, sink)
	require.NoError(t, err)
	require.Equal(t, 2, stats.Succeeded)
	require.Len(t, sink.records, 2)
}

func TestPipeline_ScrapeDetailsAllFailures(t *testing.T) {
	t.Parallel()
	fetcher := fetchFunc(func(context.Context, string) (Page, error) {
		return Page{}, errors.New("connection reset")
	})
	p := NewPipeline(
		Config{Workers: 2},
		fetcher, nil, detailFunc(func(Page) (Record, error) { return nil, ErrNoData }),
		NewChallengeDetector(nil),
		quickController(1), quickController(2),
		zap.NewNop(),
	)

	stats, err := p.ScrapeDetails(context.Background(), []string{"u1", "u2"}, &memRecordSink{})
	require.Error(t, err)
	require.Equal(t, Stats{Succeeded: 0, Failed: 2}, stats)
}

func TestPipeline_ScrapeDetailsFansOut(t *testing.T) {
	t.Parallel()
	detail := detailFunc(func(page Page) (Record, error) {
		return Record{"name": "p"}, nil
	})
	p := NewPipeline(
		Config{Workers: 3},
		okFetcher(), nil, detail,
		NewChallengeDetector(nil),
		quickController(1), quickController(1),
		zap.NewNop(),
	)

	addresses := make([]string, 10)
	for i := range addresses {
		addresses[i] = fmt.Sprintf("u%d", i)
	}
	sink := &memRecordSink{}
	stats, err := p.ScrapeDetails(context.Background(), addresses, sink)
	require.NoError(t, err)
	require.Equal(t, 10, stats.Succeeded)
	require.Len(t, sink.records, 10)
}

func TestSplitChunks(t *testing.T) {
	t.Parallel()
	addresses := []string{"a", "b", "c", "d", "e"}
	chunks := splitChunks(addresses, 2)
	require.Len(t, chunks, 2)
	require.Equal(t, []string{"a", "b", "c"}, chunks[0])
	require.Equal(t, []string{"d", "e"}, chunks[1])

	require.Nil(t, splitChunks(nil, 1))
	require.Equal(t, [][]string{addresses}, splitChunks(addresses, 1))
}
