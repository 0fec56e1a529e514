package fetcher

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/jobsalhi/sofifa-harvester/internal/scrape"
)

// Static fetches pages over plain HTTP via Colly, for runs against targets
// that do not need JavaScript. Challenge interstitials are still returned as
// bodies, so detection happens downstream exactly as with the Chrome fetcher.
type Static struct {
	base   *colly.Collector
	logger *zap.Logger
}

// NewStatic constructs a configured Colly-backed fetcher.
func NewStatic(cfg Config, logger *zap.Logger) (*Static, error) {
	base := colly.NewCollector(
		colly.Async(true),
		colly.UserAgent(cfg.UserAgent),
	)
	base.AllowURLRevisit = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.NavTimeout,
	})
	base.SetRequestTimeout(cfg.NavTimeout)

	if cfg.QPS > 0 {
		delay := time.Duration(float64(time.Second) / cfg.QPS)
		if err := base.Limit(&colly.LimitRule{
			DomainGlob:  "*",
			Parallelism: 1,
			Delay:       delay,
		}); err != nil {
			return nil, err
		}
	}

	return &Static{base: base, logger: logger}, nil
}

// Close implements the same shutdown surface as Chrome; nothing to release.
func (f *Static) Close(context.Context) error {
	return nil
}

// Fetch implements scrape.Fetcher.
func (f *Static) Fetch(ctx context.Context, rawURL string) (scrape.Page, error) {
	collector := f.base.Clone()
	resultCh := make(chan staticResult, 1)
	var once sync.Once
	send := func(res staticResult) {
		once.Do(func() {
			resultCh <- res
		})
	}

	collector.OnResponse(func(r *colly.Response) {
		send(staticResult{page: scrape.Page{
			URL:        rawURL,
			StatusCode: r.StatusCode,
			Body:       append([]byte{}, r.Body...),
		}})
	})
	collector.OnError(func(r *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		res := staticResult{err: err}
		// A challenge interstitial often arrives as a 403/503 body; keep it
		// so the challenge detector can classify the failure.
		if r != nil && len(r.Body) > 0 {
			res = staticResult{page: scrape.Page{
				URL:        rawURL,
				StatusCode: r.StatusCode,
				Body:       append([]byte{}, r.Body...),
			}}
		}
		send(res)
	})

	if err := collector.Visit(rawURL); err != nil {
		return scrape.Page{}, err
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		if err := ctx.Err(); err != nil {
			return scrape.Page{}, err
		}
		return res.page, res.err
	default:
		return scrape.Page{}, errors.New("fetch produced no result")
	}
}

type staticResult struct {
	page scrape.Page
	err  error
}
