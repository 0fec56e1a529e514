// Package fetcher provides the page fetchers: a headless-Chrome fetcher for
// the JavaScript-rendered catalog and a plain HTTP fetcher for static runs.
package fetcher

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	cdpfetch "github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jobsalhi/sofifa-harvester/internal/scrape"
)

// Config holds the knobs shared by both fetcher implementations.
type Config struct {
	UserAgent  string
	NavTimeout time.Duration
	// SettleWait is slept after DOM-ready so late scripts can populate the
	// page before the snapshot is taken.
	SettleWait time.Duration
	// QPS throttles fetches across all workers; zero disables the limiter.
	QPS float64
	// BlockedResources lists sub-resource types (image, stylesheet, font,
	// media) aborted during navigation to speed up page loads.
	BlockedResources []string
}

// Chrome fetches pages through a shared headless browser. Every Fetch runs
// in its own tab, so the fetcher is safe for concurrent workers.
type Chrome struct {
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	logger          *zap.Logger
	limiter         *rate.Limiter
	navTimeout      time.Duration
	settleWait      time.Duration
	userAgent       string
	blocked         map[string]struct{}
}

// NewChrome starts the browser and warms it up. The returned fetcher must be
// closed to release the browser.
func NewChrome(cfg Config, logger *zap.Logger) (*Chrome, error) {
	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts,
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(cfg.UserAgent),
	)
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		allocatorCancel()
		browserCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}

	blocked := make(map[string]struct{}, len(cfg.BlockedResources))
	for _, r := range cfg.BlockedResources {
		r = strings.ToLower(strings.TrimSpace(r))
		if r != "" {
			blocked[r] = struct{}{}
		}
	}

	var limiter *rate.Limiter
	if cfg.QPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.QPS), 1)
	}

	return &Chrome{
		allocatorCancel: allocatorCancel,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		logger:          logger,
		limiter:         limiter,
		navTimeout:      cfg.NavTimeout,
		settleWait:      cfg.SettleWait,
		userAgent:       cfg.UserAgent,
		blocked:         blocked,
	}, nil
}

// Close tears down the browser and its allocator.
func (f *Chrome) Close(context.Context) error {
	if f == nil {
		return nil
	}
	f.browserCancel()
	f.allocatorCancel()
	return nil
}

// Fetch implements scrape.Fetcher. A navigation timeout surfaces as
// context.DeadlineExceeded, which the retry controller classifies as a
// transient network failure.
func (f *Chrome) Fetch(ctx context.Context, rawURL string) (scrape.Page, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return scrape.Page{}, fmt.Errorf("politeness wait: %w", err)
		}
	}

	tabCtx, cancelTab := chromedp.NewContext(f.browserCtx)
	defer cancelTab()

	taskCtx, cancelTask := context.WithTimeout(tabCtx, f.navTimeout)
	defer cancelTask()

	stopForward := forwardCancel(ctx, cancelTask)
	defer stopForward()

	f.interceptRequests(tabCtx)
	meta := newResponseMeta()
	recordDocumentResponse(tabCtx, meta)

	var html string
	tasks := chromedp.Tasks{
		cdpfetch.Enable(),
		network.Enable(),
		emulation.SetUserAgentOverride(f.userAgent),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(f.settleWait),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, tasks); err != nil {
		return scrape.Page{}, fmt.Errorf("navigate %s: %w", rawURL, err)
	}

	return scrape.Page{
		URL:        rawURL,
		StatusCode: meta.statusCode,
		Body:       []byte(html),
	}, nil
}

// interceptRequests aborts blocked sub-resource types and lets everything
// else through.
func (f *Chrome) interceptRequests(tabCtx context.Context) {
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		paused, ok := ev.(*cdpfetch.EventRequestPaused)
		if !ok {
			return
		}
		go func() {
			c := chromedp.FromContext(tabCtx)
			execCtx := cdp.WithExecutor(tabCtx, c.Target)
			if _, blocked := f.blocked[strings.ToLower(string(paused.ResourceType))]; blocked {
				_ = cdpfetch.FailRequest(paused.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx)
				return
			}
			_ = cdpfetch.ContinueRequest(paused.RequestID).Do(execCtx)
		}()
	})
}

type responseMeta struct {
	once       sync.Once
	statusCode int
}

func newResponseMeta() *responseMeta {
	return &responseMeta{}
}

func recordDocumentResponse(tabCtx context.Context, meta *responseMeta) {
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		resp, ok := ev.(*network.EventResponseReceived)
		if !ok || resp.Type != network.ResourceTypeDocument {
			return
		}
		meta.once.Do(func() {
			meta.statusCode = int(resp.Response.Status)
		})
	})
}

// forwardCancel propagates cancellation of the caller's context into the tab
// task, since the tab context is not its child.
func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
