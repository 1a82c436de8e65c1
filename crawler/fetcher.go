package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aluiziolira/go-catalog-crawler/config"
	"github.com/gocolly/colly/v2"
)

// PageFetcher is the traversal driver's view of the fetcher.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// FetchStats is a snapshot of the fetcher's counters.
type FetchStats struct {
	Requests int64
	Retries  int64
	Errors   int64
}

// Fetcher issues one logical GET per call with bounded retries. The colly
// collector is the session for one crawl run: it owns the cookie jar, the
// keep-alive transport, and the request timeout.
type Fetcher struct {
	cfg       *config.Config
	collector *colly.Collector
	transport *http.Transport
	waiter    Waiter
	metrics   *Metrics

	requests int64
	retries  int64
	errors   int64

	// one attempt in flight at a time; the collector handlers write here
	mu         sync.Mutex
	lastBody   string
	lastStatus int
	lastErr    error
}

// NewFetcher builds a fetcher configured from cfg.
func NewFetcher(cfg *config.Config, waiter Waiter, metrics *Metrics) (*Fetcher, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Host),
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = !cfg.RespectRobotsTxt
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	collector.WithTransport(transport)

	f := &Fetcher{
		cfg:       cfg,
		collector: collector,
		transport: transport,
		waiter:    waiter,
		metrics:   metrics,
	}
	f.configureHandlers()
	return f, nil
}

func (f *Fetcher) configureHandlers() {
	f.collector.OnRequest(func(r *colly.Request) {
		for k, v := range f.cfg.Headers {
			r.Headers.Set(k, v)
		}
		r.Ctx.Put("start", time.Now())
	})

	f.collector.OnResponse(func(r *colly.Response) {
		f.lastStatus = r.StatusCode
		f.lastBody = string(r.Body)
		if f.metrics != nil {
			if start, ok := r.Request.Ctx.GetAny("start").(time.Time); ok {
				f.metrics.ObserveDuration(time.Since(start))
			}
		}
	})

	f.collector.OnError(func(r *colly.Response, err error) {
		f.lastErr = err
		if r != nil && r.StatusCode != 0 {
			f.lastStatus = r.StatusCode
		}
	})
}

// Fetch performs up to MaxRetries attempts against pageURL and returns the
// response body of the first 200. A status outside the retryable set fails
// immediately; retryable statuses and network errors wait a randomized
// politeness delay and try again.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	if pageURL == "" {
		return "", fmt.Errorf("fetch: empty URL")
	}

	var lastErr error
	for attempt := 1; attempt <= f.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		atomic.AddInt64(&f.requests, 1)
		f.metrics.IncRequest("started")

		body, status, err := f.attempt(pageURL)
		if err == nil && status == http.StatusOK {
			return body, nil
		}

		if err == nil {
			if !f.cfg.RetryableStatus(status) {
				bad := &BadStatusError{URL: pageURL, Status: status}
				f.recordError(bad)
				slog.Error("fetch failed",
					slog.String("url", pageURL),
					slog.Int("status", status),
					slog.Int("attempt", attempt),
				)
				return "", bad
			}
			lastErr = fmt.Errorf("status %d", status)
			slog.Warn("retryable status",
				slog.String("url", pageURL),
				slog.Int("status", status),
				slog.String("attempt", fmt.Sprintf("%d/%d", attempt, f.cfg.MaxRetries)),
			)
			f.metrics.IncError("retryable_status")
		} else {
			lastErr = classifyNetError(err)
			slog.Warn("request error",
				slog.String("url", pageURL),
				slog.String("category", errorTypeLabel(lastErr)),
				slog.Any("error", err),
				slog.String("attempt", fmt.Sprintf("%d/%d", attempt, f.cfg.MaxRetries)),
			)
			f.metrics.IncError(errorTypeLabel(lastErr))
		}

		if attempt < f.cfg.MaxRetries {
			atomic.AddInt64(&f.retries, 1)
			f.metrics.IncRetries()
			f.waiter.Wait(ctx, f.cfg.MinDelay, f.cfg.MaxDelay)
		}
	}

	exhausted := &ExhaustedError{URL: pageURL, Attempts: f.cfg.MaxRetries, Last: lastErr}
	f.recordError(exhausted)
	slog.Error("fetch exhausted",
		slog.String("url", pageURL),
		slog.Int("attempts", f.cfg.MaxRetries),
		slog.Any("error", lastErr),
	)
	return "", exhausted
}

// attempt issues a single request through the collector and returns
// whatever the handlers captured.
func (f *Fetcher) attempt(pageURL string) (string, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastBody = ""
	f.lastStatus = 0
	f.lastErr = nil

	if err := f.collector.Visit(pageURL); err != nil && f.lastErr == nil {
		f.lastErr = err
	}
	return f.lastBody, f.lastStatus, f.lastErr
}

// Stats returns a snapshot of the request counters.
func (f *Fetcher) Stats() FetchStats {
	return FetchStats{
		Requests: atomic.LoadInt64(&f.requests),
		Retries:  atomic.LoadInt64(&f.retries),
		Errors:   atomic.LoadInt64(&f.errors),
	}
}

// Close releases the session's idle connections. Called once per crawl run,
// on both normal completion and early termination.
func (f *Fetcher) Close() {
	f.transport.CloseIdleConnections()
}

func (f *Fetcher) recordError(err error) {
	atomic.AddInt64(&f.errors, 1)
	f.metrics.IncError(errorTypeLabel(err))
}

func classifyNetError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}
	return err
}
