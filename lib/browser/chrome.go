package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"covid19-scrapers/lib/transport"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("covid19.lib.browser")

const (
	DefaultNavigateTimeout = 60 * time.Second
	snapshotTimeout        = 10 * time.Second
)

type ChromeOptions struct {
	Headless bool
	// defaults to DefaultNavigateTimeout
	NavigateTimeout time.Duration
	// path to a chrome/chromium binary, if empty chromedp searches the
	// usual install locations
	ExecPath  string
	UserAgent string
}

// ChromeRenderer renders pages in a headless chrome driven over the
// devtools protocol.
type ChromeRenderer struct {
	opts ChromeOptions
}

func NewChromeRenderer(opts ChromeOptions) ChromeRenderer {
	return ChromeRenderer{opts: opts}
}

// bound derives a context from a session's browser context that also ends
// once ctx is done or timeout has passed.
func bound(session, ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	bounded, cancel := context.WithTimeout(session, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return bounded, func() {
		stop()
		cancel()
	}
}

func (r ChromeRenderer) navigateTimeout() time.Duration {
	if r.opts.NavigateTimeout > 0 {
		return r.opts.NavigateTimeout
	}
	return DefaultNavigateTimeout
}

func (r ChromeRenderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.Flag("headless", r.opts.Headless))
	if r.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.opts.ExecPath))
	}
	if r.opts.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(r.opts.UserAgent))
	}
	return opts
}

func (r ChromeRenderer) Render(ctx context.Context, url string) (Session, error) {
	ctx, span := tracer.Start(ctx, "chrome:Render")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	// the browser lives until the session is closed or ctx is cancelled
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, r.allocatorOptions()...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	s := &chromeSession{
		url: url,
		ctx: browserCtx,
		release: func() {
			err := chromedp.Cancel(browserCtx)
			if err != nil {
				slog.Warn("failed to close browser gracefully", "url", url, "err", err)
			}
			cancelBrowser()
			cancelAlloc()
		},
	}

	// the first run starts the browser, a timeout on it would kill the
	// browser along with the navigation
	err := chromedp.Run(browserCtx)
	if err != nil {
		s.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to start browser")
		return nil, &transport.Error{Op: "render", URL: url, Err: err}
	}

	navCtx, cancelNav := bound(browserCtx, ctx, r.navigateTimeout())
	defer cancelNav()
	err = chromedp.Run(navCtx, chromedp.Navigate(url))
	if err != nil {
		s.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to navigate")
		return nil, &transport.Error{Op: "render", URL: url, Err: err}
	}

	return s, nil
}

type chromeSession struct {
	url     string
	ctx     context.Context
	release func()
	once    sync.Once

	snapshot *DocumentSession
}

// textPresentExpr builds a javascript predicate that is true once an
// element matching selector contains text.
func textPresentExpr(selector, text string) string {
	return fmt.Sprintf(
		`Array.from(document.querySelectorAll(%s)).some((e) => e.textContent.includes(%s))`,
		strconv.Quote(selector),
		strconv.Quote(text),
	)
}

func (s *chromeSession) WaitUntilTextPresent(ctx context.Context, selector, text string, timeout time.Duration) error {
	ctx, span := tracer.Start(ctx, "chrome:WaitUntilTextPresent")
	defer span.End()

	waitCtx, cancel := bound(s.ctx, ctx, timeout)
	defer cancel()

	var present bool
	err := chromedp.Run(waitCtx, chromedp.Poll(
		textPresentExpr(selector, text),
		&present,
		chromedp.WithPollingInterval(250*time.Millisecond),
		chromedp.WithPollingTimeout(timeout),
	))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render did not finish")
		return &transport.Error{
			Op:  "wait",
			URL: s.url,
			Err: fmt.Errorf("%q did not appear in %s within %s: %w", text, selector, timeout, err),
		}
	}

	slog.DebugContext(ctx, "dashboard rendered", "url", s.url, "selector", selector, "text", text)
	return s.takeSnapshot(ctx)
}

// the live DOM of a dashboard keeps re-rendering after the first paint,
// element references into it go stale. queries run against a snapshot
// of the DOM taken once rendering is observed to be complete.
func (s *chromeSession) takeSnapshot(ctx context.Context) error {
	snapshotCtx, cancel := bound(s.ctx, ctx, snapshotTimeout)
	defer cancel()

	var html string
	err := chromedp.Run(snapshotCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	if err != nil {
		return &transport.Error{Op: "snapshot", URL: s.url, Err: err}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("parse rendered dom of %s: %w", s.url, err)
	}
	s.snapshot = NewDocumentSession(s.url, doc)
	slog.DebugContext(ctx, "took dom snapshot", "url", s.url, "bytes", len(html))
	return nil
}

func (s *chromeSession) FindElementsByClass(ctx context.Context, name string) ([]Element, error) {
	if s.snapshot == nil {
		err := s.takeSnapshot(ctx)
		if err != nil {
			return nil, err
		}
	}
	return s.snapshot.FindElementsByClass(ctx, name)
}

func (s *chromeSession) Close() error {
	s.once.Do(s.release)
	return nil
}
