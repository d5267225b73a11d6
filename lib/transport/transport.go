// Package transport fetches pages over http for the scrapers and defines
// the failure kind used for every network or rendering fault.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"covid19-scrapers/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("covid19.lib.transport")

var ErrTransport = errors.New("transport failure")

// Error is a network or rendering fault. it is not retried by the
// scrapers, a caller may retry a whole run.
type Error struct {
	Op  string
	URL string
	// StatusCode is 0 when no response was received.
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("transport failure: %s %s", e.Op, e.URL)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %s", e.Err.Error())
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrTransport
}

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type ClientOptions struct {
	UserAgent string
	Timeout   time.Duration
	// routes requests through a round tripper that mimics a browser's tls
	// fingerprint and headers
	BypassCloudflare bool
	// if set, every http exchange is dumped to this output
	Dump restyutil.InstrumentOutput
}

type Client struct {
	http *resty.Client
}

func NewClient(opts ClientOptions) *Client {
	client := resty.New()

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	client.SetHeader("user-agent", userAgent)

	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	if opts.BypassCloudflare {
		client.SetTransport(cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport))
	}

	restyutil.InstrumentClient(client, otel.Tracer("covid19.lib.transport/http"), opts.Dump)

	return &Client{http: client}
}

// GetBody performs a GET request, any non-2xx response is a transport
// failure.
func (c *Client) GetBody(ctx context.Context, url string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "client:GetBody")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch")
		return nil, &Error{Op: "GET", URL: url, Err: err}
	}
	if res.IsError() {
		span.SetStatus(codes.Error, "non-2xx response")
		return nil, &Error{Op: "GET", URL: url, StatusCode: res.StatusCode()}
	}

	return res.Body(), nil
}

func (c *Client) GetHTML(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := c.GetBody(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("parse html from %s: %w", url, err)
	}
	return doc, nil
}
