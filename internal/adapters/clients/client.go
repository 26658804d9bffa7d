package clients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/aquote/internal/platform/logging"
)

const (
	instrumentationName = "github.com/jsamuelsen/aquote/internal/adapters/clients"

	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "aquote"

	// A CLI invocation talks to at most a couple of vendors, so the pool stays small.
	maxIdleConns    = 10
	idleConnTimeout = 90 * time.Second
)

// Config configures a Client.
type Config struct {
	// ServiceName labels the client's logs, spans and metrics.
	ServiceName string

	// Timeout bounds a single request including the body read.
	Timeout time.Duration

	UserAgent string

	// Transport replaces the default transport when set.
	Transport http.RoundTripper

	// Logger is used when the request context carries no logger.
	Logger *slog.Logger
}

// Client sends one GET per call to a quote vendor and reports each exchange
// as a span, two metric instruments and a debug log line. It never retries;
// retry policy belongs to the quote service.
type Client struct {
	http        *http.Client
	serviceName string
	userAgent   string
	logger      *slog.Logger
	tracer      trace.Tracer
	inst        *instruments
}

// New builds a Client from cfg, filling in defaults for unset fields.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	if cfg.ServiceName == "" {
		return nil, errors.New("service name is required")
	}

	inst, err := newInstruments(otel.Meter(instrumentationName))
	if err != nil {
		return nil, err
	}

	c := &Client{
		http: &http.Client{
			Timeout:   cmpDuration(cfg.Timeout, defaultTimeout),
			Transport: cfg.Transport,
		},
		serviceName: cfg.ServiceName,
		userAgent:   cfg.UserAgent,
		logger:      cfg.Logger,
		tracer:      otel.Tracer(instrumentationName),
		inst:        inst,
	}

	if c.http.Transport == nil {
		c.http.Transport = &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			MaxIdleConns:    maxIdleConns,
			IdleConnTimeout: idleConnTimeout,
		}
	}

	if c.userAgent == "" {
		c.userAgent = defaultUserAgent
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	c.logger = c.logger.With(slog.String("component", "clients.Client"))

	return c, nil
}

// Get requests rawURL, which must be absolute, asking for JSON. Every
// response that arrives is handed back, whatever its status; only a missing
// response is an error, and that error wraps ErrRequestFailed.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing url: %w", ErrInvalidURL, err)
	}

	if !target.IsAbs() {
		return nil, fmt.Errorf("%w: %q is not absolute", ErrInvalidURL, rawURL)
	}

	ctx, span := c.tracer.Start(ctx, "GET "+target.Host,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", http.MethodGet),
			attribute.String("http.url", target.String()),
			attribute.String("server.address", target.Host),
		),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	if id := RequestIDFromContext(ctx); id != "" {
		req.Header.Set(HeaderRequestID, id)
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	started := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(started)

	log := logging.FromContextOr(ctx, c.logger).With(
		slog.String("client", c.serviceName),
		slog.String("host", target.Host),
		slog.Duration("duration", elapsed),
	)

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		c.inst.record(ctx, target.Host, 0, elapsed)
		log.DebugContext(ctx, "vendor request failed", slog.Any("error", err))

		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, "HTTP "+strconv.Itoa(resp.StatusCode))
	}

	c.inst.record(ctx, target.Host, resp.StatusCode, elapsed)
	log.DebugContext(ctx, "vendor request completed", slog.Int("status", resp.StatusCode))

	return resp, nil
}

type instruments struct {
	duration metric.Float64Histogram
	total    metric.Int64Counter
}

func newInstruments(meter metric.Meter) (*instruments, error) {
	duration, err := meter.Float64Histogram("http.client.request.duration",
		metric.WithDescription("Duration of vendor HTTP requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration metric: %w", err)
	}

	total, err := meter.Int64Counter("http.client.request.total",
		metric.WithDescription("Vendor HTTP requests by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}

	return &instruments{duration: duration, total: total}, nil
}

// record tags a request by host and outcome. A zero status means no
// response arrived.
func (i *instruments) record(ctx context.Context, host string, status int, elapsed time.Duration) {
	result := "error"
	attrs := []attribute.KeyValue{attribute.String("server.address", host)}

	if status > 0 {
		result = strconv.Itoa(status/100) + "xx"
		attrs = append(attrs, attribute.Int("http.status_code", status))
	}

	opt := metric.WithAttributes(append(attrs, attribute.String("result", result))...)

	i.duration.Record(ctx, elapsed.Seconds(), opt)
	i.total.Add(ctx, 1, opt)
}

func cmpDuration(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}

	return d
}
