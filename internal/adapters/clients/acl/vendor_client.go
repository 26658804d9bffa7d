package acl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jsamuelsen/aquote/internal/adapters/clients"
	"github.com/jsamuelsen/aquote/internal/domain"
	"github.com/jsamuelsen/aquote/internal/platform/logging"
)

// maxBodyBytes bounds the response body read from a vendor.
const maxBodyBytes = 1 << 20

// Field names used in extraction errors.
const (
	FieldQuote  = "quote"
	FieldAuthor = "author"
	FieldURL    = "URL"
)

// VendorClientConfig configures a VendorClient.
type VendorClientConfig struct {
	// Client performs the HTTP requests. Required.
	Client *clients.Client

	// Engine evaluates field queries. Defaults to a JSONPathEngine.
	Engine QueryEngine

	// Logger is an optional logger. If nil, slog.Default is used.
	Logger *slog.Logger
}

// VendorClient fetches quotes from configured vendors.
// It is safe for concurrent use.
type VendorClient struct {
	client *clients.Client
	engine QueryEngine
	logger *slog.Logger
}

// NewVendorClient creates a vendor client. It panics if cfg.Client is nil.
func NewVendorClient(cfg VendorClientConfig) *VendorClient {
	if cfg.Client == nil {
		panic("acl: VendorClientConfig.Client is required")
	}

	engine := cfg.Engine
	if engine == nil {
		engine = NewJSONPathEngine()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &VendorClient{
		client: cfg.Client,
		engine: engine,
		logger: logger.With(slog.String("component", "acl.VendorClient")),
	}
}

// Fetch retrieves one quote from vendor with a single GET request.
// The quote is stamped with vendorKey and fetchTime (in UTC).
func (c *VendorClient) Fetch(ctx context.Context, vendorKey string, vendor domain.Vendor, fetchTime time.Time) (*domain.Quote, error) {
	logger := c.logger.With(slog.String("vendor", vendorKey))

	body, err := c.get(ctx, vendorKey, vendor.Endpoint)
	if err != nil {
		return nil, err
	}

	logger.Log(ctx, logging.LevelTrace, "vendor response", slog.String("body", string(body)))

	quote, err := c.translate(vendorKey, vendor.Queries, body)
	if err != nil {
		return nil, err
	}

	quote.VendorKey = vendorKey
	quote.FetchTime = fetchTime.UTC()

	logger.DebugContext(ctx, "quote fetched", slog.String("author", quote.Author))

	return quote, nil
}

func (c *VendorClient) get(ctx context.Context, vendorKey, endpoint string) ([]byte, error) {
	resp, err := c.client.Get(ctx, endpoint)
	if err != nil {
		return nil, requestError(vendorKey, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, statusError(vendorKey, resp)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, domain.NewTransportError(vendorKey, "reading response body", err)
	}

	return body, nil
}

// translate builds a quote from a vendor response. Either every field is
// extracted or an error is returned.
func (c *VendorClient) translate(vendorKey string, queries domain.VendorQueries, body []byte) (*domain.Quote, error) {
	doc, err := ParseDocument(body)
	if err != nil {
		return nil, domain.NewExtractionError(vendorKey, "response", err)
	}

	text, err := Extract[string](c.engine, queries.Quote, doc)
	if err != nil {
		return nil, domain.NewExtractionError(vendorKey, FieldQuote, err)
	}

	author, err := Extract[string](c.engine, queries.Author, doc)
	if err != nil {
		return nil, domain.NewExtractionError(vendorKey, FieldAuthor, err)
	}

	var url *string
	if queries.URL != "" {
		url, err = Extract[*string](c.engine, queries.URL, doc)
		if err != nil {
			return nil, domain.NewExtractionError(vendorKey, FieldURL, err)
		}
	}

	return &domain.Quote{
		Text:   text,
		Author: author,
		URL:    url,
	}, nil
}

// VendorProbe checks that a vendor answers with an extractable quote.
// It implements ports.HealthChecker.
type VendorProbe struct {
	client *VendorClient
	key    string
	vendor domain.Vendor
}

// NewVendorProbe creates a health probe for the vendor configured under key.
func NewVendorProbe(client *VendorClient, key string, vendor domain.Vendor) *VendorProbe {
	return &VendorProbe{client: client, key: key, vendor: vendor}
}

// Name returns the vendor key.
func (p *VendorProbe) Name() string {
	return p.key
}

// Check performs a full fetch and discards the quote.
func (p *VendorProbe) Check(ctx context.Context) error {
	if _, err := p.client.Fetch(ctx, p.key, p.vendor, time.Now()); err != nil {
		return fmt.Errorf("probing vendor: %w", err)
	}

	return nil
}
