package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jsamuelsen/aquote/internal/domain"
	"github.com/jsamuelsen/aquote/internal/ports"
)

// defaultProbeConcurrency bounds parallel vendor checks.
const defaultProbeConcurrency = 4

// ErrNoProber is returned by CheckVendors when no prober is configured.
var ErrNoProber = errors.New("vendor checks are not configured")

// VendorService reports on the configured vendors. It never touches the
// quote history.
type VendorService struct {
	vendors      domain.VendorSet
	prober       ports.VendorProber
	probeLimit   int
	probeTimeout time.Duration
	logger       *slog.Logger
}

// VendorServiceConfig contains configuration for the vendor service.
type VendorServiceConfig struct {
	Vendors domain.VendorSet

	// Prober builds vendor health checks for CheckVendors. Optional.
	Prober ports.VendorProber

	// ProbeConcurrency bounds parallel checks. Defaults to 4.
	ProbeConcurrency int

	// ProbeTimeout bounds each check. Zero means no per-check timeout.
	ProbeTimeout time.Duration

	Logger *slog.Logger
}

// NewVendorService creates a vendor service from cfg.
func NewVendorService(cfg VendorServiceConfig) *VendorService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	limit := cfg.ProbeConcurrency
	if limit <= 0 {
		limit = defaultProbeConcurrency
	}

	return &VendorService{
		vendors:      cfg.Vendors,
		prober:       cfg.Prober,
		probeLimit:   limit,
		probeTimeout: cfg.ProbeTimeout,
		logger:       logger,
	}
}

// Vendors returns the configured vendor set.
func (s *VendorService) Vendors() domain.VendorSet {
	return s.vendors
}

// CheckVendors checks every enabled vendor concurrently. Individual vendor
// failures are reported in the result, not as an error.
func (s *VendorService) CheckVendors(ctx context.Context) (*ports.HealthResult, error) {
	if s.prober == nil {
		return nil, ErrNoProber
	}

	registry := ports.NewHealthRegistry(
		ports.WithConcurrency(s.probeLimit),
		ports.WithCheckTimeout(s.probeTimeout),
	)

	for _, key := range s.vendors.Enabled {
		vendor, ok := s.vendors.Lookup(key)
		if !ok {
			continue
		}

		if err := registry.Register(s.prober(key, vendor)); err != nil {
			return nil, fmt.Errorf("registering vendor check: %w", err)
		}
	}

	result := registry.CheckAll(ctx)

	s.logger.InfoContext(ctx, "vendor check completed",
		slog.String("status", string(result.Status)),
		slog.Int("vendors", len(result.Checks)),
	)

	return result, nil
}
