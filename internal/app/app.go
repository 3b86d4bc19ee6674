package app

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awspricing "github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/santoshpalla27/cloud-economics/api"
	"github.com/santoshpalla27/cloud-economics/db/clickhouse"
	"github.com/santoshpalla27/cloud-economics/internal/estimation"
	"github.com/santoshpalla27/cloud-economics/internal/pricing"
	"github.com/santoshpalla27/cloud-economics/internal/telemetry"
	"github.com/santoshpalla27/cloud-economics/pkg/platform"
)

// App holds the wired service components.
type App struct {
	Config     Config
	Logger     zerolog.Logger
	Registry   *prometheus.Registry
	Metrics    *platform.Metrics
	Lookup     *pricing.Lookup
	Calculator *estimation.Calculator
	Simple     *estimation.SimpleEstimator
	Instances  *telemetry.InstanceMetrics

	closers []func() error
}

// Build validates cfg and constructs every client once. AWS credentials are
// resolved by the SDK default chain.
func Build(ctx context.Context, cfg Config, logger zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	policy, err := pricing.ParsePolicy(cfg.PricingPolicy)
	if err != nil {
		return nil, err
	}
	cal, err := estimation.LoadCalibration(cfg.CalibrationFile)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := platform.NewMetrics(reg)

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if cfg.AWSProfile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.AWSProfile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: reg,
		Metrics:  metrics,
	}

	var catalog pricing.Catalog
	switch cfg.CatalogBackend {
	case BackendClickHouse:
		chCfg := cfg.ClickHouse
		store, err := clickhouse.NewStore(&chCfg, logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		catalog = store
	default:
		client := awspricing.NewFromConfig(awsCfg, func(o *awspricing.Options) {
			o.Region = cfg.PricingAPIRegion
		})
		catalog = pricing.NewAWSCatalog(client, logger)
	}

	a.Lookup = pricing.NewLookup(catalog, pricing.LookupConfig{
		Policy:   policy,
		Currency: cfg.PricingCurrency,
		Timeout:  cfg.CallTimeout,
	}, metrics, logger)
	a.Calculator = estimation.NewCalculator(a.Lookup, cal, logger)
	a.Simple = estimation.NewSimpleEstimator()

	fetcher := telemetry.NewFetcher(cloudwatch.NewFromConfig(awsCfg), cfg.CallTimeout, metrics, logger)
	a.Instances = telemetry.NewInstanceMetrics(fetcher)

	logger.Info().
		Str("catalog_backend", cfg.CatalogBackend).
		Str("aws_region", cfg.AWSRegion).
		Str("pricing_policy", policy.String()).
		Dur("call_timeout", cfg.CallTimeout).
		Msg("application wired")

	return a, nil
}

// Server returns an HTTP server over the wired components.
func (a *App) Server() *api.Server {
	serverCfg := api.DefaultConfig()
	serverCfg.Addr = a.Config.Addr
	serverCfg.CORSOrigins = a.Config.CORSOrigins
	serverCfg.Version = a.Config.Version

	return api.NewServer(serverCfg, api.Deps{
		Simple:    a.Simple,
		Compiler:  a.Calculator,
		Instances: a.Instances,
		Metrics:   a.Metrics,
		Gatherer:  a.Registry,
		Logger:    a.Logger,
	})
}

// Close releases backend connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
