// cloudecon - cloud economics CLI
//
// Usage:
//
//	cloudecon serve --port 8000
//	cloudecon estimate simple --users 100 --capacity 10
//	cloudecon estimate compiled --users 100 --capacity 10 [--region "US East (N. Virginia)"]
//	cloudecon metrics --instance-id i-0123456789abcdef0
//	cloudecon price --service-code AmazonEC2 --filter instanceType=c5a.4xlarge
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/santoshpalla27/cloud-economics/api"
	"github.com/santoshpalla27/cloud-economics/internal/app"
	"github.com/santoshpalla27/cloud-economics/internal/estimation"
	"github.com/santoshpalla27/cloud-economics/internal/pricing"
	contracts "github.com/santoshpalla27/cloud-economics/pkg/api"
	"github.com/santoshpalla27/cloud-economics/pkg/platform"
	"github.com/santoshpalla27/cloud-economics/pkg/units"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := platform.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	defaults := app.DefaultConfig()

	return &cli.App{
		Name:    "cloudecon",
		Usage:   "SaaS cloud economics: cost estimates and instance telemetry",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   defaults.LogLevel,
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "env",
				Value:   defaults.Env,
				Usage:   "Runtime environment; development enables console logging",
				EnvVars: []string{"ENV"},
			},
			&cli.StringFlag{
				Name:    "aws-region",
				Value:   defaults.AWSRegion,
				Usage:   "AWS region for CloudWatch",
				EnvVars: []string{"AWS_DEFAULT_REGION"},
			},
			&cli.StringFlag{
				Name:    "aws-profile",
				Usage:   "Shared AWS config profile",
				EnvVars: []string{"AWS_PROFILE"},
			},
			&cli.StringFlag{
				Name:    "pricing-api-region",
				Value:   defaults.PricingAPIRegion,
				Usage:   "Region of the AWS Price List endpoint",
				EnvVars: []string{"PRICING_API_REGION"},
			},
			&cli.StringFlag{
				Name:    "catalog-backend",
				Value:   defaults.CatalogBackend,
				Usage:   "Price catalog backend (aws, clickhouse)",
				EnvVars: []string{"CATALOG_BACKEND"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-host",
				Value:   defaults.ClickHouse.Host,
				Usage:   "ClickHouse host",
				EnvVars: []string{"CLICKHOUSE_HOST"},
			},
			&cli.IntFlag{
				Name:    "clickhouse-port",
				Value:   defaults.ClickHouse.Port,
				Usage:   "ClickHouse native port",
				EnvVars: []string{"CLICKHOUSE_PORT"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-database",
				Value:   defaults.ClickHouse.Database,
				Usage:   "ClickHouse database",
				EnvVars: []string{"CLICKHOUSE_DATABASE"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-user",
				Value:   defaults.ClickHouse.Username,
				Usage:   "ClickHouse user",
				EnvVars: []string{"CLICKHOUSE_USER"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-password",
				Usage:   "ClickHouse password",
				EnvVars: []string{"CLICKHOUSE_PASSWORD"},
			},
			&cli.StringFlag{
				Name:    "calibration-file",
				Usage:   "YAML file overriding the compiled cost model",
				EnvVars: []string{"CALIBRATION_FILE"},
			},
			&cli.StringFlag{
				Name:    "pricing-policy",
				Value:   defaults.PricingPolicy,
				Usage:   "How matching catalog prices are combined (sum, first, cheapest)",
				EnvVars: []string{"PRICING_POLICY"},
			},
			&cli.StringFlag{
				Name:    "pricing-currency",
				Value:   defaults.PricingCurrency,
				Usage:   "Catalog currency",
				EnvVars: []string{"PRICING_CURRENCY"},
			},
			&cli.DurationFlag{
				Name:    "call-timeout",
				Value:   defaults.CallTimeout,
				Usage:   "Timeout of each catalog or CloudWatch call",
				EnvVars: []string{"CALL_TIMEOUT"},
			},
		},

		Commands: []*cli.Command{
			serveCommand(),
			estimateCommand(),
			metricsCommand(),
			priceCommand(),
		},
	}
}

// configFromFlags builds the application config from global flags.
func configFromFlags(c *cli.Context) app.Config {
	cfg := app.DefaultConfig()
	cfg.Version = version
	cfg.LogLevel = c.String("log-level")
	cfg.Env = c.String("env")
	cfg.AWSRegion = c.String("aws-region")
	cfg.AWSProfile = c.String("aws-profile")
	cfg.PricingAPIRegion = c.String("pricing-api-region")
	cfg.CatalogBackend = c.String("catalog-backend")
	cfg.ClickHouse.Host = c.String("clickhouse-host")
	cfg.ClickHouse.Port = c.Int("clickhouse-port")
	cfg.ClickHouse.Database = c.String("clickhouse-database")
	cfg.ClickHouse.Username = c.String("clickhouse-user")
	cfg.ClickHouse.Password = c.String("clickhouse-password")
	cfg.CalibrationFile = c.String("calibration-file")
	cfg.PricingPolicy = c.String("pricing-policy")
	cfg.PricingCurrency = c.String("pricing-currency")
	cfg.CallTimeout = c.Duration("call-timeout")
	return cfg
}

func loggerFor(cfg app.Config) zerolog.Logger {
	return platform.InitLogger(cfg.LogLevel, cfg.Development())
}

func buildApp(c *cli.Context) (*app.App, error) {
	cfg := configFromFlags(c)
	return app.Build(c.Context, cfg, loggerFor(cfg))
}

// =============================================================================
// SERVE COMMAND
// =============================================================================

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Value:   8000,
				Usage:   "Listen port",
				EnvVars: []string{"PORT"},
			},
			&cli.StringSliceFlag{
				Name:    "cors-origin",
				Value:   cli.NewStringSlice(app.DefaultConfig().CORSOrigins...),
				Usage:   "Allowed CORS origin (repeatable)",
				EnvVars: []string{"CORS_ALLOWED_ORIGINS"},
			},
		},
		Action: func(c *cli.Context) error {
			cfg := configFromFlags(c)
			cfg.Addr = fmt.Sprintf(":%d", c.Int("port"))
			cfg.CORSOrigins = c.StringSlice("cors-origin")

			a, err := app.Build(c.Context, cfg, loggerFor(cfg))
			if err != nil {
				return err
			}
			defer a.Close()

			return a.Server().Run(c.Context)
		},
	}
}

// =============================================================================
// ESTIMATE COMMAND
// =============================================================================

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "table",
		Usage:   "Output format (table, json)",
	}
}

func sizingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:     "users",
			Aliases:  []string{"u"},
			Usage:    "Expected concurrent users",
			Required: true,
		},
		&cli.IntFlag{
			Name:     "capacity",
			Aliases:  []string{"c"},
			Usage:    "Users served by one instance",
			Required: true,
		},
	}
}

func estimateCommand() *cli.Command {
	return &cli.Command{
		Name:  "estimate",
		Usage: "Estimate monthly cost for a user load",
		Subcommands: []*cli.Command{
			{
				Name:  "simple",
				Usage: "Closed-form estimate without catalog access",
				Flags: append(sizingFlags(),
					&cli.Float64Flag{Name: "rds-cost", Value: estimation.DefaultRDSCost, Usage: "Monthly database cost"},
					&cli.Float64Flag{Name: "nat-cost", Value: estimation.DefaultNATCost, Usage: "Monthly NAT gateway cost"},
					&cli.Float64Flag{Name: "lb-cost", Value: estimation.DefaultLBCost, Usage: "Monthly load balancer cost"},
					&cli.Float64Flag{Name: "shield-cost", Value: estimation.DefaultShieldCost, Usage: "Monthly shield cost"},
					formatFlag(),
				),
				Action: runEstimateSimple,
			},
			{
				Name:  "compiled",
				Usage: "Catalog-backed breakdown with client price and profit",
				Flags: append(sizingFlags(),
					&cli.StringFlag{Name: "region", Value: contracts.DefaultRegion, Usage: "Region label"},
					formatFlag(),
				),
				Action: runEstimateCompiled,
			},
		},
	}
}

func runEstimateSimple(c *cli.Context) error {
	in := estimation.NewSimpleInput(c.Int("users"), c.Int("capacity"))
	in.RDSCost = c.Float64("rds-cost")
	in.NATCost = c.Float64("nat-cost")
	in.LBCost = c.Float64("lb-cost")
	in.ShieldCost = c.Float64("shield-cost")

	est, err := estimation.NewSimpleEstimator().Estimate(in)
	if err != nil {
		return err
	}

	if c.String("format") == "json" {
		return outputJSON(c.App.Writer, contracts.SimpleCostResponse{
			Users:           est.Users,
			InstancesNeeded: est.InstancesNeeded,
			TotalCost:       est.TotalCost,
		})
	}
	return outputSimpleTable(c.App.Writer, est)
}

func runEstimateCompiled(c *cli.Context) error {
	a, err := buildApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	b, err := a.Calculator.Compile(c.Context, c.Int("users"), c.Int("capacity"), c.String("region"))
	if err != nil {
		return err
	}

	if c.String("format") == "json" {
		return outputJSON(c.App.Writer, api.NewCompiledCostResponse(b))
	}
	return outputCompiledTable(c.App.Writer, b)
}

// =============================================================================
// METRICS COMMAND
// =============================================================================

func metricsCommand() *cli.Command {
	return &cli.Command{
		Name:  "metrics",
		Usage: "Show the last 7 days of hourly CloudWatch statistics for an instance",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "instance-id",
				Aliases:  []string{"i"},
				Usage:    "EC2 instance id",
				Required: true,
			},
			formatFlag(),
		},
		Action: func(c *cli.Context) error {
			a, err := buildApp(c)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.Instances.Collect(c.Context, c.String("instance-id"))
			if err != nil {
				return err
			}

			return outputMetrics(c.App.Writer, c.String("format"), report)
		},
	}
}

// =============================================================================
// PRICE COMMAND
// =============================================================================

func priceCommand() *cli.Command {
	return &cli.Command{
		Name:  "price",
		Usage: "Resolve one aggregate on-demand price from the catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "service-code",
				Aliases:  []string{"s"},
				Usage:    "Catalog service code, e.g. AmazonEC2",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:  "filter",
				Usage: "Attribute filter as key=value (repeatable)",
			},
			&cli.StringFlag{
				Name:  "region",
				Value: contracts.DefaultRegion,
				Usage: "Region label",
			},
		},
		Action: func(c *cli.Context) error {
			filters, err := parseFilters(c.StringSlice("filter"))
			if err != nil {
				return err
			}

			a, err := buildApp(c)
			if err != nil {
				return err
			}
			defer a.Close()

			price, err := a.Lookup.LookupPrice(c.Context, c.String("service-code"), c.String("region"), filters)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(c.App.Writer, "%s %s\n", c.String("service-code"), units.FormatUSD(price, 6))
			return err
		},
	}
}

// parseFilters turns key=value pairs into catalog filters.
func parseFilters(pairs []string) (pricing.Filters, error) {
	filters := pricing.Filters{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q, want key=value", pair)
		}
		if _, dup := filters[key]; dup {
			return nil, fmt.Errorf("duplicate filter key %q", key)
		}
		filters[key] = strings.TrimSpace(value)
	}
	return filters, nil
}
