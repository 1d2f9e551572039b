package otel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/setuphub/setuphub/internal/config"
)

const (
	defaultServiceName  = "setuphub"
	defaultExportPeriod = 5 * time.Second
	shutdownTimeout     = 5 * time.Second
)

// ErrDisabled is returned by NewProvider when log export is switched off
var ErrDisabled = errors.New("otel log export is disabled")

// Provider owns the OTLP log pipeline that the zap tee writes into
type Provider struct {
	cfg         config.OTELConfig
	logProvider *sdklog.LoggerProvider
	logger      log.Logger
}

// NewProvider builds the exporter and batch processor for cfg. version is
// recorded as the service.version resource attribute.
func NewProvider(ctx context.Context, cfg config.OTELConfig, version string) (*Provider, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = defaultServiceName
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(version),
			attribute.String("deployment.environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build otel resource: %w", err)
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create otlp exporter: %w", err)
	}

	lp := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter,
			sdklog.WithExportInterval(defaultExportPeriod),
		)),
	)

	return &Provider{
		cfg:         cfg,
		logProvider: lp,
		logger:      lp.Logger(cfg.ServiceName),
	}, nil
}

func newExporter(ctx context.Context, cfg config.OTELConfig) (sdklog.Exporter, error) {
	if cfg.UseHTTP {
		opts := []otlploghttp.Option{otlploghttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlploghttp.WithInsecure())
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlploghttp.WithHeaders(cfg.Headers))
		}
		return otlploghttp.New(ctx, opts...)
	}

	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.Endpoint)}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlploggrpc.WithHeaders(cfg.Headers))
	}
	if cfg.Insecure {
		conn, err := grpc.NewClient(cfg.Endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, fmt.Errorf("failed to dial otel collector: %w", err)
		}
		opts = append(opts, otlploggrpc.WithGRPCConn(conn))
	}
	return otlploggrpc.New(ctx, opts...)
}

// Logger returns the OTEL logger records are emitted to
func (p *Provider) Logger() log.Logger {
	return p.logger
}

// ServiceName is the name the provider reports under
func (p *Provider) ServiceName() string {
	return p.cfg.ServiceName
}

// ForceFlush exports everything still buffered
func (p *Provider) ForceFlush(ctx context.Context) error {
	if p == nil || p.logProvider == nil {
		return nil
	}
	return p.logProvider.ForceFlush(ctx)
}

// Shutdown flushes and stops the pipeline
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.logProvider == nil {
		return nil
	}
	return p.logProvider.Shutdown(ctx)
}

// Close lets the provider be handed to the logger as an io.Closer
func (p *Provider) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return p.Shutdown(ctx)
}
