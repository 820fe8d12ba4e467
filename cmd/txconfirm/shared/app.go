// Package shared holds the state resolved by the root command and the helpers
// subcommands use to reach a node. It is imported by all command subpackages
// without creating import cycles.
package shared

import (
	"context"
	"fmt"
	"io"

	"cosmossdk.io/log"

	"github.com/altuslabsxyz/txconfirm/internal/config"
	"github.com/altuslabsxyz/txconfirm/internal/metrics"
	"github.com/altuslabsxyz/txconfirm/internal/output"
	"github.com/altuslabsxyz/txconfirm/pkg/network/substrate"
	"github.com/altuslabsxyz/txconfirm/pkg/txconfirm"
)

type appKey struct{}

// App is the per-invocation state built in the root command's pre-run.
type App struct {
	Config *config.EffectiveConfig
	Out    *output.Logger
	Logger log.Logger

	logCloser io.Closer
	metrics   *metrics.Metrics
}

// NewApp creates an App. logCloser may be nil.
func NewApp(cfg *config.EffectiveConfig, out *output.Logger, logger log.Logger, logCloser io.Closer) *App {
	return &App{Config: cfg, Out: out, Logger: logger, logCloser: logCloser}
}

// WithApp stores app in ctx.
func WithApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey{}, app)
}

// FromContext returns the App stored by the root command, or nil.
func FromContext(ctx context.Context) *App {
	app, _ := ctx.Value(appKey{}).(*App)
	return app
}

// AddressFormat returns the configured account rendering.
func (a *App) AddressFormat() (substrate.AddressFormat, error) {
	return substrate.NewAddressFormat(a.Config.AddressFormat.Value, uint16(a.Config.SS58Prefix.Value))
}

// Metrics returns the process metrics, starting the /metrics listener on
// first use when metrics_addr is configured. The listener stops with ctx.
func (a *App) Metrics(ctx context.Context) *metrics.Metrics {
	if a.metrics != nil {
		return a.metrics
	}
	a.metrics = metrics.New()
	if addr := a.Config.MetricsAddr.Value; addr != "" {
		go func() {
			if err := a.metrics.Serve(ctx, addr, a.Logger); err != nil {
				a.Logger.Error("metrics listener stopped", "addr", addr, "err", err)
			}
		}()
	}
	return a.metrics
}

// Dial connects to the configured endpoint. Connection setup is bounded by
// request_timeout; the returned client lives until Close.
func (a *App) Dial(ctx context.Context) (*txconfirm.Client, error) {
	format, err := a.AddressFormat()
	if err != nil {
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, a.Config.RequestTimeout.Value)
	defer cancel()

	endpoint := a.Config.Endpoint.Value
	if !a.Config.Endpoint.Source.IsExplicit() {
		a.Out.Debug("Using default endpoint %s", endpoint)
	}
	client, err := txconfirm.Dial(dialCtx, endpoint,
		txconfirm.WithLogger(a.Logger),
		txconfirm.WithAddressFormat(format),
		txconfirm.WithMaxRetries(a.Config.MaxRetries.Value),
		txconfirm.WithVerbose(a.Config.VerboseTx.Value),
		txconfirm.WithRecorder(a.Metrics(ctx)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}
	return client, nil
}

// RequestContext bounds a single node query by request_timeout.
func (a *App) RequestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.Config.RequestTimeout.Value)
}

// Close releases the log sink.
func (a *App) Close() error {
	if a.logCloser == nil {
		return nil
	}
	return a.logCloser.Close()
}
