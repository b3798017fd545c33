package command

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/authsession-go/internal/cli/config"
	"github.com/yndnr/authsession-go/internal/cli/output"
	"github.com/yndnr/authsession-go/internal/connection"
	"github.com/yndnr/authsession-go/internal/core/service"
	"github.com/yndnr/authsession-go/internal/core/token"
	"github.com/yndnr/authsession-go/internal/infra/tlsroots"
	"github.com/yndnr/authsession-go/internal/storage"
	"github.com/yndnr/authsession-go/internal/telemetry/logger"
	"github.com/yndnr/authsession-go/internal/telemetry/metric"
)

const runtimeKey = "runtime"

// runtime holds the components a command works with.
type runtime struct {
	cfg       *config.CLIConfig
	log       logger.Logger
	store     storage.TokenStore
	inspector *token.Inspector
	session   *service.Session
	pipeline  *service.Pipeline
	certs     *tlsroots.CertWatcher // nil without a client certificate
	metrics   *metric.Registry
	formatter output.Formatter
	out       io.Writer
}

// loadConfig resolves the configuration for c.
func loadConfig(c *cli.Context) (*config.CLIConfig, string, error) {
	path := c.String("config")
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.Load(path, flagOverrides(c))
	return cfg, path, err
}

// getRuntime builds the runtime on first use and restores the persisted
// session. Later calls within the same run return the same value.
func getRuntime(c *cli.Context) (*runtime, error) {
	if rt, ok := c.App.Metadata[runtimeKey].(*runtime); ok {
		return rt, nil
	}

	rt, err := newRuntime(c)
	if err != nil {
		return nil, err
	}
	c.App.Metadata[runtimeKey] = rt

	if err := rt.session.Bootstrap(rt.context(c)); err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	return rt, nil
}

func newRuntime(c *cli.Context) (*runtime, error) {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: errWriter(c),
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	logger.SetDefault(log)
	log.Debug("config loaded", "sources", cfg.Sources)

	httpCfg, certs, err := cfg.HTTPConfig(tlsroots.WithLogger(logger.Slog(log)))
	if err != nil {
		return nil, err
	}

	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg.StorageConfig(), logger.Slog(log))
	if err != nil {
		return nil, err
	}

	h := shutdownHandler(c)
	h.OnClose(store.Close)

	metrics := metric.NewRegistry()
	inspector := token.NewInspector()
	httpClient := connection.NewHTTPClient(httpCfg)
	client := connection.NewSessionClient(httpClient, store, log)

	session := service.NewSession(client, store, inspector,
		service.WithLogger(log),
		service.WithMetrics(metrics),
		service.WithSingleFlight(cfg.Refresh.SingleFlight),
	)
	pipeline := service.NewPipeline(httpClient, store, inspector, session,
		service.WithPipelineLogger(log),
		service.WithPipelineMetrics(metrics),
	)

	if path := cfg.Metrics.Textfile; path != "" {
		if err := metrics.Registerer().Register(metric.NewCollector(session.State)); err != nil {
			return nil, fmt.Errorf("register session collector: %w", err)
		}
		if err := storage.RegisterMetrics(store, metrics.Registerer()); err != nil {
			return nil, err
		}
		h.OnShutdown(func(context.Context) error {
			return metrics.WriteTextfile(path)
		})
	}

	log.Debug("runtime ready",
		"base_url", httpClient.BaseURL(),
		"store", cfg.Store.Backend,
		"single_flight", cfg.Refresh.SingleFlight,
	)

	return &runtime{
		cfg:       cfg,
		log:       log,
		store:     store,
		inspector: inspector,
		session:   session,
		pipeline:  pipeline,
		certs:     certs,
		metrics:   metrics,
		formatter: output.NewFormatter(format),
		out:       writer(c),
	}, nil
}

// context returns the command context carrying the runtime logger.
func (rt *runtime) context(c *cli.Context) context.Context {
	return logger.WithLogger(c.Context, rt.log)
}

// print renders data with the configured formatter.
func (rt *runtime) print(data any) error {
	return rt.formatter.Format(rt.out, data)
}

func writer(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

func errWriter(c *cli.Context) io.Writer {
	if c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}
