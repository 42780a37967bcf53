package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/squadracorsepolito/bmsmon/api"
	"github.com/squadracorsepolito/bmsmon/catalog"
	"github.com/squadracorsepolito/bmsmon/config"
	"github.com/squadracorsepolito/bmsmon/connector"
	"github.com/squadracorsepolito/bmsmon/consumer"
	"github.com/squadracorsepolito/bmsmon/frame"
	"github.com/squadracorsepolito/bmsmon/internal"
	"github.com/squadracorsepolito/bmsmon/pipeline"
	"github.com/squadracorsepolito/bmsmon/questdb"
	"github.com/squadracorsepolito/bmsmon/rawlog"
	"github.com/squadracorsepolito/bmsmon/source"
	"github.com/squadracorsepolito/bmsmon/telemetry"
)

const shutdownTimeout = 5 * time.Second

// runCmd starts the monitor
func runCmd() *cobra.Command {
	var demoAtStart bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the monitor",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("demo") {
				cfg.Pipeline.DemoAtStart = demoAtStart
			}

			ctx, cancelCtx := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancelCtx()

			return run(ctx, cfg)
		},
	}

	cmd.Flags().BoolVar(&demoAtStart, "demo", false, "Start with demo mode enabled")
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := internal.NewLogger("cmd", "run")

	telCfg := cfg.TelemetryConfig()
	if telCfg.Enabled {
		providers, err := telemetry.Init(ctx, telCfg)
		if err != nil {
			return err
		}

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := providers.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to shutdown telemetry", err)
			}
		}()
	}

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	logger.Info("catalog loaded", "path", cfg.Catalog.Path, "signals", len(cat.Signals()))

	relay := connector.NewRelay[frame.Frame](cfg.Pipeline.MaxPending)
	defer relay.Close()

	board := consumer.NewBoard()
	plots := pipeline.NewPlotCache()

	pipe := pipeline.New(cat, relay, board, cfg.PipelineConfig())
	pipe.SetPlotSink(plots)

	qdbCfg := cfg.QuestDBConfig()
	if qdbCfg.Enabled {
		exporter := questdb.NewExporter(qdbCfg)

		if err := exporter.Init(ctx); err != nil {
			logger.Error("questdb export disabled", err, "address", qdbCfg.Address)
		} else {
			pipe.SetExporter(exporter)
			exporter.Start(ctx)

			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				exporter.Close(closeCtx)
			}()
		}
	}

	wg := &sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		pipe.Run(ctx)
	}()

	apiCfg := cfg.APIConfig()
	if apiCfg.Enabled {
		srv := api.NewServer(pipe, board, plots, cat)

		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := srv.ListenAndServe(ctx, apiCfg.Addr); err != nil {
				logger.Error("api server stopped", err)
			}
		}()
	}

	if err := connect(ctx, cfg, pipe, relay, wg); err != nil {
		logger.Warn("running without a live source", "reason", err)
	}

	<-ctx.Done()
	wg.Wait()

	logger.Info("stopped")

	return nil
}

// connect opens the live source and starts reading it.
// Failures are reported to the pipeline, which keeps running in demo or idle mode.
func connect(ctx context.Context, cfg *config.Config, pipe *pipeline.Pipeline, relay *connector.Relay[frame.Frame], wg *sync.WaitGroup) error {
	logger := internal.NewLogger("cmd", "source")

	src, err := source.Open(cfg.SourceConfig())
	if err != nil {
		if errors.Is(err, source.ErrDisabled) {
			return err
		}

		if cmdErr := pipe.ConnectFailed(ctx, err); cmdErr != nil {
			return cmdErr
		}
		return err
	}

	session := source.NewSession(src)
	if err := pipe.Connected(ctx, session.ID); err != nil {
		src.Close()
		return err
	}

	logger.Info("connected", "source", session.Source, "session_id", session.ID)

	var out connector.Connector[frame.Frame] = relay

	var rawWriter *rawlog.Writer
	rawCfg := cfg.RawLogConfig()
	if rawCfg.Enabled {
		rawWriter, err = rawlog.Open(rawCfg, session.Source, session.Started)
		if err != nil {
			logger.Error("raw log disabled", err)
		} else {
			out = source.Tap(relay, rawWriter, func(err error) {
				logger.Warn("failed to record frame", "reason", err)
			})

			wg.Add(1)
			go func() {
				defer wg.Done()
				rawWriter.Run(ctx)
			}()
		}
	}

	wg.Add(1)
	go func() {
		defer wg.Done()

		if err := src.Run(ctx, out); err != nil && ctx.Err() == nil {
			logger.Error("source stopped", err, "source", session.Source)
		}

		if err := src.Close(); err != nil {
			logger.Warn("failed to close source", "reason", err)
		}

		if rawWriter != nil {
			if err := rawWriter.Close(); err != nil {
				logger.Warn("failed to close raw log", "reason", err)
			}
		}

		if ctx.Err() == nil {
			if err := pipe.Disconnected(ctx); err != nil {
				logger.Warn("failed to report disconnection", "reason", err)
			}
		}
	}()

	return nil
}
