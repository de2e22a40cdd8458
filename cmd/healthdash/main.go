package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"healthdash/config"
	"healthdash/dashboard"
	"healthdash/etl"
	"healthdash/logger"
	"healthdash/warehouse"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type app struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "healthdash",
		Short:         "Healthcare analytics: star-schema ETL, warehouse loader and dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file (optional)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format: json or console")

	root.AddCommand(a.buildCmd(), a.loadCmd(), a.serveCmd())
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "healthdash")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.cfg = cfg
	a.log = log
	return nil
}

func (a *app) buildCmd() *cobra.Command {
	var (
		extract    string
		outDir     string
		parquetToo bool
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Clean a raw extract and write the star-schema artifacts",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			start := time.Now()
			ex, err := etl.ReadExtract(extract)
			if err != nil {
				return err
			}
			schema, report, err := etl.Build(ex, a.log)
			if err != nil {
				return err
			}
			paths, err := etl.WriteArtifacts(outDir, schema, parquetToo)
			if err != nil {
				return err
			}
			a.log.Info("artifacts written",
				zap.String("dir", outDir),
				zap.Int("files", len(paths)),
				zap.Int("anomalies", len(report.Anomalies)),
				zap.Duration("elapsed", time.Since(start)),
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&extract, "extract", "", "Raw extract CSV (required)")
	cmd.Flags().StringVar(&outDir, "out", "data", "Output directory for cleaned artifacts")
	cmd.Flags().BoolVar(&parquetToo, "parquet", false, "Also write Parquet artifacts")
	_ = cmd.MarkFlagRequired("extract")
	return cmd
}

func (a *app) loadCmd() *cobra.Command {
	var (
		dir    string
		format string
	)
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Create the warehouse tables and bulk-load the cleaned artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.log.Info("loading warehouse", zap.Any("warehouse", a.cfg.Warehouse.Redacted()))
			counts, err := warehouse.Load(cmd.Context(), a.cfg.Warehouse, dir, etl.Format(format), a.log)
			if err != nil {
				return err
			}
			for _, def := range etl.Tables {
				fmt.Printf("%-22s %8d rows\n", def.Name, counts[def.Name])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "data", "Directory holding the cleaned artifacts")
	cmd.Flags().StringVar(&format, "format", string(etl.FormatCSV), "Artifact format: csv or parquet")
	return cmd
}

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the analytics dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	metrics := dashboard.NewMetrics()
	exec, err := warehouse.NewExecutor(a.cfg.Warehouse,
		warehouse.WithLogger(a.log.Named("executor")),
		warehouse.WithObserver(metrics),
	)
	if err != nil {
		return err
	}
	srv := dashboard.NewServer(dashboard.NewDispatcher(exec, a.log.Named("dispatch")), metrics, a.log.Named("http"))

	httpSrv := &http.Server{
		Addr:         a.cfg.Server.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  a.cfg.Server.ReadTimeout(),
		WriteTimeout: a.cfg.Server.WriteTimeout(),
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		a.log.Info("shutting down dashboard")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	a.log.Info("dashboard listening",
		zap.String("addr", a.cfg.Server.Addr),
		zap.String("driver", a.cfg.Warehouse.Driver),
	)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
