package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/shrinklab/minimize/internal/config"
	"github.com/shrinklab/minimize/internal/discover"
	"github.com/shrinklab/minimize/internal/driver"
	"github.com/shrinklab/minimize/internal/observability"
	"github.com/shrinklab/minimize/internal/passes/privatize"
	"github.com/shrinklab/minimize/internal/reduce"
	"github.com/shrinklab/minimize/internal/syntax"
	"github.com/shrinklab/minimize/internal/verify"
)

// knownPasses lists every pass this binary can register, used to validate
// config.PassesConfig.Order and to build the registered pass list in
// declared order (internal/driver.OrderPasses then respects DependsOn).
var knownPasses = map[string]func() reduce.Pass{
	privatize.Name: func() reduce.Pass { return privatize.New() },
}

// runOptions holds the run command's flags.
type runOptions struct {
	runLogPath  string
	metricsAddr string
}

// NewRunCommand builds the run subcommand.
func NewRunCommand() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run PROJECT_DIR",
		Short: "Run the configured reduction passes against a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runRun(args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.runLogPath, "run-log", "", "write a JSON run log to this path for the report command")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")

	return cmd
}

func runRun(projectDir string, opts *runOptions) error {
	cfg, err := loadConfig(projectDir)
	if err != nil {
		return err
	}

	if opts.metricsAddr != "" {
		cfg.Metrics.Addr = opts.metricsAddr
	}

	providers, err := observability.Init(observability.Config{
		ServiceName: "minimize",
		LogLevel:    logLevel(cfg),
		LogJSON:     cfg.Logging.Format == "json",
		MetricsAddr: cfg.Metrics.Addr,
		SampleRatio: cfg.Metrics.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("initializing observability: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	metrics, err := observability.NewPassMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}

	passes, err := buildPasses(cfg)
	if err != nil {
		return err
	}

	ordered, err := driver.OrderPasses(passes)
	if err != nil {
		return err
	}

	verifier := buildVerifier(cfg)

	registry := syntax.DefaultRegistry()

	d := driver.New(projectDir, registry, verifier, ordered, providers.Logger, providers.Tracer, metrics)

	before := projectBytes(projectDir, registry)

	runErr := d.RunPasses(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	_ = providers.Shutdown(shutdownCtx)

	if opts.runLogPath != "" {
		if logErr := d.Log.WriteJSON(opts.runLogPath); logErr != nil {
			providers.Logger.Error("writing run log", slog.Any("error", logErr))
		}
	}

	after := projectBytes(projectDir, registry)

	printSummary(before, after, runErr)

	return runErr
}

func loadConfig(projectDir string) (*config.Config, error) {
	names := make([]string, 0, len(knownPasses))
	for name := range knownPasses {
		names = append(names, name)
	}

	cfg, err := config.Load(configPath, projectDir, names)
	if err != nil {
		return nil, err
	}

	if len(cfg.Passes.Order) == 0 {
		cfg.Passes.Order = names
	}

	return cfg, nil
}

func logLevel(cfg *config.Config) slog.Level {
	if verbose {
		return slog.LevelDebug
	}

	switch cfg.Logging.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildPasses(cfg *config.Config) ([]reduce.Pass, error) {
	var passes []reduce.Pass

	for _, name := range cfg.Passes.Order {
		if !cfg.PassEnabled(name) {
			continue
		}

		factory, ok := knownPasses[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", config.ErrUnknownPass, name)
		}

		passes = append(passes, factory())
	}

	return passes, nil
}

func buildVerifier(cfg *config.Config) verify.Verifier {
	if cfg.Verifier.NoVerify {
		return verify.NoVerifyVerifier{}
	}

	return verify.NewCommandVerifier(cfg.Verifier.Command, cfg.Verifier.Args, cfg.Verifier.Timeout)
}

func projectBytes(projectDir string, registry *syntax.Registry) int64 {
	paths, err := discover.Files(projectDir, registry.Extensions())
	if err != nil {
		return 0
	}

	var total int64

	for _, p := range paths {
		if info, statErr := os.Stat(p); statErr == nil {
			total += info.Size()
		}
	}

	return total
}

func printSummary(before, after int64, runErr error) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRow(table.Row{"Before", humanize.Bytes(uint64(before))})
	t.AppendRow(table.Row{"After", humanize.Bytes(uint64(after))})

	reduced := before - after
	if reduced < 0 {
		reduced = 0
	}

	t.AppendRow(table.Row{"Reduced", humanize.Bytes(uint64(reduced))})

	status := color.GreenString("ok")
	if runErr != nil {
		status = color.RedString("failed: %s", runErr)
	}

	t.AppendRow(table.Row{"Status", status})
	t.Render()
}
