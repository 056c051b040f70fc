// Command correlate builds one correlation report from the stock price API
// and prints it as JSON or writes it as CSV or XLSX.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"stockpulse/internal/config"
	apierrors "stockpulse/internal/errors"
	"stockpulse/internal/exporter"
	"stockpulse/internal/infrastructure"
	"stockpulse/internal/services"
	"stockpulse/internal/stockapi"
	"stockpulse/pkg/contracts"
	"stockpulse/pkg/contracts/domain"
)

const formatJSON = "json"

type options struct {
	configFile string
	out        string
	format     string
	minutes    int
	limit      int
	symbols    []string
	noFallback bool
	version    bool
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	if opts.version {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	cfg, err := loadConfig(opts.configFile)
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// stdout carries the report
	if cfg.Logging.Output == "console" || cfg.Logging.Output == "both" {
		cfg.Logging.Output = "stderr"
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", slog.String("error", err.Error()))
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, cfg, os.Stdout, logger); err != nil {
		logger.Error("Correlation report failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFile(path)
	}
	if err != nil {
		return nil, apierrors.NewConfigError("load configuration", err).WithContext("path", path)
	}
	return cfg, nil
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var opts options
	var symbols string

	fs := flag.NewFlagSet("correlate", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.configFile, "config", "", "YAML config file (defaults to the standard search paths)")
	fs.StringVar(&opts.out, "out", "", "output file; empty prints to stdout")
	fs.StringVar(&opts.format, "format", "", "json | csv | xlsx (defaults to json on stdout, or from the -out extension)")
	fs.IntVar(&opts.minutes, "minutes", 0, "price window in minutes (defaults to analytics.default_minutes)")
	fs.IntVar(&opts.limit, "limit", 0, "number of directory symbols (defaults to analytics.symbol_limit)")
	fs.StringVar(&symbols, "symbols", "", "comma separated tickers; overrides -limit")
	fs.BoolVar(&opts.noFallback, "no-fallback", false, "fail instead of substituting synthetic data")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		err := fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
		fmt.Fprintln(output, err)
		return options{}, err
	}

	opts.symbols = splitSymbols(symbols)
	return opts, nil
}

func splitSymbols(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.ToUpper(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// resolveFormat picks the output format from the flag or the file extension
func resolveFormat(format, out string) (string, error) {
	if format == "" {
		if out == "" {
			return formatJSON, nil
		}
		format = strings.TrimPrefix(filepath.Ext(out), ".")
	}
	if strings.EqualFold(format, formatJSON) {
		return formatJSON, nil
	}
	f, err := exporter.ParseFormat(format)
	if err != nil {
		return "", err
	}
	return string(f), nil
}

func run(ctx context.Context, opts options, cfg *config.Config, stdout io.Writer, logger *slog.Logger) error {
	format, err := resolveFormat(opts.format, opts.out)
	if err != nil {
		return err
	}
	ctx = infrastructure.EnsureTraceID(ctx)
	if opts.noFallback {
		cfg.Fallback.Enabled = false
	}

	client := stockapi.NewClient(cfg.Upstream, stockapi.WithLogger(logger))
	service := services.NewStockService(cfg, client, stockapi.NewFallback(cfg.Fallback),
		services.WithServiceLogger(logger),
	)

	report, err := service.Correlations(ctx, services.CorrelationRequest{
		Minutes: opts.minutes,
		Limit:   opts.limit,
		Symbols: opts.symbols,
	})
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	if report.Source != domain.SourceUpstream {
		logger.WarnContext(ctx, "report contains synthetic prices", slog.String("source", string(report.Source)))
	}

	switch {
	case format == formatJSON && opts.out == "":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case format == formatJSON:
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(opts.out), 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		return os.WriteFile(opts.out, append(data, '\n'), 0o644)
	case opts.out == "":
		return exporter.Export(stdout, report, exporter.Format(format))
	default:
		if err := exporter.WriteFile(opts.out, report, exporter.Format(format)); err != nil {
			return err
		}
		logger.InfoContext(ctx, "correlation report written",
			slog.String("path", opts.out),
			slog.String("format", format),
			slog.Int("symbols", len(report.Symbols)))
		return nil
	}
}
