package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/aluiziolira/go-catalog-crawler/config"
	"github.com/aluiziolira/go-catalog-crawler/crawler"
	"github.com/aluiziolira/go-catalog-crawler/db"
	"github.com/aluiziolira/go-catalog-crawler/models"
	"github.com/aluiziolira/go-catalog-crawler/pipeline"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	defaultCfg := config.DefaultConfig()
	pagesDefault := defaultCfg.MaxPages
	if value, ok, err := config.EnvInt("CRAWLER_PAGES"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid CRAWLER_PAGES: %v\n", err)
		os.Exit(1)
	} else if ok {
		pagesDefault = value
	}
	retriesDefault := defaultCfg.MaxRetries
	if value, ok, err := config.EnvInt("CRAWLER_RETRIES"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid CRAWLER_RETRIES: %v\n", err)
		os.Exit(1)
	} else if ok {
		retriesDefault = value
	}
	priceLimitDefault := defaultCfg.PriceLimit
	if value, ok, err := config.EnvFloat("CRAWLER_PRICE_LIMIT"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid CRAWLER_PRICE_LIMIT: %v\n", err)
		os.Exit(1)
	} else if ok {
		priceLimitDefault = value
	}
	outputDefault := defaultCfg.OutputDir
	if value, ok := config.EnvString("CRAWLER_OUTPUT_DIR"); ok {
		outputDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("CRAWLER_METRICS_ADDR"); ok {
		metricsDefault = value
	}
	databaseURL, _ := config.EnvString("DATABASE_URL")

	baseURL := flag.String("base-url", defaultCfg.BaseURL, "Base URL of the catalog site")
	startPath := flag.String("start-path", defaultCfg.StartPath, "Catalog entry point, relative to the base URL")
	maxPages := flag.Int("pages", pagesDefault, "Maximum catalog pages to crawl")
	minDelayMs := flag.Int("min-delay", int(defaultCfg.MinDelay/time.Millisecond), "Minimum politeness delay (milliseconds)")
	maxDelayMs := flag.Int("max-delay", int(defaultCfg.MaxDelay/time.Millisecond), "Maximum politeness delay (milliseconds)")
	maxRetries := flag.Int("max-retries", retriesDefault, "Attempt budget per page fetch")
	timeoutSec := flag.Int("timeout", int(defaultCfg.Timeout/time.Second), "Per-request timeout (seconds)")
	respectRobots := flag.Bool("respect-robots", false, "Respect robots.txt directives")
	outputDir := flag.String("output-dir", outputDefault, "Directory for raw/clean/filtered output files")
	outputFormat := flag.String("format", defaultCfg.OutputFormat, "Clean output format: csv, json, or dual")
	priceLimit := flag.Float64("price-limit", priceLimitDefault, "Upper price bound for the sink subset")
	sinkTable := flag.String("sink-table", defaultCfg.SinkTable, "PostgreSQL table for the filtered subset")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := defaultCfg
	cfg.BaseURL = *baseURL
	cfg.StartPath = *startPath
	cfg.MaxPages = *maxPages
	cfg.MinDelay = time.Duration(*minDelayMs) * time.Millisecond
	cfg.MaxDelay = time.Duration(*maxDelayMs) * time.Millisecond
	cfg.MaxRetries = *maxRetries
	cfg.Timeout = time.Duration(*timeoutSec) * time.Second
	cfg.RespectRobotsTxt = *respectRobots
	cfg.OutputDir = *outputDir
	cfg.OutputFormat = strings.ToLower(*outputFormat)
	cfg.PriceLimit = *priceLimit
	cfg.SinkTable = *sinkTable
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose
	cfg.DatabaseURL = databaseURL

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting crawl",
		slog.String("base_url", cfg.BaseURL),
		slog.Int("pages", cfg.MaxPages),
		slog.Int("retries", cfg.MaxRetries),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := crawler.NewMetrics()
	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	waiter := crawler.SleepWaiter{}
	fetcher, err := crawler.NewFetcher(cfg, waiter, metrics)
	if err != nil {
		slog.Error("initialising fetcher", slog.Any("error", err))
		os.Exit(1)
	}
	defer fetcher.Close()

	c := crawler.New(cfg, fetcher, waiter, metrics)
	result := c.Run(ctx)

	rawFile := filepath.Join(cfg.OutputDir, "books_raw.csv")
	if err := pipeline.WriteRawCSV(rawFile, result.Records); err != nil {
		slog.Error("writing raw snapshot", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("saved raw records", slog.Int("count", len(result.Records)), slog.String("file", rawFile))

	report, err := pipeline.Clean(result.Records, cfg.DedupeMaxSize)
	if err != nil {
		slog.Error("cleaning failed", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("data quality",
		slog.Float64("title_not_null", report.Quality.TitleRatio),
		slog.Float64("product_url_not_null", report.Quality.URLRatio),
		slog.Float64("price_parsed_ratio", report.Quality.PriceRatio),
		slog.Int("duplicates_dropped", report.Duplicates),
	)
	for _, summary := range report.ByRating {
		slog.Info("aggregation by rating",
			slog.String("rating", summary.Rating),
			slog.Int("count", summary.Count),
			slog.Float64("avg_price", summary.AvgPrice),
			slog.Float64("min_price", summary.MinPrice),
			slog.Float64("max_price", summary.MaxPrice),
		)
	}

	writer, err := createWriter(cfg.OutputFormat, filepath.Join(cfg.OutputDir, "books_clean.csv"))
	if err != nil {
		slog.Error("creating writer", slog.Any("error", err))
		os.Exit(1)
	}
	if err := writer.Write(report.Records); err != nil {
		slog.Error("writing clean records", slog.Any("error", err))
		os.Exit(1)
	}
	if err := writer.Validate(); err != nil {
		slog.Error("output validation failed", slog.Any("error", err))
		os.Exit(1)
	}
	if err := writer.Close(); err != nil {
		slog.Error("close writer", slog.Any("error", err))
		os.Exit(1)
	}

	filtered := pipeline.FilterForSink(report.Records, cfg.PriceLimit)
	filteredWriter, err := pipeline.NewCSVWriter(filepath.Join(cfg.OutputDir, "books_filtered.csv"))
	if err != nil {
		slog.Error("creating filtered writer", slog.Any("error", err))
		os.Exit(1)
	}
	if err := filteredWriter.Write(filtered); err != nil {
		slog.Error("writing filtered records", slog.Any("error", err))
		os.Exit(1)
	}
	if err := filteredWriter.Close(); err != nil {
		slog.Error("close filtered writer", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.DatabaseURL != "" {
		loadToPostgres(ctx, cfg, filtered)
	} else {
		slog.Info("DATABASE_URL not set, skipping database load")
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(result, fetcher.Stats(), len(report.Records), len(filtered), cfg.OutputDir)
}

func loadToPostgres(ctx context.Context, cfg *config.Config, filtered []*pipeline.CleanRecord) {
	sink, err := db.New(&db.Config{DatabaseURL: cfg.DatabaseURL, Table: cfg.SinkTable})
	if err != nil {
		slog.Error("connecting to sink database", slog.Any("error", err))
		os.Exit(1)
	}
	defer sink.Close()

	loaded, err := sink.ReplaceFiltered(ctx, filtered)
	if err != nil {
		slog.Error("loading filtered records", slog.Any("error", err))
		os.Exit(1)
	}
	if loaded == 0 {
		slog.Info("filtered set is empty, nothing to load")
		return
	}

	count, err := sink.CountRows(ctx)
	if err != nil {
		slog.Error("verifying sink row count", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("loaded filtered records",
		slog.Int("loaded", loaded),
		slog.Int("rows_in_table", count),
		slog.String("table", cfg.SinkTable),
	)
}

func createWriter(format, csvFilename string) (pipeline.OutputWriter, error) {
	jsonFilename := strings.TrimSuffix(csvFilename, ".csv") + ".json"
	switch format {
	case "json":
		return pipeline.NewJSONWriter(jsonFilename)
	case "csv":
		return pipeline.NewCSVWriter(csvFilename)
	case "dual":
		return pipeline.NewDualWriter(csvFilename, jsonFilename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func printSummary(result *models.CrawlResult, stats crawler.FetchStats, cleanCount, filteredCount int, outputDir string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Crawl complete")

	fmt.Printf("  Pages:         %d\n", result.PageCount)
	fmt.Printf("  Raw records:   %d\n", len(result.Records))
	fmt.Printf("  Clean records: %d\n", cleanCount)
	fmt.Printf("  Filtered:      %d\n", filteredCount)
	fmt.Printf("  Stop reason:   %s\n", result.Stop)
	if result.FailedURL != "" {
		fmt.Printf("  Failed URL:    %s\n", result.FailedURL)
	}
	fmt.Printf("  Requests:      %d\n", stats.Requests)
	fmt.Printf("  Retries:       %d\n", stats.Retries)
	fmt.Printf("  Errors:        %d\n", stats.Errors)
	fmt.Printf("  Duration:      %v\n", result.EndTime.Sub(result.StartTime))
	fmt.Printf("  Output dir:    %s\n", outputDir)
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
