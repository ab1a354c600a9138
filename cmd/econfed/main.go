// Command econfed serves the economic-data-federation API and its
// supporting CLI tooling.
//
// Usage:
//
//	econfed serve                       # start the HTTP API + metrics server
//	econfed serve --config config.yaml  # load a specific config file
//	econfed query <text>                # resolve and fetch one indicator, print JSON, exit
//	econfed catalog reload               # validate the concept catalog and exit
//	econfed version                     # show version information
//	econfed health                       # check a running server's /health endpoint
//
// There is no separate migrate subcommand: internal/learned's own
// embedded schema migrations apply automatically whenever the
// learned-mapping database opens. The one-shot query mode is the CLI's
// second most-used entry point after serve.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/econdata/econfed/config"
	"github.com/econdata/econfed/internal/catalog"
	"github.com/econdata/econfed/internal/learned"
	"github.com/econdata/econfed/internal/model"
	"github.com/econdata/econfed/internal/orchestrate"
	"github.com/econdata/econfed/internal/resolve"
	"github.com/econdata/econfed/internal/routing"
	"github.com/econdata/econfed/internal/telemetry"
	"github.com/econdata/econfed/internal/tlsutil"
	"github.com/econdata/econfed/providers/httpbase"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServe(os.Args[2:])
	case "query":
		runQuery(os.Args[2:])
	case "catalog":
		runCatalog(os.Args[2:])
	case "version":
		printVersion()
	case "health":
		runHealthCheck(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("starting econfed",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	otelProviders, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}

	srv := NewServer(cfg, logger, otelProviders)
	if err := srv.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
	srv.WaitForShutdown()
	logger.Info("econfed stopped")
}

// runQuery resolves and fetches a single indicator term one-shot, printing
// the result as JSON to stdout and exiting — useful for smoke-testing a
// catalog entry or a provider adapter without standing up the HTTP server.
func runQuery(args []string) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	provider := fs.String("provider", "", "Explicit provider tag (optional)")
	country := fs.String("country", "", "Country/region code (optional)")
	fs.Parse(args)

	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: econfed query [--provider TAG] [--country CODE] <text>")
		os.Exit(1)
	}
	text := strings.Join(fs.Args(), " ")

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := zap.NewNop()

	cat := catalog.New(cfg.Catalog.Dir)
	if err := cat.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load catalog: %v\n", err)
		os.Exit(1)
	}

	httpbase.SetDefaultPool(tlsutil.PoolConfig{
		MaxIdleConns:        cfg.HTTP.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.HTTP.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.HTTP.IdleConnTimeout,
		DialTimeout:         cfg.HTTP.DialTimeout,
	})
	registry := buildRegistry(cfg.Providers)
	router := routing.New(cat)
	resolver := resolve.New(cat, 64)
	if db, dbErr := openDatabase(cfg.Database, logger); dbErr == nil {
		resolver.SetLearnedStore(learned.New(db, logger))
		if sqlDB, sqlErr := db.DB(); sqlErr == nil {
			defer sqlDB.Close()
		}
	}
	orch := orchestrate.New(registry, router, cat, resolver, nil, nil, nil, logger)

	params := make(map[string]string)
	if *country != "" {
		params["country"] = *country
	}
	intent := model.ParsedIntent{
		Provider:      *provider,
		Indicators:    []string{text},
		Parameters:    params,
		OriginalQuery: text,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	results := orch.Execute(ctx, intent)
	out, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(out))

	for _, r := range results {
		if r.Err != nil {
			os.Exit(1)
		}
	}
}

// runCatalog handles the "catalog" subcommand family — currently just
// "reload", which validates every concept YAML file loads cleanly.
func runCatalog(args []string) {
	if len(args) == 0 || args[0] != "reload" {
		fmt.Fprintln(os.Stderr, "usage: econfed catalog reload [--config path]")
		os.Exit(1)
	}

	fs := flag.NewFlagSet("catalog reload", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args[1:])

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	cat := catalog.New(cfg.Catalog.Dir)
	if err := cat.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Catalog reload failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("catalog OK: %d concepts loaded from %s\n", len(cat.All()), cfg.Catalog.Dir)
}

func runHealthCheck(args []string) {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	addr := fs.String("addr", "http://localhost:8080", "Server address")
	fs.Parse(args)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(*addr + "/health")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Health check failed: status %d\n", resp.StatusCode)
		os.Exit(1)
	}
	fmt.Println("OK")
}

func printVersion() {
	fmt.Printf("econfed %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`econfed - economic data federation API

Usage:
  econfed <command> [options]

Commands:
  serve             Start the econfed HTTP API and metrics server
  query <text>      Resolve and fetch one indicator, print JSON, exit
  catalog reload    Validate the concept catalog and exit
  version           Show version information
  health            Check a running server's /health endpoint
  help              Show this help message

Options for 'serve'/'query'/'catalog reload':
  --config <path>   Path to configuration file (YAML)

Examples:
  econfed serve --config /etc/econfed/config.yaml
  econfed query "US unemployment rate"
  econfed query --provider FRED "GDP"
  econfed catalog reload
  econfed health --addr http://localhost:8080`)
}

func loadConfig(path string) (*config.Config, error) {
	loader := config.NewLoader()
	if path != "" {
		loader = loader.WithConfigPath(path)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Format == "console",
		Encoding:         cfg.Format,
		EncoderConfig:    encoderConfig,
		OutputPaths:      cfg.OutputPaths,
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapConfig.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
