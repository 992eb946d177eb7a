// Package main is the shinsa CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hyperjump/shinsa/internal/cli"
	"github.com/hyperjump/shinsa/internal/config"
	"github.com/hyperjump/shinsa/internal/embedding"
	"github.com/hyperjump/shinsa/internal/extract"
	"github.com/hyperjump/shinsa/internal/ingest"
	"github.com/hyperjump/shinsa/internal/server"
	"github.com/hyperjump/shinsa/internal/service"
	"github.com/hyperjump/shinsa/internal/storage"
	"github.com/hyperjump/shinsa/internal/watcher"
	"github.com/hyperjump/shinsa/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/shinsa/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory wins if it exists; when neither exists, defaults and environment
// overrides are used. Returns the config and the path that was loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "check":
		runCheck()
	case "reports":
		runReports()
	case "init":
		runInit()
	case "version", "--version", "-v":
		fmt.Printf("shinsa version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func mustConfig(path string) (*config.Config, string) {
	cfg, resolved, err := loadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}
	return cfg, resolved
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath := mustConfig(*configPath)
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.String("judge_mode", cfg.Judge.Mode),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := initializeComponents(ctx, cfg, logger, componentOptions{withStorage: true})
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	if components.Standing != nil && cfg.Policy.Watch {
		st := components.Standing
		fw, err := watcher.NewFileWatcher(st.Path(), func(path string) {
			if err := st.Reload(ctx); err != nil {
				logger.Warn("policy reload failed", zap.String("path", path), zap.Error(err))
			}
		}, watcher.WithLogger(logger))
		if err != nil {
			logger.Fatal("Failed to create policy watcher", zap.Error(err))
		}
		if err := fw.Start(ctx); err != nil {
			logger.Fatal("Failed to start policy watcher", zap.Error(err))
		}
		defer fw.Stop()
	}

	srv := server.NewServer(components.Service, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if ce, ok := components.Embedder.(*embedding.CachedEmbedder); ok {
		hits, misses := ce.Stats()
		logger.Info("embedding cache", zap.Uint64("hits", hits), zap.Uint64("misses", misses))
	}
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

// argsReorder moves any flags (and their values) that appear after positional
// arguments to the front so that flag.Parse sees them. The flag package stops at
// the first non-flag argument, so "shinsa check r1.pdf -expenses e.csv" would
// otherwise leave -expenses unparsed.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func outputFormat(jsonOut bool) cli.OutputFormat {
	if jsonOut {
		return cli.OutputJSON
	}
	return cli.OutputText
}

func runCheck() {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	expensesPath := fs.String("expenses", "", "expense file (csv or xlsx)")
	policyPath := fs.String("policy", "", "policy document (default: policy.path from config)")
	mode := fs.String("mode", "", "judge mode: similarity or generative (default from config)")
	jsonOut := fs.Bool("json", false, "print the report as JSON")
	save := fs.Bool("save", false, "store the report in the database")
	debug := fs.Bool("debug", false, "enable debug logging")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: shinsa check -expenses <file> [-policy <file>] [flags] [receipt ...]\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(argsReorder(os.Args[2:]))

	if *expensesPath == "" {
		fs.Usage()
		os.Exit(1)
	}

	cfg, _ := mustConfig(*configPath)
	logger, err := utils.NewCLILogger(cfg.Debug || *debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	files, err := ingest.ReadFiles(append([]string{*expensesPath}, fs.Args()...))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	expense, receipts := files[0], files[1:]
	records, err := extract.ParseExpenses(expense.Name, expense.Data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid expense file: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := initializeComponents(ctx, cfg, logger, componentOptions{
		withStorage: *save,
		policyPath:  *policyPath,
		mode:        *mode,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	step, finish := cli.NewProgress(os.Stderr, len(records), "auditing")
	rep, err := components.Service.Check(ctx, service.CheckRequest{
		Expense:  expense,
		Receipts: receipts,
		Mode:     *mode,
		Save:     *save,
		Progress: step,
	})
	finish()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Check failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteReport(os.Stdout, rep, outputFormat(*jsonOut)); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
	if *save {
		fmt.Fprintf(os.Stderr, "Report saved: %s\n", rep.ID)
	}
}

func runReports() {
	fs := flag.NewFlagSet("reports", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	id := fs.String("id", "", "show one report")
	del := fs.String("delete", "", "delete one report")
	offset := fs.Int("offset", 0, "skip this many reports")
	limit := fs.Int("limit", 20, "number of reports to list")
	jsonOut := fs.Bool("json", false, "print JSON")
	_ = fs.Parse(os.Args[2:])

	cfg, _ := mustConfig(*configPath)
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()
	ctx := context.Background()

	switch {
	case *del != "":
		if err := store.DeleteReport(ctx, *del); err != nil {
			fmt.Fprintf(os.Stderr, "Delete failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Report deleted: %s\n", *del)
	case *id != "":
		rep, err := store.GetReport(ctx, *id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Report %s: %v\n", *id, err)
			os.Exit(1)
		}
		if err := cli.WriteReport(os.Stdout, rep, outputFormat(*jsonOut)); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	default:
		infos, err := store.ListReports(ctx, *offset, *limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "List failed: %v\n", err)
			os.Exit(1)
		}
		total, err := store.CountReports(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteReportList(os.Stdout, infos, total, outputFormat(*jsonOut)); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	}
}

func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	out := fs.String("o", "config.yaml", "where to write the config")
	force := fs.Bool("force", false, "overwrite an existing file")
	_ = fs.Parse(os.Args[2:])

	if err := writeDefaultConfig(*out, *force); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Config written: %s\n", *out)
}

// writeDefaultConfig saves the default config (with environment overrides) to path.
func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use -force to overwrite)", path)
	}
	return config.Save(path, config.Default())
}

func printUsage() {
	fmt.Println(`shinsa - Expense compliance checks against a policy

Usage:
  shinsa server [flags]                 Start the HTTP server
  shinsa check [flags] [receipt ...]    Check one expense batch locally
  shinsa reports [flags]                List, show, or delete stored reports
  shinsa init [-o path] [-force]        Write a default config file
  shinsa version                        Show version
  shinsa help                           Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/shinsa/config.yaml)
  --debug            Enable debug logging

Check Flags:
  --expenses string  Expense file, csv or xlsx (required)
  --policy string    Policy document (default: policy.path from config)
  --mode string      Judge mode: similarity or generative
  --json             Print the report as JSON
  --save             Store the report in the database

Reports Flags:
  --id string        Show one report
  --delete string    Delete one report
  --offset int       Skip this many reports
  --limit int        Number of reports to list (default: 20)
  --json             Print JSON

Examples:
  shinsa server
  shinsa check -expenses march.csv -policy travel-policy.pdf receipts/*.pdf
  shinsa check -expenses march.xlsx -mode generative -json -save receipts/*.png
  shinsa reports --limit 5
  shinsa reports --id 2b9f...`)
}
