package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dalnet/eirc/internal/config"
	"github.com/dalnet/eirc/internal/irc"
	"github.com/dalnet/eirc/internal/logger"
	"github.com/dalnet/eirc/internal/plugins"
	"github.com/dalnet/eirc/internal/storage"
)

// Version information - set at build time via ldflags
var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("v", false, "Show version information and exit")
	showVersionLong := flag.Bool("version", false, "Show version information and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [config file (default %s)]\n", os.Args[0], config.DefaultPath)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion || *showVersionLong {
		fmt.Printf("eirc version %s\n", version)
		fmt.Printf("Built: %s\n", buildDate)
		fmt.Printf("Commit: %s\n", gitCommit)
		os.Exit(0)
	}

	configPath := config.DefaultPath
	if flag.NArg() > 0 {
		configPath = flag.Arg(0)
	}

	run(configPath)
}

func run(configPath string) {
	cfg, missing, err := config.Load(configPath)
	if err != nil {
		logger.New(logger.Options{}).Fatal("Failed to load configuration", err, "path", configPath)
	}

	log := logger.New(logger.Options{File: cfg.LogFile, Level: cfg.LogLevel})
	log.Info("Starting eirc", "version", version, "commit", gitCommit, "log_level", log.GetLogLevel())
	if missing {
		log.Warn("Could not find config file, using defaults", "path", configPath)
	} else {
		log.Info("Loaded configuration", "path", cfg.Source)
	}

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, log)
	}

	// Plugins run once, before we connect
	report, err := plugins.NewLoader(cfg.PluginDir, log).DiscoverAndRun()
	if err != nil {
		log.Error("Plugin discovery failed", err, "dir", cfg.PluginDir)
	} else {
		log.Info("Plugin discovery complete", "loaded", len(report.Loaded), "failed", len(report.Failures))
		if err := report.Err(); err != nil {
			log.Warn("Some plugins were skipped", "errors", err.Error())
		}
	}

	var opts []irc.Option
	if ledger, err := openLedger(cfg.DataDir); err != nil {
		log.Error("Trigger history disabled", err, "dir", cfg.DataDir)
	} else {
		log.Info("Recording triggers", "path", ledger.Path(), "entries", len(ledger.Entries()))
		opts = append(opts, irc.WithRecorder(ledger))
	}

	session := irc.NewSession(cfg.Server, log, opts...)
	log.Info("Session created", "session", session.ID().String(), "address", cfg.Server.Address())
	if err := session.Run(); err != nil {
		log.Fatal("Session aborted", err)
	}

	log.Info("Exiting")
}

func openLedger(dataDir string) (*storage.Ledger, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return storage.OpenLedger(dataDir)
}

func serveMetrics(addr string, log logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	log.Info("Serving metrics", "address", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("Metrics listener stopped", err)
	}
}
