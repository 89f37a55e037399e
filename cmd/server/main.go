package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/me/ossim/internal/config"
	"github.com/me/ossim/internal/logging"
	"github.com/me/ossim/internal/server"
	"github.com/me/ossim/internal/store"
)

func main() {
	cfg := config.DefaultSimConfig()
	cfg.LogLevel = "info"

	configFile := flag.String("config", "", "YAML config file")
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json)")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Database path (default ~/.ossim/ossim.db)")
	flag.IntVar(&cfg.MaxTicks, "max-ticks", cfg.MaxTicks, "Tick bound for submitted simulations (0 = server default)")
	debug := flag.Bool("debug", false, "Shorthand for --log-level=debug")

	flag.Parse()

	// Flags given on the command line win over the config file.
	if *configFile != "" {
		fromFlags := cfg
		set := map[string]bool{}
		flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
		if err := config.LoadFile(*configFile, &cfg); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if set["addr"] {
			cfg.Addr = fromFlags.Addr
		}
		if set["log-level"] {
			cfg.LogLevel = fromFlags.LogLevel
		}
		if set["log-format"] {
			cfg.LogFormat = fromFlags.LogFormat
		}
		if set["db"] {
			cfg.DBPath = fromFlags.DBPath
		}
		if set["max-ticks"] {
			cfg.MaxTicks = fromFlags.MaxTicks
		}
	}

	if *debug {
		cfg.LogLevel = "debug"
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	// Resolve database path.
	dbPath := cfg.DBPath
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot determine home directory: %v\n", err)
			os.Exit(1)
		}
		dir := filepath.Join(home, ".ossim")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "cannot create %s: %v\n", dir, err)
			os.Exit(1)
		}
		dbPath = filepath.Join(dir, "ossim.db")
	}

	// Open store and run migrations.
	st, err := store.NewSQLiteStore(dbPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Migrate(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "migrate database: %v\n", err)
		os.Exit(1)
	}
	logger.Info("database ready", "path", dbPath)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.New(cfg, st, logger).ListenAndServe(ctx, cfg.Addr); err != nil {
		logger.Error("server failed", "error", err)
		stop()
		st.Close()
		os.Exit(1)
	}
}
