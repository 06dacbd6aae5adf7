package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"chatlog/internal/app"
	"chatlog/pkg/config"
	"chatlog/pkg/logger"
	"chatlog/pkg/shutdown"
	"chatlog/pkg/state"

	"github.com/joho/godotenv"
)

// set build metadata
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

const abortDelay = 10 * time.Second

func main() {
	// load .env file if present
	_ = godotenv.Load(".env")

	// parse config flags
	flags, err := config.ParseConfigFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid flags: %v\n", err)
		os.Exit(2)
	}

	// parse config file
	fileCfg, fileExists, err := config.ParseConfigFile(flags)
	if err != nil {
		shutdown.Abort("failed to load config file", err, "", 0)
	}

	// parse config env variables
	envCfg, envUsed := config.ParseConfigEnvs()

	// load effective config
	eff, err := config.LoadEffectiveConfig(flags, fileCfg, fileExists, envCfg, envUsed)
	if err != nil {
		shutdown.Abort("failed to build effective config", err, "", 0)
	}

	// validate config
	if err := config.ValidateConfig(eff); err != nil {
		shutdown.Abort("invalid configuration", err, "", 0)
	}

	// initialize logger after config is fully loaded
	logger.Init(eff.Config.Logging.Level)
	defer logger.Sync()

	logger.Info("effective_config_loaded", "source", eff.Source, "addr", eff.Addr, "storage_dir", eff.StorageDir, "account", eff.Account)

	// ensure the storage layout exists
	paths, err := state.Init(eff.StorageDir, eff.Account)
	if err != nil {
		logger.Error("state_dirs_setup_failed", "error", err)
		shutdown.Abort(fmt.Sprintf("failed to ensure state directories under %s", eff.StorageDir), err, "", abortDelay)
	}

	// initialize app
	a, err := app.New(eff, paths, version, commit, buildDate)
	if err != nil {
		shutdown.Abort("failed to initialize app", err, paths.Crash, abortDelay)
	}

	// set up context and signal handling for graceful shutdown
	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	if err := a.Run(ctx); err != nil {
		shutdown.Abort("app run failed", err, paths.Crash, abortDelay)
	}

	// bounded so teardown cannot hang forever
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer shutdownCancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown_failed", "error", err)
	}
}
