package main

import (
	"context"
	"flag"
	"os"

	"github.com/charmbracelet/log"

	"github.com/statement-tools/bankstage/pkg/config"
	"github.com/statement-tools/bankstage/pkg/lifecycle"
	"github.com/statement-tools/bankstage/pkg/server"
	"github.com/statement-tools/bankstage/pkg/service"
	"github.com/statement-tools/bankstage/pkg/staging"
	"github.com/statement-tools/bankstage/pkg/store"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Prefix:          "bankstage",
	})

	var cfgFile string
	flag.StringVar(&cfgFile, "c", "", "Config file (default is config.yaml)")
	flag.Parse()

	cfg, err := config.Build(cfgFile, nil)
	if err != nil {
		logger.Fatal("failed to load config", "err", err)
	}
	if cfg.DatabaseURL == "" {
		logger.Fatal("database-url is not configured")
	}

	ctx := context.Background()
	st, err := store.NewPostgres(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("failed to connect to row-store", "err", err)
	}
	defer st.Close()

	stager := staging.New(cfg.DataDir, logger)
	processor := service.NewProcessor(st, stager, logger)
	manager := lifecycle.New(st, cfg.DataDir, logger)

	srv := server.New(cfg, processor, stager, manager, logger)
	logger.Info("starting server", "addr", cfg.ListenAddress, "data_dir", cfg.DataDir)
	if err := srv.Start(cfg.ListenAddress); err != nil {
		logger.Fatal("server error", "err", err)
	}
}
