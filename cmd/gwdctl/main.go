package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/noah-isme/gwd-records-api/internal/app"
	"github.com/noah-isme/gwd-records-api/internal/cli"
	"github.com/noah-isme/gwd-records-api/pkg/config"
	"github.com/noah-isme/gwd-records-api/pkg/logger"
)

func main() {
	root := cli.NewRootCmd(connect)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.New(color.FgRed).Sprint("error:"), err)
		os.Exit(1)
	}
}

func connect(ctx context.Context) (*cli.Services, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	cfg.Log.Format = "console"
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	a, err := app.New(ctx, cfg, logr)
	if err != nil {
		_ = logr.Sync()
		return nil, nil, err
	}
	svc := &cli.Services{
		PendingUpdates: a.PendingUpdates,
		Exports:        a.Exports,
		DB:             a.DB.DB,
		ExportTTL:      cfg.Exports.SignedURLTTL,
	}
	if cfg.Search.Enabled {
		svc.Reindex = a.Reindex
	}
	return svc, func() {
		a.Close()
		_ = logr.Sync()
	}, nil
}
