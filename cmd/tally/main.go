// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Command tally prints the live results of one election, optionally
// refreshing them on an interval.
//
//	tally -d "file:ballot.db" -t sqlite -e <election-id> [-category <id>] [-watch 5s]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/danielhkuo/qr-ballot/cliparse"
	"github.com/danielhkuo/qr-ballot/db"
	"github.com/danielhkuo/qr-ballot/models"
	"github.com/danielhkuo/qr-ballot/report"
	"github.com/danielhkuo/qr-ballot/store"
	"github.com/danielhkuo/qr-ballot/tally"
	"github.com/danielhkuo/qr-ballot/voting"
)

const clearScreen = "\033[H\033[2J"

func main() {
	cfg, err := cliparse.ParseTallyFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		color.Red("%v", err)
		os.Exit(2)
	}

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	svc := voting.New(store.New(conn), voting.Options{TurnoutBase: cfg.TurnoutBase})
	fetch := func(ctx context.Context) (*models.ElectionResults, error) {
		return svc.Results(ctx, cfg.ElectionID, cfg.Category, false)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Watch <= 0 {
		res, err := fetch(ctx)
		if err != nil {
			color.Red("failed to load results: %v", err)
			os.Exit(1)
		}
		report.Render(os.Stdout, res)
		return
	}

	err = tally.Watch(ctx, cfg.Watch, cfg.Category, fetch, func(res *models.ElectionResults, err error) {
		if err != nil {
			slog.Warn("failed to refresh results", "error", err)
			return
		}
		fmt.Print(clearScreen)
		report.Render(os.Stdout, res)
		fmt.Printf("\nRefreshed %s, every %s\n", time.Now().Format(time.TimeOnly), cfg.Watch)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("watch stopped", "error", err)
		os.Exit(1)
	}
}
