// Command balancesnap takes point-in-time snapshots of ERC-20 balances for a
// set of accounts and prints the changes between consecutive snapshots.
// It can be configured via YAML configuration files or command-line arguments.
//
// Usage:
//
//	balancesnap snap --config config.yaml --name before-upgrade
//	balancesnap watch --rpc http://localhost:8545 --tokens 0x... --accounts 0x...
//	balancesnap journal --config config.yaml
//	balancesnap init
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Hattyot/BalanceSnapshotter/config"
	"github.com/Hattyot/BalanceSnapshotter/internal"
	"github.com/Hattyot/BalanceSnapshotter/internal/setup"
)

const usage = `usage: balancesnap <snap|watch|journal|init> [flags]`

func main() {
	if len(os.Args) < 2 {
		log.Fatal(usage)
	}

	cmd, args := os.Args[1], os.Args[2:]
	if cmd == "init" {
		if err := setup.RunTUI(); err != nil {
			log.Fatal(err)
		}
		return
	}

	conf, err := config.Parse(args)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := newLogger(conf.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := internal.NewApp(ctx, conf, os.Stdout, logger)
	if err != nil {
		logger.Fatal("failed to start", zap.Error(err))
	}
	defer app.Close()

	if err := run(ctx, cmd, app, logger); err != nil {
		logger.Error("command failed", zap.String("command", cmd), zap.Error(err))
		app.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd string, app *internal.App, logger *zap.Logger) error {
	switch cmd {
	case "snap":
		snap, err := app.Snap(ctx, app.Config.SnapshotName)
		if err != nil {
			return err
		}
		logger.Info("snapshot taken", zap.Uint64("seq", snap.Seq), zap.String("id", snap.ID.String()))
		return nil
	case "watch":
		err := app.Watch(ctx)
		if ctx.Err() != nil {
			return nil
		}
		return err
	case "journal":
		n, err := app.PrintJournal(ctx)
		if err != nil {
			return err
		}
		logger.Info("journal printed", zap.Int("snapshots", n))
		return nil
	default:
		return fmt.Errorf("unknown command %q, %s", cmd, usage)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	if lvl == zapcore.DebugLevel {
		return zap.NewDevelopment()
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
