package internal

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Hattyot/BalanceSnapshotter/config"
	"github.com/Hattyot/BalanceSnapshotter/internal/domain"
	"github.com/Hattyot/BalanceSnapshotter/internal/services/metadata"
	"github.com/Hattyot/BalanceSnapshotter/internal/services/presenter"
	"github.com/Hattyot/BalanceSnapshotter/internal/services/snapshotter"
	"github.com/Hattyot/BalanceSnapshotter/internal/storage/snapshots"
	"github.com/Hattyot/BalanceSnapshotter/pkg/retrier"
)

// App wires one chain reader, the metadata cache, the snapshot engine and the console output.
type App struct {
	Config config.Config

	reader    snapshotter.ChainReader
	engine    *snapshotter.Snapshotter
	presenter *presenter.Presenter
	journal   *snapshots.WALStore
	logger    *zap.Logger
	cleanup   func()
	now       func() time.Time
}

// NewApp creates an application instance writing tables to out.
func NewApp(ctx context.Context, conf config.Config, out io.Writer, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	reader, cleanup, err := createReader(ctx, conf, logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create chain reader")
	}

	cache := metadata.NewCache(reader, logger)
	preloadMetadata(cache, conf)

	var journal *snapshots.WALStore
	var engineJournal snapshotter.Journal
	var lastSeq uint64
	if conf.JournalDir != "" {
		journal, err = snapshots.NewWALStore(conf.JournalDir)
		if err != nil {
			cleanup()
			return nil, err
		}
		// numbering carries on from snapshots journaled by earlier runs
		if lastSeq, err = journal.LastSeq(); err != nil {
			_ = journal.Close()
			cleanup()
			return nil, errors.Wrap(err, "failed to read snapshot journal")
		}
		engineJournal = journal
	}

	engine, err := snapshotter.New(ctx, reader, cache, conf.Tokens, conf.Accounts, engineOptions(conf, engineJournal, lastSeq, logger)...)
	if err != nil {
		if journal != nil {
			_ = journal.Close()
		}
		cleanup()
		return nil, errors.Wrap(err, "failed to create snapshotter")
	}

	return &App{
		Config:    conf,
		reader:    reader,
		engine:    engine,
		presenter: presenter.New(cache, out),
		journal:   journal,
		logger:    logger,
		cleanup:   cleanup,
		now:       time.Now,
	}, nil
}

// Engine returns the underlying snapshot engine.
func (a *App) Engine() *snapshotter.Snapshotter {
	return a.engine
}

// Close releases the journal and the chain connection.
func (a *App) Close() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.logger.Warn("failed to close snapshot journal", zap.Error(err))
		}
	}
	a.cleanup()
}

// Snap takes one snapshot and prints it.
func (a *App) Snap(ctx context.Context, name string) (*domain.Snapshot, error) {
	snap, err := a.engine.Snapshot(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := a.presenter.PrintSnapshot(ctx, snap); err != nil {
		return nil, errors.Wrap(err, "failed to print snapshot")
	}
	return snap, nil
}

// Watch takes a snapshot every watch interval and prints its difference to the previous one.
// It returns when ctx is done.
func (a *App) Watch(ctx context.Context) error {
	if _, err := a.takeWithRetry(ctx); err != nil {
		return errors.Wrap(err, "failed to take initial snapshot")
	}

	ticker := time.NewTicker(a.Config.WatchInterval)
	defer ticker.Stop()

	a.logger.Info("Starting watch loop",
		zap.Int("tokens", len(a.engine.Tokens())),
		zap.Int("accounts", len(a.engine.Accounts())),
		zap.Duration("interval", a.Config.WatchInterval))

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Context done, stopping watch loop.", zap.Int("snapshots", a.engine.Len()))
			return ctx.Err()
		case <-ticker.C:
			if _, err := a.takeWithRetry(ctx); err != nil {
				if ctx.Err() != nil {
					continue
				}
				a.logger.Error("Snapshot failed", zap.Error(err))
				continue
			}

			diff, err := a.engine.DiffLastTwo(ctx)
			if err != nil {
				a.logger.Error("Diff failed", zap.Error(err))
				continue
			}
			if err := a.presenter.PrintDiff(ctx, diff); err != nil {
				a.logger.Error("Failed to print diff", zap.Error(err))
			}
		}
	}
}

func (a *App) takeWithRetry(ctx context.Context) (*domain.Snapshot, error) {
	take := func(ctx context.Context) (*domain.Snapshot, error) {
		return a.engine.Snapshot(ctx, a.now().UTC().Format(time.RFC3339))
	}

	if a.Config.SnapshotRetries <= 0 {
		return take(ctx)
	}

	r := retrier.New(
		retrier.WithMaxRetries(a.Config.SnapshotRetries),
		retrier.WithBackoff(a.Config.WatchInterval/10, a.Config.WatchInterval/2),
		retrier.WithRetryable(retryable),
		retrier.WithOnRetry(func(attempt int, err error, wait time.Duration) {
			a.logger.Warn("Retrying snapshot",
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(err))
		}),
	)
	return retrier.DoWithData(r, ctx, take)
}

// PrintJournal prints every snapshot stored in the journal, oldest first.
func (a *App) PrintJournal(ctx context.Context) (int, error) {
	if a.journal == nil {
		return 0, errors.New("snapshot journal is not configured")
	}

	records, err := a.journal.RecordsAfter(0)
	if err != nil {
		return 0, err
	}

	for _, rec := range records {
		snap, err := rec.Record.ToSnapshot()
		if err != nil {
			return 0, errors.Wrapf(err, "journal entry %d", rec.Index)
		}
		if err := a.presenter.PrintSnapshot(ctx, snap); err != nil {
			return 0, errors.Wrapf(err, "journal entry %d", rec.Index)
		}
	}
	return len(records), nil
}
