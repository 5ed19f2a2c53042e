package internal

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Hattyot/BalanceSnapshotter/config"
	"github.com/Hattyot/BalanceSnapshotter/internal/clients"
	"github.com/Hattyot/BalanceSnapshotter/internal/domain"
	"github.com/Hattyot/BalanceSnapshotter/internal/services/metadata"
	"github.com/Hattyot/BalanceSnapshotter/internal/services/snapshotter"
)

// createReader builds the chain reader for the configured platform.
// The returned cleanup releases its resources and is never nil.
func createReader(ctx context.Context, conf config.Config, logger *zap.Logger) (snapshotter.ChainReader, func(), error) {
	switch conf.Platform {
	case config.PlatformEthereum:
		client, err := clients.DialEthClient(ctx, conf.RPCURL, conf.AddressBook, logger.With(zap.String("platform", conf.Platform)))
		if err != nil {
			return nil, func() {}, err
		}
		return client, client.Close, nil
	case config.PlatformSimulate:
		client, err := newSimulateClient(conf, logger.With(zap.String("platform", conf.Platform)))
		if err != nil {
			return nil, func() {}, err
		}
		return client, func() {}, nil
	default:
		return nil, func() {}, fmt.Errorf("unsupported platform: %s", conf.Platform)
	}
}

// newSimulateClient deploys the seeded tokens and balances on an in-memory ledger.
func newSimulateClient(conf config.Config, logger *zap.Logger) (*clients.SimulateClient, error) {
	client := clients.NewSimulateClient(conf.AddressBook, logger)
	for _, st := range conf.Simulate {
		client.Deploy(st.Token, st.Metadata)
		for identifier, raw := range st.Balances {
			account, err := conf.AddressBook.Resolve(identifier)
			if err != nil {
				return nil, errors.Wrapf(err, "seed balance of %s", st.Token)
			}
			if err := client.SetBalance(st.Token, account, raw); err != nil {
				return nil, errors.Wrapf(err, "seed balance of %s", st.Token)
			}
		}
	}
	return client, nil
}

// preloadMetadata fills the cache with metadata already known from the config.
func preloadMetadata(cache *metadata.Cache, conf config.Config) {
	for _, st := range conf.Simulate {
		cache.Preload(st.Token, st.Metadata)
	}
}

// engineOptions maps the config onto the engine. lastSeq is the newest journaled sequence number.
func engineOptions(conf config.Config, journal snapshotter.Journal, lastSeq uint64, logger *zap.Logger) []snapshotter.Option {
	opts := []snapshotter.Option{
		snapshotter.WithLogger(logger),
		snapshotter.WithTimeout(conf.Timeout),
		snapshotter.WithMaxConcurrency(conf.MaxConcurrency),
		snapshotter.WithFailFast(conf.FailFast),
		snapshotter.WithDedup(conf.Dedup),
	}
	if journal != nil {
		opts = append(opts, snapshotter.WithJournal(journal), snapshotter.WithSeqOffset(lastSeq))
	}
	return opts
}

// retryable reports whether a failed snapshot is worth another attempt.
// Resolution failures will not heal by retrying.
func retryable(err error) bool {
	var resErr *domain.ResolutionError
	return !errors.As(err, &resErr)
}
