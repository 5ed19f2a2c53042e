// Package snapshotter captures token balances of tracked accounts and compares captures.
//
// A Snapshotter is driven by a single caller: AddToken, AddAccount, Snapshot and
// DiffLastTwo must not be called concurrently. Only the balance queries inside
// one Snapshot call run in parallel.
package snapshotter

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Hattyot/BalanceSnapshotter/internal/domain"
	"github.com/Hattyot/BalanceSnapshotter/internal/services/metadata"
)

// ChainReader reads token and account state from a chain.
type ChainReader interface {
	BindToken(ctx context.Context, identifier string) (domain.Token, error)
	ResolveAccount(ctx context.Context, identifier string) (domain.Account, error)
	BalanceOf(ctx context.Context, token domain.Token, account domain.Account) (*big.Int, error)
	TokenMetadata(ctx context.Context, token domain.Token) (domain.TokenMetadata, error)
}

// MetadataResolver returns token metadata, usually from a cache.
type MetadataResolver interface {
	Resolve(ctx context.Context, token domain.Token) (domain.TokenMetadata, error)
}

// Journal persists published snapshots.
type Journal interface {
	Save(snapshot *domain.Snapshot) error
}

// Snapshotter tracks tokens and accounts and keeps an ordered snapshot history.
type Snapshotter struct {
	reader  ChainReader
	meta    MetadataResolver
	logger  *zap.Logger
	journal Journal
	now     func() time.Time

	timeout        time.Duration
	maxConcurrency int
	failFast       bool
	dedup          bool
	seqOffset      uint64

	tokens   []domain.Token
	accounts []domain.Account
	history  []*domain.Snapshot
}

// New creates a Snapshotter tracking the given token and account identifiers.
// A nil meta gets a fresh metadata cache on top of reader.
func New(ctx context.Context, reader ChainReader, meta MetadataResolver, tokens, accounts []string, opts ...Option) (*Snapshotter, error) {
	if reader == nil {
		return nil, errors.New("chain reader is required")
	}

	s := &Snapshotter{
		reader:   reader,
		meta:     meta,
		logger:   zap.NewNop(),
		now:      time.Now,
		failFast: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.meta == nil {
		s.meta = metadata.NewCache(reader, s.logger)
	}

	for _, t := range tokens {
		if _, err := s.AddToken(ctx, t); err != nil {
			return nil, err
		}
	}
	for _, a := range accounts {
		if _, err := s.AddAccount(ctx, a); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// AddToken binds the token contract and starts tracking it.
// Metadata is not fetched until a render or diff needs it.
func (s *Snapshotter) AddToken(ctx context.Context, identifier string) (domain.Token, error) {
	token, err := s.reader.BindToken(ctx, identifier)
	if err != nil {
		return domain.Token{}, errors.Wrap(err, "add token")
	}
	s.TrackToken(token)
	return token, nil
}

// TrackToken starts tracking an already bound token.
func (s *Snapshotter) TrackToken(token domain.Token) {
	if s.dedup {
		for _, t := range s.tokens {
			if t.Address == token.Address {
				s.logger.Debug("token already tracked", zap.String("token", token.String()))
				return
			}
		}
	}
	s.tokens = append(s.tokens, token)
	s.logger.Info("tracking token", zap.String("token", token.String()), zap.Int("tokens", len(s.tokens)))
}

// AddAccount resolves the account and starts tracking it.
func (s *Snapshotter) AddAccount(ctx context.Context, identifier string) (domain.Account, error) {
	account, err := s.reader.ResolveAccount(ctx, identifier)
	if err != nil {
		return domain.Account{}, errors.Wrap(err, "add account")
	}
	s.TrackAccount(account)
	return account, nil
}

// TrackAccount starts tracking an already resolved account.
func (s *Snapshotter) TrackAccount(account domain.Account) {
	if s.dedup {
		for _, a := range s.accounts {
			if a.Address == account.Address {
				s.logger.Debug("account already tracked", zap.String("account", account.String()))
				return
			}
		}
	}
	s.accounts = append(s.accounts, account)
	s.logger.Info("tracking account",
		zap.String("account", account.String()),
		zap.String("label", account.Label),
		zap.Int("accounts", len(s.accounts)))
}

// Snapshot queries the balance of every tracked (token, account) pair
// concurrently and appends the result to the history. If any query fails
// nothing is published and an *domain.AcquisitionError lists the failed pairs.
func (s *Snapshotter) Snapshot(ctx context.Context, name string) (*domain.Snapshot, error) {
	tokens := append([]domain.Token(nil), s.tokens...)
	accounts := append([]domain.Account(nil), s.accounts...)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	b := s.gather(ctx, tokens, accounts)

	if failures := b.failures(ctx, tokens, accounts); len(failures) > 0 {
		s.logger.Error("snapshot discarded",
			zap.String("name", name),
			zap.Int("failed", len(failures)),
			zap.Int("pairs", b.total),
			zap.Error(failures[0].Err))
		return nil, &domain.AcquisitionError{Failures: failures, Total: b.total}
	}

	balances := domain.NewBalances()
	for i, token := range tokens {
		for j, account := range accounts {
			balances.Set(token, account, b.values[i*len(accounts)+j])
		}
	}
	balances.Freeze()

	snap := &domain.Snapshot{
		ID:       uuid.New(),
		Seq:      s.seqOffset + uint64(len(s.history)) + 1,
		Name:     name,
		TakenAt:  s.now(),
		Balances: balances,
	}

	if s.journal != nil {
		if err := s.journal.Save(snap); err != nil {
			return nil, errors.Wrap(err, "journal snapshot")
		}
	}
	s.history = append(s.history, snap)

	s.logger.Info("snapshot taken",
		zap.String("name", name),
		zap.Uint64("seq", snap.Seq),
		zap.Int("pairs", b.total),
		zap.Duration("took", time.Since(start)))

	return snap, nil
}

// batch collects the results of one concurrent gather.
// Results arriving after close are dropped.
type batch struct {
	mu     sync.Mutex
	closed bool
	total  int
	values []*big.Int
	errs   []error
}

func (b *batch) record(idx int, v *big.Int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	if err == nil && v == nil {
		err = errors.New("empty balance result")
	}
	b.values[idx], b.errs[idx] = v, err
}

func (b *batch) close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}

// failures lists pairs that failed or never settled. Must be called after close.
func (b *batch) failures(ctx context.Context, tokens []domain.Token, accounts []domain.Account) []domain.PairFailure {
	var out []domain.PairFailure
	for idx := 0; idx < b.total; idx++ {
		err := b.errs[idx]
		if err == nil && b.values[idx] != nil {
			continue
		}
		if err == nil {
			err = ctx.Err()
			if err == nil {
				err = context.Canceled
			}
		}
		out = append(out, domain.PairFailure{
			Token:   tokens[idx/len(accounts)],
			Account: accounts[idx%len(accounts)],
			Err:     err,
		})
	}
	return out
}

// gather issues every balance query at once and blocks until all settle or ctx ends.
func (s *Snapshotter) gather(ctx context.Context, tokens []domain.Token, accounts []domain.Account) *batch {
	total := len(tokens) * len(accounts)
	b := &batch{
		total:  total,
		values: make([]*big.Int, total),
		errs:   make([]error, total),
	}
	if total == 0 {
		b.close()
		return b
	}

	g, gctx := &errgroup.Group{}, ctx
	if s.failFast {
		g, gctx = errgroup.WithContext(ctx)
	}
	if s.maxConcurrency > 0 {
		g.SetLimit(s.maxConcurrency)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i, token := range tokens {
			for j, account := range accounts {
				idx := i*len(accounts) + j
				g.Go(func() error {
					if err := gctx.Err(); err != nil {
						b.record(idx, nil, err)
						return err
					}
					v, err := s.reader.BalanceOf(gctx, token, account)
					b.record(idx, v, err)
					return err
				})
			}
		}
		_ = g.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("snapshot batch abandoned", zap.Error(ctx.Err()), zap.Int("pairs", total))
	}
	b.close()

	return b
}

// DiffLastTwo compares the two most recent snapshots.
func (s *Snapshotter) DiffLastTwo(ctx context.Context) (domain.Diff, error) {
	if len(s.history) < 2 {
		return domain.Diff{}, domain.ErrInsufficientHistory
	}
	return s.Diff(ctx, s.history[len(s.history)-2], s.history[len(s.history)-1])
}

// Diff returns after minus before for every pair recorded in before.
// Rows that are zero at display precision are omitted.
func (s *Snapshotter) Diff(ctx context.Context, before, after *domain.Snapshot) (domain.Diff, error) {
	diff := domain.Diff{Before: before, After: after}
	if before == nil || after == nil {
		return diff, errors.New("diff needs two snapshots")
	}

	var err error
	before.Balances.Each(func(token domain.Token, account domain.Account, prev *big.Int) bool {
		var cur *big.Int
		cur, err = after.Balances.Get(token, account)
		if err != nil {
			return false
		}

		delta := new(big.Int).Sub(cur, prev)
		if delta.Sign() == 0 {
			return true
		}

		var meta domain.TokenMetadata
		meta, err = s.meta.Resolve(ctx, token)
		if err != nil {
			return false
		}
		if domain.DisplaysAsZero(delta, meta.Decimals) {
			return true
		}

		diff.Rows = append(diff.Rows, domain.DiffRow{
			Token:    token,
			Symbol:   meta.Symbol,
			Decimals: meta.Decimals,
			Account:  account,
			Delta:    delta,
		})
		return true
	})
	if err != nil {
		return domain.Diff{}, errors.Wrap(err, "diff snapshots")
	}

	return diff, nil
}

// Tokens returns the tracked tokens in tracking order.
func (s *Snapshotter) Tokens() []domain.Token {
	return append([]domain.Token(nil), s.tokens...)
}

// Accounts returns the tracked accounts in tracking order.
func (s *Snapshotter) Accounts() []domain.Account {
	return append([]domain.Account(nil), s.accounts...)
}

// History returns all published snapshots, oldest first.
func (s *Snapshotter) History() []*domain.Snapshot {
	return append([]*domain.Snapshot(nil), s.history...)
}

// Last returns the most recent snapshot or nil.
func (s *Snapshotter) Last() *domain.Snapshot {
	if len(s.history) == 0 {
		return nil
	}
	return s.history[len(s.history)-1]
}

// Len returns the number of published snapshots.
func (s *Snapshotter) Len() int {
	return len(s.history)
}
