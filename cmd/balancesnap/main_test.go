package main

import (
	"bytes"
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Hattyot/BalanceSnapshotter/config"
	"github.com/Hattyot/BalanceSnapshotter/internal"
	"github.com/Hattyot/BalanceSnapshotter/internal/domain"
)

const (
	daiAddr   = "0x6B175474E89094C44Da98b954EedeAC495271d0F"
	aliceAddr = "0x0000000000000000000000000000000000000c01"
)

func newTestApp(t *testing.T, name string) (*internal.App, *bytes.Buffer) {
	t.Helper()
	dai, err := domain.NewToken(daiAddr)
	require.NoError(t, err)

	conf := config.Config{
		Platform:      config.PlatformSimulate,
		Tokens:        []string{daiAddr},
		Accounts:      []string{aliceAddr},
		Timeout:       time.Second,
		FailFast:      true,
		WatchInterval: time.Second,
		LogLevel:      "info",
		SnapshotName:  name,
		Simulate: []config.SimulatedToken{{
			Token:    dai,
			Metadata: domain.TokenMetadata{Name: "Dai Stablecoin", Symbol: "DAI", Decimals: 18},
			Balances: map[string]*big.Int{aliceAddr: big.NewInt(7)},
		}},
	}

	out := &bytes.Buffer{}
	app, err := internal.NewApp(context.Background(), conf, out, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return app, out
}

func TestRun_SnapUsesName(t *testing.T) {
	app, out := newTestApp(t, "before-upgrade")

	require.NoError(t, run(context.Background(), "snap", app, zap.NewNop()))
	assert.Contains(t, out.String(), "== Balances: before-upgrade ==")
	assert.Equal(t, "before-upgrade", app.Engine().Last().Name)
}

func TestRun_UnknownCommand(t *testing.T) {
	app, _ := newTestApp(t, "")

	err := run(context.Background(), "export", app, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown command "export"`)
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger("verbose")
	assert.Error(t, err)

	logger, err := newLogger("warn")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
	assert.True(t, logger.Core().Enabled(zap.WarnLevel))
}
