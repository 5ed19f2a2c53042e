package presenter

import (
	"bytes"
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Hattyot/BalanceSnapshotter/internal/domain"
	"github.com/Hattyot/BalanceSnapshotter/internal/services/metadata"
	readerMock "github.com/Hattyot/BalanceSnapshotter/mocks/chainreader"
)

var (
	tokenA = domain.Token{Address: common.HexToAddress("0x00000000000000000000000000000000000000a1")}
	acc1   = domain.Account{Address: common.HexToAddress("0x0000000000000000000000000000000000000c01")}
	acc2   = domain.Account{Address: common.HexToAddress("0x0000000000000000000000000000000000000c02"), Label: "bob"}
)

func oneEther() *big.Int {
	v, _ := new(big.Int).SetString("1000000000000000000", 10)
	return v
}

func TestFormatAmount(t *testing.T) {
	// 1,234,567.891 tokens at 18 decimals
	big1234 := new(big.Int).Mul(big.NewInt(1_234_567_891), new(big.Int).Exp(big.NewInt(10), big.NewInt(15), nil))

	tests := []struct {
		name     string
		raw      *big.Int
		decimals uint8
		want     string
	}{
		{"one token", oneEther(), 18, "1.000000000000000000"},
		{"zero", big.NewInt(0), 18, "0.000000000000000000"},
		{"thousands", big1234, 18, "1,234,567.891000000000000000"},
		{"six decimals", big.NewInt(2_500_000), 6, "2.500000000000000000"},
		{"negative", big.NewInt(-1_234_500_000), 6, "-1,234.500000000000000000"},
		{"wei", big.NewInt(1), 18, "0.000000000000000001"},
		{"truncated", big.NewInt(15), 19, "0.000000000000000001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAmount(tt.raw, tt.decimals))
		})
	}
}

func TestFormatDelta(t *testing.T) {
	assert.Equal(t, "+1.000000000000000000", FormatDelta(oneEther(), 18))
	assert.Equal(t, "-0.000001000000000000", FormatDelta(big.NewInt(-1), 6))
	assert.Equal(t, "0.000000000000000000", FormatDelta(big.NewInt(0), 18))
}

func newPresenter(t *testing.T) (*Presenter, *bytes.Buffer, *readerMock.ChainReader) {
	t.Helper()
	reader := readerMock.NewChainReader(t)
	reader.On("TokenMetadata", mock.Anything, tokenA).
		Return(domain.TokenMetadata{Name: "Token A", Symbol: "TKA", Decimals: 18}, nil).
		Maybe()

	out := &bytes.Buffer{}
	return New(metadata.NewCache(reader, zap.NewNop()), out), out, reader
}

func snapshotOf(name string, bal1, bal2 *big.Int) *domain.Snapshot {
	b := domain.NewBalances()
	b.Set(tokenA, acc1, bal1)
	b.Set(tokenA, acc2, bal2)
	b.Freeze()
	return &domain.Snapshot{Seq: 1, Name: name, Balances: b}
}

func TestPresenter_RenderSkipsZeroBalances(t *testing.T) {
	p, _, _ := newPresenter(t)

	rendered, err := p.Render(context.Background(), snapshotOf("t0", oneEther(), big.NewInt(0)))
	require.NoError(t, err)

	assert.Contains(t, rendered, "asset")
	assert.Contains(t, rendered, "TKA")
	assert.Contains(t, rendered, acc1.Address.Hex())
	assert.Contains(t, rendered, "1.000000000000000000")
	assert.NotContains(t, rendered, acc2.Address.Hex())
	assert.NotContains(t, rendered, "0.000000000000000000")
}

func TestPresenter_RenderDiff(t *testing.T) {
	p, _, _ := newPresenter(t)
	diff := domain.Diff{Rows: []domain.DiffRow{
		{Token: tokenA, Symbol: "TKA", Decimals: 18, Account: acc1, Delta: oneEther()},
		{Token: tokenA, Symbol: "TKA", Decimals: 18, Account: acc2, Delta: big.NewInt(0)},
	}}

	rendered, err := p.RenderDiff(context.Background(), diff)
	require.NoError(t, err)
	assert.Contains(t, rendered, "+1.000000000000000000")
	assert.Equal(t, 1, strings.Count(rendered, "TKA"))
}

func TestPresenter_PrintSnapshotHeader(t *testing.T) {
	p, out, _ := newPresenter(t)

	require.NoError(t, p.PrintSnapshot(context.Background(), snapshotOf("t0", oneEther(), big.NewInt(0))))
	assert.Contains(t, out.String(), "== Balances: t0 ==")

	out.Reset()
	require.NoError(t, p.PrintSnapshot(context.Background(), snapshotOf("", oneEther(), big.NewInt(0))))
	assert.NotContains(t, out.String(), "== Balances")
}

func TestPresenter_PrintDiffHeader(t *testing.T) {
	p, out, _ := newPresenter(t)
	named := domain.Diff{Before: &domain.Snapshot{Name: "t0"}, After: &domain.Snapshot{Name: "t1"}}
	anon := domain.Diff{Before: &domain.Snapshot{Name: "t0"}, After: &domain.Snapshot{}}

	require.NoError(t, p.PrintDiff(context.Background(), named))
	assert.Contains(t, out.String(), "== Comparing Balances: t0 and t1 ==")

	out.Reset()
	require.NoError(t, p.PrintDiff(context.Background(), anon))
	assert.Contains(t, out.String(), "== Comparing Balances: Latest two snapshots ==")
}

func TestPresenter_RenderMetadataFailure(t *testing.T) {
	reader := readerMock.NewChainReader(t)
	reader.On("TokenMetadata", mock.Anything, tokenA).Return(domain.TokenMetadata{}, errors.New("not an ERC-20"))
	p := New(metadata.NewCache(reader, nil), &bytes.Buffer{})

	_, err := p.Render(context.Background(), snapshotOf("", oneEther(), big.NewInt(0)))
	var resErr *domain.ResolutionError
	assert.True(t, errors.As(err, &resErr))
}

func TestPresenter_LabelledAccount(t *testing.T) {
	p, _, _ := newPresenter(t)

	rendered, err := p.Render(context.Background(), snapshotOf("", big.NewInt(0), oneEther()))
	require.NoError(t, err)
	assert.Contains(t, rendered, "(bob)")
}
