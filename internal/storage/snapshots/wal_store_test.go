package snapshots

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hattyot/BalanceSnapshotter/internal/domain"
)

func testSnapshot(seq uint64, name string, raw int64) *domain.Snapshot {
	balances := domain.NewBalances()
	token := domain.Token{Address: common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")}
	balances.Set(token, domain.Account{Address: common.HexToAddress("0x0000000000000000000000000000000000000c01"), Label: "alice"}, big.NewInt(raw))
	balances.Set(token, domain.Account{Address: common.HexToAddress("0x0000000000000000000000000000000000000c02")}, big.NewInt(0))
	balances.Freeze()

	return &domain.Snapshot{
		ID:       uuid.New(),
		Seq:      seq,
		Name:     name,
		TakenAt:  time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
		Balances: balances,
	}
}

func TestWALStore_SaveAndRead(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	first := testSnapshot(1, "t0", 100)
	second := testSnapshot(2, "", 250)
	require.NoError(t, store.Save(first))
	require.NoError(t, store.Save(second))
	assert.Equal(t, uint64(2), store.CurrentIndex())

	records, err := store.RecordsAfter(0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, first.ID.String(), records[0].Record.ID)
	assert.Equal(t, "t0", records[0].Record.Name)
	assert.Equal(t, uint64(2), records[1].Record.Seq)

	tail, err := store.RecordsAfter(1)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, uint64(2), tail[0].Index)

	none, err := store.RecordsAfter(2)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRecord_RoundTripToSnapshot(t *testing.T) {
	orig := testSnapshot(3, "audit", 123456789)

	restored, err := NewRecord(orig).ToSnapshot()
	require.NoError(t, err)
	assert.Equal(t, orig.ID, restored.ID)
	assert.Equal(t, orig.Seq, restored.Seq)
	assert.True(t, restored.Balances.Frozen())
	assert.Equal(t, orig.Balances.Len(), restored.Balances.Len())

	orig.Balances.Each(func(token domain.Token, account domain.Account, value *big.Int) bool {
		got, err := restored.Balances.Get(token, account)
		require.NoError(t, err)
		assert.Equal(t, 0, value.Cmp(got))
		return true
	})
	assert.Equal(t, "alice", restored.Balances.Accounts(restored.Balances.Tokens()[0])[0].Label)
}

func TestWALStore_SaveRejectsEmpty(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	assert.Error(t, store.Save(&domain.Snapshot{}))
}

func TestWALStore_SkipsForeignEntries(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Save(testSnapshot(1, "t0", 100)))
	require.NoError(t, store.wal.Write(store.CurrentIndex()+1, "checkpoint", []byte("{}")))

	records, err := store.RecordsAfter(0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, uint64(1), records[0].Index)

	seq, err := store.LastSeq()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)
}

func TestWALStore_LastSeqSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewWALStore(dir)
	require.NoError(t, err)
	seq, err := store.LastSeq()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), seq)

	require.NoError(t, store.Save(testSnapshot(1, "t0", 100)))
	require.NoError(t, store.Save(testSnapshot(2, "t1", 200)))
	require.NoError(t, store.Close())

	reopened, err := NewWALStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	seq, err = reopened.LastSeq()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), seq)

	records, err := reopened.RecordsAfter(0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "t1", records[1].Record.Name)
}
