package mempool

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func chainAB(t *testing.T) (mp *TxMempool, txA, txB *wire.MsgTx) {
	t.Helper()
	mp = newTestMempool()

	txA = newTestMsgTx(nil, 1, 50000, 30)
	eA := newTestEntry(t, txA, 1000, 100, 100)
	require.NoError(t, mp.AddUnchecked(eA, nil, false))

	txB = newTestMsgTx([]wire.OutPoint{{Hash: *eA.Tx.Hash(), Index: 0}}, 1, 40000, 31)
	eB := newTestEntry(t, txB, 2000, 200, 100)
	require.NoError(t, mp.AddUnchecked(eB, nil, false))

	return mp, txA, txB
}

// TestConfirmParentScenario is the spec's end-to-end scenario 2.
func TestConfirmParentScenario(t *testing.T) {
	t.Parallel()

	mp, txA, txB := chainAB(t)

	mp.RemoveForBlock([]*btcutil.Tx{btcutil.NewTx(txA)}, 200)

	require.Nil(t, mp.Get(txA.TxHash()))

	gotB := mp.Get(txB.TxHash())
	require.NotNil(t, gotB)
	require.Equal(t, int64(1), gotB.CountWithAncestors())
	require.Equal(t, int64(200), gotB.SizeWithAncestors())
	require.Equal(t, btcutil.Amount(2000), gotB.ModFeesWithAncestors())
}

// TestConflictEvictionScenario is the spec's end-to-end scenario 3.
func TestConflictEvictionScenario(t *testing.T) {
	t.Parallel()

	mp, txA, _ := chainAB(t)

	var removedReason RemovalReason
	var removedSeen bool
	mp.Subscribe(func(n *Notification) {
		if n.Type == NTTxRemoved {
			removedReason = n.Data.(*NTTxRemovedData).Reason
			removedSeen = true
		}
	})

	txC := newTestMsgTx([]wire.OutPoint{{Hash: txA.TxHash(), Index: 0}}, 1, 30000, 35)
	mp.RemoveConflicts(btcutil.NewTx(txC))

	require.True(t, removedSeen)
	require.Equal(t, ReasonConflict, removedReason)
	require.Equal(t, 1, mp.Size())
	require.NotNil(t, mp.Get(txA.TxHash()))
}

func TestRemoveRecursiveRoundTrip(t *testing.T) {
	t.Parallel()

	mp := newTestMempool()
	tx := newTestMsgTx(nil, 1, 50000, 32)
	e := newTestEntry(t, tx, 1000, 100, 100)
	require.NoError(t, mp.AddUnchecked(e, nil, false))

	sizeBefore := mp.TotalTxSize()
	usageBefore := mp.DynamicMemoryUsage()

	mp.RemoveRecursive(e.Tx, ReasonUnknown)

	require.Equal(t, 0, mp.Size())
	require.Equal(t, int64(0), mp.TotalTxSize())
	require.Less(t, mp.DynamicMemoryUsage(), usageBefore)
	require.NotEqual(t, sizeBefore, mp.TotalTxSize())
}

// TestRemoveForReorgRecomputesStaleLockPoints checks that an entry whose
// cached LockPoints name a MaxInputBlock is never trusted as-is: the
// configured SequenceLockCalculator is always consulted, and an entry it
// reports as not-yet-final is evicted even though the stale cache alone
// would have looked satisfied.
func TestRemoveForReorgRecomputesStaleLockPoints(t *testing.T) {
	t.Parallel()

	calc := new(MockSequenceLockCalculator)
	mp := New(DefaultPolicy(), Config{SequenceLocks: calc})

	tx := newTestMsgTx(nil, 1, 50000, 60)
	e := newTestEntry(t, tx, 1000, 100, 100)

	var disconnectedBlock chainhash.Hash
	disconnectedBlock[0] = 0x7
	e.SetLockPoints(LockPoints{Height: 50, Time: 0, MaxInputBlock: &disconnectedBlock})
	require.NoError(t, mp.AddUnchecked(e, nil, false))

	calc.On("CalcSequenceLock", e.Tx, mock.Anything).
		Return(LockPoints{Height: 9999, Time: 0}, nil)

	mp.RemoveForReorg(nil, 100, 0)

	require.Nil(t, mp.Get(tx.TxHash()))
	calc.AssertExpectations(t)
}

func TestExpiryChainScenario(t *testing.T) {
	t.Parallel()

	mp := newTestMempool()

	base := time.Now().Add(-time.Hour)
	txA := newTestMsgTx(nil, 1, 50000, 33)
	eA := newTestEntry(t, txA, 1000, 100, 100)
	eA.time = base
	require.NoError(t, mp.AddUnchecked(eA, nil, false))

	txB := newTestMsgTx([]wire.OutPoint{{Hash: *eA.Tx.Hash(), Index: 0}}, 1, 40000, 34)
	eB := newTestEntry(t, txB, 2000, 200, 100)
	eB.time = base.Add(time.Second)
	require.NoError(t, mp.AddUnchecked(eB, nil, false))

	removed := mp.Expire(base.Add(2 * time.Second))
	require.Equal(t, 2, removed)
	require.Equal(t, 0, mp.Size())
}
