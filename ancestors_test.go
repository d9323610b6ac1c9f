package mempool

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func TestCalculateAncestorsFindsInPoolParent(t *testing.T) {
	t.Parallel()

	mp := newTestMempool()
	txA := newTestMsgTx(nil, 1, 50000, 20)
	eA := newTestEntry(t, txA, 1000, 100, 100)
	require.NoError(t, mp.AddUnchecked(eA, nil, false))

	txB := newTestMsgTx([]wire.OutPoint{{Hash: *eA.Tx.Hash(), Index: 0}}, 1, 40000, 21)
	btxB := newTestEntry(t, txB, 2000, 200, 100)

	ancestors, err := mp.CalculateAncestors(btxB.Tx, btxB.VirtualSize(), unboundedLimits(), true)
	require.NoError(t, err)
	require.Len(t, ancestors, 1)
	require.Contains(t, ancestors, txA.TxHash())
}

func TestCalculateAncestorsRejectsTooMany(t *testing.T) {
	t.Parallel()

	mp := newTestMempool()
	txA := newTestMsgTx(nil, 1, 50000, 22)
	eA := newTestEntry(t, txA, 1000, 100, 100)
	require.NoError(t, mp.AddUnchecked(eA, nil, false))

	txB := newTestMsgTx([]wire.OutPoint{{Hash: *eA.Tx.Hash(), Index: 0}}, 1, 40000, 23)
	btxB := newTestEntry(t, txB, 2000, 200, 100)

	limits := unboundedLimits()
	limits.MaxAncestors = 0
	_, err := mp.CalculateAncestors(btxB.Tx, btxB.VirtualSize(), limits, true)
	require.Error(t, err)
	require.True(t, IsErrorCode(err, ErrTooManyAncestors))
}

// TestParentChildInsertionScenario is the spec's end-to-end scenario 1:
// insert A (fee 1000, vsize 100), insert B spending A's output 0 (fee
// 2000, vsize 200); check both entries' aggregates and A's descendant
// score.
func TestParentChildInsertionScenario(t *testing.T) {
	t.Parallel()

	mp := newTestMempool()

	txA := newTestMsgTx(nil, 1, 50000, 24)
	eA := newTestEntry(t, txA, 1000, 100, 100)
	require.NoError(t, mp.AddUnchecked(eA, nil, false))

	txB := newTestMsgTx([]wire.OutPoint{{Hash: *eA.Tx.Hash(), Index: 0}}, 1, 40000, 25)
	eB := newTestEntry(t, txB, 2000, 200, 100)
	require.NoError(t, mp.AddUnchecked(eB, nil, false))

	gotA := mp.Get(txA.TxHash())
	gotB := mp.Get(txB.TxHash())
	require.NotNil(t, gotA)
	require.NotNil(t, gotB)

	require.Equal(t, int64(2), gotA.CountWithDescendants())
	require.Equal(t, int64(300), gotA.SizeWithDescendants())
	require.Equal(t, btcutil.Amount(3000), gotA.ModFeesWithDescendants())

	require.Equal(t, int64(2), gotB.CountWithAncestors())
	require.Equal(t, int64(300), gotB.SizeWithAncestors())
	require.Equal(t, btcutil.Amount(3000), gotB.ModFeesWithAncestors())

	require.Equal(t, feerate(10), gotA.DescendantScore())
}
