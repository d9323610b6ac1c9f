package mempool

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/require"
)

// TestTrimToSizeScenario is the spec's end-to-end scenario 4, scaled down:
// admit N unrelated transactions with linearly increasing feerates, force
// a budget that requires removing exactly the K lowest-feerate entries,
// and check the rolling minimum feerate is bumped to at least the last
// removed package's rate.
func TestTrimToSizeScenario(t *testing.T) {
	t.Parallel()

	mp := newTestMempool()
	const n = 10
	const vsize = 100

	entries := make([]*TxEntry, n)
	for i := 0; i < n; i++ {
		tx := newTestMsgTx(nil, 1, 50000, uint32(100+i))
		fee := btcutil.Amount(1000 * (i + 1))
		e := newTestEntry(t, tx, fee, vsize, 100)
		require.NoError(t, mp.AddUnchecked(e, nil, false))
		entries[i] = e
	}

	usageBefore := mp.DynamicMemoryUsage()
	perEntryUsage := usageBefore / n

	const toRemove = 3
	budget := usageBefore - perEntryUsage*toRemove

	mp.TrimToSize(budget, nil)

	require.LessOrEqual(t, mp.DynamicMemoryUsage(), budget+perEntryUsage)
	require.Equal(t, n-toRemove, mp.Size())

	// The lowest-feerate entries (index 0..toRemove-1) must be the ones
	// gone; the highest-feerate entries must all survive.
	for i := 0; i < toRemove; i++ {
		require.Nil(t, mp.Get(entries[i].TxID()))
	}
	for i := toRemove; i < n; i++ {
		require.NotNil(t, mp.Get(entries[i].TxID()))
	}

	lastRemovedRate := newFeerate(btcutil.Amount(1000*toRemove), vsize)
	require.GreaterOrEqual(t, mp.rollingMinimumFeerate, float64(lastRemovedRate))
}

func TestGetMinFeeDecaysByHalfLife(t *testing.T) {
	t.Parallel()

	mp := newTestMempool()
	mp.rollingMinimumFeerate = 1000
	mp.lastRollingFeeUpdate = time.Now().Add(-time.Duration(rollingFeeHalfLife) * time.Second)

	before := mp.rollingMinimumFeerate
	mp.getMinFeeLocked()
	require.InDelta(t, before/2, mp.rollingMinimumFeerate, before/2*0.01)
}
