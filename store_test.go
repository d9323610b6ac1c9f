package mempool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewMempoolIsEmpty(t *testing.T) {
	t.Parallel()

	mp := newTestMempool()
	require.Equal(t, 0, mp.Size())
	require.Equal(t, int64(0), mp.TotalTxSize())
	require.Equal(t, int64(0), mp.DynamicMemoryUsage())
}

func TestSetSanityCheckFrequencyClamps(t *testing.T) {
	t.Parallel()

	mp := newTestMempool()

	mp.SetSanityCheckFrequency(-1)
	require.Equal(t, 0.0, mp.sanityCheckFreq)

	mp.SetSanityCheckFrequency(5)
	require.Equal(t, 1.0, mp.sanityCheckFreq)

	mp.SetSanityCheckFrequency(0.25)
	require.Equal(t, 0.25, mp.sanityCheckFreq)
}

func TestAddUncheckedRejectsDuplicate(t *testing.T) {
	t.Parallel()

	mp := newTestMempool()
	tx := newTestMsgTx(nil, 1, 50000, 10)
	e := newTestEntry(t, tx, 1000, 150, 100)

	require.NoError(t, mp.AddUnchecked(e, nil, false))
	require.Equal(t, 1, mp.Size())

	dup := newTestEntry(t, tx, 1000, 150, 100)
	err := mp.AddUnchecked(dup, nil, false)
	require.Error(t, err)
	require.True(t, IsErrorCode(err, ErrDuplicateTxID))
}

func TestTotalTxSizeTracksVirtualSize(t *testing.T) {
	t.Parallel()

	mp := newTestMempool()
	txA := newTestMsgTx(nil, 1, 50000, 11)
	eA := newTestEntry(t, txA, 1000, 150, 100)
	require.NoError(t, mp.AddUnchecked(eA, nil, false))

	txB := newTestMsgTx(nil, 1, 50000, 12)
	eB := newTestEntry(t, txB, 2000, 150, 100)
	require.NoError(t, mp.AddUnchecked(eB, nil, false))

	require.Equal(t, eA.VirtualSize()+eB.VirtualSize(), mp.TotalTxSize())
}
