package mempool

import (
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func TestCoinViewMemPoolResolvesInPoolOutput(t *testing.T) {
	t.Parallel()

	mp := newTestMempool()
	tx := newTestMsgTx(nil, 2, 50000, 50)
	e := newTestEntry(t, tx, 1000, 100, 100)
	require.NoError(t, mp.AddUnchecked(e, nil, false))

	overlay := NewCoinViewMemPool(nil, mp)

	coin := overlay.FetchUtxoEntry(wire.OutPoint{Hash: tx.TxHash(), Index: 0})
	require.NotNil(t, coin)
	require.Equal(t, int32(MempoolHeight), coin.Height)
	require.False(t, coin.IsCoinBase)
	require.Equal(t, tx.TxOut[0].Value, coin.Output.Value)
}

func TestCoinViewMemPoolOutOfRangeIndexIsMissing(t *testing.T) {
	t.Parallel()

	mp := newTestMempool()
	tx := newTestMsgTx(nil, 1, 50000, 51)
	e := newTestEntry(t, tx, 1000, 100, 100)
	require.NoError(t, mp.AddUnchecked(e, nil, false))

	overlay := NewCoinViewMemPool(nil, mp)
	coin := overlay.FetchUtxoEntry(wire.OutPoint{Hash: tx.TxHash(), Index: 5})
	require.Nil(t, coin)
}

func TestCoinViewMemPoolFallsBackToBackingView(t *testing.T) {
	t.Parallel()

	mp := newTestMempool()

	var otherHash [32]byte
	otherHash[0] = 0x42
	op := wire.OutPoint{Hash: otherHash, Index: 0}
	want := coinFromTxOut(wire.NewTxOut(12345, []byte{0x51}), 100, true)

	backing := new(MockCoinView)
	backing.On("FetchUtxoEntry", op).Return(want)

	overlay := NewCoinViewMemPool(backing, mp)
	got := overlay.FetchUtxoEntry(op)

	require.Same(t, want, got)
	backing.AssertExpectations(t)
}

func TestCoinViewMemPoolNilBackingMisses(t *testing.T) {
	t.Parallel()

	mp := newTestMempool()
	overlay := NewCoinViewMemPool(nil, mp)

	var otherHash [32]byte
	otherHash[1] = 0x7
	got := overlay.FetchUtxoEntry(wire.OutPoint{Hash: otherHash, Index: 0})
	require.Nil(t, got)
}
