package mempool

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func TestDisconnectedBlockTransactionsAddAndClear(t *testing.T) {
	t.Parallel()

	buf := NewDisconnectedBlockTransactions()
	require.Equal(t, 0, buf.Size())

	coinbase := newTestMsgTx(nil, 1, 5000000000, 40)
	txP := newTestMsgTx(nil, 1, 50000, 41)
	block := []*btcutil.Tx{btcutil.NewTx(coinbase), btcutil.NewTx(txP)}

	buf.AddForBlock(block)
	require.Equal(t, 1, buf.Size())
	require.Greater(t, buf.DynamicMemoryUsage(), int64(0))

	buf.Clear()
	require.Equal(t, 0, buf.Size())
	require.Equal(t, int64(0), buf.DynamicMemoryUsage())
}

func TestDisconnectedBlockTransactionsRemoveForBlock(t *testing.T) {
	t.Parallel()

	buf := NewDisconnectedBlockTransactions()
	coinbase := newTestMsgTx(nil, 1, 5000000000, 42)
	txP := newTestMsgTx(nil, 1, 50000, 43)
	buf.AddForBlock([]*btcutil.Tx{btcutil.NewTx(coinbase), btcutil.NewTx(txP)})
	require.Equal(t, 1, buf.Size())

	buf.removeForBlock([]*btcutil.Tx{btcutil.NewTx(txP)})
	require.Equal(t, 0, buf.Size())
}

// TestReorgReintroductionScenario is the spec's end-to-end scenario 6:
// with an empty pool, re-admit disconnected transactions P and C(spends
// P) without linking, then call UpdateTransactionsFromBlock([P, C]);
// expect P's descendant set to be {C} and P's descendant aggregates to
// account for C.
func TestReorgReintroductionScenario(t *testing.T) {
	t.Parallel()

	mp := newTestMempool()

	txP := newTestMsgTx(nil, 1, 50000, 44)
	eP := newTestEntry(t, txP, 1000, 100, 100)
	require.NoError(t, mp.AddUnchecked(eP, map[chainhash.Hash]*TxEntry{}, false))

	txC := newTestMsgTx([]wire.OutPoint{{Hash: txP.TxHash(), Index: 0}}, 1, 40000, 45)
	eC := newTestEntry(t, txC, 2000, 200, 100)
	require.NoError(t, mp.AddUnchecked(eC, map[chainhash.Hash]*TxEntry{}, false))

	// Without linking, P must not yet know about C.
	gotP := mp.Get(txP.TxHash())
	require.Equal(t, int64(1), gotP.CountWithDescendants())

	mp.UpdateTransactionsFromBlock([]chainhash.Hash{txP.TxHash(), txC.TxHash()})

	gotP = mp.Get(txP.TxHash())
	require.Equal(t, int64(2), gotP.CountWithDescendants())
	require.Equal(t, int64(300), gotP.SizeWithDescendants())
	require.Equal(t, btcutil.Amount(3000), gotP.ModFeesWithDescendants())

	require.Contains(t, mp.links.childrenOf(txP.TxHash()), txC.TxHash())
}
