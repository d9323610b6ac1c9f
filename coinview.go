package mempool

import (
	"github.com/btcsuite/btcd/wire"
)

// MempoolHeight is the sentinel height FetchUtxoEntry stamps onto a
// coin that is itself only available because its producing transaction
// sits in the mempool rather than a confirmed block. Grounded on
// txmempool.h's MEMPOOL_HEIGHT constant.
const MempoolHeight = 0x7FFFFFFF

// Coin is a minimal UTXO record: the output itself plus the height and
// coinbase-ness of the transaction that produced it. Grounded on Core's
// Coin (coins.h), trimmed to the fields this package's own logic actually
// consults (LockPoints evaluation, RemoveForReorg's spendability check).
type Coin struct {
	Output      wire.TxOut
	Height      int32
	IsCoinBase  bool
	Spent       bool
}

// CoinViewMemPool layers the pool's own in-flight outputs over a backing
// CoinView, so that an input spending an output still sitting unconfirmed
// in the pool resolves without ever touching the backing view. Grounded on
// txmempool.h's CCoinsViewMemPool.
type CoinViewMemPool struct {
	backing CoinView
	mp      *TxMempool
}

// NewCoinViewMemPool constructs an overlay over backing, consulting mp's
// own entries first.
func NewCoinViewMemPool(backing CoinView, mp *TxMempool) *CoinViewMemPool {
	return &CoinViewMemPool{backing: backing, mp: mp}
}

// FetchUtxoEntry resolves op against the pool first: if some in-pool
// transaction produces op's output, a synthetic Coin stamped with
// MempoolHeight is returned — the output is real but not yet confirmed at
// any concrete height. Otherwise the backing view is consulted.
func (c *CoinViewMemPool) FetchUtxoEntry(op wire.OutPoint) *Coin {
	c.mp.mtx.Lock()
	entry, ok := c.mp.byID[op.Hash]
	c.mp.mtx.Unlock()

	if ok {
		outs := entry.Tx.MsgTx().TxOut
		if int(op.Index) >= len(outs) {
			return nil
		}
		return &Coin{
			Output:     *outs[op.Index],
			Height:     MempoolHeight,
			IsCoinBase: false,
		}
	}

	if c.backing == nil {
		return nil
	}
	return c.backing.FetchUtxoEntry(op)
}

// coinFromTxOut builds a Coin for a confirmed output at height. It is
// unexported, so only code inside this package (its tests) can use it; a
// convenience constructor grounded on the same Coin shape Core uses for
// non-mempool coins.
func coinFromTxOut(out *wire.TxOut, height int32, isCoinBase bool) *Coin {
	return &Coin{Output: *out, Height: height, IsCoinBase: isCoinBase}
}
