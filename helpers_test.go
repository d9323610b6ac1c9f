package mempool

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

// newTestMsgTx builds a syntactically valid transaction spending the given
// inputs and producing numOutputs outputs of outputValue each. nonce is
// folded into the locktime purely to force a distinct hash for otherwise
// structurally identical transactions — this package never validates
// scripts or signatures, so the content of the inputs/outputs themselves
// is never inspected beyond the outpoints they reference.
func newTestMsgTx(inputs []wire.OutPoint, numOutputs int, outputValue int64, nonce uint32) *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	for _, op := range inputs {
		tx.AddTxIn(wire.NewTxIn(&op, nil, nil))
	}
	for i := 0; i < numOutputs; i++ {
		tx.AddTxOut(wire.NewTxOut(outputValue, []byte{0x51}))
	}
	tx.LockTime = nonce
	return tx
}

// newTestEntry constructs a TxEntry around a freshly built transaction.
// fee and vsize are taken as external facts the caller supplies (this
// package takes both as given rather than deriving them from a coin view,
// matching the AddUnchecked contract of "pre-validated by the caller") so
// that tests can reproduce the spec's own worked examples exactly.
func newTestEntry(t *testing.T, tx *wire.MsgTx, fee btcutil.Amount, vsize int64, height int32) *TxEntry {
	t.Helper()
	btx := btcutil.NewTx(tx)
	return newTxEntry(btx, fee, vsize, vsize*4, time.Now(), height, false, 1)
}

// newTestMempool returns an empty pool with default policy and no
// collaborators wired in, suitable for tests that never touch the coin
// view or fee estimator.
func newTestMempool() *TxMempool {
	return New(DefaultPolicy(), Config{})
}
