package mempool

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// DisconnectedBlockTransactions buffers the transactions of disconnected
// blocks during a reorg so they can be re-admitted to the mempool once the
// new chain tip is known, newest block first. Grounded on txmempool.h's
// DisconnectedBlockTransactions: callers add blocks as they are
// disconnected (most recent first), then either removeForBlock (a block
// turned out to be on the new chain too) or removeAndGetConflicts-style
// draining for the rest once reconnection is complete.
//
// Unlike the rest of this package, the buffer does not take mp.mtx — it
// owns no mempool state, only its own queue — but is not itself
// concurrency-safe; callers serialize access the same way block
// connection/disconnection is already serialized upstream.
type DisconnectedBlockTransactions struct {
	// queuedTx holds every buffered transaction, most recently
	// disconnected block first, in the order AddForBlock appended them.
	queuedTx []*btcutil.Tx

	// queuedHashes mirrors queuedTx by hash, so AddForBlock can reject a
	// transaction already buffered in O(1) rather than scanning queuedTx.
	queuedHashes map[chainhash.Hash]struct{}

	cachedInnerUsage int64
}

// NewDisconnectedBlockTransactions constructs an empty buffer.
func NewDisconnectedBlockTransactions() *DisconnectedBlockTransactions {
	return &DisconnectedBlockTransactions{
		queuedHashes: make(map[chainhash.Hash]struct{}),
	}
}

// AddForBlock appends every transaction of a newly disconnected block,
// excluding the coinbase, to the front of the buffer — so the buffer is
// always ordered most-recently-disconnected-first, matching the order a
// reorg should re-admit them in (children before the parents that were
// disconnected earlier, since disconnection itself proceeds tip-first).
// A transaction already present in the buffer by hash is skipped rather
// than queued twice.
func (d *DisconnectedBlockTransactions) AddForBlock(txs []*btcutil.Tx) {
	if d.queuedHashes == nil {
		d.queuedHashes = make(map[chainhash.Hash]struct{})
	}
	added := make([]*btcutil.Tx, 0, len(txs))
	for i := len(txs) - 1; i >= 1; i-- {
		tx := txs[i]
		hash := *tx.Hash()
		if _, dup := d.queuedHashes[hash]; dup {
			continue
		}
		d.queuedHashes[hash] = struct{}{}
		added = append(added, tx)
		d.cachedInnerUsage += dynamicMemUsageOfTx(tx)
	}
	d.queuedTx = append(added, d.queuedTx...)
}

// Size returns the number of transactions currently buffered.
func (d *DisconnectedBlockTransactions) Size() int {
	return len(d.queuedTx)
}

// DynamicMemoryUsage returns the buffer's own estimated memory footprint.
func (d *DisconnectedBlockTransactions) DynamicMemoryUsage() int64 {
	return d.cachedInnerUsage
}

// Clear empties the buffer without returning its contents, used once the
// caller has confirmed every queued transaction has been accounted for by
// some other means (e.g. the new chain reconfirmed every block verbatim).
func (d *DisconnectedBlockTransactions) Clear() {
	d.queuedTx = nil
	d.queuedHashes = make(map[chainhash.Hash]struct{})
	d.cachedInnerUsage = 0
}

// removeForBlock drops every transaction in vtx (a newly connected block)
// from the buffer — they no longer need re-admission, since they are
// confirmed again. Grounded on DisconnectedBlockTransactions::removeForBlock.
func (d *DisconnectedBlockTransactions) removeForBlock(vtx []*btcutil.Tx) {
	confirmed := make(map[chainhash.Hash]struct{}, len(vtx))
	for _, tx := range vtx {
		confirmed[*tx.Hash()] = struct{}{}
	}
	d.removeIf(func(tx *btcutil.Tx) bool {
		_, ok := confirmed[*tx.Hash()]
		return ok
	})
}

// removeIf drops every buffered transaction for which drop returns true,
// in insertion order, recomputing cachedInnerUsage as it goes.
func (d *DisconnectedBlockTransactions) removeIf(drop func(*btcutil.Tx) bool) {
	kept := d.queuedTx[:0]
	var usage int64
	for _, tx := range d.queuedTx {
		if drop(tx) {
			delete(d.queuedHashes, *tx.Hash())
			continue
		}
		kept = append(kept, tx)
		usage += dynamicMemUsageOfTx(tx)
	}
	d.queuedTx = kept
	d.cachedInnerUsage = usage
}

// RemoveByInsertionOrder removes the single buffered transaction at
// position pos in the buffer's own storage order (0 is the
// most-recently-disconnected transaction; see queuedTx's ordering).
// Grounded on DisconnectedBlockTransactions::removeEntry, which erases one
// iterator from Core's sequenced index. Returns false if pos is out of
// range.
func (d *DisconnectedBlockTransactions) RemoveByInsertionOrder(pos int) bool {
	if pos < 0 || pos >= len(d.queuedTx) {
		return false
	}
	tx := d.queuedTx[pos]
	delete(d.queuedHashes, *tx.Hash())
	d.cachedInnerUsage -= dynamicMemUsageOfTx(tx)
	d.queuedTx = append(d.queuedTx[:pos], d.queuedTx[pos+1:]...)
	return true
}

// ImportMempool re-admits every transaction a reorg displaced that the
// mempool does not already hold, oldest-disconnected first (the reverse
// of the buffer's own storage order), via AddUnchecked with a freshly
// computed ancestor set (walked with unbounded limits, so no ancestor or
// descendant limit is enforced). Transactions admit declines, and entries
// AddUnchecked rejects (it rejects only a duplicate id), are silently
// skipped — the caller's job is re-admission, not re-validation; callers
// who need the skipped set should filter Get(...) == nil afterward. Returns
// the number of transactions re-admitted. Grounded on
// DisconnectedBlockTransactions::importMempool.
func (mp *TxMempool) ImportMempool(buf *DisconnectedBlockTransactions, admit func(tx *btcutil.Tx) (*TxEntry, bool)) int {
	readmitted := 0
	for i := len(buf.queuedTx) - 1; i >= 0; i-- {
		tx := buf.queuedTx[i]
		id := *tx.Hash()
		if mp.Exists(id) {
			continue
		}
		entry, ok := admit(tx)
		if !ok || entry == nil {
			continue
		}
		if err := mp.AddUnchecked(entry, nil, false); err == nil {
			readmitted++
		}
	}
	buf.Clear()
	return readmitted
}

// UpdateTransactionsFromBlock retroactively links every id in ids against
// the pool's current membership and recomputes ancestor/descendant
// aggregates along the way. Used after a batch of disconnected
// transactions has been re-admitted via AddUnchecked with an explicit
// empty ancestor set (deferring the usual on-insert linking, since a
// batch re-admitted in arbitrary order cannot reliably discover its own
// in-pool parents one entry at a time). A per-run cache memoizes
// descendant closures computed while walking ids; it only saves work when
// ids names the same id more than once. Grounded on
// txmempool.h's UpdateTransactionsFromBlock.
func (mp *TxMempool) UpdateTransactionsFromBlock(ids []chainhash.Hash) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	// Pass 1: establish every direct parent/child edge the batch
	// introduces, in either direction, before any aggregate is
	// recomputed — so pass 2 sees the fully relinked graph regardless
	// of the order ids were supplied in.
	for _, id := range ids {
		entry, ok := mp.byID[id]
		if !ok {
			continue
		}
		for i := range entry.Tx.MsgTx().TxOut {
			op := wire.OutPoint{Hash: id, Index: uint32(i)}
			child, spent := mp.spend.spenderOf(op)
			if !spent {
				continue
			}
			if _, present := mp.byID[child]; !present {
				continue
			}
			if _, linked := mp.links.childrenOf(id)[child]; linked {
				continue
			}
			mp.links.link(id, child)
		}
	}

	cache := make(map[chainhash.Hash]map[chainhash.Hash]struct{})
	closureOf := func(id chainhash.Hash) map[chainhash.Hash]struct{} {
		if c, ok := cache[id]; ok {
			return c
		}
		c := map[chainhash.Hash]struct{}{}
		mp.calculateDescendantsLocked(id, c)
		cache[id] = c
		return c
	}

	// Pass 2: every id's own ancestor aggregate, every now-linked
	// descendant's ancestor aggregate, and id's own descendant
	// aggregate are recomputed from the relinked graph in one shot —
	// simpler and no less correct than threading deltas through a
	// batch whose relative order is not the insertion order any
	// per-entry delta math would assume.
	for _, id := range ids {
		entry, ok := mp.byID[id]
		if !ok {
			continue
		}

		mp.recomputeAncestorAggregateLocked(entry)
		for d := range closureOf(id) {
			if d == id {
				continue
			}
			if de, ok := mp.byID[d]; ok {
				mp.recomputeAncestorAggregateLocked(de)
			}
		}
		mp.recomputeDescendantAggregateLocked(entry)
	}

	mp.bumpLastUpdated()
}

func (mp *TxMempool) recomputeAncestorAggregateLocked(e *TxEntry) {
	ancestors, err := mp.calculateAncestorsLocked(e.Tx, e.VirtualSize(), unboundedLimits(), false)
	if err != nil {
		return
	}
	var size int64
	var modFee btcutil.Amount
	var sigOps int64
	for _, a := range ancestors {
		size += a.VirtualSize()
		modFee += a.ModifiedFee()
		sigOps += a.SigOpCost()
	}
	e.setAncestorAggregate(
		int64(len(ancestors))+1, size+e.VirtualSize(), modFee+e.ModifiedFee(), sigOps+e.SigOpCost())
	mp.reindexScores(e)
}

func (mp *TxMempool) recomputeDescendantAggregateLocked(e *TxEntry) {
	closure := map[chainhash.Hash]struct{}{}
	mp.calculateDescendantsLocked(e.TxID(), closure)
	var size int64
	var modFee btcutil.Amount
	for d := range closure {
		if de, ok := mp.byID[d]; ok {
			size += de.VirtualSize()
			modFee += de.ModifiedFee()
		}
	}
	e.setDescendantAggregate(int64(len(closure)), size, modFee)
	mp.reindexScores(e)
}

// dynamicMemUsageOfTx is the reorg buffer's own memory-usage estimate for a
// single buffered transaction — the reflect-driven walk memusage.go uses
// for every other dynamically sized structure would both double-count a
// *btcutil.Tx already referenced by the live pool and require chasing into
// wire.MsgTx internals the buffer has no opinion about, so the estimate
// here is the same coarse per-element approximation
// DisconnectedBlockTransactions::DynamicMemoryUsage uses: base pointer
// overhead plus the transaction's serialized size.
func dynamicMemUsageOfTx(tx *btcutil.Tx) int64 {
	return 32 + int64(tx.MsgTx().SerializeSize())
}
