package mempool

import (
	"sort"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// TxDesc is a self-contained descriptor for a mined/relayed transaction,
// combining the entry's own fields with its aggregate statistics. Unlike
// the reference package's TxDesc, this one does not embed mining.TxDesc —
// see DESIGN.md for why (the mining package retrieved alongside this
// teacher is contaminated with a different chain's types).
type TxDesc struct {
	Tx                      *btcutil.Tx
	Fee                     btcutil.Amount
	FeeDelta                btcutil.Amount
	VSize                   int64
	Height                  int32
	CountWithAncestors      int64
	SizeWithAncestors       int64
	ModFeesWithAncestors    btcutil.Amount
	CountWithDescendants    int64
	SizeWithDescendants     int64
	ModFeesWithDescendants  btcutil.Amount
}

func newTxDesc(e *TxEntry) *TxDesc {
	return &TxDesc{
		Tx:                     e.Tx,
		Fee:                    e.Fee(),
		FeeDelta:               e.FeeDelta(),
		VSize:                  e.VirtualSize(),
		Height:                 e.Height(),
		CountWithAncestors:     e.CountWithAncestors(),
		SizeWithAncestors:      e.SizeWithAncestors(),
		ModFeesWithAncestors:   e.ModFeesWithAncestors(),
		CountWithDescendants:   e.CountWithDescendants(),
		SizeWithDescendants:    e.SizeWithDescendants(),
		ModFeesWithDescendants: e.ModFeesWithDescendants(),
	}
}

// Exists reports whether id is currently in the pool.
func (mp *TxMempool) Exists(id chainhash.Hash) bool {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()
	_, ok := mp.byID[id]
	return ok
}

// Get returns the raw entry for id, or nil if absent.
func (mp *TxMempool) Get(id chainhash.Hash) *TxEntry {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()
	return mp.byID[id]
}

// Info returns a TxDesc snapshot for id, or nil if absent.
func (mp *TxMempool) Info(id chainhash.Hash) *TxDesc {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()
	e, ok := mp.byID[id]
	if !ok {
		return nil
	}
	return newTxDesc(e)
}

// InfoAll returns a TxDesc snapshot for every entry in the pool, in the
// canonical sorted order (see CompareDepthAndScore).
func (mp *TxMempool) InfoAll() []*TxDesc {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	entries := make([]*TxEntry, 0, len(mp.byID))
	for _, e := range mp.byID {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return compareDepthAndScore(entries[i], entries[j])
	})

	out := make([]*TxDesc, len(entries))
	for i, e := range entries {
		out[i] = newTxDesc(e)
	}
	return out
}

// HasNoInputsOf reports whether no input of tx spends an outpoint
// produced by a transaction currently in the pool.
func (mp *TxMempool) HasNoInputsOf(tx *btcutil.Tx) bool {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()
	for _, in := range tx.MsgTx().TxIn {
		if _, ok := mp.byID[in.PreviousOutPoint.Hash]; ok {
			return false
		}
	}
	return true
}

// TransactionWithinChainLimit reports whether id is absent from the pool,
// or present with max(countWithDescendants, countWithAncestors) < limit.
func (mp *TxMempool) TransactionWithinChainLimit(id chainhash.Hash, limit int64) bool {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()
	e, ok := mp.byID[id]
	if !ok {
		return true
	}
	count := e.CountWithDescendants()
	if e.CountWithAncestors() > count {
		count = e.CountWithAncestors()
	}
	return count < limit
}

// CompareDepthAndScore provides the pool's canonical cross-ordering:
// ascending by depth (greater ancestor count sorts first), then
// descending by descendant-score. Used by InfoAll/QueryHashes for sorted
// export. Grounded on txmempool.h's CompareTxMemPoolEntryByAncestorFee /
// DepthAndScoreComparator.
func (mp *TxMempool) CompareDepthAndScore(a, b chainhash.Hash) bool {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()
	ea, oka := mp.byID[a]
	eb, okb := mp.byID[b]
	if !oka || !okb {
		return false
	}
	return compareDepthAndScore(ea, eb)
}

func compareDepthAndScore(a, b *TxEntry) bool {
	if a.CountWithAncestors() != b.CountWithAncestors() {
		return a.CountWithAncestors() > b.CountWithAncestors()
	}
	return a.DescendantScore() > b.DescendantScore()
}

// QueryHashes appends every id in the pool, in canonical sorted order, to
// out and returns the extended slice.
func (mp *TxMempool) QueryHashes(out []chainhash.Hash) []chainhash.Hash {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	entries := make([]*TxEntry, 0, len(mp.byID))
	for _, e := range mp.byID {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return compareDepthAndScore(entries[i], entries[j])
	})
	for _, e := range entries {
		out = append(out, e.TxID())
	}
	return out
}

// IsSpent reports whether op is spent by a transaction currently in the
// pool, returning the id of the spender.
func (mp *TxMempool) IsSpent(op wire.OutPoint) (chainhash.Hash, bool) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()
	return mp.spend.spenderOf(op)
}

// PrioritiseTransaction adjusts the persistent priority delta for id by
// delta. If id is currently in the pool, its own fee delta is updated and
// the change is propagated as a descendant-fee delta to every ancestor and
// as an ancestor-fee delta to the entry itself and every descendant.
// Grounded on txmempool.h's PrioritiseTransaction.
func (mp *TxMempool) PrioritiseTransaction(id chainhash.Hash, delta btcutil.Amount) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	mp.deltas[id] += delta
	if mp.deltas[id] == 0 {
		delete(mp.deltas, id)
	}

	e, ok := mp.byID[id]
	if !ok {
		return
	}
	e.SetFeeDelta(e.FeeDelta() + delta)
	e.ApplyAncestorDelta(0, delta, 0, 0)
	mp.reindexScores(e)

	ancestors, err := mp.calculateAncestorsLocked(e.Tx, e.VirtualSize(), unboundedLimits(), false)
	if err == nil {
		for _, a := range ancestors {
			a.ApplyDescendantDelta(0, delta, 0)
			mp.reindexScores(a)
		}
	}
	descendants := map[chainhash.Hash]struct{}{}
	mp.calculateDescendantsLocked(id, descendants)
	for d := range descendants {
		if de, ok := mp.byID[d]; ok && d != id {
			de.ApplyAncestorDelta(0, delta, 0, 0)
			mp.reindexScores(de)
		}
	}
	mp.bumpLastUpdated()
}

// ApplyDelta returns the currently applied priority delta for id, whether
// or not the transaction is in the pool.
func (mp *TxMempool) ApplyDelta(id chainhash.Hash) btcutil.Amount {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()
	return mp.deltas[id]
}

// ClearPrioritisation removes any persisted priority delta for id,
// without touching an in-pool entry's already-applied fee delta.
func (mp *TxMempool) ClearPrioritisation(id chainhash.Hash) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()
	delete(mp.deltas, id)
}
