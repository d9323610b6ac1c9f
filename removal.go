package mempool

import (
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// RemovalReason identifies why an entry left the pool, passed through to
// notify_entry_removed observers. Grounded on txmempool.h's
// MemPoolRemovalReason.
type RemovalReason int

const (
	ReasonUnknown RemovalReason = iota
	ReasonExpiry
	ReasonSizeLimit
	ReasonReorg
	ReasonBlock
	ReasonConflict
	ReasonReplaced
)

var removalReasonStrings = map[RemovalReason]string{
	ReasonUnknown:   "unknown",
	ReasonExpiry:    "expiry",
	ReasonSizeLimit: "size-limit",
	ReasonReorg:     "reorg",
	ReasonBlock:     "block",
	ReasonConflict:  "conflict",
	ReasonReplaced:  "replaced",
}

func (r RemovalReason) String() string {
	if s, ok := removalReasonStrings[r]; ok {
		return s
	}
	return "invalid"
}

// AddUnchecked admits a pre-validated entry into the pool. The caller is
// responsible for having validated the transaction itself; this method
// only performs the bookkeeping described in SPEC_FULL §4.2-§4.4. If
// ancestors is nil, the pool computes it via CalculateAncestors with
// unbounded limits — the caller's responsibility to have already enforced
// real limits before calling. Fails with ErrDuplicateTxID if the id is
// already present. Fires notify_entry_added on success.
func (mp *TxMempool) AddUnchecked(e *TxEntry, ancestors map[chainhash.Hash]*TxEntry,
	validFeeEstimate bool) error {

	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	id := e.TxID()
	if _, dup := mp.byID[id]; dup {
		return ruleError(ErrDuplicateTxID, "transaction already in pool")
	}

	if ancestors == nil {
		var err error
		ancestors, err = mp.calculateAncestorsLocked(e.Tx, e.VirtualSize(), unboundedLimits(), true)
		if err != nil {
			return err
		}
	}

	if delta, ok := mp.deltas[id]; ok {
		e.SetFeeDelta(delta)
	}

	mp.byID[id] = e
	mp.links.get(id)
	mp.insertIndices(e)

	mp.linkAndPropagateOnInsert(e, ancestors)

	mp.totalTxSize += e.VirtualSize()
	mp.cachedInnerUsage += e.Usage()
	mp.cachedInnerUsage += dynamicMemUsage(mp.links.get(id))

	mp.bumpLastUpdated()

	if mp.cfg.FeeEstimator != nil {
		mp.cfg.FeeEstimator.ProcessTransaction(e, validFeeEstimate)
	}

	mp.sendNotification(NTTxAccepted, &NTTxAcceptedData{Entry: e})

	mp.maybeSanityCheck()
	return nil
}

// RemoveStaged is the unified removal entry point. staged must be a set
// closed under the descendant relation — every in-pool descendant of any
// member already present — unless reason is ReasonBlock, in which case
// descendants remain in the pool and updateDescendants must be true.
// Grounded on txmempool.h's removeStaged.
func (mp *TxMempool) RemoveStaged(staged map[chainhash.Hash]struct{}, updateDescendants bool, reason RemovalReason) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()
	mp.removeStagedLocked(staged, updateDescendants, reason)
	mp.maybeSanityCheck()
}

func (mp *TxMempool) removeStagedLocked(staged map[chainhash.Hash]struct{}, updateDescendants bool, reason RemovalReason) {
	if updateDescendants {
		for r := range staged {
			entry, ok := mp.byID[r]
			if !ok {
				continue
			}
			descendants := map[chainhash.Hash]struct{}{}
			mp.calculateDescendantsLocked(r, descendants)
			for d := range descendants {
				if _, inSet := staged[d]; inSet {
					continue
				}
				if descEntry, ok := mp.byID[d]; ok {
					descEntry.ApplyAncestorDelta(
						-entry.VirtualSize(), -entry.ModifiedFee(), -1, -entry.SigOpCost())
					mp.reindexScores(descEntry)
				}
			}
		}
	}

	for r := range staged {
		entry, ok := mp.byID[r]
		if !ok {
			continue
		}
		// External ancestors: ancestors of r not also being removed.
		ancestors, _ := mp.calculateAncestorsLocked(entry.Tx, entry.VirtualSize(), unboundedLimits(), false)
		for p, ancEntry := range ancestors {
			if _, inSet := staged[p]; inSet {
				continue
			}
			ancEntry.ApplyDescendantDelta(-entry.VirtualSize(), -entry.ModifiedFee(), -1)
			mp.reindexScores(ancEntry)
		}
	}

	for r := range staged {
		entry, ok := mp.byID[r]
		if !ok {
			continue
		}
		mp.removeEntryLocked(entry)

		mp.sendNotification(NTTxRemoved, &NTTxRemovedData{Entry: entry, Reason: reason})
	}

	mp.bumpLastUpdated()
}

// removeEntryLocked erases entry from every index and link, and adjusts
// the pool's size/usage totals. Must be called with mp.mtx held.
func (mp *TxMempool) removeEntryLocked(entry *TxEntry) {
	id := entry.TxID()

	mp.cachedInnerUsage -= dynamicMemUsage(mp.links.get(id))
	mp.links.remove(id)

	inputs := make([]wire.OutPoint, 0, len(entry.Tx.MsgTx().TxIn))
	for _, in := range entry.Tx.MsgTx().TxIn {
		inputs = append(inputs, in.PreviousOutPoint)
	}
	mp.spend.unregister(inputs)

	mp.removeIndices(id)

	mp.totalTxSize -= entry.VirtualSize()
	mp.cachedInnerUsage -= entry.Usage()

	delete(mp.byID, id)
}

// RemoveRecursive computes tx's in-pool descendant closure (including
// itself, if present) and delegates to RemoveStaged.
func (mp *TxMempool) RemoveRecursive(tx *btcutil.Tx, reason RemovalReason) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	id := *tx.Hash()
	if _, ok := mp.byID[id]; !ok {
		return
	}
	staged := map[chainhash.Hash]struct{}{}
	mp.calculateDescendantsLocked(id, staged)
	mp.removeStagedLocked(staged, false, reason)
	mp.maybeSanityCheck()
}

// RemoveConflicts removes, with ReasonConflict, the existing in-pool
// spender (and its descendants) of any outpoint tx spends, excluding tx
// itself. Grounded on txmempool.h's removeConflicts.
func (mp *TxMempool) RemoveConflicts(tx *btcutil.Tx) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	txid := *tx.Hash()
	for _, in := range tx.MsgTx().TxIn {
		spender, ok := mp.spend.spenderOf(in.PreviousOutPoint)
		if !ok || spender == txid {
			continue
		}
		if _, present := mp.byID[spender]; !present {
			continue
		}
		staged := map[chainhash.Hash]struct{}{}
		mp.calculateDescendantsLocked(spender, staged)
		mp.removeStagedLocked(staged, false, ReasonConflict)
	}
	mp.maybeSanityCheck()
}

// RemoveForBlock removes each transaction in vtx that is present in the
// pool (collected alone, not with descendants — their ancestor state is
// instead updated via updateDescendants=true), clears their priority
// deltas, and notifies the fee estimator. Grounded on txmempool.h's
// removeForBlock.
func (mp *TxMempool) RemoveForBlock(vtx []*btcutil.Tx, height int32) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	staged := map[chainhash.Hash]struct{}{}
	var confirmed []*TxEntry
	for _, tx := range vtx {
		id := *tx.Hash()
		if e, ok := mp.byID[id]; ok {
			staged[id] = struct{}{}
			confirmed = append(confirmed, e)
		}
		delete(mp.deltas, id)
	}

	if len(staged) > 0 {
		mp.removeStagedLocked(staged, true, ReasonBlock)
	}

	if mp.cfg.FeeEstimator != nil && len(confirmed) > 0 {
		mp.cfg.FeeEstimator.ProcessBlock(height, confirmed)
	}
	mp.maybeSanityCheck()
}

// Expire removes every entry with time strictly before cutoff, together
// with its descendants, with ReasonExpiry. Returns the number of entries
// removed. Grounded on txmempool.h's Expire.
func (mp *TxMempool) Expire(cutoff time.Time) int {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	stale := mp.timeIndex.olderThan(cutoff)
	if len(stale) == 0 {
		return 0
	}
	staged := map[chainhash.Hash]struct{}{}
	for _, id := range stale {
		mp.calculateDescendantsLocked(id, staged)
	}
	n := len(staged)
	mp.removeStagedLocked(staged, false, ReasonExpiry)
	mp.maybeSanityCheck()
	return n
}

// RemoveForReorg re-evaluates every entry's relative-locktime finality
// against the supplied chain state and evicts, with ReasonReorg, any
// entry that is no longer final or whose inputs can no longer be
// resolved via the coin view — together with its descendants. Grounded
// on txmempool.h's removeForReorg.
func (mp *TxMempool) RemoveForReorg(coinView CoinView, height int32, medianTimePast int64) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	staged := map[chainhash.Hash]struct{}{}
	for id, e := range mp.byID {
		if _, already := staged[id]; already {
			continue
		}
		if !mp.entryStillValidLocked(e, coinView, height, medianTimePast) {
			mp.calculateDescendantsLocked(id, staged)
		}
	}
	if len(staged) > 0 {
		mp.removeStagedLocked(staged, false, ReasonReorg)
	}
	mp.maybeSanityCheck()
}

// entryStillValidLocked reports whether e's cached (or freshly evaluated)
// LockPoints are still satisfied at the given chain state, and whether
// every one of its inputs can still be resolved. A cached LockPoints
// naming a MaxInputBlock is never trusted outright — per LockPoints'
// own docstring, a reorg may have disconnected that block, so it is
// recomputed against the (post-reorg) coin view whenever a
// SequenceLockCalculator is configured.
func (mp *TxMempool) entryStillValidLocked(e *TxEntry, coinView CoinView, height int32, mtp int64) bool {
	lp := e.LockPoints()
	if lp.MaxInputBlock != nil && mp.cfg.SequenceLocks != nil {
		fresh, err := mp.cfg.SequenceLocks.CalcSequenceLock(e.Tx, coinView)
		if err != nil {
			return false
		}
		lp = fresh
		e.SetLockPoints(lp)
	}
	if lp.Height > height || lp.Time > mtp {
		return false
	}

	if coinView == nil {
		return true
	}
	for _, in := range e.Tx.MsgTx().TxIn {
		if _, ok := mp.byID[in.PreviousOutPoint.Hash]; ok {
			continue
		}
		if coinView.FetchUtxoEntry(in.PreviousOutPoint) == nil {
			return false
		}
	}
	return true
}
