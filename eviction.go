package mempool

import (
	"math"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// TrimToSize removes the lowest descendant-score packages, one whole
// descendant closure at a time, until dynamic memory usage is at or below
// budget. If outNoSpends is non-nil, every outpoint that was a parent
// reference of a removed transaction and is no longer spent by anything
// still in the pool is appended to it. Grounded on txmempool.h's
// TrimToSize.
func (mp *TxMempool) TrimToSize(budget int64, outNoSpends *[]wire.OutPoint) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	for mp.dynamicMemoryUsageLocked() > budget && len(mp.byID) > 0 {
		ascending := mp.descendantIndex.ascending()
		if len(ascending) == 0 {
			break
		}
		victim := ascending[0]
		entry := mp.byID[victim]

		closure := map[chainhash.Hash]struct{}{}
		mp.calculateDescendantsLocked(victim, closure)

		// Collect the parent outpoints of every removed tx before
		// unlinking, so we can report which ones are no longer spent
		// afterward.
		var parentOutpoints []wire.OutPoint
		if outNoSpends != nil {
			for id := range closure {
				if e, ok := mp.byID[id]; ok {
					for _, in := range e.Tx.MsgTx().TxIn {
						parentOutpoints = append(parentOutpoints, in.PreviousOutPoint)
					}
				}
			}
		}

		packageFeerate := newFeerate(entry.ModFeesWithDescendants(), entry.SizeWithDescendants())

		mp.removeStagedLocked(closure, false, ReasonSizeLimit)
		mp.trackPackageRemovedLocked(packageFeerate)

		if outNoSpends != nil {
			for _, op := range parentOutpoints {
				if _, stillSpent := mp.spend.spenderOf(op); !stillSpent {
					*outNoSpends = append(*outNoSpends, op)
				}
			}
		}
	}
}

// trackPackageRemovedLocked bumps the rolling minimum feerate if rate
// exceeds it, and marks that no block has been observed since the bump.
// Grounded on txmempool.h's trackPackageRemoved.
func (mp *TxMempool) trackPackageRemovedLocked(rate feerate) {
	r := float64(rate)
	if r > mp.rollingMinimumFeerate {
		mp.rollingMinimumFeerate = r
		mp.blockSinceLastRollingFeeBump = false
	}
}

// GetMinFee returns the effective admission feerate floor, decaying the
// rolling minimum by the configured half-life scaled against elapsed wall
// time since the last update — but only while no block has been observed
// since the last bump. Grounded on txmempool.h's GetMinFee.
func (mp *TxMempool) GetMinFee(sizeLimit int64) feerate {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()
	return mp.getMinFeeLocked()
}

func (mp *TxMempool) getMinFeeLocked() feerate {
	now := time.Now()
	if !mp.lastRollingFeeUpdate.IsZero() && mp.rollingMinimumFeerate > 0 {
		elapsed := now.Sub(mp.lastRollingFeeUpdate).Seconds()
		if elapsed > 0 {
			halfLives := elapsed / rollingFeeHalfLife
			mp.rollingMinimumFeerate /= math.Pow(2, halfLives)
			if mp.blockSinceLastRollingFeeBump && mp.rollingMinimumFeerate < float64(mp.policy.IncrementalRelayFee)/2 {
				mp.rollingMinimumFeerate = 0
			}
			mp.lastRollingFeeUpdate = now
		}
	} else if mp.lastRollingFeeUpdate.IsZero() {
		mp.lastRollingFeeUpdate = now
	}

	if mp.rollingMinimumFeerate == 0 {
		return 0
	}

	incremental := float64(mp.policy.IncrementalRelayFee) / 1000
	if mp.rollingMinimumFeerate < incremental/2 {
		return 0
	}

	floor := feerate(mp.rollingMinimumFeerate)
	lowest := mp.lowestDescendantScoreLocked()
	if lowest > floor {
		return lowest
	}
	return floor
}

// lowestDescendantScoreLocked returns the descendant-score of the
// currently lowest-ranked entry, or 0 if the pool is empty.
func (mp *TxMempool) lowestDescendantScoreLocked() feerate {
	asc := mp.descendantIndex.ascending()
	if len(asc) == 0 {
		return 0
	}
	e, ok := mp.byID[asc[0]]
	if !ok {
		return 0
	}
	return e.DescendantScore()
}
