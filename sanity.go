package mempool

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// checkLocked walks the entire pool and panics with a RuleError carrying
// ErrInvariantViolation the first time it finds a broken invariant.
// Grounded on txmempool.h's CTxMemPool::check, which is compiled in only
// under a debug flag there; here it is the same O(N) walk, gated by
// SetSanityCheckFrequency instead of a build tag. Must be called with
// mp.mtx held.
func (mp *TxMempool) checkLocked() {
	if len(mp.byID) != mp.links.size() {
		mp.invariantPanic("link graph size %d does not match entry count %d",
			mp.links.size(), len(mp.byID))
	}
	if mp.descendantIndex.size() != len(mp.byID) || mp.ancestorIndex.size() != len(mp.byID) ||
		mp.timeIndex.size() != len(mp.byID) {
		mp.invariantPanic("index sizes do not match entry count %d", len(mp.byID))
	}

	for id, entry := range mp.byID {
		if *entry.Tx.Hash() != id {
			mp.invariantPanic("entry stored under wrong key %v", id)
		}

		var ancSize, ancSigOps int64
		var ancModFee btcutil.Amount
		seen := map[chainhash.Hash]struct{}{id: {}}
		frontier := make([]chainhash.Hash, 0, len(mp.links.parentsOf(id)))
		for p := range mp.links.parentsOf(id) {
			frontier = append(frontier, p)
		}
		for len(frontier) > 0 {
			p := frontier[len(frontier)-1]
			frontier = frontier[:len(frontier)-1]
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			parent, ok := mp.byID[p]
			if !ok {
				mp.invariantPanic("link graph references missing parent %v of %v", p, id)
			}
			ancSize += parent.VirtualSize()
			ancModFee += parent.ModifiedFee()
			ancSigOps += parent.SigOpCost()
			for gp := range mp.links.parentsOf(p) {
				frontier = append(frontier, gp)
			}
		}
		if int64(len(seen)) != entry.CountWithAncestors() {
			mp.invariantPanic("entry %v ancestor count %d does not match walked count %d",
				id, entry.CountWithAncestors(), len(seen))
		}
		if ancSize+entry.VirtualSize() != entry.SizeWithAncestors() {
			mp.invariantPanic("entry %v ancestor size %d does not match walked size %d",
				id, entry.SizeWithAncestors(), ancSize+entry.VirtualSize())
		}
		if ancModFee+entry.ModifiedFee() != entry.ModFeesWithAncestors() {
			mp.invariantPanic("entry %v ancestor modfee %d does not match walked modfee %d",
				id, entry.ModFeesWithAncestors(), ancModFee+entry.ModifiedFee())
		}

		descClosure := map[chainhash.Hash]struct{}{}
		mp.calculateDescendantsLocked(id, descClosure)
		var descSize int64
		var descModFee btcutil.Amount
		for d := range descClosure {
			de, ok := mp.byID[d]
			if !ok {
				mp.invariantPanic("descendant closure of %v references missing entry %v", id, d)
			}
			descSize += de.VirtualSize()
			descModFee += de.ModifiedFee()
		}
		if int64(len(descClosure)) != entry.CountWithDescendants() {
			mp.invariantPanic("entry %v descendant count %d does not match walked count %d",
				id, entry.CountWithDescendants(), len(descClosure))
		}
		if descSize != entry.SizeWithDescendants() {
			mp.invariantPanic("entry %v descendant size %d does not match walked size %d",
				id, entry.SizeWithDescendants(), descSize)
		}
		if descModFee != entry.ModFeesWithDescendants() {
			mp.invariantPanic("entry %v descendant modfee %d does not match walked modfee %d",
				id, entry.ModFeesWithDescendants(), descModFee)
		}

		for _, in := range entry.Tx.MsgTx().TxIn {
			parentID := in.PreviousOutPoint.Hash
			parentPresent := false
			if _, ok := mp.byID[parentID]; ok {
				parentPresent = true
			}
			_, linked := mp.links.parentsOf(id)[parentID]
			if parentPresent && !linked {
				mp.invariantPanic("input %v of %v produced in-pool but not linked as parent",
					in.PreviousOutPoint, id)
			}
			if spender, ok := mp.spend.spenderOf(in.PreviousOutPoint); !ok || spender != id {
				mp.invariantPanic("spend map missing entry for input %v of %v",
					in.PreviousOutPoint, id)
			}
		}

		for child := range mp.links.childrenOf(id) {
			if _, ok := mp.byID[child]; !ok {
				mp.invariantPanic("link graph references missing child %v of %v", child, id)
			}
			if _, ok := mp.links.parentsOf(child)[id]; !ok {
				mp.invariantPanic("child %v of %v does not list %v back as a parent", child, id, id)
			}
		}
	}
}

func (mp *TxMempool) invariantPanic(format string, args ...interface{}) {
	panic(ruleError(ErrInvariantViolation, fmt.Sprintf(format, args...)))
}
