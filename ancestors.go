package mempool

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// CalculateAncestors performs a bounded breadth-first walk of tx's
// (prospective) ancestor closure, enforcing limits. candidateVsize is tx's
// own virtual size, folded into each ancestor's descendant-size check
// since tx itself is not yet in the pool to be found there. If
// searchForParents is true, the initial parent set is computed from tx's
// inputs against the spend map's inverse (the entry is not yet linked
// into the graph); otherwise the walk starts from the entry's
// already-recorded parents. Grounded on txmempool.h's
// CalculateMemPoolAncestors.
func (mp *TxMempool) CalculateAncestors(tx *btcutil.Tx, candidateVsize int64, limits AncestorLimits,
	searchForParents bool) (map[chainhash.Hash]*TxEntry, error) {

	mp.mtx.Lock()
	defer mp.mtx.Unlock()
	return mp.calculateAncestorsLocked(tx, candidateVsize, limits, searchForParents)
}

func (mp *TxMempool) calculateAncestorsLocked(tx *btcutil.Tx, candidateVsize int64, limits AncestorLimits,
	searchForParents bool) (map[chainhash.Hash]*TxEntry, error) {

	id := *tx.Hash()

	var frontier []chainhash.Hash
	if searchForParents {
		seen := make(map[chainhash.Hash]struct{})
		for _, in := range tx.MsgTx().TxIn {
			parentID := in.PreviousOutPoint.Hash
			if _, ok := mp.byID[parentID]; !ok {
				continue
			}
			if _, dup := seen[parentID]; dup {
				continue
			}
			seen[parentID] = struct{}{}
			frontier = append(frontier, parentID)
		}
	} else {
		for p := range mp.links.parentsOf(id) {
			frontier = append(frontier, p)
		}
	}

	ancestors := make(map[chainhash.Hash]*TxEntry)
	var totalSize int64
	var totalModFee btcutil.Amount
	var totalSigOps int64

	visited := make(map[chainhash.Hash]struct{})
	for len(frontier) > 0 {
		next := frontier[0]
		frontier = frontier[1:]
		if _, ok := visited[next]; ok {
			continue
		}
		visited[next] = struct{}{}

		entry, ok := mp.byID[next]
		if !ok {
			continue
		}
		ancestors[next] = entry
		totalSize += entry.VirtualSize()
		totalModFee += entry.ModifiedFee()
		totalSigOps += entry.SigOpCost()

		if len(ancestors) > limits.MaxAncestors {
			return nil, ruleError(ErrTooManyAncestors, fmt.Sprintf(
				"too many unconfirmed ancestors [limit: %d]",
				limits.MaxAncestors))
		}
		if totalSize > limits.MaxAncestorSize {
			return nil, ruleError(ErrAncestorsTooLarge, fmt.Sprintf(
				"exceeds ancestor size limit [limit: %d]",
				limits.MaxAncestorSize))
		}
		if entry.CountWithDescendants()+1 > int64(limits.MaxDescendants) {
			return nil, ruleError(ErrTooManyDescendants, fmt.Sprintf(
				"too many descendants for ancestor %v [limit: %d]",
				next, limits.MaxDescendants))
		}
		if entry.SizeWithDescendants()+candidateVsize > limits.MaxDescendantSize {
			return nil, ruleError(ErrDescendantsTooLarge, fmt.Sprintf(
				"exceeds descendant size limit for ancestor %v [limit: %d]",
				next, limits.MaxDescendantSize))
		}

		for p := range mp.links.parentsOf(next) {
			frontier = append(frontier, p)
		}
	}

	return ancestors, nil
}

// CalculateDescendants performs an unbounded walk of tx's descendant
// closure, adding every descendant id found to out. out may already
// contain ids whose own descendants are assumed present — callers use
// this to batch a removal set incrementally. Grounded on
// txmempool.h's CalculateDescendants.
func (mp *TxMempool) CalculateDescendants(id chainhash.Hash, out map[chainhash.Hash]struct{}) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()
	mp.calculateDescendantsLocked(id, out)
}

func (mp *TxMempool) calculateDescendantsLocked(id chainhash.Hash, out map[chainhash.Hash]struct{}) {
	if _, ok := out[id]; !ok {
		out[id] = struct{}{}
	}
	stack := []chainhash.Hash{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for child := range mp.links.childrenOf(cur) {
			if _, ok := out[child]; ok {
				continue
			}
			out[child] = struct{}{}
			stack = append(stack, child)
		}
	}
}

// linkAndPropagateOnInsert wires e into the link graph against its
// ancestor set A, registers e's own inputs in the spend map, and
// propagates the descendant delta to every ancestor, per SPEC_FULL §4.4
// "Propagation on insert". Must be called with mp.mtx held, after e has
// already been added to mp.byID and the four indices.
func (mp *TxMempool) linkAndPropagateOnInsert(e *TxEntry, ancestors map[chainhash.Hash]*TxEntry) {
	id := e.TxID()

	var ancSize int64
	var ancModFee btcutil.Amount
	var ancSigOps int64
	for _, a := range ancestors {
		ancSize += a.VirtualSize()
		ancModFee += a.ModifiedFee()
		ancSigOps += a.SigOpCost()

		a.ApplyDescendantDelta(e.VirtualSize(), e.ModifiedFee(), 1)
		mp.reindexScores(a)
	}
	e.setAncestorAggregate(
		int64(len(ancestors))+1,
		ancSize+e.VirtualSize(),
		ancModFee+e.ModifiedFee(),
		ancSigOps+e.SigOpCost(),
	)
	mp.reindexScores(e)

	inputs := make([]wire.OutPoint, 0, len(e.Tx.MsgTx().TxIn))
	for _, in := range e.Tx.MsgTx().TxIn {
		inputs = append(inputs, in.PreviousOutPoint)
		if _, ok := ancestors[in.PreviousOutPoint.Hash]; ok {
			mp.links.link(in.PreviousOutPoint.Hash, id)
		}
	}
	mp.spend.register(id, inputs)
}
