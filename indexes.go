package mempool

import (
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/emirpasic/gods/utils"
)

// Go's standard library has no balanced-tree container, and SPEC_FULL §9
// asks for "intrusive order-statistic trees (or B-trees)" for the three
// sort-key indices the hash index doesn't cover. gods/redblacktree (see
// DESIGN.md — sourced from the sat20-labs-indexer example) fills that gap;
// every key below is a composite of the sort value and a SipHash-salted
// txid tie-breaker so that two entries never compare equal and the tree
// never silently drops one of them.

// scoreKey orders by a feerate, tie-broken by the salted txid so ordering
// is deterministic and not predictable from the raw txid alone. Used for
// both the descendant-score and ancestor-score indices.
type scoreKey struct {
	score feerate
	salt  uint64
	id    chainhash.Hash
}

func compareScoreKeys(a, b interface{}) int {
	ka, kb := a.(scoreKey), b.(scoreKey)
	switch {
	case ka.score < kb.score:
		return -1
	case ka.score > kb.score:
		return 1
	}
	return utils.UInt64Comparator(ka.salt, kb.salt)
}

// timeKey orders by admission time, tie-broken the same way.
type timeKey struct {
	when time.Time
	salt uint64
	id   chainhash.Hash
}

func compareTimeKeys(a, b interface{}) int {
	ka, kb := a.(timeKey), b.(timeKey)
	switch {
	case ka.when.Before(kb.when):
		return -1
	case ka.when.After(kb.when):
		return 1
	}
	return utils.UInt64Comparator(ka.salt, kb.salt)
}

// scoreIndex is an ordered index keyed by a feerate score (descendant- or
// ancestor-score, depending on which field of the entry fed its keys).
// Because an entry's score can change as ancestor/descendant propagation
// runs, the store must erase-then-reinsert on every mutation that could
// move it — see store.go's reindex helpers.
type scoreIndex struct {
	tree *redblacktree.Tree
	// keyOf maps a live txid to the key it is currently stored under, so
	// a later reindex/removal doesn't need to recompute (and
	// potentially mismatch) the old key.
	keyOf map[chainhash.Hash]scoreKey
}

func newScoreIndex() *scoreIndex {
	return &scoreIndex{
		tree:  redblacktree.NewWith(compareScoreKeys),
		keyOf: make(map[chainhash.Hash]scoreKey),
	}
}

func (ix *scoreIndex) insert(id chainhash.Hash, score feerate, salt uint64) {
	k := scoreKey{score: score, salt: salt, id: id}
	ix.tree.Put(k, id)
	ix.keyOf[id] = k
}

func (ix *scoreIndex) remove(id chainhash.Hash) {
	if k, ok := ix.keyOf[id]; ok {
		ix.tree.Remove(k)
		delete(ix.keyOf, id)
	}
}

// reinsert re-keys id under a freshly computed score, a no-op if the score
// did not actually change.
func (ix *scoreIndex) reinsert(id chainhash.Hash, score feerate, salt uint64) {
	if k, ok := ix.keyOf[id]; ok && k.score == score {
		return
	}
	ix.remove(id)
	ix.insert(id, score, salt)
}

// ascending returns every id in ascending score order (lowest first) —
// the order TrimToSize walks to find the next eviction candidate.
func (ix *scoreIndex) ascending() []chainhash.Hash {
	out := make([]chainhash.Hash, 0, ix.tree.Size())
	it := ix.tree.Iterator()
	for it.Next() {
		out = append(out, it.Value().(chainhash.Hash))
	}
	return out
}

// descending returns every id in descending score order (highest first).
func (ix *scoreIndex) descending() []chainhash.Hash {
	out := make([]chainhash.Hash, 0, ix.tree.Size())
	it := ix.tree.Iterator()
	for it.End(); it.Prev(); {
		out = append(out, it.Value().(chainhash.Hash))
	}
	return out
}

func (ix *scoreIndex) size() int { return ix.tree.Size() }

// timeIndex is the entry-time ordered index.
type timeIndex struct {
	tree  *redblacktree.Tree
	keyOf map[chainhash.Hash]timeKey
}

func newTimeIndex() *timeIndex {
	return &timeIndex{
		tree:  redblacktree.NewWith(compareTimeKeys),
		keyOf: make(map[chainhash.Hash]timeKey),
	}
}

func (ix *timeIndex) insert(id chainhash.Hash, when time.Time, salt uint64) {
	k := timeKey{when: when, salt: salt, id: id}
	ix.tree.Put(k, id)
	ix.keyOf[id] = k
}

func (ix *timeIndex) remove(id chainhash.Hash) {
	if k, ok := ix.keyOf[id]; ok {
		ix.tree.Remove(k)
		delete(ix.keyOf, id)
	}
}

// olderThan returns every id with entry time strictly before cutoff, in
// ascending time order. Used by Expire.
func (ix *timeIndex) olderThan(cutoff time.Time) []chainhash.Hash {
	var out []chainhash.Hash
	it := ix.tree.Iterator()
	for it.Next() {
		k := it.Key().(timeKey)
		if !k.when.Before(cutoff) {
			break
		}
		out = append(out, it.Value().(chainhash.Hash))
	}
	return out
}

func (ix *timeIndex) size() int { return ix.tree.Size() }
