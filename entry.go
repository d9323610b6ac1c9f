package mempool

import (
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// LockPoints bundles the minimum chain height and median-time-past at
// which a transaction's relative-locktime constraints (BIP-68) are
// satisfied, together with the block whose presence in the active chain
// validates the cache. RemoveForReorg recomputes an entry's LockPoints
// whenever MaxInputBlock is set and a SequenceLockCalculator is configured;
// it does not check whether that block is still on the active chain.
type LockPoints struct {
	// Height is the minimum height at which the transaction is final.
	Height int32

	// Time is the minimum median-time-past at which the transaction is
	// final, expressed the way the source expresses it: seconds since
	// the epoch, shifted so ordinary height comparisons still work.
	Time int64

	// MaxInputBlock is the hash of the block whose connection to the
	// active chain this LockPoints cache depends on; if it is
	// disconnected, the cache must be recomputed rather than trusted.
	MaxInputBlock *chainhash.Hash
}

// ancestorState is the aggregate (count, size, modified-fee, sigop) state
// an entry accumulates over its ancestor closure, including itself.
type ancestorState struct {
	count  int64
	size   int64
	modFee btcutil.Amount
	sigOps int64
}

// descendantState is the aggregate (count, size, modified-fee) state an
// entry accumulates over its descendant closure, including itself.
type descendantState struct {
	count  int64
	size   int64
	modFee btcutil.Amount
}

// TxEntry is a transaction held in the mempool together with its cached
// and aggregate metadata. The immutable fields are set once at
// construction; the mutable fields are only ever touched by the pool
// itself, under its lock, via the accessor methods below — never directly.
type TxEntry struct {
	// Tx is the pool's reference to the transaction.
	Tx *btcutil.Tx

	// fee is the absolute fee, in satoshi, the transaction pays.
	fee btcutil.Amount

	// vsize is the transaction's virtual size, used as the denominator
	// of every feerate computed over this entry.
	vsize int64

	// weight is the transaction's BIP-141 weight.
	weight int64

	// usage is the entry's own dynamic memory footprint, as measured by
	// DynamicMemoryUsage (see memusage.go); contributes to the pool's
	// total cached_inner_usage.
	usage int64

	// time is the wall-clock time the entry was admitted.
	time time.Time

	// height is the chain height at admission time.
	height int32

	// spendsCoinbase records whether any input of Tx spends an
	// unmatured coinbase output.
	spendsCoinbase bool

	// sigOpCost is the transaction's own signature-operation cost.
	sigOpCost int64

	// feeDelta is the priority-mining fee adjustment last applied via
	// SetFeeDelta / PrioritiseTransaction.
	feeDelta btcutil.Amount

	// lockPoints caches the BIP-68 relative-locktime evaluation.
	lockPoints LockPoints

	// ancestor is this entry's ancestor aggregate, including itself.
	ancestor ancestorState

	// descendant is this entry's descendant aggregate, including
	// itself.
	descendant descendantState

	// indexPosition is an opaque slot. Nothing in the pool reads or
	// writes it; QueryHashes sorts the pool on every call.
	indexPosition int
}

// newTxEntry constructs a TxEntry with both aggregates initialized to
// "just itself" — the state every entry starts in before ancestor
// propagation widens it.
func newTxEntry(tx *btcutil.Tx, fee btcutil.Amount, vsize, weight int64,
	entryTime time.Time, height int32, spendsCoinbase bool,
	sigOpCost int64) *TxEntry {

	e := &TxEntry{
		Tx:             tx,
		fee:            fee,
		vsize:          vsize,
		weight:         weight,
		time:           entryTime,
		height:         height,
		spendsCoinbase: spendsCoinbase,
		sigOpCost:      sigOpCost,
	}
	e.usage = dynamicMemUsage(e)
	e.ancestor = ancestorState{count: 1, size: vsize, modFee: fee, sigOps: sigOpCost}
	e.descendant = descendantState{count: 1, size: vsize, modFee: fee}
	return e
}

// TxID returns the entry's transaction id.
func (e *TxEntry) TxID() chainhash.Hash { return *e.Tx.Hash() }

// Fee returns the absolute fee the transaction pays.
func (e *TxEntry) Fee() btcutil.Amount { return e.fee }

// ModifiedFee returns fee + feeDelta, the value every feerate comparison
// uses as its numerator.
func (e *TxEntry) ModifiedFee() btcutil.Amount { return e.fee + e.feeDelta }

// VirtualSize returns the entry's virtual size.
func (e *TxEntry) VirtualSize() int64 { return e.vsize }

// Weight returns the entry's BIP-141 weight.
func (e *TxEntry) Weight() int64 { return e.weight }

// Usage returns the entry's own dynamic memory footprint.
func (e *TxEntry) Usage() int64 { return e.usage }

// Time returns the entry's admission time.
func (e *TxEntry) Time() time.Time { return e.time }

// Height returns the entry's admission height.
func (e *TxEntry) Height() int32 { return e.height }

// SpendsCoinbase reports whether the entry spends an unmatured coinbase.
func (e *TxEntry) SpendsCoinbase() bool { return e.spendsCoinbase }

// SigOpCost returns the entry's own signature-operation cost.
func (e *TxEntry) SigOpCost() int64 { return e.sigOpCost }

// FeeDelta returns the currently applied priority fee delta.
func (e *TxEntry) FeeDelta() btcutil.Amount { return e.feeDelta }

// LockPoints returns the entry's cached relative-locktime evaluation.
func (e *TxEntry) LockPoints() LockPoints { return e.lockPoints }

// CountWithDescendants returns the number of entries in this entry's
// descendant closure, including itself.
func (e *TxEntry) CountWithDescendants() int64 { return e.descendant.count }

// SizeWithDescendants returns the combined virtual size of this entry's
// descendant closure, including itself.
func (e *TxEntry) SizeWithDescendants() int64 { return e.descendant.size }

// ModFeesWithDescendants returns the combined modified fee of this entry's
// descendant closure, including itself.
func (e *TxEntry) ModFeesWithDescendants() btcutil.Amount { return e.descendant.modFee }

// CountWithAncestors returns the number of entries in this entry's
// ancestor closure, including itself.
func (e *TxEntry) CountWithAncestors() int64 { return e.ancestor.count }

// SizeWithAncestors returns the combined virtual size of this entry's
// ancestor closure, including itself.
func (e *TxEntry) SizeWithAncestors() int64 { return e.ancestor.size }

// ModFeesWithAncestors returns the combined modified fee of this entry's
// ancestor closure, including itself.
func (e *TxEntry) ModFeesWithAncestors() btcutil.Amount { return e.ancestor.modFee }

// SigOpCostWithAncestors returns the combined signature-operation cost of
// this entry's ancestor closure, including itself.
func (e *TxEntry) SigOpCostWithAncestors() int64 { return e.ancestor.sigOps }

// DescendantScore returns max(selfFeerate, feerateWithDescendants), the
// sort value the descendant-score index orders by.
func (e *TxEntry) DescendantScore() feerate {
	self := newFeerate(e.ModifiedFee(), e.vsize)
	withDesc := newFeerate(e.descendant.modFee, e.descendant.size)
	if withDesc > self {
		return withDesc
	}
	return self
}

// AncestorScore returns min(selfFeerate, feerateWithAncestors), the sort
// value the ancestor-score index orders by.
func (e *TxEntry) AncestorScore() feerate {
	self := newFeerate(e.ModifiedFee(), e.vsize)
	withAnc := newFeerate(e.ancestor.modFee, e.ancestor.size)
	if withAnc < self {
		return withAnc
	}
	return self
}

// ApplyDescendantDelta adjusts this entry's descendant aggregates. It is
// total: it never fails, and is only ever called by the pool under its
// lock during ancestor/descendant propagation.
func (e *TxEntry) ApplyDescendantDelta(dSize int64, dFee btcutil.Amount, dCount int64) {
	e.descendant.size += dSize
	e.descendant.modFee += dFee
	e.descendant.count += dCount
}

// ApplyAncestorDelta adjusts this entry's ancestor aggregates.
func (e *TxEntry) ApplyAncestorDelta(dSize int64, dFee btcutil.Amount, dCount, dSigOps int64) {
	e.ancestor.size += dSize
	e.ancestor.modFee += dFee
	e.ancestor.count += dCount
	e.ancestor.sigOps += dSigOps
}

// SetFeeDelta updates the entry's fee delta and folds the change through
// into the descendant modified-fee aggregate, matching the source's
// UpdateModifiedFee behavior where a delta change on an entry also nudges
// every ancestor's view of that entry's contribution (callers are
// responsible for propagating the same change to ancestors; see
// PrioritiseTransaction in queries.go).
func (e *TxEntry) SetFeeDelta(newDelta btcutil.Amount) {
	change := newDelta - e.feeDelta
	e.feeDelta = newDelta
	e.descendant.modFee += change
}

// SetLockPoints replaces the entry's cached relative-locktime evaluation.
func (e *TxEntry) SetLockPoints(lp LockPoints) {
	e.lockPoints = lp
}

// setAncestorAggregate overwrites the ancestor aggregate wholesale; used
// once, at insertion time, to seed a new entry's ancestor state from its
// freshly computed ancestor set (see ancestors.go).
func (e *TxEntry) setAncestorAggregate(count, size int64, modFee btcutil.Amount, sigOps int64) {
	e.ancestor = ancestorState{count: count, size: size, modFee: modFee, sigOps: sigOps}
}

// setDescendantAggregate overwrites the descendant aggregate wholesale;
// used by the reorg ingest path (reorgbuffer.go) to recompute an entry's
// descendant totals in one shot from a freshly walked closure, rather than
// threading incremental deltas through a batch of out-of-order relinks.
func (e *TxEntry) setDescendantAggregate(count, size int64, modFee btcutil.Amount) {
	e.descendant = descendantState{count: count, size: size, modFee: modFee}
}
