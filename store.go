package mempool

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// CoinView is the collaborator contract the mempool consults to resolve an
// entry's inputs when none of the entry's own parents are in the pool.
// Implementations must be safe to call while the mempool's lock is held
// (SPEC_FULL §5).
type CoinView interface {
	// FetchUtxoEntry returns the coin produced at op, or nil if it does
	// not exist (spent or never existed).
	FetchUtxoEntry(op wire.OutPoint) *Coin
}

// FeeEstimator is the narrow collaborator contract SPEC_FULL §6 describes;
// fee estimation arithmetic itself is out of scope (§1) and lives outside
// this package.
type FeeEstimator interface {
	// ProcessBlock is notified of entries confirmed at height.
	ProcessBlock(height int32, entries []*TxEntry)

	// ProcessTransaction is notified of a freshly admitted entry.
	ProcessTransaction(entry *TxEntry, validFeeEstimate bool)
}

// SequenceLockCalculator recomputes a transaction's relative-locktime
// LockPoints against view. Grounded on the teacher's
// Config.CalcSequenceLock; retargeted from *blockchain.UtxoViewpoint onto
// this package's own CoinView, since this package never imports btcd's
// full blockchain package. RemoveForReorg calls this whenever a cached
// LockPoints entry names a MaxInputBlock, since this package tracks no
// block index of its own to test whether that block is still on the
// active chain — recomputing through the post-reorg view is the
// equivalent check.
type SequenceLockCalculator interface {
	CalcSequenceLock(tx *btcutil.Tx, view CoinView) (LockPoints, error)
}

// Config bundles the pool's collaborators, grounded on the reference
// package's own Config: the coin view and fee estimator it may call while
// holding its lock, plus chain-context hooks.
type Config struct {
	// CoinView resolves outpoints not produced by an in-pool
	// transaction. The pool itself does not read this field;
	// RemoveForReorg takes its coin view as an argument. May be nil.
	CoinView CoinView

	// FeeEstimator is notified of confirmations and admissions. May be
	// nil; notifications become no-ops.
	FeeEstimator FeeEstimator

	// BestHeight returns the current chain tip height. The pool itself
	// does not call it; RemoveForReorg takes the height as an argument.
	BestHeight func() int32

	// MedianTimePast returns the current median-time-past. The pool
	// itself does not call it; RemoveForReorg takes it as an argument.
	MedianTimePast func() int64

	// SequenceLocks recomputes an entry's LockPoints when RemoveForReorg
	// finds a cached MaxInputBlock it can no longer trust. May be nil,
	// in which case the cached LockPoints are trusted as-is.
	SequenceLocks SequenceLockCalculator
}

// TxMempool is the indexed, policy-aware cache of unconfirmed
// transactions. All mutating operations, and all read operations whose
// result is a pool-wide snapshot, take mp.mtx for their full duration —
// there is a single coarse-grained critical section, per SPEC_FULL §5.
type TxMempool struct {
	mtx sync.Mutex

	cfg    Config
	policy *Policy
	salt   txSalt

	// byID is the primary O(1) hash index: exact txid lookup. See
	// DESIGN.md for why this one index is a plain map rather than a
	// gods tree — it is the one index with no ordering requirement.
	byID map[chainhash.Hash]*TxEntry

	descendantIndex *scoreIndex
	ancestorIndex   *scoreIndex
	timeIndex       *timeIndex

	links *linkGraph
	spend *spendMap

	// deltas is the priority-delta map; it persists across removal, so
	// it is keyed independently of byID.
	deltas map[chainhash.Hash]btcutil.Amount

	// rolling minimum feerate state (eviction.go).
	rollingMinimumFeerate float64
	lastRollingFeeUpdate  time.Time
	blockSinceLastRollingFeeBump bool

	totalTxSize       int64
	cachedInnerUsage  int64

	sanityCheckFreq float64
	rng             *rand.Rand

	notificationsLock sync.RWMutex
	notifications     []NotificationCallback

	lastUpdated atomic.Int64
}

// New constructs an empty TxMempool. cfg.FeeEstimator may be nil.
func New(policy *Policy, cfg Config) *TxMempool {
	if policy == nil {
		policy = DefaultPolicy()
	}
	mp := &TxMempool{
		cfg:             cfg,
		policy:          policy,
		salt:            newTxSalt(),
		byID:            make(map[chainhash.Hash]*TxEntry),
		descendantIndex: newScoreIndex(),
		ancestorIndex:   newScoreIndex(),
		timeIndex:       newTimeIndex(),
		links:           newLinkGraph(),
		spend:           newSpendMap(),
		deltas:          make(map[chainhash.Hash]btcutil.Amount),
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	return mp
}

// SetSanityCheckFrequency sets the probability, in [0.0, 1.0], that a full
// invariant check (sanity.go) runs after each mutation.
func (mp *TxMempool) SetSanityCheckFrequency(freq float64) {
	if freq < 0 {
		freq = 0
	} else if freq > 1 {
		freq = 1
	}
	mp.sanityCheckFreq = freq
}

// LastUpdated returns the last time a transaction was added to or removed
// from the pool, a priority delta was applied to an in-pool entry, or a
// reorg batch was relinked. Safe to call without the lock, matching the reference
// pool's atomic lastUpdated field (SPEC_FULL §5).
func (mp *TxMempool) LastUpdated() time.Time {
	return time.Unix(mp.lastUpdated.Load(), 0)
}

func (mp *TxMempool) bumpLastUpdated() {
	mp.lastUpdated.Store(time.Now().Unix())
}

// dynamicMemUsageOfLinks estimates the whole link graph's memory
// footprint. AddUnchecked and removal do not call it; they adjust
// cachedInnerUsage by the usage of the single link record they add or drop.
func (mp *TxMempool) dynamicMemUsageOfLinks() int64 {
	return dynamicMemUsage(mp.links)
}

// Size returns the number of entries currently in the pool.
func (mp *TxMempool) Size() int {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()
	return len(mp.byID)
}

// TotalTxSize returns the sum of every entry's virtual size.
func (mp *TxMempool) TotalTxSize() int64 {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()
	return mp.totalTxSize
}

// DynamicMemoryUsage returns the pool's total dynamic memory footprint:
// every entry's own usage plus the link graph's.
func (mp *TxMempool) DynamicMemoryUsage() int64 {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()
	return mp.dynamicMemoryUsageLocked()
}

func (mp *TxMempool) dynamicMemoryUsageLocked() int64 {
	return mp.cachedInnerUsage
}

// insertIndices adds id to the three ordered indices (byID is set by the
// caller). Called once, from AddUnchecked, before ancestor propagation;
// linkAndPropagateOnInsert re-keys the scores once the aggregates are set.
func (mp *TxMempool) insertIndices(e *TxEntry) {
	id := e.TxID()
	salt := mp.salt.salted(id)
	mp.descendantIndex.insert(id, e.DescendantScore(), salt)
	mp.ancestorIndex.insert(id, e.AncestorScore(), salt)
	mp.timeIndex.insert(id, e.time, salt)
}

// reindexScores re-keys id in both score indices after a propagation step
// may have moved its sort value. Idempotent if the score didn't move.
func (mp *TxMempool) reindexScores(e *TxEntry) {
	id := e.TxID()
	salt := mp.salt.salted(id)
	mp.descendantIndex.reinsert(id, e.DescendantScore(), salt)
	mp.ancestorIndex.reinsert(id, e.AncestorScore(), salt)
}

// removeIndices erases id from the three ordered indices (byID is cleared
// by the caller).
func (mp *TxMempool) removeIndices(id chainhash.Hash) {
	mp.descendantIndex.remove(id)
	mp.ancestorIndex.remove(id)
	mp.timeIndex.remove(id)
}

// maybeSanityCheck runs the O(N) invariant walk with probability
// sanityCheckFreq, the Bernoulli-draw realization of SPEC_FULL §9's Open
// Question 1. Must be called with mp.mtx held.
func (mp *TxMempool) maybeSanityCheck() {
	if mp.sanityCheckFreq <= 0 {
		return
	}
	if mp.sanityCheckFreq >= 1 || mp.rng.Float64() < mp.sanityCheckFreq {
		mp.checkLocked()
	}
}
