// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"github.com/btcsuite/btcd/btcutil"
)

const (
	// DefaultMinRelayTxFee is the minimum fee in satoshi that is required
	// for a transaction to be treated as free for relay and mining
	// purposes. This value is in Satoshi/1000 bytes.
	DefaultMinRelayTxFee = btcutil.Amount(1000)

	// DefaultMaxAncestors is the default limit on the number of in-pool
	// ancestors (not counting the transaction itself) a new entry may have.
	DefaultMaxAncestors = 25

	// DefaultMaxAncestorSize is the default limit, in virtual bytes, on
	// the combined size of an entry's in-pool ancestors, not counting the
	// entry itself.
	DefaultMaxAncestorSize = 101000

	// DefaultMaxDescendants is the default limit on the number of in-pool
	// descendants (including the transaction itself) any ancestor of a
	// new entry may accumulate.
	DefaultMaxDescendants = 25

	// DefaultMaxDescendantSize is the default limit, in virtual bytes, on
	// the combined size of any ancestor's descendant package.
	DefaultMaxDescendantSize = 101000

	// rollingFeeHalfLife is the half-life, in seconds, used to decay the
	// rolling minimum feerate. See TxMempool.GetMinFee.
	rollingFeeHalfLife = 60 * 60 * 12
)

// Policy houses the policy (configuration parameters) which is used to
// control the acceptance and relay ordering of transactions admitted to the
// mempool. Admission itself (script/signature validation, standardness of
// the underlying transaction) is the caller's responsibility; this package
// only consults the fee and package-size knobs below.
type Policy struct {
	// MaxAncestors is the maximum number of unconfirmed ancestors (not
	// counting the transaction itself) a new entry is allowed to have.
	MaxAncestors int

	// MaxAncestorSize is the maximum combined virtual size, in bytes, of
	// a new entry's unconfirmed ancestors, not counting the entry itself.
	MaxAncestorSize int64

	// MaxDescendants is the maximum number of unconfirmed descendants
	// (including the transaction itself) any ancestor of a new entry may
	// accumulate as a result of the new entry's admission.
	MaxDescendants int

	// MaxDescendantSize is the maximum combined virtual size, in bytes,
	// of any ancestor's descendant package after the new entry is
	// admitted.
	MaxDescendantSize int64

	// MinRelayTxFee defines the minimum transaction fee in satoshi/kB to
	// be considered a non-zero fee.
	MinRelayTxFee btcutil.Amount

	// IncrementalRelayFee is the minimum feerate increment, in
	// satoshi/kB; a rolling minimum feerate below half of it is reported
	// as zero. See TxMempool.GetMinFee.
	IncrementalRelayFee btcutil.Amount
}

// DefaultPolicy returns a Policy populated with the package defaults.
func DefaultPolicy() *Policy {
	return &Policy{
		MaxAncestors:        DefaultMaxAncestors,
		MaxAncestorSize:     DefaultMaxAncestorSize,
		MaxDescendants:      DefaultMaxDescendants,
		MaxDescendantSize:   DefaultMaxDescendantSize,
		MinRelayTxFee:       DefaultMinRelayTxFee,
		IncrementalRelayFee: DefaultMinRelayTxFee,
	}
}

// calcMinRequiredTxRelayFee returns the minimum transaction fee required for
// a transaction with the passed virtual size to be accepted into the memory
// pool and relayed.
func calcMinRequiredTxRelayFee(vsize int64, minRelayTxFee btcutil.Amount) int64 {
	// minRelayTxFee is in Satoshi/kB so multiply by vsize (which is in
	// bytes) and divide by 1000 to get minimum satoshis.
	minFee := (vsize * int64(minRelayTxFee)) / 1000

	if minFee == 0 && minRelayTxFee > 0 {
		minFee = int64(minRelayTxFee)
	}

	if minFee < 0 || minFee > btcutil.MaxSatoshi {
		minFee = btcutil.MaxSatoshi
	}

	return minFee
}

// AncestorLimits bundles the ancestor/descendant package-size limits
// consulted by CalculateAncestors. A zero-value field is a limit of zero,
// not an unbounded one; unboundedLimits supplies thresholds that never
// trip.
type AncestorLimits struct {
	MaxAncestors      int
	MaxAncestorSize   int64
	MaxDescendants    int
	MaxDescendantSize int64
}

// LimitsFromPolicy converts a Policy's ancestor/descendant knobs into the
// AncestorLimits shape CalculateAncestors consumes.
func LimitsFromPolicy(p *Policy) AncestorLimits {
	return AncestorLimits{
		MaxAncestors:      p.MaxAncestors,
		MaxAncestorSize:   p.MaxAncestorSize,
		MaxDescendants:    p.MaxDescendants,
		MaxDescendantSize: p.MaxDescendantSize,
	}
}

// unboundedLimits returns limits with every field disabled, used when the
// pool walks an ancestor set for its own bookkeeping rather than for
// admission (AddUnchecked's "ancestors not supplied" fallback still needs
// *some* limits object to drive the walk, but none of the thresholds should
// ever trip).
func unboundedLimits() AncestorLimits {
	return AncestorLimits{
		MaxAncestors:      1 << 30,
		MaxAncestorSize:   1 << 62,
		MaxDescendants:    1 << 30,
		MaxDescendantSize: 1 << 62,
	}
}

// feerate is a modified-fee-per-virtual-byte ratio, kept as a float64 the
// way the source compares CFeeRate values; virtual sizes are always
// strictly positive so no divide-by-zero guard is needed at the call sites.
type feerate float64

func newFeerate(fee btcutil.Amount, vsize int64) feerate {
	if vsize <= 0 {
		return 0
	}
	return feerate(float64(fee) / float64(vsize))
}

// satPerKVB renders the feerate in the satoshi/kB units the rest of the
// policy surface (MinRelayTxFee, IncrementalRelayFee) is expressed in.
func (f feerate) satPerKVB() float64 {
	return float64(f) * 1000
}
