// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package mempool provides a policy-enforced, fee-ordered, in-memory pool
// of unconfirmed Bitcoin transactions.
//
// A TxMempool indexes every admitted entry by txid and by three ordered
// sort keys (descendant score, ancestor score, entry time), tracks the
// direct-parent/direct-child relationship between in-pool transactions,
// enforces per-admission ancestor/descendant package limits, and maintains
// a decaying rolling minimum feerate used to keep the pool within a
// configured memory budget under load. Its single exported entry point
// for unvalidated transactions is AddUnchecked; validation (script
// execution, standardness, double-spend checking against the confirmed
// chain) is the caller's responsibility and lives outside this package.
package mempool
