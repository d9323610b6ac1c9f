package mempool

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/aead/siphash"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// txSalt is a process-scoped SipHash key, randomized at pool construction.
// Grounded on txmempool.h's SaltedTxidHasher, which salts its hash index
// with two uint64s drawn once at CTxMemPool construction "to defeat
// adversarial clustering" of the hash table. Treated as an immutable field
// of the pool instance rather than a package global, per SPEC_FULL §9.
type txSalt struct {
	key [16]byte
}

// newTxSalt draws a fresh random 128-bit SipHash key.
func newTxSalt() txSalt {
	var s txSalt
	if _, err := rand.Read(s.key[:]); err != nil {
		// crypto/rand failing is not something this package can
		// usefully recover from; fall back to a fixed, clearly
		// non-adversarial-resistant key rather than leaving the
		// salt at all zeros silently.
		binary.LittleEndian.PutUint64(s.key[:8], 0x9e3779b97f4a7c15)
		binary.LittleEndian.PutUint64(s.key[8:], 0xbf58476d1ce4e5b9)
	}
	return s
}

// salted computes the SipHash-2-4 of id under this pool's salt. Used as
// the tie-break component of the descendant-score / ancestor-score /
// entry-time composite index keys (indexes.go), so that an adversary who
// can predict raw txids cannot also predict the tie-break ordering they
// land in.
func (s txSalt) salted(id chainhash.Hash) uint64 {
	return siphash.Sum64(id[:], &s.key)
}
