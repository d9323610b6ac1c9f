package mempool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckLockedAcceptsWellFormedChain(t *testing.T) {
	t.Parallel()

	mp, _, _ := chainAB(t)

	mp.mtx.Lock()
	defer mp.mtx.Unlock()
	require.NotPanics(t, func() { mp.checkLocked() })
}

func TestCheckLockedPanicsOnCorruptedAggregate(t *testing.T) {
	t.Parallel()

	mp, txA, _ := chainAB(t)

	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	eA := mp.byID[txA.TxHash()]
	eA.setAncestorAggregate(999, eA.SizeWithAncestors(), eA.ModFeesWithAncestors(), eA.SigOpCost())

	require.PanicsWithError(t, ruleError(ErrInvariantViolation,
		"entry "+txA.TxHash().String()+" ancestor count 999 does not match walked count 1").Error(),
		func() { mp.checkLocked() })
}

func TestCheckLockedPanicsOnCorruptedDescendantAggregate(t *testing.T) {
	t.Parallel()

	mp, txA, _ := chainAB(t)

	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	eA := mp.byID[txA.TxHash()]
	eA.setDescendantAggregate(999, eA.SizeWithDescendants(), eA.ModFeesWithDescendants())

	require.PanicsWithError(t, ruleError(ErrInvariantViolation,
		"entry "+txA.TxHash().String()+" descendant count 999 does not match walked count 2").Error(),
		func() { mp.checkLocked() })
}
