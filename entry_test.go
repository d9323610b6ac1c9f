package mempool

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/require"
)

func TestTxEntryInitialAggregates(t *testing.T) {
	t.Parallel()

	tx := newTestMsgTx(nil, 1, 50000, 1)
	e := newTestEntry(t, tx, 1000, 250, 100)

	require.Equal(t, int64(1), e.CountWithAncestors())
	require.Equal(t, e.VirtualSize(), e.SizeWithAncestors())
	require.Equal(t, e.ModifiedFee(), e.ModFeesWithAncestors())
	require.Equal(t, int64(1), e.CountWithDescendants())
	require.Equal(t, e.VirtualSize(), e.SizeWithDescendants())
	require.Equal(t, e.ModifiedFee(), e.ModFeesWithDescendants())
}

func TestDescendantScoreTakesMax(t *testing.T) {
	t.Parallel()

	tx := newTestMsgTx(nil, 1, 50000, 2)
	e := newTestEntry(t, tx, 1000, 250, 100)

	self := newFeerate(e.ModifiedFee(), e.VirtualSize())
	require.Equal(t, self, e.DescendantScore())

	// A higher-feerate descendant package should pull the score up to
	// the package rate rather than leaving it at the self rate.
	e.ApplyDescendantDelta(200, 3000, 1)
	withDesc := newFeerate(e.ModFeesWithDescendants(), e.SizeWithDescendants())
	require.Greater(t, withDesc, self)
	require.Equal(t, withDesc, e.DescendantScore())
}

func TestAncestorScoreTakesMin(t *testing.T) {
	t.Parallel()

	tx := newTestMsgTx(nil, 1, 50000, 3)
	e := newTestEntry(t, tx, 1000, 250, 100)

	self := newFeerate(e.ModifiedFee(), e.VirtualSize())
	require.Equal(t, self, e.AncestorScore())

	// A cheaper ancestor package should pull the score down.
	e.setAncestorAggregate(2, e.VirtualSize()+400, e.ModifiedFee()+100, 2)
	withAnc := newFeerate(e.ModFeesWithAncestors(), e.SizeWithAncestors())
	require.Less(t, withAnc, self)
	require.Equal(t, withAnc, e.AncestorScore())
}

func TestSetFeeDeltaFoldsIntoDescendantAggregate(t *testing.T) {
	t.Parallel()

	tx := newTestMsgTx(nil, 1, 50000, 4)
	e := newTestEntry(t, tx, 1000, 250, 100)

	before := e.ModFeesWithDescendants()
	e.SetFeeDelta(500)
	require.Equal(t, before+500, e.ModFeesWithDescendants())
	require.Equal(t, btcutil.Amount(500), e.FeeDelta())

	// Cancelling the delta must restore the prior aggregate exactly —
	// the round-trip law from the testable-properties list.
	e.SetFeeDelta(0)
	require.Equal(t, before, e.ModFeesWithDescendants())
	require.Equal(t, btcutil.Amount(0), e.FeeDelta())
}
