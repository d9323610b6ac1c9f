package mempool

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/mock"
)

// MockCoinView is a mock implementation of the CoinView collaborator
// interface, grounded on the reference package's own mocks.go testify
// style, retargeted from the old TxMempool RPC-facing interface onto the
// much narrower collaborator surface this package actually depends on.
type MockCoinView struct {
	mock.Mock
}

// Ensure MockCoinView implements CoinView.
var _ CoinView = (*MockCoinView)(nil)

// FetchUtxoEntry returns the coin produced at op, or nil if it does not
// exist.
func (m *MockCoinView) FetchUtxoEntry(op wire.OutPoint) *Coin {
	args := m.Called(op)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*Coin)
}

// MockFeeEstimator is a mock implementation of the FeeEstimator
// collaborator interface.
type MockFeeEstimator struct {
	mock.Mock
}

// Ensure MockFeeEstimator implements FeeEstimator.
var _ FeeEstimator = (*MockFeeEstimator)(nil)

// ProcessBlock is notified of entries confirmed at height.
func (m *MockFeeEstimator) ProcessBlock(height int32, entries []*TxEntry) {
	m.Called(height, entries)
}

// ProcessTransaction is notified of a freshly admitted entry.
func (m *MockFeeEstimator) ProcessTransaction(entry *TxEntry, validFeeEstimate bool) {
	m.Called(entry, validFeeEstimate)
}

// MockSequenceLockCalculator is a mock implementation of the
// SequenceLockCalculator collaborator interface.
type MockSequenceLockCalculator struct {
	mock.Mock
}

// Ensure MockSequenceLockCalculator implements SequenceLockCalculator.
var _ SequenceLockCalculator = (*MockSequenceLockCalculator)(nil)

// CalcSequenceLock recomputes tx's LockPoints against view.
func (m *MockSequenceLockCalculator) CalcSequenceLock(tx *btcutil.Tx, view CoinView) (LockPoints, error) {
	args := m.Called(tx, view)
	lp, _ := args.Get(0).(LockPoints)
	return lp, args.Error(1)
}
