package token

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"stakevault/crypto"
	"stakevault/storage"
)

func testAddress(suffix byte) crypto.Address {
	raw := make([]byte, 20)
	raw[len(raw)-1] = suffix
	return crypto.MustNewAddress(crypto.VaultPrefix, raw)
}

func newTestLedger(t *testing.T) *BookLedger {
	t.Helper()
	ledger, err := NewBookLedger(storage.NewMemDB(), "STK", testAddress(0xFF))
	require.NoError(t, err)
	return ledger
}

func TestMintAndBalance(t *testing.T) {
	ledger := newTestLedger(t)
	alice := testAddress(0x01)

	require.NoError(t, ledger.Mint(alice, big.NewInt(1000)))

	balance, err := ledger.BalanceOf(alice)
	require.NoError(t, err)
	require.Zero(t, balance.Cmp(big.NewInt(1000)))

	supply, err := ledger.TotalSupply()
	require.NoError(t, err)
	require.Zero(t, supply.Cmp(big.NewInt(1000)))
}

func TestTransferInMovesValueIntoCustody(t *testing.T) {
	ledger := newTestLedger(t)
	alice := testAddress(0x01)
	require.NoError(t, ledger.Mint(alice, big.NewInt(100)))

	require.NoError(t, ledger.TransferIn(alice, big.NewInt(60)))

	balance, err := ledger.BalanceOf(alice)
	require.NoError(t, err)
	require.Zero(t, balance.Cmp(big.NewInt(40)))

	custody, err := ledger.BalanceOf(ledger.Custody())
	require.NoError(t, err)
	require.Zero(t, custody.Cmp(big.NewInt(60)))
}

func TestTransferInInsufficientBalance(t *testing.T) {
	ledger := newTestLedger(t)
	alice := testAddress(0x01)
	require.NoError(t, ledger.Mint(alice, big.NewInt(10)))

	err := ledger.TransferIn(alice, big.NewInt(11))
	require.ErrorIs(t, err, ErrInsufficientBalance)

	balance, err := ledger.BalanceOf(alice)
	require.NoError(t, err)
	require.Zero(t, balance.Cmp(big.NewInt(10)))
}

func TestTransferOutInsufficientCustody(t *testing.T) {
	ledger := newTestLedger(t)
	alice := testAddress(0x01)

	err := ledger.TransferOut(alice, big.NewInt(1))
	require.ErrorIs(t, err, ErrInsufficientCustody)
}

func TestTransferRoundTripConservesSupply(t *testing.T) {
	ledger := newTestLedger(t)
	alice := testAddress(0x01)
	bob := testAddress(0x02)
	require.NoError(t, ledger.Mint(alice, big.NewInt(500)))
	require.NoError(t, ledger.Mint(bob, big.NewInt(300)))

	require.NoError(t, ledger.TransferIn(alice, big.NewInt(200)))
	require.NoError(t, ledger.TransferIn(bob, big.NewInt(300)))
	require.NoError(t, ledger.TransferOut(alice, big.NewInt(150)))

	total := big.NewInt(0)
	for _, addr := range []crypto.Address{alice, bob, ledger.Custody()} {
		balance, err := ledger.BalanceOf(addr)
		require.NoError(t, err)
		total.Add(total, balance)
	}
	supply, err := ledger.TotalSupply()
	require.NoError(t, err)
	require.Zero(t, total.Cmp(supply))
}

func TestInvalidAmounts(t *testing.T) {
	ledger := newTestLedger(t)
	alice := testAddress(0x01)

	require.ErrorIs(t, ledger.Mint(alice, big.NewInt(0)), ErrInvalidAmount)
	require.ErrorIs(t, ledger.TransferIn(alice, nil), ErrInvalidAmount)
	require.ErrorIs(t, ledger.TransferOut(alice, big.NewInt(-1)), ErrInvalidAmount)
}

func TestLedgerRequiresSymbolAndCustody(t *testing.T) {
	_, err := NewBookLedger(storage.NewMemDB(), "  ", testAddress(0xFF))
	require.Error(t, err)

	_, err = NewBookLedger(storage.NewMemDB(), "STK", crypto.Address{})
	require.Error(t, err)
}
