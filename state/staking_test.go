package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"stakevault/crypto"
	"stakevault/native/staking"
	"stakevault/storage"
)

func testAddress(suffix byte) crypto.Address {
	raw := make([]byte, 20)
	raw[len(raw)-1] = suffix
	return crypto.MustNewAddress(crypto.VaultPrefix, raw)
}

func TestPositionRoundTrip(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	addr := testAddress(0x07)

	require.NoError(t, manager.PutPosition(&staking.Position{
		Address:          addr,
		StakedAmount:     big.NewInt(12345),
		UnclaimedRewards: big.NewInt(999),
		LastUpdateTime:   1_700_000_000,
	}))

	loaded, err := manager.GetPosition(addr)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Zero(t, loaded.StakedAmount.Cmp(big.NewInt(12345)))
	require.Zero(t, loaded.UnclaimedRewards.Cmp(big.NewInt(999)))
	require.Equal(t, uint64(1_700_000_000), loaded.LastUpdateTime)
}

func TestMissingPositionReturnsNil(t *testing.T) {
	manager := NewManager(storage.NewMemDB())

	loaded, err := manager.GetPosition(testAddress(0x08))
	require.NoError(t, err)
	require.Nil(t, loaded)
}

func TestNilAmountsStoredAsZero(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	addr := testAddress(0x09)

	require.NoError(t, manager.PutPosition(&staking.Position{Address: addr}))

	loaded, err := manager.GetPosition(addr)
	require.NoError(t, err)
	require.Zero(t, loaded.StakedAmount.Sign())
	require.Zero(t, loaded.UnclaimedRewards.Sign())
}

func TestPauseToggle(t *testing.T) {
	manager := NewManager(storage.NewMemDB())

	require.False(t, manager.IsPaused("staking"))
	manager.SetPaused("staking", true)
	require.True(t, manager.IsPaused("staking"))
	manager.SetPaused("staking", false)
	require.False(t, manager.IsPaused("staking"))
}
