package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"promptmint/core/types"
	"promptmint/storage"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(storage.NewMemDB())
}

func TestTokenRoundTrip(t *testing.T) {
	manager := newTestManager(t)

	_, ok, err := manager.TokenGet(1)
	require.NoError(t, err)
	require.False(t, ok)

	token := &types.Token{
		ID:           1,
		PromptAuthor: [20]byte{0x02},
		Revealed:     true,
		PermanentURI: "ipfs://permanent",
		MintedAt:     1_700_000_000,
	}
	require.NoError(t, manager.TokenPut(token))

	stored, ok, err := manager.TokenGet(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, token, stored)

	require.Error(t, manager.TokenPut(nil))
	require.Error(t, manager.TokenPut(&types.Token{ID: 0}))
}

func TestNextTokenIDCounter(t *testing.T) {
	manager := newTestManager(t)

	next, err := manager.NextTokenID()
	require.NoError(t, err)
	require.Equal(t, uint64(1), next)

	require.NoError(t, manager.SetNextTokenID(6))
	next, err = manager.NextTokenID()
	require.NoError(t, err)
	require.Equal(t, uint64(6), next)

	require.Error(t, manager.SetNextTokenID(3), "counter must never move backwards")
}

func TestBalances(t *testing.T) {
	manager := newTestManager(t)
	author := [20]byte{0x07}

	balance, err := manager.AuthorBalanceGet(author)
	require.NoError(t, err)
	require.Zero(t, balance.Sign(), "unknown author defaults to zero")

	require.NoError(t, manager.AuthorBalancePut(author, big.NewInt(2_500)))
	balance, err = manager.AuthorBalanceGet(author)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(2_500), balance)

	require.Error(t, manager.AuthorBalancePut(author, big.NewInt(-1)))

	treasury, err := manager.TreasuryBalanceGet()
	require.NoError(t, err)
	require.Zero(t, treasury.Sign())

	require.NoError(t, manager.TreasuryBalancePut(big.NewInt(9_000)))
	treasury, err = manager.TreasuryBalanceGet()
	require.NoError(t, err)
	require.Equal(t, big.NewInt(9_000), treasury)
}

func TestMintPrice(t *testing.T) {
	manager := newTestManager(t)

	price, err := manager.MintPriceGet()
	require.NoError(t, err)
	require.Zero(t, price.Sign())

	require.NoError(t, manager.MintPricePut(big.NewInt(1_000)))
	price, err = manager.MintPriceGet()
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1_000), price)
}

func TestSeasonStateIsOneWay(t *testing.T) {
	manager := newTestManager(t)

	season, err := manager.SeasonGet()
	require.NoError(t, err)
	require.False(t, season.Ended)

	require.NoError(t, manager.SeasonPut(&types.SeasonState{Ended: true, EndedAt: 1_700_000_000}))
	season, err = manager.SeasonGet()
	require.NoError(t, err)
	require.True(t, season.Ended)
	require.Equal(t, int64(1_700_000_000), season.EndedAt)

	require.Error(t, manager.SeasonPut(&types.SeasonState{Ended: false}), "season end is permanent")
}

func TestPlaceholderURI(t *testing.T) {
	manager := newTestManager(t)

	uri, err := manager.PlaceholderURIGet()
	require.NoError(t, err)
	require.Empty(t, uri)

	require.NoError(t, manager.PlaceholderURIPut("ipfs://hidden"))
	uri, err = manager.PlaceholderURIGet()
	require.NoError(t, err)
	require.Equal(t, "ipfs://hidden", uri)
}

func TestRoleRegistry(t *testing.T) {
	manager := newTestManager(t)
	alice := []byte{0x01, 0x02}
	bob := []byte{0x03, 0x04}

	require.False(t, manager.HasRole("ROLE_ADMIN", alice))

	require.NoError(t, manager.SetRole("ROLE_ADMIN", alice))
	require.NoError(t, manager.SetRole("ROLE_ADMIN", bob))
	require.NoError(t, manager.SetRole("ROLE_ADMIN", alice), "duplicate grants are ignored")

	require.True(t, manager.HasRole("ROLE_ADMIN", alice))
	require.True(t, manager.HasRole("ROLE_ADMIN", bob))
	require.False(t, manager.HasRole("ROLE_KEEPER", alice))

	members, err := manager.RoleMembers("ROLE_ADMIN")
	require.NoError(t, err)
	require.Len(t, members, 2)

	require.NoError(t, manager.RevokeRole("ROLE_ADMIN", alice))
	require.False(t, manager.HasRole("ROLE_ADMIN", alice))
	require.True(t, manager.HasRole("ROLE_ADMIN", bob))

	require.NoError(t, manager.RevokeRole("ROLE_ADMIN", alice), "revoking a non-member is a no-op")

	require.Error(t, manager.SetRole("", alice))
	require.Error(t, manager.SetRole("ROLE_ADMIN", nil))
	require.False(t, manager.HasRole("ROLE_ADMIN", nil))
}

func TestRevokeLastRoleMemberRemovesRecord(t *testing.T) {
	db := storage.NewMemDB()
	manager := NewManager(db)
	alice := []byte{0x01, 0x02}

	require.NoError(t, manager.SetRole("ROLE_KEEPER", alice))
	require.NoError(t, manager.RevokeRole("ROLE_KEEPER", alice))

	require.False(t, manager.HasRole("ROLE_KEEPER", alice))
	members, err := manager.RoleMembers("ROLE_KEEPER")
	require.NoError(t, err)
	require.Empty(t, members)

	_, err = db.Get(roleKey("ROLE_KEEPER"))
	require.ErrorIs(t, err, storage.ErrNotFound, "emptied role must not leave a stored record")
}
