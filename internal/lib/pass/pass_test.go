package pass

import (
	"math"
	"testing"

	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddr(b byte) types.Address {
	var addr types.Address
	addr[0] = b
	return addr
}

var (
	admin = testAddr(1)
	fan   = testAddr(2)
	other = testAddr(3)
)

func testContract(t *testing.T) (*Contract, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	contract, err := NewContract(admin, store)
	require.NoError(t, err)
	return contract, store
}

func TestOptIn(t *testing.T) {
	contract, store := testContract(t)

	require.NoError(t, contract.OptIn(fan))
	holder, ok := store.Get(fan)
	require.True(t, ok)
	assert.Equal(t, Holder{}, holder)

	err := contract.OptIn(fan)
	assert.ErrorIs(t, err, ErrAlreadyOptedIn)
	holder, _ = store.Get(fan)
	assert.Equal(t, Holder{}, holder, "failed re-opt-in must not reset the record")
}

func TestAddPoints(t *testing.T) {
	contract, store := testContract(t)
	require.NoError(t, contract.OptIn(fan))

	require.NoError(t, contract.AddPoints(admin, fan, 40))
	require.NoError(t, contract.AddPoints(admin, fan, 60))
	holder, _ := store.Get(fan)
	assert.EqualValues(t, 100, holder.Points)
}

func TestAddPointsRejections(t *testing.T) {
	contract, store := testContract(t)
	require.NoError(t, contract.OptIn(fan))
	store.Put(fan, Holder{Points: 50})

	tests := []struct {
		name    string
		caller  types.Address
		target  types.Address
		amount  uint64
		wantErr error
	}{
		{"non-admin caller", fan, fan, 10, ErrUnauthorized},
		{"zero amount", admin, fan, 0, ErrInvalidAmount},
		{"target never opted in", admin, other, 10, ErrNoSuchAccount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := contract.AddPoints(tt.caller, tt.target, tt.amount)
			assert.ErrorIs(t, err, tt.wantErr)
			holder, _ := store.Get(fan)
			assert.EqualValues(t, 50, holder.Points, "rejected call must leave points unchanged")
		})
	}
}

func TestAddPointsOverflow(t *testing.T) {
	contract, store := testContract(t)
	require.NoError(t, contract.OptIn(fan))
	store.Put(fan, Holder{Points: math.MaxUint64 - 5})

	err := contract.AddPoints(admin, fan, 6)
	assert.ErrorIs(t, err, ErrOverflow)
	holder, _ := store.Get(fan)
	assert.EqualValues(t, uint64(math.MaxUint64-5), holder.Points)

	require.NoError(t, contract.AddPoints(admin, fan, 5))
	holder, _ = store.Get(fan)
	assert.EqualValues(t, uint64(math.MaxUint64), holder.Points)
}

func TestClaimTier(t *testing.T) {
	contract, store := testContract(t)
	require.NoError(t, contract.OptIn(fan))
	store.Put(fan, Holder{Points: 150})

	tier, err := contract.ClaimTier(fan, 100)
	require.NoError(t, err)
	assert.EqualValues(t, 100, tier)

	// claiming a lower threshold again succeeds but never lowers the tier
	tier, err = contract.ClaimTier(fan, 50)
	require.NoError(t, err)
	assert.EqualValues(t, 100, tier)
	holder, _ := store.Get(fan)
	assert.EqualValues(t, 100, holder.Tier)

	tier, err = contract.ClaimTier(fan, 150)
	require.NoError(t, err)
	assert.EqualValues(t, 150, tier)
}

func TestClaimTierRejections(t *testing.T) {
	contract, store := testContract(t)
	require.NoError(t, contract.OptIn(fan))
	store.Put(fan, Holder{Points: 99})

	_, err := contract.ClaimTier(fan, 100)
	assert.ErrorIs(t, err, ErrThresholdNotMet)
	holder, _ := store.Get(fan)
	assert.Zero(t, holder.Tier)

	_, err = contract.ClaimTier(other, 10)
	assert.ErrorIs(t, err, ErrNoSuchAccount)
}

func TestOptOut(t *testing.T) {
	contract, store := testContract(t)
	require.NoError(t, contract.OptIn(fan))
	store.Put(fan, Holder{Points: 10, Tier: 10})

	require.NoError(t, contract.OptOut(fan))
	_, ok := store.Get(fan)
	assert.False(t, ok)

	assert.ErrorIs(t, contract.OptOut(fan), ErrNoSuchAccount)
}

func TestNewContractRequiresAdmin(t *testing.T) {
	_, err := NewContract(types.ZeroAddress, NewMemoryStore())
	assert.Error(t, err)
}
