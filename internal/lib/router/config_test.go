package router

import (
	"encoding/base64"
	"testing"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/common/models"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joltkin/boxoffice/internal/lib/algo"
)

func b64(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}

// globalStateFor mirrors what the approval program writes at create time.
func globalStateFor(cfg *Config) []models.TealKeyValue {
	uintEntry := func(key string, val uint64) models.TealKeyValue {
		return models.TealKeyValue{Key: b64([]byte(key)), Value: models.TealValue{Type: 2, Uint: val}}
	}
	addrEntry := func(key string, addr types.Address) models.TealKeyValue {
		return models.TealKeyValue{Key: b64([]byte(key)), Value: models.TealValue{Type: 1, Bytes: b64(addr[:])}}
	}
	return []models.TealKeyValue{
		addrEntry(GlobalPayee1, cfg.Payees[0]),
		addrEntry(GlobalPayee2, cfg.Payees[1]),
		addrEntry(GlobalPayee3, cfg.Payees[2]),
		uintEntry(GlobalBps1, cfg.SplitBps[0]),
		uintEntry(GlobalBps2, cfg.SplitBps[1]),
		uintEntry(GlobalBps3, cfg.SplitBps[2]),
		uintEntry(GlobalRoyaltyBps, cfg.RoyaltyBps),
		uintEntry(GlobalAssetID, cfg.TicketAssetID),
		addrEntry(GlobalSeller, cfg.PrimarySeller),
	}
}

func TestConfigFromGlobalState(t *testing.T) {
	want := testConfig()

	got, err := ConfigFromGlobalState(globalStateFor(want))
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.NoError(t, got.Validate())
}

func TestConfigFromGlobalStateMissingKey(t *testing.T) {
	state := globalStateFor(testConfig())
	// drop the royalty entry
	var truncated []models.TealKeyValue
	for _, kv := range state {
		if kv.Key == b64([]byte(GlobalRoyaltyBps)) {
			continue
		}
		truncated = append(truncated, kv)
	}
	_, err := ConfigFromGlobalState(truncated)
	assert.ErrorIs(t, err, algo.ErrStateKeyNotFound)
}

func TestConfigAppArgs(t *testing.T) {
	cfg := testConfig()
	args := cfg.AppArgs()
	require.Len(t, args, 9)
	assert.Equal(t, cfg.Payees[0][:], args[0])
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0x1b, 0x58}, args[3], "7000 encoded big-endian")
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 123}, args[7])
	assert.Equal(t, cfg.PrimarySeller[:], args[8])
}
