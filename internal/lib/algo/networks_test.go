package algo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetDefaults(t *testing.T) {
	tests := []struct {
		network string
		wantURL string
	}{
		{"mainnet", "https://mainnet-api.algonode.cloud"},
		{"testnet", "https://testnet-api.algonode.cloud"},
		{"betanet", "https://betanet-api.algonode.cloud"},
		{"sandbox", "http://localhost:4001"},
		{"voitestnet", "https://testnet-api.voi.nodely.io"},
	}
	for _, tt := range tests {
		t.Run(tt.network, func(t *testing.T) {
			cfg := getDefaults(tt.network)
			assert.Equal(t, tt.wantURL, cfg.NodeURL)
		})
	}
}

func TestGetDefaultsSandboxToken(t *testing.T) {
	cfg := getDefaults("sandbox")
	assert.Len(t, cfg.NodeToken, 64)
}
