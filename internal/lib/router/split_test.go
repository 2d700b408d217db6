package router

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name    string
		amount  uint64
		weights [NumPayees]uint64
		want    [NumPayees]uint64
	}{
		{"even million", 1_000_000, [NumPayees]uint64{7000, 2500, 500}, [NumPayees]uint64{700_000, 250_000, 50_000}},
		{"dust to first payee", 1_000_001, [NumPayees]uint64{7000, 2500, 500}, [NumPayees]uint64{700_001, 250_000, 50_000}},
		{"zero amount", 0, [NumPayees]uint64{7000, 2500, 500}, [NumPayees]uint64{0, 0, 0}},
		{"single payee", 999, [NumPayees]uint64{10000, 0, 0}, [NumPayees]uint64{999, 0, 0}},
		{"all dust", 1, [NumPayees]uint64{3333, 3333, 3334}, [NumPayees]uint64{1, 0, 0}},
		{"max amount", math.MaxUint64, [NumPayees]uint64{7000, 2500, 500}, [NumPayees]uint64{
			math.MaxUint64 - mulDivFloor(math.MaxUint64, 2500) - mulDivFloor(math.MaxUint64, 500),
			mulDivFloor(math.MaxUint64, 2500),
			mulDivFloor(math.MaxUint64, 500),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Split(tt.amount, tt.weights)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			var sum uint64
			for _, payout := range got {
				sum += payout
			}
			assert.Equal(t, tt.amount, sum, "payouts must sum to exactly the amount")
		})
	}
}

func TestSplitInvalidWeights(t *testing.T) {
	tests := []struct {
		name    string
		weights [NumPayees]uint64
	}{
		{"sum below 10000", [NumPayees]uint64{7000, 2500, 499}},
		{"sum above 10000", [NumPayees]uint64{7000, 2500, 501}},
		{"all zero", [NumPayees]uint64{0, 0, 0}},
		{"single weight too large", [NumPayees]uint64{10001, 0, 0}},
		{"wraparound to valid sum", [NumPayees]uint64{math.MaxUint64, 10001, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split(1_000_000, tt.weights)
			assert.ErrorIs(t, err, ErrInvalidWeights)
		})
	}
}

func TestRoyaltySplit(t *testing.T) {
	tests := []struct {
		name          string
		price         uint64
		royaltyBps    uint64
		wantRoyalty   uint64
		wantRemainder uint64
	}{
		{"five percent", 1_200_000, 500, 60_000, 1_140_000},
		{"zero royalty", 1_000_000, 0, 0, 1_000_000},
		{"full royalty", 1_000_000, 10000, 1_000_000, 0},
		{"dust stays with holder", 999, 500, 49, 950},
		{"max price no overflow", math.MaxUint64, 500, mulDivFloor(math.MaxUint64, 500), math.MaxUint64 - mulDivFloor(math.MaxUint64, 500)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			royalty, remainder, err := RoyaltySplit(tt.price, tt.royaltyBps)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRoyalty, royalty)
			assert.Equal(t, tt.wantRemainder, remainder)
			assert.Equal(t, tt.price, royalty+remainder, "royalty plus remainder must equal price exactly")
		})
	}
}

func TestRoyaltySplitInvalidWeight(t *testing.T) {
	_, _, err := RoyaltySplit(1_000_000, 10001)
	assert.ErrorIs(t, err, ErrInvalidWeights)
}

// Exhaustively walk royalty weights at a few awkward prices; the identity
// royalty + remainder == price must hold at every weight.
func TestRoyaltySplitIdentityAcrossWeights(t *testing.T) {
	for _, price := range []uint64{0, 1, 999, 1_000_001, math.MaxUint64} {
		for bps := uint64(0); bps <= BpsDenominator; bps += 7 {
			royalty, remainder, err := RoyaltySplit(price, bps)
			require.NoError(t, err)
			require.Equal(t, price, royalty+remainder, "price %d bps %d", price, bps)
		}
	}
}
