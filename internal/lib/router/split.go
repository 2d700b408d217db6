package router

import (
	"math/bits"
)

// BpsDenominator is the basis-point scale all split and royalty weights use.
const BpsDenominator = 10000

// NumPayees is the fixed number of payout addresses a router instance carries.
const NumPayees = 3

// Split computes the proportional payouts for amount across the three weights,
// each in basis points and summing to exactly BpsDenominator. Each payout is
// floor(amount * weight / 10000); the rounding dust the floors drop is folded
// into the first payout so the results always sum to exactly amount.
func Split(amount uint64, weights [NumPayees]uint64) ([NumPayees]uint64, error) {
	var payouts [NumPayees]uint64
	if err := checkWeights(weights); err != nil {
		return payouts, err
	}
	var distributed uint64
	for i, w := range weights {
		payouts[i] = mulDivFloor(amount, w)
		distributed += payouts[i]
	}
	// floor() can only under-shoot, never exceed amount
	payouts[0] += amount - distributed
	return payouts, nil
}

// RoyaltySplit computes the royalty on price at royaltyBps and the remainder
// owed the counterparty. The remainder is a subtraction, not a second floor,
// so royalty + remainder == price exactly.
func RoyaltySplit(price, royaltyBps uint64) (royalty, remainder uint64, err error) {
	if royaltyBps > BpsDenominator {
		return 0, 0, ErrInvalidWeights
	}
	royalty = mulDivFloor(price, royaltyBps)
	return royalty, price - royalty, nil
}

func checkWeights(weights [NumPayees]uint64) error {
	var sum uint64
	for _, w := range weights {
		if w > BpsDenominator {
			return ErrInvalidWeights
		}
		sum += w
	}
	if sum != BpsDenominator {
		return ErrInvalidWeights
	}
	return nil
}

// mulDivFloor returns floor(amount * bps / 10000) using a 128-bit intermediate
// product, so it cannot overflow for any uint64 amount. Callers must pass
// bps <= BpsDenominator, which guarantees the high word stays below the
// divisor and Div64 cannot fault.
func mulDivFloor(amount, bps uint64) uint64 {
	hi, lo := bits.Mul64(amount, bps)
	quot, _ := bits.Div64(hi, lo, BpsDenominator)
	return quot
}
