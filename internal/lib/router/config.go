package router

import (
	"fmt"
	"strings"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/common/models"
	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/joltkin/boxoffice/internal/lib/algo"
)

// Global state keys the deployed application stores its configuration under.
// Kept short to minimize the on-chain footprint.
const (
	GlobalPayee1     = "p1"
	GlobalPayee2     = "p2"
	GlobalPayee3     = "p3"
	GlobalBps1       = "bps1"
	GlobalBps2       = "bps2"
	GlobalBps3       = "bps3"
	GlobalRoyaltyBps = "roybps"
	GlobalAssetID    = "asa"
	GlobalSeller     = "seller"
)

// Config is the immutable settlement configuration a router instance is
// created with. It is written once at application create and only read
// afterwards; changing any of it means deploying a new instance.
type Config struct {
	// Payees are the three payout addresses, in split order. Payees[0]
	// absorbs primary-sale rounding dust and receives resale royalties.
	Payees [NumPayees]types.Address
	// SplitBps are the primary-sale split weights, summing to exactly 10000.
	SplitBps [NumPayees]uint64
	// RoyaltyBps is the resale royalty weight paid to Payees[0].
	RoyaltyBps uint64
	// TicketAssetID is the single non-divisible asset this router settles.
	TicketAssetID uint64
	// PrimarySeller is the only account allowed as the unit source in a
	// primary sale.
	PrimarySeller types.Address
}

func (c *Config) Validate() error {
	if err := checkWeights(c.SplitBps); err != nil {
		return err
	}
	if c.RoyaltyBps > BpsDenominator {
		return ErrInvalidWeights
	}
	if c.TicketAssetID == 0 {
		return fmt.Errorf("ticket asset id not set")
	}
	for i, payee := range c.Payees {
		if payee.IsZero() {
			return fmt.Errorf("payee %d not set", i+1)
		}
		for j := i + 1; j < NumPayees; j++ {
			if payee == c.Payees[j] {
				return fmt.Errorf("payees %d and %d are the same account", i+1, j+1)
			}
		}
	}
	if c.PrimarySeller.IsZero() {
		return fmt.Errorf("primary seller not set")
	}
	return nil
}

func (c *Config) String() string {
	var out strings.Builder
	for i, payee := range c.Payees {
		out.WriteString(fmt.Sprintf("Payee %d: %s (%d bps)\n", i+1, payee.String(), c.SplitBps[i]))
	}
	out.WriteString(fmt.Sprintf("Royalty: %d bps (to payee 1)\n", c.RoyaltyBps))
	out.WriteString(fmt.Sprintf("Ticket ASA: %d\n", c.TicketAssetID))
	out.WriteString(fmt.Sprintf("Primary Seller: %s\n", c.PrimarySeller.String()))
	return out.String()
}

// AppArgs encodes the configuration as the nine application-create arguments
// the approval program expects, in its fixed order.
func (c *Config) AppArgs() [][]byte {
	itob := func(val uint64) []byte {
		data := make([]byte, 8)
		for i := 7; i >= 0; i-- {
			data[i] = byte(val)
			val >>= 8
		}
		return data
	}
	return [][]byte{
		c.Payees[0][:],
		c.Payees[1][:],
		c.Payees[2][:],
		itob(c.SplitBps[0]),
		itob(c.SplitBps[1]),
		itob(c.SplitBps[2]),
		itob(c.RoyaltyBps),
		itob(c.TicketAssetID),
		c.PrimarySeller[:],
	}
}

// ConfigFromGlobalState reads a deployed router's configuration back out of
// its application global state.
func ConfigFromGlobalState(globalState []models.TealKeyValue) (*Config, error) {
	cfg := &Config{}
	var err error
	for i, key := range []string{GlobalPayee1, GlobalPayee2, GlobalPayee3} {
		cfg.Payees[i], err = algo.GetAddressFromGlobalState(globalState, key)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", key, err)
		}
	}
	for i, key := range []string{GlobalBps1, GlobalBps2, GlobalBps3} {
		cfg.SplitBps[i], err = algo.GetUint64FromGlobalState(globalState, key)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", key, err)
		}
	}
	cfg.RoyaltyBps, err = algo.GetUint64FromGlobalState(globalState, GlobalRoyaltyBps)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", GlobalRoyaltyBps, err)
	}
	cfg.TicketAssetID, err = algo.GetUint64FromGlobalState(globalState, GlobalAssetID)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", GlobalAssetID, err)
	}
	cfg.PrimarySeller, err = algo.GetAddressFromGlobalState(globalState, GlobalSeller)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", GlobalSeller, err)
	}
	return cfg, nil
}
