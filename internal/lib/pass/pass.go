// Package pass implements the superfan pass loyalty contract: per-holder
// point counters gated by a single admin, and self-service tier claims gated
// by a monotonic points threshold.
package pass

import (
	"fmt"
	"math"

	"github.com/algorand/go-algorand-sdk/v2/types"
)

// State keys used by the deployed application.
const (
	GlobalAdmin = "admin"
	LocalPoints = "pts"
	LocalTier   = "tier"
)

// Method selectors carried as the first app arg.
const (
	MethodAddPoints = "add_points"
	MethodClaimTier = "claim_tier"
)

// Holder is one account's pass record.
type Holder struct {
	Points uint64
	Tier   uint64
}

// StateStore is the per-holder record storage the contract mutates. The
// on-chain deployment uses application local state; tests and preflight use
// an in-memory store.
type StateStore interface {
	Get(addr types.Address) (Holder, bool)
	Put(addr types.Address, holder Holder)
	Delete(addr types.Address)
}

// Contract evaluates pass operations against an admin identity and a holder
// store, mirroring the deployed approval program. Every call either applies
// fully or returns a named error with the store untouched.
type Contract struct {
	admin types.Address
	state StateStore
}

func NewContract(admin types.Address, state StateStore) (*Contract, error) {
	if admin.IsZero() {
		return nil, fmt.Errorf("pass admin not set")
	}
	return &Contract{admin: admin, state: state}, nil
}

func (c *Contract) Admin() types.Address {
	return c.admin
}

// OptIn creates a zeroed pass record for caller. Opting in twice is an error,
// not a silent reset.
func (c *Contract) OptIn(caller types.Address) error {
	if _, ok := c.state.Get(caller); ok {
		return ErrAlreadyOptedIn
	}
	c.state.Put(caller, Holder{})
	return nil
}

// AddPoints credits amount to target's pass. Only the admin may credit, the
// amount must be positive, and the target must already hold a pass. The
// caller never defaults as the target here; resolving a missing target is the
// caller's concern.
func (c *Contract) AddPoints(caller, target types.Address, amount uint64) error {
	if caller != c.admin {
		return ErrUnauthorized
	}
	if amount == 0 {
		return ErrInvalidAmount
	}
	holder, ok := c.state.Get(target)
	if !ok {
		return ErrNoSuchAccount
	}
	if holder.Points > math.MaxUint64-amount {
		return ErrOverflow
	}
	holder.Points += amount
	c.state.Put(target, holder)
	return nil
}

// ClaimTier upgrades caller's tier to threshold when their points cover it.
// The tier only moves up: claiming a threshold at or below the current tier
// succeeds without changing anything. Returns the tier in effect afterwards.
func (c *Contract) ClaimTier(caller types.Address, threshold uint64) (uint64, error) {
	holder, ok := c.state.Get(caller)
	if !ok {
		return 0, ErrNoSuchAccount
	}
	if holder.Points < threshold {
		return 0, ErrThresholdNotMet
	}
	if threshold > holder.Tier {
		holder.Tier = threshold
		c.state.Put(caller, holder)
	}
	return holder.Tier, nil
}

// OptOut removes caller's pass record entirely, points included.
func (c *Contract) OptOut(caller types.Address) error {
	if _, ok := c.state.Get(caller); !ok {
		return ErrNoSuchAccount
	}
	c.state.Delete(caller)
	return nil
}

// Holder returns the pass record for addr, for preflight reads.
func (c *Contract) Holder(addr types.Address) (Holder, error) {
	holder, ok := c.state.Get(addr)
	if !ok {
		return Holder{}, ErrNoSuchAccount
	}
	return holder, nil
}
