package router

import (
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/types"
)

// Group shape every sale settles through: app call, then the buyer's payment
// into the app escrow, then the ticket transfer to the buyer.
const (
	GroupSize        = 3
	BuyInnerCount    = 3
	ResaleInnerCount = 2
)

// Operation selectors carried as the first app arg.
const (
	OpBuy    = "buy"
	OpResale = "resale"
)

// Payment is an inner payment the router authorizes from its escrow on a
// successful sale.
type Payment struct {
	Receiver types.Address
	Amount   uint64
}

// Router evaluates submitted sale groups against an instance's immutable
// configuration, exactly as the deployed approval program does. It holds no
// per-sale state; every Eval is a complete transition that either yields the
// full set of escrow payments or rejects with zero effect.
type Router struct {
	cfg     *Config
	appID   uint64
	appAddr types.Address
	minFee  uint64
}

func NewRouter(cfg *Config, appID uint64, minFee uint64) (*Router, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if appID == 0 {
		return nil, fmt.Errorf("router app id not set")
	}
	return &Router{
		cfg:     cfg,
		appID:   appID,
		appAddr: crypto.GetApplicationAddress(appID),
		minFee:  minFee,
	}, nil
}

func (r *Router) Config() *Config {
	return r.cfg
}

func (r *Router) AppID() uint64 {
	return r.appID
}

// EscrowAddress is the application's own custodial account, the receiver of
// every sale payment and the source of every authorized payout.
func (r *Router) EscrowAddress() types.Address {
	return r.appAddr
}

// Eval validates a sale group and returns the escrow payments it authorizes.
// Rejections return one of the named sentinel errors and no payments.
func (r *Router) Eval(group []types.Transaction) ([]Payment, error) {
	if len(group) != GroupSize {
		return nil, ErrMalformedGroup
	}
	call := &group[0]
	if call.Type != types.ApplicationCallTx || types.AppIndex(r.appID) != call.ApplicationID {
		return nil, ErrMalformedGroup
	}
	if call.OnCompletion != types.NoOpOC || len(call.ApplicationArgs) != 1 {
		return nil, ErrMalformedGroup
	}
	switch string(call.ApplicationArgs[0]) {
	case OpBuy:
		return r.evalBuy(group)
	case OpResale:
		return r.evalResale(group)
	default:
		return nil, ErrMalformedGroup
	}
}

// evalBuy settles a primary sale: the buyer's full payment is split across the
// three payees per the configured weights, first payee absorbing rounding dust.
func (r *Router) evalBuy(group []types.Transaction) ([]Payment, error) {
	price, buyer, xfer, err := r.checkSaleShape(group)
	if err != nil {
		return nil, err
	}
	if err := r.checkAccounts(&group[0], r.cfg.PrimarySeller); err != nil {
		return nil, err
	}
	if xfer.Sender != r.cfg.PrimarySeller {
		return nil, ErrAccountMismatch
	}
	if xfer.AssetTransferTxnFields.AssetReceiver != buyer {
		return nil, ErrAccountMismatch
	}
	if err := r.checkFee(&group[0], BuyInnerCount); err != nil {
		return nil, err
	}
	payouts, err := Split(price, r.cfg.SplitBps)
	if err != nil {
		return nil, err
	}
	payments := make([]Payment, 0, NumPayees)
	for i, amount := range payouts {
		payments = append(payments, Payment{Receiver: r.cfg.Payees[i], Amount: amount})
	}
	return payments, nil
}

// evalResale settles a secondary sale: royalty to the first payee, remainder
// to the holder the group names as the unit source.
func (r *Router) evalResale(group []types.Transaction) ([]Payment, error) {
	price, buyer, xfer, err := r.checkSaleShape(group)
	if err != nil {
		return nil, err
	}
	// The holder is caller-supplied via the call's account list; the router
	// tracks no ownership itself and trusts the unit transfer's source.
	call := &group[0]
	if len(call.ApplicationCallTxnFields.Accounts) != NumPayees+1 {
		return nil, ErrAccountMismatch
	}
	holder := call.ApplicationCallTxnFields.Accounts[NumPayees]
	if holder.IsZero() {
		return nil, ErrAccountMismatch
	}
	if err := r.checkAccounts(call, holder); err != nil {
		return nil, err
	}
	if xfer.Sender != holder {
		return nil, ErrAccountMismatch
	}
	if xfer.AssetTransferTxnFields.AssetReceiver != buyer {
		return nil, ErrAccountMismatch
	}
	if err := r.checkFee(call, ResaleInnerCount); err != nil {
		return nil, err
	}
	royalty, remainder, err := RoyaltySplit(price, r.cfg.RoyaltyBps)
	if err != nil {
		return nil, err
	}
	return []Payment{
		{Receiver: r.cfg.Payees[0], Amount: royalty},
		{Receiver: holder, Amount: remainder},
	}, nil
}

// checkSaleShape validates the common structure both operations share and
// returns the price, the buyer, and the unit transfer.
func (r *Router) checkSaleShape(group []types.Transaction) (uint64, types.Address, *types.Transaction, error) {
	var zero types.Address
	call, pay, xfer := &group[0], &group[1], &group[2]
	if pay.Type != types.PaymentTx || xfer.Type != types.AssetTransferTx {
		return 0, zero, nil, ErrMalformedGroup
	}
	// The app call's sender and the payer must be the same account (the buyer).
	buyer := call.Sender
	if pay.Sender != buyer {
		return 0, zero, nil, ErrMalformedGroup
	}
	if pay.PaymentTxnFields.Receiver != r.appAddr {
		return 0, zero, nil, ErrAccountMismatch
	}
	if xfer.AssetTransferTxnFields.XferAsset != types.AssetIndex(r.cfg.TicketAssetID) {
		return 0, zero, nil, ErrAssetMismatch
	}
	if xfer.AssetTransferTxnFields.AssetAmount != 1 {
		return 0, zero, nil, ErrAmountMismatch
	}
	price := uint64(pay.PaymentTxnFields.Amount)
	if price == 0 {
		return 0, zero, nil, ErrAmountMismatch
	}
	return price, buyer, xfer, nil
}

// checkAccounts verifies the call references exactly the three payees plus the
// sale counterparty, in order.
func (r *Router) checkAccounts(call *types.Transaction, counterparty types.Address) error {
	accounts := call.ApplicationCallTxnFields.Accounts
	if len(accounts) != NumPayees+1 {
		return ErrAccountMismatch
	}
	for i, payee := range r.cfg.Payees {
		if accounts[i] != payee {
			return ErrAccountMismatch
		}
	}
	if accounts[NumPayees] != counterparty {
		return ErrAccountMismatch
	}
	return nil
}

// checkFee ensures the call's flat fee covers its own cost pool plus the inner
// payments it is about to authorize, before any of them are issued.
func (r *Router) checkFee(call *types.Transaction, innerCount uint64) error {
	if uint64(call.Fee) < innerCount*r.minFee {
		return ErrFeeInsufficient
	}
	return nil
}
