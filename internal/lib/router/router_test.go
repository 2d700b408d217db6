package router

import (
	"testing"

	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAppID  = 5555
	testAsset  = 123
	testMinFee = 1000
)

func testAddr(b byte) types.Address {
	var addr types.Address
	addr[0] = b
	return addr
}

var (
	payee1 = testAddr(1)
	payee2 = testAddr(2)
	payee3 = testAddr(3)
	seller = testAddr(4)
	buyer  = testAddr(5)
	holder = testAddr(6)
)

func testConfig() *Config {
	return &Config{
		Payees:        [NumPayees]types.Address{payee1, payee2, payee3},
		SplitBps:      [NumPayees]uint64{7000, 2500, 500},
		RoyaltyBps:    500,
		TicketAssetID: testAsset,
		PrimarySeller: seller,
	}
}

func testRouter(t *testing.T) *Router {
	t.Helper()
	r, err := NewRouter(testConfig(), testAppID, testMinFee)
	require.NoError(t, err)
	return r
}

func appCall(selector string, fee uint64, accounts []types.Address) types.Transaction {
	return types.Transaction{
		Type: types.ApplicationCallTx,
		Header: types.Header{
			Sender: buyer,
			Fee:    types.MicroAlgos(fee),
		},
		ApplicationFields: types.ApplicationFields{
			ApplicationCallTxnFields: types.ApplicationCallTxnFields{
				ApplicationID:   testAppID,
				OnCompletion:    types.NoOpOC,
				ApplicationArgs: [][]byte{[]byte(selector)},
				Accounts:        accounts,
			},
		},
	}
}

func payToEscrow(r *Router, price uint64) types.Transaction {
	return types.Transaction{
		Type: types.PaymentTx,
		Header: types.Header{
			Sender: buyer,
		},
		PaymentTxnFields: types.PaymentTxnFields{
			Receiver: r.EscrowAddress(),
			Amount:   types.MicroAlgos(price),
		},
	}
}

func ticketXfer(from types.Address, amount uint64) types.Transaction {
	return types.Transaction{
		Type: types.AssetTransferTx,
		Header: types.Header{
			Sender: from,
		},
		AssetTransferTxnFields: types.AssetTransferTxnFields{
			XferAsset:     testAsset,
			AssetAmount:   amount,
			AssetReceiver: buyer,
		},
	}
}

func buyGroup(r *Router, price uint64) []types.Transaction {
	return []types.Transaction{
		appCall(OpBuy, BuyInnerCount*testMinFee, []types.Address{payee1, payee2, payee3, seller}),
		payToEscrow(r, price),
		ticketXfer(seller, 1),
	}
}

func resaleGroup(r *Router, price uint64) []types.Transaction {
	return []types.Transaction{
		appCall(OpResale, ResaleInnerCount*testMinFee, []types.Address{payee1, payee2, payee3, holder}),
		payToEscrow(r, price),
		ticketXfer(holder, 1),
	}
}

func TestEvalBuy(t *testing.T) {
	r := testRouter(t)

	payments, err := r.Eval(buyGroup(r, 1_000_000))
	require.NoError(t, err)
	assert.Equal(t, []Payment{
		{Receiver: payee1, Amount: 700_000},
		{Receiver: payee2, Amount: 250_000},
		{Receiver: payee3, Amount: 50_000},
	}, payments)
}

func TestEvalBuyRoundingDust(t *testing.T) {
	r := testRouter(t)

	payments, err := r.Eval(buyGroup(r, 1_000_001))
	require.NoError(t, err)
	assert.Equal(t, []Payment{
		{Receiver: payee1, Amount: 700_001},
		{Receiver: payee2, Amount: 250_000},
		{Receiver: payee3, Amount: 50_000},
	}, payments)

	var sum uint64
	for _, payment := range payments {
		sum += payment.Amount
	}
	assert.EqualValues(t, 1_000_001, sum)
}

func TestEvalResale(t *testing.T) {
	r := testRouter(t)

	payments, err := r.Eval(resaleGroup(r, 1_200_000))
	require.NoError(t, err)
	assert.Equal(t, []Payment{
		{Receiver: payee1, Amount: 60_000},
		{Receiver: holder, Amount: 1_140_000},
	}, payments)
}

func TestEvalBuyRejections(t *testing.T) {
	r := testRouter(t)

	tests := []struct {
		name    string
		mutate  func(group []types.Transaction) []types.Transaction
		wantErr error
	}{
		{
			"group too small",
			func(g []types.Transaction) []types.Transaction { return g[:2] },
			ErrMalformedGroup,
		},
		{
			"payment and transfer swapped",
			func(g []types.Transaction) []types.Transaction {
				g[1], g[2] = g[2], g[1]
				return g
			},
			ErrMalformedGroup,
		},
		{
			"unknown selector",
			func(g []types.Transaction) []types.Transaction {
				g[0].ApplicationArgs = [][]byte{[]byte("refund")}
				return g
			},
			ErrMalformedGroup,
		},
		{
			"call for different app",
			func(g []types.Transaction) []types.Transaction {
				g[0].ApplicationID = testAppID + 1
				return g
			},
			ErrMalformedGroup,
		},
		{
			"payer is not the caller",
			func(g []types.Transaction) []types.Transaction {
				g[1].Sender = holder
				return g
			},
			ErrMalformedGroup,
		},
		{
			"payment to wrong receiver",
			func(g []types.Transaction) []types.Transaction {
				g[1].PaymentTxnFields.Receiver = seller
				return g
			},
			ErrAccountMismatch,
		},
		{
			"wrong payee in account list",
			func(g []types.Transaction) []types.Transaction {
				g[0].Accounts[1] = holder
				return g
			},
			ErrAccountMismatch,
		},
		{
			"account list too short",
			func(g []types.Transaction) []types.Transaction {
				g[0].Accounts = g[0].Accounts[:3]
				return g
			},
			ErrAccountMismatch,
		},
		{
			"ticket from someone other than the seller",
			func(g []types.Transaction) []types.Transaction {
				g[2].Sender = holder
				return g
			},
			ErrAccountMismatch,
		},
		{
			"ticket to someone other than the buyer",
			func(g []types.Transaction) []types.Transaction {
				g[2].AssetTransferTxnFields.AssetReceiver = holder
				return g
			},
			ErrAccountMismatch,
		},
		{
			"wrong asset",
			func(g []types.Transaction) []types.Transaction {
				g[2].AssetTransferTxnFields.XferAsset = testAsset + 1
				return g
			},
			ErrAssetMismatch,
		},
		{
			"two tickets instead of one",
			func(g []types.Transaction) []types.Transaction {
				g[2].AssetTransferTxnFields.AssetAmount = 2
				return g
			},
			ErrAmountMismatch,
		},
		{
			"zero price",
			func(g []types.Transaction) []types.Transaction {
				g[1].PaymentTxnFields.Amount = 0
				return g
			},
			ErrAmountMismatch,
		},
		{
			"fee covers only two inner payments",
			func(g []types.Transaction) []types.Transaction {
				g[0].Fee = 2 * testMinFee
				return g
			},
			ErrFeeInsufficient,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payments, err := r.Eval(tt.mutate(buyGroup(r, 1_000_000)))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, payments, "a rejected group must authorize zero payments")
		})
	}
}

func TestEvalResaleRejections(t *testing.T) {
	r := testRouter(t)

	tests := []struct {
		name    string
		mutate  func(group []types.Transaction) []types.Transaction
		wantErr error
	}{
		{
			"ticket source is not the named holder",
			func(g []types.Transaction) []types.Transaction {
				g[2].Sender = seller
				return g
			},
			ErrAccountMismatch,
		},
		{
			"zero holder account",
			func(g []types.Transaction) []types.Transaction {
				g[0].Accounts[3] = types.ZeroAddress
				return g
			},
			ErrAccountMismatch,
		},
		{
			"fee covers only one inner payment",
			func(g []types.Transaction) []types.Transaction {
				g[0].Fee = testMinFee
				return g
			},
			ErrFeeInsufficient,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payments, err := r.Eval(tt.mutate(resaleGroup(r, 1_200_000)))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, payments)
		})
	}
}

func TestNewRouterRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *Config)
	}{
		{"weights don't sum", func(cfg *Config) { cfg.SplitBps = [NumPayees]uint64{7000, 2500, 499} }},
		{"royalty above 10000", func(cfg *Config) { cfg.RoyaltyBps = 10001 }},
		{"duplicate payees", func(cfg *Config) { cfg.Payees[2] = cfg.Payees[0] }},
		{"zero asset", func(cfg *Config) { cfg.TicketAssetID = 0 }},
		{"zero seller", func(cfg *Config) { cfg.PrimarySeller = types.ZeroAddress }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)
			_, err := NewRouter(cfg, testAppID, testMinFee)
			assert.Error(t, err)
		})
	}
}
