package router

import (
	"context"
	"embed"
	"encoding/base64"
	"fmt"
	"log/slog"
	"sync"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/transaction"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/mailgun/holster/v4/syncutil"

	"github.com/joltkin/boxoffice/internal/lib/algo"
	"github.com/joltkin/boxoffice/internal/lib/misc"
)

//go:embed artifacts/contracts/router.teal artifacts/contracts/clear.teal
var embeddedF embed.FS

// Client ties a deployed router application to the local node connection and
// key store, building and submitting the sale groups the approval program
// validates.
type Client struct {
	Logger     *slog.Logger
	algoClient *algod.Client
	signer     algo.MultipleWalletSigner

	RouterAppID uint64

	// Loaded from on-chain state at start and on-demand via LoadState
	sync.RWMutex
	router *Router
}

func NewClient(appID uint64, logger *slog.Logger, algoClient *algod.Client, signer algo.MultipleWalletSigner) *Client {
	return &Client{
		Logger:      logger,
		algoClient:  algoClient,
		signer:      signer,
		RouterAppID: appID,
	}
}

// Router returns the group evaluator for the currently loaded configuration,
// or nil if LoadState hasn't succeeded yet.
func (c *Client) Router() *Router {
	c.RLock()
	defer c.RUnlock()
	return c.router
}

// LoadState reads the deployed application's global state and rebuilds the
// local evaluator from it, so preflight checks match what the chain enforces.
func (c *Client) LoadState(ctx context.Context) error {
	if c.RouterAppID == 0 {
		return fmt.Errorf("router app id not defined")
	}
	appInfo, err := c.algoClient.GetApplicationByID(c.RouterAppID).Do(ctx)
	if err != nil {
		return fmt.Errorf("unable to fetch application %d: %w", c.RouterAppID, err)
	}
	cfg, err := ConfigFromGlobalState(appInfo.Params.GlobalState)
	if err != nil {
		return fmt.Errorf("unable to read router config from global state: %w", err)
	}
	router, err := NewRouter(cfg, c.RouterAppID, transaction.MinTxnFee)
	if err != nil {
		return err
	}

	promRoyaltyBps.Set(float64(cfg.RoyaltyBps))

	c.Lock()
	c.router = router
	c.Unlock()
	c.Logger.Debug("router state loaded", "appid", c.RouterAppID)
	return nil
}

// Deploy compiles the embedded approval and clear programs and creates a new
// router application configured with cfg. Returns the new application id.
func (c *Client) Deploy(ctx context.Context, cfg *Config, creator string) (uint64, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	creatorAddr, err := types.DecodeAddress(creator)
	if err != nil {
		return 0, fmt.Errorf("invalid creator address: %w", err)
	}
	approval, err := c.compileEmbedded(ctx, "artifacts/contracts/router.teal")
	if err != nil {
		return 0, err
	}
	clear, err := c.compileEmbedded(ctx, "artifacts/contracts/clear.teal")
	if err != nil {
		return 0, err
	}
	sp := algo.SuggestedParams(ctx, c.Logger, c.algoClient)
	createTxn, err := transaction.MakeApplicationCreateTx(
		false, approval, clear,
		types.StateSchema{NumUint: 5, NumByteSlice: 4},
		types.StateSchema{},
		cfg.AppArgs(), nil, nil, nil,
		sp, creatorAddr, nil, types.Digest{}, [32]byte{}, types.Address{})
	if err != nil {
		return 0, fmt.Errorf("failed to make app create txn: %w", err)
	}
	signed, _, err := algo.SignGroupTransactions(ctx, []types.Transaction{createTxn},
		algo.SignWithAccount(nil, c.signer, creator))
	if err != nil {
		return 0, err
	}
	result, err := algo.SendAndWaitTxns(ctx, c.Logger, c.algoClient, signed)
	if err != nil {
		return 0, err
	}
	misc.Infof(c.Logger, "deployed router app id:%d, escrow:%s", result.ApplicationIndex,
		crypto.GetApplicationAddress(result.ApplicationIndex).String())
	return result.ApplicationIndex, nil
}

// Buy submits a primary sale: buyer pays price into escrow, the configured
// seller hands over one ticket, and the app pays the three payees their split.
// Both the buyer's and the seller's keys must be present in the key store.
func (c *Client) Buy(ctx context.Context, buyer string, price uint64) ([]string, error) {
	router := c.Router()
	if router == nil {
		return nil, fmt.Errorf("router state not loaded")
	}
	cfg := router.Config()
	accounts := []string{
		cfg.Payees[0].String(), cfg.Payees[1].String(), cfg.Payees[2].String(),
		cfg.PrimarySeller.String(),
	}
	group, err := c.buildSaleGroup(ctx, OpBuy, buyer, cfg.PrimarySeller.String(), price, accounts, BuyInnerCount)
	if err != nil {
		return nil, err
	}
	// Reject locally with a named error before burning fees on a group the
	// approval program would refuse.
	if _, err := router.Eval(group); err != nil {
		return nil, err
	}
	txids, err := c.signAndSendSale(ctx, group, buyer, cfg.PrimarySeller.String())
	if err != nil {
		return nil, err
	}
	promSalesSettled.WithLabelValues(OpBuy).Inc()
	return txids, nil
}

// Resale submits a secondary sale: buyer pays price into escrow, holder hands
// over the ticket, and the app pays the royalty to the first payee and the
// remainder to holder. Buyer's and holder's keys must both be present.
func (c *Client) Resale(ctx context.Context, buyer, holder string, price uint64) ([]string, error) {
	router := c.Router()
	if router == nil {
		return nil, fmt.Errorf("router state not loaded")
	}
	cfg := router.Config()
	accounts := []string{
		cfg.Payees[0].String(), cfg.Payees[1].String(), cfg.Payees[2].String(),
		holder,
	}
	group, err := c.buildSaleGroup(ctx, OpResale, buyer, holder, price, accounts, ResaleInnerCount)
	if err != nil {
		return nil, err
	}
	if _, err := router.Eval(group); err != nil {
		return nil, err
	}
	txids, err := c.signAndSendSale(ctx, group, buyer, holder)
	if err != nil {
		return nil, err
	}
	promSalesSettled.WithLabelValues(OpResale).Inc()
	return txids, nil
}

// buildSaleGroup assembles the fixed three-transaction sale shape: app call
// from the buyer, payment from the buyer into escrow, and the single-unit
// ticket transfer from unitSource to the buyer.
func (c *Client) buildSaleGroup(ctx context.Context, selector, buyer, unitSource string, price uint64, accounts []string, innerCount uint64) ([]types.Transaction, error) {
	router := c.Router()
	cfg := router.Config()
	buyerAddr, err := types.DecodeAddress(buyer)
	if err != nil {
		return nil, fmt.Errorf("invalid buyer address: %w", err)
	}
	sp := algo.SuggestedParams(ctx, c.Logger, c.algoClient)

	callTxn, err := transaction.MakeApplicationNoOpTx(
		c.RouterAppID, [][]byte{[]byte(selector)}, accounts, nil, nil,
		sp, buyerAddr, nil, types.Digest{}, [32]byte{}, types.Address{})
	if err != nil {
		return nil, fmt.Errorf("failed to make app call txn: %w", err)
	}
	// The call's flat fee pools the zero-fee inner payments the app issues.
	callTxn.Fee = types.MicroAlgos(innerCount * uint64(sp.MinFee))

	payTxn, err := transaction.MakePaymentTxn(buyer, router.EscrowAddress().String(), price, nil, "", sp)
	if err != nil {
		return nil, fmt.Errorf("failed to make payment txn: %w", err)
	}
	xferTxn, err := transaction.MakeAssetTransferTxn(unitSource, buyer, 1, nil, sp, "", cfg.TicketAssetID)
	if err != nil {
		return nil, fmt.Errorf("failed to make asset transfer txn: %w", err)
	}
	return []types.Transaction{callTxn, payTxn, xferTxn}, nil
}

func (c *Client) signAndSendSale(ctx context.Context, group []types.Transaction, buyer, unitSource string) ([]string, error) {
	var signers []algo.TxnSigner
	signers = algo.SignWithAccount(signers, c.signer, buyer)
	signers = algo.SignWithAccount(signers, c.signer, buyer)
	signers = algo.SignWithAccount(signers, c.signer, unitSource)
	signed, txids, err := algo.SignGroupTransactions(ctx, group, signers)
	if err != nil {
		return nil, err
	}
	if _, err := algo.SendAndWaitTxns(ctx, c.Logger, c.algoClient, signed); err != nil {
		return nil, err
	}
	return txids, nil
}

// RefreshMetrics fetches the escrow and payee balances in parallel and
// publishes them as gauges.
func (c *Client) RefreshMetrics(ctx context.Context) error {
	router := c.Router()
	if router == nil {
		return fmt.Errorf("router state not loaded")
	}
	cfg := router.Config()

	fanOut := syncutil.NewFanOut(NumPayees + 1)
	fanOut.Run(func(val any) error {
		account, err := algo.GetBareAccount(ctx, c.algoClient, router.EscrowAddress().String())
		if err != nil {
			return err
		}
		promEscrowBalance.Set(float64(account.Amount))
		return nil
	}, nil)
	for _, payee := range cfg.Payees {
		fanOut.Run(func(val any) error {
			payeeAddr := val.(string)
			account, err := algo.GetBareAccount(ctx, c.algoClient, payeeAddr)
			if err != nil {
				return err
			}
			promPayeeBalance.WithLabelValues(payeeAddr).Set(float64(account.Amount))
			return nil
		}, payee.String())
	}
	if errs := fanOut.Wait(); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func (c *Client) compileEmbedded(ctx context.Context, fname string) ([]byte, error) {
	source, err := embeddedF.ReadFile(fname)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded program %s: %w", fname, err)
	}
	compiled, err := c.algoClient.TealCompile(source).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("algod failed to compile %s: %w", fname, err)
	}
	program, err := base64.StdEncoding.DecodeString(compiled.Result)
	if err != nil {
		return nil, fmt.Errorf("algod returned invalid program for %s: %w", fname, err)
	}
	return program, nil
}
