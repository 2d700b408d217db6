package pass

import (
	"context"
	"embed"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/transaction"
	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/joltkin/boxoffice/internal/lib/algo"
	"github.com/joltkin/boxoffice/internal/lib/misc"
)

//go:embed artifacts/contracts/superfan.teal artifacts/contracts/clear.teal
var embeddedF embed.FS

// Client ties a deployed pass application to the local node connection and
// key store.
type Client struct {
	Logger     *slog.Logger
	algoClient *algod.Client
	signer     algo.MultipleWalletSigner

	PassAppID uint64

	sync.RWMutex
	admin types.Address
}

func NewClient(appID uint64, logger *slog.Logger, algoClient *algod.Client, signer algo.MultipleWalletSigner) *Client {
	return &Client{
		Logger:     logger,
		algoClient: algoClient,
		signer:     signer,
		PassAppID:  appID,
	}
}

func (c *Client) Admin() types.Address {
	c.RLock()
	defer c.RUnlock()
	return c.admin
}

// LoadState reads the deployed application's admin address out of its global
// state.
func (c *Client) LoadState(ctx context.Context) error {
	if c.PassAppID == 0 {
		return fmt.Errorf("pass app id not defined")
	}
	appInfo, err := c.algoClient.GetApplicationByID(c.PassAppID).Do(ctx)
	if err != nil {
		return fmt.Errorf("unable to fetch application %d: %w", c.PassAppID, err)
	}
	admin, err := algo.GetAddressFromGlobalState(appInfo.Params.GlobalState, GlobalAdmin)
	if err != nil {
		return fmt.Errorf("unable to read pass admin from global state: %w", err)
	}
	c.Lock()
	c.admin = admin
	c.Unlock()
	c.Logger.Debug("pass state loaded", "appid", c.PassAppID, "admin", admin.String())
	return nil
}

// Deploy compiles the embedded programs and creates a new pass application
// with admin as the sole points issuer.
func (c *Client) Deploy(ctx context.Context, admin types.Address, creator string) (uint64, error) {
	if admin.IsZero() {
		return 0, fmt.Errorf("pass admin not set")
	}
	creatorAddr, err := types.DecodeAddress(creator)
	if err != nil {
		return 0, fmt.Errorf("invalid creator address: %w", err)
	}
	approval, err := c.compileEmbedded(ctx, "artifacts/contracts/superfan.teal")
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
		types.StateSchema{NumByteSlice: 1},
		types.StateSchema{NumUint: 2},
		[][]byte{admin[:]}, nil, nil, nil,
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
	misc.Infof(c.Logger, "deployed pass app id:%d, escrow:%s", result.ApplicationIndex,
		crypto.GetApplicationAddress(result.ApplicationIndex).String())
	return result.ApplicationIndex, nil
}

// OptIn opts caller into the pass, creating their zeroed local record.
// The chain rejects a second opt-in; callers can Holder() first to preflight.
func (c *Client) OptIn(ctx context.Context, caller string) (string, error) {
	callerAddr, err := types.DecodeAddress(caller)
	if err != nil {
		return "", fmt.Errorf("invalid caller address: %w", err)
	}
	if _, err := c.Holder(ctx, caller); err == nil {
		return "", ErrAlreadyOptedIn
	}
	sp := algo.SuggestedParams(ctx, c.Logger, c.algoClient)
	optInTxn, err := transaction.MakeApplicationOptInTx(
		c.PassAppID, nil, nil, nil, nil,
		sp, callerAddr, nil, types.Digest{}, [32]byte{}, types.Address{})
	if err != nil {
		return "", fmt.Errorf("failed to make opt-in txn: %w", err)
	}
	return c.signAndSend(ctx, optInTxn, caller)
}

// AddPoints credits amount points to target, signed by the admin account.
func (c *Client) AddPoints(ctx context.Context, admin, target string, amount uint64) (string, error) {
	adminAddr, err := types.DecodeAddress(admin)
	if err != nil {
		return "", fmt.Errorf("invalid admin address: %w", err)
	}
	if amount == 0 {
		return "", ErrInvalidAmount
	}
	sp := algo.SuggestedParams(ctx, c.Logger, c.algoClient)
	callTxn, err := transaction.MakeApplicationNoOpTx(
		c.PassAppID, [][]byte{[]byte(MethodAddPoints), itob(amount)}, []string{target}, nil, nil,
		sp, adminAddr, nil, types.Digest{}, [32]byte{}, types.Address{})
	if err != nil {
		return "", fmt.Errorf("failed to make add_points txn: %w", err)
	}
	return c.signAndSend(ctx, callTxn, admin)
}

// ClaimTier claims the tier equal to threshold for caller, if their points
// cover it. The tier never moves down; a stale claim is a no-op on-chain.
func (c *Client) ClaimTier(ctx context.Context, caller string, threshold uint64) (string, error) {
	callerAddr, err := types.DecodeAddress(caller)
	if err != nil {
		return "", fmt.Errorf("invalid caller address: %w", err)
	}
	sp := algo.SuggestedParams(ctx, c.Logger, c.algoClient)
	callTxn, err := transaction.MakeApplicationNoOpTx(
		c.PassAppID, [][]byte{[]byte(MethodClaimTier), itob(threshold)}, nil, nil, nil,
		sp, callerAddr, nil, types.Digest{}, [32]byte{}, types.Address{})
	if err != nil {
		return "", fmt.Errorf("failed to make claim_tier txn: %w", err)
	}
	return c.signAndSend(ctx, callTxn, caller)
}

// Holder reads account's local pass state. Returns ErrNoSuchAccount if the
// account never opted in.
func (c *Client) Holder(ctx context.Context, account string) (Holder, error) {
	appInfo, err := c.algoClient.AccountApplicationInformation(account, c.PassAppID).Do(ctx)
	if err != nil {
		return Holder{}, ErrNoSuchAccount
	}
	if appInfo.AppLocalState.Id != c.PassAppID {
		return Holder{}, ErrNoSuchAccount
	}
	keyValues := appInfo.AppLocalState.KeyValue
	var holder Holder
	// zero-valued keys may be absent from the key/value listing
	if points, err := algo.GetUint64FromLocalState(keyValues, LocalPoints); err == nil {
		holder.Points = points
	}
	if tier, err := algo.GetUint64FromLocalState(keyValues, LocalTier); err == nil {
		holder.Tier = tier
	}
	return holder, nil
}

func (c *Client) signAndSend(ctx context.Context, txn types.Transaction, sender string) (string, error) {
	signed, txids, err := algo.SignGroupTransactions(ctx, []types.Transaction{txn},
		algo.SignWithAccount(nil, c.signer, sender))
	if err != nil {
		return "", err
	}
	if _, err := algo.SendAndWaitTxns(ctx, c.Logger, c.algoClient, signed); err != nil {
		return "", err
	}
	return txids[0], nil
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

func itob(val uint64) []byte {
	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, val)
	return data
}
