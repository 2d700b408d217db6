package algo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	"github.com/algorand/go-algorand-sdk/v2/client/v2/common/models"
	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/transaction"
	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/joltkin/boxoffice/internal/lib/misc"
)

type TxnSigner interface {
	// SignTxn signs the specified transaction, returning Transaction ID, signed transaction bytes, and error
	SignTxn(ctx context.Context, tx types.Transaction) (string, []byte, error)
}

type MultipleWalletSigner interface {
	HasAccount(publicAddress string) bool
	SignWithAccount(ctx context.Context, tx types.Transaction, publicAddress string) (string, []byte, error)
}

// SignGroupTransactions takes the slice of Transactions and of TxnSigner implementations and signs each according to the
// matching TxnSigner implementation for each transaction.
func SignGroupTransactions(ctx context.Context, txns []types.Transaction, signers []TxnSigner) ([]byte, []string, error) {
	var (
		txIDs []string
		gid   types.Digest
		err   error
	)
	if len(txns) != len(signers) {
		return nil, nil, fmt.Errorf("number of transactions (%d) does not match number of signers (%d)", len(txns), len(signers))
	}
	// now we have to compose the group transactions [if more than 1 transaction]
	if len(txns) > 1 {
		gid, err = crypto.ComputeGroupID(txns)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to compute group ID: %w", err)
		}
	}
	var signedTxns []byte
	for i, txn := range txns {
		if len(txns) > 1 {
			txn.Group = gid
		}

		txid, bytes, err := signers[i].SignTxn(ctx, txn)
		if err != nil {
			return nil, nil, fmt.Errorf("error signing txn %d: %w", i, err)
		}
		signedTxns = append(signedTxns, bytes...)
		txIDs = append(txIDs, txid)
	}
	return signedTxns, txIDs, nil
}

func SignWithAccount(signers []TxnSigner, keyManager MultipleWalletSigner, publicAddress string) []TxnSigner {
	return append(signers, &kmdSigner{
		keyManager: keyManager,
		address:    publicAddress,
	})
}

type kmdSigner struct {
	keyManager MultipleWalletSigner
	address    string
}

func (k *kmdSigner) SignTxn(ctx context.Context, tx types.Transaction) (string, []byte, error) {
	return k.keyManager.SignWithAccount(ctx, tx, k.address)
}

// SendAndWaitTxns submits already-signed (and possibly grouped) transaction bytes and
// blocks until the first transaction is confirmed.
func SendAndWaitTxns(ctx context.Context, log *slog.Logger, algoClient *algod.Client, txnBytes []byte) (models.PendingTransactionInfoResponse, error) {
	txid, err := algoClient.SendRawTransaction(txnBytes).Do(ctx)
	if err != nil {
		return models.PendingTransactionInfoResponse{}, fmt.Errorf("SendAndWaitTxns failed to send txns: %w", err)
	}
	misc.Infof(log, "sent txns, first txid:%s", txid)
	resp, err := transaction.WaitForConfirmation(algoClient, txid, DefaultValidRoundRange, ctx)
	if err != nil {
		return models.PendingTransactionInfoResponse{}, fmt.Errorf("SendAndWaitTxns failure in confirmation wait: %w", err)
	}
	misc.Infof(log, "txn confirmed in round:%d", resp.ConfirmedRound)
	return resp, nil
}
