package algo

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/crypto/ed25519"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/mnemonic"
	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/joltkin/boxoffice/internal/lib/misc"
)

// NewLocalKeyStore builds a MultipleWalletSigner over every mnemonic found in
// ALGO_MNEMONIC* environment variables (so payees, buyers, and the admin can
// each get their own entry in a .env file). A malformed mnemonic is fatal;
// better to stop at startup than to fail signing mid-group.
func NewLocalKeyStore(log *slog.Logger) MultipleWalletSigner {
	keyStore := &localKeyStore{
		log:  log,
		keys: map[string]ed25519.PrivateKey{},
	}
	keyStore.loadFromEnvironment()
	return keyStore
}

type localKeyStore struct {
	log *slog.Logger

	keys map[string]ed25519.PrivateKey
}

func (lk *localKeyStore) HasAccount(publicAddress string) bool {
	_, found := lk.keys[publicAddress]
	return found
}

func (lk *localKeyStore) SignWithAccount(ctx context.Context, tx types.Transaction, publicAddress string) (string, []byte, error) {
	key, found := lk.keys[publicAddress]
	if !found {
		return "", nil, fmt.Errorf("key not found for address %s", publicAddress)
	}
	return crypto.SignTransaction(key, tx)
}

func (lk *localKeyStore) loadFromEnvironment() {
	var numMnemonics int
	for _, envVal := range os.Environ() {
		if !strings.HasPrefix(envVal, "ALGO_MNEMONIC") {
			continue
		}
		key := envVal[0:strings.IndexByte(envVal, '=')]
		envMnemonic := os.Getenv(key)
		if envMnemonic == "" {
			break
		}
		if err := lk.importMnemonic(envMnemonic); err != nil {
			lk.log.Error(fmt.Sprintf("fatal error importing mnemonic from %s: %v", key, err))
			os.Exit(1)
		}
		numMnemonics++
	}
	misc.Infof(lk.log, "key store ready, %d signing accounts", numMnemonics)
}

func (lk *localKeyStore) importMnemonic(mnemonicPhrase string) error {
	key, err := mnemonic.ToPrivateKey(mnemonicPhrase)
	if err != nil {
		return fmt.Errorf("failed to import mnemonic: %w", err)
	}
	account, err := crypto.AccountFromPrivateKey(key)
	if err != nil {
		return fmt.Errorf("failed to import mnemonic: %w", err)
	}
	lk.keys[account.Address.String()] = key
	misc.Infof(lk.log, "registered signer:%s", account.Address.String())
	return nil
}
