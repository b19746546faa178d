package rpcwallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/babylonchain/btc-staking-signer/indexer"
	"github.com/babylonchain/btc-staking-signer/types"
	"github.com/babylonchain/btc-staking-signer/wallet/api"
)

const (
	BackendName = "rpc"

	methodRequestAccounts = "btc_requestAccounts"
	methodGetAccounts     = "btc_getAccounts"
	methodGetPublicKey    = "btc_getPublicKey"
	methodSignPsbts       = "btc_signPsbts"
	methodNetwork         = "btc_network"
	methodGetUnspent      = "btc_getUnspent"

	nativeAccountsChanged = "accountsChanged"
)

var _ api.WalletProvider = (*Wallet)(nil)

// Wallet is a WalletProvider backed by an external wallet bridge, such as a
// browser extension or a hardware signer daemon, speaking JSON-RPC over HTTP.
// Fees, balance, tip height and broadcasting go to the data source.
type Wallet struct {
	cfg        *Config
	client     *bridgeClient
	dataSource indexer.NetworkDataSource
	logger     *zap.Logger

	mu       sync.RWMutex
	identity *types.WalletIdentity

	// one prompt at a time
	signMu sync.Mutex

	subMu     sync.Mutex
	subs      map[string]map[uint64]func()
	nextSubID uint64

	watching *atomic.Bool
}

func New(cfg *Config, dataSource indexer.NetworkDataSource, logger *zap.Logger) (*Wallet, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Wallet{
		cfg:        cfg,
		client:     newBridgeClient(cfg),
		dataSource: dataSource,
		logger:     logger.With(zap.String("wallet", BackendName)),
		subs:       make(map[string]map[uint64]func()),
		watching:   atomic.NewBool(false),
	}, nil
}

func (w *Wallet) Name() string {
	return "Wallet Bridge"
}

func (w *Wallet) Connect(ctx context.Context) (*types.WalletIdentity, error) {
	var accounts []string
	if err := w.client.call(ctx, methodRequestAccounts, nil, &accounts); err != nil {
		return nil, api.WrapError(BackendName, "connect", err)
	}
	if len(accounts) == 0 || accounts[0] == "" {
		return nil, api.WrapError(BackendName, "connect", fmt.Errorf("%w: no account is exposed", api.ErrUnauthorized))
	}

	var publicKeyHex string
	if err := w.client.call(ctx, methodGetPublicKey, nil, &publicKeyHex); err != nil {
		return nil, api.WrapError(BackendName, "connect", err)
	}
	if publicKeyHex == "" {
		return nil, api.WrapError(BackendName, "connect", fmt.Errorf("%w: no public key is exposed", api.ErrUnauthorized))
	}

	identity := &types.WalletIdentity{
		Address:      accounts[0],
		PublicKeyHex: publicKeyHex,
	}

	w.mu.Lock()
	w.identity = identity
	w.mu.Unlock()

	w.logger.Info("connected to the wallet bridge", zap.String("address", identity.Address))

	return identity, nil
}

func (w *Wallet) getIdentity() (*types.WalletIdentity, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.identity == nil {
		return nil, api.ErrNotConnected
	}
	return w.identity, nil
}

func (w *Wallet) GetAddress() (string, error) {
	identity, err := w.getIdentity()
	if err != nil {
		return "", api.WrapError(BackendName, "getAddress", err)
	}
	return identity.Address, nil
}

func (w *Wallet) GetPublicKeyHex() (string, error) {
	identity, err := w.getIdentity()
	if err != nil {
		return "", api.WrapError(BackendName, "getPublicKeyHex", err)
	}
	return identity.PublicKeyHex, nil
}

func (w *Wallet) GetNetwork(ctx context.Context) (types.Network, error) {
	var name string
	if err := w.client.call(ctx, methodNetwork, nil, &name); err != nil {
		return "", api.WrapError(BackendName, "getNetwork", err)
	}
	network, err := types.ParseNetwork(name)
	if err != nil {
		return "", api.WrapError(BackendName, "getNetwork", err)
	}
	return network, nil
}

func (w *Wallet) GetUtxos(ctx context.Context, address string, minTotal *btcutil.Amount) ([]*types.UTXO, error) {
	var amountParam interface{}
	if minTotal != nil {
		amountParam = int64(*minTotal)
	}

	var utxos []*types.UTXO
	if err := w.client.call(ctx, methodGetUnspent, []interface{}{address, amountParam}, &utxos); err != nil {
		return nil, api.WrapError(BackendName, "getUtxos", err)
	}
	return utxos, nil
}

func (w *Wallet) GetNetworkFees(ctx context.Context) (*types.FeeEstimate, error) {
	fees, err := w.dataSource.GetNetworkFees(ctx)
	if err != nil {
		return nil, api.WrapError(BackendName, "getNetworkFees", err)
	}
	return fees, nil
}

func (w *Wallet) GetBalance(ctx context.Context) (btcutil.Amount, error) {
	address, err := w.GetAddress()
	if err != nil {
		return 0, err
	}
	balance, err := w.dataSource.GetAddressBalance(ctx, address)
	if err != nil {
		return 0, api.WrapError(BackendName, "getBalance", err)
	}
	return balance, nil
}

func (w *Wallet) SignPsbt(ctx context.Context, psbtHex string) (string, error) {
	signed, err := w.signPsbts(ctx, []string{psbtHex})
	if err != nil {
		return "", api.WrapError(BackendName, "signPsbt", err)
	}
	if len(signed) != 1 {
		return "", api.WrapError(BackendName, "signPsbt", fmt.Errorf("expected 1 signed PSBT, got %d", len(signed)))
	}
	return signed[0], nil
}

func (w *Wallet) SignPsbts(ctx context.Context, psbtsHexes []string) ([]string, error) {
	if len(psbtsHexes) == 0 {
		return nil, api.WrapError(BackendName, "signPsbts", errors.New("no PSBTs to sign"))
	}
	signed, err := w.signPsbts(ctx, psbtsHexes)
	if err != nil {
		return nil, api.WrapError(BackendName, "signPsbts", err)
	}
	if len(signed) != len(psbtsHexes) {
		return nil, api.WrapError(BackendName, "signPsbts",
			fmt.Errorf("expected %d signed PSBTs, got %d", len(psbtsHexes), len(signed)))
	}
	return signed, nil
}

func (w *Wallet) signPsbts(ctx context.Context, psbtsHexes []string) ([]string, error) {
	w.signMu.Lock()
	defer w.signMu.Unlock()

	var raw json.RawMessage
	if err := w.client.call(ctx, methodSignPsbts, []interface{}{psbtsHexes}, &raw); err != nil {
		return nil, err
	}

	// some bridges answer a single PSBT with a bare string
	var signed []string
	if err := json.Unmarshal(raw, &signed); err == nil {
		return signed, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("unexpected result of %s: %s", methodSignPsbts, raw)
	}
	return []string{single}, nil
}

func (w *Wallet) SignMessage(_ context.Context, _ string, sigType api.SignatureType) (string, error) {
	return "", api.WrapError(BackendName, "signMessage", fmt.Errorf("%w: %s", api.ErrUnsupported, sigType))
}

func (w *Wallet) PushTx(ctx context.Context, txHex string) (string, error) {
	txID, err := w.dataSource.PushTx(ctx, txHex)
	if err != nil {
		return "", api.WrapError(BackendName, "pushTx", err)
	}
	return txID, nil
}

func (w *Wallet) GetBTCTipHeight(ctx context.Context) (uint64, error) {
	height, err := w.dataSource.GetTipHeight(ctx)
	if err != nil {
		return 0, api.WrapError(BackendName, "getBTCTipHeight", err)
	}
	return height, nil
}

// nativeEventName maps generic event names to the names used by the bridge.
func nativeEventName(eventName string) string {
	if eventName == api.EventAccountChanged {
		return nativeAccountsChanged
	}
	return eventName
}

func (w *Wallet) Subscribe(eventName string, callback func()) (func(), error) {
	native := nativeEventName(eventName)
	if native != nativeAccountsChanged {
		return nil, api.WrapError(BackendName, "subscribe", fmt.Errorf("%w: event %s", api.ErrUnsupported, eventName))
	}

	w.subMu.Lock()
	defer w.subMu.Unlock()

	id := w.nextSubID
	w.nextSubID++
	if w.subs[native] == nil {
		w.subs[native] = make(map[uint64]func())
	}
	w.subs[native][id] = callback

	return func() {
		w.subMu.Lock()
		defer w.subMu.Unlock()
		delete(w.subs[native], id)
	}, nil
}

func (w *Wallet) emit(native string) {
	w.subMu.Lock()
	callbacks := make([]func(), 0, len(w.subs[native]))
	for _, cb := range w.subs[native] {
		callbacks = append(callbacks, cb)
	}
	w.subMu.Unlock()

	for _, cb := range callbacks {
		cb()
	}
}

// WatchAccounts polls the bridge for the exposed account until ctx is done
// and emits accountsChanged when it differs from the connected one. Only one
// watcher runs at a time.
func (w *Wallet) WatchAccounts(ctx context.Context, interval time.Duration) error {
	if _, err := w.getIdentity(); err != nil {
		return api.WrapError(BackendName, "watchAccounts", err)
	}
	if interval <= 0 {
		interval = w.cfg.PollInterval
	}
	if !w.watching.CompareAndSwap(false, true) {
		return nil
	}

	go func() {
		defer w.watching.Store(false)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.pollAccounts(ctx)
			}
		}
	}()

	return nil
}

func (w *Wallet) pollAccounts(ctx context.Context) {
	var accounts []string
	if err := w.client.call(ctx, methodGetAccounts, nil, &accounts); err != nil {
		w.logger.Debug("failed to poll the bridge accounts", zap.Error(err))
		return
	}

	current := ""
	if len(accounts) > 0 {
		current = accounts[0]
	}

	w.mu.Lock()
	changed := w.identity != nil && w.identity.Address != current
	if changed {
		// the key of the new account is unknown until the next connect
		w.identity = nil
	}
	w.mu.Unlock()

	if changed {
		w.logger.Info("the wallet account changed", zap.String("address", current))
		w.emit(nativeAccountsChanged)
	}
}
