package localwallet

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/babylonchain/btc-staking-signer/indexer"
	"github.com/babylonchain/btc-staking-signer/types"
	"github.com/babylonchain/btc-staking-signer/wallet/api"
)

const (
	BackendName = "local"

	messageSignatureHeader = "Bitcoin Signed Message:\n"
)

var _ api.WalletProvider = (*Wallet)(nil)

// Wallet is a WalletProvider holding a single private key in memory.
type Wallet struct {
	privKey  *btcec.PrivateKey
	address  btcutil.Address
	pkScript []byte
	kind     types.AddressKind
	net      *chaincfg.Params

	dataSource indexer.NetworkDataSource
	logger     *zap.Logger

	connected *atomic.Bool
	signMu    sync.Mutex
}

func New(cfg *Config, net *chaincfg.Params, dataSource indexer.NetworkDataSource, logger *zap.Logger) (*Wallet, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	wif, err := btcutil.DecodeWIF(cfg.WIF)
	if err != nil {
		return nil, err
	}
	if !wif.IsForNet(net) {
		return nil, fmt.Errorf("the private key is not for %s", net.Name)
	}

	return newWallet(wif.PrivKey, cfg.AddressType, net, dataSource, logger)
}

// NewFromPrivateKey creates a wallet from a raw key.
func NewFromPrivateKey(privKey *btcec.PrivateKey, addressType string, net *chaincfg.Params,
	dataSource indexer.NetworkDataSource, logger *zap.Logger) (*Wallet, error) {
	return newWallet(privKey, addressType, net, dataSource, logger)
}

func newWallet(privKey *btcec.PrivateKey, addressType string, net *chaincfg.Params,
	dataSource indexer.NetworkDataSource, logger *zap.Logger) (*Wallet, error) {
	var (
		addr btcutil.Address
		kind types.AddressKind
		err  error
	)
	pk := privKey.PubKey()
	switch addressType {
	case AddressTypeTaproot:
		kind = types.AddressTaproot
		tapKey := txscript.ComputeTaprootKeyNoScript(pk)
		addr, err = btcutil.NewAddressTaproot(tapKey.SerializeCompressed()[1:], net)
	case AddressTypeNativeSegwit:
		kind = types.AddressNativeSegwit
		addr, err = btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160(pk.SerializeCompressed()), net)
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedAddress, addressType)
	}
	if err != nil {
		return nil, err
	}

	pkScript, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, err
	}

	return &Wallet{
		privKey:    privKey,
		address:    addr,
		pkScript:   pkScript,
		kind:       kind,
		net:        net,
		dataSource: dataSource,
		logger:     logger.With(zap.String("wallet", BackendName)),
		connected:  atomic.NewBool(false),
	}, nil
}

func (w *Wallet) Name() string {
	return "Local Key Wallet"
}

func (w *Wallet) Connect(_ context.Context) (*types.WalletIdentity, error) {
	w.connected.Store(true)
	w.logger.Info("connected to the local wallet",
		zap.String("address", w.address.EncodeAddress()),
		zap.Stringer("kind", w.kind))

	return w.identity(), nil
}

func (w *Wallet) identity() *types.WalletIdentity {
	return &types.WalletIdentity{
		Address:      w.address.EncodeAddress(),
		PublicKeyHex: hex.EncodeToString(w.privKey.PubKey().SerializeCompressed()),
	}
}

func (w *Wallet) checkConnected(op string) error {
	if !w.connected.Load() {
		return api.WrapError(BackendName, op, api.ErrNotConnected)
	}
	return nil
}

func (w *Wallet) GetAddress() (string, error) {
	if err := w.checkConnected("getAddress"); err != nil {
		return "", err
	}
	return w.address.EncodeAddress(), nil
}

func (w *Wallet) GetPublicKeyHex() (string, error) {
	if err := w.checkConnected("getPublicKeyHex"); err != nil {
		return "", err
	}
	return w.identity().PublicKeyHex, nil
}

func (w *Wallet) GetNetwork(_ context.Context) (types.Network, error) {
	network, err := types.NetworkFromParams(w.net)
	if err != nil {
		return "", api.WrapError(BackendName, "getNetwork", err)
	}
	return network, nil
}

func (w *Wallet) GetUtxos(ctx context.Context, address string, minTotal *btcutil.Amount) ([]*types.UTXO, error) {
	utxos, err := w.dataSource.GetUtxos(ctx, address, minTotal)
	if err != nil {
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
	balance, err := w.dataSource.GetAddressBalance(ctx, w.address.EncodeAddress())
	if err != nil {
		return 0, api.WrapError(BackendName, "getBalance", err)
	}
	return balance, nil
}

func (w *Wallet) SignPsbt(_ context.Context, psbtHex string) (string, error) {
	if err := w.checkConnected("signPsbt"); err != nil {
		return "", err
	}

	w.signMu.Lock()
	defer w.signMu.Unlock()

	signed, err := w.signPsbt(psbtHex)
	if err != nil {
		return "", api.WrapError(BackendName, "signPsbt", err)
	}
	return signed, nil
}

func (w *Wallet) SignPsbts(_ context.Context, psbtsHexes []string) ([]string, error) {
	if err := w.checkConnected("signPsbts"); err != nil {
		return nil, err
	}

	w.signMu.Lock()
	defer w.signMu.Unlock()

	signed := make([]string, 0, len(psbtsHexes))
	for _, psbtHex := range psbtsHexes {
		s, err := w.signPsbt(psbtHex)
		if err != nil {
			return nil, api.WrapError(BackendName, "signPsbts", err)
		}
		signed = append(signed, s)
	}
	return signed, nil
}

// signPsbt signs every input spending an output of the wallet address. The
// inputs are not finalized.
func (w *Wallet) signPsbt(psbtHex string) (string, error) {
	raw, err := hex.DecodeString(psbtHex)
	if err != nil {
		return "", fmt.Errorf("invalid PSBT hex: %w", err)
	}
	packet, err := psbt.NewFromRawBytes(bytes.NewReader(raw), false)
	if err != nil {
		return "", fmt.Errorf("invalid PSBT: %w", err)
	}

	tx := packet.UnsignedTx
	prevOutFetcher := txscript.NewMultiPrevOutFetcher(nil)
	for i, in := range packet.Inputs {
		if in.WitnessUtxo == nil {
			return "", fmt.Errorf("input %d has no previous output", i)
		}
		prevOutFetcher.AddPrevOut(tx.TxIn[i].PreviousOutPoint, in.WitnessUtxo)
	}
	sigHashes := txscript.NewTxSigHashes(tx, prevOutFetcher)

	var numSigned int
	for i := range packet.Inputs {
		in := &packet.Inputs[i]
		if !bytes.Equal(in.WitnessUtxo.PkScript, w.pkScript) {
			continue
		}

		switch w.kind {
		case types.AddressTaproot:
			sig, err := txscript.RawTxInTaprootSignature(
				tx, sigHashes, i, in.WitnessUtxo.Value, in.WitnessUtxo.PkScript,
				[]byte{}, txscript.SigHashDefault, w.privKey,
			)
			if err != nil {
				return "", fmt.Errorf("failed to sign input %d: %w", i, err)
			}
			in.TaprootKeySpendSig = sig
		default:
			sig, err := txscript.RawTxInWitnessSignature(
				tx, sigHashes, i, in.WitnessUtxo.Value, in.WitnessUtxo.PkScript,
				txscript.SigHashAll, w.privKey,
			)
			if err != nil {
				return "", fmt.Errorf("failed to sign input %d: %w", i, err)
			}
			in.PartialSigs = append(in.PartialSigs, &psbt.PartialSig{
				PubKey:    w.privKey.PubKey().SerializeCompressed(),
				Signature: sig,
			})
		}
		numSigned++
	}

	if numSigned == 0 {
		return "", fmt.Errorf("%w: no input is owned by %s", api.ErrUnauthorized, w.address.EncodeAddress())
	}

	var buf bytes.Buffer
	if err := packet.Serialize(&buf); err != nil {
		return "", err
	}

	w.logger.Debug("signed PSBT",
		zap.String("tx_hash", tx.TxHash().String()),
		zap.Int("signed_inputs", numSigned))

	return hex.EncodeToString(buf.Bytes()), nil
}

// SignMessage signs the message with the legacy Bitcoin signed message
// scheme and returns the base64 encoded compact signature.
func (w *Wallet) SignMessage(_ context.Context, message string, sigType api.SignatureType) (string, error) {
	if err := w.checkConnected("signMessage"); err != nil {
		return "", err
	}
	if sigType != api.SignatureTypeECDSA {
		return "", api.WrapError(BackendName, "signMessage", fmt.Errorf("%w: %s", api.ErrUnsupported, sigType))
	}

	hash, err := MessageHash(message)
	if err != nil {
		return "", api.WrapError(BackendName, "signMessage", err)
	}
	sig, err := ecdsa.SignCompact(w.privKey, hash, true)
	if err != nil {
		return "", api.WrapError(BackendName, "signMessage", err)
	}

	return base64.StdEncoding.EncodeToString(sig), nil
}

// MessageHash is the double SHA256 of the prefixed message.
func MessageHash(message string) ([]byte, error) {
	var buf bytes.Buffer
	if err := wire.WriteVarString(&buf, 0, messageSignatureHeader); err != nil {
		return nil, err
	}
	if err := wire.WriteVarString(&buf, 0, message); err != nil {
		return nil, err
	}
	return chainhash.DoubleHashB(buf.Bytes()), nil
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

// Subscribe accepts account change listeners. The key of a local wallet never
// changes, so they are never called.
func (w *Wallet) Subscribe(eventName string, _ func()) (func(), error) {
	if eventName != api.EventAccountChanged {
		return nil, api.WrapError(BackendName, "subscribe", fmt.Errorf("%w: event %s", api.ErrUnsupported, eventName))
	}
	return func() {}, nil
}
