package api

import (
	"context"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/babylonchain/btc-staking-signer/types"
)

// EventAccountChanged is emitted when the account selected in the wallet
// changes. Backends map it to their native event name.
const EventAccountChanged = "accountChanged"

// SignatureType selects the message signing scheme.
type SignatureType string

const (
	SignatureTypeECDSA  SignatureType = "ecdsa"
	SignatureTypeBIP322 SignatureType = "bip322-simple"
)

// WalletProvider is a wallet backend holding the staker key. A provider is a
// single-tenant session: it is connected once and serves one user.
type WalletProvider interface {
	// Connect establishes the session and caches the wallet identity.
	Connect(ctx context.Context) (*types.WalletIdentity, error)

	Name() string

	// GetAddress and GetPublicKeyHex return the cached identity and fail
	// with ErrNotConnected before Connect.
	GetAddress() (string, error)
	GetPublicKeyHex() (string, error)

	GetNetwork(ctx context.Context) (types.Network, error)

	// GetUtxos returns the spendable UTXOs of the address. minTotal is a
	// hint that backends may ignore.
	GetUtxos(ctx context.Context, address string, minTotal *btcutil.Amount) ([]*types.UTXO, error)

	GetNetworkFees(ctx context.Context) (*types.FeeEstimate, error)
	GetBalance(ctx context.Context) (btcutil.Amount, error)

	// SignPsbt adds the signatures of the inputs owned by the wallet to the
	// hex encoded PSBT and returns it hex encoded. It never broadcasts.
	SignPsbt(ctx context.Context, psbtHex string) (string, error)
	SignPsbts(ctx context.Context, psbtsHexes []string) ([]string, error)

	SignMessage(ctx context.Context, message string, sigType SignatureType) (string, error)

	PushTx(ctx context.Context, txHex string) (string, error)
	GetBTCTipHeight(ctx context.Context) (uint64, error)

	// Subscribe registers a callback for a wallet event and returns a
	// function removing it.
	Subscribe(eventName string, callback func()) (func(), error)
}
