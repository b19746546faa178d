package types

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// AddressKind tags the script type of the staker address.
type AddressKind int

const (
	AddressLegacy AddressKind = iota
	AddressNestedSegwit
	AddressNativeSegwit
	AddressTaproot
)

func (k AddressKind) String() string {
	switch k {
	case AddressLegacy:
		return "legacy"
	case AddressNestedSegwit:
		return "nested-segwit"
	case AddressNativeSegwit:
		return "native-segwit"
	case AddressTaproot:
		return "taproot"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// StakerKey is the staker address and key pair. Its kind is resolved once
// when a pipeline starts and decides whether a taproot internal key is used.
type StakerKey struct {
	Address btcutil.Address
	PubKey  *btcec.PublicKey
	Kind    AddressKind
}

// ResolveStakerKey decodes the staker address for the given network and
// parses the staker public key.
func ResolveStakerKey(address, pubKeyHex string, net *chaincfg.Params) (*StakerKey, error) {
	addr, err := btcutil.DecodeAddress(address, net)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnsupportedAddress, address, err)
	}
	if !addr.IsForNet(net) {
		return nil, fmt.Errorf("%w: %s is not an address of %s", ErrUnsupportedAddress, address, net.Name)
	}

	var kind AddressKind
	switch addr.(type) {
	case *btcutil.AddressTaproot:
		kind = AddressTaproot
	case *btcutil.AddressWitnessPubKeyHash:
		kind = AddressNativeSegwit
	case *btcutil.AddressScriptHash:
		kind = AddressNestedSegwit
	case *btcutil.AddressPubKeyHash:
		kind = AddressLegacy
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAddress, address)
	}

	pk, err := ParsePubKeyHex(pubKeyHex)
	if err != nil {
		return nil, err
	}

	return &StakerKey{
		Address: addr,
		PubKey:  pk,
		Kind:    kind,
	}, nil
}

func (k *StakerKey) IsTaproot() bool {
	return k.Kind == AddressTaproot
}

// TaprootInternalKey returns the internal key of the staker's P2TR inputs
// when the address is a taproot one, nil otherwise. It never becomes the
// internal key of the staking output.
func (k *StakerKey) TaprootInternalKey() *btcec.PublicKey {
	if !k.IsTaproot() {
		return nil
	}
	return k.PubKey
}

// XOnlyPubKey is the BIP-340 encoding of the staker key.
func (k *StakerKey) XOnlyPubKey() []byte {
	return schnorr.SerializePubKey(k.PubKey)
}
