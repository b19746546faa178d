package types

import (
	"encoding/hex"
	"fmt"

	bbntypes "github.com/babylonchain/babylon/types"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// ParsePubKeyHex parses a BIP-340 x-only (32 bytes) or a compressed (33 bytes)
// hex encoded public key.
func ParsePubKeyHex(pkHex string) (*btcec.PublicKey, error) {
	switch len(pkHex) {
	case 2 * schnorr.PubKeyBytesLen:
		bip340Pk, err := bbntypes.NewBIP340PubKeyFromHex(pkHex)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
		}
		pk, err := bip340Pk.ToBTCPK()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
		}
		return pk, nil
	case 2 * btcec.PubKeyBytesLenCompressed:
		pkBytes, err := hex.DecodeString(pkHex)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
		}
		pk, err := btcec.ParsePubKey(pkBytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
		}
		return pk, nil
	default:
		return nil, fmt.Errorf("%w: unexpected key length %d", ErrInvalidPublicKey, len(pkHex)/2)
	}
}

// PubKeyToXOnlyHex returns the BIP-340 encoding of the key, i.e., the key
// without its y-coordinate parity byte.
func PubKeyToXOnlyHex(pk *btcec.PublicKey) string {
	return bbntypes.NewBIP340PubKeyFromBTCPK(pk).MarshalHex()
}
