package stakingtx

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/mempool"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/wallet/txsizes"
	"go.uber.org/atomic"
)

// UnsignedStakingArtifact is an unsigned staking transaction wrapped in a
// PSBT. It is handed out for signing at most once.
type UnsignedStakingArtifact struct {
	Packet *psbt.Packet
	TxHash chainhash.Hash

	// VirtualSize is the size of the unsigned transaction
	VirtualSize int64
	// EstimatedSignedVSize is the worst case size once every input is signed
	EstimatedSignedVSize int64

	Version int32
	Fee     btcutil.Amount

	StakingOutputIdx uint32
	// ChangeOutputIdx is -1 when no change output exists or it is unknown
	ChangeOutputIdx int

	consumed *atomic.Bool
}

func newArtifact(packet *psbt.Packet, fee btcutil.Amount, changeIdx int) (*UnsignedStakingArtifact, error) {
	tx := packet.UnsignedTx

	var p2pkh, p2tr, p2wpkh, nested int
	for _, in := range packet.Inputs {
		if in.WitnessUtxo == nil {
			p2pkh++
			continue
		}
		switch pkScript := in.WitnessUtxo.PkScript; {
		case txscript.IsPayToTaproot(pkScript):
			p2tr++
		case txscript.IsPayToWitnessPubKeyHash(pkScript):
			p2wpkh++
		case txscript.IsPayToScriptHash(pkScript):
			nested++
		default:
			p2pkh++
		}
	}

	return &UnsignedStakingArtifact{
		Packet:               packet,
		TxHash:               tx.TxHash(),
		VirtualSize:          mempool.GetTxVirtualSize(btcutil.NewTx(tx)),
		EstimatedSignedVSize: int64(txsizes.EstimateVirtualSize(p2pkh, p2tr, p2wpkh, nested, tx.TxOut, 0)),
		Version:              tx.Version,
		Fee:                  fee,
		StakingOutputIdx:     StakingOutputIdx,
		ChangeOutputIdx:      changeIdx,
		consumed:             atomic.NewBool(false),
	}, nil
}

// UnsignedTx returns the transaction carried by the PSBT.
func (a *UnsignedStakingArtifact) UnsignedTx() *wire.MsgTx {
	return a.Packet.UnsignedTx
}

func (a *UnsignedStakingArtifact) StakingOutput() *wire.TxOut {
	return a.Packet.UnsignedTx.TxOut[a.StakingOutputIdx]
}

// ToHex serializes the PSBT as hex, the encoding wallet bridges sign.
func (a *UnsignedStakingArtifact) ToHex() (string, error) {
	var buf bytes.Buffer
	if err := a.Packet.Serialize(&buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

func (a *UnsignedStakingArtifact) ToBase64() (string, error) {
	encoded, err := a.Packet.B64Encode()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return encoded, nil
}

// Verify checks that the transaction still hashes to the txid recorded at
// construction.
func (a *UnsignedStakingArtifact) Verify() error {
	if a.Packet == nil || a.Packet.UnsignedTx == nil {
		return ErrArtifactMutated
	}
	if got := a.Packet.UnsignedTx.TxHash(); got != a.TxHash {
		return fmt.Errorf("%w: expected txid %s, got %s", ErrArtifactMutated, a.TxHash, got)
	}
	return nil
}

// Consume marks the artifact as handed out for signing. Only the first call
// succeeds.
func (a *UnsignedStakingArtifact) Consume() error {
	if err := a.Verify(); err != nil {
		return err
	}
	if !a.consumed.CompareAndSwap(false, true) {
		return ErrArtifactConsumed
	}
	return nil
}

func (a *UnsignedStakingArtifact) IsConsumed() bool {
	return a.consumed.Load()
}

// DecodeArtifactHex parses a hex encoded PSBT into a fresh artifact.
func DecodeArtifactHex(psbtHex string) (*UnsignedStakingArtifact, error) {
	raw, err := hex.DecodeString(psbtHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return decodeArtifact(raw, false)
}

// DecodeArtifactBase64 parses a base64 encoded PSBT into a fresh artifact.
func DecodeArtifactBase64(psbtB64 string) (*UnsignedStakingArtifact, error) {
	return decodeArtifact([]byte(psbtB64), true)
}

func decodeArtifact(raw []byte, b64 bool) (*UnsignedStakingArtifact, error) {
	packet, err := psbt.NewFromRawBytes(bytes.NewReader(raw), b64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	if len(packet.UnsignedTx.TxOut) == 0 {
		return nil, fmt.Errorf("%w: the transaction has no staking output", ErrEncoding)
	}

	// the fee is only known when every input carries its previous output
	var fee btcutil.Amount
	for _, in := range packet.Inputs {
		if in.WitnessUtxo == nil {
			fee = 0
			break
		}
		fee += btcutil.Amount(in.WitnessUtxo.Value)
	}
	if fee > 0 {
		for _, out := range packet.UnsignedTx.TxOut {
			fee -= btcutil.Amount(out.Value)
		}
	}

	return newArtifact(packet, fee, -1)
}
