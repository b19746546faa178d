package stakingtx

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/wallet/txauthor"
	"github.com/btcsuite/btcwallet/wallet/txrules"

	"github.com/babylonchain/btc-staking-signer/types"
)

const (
	// StakingTxVersion is the version of built staking transactions
	StakingTxVersion = int32(2)

	// StakingOutputIdx is the index of the staking output, which always
	// comes first
	StakingOutputIdx = uint32(0)

	// the sequence of every input, it enables the locktime without opting
	// into replace-by-fee
	stakingInputSequence = wire.MaxTxInSequenceNum - 1

	// unspendableKeyPathKeyHex is H = lift_x(SHA256(G)) from BIP-341, a point
	// with no known discrete log
	unspendableKeyPathKeyHex = "0250929b74c1a04954b78b4b6035e97a5e078a5a0f28ec96d547bfee9ace803ac0"
)

var unspendableKeyPathKey = mustParsePubKey(unspendableKeyPathKeyHex)

func mustParsePubKey(keyHex string) *btcec.PublicKey {
	keyBytes, err := hex.DecodeString(keyHex)
	if err != nil {
		panic(err)
	}
	key, err := btcec.ParsePubKey(keyBytes)
	if err != nil {
		panic(err)
	}
	return key
}

// UnspendableKeyPathInternalKey is the internal key of taproot staking
// outputs. It disables the key path so the output can only be spent through
// its script leaves.
func UnspendableKeyPathInternalKey() *btcec.PublicKey {
	key := *unspendableKeyPathKey
	return &key
}

// StakingTxRequest is the input of BuildStakingTx.
type StakingTxRequest struct {
	Scripts       *types.StakingScripts
	StakingAmount btcutil.Amount
	ChangeAddress btcutil.Address
	Utxos         []*types.UTXO
	Net           *chaincfg.Params

	// FeeRate is in sat/vbyte
	FeeRate uint64

	// TaprootInternalKey is the internal key of the staker's P2TR inputs.
	// When set the staking output is a taproot commitment to the staking
	// scripts under the unspendable internal key, it is a P2WSH of the
	// timelock script otherwise.
	TaprootInternalKey *btcec.PublicKey

	LockHeight uint32
}

func (r *StakingTxRequest) validate() error {
	if len(r.Utxos) == 0 {
		return ErrNoUtxos
	}
	if r.FeeRate == 0 {
		return ErrInvalidFeeRate
	}
	if r.StakingAmount <= 0 {
		return ErrInvalidAmount
	}
	if r.ChangeAddress == nil {
		return fmt.Errorf("%w: missing change address", types.ErrUnsupportedAddress)
	}
	if r.Net == nil {
		return types.ErrUnsupportedNetwork
	}
	return ValidateScripts(r.Scripts)
}

type coin struct {
	outPoint *wire.OutPoint
	value    btcutil.Amount
	pkScript []byte
}

// BuildStakingTx builds the unsigned staking transaction. The same request
// always yields the same transaction.
func BuildStakingTx(req *StakingTxRequest) (*UnsignedStakingArtifact, error) {
	if req == nil {
		return nil, ErrNoUtxos
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	stakingOutput, tapTree, err := buildStakingOutput(req.Scripts, req.StakingAmount, req.TaprootInternalKey != nil, req.Net)
	if err != nil {
		return nil, err
	}
	if txrules.IsDustOutput(stakingOutput, txrules.DefaultRelayFeePerKb) {
		return nil, fmt.Errorf("%w: %v", ErrDustStakingOutput, req.StakingAmount)
	}

	outputs := []*wire.TxOut{stakingOutput}
	if len(req.Scripts.DataEmbedScript) > 0 {
		outputs = append(outputs, wire.NewTxOut(0, req.Scripts.DataEmbedScript))
	}

	coins, err := sortedCoins(req.Utxos)
	if err != nil {
		return nil, err
	}

	changeScript, err := txscript.PayToAddrScript(req.ChangeAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrUnsupportedAddress, err)
	}
	changeSource := &txauthor.ChangeSource{
		NewScript: func() ([]byte, error) {
			return changeScript, nil
		},
		ScriptSize: len(changeScript),
	}

	feeRatePerKb := btcutil.Amount(req.FeeRate * 1000)
	authoredTx, err := txauthor.NewUnsignedTransaction(outputs, feeRatePerKb, makeInputSource(coins), changeSource)
	if err != nil {
		var inputSourceErr txauthor.InputSourceError
		if errors.As(err, &inputSourceErr) {
			return nil, fmt.Errorf("%w: %v", ErrInsufficientFunds, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}

	tx := authoredTx.Tx
	tx.Version = StakingTxVersion
	tx.LockTime = req.LockHeight
	for _, in := range tx.TxIn {
		in.Sequence = stakingInputSequence
	}

	packet, err := psbt.NewFromUnsignedTx(tx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}

	for i := range packet.Inputs {
		prevScript := authoredTx.PrevScripts[i]
		packet.Inputs[i].WitnessUtxo = wire.NewTxOut(int64(authoredTx.PrevInputValues[i]), prevScript)
		if req.TaprootInternalKey != nil && txscript.IsPayToTaproot(prevScript) {
			packet.Inputs[i].TaprootInternalKey = schnorr.SerializePubKey(req.TaprootInternalKey)
		}
	}

	if tapTree != nil {
		var encodedTree bytes.Buffer
		if err := encodeTapTree(tapTree.RootNode, 0, &encodedTree); err != nil {
			return nil, err
		}
		packet.Outputs[StakingOutputIdx].TaprootInternalKey = schnorr.SerializePubKey(unspendableKeyPathKey)
		packet.Outputs[StakingOutputIdx].TaprootTapTree = encodedTree.Bytes()
	} else {
		packet.Outputs[StakingOutputIdx].WitnessScript = req.Scripts.TimelockScript
	}

	var totalOut btcutil.Amount
	for _, out := range tx.TxOut {
		totalOut += btcutil.Amount(out.Value)
	}

	return newArtifact(packet, authoredTx.TotalInput-totalOut, authoredTx.ChangeIndex)
}

// buildStakingOutput commits to the staking scripts either through a taproot
// script tree or through a P2WSH of the timelock script. The tree is only
// returned for taproot outputs.
func buildStakingOutput(
	scripts *types.StakingScripts,
	amount btcutil.Amount,
	taproot bool,
	net *chaincfg.Params,
) (*wire.TxOut, *txscript.IndexedTapScriptTree, error) {
	if taproot {
		tree := StakingScriptTree(scripts)
		rootHash := tree.RootNode.TapHash()
		outputKey := txscript.ComputeTaprootOutputKey(unspendableKeyPathKey, rootHash[:])
		pkScript, err := txscript.PayToTaprootScript(outputKey)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
		}
		if len(scripts.StakingPkScript) > 0 && !bytes.Equal(pkScript, scripts.StakingPkScript) {
			return nil, nil, fmt.Errorf("%w: the script tree does not match the staking output script", ErrInvalidScript)
		}
		return wire.NewTxOut(int64(amount), pkScript), tree, nil
	}

	witnessProg := chainhash.HashB(scripts.TimelockScript)
	addr, err := btcutil.NewAddressWitnessScriptHash(witnessProg, net)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	pkScript, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	return wire.NewTxOut(int64(amount), pkScript), nil, nil
}

// StakingScriptTree assembles the timelock, unbonding and slashing leaves in
// that order.
func StakingScriptTree(scripts *types.StakingScripts) *txscript.IndexedTapScriptTree {
	return txscript.AssembleTaprootScriptTree(
		txscript.NewBaseTapLeaf(scripts.TimelockScript),
		txscript.NewBaseTapLeaf(scripts.UnbondingScript),
		txscript.NewBaseTapLeaf(scripts.SlashingScript),
	)
}

// encodeTapTree writes the leaves of the tree depth first as
// depth || leaf version || script, the PSBT_OUT_TAP_TREE format.
func encodeTapTree(node txscript.TapNode, depth uint8, w *bytes.Buffer) error {
	switch n := node.(type) {
	case txscript.TapLeaf:
		w.WriteByte(depth)
		w.WriteByte(byte(n.LeafVersion))
		if err := wire.WriteVarBytes(w, 0, n.Script); err != nil {
			return fmt.Errorf("%w: %v", ErrEncoding, err)
		}
		return nil
	case txscript.TapBranch:
		if err := encodeTapTree(n.Left(), depth+1, w); err != nil {
			return err
		}
		return encodeTapTree(n.Right(), depth+1, w)
	default:
		return fmt.Errorf("%w: unexpected tap node %T", ErrEncoding, node)
	}
}

// sortedCoins orders the UTXOs largest first, ties are broken by outpoint.
func sortedCoins(utxos []*types.UTXO) ([]coin, error) {
	coins := make([]coin, 0, len(utxos))
	for _, u := range utxos {
		if u == nil || u.Value <= 0 {
			return nil, types.ErrInvalidUtxo
		}
		op, err := u.OutPoint()
		if err != nil {
			return nil, err
		}
		pkScript, err := u.PkScript()
		if err != nil {
			return nil, err
		}
		coins = append(coins, coin{outPoint: op, value: u.Value, pkScript: pkScript})
	}

	sort.SliceStable(coins, func(i, j int) bool {
		if coins[i].value != coins[j].value {
			return coins[i].value > coins[j].value
		}
		if coins[i].outPoint.Hash != coins[j].outPoint.Hash {
			return coins[i].outPoint.Hash.String() < coins[j].outPoint.Hash.String()
		}
		return coins[i].outPoint.Index < coins[j].outPoint.Index
	})

	return coins, nil
}

// makeInputSource returns an input source that takes coins in order until
// the target is reached. It may be called several times with a growing
// target while the fee is being estimated.
func makeInputSource(coins []coin) txauthor.InputSource {
	return func(target btcutil.Amount) (btcutil.Amount, []*wire.TxIn, []btcutil.Amount, [][]byte, error) {
		var (
			total       btcutil.Amount
			inputs      []*wire.TxIn
			inputValues []btcutil.Amount
			scripts     [][]byte
		)
		for _, c := range coins {
			if total >= target {
				break
			}
			outPoint := *c.outPoint
			inputs = append(inputs, wire.NewTxIn(&outPoint, nil, nil))
			inputValues = append(inputValues, c.value)
			scripts = append(scripts, c.pkScript)
			total += c.value
		}
		return total, inputs, inputValues, scripts, nil
	}
}
