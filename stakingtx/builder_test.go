package stakingtx_test

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/babylonchain/btc-staking-signer/stakingtx"
	"github.com/babylonchain/btc-staking-signer/testutil"
	"github.com/babylonchain/btc-staking-signer/types"
)

var testNet = &chaincfg.SigNetParams

type testStakingData struct {
	params  *types.GlobalParams
	sk      *btcec.PrivateKey
	staker  *types.StakerKey
	scripts *types.StakingScripts
	amount  btcutil.Amount
}

func genTestStakingData(r *rand.Rand, t *testing.T, kind types.AddressKind) *testStakingData {
	params := testutil.GenRandomGlobalParams(r, t)
	sk, staker := testutil.GenRandomStakerKey(r, t, kind, testNet)
	fp := testutil.GenRandomFinalityProvider(r, t)

	scripts, err := stakingtx.NewBabylonScriptBuilder(testNet)(
		fp.BtcPk,
		testutil.GenRandomTerm(r, params),
		params,
		types.PubKeyToXOnlyHex(staker.PubKey),
	)
	require.NoError(t, err)

	return &testStakingData{
		params:  params,
		sk:      sk,
		staker:  staker,
		scripts: scripts,
		amount:  testutil.GenRandomAmount(r, params),
	}
}

func (d *testStakingData) request(utxos []*types.UTXO, feeRate uint64) *stakingtx.StakingTxRequest {
	return &stakingtx.StakingTxRequest{
		Scripts:            d.scripts,
		StakingAmount:      d.amount,
		ChangeAddress:      d.staker.Address,
		Utxos:              utxos,
		Net:                testNet,
		FeeRate:            feeRate,
		TaprootInternalKey: d.staker.TaprootInternalKey(),
		LockHeight:         d.params.LockHeight(),
	}
}

// FuzzBuildStakingTxLockTime checks that the locktime is always one below the
// activation height and that every input enables it.
func FuzzBuildStakingTxLockTime(f *testing.F) {
	testutil.AddRandomSeedsToFuzzer(f, 10)
	f.Fuzz(func(t *testing.T, seed int64) {
		r := rand.New(rand.NewSource(seed))
		data := genTestStakingData(r, t, types.AddressTaproot)
		data.params.ActivationHeight = uint64(r.Int63n(1_000_000) + 1)
		utxos := testutil.GenRandomUtxos(r, t, data.staker.Address, r.Intn(5)+1, data.amount+100000)

		artifact, err := stakingtx.BuildStakingTx(data.request(utxos, uint64(r.Int63n(100)+1)))
		require.NoError(t, err)

		tx := artifact.UnsignedTx()
		require.Equal(t, uint32(data.params.ActivationHeight-1), tx.LockTime)
		for _, in := range tx.TxIn {
			require.Equal(t, wire.MaxTxInSequenceNum-1, in.Sequence)
		}
		require.Equal(t, stakingtx.StakingTxVersion, tx.Version)
		require.Equal(t, int64(data.amount), artifact.StakingOutput().Value)
		require.True(t, artifact.Fee > 0)
		require.True(t, artifact.EstimatedSignedVSize >= artifact.VirtualSize)
	})
}

// FuzzBuildStakingTxDeterminism checks that the same request, with the UTXOs
// given in any order, produces the same transaction.
func FuzzBuildStakingTxDeterminism(f *testing.F) {
	testutil.AddRandomSeedsToFuzzer(f, 10)
	f.Fuzz(func(t *testing.T, seed int64) {
		r := rand.New(rand.NewSource(seed))
		data := genTestStakingData(r, t, types.AddressNativeSegwit)
		utxos := testutil.GenRandomUtxos(r, t, data.staker.Address, r.Intn(5)+2, data.amount/2+100000)
		feeRate := uint64(r.Int63n(50) + 1)

		first, err := stakingtx.BuildStakingTx(data.request(utxos, feeRate))
		require.NoError(t, err)

		shuffled := make([]*types.UTXO, len(utxos))
		copy(shuffled, utxos)
		r.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		second, err := stakingtx.BuildStakingTx(data.request(shuffled, feeRate))
		require.NoError(t, err)

		firstHex, err := first.ToHex()
		require.NoError(t, err)
		secondHex, err := second.ToHex()
		require.NoError(t, err)
		require.Equal(t, firstHex, secondHex)
		require.Equal(t, first.TxHash, second.TxHash)
	})
}

func TestArtifactHexRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(10))
	data := genTestStakingData(r, t, types.AddressTaproot)
	utxos := testutil.GenRandomUtxos(r, t, data.staker.Address, 3, data.amount)

	artifact, err := stakingtx.BuildStakingTx(data.request(utxos, 10))
	require.NoError(t, err)

	psbtHex, err := artifact.ToHex()
	require.NoError(t, err)
	decoded, err := stakingtx.DecodeArtifactHex(psbtHex)
	require.NoError(t, err)
	decodedHex, err := decoded.ToHex()
	require.NoError(t, err)

	require.Equal(t, psbtHex, decodedHex)
	require.Equal(t, artifact.TxHash, decoded.TxHash)
	require.Equal(t, artifact.Fee, decoded.Fee)
	require.Equal(t, artifact.VirtualSize, decoded.VirtualSize)

	psbtB64, err := artifact.ToBase64()
	require.NoError(t, err)
	fromB64, err := stakingtx.DecodeArtifactBase64(psbtB64)
	require.NoError(t, err)
	require.Equal(t, artifact.TxHash, fromB64.TxHash)

	_, err = stakingtx.DecodeArtifactHex("zz")
	require.ErrorIs(t, err, stakingtx.ErrEncoding)
}

func TestBuildStakingTxOutputs(t *testing.T) {
	r := rand.New(rand.NewSource(11))

	t.Run("taproot staker commits to the script tree", func(t *testing.T) {
		data := genTestStakingData(r, t, types.AddressTaproot)
		utxos := testutil.GenRandomUtxos(r, t, data.staker.Address, 1, data.amount+100000)

		artifact, err := stakingtx.BuildStakingTx(data.request(utxos, 5))
		require.NoError(t, err)

		tx := artifact.UnsignedTx()
		require.Len(t, tx.TxOut, 3)
		require.True(t, txscript.IsPayToTaproot(tx.TxOut[0].PkScript))
		require.Equal(t, txscript.NullDataTy, txscript.GetScriptClass(tx.TxOut[1].PkScript))
		require.Equal(t, int64(0), tx.TxOut[1].Value)
		require.Equal(t, 2, artifact.ChangeOutputIdx)

		// the staking output is the Babylon one, the staker key only shows up
		// on the inputs it funds
		require.Equal(t, data.scripts.StakingPkScript, tx.TxOut[0].PkScript)
		unspendable := schnorr.SerializePubKey(stakingtx.UnspendableKeyPathInternalKey())
		require.Equal(t, unspendable, artifact.Packet.Outputs[0].TaprootInternalKey)
		require.NotEqual(t, data.staker.XOnlyPubKey(), artifact.Packet.Outputs[0].TaprootInternalKey)
		require.Equal(t, data.staker.XOnlyPubKey(), artifact.Packet.Inputs[0].TaprootInternalKey)
		require.NotNil(t, artifact.Packet.Inputs[0].WitnessUtxo)

		depths, leaves := decodeTapTree(t, artifact.Packet.Outputs[0].TaprootTapTree)
		require.Equal(t, []byte{2, 2, 1}, depths)
		require.Equal(t, [][]byte{
			data.scripts.TimelockScript,
			data.scripts.UnbondingScript,
			data.scripts.SlashingScript,
		}, leaves)
	})

	t.Run("scripts not matching the staking output script", func(t *testing.T) {
		data := genTestStakingData(r, t, types.AddressTaproot)
		data.scripts.StakingPkScript = append([]byte(nil), data.scripts.StakingPkScript...)
		data.scripts.StakingPkScript[len(data.scripts.StakingPkScript)-1] ^= 0x01
		utxos := testutil.GenRandomUtxos(r, t, data.staker.Address, 1, data.amount+100000)

		_, err := stakingtx.BuildStakingTx(data.request(utxos, 5))
		require.ErrorIs(t, err, stakingtx.ErrInvalidScript)
	})

	t.Run("non-taproot staker commits to the timelock script", func(t *testing.T) {
		data := genTestStakingData(r, t, types.AddressNativeSegwit)
		utxos := testutil.GenRandomUtxos(r, t, data.staker.Address, 1, data.amount+100000)

		artifact, err := stakingtx.BuildStakingTx(data.request(utxos, 5))
		require.NoError(t, err)

		stakingOut := artifact.StakingOutput()
		require.Equal(t, txscript.WitnessV0ScriptHashTy, txscript.GetScriptClass(stakingOut.PkScript))
		require.Equal(t, data.scripts.TimelockScript, artifact.Packet.Outputs[0].WitnessScript)
		require.Nil(t, artifact.Packet.Inputs[0].TaprootInternalKey)
		require.Nil(t, artifact.Packet.Outputs[0].TaprootTapTree)
	})

	t.Run("no data output without a tag", func(t *testing.T) {
		data := genTestStakingData(r, t, types.AddressTaproot)
		data.scripts.DataEmbedScript = nil
		utxos := testutil.GenRandomUtxos(r, t, data.staker.Address, 1, data.amount+100000)

		artifact, err := stakingtx.BuildStakingTx(data.request(utxos, 5))
		require.NoError(t, err)
		require.Len(t, artifact.UnsignedTx().TxOut, 2)
		require.Equal(t, 1, artifact.ChangeOutputIdx)
	})
}

// TestStakingOutputNoKeyPathSpend checks that the staker key cannot spend the
// staking output through the taproot key path, which would bypass the
// timelock and the slashing conditions.
func TestStakingOutputNoKeyPathSpend(t *testing.T) {
	r := rand.New(rand.NewSource(13))
	data := genTestStakingData(r, t, types.AddressTaproot)
	utxos := testutil.GenRandomUtxos(r, t, data.staker.Address, 1, data.amount+100000)

	artifact, err := stakingtx.BuildStakingTx(data.request(utxos, 5))
	require.NoError(t, err)
	stakingOut := artifact.StakingOutput()
	rootHash := stakingtx.StakingScriptTree(data.scripts).RootNode.TapHash()
	payoutScript, err := txscript.PayToAddrScript(data.staker.Address)
	require.NoError(t, err)

	keyPathSpend := func(prevOut *wire.TxOut) error {
		spendTx := wire.NewMsgTx(2)
		spendTx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&artifact.TxHash, stakingtx.StakingOutputIdx), nil, nil))
		spendTx.AddTxOut(wire.NewTxOut(prevOut.Value-1000, payoutScript))

		fetcher := txscript.NewCannedPrevOutputFetcher(prevOut.PkScript, prevOut.Value)
		sigHashes := txscript.NewTxSigHashes(spendTx, fetcher)
		sig, err := txscript.RawTxInTaprootSignature(
			spendTx, sigHashes, 0, prevOut.Value, prevOut.PkScript,
			rootHash[:], txscript.SigHashDefault, data.sk,
		)
		require.NoError(t, err)
		spendTx.TxIn[0].Witness = wire.TxWitness{sig}

		vm, err := txscript.NewEngine(
			prevOut.PkScript, spendTx, 0, txscript.StandardVerifyFlags,
			nil, sigHashes, prevOut.Value, fetcher,
		)
		require.NoError(t, err)
		return vm.Execute()
	}

	// the same tree under the staker key is spendable, so the spend itself
	// is well formed
	stakerOutputKey := txscript.ComputeTaprootOutputKey(data.staker.PubKey, rootHash[:])
	stakerPkScript, err := txscript.PayToTaprootScript(stakerOutputKey)
	require.NoError(t, err)
	require.NoError(t, keyPathSpend(wire.NewTxOut(stakingOut.Value, stakerPkScript)))

	require.Error(t, keyPathSpend(stakingOut))
}

func TestBuildStakingTxDustChange(t *testing.T) {
	r := rand.New(rand.NewSource(12))
	data := genTestStakingData(r, t, types.AddressTaproot)
	utxos := testutil.GenRandomUtxos(r, t, data.staker.Address, 1, data.amount+100000)

	withChange, err := stakingtx.BuildStakingTx(data.request(utxos, 2))
	require.NoError(t, err)
	require.NotEqual(t, -1, withChange.ChangeOutputIdx)

	// leave a change of 100 sat, which is dust
	utxos[0].Value = data.amount + withChange.Fee + 100
	noChange, err := stakingtx.BuildStakingTx(data.request(utxos, 2))
	require.NoError(t, err)
	require.Equal(t, -1, noChange.ChangeOutputIdx)
	require.Len(t, noChange.UnsignedTx().TxOut, 2)
	require.Equal(t, withChange.Fee+100, noChange.Fee)
}

func TestBuildStakingTxErrors(t *testing.T) {
	r := rand.New(rand.NewSource(13))
	data := genTestStakingData(r, t, types.AddressTaproot)
	utxos := testutil.GenRandomUtxos(r, t, data.staker.Address, 2, data.amount)

	_, err := stakingtx.BuildStakingTx(data.request(nil, 5))
	require.ErrorIs(t, err, stakingtx.ErrNoUtxos)

	_, err = stakingtx.BuildStakingTx(data.request(utxos, 0))
	require.ErrorIs(t, err, stakingtx.ErrInvalidFeeRate)

	short := testutil.GenRandomUtxos(r, t, data.staker.Address, 1, 1000)
	short[0].Value = data.amount / 2
	_, err = stakingtx.BuildStakingTx(data.request(short, 5))
	require.ErrorIs(t, err, stakingtx.ErrInsufficientFunds)

	badScripts := *data.scripts
	badScripts.UnbondingScript = nil
	req := data.request(utxos, 5)
	req.Scripts = &badScripts
	_, err = stakingtx.BuildStakingTx(req)
	require.ErrorIs(t, err, stakingtx.ErrInvalidScript)

	// OP_PUSHDATA1 without a length
	badScripts = *data.scripts
	badScripts.SlashingScript = []byte{txscript.OP_PUSHDATA1}
	req.Scripts = &badScripts
	_, err = stakingtx.BuildStakingTx(req)
	require.ErrorIs(t, err, stakingtx.ErrInvalidScript)

	malformed := testutil.GenRandomUtxos(r, t, data.staker.Address, 1, data.amount+100000)
	malformed[0].ScriptPubKey = "not-hex"
	_, err = stakingtx.BuildStakingTx(data.request(malformed, 5))
	require.ErrorIs(t, err, types.ErrInvalidUtxo)
}

func TestArtifactSingleUse(t *testing.T) {
	r := rand.New(rand.NewSource(14))
	data := genTestStakingData(r, t, types.AddressTaproot)
	utxos := testutil.GenRandomUtxos(r, t, data.staker.Address, 1, data.amount+100000)

	artifact, err := stakingtx.BuildStakingTx(data.request(utxos, 5))
	require.NoError(t, err)
	require.NoError(t, artifact.Verify())

	require.NoError(t, artifact.Consume())
	require.True(t, artifact.IsConsumed())
	require.ErrorIs(t, artifact.Consume(), stakingtx.ErrArtifactConsumed)

	mutated, err := stakingtx.BuildStakingTx(data.request(utxos, 5))
	require.NoError(t, err)
	mutated.UnsignedTx().TxOut[0].Value++
	require.ErrorIs(t, mutated.Verify(), stakingtx.ErrArtifactMutated)
	require.ErrorIs(t, mutated.Consume(), stakingtx.ErrArtifactMutated)
}

// decodeTapTree reads a PSBT_OUT_TAP_TREE value into the depth and script of
// every leaf.
func decodeTapTree(t *testing.T, encoded []byte) ([]byte, [][]byte) {
	var (
		depths  []byte
		scripts [][]byte
	)
	r := bytes.NewReader(encoded)
	for r.Len() > 0 {
		depth, err := r.ReadByte()
		require.NoError(t, err)
		version, err := r.ReadByte()
		require.NoError(t, err)
		require.Equal(t, byte(txscript.BaseLeafVersion), version)
		script, err := wire.ReadVarBytes(r, 0, uint32(len(encoded)), "script")
		require.NoError(t, err)
		depths = append(depths, depth)
		scripts = append(scripts, script)
	}
	return depths, scripts
}
