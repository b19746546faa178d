package stakingtx_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/babylonchain/babylon/btcstaking"
	"github.com/babylonchain/babylon/testutil/datagen"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/require"

	"github.com/babylonchain/btc-staking-signer/stakingtx"
	"github.com/babylonchain/btc-staking-signer/testutil"
	"github.com/babylonchain/btc-staking-signer/types"
)

func FuzzBabylonScriptBuilder(f *testing.F) {
	testutil.AddRandomSeedsToFuzzer(f, 10)
	f.Fuzz(func(t *testing.T, seed int64) {
		r := rand.New(rand.NewSource(seed))
		params := testutil.GenRandomGlobalParams(r, t)
		fp := testutil.GenRandomFinalityProvider(r, t)
		_, stakerPk, err := datagen.GenRandomBTCKeyPair(r)
		require.NoError(t, err)
		term := testutil.GenRandomTerm(r, params)

		build := stakingtx.NewBabylonScriptBuilder(testNet)
		scripts, err := build(fp.BtcPk, term, params, types.PubKeyToXOnlyHex(stakerPk))
		require.NoError(t, err)
		require.NoError(t, stakingtx.ValidateScripts(scripts))

		// deterministic
		again, err := build(fp.BtcPk, term, params, types.PubKeyToXOnlyHex(stakerPk))
		require.NoError(t, err)
		require.Equal(t, scripts, again)

		// the taproot output script matches the Babylon staking output
		fpPk, err := types.ParsePubKeyHex(fp.BtcPk)
		require.NoError(t, err)
		covenantPks, err := params.CovenantPubKeys()
		require.NoError(t, err)
		stakingInfo, err := btcstaking.BuildStakingInfo(
			stakerPk,
			[]*btcec.PublicKey{fpPk},
			covenantPks,
			params.CovenantQuorum,
			uint16(term),
			params.MinStakingAmountSat,
			testNet,
		)
		require.NoError(t, err)
		require.Equal(t, stakingInfo.StakingOutput.PkScript, scripts.StakingPkScript)

		// the data output carries the tag, the keys and the term
		pushes, err := txscript.PushedData(scripts.DataEmbedScript)
		require.NoError(t, err)
		require.Len(t, pushes, 1)
		payload := pushes[0]
		tag, err := params.TagBytes()
		require.NoError(t, err)
		require.Equal(t, tag, payload[:4])
		require.Equal(t, byte(0), payload[4])
		require.Equal(t, schnorr.SerializePubKey(stakerPk), payload[5:37])
		require.Equal(t, fp.BtcPk, types.PubKeyToXOnlyHex(mustParse(t, payload[37:69])))
		require.Equal(t, uint16(term), uint16(payload[69])<<8|uint16(payload[70]))
	})
}

func TestBabylonScriptBuilderErrors(t *testing.T) {
	r := rand.New(rand.NewSource(20))
	params := testutil.GenRandomGlobalParams(r, t)
	fp := testutil.GenRandomFinalityProvider(r, t)
	_, stakerPk, err := datagen.GenRandomBTCKeyPair(r)
	require.NoError(t, err)
	stakerHex := types.PubKeyToXOnlyHex(stakerPk)

	build := stakingtx.NewBabylonScriptBuilder(testNet)

	_, err = build(fp.BtcPk, 100, nil, stakerHex)
	require.ErrorIs(t, err, types.ErrInvalidParams)

	_, err = build(fp.BtcPk, math.MaxUint16+1, params, stakerHex)
	require.Error(t, err)

	_, err = build("beef", 100, params, stakerHex)
	require.Error(t, err)

	_, err = build(fp.BtcPk, 100, params, "")
	require.Error(t, err)

	// without a tag no data output is derived
	params.Tag = ""
	scripts, err := build(fp.BtcPk, 100, params, stakerHex)
	require.NoError(t, err)
	require.Nil(t, scripts.DataEmbedScript)
}

func mustParse(t *testing.T, xOnly []byte) *btcec.PublicKey {
	pk, err := schnorr.ParsePubKey(xOnly)
	require.NoError(t, err)
	return pk
}
