package testutil

import (
	"encoding/hex"
	"math/rand"
	"testing"
	"time"

	"github.com/babylonchain/babylon/testutil/datagen"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/require"

	"github.com/babylonchain/btc-staking-signer/types"
)

func GenRandomByteArray(r *rand.Rand, length uint64) []byte {
	newHeaderBytes := make([]byte, length)
	r.Read(newHeaderBytes)
	return newHeaderBytes
}

func GenRandomHexStr(r *rand.Rand, length uint64) string {
	randBytes := GenRandomByteArray(r, length)
	return hex.EncodeToString(randBytes)
}

func AddRandomSeedsToFuzzer(f *testing.F, num uint) {
	// Seed based on the current time
	r := rand.New(rand.NewSource(time.Now().Unix()))
	var idx uint
	for idx = 0; idx < num; idx++ {
		f.Add(r.Int63())
	}
}

// GenRandomGlobalParams generates a valid params version with a committee of
// three covenants and a quorum of two.
func GenRandomGlobalParams(r *rand.Rand, t *testing.T) *types.GlobalParams {
	covenantPks := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		_, pk, err := datagen.GenRandomBTCKeyPair(r)
		require.NoError(t, err)
		covenantPks = append(covenantPks, types.PubKeyToXOnlyHex(pk))
	}

	minAmount := btcutil.Amount(r.Int63n(10000) + 10000)
	minTime := uint64(r.Int63n(100) + 10)

	params := &types.GlobalParams{
		Version:              uint64(r.Int63n(10)),
		ActivationHeight:     uint64(r.Int63n(100000) + 1),
		Tag:                  GenRandomHexStr(r, 4),
		CovenantPks:          covenantPks,
		CovenantQuorum:       2,
		UnbondingTime:        uint64(r.Int63n(100) + 10),
		UnbondingFeeSat:      btcutil.Amount(r.Int63n(1000) + 1000),
		MinStakingAmountSat:  minAmount,
		MaxStakingAmountSat:  minAmount * 100,
		MinStakingTimeBlocks: minTime,
		MaxStakingTimeBlocks: minTime + uint64(r.Int63n(10000)),
		ConfirmationDepth:    10,
	}
	require.NoError(t, params.Validate())

	return params
}

func GenRandomFinalityProvider(r *rand.Rand, t *testing.T) *types.FinalityProvider {
	_, pk, err := datagen.GenRandomBTCKeyPair(r)
	require.NoError(t, err)

	return &types.FinalityProvider{
		BtcPk:       types.PubKeyToXOnlyHex(pk),
		Description: "fp-" + GenRandomHexStr(r, 4),
	}
}

// GenRandomStakerKey generates a staker key pair with an address of the
// given kind.
func GenRandomStakerKey(r *rand.Rand, t *testing.T, kind types.AddressKind, net *chaincfg.Params) (*btcec.PrivateKey, *types.StakerKey) {
	sk, pk, err := datagen.GenRandomBTCKeyPair(r)
	require.NoError(t, err)

	var addr btcutil.Address
	switch kind {
	case types.AddressTaproot:
		addr, err = btcutil.NewAddressTaproot(txscript.ComputeTaprootKeyNoScript(pk).SerializeCompressed()[1:], net)
	case types.AddressNativeSegwit:
		addr, err = btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160(pk.SerializeCompressed()), net)
	case types.AddressNestedSegwit:
		var witnessAddr *btcutil.AddressWitnessPubKeyHash
		witnessAddr, err = btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160(pk.SerializeCompressed()), net)
		require.NoError(t, err)
		var redeemScript []byte
		redeemScript, err = txscript.PayToAddrScript(witnessAddr)
		require.NoError(t, err)
		addr, err = btcutil.NewAddressScriptHash(redeemScript, net)
	default:
		addr, err = btcutil.NewAddressPubKeyHash(btcutil.Hash160(pk.SerializeCompressed()), net)
	}
	require.NoError(t, err)

	return sk, &types.StakerKey{
		Address: addr,
		PubKey:  pk,
		Kind:    kind,
	}
}

// GenRandomUtxos generates num UTXOs paying to addr, each worth at least
// minValue.
func GenRandomUtxos(r *rand.Rand, t *testing.T, addr btcutil.Address, num int, minValue btcutil.Amount) []*types.UTXO {
	pkScript, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)

	utxos := make([]*types.UTXO, 0, num)
	for i := 0; i < num; i++ {
		txHash, err := chainhash.NewHash(GenRandomByteArray(r, chainhash.HashSize))
		require.NoError(t, err)
		utxos = append(utxos, &types.UTXO{
			TxID:         txHash.String(),
			Vout:         uint32(r.Intn(4)),
			Value:        minValue + btcutil.Amount(r.Int63n(100000)),
			ScriptPubKey: hex.EncodeToString(pkScript),
		})
	}

	return utxos
}

// GenRandomTerm picks a staking term within the bounds of the params.
func GenRandomTerm(r *rand.Rand, params *types.GlobalParams) uint64 {
	return params.MinStakingTimeBlocks +
		uint64(r.Int63n(int64(params.MaxStakingTimeBlocks-params.MinStakingTimeBlocks+1)))
}

// GenRandomAmount picks a staking amount within the bounds of the params.
func GenRandomAmount(r *rand.Rand, params *types.GlobalParams) btcutil.Amount {
	return params.MinStakingAmountSat +
		btcutil.Amount(r.Int63n(int64(params.MaxStakingAmountSat-params.MinStakingAmountSat+1)))
}
