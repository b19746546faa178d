package staker_test

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/babylonchain/babylon/testutil/datagen"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/babylonchain/btc-staking-signer/indexer"
	"github.com/babylonchain/btc-staking-signer/metrics"
	"github.com/babylonchain/btc-staking-signer/staker"
	"github.com/babylonchain/btc-staking-signer/stakingtx"
	"github.com/babylonchain/btc-staking-signer/testutil"
	"github.com/babylonchain/btc-staking-signer/testutil/mocks"
	"github.com/babylonchain/btc-staking-signer/types"
	"github.com/babylonchain/btc-staking-signer/wallet/api"
	"github.com/babylonchain/btc-staking-signer/wallet/localwallet"
)

var testNet = &chaincfg.RegressionNetParams

func newTestSigner(decoder indexer.NetworkDataSource) *staker.StakingSigner {
	return staker.NewStakingSigner(
		testNet,
		stakingtx.NewBabylonScriptBuilder(testNet),
		decoder,
		metrics.NewStakingMetrics(),
		zap.NewNop(),
	)
}

// genTestParams returns params bounding the amount to [1000, 1000000] and the
// term to [100, 10000] blocks, activated at height 500.
func genTestParams(r *rand.Rand, t *testing.T) *types.GlobalParams {
	params := testutil.GenRandomGlobalParams(r, t)
	params.ActivationHeight = 500
	params.MinStakingAmountSat = 1000
	params.MaxStakingAmountSat = 1000000
	params.MinStakingTimeBlocks = 100
	params.MaxStakingTimeBlocks = 10000
	require.NoError(t, params.Validate())
	return params
}

func genTestRequest(r *rand.Rand, t *testing.T, kind types.AddressKind) (*staker.StakingRequest, *types.StakerKey) {
	_, stakerKey := testutil.GenRandomStakerKey(r, t, kind, testNet)
	return &staker.StakingRequest{
		FinalityProvider:   testutil.GenRandomFinalityProvider(r, t),
		StakingAmount:      50000,
		StakingTermBlocks:  200,
		Params:             genTestParams(r, t),
		StakerAddress:      stakerKey.Address.EncodeAddress(),
		StakerPublicKeyHex: hex.EncodeToString(stakerKey.PubKey.SerializeCompressed()),
	}, stakerKey
}

func genUtxos(r *rand.Rand, t *testing.T, stakerKey *types.StakerKey, req *staker.StakingRequest) []*types.UTXO {
	return testutil.GenRandomUtxos(r, t, stakerKey.Address, 2, req.StakingAmount)
}

func requireKind(t *testing.T, err error, kind staker.FailureKind, state staker.State) *staker.PipelineError {
	require.Error(t, err)
	var pipelineErr *staker.PipelineError
	require.ErrorAs(t, err, &pipelineErr)
	require.Equal(t, kind, pipelineErr.Kind, err.Error())
	require.Equal(t, state, pipelineErr.State)
	require.ErrorIs(t, err, kind.Sentinel())
	return pipelineErr
}

func TestInvalidStakingDataMakesNoWalletCall(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	signer := newTestSigner(nil)

	testCases := []struct {
		name   string
		mutate func(req *staker.StakingRequest)
	}{
		{"amount below min", func(req *staker.StakingRequest) { req.StakingAmount = 500 }},
		{"amount above max", func(req *staker.StakingRequest) { req.StakingAmount = 1000001 }},
		{"term below min", func(req *staker.StakingRequest) { req.StakingTermBlocks = 99 }},
		{"term above max", func(req *staker.StakingRequest) { req.StakingTermBlocks = 10001 }},
		{"no finality provider", func(req *staker.StakingRequest) { req.FinalityProvider = nil }},
		{"malformed finality provider key", func(req *staker.StakingRequest) { req.FinalityProvider.BtcPk = "abcd" }},
		{"no params", func(req *staker.StakingRequest) { req.Params = nil }},
		{"address of another network", func(req *staker.StakingRequest) {
			_, other := testutil.GenRandomStakerKey(r, t, types.AddressTaproot, &chaincfg.MainNetParams)
			req.StakerAddress = other.Address.EncodeAddress()
		}},
		{"malformed staker key", func(req *staker.StakingRequest) { req.StakerPublicKeyHex = "00" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// any call on the wallet fails the test
			wp := mocks.NewMockWalletProvider(gomock.NewController(t))
			req, _ := genTestRequest(r, t, types.AddressTaproot)
			tc.mutate(req)

			_, err := signer.SignStakingTransaction(context.Background(), wp, req)
			pipelineErr := requireKind(t, err, staker.InvalidStakingData, staker.StateValidating)
			require.Equal(t, "Invalid staking data", pipelineErr.UserMessage())
			require.False(t, staker.IsRetryable(err))
		})
	}

	_, err := signer.SignStakingTransaction(context.Background(), nil, nil)
	requireKind(t, err, staker.InvalidStakingData, staker.StateValidating)
}

func TestUtxoFailures(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	signer := newTestSigner(nil)
	ctx := context.Background()

	t.Run("no UTXOs", func(t *testing.T) {
		wp := mocks.NewMockWalletProvider(gomock.NewController(t))
		req, _ := genTestRequest(r, t, types.AddressNativeSegwit)
		amount := req.StakingAmount
		wp.EXPECT().GetUtxos(gomock.Any(), req.StakerAddress, &amount).Return([]*types.UTXO{}, nil)

		_, err := signer.SignStakingTransaction(ctx, wp, req)
		pipelineErr := requireKind(t, err, staker.InsufficientBalance, staker.StateFetchingUtxos)
		require.Equal(t, "Not enough usable balance", pipelineErr.UserMessage())
	})

	t.Run("hint ignored by the wallet", func(t *testing.T) {
		wp := mocks.NewMockWalletProvider(gomock.NewController(t))
		req, stakerKey := genTestRequest(r, t, types.AddressNativeSegwit)
		utxos := testutil.GenRandomUtxos(r, t, stakerKey.Address, 1, 1000)
		utxos[0].Value = req.StakingAmount - 1
		wp.EXPECT().GetUtxos(gomock.Any(), gomock.Any(), gomock.Any()).Return(utxos, nil)

		_, err := signer.SignStakingTransaction(ctx, wp, req)
		requireKind(t, err, staker.InsufficientBalance, staker.StateFetchingUtxos)
	})

	t.Run("wallet error", func(t *testing.T) {
		wp := mocks.NewMockWalletProvider(gomock.NewController(t))
		req, _ := genTestRequest(r, t, types.AddressTaproot)
		cause := api.WrapError("rpc", "getUtxos", api.ErrWalletNotFound)
		wp.EXPECT().GetUtxos(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, cause)

		_, err := signer.SignStakingTransaction(ctx, wp, req)
		requireKind(t, err, staker.UtxoFetchError, staker.StateFetchingUtxos)
		require.ErrorIs(t, err, api.ErrWalletNotFound)
		require.True(t, staker.IsRetryable(err))
	})
}

func TestFeeAndBuildFailures(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	ctx := context.Background()

	setup := func(t *testing.T) (*mocks.MockWalletProvider, *staker.StakingRequest) {
		wp := mocks.NewMockWalletProvider(gomock.NewController(t))
		req, stakerKey := genTestRequest(r, t, types.AddressTaproot)
		utxos := testutil.GenRandomUtxos(r, t, stakerKey.Address, 2, req.StakingAmount)
		wp.EXPECT().GetUtxos(gomock.Any(), gomock.Any(), gomock.Any()).Return(utxos, nil)
		return wp, req
	}

	t.Run("fee fetch error", func(t *testing.T) {
		wp, req := setup(t)
		wp.EXPECT().GetNetworkFees(gomock.Any()).Return(nil, errors.New("timeout"))

		_, err := newTestSigner(nil).SignStakingTransaction(ctx, wp, req)
		requireKind(t, err, staker.FeeFetchError, staker.StateEstimatingFee)
		require.True(t, staker.IsRetryable(err))
	})

	t.Run("zero fee rate", func(t *testing.T) {
		wp, req := setup(t)
		wp.EXPECT().GetNetworkFees(gomock.Any()).Return(&types.FeeEstimate{}, nil)

		_, err := newTestSigner(nil).SignStakingTransaction(ctx, wp, req)
		requireKind(t, err, staker.FeeFetchError, staker.StateEstimatingFee)
	})

	t.Run("script builder error", func(t *testing.T) {
		wp, req := setup(t)
		signer := staker.NewStakingSigner(testNet,
			func(string, uint64, *types.GlobalParams, string) (*types.StakingScripts, error) {
				return nil, stakingtx.ErrInvalidScript
			},
			nil, metrics.NewStakingMetrics(), zap.NewNop())

		_, err := signer.SignStakingTransaction(ctx, wp, req)
		requireKind(t, err, staker.ScriptBuildError, staker.StateBuildingScripts)
		require.ErrorIs(t, err, stakingtx.ErrInvalidScript)
	})

	t.Run("funds cannot cover the fee", func(t *testing.T) {
		wp := mocks.NewMockWalletProvider(gomock.NewController(t))
		req, stakerKey := genTestRequest(r, t, types.AddressTaproot)
		utxos := testutil.GenRandomUtxos(r, t, stakerKey.Address, 1, 0)
		utxos[0].Value = req.StakingAmount
		wp.EXPECT().GetUtxos(gomock.Any(), gomock.Any(), gomock.Any()).Return(utxos, nil)
		wp.EXPECT().GetNetworkFees(gomock.Any()).Return(&types.FeeEstimate{FastestFee: 10}, nil)

		_, err := newTestSigner(nil).SignStakingTransaction(ctx, wp, req)
		requireKind(t, err, staker.TransactionBuildError, staker.StateBuildingTransaction)
		require.ErrorIs(t, err, stakingtx.ErrInsufficientFunds)
	})

	t.Run("node decodes another transaction", func(t *testing.T) {
		wp, req := setup(t)
		wp.EXPECT().GetNetworkFees(gomock.Any()).Return(&types.FeeEstimate{FastestFee: 2}, nil)
		decoder := mocks.NewMockNetworkDataSource(gomock.NewController(t))
		decoded := &indexer.DecodedPsbt{}
		decoded.Tx.Txid = testutil.GenRandomHexStr(r, 32)
		decoder.EXPECT().DecodePsbt(gomock.Any(), gomock.Any()).Return(decoded, nil)

		_, err := newTestSigner(decoder).SignStakingTransaction(ctx, wp, req)
		requireKind(t, err, staker.TransactionBuildError, staker.StateBuildingTransaction)
	})
}

func TestSigningFailures(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	ctx := context.Background()

	setup := func(t *testing.T) (*mocks.MockWalletProvider, *staker.StakingRequest) {
		wp := mocks.NewMockWalletProvider(gomock.NewController(t))
		req, stakerKey := genTestRequest(r, t, types.AddressTaproot)
		utxos := testutil.GenRandomUtxos(r, t, stakerKey.Address, 2, req.StakingAmount)
		wp.EXPECT().GetUtxos(gomock.Any(), gomock.Any(), gomock.Any()).Return(utxos, nil)
		wp.EXPECT().GetNetworkFees(gomock.Any()).Return(&types.FeeEstimate{FastestFee: 3}, nil)
		return wp, req
	}

	t.Run("user rejection", func(t *testing.T) {
		wp, req := setup(t)
		cause := api.WrapError("rpc", "signPsbt", fmt.Errorf("%w: User rejected the request", api.ErrUnauthorized))
		wp.EXPECT().SignPsbt(gomock.Any(), gomock.Any()).Return("", cause)

		_, err := newTestSigner(nil).SignStakingTransaction(ctx, wp, req)
		pipelineErr := requireKind(t, err, staker.SigningError, staker.StateAwaitingSignature)
		require.ErrorIs(t, err, api.ErrUnauthorized)
		require.Contains(t, pipelineErr.UserMessage(), "User rejected the request")
		require.False(t, staker.IsRetryable(err))
	})

	t.Run("unsupported by the wallet", func(t *testing.T) {
		wp, req := setup(t)
		wp.EXPECT().SignPsbt(gomock.Any(), gomock.Any()).Return("", api.WrapError("rpc", "signPsbt", api.ErrUnsupported))

		_, err := newTestSigner(nil).SignStakingTransaction(ctx, wp, req)
		requireKind(t, err, staker.Unsupported, staker.StateAwaitingSignature)
	})

	t.Run("unsigned PSBT returned", func(t *testing.T) {
		wp, req := setup(t)
		wp.EXPECT().SignPsbt(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, psbtHex string) (string, error) {
				return psbtHex, nil
			})

		_, err := newTestSigner(nil).SignStakingTransaction(ctx, wp, req)
		requireKind(t, err, staker.SigningError, staker.StateAwaitingSignature)
	})

	t.Run("garbage returned", func(t *testing.T) {
		wp, req := setup(t)
		wp.EXPECT().SignPsbt(gomock.Any(), gomock.Any()).Return("zz", nil)

		_, err := newTestSigner(nil).SignStakingTransaction(ctx, wp, req)
		requireKind(t, err, staker.SigningError, staker.StateAwaitingSignature)
	})
}

// newLocalWallet returns a connected software wallet whose UTXOs and fees
// come from a mocked data source.
func newLocalWallet(r *rand.Rand, t *testing.T, addressType string, utxoValue btcutil.Amount, feeRate uint64) (*localwallet.Wallet, *types.WalletIdentity) {
	sk, _, err := datagen.GenRandomBTCKeyPair(r)
	require.NoError(t, err)

	// the address only depends on the key
	probe, err := localwallet.NewFromPrivateKey(sk, addressType, testNet, nil, zap.NewNop())
	require.NoError(t, err)
	identity, err := probe.Connect(context.Background())
	require.NoError(t, err)

	addr, err := btcutil.DecodeAddress(identity.Address, testNet)
	require.NoError(t, err)
	utxos := testutil.GenRandomUtxos(r, t, addr, 2, utxoValue)
	ds := testutil.PrepareMockedDataSource(t, identity.Address, utxos, feeRate)

	w, err := localwallet.NewFromPrivateKey(sk, addressType, testNet, ds, zap.NewNop())
	require.NoError(t, err)
	_, err = w.Connect(context.Background())
	require.NoError(t, err)

	return w, identity
}

func TestSignStakingTransactionEndToEnd(t *testing.T) {
	r := rand.New(rand.NewSource(5))

	for _, addressType := range []string{localwallet.AddressTypeTaproot, localwallet.AddressTypeNativeSegwit} {
		t.Run(addressType, func(t *testing.T) {
			w, identity := newLocalWallet(r, t, addressType, 30000, 5)
			params := genTestParams(r, t)
			req := &staker.StakingRequest{
				FinalityProvider:   testutil.GenRandomFinalityProvider(r, t),
				StakingAmount:      50000,
				StakingTermBlocks:  200,
				Params:             params,
				StakerAddress:      identity.Address,
				StakerPublicKeyHex: identity.PublicKeyHex,
			}

			// the node agrees with the built transaction
			decoder := mocks.NewMockNetworkDataSource(gomock.NewController(t))
			decoder.EXPECT().DecodePsbt(gomock.Any(), gomock.Any()).DoAndReturn(
				func(_ context.Context, psbtB64 string) (*indexer.DecodedPsbt, error) {
					artifact, err := stakingtx.DecodeArtifactBase64(psbtB64)
					require.NoError(t, err)
					decoded := &indexer.DecodedPsbt{}
					decoded.Tx.Txid = artifact.TxHash.String()
					return decoded, nil
				})

			signed, err := newTestSigner(decoder).SignStakingTransaction(context.Background(), w, req)
			require.NoError(t, err)

			tx := signed.Tx
			require.Equal(t, uint32(499), tx.LockTime)
			require.Equal(t, stakingtx.StakingTxVersion, tx.Version)

			var stakingOutputs int
			for _, out := range tx.TxOut {
				if out.Value == 50000 {
					stakingOutputs++
				}
			}
			require.Equal(t, 1, stakingOutputs)
			require.Equal(t, int64(50000), tx.TxOut[stakingtx.StakingOutputIdx].Value)
			require.True(t, txscript.IsNullData(tx.TxOut[1].PkScript))

			// the hex is the canonical serialization of the transaction
			raw, err := hex.DecodeString(signed.Hex)
			require.NoError(t, err)
			var decodedTx wire.MsgTx
			require.NoError(t, decodedTx.Deserialize(bytes.NewReader(raw)))
			require.Equal(t, signed.TxHash, decodedTx.TxHash())
			require.Equal(t, tx.TxIn[0].Witness[0], signed.Signature)

			for _, in := range tx.TxIn {
				require.Equal(t, wire.MaxTxInSequenceNum-1, in.Sequence)
				require.NotEmpty(t, in.Witness)
			}
		})
	}
}

func TestSignStakingTransactionConcurrently(t *testing.T) {
	r := rand.New(rand.NewSource(6))
	signer := newTestSigner(nil)

	const num = 5
	wallets := make([]*localwallet.Wallet, num)
	reqs := make([]*staker.StakingRequest, num)
	for i := 0; i < num; i++ {
		w, identity := newLocalWallet(r, t, localwallet.AddressTypeTaproot, 100000, uint64(i+1))
		wallets[i] = w
		reqs[i] = &staker.StakingRequest{
			FinalityProvider:   testutil.GenRandomFinalityProvider(r, t),
			StakingAmount:      btcutil.Amount(10000 * (i + 1)),
			StakingTermBlocks:  uint64(100 + i),
			Params:             genTestParams(r, t),
			StakerAddress:      identity.Address,
			StakerPublicKeyHex: identity.PublicKeyHex,
		}
	}

	var wg sync.WaitGroup
	results := make([]*types.SignedStakingTransaction, num)
	errs := make([]error, num)
	for i := 0; i < num; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = signer.SignStakingTransaction(context.Background(), wallets[i], reqs[i])
		}(i)
	}
	wg.Wait()

	for i := 0; i < num; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, int64(reqs[i].StakingAmount), results[i].Tx.TxOut[0].Value)
	}
}
