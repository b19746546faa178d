package staker

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/mempool"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"go.uber.org/zap"

	"github.com/babylonchain/btc-staking-signer/indexer"
	"github.com/babylonchain/btc-staking-signer/metrics"
	"github.com/babylonchain/btc-staking-signer/stakingtx"
	"github.com/babylonchain/btc-staking-signer/types"
	"github.com/babylonchain/btc-staking-signer/wallet/api"
)

// StakingRequest carries everything a staking attempt needs besides the
// wallet.
type StakingRequest struct {
	FinalityProvider  *types.FinalityProvider
	StakingAmount     btcutil.Amount
	StakingTermBlocks uint64
	Params            *types.GlobalParams

	// StakerAddress and StakerPublicKeyHex are the identity of the connected
	// wallet. The key may be x-only or compressed.
	StakerAddress      string
	StakerPublicKeyHex string
}

// StakingSigner runs the staking pipeline. It keeps no state between
// attempts and can be shared.
type StakingSigner struct {
	net           *chaincfg.Params
	scriptBuilder stakingtx.ScriptBuilder
	// psbtDecoder double checks the built PSBT with a node, nil to skip
	psbtDecoder indexer.NetworkDataSource

	metrics *metrics.StakingMetrics
	logger  *zap.Logger
}

func NewStakingSigner(
	net *chaincfg.Params,
	scriptBuilder stakingtx.ScriptBuilder,
	psbtDecoder indexer.NetworkDataSource,
	sm *metrics.StakingMetrics,
	logger *zap.Logger,
) *StakingSigner {
	return &StakingSigner{
		net:           net,
		scriptBuilder: scriptBuilder,
		psbtDecoder:   psbtDecoder,
		metrics:       sm,
		logger:        logger,
	}
}

// attempt is the state of a single pipeline run
type attempt struct {
	*StakingSigner

	wp     api.WalletProvider
	req    *StakingRequest
	state  State
	logger *zap.Logger

	staker   *types.StakerKey
	utxos    []*types.UTXO
	scripts  *types.StakingScripts
	feeRate  uint64
	artifact *stakingtx.UnsignedStakingArtifact
}

// SignStakingTransaction builds the staking transaction of the request, has
// the wallet sign it and returns the signed transaction. The transaction is
// not broadcast. Every failure is a *PipelineError and nothing is retried.
func (s *StakingSigner) SignStakingTransaction(ctx context.Context, wp api.WalletProvider, req *StakingRequest) (*types.SignedStakingTransaction, error) {
	start := time.Now()
	a := &attempt{
		StakingSigner: s,
		wp:            wp,
		req:           req,
		logger:        s.logger,
	}
	if req != nil {
		a.logger = s.logger.With(zap.String("staker_address", req.StakerAddress))
		if req.FinalityProvider != nil {
			a.logger = a.logger.With(zap.String("fp_btc_pk", req.FinalityProvider.BtcPk))
		}
	}

	signed, err := a.run(ctx)
	s.metrics.ObservePipelineDuration(time.Since(start))
	if err != nil {
		var pipelineErr *PipelineError
		if errors.As(err, &pipelineErr) {
			s.metrics.RecordFailure(pipelineErr.Kind.String())
			a.logger.Error("failed to sign the staking transaction",
				zap.Stringer("kind", pipelineErr.Kind),
				zap.Stringer("state", pipelineErr.State),
				zap.Error(pipelineErr.Cause))
		}
		return nil, err
	}

	s.metrics.RecordSignedTx(req.StakingAmount)

	return signed, nil
}

func (a *attempt) run(ctx context.Context) (*types.SignedStakingTransaction, error) {
	a.enter(StateValidating)
	if err := a.validate(); err != nil {
		return nil, err
	}

	a.enter(StateFetchingUtxos)
	if err := a.checkAborted(ctx, UtxoFetchError); err != nil {
		return nil, err
	}
	if err := a.fetchUtxos(ctx); err != nil {
		return nil, err
	}

	a.enter(StateBuildingScripts)
	if err := a.buildScripts(); err != nil {
		return nil, err
	}

	a.enter(StateEstimatingFee)
	if err := a.checkAborted(ctx, FeeFetchError); err != nil {
		return nil, err
	}
	if err := a.estimateFee(ctx); err != nil {
		return nil, err
	}

	a.enter(StateBuildingTransaction)
	if err := a.buildTransaction(ctx); err != nil {
		return nil, err
	}

	a.enter(StateAwaitingSignature)
	if err := a.checkAborted(ctx, SigningError); err != nil {
		return nil, err
	}
	signed, err := a.sign(ctx)
	if err != nil {
		return nil, err
	}

	a.enter(StateDone)
	a.logger.Info("successfully signed the staking transaction",
		zap.String("tx_hash", signed.TxHash.String()),
		zap.Int64("vsize", mempool.GetTxVirtualSize(btcutil.NewTx(signed.Tx))),
		zap.Int64("fee", int64(a.artifact.Fee)))

	return signed, nil
}

func (a *attempt) enter(state State) {
	a.state = state
	a.metrics.RecordStateTransition(state.String())
	a.logger.Debug("staking pipeline transition", zap.Stringer("state", state))
}

func (a *attempt) fail(kind FailureKind, cause error) error {
	// wallet capability gaps are reported as such whatever the state
	if errors.Is(cause, api.ErrUnsupported) {
		kind = Unsupported
	}
	return newPipelineError(kind, a.state, cause)
}

// checkAborted fails the pipeline once the context is done. Cancellation is
// best effort: a wallet prompt already shown may still resolve.
func (a *attempt) checkAborted(ctx context.Context, kind FailureKind) error {
	if ctx.Err() == nil {
		return nil
	}
	return a.fail(kind, context.Cause(ctx))
}

func (a *attempt) validate() error {
	req := a.req
	if req == nil {
		return a.fail(InvalidStakingData, fmt.Errorf("empty staking request"))
	}
	if a.wp == nil {
		return a.fail(InvalidStakingData, api.ErrNotConnected)
	}
	if req.Params == nil {
		return a.fail(InvalidStakingData, types.ErrInvalidParams)
	}
	if _, err := req.FinalityProvider.BtcPK(); err != nil {
		return a.fail(InvalidStakingData, err)
	}
	if !req.Params.IsAmountInRange(req.StakingAmount) {
		return a.fail(InvalidStakingData, fmt.Errorf("staking amount %d is out of range [%d, %d]",
			req.StakingAmount, req.Params.MinStakingAmountSat, req.Params.MaxStakingAmountSat))
	}
	if !req.Params.IsTermInRange(req.StakingTermBlocks) {
		return a.fail(InvalidStakingData, fmt.Errorf("staking term %d is out of range [%d, %d]",
			req.StakingTermBlocks, req.Params.MinStakingTimeBlocks, req.Params.MaxStakingTimeBlocks))
	}

	staker, err := types.ResolveStakerKey(req.StakerAddress, req.StakerPublicKeyHex, a.net)
	if err != nil {
		return a.fail(InvalidStakingData, err)
	}
	a.staker = staker

	return nil
}

func (a *attempt) fetchUtxos(ctx context.Context) error {
	// the hint is best effort, the sum is checked below anyway
	minTotal := a.req.StakingAmount
	utxos, err := a.wp.GetUtxos(ctx, a.req.StakerAddress, &minTotal)
	if err != nil {
		return a.fail(UtxoFetchError, err)
	}
	if len(utxos) == 0 {
		return a.fail(InsufficientBalance, ErrInsufficientBalance)
	}
	if total := types.TotalValue(utxos); total < a.req.StakingAmount {
		return a.fail(InsufficientBalance, fmt.Errorf("%w: %d available, %d required",
			ErrInsufficientBalance, total, a.req.StakingAmount))
	}
	a.utxos = utxos

	a.logger.Debug("fetched UTXOs", zap.Int("num_utxos", len(utxos)))

	return nil
}

func (a *attempt) buildScripts() error {
	scripts, err := a.scriptBuilder(
		a.req.FinalityProvider.BtcPk,
		a.req.StakingTermBlocks,
		a.req.Params,
		types.PubKeyToXOnlyHex(a.staker.PubKey),
	)
	if err != nil {
		return a.fail(ScriptBuildError, err)
	}
	a.scripts = scripts

	return nil
}

func (a *attempt) estimateFee(ctx context.Context) error {
	fees, err := a.wp.GetNetworkFees(ctx)
	if err != nil {
		return a.fail(FeeFetchError, err)
	}
	if fees == nil || fees.FastestFee == 0 {
		return a.fail(FeeFetchError, fmt.Errorf("no fee rate is recommended"))
	}
	a.feeRate = fees.FastestFee
	a.metrics.RecordFeeRate(a.feeRate)

	return nil
}

func (a *attempt) buildTransaction(ctx context.Context) error {
	artifact, err := stakingtx.BuildStakingTx(&stakingtx.StakingTxRequest{
		Scripts:            a.scripts,
		StakingAmount:      a.req.StakingAmount,
		ChangeAddress:      a.staker.Address,
		Utxos:              a.utxos,
		Net:                a.net,
		FeeRate:            a.feeRate,
		TaprootInternalKey: a.staker.TaprootInternalKey(),
		LockHeight:         a.req.Params.LockHeight(),
	})
	if err != nil {
		return a.fail(TransactionBuildError, err)
	}

	if a.psbtDecoder != nil {
		if err := a.verifyWithNode(ctx, artifact); err != nil {
			return a.fail(TransactionBuildError, err)
		}
	}
	a.artifact = artifact

	a.logger.Debug("built the staking transaction",
		zap.String("tx_hash", artifact.TxHash.String()),
		zap.Uint64("fee_rate", a.feeRate),
		zap.Int64("fee", int64(artifact.Fee)),
		zap.Int64("estimated_vsize", artifact.EstimatedSignedVSize))

	return nil
}

// verifyWithNode checks that the node decodes the PSBT into the same
// transaction.
func (a *attempt) verifyWithNode(ctx context.Context, artifact *stakingtx.UnsignedStakingArtifact) error {
	encoded, err := artifact.ToBase64()
	if err != nil {
		return err
	}
	decoded, err := a.psbtDecoder.DecodePsbt(ctx, encoded)
	if err != nil {
		return err
	}
	if decoded.Tx.Txid != artifact.TxHash.String() {
		return fmt.Errorf("the node decoded txid %s, expected %s", decoded.Tx.Txid, artifact.TxHash)
	}
	return nil
}

func (a *attempt) sign(ctx context.Context) (*types.SignedStakingTransaction, error) {
	if err := a.artifact.Consume(); err != nil {
		return nil, a.fail(SigningError, err)
	}

	psbtHex, err := a.artifact.ToHex()
	if err != nil {
		return nil, a.fail(SigningError, err)
	}

	signedHex, err := a.wp.SignPsbt(ctx, psbtHex)
	if err != nil {
		return nil, a.fail(SigningError, err)
	}

	tx, err := finalizeSignedPsbt(signedHex, a.artifact)
	if err != nil {
		return nil, a.fail(SigningError, err)
	}

	sig, err := extractSignature(tx)
	if err != nil {
		return nil, a.fail(SigningError, err)
	}

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return nil, a.fail(SigningError, err)
	}

	return &types.SignedStakingTransaction{
		Tx:        tx,
		TxHash:    tx.TxHash(),
		Hex:       hex.EncodeToString(buf.Bytes()),
		Fee:       a.artifact.Fee,
		Signature: sig,
	}, nil
}

// finalizeSignedPsbt decodes the PSBT returned by the wallet, makes sure it
// is still the built transaction and extracts the final transaction.
func finalizeSignedPsbt(signedHex string, artifact *stakingtx.UnsignedStakingArtifact) (*wire.MsgTx, error) {
	raw, err := hex.DecodeString(signedHex)
	if err != nil {
		return nil, fmt.Errorf("invalid signed PSBT hex: %w", err)
	}
	packet, err := psbt.NewFromRawBytes(bytes.NewReader(raw), false)
	if err != nil {
		return nil, fmt.Errorf("invalid signed PSBT: %w", err)
	}
	if got := packet.UnsignedTx.TxHash(); got != artifact.TxHash {
		return nil, fmt.Errorf("%w: the wallet returned txid %s, expected %s",
			stakingtx.ErrArtifactMutated, got, artifact.TxHash)
	}

	if err := psbt.MaybeFinalizeAll(packet); err != nil {
		return nil, fmt.Errorf("failed to finalize the signed PSBT: %w", err)
	}

	return psbt.Extract(packet)
}

// extractSignature returns the first witness element of the first input, or
// the first push of its signature script for a non-witness input.
func extractSignature(tx *wire.MsgTx) ([]byte, error) {
	if len(tx.TxIn) == 0 {
		return nil, fmt.Errorf("the signed transaction has no inputs")
	}
	in := tx.TxIn[0]
	if len(in.Witness) > 0 && len(in.Witness[0]) > 0 {
		return in.Witness[0], nil
	}
	if len(in.SignatureScript) > 0 {
		pushes, err := txscript.PushedData(in.SignatureScript)
		if err == nil && len(pushes) > 0 && len(pushes[0]) > 0 {
			return pushes[0], nil
		}
	}
	return nil, fmt.Errorf("the first input is not signed")
}
