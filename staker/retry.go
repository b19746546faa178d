package staker

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	"github.com/babylonchain/btc-staking-signer/types"
	"github.com/babylonchain/btc-staking-signer/wallet/api"
)

// ErrAccountChanged is the cause of the context returned by
// AbortOnAccountChange once the wallet switches accounts.
var ErrAccountChanged = errors.New("the wallet account changed during staking")

// SignStakingTransactionWithRetry runs the pipeline up to maxAttempts times.
// Only transient failures are retried and every attempt starts over with a
// fresh UTXO set and fee rate.
func (s *StakingSigner) SignStakingTransactionWithRetry(
	ctx context.Context,
	wp api.WalletProvider,
	req *StakingRequest,
	maxAttempts uint,
	delay time.Duration,
) (*types.SignedStakingTransaction, error) {
	// zero attempts means retrying forever to retry-go
	if maxAttempts == 0 {
		maxAttempts = 1
	}

	var signed *types.SignedStakingTransaction
	if err := retry.Do(func() error {
		res, err := s.SignStakingTransaction(ctx, wp, req)
		if err != nil {
			return err
		}
		signed = res
		return nil
	},
		retry.Context(ctx),
		retry.Attempts(maxAttempts),
		retry.Delay(delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(IsRetryable),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Warn(
				"staking attempt failed, retrying",
				zap.Uint("attempt", n+1),
				zap.Uint("max_attempts", maxAttempts),
				zap.Error(err),
			)
		}),
	); err != nil {
		return nil, err
	}

	return signed, nil
}

// AbortOnAccountChange derives a context that is cancelled with
// ErrAccountChanged when the wallet reports an account change. The returned
// function releases the subscription.
func AbortOnAccountChange(ctx context.Context, wp api.WalletProvider) (context.Context, func(), error) {
	ctx, cancel := context.WithCancelCause(ctx)
	unsubscribe, err := wp.Subscribe(api.EventAccountChanged, func() {
		cancel(ErrAccountChanged)
	})
	if err != nil {
		cancel(err)
		return nil, nil, err
	}

	return ctx, func() {
		unsubscribe()
		cancel(context.Canceled)
	}, nil
}
