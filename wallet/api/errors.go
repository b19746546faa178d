package api

import (
	"errors"
	"fmt"
)

var (
	ErrNotConnected   = errors.New("the wallet is not connected")
	ErrWalletNotFound = errors.New("the wallet backend is not available")
	ErrUnauthorized   = errors.New("the wallet refused the request")
	ErrUnsupported    = errors.New("the operation is not supported by the wallet")
	ErrUnknownBackend = errors.New("unknown wallet backend")
)

// ProviderError is returned by every WalletProvider method. It names the
// backend and the operation that failed.
type ProviderError struct {
	Backend string
	Op      string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s failed", e.Backend, e.Op)
	}
	return fmt.Sprintf("%s: %s: %s", e.Backend, e.Op, e.Err.Error())
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// WrapError wraps err in a ProviderError unless it already is one.
func WrapError(backend, op string, err error) error {
	if err == nil {
		return nil
	}
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return err
	}
	return &ProviderError{
		Backend: backend,
		Op:      op,
		Err:     err,
	}
}
