package indexer

import "errors"

var (
	// ErrConnectionFailed indicates the data source could not be reached
	ErrConnectionFailed = errors.New("indexer: connection failed")

	// ErrInvalidResponse indicates a malformed or unexpected response
	ErrInvalidResponse = errors.New("indexer: invalid response")

	// ErrBroadcastRejected indicates the transaction was not accepted
	ErrBroadcastRejected = errors.New("indexer: broadcast rejected")

	// ErrRPCNotConfigured is returned by DecodePsbt when no node RPC endpoint
	// is configured
	ErrRPCNotConfigured = errors.New("indexer: node RPC is not configured")
)
