package stakerdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/babylonchain/btc-staking-signer/store"
)

const (
	stakingTxPrefix = "staking-tx"
)

type TxStatus string

const (
	TxStatusSigned    TxStatus = "SIGNED"
	TxStatusBroadcast TxStatus = "BROADCAST"
)

// StoredStakingTx is the record of a signed staking transaction.
type StoredStakingTx struct {
	TxHash        string         `json:"tx_hash"`
	TxHex         string         `json:"tx_hex"`
	StakerAddress string         `json:"staker_address"`
	FpBtcPk       string         `json:"fp_btc_pk"`
	StakingAmount btcutil.Amount `json:"staking_amount"`
	StakingTerm   uint64         `json:"staking_term"`
	ParamsVersion uint64         `json:"params_version"`
	Fee           btcutil.Amount `json:"fee"`
	Status        TxStatus       `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	BroadcastAt   *time.Time     `json:"broadcast_at,omitempty"`
}

type StakingTxStore struct {
	s store.Store
}

func NewStakingTxStore(s store.Store) *StakingTxStore {
	return &StakingTxStore{s: s}
}

func getStakingTxKey(txHash string) []byte {
	return append([]byte(stakingTxPrefix), []byte(txHash)...)
}

func (ts *StakingTxStore) SaveStakingTx(tx *StoredStakingTx) error {
	k := getStakingTxKey(tx.TxHash)
	exists, err := ts.s.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrDuplicateStakingTx, tx.TxHash)
	}

	if tx.Status == "" {
		tx.Status = TxStatusSigned
	}
	v, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal the staking transaction record: %w", err)
	}

	if err := ts.s.Put(k, v); err != nil {
		return fmt.Errorf("failed to save the staking transaction record: %w", err)
	}

	return nil
}

func (ts *StakingTxStore) GetStakingTx(txHash string) (*StoredStakingTx, error) {
	v, err := ts.s.Get(getStakingTxKey(txHash))
	if err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrStakingTxNotFound, txHash)
		}
		return nil, err
	}

	return unmarshalStakingTx(v)
}

// SetBroadcast marks the staking transaction as pushed to the network.
func (ts *StakingTxStore) SetBroadcast(txHash string, at time.Time) error {
	tx, err := ts.GetStakingTx(txHash)
	if err != nil {
		return err
	}

	tx.Status = TxStatusBroadcast
	tx.BroadcastAt = &at

	v, err := json.Marshal(tx)
	if err != nil {
		return err
	}

	return ts.s.Put(getStakingTxKey(txHash), v)
}

// ListStakingTxs returns all the records ordered by tx hash.
func (ts *StakingTxStore) ListStakingTxs() ([]*StoredStakingTx, error) {
	kvs, err := ts.s.List([]byte(stakingTxPrefix))
	if err != nil {
		return nil, err
	}

	txs := make([]*StoredStakingTx, 0, len(kvs))
	for _, kv := range kvs {
		tx, err := unmarshalStakingTx(kv.Value)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

func (ts *StakingTxStore) Close() error {
	return ts.s.Close()
}

func unmarshalStakingTx(v []byte) (*StoredStakingTx, error) {
	tx := new(StoredStakingTx)
	if err := json.Unmarshal(v, tx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptedStakingTxDb, err)
	}
	return tx, nil
}
