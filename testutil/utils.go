package testutil

import (
	"testing"

	"github.com/golang/mock/gomock"

	"github.com/babylonchain/btc-staking-signer/testutil/mocks"
	"github.com/babylonchain/btc-staking-signer/types"
)

// PrepareMockedDataSource returns a data source serving the given UTXOs of
// the address and a fixed fee rate, any number of times.
func PrepareMockedDataSource(t *testing.T, address string, utxos []*types.UTXO, fastestFee uint64) *mocks.MockNetworkDataSource {
	ctl := gomock.NewController(t)
	mockDataSource := mocks.NewMockNetworkDataSource(ctl)

	fees := &types.FeeEstimate{
		FastestFee:  fastestFee,
		HalfHourFee: fastestFee,
		HourFee:     fastestFee,
		EconomyFee:  fastestFee,
		MinimumFee:  1,
	}

	mockDataSource.EXPECT().GetUtxos(gomock.Any(), address, gomock.Any()).Return(utxos, nil).AnyTimes()
	mockDataSource.EXPECT().GetNetworkFees(gomock.Any()).Return(fees, nil).AnyTimes()
	mockDataSource.EXPECT().GetAddressBalance(gomock.Any(), address).Return(types.TotalValue(utxos), nil).AnyTimes()

	return mockDataSource
}
