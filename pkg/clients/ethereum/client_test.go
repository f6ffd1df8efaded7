package ethereum

import (
	"context"
	"math/big"
	"net/http"
	"testing"
	"time"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/yieldshift/sidecar/internal/tests"
)

var (
	testContract = common.HexToAddress("0x1111111111111111111111111111111111111111")
	selectorA    = []byte{0xaa, 0xaa, 0xaa, 0xaa}
	selectorB    = []byte{0xbb, 0xbb, 0xbb, 0xbb}
	selectorC    = []byte{0xcc, 0xcc, 0xcc, 0xcc}
)

func setup(native bool) (*Client, *tests.RpcMock) {
	httpmock.Activate()

	cfg := DefaultChunkedCallEthereumClientConfig()
	if native {
		cfg = DefaultNativeCallEthereumClientConfig()
		cfg.NativeBatchCallSize = 2
	}
	cfg.BaseUrl = tests.RpcUrl

	client := NewClient(cfg, tests.GetLogger())
	client.SetHttpClient(&http.Client{Transport: httpmock.DefaultTransport})

	mock := tests.NewRpcMock()
	mock.Register(tests.RpcUrl)
	return client, mock
}

func Test_Client(t *testing.T) {
	t.Run("EthCall returns raw data", func(t *testing.T) {
		client, mock := setup(false)
		defer httpmock.DeactivateAndReset()

		mock.OnCall(testContract, selectorA, []byte{0x01, 0x02})

		res, err := client.EthCall(context.Background(), testContract, append(selectorA, 0x00))
		assert.Nil(t, err)
		assert.Equal(t, []byte{0x01, 0x02}, res)
		assert.Equal(t, 1, mock.EthCalls())
	})
	t.Run("EthCall surfaces node errors without retrying", func(t *testing.T) {
		client, mock := setup(false)
		defer httpmock.DeactivateAndReset()
		client.clientConfig.Backoffs = []time.Duration{time.Millisecond}

		mock.OnCallRevert(testContract, selectorA)

		_, err := client.EthCall(context.Background(), testContract, selectorA)
		assert.NotNil(t, err)

		rpcErr, ok := err.(*RPCError)
		assert.True(t, ok)
		assert.Equal(t, "execution reverted", rpcErr.Message)
		assert.Equal(t, 1, mock.EthCalls())
	})
	t.Run("Transport failures are retried with backoffs", func(t *testing.T) {
		httpmock.Activate()
		defer httpmock.DeactivateAndReset()

		cfg := DefaultChunkedCallEthereumClientConfig()
		cfg.BaseUrl = tests.RpcUrl
		cfg.Backoffs = []time.Duration{time.Millisecond, time.Millisecond}
		client := NewClient(cfg, tests.GetLogger())
		client.SetHttpClient(&http.Client{Transport: httpmock.DefaultTransport})

		httpmock.RegisterResponder(http.MethodPost, tests.RpcUrl, httpmock.NewStringResponder(http.StatusBadGateway, "bad gateway"))

		_, err := client.GetBlockNumberUint64(context.Background())
		assert.NotNil(t, err)
		assert.Equal(t, 3, httpmock.GetTotalCallCount())
	})
	t.Run("GetBlockNumberUint64", func(t *testing.T) {
		client, mock := setup(false)
		defer httpmock.DeactivateAndReset()

		mock.SetBlockNumber(1234)
		n, err := client.GetBlockNumberUint64(context.Background())
		assert.Nil(t, err)
		assert.Equal(t, uint64(1234), n)
	})
}

func Test_BatchCall(t *testing.T) {
	buildRequests := func() []*RPCRequest {
		return []*RPCRequest{
			EthCallRequest(testContract, selectorA, 0),
			EthCallRequest(testContract, selectorB, 0),
			EthCallRequest(testContract, selectorC, 0),
		}
	}

	for _, native := range []bool{false, true} {
		name := "chunked"
		if native {
			name = "native"
		}
		t.Run("Responses are aligned with requests - "+name, func(t *testing.T) {
			client, mock := setup(native)
			defer httpmock.DeactivateAndReset()

			mock.OnCall(testContract, selectorA, []byte{0x0a})
			mock.OnCallRevert(testContract, selectorB)
			mock.OnCall(testContract, selectorC, []byte{0x0c})

			res, err := client.BatchCall(context.Background(), buildRequests())
			assert.Nil(t, err)
			assert.Len(t, res, 3)

			assert.Nil(t, res[0].Error)
			assert.Equal(t, `"0x0a"`, string(res[0].Result))

			assert.NotNil(t, res[1])
			assert.NotNil(t, res[1].Error)

			assert.Nil(t, res[2].Error)
			assert.Equal(t, `"0x0c"`, string(res[2].Result))
		})
	}
	t.Run("Native batches are split by size", func(t *testing.T) {
		client, _ := setup(true)
		defer httpmock.DeactivateAndReset()

		_, err := client.BatchCall(context.Background(), buildRequests())
		assert.Nil(t, err)
		assert.Equal(t, 2, httpmock.GetTotalCallCount())
	})
	t.Run("Empty batch makes no requests", func(t *testing.T) {
		client, _ := setup(true)
		defer httpmock.DeactivateAndReset()

		res, err := client.BatchCall(context.Background(), nil)
		assert.Nil(t, err)
		assert.Len(t, res, 0)
		assert.Equal(t, 0, httpmock.GetTotalCallCount())
	})
}

func Test_chunkBounds(t *testing.T) {
	assert.Equal(t, [][2]int{{0, 2}, {2, 4}, {4, 5}}, chunkBounds(5, 2))
	assert.Equal(t, [][2]int{{0, 3}}, chunkBounds(3, 10))
	assert.Len(t, chunkBounds(0, 10), 0)
}

func Test_LogPoller(t *testing.T) {
	t.Run("Delivers logs from new blocks", func(t *testing.T) {
		client, mock := setup(false)
		defer httpmock.DeactivateAndReset()

		mock.SetBlockNumber(10)
		poller := NewLogPoller(client, time.Millisecond*10, tests.GetLogger())

		ch := make(chan types.Log, 10)
		sub, err := poller.SubscribeFilterLogs(context.Background(), goethereum.FilterQuery{
			Addresses: []common.Address{testContract},
		}, ch)
		assert.Nil(t, err)
		defer sub.Unsubscribe()

		mock.AddLogs(types.Log{
			Address:     testContract,
			Topics:      []common.Hash{common.HexToHash("0x01")},
			Data:        []byte{},
			BlockNumber: 11,
			TxHash:      common.HexToHash("0x02"),
		})

		select {
		case l := <-ch:
			assert.Equal(t, uint64(11), l.BlockNumber)
		case <-time.After(time.Second * 2):
			t.Fatal("timed out waiting for log")
		}
	})
	t.Run("FilterLogs honours the requested range", func(t *testing.T) {
		client, mock := setup(false)
		defer httpmock.DeactivateAndReset()

		for i := uint64(1); i <= 3; i++ {
			mock.AddLogs(types.Log{
				Address:     testContract,
				Topics:      []common.Hash{},
				Data:        []byte{},
				BlockNumber: i,
				TxHash:      common.BigToHash(new(big.Int).SetUint64(i)),
			})
		}
		poller := NewLogPoller(client, time.Second, tests.GetLogger())
		logs, err := poller.FilterLogs(context.Background(), goethereum.FilterQuery{
			FromBlock: big.NewInt(2),
			ToBlock:   big.NewInt(3),
		})
		assert.Nil(t, err)
		assert.Len(t, logs, 2)
	})
}
