package activityFeed

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/yieldshift/sidecar/pkg/contractAbi"
	"github.com/yieldshift/sidecar/pkg/viewModel"
)

// EventTopics returns the topic0 values of the hook events the feed accumulates.
func EventTopics(hookAbi *abi.ABI) []common.Hash {
	return []common.Hash{
		hookAbi.Events[contractAbi.Event_YieldShifted].ID,
		hookAbi.Events[contractAbi.Event_RewardsHarvested].ID,
	}
}

func eventId(l types.Log) string {
	if l.TxHash == (common.Hash{}) {
		return uuid.NewString()
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s:%d", l.TxHash.Hex(), l.Index))).String()
}

func topicAt(l types.Log, i int) common.Hash {
	if i < len(l.Topics) {
		return l.Topics[i]
	}
	return common.Hash{}
}

// DecodeLog maps a hook log to an activity event. Missing or malformed fields decode to zero.
// The second return value is false for logs of any other event.
func DecodeLog(hookAbi *abi.ABI, l types.Log) (viewModel.ActivityEvent, bool) {
	if len(l.Topics) == 0 {
		return viewModel.ActivityEvent{}, false
	}
	event, err := hookAbi.EventByID(l.Topics[0])
	if err != nil {
		return viewModel.ActivityEvent{}, false
	}

	e := viewModel.ActivityEvent{
		Id:          eventId(l),
		PoolId:      topicAt(l, 1),
		Amount:      new(big.Int),
		BlockNumber: l.BlockNumber,
	}
	if l.TxHash != (common.Hash{}) {
		tx := l.TxHash
		e.TxHash = &tx
	}

	values := map[string]interface{}{}
	if len(l.Data) > 0 {
		// A payload that fails to unpack leaves every data field at zero.
		_ = event.Inputs.NonIndexed().UnpackIntoMap(values, l.Data)
	}
	if amount, ok := values["amount"].(*big.Int); ok {
		e.Amount = amount
	}

	switch event.Name {
	case contractAbi.Event_YieldShifted:
		e.Type = viewModel.ActivityEventType_YieldShifted
		e.Vault = common.BytesToAddress(topicAt(l, 2).Bytes())
		e.APY = new(big.Int)
		if apy, ok := values["apy"].(*big.Int); ok {
			e.APY = apy
		}
	case contractAbi.Event_RewardsHarvested:
		e.Type = viewModel.ActivityEventType_RewardsHarvested
	default:
		return viewModel.ActivityEvent{}, false
	}
	return e, true
}
