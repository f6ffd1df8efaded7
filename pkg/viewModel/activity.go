package viewModel

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type ActivityEventType string

const (
	ActivityEventType_YieldShifted     ActivityEventType = "YieldShifted"
	ActivityEventType_RewardsHarvested ActivityEventType = "RewardsHarvested"

	// Demo event kinds produced by the mock data source.
	ActivityEventType_Shift    ActivityEventType = "shift"
	ActivityEventType_Harvest  ActivityEventType = "harvest"
	ActivityEventType_Compound ActivityEventType = "compound"
	ActivityEventType_Config   ActivityEventType = "config"
)

type ActivityEvent struct {
	Id          string            `json:"id"`
	Type        ActivityEventType `json:"type"`
	PoolId      common.Hash       `json:"poolId"`
	Vault       common.Address    `json:"vault"`
	Amount      *big.Int          `json:"amount"`
	APY         *big.Int          `json:"apy,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
	BlockNumber uint64            `json:"blockNumber"`
	TxHash      *common.Hash      `json:"txHash,omitempty"`
	Message     string            `json:"message,omitempty"`
	Details     string            `json:"details,omitempty"`
}

type ActivityEventView struct {
	Id      string            `json:"id"`
	Type    ActivityEventType `json:"type"`
	Message string            `json:"message"`
	Details string            `json:"details,omitempty"`
	Amount  string            `json:"amount"`
	APY     string            `json:"apy,omitempty"`
	TimeAgo string            `json:"timeAgo"`
	TxHash  string            `json:"txHash,omitempty"`
}

// View renders an event for the feed. Chain events get a generated message.
func (e ActivityEvent) View(decimals int, now time.Time) ActivityEventView {
	v := ActivityEventView{
		Id:      e.Id,
		Type:    e.Type,
		Message: e.Message,
		Details: e.Details,
		Amount:  FormatTokenAmount(e.Amount, decimals),
		TimeAgo: FormatRelativeTime(e.Timestamp, now),
	}
	if e.APY != nil {
		v.APY = FormatBasisPoints(e.APY)
	}
	if e.TxHash != nil {
		v.TxHash = ShortenHash(*e.TxHash)
	}
	if v.Message == "" {
		switch e.Type {
		case ActivityEventType_YieldShifted:
			v.Message = "Shifted " + FormatCompact(e.Amount, decimals) + " to " + VaultName(e.Vault)
			if e.APY != nil {
				v.Details = "APY: " + v.APY + "%"
			}
		case ActivityEventType_RewardsHarvested:
			v.Message = "Harvested " + FormatCompact(e.Amount, decimals) + " in rewards"
		}
	}
	return v
}
