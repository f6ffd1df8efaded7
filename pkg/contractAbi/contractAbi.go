// Package contractAbi holds the fixed ABI descriptions of the YieldShift contracts.
package contractAbi

import (
	"bytes"
	"embed"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

//go:embed abis/*.json
var abiFiles embed.FS

type ContractName string

const (
	Contract_YieldOracle    ContractName = "yieldOracle"
	Contract_YieldRouter    ContractName = "yieldRouter"
	Contract_YieldShiftHook ContractName = "yieldShiftHook"
)

const (
	Method_GetAPY               = "getAPY"
	Method_GetBestYield         = "getBestYield"
	Method_GetAllAPYs           = "getAllAPYs"
	Method_GetActiveVaultsCount = "getActiveVaultsCount"
	Method_GetVaultConfig       = "getVaultConfig"
	Method_TotalDeposited       = "totalDeposited"
	Method_TotalHarvested       = "totalHarvested"
	Method_GetAllVaults         = "getAllVaults"
	Method_GetPoolState         = "getPoolState"
	Method_PoolConfigs          = "poolConfigs"

	Event_YieldShifted     = "YieldShifted"
	Event_RewardsHarvested = "RewardsHarvested"
)

var (
	yieldOracleAbi    = mustLoad(Contract_YieldOracle)
	yieldRouterAbi    = mustLoad(Contract_YieldRouter)
	yieldShiftHookAbi = mustLoad(Contract_YieldShiftHook)
)

// Load parses the embedded ABI for the named contract.
func Load(name ContractName) (*abi.ABI, error) {
	raw, err := abiFiles.ReadFile(fmt.Sprintf("abis/%s.json", name))
	if err != nil {
		return nil, fmt.Errorf("unknown contract abi %s: %w", name, err)
	}
	parsed, err := abi.JSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse abi %s: %w", name, err)
	}
	return &parsed, nil
}

func mustLoad(name ContractName) *abi.ABI {
	a, err := Load(name)
	if err != nil {
		panic(err)
	}
	return a
}

func YieldOracle() *abi.ABI {
	return yieldOracleAbi
}

func YieldRouter() *abi.ABI {
	return yieldRouterAbi
}

func YieldShiftHook() *abi.ABI {
	return yieldShiftHookAbi
}
