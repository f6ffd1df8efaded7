package viewModel

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type VaultStatus string

const (
	VaultStatus_Active    VaultStatus = "active"
	VaultStatus_Available VaultStatus = "available"
	VaultStatus_Paused    VaultStatus = "paused"
)

var knownVaultNames = map[common.Address]string{
	common.HexToAddress("0xA238Dd80C259a72e81d7e4664a9801593F98d1c5"): "Aave v3 (USDC)",
	common.HexToAddress("0xBBBBBbbBBb9cC5e90e3b3Af64bdAF62C37EEFFCb"): "Morpho Blue",
	common.HexToAddress("0xb125E6687d4313864e53df431d5425969c15Eb2F"): "Compound v3 (USDC)",
}

// VaultName returns the display name of a known vault, or its shortened address.
func VaultName(address common.Address) string {
	if name, ok := knownVaultNames[address]; ok {
		return name
	}
	return ShortenAddress(address)
}

// VaultConfig is the oracle's getVaultConfig tuple.
type VaultConfig struct {
	VaultAddress  common.Address
	PriceOracle   common.Address
	RiskScore     uint64
	IsWhitelisted bool
}

// DefaultVaultConfig is the value substituted for a vault whose config read failed.
func DefaultVaultConfig(vault common.Address) VaultConfig {
	return VaultConfig{VaultAddress: vault}
}

func ParseVaultConfig(raw interface{}) VaultConfig {
	return VaultConfig{
		VaultAddress:  toAddress(field(raw, "VaultAddress")),
		PriceOracle:   toAddress(field(raw, "PriceOracle")),
		RiskScore:     toUint64(field(raw, "RiskScore")),
		IsWhitelisted: toBool(field(raw, "IsWhitelisted")),
	}
}

// VaultAPYs is the oracle's getAllAPYs result: two parallel arrays.
type VaultAPYs struct {
	Vaults []common.Address
	APYs   []*big.Int
}

func ParseVaultAPYs(values []interface{}) VaultAPYs {
	return VaultAPYs{
		Vaults: toAddresses(valueAt(values, 0)),
		APYs:   toBigs(valueAt(values, 1)),
	}
}

// APYFor returns the APY reported for the vault at index i, or nil when the arrays disagree in length.
func (v VaultAPYs) APYFor(i int) *big.Int {
	if i < 0 || i >= len(v.APYs) {
		return nil
	}
	return v.APYs[i]
}

type VaultStats struct {
	Address        common.Address `json:"address"`
	TotalDeposited *big.Int       `json:"totalDeposited"`
	TotalHarvested *big.Int       `json:"totalHarvested"`
}

type VaultSummary struct {
	Address        common.Address `json:"address" csv:"address"`
	Name           string         `json:"name" csv:"name"`
	APYBasisPoints *big.Int       `json:"apyBasisPoints" csv:"-"`
	APY            string         `json:"apy" csv:"apy"`
	RiskScore      uint64         `json:"riskScore" csv:"risk_score"`
	RiskLabel      string         `json:"riskLabel" csv:"risk_label"`
	RiskTone       string         `json:"riskTone" csv:"-"`
	IsWhitelisted  bool           `json:"isWhitelisted" csv:"whitelisted"`
	Status         VaultStatus    `json:"status" csv:"status"`
	TotalDeposited *big.Int       `json:"totalDeposited,omitempty" csv:"-"`
	TotalHarvested *big.Int       `json:"totalHarvested,omitempty" csv:"-"`
	Deposited      string         `json:"deposited,omitempty" csv:"deposited"`
	Harvested      string         `json:"harvested,omitempty" csv:"harvested"`
}

func statusFor(whitelisted bool) VaultStatus {
	if whitelisted {
		return VaultStatus_Active
	}
	return VaultStatus_Available
}

// NewVaultSummary builds the display model for one vault.
func NewVaultSummary(address common.Address, apy *big.Int, cfg VaultConfig) VaultSummary {
	if apy == nil {
		apy = new(big.Int)
	}
	return VaultSummary{
		Address:        address,
		Name:           VaultName(address),
		APYBasisPoints: new(big.Int).Set(apy),
		APY:            FormatBasisPoints(apy),
		RiskScore:      cfg.RiskScore,
		RiskLabel:      GetRiskLabel(cfg.RiskScore),
		RiskTone:       GetRiskTone(cfg.RiskScore),
		IsWhitelisted:  cfg.IsWhitelisted,
		Status:         statusFor(cfg.IsWhitelisted),
	}
}

// BuildVaultSummaries joins the APY list with the per-vault configs positionally.
// configs must be aligned with apys.Vaults; missing entries use the default config.
func BuildVaultSummaries(apys VaultAPYs, configs []VaultConfig) []VaultSummary {
	summaries := make([]VaultSummary, 0, len(apys.Vaults))
	for i, vault := range apys.Vaults {
		cfg := DefaultVaultConfig(vault)
		if i < len(configs) {
			cfg = configs[i]
		}
		summaries = append(summaries, NewVaultSummary(vault, apys.APYFor(i), cfg))
	}
	return summaries
}

// WithStats returns copies of the summaries with deposit and harvest totals filled in by address.
func WithStats(summaries []VaultSummary, stats []VaultStats, decimals int) []VaultSummary {
	byAddress := make(map[common.Address]VaultStats, len(stats))
	for _, s := range stats {
		byAddress[s.Address] = s
	}
	merged := make([]VaultSummary, len(summaries))
	for i, s := range summaries {
		if st, ok := byAddress[s.Address]; ok {
			s.TotalDeposited = st.TotalDeposited
			s.TotalHarvested = st.TotalHarvested
			s.Deposited = FormatTokenAmount(st.TotalDeposited, decimals)
			s.Harvested = FormatTokenAmount(st.TotalHarvested, decimals)
		}
		merged[i] = s
	}
	return merged
}

// CountByStatus tallies summaries per status.
func CountByStatus(summaries []VaultSummary) map[VaultStatus]int {
	counts := make(map[VaultStatus]int)
	for _, s := range summaries {
		counts[s.Status]++
	}
	return counts
}

type BestYield struct {
	Vault          common.Address `json:"vault"`
	Name           string         `json:"name"`
	APYBasisPoints *big.Int       `json:"apyBasisPoints"`
	APY            string         `json:"apy"`
	RiskTolerance  uint64         `json:"riskTolerance"`
}

func ParseBestYield(values []interface{}, riskTolerance uint64) BestYield {
	vault := toAddress(valueAt(values, 0))
	apy := toBig(valueAt(values, 1))
	return BestYield{
		Vault:          vault,
		Name:           VaultName(vault),
		APYBasisPoints: apy,
		APY:            FormatBasisPoints(apy),
		RiskTolerance:  riskTolerance,
	}
}
