package mock

import (
	"context"
	"fmt"
	"math/big"
	"math/rand"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/yieldshift/sidecar/pkg/activityFeed"
	"github.com/yieldshift/sidecar/pkg/viewModel"
	"go.uber.org/zap"
)

const Name = "mock"

const (
	DefaultActivityInterval    = 5 * time.Second
	DefaultActivityProbability = 0.1
)

type MockDataSourceConfig struct {
	// Fixtures overrides the embedded fixture YAML.
	Fixtures []byte

	// ActivityEnabled turns on the simulated activity generator.
	ActivityEnabled     bool
	ActivityInterval    time.Duration
	ActivityProbability float64
	TokenDecimals       int

	Rand *rand.Rand
	Now  func() time.Time
}

// MockDataSource serves demo data without touching the network.
type MockDataSource struct {
	fixtures *Fixtures
	config   *MockDataSourceConfig

	randLock sync.Mutex
	rand     *rand.Rand

	logger *zap.Logger
}

func newEventId() string {
	return uuid.NewString()
}

func NewMockDataSource(cfg *MockDataSourceConfig, l *zap.Logger) (*MockDataSource, error) {
	fixtures, err := LoadFixtures(cfg.Fixtures)
	if err != nil {
		return nil, err
	}
	if cfg.ActivityInterval <= 0 {
		cfg.ActivityInterval = DefaultActivityInterval
	}
	if cfg.ActivityProbability <= 0 {
		cfg.ActivityProbability = DefaultActivityProbability
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	r := cfg.Rand
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &MockDataSource{
		fixtures: fixtures,
		config:   cfg,
		rand:     r,
		logger:   l,
	}, nil
}

func (mds *MockDataSource) Name() string {
	return Name
}

func (mds *MockDataSource) VaultsReady() bool {
	return true
}

func (mds *MockDataSource) StatsReady() bool {
	return true
}

func (mds *MockDataSource) PoolReady(poolId common.Hash) bool {
	return true
}

func (mds *MockDataSource) VaultSummaries(ctx context.Context) ([]viewModel.VaultSummary, error) {
	summaries := make([]viewModel.VaultSummary, 0, len(mds.fixtures.Vaults))
	for _, v := range mds.fixtures.Vaults {
		summaries = append(summaries, v.summary())
	}
	return summaries, nil
}

// VaultAPY is the fixture APY, or zero for a vault the fixtures do not list.
func (mds *MockDataSource) VaultAPY(ctx context.Context, vault common.Address) (*big.Int, error) {
	for _, v := range mds.fixtures.Vaults {
		if common.HexToAddress(v.Address) == vault {
			return big.NewInt(v.APYBasisPoints), nil
		}
	}
	return new(big.Int), nil
}

func (mds *MockDataSource) StatsVaults(ctx context.Context) ([]common.Address, error) {
	vaults := make([]common.Address, 0, len(mds.fixtures.Vaults))
	for _, v := range mds.fixtures.Vaults {
		vaults = append(vaults, common.HexToAddress(v.Address))
	}
	return vaults, nil
}

func (mds *MockDataSource) VaultStats(ctx context.Context, vaults []common.Address) ([]viewModel.VaultStats, error) {
	byAddress := make(map[common.Address]viewModel.VaultStats, len(mds.fixtures.Vaults))
	for _, v := range mds.fixtures.Vaults {
		s := v.stats()
		byAddress[s.Address] = s
	}
	stats := make([]viewModel.VaultStats, 0, len(vaults))
	for _, a := range vaults {
		s, ok := byAddress[a]
		if !ok {
			s = viewModel.VaultStats{Address: a, TotalDeposited: new(big.Int), TotalHarvested: new(big.Int)}
		}
		stats = append(stats, s)
	}
	return stats, nil
}

// BestYield picks the highest-APY fixture vault whose risk score is within the tolerance.
func (mds *MockDataSource) BestYield(ctx context.Context, riskTolerance uint64) (viewModel.BestYield, error) {
	var best *VaultFixture
	for i, v := range mds.fixtures.Vaults {
		if v.RiskScore > riskTolerance {
			continue
		}
		if best == nil || v.APYBasisPoints > best.APYBasisPoints {
			best = &mds.fixtures.Vaults[i]
		}
	}
	if best == nil {
		return viewModel.ParseBestYield(nil, riskTolerance), nil
	}
	by := viewModel.ParseBestYield([]interface{}{common.HexToAddress(best.Address), big.NewInt(best.APYBasisPoints)}, riskTolerance)
	by.Name = best.Name
	return by, nil
}

func (mds *MockDataSource) ActiveVaultsCount(ctx context.Context) (uint64, error) {
	count := uint64(0)
	for _, v := range mds.fixtures.Vaults {
		if v.Status == string(viewModel.VaultStatus_Active) {
			count++
		}
	}
	return count, nil
}

// PoolState returns the fixture pool for every pool id.
func (mds *MockDataSource) PoolState(ctx context.Context, poolId common.Hash) (*viewModel.PoolState, error) {
	return mds.fixtures.Pool.state(poolId, mds.config.Now()), nil
}

func (mds *MockDataSource) PoolConfig(ctx context.Context, poolId common.Hash) (viewModel.PoolConfig, error) {
	return mds.fixtures.PoolConfig.config(), nil
}

func (mds *MockDataSource) float64() float64 {
	mds.randLock.Lock()
	defer mds.randLock.Unlock()
	return mds.rand.Float64()
}

func (mds *MockDataSource) tokens(whole int64) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(mds.config.TokenDecimals)), nil)
	return new(big.Int).Mul(big.NewInt(whole), scale)
}

// randomEvent builds a simulated shift or harvest event.
func (mds *MockDataSource) randomEvent() viewModel.ActivityEvent {
	e := viewModel.ActivityEvent{
		Id:        newEventId(),
		Timestamp: mds.config.Now(),
	}
	if mds.float64() > 0.5 {
		whole := int64(mds.float64() * 5000)
		e.Type = viewModel.ActivityEventType_Shift
		e.Amount = mds.tokens(whole)
		e.Message = fmt.Sprintf("Shifted $%d to best yield", whole)
	} else {
		whole := int64(mds.float64() * 200)
		e.Type = viewModel.ActivityEventType_Harvest
		e.Amount = mds.tokens(whole)
		e.Message = fmt.Sprintf("Harvested $%d in rewards", whole)
	}
	return e
}

// Tick rolls the generator once and returns the event it produced, if any.
func (mds *MockDataSource) Tick() (viewModel.ActivityEvent, bool) {
	if mds.float64() >= mds.config.ActivityProbability {
		return viewModel.ActivityEvent{}, false
	}
	return mds.randomEvent(), true
}

// SubscribeActivity delivers the fixture activity, oldest first, then simulated events
// when the generator is enabled.
func (mds *MockDataSource) SubscribeActivity(ctx context.Context, sink activityFeed.Sink) (*activityFeed.Subscription, error) {
	seeds := mds.fixtures.seedEvents(mds.config.Now())

	return activityFeed.RunSubscription(func(quit <-chan struct{}) error {
		if len(seeds) > 0 {
			sink(seeds)
		}
		if !mds.config.ActivityEnabled {
			select {
			case <-quit:
			case <-ctx.Done():
			}
			return nil
		}

		ticker := time.NewTicker(mds.config.ActivityInterval)
		defer ticker.Stop()
		for {
			select {
			case <-quit:
				return nil
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if e, ok := mds.Tick(); ok {
					mds.logger.Sugar().Debugw("Simulated activity", zap.String("type", string(e.Type)))
					sink([]viewModel.ActivityEvent{e})
				}
			}
		}
	}, nil), nil
}

func (mds *MockDataSource) Close() {}
