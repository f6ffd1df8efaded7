package dashboard

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/yieldshift/sidecar/pkg/viewModel"
	"go.uber.org/zap"
)

// ConfigSubmission is a validated config form. Submissions are only logged; nothing is sent on chain.
type ConfigSubmission struct {
	Id          string                   `json:"id"`
	Pool        string                   `json:"pool"`
	PoolId      common.Hash              `json:"poolId"`
	Form        viewModel.PoolConfigForm `json:"form"`
	RiskProfile viewModel.RiskProfile    `json:"riskProfile"`
	Account     common.Address           `json:"account"`
	SubmittedAt time.Time                `json:"submittedAt"`
}

func (d *Dashboard) SelectedPool() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.selected
}

func (d *Dashboard) SelectPool(name string) error {
	if _, ok := d.pool(name); !ok {
		return errors.Wrapf(ErrUnknownPool, "'%s'", name)
	}
	d.mu.Lock()
	d.selected = name
	d.mu.Unlock()

	d.logger.Sugar().Infow("Selected pool", zap.String("pool", name))
	return nil
}

// ConfigForm returns the editing form for a pool: its current config once read, the defaults before that.
func (d *Dashboard) ConfigForm(name string) (viewModel.PoolConfigForm, error) {
	p, ok := d.pool(name)
	if !ok {
		return viewModel.PoolConfigForm{}, errors.Wrapf(ErrUnknownPool, "'%s'", name)
	}
	snap := p.config.Snapshot()
	if !snap.HasValue {
		return viewModel.DefaultPoolConfigForm(), nil
	}
	return snap.Value.Form(), nil
}

// SubmitConfig validates the form and records it in the local submission log.
func (d *Dashboard) SubmitConfig(name string, form viewModel.PoolConfigForm) (ConfigSubmission, error) {
	p, ok := d.pool(name)
	if !ok {
		return ConfigSubmission{}, errors.Wrapf(ErrUnknownPool, "'%s'", name)
	}
	if err := form.Validate(); err != nil {
		return ConfigSubmission{}, err
	}

	submission := ConfigSubmission{
		Id:          uuid.NewString(),
		Pool:        p.name,
		PoolId:      p.id,
		Form:        form,
		RiskProfile: form.RiskProfile(),
		Account:     d.session.State().Address,
		SubmittedAt: d.config.Now(),
	}

	d.mu.Lock()
	d.submissions = append(d.submissions, submission)
	if over := len(d.submissions) - d.config.MaxSubmissions; over > 0 {
		d.submissions = d.submissions[over:]
	}
	d.mu.Unlock()

	d.logger.Sugar().Infow("Pool config submitted",
		zap.String("pool", p.name),
		zap.Uint64("shiftPercentage", form.ShiftPercentage),
		zap.Uint64("minAPYThreshold", form.MinAPYThreshold),
		zap.Uint64("harvestFrequency", form.HarvestFrequency),
		zap.Uint64("riskTolerance", form.RiskTolerance),
		zap.String("account", submission.Account.Hex()),
	)
	return submission, nil
}

// Submissions returns the local submission log, newest first.
func (d *Dashboard) Submissions() []ConfigSubmission {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]ConfigSubmission, 0, len(d.submissions))
	for i := len(d.submissions) - 1; i >= 0; i-- {
		out = append(out, d.submissions[i])
	}
	return out
}
