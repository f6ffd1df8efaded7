package viewModel

import (
	"fmt"
	"strings"
)

// FormRange bounds one field of the pool configuration form. Step of zero accepts any value.
type FormRange struct {
	Field string
	Min   uint64
	Max   uint64
	Step  uint64
}

var (
	FormRange_ShiftPercentage  = FormRange{Field: "shiftPercentage", Min: 10, Max: 50}
	FormRange_MinAPYThreshold  = FormRange{Field: "minAPYThreshold", Min: 2, Max: 20}
	FormRange_HarvestFrequency = FormRange{Field: "harvestFrequency", Min: 5, Max: 50, Step: 5}
	FormRange_RiskTolerance    = FormRange{Field: "riskTolerance", Min: 1, Max: 10}
)

func (r FormRange) check(value uint64) *FieldViolation {
	if value < r.Min || value > r.Max {
		return &FieldViolation{
			Field:   r.Field,
			Value:   value,
			Message: fmt.Sprintf("%s must be between %d and %d", r.Field, r.Min, r.Max),
		}
	}
	if r.Step > 0 && (value-r.Min)%r.Step != 0 {
		return &FieldViolation{
			Field:   r.Field,
			Value:   value,
			Message: fmt.Sprintf("%s must be a multiple of %d", r.Field, r.Step),
		}
	}
	return nil
}

type PoolConfigForm struct {
	ShiftPercentage  uint64 `json:"shiftPercentage"`
	MinAPYThreshold  uint64 `json:"minAPYThreshold"`
	HarvestFrequency uint64 `json:"harvestFrequency"`
	RiskTolerance    uint64 `json:"riskTolerance"`
}

func DefaultPoolConfigForm() PoolConfigForm {
	return PoolConfigForm{
		ShiftPercentage:  30,
		MinAPYThreshold:  5,
		HarvestFrequency: 10,
		RiskTolerance:    7,
	}
}

type FieldViolation struct {
	Field   string `json:"field"`
	Value   uint64 `json:"value"`
	Message string `json:"message"`
}

type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}
	return "invalid pool config: " + strings.Join(msgs, "; ")
}

// Validate returns a *ValidationError listing every field outside its range.
func (f PoolConfigForm) Validate() error {
	violations := make([]FieldViolation, 0)
	checks := []struct {
		r     FormRange
		value uint64
	}{
		{FormRange_ShiftPercentage, f.ShiftPercentage},
		{FormRange_MinAPYThreshold, f.MinAPYThreshold},
		{FormRange_HarvestFrequency, f.HarvestFrequency},
		{FormRange_RiskTolerance, f.RiskTolerance},
	}
	for _, c := range checks {
		if v := c.r.check(c.value); v != nil {
			violations = append(violations, *v)
		}
	}
	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

func (f PoolConfigForm) RiskProfile() RiskProfile {
	return RiskProfileForTolerance(f.RiskTolerance)
}
