package viewModel

// RiskBand maps every score up to and including MaxScore to Label.
type RiskBand struct {
	MaxScore uint64
	Label    string
}

// RiskTable is an ordered list of bands. Scores above the last band get Fallback.
type RiskTable struct {
	Name     string
	Bands    []RiskBand
	Fallback string
}

var (
	RiskTable_FiveBand = &RiskTable{
		Name: "five-band",
		Bands: []RiskBand{
			{MaxScore: 2, Label: "Very Low"},
			{MaxScore: 3, Label: "Low"},
			{MaxScore: 5, Label: "Medium"},
			{MaxScore: 7, Label: "Medium-High"},
		},
		Fallback: "High",
	}
	RiskTable_ThreeBand = &RiskTable{
		Name: "three-band",
		Bands: []RiskBand{
			{MaxScore: 3, Label: "Low Risk"},
			{MaxScore: 6, Label: "Medium Risk"},
		},
		Fallback: "High Risk",
	}
	RiskTable_Tone = &RiskTable{
		Name: "tone",
		Bands: []RiskBand{
			{MaxScore: 3, Label: "green"},
			{MaxScore: 5, Label: "yellow"},
			{MaxScore: 7, Label: "orange"},
		},
		Fallback: "red",
	}

	// DefaultRiskTable labels vault risk scores everywhere a vault is displayed.
	DefaultRiskTable = RiskTable_FiveBand
)

func (rt *RiskTable) Label(score uint64) string {
	for _, b := range rt.Bands {
		if score <= b.MaxScore {
			return b.Label
		}
	}
	return rt.Fallback
}

func GetRiskLabel(score uint64) string {
	return DefaultRiskTable.Label(score)
}

func GetRiskTone(score uint64) string {
	return RiskTable_Tone.Label(score)
}

type RiskProfile string

const (
	RiskProfile_Conservative RiskProfile = "Conservative"
	RiskProfile_Moderate     RiskProfile = "Moderate"
	RiskProfile_Aggressive   RiskProfile = "Aggressive"
)

// RiskProfileForTolerance uses the three-band thresholds of the pool configuration form.
func RiskProfileForTolerance(tolerance uint64) RiskProfile {
	switch {
	case tolerance <= 3:
		return RiskProfile_Conservative
	case tolerance <= 6:
		return RiskProfile_Moderate
	default:
		return RiskProfile_Aggressive
	}
}
