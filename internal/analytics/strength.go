package analytics

import "stockpulse/pkg/contracts/domain"

// Strength is the heatmap bucket of a correlation value
type Strength string

const (
	StrengthPerfect          Strength = "perfect"
	StrengthStrongPositive   Strength = "strong_positive"
	StrengthModeratePositive Strength = "moderate_positive"
	StrengthWeak             Strength = "weak"
	StrengthWeakNegative     Strength = "weak_negative"
	StrengthNegative         Strength = "negative"
)

// ClassifyCorrelation buckets a correlation value the way the dashboard heatmap colours it
func ClassifyCorrelation(v float64) Strength {
	switch {
	case v == 1:
		return StrengthPerfect
	case v >= 0.7:
		return StrengthStrongPositive
	case v >= 0.3:
		return StrengthModeratePositive
	case v >= 0:
		return StrengthWeak
	case v >= -0.3:
		return StrengthWeakNegative
	default:
		return StrengthNegative
	}
}

// ClassifyMatrix maps every cell of the matrix to its strength name
func ClassifyMatrix(m domain.CorrelationMatrix) map[string]map[string]string {
	out := make(map[string]map[string]string, len(m))
	for a, row := range m {
		out[a] = make(map[string]string, len(row))
		for b, v := range row {
			out[a][b] = string(ClassifyCorrelation(v))
		}
	}
	return out
}
