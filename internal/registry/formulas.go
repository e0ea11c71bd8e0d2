package registry

import (
	"math"

	"github.com/voltaic-labs/examdex/internal/domain"
)

var errDivideByZero = domain.NewDomainError(domain.ErrCodeInvalidOperation, "formula divides by zero")

var formulas = []domain.FormulaTemplate{
	{
		ID:               "lumen-method",
		CanonicalPattern: "N = (E × A × M) / (F × U)",
		Aliases: []string{
			"N = E × A × M / F × U",
			"N = (E × A × D) / (F × U)",
		},
		VariableNames: []string{"E", "A", "M", "F", "U"},
		Evaluate: func(vars map[string]float64) (float64, error) {
			denom := vars["F"] * vars["U"]
			if denom == 0 {
				return 0, errDivideByZero
			}
			return vars["E"] * vars["A"] * vars["M"] / denom, nil
		},
	},
	{
		ID:               "voltage-drop-single-phase",
		CanonicalPattern: "e = (35.6 × L × I) / (1000 × A)",
		Aliases: []string{
			"e = 35.6 × L × I / 1000 × A",
		},
		VariableNames: []string{"L", "I", "A"},
		Evaluate: func(vars map[string]float64) (float64, error) {
			if vars["A"] == 0 {
				return 0, errDivideByZero
			}
			return 35.6 * vars["L"] * vars["I"] / (1000 * vars["A"]), nil
		},
	},
	{
		ID:               "voltage-drop-three-phase",
		CanonicalPattern: "e = (30.8 × L × I) / (1000 × A)",
		VariableNames:    []string{"L", "I", "A"},
		Evaluate: func(vars map[string]float64) (float64, error) {
			if vars["A"] == 0 {
				return 0, errDivideByZero
			}
			return 30.8 * vars["L"] * vars["I"] / (1000 * vars["A"]), nil
		},
	},
	{
		ID:               "three-phase-power",
		CanonicalPattern: "P = √3 × V × I × PF",
		Aliases: []string{
			"P = sqrt(3) × V × I × PF",
			"P = 1.732 × V × I × PF",
		},
		VariableNames: []string{"V", "I", "PF"},
		Evaluate: func(vars map[string]float64) (float64, error) {
			return math.Sqrt(3) * vars["V"] * vars["I"] * vars["PF"], nil
		},
	},
	{
		ID:               "demand-factor",
		CanonicalPattern: "DF = (MD / TL) × 100",
		Aliases: []string{
			"DF = MD / TL × 100",
		},
		VariableNames: []string{"MD", "TL"},
		Evaluate: func(vars map[string]float64) (float64, error) {
			if vars["TL"] == 0 {
				return 0, errDivideByZero
			}
			return vars["MD"] / vars["TL"] * 100, nil
		},
	},
	{
		ID:               "transformer-capacity",
		CanonicalPattern: "Pt = (P × DF) / (PF × EF)",
		VariableNames:    []string{"P", "DF", "PF", "EF"},
		Evaluate: func(vars map[string]float64) (float64, error) {
			denom := vars["PF"] * vars["EF"]
			if denom == 0 {
				return 0, errDivideByZero
			}
			return vars["P"] * vars["DF"] / denom, nil
		},
	},
}

// Formulas returns the known formula templates.
func Formulas() []domain.FormulaTemplate {
	return formulas
}
